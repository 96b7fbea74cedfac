package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"github.com/linlinbupt123-crypto/sweep_service/config"
	"github.com/linlinbupt123-crypto/sweep_service/domain"
	"github.com/linlinbupt123-crypto/sweep_service/entity"
	apperrors "github.com/linlinbupt123-crypto/sweep_service/errors"
	"github.com/linlinbupt123-crypto/sweep_service/metrics"
)

// ErrCycleInProgress is returned when a sweep trigger fires while an earlier
// cycle is still running. The trigger is dropped, never queued; the next one
// re-evaluates every address from fresh balances.
var ErrCycleInProgress = errors.New("sweep cycle already in progress")

// Thresholds is the balance policy for one cycle. Token amounts are token
// units, the rest native units.
type Thresholds struct {
	MinSweep       decimal.Decimal // token balance worth sweeping at all
	MinGasReserve  decimal.Decimal // native balance required to pay a token transfer's fee
	DustReserve    decimal.Decimal // native amount left behind after a native sweep
	MinNativeSweep decimal.Decimal // native sweeps below this are uneconomical
}

// ThresholdsFromConfig lifts the configured policy values into decimals.
func ThresholdsFromConfig(cfg config.SweepConfig) Thresholds {
	return Thresholds{
		MinSweep:       decimal.NewFromFloat(cfg.MinSweep),
		MinGasReserve:  decimal.NewFromFloat(cfg.MinGasReserve),
		DustReserve:    decimal.NewFromFloat(cfg.DustReserve),
		MinNativeSweep: decimal.NewFromFloat(cfg.MinNativeSweep),
	}
}

// SweeperConfig wires the engine's collaborators. Every field is required
// unless noted; the sweeper holds no globals and builds nothing itself.
type SweeperConfig struct {
	Addresses     AddressStore
	Keyring       *domain.Keyring
	Oracle        *Oracle
	Executor      *Executor
	Recorder      *Recorder
	Notifier      Notifier
	Metrics       *metrics.Sweep
	MasterAddress string
	Thresholds    Thresholds
	Workers       int // bounded pool size, minimum 1
	Log           *slog.Logger
}

// CycleStats are process-wide running totals, written only by the cycle
// coordinator after all per-address work has finished, never reset.
type CycleStats struct {
	TotalSwept decimal.Decimal `json:"total_swept"`
	Cycles     uint64          `json:"cycles"`
	Errors     uint64          `json:"errors"`
	LastCycle  time.Time       `json:"last_cycle"`
}

// CycleReport summarizes one finished cycle.
type CycleReport struct {
	Addresses int             `json:"addresses"`
	Transfers int             `json:"transfers"`
	Swept     decimal.Decimal `json:"swept"`
	Errors    int             `json:"errors"`
	Took      time.Duration   `json:"took"`
}

type addressResult struct {
	swept           decimal.Decimal
	tokenTransfers  int
	nativeTransfers int
	errs            int
}

// Sweeper consolidates deposit-address balances into the master wallet.
// Cycles never overlap. Within a cycle a bounded worker pool processes the
// addresses; each address is handled by exactly one worker, with its token
// transfer submitted before its native transfer.
type Sweeper struct {
	cfg *SweeperConfig

	running atomic.Bool

	mu    sync.Mutex
	stats CycleStats
}

func NewSweeper(cfg *SweeperConfig) *Sweeper {
	return &Sweeper{cfg: cfg}
}

// Running reports whether a cycle is currently in flight.
func (s *Sweeper) Running() bool {
	return s.running.Load()
}

// Stats returns a copy of the running totals.
func (s *Sweeper) Stats() CycleStats {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stats
}

// RunCycle executes one full sweep cycle. Only a failure to enumerate the
// active addresses aborts it; everything after that is isolated per address
// and folded into the error count.
func (s *Sweeper) RunCycle(ctx context.Context) (CycleReport, error) {
	if !s.running.CompareAndSwap(false, true) {
		return CycleReport{}, ErrCycleInProgress
	}
	defer s.running.Store(false)

	start := time.Now()

	addrs, err := s.cfg.Addresses.ListActive(ctx)
	if err != nil {
		return CycleReport{}, apperrors.WrapWithCode(apperrors.CodeStore, "sweeper.RunCycle", err)
	}
	s.cfg.Log.Info("sweep cycle started", "addresses", len(addrs), "workers", s.workers())

	results := make([]addressResult, len(addrs))
	g := new(errgroup.Group)
	g.SetLimit(s.workers())
	for i, addr := range addrs {
		i, addr := i, addr // per-iteration copies; this module builds as go 1.21
		g.Go(func() error {
			results[i] = s.sweepAddress(ctx, addr)
			return nil
		})
	}
	_ = g.Wait()

	report := CycleReport{Addresses: len(addrs), Took: time.Since(start)}
	swept := decimal.Zero
	var tokenN, nativeN int
	for _, r := range results {
		swept = swept.Add(r.swept)
		tokenN += r.tokenTransfers
		nativeN += r.nativeTransfers
		report.Errors += r.errs
	}
	report.Swept = swept
	report.Transfers = tokenN + nativeN

	s.mu.Lock()
	s.stats.TotalSwept = s.stats.TotalSwept.Add(swept)
	s.stats.Cycles++
	s.stats.Errors += uint64(report.Errors)
	s.stats.LastCycle = time.Now()
	s.mu.Unlock()

	if swept.IsPositive() {
		s.updateMaster(ctx, swept)
	}

	sweptF, _ := swept.Float64()
	s.cfg.Metrics.ObserveCycle(sweptF, tokenN, nativeN, report.Errors, report.Took)

	s.cfg.Log.Info("sweep cycle finished",
		"addresses", report.Addresses,
		"transfers", report.Transfers,
		"swept", swept,
		"errors", report.Errors,
		"took", report.Took)
	return report, nil
}

// sweepAddress evaluates and sweeps a single address. All failures stay
// inside the returned result; nothing here may take the cycle down.
func (s *Sweeper) sweepAddress(ctx context.Context, addr *entity.Address) (res addressResult) {
	log := s.cfg.Log.With("address", addr.Address, "owner", addr.OwnerRef)
	defer func() {
		if rec := recover(); rec != nil {
			log.Error("sweep worker panic", "panic", rec)
			res.errs++
		}
	}()

	snap := s.cfg.Oracle.Read(ctx, addr.Address)
	if !snap.Native.Readable() {
		log.Warn("native balance unreadable, address skipped this cycle", "err", snap.Native.Err)
		res.errs++
		return res
	}
	native := snap.Native.Amount

	if snap.Token.Readable() {
		s.cfg.Recorder.TouchAddressBalance(ctx, addr.ID, snap.Token.Amount)
	} else {
		log.Warn("token balance unreadable, token sweep skipped this cycle", "err", snap.Token.Err)
		res.errs++
	}

	th := s.cfg.Thresholds

	// Token side first: the observed native balance must still cover its fee.
	sweepToken := false
	if snap.Token.Readable() && snap.Token.Amount.GreaterThanOrEqual(th.MinSweep) {
		if native.LessThan(th.MinGasReserve) {
			log.Warn("gas reserve too low for token sweep",
				"token", snap.Token.Amount, "native", native, "need", th.MinGasReserve)
		} else {
			sweepToken = true
		}
	}

	nativeAmount := native.Sub(th.DustReserve)
	sweepNative := nativeAmount.GreaterThan(th.MinNativeSweep)

	if !sweepToken && !sweepNative {
		return res
	}

	priv, err := s.cfg.Keyring.DecryptKey(addr.EncryptedKey)
	if err != nil {
		log.Error("key decryption failed, address skipped this cycle", "err", err)
		res.errs++
		return res
	}

	if sweepToken {
		amount := snap.Token.Amount
		if hash, err := s.cfg.Executor.SendToken(ctx, priv, s.cfg.MasterAddress, amount); err != nil {
			log.Warn("token sweep rejected", "amount", amount, "err", err)
			res.errs++
		} else {
			s.recordTransfer(ctx, log, addr.Address, entity.KindToken, amount, hash, &res)
			res.swept = res.swept.Add(amount)
			res.tokenTransfers++
			log.Info("token sweep accepted", "amount", amount, "tx_hash", hash)
		}
	}

	if sweepNative {
		if hash, err := s.cfg.Executor.SendNative(ctx, priv, s.cfg.MasterAddress, nativeAmount); err != nil {
			log.Warn("native sweep rejected", "amount", nativeAmount, "err", err)
			res.errs++
		} else {
			s.recordTransfer(ctx, log, addr.Address, entity.KindNative, nativeAmount, hash, &res)
			res.swept = res.swept.Add(nativeAmount)
			res.nativeTransfers++
			log.Info("native sweep accepted", "amount", nativeAmount, "tx_hash", hash)
		}
	}

	if n := res.tokenTransfers + res.nativeTransfers; n > 0 {
		s.cfg.Notifier.Notify(ctx, addr.OwnerRef,
			fmt.Sprintf("swept %s from %s to the master wallet in %d transfer(s)",
				res.swept, addr.Address, n))
	}
	return res
}

// recordTransfer persists an accepted transfer at pending status. A store
// failure leaves the hash as the only durable trace; it is logged and
// counted, the transfer itself is not retried.
func (s *Sweeper) recordTransfer(ctx context.Context, log *slog.Logger, from string, kind entity.TokenKind, amount decimal.Decimal, hash string, res *addressResult) {
	_, err := s.cfg.Recorder.Record(ctx, &entity.SweepTransaction{
		FromAddress: from,
		ToAddress:   s.cfg.MasterAddress,
		Kind:        kind,
		Amount:      amount.String(),
		TxHash:      hash,
		Status:      entity.StatusPending,
	})
	if err != nil {
		log.Error("accepted transfer not recorded", "tx_hash", hash, "err", err)
		res.errs++
	}
}

// updateMaster folds this cycle's swept amount into the persistent running
// total and refreshes the master row's observed token balance.
func (s *Sweeper) updateMaster(ctx context.Context, swept decimal.Decimal) {
	prevTotal := decimal.Zero
	balance := decimal.Zero
	if prev, err := s.cfg.Recorder.MasterSnapshot(ctx, s.cfg.MasterAddress); err != nil {
		s.cfg.Log.Warn("master snapshot read failed", "err", err)
	} else if prev != nil {
		if d, err := decimal.NewFromString(prev.TotalReceived); err == nil {
			prevTotal = d
		}
		if d, err := decimal.NewFromString(prev.Balance); err == nil {
			balance = d
		}
	}
	if snap := s.cfg.Oracle.Read(ctx, s.cfg.MasterAddress); snap.Token.Readable() {
		balance = snap.Token.Amount
	}
	if err := s.cfg.Recorder.UpdateMasterBalance(ctx, s.cfg.MasterAddress, balance, prevTotal.Add(swept)); err != nil {
		s.cfg.Log.Warn("master balance update failed", "err", err)
	}
}

func (s *Sweeper) workers() int {
	if s.cfg.Workers < 1 {
		return 1
	}
	return s.cfg.Workers
}

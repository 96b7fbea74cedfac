package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/shopspring/decimal"

	"github.com/linlinbupt123-crypto/sweep_service/entity"
	apperrors "github.com/linlinbupt123-crypto/sweep_service/errors"
)

// Recorder persists sweep outcomes. The on-chain hash is the durable source
// of truth; everything here is bookkeeping around it.
type Recorder struct {
	Txs    TransactionStore
	Addrs  AddressStore
	Master MasterStore
	Log    *slog.Logger
}

func NewRecorder(txs TransactionStore, addrs AddressStore, master MasterStore, log *slog.Logger) *Recorder {
	return &Recorder{Txs: txs, Addrs: addrs, Master: master, Log: log}
}

// Record stores one accepted transfer at pending status. Recording the same
// hash twice keeps exactly one row.
func (r *Recorder) Record(ctx context.Context, tx *entity.SweepTransaction) (string, error) {
	if tx.Status == "" {
		tx.Status = entity.StatusPending
	}
	if tx.CreatedAt.IsZero() {
		tx.CreatedAt = time.Now()
	}
	id, inserted, err := r.Txs.Insert(ctx, tx)
	if err != nil {
		return "", apperrors.WrapWithCode(apperrors.CodeStore, "recorder.Record", err)
	}
	if !inserted {
		r.Log.Info("transfer already recorded", "tx_hash", tx.TxHash)
	}
	return id, nil
}

// UpdateMasterBalance upserts the master wallet row.
func (r *Recorder) UpdateMasterBalance(ctx context.Context, address string, balance, totalReceived decimal.Decimal) error {
	err := r.Master.Upsert(ctx, &entity.MasterBalance{
		Address:       address,
		Balance:       balance.String(),
		TotalReceived: totalReceived.String(),
		UpdatedAt:     time.Now(),
	})
	if err != nil {
		return apperrors.WrapWithCode(apperrors.CodeStore, "recorder.UpdateMasterBalance", err)
	}
	return nil
}

// MasterSnapshot returns the stored master row, nil when none exists yet.
func (r *Recorder) MasterSnapshot(ctx context.Context, address string) (*entity.MasterBalance, error) {
	mb, err := r.Master.Get(ctx, address)
	if err != nil {
		return nil, apperrors.WrapWithCode(apperrors.CodeStore, "recorder.MasterSnapshot", err)
	}
	return mb, nil
}

// TouchAddressBalance refreshes an address's last-known token balance. Best
// effort: a store failure here is logged and dropped.
func (r *Recorder) TouchAddressBalance(ctx context.Context, addressID string, balance decimal.Decimal) {
	if addressID == "" {
		return
	}
	if err := r.Addrs.UpdateTokenBalance(ctx, addressID, balance.String()); err != nil {
		r.Log.Warn("address balance update failed", "address_id", addressID, "err", err)
	}
}

package service

import (
	"context"
	"crypto/ecdsa"
	"fmt"
	"io"
	"log/slog"
	"math/big"
	"sync"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/linlinbupt123-crypto/sweep_service/domain"
	"github.com/linlinbupt123-crypto/sweep_service/entity"
	"github.com/linlinbupt123-crypto/sweep_service/metrics"
	"github.com/linlinbupt123-crypto/sweep_service/utils"
)

const (
	testMnemonic = "abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon about"
	testMaster   = "0x000000000000000000000000000000000000dEaD"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestKeyring(t *testing.T) *domain.Keyring {
	t.Helper()
	kr, err := domain.NewKeyring(testMnemonic, "", "unit-test-secret")
	require.NoError(t, err)
	return kr
}

type sentCall struct {
	seq       int
	from      string
	to        string
	amount    *big.Int
	gasFeeCap *big.Int
}

// mockChain fakes the RPC surface with per-address balances and failure
// injection. Send calls are recorded in submission order.
type mockChain struct {
	mu   sync.Mutex
	gate chan struct{} // when set, native balance reads block until it closes

	native map[string]*big.Int
	token  map[string]*big.Int

	nativeErr     map[string]error
	tokenErr      map[string]error
	sendNativeErr map[string]error // keyed by sender address
	sendTokenErr  map[string]error

	seq        int
	sentNative []sentCall
	sentToken  []sentCall
}

func newMockChain() *mockChain {
	return &mockChain{
		native:        make(map[string]*big.Int),
		token:         make(map[string]*big.Int),
		nativeErr:     make(map[string]error),
		tokenErr:      make(map[string]error),
		sendNativeErr: make(map[string]error),
		sendTokenErr:  make(map[string]error),
	}
}

func (m *mockChain) setNative(address, amount string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.native[address] = utils.ToWei(decimal.RequireFromString(amount))
}

func (m *mockChain) setToken(address, amount string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.token[address] = utils.ToTokenUnits(decimal.RequireFromString(amount))
}

func (m *mockChain) NativeBalance(_ context.Context, address string) (*big.Int, error) {
	if m.gate != nil {
		<-m.gate
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.nativeErr[address]; err != nil {
		return nil, err
	}
	if b, ok := m.native[address]; ok {
		return new(big.Int).Set(b), nil
	}
	return big.NewInt(0), nil
}

func (m *mockChain) TokenBalance(_ context.Context, address string) (*big.Int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.tokenErr[address]; err != nil {
		return nil, err
	}
	if b, ok := m.token[address]; ok {
		return new(big.Int).Set(b), nil
	}
	return big.NewInt(0), nil
}

func (m *mockChain) SendNative(_ context.Context, priv *ecdsa.PrivateKey, to string, amountWei, gasFeeCap *big.Int) (string, error) {
	from := crypto.PubkeyToAddress(priv.PublicKey).Hex()
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.sendNativeErr[from]; err != nil {
		return "", err
	}
	m.seq++
	m.sentNative = append(m.sentNative, sentCall{
		seq:       m.seq,
		from:      from,
		to:        to,
		amount:    new(big.Int).Set(amountWei),
		gasFeeCap: new(big.Int).Set(gasFeeCap),
	})
	return fmt.Sprintf("0xnative%06d", m.seq), nil
}

func (m *mockChain) SendToken(_ context.Context, priv *ecdsa.PrivateKey, to string, rawAmount, gasFeeCap *big.Int) (string, error) {
	from := crypto.PubkeyToAddress(priv.PublicKey).Hex()
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.sendTokenErr[from]; err != nil {
		return "", err
	}
	m.seq++
	m.sentToken = append(m.sentToken, sentCall{
		seq:       m.seq,
		from:      from,
		to:        to,
		amount:    new(big.Int).Set(rawAmount),
		gasFeeCap: new(big.Int).Set(gasFeeCap),
	})
	return fmt.Sprintf("0xtoken%06d", m.seq), nil
}

func (m *mockChain) ValidAddress(address string) bool {
	return common.IsHexAddress(address)
}

type mockAddressStore struct {
	mu        sync.Mutex
	rows      []*entity.Address
	listErr   error
	updateErr error
	balances  map[string]string // address id -> last known token balance
}

func newMockAddressStore() *mockAddressStore {
	return &mockAddressStore{balances: make(map[string]string)}
}

func (m *mockAddressStore) Create(_ context.Context, addr *entity.Address) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rows = append(m.rows, addr)
	return nil
}

func (m *mockAddressStore) ListActive(_ context.Context) ([]*entity.Address, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.listErr != nil {
		return nil, m.listErr
	}
	var out []*entity.Address
	for _, a := range m.rows {
		if a.Active {
			out = append(out, a)
		}
	}
	return out, nil
}

func (m *mockAddressStore) CountByOwner(_ context.Context, ownerRef int64) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int64
	for _, a := range m.rows {
		if a.OwnerRef == ownerRef {
			n++
		}
	}
	return n, nil
}

func (m *mockAddressStore) GetByOwner(_ context.Context, ownerRef int64) ([]*entity.Address, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*entity.Address
	for _, a := range m.rows {
		if a.OwnerRef == ownerRef {
			out = append(out, a)
		}
	}
	return out, nil
}

func (m *mockAddressStore) GetByAddress(_ context.Context, address string) (*entity.Address, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, a := range m.rows {
		if a.Address == address {
			return a, nil
		}
	}
	return nil, nil
}

func (m *mockAddressStore) UpdateTokenBalance(_ context.Context, id string, balance string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.updateErr != nil {
		return m.updateErr
	}
	m.balances[id] = balance
	return nil
}

type mockTxStore struct {
	mu        sync.Mutex
	rows      []*entity.SweepTransaction
	insertErr error
}

func (m *mockTxStore) Insert(_ context.Context, tx *entity.SweepTransaction) (string, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.insertErr != nil {
		return "", false, m.insertErr
	}
	for _, row := range m.rows {
		if row.TxHash == tx.TxHash {
			return "", false, nil
		}
	}
	clone := *tx
	clone.ID = fmt.Sprintf("tx-%d", len(m.rows)+1)
	m.rows = append(m.rows, &clone)
	return clone.ID, true, nil
}

func (m *mockTxStore) byKind(kind entity.TokenKind) []*entity.SweepTransaction {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*entity.SweepTransaction
	for _, tx := range m.rows {
		if tx.Kind == kind {
			out = append(out, tx)
		}
	}
	return out
}

type mockMasterStore struct {
	mu   sync.Mutex
	rows map[string]*entity.MasterBalance
}

func newMockMasterStore() *mockMasterStore {
	return &mockMasterStore{rows: make(map[string]*entity.MasterBalance)}
}

func (m *mockMasterStore) Upsert(_ context.Context, mb *entity.MasterBalance) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	clone := *mb
	m.rows[mb.Address] = &clone
	return nil
}

func (m *mockMasterStore) Get(_ context.Context, address string) (*entity.MasterBalance, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if mb, ok := m.rows[address]; ok {
		clone := *mb
		return &clone, nil
	}
	return nil, nil
}

type notification struct {
	owner   int64
	message string
}

type mockNotifier struct {
	mu     sync.Mutex
	events []notification
}

func (m *mockNotifier) Notify(_ context.Context, ownerRef int64, message string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, notification{owner: ownerRef, message: message})
}

func defaultThresholds() Thresholds {
	return Thresholds{
		MinSweep:       decimal.NewFromInt(1),
		MinGasReserve:  decimal.NewFromInt(15),
		DustReserve:    decimal.NewFromInt(1),
		MinNativeSweep: decimal.RequireFromString("0.1"),
	}
}

type sweepHarness struct {
	t        *testing.T
	keyring  *domain.Keyring
	chain    *mockChain
	addrs    *mockAddressStore
	txs      *mockTxStore
	master   *mockMasterStore
	notifier *mockNotifier
	sweeper  *Sweeper
}

func newSweepHarness(t *testing.T, workers int) *sweepHarness {
	t.Helper()
	h := &sweepHarness{
		t:        t,
		keyring:  newTestKeyring(t),
		chain:    newMockChain(),
		addrs:    newMockAddressStore(),
		txs:      &mockTxStore{},
		master:   newMockMasterStore(),
		notifier: &mockNotifier{},
	}
	log := discardLogger()
	h.sweeper = NewSweeper(&SweeperConfig{
		Addresses:     h.addrs,
		Keyring:       h.keyring,
		Oracle:        NewOracle(h.chain),
		Executor:      NewExecutor(h.chain, decimal.RequireFromString("0.01")),
		Recorder:      NewRecorder(h.txs, h.addrs, h.master, log),
		Notifier:      h.notifier,
		Metrics:       metrics.NewSweep(prometheus.NewRegistry()),
		MasterAddress: testMaster,
		Thresholds:    defaultThresholds(),
		Workers:       workers,
		Log:           log,
	})
	return h
}

// addAddress derives the keypair for index, encrypts it and registers an
// active row, the same shape GenerateAddress would store.
func (h *sweepHarness) addAddress(owner int64, index uint32) *entity.Address {
	h.t.Helper()
	d, err := h.keyring.Derive(index)
	require.NoError(h.t, err)
	enc, err := h.keyring.EncryptKey(d.PrivateKey)
	require.NoError(h.t, err)
	addr := &entity.Address{
		ID:           fmt.Sprintf("a%d", index),
		OwnerRef:     owner,
		Index:        index,
		Address:      d.Address,
		EncryptedKey: enc,
		Active:       true,
		CreatedAt:    time.Now(),
	}
	h.addrs.mu.Lock()
	h.addrs.rows = append(h.addrs.rows, addr)
	h.addrs.mu.Unlock()
	return addr
}

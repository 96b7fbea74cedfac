package service

import (
	"context"
	"crypto/ecdsa"
	"math/big"

	"github.com/linlinbupt123-crypto/sweep_service/entity"
)

// AddressStore is the slice of the address repository the services need.
// repository.AddressRepo implements it; tests substitute in-memory fakes.
type AddressStore interface {
	Create(ctx context.Context, addr *entity.Address) error
	ListActive(ctx context.Context) ([]*entity.Address, error)
	CountByOwner(ctx context.Context, ownerRef int64) (int64, error)
	GetByOwner(ctx context.Context, ownerRef int64) ([]*entity.Address, error)
	GetByAddress(ctx context.Context, address string) (*entity.Address, error)
	UpdateTokenBalance(ctx context.Context, id string, balance string) error
}

// TransactionStore persists sweep transactions. Insert reports whether the
// row was new; a duplicate hash is not an error.
type TransactionStore interface {
	Insert(ctx context.Context, tx *entity.SweepTransaction) (string, bool, error)
}

// MasterStore keeps the single master-wallet row.
type MasterStore interface {
	Upsert(ctx context.Context, mb *entity.MasterBalance) error
	Get(ctx context.Context, address string) (*entity.MasterBalance, error)
}

// ChainClient is the outbound RPC surface. chain.ETHClient implements it.
type ChainClient interface {
	NativeBalance(ctx context.Context, address string) (*big.Int, error)
	TokenBalance(ctx context.Context, address string) (*big.Int, error)
	SendNative(ctx context.Context, priv *ecdsa.PrivateKey, to string, amountWei, gasFeeCap *big.Int) (string, error)
	SendToken(ctx context.Context, priv *ecdsa.PrivateKey, to string, rawAmount, gasFeeCap *big.Int) (string, error)
	ValidAddress(address string) bool
}

// Notifier delivers sweep outcomes to the owner-facing front end. Fire and
// forget: implementations swallow their own delivery errors.
type Notifier interface {
	Notify(ctx context.Context, ownerRef int64, message string)
}

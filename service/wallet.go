package service

import (
	"context"
	"time"

	"github.com/linlinbupt123-crypto/sweep_service/domain"
	"github.com/linlinbupt123-crypto/sweep_service/entity"
	apperrors "github.com/linlinbupt123-crypto/sweep_service/errors"
)

// Wallets handles the on-demand flows: allocating deposit addresses and
// answering balance queries.
type Wallets struct {
	Keyring   *domain.Keyring
	Addresses AddressStore
	Oracle    *Oracle
	Chain     ChainClient
}

func NewWallets(keyring *domain.Keyring, addresses AddressStore, oracle *Oracle, chainClient ChainClient) *Wallets {
	return &Wallets{Keyring: keyring, Addresses: addresses, Oracle: oracle, Chain: chainClient}
}

// GenerateAddress allocates the owner's next derivation index, derives the
// keypair and stores the address with its encrypted key. Next index = number
// of addresses the owner already has; the row only caches what the seed
// determines.
func (s *Wallets) GenerateAddress(ctx context.Context, ownerRef int64, label string) (*entity.Address, error) {
	count, err := s.Addresses.CountByOwner(ctx, ownerRef)
	if err != nil {
		return nil, apperrors.WrapWithCode(apperrors.CodeStore, "wallets.GenerateAddress", err)
	}

	derived, err := s.Keyring.Derive(uint32(count))
	if err != nil {
		return nil, err
	}
	encrypted, err := s.Keyring.EncryptKey(derived.PrivateKey)
	if err != nil {
		return nil, err
	}

	addr := &entity.Address{
		OwnerRef:     ownerRef,
		Index:        derived.Index,
		Address:      derived.Address,
		EncryptedKey: encrypted,
		Label:        label,
		Active:       true,
		CreatedAt:    time.Now(),
	}
	if err := s.Addresses.Create(ctx, addr); err != nil {
		return nil, apperrors.WrapWithCode(apperrors.CodeStore, "wallets.GenerateAddress", err)
	}
	return addr, nil
}

// ListAddresses returns every address allocated to an owner.
func (s *Wallets) ListAddresses(ctx context.Context, ownerRef int64) ([]*entity.Address, error) {
	addrs, err := s.Addresses.GetByOwner(ctx, ownerRef)
	if err != nil {
		return nil, apperrors.WrapWithCode(apperrors.CodeStore, "wallets.ListAddresses", err)
	}
	return addrs, nil
}

// AddressBalance reads both balances of one address on demand.
func (s *Wallets) AddressBalance(ctx context.Context, address string) (Snapshot, error) {
	if !s.Chain.ValidAddress(address) {
		return Snapshot{}, apperrors.New(apperrors.CodeBadRequest, "wallets.AddressBalance", "invalid address")
	}
	return s.Oracle.Read(ctx, address), nil
}

package service

import (
	"context"
	"testing"

	"github.com/ethereum/go-ethereum/crypto"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	apperrors "github.com/linlinbupt123-crypto/sweep_service/errors"
)

func newTestWallets(t *testing.T) (*Wallets, *mockAddressStore, *mockChain) {
	t.Helper()
	kr := newTestKeyring(t)
	addrs := newMockAddressStore()
	ch := newMockChain()
	return NewWallets(kr, addrs, NewOracle(ch), ch), addrs, ch
}

func TestGenerateAddressAssignsNextIndex(t *testing.T) {
	w, _, _ := newTestWallets(t)

	first, err := w.GenerateAddress(context.Background(), 7, "deposit")
	require.NoError(t, err)
	require.Equal(t, uint32(0), first.Index)
	require.Equal(t, int64(7), first.OwnerRef)
	require.Equal(t, "deposit", first.Label)
	require.True(t, first.Active)

	second, err := w.GenerateAddress(context.Background(), 7, "")
	require.NoError(t, err)
	require.Equal(t, uint32(1), second.Index)
	require.NotEqual(t, first.Address, second.Address)

	// another owner's count starts from zero
	other, err := w.GenerateAddress(context.Background(), 8, "")
	require.NoError(t, err)
	require.Equal(t, uint32(0), other.Index)
}

func TestGeneratedAddressMatchesDerivation(t *testing.T) {
	kr := newTestKeyring(t)
	addrs := newMockAddressStore()
	ch := newMockChain()
	w := NewWallets(kr, addrs, NewOracle(ch), ch)

	generated, err := w.GenerateAddress(context.Background(), 1, "")
	require.NoError(t, err)

	derived, err := kr.Derive(0)
	require.NoError(t, err)
	require.Equal(t, derived.Address, generated.Address)

	// the stored ciphertext decrypts back to the derived key
	priv, err := kr.DecryptKey(generated.EncryptedKey)
	require.NoError(t, err)
	require.Equal(t, crypto.FromECDSA(derived.PrivateKey), crypto.FromECDSA(priv))
}

func TestListAddressesFiltersByOwner(t *testing.T) {
	w, _, _ := newTestWallets(t)

	for i := 0; i < 3; i++ {
		_, err := w.GenerateAddress(context.Background(), 7, "")
		require.NoError(t, err)
	}
	_, err := w.GenerateAddress(context.Background(), 8, "")
	require.NoError(t, err)

	mine, err := w.ListAddresses(context.Background(), 7)
	require.NoError(t, err)
	require.Len(t, mine, 3)
}

func TestAddressBalanceRejectsInvalidAddress(t *testing.T) {
	w, _, _ := newTestWallets(t)

	_, err := w.AddressBalance(context.Background(), "not-an-address")
	require.Error(t, err)
	require.True(t, apperrors.HasCode(err, apperrors.CodeBadRequest))
}

func TestAddressBalanceReadsSnapshot(t *testing.T) {
	w, _, ch := newTestWallets(t)

	generated, err := w.GenerateAddress(context.Background(), 1, "")
	require.NoError(t, err)
	ch.setToken(generated.Address, "3.25")
	ch.setNative(generated.Address, "0.5")

	snap, err := w.AddressBalance(context.Background(), generated.Address)
	require.NoError(t, err)
	require.True(t, snap.Token.Amount.Equal(decimal.RequireFromString("3.25")))
	require.True(t, snap.Native.Amount.Equal(decimal.RequireFromString("0.5")))
}

package domain

import (
	"bytes"
	"strings"
	"testing"

	"github.com/btcsuite/btcd/btcutil/hdkeychain"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/stretchr/testify/require"

	apperrors "github.com/linlinbupt123-crypto/sweep_service/errors"
)

// Standard BIP39 test mnemonic; fine to hardcode, it custodies nothing.
const testMnemonic = "abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon about"

func newTestKeyring(t *testing.T) *Keyring {
	t.Helper()
	k, err := NewKeyring(testMnemonic, "", "unit-test-secret")
	require.NoError(t, err)
	return k
}

func TestDeriveIsDeterministic(t *testing.T) {
	k := newTestKeyring(t)

	first, err := k.Derive(5)
	require.NoError(t, err)
	second, err := k.Derive(5)
	require.NoError(t, err)

	require.Equal(t, first.Address, second.Address)
	require.True(t, bytes.Equal(
		crypto.FromECDSA(first.PrivateKey),
		crypto.FromECDSA(second.PrivateKey),
	))

	other, err := k.Derive(6)
	require.NoError(t, err)
	require.NotEqual(t, first.Address, other.Address)
}

func TestDeriveMatchesKnownVector(t *testing.T) {
	// m/44'/60'/0'/0/0 for the "abandon ... about" mnemonic is a widely
	// published BIP44 vector.
	k := newTestKeyring(t)

	d, err := k.Derive(0)
	require.NoError(t, err)
	require.Equal(t, "m/44'/60'/0'/0/0", d.Path)
	require.True(t, strings.EqualFold(
		"0x9858EfFD232B4033E47d90003D41EC34EcaEda94", d.Address,
	))
}

func TestDerivePathVariesOnlyInIndex(t *testing.T) {
	k := newTestKeyring(t)

	d, err := k.Derive(7)
	require.NoError(t, err)
	require.Equal(t, "m/44'/60'/0'/0/7", d.Path)
	require.Equal(t, uint32(7), d.Index)
}

func TestDeriveRejectsHardenedRangeIndex(t *testing.T) {
	k := newTestKeyring(t)

	_, err := k.Derive(hdkeychain.HardenedKeyStart)
	require.Error(t, err)
	require.True(t, apperrors.HasCode(err, apperrors.CodeDerivation))
}

func TestNewKeyringRejectsBadMnemonic(t *testing.T) {
	_, err := NewKeyring("definitely not twelve valid words", "", "secret")
	require.Error(t, err)
	require.True(t, apperrors.HasCode(err, apperrors.CodeDerivation))

	_, err = NewKeyring("  ", "", "secret")
	require.Error(t, err)
}

func TestEncryptDecryptRoundTrip(t *testing.T) {
	k := newTestKeyring(t)

	d, err := k.Derive(3)
	require.NoError(t, err)

	ct, err := k.EncryptKey(d.PrivateKey)
	require.NoError(t, err)

	back, err := k.DecryptKey(ct)
	require.NoError(t, err)
	require.True(t, bytes.Equal(
		crypto.FromECDSA(d.PrivateKey),
		crypto.FromECDSA(back),
	))
}

func TestEncryptIsNonDeterministic(t *testing.T) {
	k := newTestKeyring(t)

	d, err := k.Derive(3)
	require.NoError(t, err)

	ct1, err := k.EncryptKey(d.PrivateKey)
	require.NoError(t, err)
	ct2, err := k.EncryptKey(d.PrivateKey)
	require.NoError(t, err)
	require.False(t, bytes.Equal(ct1, ct2))
}

func TestDecryptRejectsWrongSecretAndCorruption(t *testing.T) {
	k := newTestKeyring(t)
	d, err := k.Derive(1)
	require.NoError(t, err)
	ct, err := k.EncryptKey(d.PrivateKey)
	require.NoError(t, err)

	otherRing, err := NewKeyring(testMnemonic, "", "a-different-secret")
	require.NoError(t, err)
	_, err = otherRing.DecryptKey(ct)
	require.Error(t, err)
	require.True(t, apperrors.HasCode(err, apperrors.CodeDecryption))

	corrupted := append([]byte(nil), ct...)
	corrupted[len(corrupted)-1] ^= 0xff
	_, err = k.DecryptKey(corrupted)
	require.Error(t, err)
	require.True(t, apperrors.HasCode(err, apperrors.CodeDecryption))

	_, err = k.DecryptKey([]byte{0x01})
	require.Error(t, err)
	require.True(t, apperrors.HasCode(err, apperrors.CodeDecryption))
}

func TestParseDerivationPath(t *testing.T) {
	indices, err := ParseDerivationPath("m/44'/60'/0'/0/9")
	require.NoError(t, err)
	require.Equal(t, []uint32{
		44 + hdkeychain.HardenedKeyStart,
		60 + hdkeychain.HardenedKeyStart,
		0 + hdkeychain.HardenedKeyStart,
		0,
		9,
	}, indices)

	for _, bad := range []string{"", "m/", "m//0", "m/44'/x", "m/-1"} {
		_, err := ParseDerivationPath(bad)
		require.Error(t, err, "path %q", bad)
	}
}

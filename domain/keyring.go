package domain

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/ecdsa"
	"crypto/rand"
	"crypto/sha256"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/btcsuite/btcd/btcutil/hdkeychain"
	"github.com/btcsuite/btcd/chaincfg"
	"github.com/ethereum/go-ethereum/crypto"
	bip39 "github.com/tyler-smith/go-bip39"
	"golang.org/x/crypto/pbkdf2"

	apperrors "github.com/linlinbupt123-crypto/sweep_service/errors"
	"github.com/linlinbupt123-crypto/sweep_service/utils"
)

// NOTE:
// - Derivation standardizes on btcsuite's hdkeychain for BIP32/BIP44; the
//   resulting secp256k1 key is converted to go-ethereum's ECDSA form.
// - At-rest key encryption is AES-256-GCM with a fresh nonce per call, so
//   encrypting the same key twice never yields the same ciphertext.
// - The AES key comes from PBKDF2-SHA256 over the process-wide encryption
//   secret. The salt is a fixed, versioned label: the secret is one per
//   deployment, not one per record, so there is nothing to store alongside
//   each ciphertext.

const (
	kdfIterations = 310_000
	kdfSalt       = "sweep_service/keyring/v1"
)

func clearBytes(b []byte) {
	for i := range b {
		b[i] = 0
	}
}

// Derived is one keypair produced from the master seed. PrivateKey must not
// outlive the transfer call it was derived or decrypted for.
type Derived struct {
	Index      uint32
	Path       string
	Address    string
	PrivateKey *ecdsa.PrivateKey
}

// Keyring owns the master seed and the at-rest encryption key. Both are
// fixed after construction, so a single instance is safe to share across
// concurrent sweep workers.
type Keyring struct {
	seed []byte
	aead cipher.AEAD
}

// NewKeyring validates the mnemonic, expands it to the BIP39 seed and
// prepares the AEAD used for private-key storage.
func NewKeyring(mnemonic, mnemonicPass, encryptionSecret string) (*Keyring, error) {
	if strings.TrimSpace(mnemonic) == "" {
		return nil, apperrors.New(apperrors.CodeDerivation, "keyring.new", "mnemonic is empty")
	}
	seed, err := bip39.NewSeedWithErrorChecking(mnemonic, mnemonicPass)
	if err != nil {
		return nil, apperrors.WrapWithCode(apperrors.CodeDerivation, "keyring.new", err)
	}
	if encryptionSecret == "" {
		clearBytes(seed)
		return nil, apperrors.New(apperrors.CodeDecryption, "keyring.new", "encryption secret is empty")
	}

	key := pbkdf2.Key([]byte(encryptionSecret), []byte(kdfSalt), kdfIterations, 32, sha256.New)
	defer clearBytes(key)

	block, err := aes.NewCipher(key)
	if err != nil {
		clearBytes(seed)
		return nil, apperrors.WrapWithCode(apperrors.CodeDecryption, "keyring.new", err)
	}
	aead, err := cipher.NewGCM(block)
	if err != nil {
		clearBytes(seed)
		return nil, apperrors.WrapWithCode(apperrors.CodeDecryption, "keyring.new", err)
	}

	return &Keyring{seed: seed, aead: aead}, nil
}

// Derive produces the keypair at the given address index. The path varies
// only in its last component; the same index always yields the same
// address, with no lookup outside the seed.
func (k *Keyring) Derive(index uint32) (*Derived, error) {
	if index >= hdkeychain.HardenedKeyStart {
		return nil, apperrors.New(apperrors.CodeDerivation, "keyring.derive",
			fmt.Sprintf("index %d out of range for non-hardened derivation", index))
	}

	path := utils.DerivationPathPrefix + strconv.FormatUint(uint64(index), 10)
	indices, err := ParseDerivationPath(path)
	if err != nil {
		return nil, apperrors.WrapWithCode(apperrors.CodeDerivation, "keyring.derive", err)
	}

	master, err := hdkeychain.NewMaster(k.seed, &chaincfg.MainNetParams)
	if err != nil {
		return nil, apperrors.WrapWithCode(apperrors.CodeDerivation, "keyring.derive", err)
	}

	key := master
	for _, idx := range indices {
		key, err = key.Derive(idx)
		if err != nil {
			return nil, apperrors.WrapWithCode(apperrors.CodeDerivation, "keyring.derive", err)
		}
	}

	priv, err := key.ECPrivKey()
	if err != nil {
		return nil, apperrors.WrapWithCode(apperrors.CodeDerivation, "keyring.derive", err)
	}
	privBytes := priv.Serialize()
	ecdsaKey, err := crypto.ToECDSA(privBytes)
	clearBytes(privBytes)
	if err != nil {
		return nil, apperrors.WrapWithCode(apperrors.CodeDerivation, "keyring.derive", err)
	}

	addr := crypto.PubkeyToAddress(ecdsaKey.PublicKey)
	return &Derived{
		Index:      index,
		Path:       path,
		Address:    addr.Hex(),
		PrivateKey: ecdsaKey,
	}, nil
}

// EncryptKey seals a private key for storage. Output layout is
// nonce|ciphertext; a fresh nonce is drawn per call.
func (k *Keyring) EncryptKey(priv *ecdsa.PrivateKey) ([]byte, error) {
	plain := crypto.FromECDSA(priv)
	defer clearBytes(plain)

	nonce := make([]byte, k.aead.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return nil, apperrors.WrapWithCode(apperrors.CodeDecryption, "keyring.encrypt", err)
	}
	out := k.aead.Seal(nonce, nonce, plain, nil)
	return out, nil
}

// DecryptKey opens a stored ciphertext. GCM authentication means a wrong
// secret or corrupted input fails whole; no partial plaintext escapes.
func (k *Keyring) DecryptKey(ciphertext []byte) (*ecdsa.PrivateKey, error) {
	nonceSize := k.aead.NonceSize()
	if len(ciphertext) < nonceSize {
		return nil, apperrors.New(apperrors.CodeDecryption, "keyring.decrypt", "ciphertext too short")
	}
	nonce, ct := ciphertext[:nonceSize], ciphertext[nonceSize:]
	plain, err := k.aead.Open(nil, nonce, ct, nil)
	if err != nil {
		// hide the raw crypto error from callers
		return nil, apperrors.New(apperrors.CodeDecryption, "keyring.decrypt", "failed to decrypt key")
	}
	defer clearBytes(plain)

	priv, err := crypto.ToECDSA(plain)
	if err != nil {
		return nil, apperrors.WrapWithCode(apperrors.CodeDecryption, "keyring.decrypt", err)
	}
	return priv, nil
}

// ParseDerivationPath accepts "m/44'/60'/0'/0/0" and returns the child
// indices with the hardened offset applied.
func ParseDerivationPath(path string) ([]uint32, error) {
	p := strings.TrimSpace(path)
	if strings.HasPrefix(p, "m/") || strings.HasPrefix(p, "M/") {
		p = p[2:]
	}
	if p == "" {
		return nil, fmt.Errorf("empty derivation path")
	}
	parts := strings.Split(p, "/")
	indices := make([]uint32, 0, len(parts))
	for _, part := range parts {
		if part == "" {
			return nil, fmt.Errorf("invalid path segment")
		}
		hardened := strings.HasSuffix(part, "'")
		if hardened {
			part = strings.TrimSuffix(part, "'")
		}
		v, err := strconv.ParseUint(part, 10, 32)
		if err != nil {
			return nil, fmt.Errorf("invalid derivation index %q", part)
		}
		idx := uint32(v)
		if hardened {
			idx += hdkeychain.HardenedKeyStart
		}
		indices = append(indices, idx)
	}
	return indices, nil
}

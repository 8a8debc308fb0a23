package keys

import (
	"crypto/ecdsa"
	"encoding/hex"
	"fmt"

	"github.com/decred/dcrd/dcrec/secp256k1/v4"
	ethcrypto "github.com/ethereum/go-ethereum/crypto"

	"github.com/lightsteem/lightsteem-go/pkg/base58"
)

// PrivateKey wraps a secp256k1 secret scalar together with the public keys derived from it.
type PrivateKey struct {
	prefix       string
	key          *secp256k1.PrivateKey
	compressed   *PublicKey
	uncompressed *PublicKey
}

// GeneratePrivateKey creates a key from a cryptographically secure random source.
func GeneratePrivateKey(prefix string) (*PrivateKey, error) {
	key, err := secp256k1.GeneratePrivateKey()
	if err != nil {
		return nil, fmt.Errorf("failed to generate private key: %w", err)
	}
	defer key.Zero()
	return NewPrivateKey(key.Serialize(), prefix)
}

// NewPrivateKey wraps a 32-byte big-endian secret. The scalar must lie in [1, N-1].
func NewPrivateKey(secret []byte, prefix string) (*PrivateKey, error) {
	if prefix == "" {
		prefix = DefaultPrefix
	}
	if len(secret) != KeyLen {
		return nil, fmt.Errorf("%w: expected %d bytes, got %d", ErrInvalidSecret, KeyLen, len(secret))
	}

	var scalar secp256k1.ModNScalar
	if overflow := scalar.SetByteSlice(secret); overflow {
		return nil, fmt.Errorf("%w: scalar is not below the curve order", ErrInvalidSecret)
	}
	if scalar.IsZero() {
		return nil, fmt.Errorf("%w: scalar is zero", ErrInvalidSecret)
	}

	pk := &PrivateKey{prefix: prefix, key: secp256k1.NewPrivateKey(&scalar)}
	compressed, uncompressed := pk.DerivePublicKeys()
	pk.compressed = &PublicKey{prefix: prefix, raw: compressed}
	pk.uncompressed = &PublicKey{prefix: prefix, raw: uncompressed}
	return pk, nil
}

// ParsePrivateKey accepts WIF text or a 64-character hex secret.
func ParsePrivateKey(text, prefix string) (*PrivateKey, error) {
	if len(text) == 2*KeyLen {
		if secret, err := hex.DecodeString(text); err == nil {
			return NewPrivateKey(secret, prefix)
		}
	}

	secret, err := base58.DecodeWIF(text)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidSecret, err)
	}
	return NewPrivateKey(secret, prefix)
}

// DerivePublicKeys multiplies the generator by the secret and returns
// the compressed (02/03 ∥ x) and uncompressed (04 ∥ x ∥ y) encodings.
func (k *PrivateKey) DerivePublicKeys() (compressed, uncompressed []byte) {
	var point secp256k1.JacobianPoint
	secp256k1.ScalarBaseMultNonConst(&k.key.Key, &point)
	point.ToAffine()
	return serializePoint(&point.X, &point.Y)
}

// Prefix returns the network prefix.
func (k *PrivateKey) Prefix() string { return k.prefix }

// Bytes returns the 32-byte big-endian secret.
func (k *PrivateKey) Bytes() []byte { return k.key.Serialize() }

// Scalar returns a copy of the secret as a scalar modulo the curve order.
func (k *PrivateKey) Scalar() secp256k1.ModNScalar { return k.key.Key }

// WIF returns the secret in wallet import format.
func (k *PrivateKey) WIF() string { return base58.EncodeWIF(k.Bytes()) }

// String returns the WIF encoding.
func (k *PrivateKey) String() string { return k.WIF() }

// PublicKey returns the compressed public key.
func (k *PrivateKey) PublicKey() *PublicKey { return k.compressed }

// UncompressedPublicKey returns the uncompressed public key.
func (k *PrivateKey) UncompressedPublicKey() *PublicKey { return k.uncompressed }

// Address returns the address of the compressed public key.
func (k *PrivateKey) Address() *Address { return k.compressed.Address() }

// ToECDSA converts the key to the standard library representation.
func (k *PrivateKey) ToECDSA() (*ecdsa.PrivateKey, error) {
	return ethcrypto.ToECDSA(k.Bytes())
}

// Zero clears the secret from memory. The key must not be used afterwards.
func (k *PrivateKey) Zero() { k.key.Zero() }

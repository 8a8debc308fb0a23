package keys

import (
	"bytes"
	"crypto/ecdsa"
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/decred/dcrd/dcrec/secp256k1/v4"
	ethcrypto "github.com/ethereum/go-ethereum/crypto"

	"github.com/lightsteem/lightsteem-go/pkg/base58"
)

// PublicKey wraps a serialized secp256k1 point in compressed (02/03) or uncompressed (04) form.
// The form it was constructed with is preserved by Bytes, String and Address.
type PublicKey struct {
	prefix string
	raw    []byte
}

// NewPublicKey validates a serialized point and wraps it.
func NewPublicKey(raw []byte, prefix string) (*PublicKey, error) {
	if prefix == "" {
		prefix = DefaultPrefix
	}
	if len(raw) == 0 {
		return nil, fmt.Errorf("%w: empty public key", ErrInvalidInput)
	}

	pk := &PublicKey{prefix: prefix, raw: append([]byte(nil), raw...)}
	switch {
	case raw[0] == formUncompressed && len(raw) == UncompressedLen:
	case (raw[0] == formEven || raw[0] == formOdd) && len(raw) == CompressedLen:
	default:
		return nil, fmt.Errorf("%w: unexpected form 0x%02x for %d bytes", ErrMalformedKey, raw[0], len(raw))
	}

	if _, err := pk.Point(); err != nil {
		return nil, err
	}
	return pk, nil
}

// ParsePublicKey accepts hex ("02…", "03…", "04…") or prefixed Graphene text ("STM…").
func ParsePublicKey(text, prefix string) (*PublicKey, error) {
	if prefix == "" {
		prefix = DefaultPrefix
	}

	if strings.HasPrefix(text, prefix) {
		raw, err := base58.GrapheneDecode(prefix, text)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrInvalidInput, err)
		}
		return NewPublicKey(raw, prefix)
	}

	raw, err := hex.DecodeString(text)
	if err != nil {
		return nil, fmt.Errorf("%w: public key is neither %s-prefixed nor hex: %w", ErrInvalidInput, prefix, err)
	}
	return NewPublicKey(raw, prefix)
}

// Prefix returns the network prefix.
func (p *PublicKey) Prefix() string { return p.prefix }

// Bytes returns the key in the form it was constructed with.
func (p *PublicKey) Bytes() []byte { return append([]byte(nil), p.raw...) }

// Hex returns Bytes hex-encoded.
func (p *PublicKey) Hex() string { return hex.EncodeToString(p.raw) }

// IsCompressed reports whether the key was constructed in compressed form.
func (p *PublicKey) IsCompressed() bool { return p.raw[0] != formUncompressed }

// Compressed returns the 33-byte form: 02 for an even y coordinate, 03 for odd, then x.
func (p *PublicKey) Compressed() ([]byte, error) {
	if p.IsCompressed() {
		return p.Bytes(), nil
	}
	x, y, err := p.coordinates()
	if err != nil {
		return nil, err
	}
	compressed, _ := serializePoint(x, y)
	return compressed, nil
}

// Uncompressed returns the 65-byte form 04 ∥ x ∥ y, solving y from x when needed.
func (p *PublicKey) Uncompressed() ([]byte, error) {
	if !p.IsCompressed() {
		return p.Bytes(), nil
	}
	x, y, err := p.coordinates()
	if err != nil {
		return nil, err
	}
	_, uncompressed := serializePoint(x, y)
	return uncompressed, nil
}

// Point returns the validated curve point.
func (p *PublicKey) Point() (*secp256k1.PublicKey, error) {
	x, y, err := p.coordinates()
	if err != nil {
		return nil, err
	}
	return secp256k1.NewPublicKey(x, y), nil
}

func (p *PublicKey) coordinates() (*secp256k1.FieldVal, *secp256k1.FieldVal, error) {
	switch p.raw[0] {
	case formUncompressed:
		if _, err := secp256k1.ParsePubKey(p.raw); err != nil {
			return nil, nil, fmt.Errorf("%w: %w", ErrInvalidPoint, err)
		}
		var x, y secp256k1.FieldVal
		x.SetByteSlice(p.raw[1 : 1+KeyLen])
		y.SetByteSlice(p.raw[1+KeyLen:])
		return &x, &y, nil
	case formEven, formOdd:
		y, err := solveY(p.raw[1:], p.raw[0] == formOdd)
		if err != nil {
			return nil, nil, err
		}
		var x secp256k1.FieldVal
		x.SetByteSlice(p.raw[1:])
		return &x, y, nil
	default:
		return nil, nil, fmt.Errorf("%w: unexpected form 0x%02x", ErrMalformedKey, p.raw[0])
	}
}

// Address derives the address of the key as constructed.
func (p *PublicKey) Address() *Address {
	return &Address{prefix: p.prefix, pubKey: p.Bytes()}
}

// Equal reports whether both keys describe the same point, regardless of form.
func (p *PublicKey) Equal(other *PublicKey) bool {
	if other == nil {
		return false
	}
	a, errA := p.Compressed()
	b, errB := other.Compressed()
	return errA == nil && errB == nil && bytes.Equal(a, b)
}

// ToECDSA converts the key to the standard library representation.
func (p *PublicKey) ToECDSA() (*ecdsa.PublicKey, error) {
	uncompressed, err := p.Uncompressed()
	if err != nil {
		return nil, err
	}
	return ethcrypto.UnmarshalPubkey(uncompressed)
}

// String renders the key as prefixed Graphene text.
func (p *PublicKey) String() string {
	return base58.GrapheneEncode(p.prefix, p.raw)
}

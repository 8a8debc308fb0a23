package keys

import (
	"crypto/sha512"
	"fmt"
	"strings"

	"github.com/minio/sha256-simd"

	"github.com/lightsteem/lightsteem-go/pkg/base58"
)

// DefaultPrefix is the network prefix of the Steem main network.
const DefaultPrefix = "STM"

// FormatBTC selects the legacy Bitcoin address rendering in Address.Format.
const FormatBTC = "btc"

const addressDigestLen = 20

// HashVariant selects the hash applied to a public key before RIPEMD160.
type HashVariant uint8

const (
	// HashSHA512 is the default Graphene address hash.
	HashSHA512 HashVariant = iota
	// HashSHA256 is used by the "btc" compatibility format.
	HashSHA256
)

// String returns the variant name.
func (v HashVariant) String() string {
	switch v {
	case HashSHA256:
		return "sha256"
	default:
		return "sha512"
	}
}

// Address is a checksummed identifier for a public key.
// It holds either the public key it derives from or an already parsed digest, never both.
type Address struct {
	prefix string
	pubKey []byte
	digest []byte
}

// NewAddressFromPublicKey returns the address of a serialized public key.
func NewAddressFromPublicKey(pubKey []byte, prefix string) (*Address, error) {
	return newAddress(pubKey, "", prefix)
}

// ParseAddress parses prefixed Graphene address text. No hashing is performed.
func ParseAddress(text, prefix string) (*Address, error) {
	return newAddress(nil, text, prefix)
}

func newAddress(pubKey []byte, text, prefix string) (*Address, error) {
	if prefix == "" {
		prefix = DefaultPrefix
	}

	hasKey, hasText := len(pubKey) > 0, text != ""
	switch {
	case hasKey && hasText:
		return nil, fmt.Errorf("%w: address takes either a public key or an encoded address, not both", ErrInvalidInput)
	case !hasKey && !hasText:
		return nil, fmt.Errorf("%w: address requires a public key or an encoded address", ErrInvalidInput)
	case hasKey:
		return &Address{prefix: prefix, pubKey: append([]byte(nil), pubKey...)}, nil
	}

	digest, err := base58.GrapheneDecode(prefix, text)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidInput, err)
	}
	if len(digest) != addressDigestLen {
		return nil, fmt.Errorf("%w: address digest has %d bytes", ErrInvalidInput, len(digest))
	}
	return &Address{prefix: prefix, digest: digest}, nil
}

// Prefix returns the network prefix the address renders with by default.
func (a *Address) Prefix() string { return a.prefix }

// Digest returns RIPEMD160(H(pubkey)) for the requested variant.
// Parsed addresses return their stored digest regardless of variant.
func (a *Address) Digest(variant HashVariant) []byte {
	if a.pubKey == nil {
		return append([]byte(nil), a.digest...)
	}

	var sum []byte
	switch variant {
	case HashSHA256:
		h := sha256.Sum256(a.pubKey)
		sum = h[:]
	default:
		h := sha512.Sum512(a.pubKey)
		sum = h[:]
	}
	return base58.RIPEMD160(sum)
}

// Bytes returns the default (SHA-512 variant) binary digest.
func (a *Address) Bytes() []byte {
	return a.Digest(HashSHA512)
}

// Format renders the address. "btc" (any case) yields a Bitcoin pay-to-pubkey-hash
// address over the SHA-256 variant; any other format is upper-cased and used as the
// Graphene network prefix over the SHA-512 variant.
func (a *Address) Format(format string) string {
	if strings.EqualFold(format, FormatBTC) {
		return base58.CheckEncode(base58.BitcoinAddressVersion, a.Digest(HashSHA256))
	}
	return base58.GrapheneEncode(strings.ToUpper(format), a.Digest(HashSHA512))
}

// String renders the address with its own prefix.
func (a *Address) String() string {
	return a.Format(a.prefix)
}

// Equal reports whether both addresses carry the same default digest.
func (a *Address) Equal(other *Address) bool {
	return other != nil && string(a.Bytes()) == string(other.Bytes())
}

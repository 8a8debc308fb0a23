package sign

import (
	"encoding/binary"
	"fmt"

	"github.com/decred/dcrd/dcrec/secp256k1/v4"
	"github.com/minio/sha256-simd"
)

// NonceStrategy produces the per-attempt ECDSA nonce for the canonical signing loop.
// Implementations must be deterministic in (secret, digest, attempt) and hold no shared state.
type NonceStrategy interface {
	Nonce(secret, digest []byte, attempt uint32) *secp256k1.ModNScalar
	Name() string
}

// Registered strategy names.
const (
	StrategyCounter = "counter"
	StrategyRFC6979 = "rfc6979"
	StrategySalted  = "salted"
)

var (
	_ NonceStrategy = CounterNonce{}
	_ NonceStrategy = RFC6979Nonce{}
	_ NonceStrategy = SaltedNonce{}
)

// CounterNonce mixes the attempt counter into RFC 6979 as 32 bytes of extra data,
// the way libsecp256k1 consumes its ndata argument. Counting starts at 1.
type CounterNonce struct{}

func (CounterNonce) Name() string { return StrategyCounter }

func (CounterNonce) Nonce(secret, digest []byte, attempt uint32) *secp256k1.ModNScalar {
	var ndata [32]byte
	binary.LittleEndian.PutUint32(ndata[:4], attempt+1)
	return secp256k1.NonceRFC6979(secret, digest, ndata[:], nil, 0)
}

// RFC6979Nonce walks the plain RFC 6979 nonce sequence, one step per attempt.
type RFC6979Nonce struct{}

func (RFC6979Nonce) Name() string { return StrategyRFC6979 }

func (RFC6979Nonce) Nonce(secret, digest []byte, attempt uint32) *secp256k1.ModNScalar {
	return secp256k1.NonceRFC6979(secret, digest, nil, nil, attempt)
}

// SaltedNonce feeds RFC 6979 with SHA256(digest ∥ attempt) in place of the digest.
// The attempt is encoded as an 8-byte big-endian counter.
type SaltedNonce struct{}

func (SaltedNonce) Name() string { return StrategySalted }

func (SaltedNonce) Nonce(secret, digest []byte, attempt uint32) *secp256k1.ModNScalar {
	buf := make([]byte, len(digest)+8)
	copy(buf, digest)
	binary.BigEndian.PutUint64(buf[len(digest):], uint64(attempt))
	salted := sha256.Sum256(buf)
	return secp256k1.NonceRFC6979(secret, salted[:], nil, nil, 0)
}

// StrategyByName resolves a registered nonce strategy. An empty name selects CounterNonce.
func StrategyByName(name string) (NonceStrategy, error) {
	switch name {
	case "", StrategyCounter:
		return CounterNonce{}, nil
	case StrategyRFC6979:
		return RFC6979Nonce{}, nil
	case StrategySalted:
		return SaltedNonce{}, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownStrategy, name)
	}
}

package sign

import (
	"fmt"
	"time"

	"github.com/lightsteem/lightsteem-go/pkg/keys"
	"github.com/lightsteem/lightsteem-go/pkg/log"
)

// DefaultMaxAttempts bounds the canonical signature search.
// Each attempt is accepted with probability of roughly one in four.
const DefaultMaxAttempts = 1000

const progressEvery = 20

// Signer produces compact recoverable signatures over 32-byte digests.
type Signer interface {
	PublicKey() *keys.PublicKey           // Public key the signatures recover to.
	Sign(digest []byte) (Signature, error) // Sign returns a canonical signature over digest.
}

// Observer receives signing telemetry. Implementations must be safe for concurrent use.
type Observer interface {
	SigningAttempt(strategy string)
	SignatureProduced(strategy string, attempts int, elapsed time.Duration)
	SigningFailed(reason string)
}

type noopObserver struct{}

func (noopObserver) SigningAttempt(string)                        {}
func (noopObserver) SignatureProduced(string, int, time.Duration) {}
func (noopObserver) SigningFailed(string)                         {}

// Engine runs the bounded canonical signing loop with an injected nonce strategy.
// An Engine is stateless between calls and may be shared across goroutines.
type Engine struct {
	strategy    NonceStrategy
	maxAttempts uint32
	lg          log.Logger
	observer    Observer
}

// Option configures an Engine.
type Option func(*Engine)

// WithStrategy sets the nonce strategy.
func WithStrategy(strategy NonceStrategy) Option {
	return func(e *Engine) {
		if strategy != nil {
			e.strategy = strategy
		}
	}
}

// WithMaxAttempts sets the canonical search bound. Zero keeps the default.
func WithMaxAttempts(n uint32) Option {
	return func(e *Engine) {
		if n > 0 {
			e.maxAttempts = n
		}
	}
}

// WithLogger sets the logger.
func WithLogger(lg log.Logger) Option {
	return func(e *Engine) {
		if lg != nil {
			e.lg = lg
		}
	}
}

// WithObserver sets the telemetry observer.
func WithObserver(o Observer) Option {
	return func(e *Engine) {
		if o != nil {
			e.observer = o
		}
	}
}

// NewEngine returns an Engine using CounterNonce and DefaultMaxAttempts unless overridden.
func NewEngine(opts ...Option) *Engine {
	e := &Engine{
		strategy:    CounterNonce{},
		maxAttempts: DefaultMaxAttempts,
		lg:          log.NewNoopLogger(),
		observer:    noopObserver{},
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Strategy returns the configured nonce strategy.
func (e *Engine) Strategy() NonceStrategy { return e.strategy }

// Sign searches for a canonical signature of digest under key, resolves its recovery id
// by public-key recovery and verifies it before returning.
func (e *Engine) Sign(key *keys.PrivateKey, digest []byte) (Signature, error) {
	if len(digest) != DigestLen {
		return nil, fmt.Errorf("%w: expected %d bytes, got %d", ErrInvalidDigest, DigestLen, len(digest))
	}
	digest = append([]byte(nil), digest...)

	pub := key.PublicKey()
	secret := key.Bytes()
	scalar := key.Scalar()
	defer func() {
		clear(secret)
		scalar.Zero()
	}()

	lg := e.lg.WithKV("pubkey", pub.String())
	started := time.Now()
	strategy := e.strategy.Name()

	for attempt := uint32(0); attempt < e.maxAttempts; attempt++ {
		e.observer.SigningAttempt(strategy)

		k := e.strategy.Nonce(secret, digest, attempt)
		r, s, ok := SignWithNonce(&scalar, digest, k)
		k.Zero()
		if !ok {
			lg.Debug("nonce produced a degenerate signature", "attempt", attempt)
			continue
		}

		var rs [64]byte
		r.PutBytesUnchecked(rs[:32])
		s.PutBytesUnchecked(rs[32:])
		if !IsCanonical(rs[:]) {
			lg.Debug("rejected non-canonical signature", "attempt", attempt)
			if (attempt+1)%progressEvery == 0 {
				lg.Warn("still searching for a canonical signature", "attempts", attempt+1)
			}
			continue
		}

		recid, err := ResolveRecoveryID(digest, &r, &s, pub)
		if err != nil {
			e.observer.SigningFailed("recovery")
			return nil, err
		}

		sig := NewSignature(recid, &r, &s)
		if !Verify(digest, sig, pub) {
			e.observer.SigningFailed("verification")
			return nil, fmt.Errorf("%w: signature does not verify against %s", ErrInvalidSignature, pub)
		}

		e.observer.SignatureProduced(strategy, int(attempt)+1, time.Since(started))
		lg.Debug("produced canonical signature", "attempts", attempt+1, "recid", recid)
		return sig, nil
	}

	e.observer.SigningFailed("exhausted")
	lg.Error("canonical signature search exhausted", "attempts", e.maxAttempts, "strategy", strategy)
	return nil, fmt.Errorf("%w after %d attempts", ErrSigningExhausted, e.maxAttempts)
}

// Signer binds key to the engine.
func (e *Engine) Signer(key *keys.PrivateKey) Signer {
	return &KeySigner{engine: e, key: key}
}

var _ Signer = (*KeySigner)(nil)

// KeySigner is a Signer backed by an in-memory private key.
type KeySigner struct {
	engine *Engine
	key    *keys.PrivateKey
}

// NewKeySigner returns a KeySigner with a default Engine.
func NewKeySigner(key *keys.PrivateKey, opts ...Option) *KeySigner {
	return &KeySigner{engine: NewEngine(opts...), key: key}
}

func (s *KeySigner) PublicKey() *keys.PublicKey { return s.key.PublicKey() }

func (s *KeySigner) Sign(digest []byte) (Signature, error) {
	return s.engine.Sign(s.key, digest)
}

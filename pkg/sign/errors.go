package sign

import "errors"

var (
	// ErrSigningExhausted is returned when no canonical signature was found within the attempt bound.
	ErrSigningExhausted = errors.New("canonical signature search exhausted")
	// ErrRecoveryFailed is returned when no recovery id reproduces the signer's public key.
	ErrRecoveryFailed = errors.New("public key recovery failed")
	// ErrInvalidSignature is returned for malformed or unverifiable signatures.
	ErrInvalidSignature = errors.New("invalid signature")
	// ErrInvalidDigest is returned when the digest is not 32 bytes long.
	ErrInvalidDigest = errors.New("invalid digest")
	// ErrUnknownStrategy is returned by StrategyByName for unregistered names.
	ErrUnknownStrategy = errors.New("unknown nonce strategy")
)

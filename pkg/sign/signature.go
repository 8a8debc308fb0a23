package sign

import (
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/decred/dcrd/dcrec/secp256k1/v4"

	"github.com/lightsteem/lightsteem-go/pkg/keys"
)

const (
	// SignatureLen is the length of a compact signature: header ∥ r ∥ s.
	SignatureLen = 65

	// CompactHeaderOffset is added to the recovery id in the header byte.
	CompactHeaderOffset byte = 27
	// CompressedFlag marks the signer's key as compressed in the header byte.
	CompressedFlag byte = 4
)

// Signature is a 65-byte compact recoverable signature as carried in Graphene transactions.
type Signature []byte

// NewSignature assembles a compact signature with header recid + 4 + 27.
func NewSignature(recid byte, r, s *secp256k1.ModNScalar) Signature {
	sig := make(Signature, SignatureLen)
	sig[0] = recid + CompressedFlag + CompactHeaderOffset
	r.PutBytesUnchecked(sig[1:33])
	s.PutBytesUnchecked(sig[33:65])
	return sig
}

// ParseSignature decodes a hex signature, with or without a 0x prefix.
func ParseSignature(text string) (Signature, error) {
	raw, err := hex.DecodeString(strings.TrimPrefix(text, "0x"))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidSignature, err)
	}
	sig := Signature(raw)
	if err := sig.Validate(); err != nil {
		return nil, err
	}
	return sig, nil
}

// Validate checks the length and header byte range.
func (s Signature) Validate() error {
	if len(s) != SignatureLen {
		return fmt.Errorf("%w: expected %d bytes, got %d", ErrInvalidSignature, SignatureLen, len(s))
	}
	if s[0] < CompactHeaderOffset || s[0] >= CompactHeaderOffset+2*CompressedFlag {
		return fmt.Errorf("%w: header byte %d out of range", ErrInvalidSignature, s[0])
	}
	return nil
}

// Header returns the leading header byte.
func (s Signature) Header() byte { return s[0] }

// RecoveryID returns the recovery id encoded in the header.
func (s Signature) RecoveryID() byte { return (s[0] - CompactHeaderOffset) & 3 }

// R returns the 32-byte r component.
func (s Signature) R() []byte { return s[1:33] }

// S returns the 32-byte s component.
func (s Signature) S() []byte { return s[33:65] }

// IsCanonical applies the canonical-form check to r ∥ s.
func (s Signature) IsCanonical() bool {
	return len(s) == SignatureLen && IsCanonical(s[1:])
}

// Recover returns the public key that produced the signature over digest.
func (s Signature) Recover(digest []byte, prefix string) (*keys.PublicKey, error) {
	if err := s.Validate(); err != nil {
		return nil, err
	}
	var r, sv secp256k1.ModNScalar
	if overflow := r.SetByteSlice(s.R()); overflow {
		return nil, fmt.Errorf("%w: r is not below the curve order", ErrInvalidSignature)
	}
	if overflow := sv.SetByteSlice(s.S()); overflow {
		return nil, fmt.Errorf("%w: s is not below the curve order", ErrInvalidSignature)
	}
	return RecoverPublicKey(digest, &r, &sv, s.RecoveryID(), prefix)
}

// String returns the bare lowercase hex encoding used in transaction signature lists.
func (s Signature) String() string {
	return hex.EncodeToString(s)
}

// MarshalJSON encodes the signature as a bare hex string.
func (s Signature) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.String())
}

// UnmarshalJSON implements the json.Unmarshaler interface.
func (s *Signature) UnmarshalJSON(data []byte) error {
	var text string
	if err := json.Unmarshal(data, &text); err != nil {
		return err
	}
	sig, err := ParseSignature(text)
	if err != nil {
		return err
	}
	*s = sig
	return nil
}

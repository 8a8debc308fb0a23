package sign

import (
	"fmt"

	"github.com/minio/sha256-simd"

	"github.com/lightsteem/lightsteem-go/pkg/keys"
)

var _ Signer = (*MockSigner)(nil)

// MockSigner is a Signer for tests. It returns predictable, non-verifiable signatures
// built from the digest and the signer's id, or a configured error.
type MockSigner struct {
	id        string
	publicKey *keys.PublicKey
	err       error
}

// NewMockSigner creates a MockSigner whose public key is the brain key of id.
func NewMockSigner(id string) *MockSigner {
	pub, err := keys.NewPasswordKey(id, "mock", keys.RoleActive).PublicKey()
	if err != nil {
		panic(fmt.Sprintf("mock signer key derivation: %v", err))
	}
	return &MockSigner{id: id, publicKey: pub}
}

// FailWith makes every subsequent Sign call return err.
func (m *MockSigner) FailWith(err error) *MockSigner {
	m.err = err
	return m
}

// Sign returns header ∥ digest ∥ SHA256(id), or the configured error.
func (m *MockSigner) Sign(digest []byte) (Signature, error) {
	if m.err != nil {
		return nil, m.err
	}
	if len(digest) != DigestLen {
		return nil, fmt.Errorf("%w: expected %d bytes, got %d", ErrInvalidDigest, DigestLen, len(digest))
	}
	idHash := sha256.Sum256([]byte(m.id))

	sig := make(Signature, 0, SignatureLen)
	sig = append(sig, CompactHeaderOffset+CompressedFlag)
	sig = append(sig, digest...)
	sig = append(sig, idHash[:]...)
	return sig, nil
}

// PublicKey returns the mock public key.
func (m *MockSigner) PublicKey() *keys.PublicKey {
	return m.publicKey
}

package sign

import (
	"bytes"
	"fmt"

	"github.com/decred/dcrd/dcrec/secp256k1/v4"
	ethcrypto "github.com/ethereum/go-ethereum/crypto"

	"github.com/lightsteem/lightsteem-go/pkg/keys"
)

const (
	// DigestLen is the length of a signing digest.
	DigestLen = 32
	// RecoveryCandidates is the number of recovery ids for a secp256k1 signature.
	RecoveryCandidates = 4
)

var orderAsField = func() secp256k1.FieldVal {
	var f secp256k1.FieldVal
	f.SetByteSlice(secp256k1.Params().N.Bytes())
	return f
}()

// SignWithNonce performs a single ECDSA signing attempt over digest with nonce k.
// The returned s is normalized to the lower half of the group order.
// ok is false when k, r or s is zero and another nonce must be drawn.
func SignWithNonce(secret *secp256k1.ModNScalar, digest []byte, k *secp256k1.ModNScalar) (r, s secp256k1.ModNScalar, ok bool) {
	if k.IsZero() {
		return r, s, false
	}

	// R = kG, r = R.x mod N
	var point secp256k1.JacobianPoint
	secp256k1.ScalarBaseMultNonConst(k, &point)
	point.ToAffine()
	r.SetBytes(point.X.Bytes())
	if r.IsZero() {
		return r, s, false
	}

	// s = k⁻¹(e + d·r) mod N
	var e secp256k1.ModNScalar
	e.SetByteSlice(digest)
	kInv := new(secp256k1.ModNScalar).InverseValNonConst(k)
	s.Mul2(secret, &r).Add(&e).Mul(kInv)
	if s.IsZero() {
		return r, s, false
	}
	if s.IsOverHalfOrder() {
		s.Negate()
	}
	return r, s, true
}

// RecoverPublicKey reconstructs the public key candidate identified by recid (0-3)
// from a signature (r, s) over digest:
//
//	x = r + ⌊recid/2⌋·N,  R = (x, y) with y parity = recid mod 2,
//	Q = r⁻¹·(s·R − e·G)
//
// The candidate is returned in compressed form.
func RecoverPublicKey(digest []byte, r, s *secp256k1.ModNScalar, recid byte, prefix string) (*keys.PublicKey, error) {
	if len(digest) != DigestLen {
		return nil, fmt.Errorf("%w: expected %d bytes, got %d", ErrInvalidDigest, DigestLen, len(digest))
	}
	if recid >= RecoveryCandidates {
		return nil, fmt.Errorf("%w: recovery id %d out of range", ErrInvalidSignature, recid)
	}
	if r.IsZero() || s.IsZero() {
		return nil, fmt.Errorf("%w: zero signature component", ErrInvalidSignature)
	}

	rBytes := r.Bytes()
	var x secp256k1.FieldVal
	x.SetBytes(&rBytes)
	if recid&2 != 0 {
		if x.IsGtOrEqPrimeMinusOrder() {
			return nil, fmt.Errorf("%w: r + N exceeds the field prime", keys.ErrInvalidPoint)
		}
		x.Add(&orderAsField)
	}
	x.Normalize()

	var y secp256k1.FieldVal
	if !secp256k1.DecompressY(&x, recid&1 == 1, &y) {
		return nil, fmt.Errorf("%w: candidate x has no square root", keys.ErrInvalidPoint)
	}
	var point secp256k1.JacobianPoint
	point.X.Set(&x)
	point.Y.Set(&y)
	point.Z.SetInt(1)

	var e secp256k1.ModNScalar
	e.SetByteSlice(digest)
	rInv := new(secp256k1.ModNScalar).InverseValNonConst(r)
	u1 := new(secp256k1.ModNScalar).Mul2(&e, rInv).Negate()
	u2 := new(secp256k1.ModNScalar).Mul2(s, rInv)

	var q, u1G, u2R secp256k1.JacobianPoint
	secp256k1.ScalarBaseMultNonConst(u1, &u1G)
	secp256k1.ScalarMultNonConst(u2, &point, &u2R)
	secp256k1.AddNonConst(&u1G, &u2R, &q)
	if (q.X.IsZero() && q.Y.IsZero()) || q.Z.IsZero() {
		return nil, fmt.Errorf("%w: recovered point at infinity", keys.ErrInvalidPoint)
	}
	q.ToAffine()

	return keys.NewPublicKey(secp256k1.NewPublicKey(&q.X, &q.Y).SerializeCompressed(), prefix)
}

// ResolveRecoveryID returns the first recovery id whose candidate key matches pub
// in either compressed or uncompressed encoding.
func ResolveRecoveryID(digest []byte, r, s *secp256k1.ModNScalar, pub *keys.PublicKey) (byte, error) {
	want := pub.Bytes()
	for recid := byte(0); recid < RecoveryCandidates; recid++ {
		candidate, err := RecoverPublicKey(digest, r, s, recid, pub.Prefix())
		if err != nil {
			continue
		}
		compressed, _ := candidate.Compressed()
		uncompressed, err := candidate.Uncompressed()
		if err != nil {
			continue
		}
		if bytes.Equal(compressed, want) || bytes.Equal(uncompressed, want) {
			return recid, nil
		}
	}
	return 0, fmt.Errorf("%w: no candidate matches %s", ErrRecoveryFailed, pub)
}

// Verify checks the r ∥ s part of sig against digest and pub.
// High-S signatures are rejected.
func Verify(digest []byte, sig Signature, pub *keys.PublicKey) bool {
	if len(sig) != SignatureLen || len(digest) != DigestLen || pub == nil {
		return false
	}
	return ethcrypto.VerifySignature(pub.Bytes(), digest, sig[1:])
}

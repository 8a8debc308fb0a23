// Package sign produces canonical, recoverable secp256k1 signatures for Graphene transactions.
//
// Graphene validators only accept signatures whose r and s components pass a
// canonical-form check (see IsCanonical). Engine draws deterministic nonces from an
// injected NonceStrategy until a signature passes, up to a fixed attempt bound,
// then resolves the recovery id by reconstructing each of the four candidate public
// keys and comparing them with the signer's key. The result is a 65-byte compact
// Signature whose header byte is recovery id + 4 + 27.
//
// Strategies
//
//   - CounterNonce: RFC 6979 with the attempt counter as extra data (libsecp256k1 ndata). Default.
//   - RFC6979Nonce: successive values of the plain RFC 6979 nonce stream.
//   - SaltedNonce: RFC 6979 over SHA256(digest ∥ counter).
//
// All strategies are pure functions of (secret, digest, attempt), so an Engine holds no
// mutable state and two keys never share a counter.
//
// Usage
//
//	engine := sign.NewEngine(sign.WithStrategy(sign.CounterNonce{}), sign.WithLogger(lg))
//	sig, err := engine.Sign(privateKey, digest)
//	if err != nil {
//	    return err
//	}
//	pub, err := sig.Recover(digest, keys.DefaultPrefix)
package sign

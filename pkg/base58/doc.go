// Package base58 implements the checksummed Base58 text encodings used for
// Graphene keys and addresses.
//
// Three flavours are provided:
//
//   - Graphene form: a network prefix (e.g. "STM") followed by
//     base58(payload ∥ RIPEMD160(payload)[:4]). Used for public keys and addresses.
//   - WIF: base58(0x80 ∥ secret ∥ SHA256(SHA256(0x80 ∥ secret))[:4]). Used for private keys.
//   - Bitcoin Base58Check: base58(version ∥ payload ∥ SHA256(SHA256(version ∥ payload))[:4]).
//     Used for the legacy "btc" address format.
//
// Usage
//
//	text := base58.GrapheneEncode("STM", compressedPubKey)
//	raw, err := base58.GrapheneDecode("STM", text)
//	if err != nil {
//	    return err
//	}
package base58

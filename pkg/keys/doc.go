// Package keys implements Graphene key and address derivation on secp256k1.
//
// A PrivateKey wraps a secret scalar and derives its compressed and uncompressed
// PublicKey. A PublicKey derives its Address, a RIPEMD160 digest of the SHA-512
// (default) or SHA-256 ("btc" format) hash of the serialized key. PasswordKey turns
// an (account, role, password) triple into a reproducible PrivateKey.
//
//	pk, err := keys.ParsePrivateKey(wif, keys.DefaultPrefix)
//	if err != nil {
//	    return err
//	}
//	fmt.Println(pk.PublicKey())           // STM...
//	fmt.Println(pk.Address().Format("btc")) // 1...
//
// Curve arithmetic is delegated to github.com/decred/dcrd/dcrec/secp256k1/v4.
package keys

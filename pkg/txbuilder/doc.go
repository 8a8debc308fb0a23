// Package txbuilder assembles Graphene transactions and signs them.
//
// A Builder walks a transaction through four steps:
//
//	Prepare      reference block number and prefix, expiration = head time + 30s
//	SetOperations
//	Digest       SHA-256(chain id || serialization without the signature count)
//	Sign         one compact canonical signature per key, in key order
//	Broadcast
//
// Chain data, serialization and broadcasting come from a Transport, usually an *rpc.Client.
// Build runs all steps at once and optionally stops before broadcasting.
package txbuilder

// Package chain holds the parameters of known Graphene networks and resolves the chain
// references accepted by the transaction builder.
package chain

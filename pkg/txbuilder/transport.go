package txbuilder

import (
	"context"
	"encoding/json"
)

// DynamicGlobalProperties is the subset of the chain head state used to prepare transactions.
type DynamicGlobalProperties struct {
	HeadBlockNumber uint32 `json:"head_block_number"`
	HeadBlockID     string `json:"head_block_id"`
	Time            Time   `json:"time"`
}

// BlockHeader is the subset of a block used to derive the reference block prefix.
type BlockHeader struct {
	Previous  string `json:"previous"`
	Timestamp Time   `json:"timestamp"`
	Witness   string `json:"witness"`
}

// Transport supplies chain data, serialization and broadcasting.
type Transport interface {
	GetDynamicGlobalProperties(ctx context.Context) (*DynamicGlobalProperties, error)
	GetBlock(ctx context.Context, num uint32) (*BlockHeader, error)
	// GetTransactionHex returns the node's canonical hex serialization of tx.
	GetTransactionHex(ctx context.Context, tx *Transaction) (string, error)
	BroadcastTransaction(ctx context.Context, tx *Transaction) (json.RawMessage, error)
}

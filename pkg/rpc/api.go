package rpc

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/lightsteem/lightsteem-go/pkg/amount"
	"github.com/lightsteem/lightsteem-go/pkg/txbuilder"
)

var _ txbuilder.Transport = (*Client)(nil)

func (c *Client) GetDynamicGlobalProperties(ctx context.Context) (*txbuilder.DynamicGlobalProperties, error) {
	var props txbuilder.DynamicGlobalProperties
	if err := c.Call(ctx, NewRequest("get_dynamic_global_properties"), &props); err != nil {
		return nil, err
	}
	return &props, nil
}

// GetBlock returns the header of block num, or nil when the node does not have it.
func (c *Client) GetBlock(ctx context.Context, num uint32) (*txbuilder.BlockHeader, error) {
	var block *txbuilder.BlockHeader
	if err := c.Call(ctx, NewRequest("get_block", num), &block); err != nil {
		return nil, err
	}
	return block, nil
}

func (c *Client) GetTransactionHex(ctx context.Context, tx *txbuilder.Transaction) (string, error) {
	var txHex string
	if err := c.Call(ctx, NewRequest("get_transaction_hex", tx), &txHex); err != nil {
		return "", err
	}
	return txHex, nil
}

func (c *Client) BroadcastTransaction(ctx context.Context, tx *txbuilder.Transaction) (json.RawMessage, error) {
	var result json.RawMessage
	if err := c.Call(ctx, NewRequest("broadcast_transaction", tx), &result); err != nil {
		return nil, err
	}
	return result, nil
}

// KeyWeight is one [key, weight] entry of an authority.
type KeyWeight struct {
	Key    string
	Weight uint16
}

func (k KeyWeight) MarshalJSON() ([]byte, error) {
	return json.Marshal([2]any{k.Key, k.Weight})
}

func (k *KeyWeight) UnmarshalJSON(data []byte) error {
	var pair []json.RawMessage
	if err := json.Unmarshal(data, &pair); err != nil {
		return err
	}
	if len(pair) != 2 {
		return fmt.Errorf("%w: authority entry must be a pair", ErrInvalidResponse)
	}
	if err := json.Unmarshal(pair[0], &k.Key); err != nil {
		return err
	}
	return json.Unmarshal(pair[1], &k.Weight)
}

// Authority is a weighted set of keys and accounts.
type Authority struct {
	WeightThreshold uint32      `json:"weight_threshold"`
	AccountAuths    []KeyWeight `json:"account_auths"`
	KeyAuths        []KeyWeight `json:"key_auths"`
}

// Account is the subset of condenser_api account fields relevant to signing.
type Account struct {
	ID            int64         `json:"id"`
	Name          string        `json:"name"`
	Owner         Authority     `json:"owner"`
	Active        Authority     `json:"active"`
	Posting       Authority     `json:"posting"`
	MemoKey       string        `json:"memo_key"`
	Balance       amount.Amount `json:"balance"`
	SBDBalance    amount.Amount `json:"sbd_balance"`
	VestingShares amount.Amount `json:"vesting_shares"`
}

// GetAccounts returns the named accounts. Unknown names are omitted by the node.
func (c *Client) GetAccounts(ctx context.Context, names ...string) ([]Account, error) {
	var accounts []Account
	if err := c.Call(ctx, NewRequest("get_accounts", names), &accounts); err != nil {
		return nil, err
	}
	return accounts, nil
}

// GetConfig returns the node's compile-time chain constants.
func (c *Client) GetConfig(ctx context.Context) (map[string]any, error) {
	var cfg map[string]any
	if err := c.Call(ctx, NewRequest("get_config"), &cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// GetChainProperties returns the witness-voted chain properties.
func (c *Client) GetChainProperties(ctx context.Context) (map[string]any, error) {
	var props map[string]any
	if err := c.Call(ctx, NewRequest("get_chain_properties"), &props); err != nil {
		return nil, err
	}
	return props, nil
}

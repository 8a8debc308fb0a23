package rpc

import (
	"encoding/json"
	"fmt"
)

const (
	// Version is the JSON-RPC protocol version sent with every request.
	Version = "2.0"

	CondenserAPI        = "condenser_api"
	DatabaseAPI         = "database_api"
	BlockAPI            = "block_api"
	NetworkBroadcastAPI = "network_broadcast_api"
	RCAPI               = "rc_api"
)

// Request is a call to method of api. Params is sent as is; a nil Params becomes [] for
// condenser_api and {} for every other api.
type Request struct {
	API    string
	Method string
	Params any
}

// NewRequest returns a condenser_api request passing args as positional params.
func NewRequest(method string, args ...any) Request {
	req := Request{API: CondenserAPI, Method: method}
	if len(args) > 0 {
		req.Params = args
	}
	return req
}

// FullMethod returns "<api>.<method>".
func (r Request) FullMethod() string {
	return r.API + "." + r.Method
}

// Payload returns the wire form of the request with the given id.
func (r Request) Payload(id string) Payload {
	params := r.Params
	if params == nil {
		if r.API == CondenserAPI {
			params = []any{}
		} else {
			params = map[string]any{}
		}
	}
	return Payload{JSONRPC: Version, Method: r.FullMethod(), Params: params, ID: id}
}

// Payload is a JSON-RPC 2.0 request object.
type Payload struct {
	JSONRPC string `json:"jsonrpc"`
	Method  string `json:"method"`
	Params  any    `json:"params"`
	ID      string `json:"id"`
}

// Response is a JSON-RPC 2.0 response object.
type Response struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      json.RawMessage `json:"id"`
	Result  json.RawMessage `json:"result,omitempty"`
	Error   *NodeError      `json:"error,omitempty"`
}

// RequestID returns the response id as a string, accepting numeric ids.
func (r Response) RequestID() string {
	var id string
	if err := json.Unmarshal(r.ID, &id); err == nil {
		return id
	}
	return string(r.ID)
}

// decodeResponses parses either a single response object or a batch array.
func decodeResponses(body []byte) ([]Response, error) {
	trimmed := firstNonSpace(body)
	if trimmed == '[' {
		var batch []Response
		if err := json.Unmarshal(body, &batch); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrInvalidResponse, err)
		}
		return batch, nil
	}

	var single Response
	if err := json.Unmarshal(body, &single); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidResponse, err)
	}
	return []Response{single}, nil
}

func firstNonSpace(b []byte) byte {
	for _, c := range b {
		switch c {
		case ' ', '\t', '\r', '\n':
			continue
		default:
			return c
		}
	}
	return 0
}

package rpc

import (
	"encoding/json"
	"fmt"
)

var (
	// Connection errors
	ErrNoNodes           = fmt.Errorf("no nodes configured")
	ErrNotConnected      = fmt.Errorf("not connected to node")
	ErrConnectionTimeout = fmt.Errorf("websocket connection timeout")
	ErrReadingMessage    = fmt.Errorf("error reading message")
	ErrDialingWebsocket  = fmt.Errorf("error dialing websocket node")

	// Request/Response errors
	ErrMarshalingRequest = fmt.Errorf("error marshaling request")
	ErrSendingRequest    = fmt.Errorf("error sending request")
	ErrNoResponse        = fmt.Errorf("no response received")
	ErrInvalidResponse   = fmt.Errorf("invalid response")
	ErrUnexpectedStatus  = fmt.Errorf("unexpected http status")
)

// NodeError is a JSON-RPC error object returned by a node. Raw holds the full response body.
type NodeError struct {
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data,omitempty"`
	Raw     []byte          `json:"-"`
}

func (e *NodeError) Error() string {
	return fmt.Sprintf("node error %d: %s", e.Code, e.Message)
}

// TransportError wraps a failure to reach a node or to read its response.
// The client moves on to the next node when it sees one.
type TransportError struct {
	Node string
	Err  error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("transport error (%s): %v", e.Node, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

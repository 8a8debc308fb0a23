// Package rpc is a JSON-RPC 2.0 client for Steem nodes.
//
// Requests name their api explicitly:
//
//	client := rpc.NewClient([]string{"https://api.steemit.com"})
//	var props map[string]any
//	err := client.Call(ctx, rpc.Request{API: rpc.DatabaseAPI, Method: "get_dynamic_global_properties"}, &props)
//
// A request without params sends [] to condenser_api and {} to every other api.
// Batch sends several requests in one round trip and fails if any of them fails.
//
// Payloads travel through a Dialer: HTTPDialer retries connection errors and 5xx
// responses with go-retryablehttp; WebsocketDialer keeps one connection open and routes
// responses by request id. Errors returned by nodes are *NodeError; failures to reach a
// node are *TransportError and make the client try the next node.
//
// *Client implements txbuilder.Transport.
package rpc

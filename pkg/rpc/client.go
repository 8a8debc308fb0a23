package rpc

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/lightsteem/lightsteem-go/pkg/log"
)

// DefaultNodes is used when a client is created without nodes.
var DefaultNodes = []string{"https://api.steemit.com"}

// Metrics receives one observation per JSON-RPC request.
type Metrics interface {
	RequestCompleted(method, status string, elapsed time.Duration)
}

// Request outcome labels reported to Metrics.
const (
	StatusOK             = "ok"
	StatusNodeError      = "node_error"
	StatusTransportError = "transport_error"
)

type noopMetrics struct{}

func (noopMetrics) RequestCompleted(string, string, time.Duration) {}

// Client calls Steem nodes. A transport failure moves to the next node, up to one attempt
// per node; node errors are returned as they are. It is safe for concurrent use.
type Client struct {
	nodes   []string
	dialer  Dialer
	lg      log.Logger
	metrics Metrics
	newID   func() string

	mu   sync.Mutex
	next int
}

// ClientOption configures a Client.
type ClientOption func(*Client)

func WithDialer(d Dialer) ClientOption {
	return func(c *Client) {
		if d != nil {
			c.dialer = d
		}
	}
}

func WithLogger(lg log.Logger) ClientOption {
	return func(c *Client) {
		if lg != nil {
			c.lg = lg
		}
	}
}

func WithMetrics(m Metrics) ClientOption {
	return func(c *Client) {
		if m != nil {
			c.metrics = m
		}
	}
}

// WithIDGenerator replaces the uuid request id generator.
func WithIDGenerator(fn func() string) ClientOption {
	return func(c *Client) {
		if fn != nil {
			c.newID = fn
		}
	}
}

// NewClient returns a client for nodes, or DefaultNodes when none are given.
// Without WithDialer it uses an HTTPDialer with DefaultHTTPDialerConfig.
func NewClient(nodes []string, opts ...ClientOption) *Client {
	if len(nodes) == 0 {
		nodes = DefaultNodes
	}
	c := &Client{
		nodes:   append([]string(nil), nodes...),
		lg:      log.NewNoopLogger(),
		metrics: noopMetrics{},
		newID:   func() string { return uuid.NewString() },
	}
	for _, opt := range opts {
		opt(c)
	}
	c.lg = c.lg.WithName("rpc")
	if c.dialer == nil {
		c.dialer = NewHTTPDialer(DefaultHTTPDialerConfig, c.lg)
	}
	return c
}

// Nodes returns the configured node URLs.
func (c *Client) Nodes() []string {
	return append([]string(nil), c.nodes...)
}

// pickNode returns the node to try first; failures advance it.
func (c *Client) pickNode(offset int) string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.nodes[(c.next+offset)%len(c.nodes)]
}

func (c *Client) advance(failed string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.nodes[c.next] == failed {
		c.next = (c.next + 1) % len(c.nodes)
	}
}

// Call sends req and decodes its result into out. out may be nil.
func (c *Client) Call(ctx context.Context, req Request, out any) error {
	results, err := c.Batch(ctx, req)
	if err != nil {
		return err
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(results[0], out); err != nil {
		return fmt.Errorf("%w: decode %s result: %w", ErrInvalidResponse, req.FullMethod(), err)
	}
	return nil
}

// Batch sends reqs in one round trip and returns their results in request order.
// It fails if any element carries an error or is missing.
func (c *Client) Batch(ctx context.Context, reqs ...Request) ([]json.RawMessage, error) {
	if len(c.nodes) == 0 {
		return nil, ErrNoNodes
	}
	if len(reqs) == 0 {
		return nil, nil
	}

	payloads := make([]Payload, len(reqs))
	for i, r := range reqs {
		payloads[i] = r.Payload(c.newID())
	}
	method := reqs[0].FullMethod()
	if len(reqs) > 1 {
		method = "batch"
	}

	var lastErr error
	for attempt := range c.nodes {
		node := c.pickNode(attempt)
		start := time.Now()

		responses, err := c.dialer.Call(ctx, node, payloads)
		if err != nil {
			lastErr = &TransportError{Node: node, Err: err}
			c.metrics.RequestCompleted(method, StatusTransportError, time.Since(start))
			c.lg.Warn("node request failed", "node", node, "method", method, "error", err)
			c.advance(node)
			if ctx.Err() != nil {
				return nil, lastErr
			}
			continue
		}

		results, err := matchResponses(payloads, responses)
		status := StatusOK
		var nodeErr *NodeError
		if errors.As(err, &nodeErr) {
			status = StatusNodeError
		} else if err != nil {
			status = StatusTransportError
		}
		c.metrics.RequestCompleted(method, status, time.Since(start))
		if err != nil {
			c.lg.Debug("request failed", "node", node, "method", method, "error", err)
			return nil, err
		}
		return results, nil
	}
	return nil, lastErr
}

func matchResponses(payloads []Payload, responses []Response) ([]json.RawMessage, error) {
	byID := make(map[string]Response, len(responses))
	for _, res := range responses {
		byID[res.RequestID()] = res
	}

	results := make([]json.RawMessage, len(payloads))
	for i, p := range payloads {
		res, ok := byID[p.ID]
		if !ok {
			// Some nodes drop the id of a lone response.
			if len(payloads) == 1 && len(responses) == 1 {
				res = responses[0]
			} else {
				return nil, fmt.Errorf("%w: no response for %s (id %s)", ErrInvalidResponse, p.Method, p.ID)
			}
		}
		if res.Error != nil {
			return nil, res.Error
		}
		if res.Result == nil {
			return nil, fmt.Errorf("%w: %s returned neither result nor error", ErrInvalidResponse, p.Method)
		}
		results[i] = res.Result
	}
	return results, nil
}

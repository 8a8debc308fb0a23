package rpc

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/lightsteem/lightsteem-go/pkg/log"
)

// WebsocketDialerConfig contains configuration options for the WebSocket dialer.
type WebsocketDialerConfig struct {
	// HandshakeTimeout is the duration to wait for the WebSocket handshake to complete
	HandshakeTimeout time.Duration

	// PingInterval is how often a ping control frame is sent to keep the connection alive
	PingInterval time.Duration

	// WriteTimeout bounds each frame write
	WriteTimeout time.Duration
}

// DefaultWebsocketDialerConfig provides sensible defaults for WebSocket connections.
var DefaultWebsocketDialerConfig = WebsocketDialerConfig{
	HandshakeTimeout: 5 * time.Second,
	PingInterval:     15 * time.Second,
	WriteTimeout:     5 * time.Second,
}

// wsConn is one live connection and its background loops.
type wsConn struct {
	node   string
	conn   *websocket.Conn
	ctx    context.Context
	cancel context.CancelFunc
	err    error
}

// WebsocketDialer keeps one connection open to the last node used. Writes are serialized
// and responses are routed to callers by request id. It is safe for concurrent use.
type WebsocketDialer struct {
	cfg           WebsocketDialerConfig
	lg            log.Logger
	current       *wsConn
	responseSinks map[string]chan Response
	mu            sync.Mutex // protects current and responseSinks
	writeMu       sync.Mutex // serializes WebSocket writes
}

var _ Dialer = (*WebsocketDialer)(nil)

// NewWebsocketDialer creates a WebSocket dialer. Connections are opened on first use.
func NewWebsocketDialer(cfg WebsocketDialerConfig, lg log.Logger) *WebsocketDialer {
	if lg == nil {
		lg = log.NewNoopLogger()
	}
	return &WebsocketDialer{
		cfg:           cfg,
		lg:            lg.WithName("ws-dialer"),
		responseSinks: make(map[string]chan Response),
	}
}

// connect returns a live connection to node, replacing a connection to another node.
func (d *WebsocketDialer) connect(ctx context.Context, node string) (*wsConn, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if c := d.current; c != nil {
		if c.node == node && c.ctx.Err() == nil {
			return c, nil
		}
		c.cancel()
		d.current = nil
	}

	dialer := websocket.Dialer{
		HandshakeTimeout:  d.cfg.HandshakeTimeout,
		EnableCompression: true,
	}
	conn, _, err := dialer.DialContext(ctx, node, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrDialingWebsocket, err)
	}

	// The connection outlives the call that opened it.
	connCtx, cancel := context.WithCancel(context.Background())
	c := &wsConn{node: node, conn: conn, ctx: connCtx, cancel: cancel}
	d.current = c

	go d.closeOnContextDone(c)
	go d.readMessages(c)
	if d.cfg.PingInterval > 0 {
		go d.pingPeriodically(c)
	}
	return c, nil
}

// Close closes the open connection, if any.
func (d *WebsocketDialer) Close() error {
	d.mu.Lock()
	c := d.current
	d.current = nil
	d.mu.Unlock()

	if c != nil {
		c.cancel()
	}
	return nil
}

// IsConnected reports whether a connection is open.
func (d *WebsocketDialer) IsConnected() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.current != nil && d.current.ctx.Err() == nil
}

func (d *WebsocketDialer) closeOnContextDone(c *wsConn) {
	<-c.ctx.Done()
	if err := c.conn.Close(); err != nil {
		d.lg.Debug("error closing websocket", "node", c.node, "error", err)
	}
}

func (d *WebsocketDialer) fail(c *wsConn, err error) {
	d.mu.Lock()
	if c.err == nil {
		c.err = err
	}
	if d.current == c {
		d.current = nil
	}
	d.mu.Unlock()
	c.cancel()
}

// readMessages routes every incoming response to the sink registered for its id.
func (d *WebsocketDialer) readMessages(c *wsConn) {
	for {
		_, messageBytes, err := c.conn.ReadMessage()
		if c.ctx.Err() != nil {
			return
		}
		var netErr net.Error
		if errors.As(err, &netErr) && netErr.Timeout() {
			d.lg.Error("websocket connection timeout", "node", c.node, "error", err)
			d.fail(c, fmt.Errorf("%w: %w", ErrConnectionTimeout, err))
			return
		} else if err != nil {
			d.lg.Warn("websocket read error", "node", c.node, "error", err)
			d.fail(c, fmt.Errorf("%w: %w", ErrReadingMessage, err))
			return
		}

		responses, err := decodeResponses(messageBytes)
		if err != nil {
			d.lg.Warn("malformed message", "node", c.node, "message", string(messageBytes), "error", err)
			continue
		}

		for _, res := range responses {
			if res.Error != nil {
				res.Error.Raw = messageBytes
			}
			id := res.RequestID()

			d.mu.Lock()
			sink, ok := d.responseSinks[id]
			d.mu.Unlock()
			if !ok {
				d.lg.Warn("dropping response without a pending request", "node", c.node, "id", id)
				continue
			}

			select {
			case sink <- res:
			default:
				d.lg.Warn("response channel full, dropping message", "id", id)
			}
		}
	}
}

func (d *WebsocketDialer) pingPeriodically(c *wsConn) {
	ticker := time.NewTicker(d.cfg.PingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-c.ctx.Done():
			return
		case <-ticker.C:
			d.writeMu.Lock()
			err := c.conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(d.cfg.WriteTimeout))
			d.writeMu.Unlock()
			if err != nil {
				d.lg.Warn("error sending ping", "node", c.node, "error", err)
				d.fail(c, fmt.Errorf("%w: ping: %w", ErrSendingRequest, err))
				return
			}
		}
	}
}

// Call writes each payload as its own frame and waits for all responses.
func (d *WebsocketDialer) Call(ctx context.Context, node string, payloads []Payload) ([]Response, error) {
	if len(payloads) == 0 {
		return nil, nil
	}

	c, err := d.connect(ctx, node)
	if err != nil {
		return nil, err
	}

	sink := make(chan Response, len(payloads))
	d.mu.Lock()
	for _, p := range payloads {
		d.responseSinks[p.ID] = sink
	}
	d.mu.Unlock()
	defer func() {
		d.mu.Lock()
		for _, p := range payloads {
			delete(d.responseSinks, p.ID)
		}
		d.mu.Unlock()
	}()

	for _, p := range payloads {
		msg, err := json.Marshal(p)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrMarshalingRequest, err)
		}

		d.writeMu.Lock()
		_ = c.conn.SetWriteDeadline(time.Now().Add(d.cfg.WriteTimeout))
		err = c.conn.WriteMessage(websocket.TextMessage, msg)
		d.writeMu.Unlock()
		if err != nil {
			d.fail(c, err)
			return nil, fmt.Errorf("%w: %w", ErrSendingRequest, err)
		}
	}

	responses := make([]Response, 0, len(payloads))
	for len(responses) < len(payloads) {
		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("%w: %w", ErrNoResponse, ctx.Err())
		case <-c.ctx.Done():
			d.mu.Lock()
			connErr := c.err
			d.mu.Unlock()
			if connErr == nil {
				connErr = ErrNotConnected
			}
			return nil, fmt.Errorf("%w: %w", ErrNoResponse, connErr)
		case res := <-sink:
			responses = append(responses, res)
		}
	}
	return responses, nil
}

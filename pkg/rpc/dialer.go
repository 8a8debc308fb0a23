package rpc

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/hashicorp/go-retryablehttp"

	"github.com/lightsteem/lightsteem-go/pkg/log"
)

// Dialer delivers payloads to a node and returns the responses in any order.
type Dialer interface {
	// Call sends payloads to node. A single payload is sent as an object, several as a batch.
	Call(ctx context.Context, node string, payloads []Payload) ([]Response, error)
}

// HTTPDialerConfig configures the retrying HTTP dialer.
type HTTPDialerConfig struct {
	// Timeout bounds one whole call, retries included.
	Timeout time.Duration
	// MaxRetries is the number of retries on connection errors and 5xx responses.
	MaxRetries   int
	RetryWaitMin time.Duration
	RetryWaitMax time.Duration
}

// DefaultHTTPDialerConfig provides defaults for public Steem API nodes.
var DefaultHTTPDialerConfig = HTTPDialerConfig{
	Timeout:      30 * time.Second,
	MaxRetries:   3,
	RetryWaitMin: 500 * time.Millisecond,
	RetryWaitMax: 5 * time.Second,
}

// HTTPDialer posts JSON-RPC payloads over HTTP with retries.
type HTTPDialer struct {
	client *http.Client
}

var _ Dialer = (*HTTPDialer)(nil)

// leveledLogger adapts log.Logger to retryablehttp. Errors are logged as warnings since they are retried.
type leveledLogger struct {
	lg log.Logger
}

func (l leveledLogger) Error(msg string, keysAndValues ...any) { l.lg.Warn(msg, keysAndValues...) }
func (l leveledLogger) Warn(msg string, keysAndValues ...any)  { l.lg.Warn(msg, keysAndValues...) }
func (l leveledLogger) Info(msg string, keysAndValues ...any)  { l.lg.Debug(msg, keysAndValues...) }
func (l leveledLogger) Debug(msg string, keysAndValues ...any) { l.lg.Debug(msg, keysAndValues...) }

// NewHTTPDialer returns an HTTPDialer. A nil logger discards retry logs.
func NewHTTPDialer(cfg HTTPDialerConfig, lg log.Logger) *HTTPDialer {
	if lg == nil {
		lg = log.NewNoopLogger()
	}

	retryClient := retryablehttp.NewClient()
	retryClient.RetryMax = cfg.MaxRetries
	retryClient.RetryWaitMin = cfg.RetryWaitMin
	retryClient.RetryWaitMax = cfg.RetryWaitMax
	retryClient.Logger = retryablehttp.LeveledLogger(leveledLogger{lg: lg.WithName("http-dialer")})

	client := retryClient.StandardClient()
	client.Timeout = cfg.Timeout
	return &HTTPDialer{client: client}
}

func (d *HTTPDialer) Call(ctx context.Context, node string, payloads []Payload) ([]Response, error) {
	if len(payloads) == 0 {
		return nil, nil
	}

	var (
		body []byte
		err  error
	)
	if len(payloads) == 1 {
		body, err = json.Marshal(payloads[0])
	} else {
		body, err = json.Marshal(payloads)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMarshalingRequest, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, node, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrSendingRequest, err)
	}
	req.Header.Set("Content-Type", "application/json")

	res, err := d.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrSendingRequest, err)
	}
	defer res.Body.Close()

	resBody, err := io.ReadAll(res.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrReadingMessage, err)
	}
	if res.StatusCode >= http.StatusInternalServerError {
		return nil, fmt.Errorf("%w: %d", ErrUnexpectedStatus, res.StatusCode)
	}

	responses, err := decodeResponses(resBody)
	if err != nil {
		if res.StatusCode != http.StatusOK {
			return nil, fmt.Errorf("%w: %d", ErrUnexpectedStatus, res.StatusCode)
		}
		return nil, err
	}
	for i := range responses {
		if responses[i].Error != nil {
			responses[i].Error.Raw = resBody
		}
	}
	return responses, nil
}

package txbuilder

import (
	"context"
	"encoding/json"
	"time"
)

// Event describes a builder transition reported to an Observer.
type Event struct {
	TxID        string
	Chain       string
	Stage       string
	Transaction *Transaction
	Result      json.RawMessage
	Err         error
}

// Observer is notified when a transaction is signed, broadcast or fails.
// Implementations must not retain Transaction beyond the call.
type Observer interface {
	TransactionSigned(ctx context.Context, ev Event)
	TransactionBroadcast(ctx context.Context, ev Event)
	TransactionFailed(ctx context.Context, ev Event)
}

// Metrics receives builder stage timings and broadcast outcomes.
type Metrics interface {
	StageCompleted(stage string, elapsed time.Duration)
	BroadcastCompleted(success bool)
}

type noopObserver struct{}

func (noopObserver) TransactionSigned(context.Context, Event)    {}
func (noopObserver) TransactionBroadcast(context.Context, Event) {}
func (noopObserver) TransactionFailed(context.Context, Event)    {}

type noopMetrics struct{}

func (noopMetrics) StageCompleted(string, time.Duration) {}
func (noopMetrics) BroadcastCompleted(bool)              {}

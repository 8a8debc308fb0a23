package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/lightsteem/lightsteem-go/pkg/rpc"
	"github.com/lightsteem/lightsteem-go/pkg/sign"
	"github.com/lightsteem/lightsteem-go/pkg/txbuilder"
)

const namespace = "steemsign"

// Metrics contains all Prometheus metrics for the signer
type Metrics struct {
	// Signing engine metrics
	SigningAttempts    *prometheus.CounterVec
	SignaturesProduced *prometheus.CounterVec
	SigningFailures    *prometheus.CounterVec
	SigningDuration    *prometheus.HistogramVec
	AttemptsPerSig     prometheus.Histogram

	// Transaction builder metrics
	StageDuration *prometheus.HistogramVec
	Broadcasts    *prometheus.CounterVec

	// RPC metrics
	RPCRequests *prometheus.CounterVec
	RPCDuration *prometheus.HistogramVec
}

var (
	_ sign.Observer     = (*Metrics)(nil)
	_ txbuilder.Metrics = (*Metrics)(nil)
	_ rpc.Metrics       = (*Metrics)(nil)
)

// NewMetrics initializes and registers metrics with the default registerer
func NewMetrics() *Metrics {
	return NewMetricsWithRegistry(nil)
}

// NewMetricsWithRegistry initializes and registers metrics with a custom registry
func NewMetricsWithRegistry(registry prometheus.Registerer) *Metrics {
	if registry == nil {
		registry = prometheus.DefaultRegisterer
	}
	factory := promauto.With(registry)

	return &Metrics{
		SigningAttempts: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "signing_attempts_total",
				Help:      "The total number of candidate signatures computed",
			},
			[]string{"strategy"},
		),
		SignaturesProduced: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "signatures_produced_total",
				Help:      "The total number of canonical signatures produced",
			},
			[]string{"strategy"},
		),
		SigningFailures: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "signing_failures_total",
				Help:      "The total number of failed signing operations",
			},
			[]string{"reason"},
		),
		SigningDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "signing_duration_seconds",
				Help:      "Time spent producing one canonical signature",
				Buckets:   []float64{.0001, .0005, .001, .005, .01, .05, .1, .5},
			},
			[]string{"strategy"},
		),
		AttemptsPerSig: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "signing_attempts_per_signature",
			Help:      "Number of candidates needed to find a canonical signature",
			Buckets:   []float64{1, 2, 3, 5, 10, 20, 50},
		}),
		StageDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "transaction_stage_duration_seconds",
				Help:      "Time spent in each transaction builder stage",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"stage"},
		),
		Broadcasts: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "broadcasts_total",
				Help:      "The total number of broadcast transactions",
			},
			[]string{"status"},
		),
		RPCRequests: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "rpc_requests_total",
				Help:      "The total number of JSON-RPC requests sent to nodes",
			},
			[]string{"method", "status"},
		),
		RPCDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "rpc_request_duration_seconds",
				Help:      "JSON-RPC request latency",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"method"},
		),
	}
}

func (m *Metrics) SigningAttempt(strategy string) {
	m.SigningAttempts.WithLabelValues(strategy).Inc()
}

func (m *Metrics) SignatureProduced(strategy string, attempts int, elapsed time.Duration) {
	m.SignaturesProduced.WithLabelValues(strategy).Inc()
	m.SigningDuration.WithLabelValues(strategy).Observe(elapsed.Seconds())
	m.AttemptsPerSig.Observe(float64(attempts))
}

func (m *Metrics) SigningFailed(reason string) {
	m.SigningFailures.WithLabelValues(reason).Inc()
}

func (m *Metrics) StageCompleted(stage string, elapsed time.Duration) {
	m.StageDuration.WithLabelValues(stage).Observe(elapsed.Seconds())
}

func (m *Metrics) BroadcastCompleted(success bool) {
	status := "success"
	if !success {
		status = "failure"
	}
	m.Broadcasts.WithLabelValues(status).Inc()
}

func (m *Metrics) RequestCompleted(method, status string, elapsed time.Duration) {
	m.RPCRequests.WithLabelValues(method, status).Inc()
	m.RPCDuration.WithLabelValues(method).Observe(elapsed.Seconds())
}

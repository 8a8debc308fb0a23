package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/urfave/cli/v2"

	"github.com/lightsteem/lightsteem-go/internal/config"
	"github.com/lightsteem/lightsteem-go/internal/journal"
	"github.com/lightsteem/lightsteem-go/internal/metrics"
	"github.com/lightsteem/lightsteem-go/pkg/log"
	"github.com/lightsteem/lightsteem-go/pkg/rpc"
	"github.com/lightsteem/lightsteem-go/pkg/sign"
	"github.com/lightsteem/lightsteem-go/pkg/txbuilder"
)

func main() {
	newApp().RunAndExitOnError()
}

func newApp() *cli.App {
	app := &cli.App{
		Name:  "steemsign",
		Usage: "derive Steem keys, sign transaction digests and broadcast transactions",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config-dir",
				Usage:   "directory holding the .env file",
				EnvVars: []string{"STEEM_CONFIG_DIR_PATH"},
			},
		},
	}
	app.Commands = []*cli.Command{
		keygenCommand,
		deriveCommand,
		pubkeyCommand,
		addressCommand,
		signDigestCommand,
		verifyCommand,
		broadcastCommand,
		chainsCommand,
	}
	return app
}

// runtime holds the configured services shared by the signing commands.
type runtime struct {
	cfg     *config.Config
	lg      log.Logger
	metrics *metrics.Metrics
	journal *journal.Journal
	stops   []func()
}

func loadRuntime(cctx *cli.Context) (*runtime, error) {
	bootstrap := log.NewZapLogger(log.Config{Format: "console", Level: log.LevelWarn, Output: "stderr"})
	cfg, err := config.Load(cctx.String("config-dir"), bootstrap)
	if err != nil {
		return nil, err
	}

	rt := &runtime{cfg: cfg, lg: log.NewZapLogger(cfg.Log).WithName("steemsign")}

	if cfg.MetricsAddr != "" {
		rt.serveMetrics()
	}

	if cfg.Journal.Enabled() {
		j, err := journal.Open(cfg.Journal, rt.lg)
		if err != nil {
			rt.Close()
			return nil, err
		}
		rt.journal = j
		rt.stops = append(rt.stops, func() { _ = j.Close() })
	}
	return rt, nil
}

func (rt *runtime) serveMetrics() {
	registry := prometheus.NewRegistry()
	rt.metrics = metrics.NewMetricsWithRegistry(registry)

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))
	srv := &http.Server{Addr: rt.cfg.MetricsAddr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	go func() {
		rt.lg.Info("serving metrics", "addr", rt.cfg.MetricsAddr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			rt.lg.Error("metrics server failed", "error", err)
		}
	}()

	rt.stops = append(rt.stops, func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = srv.Shutdown(ctx)
	})
}

// Close stops the metrics server and closes the journal.
func (rt *runtime) Close() {
	for i := len(rt.stops) - 1; i >= 0; i-- {
		rt.stops[i]()
	}
	rt.stops = nil
}

func (rt *runtime) engine() (*sign.Engine, error) {
	opts := []sign.Option{sign.WithLogger(rt.lg)}
	if rt.metrics != nil {
		opts = append(opts, sign.WithObserver(rt.metrics))
	}
	return rt.cfg.Engine(opts...)
}

// client picks the websocket dialer when the first node is a ws:// or wss:// URL.
func (rt *runtime) client() *rpc.Client {
	var dialer rpc.Dialer
	if len(rt.cfg.Nodes) > 0 && isWebsocketURL(rt.cfg.Nodes[0]) {
		ws := rpc.NewWebsocketDialer(rpc.DefaultWebsocketDialerConfig, rt.lg)
		rt.stops = append(rt.stops, func() { _ = ws.Close() })
		dialer = ws
	} else {
		httpCfg := rpc.DefaultHTTPDialerConfig
		httpCfg.Timeout = rt.cfg.RPCTimeout
		httpCfg.MaxRetries = rt.cfg.RPCRetries
		dialer = rpc.NewHTTPDialer(httpCfg, rt.lg)
	}

	opts := []rpc.ClientOption{rpc.WithDialer(dialer), rpc.WithLogger(rt.lg)}
	if rt.metrics != nil {
		opts = append(opts, rpc.WithMetrics(rt.metrics))
	}
	return rpc.NewClient(rt.cfg.Nodes, opts...)
}

func (rt *runtime) builder(transport txbuilder.Transport, engine *sign.Engine) (*txbuilder.Builder, error) {
	registry, err := rt.cfg.Registry()
	if err != nil {
		return nil, err
	}
	privateKeys, err := rt.cfg.PrivateKeys()
	if err != nil {
		return nil, err
	}

	opts := []txbuilder.Option{
		txbuilder.WithEngine(engine),
		txbuilder.WithKeys(privateKeys...),
		txbuilder.WithRegistry(registry),
		txbuilder.WithLogger(rt.lg),
		txbuilder.WithParallelSigning(rt.cfg.ParallelSigning),
	}
	if rt.metrics != nil {
		opts = append(opts, txbuilder.WithMetrics(rt.metrics))
	}
	if rt.journal != nil {
		opts = append(opts, txbuilder.WithObserver(rt.journal))
	}
	return txbuilder.New(transport, opts...), nil
}

func isWebsocketURL(node string) bool {
	return strings.HasPrefix(node, "ws://") || strings.HasPrefix(node, "wss://")
}

func printJSON(cctx *cli.Context, v any) error {
	enc := json.NewEncoder(cctx.App.Writer)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("encode output: %w", err)
	}
	return nil
}

package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/ilyakaznacheev/cleanenv"
	"github.com/joho/godotenv"

	"github.com/lightsteem/lightsteem-go/internal/journal"
	"github.com/lightsteem/lightsteem-go/pkg/chain"
	"github.com/lightsteem/lightsteem-go/pkg/keys"
	"github.com/lightsteem/lightsteem-go/pkg/log"
	"github.com/lightsteem/lightsteem-go/pkg/sign"
)

const (
	configDirPathEnv     = "STEEM_CONFIG_DIR_PATH"
	defaultConfigDirPath = "."
)

// Config is the application configuration read from the environment.
type Config struct {
	Nodes           []string      `env:"STEEM_NODES" env-separator:"," env-default:"https://api.steemit.com" validate:"min=1,dive,url"`
	Chain           string        `env:"STEEM_CHAIN" env-default:"STEEM" validate:"required"`
	ChainsFile      string        `env:"STEEM_CHAINS_FILE" env-default:""`
	Keys            []string      `env:"STEEM_KEYS" env-separator:","`
	NonceStrategy   string        `env:"STEEM_NONCE_STRATEGY" env-default:"counter" validate:"oneof=counter rfc6979 salted"`
	MaxAttempts     uint32        `env:"STEEM_MAX_SIGNING_ATTEMPTS" env-default:"1000" validate:"min=1"`
	ParallelSigning bool          `env:"STEEM_PARALLEL_SIGNING" env-default:"false"`
	RPCTimeout      time.Duration `env:"STEEM_RPC_TIMEOUT" env-default:"30s" validate:"min=0"`
	RPCRetries      int           `env:"STEEM_RPC_RETRIES" env-default:"3" validate:"min=0"`
	MetricsAddr     string        `env:"STEEM_METRICS_ADDR" env-default:""`
	Journal         journal.Config
	Log             log.Config
}

// Load reads <dir>/.env when present, then the environment. An empty dir falls back to
// STEEM_CONFIG_DIR_PATH and then the working directory.
func Load(dir string, lg log.Logger) (*Config, error) {
	if lg == nil {
		lg = log.NewNoopLogger()
	}
	lg = lg.WithName("config")

	if dir == "" {
		dir = os.Getenv(configDirPathEnv)
	}
	if dir == "" {
		dir = defaultConfigDirPath
	}

	dotEnvPath := filepath.Join(dir, ".env")
	lg.Debug("loading .env file", "path", dotEnvPath)
	if err := godotenv.Load(dotEnvPath); err != nil {
		lg.Warn(".env file not found", "path", dotEnvPath)
	}

	var cfg Config
	if err := cleanenv.ReadEnv(&cfg); err != nil {
		return nil, fmt.Errorf("read env: %w", err)
	}
	cfg.Keys = compact(cfg.Keys)
	cfg.Nodes = compact(cfg.Nodes)

	if err := validator.New().Struct(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	lg.Info("configuration loaded", "nodes", cfg.Nodes, "chain", cfg.Chain, "nonce_strategy", cfg.NonceStrategy, "keys", len(cfg.Keys))
	return &cfg, nil
}

func compact(values []string) []string {
	out := values[:0]
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}

// Registry returns the built-in chain registry extended by ChainsFile.
func (c *Config) Registry() (*chain.Registry, error) {
	r := chain.NewRegistry()
	if c.ChainsFile != "" {
		if err := r.Load(c.ChainsFile); err != nil {
			return nil, err
		}
	}
	return r, nil
}

// ChainParams resolves Chain against Registry.
func (c *Config) ChainParams() (chain.Params, error) {
	r, err := c.Registry()
	if err != nil {
		return chain.Params{}, err
	}
	return r.Resolve(c.Chain)
}

// PrivateKeys parses Keys with the address prefix of the configured chain.
func (c *Config) PrivateKeys() ([]*keys.PrivateKey, error) {
	params, err := c.ChainParams()
	if err != nil {
		return nil, err
	}

	out := make([]*keys.PrivateKey, 0, len(c.Keys))
	for i, text := range c.Keys {
		k, err := keys.ParsePrivateKey(text, params.AddressPrefix)
		if err != nil {
			return nil, fmt.Errorf("STEEM_KEYS entry %d: %w", i, err)
		}
		out = append(out, k)
	}
	return out, nil
}

// Engine builds a signing engine from NonceStrategy and MaxAttempts.
func (c *Config) Engine(opts ...sign.Option) (*sign.Engine, error) {
	strategy, err := sign.StrategyByName(c.NonceStrategy)
	if err != nil {
		return nil, err
	}
	return sign.NewEngine(append([]sign.Option{sign.WithStrategy(strategy), sign.WithMaxAttempts(c.MaxAttempts)}, opts...)...), nil
}

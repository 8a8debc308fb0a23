package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lightsteem/lightsteem-go/internal/config"
	"github.com/lightsteem/lightsteem-go/pkg/sign"
)

const wifOne = "5HpHagT65TZzG1PH3CSu63k8DbpvD8s5ip4nEB3kEsreAnchuDf"

func TestLoad_Defaults(t *testing.T) {
	cfg, err := config.Load(t.TempDir(), nil)
	require.NoError(t, err)

	assert.Equal(t, []string{"https://api.steemit.com"}, cfg.Nodes)
	assert.Equal(t, "STEEM", cfg.Chain)
	assert.Equal(t, "counter", cfg.NonceStrategy)
	assert.Equal(t, uint32(1000), cfg.MaxAttempts)
	assert.Equal(t, 30*time.Second, cfg.RPCTimeout)
	assert.Equal(t, 3, cfg.RPCRetries)
	assert.False(t, cfg.ParallelSigning)
	assert.Empty(t, cfg.Keys)
	assert.Empty(t, cfg.Journal.Driver)
	assert.Equal(t, "console", cfg.Log.Format)

	engine, err := cfg.Engine()
	require.NoError(t, err)
	assert.Equal(t, sign.StrategyCounter, engine.Strategy().Name())
}

func TestLoad_Environment(t *testing.T) {
	t.Setenv("STEEM_NODES", "https://a.example, wss://b.example")
	t.Setenv("STEEM_CHAIN", "TESTNET")
	t.Setenv("STEEM_KEYS", wifOne+",")
	t.Setenv("STEEM_NONCE_STRATEGY", "salted")
	t.Setenv("STEEM_PARALLEL_SIGNING", "true")
	t.Setenv("STEEM_RPC_TIMEOUT", "5s")
	t.Setenv("STEEM_JOURNAL_DRIVER", "sqlite")

	cfg, err := config.Load(t.TempDir(), nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"https://a.example", "wss://b.example"}, cfg.Nodes)
	assert.True(t, cfg.ParallelSigning)
	assert.Equal(t, 5*time.Second, cfg.RPCTimeout)
	assert.Equal(t, "sqlite", cfg.Journal.Driver)

	params, err := cfg.ChainParams()
	require.NoError(t, err)
	assert.Equal(t, "TST", params.AddressPrefix)

	ks, err := cfg.PrivateKeys()
	require.NoError(t, err)
	require.Len(t, ks, 1)
	assert.Equal(t, "TST", ks[0].PublicKey().Prefix())
	assert.Equal(t, wifOne, ks[0].WIF())

	engine, err := cfg.Engine()
	require.NoError(t, err)
	assert.Equal(t, sign.StrategySalted, engine.Strategy().Name())
}

func TestLoad_Invalid(t *testing.T) {
	tcs := []struct {
		name string
		env  map[string]string
	}{
		{name: "unknown strategy", env: map[string]string{"STEEM_NONCE_STRATEGY": "wallclock"}},
		{name: "zero attempts", env: map[string]string{"STEEM_MAX_SIGNING_ATTEMPTS": "0"}},
		{name: "bad node url", env: map[string]string{"STEEM_NODES": "not a url"}},
		{name: "unknown journal driver", env: map[string]string{"STEEM_JOURNAL_DRIVER": "mysql"}},
		{name: "bad duration", env: map[string]string{"STEEM_RPC_TIMEOUT": "soon"}},
	}
	for _, tc := range tcs {
		t.Run(tc.name, func(t *testing.T) {
			for k, v := range tc.env {
				t.Setenv(k, v)
			}
			_, err := config.Load(t.TempDir(), nil)
			assert.Error(t, err)
		})
	}
}

func TestLoad_BadKeysAndChains(t *testing.T) {
	t.Setenv("STEEM_KEYS", "not-a-wif")
	cfg, err := config.Load(t.TempDir(), nil)
	require.NoError(t, err)
	_, err = cfg.PrivateKeys()
	assert.Error(t, err)

	t.Setenv("STEEM_CHAIN", "GOLOS")
	cfg, err = config.Load(t.TempDir(), nil)
	require.NoError(t, err)
	_, err = cfg.ChainParams()
	assert.Error(t, err)
}

func TestLoad_DotEnvAndChainsFile(t *testing.T) {
	dir := t.TempDir()
	chainsPath := filepath.Join(dir, "chains.yaml")
	require.NoError(t, os.WriteFile(chainsPath, []byte(`chains:
  - name: LOCAL
    chain_id: "1111111111111111111111111111111111111111111111111111111111111111"
    address_prefix: LCL
`), 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte("STEEM_CHAIN=LOCAL\nSTEEM_CHAINS_FILE="+chainsPath+"\n"), 0o600))
	t.Cleanup(func() {
		os.Unsetenv("STEEM_CHAIN")
		os.Unsetenv("STEEM_CHAINS_FILE")
	})

	cfg, err := config.Load(dir, nil)
	require.NoError(t, err)
	params, err := cfg.ChainParams()
	require.NoError(t, err)
	assert.Equal(t, "LCL", params.AddressPrefix)
}

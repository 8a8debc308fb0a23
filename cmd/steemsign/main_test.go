package main

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lightsteem/lightsteem-go/pkg/keys"
)

// Private key 1, whose public key is the curve generator.
const generatorWIF = "5HpHagT65TZzG1PH3CSu63k8DbpvD8s5ip4nEB3kEsreAnchuDf"

func runApp(t *testing.T, args ...string) (string, error) {
	t.Helper()
	return runAppWithEnv(t, nil, args...)
}

func runAppWithEnv(t *testing.T, env map[string]string, args ...string) (string, error) {
	t.Helper()
	t.Setenv("STEEM_CONFIG_DIR_PATH", t.TempDir())
	t.Setenv("STEEM_KEYS", "")
	t.Setenv("STEEM_JOURNAL_DRIVER", "")
	t.Setenv("STEEM_METRICS_ADDR", "")
	for k, v := range env {
		t.Setenv(k, v)
	}

	var out bytes.Buffer
	app := newApp()
	app.Writer = &out
	app.ErrWriter = &out
	err := app.Run(append([]string{"steemsign"}, args...))
	return out.String(), err
}

func TestKeyCommands(t *testing.T) {
	t.Run("keygen", func(t *testing.T) {
		out, err := runApp(t, "keygen")
		require.NoError(t, err)

		var res keyOutput
		require.NoError(t, json.Unmarshal([]byte(out), &res))
		k, err := keys.ParsePrivateKey(res.WIF, "")
		require.NoError(t, err)
		assert.Equal(t, k.PublicKey().String(), res.PublicKey)
		assert.True(t, strings.HasPrefix(res.Address, "STM"))
	})

	t.Run("pubkey", func(t *testing.T) {
		out, err := runApp(t, "pubkey", generatorWIF)
		require.NoError(t, err)

		var res keyOutput
		require.NoError(t, json.Unmarshal([]byte(out), &res))
		assert.Empty(t, res.WIF)
		assert.Equal(t, "STM5p78kHbL33Rn3JWkTWRE2B9uz6gy4r1KbfAKLNQGE3ovMBS5bu", res.PublicKey)
		assert.Equal(t, "STM2AEvasXgyVpNhNiwMGFtFFbsr8UH5BXqo", res.Address)
		assert.Equal(t, "1BgGZ9tcN4rm9KBzDn7KprQz87SZ26SAMH", res.BitcoinAddress)
	})

	t.Run("pubkey without argument", func(t *testing.T) {
		_, err := runApp(t, "pubkey")
		require.Error(t, err)
	})

	t.Run("address", func(t *testing.T) {
		out, err := runApp(t, "address", "STM5p78kHbL33Rn3JWkTWRE2B9uz6gy4r1KbfAKLNQGE3ovMBS5bu")
		require.NoError(t, err)
		assert.Equal(t, "STM2AEvasXgyVpNhNiwMGFtFFbsr8UH5BXqo", strings.TrimSpace(out))

		out, err = runApp(t, "address", "--format", "btc", "STM5p78kHbL33Rn3JWkTWRE2B9uz6gy4r1KbfAKLNQGE3ovMBS5bu")
		require.NoError(t, err)
		assert.Equal(t, "1BgGZ9tcN4rm9KBzDn7KprQz87SZ26SAMH", strings.TrimSpace(out))
	})

	t.Run("derive matches password key", func(t *testing.T) {
		out, err := runApp(t, "derive", "--account", "alice", "--password", "hunter2", "--role", "posting")
		require.NoError(t, err)

		var res keyOutput
		require.NoError(t, json.Unmarshal([]byte(out), &res))
		want, err := keys.NewPasswordKey("alice", "hunter2", keys.RolePosting).PrivateKey()
		require.NoError(t, err)
		assert.Equal(t, want.WIF(), res.WIF)
		assert.Equal(t, want.PublicKey().String(), res.PublicKey)
	})
}

func TestSignAndVerify(t *testing.T) {
	out, err := runApp(t, "sign-digest", "--chain", "STEEM", "--tx-hex", "aabbcc00", "--key", generatorWIF)
	require.NoError(t, err)

	var signed signDigestOutput
	require.NoError(t, json.Unmarshal([]byte(out), &signed))
	assert.Equal(t, "STEEM", signed.Chain)
	assert.Len(t, signed.TxID, 40)
	require.Len(t, signed.Signatures, 1)
	assert.True(t, signed.Signatures[0].IsCanonical())

	out, err = runApp(t, "verify",
		"--digest", signed.Digest,
		"--sig", signed.Signatures[0].String(),
		"--pubkey", "STM5p78kHbL33Rn3JWkTWRE2B9uz6gy4r1KbfAKLNQGE3ovMBS5bu",
	)
	require.NoError(t, err)

	var verified verifyOutput
	require.NoError(t, json.Unmarshal([]byte(out), &verified))
	assert.True(t, verified.Valid)
	assert.Equal(t, "STM5p78kHbL33Rn3JWkTWRE2B9uz6gy4r1KbfAKLNQGE3ovMBS5bu", verified.Recovered)
}

func TestSignDigestWithoutKeys(t *testing.T) {
	_, err := runApp(t, "sign-digest", "--tx-hex", "aabbcc00")
	require.Error(t, err)
}

func TestChains(t *testing.T) {
	out, err := runApp(t, "chains")
	require.NoError(t, err)
	assert.Contains(t, out, "STEEM")
	assert.Contains(t, out, "beeab0de")

	out, err = runApp(t, "chains", "--json")
	require.NoError(t, err)

	var res []chainOutput
	require.NoError(t, json.Unmarshal([]byte(out), &res))

	byName := map[string]chainOutput{}
	for _, c := range res {
		byName[c.Name] = c
	}
	require.Contains(t, byName, "STEEM")
	assert.True(t, byName["STEEM"].Default)
	assert.Equal(t, "STM", byName["STEEM"].AddressPrefix)
	assert.Contains(t, byName, "HIVE")
}

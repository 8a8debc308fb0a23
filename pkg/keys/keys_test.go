package keys_test

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lightsteem/lightsteem-go/pkg/keys"
)

const (
	generatorX = "79be667ef9dcbbac55a06295ce870b07029bfcdb2dce28d959f2815b16f81798"
	generatorY = "483ada7726a3c4655da4fbfc0e1108a8fd17b448a68554199c47d08ffb10d4b8"
)

func scalar(last byte) []byte {
	secret := make([]byte, 32)
	secret[31] = last
	return secret
}

func mustHex(t *testing.T, s string) []byte {
	t.Helper()
	b, err := hex.DecodeString(s)
	require.NoError(t, err)
	return b
}

func TestPrivateKey_KnownVectors(t *testing.T) {
	tests := []struct {
		name         string
		secret       []byte
		compressed   string
		uncompressed string
	}{
		{
			name:         "scalar one is the generator",
			secret:       scalar(1),
			compressed:   "02" + generatorX,
			uncompressed: "04" + generatorX + generatorY,
		},
		{
			name:         "scalar two",
			secret:       scalar(2),
			compressed:   "02c6047f9441ed7d6d3045406e95c07cd85c778e4b8cef3ca7abac09b95c709ee5",
			uncompressed: "04c6047f9441ed7d6d3045406e95c07cd85c778e4b8cef3ca7abac09b95c709ee51ae168fea63dc339a3c58419466ceaeef7f632653266d0e1236431a950cfe52a",
		},
		{
			name:         "scalar three",
			secret:       scalar(3),
			compressed:   "02f9308a019258c31049344f85f89d5229b531c845836f99b08601f113bce036f9",
			uncompressed: "04f9308a019258c31049344f85f89d5229b531c845836f99b08601f113bce036f9388f7b0f632de8140fe337e62a37f3566500a99934c2231b6cb9fd7584b8e672",
		},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			pk, err := keys.NewPrivateKey(test.secret, "")
			require.NoError(t, err)

			compressed, uncompressed := pk.DerivePublicKeys()
			assert.Equal(t, test.compressed, hex.EncodeToString(compressed))
			assert.Equal(t, test.uncompressed, hex.EncodeToString(uncompressed))
			assert.Equal(t, test.compressed, pk.PublicKey().Hex())
			assert.Equal(t, test.uncompressed, pk.UncompressedPublicKey().Hex())
		})
	}
}

func TestPrivateKey_Encodings(t *testing.T) {
	t.Run("WIF round trip", func(t *testing.T) {
		pk, err := keys.NewPrivateKey(scalar(1), "")
		require.NoError(t, err)
		assert.Equal(t, "5HpHagT65TZzG1PH3CSu63k8DbpvD8s5ip4nEB3kEsreAnchuDf", pk.WIF())
		assert.Equal(t, pk.WIF(), pk.String())

		parsed, err := keys.ParsePrivateKey(pk.WIF(), "")
		require.NoError(t, err)
		assert.Equal(t, pk.Bytes(), parsed.Bytes())
	})

	t.Run("compressed WIF", func(t *testing.T) {
		parsed, err := keys.ParsePrivateKey("KwDiBf89QgGbjEhKnhXJuH7LrciVrZi3qYjgd9M7rFU73sVHnoWn", "")
		require.NoError(t, err)
		assert.Equal(t, scalar(1), parsed.Bytes())
	})

	t.Run("hex secret", func(t *testing.T) {
		parsed, err := keys.ParsePrivateKey(strings.Repeat("00", 31)+"03", "")
		require.NoError(t, err)
		assert.Equal(t, scalar(3), parsed.Bytes())
	})

	t.Run("generated keys are valid and distinct", func(t *testing.T) {
		a, err := keys.GeneratePrivateKey("")
		require.NoError(t, err)
		b, err := keys.GeneratePrivateKey("")
		require.NoError(t, err)
		assert.NotEqual(t, a.Bytes(), b.Bytes())
		assert.Len(t, a.Bytes(), keys.KeyLen)
	})

	t.Run("ToECDSA agrees with public key", func(t *testing.T) {
		pk, err := keys.NewPrivateKey(scalar(7), "")
		require.NoError(t, err)

		priv, err := pk.ToECDSA()
		require.NoError(t, err)
		pub, err := pk.PublicKey().ToECDSA()
		require.NoError(t, err)
		assert.True(t, priv.PublicKey.Equal(pub))
	})
}

func TestPrivateKey_InvalidSecrets(t *testing.T) {
	order := keys.CurveOrder()
	aboveOrder := keys.CurveOrder()
	aboveOrder[31]++

	tests := []struct {
		name   string
		secret []byte
	}{
		{"zero", make([]byte, 32)},
		{"curve order", order},
		{"above curve order", aboveOrder},
		{"short", scalar(1)[:31]},
		{"long", append(scalar(1), 0)},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			_, err := keys.NewPrivateKey(test.secret, "")
			assert.ErrorIs(t, err, keys.ErrInvalidSecret)
		})
	}

	t.Run("bad WIF", func(t *testing.T) {
		_, err := keys.ParsePrivateKey("not-a-key", "")
		assert.ErrorIs(t, err, keys.ErrInvalidSecret)
	})
}

func TestPublicKey_CompressionRoundTrip(t *testing.T) {
	secrets := [][]byte{scalar(1), scalar(2), scalar(3), scalar(0xff)}
	for i := 0; i < 4; i++ {
		pk, err := keys.GeneratePrivateKey("")
		require.NoError(t, err)
		secrets = append(secrets, pk.Bytes())
	}

	for _, secret := range secrets {
		pk, err := keys.NewPrivateKey(secret, "")
		require.NoError(t, err)

		original := pk.PublicKey()
		uncompressed, err := original.Uncompressed()
		require.NoError(t, err)
		assert.Equal(t, pk.UncompressedPublicKey().Bytes(), uncompressed)

		fromUncompressed, err := keys.NewPublicKey(uncompressed, "")
		require.NoError(t, err)
		compressed, err := fromUncompressed.Compressed()
		require.NoError(t, err)
		assert.Equal(t, original.Bytes(), compressed)
		assert.True(t, original.Equal(fromUncompressed))
	}
}

func TestPublicKey_Parse(t *testing.T) {
	t.Run("hex forms", func(t *testing.T) {
		compressed, err := keys.ParsePublicKey("02"+generatorX, "")
		require.NoError(t, err)
		assert.True(t, compressed.IsCompressed())

		uncompressed, err := keys.ParsePublicKey("04"+generatorX+generatorY, "")
		require.NoError(t, err)
		assert.False(t, uncompressed.IsCompressed())

		point, err := compressed.Point()
		require.NoError(t, err)
		assert.Equal(t, generatorY, hex.EncodeToString(point.SerializeUncompressed()[33:]))
	})

	t.Run("graphene text round trip", func(t *testing.T) {
		pk, err := keys.NewPrivateKey(scalar(5), "TST")
		require.NoError(t, err)

		text := pk.PublicKey().String()
		assert.True(t, strings.HasPrefix(text, "TST"))

		parsed, err := keys.ParsePublicKey(text, "TST")
		require.NoError(t, err)
		assert.Equal(t, pk.PublicKey().Bytes(), parsed.Bytes())
	})

	t.Run("odd parity", func(t *testing.T) {
		odd, err := keys.ParsePublicKey("03"+generatorX, "")
		require.NoError(t, err)
		uncompressed, err := odd.Uncompressed()
		require.NoError(t, err)
		assert.NotEqual(t, generatorY, hex.EncodeToString(uncompressed[33:]))
		assert.Equal(t, byte(1), uncompressed[64]&1)
	})
}

func TestPublicKey_Errors(t *testing.T) {
	tests := []struct {
		name string
		hex  string
		err  error
	}{
		{"unknown prefix", "05" + generatorX + generatorY, keys.ErrMalformedKey},
		{"hybrid prefix", "06" + generatorX + generatorY, keys.ErrMalformedKey},
		{"uncompressed prefix with compressed length", "04" + generatorX, keys.ErrMalformedKey},
		{"compressed prefix with uncompressed length", "02" + generatorX + generatorY, keys.ErrMalformedKey},
		{"x without square root", "02" + strings.Repeat("00", 32), keys.ErrInvalidPoint},
		{"uncompressed point off the curve", "04" + generatorX + generatorY[:62] + "b9", keys.ErrInvalidPoint},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			_, err := keys.NewPublicKey(mustHex(t, test.hex), "")
			assert.ErrorIs(t, err, test.err)
		})
	}

	t.Run("neither hex nor prefixed", func(t *testing.T) {
		_, err := keys.ParsePublicKey("XYZnothex", "STM")
		assert.ErrorIs(t, err, keys.ErrInvalidInput)
	})
}

func TestAddress(t *testing.T) {
	compressed := mustHex(t, "02"+generatorX)
	uncompressed := mustHex(t, "04"+generatorX+generatorY)

	t.Run("btc format uses the sha256 variant", func(t *testing.T) {
		addr, err := keys.NewAddressFromPublicKey(compressed, "")
		require.NoError(t, err)
		assert.Equal(t, "1BgGZ9tcN4rm9KBzDn7KprQz87SZ26SAMH", addr.Format("btc"))
		assert.Equal(t, "1BgGZ9tcN4rm9KBzDn7KprQz87SZ26SAMH", addr.Format("BTC"))

		addr, err = keys.NewAddressFromPublicKey(uncompressed, "")
		require.NoError(t, err)
		assert.Equal(t, "1EHNa6Q4Jz2uvNExL497mE43ikXhwF6kZm", addr.Format(keys.FormatBTC))
	})

	t.Run("graphene text of the generator", func(t *testing.T) {
		pub, err := keys.NewPublicKey(compressed, "")
		require.NoError(t, err)
		assert.Equal(t, "STM5p78kHbL33Rn3JWkTWRE2B9uz6gy4r1KbfAKLNQGE3ovMBS5bu", pub.String())
		assert.Equal(t, "STM2AEvasXgyVpNhNiwMGFtFFbsr8UH5BXqo", pub.Address().String())
	})

	t.Run("default format uses the sha512 variant", func(t *testing.T) {
		addr, err := keys.NewAddressFromPublicKey(compressed, "")
		require.NoError(t, err)
		assert.NotEqual(t, addr.Digest(keys.HashSHA256), addr.Digest(keys.HashSHA512))
		assert.Equal(t, addr.Digest(keys.HashSHA512), addr.Bytes())
		assert.Len(t, addr.Bytes(), 20)
		assert.True(t, strings.HasPrefix(addr.String(), "STM"))
		assert.True(t, strings.HasPrefix(addr.Format("tst"), "TST"))
	})

	t.Run("digest survives text round trip", func(t *testing.T) {
		pk, err := keys.NewPrivateKey(scalar(9), "")
		require.NoError(t, err)
		addr := pk.Address()

		parsed, err := keys.ParseAddress(addr.String(), "")
		require.NoError(t, err)
		assert.Equal(t, addr.Bytes(), parsed.Bytes())
		assert.Equal(t, addr.String(), parsed.String())
		assert.True(t, addr.Equal(parsed))
	})

	t.Run("missing input", func(t *testing.T) {
		_, err := keys.NewAddressFromPublicKey(nil, "")
		assert.ErrorIs(t, err, keys.ErrInvalidInput)

		_, err = keys.ParseAddress("", "")
		assert.ErrorIs(t, err, keys.ErrInvalidInput)
	})

	t.Run("wrong prefix", func(t *testing.T) {
		pk, err := keys.NewPrivateKey(scalar(9), "")
		require.NoError(t, err)
		_, err = keys.ParseAddress(pk.Address().String(), "TST")
		assert.ErrorIs(t, err, keys.ErrInvalidInput)
	})
}

func TestPasswordKey(t *testing.T) {
	t.Run("deterministic", func(t *testing.T) {
		a, err := keys.NewPasswordKey("alice", "correct horse", keys.RolePosting).PrivateKey()
		require.NoError(t, err)
		b, err := keys.NewPasswordKey("alice", "correct horse", keys.RolePosting).PrivateKey()
		require.NoError(t, err)
		assert.Equal(t, a.Bytes(), b.Bytes())
	})

	t.Run("secret is sha256 of the concatenation", func(t *testing.T) {
		expected := sha256.Sum256([]byte("aliceownerhunter2"))
		pk := keys.NewPasswordKey("alice", "hunter2", keys.RoleOwner)
		assert.Equal(t, expected[:], pk.Secret())
	})

	t.Run("role defaults to active", func(t *testing.T) {
		implicit := keys.NewPasswordKey("bob", "pw", "")
		explicit := keys.NewPasswordKey("bob", "pw", keys.RoleActive)
		assert.Equal(t, keys.RoleActive, implicit.Role)
		assert.Equal(t, explicit.Secret(), implicit.Secret())
		assert.Equal(t, explicit.Secret(), keys.PasswordKey{Account: "bob", Password: "pw"}.Secret())
	})

	t.Run("roles yield distinct keys", func(t *testing.T) {
		active, err := keys.NewPasswordKey("bob", "pw", keys.RoleActive).PublicKey()
		require.NoError(t, err)
		memo, err := keys.NewPasswordKey("bob", "pw", keys.RoleMemo).PublicKey()
		require.NoError(t, err)
		assert.False(t, active.Equal(memo))
	})
}

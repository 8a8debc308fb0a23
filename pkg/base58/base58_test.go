package base58_test

import (
	"bytes"
	"encoding/hex"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lightsteem/lightsteem-go/pkg/base58"
)

func secretOne() []byte {
	secret := make([]byte, 32)
	secret[31] = 1
	return secret
}

func TestWIF(t *testing.T) {
	t.Run("known vector", func(t *testing.T) {
		assert.Equal(t, "5HpHagT65TZzG1PH3CSu63k8DbpvD8s5ip4nEB3kEsreAnchuDf", base58.EncodeWIF(secretOne()))
	})

	t.Run("decode uncompressed", func(t *testing.T) {
		secret, err := base58.DecodeWIF("5HpHagT65TZzG1PH3CSu63k8DbpvD8s5ip4nEB3kEsreAnchuDf")
		require.NoError(t, err)
		assert.Equal(t, secretOne(), secret)
	})

	t.Run("decode compressed flag", func(t *testing.T) {
		secret, err := base58.DecodeWIF("KwDiBf89QgGbjEhKnhXJuH7LrciVrZi3qYjgd9M7rFU73sVHnoWn")
		require.NoError(t, err)
		assert.Equal(t, secretOne(), secret)
	})

	t.Run("wrong version", func(t *testing.T) {
		text := base58.CheckEncode(0x00, secretOne())
		_, err := base58.DecodeWIF(text)
		assert.ErrorIs(t, err, base58.ErrInvalidFormat)
	})

	t.Run("corrupted checksum", func(t *testing.T) {
		_, err := base58.DecodeWIF("5HpHagT65TZzG1PH3CSu63k8DbpvD8s5ip4nEB3kEsreAnchuDg")
		assert.ErrorIs(t, err, base58.ErrChecksum)
	})
}

func TestCheckEncode(t *testing.T) {
	// HASH160 of the compressed and uncompressed secp256k1 generator point.
	tests := []struct {
		name    string
		hash160 string
		address string
	}{
		{"compressed generator", "751e76e8199196d454941c45d1b3a323f1433bd6", "1BgGZ9tcN4rm9KBzDn7KprQz87SZ26SAMH"},
		{"uncompressed generator", "91b24bf9f5288532960ac687abb035127b1d28a5", "1EHNa6Q4Jz2uvNExL497mE43ikXhwF6kZm"},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			payload, err := hex.DecodeString(test.hash160)
			require.NoError(t, err)

			assert.Equal(t, test.address, base58.CheckEncode(base58.BitcoinAddressVersion, payload))

			version, decoded, err := base58.CheckDecode(test.address)
			require.NoError(t, err)
			assert.Equal(t, base58.BitcoinAddressVersion, version)
			assert.Equal(t, payload, decoded)
		})
	}

	t.Run("invalid alphabet", func(t *testing.T) {
		_, _, err := base58.CheckDecode("0OIl")
		assert.ErrorIs(t, err, base58.ErrInvalidFormat)
	})

	t.Run("too short", func(t *testing.T) {
		_, _, err := base58.CheckDecode("1111")
		assert.ErrorIs(t, err, base58.ErrInvalidFormat)
	})
}

func TestGrapheneEncoding(t *testing.T) {
	payload := bytes.Repeat([]byte{0xab}, 33)

	text := base58.GrapheneEncode("STM", payload)
	assert.True(t, len(text) > 3 && text[:3] == "STM")

	t.Run("decode", func(t *testing.T) {
		decoded, err := base58.GrapheneDecode("STM", text)
		require.NoError(t, err)
		assert.Equal(t, payload, decoded)
	})

	t.Run("wrong prefix", func(t *testing.T) {
		_, err := base58.GrapheneDecode("TST", text)
		assert.ErrorIs(t, err, base58.ErrInvalidFormat)
	})

	t.Run("checksum tamper", func(t *testing.T) {
		other := base58.GrapheneEncode("STM", bytes.Repeat([]byte{0xac}, 33))
		// Splice the body of one encoding onto the checksum of another.
		tampered := text[:len(text)-4] + other[len(other)-4:]
		if tampered == text {
			t.Skip("encodings share a suffix")
		}
		_, err := base58.GrapheneDecode("STM", tampered)
		assert.Error(t, err)
	})
}

func TestDigests(t *testing.T) {
	assert.Equal(t,
		"9c1185a5c5e9fc54612808977ee8f548b2258d31",
		hex.EncodeToString(base58.RIPEMD160(nil)))
	assert.Equal(t,
		"5df6e0e2761359d30a8275058e299fcc0381534545f55cf43e41983f5d4c9456",
		hex.EncodeToString(base58.DoubleSHA256(nil)))
}

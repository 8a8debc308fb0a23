package base58

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/minio/sha256-simd"
	b58 "github.com/mr-tron/base58"
	"golang.org/x/crypto/ripemd160" //nolint:staticcheck // Graphene checksums are RIPEMD160 by definition.
)

const (
	checksumLen = 4

	// WIFVersion is the version byte prepended to private keys in WIF.
	WIFVersion byte = 0x80
	// BitcoinAddressVersion is the version byte of pay-to-pubkey-hash addresses.
	BitcoinAddressVersion byte = 0x00

	compressedWIFSuffix byte = 0x01
)

// DoubleSHA256 returns SHA256(SHA256(data)).
func DoubleSHA256(data []byte) []byte {
	first := sha256.Sum256(data)
	second := sha256.Sum256(first[:])
	return second[:]
}

// RIPEMD160 returns the RIPEMD160 digest of data.
func RIPEMD160(data []byte) []byte {
	h := ripemd160.New()
	h.Write(data)
	return h.Sum(nil)
}

// CheckEncode encodes payload with a leading version byte and a double SHA-256 checksum.
func CheckEncode(version byte, payload []byte) string {
	buf := make([]byte, 0, 1+len(payload)+checksumLen)
	buf = append(buf, version)
	buf = append(buf, payload...)
	buf = append(buf, DoubleSHA256(buf)[:checksumLen]...)
	return b58.Encode(buf)
}

// CheckDecode reverses CheckEncode and returns the version byte and payload.
func CheckDecode(text string) (byte, []byte, error) {
	raw, err := b58.Decode(text)
	if err != nil {
		return 0, nil, fmt.Errorf("%w: %w", ErrInvalidFormat, err)
	}
	if len(raw) < 1+checksumLen {
		return 0, nil, fmt.Errorf("%w: decoded length %d is too short", ErrInvalidFormat, len(raw))
	}

	body, sum := raw[:len(raw)-checksumLen], raw[len(raw)-checksumLen:]
	if !bytes.Equal(DoubleSHA256(body)[:checksumLen], sum) {
		return 0, nil, ErrChecksum
	}
	return body[0], body[1:], nil
}

// EncodeWIF encodes a 32-byte secret as a wallet import format string.
func EncodeWIF(secret []byte) string {
	return CheckEncode(WIFVersion, secret)
}

// DecodeWIF decodes a wallet import format string into the raw secret.
// Keys exported with the compressed-public-key flag ("K"/"L" prefixed) are accepted
// and the trailing flag byte is stripped.
func DecodeWIF(text string) ([]byte, error) {
	version, payload, err := CheckDecode(text)
	if err != nil {
		return nil, err
	}
	if version != WIFVersion {
		return nil, fmt.Errorf("%w: unexpected WIF version 0x%02x", ErrInvalidFormat, version)
	}

	switch {
	case len(payload) == 32:
		return payload, nil
	case len(payload) == 33 && payload[32] == compressedWIFSuffix:
		return payload[:32], nil
	default:
		return nil, fmt.Errorf("%w: WIF payload has %d bytes", ErrInvalidFormat, len(payload))
	}
}

// GrapheneEncode returns prefix followed by base58(payload ∥ RIPEMD160(payload)[:4]).
func GrapheneEncode(prefix string, payload []byte) string {
	buf := make([]byte, 0, len(payload)+checksumLen)
	buf = append(buf, payload...)
	buf = append(buf, RIPEMD160(payload)[:checksumLen]...)
	return prefix + b58.Encode(buf)
}

// GrapheneDecode strips prefix from text, decodes the remainder and verifies its checksum.
func GrapheneDecode(prefix, text string) ([]byte, error) {
	if !strings.HasPrefix(text, prefix) {
		return nil, fmt.Errorf("%w: expected prefix %q", ErrInvalidFormat, prefix)
	}

	raw, err := b58.Decode(text[len(prefix):])
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidFormat, err)
	}
	if len(raw) <= checksumLen {
		return nil, fmt.Errorf("%w: decoded length %d is too short", ErrInvalidFormat, len(raw))
	}

	payload, sum := raw[:len(raw)-checksumLen], raw[len(raw)-checksumLen:]
	if !bytes.Equal(RIPEMD160(payload)[:checksumLen], sum) {
		return nil, ErrChecksum
	}
	return payload, nil
}

package base58

import "errors"

var (
	// ErrInvalidFormat is returned when the text is not valid Base58, is too short
	// to carry a checksum, or carries an unexpected prefix or version byte.
	ErrInvalidFormat = errors.New("invalid base58 format")
	// ErrChecksum is returned when the embedded checksum does not match the payload.
	ErrChecksum = errors.New("base58 checksum mismatch")
)

package txbuilder

import "errors"

var (
	// ErrInvalidState is returned when a builder step is called out of order.
	ErrInvalidState = errors.New("invalid builder state")
	// ErrNoKeys is returned when signing is requested without any signer.
	ErrNoKeys = errors.New("no signing keys")
	// ErrInvalidTransaction is returned for malformed transactions, serializations and chain data.
	ErrInvalidTransaction = errors.New("invalid transaction")
)

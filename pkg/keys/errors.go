package keys

import "errors"

var (
	// ErrInvalidInput is returned when constructor arguments are missing or ambiguous.
	ErrInvalidInput = errors.New("invalid input")
	// ErrMalformedKey is returned when a serialized public key carries an unknown point-form prefix.
	ErrMalformedKey = errors.New("malformed key")
	// ErrInvalidPoint is returned when coordinates do not describe a point on the curve.
	ErrInvalidPoint = errors.New("invalid curve point")
	// ErrInvalidSecret is returned when a private scalar is zero, not below the curve order or of the wrong size.
	ErrInvalidSecret = errors.New("invalid private key secret")
)

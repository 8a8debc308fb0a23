package chain

import "errors"

// ErrInvalidChain is returned for unknown chain names and unsupported chain references.
var ErrInvalidChain = errors.New("invalid chain")

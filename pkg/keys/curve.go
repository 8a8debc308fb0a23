package keys

import (
	"fmt"

	"github.com/decred/dcrd/dcrec/secp256k1/v4"
)

const (
	// KeyLen is the byte length of scalars and coordinates, equal to the curve order's byte length.
	KeyLen = 32
	// CompressedLen is the length of a compressed public key.
	CompressedLen = 1 + KeyLen
	// UncompressedLen is the length of an uncompressed public key.
	UncompressedLen = 1 + 2*KeyLen

	formEven         byte = 0x02
	formOdd          byte = 0x03
	formUncompressed byte = 0x04
)

// CurveOrder returns a copy of the secp256k1 group order.
func CurveOrder() []byte {
	return secp256k1.Params().N.FillBytes(make([]byte, KeyLen))
}

// solveY returns the y coordinate for x with the requested parity.
func solveY(x []byte, odd bool) (*secp256k1.FieldVal, error) {
	var fx, fy secp256k1.FieldVal
	if overflow := fx.SetByteSlice(x); overflow {
		return nil, fmt.Errorf("%w: x coordinate is not below the field prime", ErrInvalidPoint)
	}
	if !secp256k1.DecompressY(&fx, odd, &fy) {
		return nil, fmt.Errorf("%w: no square root for x coordinate", ErrInvalidPoint)
	}
	return &fy, nil
}

func serializePoint(x, y *secp256k1.FieldVal) (compressed, uncompressed []byte) {
	xb, yb := x.Bytes(), y.Bytes()

	compressed = make([]byte, 0, CompressedLen)
	compressed = append(compressed, formEven+byte(y.IsOddBit()))
	compressed = append(compressed, xb[:]...)

	uncompressed = make([]byte, 0, UncompressedLen)
	uncompressed = append(uncompressed, formUncompressed)
	uncompressed = append(uncompressed, xb[:]...)
	uncompressed = append(uncompressed, yb[:]...)
	return compressed, uncompressed
}

// Package amount parses and formats asset amounts such as "1.000 STEEM" and converts them
// to and from the NAI asset objects returned by the appbase APIs.
package amount

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

var (
	ErrInvalidAmount = errors.New("invalid amount")
	ErrUnknownAsset  = errors.New("unknown asset")
	ErrAssetMismatch = errors.New("asset mismatch")
)

// AssetInfo describes a chain asset.
type AssetInfo struct {
	Precision int32
	NAI       string
}

// Assets lists the supported symbols.
var Assets = map[string]AssetInfo{
	"SBD":   {Precision: 3, NAI: "@@000000013"},
	"STEEM": {Precision: 3, NAI: "@@000000021"},
	"VESTS": {Precision: 6, NAI: "@@000000037"},
}

// Asset is the NAI representation of an amount.
type Asset struct {
	Amount    string `json:"amount"`
	Precision int32  `json:"precision"`
	NAI       string `json:"nai"`
}

// Amount is a decimal quantity of a symbol.
type Amount struct {
	Value  decimal.Decimal
	Symbol string
}

// Parse reads "<decimal> <SYMBOL>".
func Parse(text string) (Amount, error) {
	fields := strings.Fields(text)
	if len(fields) != 2 {
		return Amount{}, fmt.Errorf("%w: '%s'", ErrInvalidAmount, text)
	}

	value, err := decimal.NewFromString(fields[0])
	if err != nil {
		return Amount{}, fmt.Errorf("%w: '%s': %w", ErrInvalidAmount, text, err)
	}
	return Amount{Value: value, Symbol: fields[1]}, nil
}

// MustParse is Parse for constants; it panics on error.
func MustParse(text string) Amount {
	a, err := Parse(text)
	if err != nil {
		panic(err)
	}
	return a
}

// SymbolForNAI returns the symbol registered for nai.
func SymbolForNAI(nai string) (string, bool) {
	for symbol, info := range Assets {
		if info.NAI == nai {
			return symbol, true
		}
	}
	return "", false
}

// FromAsset converts a NAI asset object into an Amount.
func FromAsset(a Asset) (Amount, error) {
	symbol, ok := SymbolForNAI(a.NAI)
	if !ok {
		return Amount{}, fmt.Errorf("%w: nai '%s'", ErrUnknownAsset, a.NAI)
	}

	units, err := decimal.NewFromString(a.Amount)
	if err != nil || !units.IsInteger() {
		return Amount{}, fmt.Errorf("%w: units '%s'", ErrInvalidAmount, a.Amount)
	}
	return Amount{Value: units.Shift(-a.Precision), Symbol: symbol}, nil
}

// Asset returns the NAI representation. Digits beyond the asset precision are truncated.
func (a Amount) Asset() (Asset, error) {
	info, ok := Assets[a.Symbol]
	if !ok {
		return Asset{}, fmt.Errorf("%w: '%s'", ErrUnknownAsset, a.Symbol)
	}
	units := a.Value.Shift(info.Precision).Truncate(0)
	return Asset{Amount: units.String(), Precision: info.Precision, NAI: info.NAI}, nil
}

// String formats the amount with the asset precision when the symbol is known.
func (a Amount) String() string {
	if info, ok := Assets[a.Symbol]; ok {
		return a.Value.StringFixed(info.Precision) + " " + a.Symbol
	}
	return a.Value.String() + " " + a.Symbol
}

// Float64 returns the value as a float. The conversion may lose precision.
func (a Amount) Float64() float64 {
	f, _ := a.Value.Float64()
	return f
}

func (a Amount) check(other Amount) error {
	if a.Symbol != other.Symbol {
		return fmt.Errorf("%w: %s and %s", ErrAssetMismatch, a.Symbol, other.Symbol)
	}
	return nil
}

// Add returns a+other. Both must have the same symbol.
func (a Amount) Add(other Amount) (Amount, error) {
	if err := a.check(other); err != nil {
		return Amount{}, err
	}
	return Amount{Value: a.Value.Add(other.Value), Symbol: a.Symbol}, nil
}

// Sub returns a-other. Both must have the same symbol.
func (a Amount) Sub(other Amount) (Amount, error) {
	if err := a.check(other); err != nil {
		return Amount{}, err
	}
	return Amount{Value: a.Value.Sub(other.Value), Symbol: a.Symbol}, nil
}

// Cmp compares two amounts of the same symbol.
func (a Amount) Cmp(other Amount) (int, error) {
	if err := a.check(other); err != nil {
		return 0, err
	}
	return a.Value.Cmp(other.Value), nil
}

// MarshalJSON encodes the legacy string form used by condenser_api.
func (a Amount) MarshalJSON() ([]byte, error) {
	return json.Marshal(a.String())
}

// UnmarshalJSON accepts either the legacy string form or a NAI asset object.
func (a *Amount) UnmarshalJSON(data []byte) error {
	var text string
	if err := json.Unmarshal(data, &text); err == nil {
		parsed, err := Parse(text)
		if err != nil {
			return err
		}
		*a = parsed
		return nil
	}

	var raw struct {
		Amount    json.RawMessage `json:"amount"`
		Precision int32           `json:"precision"`
		NAI       string          `json:"nai"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidAmount, err)
	}

	units := strings.Trim(string(raw.Amount), `"`)
	if _, err := strconv.ParseInt(units, 10, 64); err != nil {
		return fmt.Errorf("%w: units '%s'", ErrInvalidAmount, units)
	}
	parsed, err := FromAsset(Asset{Amount: units, Precision: raw.Precision, NAI: raw.NAI})
	if err != nil {
		return err
	}
	*a = parsed
	return nil
}

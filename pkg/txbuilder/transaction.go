package txbuilder

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/lightsteem/lightsteem-go/pkg/sign"
)

// ExpirationLayout is the timestamp layout used by Graphene nodes.
const ExpirationLayout = "2006-01-02T15:04:05"

// Time is a UTC timestamp serialized without a zone suffix.
type Time struct {
	time.Time
}

// ParseTime accepts the node layout, with or without a trailing zone.
func ParseTime(text string) (Time, error) {
	trimmed := strings.TrimSuffix(text, "Z")
	t, err := time.ParseInLocation(ExpirationLayout, trimmed, time.UTC)
	if err != nil {
		if t, err = time.Parse(time.RFC3339, text); err != nil {
			return Time{}, fmt.Errorf("%w: timestamp '%s'", ErrInvalidTransaction, text)
		}
	}
	return Time{t.UTC()}, nil
}

func (t Time) String() string {
	return t.UTC().Format(ExpirationLayout)
}

func (t Time) MarshalJSON() ([]byte, error) {
	return json.Marshal(t.String())
}

func (t *Time) UnmarshalJSON(data []byte) error {
	var text string
	if err := json.Unmarshal(data, &text); err != nil {
		return err
	}
	parsed, err := ParseTime(text)
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}

// Operation is a named chain operation. It serializes as [name, payload].
type Operation struct {
	Name    string
	Payload any
}

// NewOperation returns an operation with the given name and payload.
func NewOperation(name string, payload any) Operation {
	return Operation{Name: name, Payload: payload}
}

func (o Operation) MarshalJSON() ([]byte, error) {
	return json.Marshal([2]any{o.Name, o.Payload})
}

// UnmarshalJSON decodes [name, payload]; the payload is kept as json.RawMessage.
func (o *Operation) UnmarshalJSON(data []byte) error {
	var pair []json.RawMessage
	if err := json.Unmarshal(data, &pair); err != nil {
		return fmt.Errorf("%w: operation: %w", ErrInvalidTransaction, err)
	}
	if len(pair) != 2 {
		return fmt.Errorf("%w: operation must be a [name, payload] pair", ErrInvalidTransaction)
	}
	if err := json.Unmarshal(pair[0], &o.Name); err != nil {
		return fmt.Errorf("%w: operation name: %w", ErrInvalidTransaction, err)
	}
	o.Payload = pair[1]
	return nil
}

// Transaction is the signed transaction object exchanged with nodes.
type Transaction struct {
	RefBlockNum    uint16            `json:"ref_block_num"`
	RefBlockPrefix uint32            `json:"ref_block_prefix"`
	Expiration     Time              `json:"expiration"`
	Operations     []Operation       `json:"operations" validate:"required,min=1,dive"`
	Extensions     []json.RawMessage `json:"extensions"`
	Signatures     []sign.Signature  `json:"signatures"`
}

// MarshalJSON writes empty lists instead of null.
func (tx Transaction) MarshalJSON() ([]byte, error) {
	type plain Transaction
	p := plain(tx)
	if p.Operations == nil {
		p.Operations = []Operation{}
	}
	if p.Extensions == nil {
		p.Extensions = []json.RawMessage{}
	}
	if p.Signatures == nil {
		p.Signatures = []sign.Signature{}
	}
	return json.Marshal(p)
}

// Clone returns a copy that shares no slices with tx.
func (tx *Transaction) Clone() *Transaction {
	out := *tx
	out.Operations = append([]Operation(nil), tx.Operations...)
	out.Extensions = append([]json.RawMessage(nil), tx.Extensions...)
	out.Signatures = make([]sign.Signature, len(tx.Signatures))
	for i, sig := range tx.Signatures {
		out.Signatures[i] = append(sign.Signature(nil), sig...)
	}
	return &out
}

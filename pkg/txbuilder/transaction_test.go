package txbuilder_test

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lightsteem/lightsteem-go/pkg/txbuilder"
)

func TestTransaction_JSON(t *testing.T) {
	exp, err := txbuilder.ParseTime("2018-05-10T11:12:43")
	require.NoError(t, err)

	tx := txbuilder.Transaction{
		RefBlockNum:    97,
		RefBlockPrefix: 857870592,
		Expiration:     exp,
		Operations:     []txbuilder.Operation{txbuilder.NewOperation("transfer", map[string]string{"from": "alice", "to": "bob", "amount": "1.000 STEEM", "memo": ""})},
	}

	out, err := json.Marshal(tx)
	require.NoError(t, err)
	assert.JSONEq(t, `{
		"ref_block_num": 97,
		"ref_block_prefix": 857870592,
		"expiration": "2018-05-10T11:12:43",
		"operations": [["transfer", {"from": "alice", "to": "bob", "amount": "1.000 STEEM", "memo": ""}]],
		"extensions": [],
		"signatures": []
	}`, string(out))

	var back txbuilder.Transaction
	require.NoError(t, json.Unmarshal(out, &back))
	assert.Equal(t, tx.RefBlockPrefix, back.RefBlockPrefix)
	assert.Equal(t, "2018-05-10T11:12:43", back.Expiration.String())
	require.Len(t, back.Operations, 1)
	assert.Equal(t, "transfer", back.Operations[0].Name)
}

func TestOperation_UnmarshalErrors(t *testing.T) {
	for _, in := range []string{`{}`, `["vote"]`, `[1, {}]`, `["a", {}, 3]`} {
		t.Run(in, func(t *testing.T) {
			var op txbuilder.Operation
			require.ErrorIs(t, json.Unmarshal([]byte(in), &op), txbuilder.ErrInvalidTransaction)
		})
	}
}

func TestParseTime(t *testing.T) {
	tcs := []struct {
		in        string
		want      string
		expectErr bool
	}{
		{in: "2018-05-10T11:12:13", want: "2018-05-10T11:12:13"},
		{in: "2018-05-10T11:12:13Z", want: "2018-05-10T11:12:13"},
		{in: "2018-05-10T13:12:13+02:00", want: "2018-05-10T11:12:13"},
		{in: "yesterday", expectErr: true},
	}
	for _, tc := range tcs {
		t.Run(tc.in, func(t *testing.T) {
			got, err := txbuilder.ParseTime(tc.in)
			if tc.expectErr {
				require.ErrorIs(t, err, txbuilder.ErrInvalidTransaction)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.want, got.String())
		})
	}
}

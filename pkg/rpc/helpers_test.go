package rpc_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/lightsteem/lightsteem-go/pkg/keys"
)

func testKey(t *testing.T) *keys.PrivateKey {
	t.Helper()
	k, err := keys.NewPasswordKey("alice", "hunter2", keys.RolePosting).PrivateKey()
	require.NoError(t, err)
	return k
}

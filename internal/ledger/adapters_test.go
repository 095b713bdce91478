package ledger

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/emrecanguldogan/HealthChain/pkg/types"
)

const adapterTestDoctor = "ST2JHG361ZXG51QTKY2NQCVBPPRRE2KZB1HR05NNC"

func TestAdapterForUnknownContract(t *testing.T) {
	_, err := adapterFor("healthchain_v9")
	assert.Error(t, err)
}

func TestV1GrantShape(t *testing.T) {
	adapter, err := adapterFor("healthchain")
	require.NoError(t, err)

	call := adapter.Grant(adapterTestDoctor, 7, []types.Permission{types.PermissionRead})

	assert.Equal(t, "grant-access", call.Function)
	// v1 takes the token ID and ignores permissions
	assert.Equal(t, []string{"'" + adapterTestDoctor, "u7"}, call.Args)

	revoke := adapter.Revoke(adapterTestDoctor)
	assert.Equal(t, "revoke-access", revoke.Function)
}

func TestV5GrantShape(t *testing.T) {
	adapter, err := adapterFor("healthchain_v5")
	require.NoError(t, err)

	call := adapter.Grant(adapterTestDoctor, 7, []types.Permission{types.PermissionRead, types.PermissionWrite})

	assert.Equal(t, "authorize-doctor", call.Function)
	// v5 drops the token argument and takes the permission list
	require.Len(t, call.Args, 2)
	assert.Equal(t, "'"+adapterTestDoctor, call.Args[0])
	assert.Equal(t, `(list "read" "write")`, call.Args[1])

	revoke := adapter.Revoke(adapterTestDoctor)
	assert.Equal(t, "revoke-doctor", revoke.Function)
}

func TestReadOnlyShapesMatchAcrossVersions(t *testing.T) {
	for _, name := range []string{"healthchain", "healthchain_v5"} {
		adapter, err := adapterFor(name)
		require.NoError(t, err)

		assert.Equal(t, "has-access", adapter.HasAccess("'SP1", "'SP2").Function)
		assert.Equal(t, "has-access-token", adapter.HasAccessToken("'SP1").Function)
		assert.Equal(t, "get-token-id", adapter.GetTokenID("'SP1").Function)
		assert.Equal(t, "mint-access-token", adapter.Mint().Function)
	}
}

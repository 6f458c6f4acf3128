package genesis_test

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/babylonchain/bldr/genesis"
)

func TestPatchDenom(t *testing.T) {
	in := []byte(`{
  "chain_id": "stake",
  "app_state": {
    "staking": {"params": {"bond_denom": "stake", "max_validators": 100}},
    "mint": {"params": {"mint_denom": "stake", "inflation": "0.130000000000000000"}},
    "gov": {"params": {"min_deposit": [{"denom": "stake", "amount": "10000000"}]}},
    "bank": {"denom_metadata": [{"base": "stake", "display": "stake"}]},
    "other": {"denom": "ustake", "stake": "stake", "big": 123456789012345678901234567890}
  }
}`)

	out, n, err := genesis.PatchDenom(in, "stake", "uosmo")
	require.NoError(t, err)
	require.Equal(t, 3, n)

	var doc map[string]interface{}
	require.NoError(t, json.Unmarshal(out, &doc))
	appState := doc["app_state"].(map[string]interface{})

	staking := appState["staking"].(map[string]interface{})["params"].(map[string]interface{})
	require.Equal(t, "uosmo", staking["bond_denom"])
	mint := appState["mint"].(map[string]interface{})["params"].(map[string]interface{})
	require.Equal(t, "uosmo", mint["mint_denom"])
	deposit := appState["gov"].(map[string]interface{})["params"].(map[string]interface{})["min_deposit"].([]interface{})
	require.Equal(t, "uosmo", deposit[0].(map[string]interface{})["denom"])

	// fields that merely contain the text are left alone
	require.Equal(t, "stake", doc["chain_id"])
	meta := appState["bank"].(map[string]interface{})["denom_metadata"].([]interface{})[0].(map[string]interface{})
	require.Equal(t, "stake", meta["base"])
	other := appState["other"].(map[string]interface{})
	require.Equal(t, "ustake", other["denom"])
	require.Equal(t, "stake", other["stake"])

	// numbers survive verbatim
	require.Contains(t, string(out), "123456789012345678901234567890")
	require.Contains(t, string(out), `"0.130000000000000000"`)
}

func TestPatchDenomFile(t *testing.T) {
	file := filepath.Join(t.TempDir(), "genesis.json")
	require.NoError(t, os.WriteFile(file, []byte(`{"app_state": {"staking": {"params": {"bond_denom": "stake"}}}}`), 0o640))

	n, err := genesis.PatchDenomFile(file, genesis.DefaultDenom, "uatom")
	require.NoError(t, err)
	require.Equal(t, 1, n)

	bz, err := os.ReadFile(file)
	require.NoError(t, err)
	require.Contains(t, string(bz), `"bond_denom": "uatom"`)

	info, err := os.Stat(file)
	require.NoError(t, err)
	require.Equal(t, os.FileMode(0o640), info.Mode().Perm())

	_, _, err = genesis.PatchDenom([]byte(`{"app_state": `), "stake", "uatom")
	require.Error(t, err)
}

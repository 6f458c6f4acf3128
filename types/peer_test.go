package types_test

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/babylonchain/bldr/types"
)

func TestParseNodeID(t *testing.T) {
	const id = "0123456789abcdef0123456789abcdef01234567"

	parsed, err := types.ParseNodeID("  " + id + "\n")
	require.NoError(t, err)
	require.EqualValues(t, id, parsed)
	require.Equal(t, id+"@s1:26656", types.PeerAddress(parsed, "s1"))

	for _, bad := range []string{"", "\n", id[:39], id + "0", "zz23456789abcdef0123456789abcdef01234567"} {
		_, err := types.ParseNodeID(bad)
		require.ErrorIs(t, err, types.ErrInvalidNodeID, bad)
	}
}

func TestLayout(t *testing.T) {
	dataDir := t.TempDir()
	layout, err := types.NewLayout(dataDir, "localnet", ".osmosisd")
	require.NoError(t, err)

	canon := layout.CanonicalHome()
	require.Equal(t, filepath.Join(dataDir, "localnet", ".osmosisd"), canon.Host)
	require.Equal(t, "/mnt/localnet/.osmosisd", canon.Sandbox)
	require.Equal(t, "/mnt/localnet/.osmosisd/config/genesis.json", canon.GenesisFile().Sandbox)
	require.Equal(t, "/mnt/localnet/.osmosisd/config/gentx", canon.GentxDir().Sandbox)

	v1 := layout.NodeHome("v1")
	require.Equal(t, filepath.Join(dataDir, "localnet", ".v1", "config", "config.toml"), v1.ConfigFile().Host)
	require.Equal(t, "/mnt/localnet/.v1", v1.Sandbox)

	require.Equal(t, filepath.Join(dataDir, "localnet", "docker-compose.yml"), layout.ComposeFile())
	require.Equal(t, "/root/.osmosisd", layout.ContainerHome())
}

func TestChainParamsValidate(t *testing.T) {
	valid := types.ChainParams{Bech32Prefix: "osmo", HomeLeaf: ".osmosisd", Daemon: "osmosisd", Denom: "uosmo"}
	require.NoError(t, valid.Validate())

	missing := valid
	missing.Denom = ""
	require.ErrorIs(t, missing.Validate(), types.ErrResolution)

	root := valid
	root.HomeLeaf = "/"
	require.ErrorIs(t, root.Validate(), types.ErrResolution)
}

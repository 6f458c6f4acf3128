package nodeconfig_test

import (
	"fmt"
	"os"
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/babylonchain/bldr/nodeconfig"
	"github.com/babylonchain/bldr/testutil/nodesim"
	"github.com/babylonchain/bldr/types"
)

func readSettings(t *testing.T, file string) map[string]interface{} {
	vpr := viper.New()
	vpr.SetConfigFile(file)
	require.NoError(t, vpr.ReadInConfig())

	settings := make(map[string]interface{})
	for _, k := range vpr.AllKeys() {
		settings[k] = vpr.Get(k)
	}
	return settings
}

func TestRenderIsSelective(t *testing.T) {
	layout, err := types.NewLayout(t.TempDir(), "localnet", ".osmosisd")
	require.NoError(t, err)
	home := layout.NodeHome("v1")
	require.NoError(t, os.MkdirAll(home.ConfigDir().Host, 0o755))
	require.NoError(t, os.WriteFile(home.ConfigFile().Host, []byte(fmt.Sprintf(nodesim.ConfigTemplate, "v1")), 0o644))

	before := readSettings(t, home.ConfigFile().Host)
	require.Equal(t, "tcp://127.0.0.1:26657", before["rpc.laddr"])

	peers := types.PeerLists{
		PersistentPeers: []string{"aa@s1:26656", "bb@s2:26656"},
		Seeds:           []string{"aa@s1:26656", "bb@s2:26656"},
	}
	require.NoError(t, nodeconfig.NewRenderer(zap.NewNop()).Render("v1", home, peers))

	after := readSettings(t, home.ConfigFile().Host)
	require.Equal(t, "aa@s1:26656,bb@s2:26656", after["p2p.persistent_peers"])
	require.Equal(t, "", after["p2p.seeds"])
	require.Equal(t, "tcp://0.0.0.0:26657", after["rpc.laddr"])

	require.Len(t, after, len(before))
	for k, v := range before {
		switch k {
		case "p2p.persistent_peers", "p2p.seeds", "rpc.laddr":
			continue
		}
		require.Equal(t, v, after[k], k)
	}
}

func TestRenderEmptyPeers(t *testing.T) {
	layout, err := types.NewLayout(t.TempDir(), "localnet", ".osmosisd")
	require.NoError(t, err)
	home := layout.NodeHome("v1")
	require.NoError(t, os.MkdirAll(home.ConfigDir().Host, 0o755))
	require.NoError(t, os.WriteFile(home.ConfigFile().Host, []byte(fmt.Sprintf(nodesim.ConfigTemplate, "v1")), 0o644))

	require.NoError(t, nodeconfig.NewRenderer(zap.NewNop()).Render("v1", home, types.PeerLists{}))
	require.Equal(t, "", readSettings(t, home.ConfigFile().Host)["p2p.persistent_peers"])

	require.Error(t, nodeconfig.NewRenderer(zap.NewNop()).Render("v2", layout.NodeHome("v2"), types.PeerLists{}))
}

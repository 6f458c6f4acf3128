package types_test

import (
	"testing"

	"github.com/cometbft/cometbft/p2p"
	"github.com/stretchr/testify/require"

	"github.com/babylonchain/bldr/types"
)

func newTestState(t *testing.T) types.NetworkState {
	spec := types.NetworkSpec{
		Network: "osmosis",
		Name:    "localnet",
		Nodes: []types.NodeSpec{
			{Name: "v1", Role: types.RoleValidator, Image: types.ImageBlue, Sentry: "s1"},
			{Name: "s1", Role: types.RoleSentry, Image: types.ImageGreen},
		},
	}
	require.NoError(t, spec.Validate())
	layout, err := types.NewLayout(t.TempDir(), spec.Name, ".osmosisd")
	require.NoError(t, err)
	chain := types.ChainParams{Bech32Prefix: "osmo", HomeLeaf: ".osmosisd", Daemon: "osmosisd", Denom: "uosmo"}
	return types.NewNetworkState(spec, chain, layout)
}

func TestWithWallets(t *testing.T) {
	state := newTestState(t)

	next, err := state.WithWallets(map[string]types.Wallet{"v1": {Mnemonic: "m", Address: "osmo1"}})
	require.NoError(t, err)

	v1, _ := next.Node("v1")
	require.NotNil(t, v1.Wallet)
	s1, _ := next.Node("s1")
	require.Nil(t, s1.Wallet)

	// the previous snapshot is untouched
	v1, _ = state.Node("v1")
	require.Nil(t, v1.Wallet)

	require.Equal(t, []types.Credential{{Node: "v1", Mnemonic: "m", Address: "osmo1"}}, next.Credentials())

	_, err = state.WithWallets(map[string]types.Wallet{})
	require.ErrorIs(t, err, types.ErrInvalidTopology)

	_, err = state.WithWallets(map[string]types.Wallet{"v1": {}, "s1": {}})
	require.ErrorIs(t, err, types.ErrInvalidTopology)

	_, err = state.WithWallets(map[string]types.Wallet{"v1": {}, "ghost": {}})
	require.ErrorIs(t, err, types.ErrInvalidTopology)
}

func TestWithNodeIDsAndPeers(t *testing.T) {
	state := newTestState(t)

	_, err := state.WithNodeIDs(map[string]p2p.ID{"v1": "aa"})
	require.ErrorIs(t, err, types.ErrMissingNodeID)

	ids := map[string]p2p.ID{"v1": "aa", "s1": "bb"}
	withIDs, err := state.WithNodeIDs(ids)
	require.NoError(t, err)
	require.Equal(t, ids, withIDs.NodeIDs())
	require.Empty(t, state.NodeIDs())

	peers := map[string]types.PeerLists{"v1": {PersistentPeers: []string{"bb@s1:26656"}, Seeds: []string{"bb@s1:26656"}}}
	withPeers := withIDs.WithPeers(peers)
	v1, _ := withPeers.Node("v1")
	require.Equal(t, []string{"bb@s1:26656"}, v1.Peers.PersistentPeers)
	s1, _ := withPeers.Node("s1")
	require.Empty(t, s1.Peers.PersistentPeers)

	// mutating the input map afterwards does not leak into the snapshot
	peers["v1"].PersistentPeers[0] = "changed"
	v1, _ = withPeers.Node("v1")
	require.Equal(t, "bb@s1:26656", v1.Peers.PersistentPeers[0])
}

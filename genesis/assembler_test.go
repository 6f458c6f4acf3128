package genesis_test

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/babylonchain/bldr/config"
	"github.com/babylonchain/bldr/genesis"
	"github.com/babylonchain/bldr/sandbox"
	"github.com/babylonchain/bldr/testutil/nodesim"
	"github.com/babylonchain/bldr/types"
	"github.com/babylonchain/bldr/wallet"
)

var testChain = types.ChainParams{Bech32Prefix: "osmo", HomeLeaf: ".osmosisd", Daemon: "osmosisd", Denom: "uosmo"}

type harness struct {
	sim        *nodesim.Sim
	controller *sandbox.Controller
	state      types.NetworkState
	assembler  *genesis.Assembler
}

func newHarness(t *testing.T, nodes ...types.NodeSpec) *harness {
	spec := types.NetworkSpec{Network: "osmosis", Name: "localnet", Nodes: nodes}
	require.NoError(t, spec.Validate())

	layout, err := types.NewLayout(t.TempDir(), spec.Name, testChain.HomeLeaf)
	require.NoError(t, err)
	require.NoError(t, os.MkdirAll(layout.Root.Host, 0o755))

	wallets := make(map[string]types.Wallet)
	gen := wallet.NewGenerator(testChain.Bech32Prefix)
	for _, n := range spec.Validators() {
		w, err := gen.Generate()
		require.NoError(t, err)
		wallets[n.Name] = w
	}
	state, err := types.NewNetworkState(spec, testChain, layout).WithWallets(wallets)
	require.NoError(t, err)

	sim := nodesim.New(testChain.Daemon)
	controller := sandbox.NewController(sim, sandbox.Config{
		NetworkName: spec.Name,
		Images:      types.NewImageConfig(spec.Network, t.TempDir()),
		Mount:       layout.Root,
		User:        sandbox.CurrentUser(),
	}, zap.NewNop())
	require.NoError(t, controller.BuildImages(context.Background()))
	require.NoError(t, controller.Start(context.Background()))

	cfg := config.DefaultBldrConfig()
	cmds := genesis.Commands{Daemon: testChain.Daemon, ChainID: spec.Name, KeyringBackend: cfg.KeyringBackend}
	return &harness{
		sim:        sim,
		controller: controller,
		state:      state,
		assembler:  genesis.NewAssembler(controller, cmds, genesis.NewAmounts(&cfg, testChain.Denom), zap.NewNop()),
	}
}

func TestAssemble(t *testing.T) {
	h := newHarness(t,
		types.NodeSpec{Name: "v1", Role: types.RoleValidator, Image: types.ImageBlue, Sentry: "s1"},
		types.NodeSpec{Name: "s1", Role: types.RoleSentry, Image: types.ImageGreen},
		types.NodeSpec{Name: "v2", Role: types.RoleValidator, Image: types.ImageGreen},
	)

	res, err := h.assembler.Assemble(context.Background(), h.state)
	require.NoError(t, err)

	require.Len(t, res.NodeIDs, 3)
	for _, name := range []string{"v1", "s1", "v2"} {
		require.EqualValues(t, nodesim.NodeID(name), res.NodeIDs[name])
	}

	canon := h.state.Layout.CanonicalHome().GenesisFile().Host
	require.Equal(t, canon, res.Genesis.HostPath)
	onDisk, err := os.ReadFile(canon)
	require.NoError(t, err)
	require.True(t, res.Genesis.Equal(onDisk))

	var doc struct {
		AppState struct {
			Bank struct {
				Balances []struct {
					Address string `json:"address"`
					Coins   string `json:"coins"`
				} `json:"balances"`
			} `json:"bank"`
			Staking struct {
				Params struct {
					BondDenom string `json:"bond_denom"`
				} `json:"params"`
			} `json:"staking"`
			Genutil struct {
				GenTxs []map[string]string `json:"gen_txs"`
			} `json:"genutil"`
		} `json:"app_state"`
	}
	require.NoError(t, json.Unmarshal(res.Genesis.Bytes, &doc))
	require.Equal(t, "uosmo", doc.AppState.Staking.Params.BondDenom)

	// the canonical genesis funds each validator once, with the final amounts
	require.Len(t, doc.AppState.Bank.Balances, 2)
	for i, name := range []string{"v1", "v2"} {
		n, _ := h.state.Node(name)
		require.Equal(t, n.Wallet.Address, doc.AppState.Bank.Balances[i].Address)
		require.Equal(t, "2000000000uosmo,2000000000uskip", doc.AppState.Bank.Balances[i].Coins)
	}

	require.Len(t, doc.AppState.Genutil.GenTxs, 2)
	monikers := []string{doc.AppState.Genutil.GenTxs[0]["moniker"], doc.AppState.Genutil.GenTxs[1]["moniker"]}
	require.ElementsMatch(t, []string{"v1", "v2"}, monikers)
	require.Equal(t, "1000000000uosmo", doc.AppState.Genutil.GenTxs[0]["self_delegation"])

	// sentries never get keys or gentxs
	_, err = os.Stat(filepath.Join(h.state.Layout.NodeHome("s1").Host, "keyring-test"))
	require.True(t, os.IsNotExist(err))

	// the node private home holds the pre-gentx genesis with the per node funding
	v1Genesis, err := os.ReadFile(h.state.Layout.NodeHome("v1").GenesisFile().Host)
	require.NoError(t, err)
	require.Contains(t, string(v1Genesis), "200000000000uosmo,2000000000uskip")
	require.False(t, res.Genesis.Equal(v1Genesis))
}

func TestAssembleCommandOrder(t *testing.T) {
	h := newHarness(t,
		types.NodeSpec{Name: "v1", Role: types.RoleValidator, Image: types.ImageBlue},
		types.NodeSpec{Name: "s1", Role: types.RoleSentry, Image: types.ImageGreen, Validator: "v1"},
	)
	_, err := h.assembler.Assemble(context.Background(), h.state)
	require.NoError(t, err)

	var steps []string
	for _, cmd := range h.sim.Commands() {
		joined := strings.Join(cmd, " ")
		switch {
		case strings.Contains(joined, " init "):
			steps = append(steps, "init:"+cmd[len(cmd)-1])
		case strings.Contains(joined, "keys add"):
			steps = append(steps, "keys")
		case strings.Contains(joined, "collect-gentxs"):
			steps = append(steps, "collect")
		case strings.Contains(joined, "add-genesis-account"):
			if strings.Contains(joined, "/.v1") {
				steps = append(steps, "fund-node")
			} else {
				steps = append(steps, "fund-genesis")
			}
		case strings.Contains(joined, "gentx v1"):
			steps = append(steps, "gentx")
		case strings.Contains(joined, "show-node-id"):
			steps = append(steps, "id:"+strings.TrimPrefix(filepath.Base(cmd[len(cmd)-1]), "."))
		}
	}
	require.Equal(t, []string{
		"init:builder", "init:v1", "init:s1",
		"keys", "fund-node", "gentx",
		"id:v1", "id:s1",
		"fund-genesis", "collect",
	}, steps)
}

func TestAssembleAbortsOnFailedCommand(t *testing.T) {
	h := newHarness(t,
		types.NodeSpec{Name: "v1", Role: types.RoleValidator, Image: types.ImageBlue},
		types.NodeSpec{Name: "v2", Role: types.RoleValidator, Image: types.ImageBlue},
	)
	h.sim.FailOn("gentx v2", 1)

	_, err := h.assembler.Assemble(context.Background(), h.state)
	require.ErrorIs(t, err, types.ErrCommand)
	require.Contains(t, err.Error(), genesis.StepGentx)
	require.Contains(t, err.Error(), "v2")

	// nothing past the failing command ran
	for _, cmd := range h.sim.Commands() {
		require.NotContains(t, strings.Join(cmd, " "), "collect-gentxs")
	}
}

func TestCommands(t *testing.T) {
	cmds := genesis.Commands{Daemon: "gaiad", ChainID: "localnet", KeyringBackend: "test", Subcommand: "genesis"}

	require.Equal(t,
		[]string{"gaiad", "--home=/mnt/localnet/.v1", "genesis", "add-genesis-account", "cosmos1x", "1uatom"},
		cmds.AddGenesisAccount("/mnt/localnet/.v1", "cosmos1x", "1uatom"))
	require.Equal(t,
		[]string{"gaiad", "--home=/mnt/localnet/.v1", "--chain-id", "localnet", "--keyring-backend", "test", "genesis", "gentx", "v1", "1uatom"},
		cmds.Gentx("/mnt/localnet/.v1", "v1", "1uatom"))
	require.Equal(t,
		[]string{"gaiad", "tendermint", "show-node-id", "--home=/mnt/localnet/.v1"},
		cmds.ShowNodeID("/mnt/localnet/.v1"))
	require.Equal(t,
		[]string{"sh", "-c", "cp -r /mnt/localnet/.v1/config/gentx/* /mnt/localnet/.gaia/config/gentx"},
		genesis.CopyDirContents("/mnt/localnet/.v1/config/gentx", "/mnt/localnet/.gaia/config/gentx"))

	cmds.Subcommand = ""
	require.Equal(t,
		[]string{"gaiad", "--home=/mnt/localnet/.gaia", "collect-gentxs"},
		cmds.CollectGentxs("/mnt/localnet/.gaia"))
}

package genesis

import (
	"context"
	"fmt"
	"os"

	errorsmod "cosmossdk.io/errors"
	"github.com/cometbft/cometbft/p2p"
	"go.uber.org/zap"

	"github.com/babylonchain/bldr/sandbox"
	"github.com/babylonchain/bldr/types"
)

// Steps of the assembly, used to name the failing step in errors.
const (
	StepInitCanonical     = "init-canonical"
	StepPatchDenom        = "patch-denom"
	StepInitNode          = "init-node"
	StepCopyGenesis       = "copy-genesis"
	StepImportKey         = "import-key"
	StepFundNode          = "fund-node"
	StepGentx             = "gentx"
	StepCollectGentxFiles = "collect-gentx-files"
	StepShowNodeID        = "show-node-id"
	StepFundGenesis       = "fund-genesis"
	StepCollectGentxs     = "collect-gentxs"
)

// canonicalMoniker is the moniker of the canonical home
const canonicalMoniker = "builder"

// Executor runs a command in the builder sandbox.
type Executor interface {
	Exec(ctx context.Context, cmd ...string) (sandbox.Result, error)
}

// Result is what assembly hands to the later stages.
type Result struct {
	NodeIDs map[string]p2p.ID
	// Genesis is the canonical genesis after collect-gentxs.
	Genesis types.GenesisFile
}

// Assembler drives the node binary through the genesis ceremony.
type Assembler struct {
	exec    Executor
	cmds    Commands
	amounts Amounts
	logger  *zap.Logger
}

func NewAssembler(exec Executor, cmds Commands, amounts Amounts, logger *zap.Logger) *Assembler {
	return &Assembler{
		exec:    exec,
		cmds:    cmds,
		amounts: amounts,
		logger:  logger.With(zap.String("module", "genesis")),
	}
}

// run executes cmd and turns a non-zero exit into an ErrCommand.
func (a *Assembler) run(ctx context.Context, step, node string, cmd []string) (sandbox.Result, error) {
	res, err := a.exec.Exec(ctx, cmd...)
	if err != nil {
		return sandbox.Result{}, errorsmod.Wrapf(types.ErrCommand, "stage %s, node %s: %v", step, node, err)
	}
	if err := res.Err(step, node); err != nil {
		return sandbox.Result{}, err
	}
	return res, nil
}

// Assemble produces the canonical genesis of state. Every node of state must
// have a home layout and every validator a wallet. Steps run strictly in
// order and the first failing command aborts the run.
func (a *Assembler) Assemble(ctx context.Context, state types.NetworkState) (*Result, error) {
	layout := state.Layout
	canon := layout.CanonicalHome()
	nodes := state.Nodes()

	// 1. canonical home, with the denom set to the chain's
	a.logger.Info("generating initial genesis", zap.String("home", canon.Sandbox))
	if _, err := a.run(ctx, StepInitCanonical, canonicalMoniker, a.cmds.Init(canon.Sandbox, canonicalMoniker)); err != nil {
		return nil, err
	}
	patched, err := PatchDenomFile(canon.GenesisFile().Host, DefaultDenom, state.Chain.Denom)
	if err != nil {
		return nil, errorsmod.Wrapf(types.ErrCommand, "stage %s, node %s: %v", StepPatchDenom, canonicalMoniker, err)
	}
	a.logger.Debug("patched genesis denom", zap.String("denom", state.Chain.Denom), zap.Int("fields", patched))

	// 2. private homes, seeded with the pre-gentx genesis
	for _, n := range nodes {
		home := layout.NodeHome(n.Name)
		a.logger.Info("creating node home", zap.String("node", n.Name), zap.String("home", home.Sandbox))
		if _, err := a.run(ctx, StepInitNode, n.Name, a.cmds.Init(home.Sandbox, n.Name)); err != nil {
			return nil, err
		}
		if _, err := a.run(ctx, StepCopyGenesis, n.Name, Copy(canon.GenesisFile().Sandbox, home.GenesisFile().Sandbox)); err != nil {
			return nil, err
		}
	}

	// 3. one signed gentx per validator, collected into the canonical home
	var wallets []types.Credential
	for _, n := range nodes {
		if !n.IsValidator() {
			continue
		}
		if n.Wallet == nil {
			return nil, errorsmod.Wrapf(types.ErrInvalidTopology, "validator %q has no wallet", n.Name)
		}
		wallets = append(wallets, types.Credential{Node: n.Name, Address: n.Wallet.Address})
		if err := a.buildGentx(ctx, layout, n); err != nil {
			return nil, err
		}
	}

	// 4. node ids of every node, validators and sentries alike
	ids := make(map[string]p2p.ID, len(nodes))
	for _, n := range nodes {
		res, err := a.run(ctx, StepShowNodeID, n.Name, a.cmds.ShowNodeID(layout.NodeHome(n.Name).Sandbox))
		if err != nil {
			return nil, err
		}
		id, err := types.ParseNodeID(res.Stdout)
		if err != nil {
			return nil, errorsmod.Wrapf(err, "node %s", n.Name)
		}
		a.logger.Info("recorded node id", zap.String("node", n.Name), zap.String("node_id", string(id)))
		ids[n.Name] = id
	}

	// 5. fund every validator in the canonical genesis
	for _, w := range wallets {
		a.logger.Info("adding genesis account to final genesis", zap.String("node", w.Node), zap.String("address", w.Address))
		cmd := a.cmds.AddGenesisAccount(canon.Sandbox, w.Address, a.amounts.GenesisAccount.String())
		if _, err := a.run(ctx, StepFundGenesis, w.Node, cmd); err != nil {
			return nil, err
		}
	}

	// 6. merge the gentxs
	a.logger.Info("collecting genesis transactions")
	if _, err := a.run(ctx, StepCollectGentxs, canonicalMoniker, a.cmds.CollectGentxs(canon.Sandbox)); err != nil {
		return nil, err
	}

	file := canon.GenesisFile().Host
	bz, err := os.ReadFile(file)
	if err != nil {
		return nil, fmt.Errorf("failed to read canonical genesis: %w", err)
	}
	genesis := types.GenesisFile{HostPath: file, Bytes: bz}
	a.logger.Info("assembled canonical genesis", zap.String("path", file), zap.String("sha256", genesis.Hash()))

	return &Result{NodeIDs: ids, Genesis: genesis}, nil
}

func (a *Assembler) buildGentx(ctx context.Context, layout types.Layout, n types.NodeState) error {
	home := layout.NodeHome(n.Name)
	canon := layout.CanonicalHome()

	a.logger.Info("importing keys", zap.String("node", n.Name))
	if _, err := a.run(ctx, StepImportKey, n.Name, a.cmds.KeysAdd(home.Sandbox, n.Name, n.Wallet.Mnemonic)); err != nil {
		return err
	}

	a.logger.Info("adding genesis account", zap.String("node", n.Name), zap.String("address", n.Wallet.Address))
	cmd := a.cmds.AddGenesisAccount(home.Sandbox, n.Wallet.Address, a.amounts.GentxAccount.String())
	if _, err := a.run(ctx, StepFundNode, n.Name, cmd); err != nil {
		return err
	}

	a.logger.Info("generating genesis transaction", zap.String("node", n.Name))
	if _, err := a.run(ctx, StepGentx, n.Name, a.cmds.Gentx(home.Sandbox, n.Name, a.amounts.SelfDelegation.String())); err != nil {
		return err
	}

	if _, err := a.run(ctx, StepCollectGentxFiles, n.Name, MkdirAll(canon.GentxDir().Sandbox)); err != nil {
		return err
	}
	if _, err := a.run(ctx, StepCollectGentxFiles, n.Name, CopyDirContents(home.GentxDir().Sandbox, canon.GentxDir().Sandbox)); err != nil {
		return err
	}
	return nil
}

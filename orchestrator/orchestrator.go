package orchestrator

import (
	"context"
	"fmt"
	"os"

	errorsmod "cosmossdk.io/errors"
	"go.uber.org/zap"

	"github.com/babylonchain/bldr/config"
	"github.com/babylonchain/bldr/genesis"
	"github.com/babylonchain/bldr/manifest"
	"github.com/babylonchain/bldr/nodeconfig"
	"github.com/babylonchain/bldr/peers"
	"github.com/babylonchain/bldr/sandbox"
	"github.com/babylonchain/bldr/types"
	"github.com/babylonchain/bldr/wallet"
)

// Stage is a step of the bootstrap pipeline.
type Stage string

const (
	StageValidate          Stage = "validate"
	StageResolveChain      Stage = "resolve_chain"
	StageGenerateWallets   Stage = "generate_wallets"
	StageBuildImages       Stage = "build_images"
	StageStartSandbox      Stage = "start_sandbox"
	StageAssembleGenesis   Stage = "assemble_genesis"
	StageStopSandbox       Stage = "stop_sandbox"
	StageDistributeGenesis Stage = "distribute_genesis"
	StageResolvePeers      Stage = "resolve_peers"
	StageRenderConfigs     Stage = "render_configs"
	StageWriteManifest     Stage = "write_manifest"
	StageComplete          Stage = "complete"
)

func (s Stage) String() string {
	return string(s)
}

// ChainResolver maps a registry network to its chain constants.
type ChainResolver interface {
	Resolve(ctx context.Context, network string) (types.ChainParams, error)
}

// Result is the outcome of a successful bootstrap.
type Result struct {
	State    types.NetworkState
	Genesis  types.GenesisFile
	Manifest *manifest.Compose
	// Credentials hold the validator mnemonics. They are not persisted anywhere.
	Credentials []types.Credential
}

// Orchestrator runs the bootstrap pipeline of one network. It is the sole
// owner of the builder sandbox.
type Orchestrator struct {
	spec     types.NetworkSpec
	cfg      *config.BldrConfig
	resolver ChainResolver
	runtime  sandbox.Runtime
	user     string
	logger   *zap.Logger
}

func NewOrchestrator(
	spec types.NetworkSpec,
	cfg *config.BldrConfig,
	resolver ChainResolver,
	runtime sandbox.Runtime,
	logger *zap.Logger,
) *Orchestrator {
	return &Orchestrator{
		spec:     spec,
		cfg:      cfg,
		resolver: resolver,
		runtime:  runtime,
		user:     sandbox.CurrentUser(),
		logger:   logger.With(zap.String("module", "orchestrator"), zap.String("network", spec.Name)),
	}
}

func (o *Orchestrator) enter(stage Stage) {
	o.logger.Info("entering stage", zap.Stringer("stage", stage))
}

// Bootstrap runs every stage in order and stops at the first error, leaving
// partial state behind for Cleanup.
func (o *Orchestrator) Bootstrap(ctx context.Context) (*Result, error) {
	o.enter(StageValidate)
	if err := o.spec.Validate(); err != nil {
		return nil, err
	}

	o.enter(StageResolveChain)
	chain, err := o.resolver.Resolve(ctx, o.spec.Network)
	if err != nil {
		return nil, err
	}
	layout, err := types.NewLayout(o.cfg.DataDir, o.spec.Name, chain.HomeLeaf)
	if err != nil {
		return nil, err
	}
	if _, err := os.Stat(layout.Root.Host); err == nil {
		return nil, errorsmod.Wrapf(types.ErrNetworkExists, "%s, rerun with --force to rebuild it", layout.Root.Host)
	} else if !os.IsNotExist(err) {
		return nil, err
	}
	state := types.NewNetworkState(o.spec, chain, layout)

	o.enter(StageGenerateWallets)
	state, err = o.generateWallets(state)
	if err != nil {
		return nil, err
	}
	// the mount source must exist and be owned by us before docker sees it
	if err := os.MkdirAll(layout.Root.Host, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create network data dir: %w", err)
	}

	images := types.NewImageConfig(o.spec.Network, o.cfg.DockerfilesDir)
	controller := sandbox.NewController(o.runtime, sandbox.Config{
		NetworkName: o.spec.Name,
		Images:      images,
		Mount:       layout.Root,
		User:        o.user,
	}, o.logger)

	o.enter(StageBuildImages)
	if err := controller.BuildImages(ctx); err != nil {
		return nil, err
	}

	o.enter(StageStartSandbox)
	if err := controller.Start(ctx); err != nil {
		return nil, err
	}

	assembled, err := o.assemble(ctx, controller, state)
	if err != nil {
		return nil, err
	}
	state, err = state.WithNodeIDs(assembled.NodeIDs)
	if err != nil {
		return nil, err
	}

	o.enter(StageDistributeGenesis)
	names := make([]string, 0, len(o.spec.Nodes))
	for _, n := range o.spec.Nodes {
		names = append(names, n.Name)
	}
	if err := genesis.Distribute(assembled.Genesis, layout, names, o.logger); err != nil {
		return nil, err
	}

	o.enter(StageResolvePeers)
	peerLists, err := peers.NewResolver(o.cfg.SentrySelfPeer, o.logger).Resolve(o.spec.Nodes, state.NodeIDs())
	if err != nil {
		return nil, err
	}
	state = state.WithPeers(peerLists)

	o.enter(StageRenderConfigs)
	renderer := nodeconfig.NewRenderer(o.logger)
	for _, n := range state.Nodes() {
		if err := renderer.Render(n.Name, layout.NodeHome(n.Name), n.Peers); err != nil {
			return nil, err
		}
	}

	o.enter(StageWriteManifest)
	compose, err := manifest.NewGenerator(images, o.cfg.BasePort, o.logger).Write(state)
	if err != nil {
		return nil, err
	}

	o.enter(StageComplete)
	return &Result{
		State:       state,
		Genesis:     assembled.Genesis,
		Manifest:    compose,
		Credentials: state.Credentials(),
	}, nil
}

func (o *Orchestrator) generateWallets(state types.NetworkState) (types.NetworkState, error) {
	gen := wallet.NewGenerator(state.Chain.Bech32Prefix)
	wallets := make(map[string]types.Wallet)
	for _, n := range state.Validators() {
		w, err := gen.Generate()
		if err != nil {
			return types.NetworkState{}, fmt.Errorf("failed to generate wallet of %s: %w", n.Name, err)
		}
		o.logger.Info("generated validator wallet", zap.String("node", n.Name), zap.String("address", w.Address))
		wallets[n.Name] = w
	}
	return state.WithWallets(wallets)
}

// assemble runs the genesis ceremony and removes the sandbox exactly once
// afterwards, whatever the outcome.
func (o *Orchestrator) assemble(ctx context.Context, controller *sandbox.Controller, state types.NetworkState) (*genesis.Result, error) {
	o.enter(StageAssembleGenesis)
	cmds := genesis.Commands{
		Daemon:         state.Chain.Daemon,
		ChainID:        o.spec.Name,
		KeyringBackend: o.cfg.KeyringBackend,
		Subcommand:     o.cfg.GenesisSubcommand,
	}
	assembler := genesis.NewAssembler(controller, cmds, genesis.NewAmounts(o.cfg, state.Chain.Denom), o.logger)
	assembled, assembleErr := assembler.Assemble(ctx, state)

	o.enter(StageStopSandbox)
	stopErr := controller.Stop(ctx)

	if assembleErr != nil {
		if stopErr != nil {
			o.logger.Error("failed to remove builder sandbox", zap.Error(stopErr))
		}
		return nil, assembleErr
	}
	if stopErr != nil {
		return nil, stopErr
	}
	return assembled, nil
}

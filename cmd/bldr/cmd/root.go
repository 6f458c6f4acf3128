package cmd

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/babylonchain/bldr/chainreg"
	"github.com/babylonchain/bldr/config"
	"github.com/babylonchain/bldr/orchestrator"
	"github.com/babylonchain/bldr/sandbox"
	"github.com/babylonchain/bldr/types"
)

const (
	flagLog        = "log"
	flagLogFormat  = "log-format"
	flagForce      = "force"
	flagConfigFile = "config-file"

	defaultConfigFile = "config.yaml"
)

// overridden in tests so the command runs without a docker daemon
var (
	newRuntime = func(logger *zap.Logger) (sandbox.Runtime, error) {
		return sandbox.NewDockerRuntime(logger)
	}
	newChainResolver = func(cfg config.BldrConfig, logger *zap.Logger) orchestrator.ChainResolver {
		return chainreg.NewResolver(cfg.RegistryURL, cfg.RegistryTimeout, logger)
	}
)

// NewRootCmd creates the bldr command. It is called once in the main function.
func NewRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "bldr",
		Short: "Bootstrap a local Cosmos SDK network from a topology file",
		Long: `bldr reads a network topology, assembles a shared genesis inside a
throwaway builder container, wires validators behind their sentries and writes
a docker-compose file that starts the network.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE:          runBootstrap,
	}

	rootCmd.Flags().StringP(flagLog, "l", "INFO", "log level (DEBUG, INFO, WARNING, ERROR, CRITICAL)")
	rootCmd.Flags().String(flagLogFormat, "console", "log format (console, json, logfmt)")
	rootCmd.Flags().BoolP(flagForce, "f", false, "remove an existing network of the same name before bootstrapping")
	rootCmd.Flags().StringP(flagConfigFile, "c", defaultConfigFile, "topology and settings file")

	return rootCmd
}

func runBootstrap(cmd *cobra.Command, _ []string) error {
	level, _ := cmd.Flags().GetString(flagLog)
	format, _ := cmd.Flags().GetString(flagLogFormat)
	force, _ := cmd.Flags().GetBool(flagForce)
	path, _ := cmd.Flags().GetString(flagConfigFile)

	logger, err := newRootLogger(format, level)
	if err != nil {
		return err
	}
	defer logger.Sync() //nolint:errcheck

	if err := bootstrap(cmd, logger, path, force); err != nil {
		logger.Error("bootstrap failed", zap.Error(err))
		return err
	}
	return nil
}

func bootstrap(cmd *cobra.Command, logger *zap.Logger, path string, force bool) error {
	spec, err := types.LoadNetworkSpec(path)
	if err != nil {
		return err
	}
	cfg, err := config.LoadFile(path)
	if err != nil {
		return err
	}
	logger.Info("loaded network topology",
		zap.String("network", spec.Network),
		zap.String("name", spec.Name),
		zap.Int("nodes", len(spec.Nodes)),
	)

	runtime, err := newRuntime(logger)
	if err != nil {
		return err
	}
	if closer, ok := runtime.(io.Closer); ok {
		defer closer.Close()
	}
	o := orchestrator.NewOrchestrator(spec, &cfg, newChainResolver(cfg, logger), runtime, logger)

	ctx := context.Background()
	if force {
		if err := o.Cleanup(ctx); err != nil {
			return err
		}
	}

	res, err := o.Bootstrap(ctx)
	if err != nil {
		return err
	}

	for _, cred := range res.Credentials {
		fmt.Fprintf(cmd.OutOrStdout(), "%s mnemonic: %s\n", cred.Node, cred.Mnemonic)
	}
	logger.Info("network ready", zap.String("compose_file", res.State.Layout.ComposeFile()))
	return nil
}

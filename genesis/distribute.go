package genesis

import (
	"fmt"
	"os"

	errorsmod "cosmossdk.io/errors"
	cmtos "github.com/cometbft/cometbft/libs/os"
	"go.uber.org/zap"

	"github.com/babylonchain/bldr/types"
)

const genesisFileMode = 0o644

// Distribute overwrites the genesis of every node home with the canonical one
// through the host view of the mount, then verifies each copy. It must only
// run once the sandbox is gone.
func Distribute(genesis types.GenesisFile, layout types.Layout, nodes []string, logger *zap.Logger) error {
	if len(genesis.Bytes) == 0 {
		return errorsmod.Wrap(types.ErrGenesisMismatch, "canonical genesis is empty")
	}

	for _, node := range nodes {
		home := layout.NodeHome(node)
		file := home.GenesisFile().Host

		logger.Info("copying genesis file into node home", zap.String("node", node), zap.String("path", file))
		if err := cmtos.EnsureDir(home.ConfigDir().Host, 0o755); err != nil {
			return err
		}
		if err := cmtos.WriteFile(file, genesis.Bytes, genesisFileMode); err != nil {
			return fmt.Errorf("failed to write genesis of %s: %w", node, err)
		}
	}

	return Verify(genesis, layout, nodes)
}

// Verify checks that every node home holds the canonical genesis.
func Verify(genesis types.GenesisFile, layout types.Layout, nodes []string) error {
	for _, node := range nodes {
		bz, err := os.ReadFile(layout.NodeHome(node).GenesisFile().Host)
		if err != nil {
			return errorsmod.Wrapf(types.ErrGenesisMismatch, "node %s: %v", node, err)
		}
		if !genesis.Equal(bz) {
			return errorsmod.Wrapf(types.ErrGenesisMismatch, "node %s", node)
		}
	}
	return nil
}

package orchestrator

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	errorsmod "cosmossdk.io/errors"
	"go.uber.org/zap"

	"github.com/babylonchain/bldr/sandbox"
	"github.com/babylonchain/bldr/types"
)

// Cleanup removes what a previous run of the network left behind: its
// builder container and its data dir. Missing state is not an error, so it
// can run any number of times.
func (o *Orchestrator) Cleanup(ctx context.Context) error {
	// the network name ends up in a path handed to RemoveAll
	if err := o.spec.Validate(); err != nil {
		return err
	}

	name := sandbox.ContainerName(o.spec.Name)
	id, err := o.runtime.Get(ctx, name)
	switch {
	case err == nil:
		o.logger.Info("removing stale builder container", zap.String("container", name), zap.String("id", id))
		if err := o.runtime.Remove(ctx, id, true); err != nil && !errorsmod.IsOf(err, types.ErrContainerNotFound) {
			return fmt.Errorf("failed to remove container %s: %w", name, err)
		}
	case errorsmod.IsOf(err, types.ErrContainerNotFound):
	default:
		return fmt.Errorf("failed to look up container %s: %w", name, err)
	}

	dataDir, err := filepath.Abs(filepath.Join(o.cfg.DataDir, o.spec.Name))
	if err != nil {
		return err
	}
	o.logger.Info("removing network data dir", zap.String("path", dataDir))
	if err := os.RemoveAll(dataDir); err != nil {
		return fmt.Errorf("failed to remove %s: %w", dataDir, err)
	}
	return nil
}

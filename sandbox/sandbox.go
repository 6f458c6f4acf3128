package sandbox

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	errorsmod "cosmossdk.io/errors"
	"go.uber.org/zap"

	"github.com/babylonchain/bldr/types"
)

// State is the lifecycle state of the builder sandbox.
type State string

const (
	StateAbsent         State = "absent"
	StateBuildingImages State = "building-images"
	StateImagesBuilt    State = "images-built"
	StateRunning        State = "running"
	StateRemoved        State = "removed"
)

// ContainerName is the reserved name of a network's builder container.
func ContainerName(networkName string) string {
	return fmt.Sprintf("bldr-%s-builder", networkName)
}

// CurrentUser returns `<uid>:<gid>` of the calling process.
func CurrentUser() string {
	return fmt.Sprintf("%d:%d", os.Getuid(), os.Getgid())
}

// Config of a builder sandbox.
type Config struct {
	NetworkName string
	Images      types.ImageConfig
	// Mount is the network data dir, bound at Mount.Sandbox.
	Mount types.Location
	// User is the identity every command runs under.
	User string
}

// Controller owns the lifecycle of one builder sandbox. It is not safe for
// concurrent use; commands share one mount and must run one at a time.
type Controller struct {
	runtime     Runtime
	cfg         Config
	logger      *zap.Logger
	state       State
	containerID string
}

func NewController(runtime Runtime, cfg Config, logger *zap.Logger) *Controller {
	return &Controller{
		runtime: runtime,
		cfg:     cfg,
		logger:  logger.With(zap.String("module", "sandbox"), zap.String("container", ContainerName(cfg.NetworkName))),
		state:   StateAbsent,
	}
}

func (c *Controller) State() State {
	return c.state
}

func (c *Controller) transition(from, to State) error {
	if c.state != from {
		return errorsmod.Wrapf(types.ErrSandboxState, "cannot move to %s from %s, expected %s", to, c.state, from)
	}
	c.state = to
	return nil
}

// BuildImages builds every image variant of the network.
func (c *Controller) BuildImages(ctx context.Context) error {
	if err := c.transition(StateAbsent, StateBuildingImages); err != nil {
		return err
	}

	images := c.cfg.Images
	for _, variant := range types.ImageVariants {
		tag := images.Tag(variant)
		c.logger.Info("building image", zap.String("image", tag))
		err := c.runtime.BuildImage(ctx, BuildOptions{
			ContextDir: images.DockerfilesDir,
			Dockerfile: images.Dockerfile(variant),
			Tag:        tag,
			BuildArgs:  images.BuildArgs(),
		})
		if err != nil {
			return errorsmod.Wrapf(types.ErrBuild, "%s from %s: %v",
				tag, filepath.Join(images.DockerfilesDir, images.Dockerfile(variant)), err)
		}
	}

	return c.transition(StateBuildingImages, StateImagesBuilt)
}

// Start launches the builder. It fails with ErrSandboxExists when a container
// with the reserved name is already there.
func (c *Controller) Start(ctx context.Context) error {
	if c.state != StateImagesBuilt {
		return errorsmod.Wrapf(types.ErrSandboxState, "cannot start from %s", c.state)
	}

	name := ContainerName(c.cfg.NetworkName)
	existing, err := c.runtime.Get(ctx, name)
	switch {
	case err == nil:
		return errorsmod.Wrapf(types.ErrSandboxExists, "%s (%s), rerun with --force to replace it", name, existing)
	case !errorsmod.IsOf(err, types.ErrContainerNotFound):
		return fmt.Errorf("failed to look up container %s: %w", name, err)
	}

	id, err := c.runtime.Run(ctx, RunOptions{
		Image:      c.cfg.Images.Tag(types.ImageGreen),
		Name:       name,
		Entrypoint: []string{"sleep"},
		Cmd:        []string{"infinity"},
		User:       c.cfg.User,
		Binds:      []string{c.cfg.Mount.Host + ":" + c.cfg.Mount.Sandbox + "/"},
		AutoRemove: true,
	})
	if err != nil {
		return fmt.Errorf("failed to launch builder container %s: %w", name, err)
	}

	c.containerID = id
	c.state = StateRunning
	c.logger.Info("launched builder container", zap.String("id", id))
	return nil
}

// Exec runs one command in the builder and waits for it. The returned error
// covers runtime failures only; a non-zero exit is reported in the Result.
func (c *Controller) Exec(ctx context.Context, cmd ...string) (Result, error) {
	if c.state != StateRunning {
		return Result{}, errorsmod.Wrapf(types.ErrSandboxState, "cannot exec while %s", c.state)
	}

	res, err := c.runtime.Exec(ctx, c.containerID, cmd, c.cfg.User)
	if err != nil {
		return Result{}, fmt.Errorf("failed to exec %q: %w", strings.Join(cmd, " "), err)
	}

	c.logger.Debug("command finished",
		zap.Strings("cmd", cmd),
		zap.Int("exit_code", res.ExitCode),
		zap.String("output", res.Output()),
	)
	return res, nil
}

// Stop force removes the builder. Calling it again is a no-op.
func (c *Controller) Stop(ctx context.Context) error {
	switch c.state {
	case StateRemoved:
		return nil
	case StateRunning:
	default:
		return errorsmod.Wrapf(types.ErrSandboxState, "cannot stop from %s", c.state)
	}

	err := c.runtime.Remove(ctx, c.containerID, true)
	if err != nil && !errorsmod.IsOf(err, types.ErrContainerNotFound) {
		return fmt.Errorf("failed to remove builder container %s: %w", c.containerID, err)
	}

	c.state = StateRemoved
	c.logger.Info("removed builder container", zap.String("id", c.containerID))
	return nil
}

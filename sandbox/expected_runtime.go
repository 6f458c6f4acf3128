package sandbox

import (
	"context"
)

// BuildOptions describe one image build.
type BuildOptions struct {
	// ContextDir is the build context sent to the runtime.
	ContextDir string
	// Dockerfile is relative to ContextDir.
	Dockerfile string
	Tag        string
	BuildArgs  map[string]string
}

// RunOptions describe a detached container.
type RunOptions struct {
	Image      string
	Name       string
	Entrypoint []string
	Cmd        []string
	// User is `<uid>:<gid>`.
	User string
	// Binds are `<host path>:<container path>` mounts.
	Binds      []string
	AutoRemove bool
}

// Runtime is the container runtime the builder sandbox runs on.
type Runtime interface {
	// BuildImage fails if the build does not complete.
	BuildImage(ctx context.Context, opts BuildOptions) error
	// Run creates and starts a container and returns its id.
	Run(ctx context.Context, opts RunOptions) (string, error)
	// Exec runs cmd to completion. The error is only set when the command
	// could not be run at all.
	Exec(ctx context.Context, containerID string, cmd []string, user string) (Result, error)
	Remove(ctx context.Context, containerID string, force bool) error
	// Get returns the id of the named container or ErrContainerNotFound.
	Get(ctx context.Context, name string) (string, error)
}

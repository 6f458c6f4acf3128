package sandbox

import (
	"bytes"
	"context"
	"fmt"

	errorsmod "cosmossdk.io/errors"
	dockertypes "github.com/docker/docker/api/types"
	"github.com/docker/docker/api/types/container"
	"github.com/docker/docker/client"
	"github.com/docker/docker/errdefs"
	"github.com/docker/docker/pkg/archive"
	"github.com/docker/docker/pkg/jsonmessage"
	"github.com/docker/docker/pkg/stdcopy"
	"go.uber.org/zap"

	"github.com/babylonchain/bldr/types"
)

var _ Runtime = &DockerRuntime{}

// DockerRuntime is a Runtime backed by the docker Engine API.
type DockerRuntime struct {
	cli    *client.Client
	logger *zap.Logger
}

// NewDockerRuntime connects to the daemon configured by the DOCKER_* env.
func NewDockerRuntime(logger *zap.Logger) (*DockerRuntime, error) {
	cli, err := client.NewClientWithOpts(client.FromEnv, client.WithAPIVersionNegotiation())
	if err != nil {
		return nil, fmt.Errorf("failed to create docker client: %w", err)
	}
	return &DockerRuntime{cli: cli, logger: logger.With(zap.String("module", "docker"))}, nil
}

func (d *DockerRuntime) Close() error {
	return d.cli.Close()
}

func (d *DockerRuntime) BuildImage(ctx context.Context, opts BuildOptions) error {
	buildCtx, err := archive.TarWithOptions(opts.ContextDir, &archive.TarOptions{})
	if err != nil {
		return fmt.Errorf("failed to archive build context %s: %w", opts.ContextDir, err)
	}
	defer buildCtx.Close()

	buildArgs := make(map[string]*string, len(opts.BuildArgs))
	for k, v := range opts.BuildArgs {
		v := v
		buildArgs[k] = &v
	}

	resp, err := d.cli.ImageBuild(ctx, buildCtx, dockertypes.ImageBuildOptions{
		Tags:        []string{opts.Tag},
		Dockerfile:  opts.Dockerfile,
		BuildArgs:   buildArgs,
		Remove:      true,
		ForceRemove: true,
	})
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	// the stream carries build failures as error messages
	out := zap.NewStdLog(d.logger.With(zap.String("image", opts.Tag))).Writer()
	return jsonmessage.DisplayJSONMessagesStream(resp.Body, out, 0, false, nil)
}

func (d *DockerRuntime) Run(ctx context.Context, opts RunOptions) (string, error) {
	created, err := d.cli.ContainerCreate(ctx,
		&container.Config{
			Image:      opts.Image,
			Entrypoint: opts.Entrypoint,
			Cmd:        opts.Cmd,
			User:       opts.User,
		},
		&container.HostConfig{
			Binds:      opts.Binds,
			AutoRemove: opts.AutoRemove,
		},
		nil, nil, opts.Name,
	)
	if err != nil {
		return "", err
	}
	for _, w := range created.Warnings {
		d.logger.Warn("container create warning", zap.String("name", opts.Name), zap.String("warning", w))
	}

	if err := d.cli.ContainerStart(ctx, created.ID, container.StartOptions{}); err != nil {
		return "", err
	}
	return created.ID, nil
}

func (d *DockerRuntime) Exec(ctx context.Context, containerID string, cmd []string, user string) (Result, error) {
	exec, err := d.cli.ContainerExecCreate(ctx, containerID, container.ExecOptions{
		User:         user,
		AttachStdout: true,
		AttachStderr: true,
		Cmd:          cmd,
	})
	if err != nil {
		return Result{}, err
	}

	attached, err := d.cli.ContainerExecAttach(ctx, exec.ID, container.ExecAttachOptions{})
	if err != nil {
		return Result{}, err
	}
	defer attached.Close()

	var stdout, stderr bytes.Buffer
	if _, err := stdcopy.StdCopy(&stdout, &stderr, attached.Reader); err != nil {
		return Result{}, fmt.Errorf("failed to read exec output: %w", err)
	}

	inspect, err := d.cli.ContainerExecInspect(ctx, exec.ID)
	if err != nil {
		return Result{}, err
	}

	return Result{
		ExitCode: inspect.ExitCode,
		Stdout:   stdout.String(),
		Stderr:   stderr.String(),
	}, nil
}

func (d *DockerRuntime) Remove(ctx context.Context, containerID string, force bool) error {
	err := d.cli.ContainerRemove(ctx, containerID, container.RemoveOptions{Force: force})
	if errdefs.IsNotFound(err) {
		return errorsmod.Wrap(types.ErrContainerNotFound, containerID)
	}
	return err
}

func (d *DockerRuntime) Get(ctx context.Context, name string) (string, error) {
	info, err := d.cli.ContainerInspect(ctx, name)
	if err != nil {
		if errdefs.IsNotFound(err) {
			return "", errorsmod.Wrap(types.ErrContainerNotFound, name)
		}
		return "", err
	}
	return info.ID, nil
}

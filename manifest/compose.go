package manifest

import (
	"fmt"

	errorsmod "cosmossdk.io/errors"
	cmtos "github.com/cometbft/cometbft/libs/os"
	"go.uber.org/zap"
	"gopkg.in/yaml.v2"

	"github.com/babylonchain/bldr/types"
)

const (
	composeVersion = "2"
	networkDriver  = "bridge"
	serviceCommand = "start"
	restartPolicy  = "always"
)

type Network struct {
	Driver string `yaml:"driver"`
}

// Service is one node container. Field order is the emitted key order.
type Service struct {
	ContainerName string   `yaml:"container_name"`
	Image         string   `yaml:"image"`
	Command       string   `yaml:"command"`
	Restart       string   `yaml:"restart"`
	Ports         []string `yaml:"ports"`
	Networks      []string `yaml:"networks"`
	Volumes       []string `yaml:"volumes"`
}

// Compose is a docker-compose file. Networks and services keep topology order.
type Compose struct {
	Version  string        `yaml:"version"`
	Networks yaml.MapSlice `yaml:"networks"`
	Services yaml.MapSlice `yaml:"services"`
}

// Service returns the service of node name.
func (c *Compose) Service(name string) (Service, bool) {
	for _, item := range c.Services {
		if item.Key == name {
			svc, ok := item.Value.(Service)
			return svc, ok
		}
	}
	return Service{}, false
}

// Generator turns a network into its deployment manifest.
type Generator struct {
	images   types.ImageConfig
	basePort int
	logger   *zap.Logger
}

func NewGenerator(images types.ImageConfig, basePort int, logger *zap.Logger) *Generator {
	return &Generator{
		images:   images,
		basePort: basePort,
		logger:   logger.With(zap.String("module", "manifest")),
	}
}

// Build lays out one service per node. The i-th node in declaration order
// publishes its rpc port on basePort+i. Validators only join their own
// network; sentries join the shared sentry network and the network of every
// validator they front.
func (g *Generator) Build(state types.NetworkState) (*Compose, error) {
	compose := &Compose{
		Version:  composeVersion,
		Networks: yaml.MapSlice{{Key: types.SentryNetwork, Value: Network{Driver: networkDriver}}},
	}

	for i, n := range state.Nodes() {
		compose.Networks = append(compose.Networks, yaml.MapItem{Key: n.Name, Value: Network{Driver: networkDriver}})

		var networks []string
		switch n.Role {
		case types.RoleValidator:
			networks = []string{n.Name}
		case types.RoleSentry:
			networks = append([]string{types.SentryNetwork}, state.Spec.FrontedValidators(n.Name)...)
		default:
			return nil, errorsmod.Wrapf(types.ErrInvalidTopology, "node %q has unknown role %q", n.Name, n.Role)
		}

		svc := Service{
			ContainerName: n.Name,
			Image:         g.images.Tag(n.Image),
			Command:       serviceCommand,
			Restart:       restartPolicy,
			Ports:         []string{fmt.Sprintf("%d:%d", g.basePort+i, types.RPCPort)},
			Networks:      networks,
			Volumes:       []string{fmt.Sprintf("%s:%s", state.Layout.NodeHome(n.Name).Host, state.Layout.ContainerHome())},
		}
		compose.Services = append(compose.Services, yaml.MapItem{Key: n.Name, Value: svc})
	}
	return compose, nil
}

// Write renders the manifest of state to its compose file.
func (g *Generator) Write(state types.NetworkState) (*Compose, error) {
	compose, err := g.Build(state)
	if err != nil {
		return nil, err
	}
	bz, err := yaml.Marshal(compose)
	if err != nil {
		return nil, fmt.Errorf("failed to encode compose file: %w", err)
	}

	file := state.Layout.ComposeFile()
	if err := cmtos.EnsureDir(state.Layout.Root.Host, 0o755); err != nil {
		return nil, err
	}
	if err := cmtos.WriteFile(file, bz, 0o644); err != nil {
		return nil, fmt.Errorf("failed to write compose file: %w", err)
	}
	g.logger.Info("generated docker-compose file", zap.String("path", file), zap.Int("services", len(compose.Services)))
	return compose, nil
}

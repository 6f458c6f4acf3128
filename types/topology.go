package types

import (
	"fmt"
	"os"
	"regexp"

	errorsmod "cosmossdk.io/errors"
	"gopkg.in/yaml.v2"
)

// Role is the part a node plays in the network.
type Role string

const (
	RoleValidator Role = "validator"
	RoleSentry    Role = "sentry"
)

// ImageVariant selects which of the two network images a node runs.
type ImageVariant string

const (
	ImageBlue  ImageVariant = "blue"
	ImageGreen ImageVariant = "green"
)

// ImageVariants lists every variant built for a network, in build order.
var ImageVariants = []ImageVariant{ImageBlue, ImageGreen}

// SentryNetwork is the shared docker network every sentry joins. No node may
// use it as its name since every node also gets a network named after itself.
const SentryNetwork = "sentries"

// node names double as hostnames, container names and docker network names
var nodeNameRegex = regexp.MustCompile(`^[a-z0-9]([a-z0-9-]*[a-z0-9])?$`)

// NodeSpec is the declarative description of a single node.
type NodeSpec struct {
	Name  string
	Role  Role
	Image ImageVariant
	// Sentry is the sentry a validator hides behind. Only set on validators.
	Sentry string
	// Validator is an explicit validator link on a sentry. A sentry also fronts
	// every validator naming it as its sentry.
	Validator string
}

func (n NodeSpec) IsValidator() bool { return n.Role == RoleValidator }

func (n NodeSpec) IsSentry() bool { return n.Role == RoleSentry }

// NetworkSpec is the immutable input of a bootstrap run. Nodes are kept in
// declaration order, which drives command order and port allocation.
type NetworkSpec struct {
	// Network is the chain registry identifier, e.g. "osmosis".
	Network string
	// Name is the network instance name. It is also the chain id.
	Name  string
	Nodes []NodeSpec
}

type rawNode struct {
	Type      string `yaml:"type"`
	Image     string `yaml:"image"`
	Sentry    string `yaml:"sentry"`
	Validator string `yaml:"validator"`
}

type rawNetworkSpec struct {
	Network     string        `yaml:"network"`
	NetworkName string        `yaml:"network_name"`
	Nodes       yaml.MapSlice `yaml:"nodes"`
}

// LoadNetworkSpec reads and validates a topology file.
func LoadNetworkSpec(path string) (NetworkSpec, error) {
	bz, err := os.ReadFile(path)
	if err != nil {
		return NetworkSpec{}, fmt.Errorf("failed to read topology file: %w", err)
	}
	return ParseNetworkSpec(bz)
}

// ParseNetworkSpec decodes a YAML topology, preserving node declaration order,
// and validates it.
func ParseNetworkSpec(bz []byte) (NetworkSpec, error) {
	var raw rawNetworkSpec
	if err := yaml.Unmarshal(bz, &raw); err != nil {
		return NetworkSpec{}, errorsmod.Wrapf(ErrInvalidTopology, "malformed topology: %v", err)
	}

	spec := NetworkSpec{
		Network: raw.Network,
		Name:    raw.NetworkName,
		Nodes:   make([]NodeSpec, 0, len(raw.Nodes)),
	}
	for _, item := range raw.Nodes {
		name, ok := item.Key.(string)
		if !ok {
			return NetworkSpec{}, errorsmod.Wrapf(ErrInvalidTopology, "node name %v is not a string", item.Key)
		}

		// nodes are decoded as ordered slices, so each value goes through a
		// second pass to land in its struct
		valueBz, err := yaml.Marshal(item.Value)
		if err != nil {
			return NetworkSpec{}, errorsmod.Wrapf(ErrInvalidTopology, "node %q: %v", name, err)
		}
		var rn rawNode
		if err := yaml.Unmarshal(valueBz, &rn); err != nil {
			return NetworkSpec{}, errorsmod.Wrapf(ErrInvalidTopology, "node %q: %v", name, err)
		}

		image := ImageVariant(rn.Image)
		if image == "" {
			image = ImageGreen
		}
		spec.Nodes = append(spec.Nodes, NodeSpec{
			Name:      name,
			Role:      Role(rn.Type),
			Image:     image,
			Sentry:    rn.Sentry,
			Validator: rn.Validator,
		})
	}

	if err := spec.Validate(); err != nil {
		return NetworkSpec{}, err
	}
	return spec, nil
}

// Validate checks the topology before any side effect happens.
func (s NetworkSpec) Validate() error {
	if s.Network == "" {
		return errorsmod.Wrap(ErrInvalidTopology, "network is required")
	}
	if !nodeNameRegex.MatchString(s.Name) {
		return errorsmod.Wrapf(ErrInvalidTopology, "network name %q must be a lowercase hostname label", s.Name)
	}
	if len(s.Nodes) == 0 {
		return errorsmod.Wrap(ErrInvalidTopology, "at least one node is required")
	}

	byName := make(map[string]NodeSpec, len(s.Nodes))
	for _, n := range s.Nodes {
		if !nodeNameRegex.MatchString(n.Name) {
			return errorsmod.Wrapf(ErrInvalidTopology, "node name %q must be a lowercase hostname label", n.Name)
		}
		if n.Name == SentryNetwork {
			return errorsmod.Wrapf(ErrInvalidTopology, "node name %q is reserved", n.Name)
		}
		if _, ok := byName[n.Name]; ok {
			return errorsmod.Wrapf(ErrInvalidTopology, "node %q is declared twice", n.Name)
		}
		byName[n.Name] = n
	}

	for _, n := range s.Nodes {
		if n.Image != ImageBlue && n.Image != ImageGreen {
			return errorsmod.Wrapf(ErrInvalidTopology, "node %q: unknown image %q", n.Name, n.Image)
		}

		switch n.Role {
		case RoleValidator:
			if n.Validator != "" {
				return errorsmod.Wrapf(ErrInvalidTopology, "validator %q cannot name a validator", n.Name)
			}
			if n.Sentry == "" {
				continue
			}
			sentry, ok := byName[n.Sentry]
			if !ok || !sentry.IsSentry() {
				return errorsmod.Wrapf(ErrInvalidTopology, "validator %q names %q which is not a sentry", n.Name, n.Sentry)
			}
		case RoleSentry:
			if n.Sentry != "" {
				return errorsmod.Wrapf(ErrInvalidTopology, "sentry %q cannot name a sentry", n.Name)
			}
			if n.Validator == "" {
				continue
			}
			val, ok := byName[n.Validator]
			if !ok || !val.IsValidator() {
				return errorsmod.Wrapf(ErrInvalidTopology, "sentry %q names %q which is not a validator", n.Name, n.Validator)
			}
		default:
			return errorsmod.Wrapf(ErrInvalidTopology, "node %q is neither a %s nor a %s (got %q)",
				n.Name, RoleValidator, RoleSentry, n.Role)
		}
	}

	return nil
}

// Node looks a node up by name.
func (s NetworkSpec) Node(name string) (NodeSpec, bool) {
	for _, n := range s.Nodes {
		if n.Name == name {
			return n, true
		}
	}
	return NodeSpec{}, false
}

// Validators returns the validator nodes in declaration order.
func (s NetworkSpec) Validators() []NodeSpec {
	return s.filter(RoleValidator)
}

// Sentries returns the sentry nodes in declaration order.
func (s NetworkSpec) Sentries() []NodeSpec {
	return s.filter(RoleSentry)
}

func (s NetworkSpec) filter(role Role) []NodeSpec {
	var nodes []NodeSpec
	for _, n := range s.Nodes {
		if n.Role == role {
			nodes = append(nodes, n)
		}
	}
	return nodes
}

// FrontedValidators returns the validators a sentry fronts: its explicit
// validator link plus every validator naming it, in declaration order.
func (s NetworkSpec) FrontedValidators(sentry string) []string {
	node, ok := s.Node(sentry)
	if !ok || !node.IsSentry() {
		return nil
	}

	var fronted []string
	for _, n := range s.Nodes {
		if !n.IsValidator() {
			continue
		}
		if n.Sentry == sentry || n.Name == node.Validator {
			fronted = append(fronted, n.Name)
		}
	}
	return fronted
}

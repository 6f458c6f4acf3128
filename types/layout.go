package types

import (
	"fmt"
	"path"
	"path/filepath"
)

const (
	// SandboxMountRoot is where network data dirs are mounted in the builder.
	SandboxMountRoot = "/mnt"
	// ComposeFileName is the manifest file written next to the node homes.
	ComposeFileName = "docker-compose.yml"
)

// Location is one file system entry seen from both the host and the builder
// sandbox.
type Location struct {
	Host    string
	Sandbox string
}

// Join appends path elements to both views.
func (l Location) Join(elem ...string) Location {
	return Location{
		Host:    filepath.Join(append([]string{l.Host}, elem...)...),
		Sandbox: path.Join(append([]string{l.Sandbox}, elem...)...),
	}
}

// Home is a node binary home directory.
type Home struct {
	Location
}

func (h Home) ConfigDir() Location { return h.Join("config") }

func (h Home) GenesisFile() Location { return h.Join("config", "genesis.json") }

func (h Home) ConfigFile() Location { return h.Join("config", "config.toml") }

func (h Home) GentxDir() Location { return h.Join("config", "gentx") }

// Layout maps a network's data directory on the host to its mount inside the
// builder sandbox.
type Layout struct {
	Root     Location
	HomeLeaf string
}

// NewLayout returns the layout of network `name` under dataDir. The host side
// is made absolute since it is used as a bind mount source.
func NewLayout(dataDir, name, homeLeaf string) (Layout, error) {
	root, err := filepath.Abs(filepath.Join(dataDir, name))
	if err != nil {
		return Layout{}, fmt.Errorf("failed to resolve data dir: %w", err)
	}
	return Layout{
		Root: Location{
			Host:    root,
			Sandbox: path.Join(SandboxMountRoot, name),
		},
		HomeLeaf: homeLeaf,
	}, nil
}

// CanonicalHome is the builder home that holds the authoritative genesis.
func (l Layout) CanonicalHome() Home {
	return Home{l.Root.Join(l.HomeLeaf)}
}

// NodeHome is the private home of a node, `.<name>` under the network root.
func (l Layout) NodeHome(name string) Home {
	return Home{l.Root.Join("." + name)}
}

func (l Layout) ComposeFile() string {
	return filepath.Join(l.Root.Host, ComposeFileName)
}

// ContainerHome is where a node home is mounted inside its service container.
func (l Layout) ContainerHome() string {
	return path.Join("/root", l.HomeLeaf)
}

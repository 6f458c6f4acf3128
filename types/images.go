package types

import "fmt"

// ImageConfig names the images of one network and where they are built from.
type ImageConfig struct {
	Repository     string
	Network        string
	DockerfilesDir string
}

const (
	imageRepository = "bldr"
	// build arg consumed by the network dockerfiles
	distroVersionArg = "distro_version"
	distroVersion    = "debug"
)

// NewImageConfig returns the image config of a registry network.
func NewImageConfig(network, dockerfilesDir string) ImageConfig {
	return ImageConfig{
		Repository:     imageRepository,
		Network:        network,
		DockerfilesDir: dockerfilesDir,
	}
}

// Tag is `bldr:<network>-<variant>`.
func (c ImageConfig) Tag(variant ImageVariant) string {
	return fmt.Sprintf("%s:%s-%s", c.Repository, c.Network, variant)
}

// Dockerfile is the build definition of a variant, relative to DockerfilesDir.
func (c ImageConfig) Dockerfile(variant ImageVariant) string {
	return fmt.Sprintf("%s.%s", c.Network, variant)
}

func (c ImageConfig) BuildArgs() map[string]string {
	return map[string]string{distroVersionArg: distroVersion}
}

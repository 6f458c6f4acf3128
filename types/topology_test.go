package types_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/babylonchain/bldr/types"
)

const sentryTopology = `
network: osmosis
network_name: localnet
nodes:
  v2:
    type: validator
    image: blue
    sentry: s1
  s1:
    type: sentry
    validator: v1
  v1:
    type: validator
    sentry: s1
  s2:
    type: sentry
    image: blue
`

func TestParseNetworkSpecKeepsDeclarationOrder(t *testing.T) {
	spec, err := types.ParseNetworkSpec([]byte(sentryTopology))
	require.NoError(t, err)

	require.Equal(t, "osmosis", spec.Network)
	require.Equal(t, "localnet", spec.Name)

	var names []string
	for _, n := range spec.Nodes {
		names = append(names, n.Name)
	}
	require.Equal(t, []string{"v2", "s1", "v1", "s2"}, names)

	v2, ok := spec.Node("v2")
	require.True(t, ok)
	require.Equal(t, types.RoleValidator, v2.Role)
	require.Equal(t, types.ImageBlue, v2.Image)
	require.Equal(t, "s1", v2.Sentry)

	// missing image falls back to green
	s1, ok := spec.Node("s1")
	require.True(t, ok)
	require.Equal(t, types.ImageGreen, s1.Image)

	require.Len(t, spec.Validators(), 2)
	require.Len(t, spec.Sentries(), 2)
	require.Equal(t, []string{"v2", "v1"}, spec.FrontedValidators("s1"))
	require.Empty(t, spec.FrontedValidators("s2"))
	require.Nil(t, spec.FrontedValidators("v1"))
}

func TestLoadNetworkSpec(t *testing.T) {
	file := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(file, []byte(sentryTopology), 0o600))

	spec, err := types.LoadNetworkSpec(file)
	require.NoError(t, err)
	require.Len(t, spec.Nodes, 4)

	_, err = types.LoadNetworkSpec(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
}

func TestNetworkSpecValidate(t *testing.T) {
	valid := func() types.NetworkSpec {
		return types.NetworkSpec{
			Network: "osmosis",
			Name:    "localnet",
			Nodes: []types.NodeSpec{
				{Name: "v1", Role: types.RoleValidator, Image: types.ImageBlue, Sentry: "s1"},
				{Name: "s1", Role: types.RoleSentry, Image: types.ImageGreen},
			},
		}
	}

	testCases := []struct {
		name   string
		mutate func(*types.NetworkSpec)
		expErr bool
	}{
		{"valid", func(*types.NetworkSpec) {}, false},
		{"validator without sentry", func(s *types.NetworkSpec) { s.Nodes[0].Sentry = "" }, false},
		{"missing network", func(s *types.NetworkSpec) { s.Network = "" }, true},
		{"bad network name", func(s *types.NetworkSpec) { s.Name = "Local_Net" }, true},
		{"no nodes", func(s *types.NetworkSpec) { s.Nodes = nil }, true},
		{"unknown role", func(s *types.NetworkSpec) { s.Nodes[1].Role = "full" }, true},
		{"unknown image", func(s *types.NetworkSpec) { s.Nodes[1].Image = "red" }, true},
		{"dangling sentry", func(s *types.NetworkSpec) { s.Nodes[0].Sentry = "s9" }, true},
		{"sentry points at validator", func(s *types.NetworkSpec) { s.Nodes[0].Sentry = "v1" }, true},
		{"dangling validator link", func(s *types.NetworkSpec) { s.Nodes[1].Validator = "v9" }, true},
		{"validator link on validator", func(s *types.NetworkSpec) { s.Nodes[0].Validator = "v1" }, true},
		{"duplicate name", func(s *types.NetworkSpec) { s.Nodes[1].Name = "v1" }, true},
		{"reserved name", func(s *types.NetworkSpec) {
			s.Nodes[1].Name = types.SentryNetwork
			s.Nodes[0].Sentry = types.SentryNetwork
		}, true},
		{"non hostname", func(s *types.NetworkSpec) { s.Nodes[1].Name = "s 1" }, true},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			spec := valid()
			tc.mutate(&spec)
			err := spec.Validate()
			if tc.expErr {
				require.ErrorIs(t, err, types.ErrInvalidTopology)
			} else {
				require.NoError(t, err)
			}
		})
	}
}

func TestParseNetworkSpecRejectsUnknownRole(t *testing.T) {
	_, err := types.ParseNetworkSpec([]byte(`
network: osmosis
network_name: localnet
nodes:
  f1:
    type: fullnode
`))
	require.ErrorIs(t, err, types.ErrInvalidTopology)

	_, err = types.ParseNetworkSpec([]byte("nodes: [1, 2"))
	require.ErrorIs(t, err, types.ErrInvalidTopology)
}

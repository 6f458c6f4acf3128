package peers

import (
	errorsmod "cosmossdk.io/errors"
	"github.com/cometbft/cometbft/p2p"
	"go.uber.org/zap"

	"github.com/babylonchain/bldr/types"
)

// Resolver computes the persistent peers and seeds of every node.
type Resolver struct {
	// sentrySelfPeer keeps a sentry in its own peer list
	sentrySelfPeer bool
	logger         *zap.Logger
}

func NewResolver(sentrySelfPeer bool, logger *zap.Logger) *Resolver {
	return &Resolver{
		sentrySelfPeer: sentrySelfPeer,
		logger:         logger.With(zap.String("module", "peers")),
	}
}

// Resolve returns the peer lists of nodes keyed by node name. A validator
// peers with its sentry only; a sentry peers with every sentry. Seeds mirror
// the persistent peers. The result only depends on nodes and ids.
func (r *Resolver) Resolve(nodes []types.NodeSpec, ids map[string]p2p.ID) (map[string]types.PeerLists, error) {
	addresses := make(map[string]string, len(nodes))
	for _, n := range nodes {
		id, ok := ids[n.Name]
		if !ok || id == "" {
			return nil, errorsmod.Wrapf(types.ErrMissingNodeID, "node %q", n.Name)
		}
		addresses[n.Name] = types.PeerAddress(id, n.Name)
	}

	var sentries []string
	for _, n := range nodes {
		if n.IsSentry() {
			sentries = append(sentries, n.Name)
		}
	}

	peers := make(map[string]types.PeerLists, len(nodes))
	for _, n := range nodes {
		var list []string
		switch n.Role {
		case types.RoleValidator:
			if n.Sentry == "" {
				r.logger.Warn("validator has no sentry, leaving its peer list empty", zap.String("node", n.Name))
				break
			}
			addr, ok := addresses[n.Sentry]
			if !ok {
				return nil, errorsmod.Wrapf(types.ErrInvalidTopology, "validator %q names unknown sentry %q", n.Name, n.Sentry)
			}
			list = []string{addr}
		case types.RoleSentry:
			for _, s := range sentries {
				if s == n.Name && !r.sentrySelfPeer {
					continue
				}
				list = append(list, addresses[s])
			}
		default:
			return nil, errorsmod.Wrapf(types.ErrInvalidTopology, "node %q has unknown role %q", n.Name, n.Role)
		}

		peers[n.Name] = types.PeerLists{
			PersistentPeers: list,
			Seeds:           append([]string(nil), list...),
		}
		r.logger.Debug("resolved peers", zap.String("node", n.Name), zap.Strings("persistent_peers", list))
	}
	return peers, nil
}

package types

import (
	errorsmod "cosmossdk.io/errors"
	"github.com/cometbft/cometbft/p2p"
)

// NodeState is a node's spec plus everything derived for it during a run.
type NodeState struct {
	NodeSpec

	// Wallet is non-nil iff the node is a validator.
	Wallet *Wallet
	NodeID p2p.ID
	Peers  PeerLists
}

// NetworkState is a snapshot of a run. Stages never modify a snapshot; they
// return an enriched copy through the With* methods.
type NetworkState struct {
	Spec   NetworkSpec
	Chain  ChainParams
	Layout Layout
	nodes  []NodeState
}

// NewNetworkState builds the initial snapshot of a validated NetworkSpec.
func NewNetworkState(spec NetworkSpec, chain ChainParams, layout Layout) NetworkState {
	nodes := make([]NodeState, len(spec.Nodes))
	for i, n := range spec.Nodes {
		nodes[i] = NodeState{NodeSpec: n}
	}
	return NetworkState{Spec: spec, Chain: chain, Layout: layout, nodes: nodes}
}

// Nodes returns a copy of the node states in declaration order.
func (s NetworkState) Nodes() []NodeState {
	nodes := make([]NodeState, len(s.nodes))
	copy(nodes, s.nodes)
	return nodes
}

// Node returns the state of the named node.
func (s NetworkState) Node(name string) (NodeState, bool) {
	for _, n := range s.nodes {
		if n.Name == name {
			return n, true
		}
	}
	return NodeState{}, false
}

// Validators returns the validator states in declaration order.
func (s NetworkState) Validators() []NodeState {
	var vals []NodeState
	for _, n := range s.nodes {
		if n.IsValidator() {
			vals = append(vals, n)
		}
	}
	return vals
}

// Credentials lists every validator wallet in declaration order.
func (s NetworkState) Credentials() []Credential {
	var creds []Credential
	for _, n := range s.nodes {
		if n.Wallet == nil {
			continue
		}
		creds = append(creds, Credential{Node: n.Name, Mnemonic: n.Wallet.Mnemonic, Address: n.Wallet.Address})
	}
	return creds
}

// NodeIDs maps node names to their p2p ids.
func (s NetworkState) NodeIDs() map[string]p2p.ID {
	ids := make(map[string]p2p.ID, len(s.nodes))
	for _, n := range s.nodes {
		if n.NodeID != "" {
			ids[n.Name] = n.NodeID
		}
	}
	return ids
}

// WithWallets attaches wallets. Every validator must receive exactly one
// wallet and no sentry may receive one.
func (s NetworkState) WithWallets(wallets map[string]Wallet) (NetworkState, error) {
	next := s.clone()
	for i, n := range next.nodes {
		w, ok := wallets[n.Name]
		switch {
		case n.IsValidator() && !ok:
			return NetworkState{}, errorsmod.Wrapf(ErrInvalidTopology, "validator %q has no wallet", n.Name)
		case !n.IsValidator() && ok:
			return NetworkState{}, errorsmod.Wrapf(ErrInvalidTopology, "%s %q cannot hold a wallet", n.Role, n.Name)
		case ok:
			w := w
			next.nodes[i].Wallet = &w
		}
	}
	if len(wallets) != len(s.Validators()) {
		return NetworkState{}, errorsmod.Wrapf(ErrInvalidTopology, "got %d wallets for %d validators", len(wallets), len(s.Validators()))
	}
	return next, nil
}

// WithNodeIDs attaches the node ids read back from every home.
func (s NetworkState) WithNodeIDs(ids map[string]p2p.ID) (NetworkState, error) {
	next := s.clone()
	for i, n := range next.nodes {
		id, ok := ids[n.Name]
		if !ok || id == "" {
			return NetworkState{}, errorsmod.Wrapf(ErrMissingNodeID, "node %q", n.Name)
		}
		next.nodes[i].NodeID = id
	}
	return next, nil
}

// WithPeers attaches resolved peer lists. Nodes absent from the map keep
// empty lists.
func (s NetworkState) WithPeers(peers map[string]PeerLists) NetworkState {
	next := s.clone()
	for i, n := range next.nodes {
		pl := peers[n.Name]
		next.nodes[i].Peers = PeerLists{
			PersistentPeers: append([]string(nil), pl.PersistentPeers...),
			Seeds:           append([]string(nil), pl.Seeds...),
		}
	}
	return next
}

func (s NetworkState) clone() NetworkState {
	next := s
	next.nodes = make([]NodeState, len(s.nodes))
	for i, n := range s.nodes {
		if n.Wallet != nil {
			w := *n.Wallet
			n.Wallet = &w
		}
		n.Peers = PeerLists{
			PersistentPeers: append([]string(nil), n.Peers.PersistentPeers...),
			Seeds:           append([]string(nil), n.Peers.Seeds...),
		}
		next.nodes[i] = n
	}
	return next
}

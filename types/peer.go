package types

import (
	"encoding/hex"
	"fmt"
	"strings"

	errorsmod "cosmossdk.io/errors"
	"github.com/cometbft/cometbft/p2p"
)

const (
	// P2PPort is the fixed p2p listen port of every node.
	P2PPort = 26656
	// RPCPort is the fixed rpc listen port inside every node container.
	RPCPort = 26657
)

// ParseNodeID trims the output of `tendermint show-node-id` and checks that it
// is a hex encoded p2p id.
func ParseNodeID(out string) (p2p.ID, error) {
	id := strings.TrimSpace(out)
	if id == "" {
		return "", errorsmod.Wrap(ErrInvalidNodeID, "empty node id")
	}
	if len(id) != 2*p2p.IDByteLength {
		return "", errorsmod.Wrapf(ErrInvalidNodeID, "%q has %d characters, expected %d", id, len(id), 2*p2p.IDByteLength)
	}
	if _, err := hex.DecodeString(id); err != nil {
		return "", errorsmod.Wrapf(ErrInvalidNodeID, "%q is not hex: %v", id, err)
	}
	return p2p.ID(id), nil
}

// PeerAddress renders `<id>@<host>:26656`. It is never stored, only recomputed.
func PeerAddress(id p2p.ID, host string) string {
	return p2p.IDAddressString(id, fmt.Sprintf("%s:%d", host, P2PPort))
}

// PeerLists are the persistent peers and seeds of one node.
type PeerLists struct {
	PersistentPeers []string
	Seeds           []string
}

package types

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
)

// GenesisFile is the canonical post-collection genesis handed from assembly to
// distribution.
type GenesisFile struct {
	HostPath string
	Bytes    []byte
}

// Equal reports whether bz is byte-identical to the canonical genesis.
func (g GenesisFile) Equal(bz []byte) bool {
	return bytes.Equal(g.Bytes, bz)
}

// Hash is the hex sha256 of the genesis, used in logs.
func (g GenesisFile) Hash() string {
	sum := sha256.Sum256(g.Bytes)
	return hex.EncodeToString(sum[:])
}

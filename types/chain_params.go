package types

import (
	errorsmod "cosmossdk.io/errors"
)

// ChainParams are the chain constants resolved once per run from the chain
// registry. They are shared read-only by every later stage.
type ChainParams struct {
	Bech32Prefix string
	// HomeLeaf is the directory name of the binary's default home, e.g. ".osmosisd".
	HomeLeaf string
	// Daemon is the node binary name, e.g. "osmosisd".
	Daemon string
	Denom  string
}

func (p ChainParams) Validate() error {
	switch {
	case p.Bech32Prefix == "":
		return errorsmod.Wrap(ErrResolution, "bech32 prefix is empty")
	case p.HomeLeaf == "", p.HomeLeaf == ".", p.HomeLeaf == "/":
		return errorsmod.Wrapf(ErrResolution, "invalid node home leaf %q", p.HomeLeaf)
	case p.Daemon == "":
		return errorsmod.Wrap(ErrResolution, "daemon name is empty")
	case p.Denom == "":
		return errorsmod.Wrap(ErrResolution, "denom is empty")
	}
	return nil
}

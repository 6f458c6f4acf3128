package types

import (
	errorsmod "cosmossdk.io/errors"
)

// Codespace is the error codespace shared by every bldr component.
const Codespace = "bldr"

// bldr sentinel errors
var (
	ErrInvalidTopology   = errorsmod.Register(Codespace, 1100, "invalid network topology")
	ErrResolution        = errorsmod.Register(Codespace, 1101, "chain registry lookup is incomplete")
	ErrBuild             = errorsmod.Register(Codespace, 1102, "image build failed")
	ErrSandboxExists     = errorsmod.Register(Codespace, 1103, "builder sandbox already exists")
	ErrSandboxState      = errorsmod.Register(Codespace, 1104, "invalid builder sandbox state transition")
	ErrContainerNotFound = errorsmod.Register(Codespace, 1105, "container not found")
	ErrCommand           = errorsmod.Register(Codespace, 1106, "node binary command failed")
	ErrMissingNodeID     = errorsmod.Register(Codespace, 1107, "node id is missing")
	ErrInvalidNodeID     = errorsmod.Register(Codespace, 1108, "node id is malformed")
	ErrGenesisMismatch   = errorsmod.Register(Codespace, 1109, "node genesis differs from the canonical genesis")
	ErrNetworkExists     = errorsmod.Register(Codespace, 1110, "network data directory already exists")
	ErrInvalidConfig     = errorsmod.Register(Codespace, 1111, "invalid bldr configuration")
)

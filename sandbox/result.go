package sandbox

import (
	"strings"

	errorsmod "cosmossdk.io/errors"

	"github.com/babylonchain/bldr/types"
)

// keeps error messages readable when a command dumps a lot of output
const maxErrOutput = 512

// Result is the outcome of a command run in the sandbox. A Result says
// nothing about success on its own; callers branch on Err.
type Result struct {
	ExitCode int
	Stdout   string
	Stderr   string
}

// Err returns nil on a zero exit code and an ErrCommand naming stage and node
// otherwise.
func (r Result) Err(stage, node string) error {
	if r.ExitCode == 0 {
		return nil
	}
	out := strings.TrimSpace(r.Stderr)
	if out == "" {
		out = strings.TrimSpace(r.Stdout)
	}
	if len(out) > maxErrOutput {
		out = "..." + out[len(out)-maxErrOutput:]
	}
	return errorsmod.Wrapf(types.ErrCommand, "stage %s, node %s: exit code %d: %s", stage, node, r.ExitCode, out)
}

// Output is stdout followed by stderr.
func (r Result) Output() string {
	if r.Stderr == "" {
		return r.Stdout
	}
	return r.Stdout + r.Stderr
}

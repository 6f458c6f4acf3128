package genesis

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"strings"
)

// DefaultDenom is the denom `init` writes into a fresh genesis.
const DefaultDenom = "stake"

// PatchDenom rewrites every object field whose key ends in "denom" and whose
// value is exactly from. It returns the patched document and the number of
// rewritten fields. Numbers are kept verbatim.
func PatchDenom(bz []byte, from, to string) ([]byte, int, error) {
	dec := json.NewDecoder(bytes.NewReader(bz))
	dec.UseNumber()

	var doc interface{}
	if err := dec.Decode(&doc); err != nil {
		return nil, 0, fmt.Errorf("failed to decode genesis: %w", err)
	}

	n := patchDenom(doc, from, to)

	var out bytes.Buffer
	enc := json.NewEncoder(&out)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(doc); err != nil {
		return nil, 0, fmt.Errorf("failed to encode genesis: %w", err)
	}
	return out.Bytes(), n, nil
}

func patchDenom(v interface{}, from, to string) int {
	n := 0
	switch node := v.(type) {
	case map[string]interface{}:
		for k, child := range node {
			if s, ok := child.(string); ok && s == from && strings.HasSuffix(k, "denom") {
				node[k] = to
				n++
				continue
			}
			n += patchDenom(child, from, to)
		}
	case []interface{}:
		for _, child := range node {
			n += patchDenom(child, from, to)
		}
	}
	return n
}

// PatchDenomFile applies PatchDenom to a genesis file in place.
func PatchDenomFile(file, from, to string) (int, error) {
	info, err := os.Stat(file)
	if err != nil {
		return 0, err
	}
	bz, err := os.ReadFile(file)
	if err != nil {
		return 0, err
	}
	patched, n, err := PatchDenom(bz, from, to)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", file, err)
	}
	if err := os.WriteFile(file, patched, info.Mode().Perm()); err != nil {
		return 0, err
	}
	return n, nil
}

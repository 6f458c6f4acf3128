// Package nodesim is an in-process stand-in for the builder container and the
// node binary inside it. It reproduces the on-disk effects the bootstrap
// pipeline depends on against the host side of the bind mount, so the whole
// pipeline can run in tests without docker.
package nodesim

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	errorsmod "cosmossdk.io/errors"

	"github.com/babylonchain/bldr/sandbox"
	"github.com/babylonchain/bldr/types"
)

var _ sandbox.Runtime = &Sim{}

type container struct {
	id          string
	hostRoot    string
	sandboxRoot string
}

// Sim implements sandbox.Runtime. Commands run against the host directory
// bound into the container by Run.
type Sim struct {
	mu sync.Mutex

	daemon     string
	containers map[string]*container
	nextID     int

	built    []string
	runs     []sandbox.RunOptions
	commands [][]string
	removed  int

	buildErr error
	failures map[string]int
}

// New returns a simulator for a node binary called daemon.
func New(daemon string) *Sim {
	return &Sim{
		daemon:     daemon,
		containers: make(map[string]*container),
		failures:   make(map[string]int),
	}
}

// FailBuild makes every image build fail with err.
func (s *Sim) FailBuild(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.buildErr = err
}

// FailOn makes every command whose joined form contains match exit with code.
func (s *Sim) FailOn(match string, code int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failures[match] = code
}

// AddContainer registers a container that exists before the run.
func (s *Sim) AddContainer(name string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.addContainer(name, "", "")
}

func (s *Sim) addContainer(name, hostRoot, sandboxRoot string) string {
	s.nextID++
	id := fmt.Sprintf("%064x", s.nextID)
	s.containers[name] = &container{id: id, hostRoot: hostRoot, sandboxRoot: sandboxRoot}
	return id
}

// Built returns the tags of every image built so far.
func (s *Sim) Built() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.built...)
}

// Runs returns the options of every container started so far.
func (s *Sim) Runs() []sandbox.RunOptions {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]sandbox.RunOptions(nil), s.runs...)
}

// Commands returns every command executed so far, in order.
func (s *Sim) Commands() [][]string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([][]string(nil), s.commands...)
}

// Removed counts successful container removals.
func (s *Sim) Removed() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.removed
}

// Running reports whether a container with name exists.
func (s *Sim) Running(name string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.containers[name]
	return ok
}

func (s *Sim) BuildImage(_ context.Context, opts sandbox.BuildOptions) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.buildErr != nil {
		return s.buildErr
	}
	s.built = append(s.built, opts.Tag)
	return nil
}

func (s *Sim) Run(_ context.Context, opts sandbox.RunOptions) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.containers[opts.Name]; ok {
		return "", fmt.Errorf("conflict: container name %s is already in use", opts.Name)
	}
	if len(opts.Binds) != 1 {
		return "", fmt.Errorf("expected exactly one bind, got %d", len(opts.Binds))
	}
	parts := strings.SplitN(opts.Binds[0], ":", 2)
	if len(parts) != 2 {
		return "", fmt.Errorf("malformed bind %q", opts.Binds[0])
	}
	if _, err := os.Stat(parts[0]); err != nil {
		return "", fmt.Errorf("bind source: %w", err)
	}

	s.runs = append(s.runs, opts)
	return s.addContainer(opts.Name, parts[0], strings.TrimRight(parts[1], "/")), nil
}

func (s *Sim) Remove(_ context.Context, containerID string, _ bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for name, c := range s.containers {
		if c.id == containerID || name == containerID {
			delete(s.containers, name)
			s.removed++
			return nil
		}
	}
	return errorsmod.Wrap(types.ErrContainerNotFound, containerID)
}

func (s *Sim) Get(_ context.Context, name string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.containers[name]
	if !ok {
		return "", errorsmod.Wrap(types.ErrContainerNotFound, name)
	}
	return c.id, nil
}

func (s *Sim) Exec(_ context.Context, containerID string, cmd []string, _ string) (sandbox.Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var c *container
	for _, candidate := range s.containers {
		if candidate.id == containerID {
			c = candidate
		}
	}
	if c == nil || c.hostRoot == "" {
		return sandbox.Result{}, errorsmod.Wrap(types.ErrContainerNotFound, containerID)
	}
	s.commands = append(s.commands, append([]string(nil), cmd...))

	joined := strings.Join(cmd, " ")
	for match, code := range s.failures {
		if strings.Contains(joined, match) {
			return sandbox.Result{ExitCode: code, Stderr: "simulated failure: " + match}, nil
		}
	}

	host := make([]string, len(cmd))
	for i, arg := range cmd {
		host[i] = strings.ReplaceAll(arg, c.sandboxRoot, c.hostRoot)
	}

	var stdout bytes.Buffer
	if err := s.run(host, &stdout); err != nil {
		return sandbox.Result{ExitCode: 1, Stdout: stdout.String(), Stderr: err.Error()}, nil
	}
	return sandbox.Result{Stdout: stdout.String()}, nil
}

func (s *Sim) run(cmd []string, out io.Writer) error {
	if len(cmd) == 0 {
		return errors.New("empty command")
	}
	switch cmd[0] {
	case "sh":
		if len(cmd) != 3 || cmd[1] != "-c" {
			return fmt.Errorf("unsupported shell invocation %q", cmd)
		}
		return s.shell(cmd[2])
	case "cp":
		if len(cmd) != 3 {
			return fmt.Errorf("cp: expected src and dst, got %q", cmd[1:])
		}
		return copyFile(cmd[1], cmd[2])
	case "mkdir":
		if len(cmd) != 3 || cmd[1] != "-p" {
			return fmt.Errorf("unsupported mkdir %q", cmd)
		}
		return os.MkdirAll(cmd[2], 0o755)
	case s.daemon:
		return s.daemonCmd(cmd[1:], out)
	default:
		return fmt.Errorf("%s: command not found", cmd[0])
	}
}

// shell understands the two scripts the pipeline runs through `sh -c`.
func (s *Sim) shell(script string) error {
	if pipe := strings.SplitN(script, " | ", 2); len(pipe) == 2 && strings.HasPrefix(pipe[0], "echo ") {
		args := strings.Fields(pipe[1])
		if len(args) == 0 || args[0] != s.daemon {
			return fmt.Errorf("unsupported pipe %q", script)
		}
		return s.keysAdd(strings.TrimPrefix(pipe[0], "echo "), args[1:])
	}

	fields := strings.Fields(script)
	if len(fields) == 4 && fields[0] == "cp" && fields[1] == "-r" && strings.HasSuffix(fields[2], "/*") {
		matches, err := filepath.Glob(fields[2])
		if err != nil {
			return err
		}
		if len(matches) == 0 {
			return fmt.Errorf("cp: cannot stat %s: No such file or directory", fields[2])
		}
		for _, m := range matches {
			if err := copyFile(m, filepath.Join(fields[3], filepath.Base(m))); err != nil {
				return err
			}
		}
		return nil
	}
	return fmt.Errorf("unsupported script %q", script)
}

type invocation struct {
	home    string
	chainID string
	args    []string
}

func parseInvocation(args []string) invocation {
	var inv invocation
	for i := 0; i < len(args); i++ {
		arg := args[i]
		switch {
		case strings.HasPrefix(arg, "--home="):
			inv.home = strings.TrimPrefix(arg, "--home=")
		case strings.HasPrefix(arg, "--chain-id="):
			inv.chainID = strings.TrimPrefix(arg, "--chain-id=")
		case arg == "--home" || arg == "--chain-id" || arg == "--keyring-backend":
			if i+1 < len(args) {
				if arg == "--home" {
					inv.home = args[i+1]
				} else if arg == "--chain-id" {
					inv.chainID = args[i+1]
				}
				i++
			}
		case strings.HasPrefix(arg, "--"):
		case arg == "genesis" && len(inv.args) == 0:
			// SDK v0.47+ nests genesis commands
		default:
			inv.args = append(inv.args, arg)
		}
	}
	return inv
}

func (s *Sim) daemonCmd(args []string, out io.Writer) error {
	inv := parseInvocation(args)
	if inv.home == "" {
		return errors.New("--home is required")
	}
	if len(inv.args) == 0 {
		return errors.New("missing subcommand")
	}

	switch sub, rest := inv.args[0], inv.args[1:]; sub {
	case "init":
		if len(rest) != 1 {
			return fmt.Errorf("init: expected moniker, got %q", rest)
		}
		return initHome(inv.home, inv.chainID, rest[0])
	case "add-genesis-account":
		if len(rest) != 2 {
			return fmt.Errorf("add-genesis-account: expected address and coins, got %q", rest)
		}
		return addGenesisAccount(inv.home, rest[0], rest[1])
	case "gentx":
		if len(rest) != 2 {
			return fmt.Errorf("gentx: expected key name and amount, got %q", rest)
		}
		return gentx(inv.home, inv.chainID, rest[0], rest[1])
	case "collect-gentxs":
		return collectGentxs(inv.home)
	case "tendermint":
		if len(rest) != 1 || rest[0] != "show-node-id" {
			return fmt.Errorf("unsupported tendermint command %q", rest)
		}
		id, err := os.ReadFile(filepath.Join(inv.home, "config", "node_key.id"))
		if err != nil {
			return err
		}
		_, err = fmt.Fprintln(out, string(id))
		return err
	default:
		return fmt.Errorf("unknown command %q", sub)
	}
}

func (s *Sim) keysAdd(mnemonic string, args []string) error {
	inv := parseInvocation(args)
	if len(inv.args) != 3 || inv.args[0] != "keys" || inv.args[1] != "add" {
		return fmt.Errorf("unsupported keys command %q", inv.args)
	}
	if inv.home == "" {
		return errors.New("--home is required")
	}
	if len(strings.Fields(mnemonic)) != 12 {
		return errors.New("invalid mnemonic")
	}
	dir := filepath.Join(inv.home, "keyring-test")
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(dir, inv.args[2]+".info"), []byte(mnemonic), 0o600)
}

// NodeID is the id the simulator assigns to the home created with moniker.
func NodeID(moniker string) string {
	sum := sha256.Sum256([]byte("nodesim/" + moniker))
	return hex.EncodeToString(sum[:20])
}

func initHome(home, chainID, moniker string) error {
	configDir := filepath.Join(home, "config")
	if _, err := os.Stat(filepath.Join(configDir, "genesis.json")); err == nil {
		return fmt.Errorf("genesis.json file already exists: %s", filepath.Join(configDir, "genesis.json"))
	}
	for _, dir := range []string{configDir, filepath.Join(home, "data")} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}

	if err := os.WriteFile(filepath.Join(configDir, "genesis.json"), []byte(fmt.Sprintf(genesisTemplate, chainID)), 0o644); err != nil {
		return err
	}
	if err := os.WriteFile(filepath.Join(configDir, "config.toml"), []byte(fmt.Sprintf(ConfigTemplate, moniker)), 0o644); err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(configDir, "node_key.id"), []byte(NodeID(moniker)), 0o600)
}

func addGenesisAccount(home, addr, coins string) error {
	return updateGenesis(home, func(appState map[string]interface{}) error {
		bank := appState["bank"].(map[string]interface{})
		balances, _ := bank["balances"].([]interface{})
		for _, b := range balances {
			if b.(map[string]interface{})["address"] == addr {
				return fmt.Errorf("cannot add account at existing address %s", addr)
			}
		}
		bank["balances"] = append(balances, map[string]interface{}{"address": addr, "coins": coins})
		return nil
	})
}

func gentx(home, chainID, name, amount string) error {
	if _, err := os.Stat(filepath.Join(home, "keyring-test", name+".info")); err != nil {
		return fmt.Errorf("%s is not a valid name or address: key not found", name)
	}
	genesis, err := os.ReadFile(filepath.Join(home, "config", "genesis.json"))
	if err != nil {
		return err
	}
	if !bytes.Contains(genesis, []byte(`"balances"`)) || bytes.Contains(genesis, []byte(`"balances": []`)) {
		return errors.New("account has no genesis balance")
	}

	id, err := os.ReadFile(filepath.Join(home, "config", "node_key.id"))
	if err != nil {
		return err
	}
	dir := filepath.Join(home, "config", "gentx")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	tx, err := json.Marshal(map[string]string{"moniker": name, "chain_id": chainID, "self_delegation": amount})
	if err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(dir, fmt.Sprintf("gentx-%s.json", id)), tx, 0o644)
}

func collectGentxs(home string) error {
	files, err := filepath.Glob(filepath.Join(home, "config", "gentx", "*.json"))
	if err != nil {
		return err
	}
	sort.Strings(files)

	var txs []interface{}
	for _, f := range files {
		bz, err := os.ReadFile(f)
		if err != nil {
			return err
		}
		var tx interface{}
		if err := json.Unmarshal(bz, &tx); err != nil {
			return err
		}
		txs = append(txs, tx)
	}

	return updateGenesis(home, func(appState map[string]interface{}) error {
		appState["genutil"] = map[string]interface{}{"gen_txs": txs}
		return nil
	})
}

func updateGenesis(home string, update func(appState map[string]interface{}) error) error {
	file := filepath.Join(home, "config", "genesis.json")
	bz, err := os.ReadFile(file)
	if err != nil {
		return err
	}
	dec := json.NewDecoder(bytes.NewReader(bz))
	dec.UseNumber()
	var doc map[string]interface{}
	if err := dec.Decode(&doc); err != nil {
		return err
	}
	appState, ok := doc["app_state"].(map[string]interface{})
	if !ok {
		return errors.New("genesis has no app_state")
	}
	if err := update(appState); err != nil {
		return err
	}
	out, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(file, out, 0o644)
}

func copyFile(src, dst string) error {
	bz, err := os.ReadFile(src)
	if err != nil {
		return fmt.Errorf("cp: %w", err)
	}
	if info, err := os.Stat(dst); err == nil && info.IsDir() {
		dst = filepath.Join(dst, filepath.Base(src))
	}
	return os.WriteFile(dst, bz, 0o644)
}

const genesisTemplate = `{
  "genesis_time": "2024-01-01T00:00:00Z",
  "chain_id": %q,
  "initial_height": "1",
  "app_state": {
    "bank": {
      "balances": [],
      "denom_metadata": [],
      "send_enabled": []
    },
    "crisis": {
      "constant_fee": {"denom": "stake", "amount": "1000"}
    },
    "gov": {
      "params": {
        "min_deposit": [{"denom": "stake", "amount": "10000000"}],
        "voting_period": "172800s"
      }
    },
    "mint": {
      "params": {"mint_denom": "stake", "inflation_max": "0.200000000000000000"}
    },
    "staking": {
      "params": {"bond_denom": "stake", "max_validators": 100, "unbonding_time": "1814400s"}
    },
    "genutil": {"gen_txs": []}
  }
}
`

// ConfigTemplate is the config.toml written by init, formatted with the moniker.
const ConfigTemplate = `# This is a TOML config file.
proxy_app = "tcp://127.0.0.1:26658"
moniker = %q
db_backend = "goleveldb"
log_level = "info"

[rpc]
laddr = "tcp://127.0.0.1:26657"
cors_allowed_origins = []
max_open_connections = 900

[p2p]
laddr = "tcp://0.0.0.0:26656"
external_address = ""
seeds = ""
persistent_peers = ""
max_num_inbound_peers = 40
pex = true

[consensus]
timeout_commit = "5s"
create_empty_blocks = true
`

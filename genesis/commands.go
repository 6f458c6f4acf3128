package genesis

import (
	"fmt"
	"path"
)

// Commands builds node binary invocations. Every path is a sandbox path.
type Commands struct {
	Daemon         string
	ChainID        string
	KeyringBackend string
	// Subcommand prefixes genesis commands when set, e.g. "genesis".
	Subcommand string
}

func (c Commands) genesisCmd(name string) []string {
	if c.Subcommand == "" {
		return []string{name}
	}
	return []string{c.Subcommand, name}
}

func (c Commands) Init(home, moniker string) []string {
	return []string{c.Daemon, "init", "--home=" + home, "--chain-id=" + c.ChainID, moniker}
}

// KeysAdd imports mnemonic into the keyring of home under name. The
// mnemonic is fed through a shell pipe since `--recover` reads stdin.
func (c Commands) KeysAdd(home, name, mnemonic string) []string {
	return []string{"sh", "-c", fmt.Sprintf("echo %s | %s keys add --keyring-backend=%s --recover --home=%s %s",
		mnemonic, c.Daemon, c.KeyringBackend, home, name)}
}

func (c Commands) AddGenesisAccount(home, addr, coins string) []string {
	cmd := []string{c.Daemon, "--home=" + home}
	cmd = append(cmd, c.genesisCmd("add-genesis-account")...)
	return append(cmd, addr, coins)
}

func (c Commands) Gentx(home, name, selfDelegation string) []string {
	cmd := []string{c.Daemon, "--home=" + home, "--chain-id", c.ChainID, "--keyring-backend", c.KeyringBackend}
	cmd = append(cmd, c.genesisCmd("gentx")...)
	return append(cmd, name, selfDelegation)
}

func (c Commands) CollectGentxs(home string) []string {
	cmd := []string{c.Daemon, "--home=" + home}
	return append(cmd, c.genesisCmd("collect-gentxs")...)
}

func (c Commands) ShowNodeID(home string) []string {
	return []string{c.Daemon, "tendermint", "show-node-id", "--home=" + home}
}

func Copy(src, dst string) []string {
	return []string{"cp", src, dst}
}

func MkdirAll(dir string) []string {
	return []string{"mkdir", "-p", dir}
}

// CopyDirContents copies every entry of src into dst. The glob needs a shell.
func CopyDirContents(src, dst string) []string {
	return []string{"sh", "-c", fmt.Sprintf("cp -r %s %s", path.Join(src, "*"), dst)}
}

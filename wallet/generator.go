package wallet

import (
	"fmt"

	"github.com/cosmos/cosmos-sdk/crypto/hd"
	sdk "github.com/cosmos/cosmos-sdk/types"
	"github.com/cosmos/cosmos-sdk/types/bech32"
	"github.com/cosmos/go-bip39"

	"github.com/babylonchain/bldr/types"
)

// 128 bits of entropy give a 12 word mnemonic
const entropyBits = 128

// Generator creates validator wallets under one bech32 prefix.
type Generator struct {
	prefix string
}

func NewGenerator(prefix string) *Generator {
	return &Generator{prefix: prefix}
}

// Generate creates a fresh mnemonic and derives its account address.
func (g *Generator) Generate() (types.Wallet, error) {
	mnemonic, err := createMnemonic()
	if err != nil {
		return types.Wallet{}, err
	}
	addr, err := g.DeriveAddress(mnemonic)
	if err != nil {
		return types.Wallet{}, err
	}
	return types.Wallet{Mnemonic: mnemonic, Address: addr}, nil
}

// DeriveAddress returns the address of the first account of mnemonic, the
// same one `keys add --recover` imports.
func (g *Generator) DeriveAddress(mnemonic string) (string, error) {
	if !bip39.IsMnemonicValid(mnemonic) {
		return "", fmt.Errorf("invalid mnemonic")
	}

	derivedPriv, err := hd.Secp256k1.Derive()(mnemonic, "", sdk.FullFundraiserPath)
	if err != nil {
		return "", fmt.Errorf("failed to derive key: %w", err)
	}
	privKey := hd.Secp256k1.Generate()(derivedPriv)

	addr, err := bech32.ConvertAndEncode(g.prefix, privKey.PubKey().Address())
	if err != nil {
		return "", fmt.Errorf("failed to encode address with prefix %q: %w", g.prefix, err)
	}
	return addr, nil
}

func createMnemonic() (string, error) {
	entropySeed, err := bip39.NewEntropy(entropyBits)
	if err != nil {
		return "", err
	}

	mnemonic, err := bip39.NewMnemonic(entropySeed)
	if err != nil {
		return "", err
	}

	return mnemonic, nil
}

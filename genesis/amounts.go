package genesis

import (
	sdkmath "cosmossdk.io/math"
	sdk "github.com/cosmos/cosmos-sdk/types"

	"github.com/babylonchain/bldr/config"
)

// Amounts are the coins a validator is funded and staked with.
type Amounts struct {
	// GentxAccount funds a validator in its private home so it can sign its gentx.
	GentxAccount sdk.Coins
	// GenesisAccount funds every validator again in the canonical genesis.
	GenesisAccount sdk.Coins
	SelfDelegation sdk.Coin
}

// NewAmounts prices the configured amounts in the chain denom and the ops denom.
func NewAmounts(cfg *config.BldrConfig, denom string) Amounts {
	ops := sdk.NewCoin(cfg.OpsDenom, sdkmath.NewIntFromUint64(cfg.OpsAmount))
	return Amounts{
		GentxAccount: sdk.NewCoins(
			sdk.NewCoin(denom, sdkmath.NewIntFromUint64(cfg.GentxAccountAmount)),
		).Add(ops),
		GenesisAccount: sdk.NewCoins(
			sdk.NewCoin(denom, sdkmath.NewIntFromUint64(cfg.GenesisAccountAmount)),
		).Add(ops),
		SelfDelegation: sdk.NewCoin(denom, sdkmath.NewIntFromUint64(cfg.SelfDelegation)),
	}
}

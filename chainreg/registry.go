package chainreg

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"path"
	"strings"
	"time"

	errorsmod "cosmossdk.io/errors"
	sdk "github.com/cosmos/cosmos-sdk/types"
	"go.uber.org/zap"

	"github.com/babylonchain/bldr/types"
)

// registry responses are small, anything larger is not a chain entry
const maxResponseSize = 4 << 20

type chainEntry struct {
	Chain struct {
		Bech32Prefix string `json:"bech32_prefix"`
		NodeHome     string `json:"node_home"`
		DaemonName   string `json:"daemon_name"`
		Denom        string `json:"denom"`
	} `json:"chain"`
}

// Resolver looks chain constants up in a cosmos.directory style registry.
type Resolver struct {
	baseURL string
	client  *http.Client
	logger  *zap.Logger
}

func NewResolver(baseURL string, timeout time.Duration, logger *zap.Logger) *Resolver {
	return &Resolver{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: timeout},
		logger:  logger.With(zap.String("module", "chainreg")),
	}
}

// Resolve performs one lookup for network. Anything short of all four fields
// fails with ErrResolution.
func (r *Resolver) Resolve(ctx context.Context, network string) (types.ChainParams, error) {
	endpoint := r.baseURL + "/" + url.PathEscape(network)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return types.ChainParams{}, errorsmod.Wrapf(types.ErrResolution, "invalid registry url %s: %v", endpoint, err)
	}
	req.Header.Set("Accept", "application/json")

	r.logger.Debug("querying chain registry", zap.String("url", endpoint))
	resp, err := r.client.Do(req)
	if err != nil {
		return types.ChainParams{}, errorsmod.Wrapf(types.ErrResolution, "%s: %v", network, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return types.ChainParams{}, errorsmod.Wrapf(types.ErrResolution, "%s: registry returned %s", network, resp.Status)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return types.ChainParams{}, errorsmod.Wrapf(types.ErrResolution, "%s: %v", network, err)
	}
	var entry chainEntry
	if err := json.Unmarshal(body, &entry); err != nil {
		return types.ChainParams{}, errorsmod.Wrapf(types.ErrResolution, "%s: malformed registry entry: %v", network, err)
	}

	params, err := toChainParams(entry)
	if err != nil {
		return types.ChainParams{}, errorsmod.Wrapf(err, "network %s", network)
	}

	r.logger.Info("resolved chain parameters",
		zap.String("network", network),
		zap.String("daemon", params.Daemon),
		zap.String("denom", params.Denom),
		zap.String("bech32_prefix", params.Bech32Prefix),
		zap.String("home_leaf", params.HomeLeaf),
	)
	return params, nil
}

func toChainParams(entry chainEntry) (types.ChainParams, error) {
	c := entry.Chain
	for field, value := range map[string]string{
		"bech32_prefix": c.Bech32Prefix,
		"node_home":     c.NodeHome,
		"daemon_name":   c.DaemonName,
		"denom":         c.Denom,
	} {
		if strings.TrimSpace(value) == "" {
			return types.ChainParams{}, errorsmod.Wrapf(types.ErrResolution, "chain.%s is missing", field)
		}
	}
	if err := sdk.ValidateDenom(c.Denom); err != nil {
		return types.ChainParams{}, errorsmod.Wrapf(types.ErrResolution, "chain.denom: %v", err)
	}

	params := types.ChainParams{
		Bech32Prefix: c.Bech32Prefix,
		// "$HOME/.osmosisd" -> ".osmosisd"
		HomeLeaf: path.Base(strings.TrimRight(c.NodeHome, "/")),
		Daemon:   c.DaemonName,
		Denom:    c.Denom,
	}
	if err := params.Validate(); err != nil {
		return types.ChainParams{}, err
	}
	return params, nil
}

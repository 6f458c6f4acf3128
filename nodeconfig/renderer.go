package nodeconfig

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/babylonchain/bldr/types"
)

// config.toml keys owned by the renderer; every other key is left as is
const (
	keyPersistentPeers = "p2p.persistent_peers"
	keySeeds           = "p2p.seeds"
	keyRPCListen       = "rpc.laddr"
)

// RPCListenAddress binds the rpc server on every interface of the container.
var RPCListenAddress = fmt.Sprintf("tcp://0.0.0.0:%d", types.RPCPort)

// Renderer rewrites the runtime config of node homes.
type Renderer struct {
	logger *zap.Logger
}

func NewRenderer(logger *zap.Logger) *Renderer {
	return &Renderer{logger: logger.With(zap.String("module", "nodeconfig"))}
}

// Render sets the peers and rpc listen address in the config.toml of home.
// Seeds are cleared since the seeds are already persistent peers.
func (r *Renderer) Render(node string, home types.Home, peers types.PeerLists) error {
	cmtCfgPath := home.ConfigFile().Host

	vpr := viper.New()
	vpr.SetConfigFile(cmtCfgPath)
	if err := vpr.ReadInConfig(); err != nil {
		return fmt.Errorf("failed to read config of %s: %w", node, err)
	}

	persistentPeers := strings.Join(peers.PersistentPeers, ",")
	vpr.Set(keyPersistentPeers, persistentPeers)
	vpr.Set(keySeeds, "")
	vpr.Set(keyRPCListen, RPCListenAddress)

	if err := vpr.WriteConfig(); err != nil {
		return fmt.Errorf("failed to write config of %s: %w", node, err)
	}

	r.logger.Info("rendered node config",
		zap.String("node", node),
		zap.String("path", cmtCfgPath),
		zap.String("persistent_peers", persistentPeers),
	)
	return nil
}

package registry

import (
	"fmt"
	"strings"

	"rockfun/internal/config"
	"rockfun/internal/domain"
	"rockfun/internal/domain/entity"
	domainRepo "rockfun/internal/domain/repository"

	"go.uber.org/zap"
)

// Compile-time check
var _ domainRepo.NetworkRegistry = (*NetworkRegistry)(nil)

// NetworkRegistry serves the networks described in configuration.
type NetworkRegistry struct {
	networks  map[entity.NetworkID]entity.NetworkConfig
	defaultID entity.NetworkID
	logger    *zap.Logger
}

// NewNetworkRegistry builds the registry, validating every configured RPC URL.
func NewNetworkRegistry(cfg config.NetworksConfig, logger *zap.Logger) (*NetworkRegistry, error) {
	l := logger.Named("NetworkRegistry")

	defaultID := entity.NetworkID(strings.ToLower(strings.TrimSpace(cfg.Default)))
	if !defaultID.Valid() {
		return nil, fmt.Errorf("%w: default network %q", domain.ErrInvalidNetworkID, cfg.Default)
	}

	networks := make(map[entity.NetworkID]entity.NetworkConfig, 2)
	for id, raw := range map[entity.NetworkID]config.NetworkConfig{
		entity.NetworkMainnet: cfg.Mainnet,
		entity.NetworkTestnet: cfg.Testnet,
	} {
		n, err := toNetworkConfig(id, raw)
		if err != nil {
			return nil, err
		}
		if !n.KycConfigured() {
			l.Warn("KYC API key not configured, KYC checks disabled for network", zap.String("network", string(id)))
		}
		networks[id] = n
	}

	l.Info("Network registry initialized",
		zap.String("default", string(defaultID)),
		zap.String("mainnetChainId", networks[entity.NetworkMainnet].ChainIDHex),
		zap.String("testnetChainId", networks[entity.NetworkTestnet].ChainIDHex),
	)

	return &NetworkRegistry{networks: networks, defaultID: defaultID, logger: l}, nil
}

func toNetworkConfig(id entity.NetworkID, raw config.NetworkConfig) (entity.NetworkConfig, error) {
	if raw.ChainIDHex == "" {
		return entity.NetworkConfig{}, fmt.Errorf("network %s: chain_id_hex is required", id)
	}

	rpcs := make([]entity.RPCURL, 0, len(raw.RPCURLs))
	for _, u := range raw.RPCURLs {
		rpcURL, err := entity.NewRPCURL(u)
		if err != nil {
			return entity.NetworkConfig{}, fmt.Errorf("network %s: %w", id, err)
		}
		rpcs = append(rpcs, rpcURL)
	}

	var explorers []string
	if raw.ExplorerURL != "" {
		explorers = []string{raw.ExplorerURL}
	}

	return entity.NetworkConfig{
		ID:             id,
		ChainIDHex:     entity.NormalizeChainIDHex(raw.ChainIDHex),
		ChainIDDecimal: raw.ChainIDDecimal,
		ChainName:      raw.ChainName,
		NativeCurrency: entity.NativeCurrency{
			Name:     raw.CurrencyName,
			Symbol:   raw.CurrencySymbol,
			Decimals: raw.Decimals,
		},
		RPCURLs:           rpcs,
		BlockExplorerURLs: explorers,
		KycAPIURL:         raw.KycAPIURL,
		KycAPIKey:         strings.TrimSpace(raw.KycAPIKey),
	}, nil
}

// GetActiveNetworkConfig never fails; unknown ids are logged and fall back to the default.
func (r *NetworkRegistry) GetActiveNetworkConfig(id entity.NetworkID) entity.NetworkConfig {
	if id == "" {
		return r.networks[r.defaultID]
	}
	if n, ok := r.networks[id]; ok {
		return n
	}
	r.logger.Warn("Unknown network id, falling back to default",
		zap.String("networkId", string(id)), zap.String("default", string(r.defaultID)),
	)
	return r.networks[r.defaultID]
}

func (r *NetworkRegistry) Resolve(id entity.NetworkID) (entity.NetworkConfig, error) {
	if id == "" {
		return r.networks[r.defaultID], nil
	}
	n, ok := r.networks[id]
	if !ok {
		return entity.NetworkConfig{}, fmt.Errorf("%w: %q", domain.ErrInvalidNetworkID, id)
	}
	return n, nil
}

func (r *NetworkRegistry) DefaultID() entity.NetworkID {
	return r.defaultID
}

func (r *NetworkRegistry) List() []entity.NetworkConfig {
	return []entity.NetworkConfig{r.networks[entity.NetworkMainnet], r.networks[entity.NetworkTestnet]}
}

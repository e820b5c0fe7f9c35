package port

import (
	"context"

	"rockfun/internal/domain/entity"
)

// NetworkService exposes the configured networks and the health of their RPC endpoints.
type NetworkService interface {
	// ListNetworks returns every configured network.
	ListNetworks() []entity.NetworkConfig

	// GetNetwork returns one network or domain.ErrInvalidNetworkID.
	GetNetwork(id entity.NetworkID) (entity.NetworkConfig, error)

	// GetCheckedRPCs probes the network's RPC endpoints, serving cached results when fresh.
	GetCheckedRPCs(ctx context.Context, id entity.NetworkID) ([]entity.RPCDetail, error)
}

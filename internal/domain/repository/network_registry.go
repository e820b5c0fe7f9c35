package repository

import "rockfun/internal/domain/entity"

// NetworkRegistry is the read-only set of supported networks.
type NetworkRegistry interface {
	// GetActiveNetworkConfig returns the network for id. Empty or unknown ids yield the default network.
	GetActiveNetworkConfig(id entity.NetworkID) entity.NetworkConfig

	// Resolve returns the network for id, the default when id is empty, and domain.ErrInvalidNetworkID otherwise.
	Resolve(id entity.NetworkID) (entity.NetworkConfig, error)

	// DefaultID returns the configured default network id.
	DefaultID() entity.NetworkID

	// List returns every configured network, mainnet first.
	List() []entity.NetworkConfig
}

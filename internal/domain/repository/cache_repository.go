package repository

import (
	"context"
	"time"

	"rockfun/internal/domain/entity"
)

// CacheRepository defines the interface for in-process caching of KYC lookups and RPC probe results.
type CacheRepository interface {
	// GetKycStatus retrieves the cached KYC status for an account on a network.
	GetKycStatus(ctx context.Context, network entity.NetworkID, account string) (*entity.KycStatus, bool, error)

	// SetKycStatus stores a KYC status. A zero ttl keeps it until explicitly cleared.
	SetKycStatus(ctx context.Context, network entity.NetworkID, account string, status *entity.KycStatus, ttl time.Duration) error

	// ClearKycStatuses drops every cached KYC status.
	ClearKycStatuses(ctx context.Context) error

	// GetNetworkCheckedRPCs retrieves the cached RPC probe results for a network.
	GetNetworkCheckedRPCs(ctx context.Context, network entity.NetworkID) ([]entity.RPCDetail, bool, error)

	// SetNetworkCheckedRPCs stores RPC probe results for a network with a specified TTL.
	SetNetworkCheckedRPCs(ctx context.Context, network entity.NetworkID, rpcs []entity.RPCDetail, ttl time.Duration) error
}

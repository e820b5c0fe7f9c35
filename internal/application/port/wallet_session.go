package port

import (
	"context"

	"rockfun/internal/domain/entity"
	domainService "rockfun/internal/domain/service"
)

// WalletSession owns one wallet provider and the connection state derived from it.
type WalletSession interface {
	// Start begins consuming provider events and auto-connects when the wallet is already authorized.
	Start(ctx context.Context) error

	// Connect requests account authorization and runs the initialization routine.
	Connect(ctx context.Context) error

	// Disconnect clears local state without revoking the provider's authorization.
	Disconnect(ctx context.Context) error

	// SwitchNetwork changes the target network and asks the wallet to follow.
	SwitchNetwork(ctx context.Context, id entity.NetworkID) error

	// CheckKyc re-runs the KYC lookup for the current account and target network.
	CheckKyc(ctx context.Context) (*entity.KycStatus, error)

	// State returns the current immutable snapshot.
	State() entity.WalletState

	// TargetNetwork returns the network the session expects the wallet to be on.
	TargetNetwork() entity.NetworkConfig

	// Provider returns the underlying wallet provider.
	Provider() domainService.Provider

	// Subscribe delivers every new snapshot until the returned func is called.
	Subscribe() (<-chan entity.WalletState, func())

	// Close stops the session loop and releases provider subscriptions.
	Close() error
}

package service

import (
	"context"

	"rockfun/internal/domain/entity"
)

// KycUpstream performs the raw lookup against a network's KYC API.
type KycUpstream interface {
	// Lookup returns the upstream HTTP status, status text and body. err is set only on transport failure.
	Lookup(ctx context.Context, network entity.NetworkConfig, address string) (status int, statusText string, body []byte, err error)
}

// KycChecker resolves an account's KYC status through the relay.
type KycChecker interface {
	Check(ctx context.Context, network entity.NetworkConfig, address string) (*entity.KycStatus, error)
}

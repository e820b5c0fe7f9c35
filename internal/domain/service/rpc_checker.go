package service

import (
	"context"
	"time"

	"rockfun/internal/domain/entity"
)

// RPCChecker defines the interface for checking RPC endpoint status.
type RPCChecker interface {
	// CheckRPC probes the endpoint with eth_chainId and returns the reported chain id.
	CheckRPC(ctx context.Context, rpcURL entity.RPCURL) (chainIDHex string, latency time.Duration, err error)
}

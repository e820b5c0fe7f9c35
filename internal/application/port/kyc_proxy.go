package port

import (
	"context"
	"encoding/json"
)

// KycProxyService relays a KYC lookup to the network's upstream API without exposing the API key.
type KycProxyService interface {
	// Proxy returns the upstream JSON body unchanged. Failures are *domain.ProxyError values.
	Proxy(ctx context.Context, address, networkID string) (json.RawMessage, error)
}

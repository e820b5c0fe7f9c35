package application

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"rockfun/internal/application/port"
	"rockfun/internal/domain"
	"rockfun/internal/domain/entity"
	domainRepo "rockfun/internal/domain/repository"
	domainService "rockfun/internal/domain/service"
	"rockfun/internal/metrics"

	"go.uber.org/zap"
)

// Compile-time check
var _ port.KycProxyService = (*kycProxyService)(nil)

type kycProxyService struct {
	registry domainRepo.NetworkRegistry
	upstream domainService.KycUpstream
	logger   *zap.Logger
}

// NewKycProxyService creates the KYC relay.
func NewKycProxyService(
	registry domainRepo.NetworkRegistry,
	upstream domainService.KycUpstream,
	logger *zap.Logger,
) port.KycProxyService {
	return &kycProxyService{
		registry: registry,
		upstream: upstream,
		logger:   logger.Named("KycProxyService"),
	}
}

// Proxy validates the request, forwards it upstream and relays the JSON body.
func (s *kycProxyService) Proxy(ctx context.Context, address, networkID string) (json.RawMessage, error) {
	network, err := s.registry.Resolve(entity.NetworkID(strings.ToLower(strings.TrimSpace(networkID))))
	if err != nil {
		s.logger.Warn("Rejected KYC proxy request for unknown network", zap.String("networkId", networkID))
		metrics.KycProxyResults.WithLabelValues("unknown", "bad_request").Inc()
		return nil, &domain.ProxyError{
			Status:  400,
			Message: fmt.Sprintf("Unknown networkId %q", networkID),
			Err:     err,
		}
	}
	networkLabel := string(network.ID)

	address = strings.TrimSpace(address)
	if address == "" {
		metrics.KycProxyResults.WithLabelValues(networkLabel, "bad_request").Inc()
		return nil, &domain.ProxyError{Status: 400, Message: "Address parameter is required"}
	}

	if !network.KycConfigured() {
		s.logger.Error("KYC API key missing for network", zap.String("network", networkLabel))
		metrics.KycProxyResults.WithLabelValues(networkLabel, "config_missing").Inc()
		return nil, &domain.ProxyError{
			Status:  500,
			Message: "API key for KYC check is not configured on the server",
			Err:     domain.ErrKycConfigMissing,
		}
	}

	start := time.Now()
	status, statusText, body, err := s.upstream.Lookup(ctx, network, address)
	metrics.KycUpstreamDuration.WithLabelValues(networkLabel).Observe(time.Since(start).Seconds())
	if err != nil {
		s.logger.Error("KYC upstream fetch failed",
			zap.String("network", networkLabel), zap.String("address", address), zap.Error(err),
		)
		metrics.KycProxyResults.WithLabelValues(networkLabel, "fetch_error").Inc()
		return nil, &domain.ProxyError{
			Status:  500,
			Message: fmt.Sprintf("Proxy fetch error: %v", err),
			Err:     fmt.Errorf("%w: %v", domain.ErrKycUpstream, err),
		}
	}

	s.logger.Debug("KYC upstream responded",
		zap.String("network", networkLabel), zap.Int("status", status), zap.Int("bodyBytes", len(body)),
	)

	if status < 200 || status > 299 {
		metrics.KycProxyResults.WithLabelValues(networkLabel, "upstream_error").Inc()
		return nil, &domain.ProxyError{
			Status:  status,
			Message: fmt.Sprintf("Upstream API Error: %d %s", status, statusText),
			Details: string(body),
			Err:     domain.ErrKycUpstream,
		}
	}

	if !json.Valid(body) {
		s.logger.Error("KYC upstream returned a body that is not JSON",
			zap.String("network", networkLabel), zap.ByteString("body", body),
		)
		metrics.KycProxyResults.WithLabelValues(networkLabel, "malformed").Inc()
		return nil, &domain.ProxyError{
			Status:      500,
			Message:     "Failed to parse JSON response from upstream API",
			RawResponse: string(body),
			Err:         domain.ErrKycMalformedResponse,
		}
	}

	metrics.KycProxyResults.WithLabelValues(networkLabel, "ok").Inc()
	return json.RawMessage(body), nil
}

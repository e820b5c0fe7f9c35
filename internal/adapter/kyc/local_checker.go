package kyc

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"rockfun/internal/application/port"
	"rockfun/internal/domain"
	"rockfun/internal/domain/entity"
	domainService "rockfun/internal/domain/service"
	"rockfun/internal/pkg/apperrors"

	"go.uber.org/zap"
)

// Compile-time check
var _ domainService.KycChecker = (*LocalChecker)(nil)

// LocalChecker runs the relay in-process, for when no proxy URL is configured.
type LocalChecker struct {
	proxy  port.KycProxyService
	logger *zap.Logger
}

// NewLocalChecker wraps an in-process KYC relay.
func NewLocalChecker(proxy port.KycProxyService, logger *zap.Logger) *LocalChecker {
	return &LocalChecker{proxy: proxy, logger: logger.Named("KycLocalChecker")}
}

func (c *LocalChecker) Check(ctx context.Context, network entity.NetworkConfig, address string) (*entity.KycStatus, error) {
	body, err := c.proxy.Proxy(ctx, address, string(network.ID))
	if err != nil {
		var pe *domain.ProxyError
		if !errors.As(err, &pe) {
			return nil, err
		}
		if errors.Is(pe, domain.ErrKycConfigMissing) {
			c.logger.Warn("KYC API key is missing", zap.String("network", string(network.ID)))
			return entity.FailedKycStatus("KYC check not configured.", time.Now()), nil
		}
		return entity.FailedKycStatus(pe.Message, time.Now()), nil
	}
	return decodeStatus(body)
}

// decodeStatus interprets a relayed upstream body.
func decodeStatus(body []byte) (*entity.KycStatus, error) {
	var resp entity.KycAPIResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("%w: kyc response: %v", apperrors.ErrMalformedResponse, err)
	}
	return entity.KycStatusFromResponse(resp, time.Now()), nil
}

package kyc

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"time"

	"rockfun/internal/config"
	"rockfun/internal/domain/entity"
	domainService "rockfun/internal/domain/service"
	"rockfun/internal/pkg/apperrors"

	"github.com/valyala/fasthttp"
	"go.uber.org/zap"
)

// Compile-time check
var _ domainService.KycChecker = (*ProxyClient)(nil)

// ProxyClient queries a remote KYC relay over HTTP.
type ProxyClient struct {
	client   *fasthttp.Client
	proxyURL string
	timeout  time.Duration
	logger   *zap.Logger
}

// NewProxyClient creates a client for the relay at cfg.ProxyURL.
func NewProxyClient(cfg config.KycConfig, logger *zap.Logger) *ProxyClient {
	timeout := cfg.GetClientTimeout()
	if timeout <= 0 {
		timeout = 20 * time.Second
	}
	return &ProxyClient{
		client:   &fasthttp.Client{Name: "rockfun-gemctl"},
		proxyURL: cfg.ProxyURL,
		timeout:  timeout,
		logger:   logger.Named("KycProxyClient"),
	}
}

// Check returns a status whose Error explains any relay-side failure. err is set only on transport or decode failure.
func (c *ProxyClient) Check(ctx context.Context, network entity.NetworkConfig, address string) (*entity.KycStatus, error) {
	u, err := url.Parse(c.proxyURL)
	if err != nil {
		return nil, fmt.Errorf("%w: kyc proxy url: %v", apperrors.ErrInvalidInput, err)
	}
	q := u.Query()
	q.Set("address", address)
	q.Set("networkId", string(network.ID))
	u.RawQuery = q.Encode()

	req := fasthttp.AcquireRequest()
	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseRequest(req)
	defer fasthttp.ReleaseResponse(resp)

	req.SetRequestURI(u.String())
	req.Header.SetMethod(fasthttp.MethodGet)
	req.Header.Set(fasthttp.HeaderAccept, "application/json")

	timeout := c.timeout
	if deadline, ok := ctx.Deadline(); ok {
		if remaining := time.Until(deadline); remaining < timeout {
			timeout = remaining
		}
	}
	if timeout <= 0 {
		return nil, fmt.Errorf("%w: kyc proxy: %v", apperrors.ErrTimeout, ctx.Err())
	}

	if err := c.client.DoTimeout(req, resp, timeout); err != nil {
		c.logger.Warn("KYC proxy request failed", zap.String("network", string(network.ID)), zap.Error(err))
		if errors.Is(err, fasthttp.ErrTimeout) {
			return nil, fmt.Errorf("%w: kyc proxy timed out after %v", apperrors.ErrTimeout, timeout)
		}
		return nil, fmt.Errorf("%w: kyc proxy: %v", apperrors.ErrExternalServiceFailure, err)
	}

	status := resp.StatusCode()
	body := resp.Body()
	if status < 200 || status > 299 {
		msg := proxyErrorMessage(status, body)
		c.logger.Warn("KYC proxy returned error",
			zap.String("network", string(network.ID)), zap.Int("status", status), zap.String("message", msg),
		)
		return entity.FailedKycStatus(msg, time.Now()), nil
	}

	return decodeStatus(body)
}

// proxyErrorMessage prefers the relay's {message} and falls back to the raw body.
func proxyErrorMessage(status int, body []byte) string {
	var payload struct {
		Message string `json:"message"`
	}
	if err := json.Unmarshal(body, &payload); err == nil && payload.Message != "" {
		return payload.Message
	}
	if len(body) > 0 {
		return string(body)
	}
	return fmt.Sprintf("KYC proxy request failed: %d %s", status, fasthttp.StatusMessage(status))
}

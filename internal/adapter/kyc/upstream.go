package kyc

import (
	"context"
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
var _ domainService.KycUpstream = (*Upstream)(nil)

// Upstream queries a Graphite network's account KYC API.
type Upstream struct {
	client  *fasthttp.Client
	timeout time.Duration
	logger  *zap.Logger
}

// NewUpstream creates the upstream KYC client.
func NewUpstream(cfg config.KycConfig, logger *zap.Logger) *Upstream {
	timeout := cfg.GetUpstreamTimeout()
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &Upstream{
		client: &fasthttp.Client{
			Name:        "rockfun-kyc-proxy",
			ReadTimeout: timeout,
		},
		timeout: timeout,
		logger:  logger.Named("KycUpstream"),
	}
}

// LookupURL builds the upstream query for address. The key is part of the query string.
func LookupURL(network entity.NetworkConfig, address string) (string, error) {
	u, err := url.Parse(network.KycAPIURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return "", fmt.Errorf("%w: kyc api url for %s is not a valid absolute url", apperrors.ErrInvalidInput, network.ID)
	}
	q := u.Query()
	q.Set("module", "account")
	q.Set("action", "kyc")
	q.Set("address", address)
	q.Set("tag", "latest")
	q.Set("apikey", network.KycAPIKey)
	u.RawQuery = q.Encode()
	return u.String(), nil
}

func (u *Upstream) Lookup(
	ctx context.Context,
	network entity.NetworkConfig,
	address string,
) (int, string, []byte, error) {
	target, err := LookupURL(network, address)
	if err != nil {
		return 0, "", nil, err
	}

	req := fasthttp.AcquireRequest()
	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseRequest(req)
	defer fasthttp.ReleaseResponse(resp)

	req.SetRequestURI(target)
	req.Header.SetMethod(fasthttp.MethodGet)
	req.Header.Set(fasthttp.HeaderAccept, "application/json")

	timeout := u.timeout
	if deadline, ok := ctx.Deadline(); ok {
		if remaining := time.Until(deadline); remaining < timeout {
			timeout = remaining
		}
	}
	if timeout <= 0 {
		return 0, "", nil, fmt.Errorf("%w: kyc lookup for %s: %v", apperrors.ErrTimeout, network.ID, ctx.Err())
	}

	// The api key is in the query string, so only the network and address are logged.
	u.logger.Debug("Forwarding KYC lookup",
		zap.String("network", string(network.ID)), zap.String("address", address),
	)

	if err := u.client.DoTimeout(req, resp, timeout); err != nil {
		if errors.Is(err, fasthttp.ErrTimeout) {
			return 0, "", nil, fmt.Errorf("%w: kyc lookup for %s timed out after %v: %v",
				apperrors.ErrTimeout, network.ID, timeout, err,
			)
		}
		return 0, "", nil, fmt.Errorf("%w: kyc lookup for %s failed: %v",
			apperrors.ErrExternalServiceFailure, network.ID, err,
		)
	}

	status := resp.StatusCode()
	body := append([]byte(nil), resp.Body()...)
	return status, fasthttp.StatusMessage(status), body, nil
}

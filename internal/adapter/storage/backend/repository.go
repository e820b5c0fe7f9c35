package backend

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	dto "rockfun/internal/adapter/storage/backend/dto"
	"rockfun/internal/config"
	"rockfun/internal/domain"
	"rockfun/internal/domain/entity"
	domainRepo "rockfun/internal/domain/repository"
	"rockfun/internal/pkg/apperrors"

	"github.com/valyala/fasthttp"
	"go.uber.org/zap"
)

// Compile-time check
var _ domainRepo.GemRepository = (*Repository)(nil)

const defaultTimeout = 15 * time.Second

// Repository implements GemRepository against the rock.fun backend REST API.
type Repository struct {
	client  *fasthttp.Client
	baseURL string
	jwt     string
	timeout time.Duration
	logger  *zap.Logger
}

// NewRepository creates a backend repository instance.
func NewRepository(cfg config.BackendConfig, logger *zap.Logger) domainRepo.GemRepository {
	timeout := cfg.GetTimeout()
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Repository{
		client:  &fasthttp.Client{Name: "rockfun-gemctl"},
		baseURL: strings.TrimRight(cfg.URL, "/"),
		jwt:     cfg.JWT,
		timeout: timeout,
		logger:  logger.Named("BackendStorage"),
	}
}

// CreateGem stores a deployed gem.
func (r *Repository) CreateGem(ctx context.Context, req entity.CreateGemRequest) (*entity.Gem, error) {
	body, err := json.Marshal(toCreateGemRaw(req))
	if err != nil {
		return nil, fmt.Errorf("%w: encode create gem request: %v", apperrors.ErrInternal, err)
	}

	var env dto.Envelope[*dto.GemRaw]
	if err := r.do(ctx, fasthttp.MethodPost, "/api/v1/gems/create", nil, body, &env); err != nil {
		return nil, err
	}
	if env.Data == nil {
		r.logger.Warn("Backend accepted gem without echoing it", zap.String("contract", req.ContractAddress))
		gem := entity.Gem{
			ContractAddress: req.ContractAddress,
			Name:            req.Name,
			Symbol:          req.Symbol,
			Decimals:        req.Decimals,
			TotalSupply:     req.TotalSupply,
			CreatorAddress:  req.CreatorAddress,
			NetworkChainID:  req.NetworkChainID,
			TransactionHash: req.TransactionHash,
			ImageURL:        req.ImageURL,
		}
		return &gem, nil
	}
	gem := toDomainGem(*env.Data)
	return &gem, nil
}

// GetGemsByCreator lists gems created by an address.
func (r *Repository) GetGemsByCreator(ctx context.Context, creator string) ([]entity.Gem, error) {
	var env dto.Envelope[[]dto.GemRaw]
	if err := r.do(ctx, fasthttp.MethodGet, "/api/v1/gems/creator/"+url.PathEscape(creator), nil, nil, &env); err != nil {
		return nil, err
	}
	return toDomainGems(env.Data), nil
}

// GetGemByContract fetches a single gem; a null data field means not found.
func (r *Repository) GetGemByContract(ctx context.Context, contract string) (*entity.Gem, error) {
	var env dto.Envelope[*dto.GemRaw]
	err := r.do(ctx, fasthttp.MethodGet, "/api/v1/gems/contract/"+url.PathEscape(contract), nil, nil, &env)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, fmt.Errorf("%w: %s", domain.ErrGemNotFound, contract)
		}
		return nil, err
	}
	if env.Data == nil {
		return nil, fmt.Errorf("%w: %s", domain.ErrGemNotFound, contract)
	}
	gem := toDomainGem(*env.Data)
	return &gem, nil
}

// GetAllGems fetches one page of the global listing. Zero page or limit leaves the backend default.
func (r *Repository) GetAllGems(ctx context.Context, page, limit int) (*entity.GemPage, error) {
	query := url.Values{}
	if page > 0 {
		query.Set("page", strconv.Itoa(page))
	}
	if limit > 0 {
		query.Set("limit", strconv.Itoa(limit))
	}

	var env dto.Envelope[dto.PaginatedGemsRaw]
	if err := r.do(ctx, fasthttp.MethodGet, "/api/v1/gems", query, nil, &env); err != nil {
		return nil, err
	}
	return &entity.GemPage{
		Gems:  toDomainGems(env.Data.Gems),
		Total: env.Data.Total,
		Page:  env.Data.Page,
		Pages: env.Data.Pages,
	}, nil
}

func (r *Repository) do(ctx context.Context, method, path string, query url.Values, body []byte, out any) error {
	req := fasthttp.AcquireRequest()
	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseRequest(req)
	defer fasthttp.ReleaseResponse(resp)

	uri := r.baseURL + path
	if len(query) > 0 {
		uri += "?" + query.Encode()
	}
	req.SetRequestURI(uri)
	req.Header.SetMethod(method)
	req.Header.Set(fasthttp.HeaderAccept, "application/json")
	req.Header.Set("ngrok-skip-browser-warning", "true")
	if r.jwt != "" {
		req.Header.Set(fasthttp.HeaderAuthorization, "Bearer "+r.jwt)
	}
	if body != nil {
		req.Header.SetContentType("application/json")
		req.SetBody(body)
	}

	timeout := r.timeout
	if deadline, ok := ctx.Deadline(); ok {
		if remaining := time.Until(deadline); remaining < timeout {
			timeout = remaining
		}
	}
	if timeout <= 0 {
		return fmt.Errorf("%w: %s %s: %v", apperrors.ErrTimeout, method, path, ctx.Err())
	}

	r.logger.Debug("Calling backend", zap.String("method", method), zap.String("path", path))

	if err := r.client.DoTimeout(req, resp, timeout); err != nil {
		r.logger.Error("Failed to execute request to backend", zap.String("path", path), zap.Error(err))
		if errors.Is(err, fasthttp.ErrTimeout) {
			return fmt.Errorf("%w: %s %s timed out after %v", apperrors.ErrTimeout, method, path, timeout)
		}
		return fmt.Errorf("%w: %s %s: %v", apperrors.ErrExternalServiceFailure, method, path, err)
	}

	status := resp.StatusCode()
	switch {
	case status == fasthttp.StatusNotFound:
		return fmt.Errorf("%w: %s %s", apperrors.ErrNotFound, method, path)
	case status == fasthttp.StatusUnauthorized || status == fasthttp.StatusForbidden:
		return fmt.Errorf("%w: backend returned %d", apperrors.ErrUnauthorized, status)
	case status < 200 || status > 299:
		r.logger.Error("Backend returned non-OK status",
			zap.String("path", path), zap.Int("statusCode", status), zap.ByteString("body", resp.Body()),
		)
		return fmt.Errorf("%w: backend returned status %d: %s",
			apperrors.ErrExternalServiceFailure, status, backendMessage(resp.Body()),
		)
	}

	if err := json.Unmarshal(resp.Body(), out); err != nil {
		r.logger.Error("Failed to unmarshal backend response", zap.String("path", path), zap.Error(err))
		return fmt.Errorf("%w: %s %s: %v", apperrors.ErrMalformedResponse, method, path, err)
	}
	return nil
}

// backendMessage extracts the envelope message from an error body when there is one.
func backendMessage(body []byte) string {
	var env dto.Envelope[json.RawMessage]
	if err := json.Unmarshal(body, &env); err == nil && env.Message != "" {
		return env.Message
	}
	if len(body) > 256 {
		body = body[:256]
	}
	return string(body)
}

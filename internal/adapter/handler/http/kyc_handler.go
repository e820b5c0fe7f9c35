package http

import (
	"errors"

	"rockfun/internal/application/port"
	"rockfun/internal/domain"

	"github.com/valyala/fasthttp"
	"go.uber.org/zap"
)

type KycHandler struct {
	proxy  port.KycProxyService
	logger *zap.Logger
}

func NewKycHandler(proxy port.KycProxyService, logger *zap.Logger) *KycHandler {
	return &KycHandler{
		proxy:  proxy,
		logger: logger.Named("KycHandler"),
	}
}

// Proxy relays GET /kyc-proxy?address=&networkId= to the network's KYC API.
func (h *KycHandler) Proxy(ctx *fasthttp.RequestCtx) {
	args := ctx.QueryArgs()
	address := string(args.Peek("address"))
	networkID := string(args.Peek("networkId"))

	body, err := h.proxy.Proxy(ctx, address, networkID)
	if err == nil {
		writeRawJSON(ctx, fasthttp.StatusOK, body)
		return
	}

	var proxyErr *domain.ProxyError
	if !errors.As(err, &proxyErr) {
		h.logger.Error("Unexpected KYC proxy failure", zap.Error(err))
		writeError(ctx, h.logger, fasthttp.StatusInternalServerError, "Internal Server Error")
		return
	}

	status := proxyErr.Status
	if status == 0 {
		status = fasthttp.StatusInternalServerError
	}
	writeJSON(ctx, h.logger, status, errorResponse{
		Message:     proxyErr.Message,
		Details:     proxyErr.Details,
		RawResponse: proxyErr.RawResponse,
	})
}

package http

import (
	"errors"

	"rockfun/internal/application/port"
	"rockfun/internal/domain"
	"rockfun/internal/domain/entity"

	"github.com/valyala/fasthttp"
	"go.uber.org/zap"
)

type NetworkHandler struct {
	service port.NetworkService
	logger  *zap.Logger
}

func NewNetworkHandler(service port.NetworkService, logger *zap.Logger) *NetworkHandler {
	return &NetworkHandler{
		service: service,
		logger:  logger.Named("NetworkHandler"),
	}
}

// ListNetworks handles requests for all configured networks
func (h *NetworkHandler) ListNetworks(ctx *fasthttp.RequestCtx) {
	writeJSON(ctx, h.logger, fasthttp.StatusOK, h.service.ListNetworks())
}

// GetNetwork handles requests for a single network by id
func (h *NetworkHandler) GetNetwork(ctx *fasthttp.RequestCtx) {
	id, ok := h.networkID(ctx)
	if !ok {
		return
	}

	network, err := h.service.GetNetwork(id)
	if err != nil {
		h.notFoundOrError(ctx, id, err)
		return
	}
	writeJSON(ctx, h.logger, fasthttp.StatusOK, network)
}

// GetNetworkRPCs handles requests for the health of a network's RPC endpoints
func (h *NetworkHandler) GetNetworkRPCs(ctx *fasthttp.RequestCtx) {
	id, ok := h.networkID(ctx)
	if !ok {
		return
	}

	rpcs, err := h.service.GetCheckedRPCs(ctx, id)
	if err != nil {
		h.notFoundOrError(ctx, id, err)
		return
	}
	writeJSON(ctx, h.logger, fasthttp.StatusOK, rpcs)
}

func (h *NetworkHandler) networkID(ctx *fasthttp.RequestCtx) (entity.NetworkID, bool) {
	raw, ok := ctx.UserValue("networkId").(string)
	if !ok || raw == "" {
		h.logger.Error("Failed to get networkId from context")
		writeError(ctx, h.logger, fasthttp.StatusBadRequest, "Bad Request: missing networkId")
		return "", false
	}
	return entity.NetworkID(raw), true
}

func (h *NetworkHandler) notFoundOrError(ctx *fasthttp.RequestCtx, id entity.NetworkID, err error) {
	if errors.Is(err, domain.ErrInvalidNetworkID) {
		h.logger.Warn("Unknown network requested", zap.String("networkId", string(id)))
		writeError(ctx, h.logger, fasthttp.StatusNotFound, "Not Found")
		return
	}
	h.logger.Error("Failed to serve network request", zap.String("networkId", string(id)), zap.Error(err))
	writeError(ctx, h.logger, fasthttp.StatusInternalServerError, "Internal Server Error")
}

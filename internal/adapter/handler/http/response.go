package http

import (
	"encoding/json"

	"github.com/valyala/fasthttp"
	"go.uber.org/zap"
)

type errorResponse struct {
	Message     string `json:"message"`
	Details     string `json:"details,omitempty"`
	RawResponse string `json:"rawResponse,omitempty"`
}

func writeJSON(ctx *fasthttp.RequestCtx, logger *zap.Logger, status int, v any) {
	ctx.SetContentType("application/json")
	ctx.SetStatusCode(status)
	if err := json.NewEncoder(ctx).Encode(v); err != nil {
		logger.Error("Failed to encode response", zap.Error(err))
	}
}

func writeRawJSON(ctx *fasthttp.RequestCtx, status int, body []byte) {
	ctx.SetContentType("application/json")
	ctx.SetStatusCode(status)
	ctx.SetBody(body)
}

func writeError(ctx *fasthttp.RequestCtx, logger *zap.Logger, status int, message string) {
	writeJSON(ctx, logger, status, errorResponse{Message: message})
}

package http

import (
	"strconv"
	"time"

	handler "rockfun/internal/adapter/handler/http"
	"rockfun/internal/config"
	"rockfun/internal/metrics"

	"github.com/fasthttp/router"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/valyala/fasthttp"
	"github.com/valyala/fasthttp/fasthttpadaptor"
	"go.uber.org/zap"
)

const requestIDHeader = "X-Request-ID"

// RegisterRoutes sets up the relay, network and health routes.
func RegisterRoutes(
	r *router.Router,
	networks *handler.NetworkHandler,
	kyc *handler.KycHandler,
	metricsCfg config.MetricsConfig,
	logger *zap.Logger,
) {
	logger.Info("Setting up application-specific routes...")
	r.SaveMatchedRoutePath = true

	r.GET("/kyc-proxy", kyc.Proxy)
	r.GET("/networks", networks.ListNetworks)
	r.GET("/networks/{networkId}", networks.GetNetwork)
	r.GET("/networks/{networkId}/rpcs", networks.GetNetworkRPCs)

	logger.Info("Setting up health check route...")
	r.GET("/health", func(ctx *fasthttp.RequestCtx) {
		ctx.SetStatusCode(fasthttp.StatusOK)
		ctx.SetBodyString("OK")
	})

	if metricsCfg.Enabled {
		path := metricsCfg.Path
		if path == "" {
			path = "/metrics"
		}
		logger.Info("Setting up metrics route...", zap.String("path", path))
		r.GET(path, fasthttpadaptor.NewFastHTTPHandler(promhttp.Handler()))
	}

	logger.Info("All routes registered.")
}

// Middleware tags each request with an id, logs it and records its metrics.
func Middleware(next fasthttp.RequestHandler, logger *zap.Logger) fasthttp.RequestHandler {
	return func(ctx *fasthttp.RequestCtx) {
		start := time.Now()

		requestID := string(ctx.Request.Header.Peek(requestIDHeader))
		if requestID == "" {
			requestID = uuid.NewString()
		}
		ctx.Response.Header.Set(requestIDHeader, requestID)

		next(ctx)

		method := string(ctx.Method())
		path := routePath(ctx)
		status := ctx.Response.StatusCode()
		elapsed := time.Since(start)

		metrics.HTTPRequestsTotal.WithLabelValues(method, path, strconv.Itoa(status)).Inc()
		metrics.HTTPRequestDuration.WithLabelValues(method, path).Observe(elapsed.Seconds())

		logger.Info("Request handled",
			zap.String("requestId", requestID),
			zap.String("method", method),
			zap.ByteString("uri", ctx.RequestURI()),
			zap.Int("status", status),
			zap.Duration("duration", elapsed))
	}
}

// routePath keeps metric label cardinality bounded by using the matched route pattern.
func routePath(ctx *fasthttp.RequestCtx) string {
	if p, ok := ctx.UserValue(router.MatchedRoutePathParam).(string); ok && p != "" {
		return p
	}
	return "unmatched"
}

package rpc

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"rockfun/internal/config"
	"rockfun/internal/domain/entity"
	domainService "rockfun/internal/domain/service"
	"rockfun/internal/pkg/apperrors"

	"github.com/gorilla/websocket"
	"github.com/valyala/fasthttp"
	"go.uber.org/zap"
)

// Compile-time check
var _ domainService.RPCChecker = (*Checker)(nil)

// Checker implements the domainService.RPCChecker interface.
type Checker struct {
	client  *fasthttp.Client
	timeout time.Duration
	logger  *zap.Logger
}

// NewChecker creates a new RPC checker instance.
func NewChecker(cfg config.CheckerConfig, logger *zap.Logger) domainService.RPCChecker {
	timeout := cfg.GetTimeout()
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Checker{
		client: &fasthttp.Client{
			ReadTimeout: timeout,
		},
		timeout: timeout,
		logger:  logger.Named("RPCCheckerAdapter"),
	}
}

// checkPayload asks the node which chain it serves.
var checkPayload = []byte(`{"jsonrpc":"2.0","method":"eth_chainId","params":[],"id":1}`)

// JSONRPCResponse defines the basic structure for a JSON-RPC response.
type JSONRPCResponse struct {
	ID      interface{}     `json:"id"`
	Jsonrpc string          `json:"jsonrpc"`
	Result  json.RawMessage `json:"result,omitempty"`
	Error   *JSONRPCError   `json:"error,omitempty"`
}

// JSONRPCError defines the structure for a JSON-RPC error.
type JSONRPCError struct {
	Code    int         `json:"code"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

// CheckRPC dispatches on the endpoint protocol and returns the chain id the node reports.
func (c *Checker) CheckRPC(ctx context.Context, rpcURL entity.RPCURL) (string, time.Duration, error) {
	startTime := time.Now()
	rawURL := rpcURL.String()

	switch rpcURL.Protocol() {
	case entity.ProtocolWS, entity.ProtocolWSS:
		return c.checkWS(ctx, rawURL, startTime)
	case entity.ProtocolHTTP, entity.ProtocolHTTPS:
		return c.checkHTTP(ctx, rawURL, startTime)
	}

	c.logger.Warn("Skipping check for unsupported protocol in validated RPCURL", zap.String("url", rawURL))
	return "", 0, fmt.Errorf("%w: unsupported protocol in URL %s", apperrors.ErrInvalidInput, rawURL)
}

// checkHTTP performs the JSON-RPC check over HTTP/HTTPS.
func (c *Checker) checkHTTP(ctx context.Context, rpcURL string, startTime time.Time) (string, time.Duration, error) {
	req := fasthttp.AcquireRequest()
	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseRequest(req)
	defer fasthttp.ReleaseResponse(resp)

	req.SetRequestURI(rpcURL)
	req.Header.SetMethod(fasthttp.MethodPost)
	req.Header.SetContentType("application/json")
	req.SetBody(checkPayload)

	timeout := effectiveTimeout(ctx, c.timeout)
	requestErr := c.client.DoTimeout(req, resp, timeout)
	latency := time.Since(startTime)

	if requestErr != nil {
		if errors.Is(requestErr, fasthttp.ErrTimeout) {
			c.logger.Debug("HTTP RPC check timed out",
				zap.String("url", rpcURL), zap.Duration("timeout", timeout), zap.Error(requestErr),
			)
			return "", latency, fmt.Errorf("%w: http request to %s timed out after %v: %v",
				apperrors.ErrTimeout, rpcURL, timeout, requestErr,
			)
		}
		c.logger.Debug("HTTP RPC check request failed", zap.String("url", rpcURL), zap.Error(requestErr))
		return "", latency, fmt.Errorf("%w: http request to %s failed: %v",
			apperrors.ErrExternalServiceFailure, rpcURL, requestErr,
		)
	}

	if resp.StatusCode() != fasthttp.StatusOK {
		c.logger.Debug("HTTP RPC check returned non-OK status",
			zap.String("url", rpcURL), zap.Int("statusCode", resp.StatusCode()),
		)
		return "", latency, fmt.Errorf("%w: rpc %s returned non-OK http status: %d",
			apperrors.ErrExternalServiceFailure, rpcURL, resp.StatusCode(),
		)
	}

	chainID, err := c.parseChainIDResponse(rpcURL, resp.Body())
	return chainID, latency, err
}

// checkWS performs the JSON-RPC check over WS/WSS.
func (c *Checker) checkWS(ctx context.Context, rpcURL string, startTime time.Time) (string, time.Duration, error) {
	dialer := websocket.Dialer{
		Proxy:            http.ProxyFromEnvironment,
		HandshakeTimeout: c.timeout,
	}

	conn, _, err := dialer.DialContext(ctx, rpcURL, nil)
	if err != nil {
		c.logger.Debug("WS dial failed", zap.String("url", rpcURL), zap.Error(err))
		return "", time.Since(startTime), wrapWSError(ctx, "dial to "+rpcURL, err)
	}
	defer conn.Close()

	deadline := time.Now().Add(effectiveTimeout(ctx, c.timeout))
	_ = conn.SetWriteDeadline(deadline)
	_ = conn.SetReadDeadline(deadline)

	if wErr := conn.WriteMessage(websocket.TextMessage, checkPayload); wErr != nil {
		c.logger.Debug("WS write message failed", zap.String("url", rpcURL), zap.Error(wErr))
		return "", time.Since(startTime), wrapWSError(ctx, "write to "+rpcURL, wErr)
	}

	_, message, rErr := conn.ReadMessage()
	latency := time.Since(startTime)
	if rErr != nil {
		c.logger.Debug("WS read message failed", zap.String("url", rpcURL), zap.Error(rErr))
		return "", latency, wrapWSError(ctx, "read from "+rpcURL, rErr)
	}

	c.logger.Debug("WS received response", zap.String("url", rpcURL), zap.ByteString("body", message))

	chainID, err := c.parseChainIDResponse(rpcURL, message)
	return chainID, latency, err
}

// parseChainIDResponse checks the body is a successful JSON-RPC response carrying a hex chain id.
func (c *Checker) parseChainIDResponse(rpcURL string, body []byte) (string, error) {
	var rpcResp JSONRPCResponse
	if err := json.Unmarshal(body, &rpcResp); err != nil {
		c.logger.Debug("RPC check failed to unmarshal JSON response",
			zap.String("url", rpcURL), zap.ByteString("body", body), zap.Error(err),
		)
		return "", fmt.Errorf("%w: rpc %s returned invalid JSON response: %v",
			apperrors.ErrMalformedResponse, rpcURL, err,
		)
	}

	if rpcResp.Error != nil {
		c.logger.Debug("RPC check returned JSON-RPC error",
			zap.String("url", rpcURL),
			zap.Int("errorCode", rpcResp.Error.Code),
			zap.String("errorMessage", rpcResp.Error.Message),
		)
		return "", fmt.Errorf("%w: rpc %s returned json-rpc error: %d %s",
			apperrors.ErrExternalServiceFailure, rpcURL, rpcResp.Error.Code, rpcResp.Error.Message,
		)
	}

	var chainID string
	if rpcResp.Jsonrpc != "2.0" || json.Unmarshal(rpcResp.Result, &chainID) != nil || chainID == "" {
		c.logger.Debug("RPC check returned invalid eth_chainId result",
			zap.String("url", rpcURL), zap.ByteString("body", body),
		)
		return "", fmt.Errorf("%w: rpc %s returned invalid eth_chainId result",
			apperrors.ErrMalformedResponse, rpcURL,
		)
	}

	return entity.NormalizeChainIDHex(chainID), nil
}

// effectiveTimeout narrows fallback to the context deadline when that is sooner.
func effectiveTimeout(ctx context.Context, fallback time.Duration) time.Duration {
	timeout := fallback
	if deadline, ok := ctx.Deadline(); ok {
		if remaining := time.Until(deadline); remaining < timeout {
			timeout = remaining
		}
	}
	if timeout <= 0 {
		timeout = time.Millisecond
	}
	return timeout
}

func wrapWSError(ctx context.Context, op string, err error) error {
	if errors.Is(context.Cause(ctx), context.DeadlineExceeded) || errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w: ws %s timed out: %v", apperrors.ErrTimeout, op, err)
	}
	var netErr interface{ Timeout() bool }
	if errors.As(err, &netErr) && netErr.Timeout() {
		return fmt.Errorf("%w: ws %s timed out: %v", apperrors.ErrTimeout, op, err)
	}
	return fmt.Errorf("%w: ws %s failed: %v", apperrors.ErrExternalServiceFailure, op, err)
}

package node

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"rockfun/internal/domain"
	domainService "rockfun/internal/domain/service"

	gethrpc "github.com/ethereum/go-ethereum/rpc"
	"go.uber.org/zap"
)

// Compile-time check
var _ domainService.Provider = (*Client)(nil)

// Client is a provider backed by a JSON-RPC node that manages its own accounts, such as a dev node or a signer.
// It emits no events.
type Client struct {
	rpc    *gethrpc.Client
	logger *zap.Logger
}

// Dial connects to the node at url (http, ws or ipc).
func Dial(ctx context.Context, url string, logger *zap.Logger) (*Client, error) {
	c, err := gethrpc.DialContext(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("%w: dial node %s: %v", domain.ErrProviderNotFound, url, err)
	}
	return NewClient(c, logger), nil
}

// NewClient wraps an existing go-ethereum RPC client.
func NewClient(c *gethrpc.Client, logger *zap.Logger) *Client {
	return &Client{rpc: c, logger: logger.Named("NodeProvider")}
}

func (c *Client) Request(ctx context.Context, method string, params ...any) (json.RawMessage, error) {
	var result json.RawMessage
	if err := c.rpc.CallContext(ctx, &result, method, params...); err != nil {
		c.logger.Debug("Node request failed", zap.String("method", method), zap.Error(err))
		return nil, toProviderError(err)
	}
	return result, nil
}

func (c *Client) Close() error {
	c.rpc.Close()
	return nil
}

// toProviderError keeps JSON-RPC error codes so callers can branch on them.
func toProviderError(err error) error {
	var rpcErr gethrpc.Error
	if !errors.As(err, &rpcErr) {
		return err
	}
	pe := &domain.ProviderError{Code: rpcErr.ErrorCode(), Message: rpcErr.Error()}
	var dataErr gethrpc.DataError
	if errors.As(err, &dataErr) {
		pe.Data = dataErr.ErrorData()
	}
	return pe
}

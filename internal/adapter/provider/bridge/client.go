package bridge

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"rockfun/internal/domain"
	"rockfun/internal/domain/entity"
	domainService "rockfun/internal/domain/service"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

// Compile-time checks
var (
	_ domainService.Provider    = (*Client)(nil)
	_ domainService.EventSource = (*Client)(nil)
)

var errBridgeClosed = errors.New("wallet bridge connection closed")

const (
	writeTimeout       = 10 * time.Second
	eventBufferSize    = 32
	defaultDialTimeout = 10 * time.Second
)

// rpcMessage covers requests we send, responses we receive and wallet notifications.
type rpcMessage struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      *uint64         `json:"id,omitempty"`
	Method  string          `json:"method,omitempty"`
	Params  json.RawMessage `json:"params,omitempty"`
	Result  json.RawMessage `json:"result,omitempty"`
	Error   *rpcError       `json:"error,omitempty"`
}

type rpcError struct {
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data,omitempty"`
}

// Client is an EIP-1193 provider reached through a JSON-RPC WebSocket bridge to a browser wallet.
type Client struct {
	conn   *websocket.Conn
	logger *zap.Logger

	writeMu sync.Mutex
	nextID  atomic.Uint64

	pendingMu sync.Mutex
	pending   map[uint64]chan rpcMessage

	subsMu sync.Mutex
	subs   map[int]chan entity.ProviderEvent
	subID  int

	closed    chan struct{}
	readDone  chan struct{}
	closeOnce sync.Once
}

// Dial connects to the bridge at url.
func Dial(ctx context.Context, url string, timeout time.Duration, logger *zap.Logger) (*Client, error) {
	if timeout <= 0 {
		timeout = defaultDialTimeout
	}
	dialer := websocket.Dialer{
		Proxy:            http.ProxyFromEnvironment,
		HandshakeTimeout: timeout,
	}
	conn, _, err := dialer.DialContext(ctx, url, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: dial wallet bridge %s: %v", domain.ErrProviderNotFound, url, err)
	}
	return NewClient(conn, logger), nil
}

// NewClient starts serving an established bridge connection.
func NewClient(conn *websocket.Conn, logger *zap.Logger) *Client {
	c := &Client{
		conn:     conn,
		logger:   logger.Named("WalletBridge"),
		pending:  make(map[uint64]chan rpcMessage),
		subs:     make(map[int]chan entity.ProviderEvent),
		closed:   make(chan struct{}),
		readDone: make(chan struct{}),
	}
	go c.readLoop()
	return c
}

// Request sends a JSON-RPC request and waits for the matching response.
func (c *Client) Request(ctx context.Context, method string, params ...any) (json.RawMessage, error) {
	if params == nil {
		params = []any{}
	}
	rawParams, err := json.Marshal(params)
	if err != nil {
		return nil, fmt.Errorf("encode params for %s: %w", method, err)
	}

	id := c.nextID.Add(1)
	reply := make(chan rpcMessage, 1)

	c.pendingMu.Lock()
	c.pending[id] = reply
	c.pendingMu.Unlock()
	defer func() {
		c.pendingMu.Lock()
		delete(c.pending, id)
		c.pendingMu.Unlock()
	}()

	msg, err := json.Marshal(rpcMessage{JSONRPC: "2.0", ID: &id, Method: method, Params: rawParams})
	if err != nil {
		return nil, fmt.Errorf("encode request %s: %w", method, err)
	}

	c.writeMu.Lock()
	_ = c.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
	err = c.conn.WriteMessage(websocket.TextMessage, msg)
	c.writeMu.Unlock()
	if err != nil {
		return nil, fmt.Errorf("%w: write %s: %v", domain.ErrProviderNotFound, method, err)
	}

	c.logger.Debug("Bridge request sent", zap.String("method", method), zap.Uint64("id", id))

	select {
	case resp := <-reply:
		if resp.Error != nil {
			pe := &domain.ProviderError{Code: resp.Error.Code, Message: resp.Error.Message}
			if len(resp.Error.Data) > 0 {
				pe.Data = resp.Error.Data
			}
			return nil, pe
		}
		return resp.Result, nil
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", method, ctx.Err())
	case <-c.closed:
		return nil, fmt.Errorf("%w: %s", domain.ErrProviderNotFound, errBridgeClosed)
	}
}

// Subscribe registers for wallet notifications.
func (c *Client) Subscribe() (<-chan entity.ProviderEvent, func()) {
	ch := make(chan entity.ProviderEvent, eventBufferSize)

	c.subsMu.Lock()
	id := c.subID
	c.subID++
	select {
	case <-c.closed:
		close(ch)
	default:
		c.subs[id] = ch
	}
	c.subsMu.Unlock()

	return ch, func() {
		c.subsMu.Lock()
		if existing, ok := c.subs[id]; ok {
			delete(c.subs, id)
			close(existing)
		}
		c.subsMu.Unlock()
	}
}

// Close terminates the connection and waits for the reader to exit.
func (c *Client) Close() error {
	var err error
	c.closeOnce.Do(func() {
		close(c.closed)

		c.writeMu.Lock()
		_ = c.conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), time.Now().Add(time.Second))
		c.writeMu.Unlock()

		err = c.conn.Close()

		c.subsMu.Lock()
		for id, ch := range c.subs {
			delete(c.subs, id)
			close(ch)
		}
		c.subsMu.Unlock()
	})
	<-c.readDone
	return err
}

func (c *Client) readLoop() {
	defer close(c.readDone)
	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			select {
			case <-c.closed:
			default:
				c.logger.Warn("Wallet bridge read failed, provider unavailable", zap.Error(err))
				c.closeOnce.Do(func() {
					close(c.closed)
					_ = c.conn.Close()
					c.subsMu.Lock()
					for id, ch := range c.subs {
						delete(c.subs, id)
						close(ch)
					}
					c.subsMu.Unlock()
				})
			}
			return
		}

		var msg rpcMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			c.logger.Warn("Discarding undecodable bridge message", zap.ByteString("body", data), zap.Error(err))
			continue
		}

		if msg.ID != nil && msg.Method == "" {
			c.pendingMu.Lock()
			reply, ok := c.pending[*msg.ID]
			c.pendingMu.Unlock()
			if !ok {
				c.logger.Debug("Response for unknown or abandoned request", zap.Uint64("id", *msg.ID))
				continue
			}
			select {
			case reply <- msg:
			default:
				c.logger.Warn("Duplicate response for request", zap.Uint64("id", *msg.ID))
			}
			continue
		}

		if ev, ok := parseEvent(msg); ok {
			c.publish(ev)
			continue
		}
		c.logger.Debug("Ignoring bridge notification", zap.String("method", msg.Method))
	}
}

func (c *Client) publish(ev entity.ProviderEvent) {
	c.subsMu.Lock()
	defer c.subsMu.Unlock()
	for _, ch := range c.subs {
		select {
		case ch <- ev:
		default:
			c.logger.Warn("Event subscriber is full, dropping event", zap.String("event", string(ev.Kind)))
		}
	}
}

// parseEvent accepts params either as the bare payload or wrapped in a one-element array.
func parseEvent(msg rpcMessage) (entity.ProviderEvent, bool) {
	switch entity.ProviderEventKind(msg.Method) {
	case entity.EventAccountsChanged:
		var accounts []string
		if err := json.Unmarshal(msg.Params, &accounts); err != nil {
			var nested [][]string
			if err := json.Unmarshal(msg.Params, &nested); err != nil || len(nested) != 1 {
				return entity.ProviderEvent{}, false
			}
			accounts = nested[0]
		}
		return entity.ProviderEvent{Kind: entity.EventAccountsChanged, Accounts: accounts}, true

	case entity.EventChainChanged:
		var chainID string
		if err := json.Unmarshal(msg.Params, &chainID); err != nil {
			var wrapped []string
			if err := json.Unmarshal(msg.Params, &wrapped); err != nil || len(wrapped) != 1 {
				return entity.ProviderEvent{}, false
			}
			chainID = wrapped[0]
		}
		return entity.ProviderEvent{Kind: entity.EventChainChanged, ChainID: strings.TrimSpace(chainID)}, true
	}
	return entity.ProviderEvent{}, false
}

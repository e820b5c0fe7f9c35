package bridge

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"rockfun/internal/domain"
	"rockfun/internal/domain/entity"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"go.uber.org/zap"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type handlerFunc func(params json.RawMessage) (any, *rpcError)

// fakeWallet answers bridge requests from a method table and can push notifications.
type fakeWallet struct {
	t        *testing.T
	srv      *httptest.Server
	methods  map[string]handlerFunc
	upgrader websocket.Upgrader

	mu   sync.Mutex
	conn *websocket.Conn
	conns chan *websocket.Conn
}

func newFakeWallet(t *testing.T, methods map[string]handlerFunc) *fakeWallet {
	f := &fakeWallet{t: t, methods: methods, conns: make(chan *websocket.Conn, 1)}
	f.srv = httptest.NewServer(http.HandlerFunc(f.serve))
	return f
}

func (f *fakeWallet) url() string {
	return "ws" + strings.TrimPrefix(f.srv.URL, "http")
}

func (f *fakeWallet) serve(w http.ResponseWriter, r *http.Request) {
	conn, err := f.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	defer conn.Close()

	f.mu.Lock()
	f.conn = conn
	f.mu.Unlock()
	f.conns <- conn

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			return
		}
		var req rpcMessage
		if err := json.Unmarshal(data, &req); err != nil {
			continue
		}
		h, ok := f.methods[req.Method]
		if !ok {
			continue
		}
		result, rpcErr := h(req.Params)
		resp := map[string]any{"jsonrpc": "2.0", "id": *req.ID}
		if rpcErr != nil {
			resp["error"] = rpcErr
		} else {
			resp["result"] = result
		}
		f.write(resp)
	}
}

func (f *fakeWallet) write(v any) {
	f.mu.Lock()
	defer f.mu.Unlock()
	_ = f.conn.WriteJSON(v)
}

func (f *fakeWallet) notify(method string, params any) {
	f.write(map[string]any{"jsonrpc": "2.0", "method": method, "params": params})
}

func dialFake(t *testing.T, f *fakeWallet) *Client {
	t.Helper()
	c, err := Dial(context.Background(), f.url(), time.Second, zap.NewNop())
	require.NoError(t, err)
	<-f.conns
	return c
}

func TestClient_Request(t *testing.T) {
	f := newFakeWallet(t, map[string]handlerFunc{
		"eth_chainId": func(json.RawMessage) (any, *rpcError) { return "0xd39a", nil },
		"eth_getBalance": func(params json.RawMessage) (any, *rpcError) {
			var args []string
			_ = json.Unmarshal(params, &args)
			assert.Equal(t, []string{"0xabc", "latest"}, args)
			return "0x10", nil
		},
		"eth_requestAccounts": func(json.RawMessage) (any, *rpcError) {
			return nil, &rpcError{Code: domain.CodeUserRejected, Message: "User rejected the request."}
		},
	})
	defer f.srv.Close()
	c := dialFake(t, f)
	defer c.Close()

	raw, err := c.Request(context.Background(), "eth_chainId")
	require.NoError(t, err)
	assert.JSONEq(t, `"0xd39a"`, string(raw))

	raw, err = c.Request(context.Background(), "eth_getBalance", "0xabc", "latest")
	require.NoError(t, err)
	assert.JSONEq(t, `"0x10"`, string(raw))

	_, err = c.Request(context.Background(), "eth_requestAccounts")
	assert.ErrorIs(t, err, domain.ErrUserRejected)
	var pe *domain.ProviderError
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, "User rejected the request.", pe.Message)
}

func TestClient_RequestHonoursContext(t *testing.T) {
	f := newFakeWallet(t, map[string]handlerFunc{})
	defer f.srv.Close()
	c := dialFake(t, f)
	defer c.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	_, err := c.Request(ctx, "eth_unanswered")
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestClient_CloseUnblocksPending(t *testing.T) {
	f := newFakeWallet(t, map[string]handlerFunc{})
	defer f.srv.Close()
	c := dialFake(t, f)

	errCh := make(chan error, 1)
	go func() {
		_, err := c.Request(context.Background(), "eth_unanswered")
		errCh <- err
	}()

	time.Sleep(20 * time.Millisecond)
	require.NoError(t, c.Close())

	select {
	case err := <-errCh:
		assert.ErrorIs(t, err, domain.ErrProviderNotFound)
	case <-time.After(time.Second):
		t.Fatal("pending request not released by Close")
	}

	_, err := c.Request(context.Background(), "eth_chainId")
	assert.Error(t, err)
}

func TestClient_Events(t *testing.T) {
	f := newFakeWallet(t, map[string]handlerFunc{})
	defer f.srv.Close()
	c := dialFake(t, f)

	events, unsubscribe := c.Subscribe()
	defer unsubscribe()

	f.notify("accountsChanged", [][]string{{"0xAbC"}})
	f.notify("chainChanged", "0x1")
	f.notify("somethingElse", nil)
	f.notify("accountsChanged", []string{})

	want := []entity.ProviderEvent{
		{Kind: entity.EventAccountsChanged, Accounts: []string{"0xAbC"}},
		{Kind: entity.EventChainChanged, ChainID: "0x1"},
		{Kind: entity.EventAccountsChanged, Accounts: []string{}},
	}
	for _, w := range want {
		select {
		case ev := <-events:
			assert.Equal(t, w, ev)
		case <-time.After(time.Second):
			t.Fatalf("missing event %v", w.Kind)
		}
	}

	require.NoError(t, c.Close())
	_, open := <-events
	assert.False(t, open, "subscriptions end when the bridge closes")
}

func TestParseEvent(t *testing.T) {
	ev, ok := parseEvent(rpcMessage{Method: "chainChanged", Params: json.RawMessage(`[" 0xd39a "]`)})
	require.True(t, ok)
	assert.Equal(t, "0xd39a", ev.ChainID)

	_, ok = parseEvent(rpcMessage{Method: "chainChanged", Params: json.RawMessage(`{}`)})
	assert.False(t, ok)

	_, ok = parseEvent(rpcMessage{Method: "accountsChanged", Params: json.RawMessage(`[["0x1"],["0x2"]]`)})
	assert.False(t, ok)
}

func TestGraphiteClient(t *testing.T) {
	var changed entity.NetworkParameters
	f := newFakeWallet(t, map[string]handlerFunc{
		"graphite_enable":    func(json.RawMessage) (any, *rpcError) { return []string{"0xabc"}, nil },
		"graphite_isEnabled": func(json.RawMessage) (any, *rpcError) { return true, nil },
		"graphite_getAddress": func(json.RawMessage) (any, *rpcError) {
			return "0xabc", nil
		},
		"graphite_getBalance": func(json.RawMessage) (any, *rpcError) { return "1000", nil },
		"graphite_getAccountInfo": func(json.RawMessage) (any, *rpcError) {
			return map[string]any{"balance": "0x3e8", "active": true, "kycLevel": "1", "kycFilterLevel": "0", "reputation": "42"}, nil
		},
		"graphite_getActiveNetwork": func(json.RawMessage) (any, *rpcError) { return "Graphite Testnet", nil },
		"graphite_changeActiveNetwork": func(params json.RawMessage) (any, *rpcError) {
			var args []entity.NetworkParameters
			_ = json.Unmarshal(params, &args)
			if len(args) == 1 {
				changed = args[0]
			}
			return true, nil
		},
	})
	defer f.srv.Close()
	g := NewGraphiteClient(dialFake(t, f))
	defer g.Close()
	ctx := context.Background()

	accounts, err := g.Enable(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"0xabc"}, accounts)

	enabled, err := g.IsEnabled(ctx)
	require.NoError(t, err)
	assert.True(t, enabled)

	address, err := g.GetAddress(ctx)
	require.NoError(t, err)
	assert.Equal(t, "0xabc", address)

	balance, err := g.GetBalance(ctx)
	require.NoError(t, err)
	assert.Equal(t, "1000", balance.String())

	info, err := g.GetAccountInfo(ctx)
	require.NoError(t, err)
	assert.True(t, info.Active)
	assert.Equal(t, "42", info.Reputation)

	network, err := g.GetActiveNetwork(ctx)
	require.NoError(t, err)
	assert.Equal(t, "Graphite Testnet", network.Name)

	ok, err := g.ChangeActiveNetwork(ctx, entity.NetworkParameters{ChainID: "0x6b6d1", RPCURL: "https://rpc", Name: "Graphite Mainnet", Ticker: "@G"})
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "0x6b6d1", changed.ChainID)
	assert.Equal(t, "@G", changed.Ticker)
}

func TestParseQuantity(t *testing.T) {
	n, err := parseQuantity("0x3e8")
	require.NoError(t, err)
	assert.Equal(t, int64(1000), n.Int64())

	n, err = parseQuantity(" 1000 ")
	require.NoError(t, err)
	assert.Equal(t, int64(1000), n.Int64())

	_, err = parseQuantity("ten")
	assert.Error(t, err)
}

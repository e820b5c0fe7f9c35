package application

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"rockfun/internal/config"
	"rockfun/internal/domain"
	"rockfun/internal/domain/entity"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type checkResult struct {
	chainID string
	latency time.Duration
	err     error
}

type stubChecker struct {
	mu      sync.Mutex
	results map[entity.RPCURL]checkResult
	calls   int
}

func (c *stubChecker) CheckRPC(ctx context.Context, rpcURL entity.RPCURL) (string, time.Duration, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.calls++
	if _, ok := ctx.Deadline(); !ok {
		return "", 0, errors.New("check without deadline")
	}
	r, ok := c.results[rpcURL]
	if !ok {
		return "", 0, errors.New("connection refused")
	}
	return r.chainID, r.latency, r.err
}

func (c *stubChecker) count() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.calls
}

func TestNetworkService_GetNetwork(t *testing.T) {
	svc := NewNetworkService(newTestRegistry(t), newFakeCache(), &stubChecker{}, zap.NewNop(), config.CheckerConfig{})

	networks := svc.ListNetworks()
	require.Len(t, networks, 2)
	assert.Equal(t, entity.NetworkMainnet, networks[0].ID)
	assert.Equal(t, entity.NetworkTestnet, networks[1].ID)

	n, err := svc.GetNetwork(entity.NetworkMainnet)
	require.NoError(t, err)
	assert.Equal(t, "Graphite Mainnet", n.ChainName)

	_, err = svc.GetNetwork("")
	assert.ErrorIs(t, err, domain.ErrInvalidNetworkID)

	_, err = svc.GetNetwork("devnet")
	assert.ErrorIs(t, err, domain.ErrInvalidNetworkID)
}

func TestNetworkService_GetCheckedRPCs(t *testing.T) {
	ctx := context.Background()
	checker := &stubChecker{results: map[entity.RPCURL]checkResult{
		"https://anon-entrypoint-test-1.atgraphite.com": {chainID: "0xD39A", latency: 42 * time.Millisecond},
		"wss://ws.test.atgraphite.com":                  {chainID: "0x1", latency: 7 * time.Millisecond},
	}}
	cache := newFakeCache()
	svc := NewNetworkService(newTestRegistry(t), cache, checker, zap.NewNop(), config.CheckerConfig{
		MaxWorkers: 4,
		CacheTTL:   time.Minute,
	})

	details, err := svc.GetCheckedRPCs(ctx, entity.NetworkTestnet)
	require.NoError(t, err)
	require.Len(t, details, 2)

	https := details[0]
	assert.Equal(t, entity.RPCURL("https://anon-entrypoint-test-1.atgraphite.com"), https.URL)
	assert.Equal(t, entity.ProtocolHTTPS, https.Protocol)
	require.NotNil(t, https.IsWorking)
	assert.True(t, *https.IsWorking)
	require.NotNil(t, https.LatencyMs)
	assert.Equal(t, int64(42), *https.LatencyMs)
	require.NotNil(t, https.ChainMatches)
	assert.True(t, *https.ChainMatches)

	wss := details[1]
	assert.Equal(t, entity.ProtocolWSS, wss.Protocol)
	require.NotNil(t, wss.IsWorking)
	assert.True(t, *wss.IsWorking)
	require.NotNil(t, wss.ChainMatches)
	assert.False(t, *wss.ChainMatches)
	assert.Equal(t, "0x1", wss.ChainIDHex)

	assert.Equal(t, time.Minute, cache.rpcTTL)
	assert.Equal(t, 2, checker.count())

	again, err := svc.GetCheckedRPCs(ctx, entity.NetworkTestnet)
	require.NoError(t, err)
	assert.Equal(t, details, again)
	assert.Equal(t, 2, checker.count(), "second call must be served from cache")
}

func TestNetworkService_GetCheckedRPCsDown(t *testing.T) {
	checker := &stubChecker{results: map[entity.RPCURL]checkResult{}}
	svc := NewNetworkService(newTestRegistry(t), newFakeCache(), checker, zap.NewNop(), config.CheckerConfig{})

	details, err := svc.GetCheckedRPCs(context.Background(), entity.NetworkMainnet)
	require.NoError(t, err)
	require.Len(t, details, 1)

	require.NotNil(t, details[0].IsWorking)
	assert.False(t, *details[0].IsWorking)
	assert.Nil(t, details[0].LatencyMs)
	assert.Nil(t, details[0].ChainMatches)

	_, err = svc.GetCheckedRPCs(context.Background(), "devnet")
	assert.ErrorIs(t, err, domain.ErrInvalidNetworkID)
}

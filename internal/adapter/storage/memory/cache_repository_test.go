package memory

import (
	"context"
	"testing"
	"time"

	"rockfun/internal/config"
	"rockfun/internal/domain/entity"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestCacheRepository_KycStatus(t *testing.T) {
	ctx := context.Background()
	repo := NewCacheRepository(config.CheckerConfig{CacheTTL: time.Minute}, zap.NewNop())

	_, found, err := repo.GetKycStatus(ctx, entity.NetworkTestnet, "0xAbC")
	require.NoError(t, err)
	assert.False(t, found)

	status := &entity.KycStatus{IsActivated: true}
	require.NoError(t, repo.SetKycStatus(ctx, entity.NetworkTestnet, "0xAbC", status, 0))

	// The cache keeps its own copy.
	status.IsActivated = false

	got, found, err := repo.GetKycStatus(ctx, entity.NetworkTestnet, "0xabc")
	require.NoError(t, err)
	require.True(t, found)
	assert.True(t, got.IsActivated)

	_, found, _ = repo.GetKycStatus(ctx, entity.NetworkMainnet, "0xabc")
	assert.False(t, found, "statuses are per network")

	assert.Error(t, repo.SetKycStatus(ctx, entity.NetworkTestnet, "0xabc", nil, 0))
}

func TestCacheRepository_ClearKycStatusesKeepsRPCs(t *testing.T) {
	ctx := context.Background()
	repo := NewCacheRepository(config.CheckerConfig{CacheTTL: time.Minute}, zap.NewNop())

	working := true
	rpcs := []entity.RPCDetail{{URL: "https://rpc.example", Protocol: entity.ProtocolHTTPS, IsWorking: &working}}
	require.NoError(t, repo.SetNetworkCheckedRPCs(ctx, entity.NetworkTestnet, rpcs, 0))
	require.NoError(t, repo.SetKycStatus(ctx, entity.NetworkTestnet, "0x1", &entity.KycStatus{}, 0))
	require.NoError(t, repo.SetKycStatus(ctx, entity.NetworkMainnet, "0x2", &entity.KycStatus{}, 0))

	require.NoError(t, repo.ClearKycStatuses(ctx))

	_, found, _ := repo.GetKycStatus(ctx, entity.NetworkTestnet, "0x1")
	assert.False(t, found)
	_, found, _ = repo.GetKycStatus(ctx, entity.NetworkMainnet, "0x2")
	assert.False(t, found)

	got, found, err := repo.GetNetworkCheckedRPCs(ctx, entity.NetworkTestnet)
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, rpcs, got)
}

func TestCacheRepository_RPCsExpire(t *testing.T) {
	ctx := context.Background()
	repo := NewCacheRepository(config.CheckerConfig{}, zap.NewNop())

	require.NoError(t, repo.SetNetworkCheckedRPCs(ctx, entity.NetworkMainnet, []entity.RPCDetail{}, 20*time.Millisecond))
	_, found, _ := repo.GetNetworkCheckedRPCs(ctx, entity.NetworkMainnet)
	assert.True(t, found)

	assert.Eventually(t, func() bool {
		_, found, _ := repo.GetNetworkCheckedRPCs(ctx, entity.NetworkMainnet)
		return !found
	}, time.Second, 10*time.Millisecond)
}

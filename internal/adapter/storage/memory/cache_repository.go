package memory

import (
	"context"
	"fmt"
	"strings"
	"time"

	"rockfun/internal/config"
	"rockfun/internal/domain/entity"
	domainRepo "rockfun/internal/domain/repository"

	"github.com/patrickmn/go-cache"
	"go.uber.org/zap"
)

// Compile-time check
var _ domainRepo.CacheRepository = (*CacheRepository)(nil)

// Cache keys
const (
	kycStatusKeyPrefix          = "kyc_"
	networkCheckedRPCsKeyPrefix = "network_checked_rpcs_"
)

const cleanupInterval = 10 * time.Minute

// CacheRepository implements domainRepo.CacheRepository using the go-cache in-memory library.
type CacheRepository struct {
	cache  *cache.Cache
	logger *zap.Logger
	cfg    config.CheckerConfig
}

// NewCacheRepository creates a new in-memory cache repository instance.
func NewCacheRepository(cfg config.CheckerConfig, logger *zap.Logger) domainRepo.CacheRepository {
	c := cache.New(cache.NoExpiration, cleanupInterval)
	logger.Info(
		"Initialized go-cache for memory storage",
		zap.Duration("rpcCacheTTL", cfg.GetCacheTTL()),
		zap.Duration("cleanupInterval", cleanupInterval),
	)

	return &CacheRepository{
		cache:  c,
		logger: logger.Named("MemoryCacheStorage"),
		cfg:    cfg,
	}
}

// GetKycStatus retrieves a cached KYC status, returning found status.
func (r *CacheRepository) GetKycStatus(
	_ context.Context,
	network entity.NetworkID,
	account string,
) (*entity.KycStatus, bool, error) {
	key := kycStatusKey(network, account)
	if x, found := r.cache.Get(key); found {
		if status, ok := x.(*entity.KycStatus); ok {
			r.logger.Debug("Memory cache hit", zap.String("key", key))
			copied := *status
			return &copied, true, nil
		}
		r.logger.Warn(
			"Memory cache data type mismatch for key",
			zap.String("key", key), zap.Any("type", fmt.Sprintf("%T", x)),
		)
	}
	r.logger.Debug("Memory cache miss", zap.String("key", key))
	return nil, false, nil
}

// SetKycStatus caches a KYC status. Statuses are not bounded by staleness unless a ttl is given.
func (r *CacheRepository) SetKycStatus(
	_ context.Context,
	network entity.NetworkID,
	account string,
	status *entity.KycStatus,
	ttl time.Duration,
) error {
	if status == nil {
		return fmt.Errorf("nil kyc status for %s", account)
	}
	key := kycStatusKey(network, account)
	if ttl <= 0 {
		ttl = cache.NoExpiration
	}
	copied := *status
	r.cache.Set(key, &copied, ttl)
	r.logger.Debug("Memory cache set", zap.String("key", key), zap.Duration("ttl", ttl))
	return nil
}

// ClearKycStatuses removes every KYC entry, leaving RPC probe results intact.
func (r *CacheRepository) ClearKycStatuses(_ context.Context) error {
	removed := 0
	for key := range r.cache.Items() {
		if strings.HasPrefix(key, kycStatusKeyPrefix) {
			r.cache.Delete(key)
			removed++
		}
	}
	r.logger.Debug("Memory cache cleared KYC statuses", zap.Int("removed", removed))
	return nil
}

// GetNetworkCheckedRPCs retrieves cached checked RPCs for a network, returning found status.
func (r *CacheRepository) GetNetworkCheckedRPCs(
	_ context.Context,
	network entity.NetworkID,
) ([]entity.RPCDetail, bool, error) {
	key := networkCheckedRPCsKeyPrefix + string(network)
	if x, found := r.cache.Get(key); found {
		if rpcs, ok := x.([]entity.RPCDetail); ok {
			r.logger.Debug("Memory cache hit", zap.String("key", key))
			return rpcs, true, nil
		}
		r.logger.Warn(
			"Memory cache data type mismatch for key",
			zap.String("key", key),
			zap.Any("type", fmt.Sprintf("%T", x)),
		)
	}
	r.logger.Debug("Memory cache miss", zap.String("key", key))
	return nil, false, nil
}

// SetNetworkCheckedRPCs caches the checked RPCs for a network with a given TTL.
func (r *CacheRepository) SetNetworkCheckedRPCs(
	_ context.Context,
	network entity.NetworkID,
	rpcs []entity.RPCDetail,
	ttl time.Duration,
) error {
	key := networkCheckedRPCsKeyPrefix + string(network)
	if ttl <= 0 {
		ttl = r.cfg.GetCacheTTL()
		if ttl <= 0 {
			ttl = cache.DefaultExpiration
		}
	}
	r.cache.Set(key, rpcs, ttl)
	r.logger.Debug("Memory cache set", zap.String("key", key), zap.Duration("ttl", ttl))
	return nil
}

// kycStatusKey generates the cache key for an account's KYC status on a network.
func kycStatusKey(network entity.NetworkID, account string) string {
	return kycStatusKeyPrefix + string(network) + "_" + strings.ToLower(account)
}

package application

import (
	"context"
	"fmt"
	"sync"
	"time"

	"rockfun/internal/application/port"
	"rockfun/internal/config"
	"rockfun/internal/domain"
	"rockfun/internal/domain/entity"
	domainRepo "rockfun/internal/domain/repository"
	domainService "rockfun/internal/domain/service"
	"rockfun/internal/metrics"

	"go.uber.org/zap"
)

// Compile-time check
var _ port.NetworkService = (*networkService)(nil)

// networkService serves the network registry and probes configured RPC endpoints.
type networkService struct {
	registry   domainRepo.NetworkRegistry
	cacheRepo  domainRepo.CacheRepository
	rpcChecker domainService.RPCChecker
	logger     *zap.Logger
	cfg        config.CheckerConfig
}

// NewNetworkService creates a new instance of the network service.
func NewNetworkService(
	registry domainRepo.NetworkRegistry,
	cacheRepo domainRepo.CacheRepository,
	rpcChecker domainService.RPCChecker,
	logger *zap.Logger,
	cfg config.CheckerConfig,
) port.NetworkService {
	return &networkService{
		registry:   registry,
		cacheRepo:  cacheRepo,
		rpcChecker: rpcChecker,
		logger:     logger.Named("NetworkService"),
		cfg:        cfg,
	}
}

func (s *networkService) ListNetworks() []entity.NetworkConfig {
	return s.registry.List()
}

func (s *networkService) GetNetwork(id entity.NetworkID) (entity.NetworkConfig, error) {
	if id == "" {
		return entity.NetworkConfig{}, fmt.Errorf("%w: empty id", domain.ErrInvalidNetworkID)
	}
	return s.registry.Resolve(id)
}

// GetCheckedRPCs retrieves probe results for a network, prioritizing cache.
func (s *networkService) GetCheckedRPCs(ctx context.Context, id entity.NetworkID) ([]entity.RPCDetail, error) {
	network, err := s.GetNetwork(id)
	if err != nil {
		return nil, err
	}

	cached, found, err := s.cacheRepo.GetNetworkCheckedRPCs(ctx, network.ID)
	if err != nil {
		s.logger.Warn("Cache error when getting checked RPCs for network",
			zap.String("network", string(network.ID)), zap.Error(err),
		)
	}
	if found {
		s.logger.Debug("Cache hit for network checked RPCs", zap.String("network", string(network.ID)))
		return cached, nil
	}

	details := s.checkNetworkRPCs(ctx, network)

	if cacheErr := s.cacheRepo.SetNetworkCheckedRPCs(ctx, network.ID, details, s.cfg.GetCacheTTL()); cacheErr != nil {
		s.logger.Error("Failed to cache checked RPCs for network",
			zap.String("network", string(network.ID)), zap.Error(cacheErr),
		)
	}

	s.logger.Debug("Finished checking RPCs for network",
		zap.String("network", string(network.ID)), zap.Int("checkedCount", len(details)),
	)
	return details, nil
}

// checkNetworkRPCs probes every configured endpoint in parallel and records whether it serves the expected chain.
func (s *networkService) checkNetworkRPCs(ctx context.Context, network entity.NetworkConfig) []entity.RPCDetail {
	rpcs := network.RPCURLs
	if len(rpcs) == 0 {
		return []entity.RPCDetail{}
	}

	details := make([]entity.RPCDetail, len(rpcs))
	timeout := s.cfg.GetTimeout()
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	numWorkers := s.cfg.MaxWorkers
	if numWorkers <= 0 {
		numWorkers = 10
	}
	if len(rpcs) < numWorkers {
		numWorkers = len(rpcs)
	}

	jobs := make(chan int, len(rpcs))
	var wg sync.WaitGroup

	for w := 0; w < numWorkers; w++ {
		wg.Add(1)
		go func(workerID int) {
			defer wg.Done()
			for i := range jobs {
				details[i] = s.checkOne(ctx, network, rpcs[i], timeout)
			}
			s.logger.Debug("RPC check worker finished", zap.Int("workerID", workerID))
		}(w)
	}

	for i := range rpcs {
		jobs <- i
	}
	close(jobs)
	wg.Wait()

	return details
}

func (s *networkService) checkOne(
	ctx context.Context,
	network entity.NetworkConfig,
	rpcURL entity.RPCURL,
	timeout time.Duration,
) entity.RPCDetail {
	detail := entity.RPCDetail{URL: rpcURL, Protocol: rpcURL.Protocol()}
	notWorking := false

	if detail.Protocol == entity.ProtocolUnknown {
		detail.IsWorking = &notWorking
		s.logger.Error("RPCURL with unknown protocol encountered", zap.String("url", rpcURL.String()))
		return detail
	}

	checkCtx, cancel := context.WithTimeout(ctx, timeout)
	chainID, latency, err := s.rpcChecker.CheckRPC(checkCtx, rpcURL)
	cancel()

	if err != nil {
		s.logger.Debug("RPC check failed", zap.String("rpc", rpcURL.String()), zap.Error(err))
		detail.IsWorking = &notWorking
		metrics.RPCChecks.WithLabelValues(string(network.ID), "down").Inc()
		return detail
	}

	working := true
	matches := network.MatchesChainID(chainID)
	latencyMs := latency.Milliseconds()
	detail.IsWorking = &working
	detail.LatencyMs = &latencyMs
	detail.ChainIDHex = chainID
	detail.ChainMatches = &matches

	result := "up"
	if !matches {
		result = "chain_mismatch"
		s.logger.Warn("RPC endpoint serves a different chain",
			zap.String("rpc", rpcURL.String()),
			zap.String("expected", network.ChainIDHex),
			zap.String("actual", chainID),
		)
	}
	metrics.RPCChecks.WithLabelValues(string(network.ID), result).Inc()
	return detail
}

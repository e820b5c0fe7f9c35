package application

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"sync"
	"sync/atomic"
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
var _ port.WalletSession = (*walletSession)(nil)

var (
	errSessionNotStarted = errors.New("wallet session not started")
	errSessionClosed     = errors.New("wallet session closed")
)

const subscriberBuffer = 16

// walletVariant holds the provider calls that differ between the generic and the Graphite wallet.
type walletVariant interface {
	kind() entity.WalletVariant
	authorize(ctx context.Context) error
	isAuthorized(ctx context.Context) (bool, error)
	readAccount(ctx context.Context) (string, error)
	readNetworkName(ctx context.Context, target entity.NetworkConfig, onTarget bool) string
	// readBalance returns nil, nil when the provider cannot report a balance.
	readBalance(ctx context.Context, account string) (*big.Int, error)
	readAccountInfo(ctx context.Context) *entity.GraphiteAccountInfo
	switchNetwork(ctx context.Context, target entity.NetworkConfig) error
}

type command struct {
	ctx   context.Context
	fn    func(ctx context.Context) error
	reply chan error
}

// walletSession serializes every state transition through a single loop goroutine.
type walletSession struct {
	variant    walletVariant
	provider   domainService.Provider
	registry   domainRepo.NetworkRegistry
	kycChecker domainService.KycChecker
	cacheRepo  domainRepo.CacheRepository
	cfg        config.WalletConfig
	logger     *zap.Logger

	state   atomic.Pointer[entity.WalletState]
	cmds    chan command
	started atomic.Bool
	done    chan struct{}
	baseCtx context.Context
	cancel  context.CancelFunc
	wg      sync.WaitGroup
	closeMu sync.Once

	// Owned by the loop goroutine. caps starts from the provider's type and loses
	// every method the wallet answers with method-not-found.
	target       entity.NetworkConfig
	caps         entity.Capabilities
	manual       bool
	unsubscribeP func()

	subsMu sync.Mutex
	subs   map[int]chan entity.WalletState
	nextID int
}

// NewWalletSession creates a session for the given wallet variant. kycChecker may be nil, which disables KYC lookups.
func NewWalletSession(
	kind entity.WalletVariant,
	provider domainService.Provider,
	registry domainRepo.NetworkRegistry,
	kycChecker domainService.KycChecker,
	cacheRepo domainRepo.CacheRepository,
	cfg config.WalletConfig,
	logger *zap.Logger,
) (port.WalletSession, error) {
	if provider == nil {
		return nil, domain.ErrProviderNotFound
	}

	l := logger.Named("WalletSession").With(zap.String("variant", string(kind)))

	baseCtx, cancel := context.WithCancel(context.Background())
	s := &walletSession{
		provider:   provider,
		caps:       domainService.ProbeCapabilities(provider),
		registry:   registry,
		kycChecker: kycChecker,
		cacheRepo:  cacheRepo,
		cfg:        cfg,
		logger:     l,
		cmds:       make(chan command),
		done:       make(chan struct{}),
		baseCtx:    baseCtx,
		cancel:     cancel,
		target:     registry.GetActiveNetworkConfig(registry.DefaultID()),
		subs:       make(map[int]chan entity.WalletState),
	}

	switch kind {
	case entity.VariantGeneric:
		s.variant = &genericWallet{provider: provider, logger: l}
	case entity.VariantGraphite:
		s.variant = &graphiteWallet{provider: provider, caps: &s.caps, logger: l}
	default:
		cancel()
		return nil, fmt.Errorf("unknown wallet variant %q", kind)
	}

	s.state.Store(&entity.WalletState{
		Variant:       kind,
		Phase:         entity.PhaseDisconnected,
		TargetNetwork: s.target.ID,
		Capabilities:  s.caps,
		UpdatedAt:     time.Now(),
	})

	l.Info("Wallet session created", zap.Any("capabilities", s.caps), zap.String("target", string(s.target.ID)))
	return s, nil
}

func (s *walletSession) Start(ctx context.Context) error {
	if !s.started.CompareAndSwap(false, true) {
		return errors.New("wallet session already started")
	}

	var events <-chan entity.ProviderEvent
	if src, ok := s.provider.(domainService.EventSource); ok {
		events, s.unsubscribeP = src.Subscribe()
	} else {
		s.logger.Info("Provider does not emit events, reconciliation limited to explicit calls")
	}

	s.wg.Add(1)
	go s.loop(events)

	return s.do(ctx, s.autoConnect)
}

func (s *walletSession) Connect(ctx context.Context) error {
	return s.do(ctx, s.connect)
}

func (s *walletSession) Disconnect(ctx context.Context) error {
	return s.do(ctx, s.disconnect)
}

func (s *walletSession) SwitchNetwork(ctx context.Context, id entity.NetworkID) error {
	return s.do(ctx, func(ctx context.Context) error {
		return s.switchNetwork(ctx, id)
	})
}

func (s *walletSession) CheckKyc(ctx context.Context) (*entity.KycStatus, error) {
	var status *entity.KycStatus
	err := s.do(ctx, func(ctx context.Context) error {
		status = s.checkKyc(ctx)
		return nil
	})
	return status, err
}

func (s *walletSession) State() entity.WalletState {
	return *s.state.Load()
}

func (s *walletSession) TargetNetwork() entity.NetworkConfig {
	return s.registry.GetActiveNetworkConfig(s.State().TargetNetwork)
}

func (s *walletSession) Provider() domainService.Provider {
	return s.provider
}

func (s *walletSession) Subscribe() (<-chan entity.WalletState, func()) {
	ch := make(chan entity.WalletState, subscriberBuffer)

	s.subsMu.Lock()
	id := s.nextID
	s.nextID++
	s.subs[id] = ch
	s.subsMu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			s.subsMu.Lock()
			if c, ok := s.subs[id]; ok {
				delete(s.subs, id)
				close(c)
			}
			s.subsMu.Unlock()
		})
	}
}

func (s *walletSession) Close() error {
	s.closeMu.Do(func() {
		close(s.done)
		s.cancel()
		s.wg.Wait()
		if s.unsubscribeP != nil {
			s.unsubscribeP()
		}

		s.subsMu.Lock()
		for id, ch := range s.subs {
			delete(s.subs, id)
			close(ch)
		}
		s.subsMu.Unlock()
		s.logger.Info("Wallet session closed")
	})
	return nil
}

// do runs fn on the loop goroutine and waits for its result.
func (s *walletSession) do(ctx context.Context, fn func(ctx context.Context) error) error {
	if !s.started.Load() {
		return errSessionNotStarted
	}
	if timeout := s.cfg.GetRequestTimeout(); timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	reply := make(chan error, 1)
	select {
	case s.cmds <- command{ctx: ctx, fn: fn, reply: reply}:
	case <-ctx.Done():
		return ctx.Err()
	case <-s.done:
		return errSessionClosed
	}

	select {
	case err := <-reply:
		return err
	case <-ctx.Done():
		return ctx.Err()
	case <-s.done:
		return errSessionClosed
	}
}

func (s *walletSession) loop(events <-chan entity.ProviderEvent) {
	defer s.wg.Done()
	s.logger.Debug("Wallet session loop started")

	for {
		select {
		case <-s.done:
			s.logger.Debug("Wallet session loop stopping")
			return

		case cmd := <-s.cmds:
			cmd.reply <- cmd.fn(cmd.ctx)

		case ev, ok := <-events:
			if !ok {
				s.logger.Warn("Provider event stream closed")
				events = nil
				continue
			}
			ctx, cancel := s.eventContext()
			s.handleEvent(ctx, ev)
			cancel()
		}
	}
}

func (s *walletSession) eventContext() (context.Context, context.CancelFunc) {
	if timeout := s.cfg.GetRequestTimeout(); timeout > 0 {
		return context.WithTimeout(s.baseCtx, timeout)
	}
	return context.WithCancel(s.baseCtx)
}

// handleEvent reconciles state with a provider notification.
func (s *walletSession) handleEvent(ctx context.Context, ev entity.ProviderEvent) {
	log := s.logger.With(zap.String("event", string(ev.Kind)))
	if s.manual {
		log.Debug("Ignoring provider event after manual disconnect")
		return
	}

	switch ev.Kind {
	case entity.EventAccountsChanged:
		if len(ev.Accounts) == 0 {
			log.Info("Wallet reported no accounts, clearing session")
			s.clear("Wallet disconnected or no accounts found.")
			return
		}
		if strings.EqualFold(ev.Accounts[0], s.State().Account) {
			log.Debug("Primary account unchanged")
			return
		}
		log.Info("Primary account changed, reconciling", zap.String("account", strings.ToLower(ev.Accounts[0])))

	case entity.EventChainChanged:
		log.Info("Wallet chain changed, reconciling", zap.String("chainId", ev.ChainID))

	default:
		log.Debug("Ignoring unknown provider event")
		return
	}

	if err := s.initialize(ctx, entity.PhaseReconciling); err != nil {
		log.Warn("Reconciliation did not reach connected state", zap.Error(err))
	}
}

func (s *walletSession) autoConnect(ctx context.Context) error {
	if s.manual {
		return nil
	}
	authorized, err := s.variant.isAuthorized(ctx)
	if err != nil {
		s.logger.Warn("Could not check existing wallet authorization", zap.Error(err))
		return nil
	}
	if !authorized {
		s.logger.Debug("Wallet not yet authorized, waiting for explicit connect")
		return nil
	}

	s.logger.Info("Wallet already authorized, initializing")
	if err := s.initialize(ctx, entity.PhaseInitializing); err != nil {
		s.logger.Warn("Auto-connect did not reach connected state", zap.Error(err))
	}
	return nil
}

func (s *walletSession) connect(ctx context.Context) error {
	s.manual = false
	s.setState(func(st *entity.WalletState) {
		st.Phase = entity.PhaseConnecting
		st.IsLoading = true
		st.Error = ""
	})

	if err := s.variant.authorize(ctx); err != nil {
		s.logger.Warn("Wallet authorization failed", zap.Error(err))
		s.clear(fmt.Sprintf("Failed to connect wallet: %v", err))
		return fmt.Errorf("authorize wallet: %w", err)
	}

	return s.initialize(ctx, entity.PhaseInitializing)
}

// initialize reads account and chain and moves to Connected only when the wallet is on the target network.
func (s *walletSession) initialize(ctx context.Context, phase entity.Phase) error {
	s.setState(func(st *entity.WalletState) {
		st.Phase = phase
		st.IsConnected = false
		st.IsLoading = true
		st.Error = ""
	})

	account, err := s.variant.readAccount(ctx)
	if err != nil {
		s.clear(fmt.Sprintf("Error initializing wallet state: %v", err))
		return fmt.Errorf("read account: %w", err)
	}
	if account == "" {
		s.clear("No accounts found. Please ensure your wallet is unlocked and connected.")
		return fmt.Errorf("%w: no authorized accounts", domain.ErrNotConnected)
	}
	account = strings.ToLower(account)

	chainID, err := requestString(ctx, s.provider, "eth_chainId")
	if err != nil {
		s.clear(fmt.Sprintf("Error initializing wallet state: %v", err))
		return fmt.Errorf("read chain id: %w", err)
	}
	chainID = entity.NormalizeChainIDHex(chainID)

	target := s.target
	onTarget := target.MatchesChainID(chainID)
	networkName := s.variant.readNetworkName(ctx, target, onTarget)

	if !onTarget {
		msg := fmt.Sprintf("Wallet connected to wrong network (ID: %s). Target: %s (ID: %s). Please switch.",
			chainID, target.ChainName, target.ChainIDHex,
		)
		s.setState(func(st *entity.WalletState) {
			*st = s.blankState()
			st.Phase = entity.PhaseWrongNetwork
			st.Account = account
			st.ChainIDHex = chainID
			st.NetworkName = networkName
			st.Error = msg
		})
		s.logger.Warn("Wallet on wrong network",
			zap.String("chainId", chainID), zap.String("target", target.ChainIDHex),
		)
		return fmt.Errorf("%w: wallet on %s, target %s", domain.ErrWrongNetwork, chainID, target.ChainIDHex)
	}

	balance, err := s.variant.readBalance(ctx, account)
	if err != nil {
		s.clear(fmt.Sprintf("Error initializing wallet state: %v", err))
		return fmt.Errorf("read balance: %w", err)
	}
	accountInfo := s.variant.readAccountInfo(ctx)
	kyc := s.lookupKyc(ctx, account, target, true)

	s.setState(func(st *entity.WalletState) {
		*st = s.blankState()
		st.Phase = entity.PhaseConnected
		st.IsConnected = true
		st.Account = account
		st.ChainIDHex = chainID
		st.NetworkName = networkName
		st.Kyc = kyc
		st.AccountInfo = accountInfo
		if balance != nil {
			wei := balance.String()
			formatted := entity.FormatUnits(balance, target.NativeCurrency.Decimals)
			st.BalanceWei = &wei
			st.Balance = &formatted
		}
	})
	s.manual = false

	s.logger.Info("Wallet connected",
		zap.String("account", account),
		zap.String("chainId", chainID),
		zap.Bool("kycActivated", kyc != nil && kyc.IsActivated),
	)
	return nil
}

func (s *walletSession) disconnect(ctx context.Context) error {
	s.manual = true
	s.clear("")
	if err := s.cacheRepo.ClearKycStatuses(ctx); err != nil {
		s.logger.Warn("Failed to clear KYC cache on disconnect", zap.Error(err))
	}
	s.logger.Info("Wallet disconnected locally, provider authorization retained")
	return nil
}

func (s *walletSession) switchNetwork(ctx context.Context, id entity.NetworkID) error {
	target, err := s.registry.Resolve(id)
	if err != nil {
		return err
	}

	prev := s.State()
	s.setState(func(st *entity.WalletState) {
		st.Phase = entity.PhaseSwitching
		st.IsConnected = false
		st.IsLoading = true
		st.Error = ""
	})

	if err := s.variant.switchNetwork(ctx, target); err != nil {
		s.logger.Warn("Network switch failed", zap.String("target", string(target.ID)), zap.Error(err))
		s.setState(func(st *entity.WalletState) {
			st.Phase = prev.Phase
			st.IsConnected = prev.IsConnected
			st.IsLoading = false
			st.Error = err.Error()
		})
		return err
	}

	// Balance and KYC belong to the old target until the wallet is re-read.
	s.target = target
	s.setState(func(st *entity.WalletState) {
		st.TargetNetwork = target.ID
		st.IsConnected = false
		st.Balance = nil
		st.BalanceWei = nil
		st.Kyc = nil
		st.AccountInfo = nil
	})
	s.logger.Info("Target network changed", zap.String("target", string(target.ID)))

	if s.manual || !prev.HasAccount() {
		s.setState(func(st *entity.WalletState) {
			st.Phase = prev.Phase
			st.IsLoading = false
		})
		return nil
	}

	// The wallet may not have switched yet; the result is re-validated rather than assumed.
	if err := s.initialize(ctx, entity.PhaseReconciling); err != nil {
		s.logger.Warn("Wallet not on target network after switch", zap.Error(err))
	}
	return nil
}

func (s *walletSession) checkKyc(ctx context.Context) *entity.KycStatus {
	st := s.State()
	if !st.HasAccount() {
		status := entity.FailedKycStatus("Prerequisites for KYC check not met.", time.Now())
		s.setState(func(st *entity.WalletState) {
			st.Error = "Account not connected or network config unavailable for KYC check."
			st.Kyc = status
		})
		return status
	}

	status := s.lookupKyc(ctx, st.Account, s.target, false)
	s.setState(func(st *entity.WalletState) {
		st.Kyc = status
	})
	return status
}

// lookupKyc never fails; problems are reported inside the returned status.
func (s *walletSession) lookupKyc(
	ctx context.Context,
	account string,
	network entity.NetworkConfig,
	useCache bool,
) *entity.KycStatus {
	if s.kycChecker == nil {
		return entity.FailedKycStatus("KYC check not configured.", time.Now())
	}

	if useCache {
		cached, found, err := s.cacheRepo.GetKycStatus(ctx, network.ID, account)
		if err != nil {
			s.logger.Warn("Cache error when getting KYC status", zap.Error(err))
		}
		if found {
			return cached
		}
	}

	status, err := s.kycChecker.Check(ctx, network, account)
	if err != nil {
		s.logger.Warn("KYC status check failed",
			zap.String("account", account), zap.String("network", string(network.ID)), zap.Error(err),
		)
		return entity.FailedKycStatus(err.Error(), time.Now())
	}

	// Failed lookups are retried on the next reconcile instead of sticking in the cache.
	if status.Error != "" {
		return status
	}
	if err := s.cacheRepo.SetKycStatus(ctx, network.ID, account, status, 0); err != nil {
		s.logger.Warn("Failed to cache KYC status", zap.Error(err))
	}
	return status
}

// clear resets connection state, keeping the target network and capabilities.
func (s *walletSession) clear(reason string) {
	s.setState(func(st *entity.WalletState) {
		*st = s.blankState()
		st.Error = reason
	})
}

func (s *walletSession) blankState() entity.WalletState {
	return entity.WalletState{
		Variant:       s.variant.kind(),
		Phase:         entity.PhaseDisconnected,
		TargetNetwork: s.target.ID,
		Capabilities:  s.caps,
	}
}

// setState publishes a modified copy of the current snapshot. Only the loop goroutine calls it.
func (s *walletSession) setState(mutate func(st *entity.WalletState)) {
	prev := s.state.Load()
	next := *prev
	mutate(&next)
	next.Capabilities = s.caps
	next.UpdatedAt = time.Now()
	s.state.Store(&next)

	if next.Phase != prev.Phase {
		metrics.WalletTransitions.WithLabelValues(string(next.Variant), string(next.Phase)).Inc()
		s.logger.Debug("Wallet phase changed",
			zap.String("from", string(prev.Phase)), zap.String("to", string(next.Phase)),
		)
	}

	s.subsMu.Lock()
	for _, ch := range s.subs {
		select {
		case ch <- next:
		default:
			// Slow subscriber: drop its oldest snapshot so it still sees the latest one.
			select {
			case <-ch:
			default:
			}
			select {
			case ch <- next:
			default:
			}
		}
	}
	s.subsMu.Unlock()
}

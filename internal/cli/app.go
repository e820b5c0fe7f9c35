package cli

import (
	"context"
	"fmt"
	"io"

	"rockfun/internal/adapter/contract"
	"rockfun/internal/adapter/kyc"
	"rockfun/internal/adapter/provider/bridge"
	"rockfun/internal/adapter/provider/node"
	"rockfun/internal/adapter/registry"
	"rockfun/internal/adapter/storage/backend"
	"rockfun/internal/adapter/storage/memory"
	"rockfun/internal/application"
	"rockfun/internal/application/port"
	"rockfun/internal/config"
	"rockfun/internal/domain/entity"
	domainRepo "rockfun/internal/domain/repository"
	domainService "rockfun/internal/domain/service"
	"rockfun/internal/logger"

	"go.uber.org/zap"
)

const (
	walletKindBridge = "bridge"
	walletKindNode   = "node"
)

// app holds the dependencies shared by every command. Wallet-backed pieces are opened on demand.
type app struct {
	cfg      *config.Config
	logger   *zap.Logger
	registry domainRepo.NetworkRegistry
	cache    domainRepo.CacheRepository
	printer  printer
	graphite bool

	// dialProvider is replaceable in tests.
	dialProvider func(ctx context.Context) (domainService.Provider, io.Closer, error)
}

func newApp(opts *rootOptions, out io.Writer) (*app, error) {
	cfg, err := config.Load(opts.configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration from %s: %w", opts.configPath, err)
	}
	cfg.Logger.Level = "warn"
	if opts.verbose {
		cfg.Logger.Level = "debug"
	}
	cfg.Logger.Encoding = "console"

	l, err := logger.NewLogger(cfg.Logger, cfg.App)
	if err != nil {
		return nil, fmt.Errorf("failed to setup logger: %w", err)
	}

	reg, err := registry.NewNetworkRegistry(cfg.Networks, l)
	if err != nil {
		return nil, err
	}

	a := &app{
		cfg:      cfg,
		logger:   l.Named("gemctl"),
		registry: reg,
		cache:    memory.NewCacheRepository(cfg.Checker, l),
		printer:  printer{out: out, format: opts.output},
		graphite: opts.graphite,
	}
	a.dialProvider = a.dialConfiguredProvider
	return a, a.printer.validate()
}

func (a *app) variant() entity.WalletVariant {
	if a.graphite {
		return entity.VariantGraphite
	}
	return entity.VariantGeneric
}

// dialConfiguredProvider connects to the wallet named by wallet.kind.
func (a *app) dialConfiguredProvider(ctx context.Context) (domainService.Provider, io.Closer, error) {
	switch a.cfg.Wallet.Kind {
	case walletKindNode:
		c, err := node.Dial(ctx, a.cfg.Wallet.URL, a.logger)
		if err != nil {
			return nil, nil, err
		}
		return c, c, nil
	case walletKindBridge, "":
		url := a.cfg.Wallet.URL
		if a.graphite && a.cfg.Wallet.GraphiteURL != "" {
			url = a.cfg.Wallet.GraphiteURL
		}
		c, err := bridge.Dial(ctx, url, a.cfg.Wallet.ConnectTimeout, a.logger)
		if err != nil {
			return nil, nil, err
		}
		if a.graphite {
			return bridge.NewGraphiteClient(c), c, nil
		}
		return c, c, nil
	default:
		return nil, nil, fmt.Errorf("unknown wallet kind %q (want %s or %s)", a.cfg.Wallet.Kind, walletKindBridge, walletKindNode)
	}
}

// kycChecker prefers a remote relay when kyc.proxy_url is set and otherwise relays in-process.
func (a *app) kycChecker() domainService.KycChecker {
	if a.cfg.Kyc.ProxyURL != "" {
		return kyc.NewProxyClient(a.cfg.Kyc, a.logger)
	}
	proxy := application.NewKycProxyService(a.registry, kyc.NewUpstream(a.cfg.Kyc, a.logger), a.logger)
	return kyc.NewLocalChecker(proxy, a.logger)
}

// openSession dials the wallet and starts a session. The returned func closes both.
func (a *app) openSession(ctx context.Context) (port.WalletSession, func(), error) {
	provider, closer, err := a.dialProvider(ctx)
	if err != nil {
		return nil, nil, err
	}

	session, err := application.NewWalletSession(a.variant(), provider, a.registry, a.kycChecker(), a.cache, a.cfg.Wallet, a.logger)
	if err != nil {
		_ = closer.Close()
		return nil, nil, err
	}

	closeAll := func() {
		if err := session.Close(); err != nil {
			a.logger.Debug("Session close failed", zap.Error(err))
		}
		if err := closer.Close(); err != nil {
			a.logger.Debug("Provider close failed", zap.Error(err))
		}
	}

	// An auto-connect failure still leaves a meaningful state to report.
	if err := session.Start(ctx); err != nil {
		a.logger.Debug("Auto-connect did not complete", zap.Error(err))
	}
	return session, closeAll, nil
}

func (a *app) gemRepository() domainRepo.GemRepository {
	return backend.NewRepository(a.cfg.Backend, a.logger)
}

func (a *app) deployer(onTxHash func(string)) (port.Deployer, error) {
	artifact, err := contract.LoadArtifact(a.cfg.Deploy)
	if err != nil {
		return nil, err
	}
	return application.NewDeployService(artifact, a.cfg.Deploy, a.logger, application.WithTxHashHook(onTxHash)), nil
}

// gemService builds the Gem service. Listing commands pass a nil session and deployer.
func (a *app) gemService(session port.WalletSession, deployer port.Deployer) port.GemService {
	return application.NewGemService(session, deployer, a.gemRepository(), a.logger)
}

func (a *app) sync() {
	_ = a.logger.Sync()
}

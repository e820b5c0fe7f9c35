package application

import (
	"context"
	"errors"
	"fmt"
	"math/big"

	"rockfun/internal/domain"
	"rockfun/internal/domain/entity"
	domainService "rockfun/internal/domain/service"

	"go.uber.org/zap"
)

// graphiteWallet prefers the Graphite wallet's own methods and falls back to request() where it can.
// caps is shared with the session; a method the wallet answers with method-not-found is switched off there.
type graphiteWallet struct {
	provider domainService.Provider
	caps     *entity.Capabilities
	logger   *zap.Logger
}

func (w *graphiteWallet) kind() entity.WalletVariant {
	return entity.VariantGraphite
}

// unsupported records that the wallet lacks method when err says so.
func (w *graphiteWallet) unsupported(err error, flag *bool, method string) bool {
	if !errors.Is(err, domain.ErrUnsupportedCapability) {
		return false
	}
	if *flag {
		w.logger.Info("Graphite Wallet does not implement method, disabling capability",
			zap.String("method", method), zap.Error(err),
		)
	}
	*flag = false
	return true
}

func (w *graphiteWallet) authorize(ctx context.Context) error {
	if e, ok := w.provider.(domainService.Enabler); ok && w.caps.Enable {
		_, err := e.Enable(ctx)
		if err == nil || !w.unsupported(err, &w.caps.Enable, "enable") {
			return err
		}
	}
	_, err := requestStrings(ctx, w.provider, "eth_requestAccounts")
	return err
}

func (w *graphiteWallet) isAuthorized(ctx context.Context) (bool, error) {
	if c, ok := w.provider.(domainService.EnabledChecker); ok && w.caps.IsEnabled {
		enabled, err := c.IsEnabled(ctx)
		if err == nil || !w.unsupported(err, &w.caps.IsEnabled, "isEnabled") {
			return enabled, err
		}
	}
	accounts, err := requestStrings(ctx, w.provider, "eth_accounts")
	if err != nil {
		return false, err
	}
	return len(accounts) > 0, nil
}

func (w *graphiteWallet) readAccount(ctx context.Context) (string, error) {
	if a, ok := w.provider.(domainService.AddressProvider); ok && w.caps.GetAddress {
		address, err := a.GetAddress(ctx)
		switch {
		case err == nil && address == "":
			return "", errors.New("no account found from Graphite Wallet")
		case err == nil:
			return address, nil
		case !w.unsupported(err, &w.caps.GetAddress, "getAddress"):
			return "", err
		}
	}
	return firstAccount(ctx, w.provider)
}

func (w *graphiteWallet) readNetworkName(ctx context.Context, target entity.NetworkConfig, _ bool) string {
	np, ok := w.provider.(domainService.ActiveNetworkProvider)
	if !ok || !w.caps.GetActiveNetwork {
		return target.ChainName
	}
	info, err := np.GetActiveNetwork(ctx)
	if err != nil {
		if !w.unsupported(err, &w.caps.GetActiveNetwork, "getActiveNetwork") {
			w.logger.Warn("Could not read active network name", zap.Error(err))
		}
		return target.ChainName
	}
	if info == nil || info.Name == "" {
		return target.ChainName
	}
	return info.Name
}

func (w *graphiteWallet) readBalance(ctx context.Context, _ string) (*big.Int, error) {
	b, ok := w.provider.(domainService.BalanceProvider)
	if !ok || !w.caps.GetBalance {
		return nil, nil
	}
	balance, err := b.GetBalance(ctx)
	if err != nil {
		if w.unsupported(err, &w.caps.GetBalance, "getBalance") {
			return nil, nil
		}
		return nil, err
	}
	return balance, nil
}

func (w *graphiteWallet) readAccountInfo(ctx context.Context) *entity.GraphiteAccountInfo {
	p, ok := w.provider.(domainService.AccountInfoProvider)
	if !ok || !w.caps.GetAccountInfo {
		return nil
	}
	info, err := p.GetAccountInfo(ctx)
	if err != nil {
		if !w.unsupported(err, &w.caps.GetAccountInfo, "getAccountInfo") {
			w.logger.Warn("Could not fetch Graphite account info", zap.Error(err))
		}
		return nil
	}
	return info
}

func (w *graphiteWallet) switchNetwork(ctx context.Context, target entity.NetworkConfig) error {
	changer, ok := w.provider.(domainService.NetworkChanger)
	if !ok || !w.caps.ChangeActiveNetwork {
		return fmt.Errorf("%w: Graphite Wallet does not support programmatic network switching",
			domain.ErrUnsupportedCapability,
		)
	}

	switched, err := changer.ChangeActiveNetwork(ctx, entity.NetworkParameters{
		ChainID: target.ChainIDHex,
		RPCURL:  target.PrimaryRPCURL(),
		Name:    target.ChainName,
		Ticker:  target.NativeCurrency.Symbol,
	})
	if err != nil {
		if w.unsupported(err, &w.caps.ChangeActiveNetwork, "changeActiveNetwork") {
			return fmt.Errorf("%w: Graphite Wallet does not support programmatic network switching: %v",
				domain.ErrUnsupportedCapability, err,
			)
		}
		return fmt.Errorf("error switching Graphite network: %w", err)
	}
	if !switched {
		return fmt.Errorf("%w: Graphite Wallet reported failure to switch to %s", domain.ErrWrongNetwork, target.ChainName)
	}
	return nil
}

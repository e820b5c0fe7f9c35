package application

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math/big"

	"rockfun/internal/domain"
	"rockfun/internal/domain/entity"
	domainService "rockfun/internal/domain/service"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"go.uber.org/zap"
)

// genericWallet drives an EIP-1193 wallet through request() alone.
type genericWallet struct {
	provider domainService.Provider
	logger   *zap.Logger
}

func (w *genericWallet) kind() entity.WalletVariant {
	return entity.VariantGeneric
}

func (w *genericWallet) authorize(ctx context.Context) error {
	_, err := requestStrings(ctx, w.provider, "eth_requestAccounts")
	if err == nil {
		return nil
	}
	if errors.Is(err, domain.ErrUnsupportedCapability) {
		w.logger.Debug("eth_requestAccounts unsupported, relying on eth_accounts")
		return nil
	}
	return err
}

func (w *genericWallet) isAuthorized(ctx context.Context) (bool, error) {
	accounts, err := requestStrings(ctx, w.provider, "eth_accounts")
	if err != nil {
		return false, err
	}
	return len(accounts) > 0, nil
}

func (w *genericWallet) readAccount(ctx context.Context) (string, error) {
	return firstAccount(ctx, w.provider)
}

func (w *genericWallet) readNetworkName(_ context.Context, target entity.NetworkConfig, onTarget bool) string {
	if onTarget {
		return target.ChainName
	}
	return ""
}

func (w *genericWallet) readBalance(ctx context.Context, account string) (*big.Int, error) {
	raw, err := requestString(ctx, w.provider, "eth_getBalance", account, "latest")
	if err != nil {
		if errors.Is(err, domain.ErrUnsupportedCapability) {
			return nil, nil
		}
		return nil, err
	}
	balance, err := hexutil.DecodeBig(raw)
	if err != nil {
		return nil, fmt.Errorf("decode balance %q: %w", raw, err)
	}
	return balance, nil
}

func (w *genericWallet) readAccountInfo(context.Context) *entity.GraphiteAccountInfo {
	return nil
}

// switchNetwork asks the wallet to switch and adds the chain when the wallet does not know it.
func (w *genericWallet) switchNetwork(ctx context.Context, target entity.NetworkConfig) error {
	_, err := w.provider.Request(ctx, "wallet_switchEthereumChain", entity.SwitchChainParams{ChainID: target.ChainIDHex})
	if err == nil {
		return nil
	}

	if !domain.HasProviderCode(err, domain.CodeUnrecognizedChain) {
		return fmt.Errorf("failed to switch network: %w", err)
	}

	w.logger.Info("Wallet does not know the chain, requesting add",
		zap.String("chainId", target.ChainIDHex), zap.String("chainName", target.ChainName),
	)
	if _, addErr := w.provider.Request(ctx, "wallet_addEthereumChain", target.AddChainParams()); addErr != nil {
		return fmt.Errorf("failed to add network %s: %w", target.ChainName, addErr)
	}
	return nil
}

// requestString performs a request whose result is a JSON string.
func requestString(ctx context.Context, p domainService.Provider, method string, params ...any) (string, error) {
	raw, err := p.Request(ctx, method, params...)
	if err != nil {
		return "", err
	}
	var out string
	if err := json.Unmarshal(raw, &out); err != nil {
		return "", fmt.Errorf("%s returned %s: %w", method, string(raw), err)
	}
	return out, nil
}

// requestStrings performs a request whose result is a JSON array of strings.
func requestStrings(ctx context.Context, p domainService.Provider, method string, params ...any) ([]string, error) {
	raw, err := p.Request(ctx, method, params...)
	if err != nil {
		return nil, err
	}
	var out []string
	if len(raw) == 0 || string(raw) == "null" {
		return out, nil
	}
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, fmt.Errorf("%s returned %s: %w", method, string(raw), err)
	}
	return out, nil
}

func firstAccount(ctx context.Context, p domainService.Provider) (string, error) {
	accounts, err := requestStrings(ctx, p, "eth_accounts")
	if err != nil {
		return "", err
	}
	if len(accounts) == 0 {
		return "", nil
	}
	return accounts[0], nil
}

package service

import (
	"context"
	"encoding/json"
	"math/big"

	"rockfun/internal/domain/entity"
)

// Provider is the required capability of every wallet: an EIP-1193 style request.
// Failures reported by the wallet are returned as *domain.ProviderError.
type Provider interface {
	Request(ctx context.Context, method string, params ...any) (json.RawMessage, error)
}

// EventSource delivers accountsChanged and chainChanged notifications.
// The returned func unsubscribes and must be called once the session no longer needs the events.
type EventSource interface {
	Subscribe() (<-chan entity.ProviderEvent, func())
}

// Optional Graphite wallet capabilities. A session probes for them once when it is created
// and drops any the wallet then answers with method-not-found.
type (
	Enabler interface {
		Enable(ctx context.Context) ([]string, error)
	}

	EnabledChecker interface {
		IsEnabled(ctx context.Context) (bool, error)
	}

	AddressProvider interface {
		GetAddress(ctx context.Context) (string, error)
	}

	BalanceProvider interface {
		GetBalance(ctx context.Context) (*big.Int, error)
	}

	AccountInfoProvider interface {
		GetAccountInfo(ctx context.Context) (*entity.GraphiteAccountInfo, error)
	}

	ActiveNetworkProvider interface {
		GetActiveNetwork(ctx context.Context) (*entity.ActiveNetworkInfo, error)
	}

	NetworkChanger interface {
		ChangeActiveNetwork(ctx context.Context, params entity.NetworkParameters) (bool, error)
	}
)

// ProbeCapabilities records which optional interfaces p implements. A bridge client implements all of
// them, so the result is an upper bound on what the wallet behind it supports.
func ProbeCapabilities(p Provider) entity.Capabilities {
	var c entity.Capabilities
	_, c.Events = p.(EventSource)
	_, c.Enable = p.(Enabler)
	_, c.IsEnabled = p.(EnabledChecker)
	_, c.GetAddress = p.(AddressProvider)
	_, c.GetBalance = p.(BalanceProvider)
	_, c.GetAccountInfo = p.(AccountInfoProvider)
	_, c.GetActiveNetwork = p.(ActiveNetworkProvider)
	_, c.ChangeActiveNetwork = p.(NetworkChanger)
	return c
}

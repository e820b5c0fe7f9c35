package bridge

import (
	"context"
	"encoding/json"
	"fmt"
	"math/big"
	"strings"

	"rockfun/internal/domain/entity"
	domainService "rockfun/internal/domain/service"
)

// Compile-time checks
var (
	_ domainService.Enabler               = (*GraphiteClient)(nil)
	_ domainService.EnabledChecker        = (*GraphiteClient)(nil)
	_ domainService.AddressProvider       = (*GraphiteClient)(nil)
	_ domainService.BalanceProvider       = (*GraphiteClient)(nil)
	_ domainService.AccountInfoProvider   = (*GraphiteClient)(nil)
	_ domainService.ActiveNetworkProvider = (*GraphiteClient)(nil)
	_ domainService.NetworkChanger        = (*GraphiteClient)(nil)
)

// GraphiteClient exposes the Graphite wallet's own methods, relayed by the bridge as graphite_* requests.
type GraphiteClient struct {
	*Client
}

// NewGraphiteClient wraps a bridge connection to a Graphite wallet.
func NewGraphiteClient(c *Client) *GraphiteClient {
	return &GraphiteClient{Client: c}
}

func (g *GraphiteClient) Enable(ctx context.Context) ([]string, error) {
	var accounts []string
	if err := g.call(ctx, &accounts, "graphite_enable"); err != nil {
		return nil, err
	}
	return accounts, nil
}

func (g *GraphiteClient) IsEnabled(ctx context.Context) (bool, error) {
	var enabled bool
	err := g.call(ctx, &enabled, "graphite_isEnabled")
	return enabled, err
}

func (g *GraphiteClient) GetAddress(ctx context.Context) (string, error) {
	var address string
	err := g.call(ctx, &address, "graphite_getAddress")
	return address, err
}

// GetBalance accepts a hex or decimal wei string.
func (g *GraphiteClient) GetBalance(ctx context.Context) (*big.Int, error) {
	var raw string
	if err := g.call(ctx, &raw, "graphite_getBalance"); err != nil {
		return nil, err
	}
	if raw == "" {
		return nil, nil
	}
	return parseQuantity(raw)
}

func (g *GraphiteClient) GetAccountInfo(ctx context.Context) (*entity.GraphiteAccountInfo, error) {
	var info entity.GraphiteAccountInfo
	if err := g.call(ctx, &info, "graphite_getAccountInfo"); err != nil {
		return nil, err
	}
	return &info, nil
}

// GetActiveNetwork accepts either a bare network name or a {chainId, name, rpcUrl} object.
func (g *GraphiteClient) GetActiveNetwork(ctx context.Context) (*entity.ActiveNetworkInfo, error) {
	raw, err := g.Request(ctx, "graphite_getActiveNetwork")
	if err != nil {
		return nil, err
	}
	var name string
	if json.Unmarshal(raw, &name) == nil {
		return &entity.ActiveNetworkInfo{Name: name}, nil
	}
	var info entity.ActiveNetworkInfo
	if err := json.Unmarshal(raw, &info); err != nil {
		return nil, fmt.Errorf("graphite_getActiveNetwork returned %s: %w", string(raw), err)
	}
	return &info, nil
}

func (g *GraphiteClient) ChangeActiveNetwork(ctx context.Context, params entity.NetworkParameters) (bool, error) {
	var ok bool
	if err := g.callWith(ctx, &ok, "graphite_changeActiveNetwork", params); err != nil {
		return false, err
	}
	return ok, nil
}

func (g *GraphiteClient) call(ctx context.Context, out any, method string) error {
	return g.callWith(ctx, out, method)
}

func (g *GraphiteClient) callWith(ctx context.Context, out any, method string, params ...any) error {
	raw, err := g.Request(ctx, method, params...)
	if err != nil {
		return err
	}
	if len(raw) == 0 || string(raw) == "null" {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("%s returned %s: %w", method, string(raw), err)
	}
	return nil
}

func parseQuantity(raw string) (*big.Int, error) {
	s := strings.TrimSpace(raw)
	base := 10
	if strings.HasPrefix(s, "0x") || strings.HasPrefix(s, "0X") {
		s, base = s[2:], 16
	}
	n, ok := new(big.Int).SetString(s, base)
	if !ok {
		return nil, fmt.Errorf("invalid quantity %q", raw)
	}
	return n, nil
}

package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"rockfun/internal/adapter/registry"
	"rockfun/internal/adapter/storage/memory"
	"rockfun/internal/config"
	"rockfun/internal/domain"
	"rockfun/internal/domain/entity"
	domainService "rockfun/internal/domain/service"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

// walletStub is an EIP-1193 wallet that is already authorized.
type walletStub struct {
	mu      sync.Mutex
	chainID string
	calls   []string
}

func (w *walletStub) Request(_ context.Context, method string, params ...any) (json.RawMessage, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.calls = append(w.calls, method)

	var out any
	switch method {
	case "eth_accounts", "eth_requestAccounts":
		out = []string{"0xAbC0000000000000000000000000000000000001"}
	case "eth_chainId":
		out = w.chainID
	case "eth_getBalance":
		out = "0x1bc16d674ec80000"
	case "wallet_switchEthereumChain":
		w.chainID = params[0].(entity.SwitchChainParams).ChainID
	default:
		return nil, &domain.ProviderError{Code: domain.CodeMethodNotFound, Message: "method not found"}
	}
	return json.Marshal(out)
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

type harness struct {
	out      bytes.Buffer
	wallet   *walletStub
	dials    int
	backend  string
	graphite bool
}

func newHarness() *harness {
	return &harness{wallet: &walletStub{chainID: "0xd39a"}}
}

func (h *harness) build(opts *rootOptions, out io.Writer) (*app, error) {
	cfg := &config.Config{
		Networks: config.NetworksConfig{
			Default: "testnet",
			Mainnet: config.NetworkConfig{
				ChainIDHex: "0x6b6d1", ChainIDDecimal: "440017", ChainName: "Graphite Mainnet",
				CurrencySymbol: "@G", Decimals: 18,
				RPCURLs:     []string{"https://anon-entrypoint-1.atgraphite.com"},
				ExplorerURL: "https://main.atgraphite.com",
			},
			Testnet: config.NetworkConfig{
				ChainIDHex: "0xd39a", ChainIDDecimal: "54170", ChainName: "Graphite Testnet",
				CurrencySymbol: "t@G", Decimals: 18,
				RPCURLs:     []string{"https://anon-entrypoint-test-1.atgraphite.com"},
				ExplorerURL: "https://test.atgraphite.com",
			},
		},
		Wallet:  config.WalletConfig{RequestTimeout: 2 * time.Second},
		Checker: config.CheckerConfig{CacheTTL: time.Minute},
		Backend: config.BackendConfig{URL: h.backend, Timeout: 2 * time.Second},
		Kyc:     config.KycConfig{UpstreamTimeout: time.Second},
	}
	// No KYC API keys, so lookups are answered in-process without reaching the upstream API.

	l := zap.NewNop()
	reg, err := registry.NewNetworkRegistry(cfg.Networks, l)
	if err != nil {
		return nil, err
	}

	h.graphite = opts.graphite
	a := &app{
		cfg:      cfg,
		logger:   l,
		registry: reg,
		cache:    memory.NewCacheRepository(cfg.Checker, l),
		printer:  printer{out: out, format: opts.output},
		graphite: opts.graphite,
	}
	a.dialProvider = func(context.Context) (domainService.Provider, io.Closer, error) {
		h.dials++
		return h.wallet, nopCloser{}, nil
	}
	return a, a.printer.validate()
}

func (h *harness) run(t *testing.T, args ...string) error {
	t.Helper()
	cmd := newRootCommand(&h.out, h.build)
	cmd.SetArgs(args)
	cmd.SetOut(io.Discard)
	cmd.SetErr(io.Discard)
	return cmd.ExecuteContext(context.Background())
}

func TestNetworksCommand(t *testing.T) {
	t.Run("text", func(t *testing.T) {
		h := newHarness()
		require.NoError(t, h.run(t, "networks"))

		out := h.out.String()
		assert.Contains(t, out, "testnet*")
		assert.Contains(t, out, "Graphite Mainnet")
		assert.Contains(t, out, "0x6b6d1 (440017)")
		assert.Contains(t, out, "no key")
		assert.Zero(t, h.dials, "listing networks must not touch the wallet")
	})

	t.Run("json", func(t *testing.T) {
		h := newHarness()
		require.NoError(t, h.run(t, "networks", "-o", "json"))

		var got []entity.NetworkConfig
		require.NoError(t, json.Unmarshal(h.out.Bytes(), &got))
		require.Len(t, got, 2)
		assert.Equal(t, entity.NetworkMainnet, got[0].ID)
		assert.Equal(t, "t@G", got[1].NativeCurrency.Symbol)
	})

	t.Run("yaml", func(t *testing.T) {
		h := newHarness()
		require.NoError(t, h.run(t, "networks", "--output", "yaml"))

		var got []map[string]any
		require.NoError(t, yaml.Unmarshal(h.out.Bytes(), &got))
		require.Len(t, got, 2)
		assert.Equal(t, "mainnet", got[0]["id"])
		assert.Equal(t, "0xd39a", got[1]["chainIdHex"])
	})

	t.Run("unsupported format", func(t *testing.T) {
		h := newHarness()
		err := h.run(t, "networks", "-o", "xml")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "unsupported output format")
	})

	t.Run("rpcs rejects unknown network", func(t *testing.T) {
		h := newHarness()
		err := h.run(t, "networks", "rpcs", "devnet")
		assert.ErrorIs(t, err, domain.ErrInvalidNetworkID)
	})
}

func TestStatusCommand(t *testing.T) {
	h := newHarness()
	require.NoError(t, h.run(t, "status"))

	out := h.out.String()
	assert.Contains(t, out, "Wallet:    generic")
	assert.Contains(t, out, "Phase:     connected")
	assert.Contains(t, out, "Target:    Graphite Testnet (0xd39a)")
	assert.Contains(t, out, "Account:   0xabc0000000000000000000000000000000000001")
	assert.Contains(t, out, "Balance:   2 t@G")
	assert.Contains(t, out, "KYC:       error: KYC check not configured.")
	assert.Equal(t, 1, h.dials)
}

func TestConnectCommand_JSON(t *testing.T) {
	h := newHarness()
	require.NoError(t, h.run(t, "connect", "-o", "json", "--graphite"))

	var st entity.WalletState
	require.NoError(t, json.Unmarshal(h.out.Bytes(), &st))
	assert.Equal(t, entity.PhaseConnected, st.Phase)
	assert.Equal(t, entity.VariantGraphite, st.Variant)
	assert.True(t, st.IsConnected)
	assert.True(t, h.graphite)
}

func TestConnectCommand_WrongNetwork(t *testing.T) {
	h := newHarness()
	h.wallet.chainID = "0x1"

	err := h.run(t, "connect")
	require.ErrorIs(t, err, domain.ErrWrongNetwork)
	assert.Contains(t, h.out.String(), "Phase:     wrong_network")
	assert.Contains(t, h.out.String(), "Please switch.")
}

func TestSwitchCommand(t *testing.T) {
	t.Run("validates the network before dialing", func(t *testing.T) {
		h := newHarness()
		err := h.run(t, "switch", "devnet")
		require.ErrorIs(t, err, domain.ErrInvalidNetworkID)
		assert.Zero(t, h.dials)
	})

	t.Run("switches the wallet", func(t *testing.T) {
		h := newHarness()
		require.NoError(t, h.run(t, "switch", "MAINNET", "-o", "yaml"))

		var st map[string]any
		require.NoError(t, yaml.Unmarshal(h.out.Bytes(), &st))
		assert.Equal(t, "connected", st["phase"])
		assert.Equal(t, "mainnet", st["targetNetwork"])
		assert.Equal(t, "0x6b6d1", st["chainIdHex"])
	})

	t.Run("requires an argument", func(t *testing.T) {
		assert.Error(t, newHarness().run(t, "switch"))
	})
}

func TestDisconnectCommand(t *testing.T) {
	h := newHarness()
	require.NoError(t, h.run(t, "disconnect"))

	out := h.out.String()
	assert.Contains(t, out, "Phase:     disconnected")
	assert.Contains(t, out, "Account:   -")
}

func TestKycCommand(t *testing.T) {
	h := newHarness()
	require.NoError(t, h.run(t, "kyc", "-o", "json"))

	var status entity.KycStatus
	require.NoError(t, json.Unmarshal(h.out.Bytes(), &status))
	assert.False(t, status.IsActivated)
	assert.Equal(t, "KYC check not configured.", status.Error)
}

func TestDeployCommand_RequiresFlags(t *testing.T) {
	h := newHarness()
	err := h.run(t, "deploy", "--name", "Rock Gem")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "required flag(s)")
	assert.Zero(t, h.dials)
}

func TestGemsCommand(t *testing.T) {
	backend := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch r.URL.Path {
		case "/api/v1/gems":
			assert.Equal(t, "2", r.URL.Query().Get("page"))
			assert.Equal(t, "5", r.URL.Query().Get("limit"))
			_, _ = io.WriteString(w, `{"message":"ok","data":{"gems":[{"_id":"1","contractAddress":"0xC0FFEE0000000000000000000000000000000001","name":"Rock Gem","symbol":"ROCK","decimals":18,"totalSupply":"1000","creatorAddress":"0xabc","networkChainId":"0xd39a","transactionHash":"0xdead"}],"total":6,"page":2,"pages":2}}`)
		case "/api/v1/gems/contract/0xC0FFEE0000000000000000000000000000000001":
			_, _ = io.WriteString(w, `{"message":"ok","data":{"_id":"1","contractAddress":"0xC0FFEE0000000000000000000000000000000001","name":"Rock Gem","symbol":"ROCK","decimals":18,"totalSupply":"1000","creatorAddress":"0xabc","networkChainId":"0xd39a","transactionHash":"0xdead"}}`)
		default:
			w.WriteHeader(http.StatusNotFound)
			_, _ = io.WriteString(w, `{"message":"Gem not found"}`)
		}
	}))
	t.Cleanup(backend.Close)

	t.Run("list", func(t *testing.T) {
		h := newHarness()
		h.backend = backend.URL
		require.NoError(t, h.run(t, "gems", "list", "--page", "2", "--limit", "5"))

		out := h.out.String()
		assert.Contains(t, out, "ROCK")
		assert.Contains(t, out, "0xC0FFEE0000000000000000000000000000000001")
		assert.Contains(t, out, "Page 2 of 2 (6 total)")
		assert.Zero(t, h.dials)
	})

	t.Run("get", func(t *testing.T) {
		h := newHarness()
		h.backend = backend.URL
		require.NoError(t, h.run(t, "gems", "get", "0xC0FFEE0000000000000000000000000000000001", "-o", "json"))

		var gem entity.Gem
		require.NoError(t, json.Unmarshal(h.out.Bytes(), &gem))
		assert.Equal(t, "1", gem.ID)
		assert.Equal(t, "Rock Gem", gem.Name)
	})

	t.Run("list rejects negative page", func(t *testing.T) {
		h := newHarness()
		h.backend = backend.URL
		assert.Error(t, h.run(t, "gems", "list", "--page", "-1"))
	})
}

package application

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"rockfun/internal/config"
	"rockfun/internal/domain"
	"rockfun/internal/domain/entity"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type stubUpstream struct {
	status     int
	statusText string
	body       string
	err        error

	calls   int
	network entity.NetworkID
	address string
}

func (u *stubUpstream) Lookup(_ context.Context, network entity.NetworkConfig, address string) (int, string, []byte, error) {
	u.calls++
	u.network = network.ID
	u.address = address
	if u.err != nil {
		return 0, "", nil, u.err
	}
	return u.status, u.statusText, []byte(u.body), nil
}

const kycOKBody = `{"status":"1","message":"OK","result":{"activated":true,"kycLevel":"1","reputation":"0.5"}}`

func TestKycProxyService_Proxy(t *testing.T) {
	ctx := context.Background()

	t.Run("relays the upstream body unchanged", func(t *testing.T) {
		up := &stubUpstream{status: http.StatusOK, statusText: "OK", body: kycOKBody}
		svc := NewKycProxyService(newTestRegistry(t), up, zap.NewNop())

		body, err := svc.Proxy(ctx, " 0xabc ", " MAINNET ")
		require.NoError(t, err)
		assert.JSONEq(t, kycOKBody, string(body))
		assert.Equal(t, entity.NetworkMainnet, up.network)
		assert.Equal(t, "0xabc", up.address)
	})

	t.Run("empty network id uses the default", func(t *testing.T) {
		up := &stubUpstream{status: http.StatusOK, statusText: "OK", body: kycOKBody}
		svc := NewKycProxyService(newTestRegistry(t), up, zap.NewNop())

		_, err := svc.Proxy(ctx, "0xabc", "")
		require.NoError(t, err)
		assert.Equal(t, entity.NetworkTestnet, up.network)
	})

	t.Run("application-level error body is relayed", func(t *testing.T) {
		up := &stubUpstream{status: http.StatusOK, statusText: "OK", body: `{"status":"0","message":"NOTOK","result":"Invalid address format"}`}
		svc := NewKycProxyService(newTestRegistry(t), up, zap.NewNop())

		body, err := svc.Proxy(ctx, "0xabc", "testnet")
		require.NoError(t, err)
		assert.Contains(t, string(body), "Invalid address format")
	})
}

func TestKycProxyService_ProxyErrors(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name        string
		address     string
		networkID   string
		upstream    *stubUpstream
		mutate      func(cfg *config.NetworksConfig)
		wantStatus  int
		wantMessage string
		wantErr     error
		wantDetails string
		wantRaw     string
		wantCalls   int
	}{
		{
			name:        "unknown network",
			address:     "0xabc",
			networkID:   "devnet",
			upstream:    &stubUpstream{},
			wantStatus:  http.StatusBadRequest,
			wantMessage: `Unknown networkId "devnet"`,
			wantErr:     domain.ErrInvalidNetworkID,
		},
		{
			name:        "missing address",
			address:     "  ",
			networkID:   "testnet",
			upstream:    &stubUpstream{},
			wantStatus:  http.StatusBadRequest,
			wantMessage: "Address parameter is required",
		},
		{
			name:        "api key not configured",
			address:     "0xabc",
			networkID:   "mainnet",
			upstream:    &stubUpstream{},
			mutate:      func(cfg *config.NetworksConfig) { cfg.Mainnet.KycAPIKey = " " },
			wantStatus:  http.StatusInternalServerError,
			wantMessage: "API key for KYC check is not configured on the server",
			wantErr:     domain.ErrKycConfigMissing,
		},
		{
			name:        "fetch error",
			address:     "0xabc",
			networkID:   "testnet",
			upstream:    &stubUpstream{err: errors.New("dial tcp: connection refused")},
			wantStatus:  http.StatusInternalServerError,
			wantMessage: "Proxy fetch error: dial tcp: connection refused",
			wantErr:     domain.ErrKycUpstream,
			wantCalls:   1,
		},
		{
			name:        "upstream status passes through",
			address:     "0xabc",
			networkID:   "testnet",
			upstream:    &stubUpstream{status: http.StatusForbidden, statusText: "Forbidden", body: `{"message":"invalid api key"}`},
			wantStatus:  http.StatusForbidden,
			wantMessage: "Upstream API Error: 403 Forbidden",
			wantErr:     domain.ErrKycUpstream,
			wantDetails: `{"message":"invalid api key"}`,
			wantCalls:   1,
		},
		{
			name:        "body is not JSON",
			address:     "0xabc",
			networkID:   "testnet",
			upstream:    &stubUpstream{status: http.StatusOK, statusText: "OK", body: "<html>maintenance</html>"},
			wantStatus:  http.StatusInternalServerError,
			wantMessage: "Failed to parse JSON response from upstream API",
			wantErr:     domain.ErrKycMalformedResponse,
			wantRaw:     "<html>maintenance</html>",
			wantCalls:   1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var mutate []func(*config.NetworksConfig)
			if tt.mutate != nil {
				mutate = append(mutate, tt.mutate)
			}
			svc := NewKycProxyService(newTestRegistry(t, mutate...), tt.upstream, zap.NewNop())

			body, err := svc.Proxy(ctx, tt.address, tt.networkID)
			assert.Nil(t, body)

			var perr *domain.ProxyError
			require.True(t, errors.As(err, &perr), "got %v", err)
			assert.Equal(t, tt.wantStatus, perr.Status)
			assert.Equal(t, tt.wantMessage, perr.Message)
			assert.Equal(t, tt.wantDetails, perr.Details)
			assert.Equal(t, tt.wantRaw, perr.RawResponse)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			}
			assert.Equal(t, tt.wantCalls, tt.upstream.calls)
		})
	}
}

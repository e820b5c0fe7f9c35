package application

import (
	"context"
	"errors"
	"testing"

	"rockfun/internal/application/port"
	"rockfun/internal/domain"
	"rockfun/internal/domain/entity"
	domainService "rockfun/internal/domain/service"
	"rockfun/internal/pkg/apperrors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// stubSession is a fixed WalletSession snapshot.
type stubSession struct {
	state    entity.WalletState
	target   entity.NetworkConfig
	provider domainService.Provider
}

func (s *stubSession) Start(context.Context) error { return nil }

func (s *stubSession) Connect(context.Context) error { return nil }

func (s *stubSession) Disconnect(context.Context) error { return nil }

func (s *stubSession) SwitchNetwork(context.Context, entity.NetworkID) error { return nil }

func (s *stubSession) CheckKyc(context.Context) (*entity.KycStatus, error) { return s.state.Kyc, nil }

func (s *stubSession) State() entity.WalletState { return s.state }

func (s *stubSession) TargetNetwork() entity.NetworkConfig { return s.target }

func (s *stubSession) Provider() domainService.Provider { return s.provider }

func (s *stubSession) Subscribe() (<-chan entity.WalletState, func()) {
	return make(chan entity.WalletState), func() {}
}

func (s *stubSession) Close() error { return nil }

type stubDeployer struct {
	result  *entity.DeploymentResult
	err     error
	calls   int
	params  entity.TokenParams
	address string
	network entity.NetworkID
}

func (d *stubDeployer) Deploy(
	_ context.Context,
	_ domainService.Provider,
	deployerAddress string,
	params entity.TokenParams,
	network entity.NetworkConfig,
) (*entity.DeploymentResult, error) {
	d.calls++
	d.params = params
	d.address = deployerAddress
	d.network = network.ID
	return d.result, d.err
}

type stubGemRepo struct {
	created   []entity.CreateGemRequest
	createErr error
	creator   string
	page      *entity.GemPage
	gem       *entity.Gem
}

func (r *stubGemRepo) CreateGem(_ context.Context, req entity.CreateGemRequest) (*entity.Gem, error) {
	r.created = append(r.created, req)
	if r.createErr != nil {
		return nil, r.createErr
	}
	return &entity.Gem{
		ID:              "gem-1",
		ContractAddress: req.ContractAddress,
		Name:            req.Name,
		Symbol:          req.Symbol,
		Decimals:        req.Decimals,
		TotalSupply:     req.TotalSupply,
		CreatorAddress:  req.CreatorAddress,
		NetworkChainID:  req.NetworkChainID,
		TransactionHash: req.TransactionHash,
	}, nil
}

func (r *stubGemRepo) GetGemsByCreator(_ context.Context, creator string) ([]entity.Gem, error) {
	r.creator = creator
	return []entity.Gem{{ContractAddress: testContract, CreatorAddress: creator}}, nil
}

func (r *stubGemRepo) GetGemByContract(_ context.Context, contract string) (*entity.Gem, error) {
	if r.gem == nil || r.gem.ContractAddress != contract {
		return nil, domain.ErrGemNotFound
	}
	return r.gem, nil
}

func (r *stubGemRepo) GetAllGems(_ context.Context, page, limit int) (*entity.GemPage, error) {
	if r.page != nil {
		return r.page, nil
	}
	return &entity.GemPage{Page: page, Pages: 1, Gems: make([]entity.Gem, 0, limit)}, nil
}

func connectedSession(t *testing.T) *stubSession {
	t.Helper()
	return &stubSession{
		state: entity.WalletState{
			Variant:       entity.VariantGeneric,
			Phase:         entity.PhaseConnected,
			IsConnected:   true,
			Account:       "0xabc0000000000000000000000000000000000001",
			ChainIDHex:    testnetChainID,
			TargetNetwork: entity.NetworkTestnet,
			Kyc:           &entity.KycStatus{IsActivated: true},
		},
		target:   testnetConfig(t),
		provider: newFakeProvider(true),
	}
}

func validGemInput() port.CreateGemInput {
	return port.CreateGemInput{Name: " Rock Gem ", Symbol: " gem ", Decimals: 18, Supply: "1000"}
}

func successfulDeployer() *stubDeployer {
	return &stubDeployer{result: &entity.DeploymentResult{
		ContractAddress: "0x5FbDB2315678afecb367f032d93F642f64180aa3",
		TransactionHash: testTxHash,
		GasLimit:        120000,
		GasPrice:        "1000000000",
		ScaledSupply:    "1000000000000000000000",
	}}
}

func TestGemService_CreateValidation(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(in *port.CreateGemInput)
		want   string
	}{
		{"missing name", func(in *port.CreateGemInput) { in.Name = "  " }, "Name is required"},
		{"missing symbol", func(in *port.CreateGemInput) { in.Symbol = "" }, "Symbol is required"},
		{"long symbol", func(in *port.CreateGemInput) { in.Symbol = "ABCDEFGHIJK" }, "Token symbol should be 10 characters or less"},
		{"decimals too large", func(in *port.CreateGemInput) { in.Decimals = 51 }, "Decimals must be a number between 0 and 50"},
		{"negative decimals", func(in *port.CreateGemInput) { in.Decimals = -1 }, "Decimals must be a number between 0 and 50"},
		{"missing supply", func(in *port.CreateGemInput) { in.Supply = "" }, "Supply is required"},
		{"fractional supply", func(in *port.CreateGemInput) { in.Supply = "1.5" }, "Supply must be a positive integer"},
		{"zero supply", func(in *port.CreateGemInput) { in.Supply = "0" }, "Supply must be a positive integer"},
		{"non-http image", func(in *port.CreateGemInput) { in.ImageURL = "ftp://example.com/gem.png" }, "Token Image URL must be a valid HTTP/HTTPS URL"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			deployer := successfulDeployer()
			svc := NewGemService(connectedSession(t), deployer, &stubGemRepo{}, zap.NewNop())

			in := validGemInput()
			tt.mutate(&in)
			_, err := svc.Create(context.Background(), in)

			require.ErrorIs(t, err, apperrors.ErrInvalidInput)
			assert.Contains(t, err.Error(), tt.want)
			assert.Zero(t, deployer.calls)
		})
	}
}

func TestGemService_CreatePreconditions(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(st *entity.WalletState)
		wantErr error
	}{
		{"not connected", func(st *entity.WalletState) { st.IsConnected = false }, domain.ErrNotConnected},
		{"no account", func(st *entity.WalletState) { st.Account = "" }, domain.ErrNotConnected},
		{"wrong network", func(st *entity.WalletState) { st.ChainIDHex = mainnetChainID }, domain.ErrWrongNetwork},
		{"kyc unknown", func(st *entity.WalletState) { st.Kyc = nil }, domain.ErrAccountNotActivated},
		{"not activated", func(st *entity.WalletState) { st.Kyc = &entity.KycStatus{} }, domain.ErrAccountNotActivated},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			session := connectedSession(t)
			tt.mutate(&session.state)
			deployer := successfulDeployer()
			svc := NewGemService(session, deployer, &stubGemRepo{}, zap.NewNop())

			_, err := svc.Create(context.Background(), validGemInput())
			require.ErrorIs(t, err, tt.wantErr)
			assert.Zero(t, deployer.calls)
		})
	}
}

func TestGemService_Create(t *testing.T) {
	session := connectedSession(t)
	deployer := successfulDeployer()
	repo := &stubGemRepo{}
	svc := NewGemService(session, deployer, repo, zap.NewNop())

	in := validGemInput()
	in.ImageURL = "https://cdn.rock.fun/gem.png"
	res, err := svc.Create(context.Background(), in)
	require.NoError(t, err)

	assert.NoError(t, res.PersistErr)
	assert.Equal(t, deployer.result, res.Deployment)
	assert.Equal(t, "https://test.atgraphite.com/address/0x5FbDB2315678afecb367f032d93F642f64180aa3", res.ExplorerURL)
	require.NotNil(t, res.Gem)
	assert.Equal(t, "gem-1", res.Gem.ID)

	assert.Equal(t, entity.TokenParams{Name: "Rock Gem", Symbol: "GEM", Decimals: 18, NominalSupply: "1000"}, deployer.params)
	assert.Equal(t, session.state.Account, deployer.address)
	assert.Equal(t, entity.NetworkTestnet, deployer.network)

	require.Len(t, repo.created, 1)
	assert.Equal(t, entity.CreateGemRequest{
		ContractAddress: "0x5FbDB2315678afecb367f032d93F642f64180aa3",
		Name:            "Rock Gem",
		Symbol:          "GEM",
		Decimals:        18,
		TotalSupply:     "1000",
		CreatorAddress:  session.state.Account,
		NetworkChainID:  testnetChainID,
		TransactionHash: testTxHash,
		ImageURL:        "https://cdn.rock.fun/gem.png",
	}, repo.created[0])
}

func TestGemService_CreatePersistFailureIsNotFatal(t *testing.T) {
	repo := &stubGemRepo{createErr: errors.New("backend returned status 503")}
	svc := NewGemService(connectedSession(t), successfulDeployer(), repo, zap.NewNop())

	res, err := svc.Create(context.Background(), validGemInput())
	require.NoError(t, err)

	require.NotNil(t, res.Deployment)
	assert.Nil(t, res.Gem)
	require.ErrorIs(t, res.PersistErr, domain.ErrBackendPersistFailed)
	assert.Contains(t, res.PersistErr.Error(), "backend returned status 503")
	assert.NotEmpty(t, res.ExplorerURL)
}

func TestGemService_CreateDeployFailure(t *testing.T) {
	deployer := &stubDeployer{err: &domain.DeploymentError{TxHash: testTxHash, Err: domain.ErrDeploymentReverted}}
	repo := &stubGemRepo{}
	svc := NewGemService(connectedSession(t), deployer, repo, zap.NewNop())

	res, err := svc.Create(context.Background(), validGemInput())
	assert.Nil(t, res)
	require.ErrorIs(t, err, domain.ErrDeploymentReverted)
	assert.Empty(t, repo.created)
}

func TestGemService_Listings(t *testing.T) {
	ctx := context.Background()
	repo := &stubGemRepo{gem: &entity.Gem{ContractAddress: testContract, Symbol: "GEM"}}

	svc := NewGemService(connectedSession(t), nil, repo, zap.NewNop())

	_, err := svc.ListAll(ctx, -1, 20)
	assert.ErrorIs(t, err, apperrors.ErrInvalidInput)

	page, err := svc.ListAll(ctx, 2, 20)
	require.NoError(t, err)
	assert.Equal(t, 2, page.Page)

	mine, err := svc.ListMine(ctx)
	require.NoError(t, err)
	assert.Len(t, mine, 1)
	assert.Equal(t, "0xabc0000000000000000000000000000000000001", repo.creator)

	gem, err := svc.Get(ctx, " "+testContract+" ")
	require.NoError(t, err)
	assert.Equal(t, "GEM", gem.Symbol)

	_, err = svc.Get(ctx, "0x0000000000000000000000000000000000000bad")
	assert.ErrorIs(t, err, domain.ErrGemNotFound)

	_, err = svc.Get(ctx, " ")
	assert.ErrorIs(t, err, apperrors.ErrInvalidInput)

	disconnected := NewGemService(&stubSession{}, nil, repo, zap.NewNop())
	_, err = disconnected.ListMine(ctx)
	assert.ErrorIs(t, err, domain.ErrNotConnected)
}

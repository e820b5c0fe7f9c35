package application

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"rockfun/internal/application/port"
	"rockfun/internal/domain"
	"rockfun/internal/domain/entity"
	domainRepo "rockfun/internal/domain/repository"
	"rockfun/internal/pkg/apperrors"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
)

// Compile-time check
var _ port.GemService = (*gemService)(nil)

type gemService struct {
	session   port.WalletSession
	deployer  port.Deployer
	gemRepo   domainRepo.GemRepository
	validator *validator.Validate
	logger    *zap.Logger
}

// NewGemService creates the gem creation and listing service.
func NewGemService(
	session port.WalletSession,
	deployer port.Deployer,
	gemRepo domainRepo.GemRepository,
	logger *zap.Logger,
) port.GemService {
	return &gemService{
		session:   session,
		deployer:  deployer,
		gemRepo:   gemRepo,
		validator: newValidator(),
		logger:    logger.Named("GemService"),
	}
}

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	_ = v.RegisterValidation("positive_integer", func(fl validator.FieldLevel) bool {
		_, err := entity.ScaleSupply(fl.Field().String(), 0)
		return err == nil
	})
	return v
}

// Create validates the form, deploys the token and records it with the backend.
// A backend failure does not fail the call; it is reported in CreateGemResult.PersistErr.
func (s *gemService) Create(ctx context.Context, in port.CreateGemInput) (*port.CreateGemResult, error) {
	in.Name = strings.TrimSpace(in.Name)
	in.Symbol = strings.ToUpper(strings.TrimSpace(in.Symbol))
	in.Supply = strings.TrimSpace(in.Supply)
	in.ImageURL = strings.TrimSpace(in.ImageURL)

	if err := s.validator.Struct(in); err != nil {
		return nil, fmt.Errorf("%w: %s", apperrors.ErrInvalidInput, describeValidation(err))
	}

	state := s.session.State()
	target := s.session.TargetNetwork()
	switch {
	case !state.IsConnected || !state.HasAccount():
		return nil, fmt.Errorf("%w: please connect your wallet first", domain.ErrNotConnected)
	case !state.OnNetwork(target):
		return nil, fmt.Errorf("%w: please switch your wallet to %s", domain.ErrWrongNetwork, target.ChainName)
	case state.Kyc == nil || !state.Kyc.IsActivated:
		return nil, fmt.Errorf("%w: account %s must be activated on %s before creating a gem",
			domain.ErrAccountNotActivated, state.Account, target.ChainName,
		)
	}

	log := s.logger.With(zap.String("account", state.Account), zap.String("symbol", in.Symbol))
	log.Info("Creating gem", zap.String("name", in.Name), zap.Int("decimals", in.Decimals))

	deployment, err := s.deployer.Deploy(ctx, s.session.Provider(), state.Account, entity.TokenParams{
		Name:          in.Name,
		Symbol:        in.Symbol,
		Decimals:      uint8(in.Decimals),
		NominalSupply: in.Supply,
	}, target)
	if err != nil {
		return nil, err
	}

	result := &port.CreateGemResult{
		Deployment:  deployment,
		ExplorerURL: target.ExplorerAddressURL(deployment.ContractAddress),
	}

	record := entity.CreateGemRequest{
		ContractAddress: deployment.ContractAddress,
		Name:            in.Name,
		Symbol:          in.Symbol,
		Decimals:        in.Decimals,
		TotalSupply:     in.Supply,
		CreatorAddress:  state.Account,
		NetworkChainID:  target.ChainIDHex,
		TransactionHash: deployment.TransactionHash,
		ImageURL:        in.ImageURL,
	}
	if err := s.validator.Struct(record); err != nil {
		result.PersistErr = fmt.Errorf("%w: %s", domain.ErrBackendPersistFailed, describeValidation(err))
		log.Error("Gem record failed validation, not persisted", zap.Error(result.PersistErr))
		return result, nil
	}

	gem, err := s.gemRepo.CreateGem(ctx, record)
	if err != nil {
		result.PersistErr = fmt.Errorf("%w: %v", domain.ErrBackendPersistFailed, err)
		log.Error("Gem created on-chain but could not be saved to the backend",
			zap.String("contract", deployment.ContractAddress), zap.Error(err),
		)
		return result, nil
	}
	result.Gem = gem

	log.Info("Gem created", zap.String("contract", deployment.ContractAddress))
	return result, nil
}

func (s *gemService) ListAll(ctx context.Context, page, limit int) (*entity.GemPage, error) {
	if page < 0 || limit < 0 {
		return nil, fmt.Errorf("%w: page and limit must not be negative", apperrors.ErrInvalidInput)
	}
	return s.gemRepo.GetAllGems(ctx, page, limit)
}

func (s *gemService) ListMine(ctx context.Context) ([]entity.Gem, error) {
	state := s.session.State()
	if !state.HasAccount() {
		return nil, fmt.Errorf("%w: no account to list gems for", domain.ErrNotConnected)
	}
	return s.gemRepo.GetGemsByCreator(ctx, state.Account)
}

func (s *gemService) Get(ctx context.Context, contract string) (*entity.Gem, error) {
	contract = strings.TrimSpace(contract)
	if contract == "" {
		return nil, fmt.Errorf("%w: contract address is required", apperrors.ErrInvalidInput)
	}
	return s.gemRepo.GetGemByContract(ctx, contract)
}

// describeValidation turns validator errors into form messages.
func describeValidation(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err.Error()
	}

	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		switch {
		case fe.Tag() == "required":
			msgs = append(msgs, fmt.Sprintf("%s is required", fe.Field()))
		case fe.Field() == "Decimals":
			msgs = append(msgs, "Decimals must be a number between 0 and 50")
		case fe.Tag() == "positive_integer":
			msgs = append(msgs, fmt.Sprintf("%s must be a positive integer", fe.Field()))
		case fe.Field() == "Symbol" && fe.Tag() == "max":
			msgs = append(msgs, "Token symbol should be 10 characters or less")
		case fe.Tag() == "http_url":
			msgs = append(msgs, "Token Image URL must be a valid HTTP/HTTPS URL")
		default:
			msgs = append(msgs, fmt.Sprintf("%s failed %s validation", fe.Field(), fe.Tag()))
		}
	}
	return strings.Join(msgs, "; ")
}

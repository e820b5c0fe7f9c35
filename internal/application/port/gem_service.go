package port

import (
	"context"

	"rockfun/internal/domain/entity"
)

// CreateGemInput is the token creation form.
type CreateGemInput struct {
	Name     string `validate:"required"`
	Symbol   string `validate:"required,max=10"`
	Decimals int    `validate:"gte=0,lte=50"`
	Supply   string `validate:"required,positive_integer"`
	ImageURL string `validate:"omitempty,http_url"`
}

// CreateGemResult reports a deployment and whether its backend record was saved.
type CreateGemResult struct {
	Deployment  *entity.DeploymentResult `json:"deployment" yaml:"deployment"`
	Gem         *entity.Gem              `json:"gem,omitempty" yaml:"gem,omitempty"`
	ExplorerURL string                   `json:"explorerUrl,omitempty" yaml:"explorerUrl,omitempty"`
	// PersistErr is set when the token exists on-chain but the backend did not store it.
	PersistErr error `json:"-" yaml:"-"`
}

// GemService runs the create flow and the gem listings.
type GemService interface {
	Create(ctx context.Context, in CreateGemInput) (*CreateGemResult, error)
	ListAll(ctx context.Context, page, limit int) (*entity.GemPage, error)
	ListMine(ctx context.Context) ([]entity.Gem, error)
	Get(ctx context.Context, contract string) (*entity.Gem, error)
}

package repository

import (
	"context"

	"rockfun/internal/domain/entity"
)

// GemRepository persists and lists deployed gems. Storage is owned by the remote backend.
type GemRepository interface {
	CreateGem(ctx context.Context, req entity.CreateGemRequest) (*entity.Gem, error)
	GetGemsByCreator(ctx context.Context, creator string) ([]entity.Gem, error)
	// GetGemByContract returns domain.ErrGemNotFound when the backend has no record.
	GetGemByContract(ctx context.Context, contract string) (*entity.Gem, error)
	GetAllGems(ctx context.Context, page, limit int) (*entity.GemPage, error)
}

package backend

import (
	dto "rockfun/internal/adapter/storage/backend/dto"
	"rockfun/internal/domain/entity"
)

func toDomainGem(raw dto.GemRaw) entity.Gem {
	return entity.Gem{
		ID:              raw.ID,
		ContractAddress: raw.ContractAddress,
		Name:            raw.Name,
		Symbol:          raw.Symbol,
		Decimals:        raw.Decimals,
		TotalSupply:     raw.TotalSupply,
		CreatorAddress:  raw.CreatorAddress,
		NetworkChainID:  raw.NetworkChainID,
		TransactionHash: raw.TransactionHash,
		ImageURL:        raw.ImageURL,
		CreatedAt:       raw.CreatedAt,
		UpdatedAt:       raw.UpdatedAt,
	}
}

// toDomainGems never returns nil so listings encode as [] rather than null.
func toDomainGems(raws []dto.GemRaw) []entity.Gem {
	gems := make([]entity.Gem, 0, len(raws))
	for _, raw := range raws {
		gems = append(gems, toDomainGem(raw))
	}
	return gems
}

func toCreateGemRaw(req entity.CreateGemRequest) dto.CreateGemRaw {
	return dto.CreateGemRaw{
		ContractAddress: req.ContractAddress,
		Name:            req.Name,
		Symbol:          req.Symbol,
		Decimals:        req.Decimals,
		TotalSupply:     req.TotalSupply,
		CreatorAddress:  req.CreatorAddress,
		NetworkChainID:  req.NetworkChainID,
		TransactionHash: req.TransactionHash,
		ImageURL:        req.ImageURL,
	}
}

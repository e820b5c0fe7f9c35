package port

import (
	"context"

	"rockfun/internal/domain/entity"
	domainService "rockfun/internal/domain/service"
)

// Deployer deploys a Gem token contract through a wallet provider.
type Deployer interface {
	Deploy(
		ctx context.Context,
		provider domainService.Provider,
		deployerAddress string,
		params entity.TokenParams,
		network entity.NetworkConfig,
	) (*entity.DeploymentResult, error)
}

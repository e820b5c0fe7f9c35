package entity

// Gem is a deployed token record as stored by the backend.
type Gem struct {
	ID              string `json:"id,omitempty" yaml:"id,omitempty"`
	ContractAddress string `json:"contractAddress" yaml:"contractAddress"`
	Name            string `json:"name" yaml:"name"`
	Symbol          string `json:"symbol" yaml:"symbol"`
	Decimals        int    `json:"decimals" yaml:"decimals"`
	TotalSupply     string `json:"totalSupply" yaml:"totalSupply"`
	CreatorAddress  string `json:"creatorAddress" yaml:"creatorAddress"`
	NetworkChainID  string `json:"networkChainId" yaml:"networkChainId"`
	TransactionHash string `json:"transactionHash" yaml:"transactionHash"`
	ImageURL        string `json:"imageUrl,omitempty" yaml:"imageUrl,omitempty"`
	CreatedAt       string `json:"createdAt,omitempty" yaml:"createdAt,omitempty"`
	UpdatedAt       string `json:"updatedAt,omitempty" yaml:"updatedAt,omitempty"`
}

// CreateGemRequest is the payload persisted to the backend after a deployment.
type CreateGemRequest struct {
	ContractAddress string `json:"contractAddress" validate:"required,eth_addr"`
	Name            string `json:"name" validate:"required"`
	Symbol          string `json:"symbol" validate:"required,max=10,uppercase"`
	Decimals        int    `json:"decimals" validate:"gte=0,lte=50"`
	TotalSupply     string `json:"totalSupply" validate:"required,positive_integer"`
	CreatorAddress  string `json:"creatorAddress" validate:"required,eth_addr"`
	NetworkChainID  string `json:"networkChainId" validate:"required,hexadecimal"`
	TransactionHash string `json:"transactionHash" validate:"required"`
	ImageURL        string `json:"imageUrl,omitempty" validate:"omitempty,http_url"`
}

// GemPage is one page of the global gem listing.
type GemPage struct {
	Gems  []Gem `json:"gems" yaml:"gems"`
	Total int   `json:"total" yaml:"total"`
	Page  int   `json:"page" yaml:"page"`
	Pages int   `json:"pages" yaml:"pages"`
}

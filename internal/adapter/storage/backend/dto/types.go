package backend_dto

// Envelope wraps every backend response.
type Envelope[T any] struct {
	Message string `json:"message"`
	Data    T      `json:"data"`
}

// GemRaw is a gem as serialized by the backend.
type GemRaw struct {
	ID              string `json:"_id,omitempty"`
	ContractAddress string `json:"contractAddress"`
	Name            string `json:"name"`
	Symbol          string `json:"symbol"`
	Decimals        int    `json:"decimals"`
	TotalSupply     string `json:"totalSupply"`
	CreatorAddress  string `json:"creatorAddress"`
	NetworkChainID  string `json:"networkChainId"`
	TransactionHash string `json:"transactionHash"`
	ImageURL        string `json:"imageUrl,omitempty"`
	CreatedAt       string `json:"createdAt,omitempty"`
	UpdatedAt       string `json:"updatedAt,omitempty"`
}

// CreateGemRaw is the body of POST /api/v1/gems/create.
type CreateGemRaw struct {
	ContractAddress string `json:"contractAddress"`
	Name            string `json:"name"`
	Symbol          string `json:"symbol"`
	Decimals        int    `json:"decimals"`
	TotalSupply     string `json:"totalSupply"`
	CreatorAddress  string `json:"creatorAddress"`
	NetworkChainID  string `json:"networkChainId"`
	TransactionHash string `json:"transactionHash"`
	ImageURL        string `json:"imageUrl,omitempty"`
}

// PaginatedGemsRaw is the data of GET /api/v1/gems.
type PaginatedGemsRaw struct {
	Gems  []GemRaw `json:"gems"`
	Total int      `json:"total"`
	Page  int      `json:"page"`
	Pages int      `json:"pages"`
}

package entity

import (
	"fmt"
	"math/big"
	"strings"
)

// TokenParams are the user-supplied Gem token parameters.
type TokenParams struct {
	Name          string
	Symbol        string
	Decimals      uint8
	NominalSupply string
}

// DeploymentResult is produced once per successful deployment.
type DeploymentResult struct {
	ContractAddress string `json:"contractAddress" yaml:"contractAddress"`
	TransactionHash string `json:"transactionHash" yaml:"transactionHash"`
	// ReceiptHash is set only when the mined receipt reported a different hash than the one returned on submission.
	ReceiptHash  string `json:"receiptHash,omitempty" yaml:"receiptHash,omitempty"`
	HashMismatch bool   `json:"hashMismatch,omitempty" yaml:"hashMismatch,omitempty"`
	GasLimit     uint64 `json:"gasLimit" yaml:"gasLimit"`
	GasPrice     string `json:"gasPrice" yaml:"gasPrice"`
	ScaledSupply string `json:"scaledSupply" yaml:"scaledSupply"`
}

// ScaleSupply returns nominal * 10^decimals using integer arithmetic.
// nominal must be a positive base-10 integer.
func ScaleSupply(nominal string, decimals uint8) (*big.Int, error) {
	s := strings.TrimSpace(nominal)
	if s == "" {
		return nil, fmt.Errorf("supply is empty")
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return nil, fmt.Errorf("supply %q is not a positive integer", nominal)
		}
	}
	n, ok := new(big.Int).SetString(s, 10)
	if !ok || n.Sign() <= 0 {
		return nil, fmt.Errorf("supply %q is not a positive integer", nominal)
	}
	factor := new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(decimals)), nil)
	return n.Mul(n, factor), nil
}

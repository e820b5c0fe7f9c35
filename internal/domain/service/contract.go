package service

import "math/big"

// GemContract encodes the Gem token creation transaction.
type GemContract interface {
	// DeployData returns the contract bytecode followed by the packed constructor arguments.
	DeployData(name, symbol string, decimals uint8, scaledSupply *big.Int, owner string) ([]byte, error)
}

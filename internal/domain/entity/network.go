package entity

import (
	"fmt"
	"math/big"
	"strings"
)

// NetworkID identifies one of the supported Graphite networks.
type NetworkID string

// Known network identifiers.
const (
	NetworkMainnet NetworkID = "mainnet"
	NetworkTestnet NetworkID = "testnet"
)

// Valid reports whether the identifier names a supported network.
func (id NetworkID) Valid() bool {
	return id == NetworkMainnet || id == NetworkTestnet
}

// NativeCurrency describes the chain's native coin.
type NativeCurrency struct {
	Name     string `json:"name" yaml:"name"`
	Symbol   string `json:"symbol" yaml:"symbol"`
	Decimals int    `json:"decimals" yaml:"decimals"`
}

// NetworkConfig is the immutable description of a target chain.
type NetworkConfig struct {
	ID                NetworkID      `json:"id" yaml:"id"`
	ChainIDHex        string         `json:"chainIdHex" yaml:"chainIdHex"`
	ChainIDDecimal    string         `json:"chainIdDecimal" yaml:"chainIdDecimal"`
	ChainName         string         `json:"chainName" yaml:"chainName"`
	NativeCurrency    NativeCurrency `json:"nativeCurrency" yaml:"nativeCurrency"`
	RPCURLs           []RPCURL       `json:"rpcUrls" yaml:"rpcUrls"`
	BlockExplorerURLs []string       `json:"blockExplorerUrls" yaml:"blockExplorerUrls"`
	KycAPIURL         string         `json:"kycApiUrl" yaml:"kycApiUrl"`
	KycAPIKey         string         `json:"-" yaml:"-"`
}

// KycConfigured reports whether a KYC API key is available for this network.
func (n NetworkConfig) KycConfigured() bool {
	return strings.TrimSpace(n.KycAPIKey) != ""
}

// MatchesChainID compares a wallet-reported chain id against this network, case-insensitively.
func (n NetworkConfig) MatchesChainID(chainIDHex string) bool {
	return chainIDHex != "" && strings.EqualFold(NormalizeChainIDHex(chainIDHex), NormalizeChainIDHex(n.ChainIDHex))
}

// PrimaryRPCURL returns the first configured RPC endpoint, or an empty string.
func (n NetworkConfig) PrimaryRPCURL() string {
	if len(n.RPCURLs) == 0 {
		return ""
	}
	return n.RPCURLs[0].String()
}

// ExplorerAddressURL builds an explorer link for an address when the explorer URL is http(s).
func (n NetworkConfig) ExplorerAddressURL(address string) string {
	if len(n.BlockExplorerURLs) == 0 {
		return ""
	}
	base := strings.TrimRight(n.BlockExplorerURLs[0], "/")
	if !strings.HasPrefix(base, "http://") && !strings.HasPrefix(base, "https://") {
		return ""
	}
	return base + "/address/" + address
}

// AddChainParams builds the wallet_addEthereumChain payload for this network.
func (n NetworkConfig) AddChainParams() AddChainParams {
	rpcs := make([]string, 0, len(n.RPCURLs))
	for _, u := range n.RPCURLs {
		rpcs = append(rpcs, u.String())
	}
	return AddChainParams{
		ChainID:           n.ChainIDHex,
		ChainName:         n.ChainName,
		NativeCurrency:    n.NativeCurrency,
		RPCURLs:           rpcs,
		BlockExplorerURLs: n.BlockExplorerURLs,
	}
}

// AddChainParams is the EIP-3085 parameter object.
type AddChainParams struct {
	ChainID           string         `json:"chainId"`
	ChainName         string         `json:"chainName"`
	NativeCurrency    NativeCurrency `json:"nativeCurrency"`
	RPCURLs           []string       `json:"rpcUrls"`
	BlockExplorerURLs []string       `json:"blockExplorerUrls"`
}

// SwitchChainParams is the EIP-3326 parameter object.
type SwitchChainParams struct {
	ChainID string `json:"chainId"`
}

// NormalizeChainIDHex lower-cases a hex chain id and strips leading zeros, keeping the 0x prefix.
func NormalizeChainIDHex(raw string) string {
	s := strings.ToLower(strings.TrimSpace(raw))
	s = strings.TrimPrefix(s, "0x")
	s = strings.TrimLeft(s, "0")
	if s == "" {
		return "0x0"
	}
	return "0x" + s
}

// ChainIDHexFromBig formats a numeric chain id as a 0x-prefixed hex string.
func ChainIDHexFromBig(id *big.Int) string {
	if id == nil {
		return ""
	}
	return fmt.Sprintf("0x%x", id)
}

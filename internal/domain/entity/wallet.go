package entity

import (
	"math/big"
	"strings"
	"time"
)

// WalletVariant distinguishes the generic EIP-1193 wallet from the Graphite wallet.
type WalletVariant string

const (
	VariantGeneric  WalletVariant = "generic"
	VariantGraphite WalletVariant = "graphite"
)

// Phase is the connection lifecycle stage of a wallet session.
type Phase string

const (
	PhaseDisconnected Phase = "disconnected"
	PhaseConnecting   Phase = "connecting"
	PhaseInitializing Phase = "initializing"
	PhaseConnected    Phase = "connected"
	PhaseWrongNetwork Phase = "wrong_network"
	PhaseSwitching    Phase = "switching"
	PhaseReconciling  Phase = "reconciling"
)

// WalletState is an immutable snapshot of a wallet session.
// A new value replaces the previous one on every transition.
type WalletState struct {
	Variant       WalletVariant        `json:"variant" yaml:"variant"`
	Phase         Phase                `json:"phase" yaml:"phase"`
	Account       string               `json:"account,omitempty" yaml:"account,omitempty"`
	ChainIDHex    string               `json:"chainIdHex,omitempty" yaml:"chainIdHex,omitempty"`
	NetworkName   string               `json:"networkName,omitempty" yaml:"networkName,omitempty"`
	BalanceWei    *string              `json:"balanceWei" yaml:"balanceWei"`
	Balance       *string              `json:"balance,omitempty" yaml:"balance,omitempty"`
	IsConnected   bool                 `json:"isConnected" yaml:"isConnected"`
	IsLoading     bool                 `json:"isLoading" yaml:"isLoading"`
	Error         string               `json:"error,omitempty" yaml:"error,omitempty"`
	Kyc           *KycStatus           `json:"kycStatus,omitempty" yaml:"kycStatus,omitempty"`
	AccountInfo   *GraphiteAccountInfo `json:"graphiteAccountInfo,omitempty" yaml:"graphiteAccountInfo,omitempty"`
	TargetNetwork NetworkID            `json:"targetNetwork" yaml:"targetNetwork"`
	Capabilities  Capabilities         `json:"capabilities" yaml:"capabilities"`
	UpdatedAt     time.Time            `json:"updatedAt" yaml:"updatedAt"`
}

// HasAccount reports whether an account is known.
func (s WalletState) HasAccount() bool {
	return s.Account != ""
}

// OnNetwork reports whether the wallet's chain id equals the given network.
func (s WalletState) OnNetwork(n NetworkConfig) bool {
	return n.MatchesChainID(s.ChainIDHex)
}

// Capabilities records which optional provider methods the wallet is known to support.
type Capabilities struct {
	Events              bool `json:"events" yaml:"events"`
	Enable              bool `json:"enable" yaml:"enable"`
	IsEnabled           bool `json:"isEnabled" yaml:"isEnabled"`
	GetAddress          bool `json:"getAddress" yaml:"getAddress"`
	GetBalance          bool `json:"getBalance" yaml:"getBalance"`
	GetAccountInfo      bool `json:"getAccountInfo" yaml:"getAccountInfo"`
	GetActiveNetwork    bool `json:"getActiveNetwork" yaml:"getActiveNetwork"`
	ChangeActiveNetwork bool `json:"changeActiveNetwork" yaml:"changeActiveNetwork"`
}

// GraphiteAccountInfo is returned by the Graphite wallet's getAccountInfo.
type GraphiteAccountInfo struct {
	Balance        string `json:"balance" yaml:"balance"`
	Active         bool   `json:"active" yaml:"active"`
	KycLevel       string `json:"kycLevel" yaml:"kycLevel"`
	KycFilterLevel string `json:"kycFilterLevel" yaml:"kycFilterLevel"`
	Reputation     string `json:"reputation" yaml:"reputation"`
}

// ActiveNetworkInfo is returned by the Graphite wallet's getActiveNetwork.
type ActiveNetworkInfo struct {
	ChainID string `json:"chainId"`
	Name    string `json:"name"`
	RPCURL  string `json:"rpcUrl"`
}

// NetworkParameters is the argument of the Graphite wallet's changeActiveNetwork.
type NetworkParameters struct {
	ChainID string `json:"chainId"`
	RPCURL  string `json:"rpcUrl"`
	Name    string `json:"name,omitempty"`
	Ticker  string `json:"ticker,omitempty"`
}

// ProviderEventKind names an EIP-1193 event.
type ProviderEventKind string

const (
	EventAccountsChanged ProviderEventKind = "accountsChanged"
	EventChainChanged    ProviderEventKind = "chainChanged"
)

// ProviderEvent is a message emitted by a wallet provider.
type ProviderEvent struct {
	Kind     ProviderEventKind
	Accounts []string
	ChainID  string
}

// FormatUnits renders an integer amount with the given number of decimals, trimming trailing zeros.
func FormatUnits(amount *big.Int, decimals int) string {
	if amount == nil {
		return ""
	}
	neg := amount.Sign() < 0
	abs := new(big.Int).Abs(amount)
	if decimals <= 0 {
		if neg {
			return "-" + abs.String()
		}
		return abs.String()
	}

	base := new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(decimals)), nil)
	whole, frac := new(big.Int).QuoRem(abs, base, new(big.Int))

	out := whole.String()
	if frac.Sign() != 0 {
		fs := frac.String()
		fs = strings.Repeat("0", decimals-len(fs)) + fs
		out += "." + strings.TrimRight(fs, "0")
	}
	if neg {
		out = "-" + out
	}
	return out
}

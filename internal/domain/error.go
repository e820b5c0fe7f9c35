package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrProviderNotFound means no wallet provider is reachable.
	ErrProviderNotFound = errors.New("wallet provider not found")

	// ErrUserRejected means the wallet owner denied an authorization, switch or signing request.
	ErrUserRejected = errors.New("user rejected the request")

	// ErrWrongNetwork means the wallet is on a chain other than the target network.
	ErrWrongNetwork = errors.New("wallet connected to wrong network")

	// ErrUnrecognizedChain means the wallet does not know the requested chain.
	ErrUnrecognizedChain = errors.New("unrecognized chain")

	// ErrInvalidNetworkID means a non-empty network id names no configured network.
	ErrInvalidNetworkID = errors.New("invalid network id")

	// ErrNotConnected means an operation needs a connected wallet session.
	ErrNotConnected = errors.New("wallet not connected")

	// ErrUnsupportedCapability means the provider lacks an optional method the operation needs.
	ErrUnsupportedCapability = errors.New("provider capability not supported")

	// ErrKycConfigMissing means no KYC API key is configured for the resolved network.
	ErrKycConfigMissing = errors.New("kyc api key not configured")

	// ErrKycUpstream means the upstream KYC service answered with a non-2xx status.
	ErrKycUpstream = errors.New("kyc upstream error")

	// ErrKycMalformedResponse means the upstream KYC body is not valid JSON.
	ErrKycMalformedResponse = errors.New("kyc upstream malformed response")

	// ErrAccountNotActivated means the account has not completed network activation.
	ErrAccountNotActivated = errors.New("account not activated")

	// ErrGasEstimationFailed means the deploy call could not be estimated.
	ErrGasEstimationFailed = errors.New("gas estimation failed")

	// ErrDeploymentReverted means the deployment transaction mined with a failed status.
	ErrDeploymentReverted = errors.New("deployment reverted")

	// ErrDeploymentMissingAddress means a receipt arrived without a contract address.
	ErrDeploymentMissingAddress = errors.New("deployment receipt has no contract address")

	// ErrDeploymentTimeout means no receipt was observed before the deadline.
	ErrDeploymentTimeout = errors.New("deployment receipt not observed in time")

	// ErrBackendPersistFailed means the on-chain deployment succeeded but the backend record was not saved.
	ErrBackendPersistFailed = errors.New("backend persist failed")

	// ErrGemNotFound means the backend has no record for the requested gem.
	ErrGemNotFound = errors.New("gem not found")
)

// EIP-1193 and JSON-RPC error codes surfaced by wallet providers.
const (
	CodeUserRejected      = 4001
	CodeUnauthorized      = 4100
	CodeUnsupportedMethod = 4200
	CodeDisconnected      = 4900
	CodeUnrecognizedChain = 4902
	CodeMethodNotFound    = -32601
)

// ProviderError is an error returned by a wallet provider request.
type ProviderError struct {
	Code    int
	Message string
	Data    any
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("provider error %d: %s", e.Code, e.Message)
}

// Is maps well-known provider codes onto the domain sentinels.
func (e *ProviderError) Is(target error) bool {
	switch target {
	case ErrUserRejected:
		return e.Code == CodeUserRejected
	case ErrUnrecognizedChain:
		return e.Code == CodeUnrecognizedChain
	case ErrUnsupportedCapability:
		return e.Code == CodeMethodNotFound || e.Code == CodeUnsupportedMethod
	case ErrProviderNotFound:
		return e.Code == CodeDisconnected
	}
	return false
}

// HasProviderCode reports whether err carries a ProviderError with the given code.
func HasProviderCode(err error, code int) bool {
	var pe *ProviderError
	return errors.As(err, &pe) && pe.Code == code
}

// DeploymentError is a deployment failure that happened after the transaction was submitted.
type DeploymentError struct {
	TxHash string
	Err    error
}

func (e *DeploymentError) Error() string {
	return fmt.Sprintf("deployment %s: %v", e.TxHash, e.Err)
}

func (e *DeploymentError) Unwrap() error {
	return e.Err
}

// ProxyError is a KYC relay failure with the HTTP status and body it should be answered with.
type ProxyError struct {
	Status      int
	Message     string
	Details     string
	RawResponse string
	Err         error
}

func (e *ProxyError) Error() string {
	return e.Message
}

func (e *ProxyError) Unwrap() error {
	return e.Err
}

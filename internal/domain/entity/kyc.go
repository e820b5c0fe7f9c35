package entity

import (
	"encoding/json"
	"time"
)

// KycAPIResult is the object form of an upstream KYC lookup result.
type KycAPIResult struct {
	Activated                bool    `json:"activated"`
	ActivationBlockNumber    *string `json:"activationBlockNumber"`
	KycLastUpdateBlockNumber *string `json:"kycLastUpdateBlockNumber"`
	KycLevel                 string  `json:"kycLevel"`
	Reputation               string  `json:"reputation"`
}

// KycAPIResponse is the envelope returned by the upstream KYC API and relayed unchanged by the proxy.
// Result is either a KycAPIResult object or an error string.
type KycAPIResponse struct {
	Status  string          `json:"status"`
	Message string          `json:"message"`
	Result  json.RawMessage `json:"result"`
}

// KycStatus is the session-level view of an account's activation.
type KycStatus struct {
	IsActivated              bool      `json:"isActivated" yaml:"isActivated"`
	KycLevel                 *string   `json:"kycLevel" yaml:"kycLevel"`
	Reputation               *string   `json:"reputation" yaml:"reputation"`
	ActivationBlockNumber    *string   `json:"activationBlockNumber,omitempty" yaml:"activationBlockNumber,omitempty"`
	KycLastUpdateBlockNumber *string   `json:"kycLastUpdateBlockNumber,omitempty" yaml:"kycLastUpdateBlockNumber,omitempty"`
	Error                    string    `json:"error,omitempty" yaml:"error,omitempty"`
	CheckedAt                time.Time `json:"checkedAt" yaml:"checkedAt"`
}

// FailedKycStatus builds a not-activated status carrying an explanation.
func FailedKycStatus(reason string, at time.Time) *KycStatus {
	return &KycStatus{IsActivated: false, Error: reason, CheckedAt: at}
}

// KycStatusFromResponse interprets a relayed upstream body.
func KycStatusFromResponse(resp KycAPIResponse, at time.Time) *KycStatus {
	if resp.Status == "1" && len(resp.Result) > 0 && resp.Result[0] == '{' {
		var result KycAPIResult
		if err := json.Unmarshal(resp.Result, &result); err == nil {
			return &KycStatus{
				IsActivated:              result.Activated,
				KycLevel:                 &result.KycLevel,
				Reputation:               &result.Reputation,
				ActivationBlockNumber:    result.ActivationBlockNumber,
				KycLastUpdateBlockNumber: result.KycLastUpdateBlockNumber,
				CheckedAt:                at,
			}
		}
	}

	msg := resp.Message
	var resultText string
	if err := json.Unmarshal(resp.Result, &resultText); err == nil && resultText != "" {
		msg = resultText
	}
	if msg == "" {
		msg = "Failed to get valid KYC details via proxy."
	}
	return FailedKycStatus(msg, at)
}

package entity

// Protocol defines the type for RPC protocols.
type Protocol string

// Constants for known protocols.
const (
	ProtocolHTTP    Protocol = "http"
	ProtocolHTTPS   Protocol = "https"
	ProtocolWS      Protocol = "ws"
	ProtocolWSS     Protocol = "wss"
	ProtocolUnknown Protocol = "unknown"
)

// RPCDetail holds information about a configured RPC endpoint after probing it.
type RPCDetail struct {
	URL          RPCURL   `json:"url" yaml:"url"`
	Protocol     Protocol `json:"protocol" yaml:"protocol"`
	IsWorking    *bool    `json:"isWorking" yaml:"isWorking"`
	LatencyMs    *int64   `json:"latencyMs,omitempty" yaml:"latencyMs,omitempty"`
	ChainIDHex   string   `json:"chainIdHex,omitempty" yaml:"chainIdHex,omitempty"`
	ChainMatches *bool    `json:"chainMatches,omitempty" yaml:"chainMatches,omitempty"`
}

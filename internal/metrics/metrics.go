package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// HTTPRequestsTotal tracks served requests by route and status code
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "rockfun_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	// HTTPRequestDuration tracks request handling latency
	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "rockfun_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	// KycUpstreamDuration tracks upstream KYC API latency per network
	KycUpstreamDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "rockfun_kyc_upstream_duration_seconds",
			Help:    "Upstream KYC API latency in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"network"},
	)

	// KycProxyResults tracks relay outcomes
	KycProxyResults = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "rockfun_kyc_proxy_results_total",
			Help: "Total KYC proxy requests by outcome",
		},
		[]string{"network", "outcome"},
	)

	// WalletTransitions tracks wallet session phase changes
	WalletTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "rockfun_wallet_transitions_total",
			Help: "Total wallet session state transitions by resulting phase",
		},
		[]string{"variant", "phase"},
	)

	// Deployments tracks contract deployments by outcome
	Deployments = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "rockfun_deployments_total",
			Help: "Total Gem contract deployments by outcome",
		},
		[]string{"network", "outcome"},
	)

	// RPCChecks tracks RPC endpoint probe results
	RPCChecks = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "rockfun_rpc_checks_total",
			Help: "Total RPC endpoint probes by result",
		},
		[]string{"network", "result"},
	)
)

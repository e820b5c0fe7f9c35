package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds all configuration for the application.
type Config struct {
	App      AppConfig      `mapstructure:"app"`
	Server   ServerConfig   `mapstructure:"server"`
	Logger   LoggerConfig   `mapstructure:"logger"`
	Networks NetworksConfig `mapstructure:"networks"`
	Kyc      KycConfig      `mapstructure:"kyc"`
	Checker  CheckerConfig  `mapstructure:"checker"`
	Wallet   WalletConfig   `mapstructure:"wallet"`
	Deploy   DeployConfig   `mapstructure:"deploy"`
	Backend  BackendConfig  `mapstructure:"backend"`
	Metrics  MetricsConfig  `mapstructure:"metrics"`
}

// AppConfig holds application-level configuration.
type AppConfig struct {
	Name    string `mapstructure:"name"`
	Version string `mapstructure:"version"`
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Port            string        `mapstructure:"port"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

// LoggerConfig holds logging configuration.
type LoggerConfig struct {
	Level    string `mapstructure:"level"`
	Encoding string `mapstructure:"encoding"`
}

// NetworksConfig holds the supported Graphite networks and the default target.
type NetworksConfig struct {
	Default string        `mapstructure:"default"`
	Mainnet NetworkConfig `mapstructure:"mainnet"`
	Testnet NetworkConfig `mapstructure:"testnet"`
}

// NetworkConfig is the raw, file/env level description of one network.
type NetworkConfig struct {
	ChainIDHex     string   `mapstructure:"chain_id_hex"`
	ChainIDDecimal string   `mapstructure:"chain_id_decimal"`
	ChainName      string   `mapstructure:"chain_name"`
	CurrencyName   string   `mapstructure:"currency_name"`
	CurrencySymbol string   `mapstructure:"currency_symbol"`
	Decimals       int      `mapstructure:"currency_decimals"`
	RPCURLs        []string `mapstructure:"rpc_urls"`
	ExplorerURL    string   `mapstructure:"explorer_url"`
	KycAPIURL      string   `mapstructure:"kyc_api_url"`
	KycAPIKey      string   `mapstructure:"kyc_api_key"`
}

// KycConfig holds settings for the KYC relay and its clients.
type KycConfig struct {
	ProxyURL        string        `mapstructure:"proxy_url"`
	UpstreamTimeout time.Duration `mapstructure:"upstream_timeout"`
	ClientTimeout   time.Duration `mapstructure:"client_timeout"`
}

// CheckerConfig holds settings related to the RPC health probing.
type CheckerConfig struct {
	CheckTimeout time.Duration `mapstructure:"check_timeout"`
	MaxWorkers   int           `mapstructure:"max_workers"`
	CacheTTL     time.Duration `mapstructure:"cache_ttl"`
}

// WalletConfig describes how the CLI reaches wallet providers.
type WalletConfig struct {
	URL            string        `mapstructure:"url"`
	Kind           string        `mapstructure:"kind"`
	GraphiteURL    string        `mapstructure:"graphite_url"`
	RequestTimeout time.Duration `mapstructure:"request_timeout"`
	ConnectTimeout time.Duration `mapstructure:"connect_timeout"`
}

// DeployConfig holds contract deployment settings.
type DeployConfig struct {
	ABIPath              string        `mapstructure:"abi_path"`
	BytecodePath         string        `mapstructure:"bytecode_path"`
	GasMultiplierPercent uint64        `mapstructure:"gas_multiplier_percent"`
	ReceiptPollInterval  time.Duration `mapstructure:"receipt_poll_interval"`
	ReceiptTimeout       time.Duration `mapstructure:"receipt_timeout"`
}

// BackendConfig holds settings for the remote Gem API.
type BackendConfig struct {
	URL     string        `mapstructure:"url"`
	JWT     string        `mapstructure:"jwt"`
	Timeout time.Duration `mapstructure:"timeout"`
}

// MetricsConfig holds settings for the Prometheus endpoint.
type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Path    string `mapstructure:"path"`
}

// Load reads configuration from a .env file, a config file and environment variables.
func Load(configPath string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		fmt.Printf("Warning: Failed to load .env file: %v\n", err)
	}

	v := viper.New()
	setDefaults(v)

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(configPath)
	v.AddConfigPath(".")

	if err := v.ReadInConfig(); err != nil {
		var configFileNotFoundError viper.ConfigFileNotFoundError
		if errors.As(err, &configFileNotFoundError) {
			fmt.Printf("Warning: Config file not found in %s or '.', using defaults/env vars\n", configPath)
		} else {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	v.SetEnvPrefix("ROCKFUN")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Nested secrets have no defaults, so AutomaticEnv alone does not surface them on Unmarshal.
	_ = v.BindEnv("networks.mainnet.kyc_api_key", "ROCKFUN_NETWORKS_MAINNET_KYC_API_KEY", "GRAPHITE_MAIN_API_KEY")
	_ = v.BindEnv("networks.testnet.kyc_api_key", "ROCKFUN_NETWORKS_TESTNET_KYC_API_KEY", "GRAPHITE_TESTNET_API_KEY")
	_ = v.BindEnv("networks.mainnet.kyc_api_url", "ROCKFUN_NETWORKS_MAINNET_KYC_API_URL", "GRAPHITE_MAINNET_KYC_API_URL")
	_ = v.BindEnv("networks.testnet.kyc_api_url", "ROCKFUN_NETWORKS_TESTNET_KYC_API_URL", "GRAPHITE_TESTNET_KYC_API_URL")
	_ = v.BindEnv("networks.mainnet.explorer_url", "ROCKFUN_NETWORKS_MAINNET_EXPLORER_URL", "GRAPHITE_MAINNET_EXPLORER_URL")
	_ = v.BindEnv("networks.testnet.explorer_url", "ROCKFUN_NETWORKS_TESTNET_EXPLORER_URL", "GRAPHITE_TESTNET_EXPLORER_URL")
	_ = v.BindEnv("backend.jwt", "ROCKFUN_BACKEND_JWT")

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("app.name", "rockfun")
	v.SetDefault("app.version", "1.0.0")
	v.SetDefault("server.port", "8080")
	v.SetDefault("server.read_timeout", "10s")
	v.SetDefault("server.write_timeout", "30s")
	v.SetDefault("server.shutdown_timeout", "10s")
	v.SetDefault("logger.level", "info")
	v.SetDefault("logger.encoding", "json")

	v.SetDefault("networks.default", "testnet")

	v.SetDefault("networks.mainnet.chain_id_hex", "0x6b6d1")
	v.SetDefault("networks.mainnet.chain_id_decimal", "440017")
	v.SetDefault("networks.mainnet.chain_name", "Graphite Mainnet")
	v.SetDefault("networks.mainnet.currency_name", "Graphite")
	v.SetDefault("networks.mainnet.currency_symbol", "@G")
	v.SetDefault("networks.mainnet.currency_decimals", 18)
	v.SetDefault("networks.mainnet.rpc_urls", []string{"https://anon-entrypoint-1.atgraphite.com"})
	v.SetDefault("networks.mainnet.explorer_url", "https://main.atgraphite.com")
	v.SetDefault("networks.mainnet.kyc_api_url", "https://api.main.atgraphite.com/api")

	v.SetDefault("networks.testnet.chain_id_hex", "0xd39a")
	v.SetDefault("networks.testnet.chain_id_decimal", "54170")
	v.SetDefault("networks.testnet.chain_name", "Graphite Testnet")
	v.SetDefault("networks.testnet.currency_name", "Test Graphite")
	v.SetDefault("networks.testnet.currency_symbol", "t@G")
	v.SetDefault("networks.testnet.currency_decimals", 18)
	v.SetDefault("networks.testnet.rpc_urls", []string{"https://anon-entrypoint-test-1.atgraphite.com"})
	v.SetDefault("networks.testnet.explorer_url", "https://test.atgraphite.com")
	v.SetDefault("networks.testnet.kyc_api_url", "https://api.test.atgraphite.com/api")

	v.SetDefault("kyc.proxy_url", "")
	v.SetDefault("kyc.upstream_timeout", "15s")
	v.SetDefault("kyc.client_timeout", "20s")

	v.SetDefault("checker.check_timeout", "5s")
	v.SetDefault("checker.max_workers", 10)
	v.SetDefault("checker.cache_ttl", "5m")

	v.SetDefault("wallet.url", "ws://127.0.0.1:8546")
	v.SetDefault("wallet.kind", "bridge")
	v.SetDefault("wallet.graphite_url", "")
	v.SetDefault("wallet.request_timeout", "2m")
	v.SetDefault("wallet.connect_timeout", "10s")

	v.SetDefault("deploy.abi_path", "")
	v.SetDefault("deploy.bytecode_path", "contracts/gem.bin")
	v.SetDefault("deploy.gas_multiplier_percent", 120)
	v.SetDefault("deploy.receipt_poll_interval", "2s")
	v.SetDefault("deploy.receipt_timeout", "5m")

	v.SetDefault("backend.url", "https://rock-fun-backend.onrender.com")
	v.SetDefault("backend.timeout", "15s")

	v.SetDefault("metrics.enabled", true)
	v.SetDefault("metrics.path", "/metrics")
}

func (c CheckerConfig) GetTimeout() time.Duration {
	return c.CheckTimeout
}

func (c CheckerConfig) GetCacheTTL() time.Duration {
	return c.CacheTTL
}

func (c KycConfig) GetUpstreamTimeout() time.Duration {
	return c.UpstreamTimeout
}

func (c KycConfig) GetClientTimeout() time.Duration {
	return c.ClientTimeout
}

func (c WalletConfig) GetRequestTimeout() time.Duration {
	return c.RequestTimeout
}

func (c DeployConfig) GetReceiptPollInterval() time.Duration {
	return c.ReceiptPollInterval
}

func (c DeployConfig) GetReceiptTimeout() time.Duration {
	return c.ReceiptTimeout
}

func (c BackendConfig) GetTimeout() time.Duration {
	return c.Timeout
}

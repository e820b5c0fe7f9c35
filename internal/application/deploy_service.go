package application

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"time"

	"rockfun/internal/application/port"
	"rockfun/internal/config"
	"rockfun/internal/domain"
	"rockfun/internal/domain/entity"
	domainService "rockfun/internal/domain/service"
	"rockfun/internal/metrics"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"go.uber.org/zap"
)

// Compile-time check
var _ port.Deployer = (*deployService)(nil)

// DeployOption customizes a deployService.
type DeployOption func(*deployService)

// WithTxHashHook registers fn to be called as soon as the transaction hash is known, before mining.
func WithTxHashHook(fn func(hash string)) DeployOption {
	return func(s *deployService) {
		s.onTxHash = fn
	}
}

type deployService struct {
	contract domainService.GemContract
	cfg      config.DeployConfig
	logger   *zap.Logger
	onTxHash func(hash string)
}

// NewDeployService creates the Gem deployment service.
func NewDeployService(
	contract domainService.GemContract,
	cfg config.DeployConfig,
	logger *zap.Logger,
	opts ...DeployOption,
) port.Deployer {
	s := &deployService{
		contract: contract,
		cfg:      cfg,
		logger:   logger.Named("DeployService"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// txReceipt holds the receipt fields the deployment depends on.
type txReceipt struct {
	TransactionHash common.Hash     `json:"transactionHash"`
	ContractAddress *common.Address `json:"contractAddress"`
	Status          *hexutil.Uint64 `json:"status"`
	BlockNumber     *hexutil.Big    `json:"blockNumber"`
}

type deployTx struct {
	From     string          `json:"from"`
	Data     hexutil.Bytes   `json:"data"`
	Gas      *hexutil.Uint64 `json:"gas,omitempty"`
	GasPrice *hexutil.Big    `json:"gasPrice,omitempty"`
}

// Deploy estimates, prices, submits and tracks a Gem contract creation.
func (s *deployService) Deploy(
	ctx context.Context,
	provider domainService.Provider,
	deployerAddress string,
	params entity.TokenParams,
	network entity.NetworkConfig,
) (*entity.DeploymentResult, error) {
	log := s.logger.With(
		zap.String("network", string(network.ID)),
		zap.String("deployer", deployerAddress),
		zap.String("symbol", params.Symbol),
	)

	result, err := s.deploy(ctx, log, provider, deployerAddress, params, network)
	outcome := "success"
	switch {
	case err == nil:
	case errors.Is(err, domain.ErrDeploymentReverted):
		outcome = "reverted"
	case errors.Is(err, domain.ErrGasEstimationFailed):
		outcome = "gas_estimation_failed"
	case errors.Is(err, domain.ErrUserRejected):
		outcome = "rejected"
	default:
		outcome = "failed"
	}
	metrics.Deployments.WithLabelValues(string(network.ID), outcome).Inc()
	return result, err
}

func (s *deployService) deploy(
	ctx context.Context,
	log *zap.Logger,
	provider domainService.Provider,
	deployerAddress string,
	params entity.TokenParams,
	network entity.NetworkConfig,
) (*entity.DeploymentResult, error) {
	if !common.IsHexAddress(deployerAddress) {
		return nil, fmt.Errorf("invalid deployer address %q", deployerAddress)
	}

	chainID, err := requestString(ctx, provider, "eth_chainId")
	if err != nil {
		return nil, fmt.Errorf("read chain id: %w", err)
	}
	if !network.MatchesChainID(chainID) {
		return nil, fmt.Errorf("%w: wallet on %s, target %s (%s)",
			domain.ErrWrongNetwork, chainID, network.ChainName, network.ChainIDHex,
		)
	}

	scaled, err := entity.ScaleSupply(params.NominalSupply, params.Decimals)
	if err != nil {
		return nil, err
	}

	data, err := s.contract.DeployData(params.Name, params.Symbol, params.Decimals, scaled, deployerAddress)
	if err != nil {
		return nil, fmt.Errorf("build deploy data: %w", err)
	}

	tx := deployTx{From: deployerAddress, Data: data}

	var estimate hexutil.Uint64
	if err := requestInto(ctx, provider, &estimate, "eth_estimateGas", tx); err != nil {
		log.Warn("Gas estimation failed", zap.Error(err))
		return nil, fmt.Errorf("%w: %v", domain.ErrGasEstimationFailed, err)
	}

	multiplier := s.cfg.GasMultiplierPercent
	if multiplier == 0 {
		multiplier = 120
	}
	gasLimit := hexutil.Uint64(uint64(estimate) * multiplier / 100)

	var gasPrice hexutil.Big
	if err := requestInto(ctx, provider, &gasPrice, "eth_gasPrice"); err != nil {
		return nil, fmt.Errorf("read gas price: %w", err)
	}

	tx.Gas = &gasLimit
	tx.GasPrice = &gasPrice

	log.Info("Submitting deployment transaction",
		zap.Uint64("gasEstimate", uint64(estimate)),
		zap.Uint64("gasLimit", uint64(gasLimit)),
		zap.String("gasPrice", gasPrice.String()),
		zap.String("scaledSupply", scaled.String()),
	)

	txHash, err := requestString(ctx, provider, "eth_sendTransaction", tx)
	if err != nil {
		return nil, fmt.Errorf("send deployment transaction: %w", err)
	}
	log = log.With(zap.String("txHash", txHash))
	log.Info("Deployment transaction submitted")
	if s.onTxHash != nil {
		s.onTxHash(txHash)
	}

	receipt, err := s.waitForReceipt(ctx, provider, txHash)
	if err != nil {
		log.Error("Deployment receipt not observed", zap.Error(err))
		return nil, &domain.DeploymentError{TxHash: txHash, Err: err}
	}

	if receipt.Status == nil || *receipt.Status == 0 {
		log.Error("Deployment transaction reverted")
		return nil, &domain.DeploymentError{TxHash: txHash, Err: domain.ErrDeploymentReverted}
	}

	result := &entity.DeploymentResult{
		TransactionHash: txHash,
		GasLimit:        uint64(gasLimit),
		GasPrice:        (*big.Int)(&gasPrice).String(),
		ScaledSupply:    scaled.String(),
	}

	receiptHash := receipt.TransactionHash.Hex()
	if receipt.TransactionHash != (common.Hash{}) && !strings.EqualFold(receiptHash, txHash) {
		log.Warn("Receipt transaction hash differs from submitted hash, keeping submitted hash",
			zap.String("receiptHash", receiptHash),
		)
		result.HashMismatch = true
		result.ReceiptHash = receiptHash
	}

	if receipt.ContractAddress == nil || *receipt.ContractAddress == (common.Address{}) {
		log.Error("Deployment receipt has no contract address")
		return nil, &domain.DeploymentError{TxHash: txHash, Err: domain.ErrDeploymentMissingAddress}
	}
	result.ContractAddress = receipt.ContractAddress.Hex()

	log.Info("Gem contract deployed", zap.String("contract", result.ContractAddress))
	return result, nil
}

// waitForReceipt polls until the receipt is available or the receipt timeout elapses.
func (s *deployService) waitForReceipt(
	ctx context.Context,
	provider domainService.Provider,
	txHash string,
) (*txReceipt, error) {
	interval := s.cfg.GetReceiptPollInterval()
	if interval <= 0 {
		interval = 2 * time.Second
	}
	if timeout := s.cfg.GetReceiptTimeout(); timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		raw, err := provider.Request(ctx, "eth_getTransactionReceipt", txHash)
		switch {
		case err != nil && ctx.Err() != nil:
			return nil, fmt.Errorf("%w: %v", domain.ErrDeploymentTimeout, ctx.Err())
		case err != nil:
			s.logger.Debug("Receipt poll failed, retrying", zap.String("txHash", txHash), zap.Error(err))
		case len(raw) > 0 && string(raw) != "null":
			var receipt txReceipt
			if err := json.Unmarshal(raw, &receipt); err != nil {
				return nil, fmt.Errorf("decode receipt: %w", err)
			}
			return &receipt, nil
		}

		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("%w: %v", domain.ErrDeploymentTimeout, ctx.Err())
		case <-ticker.C:
		}
	}
}

// requestInto performs a request and decodes its result into out.
func requestInto(ctx context.Context, p domainService.Provider, out any, method string, params ...any) error {
	raw, err := p.Request(ctx, method, params...)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("%s returned %s: %w", method, string(raw), err)
	}
	return nil
}

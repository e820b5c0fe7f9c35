package contract

import (
	"bytes"
	"errors"
	_ "embed"
	"fmt"
	"math/big"
	"os"
	"strings"

	"rockfun/internal/config"
	domainService "rockfun/internal/domain/service"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
)

//go:embed gem.abi.json
var gemABIJSON []byte

// Compile-time check
var _ domainService.GemContract = (*Artifact)(nil)

// Artifact is the Gem token ABI together with its creation bytecode.
type Artifact struct {
	abi      abi.ABI
	bytecode []byte
}

// NewArtifact parses abiJSON and decodes a 0x-prefixed or bare hex bytecode string.
func NewArtifact(abiJSON []byte, bytecodeHex string) (*Artifact, error) {
	parsed, err := abi.JSON(bytes.NewReader(abiJSON))
	if err != nil {
		return nil, fmt.Errorf("parse ABI: %w", err)
	}
	if len(parsed.Constructor.Inputs) != 5 {
		return nil, fmt.Errorf("gem constructor must take 5 arguments, ABI declares %d", len(parsed.Constructor.Inputs))
	}

	code := strings.TrimSpace(bytecodeHex)
	if !strings.HasPrefix(code, "0x") {
		code = "0x" + code
	}
	bytecode, err := hexutil.Decode(code)
	if err != nil {
		return nil, fmt.Errorf("decode bytecode: %w", err)
	}
	if len(bytecode) == 0 {
		return nil, errors.New("empty bytecode")
	}

	return &Artifact{abi: parsed, bytecode: bytecode}, nil
}

// LoadArtifact reads the bytecode file and, when configured, an ABI override.
func LoadArtifact(cfg config.DeployConfig) (*Artifact, error) {
	abiJSON := gemABIJSON
	if cfg.ABIPath != "" {
		raw, err := os.ReadFile(cfg.ABIPath)
		if err != nil {
			return nil, fmt.Errorf("read ABI %s: %w", cfg.ABIPath, err)
		}
		abiJSON = raw
	}

	if cfg.BytecodePath == "" {
		return nil, errors.New("deploy.bytecode_path is not configured")
	}
	code, err := os.ReadFile(cfg.BytecodePath)
	if err != nil {
		return nil, fmt.Errorf("read bytecode %s: %w", cfg.BytecodePath, err)
	}
	return NewArtifact(abiJSON, string(code))
}

// GemABI returns the embedded Gem token ABI.
func GemABI() (abi.ABI, error) {
	return abi.JSON(bytes.NewReader(gemABIJSON))
}

// DeployData packs (name, symbol, decimals, supply, owner) after the creation bytecode.
func (a *Artifact) DeployData(
	name, symbol string,
	decimals uint8,
	scaledSupply *big.Int,
	owner string,
) ([]byte, error) {
	if !common.IsHexAddress(owner) {
		return nil, fmt.Errorf("invalid owner address %q", owner)
	}
	args, err := a.abi.Pack("", name, symbol, decimals, scaledSupply, common.HexToAddress(owner))
	if err != nil {
		return nil, fmt.Errorf("encode constructor args: %w", err)
	}

	data := make([]byte, 0, len(a.bytecode)+len(args))
	data = append(data, a.bytecode...)
	return append(data, args...), nil
}

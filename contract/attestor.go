package contract

import (
	"context"
	"crypto/ecdsa"
	"fmt"
	"math/big"
	"strings"
	"time"

	"quantumLottoServer/config"
	"quantumLottoServer/logger"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/ethclient"
)

// Draw registry surface used by the service. The registry only needs
// one method: record a parameter-bound entropy commitment per draw.
const attestorABI = `[{"inputs":[{"internalType":"string","name":"drawId","type":"string"},{"internalType":"bytes32","name":"commitment","type":"bytes32"}],"name":"recordDraw","outputs":[],"stateMutability":"nonpayable","type":"function"}]`

// Attestor wraps the draw registry contract interaction
type Attestor struct {
	Client      *ethclient.Client
	Contract    *bind.BoundContract
	ABI         abi.ABI
	Address     common.Address
	PrivateKey  *ecdsa.PrivateKey
	FromAddress common.Address
	chainID     *big.Int
}

// NewAttestor creates a new attestor instance from the environment config
func NewAttestor(cfg config.Env) (*Attestor, error) {
	if cfg.AttestorKey == "" {
		return nil, fmt.Errorf("ATTESTOR_PRIVATE_KEY environment variable not set")
	}
	if cfg.AttestorContract == "" {
		return nil, fmt.Errorf("ATTESTOR_CONTRACT environment variable not set")
	}

	rpcURL := cfg.RPCURL
	if rpcURL == "" {
		rpcURL = config.MantleSepoliaRPC
	}

	client, err := ethclient.Dial(rpcURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to RPC: %w", err)
	}

	contractABI, err := abi.JSON(strings.NewReader(attestorABI))
	if err != nil {
		return nil, fmt.Errorf("failed to parse registry ABI: %w", err)
	}

	// Remove 0x prefix if present
	privateKeyHex := cfg.AttestorKey
	if strings.HasPrefix(privateKeyHex, "0x") {
		privateKeyHex = privateKeyHex[2:]
	}

	privateKey, err := crypto.HexToECDSA(privateKeyHex)
	if err != nil {
		return nil, fmt.Errorf("failed to parse private key: %w", err)
	}

	publicKey := privateKey.Public()
	publicKeyECDSA, ok := publicKey.(*ecdsa.PublicKey)
	if !ok {
		return nil, fmt.Errorf("failed to get public key")
	}

	fromAddress := crypto.PubkeyToAddress(*publicKeyECDSA)
	contractAddress := common.HexToAddress(cfg.AttestorContract)
	boundContract := bind.NewBoundContract(contractAddress, contractABI, client, client, client)

	logger.Infof("✅ Attestor initialized - Registry: %s, Signer: %s", contractAddress.Hex(), fromAddress.Hex())

	return &Attestor{
		Client:      client,
		Contract:    boundContract,
		ABI:         contractABI,
		Address:     contractAddress,
		PrivateKey:  privateKey,
		FromAddress: fromAddress,
		chainID:     big.NewInt(config.MantleChainID),
	}, nil
}

// RecordDraw submits the draw commitment to the registry.
// Fire and forget: the transaction is sent but not waited on, a failed
// attestation never blocks or invalidates a draw.
func (a *Attestor) RecordDraw(ctx context.Context, drawID, commitmentHex string) error {
	// Ensure ABI has the function
	if _, ok := a.ABI.Methods["recordDraw"]; !ok {
		return fmt.Errorf("abi does not contain recordDraw")
	}

	var commitment [32]byte
	copy(commitment[:], common.FromHex(commitmentHex))

	// Create transactor (service pays gas)
	auth, err := bind.NewKeyedTransactorWithChainID(a.PrivateKey, a.chainID)
	if err != nil {
		return fmt.Errorf("failed to create transactor: %v", err)
	}
	auth.Context = ctx
	auth.Value = big.NewInt(0) // non-payable

	// Nonce
	nonce, err := a.Client.PendingNonceAt(ctx, a.FromAddress)
	if err != nil {
		return fmt.Errorf("failed to get nonce: %v", err)
	}
	auth.Nonce = big.NewInt(int64(nonce))

	// Gas price
	gasPrice, err := a.Client.SuggestGasPrice(ctx)
	if err != nil {
		return fmt.Errorf("failed to get gas price: %v", err)
	}
	auth.GasPrice = gasPrice

	// Pack input for estimation
	input, err := a.ABI.Pack("recordDraw", drawID, commitment)
	if err != nil {
		return fmt.Errorf("failed to pack input: %v", err)
	}

	// Estimate gas limit
	gasLimit, err := a.Client.EstimateGas(ctx, ethereum.CallMsg{
		From: a.FromAddress,
		To:   &a.Address,
		Data: input,
	})
	if err != nil {
		logger.Warnf("⚠️ Gas estimation failed, using default: %v", err)
		auth.GasLimit = uint64(config.AttestorGasLimit)
	} else {
		auth.GasLimit = gasLimit + (gasLimit * 20 / 100) // +20% buffer
	}

	logger.Infof("🔄 Calling recordDraw(drawId=%s, commitment=%s) with gasLimit=%d",
		drawID, commitmentHex, auth.GasLimit)

	// Transact - fire and forget, no wait for confirmation
	tx, err := a.Contract.Transact(auth, "recordDraw", drawID, commitment)
	if err != nil {
		// Log failure but don't block the draw flow
		logger.Errorf("❌ recordDraw failed: %v", err)
		return err
	}

	logger.Infof("📤 recordDraw tx sent: %s (not waiting for confirmation)", tx.Hash().Hex())
	return nil
}

// Balance returns the attestor account's current balance
func (a *Attestor) Balance(ctx context.Context) (*big.Int, error) {
	return a.Client.BalanceAt(ctx, a.FromAddress, nil)
}

// MonitorBalance checks that the attestor can still pay for transactions
func (a *Attestor) MonitorBalance(ctx context.Context, minBalance *big.Int) error {
	balance, err := a.Balance(ctx)
	if err != nil {
		return err
	}

	if balance.Cmp(minBalance) < 0 {
		return fmt.Errorf("attestor balance too low: %s (minimum: %s)",
			balance.String(), minBalance.String())
	}

	return nil
}

// BalanceMonitor periodically warns when the signer account runs low
func (a *Attestor) BalanceMonitor(ctx context.Context, interval time.Duration, minBalance *big.Int) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := a.MonitorBalance(ctx, minBalance); err != nil {
				logger.Warnf("⚠️  %v", err)
			}
		}
	}
}

// Close closes the client connection
func (a *Attestor) Close() {
	a.Client.Close()
}

package blockchain

import (
	"context"
	"encoding/hex"
	"errors"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/ethclient"
)

var (
	ErrTransactionNotFound    = errors.New("transaction not found")
	ErrTransactionReverted    = errors.New("transaction reverted")
	ErrNotEnoughConfirmations = errors.New("not enough confirmations")
)

var dialEVMClient = ethclient.Dial

// TransactionProof describes an on-chain transfer that settles a payment
type TransactionProof struct {
	TxHash        string
	From          string
	To            string
	BlockNumber   uint64
	Confirmations uint64
}

// EVMClient provides EVM blockchain interaction for crypto settlements
type EVMClient struct {
	client        *ethclient.Client
	chainID       *big.Int
	rpcURL        string
	confirmations uint64
	// testVerify allows deterministic unit tests without network sockets.
	testVerify func(ctx context.Context, txHash, expectedTo string) (*TransactionProof, error)
}

// NewEVMClient creates a new EVM client
func NewEVMClient(rpcURL string, confirmations uint64) (*EVMClient, error) {
	client, err := dialEVMClient(rpcURL)
	if err != nil {
		return nil, err
	}

	chainID, err := client.ChainID(context.Background())
	if err != nil {
		return nil, err
	}

	return &EVMClient{
		client:        client,
		chainID:       chainID,
		rpcURL:        rpcURL,
		confirmations: confirmations,
	}, nil
}

// NewEVMClientWithVerifier creates an EVM client that uses an injected
// verification implementation. This is intended for unit tests where RPC
// sockets are unavailable.
func NewEVMClientWithVerifier(chainID *big.Int, verifyFn func(ctx context.Context, txHash, expectedTo string) (*TransactionProof, error)) *EVMClient {
	if chainID == nil {
		chainID = big.NewInt(1)
	}
	return &EVMClient{
		chainID:    chainID,
		testVerify: verifyFn,
	}
}

// ChainID returns the chain ID
func (c *EVMClient) ChainID() *big.Int {
	return c.chainID
}

// GenerateDepositAddress derives a fresh deposit address from a new secp256k1
// keypair. The private key is returned hex encoded for custody storage.
func (c *EVMClient) GenerateDepositAddress() (address string, privateKeyHex string, err error) {
	key, err := crypto.GenerateKey()
	if err != nil {
		return "", "", err
	}

	addr := crypto.PubkeyToAddress(key.PublicKey)
	return addr.Hex(), hex.EncodeToString(crypto.FromECDSA(key)), nil
}

// VerifyTransaction checks that a submitted tx hash landed on chain, did not
// revert, paid the expected deposit address, and has enough confirmations.
func (c *EVMClient) VerifyTransaction(ctx context.Context, txHash, expectedTo string) (*TransactionProof, error) {
	if c.testVerify != nil {
		return c.testVerify(ctx, txHash, expectedTo)
	}

	hash := common.HexToHash(txHash)

	tx, pending, err := c.client.TransactionByHash(ctx, hash)
	if err != nil {
		return nil, ErrTransactionNotFound
	}
	if pending {
		return nil, ErrNotEnoughConfirmations
	}
	if tx.To() == nil || tx.To().Hex() != common.HexToAddress(expectedTo).Hex() {
		return nil, ErrTransactionNotFound
	}

	receipt, err := c.client.TransactionReceipt(ctx, hash)
	if err != nil {
		return nil, ErrTransactionNotFound
	}
	if receipt.Status != types.ReceiptStatusSuccessful {
		return nil, ErrTransactionReverted
	}

	head, err := c.client.BlockNumber(ctx)
	if err != nil {
		return nil, err
	}

	confirmed := uint64(0)
	if head >= receipt.BlockNumber.Uint64() {
		confirmed = head - receipt.BlockNumber.Uint64() + 1
	}
	if confirmed < c.confirmations {
		return nil, ErrNotEnoughConfirmations
	}

	// Sender recovery is best effort: a proof without the sender is still
	// enough to settle, the deposit address is what we verify.
	from := ""
	if sender, err := types.Sender(types.LatestSignerForChainID(c.chainID), tx); err == nil {
		from = sender.Hex()
	}

	return &TransactionProof{
		TxHash:        hash.Hex(),
		From:          from,
		To:            tx.To().Hex(),
		BlockNumber:   receipt.BlockNumber.Uint64(),
		Confirmations: confirmed,
	}, nil
}

// EstimateNetworkFee returns the current suggested gas price in wei
func (c *EVMClient) EstimateNetworkFee(ctx context.Context) (*big.Int, error) {
	return c.client.SuggestGasPrice(ctx)
}

// Close closes the client connection
func (c *EVMClient) Close() {
	if c.client != nil {
		c.client.Close()
	}
}

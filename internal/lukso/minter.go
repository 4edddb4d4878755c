package lukso

import (
	"context"
	"crypto/ecdsa"
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/ethclient"

	"github.com/phygital-labs/shopify-lukso-bridge/internal/domain"
	"github.com/phygital-labs/shopify-lukso-bridge/internal/logger"
)

// lsp4MetadataKey is the well-known ERC725Y data key the token metadata URI
// is stored under.
var lsp4MetadataKey = common.HexToHash("0x9afb95cacc9f95858ec44aa8c3b685511002e30ae54415823f406128b85b238e")

const lsp8ABI = `[
	{"name":"mint","type":"function","stateMutability":"nonpayable","inputs":[{"name":"to","type":"address"},{"name":"tokenId","type":"bytes32"},{"name":"force","type":"bool"},{"name":"data","type":"bytes"}],"outputs":[]},
	{"name":"setData","type":"function","stateMutability":"payable","inputs":[{"name":"dataKey","type":"bytes32"},{"name":"dataValue","type":"bytes"}],"outputs":[]}
]`

// TokenMinter mints one token and associates its metadata URI, returning the
// hash of the mint transaction.
type TokenMinter interface {
	Mint(ctx context.Context, contractAddress, recipient string, tokenID common.Hash, tokenURI string) (string, error)
}

type Config struct {
	RPCURL     string
	ChainID    int64
	PrivateKey string
	TxTimeout  time.Duration
}

// Minter submits LSP8 transactions signed with the operator key. The key
// must have mint permission on every contract it is pointed at.
type Minter struct {
	client  *ethclient.Client
	key     *ecdsa.PrivateKey
	chainID *big.Int
	lsp8    abi.ABI
	timeout time.Duration
}

func NewMinter(cfg Config) (*Minter, error) {
	client, err := ethclient.Dial(cfg.RPCURL)
	if err != nil {
		return nil, fmt.Errorf("dial rpc: %w", err)
	}
	key, err := crypto.HexToECDSA(strings.TrimPrefix(cfg.PrivateKey, "0x"))
	if err != nil {
		return nil, fmt.Errorf("parse operator key: %w", err)
	}
	parsed, err := abi.JSON(strings.NewReader(lsp8ABI))
	if err != nil {
		return nil, fmt.Errorf("parse lsp8 abi: %w", err)
	}
	timeout := cfg.TxTimeout
	if timeout <= 0 {
		timeout = 90 * time.Second
	}
	return &Minter{
		client:  client,
		key:     key,
		chainID: big.NewInt(cfg.ChainID),
		lsp8:    parsed,
		timeout: timeout,
	}, nil
}

// Mint sends the mint transaction, waits for it to be mined, then sets the
// LSP4 metadata URI in a second transaction. The two transactions are not
// atomic: when setData fails the mint stands and the error propagates.
func (m *Minter) Mint(ctx context.Context, contractAddress, recipient string, tokenID common.Hash, tokenURI string) (string, error) {
	if !common.IsHexAddress(contractAddress) {
		return "", fmt.Errorf("invalid contract address %q", contractAddress)
	}
	if !common.IsHexAddress(recipient) {
		return "", fmt.Errorf("invalid recipient address %q", recipient)
	}
	contract := bind.NewBoundContract(common.HexToAddress(contractAddress), m.lsp8, m.client, m.client, m.client)

	// force=true: Universal Profile recipients may not implement the
	// LSP1 receiver hook.
	mintHash, err := m.transact(ctx, contract, "lukso.mint", "mint",
		common.HexToAddress(recipient), tokenID, true, []byte{})
	if err != nil {
		return "", err
	}

	payload, err := encodeTokenURI(tokenURI)
	if err != nil {
		return "", fmt.Errorf("encode token uri: %w", err)
	}
	if _, err := m.transact(ctx, contract, "lukso.set_data", "setData", lsp4MetadataKey, payload); err != nil {
		logger.Error("metadata set failed, mint stands without metadata",
			"mint_tx", mintHash, "token_id", tokenID.Hex(), "err", err)
		return "", err
	}

	return mintHash, nil
}

// Balance returns the native LYX balance of an address in wei.
func (m *Minter) Balance(ctx context.Context, address string) (*big.Int, error) {
	if !common.IsHexAddress(address) {
		return nil, fmt.Errorf("invalid address %q", address)
	}
	wei, err := m.client.BalanceAt(ctx, common.HexToAddress(address), nil)
	if err != nil {
		return nil, domain.NewRemoteError(domain.ErrKindNetwork, "lukso.balance", err)
	}
	return wei, nil
}

func (m *Minter) transact(ctx context.Context, contract *bind.BoundContract, op, method string, args ...any) (string, error) {
	txCtx, cancel := context.WithTimeout(ctx, m.timeout)
	defer cancel()

	opts, err := bind.NewKeyedTransactorWithChainID(m.key, m.chainID)
	if err != nil {
		return "", fmt.Errorf("build transactor: %w", err)
	}
	opts.Context = txCtx

	tx, err := contract.Transact(opts, method, args...)
	if err != nil {
		return "", classifyChain(op, err)
	}
	receipt, err := bind.WaitMined(txCtx, m.client, tx)
	if err != nil {
		return "", domain.NewRemoteError(domain.ErrKindNetwork, op, err)
	}
	if receipt.Status != types.ReceiptStatusSuccessful {
		return "", domain.NewRemoteError(domain.ErrKindContractRevert, op,
			fmt.Errorf("tx %s reverted", tx.Hash().Hex()))
	}
	return tx.Hash().Hex(), nil
}

func classifyChain(op string, err error) error {
	if strings.Contains(err.Error(), "execution reverted") {
		return domain.NewRemoteError(domain.ErrKindContractRevert, op, err)
	}
	return domain.NewRemoteError(domain.ErrKindNetwork, op, err)
}

// internal/provider/keystore.go
package provider

import (
	"context"
	"crypto/ecdsa"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/ethclient"
)

// KeystoreProvider is a provider backed by a local private key and a JSON-RPC
// node. It is the headless counterpart of a browser wallet: one fixed
// account, so AccountsChanged never fires.
type KeystoreProvider struct {
	client  *ethclient.Client
	key     *ecdsa.PrivateKey
	address common.Address
	chainID *big.Int

	accountsCh chan []string
}

func NewKeystoreProvider(ctx context.Context, rpcURL, privateKeyHex string) (*KeystoreProvider, error) {
	client, err := ethclient.DialContext(ctx, rpcURL)
	if err != nil {
		return nil, fmt.Errorf("failed to dial chain rpc: %w", err)
	}

	key, err := crypto.HexToECDSA(privateKeyHex)
	if err != nil {
		return nil, fmt.Errorf("invalid private key: %w", err)
	}

	chainID, err := client.ChainID(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to query chain id: %w", err)
	}

	return &KeystoreProvider{
		client:     client,
		key:        key,
		address:    crypto.PubkeyToAddress(key.PublicKey),
		chainID:    chainID,
		accountsCh: make(chan []string),
	}, nil
}

func (p *KeystoreProvider) RequestAccounts(_ context.Context) ([]string, error) {
	return []string{p.address.Hex()}, nil
}

func (p *KeystoreProvider) ListAccounts(_ context.Context) ([]string, error) {
	return []string{p.address.Hex()}, nil
}

func (p *KeystoreProvider) Signer(_ context.Context) (Signer, error) {
	return &keystoreSigner{provider: p}, nil
}

// AccountsChanged never delivers: a local key cannot change from outside.
func (p *KeystoreProvider) AccountsChanged() <-chan []string {
	return p.accountsCh
}

func (p *KeystoreProvider) Close() {
	p.client.Close()
	close(p.accountsCh)
}

type keystoreSigner struct {
	provider *KeystoreProvider
}

func (s *keystoreSigner) Address(_ context.Context) (string, error) {
	return s.provider.address.Hex(), nil
}

func (s *keystoreSigner) SendTransaction(ctx context.Context, req TxRequest) (TxHandle, error) {
	p := s.provider

	if !common.IsHexAddress(req.To) {
		return nil, fmt.Errorf("invalid recipient address %q", req.To)
	}
	to := common.HexToAddress(req.To)

	nonce, err := p.client.PendingNonceAt(ctx, p.address)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch nonce: %w", err)
	}

	gasPrice, err := p.client.SuggestGasPrice(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch gas price: %w", err)
	}

	tx := types.NewTx(&types.LegacyTx{
		Nonce:    nonce,
		To:       &to,
		Value:    req.Value,
		Gas:      req.GasLimit,
		GasPrice: gasPrice,
		Data:     req.Data,
	})

	signed, err := types.SignTx(tx, types.LatestSignerForChainID(p.chainID), p.key)
	if err != nil {
		return nil, fmt.Errorf("failed to sign transaction: %w", err)
	}

	if err := p.client.SendTransaction(ctx, signed); err != nil {
		return nil, fmt.Errorf("failed to send transaction: %w", err)
	}

	return &keystoreTxHandle{client: p.client, tx: signed}, nil
}

type keystoreTxHandle struct {
	client *ethclient.Client
	tx     *types.Transaction
}

func (h *keystoreTxHandle) Hash() string {
	return h.tx.Hash().Hex()
}

func (h *keystoreTxHandle) Wait(ctx context.Context) error {
	receipt, err := bind.WaitMined(ctx, h.client, h.tx)
	if err != nil {
		return fmt.Errorf("failed to await confirmation: %w", err)
	}
	if receipt.Status != types.ReceiptStatusSuccessful {
		return fmt.Errorf("transaction %s reverted", h.tx.Hash().Hex())
	}
	return nil
}

package chain

import (
	"context"
	"crypto/ecdsa"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/ethclient"
	"golang.org/x/time/rate"

	"github.com/linlinbupt123-crypto/sweep_service/config"
	wrapErrors "github.com/linlinbupt123-crypto/sweep_service/errors"
)

// Gas limits for the two transfer shapes the service submits. A plain
// value transfer is exactly 21000; the token transfer limit leaves
// headroom over a typical ERC-20 transfer.
const (
	NativeTransferGas uint64 = 21_000
	TokenTransferGas  uint64 = 90_000
)

// ETHClient wraps one shared RPC connection. It is dialed once at startup
// and injected wherever chain access is needed; every outbound call first
// passes the shared rate limiter so concurrent sweep workers cannot
// exceed the node's rate budget.
type ETHClient struct {
	client  *ethclient.Client
	chainID *big.Int
	token   common.Address
	limiter *rate.Limiter
}

func NewETHClient(ctx context.Context, cfg config.ChainConfig) (*ETHClient, error) {
	client, err := ethclient.Dial(cfg.RPC)
	if err != nil {
		return nil, wrapErrors.WrapWithCode(wrapErrors.DailChain, "eth dial", err)
	}

	chainID := big.NewInt(cfg.ChainID)
	if cfg.ChainID == 0 {
		chainID, err = client.NetworkID(ctx)
		if err != nil {
			return nil, wrapErrors.WrapWithCode(wrapErrors.GetchainIDErr, "get chainID", err)
		}
	}

	if !common.IsHexAddress(cfg.TokenContract) {
		return nil, wrapErrors.New(wrapErrors.CodeBadRequest, "eth client", "invalid token contract address")
	}

	limit := rate.Limit(cfg.RateLimit)
	if cfg.RateLimit <= 0 {
		limit = rate.Inf
	}
	burst := cfg.RateBurst
	if burst < 1 {
		burst = 1
	}

	return &ETHClient{
		client:  client,
		chainID: chainID,
		token:   common.HexToAddress(cfg.TokenContract),
		limiter: rate.NewLimiter(limit, burst),
	}, nil
}

// ValidAddress reports whether s parses as a hex chain address.
func (e *ETHClient) ValidAddress(s string) bool {
	return common.IsHexAddress(s)
}

// NativeBalance returns the base-asset balance in wei.
func (e *ETHClient) NativeBalance(ctx context.Context, address string) (*big.Int, error) {
	if err := e.limiter.Wait(ctx); err != nil {
		return nil, err
	}
	bal, err := e.client.BalanceAt(ctx, common.HexToAddress(address), nil)
	if err != nil {
		return nil, wrapErrors.WrapWithCode(wrapErrors.CodeChainRPC, "native balance", err)
	}
	return bal, nil
}

// TokenBalance calls balanceOf on the token contract and returns the raw
// integer base units.
func (e *ETHClient) TokenBalance(ctx context.Context, address string) (*big.Int, error) {
	callData, err := packBalanceOf(common.HexToAddress(address))
	if err != nil {
		return nil, err
	}
	if err := e.limiter.Wait(ctx); err != nil {
		return nil, err
	}
	raw, err := e.client.CallContract(ctx, callMsg(e.token, callData), nil)
	if err != nil {
		return nil, wrapErrors.WrapWithCode(wrapErrors.CodeChainRPC, "token balanceOf", err)
	}
	return unpackBalance(raw)
}

// SendNative signs and broadcasts a plain value transfer. gasFeeCap bounds
// the per-gas price; the signer exists only for the duration of the call.
func (e *ETHClient) SendNative(ctx context.Context, priv *ecdsa.PrivateKey, to string, amountWei, gasFeeCap *big.Int) (string, error) {
	toAddr := common.HexToAddress(to)
	return e.submit(ctx, priv, &toAddr, amountWei, nil, NativeTransferGas, gasFeeCap)
}

// SendToken signs and broadcasts an ERC-20 transfer of rawAmount base
// units to the given recipient.
func (e *ETHClient) SendToken(ctx context.Context, priv *ecdsa.PrivateKey, to string, rawAmount, gasFeeCap *big.Int) (string, error) {
	data, err := packTransfer(common.HexToAddress(to), rawAmount)
	if err != nil {
		return "", err
	}
	return e.submit(ctx, priv, &e.token, big.NewInt(0), data, TokenTransferGas, gasFeeCap)
}

func (e *ETHClient) submit(ctx context.Context, priv *ecdsa.PrivateKey, to *common.Address, value *big.Int, data []byte, gas uint64, gasFeeCap *big.Int) (string, error) {
	fromAddr := crypto.PubkeyToAddress(priv.PublicKey)

	if err := e.limiter.Wait(ctx); err != nil {
		return "", err
	}
	nonce, err := e.client.PendingNonceAt(ctx, fromAddr)
	if err != nil {
		return "", wrapErrors.WrapWithCode(wrapErrors.PendingNonceAt, "PendingNonceAt", err)
	}

	if err := e.limiter.Wait(ctx); err != nil {
		return "", err
	}
	tip, err := e.client.SuggestGasTipCap(ctx)
	if err != nil {
		return "", wrapErrors.WrapWithCode(wrapErrors.CodeChainRPC, "SuggestGasTipCap", err)
	}
	// The tip can never exceed the overall cap.
	if tip.Cmp(gasFeeCap) > 0 {
		tip = new(big.Int).Set(gasFeeCap)
	}

	tx := types.NewTx(&types.DynamicFeeTx{
		ChainID:   e.chainID,
		Nonce:     nonce,
		GasTipCap: tip,
		GasFeeCap: gasFeeCap,
		Gas:       gas,
		To:        to,
		Value:     value,
		Data:      data,
	})

	signer := types.NewLondonSigner(e.chainID)
	signedTx, err := types.SignTx(tx, signer, priv)
	if err != nil {
		return "", wrapErrors.WrapWithCode(wrapErrors.SignerErr, "SignTx", err)
	}

	if err := e.limiter.Wait(ctx); err != nil {
		return "", err
	}
	if err := e.client.SendTransaction(ctx, signedTx); err != nil {
		return "", wrapErrors.WrapWithCode(wrapErrors.SendTxErr, "SendTransaction", err)
	}

	return signedTx.Hash().Hex(), nil
}

// Close releases the underlying RPC connection.
func (e *ETHClient) Close() {
	e.client.Close()
}

package service

import (
	"context"
	"crypto/ecdsa"
	"math/big"

	"github.com/shopspring/decimal"

	"github.com/linlinbupt123-crypto/sweep_service/chain"
	apperrors "github.com/linlinbupt123-crypto/sweep_service/errors"
	"github.com/linlinbupt123-crypto/sweep_service/utils"
)

// Executor signs and submits consolidating transfers under a fixed fee
// ceiling: the configured native amount is the most one transaction may
// spend on fees, turned into a per-gas cap over the transfer's gas budget.
// When the network is too congested for that cap the node rejects the
// submission; there is no up-front congestion check.
type Executor struct {
	Chain      ChainClient
	FeeCeiling decimal.Decimal
}

func NewExecutor(chainClient ChainClient, feeCeiling decimal.Decimal) *Executor {
	return &Executor{Chain: chainClient, FeeCeiling: feeCeiling}
}

// SendNative submits a native transfer. The returned hash means accepted
// for broadcast, nothing more.
func (e *Executor) SendNative(ctx context.Context, priv *ecdsa.PrivateKey, to string, amount decimal.Decimal) (string, error) {
	hash, err := e.Chain.SendNative(ctx, priv, to, utils.ToWei(amount), e.gasFeeCap(chain.NativeTransferGas))
	if err != nil {
		return "", apperrors.WrapWithCode(apperrors.CodeTransfer, "executor.SendNative", err)
	}
	return hash, nil
}

// SendToken submits a token transfer. The amount is converted to base units
// with the fixed exponent in utils.TokenDecimals.
func (e *Executor) SendToken(ctx context.Context, priv *ecdsa.PrivateKey, to string, amount decimal.Decimal) (string, error) {
	hash, err := e.Chain.SendToken(ctx, priv, to, utils.ToTokenUnits(amount), e.gasFeeCap(chain.TokenTransferGas))
	if err != nil {
		return "", apperrors.WrapWithCode(apperrors.CodeTransfer, "executor.SendToken", err)
	}
	return hash, nil
}

func (e *Executor) gasFeeCap(gasLimit uint64) *big.Int {
	return new(big.Int).Div(utils.ToWei(e.FeeCeiling), new(big.Int).SetUint64(gasLimit))
}

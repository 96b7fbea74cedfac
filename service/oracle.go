package service

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/linlinbupt123-crypto/sweep_service/utils"
)

// Reading is one side of a balance snapshot: an amount when the read
// succeeded, the cause when it did not. An unreadable balance is not zero,
// and the sweep policy skips what it cannot see.
type Reading struct {
	Amount decimal.Decimal
	Err    error
}

func (r Reading) Readable() bool { return r.Err == nil }

// Snapshot is a point-in-time view of one address's two balances.
type Snapshot struct {
	Address string
	Native  Reading
	Token   Reading
}

// Oracle reads native and token balances through the chain client. The two
// reads are independent; one failing never hides the other.
type Oracle struct {
	Chain ChainClient
}

func NewOracle(chain ChainClient) *Oracle {
	return &Oracle{Chain: chain}
}

func (o *Oracle) Read(ctx context.Context, address string) Snapshot {
	snap := Snapshot{Address: address}

	if wei, err := o.Chain.NativeBalance(ctx, address); err != nil {
		snap.Native = Reading{Err: err}
	} else {
		snap.Native = Reading{Amount: utils.FromWei(wei)}
	}

	if units, err := o.Chain.TokenBalance(ctx, address); err != nil {
		snap.Token = Reading{Err: err}
	} else {
		snap.Token = Reading{Amount: utils.FromTokenUnits(units)}
	}
	return snap
}

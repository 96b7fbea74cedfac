package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// TokenKind distinguishes the chain's base asset from the custodied token.
type TokenKind string

const (
	KindNative TokenKind = "native"
	KindToken  TokenKind = "token"
)

// TxStatus is the lifecycle of a sweep transaction. The service only ever
// creates rows at StatusPending; a separate confirmation feed advances them
// forward (pending -> confirmed or failed, never back).
type TxStatus string

const (
	StatusPending   TxStatus = "pending"
	StatusConfirmed TxStatus = "confirmed"
	StatusFailed    TxStatus = "failed"
)

// SweepTransaction records one consolidating transfer from a deposit
// address to the master wallet. TxHash is globally unique; inserting the
// same hash twice is a no-op at the repository level. Amount is stored as
// a decimal string to keep Mongo round-trips lossless.
type SweepTransaction struct {
	ID          string    `bson:"_id,omitempty" json:"id"`
	FromAddress string    `bson:"from_address" json:"from_address"`
	ToAddress   string    `bson:"to_address" json:"to_address"`
	Kind        TokenKind `bson:"kind" json:"kind"`
	Amount      string    `bson:"amount" json:"amount"`
	TxHash      string    `bson:"tx_hash" json:"tx_hash"`
	Status      TxStatus  `bson:"status" json:"status"`
	CreatedAt   time.Time `bson:"created_at" json:"created_at"`
}

// AmountDecimal parses the stored amount; malformed rows count as zero.
func (t *SweepTransaction) AmountDecimal() decimal.Decimal {
	d, err := decimal.NewFromString(t.Amount)
	if err != nil {
		return decimal.Zero
	}
	return d
}

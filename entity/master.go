package entity

import "time"

// MasterBalance is the single upsert-by-address row tracking the master
// wallet: its last observed balance and the running total received from
// sweeps. Amounts are decimal strings.
type MasterBalance struct {
	Address       string    `bson:"_id" json:"address"`
	Balance       string    `bson:"balance" json:"balance"`
	TotalReceived string    `bson:"total_received" json:"total_received"`
	UpdatedAt     time.Time `bson:"updated_at" json:"updated_at"`
}

package entity

import (
	"time"
)

// Address is a custodial deposit address derived from the master seed.
// The row caches what was derived; the seed plus Index is always enough
// to re-derive Address and its key, so the collection is an allocation
// index, not the source of truth for derivation.
type Address struct {
	ID           string    `bson:"_id,omitempty" json:"id"`
	OwnerRef     int64     `bson:"owner_ref" json:"owner_ref"`
	Index        uint32    `bson:"index" json:"index"` // address_index component of the BIP-44 path
	Address      string    `bson:"address" json:"address"`
	EncryptedKey []byte    `bson:"encrypted_key" json:"-"`
	Label        string    `bson:"label" json:"label"`
	Active       bool      `bson:"active" json:"active"`
	TokenBalance string    `bson:"token_balance,omitempty" json:"token_balance,omitempty"` // last known, updated opportunistically
	CreatedAt    time.Time `bson:"created_at" json:"created_at"`
}

package repository

import (
	"context"

	"github.com/linlinbupt123-crypto/sweep_service/db"
	"github.com/linlinbupt123-crypto/sweep_service/entity"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

type AddressRepo struct {
	col *mongo.Collection
}

func NewAddressRepo(m *db.MongoRepo) *AddressRepo {
	return &AddressRepo{col: m.AddrColl}
}

func (r *AddressRepo) Create(ctx context.Context, addr *entity.Address) error {
	_, err := r.col.InsertOne(ctx, addr)
	return err
}

// ListActive returns every address flagged for sweeping, in no particular order.
func (r *AddressRepo) ListActive(ctx context.Context) ([]*entity.Address, error) {
	cur, err := r.col.Find(ctx, bson.M{"active": true})
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var out []*entity.Address
	for cur.Next(ctx) {
		var a entity.Address
		if err := cur.Decode(&a); err == nil {
			out = append(out, &a)
		}
	}
	return out, cur.Err()
}

// CountByOwner drives index allocation: the next derivation index for an
// owner is the number of addresses already allocated to them.
func (r *AddressRepo) CountByOwner(ctx context.Context, ownerRef int64) (int64, error) {
	return r.col.CountDocuments(ctx, bson.M{"owner_ref": ownerRef})
}

func (r *AddressRepo) GetByOwner(ctx context.Context, ownerRef int64) ([]*entity.Address, error) {
	cur, err := r.col.Find(ctx, bson.M{"owner_ref": ownerRef})
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var out []*entity.Address
	for cur.Next(ctx) {
		var a entity.Address
		if err := cur.Decode(&a); err == nil {
			out = append(out, &a)
		}
	}
	return out, cur.Err()
}

// GetByAddress looks up one row by its on-chain address.
func (r *AddressRepo) GetByAddress(ctx context.Context, address string) (*entity.Address, error) {
	var addr entity.Address
	err := r.col.FindOne(ctx, bson.M{"address": address}).Decode(&addr)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &addr, nil
}

// UpdateTokenBalance stores the last observed token balance for an address.
func (r *AddressRepo) UpdateTokenBalance(ctx context.Context, id string, balance string) error {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return err
	}
	_, err = r.col.UpdateOne(ctx,
		bson.M{"_id": oid},
		bson.M{"$set": bson.M{"token_balance": balance}},
	)
	return err
}

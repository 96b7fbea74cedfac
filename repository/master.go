package repository

import (
	"context"

	"github.com/linlinbupt123-crypto/sweep_service/db"
	"github.com/linlinbupt123-crypto/sweep_service/entity"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type MasterRepo struct {
	col *mongo.Collection
}

func NewMasterRepo(m *db.MongoRepo) *MasterRepo {
	return &MasterRepo{col: m.MasterCol}
}

// Upsert writes the master wallet row, keyed by address.
func (r *MasterRepo) Upsert(ctx context.Context, mb *entity.MasterBalance) error {
	opts := options.Update().SetUpsert(true)
	_, err := r.col.UpdateOne(ctx,
		bson.M{"_id": mb.Address},
		bson.M{"$set": bson.M{
			"balance":        mb.Balance,
			"total_received": mb.TotalReceived,
			"updated_at":     mb.UpdatedAt,
		}},
		opts,
	)
	return err
}

func (r *MasterRepo) Get(ctx context.Context, address string) (*entity.MasterBalance, error) {
	var mb entity.MasterBalance
	err := r.col.FindOne(ctx, bson.M{"_id": address}).Decode(&mb)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &mb, nil
}

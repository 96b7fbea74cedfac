package repository

import (
	"context"

	"github.com/linlinbupt123-crypto/sweep_service/db"
	"github.com/linlinbupt123-crypto/sweep_service/entity"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

type TransactionRepo struct {
	col *mongo.Collection
}

func NewTransactionRepo(m *db.MongoRepo) *TransactionRepo {
	return &TransactionRepo{col: m.TxColl}
}

// Insert persists one sweep transaction. tx_hash carries a unique index, so
// re-inserting a hash that is already stored is reported as inserted=false
// rather than an error: the transfer happened once, the record exists once.
func (r *TransactionRepo) Insert(ctx context.Context, tx *entity.SweepTransaction) (string, bool, error) {
	res, err := r.col.InsertOne(ctx, tx)
	if mongo.IsDuplicateKeyError(err) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	objectID := res.InsertedID.(primitive.ObjectID)
	return objectID.Hex(), true, nil
}

// GetByHash returns the stored record for a transaction hash, nil if absent.
func (r *TransactionRepo) GetByHash(ctx context.Context, txHash string) (*entity.SweepTransaction, error) {
	var tx entity.SweepTransaction
	err := r.col.FindOne(ctx, bson.M{"tx_hash": txHash}).Decode(&tx)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &tx, nil
}

// ListByAddress returns the sweep history for one source address.
func (r *TransactionRepo) ListByAddress(ctx context.Context, address string) ([]*entity.SweepTransaction, error) {
	cur, err := r.col.Find(ctx, bson.M{"from_address": address})
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var out []*entity.SweepTransaction
	for cur.Next(ctx) {
		var tx entity.SweepTransaction
		if err := cur.Decode(&tx); err == nil {
			out = append(out, &tx)
		}
	}
	return out, cur.Err()
}

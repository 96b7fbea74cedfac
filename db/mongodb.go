package db

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	AddressCollection     = "addresses"
	TransactionCollection = "transactions"
	MasterCollection      = "master_balance"
)

// MongoRepo bundles the shared client and the collections the service
// uses. It is constructed once at startup and handed to the repositories;
// nothing re-dials mid-request.
type MongoRepo struct {
	Client    *mongo.Client
	DB        *mongo.Database
	AddrColl  *mongo.Collection
	TxColl    *mongo.Collection
	MasterCol *mongo.Collection
}

func NewMongoRepo(ctx context.Context, uri, dbName string) (*MongoRepo, error) {
	clientOpts := options.Client().ApplyURI(uri)
	client, err := mongo.Connect(ctx, clientOpts)
	if err != nil {
		return nil, err
	}
	// ping
	ctx2, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := client.Ping(ctx2, nil); err != nil {
		return nil, err
	}
	database := client.Database(dbName)
	return &MongoRepo{
		Client:    client,
		DB:        database,
		AddrColl:  database.Collection(AddressCollection),
		TxColl:    database.Collection(TransactionCollection),
		MasterCol: database.Collection(MasterCollection),
	}, nil
}

// Close disconnects the underlying client.
func (r *MongoRepo) Close(ctx context.Context) error {
	return r.Client.Disconnect(ctx)
}

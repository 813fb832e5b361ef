package repository

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

func ConnectMongoDB(ctx context.Context, uri, database string) (*mongo.Database, error) {
	clientOpts := options.Client().
		ApplyURI(uri).
		SetConnectTimeout(10 * time.Second).
		SetServerSelectionTimeout(5 * time.Second).
		SetMaxPoolSize(100).
		SetMinPoolSize(10)

	client, err := mongo.Connect(ctx, clientOpts)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to MongoDB: %w", err)
	}

	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("failed to ping MongoDB: %w", err)
	}

	return client.Database(database), nil
}

// EnsureIndexes creates the indexes of every collection used by the service.
func EnsureIndexes(ctx context.Context, db *mongo.Database) error {
	for _, ix := range []interface {
		CreateIndexes(ctx context.Context) error
	}{
		&productRepository{collection: db.Collection(productsCollection)},
		&orderRepository{collection: db.Collection(ordersCollection)},
		&cartRepository{collection: db.Collection(cartsCollection)},
	} {
		if err := ix.CreateIndexes(ctx); err != nil {
			return err
		}
	}
	return nil
}

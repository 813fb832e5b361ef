package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/fjod/go_cart/storefront/internal/domain"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const maxIDAttempts = 5

type orderRepository struct {
	collection *mongo.Collection
	newID      func() string
}

func NewOrderRepository(db *mongo.Database) OrderRepository {
	return &orderRepository{
		collection: db.Collection(ordersCollection),
		newID:      domain.NewOrderID,
	}
}

// Create inserts the order, allocating a fresh id whenever the random one is already taken.
func (r *orderRepository) Create(ctx context.Context, o *domain.Order) error {
	now := time.Now()
	o.CreatedAt = now
	o.UpdatedAt = now
	if o.ID == "" {
		o.ID = r.newID()
	}

	for attempt := 0; attempt < maxIDAttempts; attempt++ {
		_, err := r.collection.InsertOne(ctx, o)
		if err == nil {
			return nil
		}
		if !mongo.IsDuplicateKeyError(err) {
			return fmt.Errorf("failed to insert order: %w", err)
		}
		o.ID = r.newID()
	}
	return ErrDuplicateID
}

func (r *orderRepository) GetByID(ctx context.Context, id string) (*domain.Order, error) {
	var o domain.Order
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&o)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrOrderNotFound
		}
		return nil, fmt.Errorf("failed to get order: %w", err)
	}
	return &o, nil
}

func (r *orderRepository) ListByUser(ctx context.Context, userID string) ([]*domain.Order, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})
	cursor, err := r.collection.Find(ctx, bson.M{"user_id": userID}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to list orders: %w", err)
	}
	defer cursor.Close(ctx)

	orders := make([]*domain.Order, 0)
	if err := cursor.All(ctx, &orders); err != nil {
		return nil, fmt.Errorf("failed to decode orders: %w", err)
	}
	return orders, nil
}

func (r *orderRepository) Update(ctx context.Context, o *domain.Order) error {
	o.UpdatedAt = time.Now()

	result, err := r.collection.ReplaceOne(ctx, bson.M{"_id": o.ID}, o)
	if err != nil {
		return fmt.Errorf("failed to update order: %w", err)
	}
	if result.MatchedCount == 0 {
		return ErrOrderNotFound
	}
	return nil
}

func (r *orderRepository) ReferencesProduct(ctx context.Context, productID string) (bool, error) {
	n, err := r.collection.CountDocuments(ctx,
		bson.M{"items.product_id": productID},
		options.Count().SetLimit(1))
	if err != nil {
		return false, fmt.Errorf("failed to check order references: %w", err)
	}
	return n > 0, nil
}

func (r *orderRepository) CreateIndexes(ctx context.Context) error {
	indexes := []mongo.IndexModel{
		{Keys: bson.D{{Key: "user_id", Value: 1}, {Key: "created_at", Value: -1}}},
		{Keys: bson.D{{Key: "items.product_id", Value: 1}}},
	}

	_, err := r.collection.Indexes().CreateMany(ctx, indexes)
	if err != nil {
		return fmt.Errorf("failed to create order indexes: %w", err)
	}
	return nil
}

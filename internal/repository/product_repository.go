package repository

import (
	"context"
	"errors"
	"fmt"
	"math"
	"regexp"
	"time"

	"github.com/fjod/go_cart/storefront/internal/domain"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const defaultPageSize = 12

type productRepository struct {
	collection *mongo.Collection
}

func NewProductRepository(db *mongo.Database) ProductRepository {
	return &productRepository{
		collection: db.Collection(productsCollection),
	}
}

func parseProductID(id string) (primitive.ObjectID, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return primitive.NilObjectID, ErrProductNotFound
	}
	return oid, nil
}

func (r *productRepository) Create(ctx context.Context, p *domain.Product) error {
	now := time.Now()
	if p.ID.IsZero() {
		p.ID = primitive.NewObjectID()
	}
	p.CreatedAt = now
	p.UpdatedAt = now
	if p.Reviews == nil {
		p.Reviews = []domain.Review{}
	}

	_, err := r.collection.InsertOne(ctx, p)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return ErrDuplicateProduct
		}
		return fmt.Errorf("failed to insert product: %w", err)
	}
	return nil
}

func (r *productRepository) GetByID(ctx context.Context, id string) (*domain.Product, error) {
	oid, err := parseProductID(id)
	if err != nil {
		return nil, err
	}

	var p domain.Product
	err = r.collection.FindOne(ctx, bson.M{"_id": oid}).Decode(&p)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrProductNotFound
		}
		return nil, fmt.Errorf("failed to get product: %w", err)
	}
	return &p, nil
}

func (r *productRepository) List(ctx context.Context, f ProductFilter) ([]*domain.Product, int64, error) {
	filter := bson.M{}
	if f.Category != "" {
		filter["category"] = f.Category
	}
	price := bson.M{}
	if f.MinPrice != nil {
		price["$gte"] = *f.MinPrice
	}
	if f.MaxPrice != nil {
		price["$lte"] = *f.MaxPrice
	}
	if len(price) > 0 {
		filter["price"] = price
	}
	if f.Keyword != "" {
		rx := primitive.Regex{Pattern: regexp.QuoteMeta(f.Keyword), Options: "i"}
		filter["$or"] = bson.A{
			bson.M{"name": rx},
			bson.M{"description": rx},
		}
	}

	total, err := r.collection.CountDocuments(ctx, filter)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to count products: %w", err)
	}

	pageSize := f.PageSize
	if pageSize <= 0 {
		pageSize = defaultPageSize
	}
	page := f.Page
	if page < 1 {
		page = 1
	}

	opts := options.Find().
		SetSort(sortFor(f.Sort)).
		SetSkip(skipFor(page, pageSize)).
		SetLimit(int64(pageSize))

	products, err := r.find(ctx, filter, opts)
	if err != nil {
		return nil, 0, err
	}
	return products, total, nil
}

// skipFor returns the number of documents before page, saturating at math.MaxInt64.
func skipFor(page, pageSize int) int64 {
	if page <= 1 || pageSize <= 0 {
		return 0
	}
	n, size := int64(page-1), int64(pageSize)
	if n > math.MaxInt64/size {
		return math.MaxInt64
	}
	return n * size
}

func sortFor(s SortOrder) bson.D {
	switch s {
	case SortPriceAsc:
		return bson.D{{Key: "price", Value: 1}}
	case SortPriceDesc:
		return bson.D{{Key: "price", Value: -1}}
	case SortNameAsc:
		return bson.D{{Key: "name", Value: 1}}
	case SortNameDesc:
		return bson.D{{Key: "name", Value: -1}}
	default:
		return bson.D{{Key: "created_at", Value: -1}}
	}
}

func (r *productRepository) ListRelated(ctx context.Context, p *domain.Product, limit int) ([]*domain.Product, error) {
	filter := bson.M{
		"category": p.Category,
		"_id":      bson.M{"$ne": p.ID},
	}
	return r.find(ctx, filter, options.Find().SetLimit(int64(limit)))
}

func (r *productRepository) ListFeatured(ctx context.Context, limit int) ([]*domain.Product, error) {
	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}}).
		SetLimit(int64(limit))
	return r.find(ctx, bson.M{"featured": true}, opts)
}

func (r *productRepository) ListByCategory(ctx context.Context, category domain.Category, limit int) ([]*domain.Product, error) {
	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}}).
		SetLimit(int64(limit))
	return r.find(ctx, bson.M{"category": category}, opts)
}

func (r *productRepository) find(ctx context.Context, filter bson.M, opts *options.FindOptions) ([]*domain.Product, error) {
	cursor, err := r.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to find products: %w", err)
	}
	defer cursor.Close(ctx)

	products := make([]*domain.Product, 0)
	if err := cursor.All(ctx, &products); err != nil {
		return nil, fmt.Errorf("failed to decode products: %w", err)
	}
	return products, nil
}

// Update writes the editable catalog fields. Reviews and aggregates are left untouched.
func (r *productRepository) Update(ctx context.Context, p *domain.Product) error {
	p.UpdatedAt = time.Now()

	update := bson.M{
		"$set": bson.M{
			"name":           p.Name,
			"description":    p.Description,
			"price":          p.Price,
			"discount":       p.Discount,
			"stock":          p.Stock,
			"category":       p.Category,
			"images":         p.Images,
			"specifications": p.Specifications,
			"featured":       p.Featured,
			"updated_at":     p.UpdatedAt,
		},
	}
	result, err := r.collection.UpdateOne(ctx, bson.M{"_id": p.ID}, update)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return ErrDuplicateProduct
		}
		return fmt.Errorf("failed to update product: %w", err)
	}
	if result.MatchedCount == 0 {
		return ErrProductNotFound
	}
	return nil
}

// AddReview appends review and recomputes rating and num_reviews in a single write.
// It fails with domain.ErrAlreadyReviewed when the user already reviewed the product.
func (r *productRepository) AddReview(ctx context.Context, id string, review domain.Review) (*domain.Product, error) {
	oid, err := parseProductID(id)
	if err != nil {
		return nil, err
	}

	filter := bson.M{
		"_id":             oid,
		"reviews.user_id": bson.M{"$ne": review.UserID},
	}
	pipeline := mongo.Pipeline{
		{{Key: "$set", Value: bson.M{
			"reviews": bson.M{"$concatArrays": bson.A{
				bson.M{"$ifNull": bson.A{"$reviews", bson.A{}}},
				bson.A{bson.M{"$literal": review}},
			}},
			"updated_at": time.Now(),
		}}},
		{{Key: "$set", Value: bson.M{
			"num_reviews": bson.M{"$size": "$reviews"},
			"rating":      bson.M{"$avg": "$reviews.rating"},
		}}},
	}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var p domain.Product
	err = r.collection.FindOneAndUpdate(ctx, filter, pipeline, opts).Decode(&p)
	if err == nil {
		return &p, nil
	}
	if !errors.Is(err, mongo.ErrNoDocuments) {
		return nil, fmt.Errorf("failed to add review: %w", err)
	}

	n, err := r.collection.CountDocuments(ctx, bson.M{"_id": oid})
	if err != nil {
		return nil, fmt.Errorf("failed to check product: %w", err)
	}
	if n == 0 {
		return nil, ErrProductNotFound
	}
	return nil, domain.ErrAlreadyReviewed
}

func (r *productRepository) Delete(ctx context.Context, id string) error {
	oid, err := parseProductID(id)
	if err != nil {
		return err
	}

	result, err := r.collection.DeleteOne(ctx, bson.M{"_id": oid})
	if err != nil {
		return fmt.Errorf("failed to delete product: %w", err)
	}
	if result.DeletedCount == 0 {
		return ErrProductNotFound
	}
	return nil
}

// DecrementStock atomically subtracts quantity when at least quantity units are in stock
// and returns the updated product. It returns ErrStockConflict when the stock is lower.
func (r *productRepository) DecrementStock(ctx context.Context, id string, quantity int) (*domain.Product, error) {
	oid, err := parseProductID(id)
	if err != nil {
		return nil, err
	}

	filter := bson.M{
		"_id":   oid,
		"stock": bson.M{"$gte": quantity},
	}
	update := bson.M{
		"$inc": bson.M{"stock": -quantity},
		"$set": bson.M{"updated_at": time.Now()},
	}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var p domain.Product
	err = r.collection.FindOneAndUpdate(ctx, filter, update, opts).Decode(&p)
	if err == nil {
		return &p, nil
	}
	if !errors.Is(err, mongo.ErrNoDocuments) {
		return nil, fmt.Errorf("failed to decrement stock: %w", err)
	}

	n, err := r.collection.CountDocuments(ctx, bson.M{"_id": oid})
	if err != nil {
		return nil, fmt.Errorf("failed to check product: %w", err)
	}
	if n == 0 {
		return nil, ErrProductNotFound
	}
	return nil, ErrStockConflict
}

func (r *productRepository) IncrementStock(ctx context.Context, id string, quantity int) error {
	oid, err := parseProductID(id)
	if err != nil {
		return err
	}

	update := bson.M{
		"$inc": bson.M{"stock": quantity},
		"$set": bson.M{"updated_at": time.Now()},
	}
	result, err := r.collection.UpdateOne(ctx, bson.M{"_id": oid}, update)
	if err != nil {
		return fmt.Errorf("failed to increment stock: %w", err)
	}
	if result.MatchedCount == 0 {
		return ErrProductNotFound
	}
	return nil
}

func (r *productRepository) CreateIndexes(ctx context.Context) error {
	indexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "name", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{
			Keys: bson.D{{Key: "category", Value: 1}, {Key: "created_at", Value: -1}},
		},
		{
			Keys: bson.D{{Key: "featured", Value: 1}},
		},
	}

	_, err := r.collection.Indexes().CreateMany(ctx, indexes)
	if err != nil {
		return fmt.Errorf("failed to create product indexes: %w", err)
	}
	return nil
}

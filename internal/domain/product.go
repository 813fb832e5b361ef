package domain

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// LowStockThreshold is the highest positive stock level that triggers a stock alert.
const LowStockThreshold = 5

var ErrAlreadyReviewed = errors.New("product already reviewed by this user")

type Category string

const (
	CategoryWeapons     Category = "armas"
	CategoryClothing    Category = "ropa"
	CategoryBait        Category = "carnada"
	CategoryAccessories Category = "accesorios"
)

func (c Category) Valid() bool {
	switch c {
	case CategoryWeapons, CategoryClothing, CategoryBait, CategoryAccessories:
		return true
	}
	return false
}

type Review struct {
	UserID    string    `bson:"user_id" json:"user"`
	UserName  string    `bson:"user_name" json:"name"`
	Rating    int       `bson:"rating" json:"rating"`
	Comment   string    `bson:"comment" json:"comment"`
	CreatedAt time.Time `bson:"created_at" json:"createdAt"`
}

type Product struct {
	ID             primitive.ObjectID `bson:"_id,omitempty" json:"_id"`
	Name           string             `bson:"name" json:"name"`
	Description    string             `bson:"description" json:"description"`
	Price          float64            `bson:"price" json:"price"`
	Discount       float64            `bson:"discount" json:"discount"`
	Stock          int                `bson:"stock" json:"stock"`
	Category       Category           `bson:"category" json:"category"`
	Images         []string           `bson:"images" json:"images"`
	Specifications map[string]string  `bson:"specifications,omitempty" json:"specifications,omitempty"`
	Reviews        []Review           `bson:"reviews" json:"reviews"`
	Rating         float64            `bson:"rating" json:"rating"`
	NumReviews     int                `bson:"num_reviews" json:"numReviews"`
	Featured       bool               `bson:"featured" json:"featured"`
	CreatedAt      time.Time          `bson:"created_at" json:"createdAt"`
	UpdatedAt      time.Time          `bson:"updated_at" json:"updatedAt"`
}

// FinalPrice applies the percentage discount and rounds to cents.
func (p *Product) FinalPrice() float64 {
	price := decimal.NewFromFloat(p.Price)
	factor := decimal.NewFromInt(1).Sub(decimal.NewFromFloat(p.Discount).Div(decimal.NewFromInt(100)))
	return price.Mul(factor).Round(2).InexactFloat64()
}

func (p *Product) IsLowStock() bool {
	return p.Stock > 0 && p.Stock <= LowStockThreshold
}

// AddReview appends a review and recomputes the aggregate rating.
func (p *Product) AddReview(r Review) error {
	for _, existing := range p.Reviews {
		if existing.UserID == r.UserID {
			return ErrAlreadyReviewed
		}
	}
	p.Reviews = append(p.Reviews, r)
	p.RecalculateRating()
	return nil
}

func (p *Product) RecalculateRating() {
	p.NumReviews = len(p.Reviews)
	if p.NumReviews == 0 {
		p.Rating = 0
		return
	}
	sum := 0
	for _, r := range p.Reviews {
		sum += r.Rating
	}
	p.Rating = float64(sum) / float64(p.NumReviews)
}

// ProductView is the client representation of a product with its derived price.
type ProductView struct {
	*Product
	FinalPrice float64 `json:"finalPrice"`
}

func NewProductView(p *Product) ProductView {
	return ProductView{Product: p, FinalPrice: p.FinalPrice()}
}

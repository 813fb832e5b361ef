package domain

import (
	"fmt"
	"math/rand"
	"time"
)

type OrderStatus string

const (
	StatusProcessed OrderStatus = "Procesado"
	StatusShipped   OrderStatus = "Enviado"
	StatusDelivered OrderStatus = "Entregado"
	StatusCancelled OrderStatus = "Cancelado"
)

func (s OrderStatus) Valid() bool {
	switch s {
	case StatusProcessed, StatusShipped, StatusDelivered, StatusCancelled:
		return true
	}
	return false
}

func (s OrderStatus) String() string {
	return string(s)
}

// NewOrderID returns a human readable id of the form ORD-NNNNN.
// Ids are random, callers must handle collisions.
func NewOrderID() string {
	return fmt.Sprintf("ORD-%05d", 10000+rand.Intn(90000))
}

type OrderItem struct {
	ProductID string  `bson:"product_id" json:"product" validate:"required"`
	Name      string  `bson:"name" json:"name"`
	Quantity  int     `bson:"quantity" json:"quantity" validate:"gte=1"`
	Image     string  `bson:"image" json:"image"`
	Price     float64 `bson:"price" json:"price" validate:"gte=0"`
}

type ShippingAddress struct {
	Street  string `bson:"street" json:"street" validate:"required"`
	City    string `bson:"city" json:"city" validate:"required"`
	State   string `bson:"state" json:"state" validate:"required"`
	ZipCode string `bson:"zip_code" json:"zipCode" validate:"required"`
	Country string `bson:"country" json:"country" validate:"required"`
}

type PaymentResult struct {
	ID           string `bson:"id" json:"id"`
	Status       string `bson:"status" json:"status"`
	UpdateTime   string `bson:"update_time" json:"update_time"`
	EmailAddress string `bson:"email_address" json:"email_address"`
}

type Order struct {
	ID              string          `bson:"_id" json:"_id"`
	UserID          string          `bson:"user_id" json:"user"`
	UserEmail       string          `bson:"user_email,omitempty" json:"-"`
	Items           []OrderItem     `bson:"items" json:"orderItems"`
	ShippingAddress ShippingAddress `bson:"shipping_address" json:"shippingAddress"`
	PaymentMethod   string          `bson:"payment_method" json:"paymentMethod"`
	PaymentResult   *PaymentResult  `bson:"payment_result,omitempty" json:"paymentResult,omitempty"`
	ItemsPrice      float64         `bson:"items_price" json:"itemsPrice"`
	TaxPrice        float64         `bson:"tax_price" json:"taxPrice"`
	ShippingPrice   float64         `bson:"shipping_price" json:"shippingPrice"`
	TotalPrice      float64         `bson:"total_price" json:"totalPrice"`
	CouponCode      string          `bson:"coupon_code,omitempty" json:"couponCode,omitempty"`
	DiscountAmount  float64         `bson:"discount_amount" json:"discountAmount"`
	IsPaid          bool            `bson:"is_paid" json:"isPaid"`
	PaidAt          *time.Time      `bson:"paid_at,omitempty" json:"paidAt,omitempty"`
	IsDelivered     bool            `bson:"is_delivered" json:"isDelivered"`
	DeliveredAt     *time.Time      `bson:"delivered_at,omitempty" json:"deliveredAt,omitempty"`
	Status          OrderStatus     `bson:"status" json:"status"`
	CreatedAt       time.Time       `bson:"created_at" json:"createdAt"`
	UpdatedAt       time.Time       `bson:"updated_at" json:"updatedAt"`
}

// CanBeViewedBy reports whether the identity owns the order or is an administrator.
func (o *Order) CanBeViewedBy(id Identity) bool {
	return id.IsAdmin || (id.UserID != "" && o.UserID == id.UserID)
}

func (o *Order) MarkPaid(result PaymentResult, now time.Time) {
	o.IsPaid = true
	o.PaidAt = &now
	o.PaymentResult = &result
}

func (o *Order) MarkDelivered(now time.Time) {
	o.IsDelivered = true
	o.DeliveredAt = &now
	o.Status = StatusDelivered
}

// SetStatus moves the order to any status. Entering Entregado also marks the order delivered.
func (o *Order) SetStatus(status OrderStatus, now time.Time) {
	if status == StatusDelivered {
		o.MarkDelivered(now)
		return
	}
	o.Status = status
}

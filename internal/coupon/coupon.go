// Package coupon evaluates discount codes against an order subtotal.
package coupon

import (
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

var (
	ErrInvalidCoupon = errors.New("invalid or expired coupon")
	ErrInvalidInput  = errors.New("coupon code and a positive subtotal are required")
)

var rates = map[string]decimal.Decimal{
	"HUNTER20":  decimal.RequireFromString("0.20"),
	"WELCOME10": decimal.RequireFromString("0.10"),
}

type Result struct {
	Valid          bool    `json:"valid"`
	Code           string  `json:"code"`
	DiscountAmount float64 `json:"discountAmount"`
	Message        string  `json:"message"`
}

// Evaluate returns the discount for code applied to subtotal, rounded to cents.
func Evaluate(code string, subtotal float64) (Result, error) {
	if strings.TrimSpace(code) == "" || subtotal <= 0 {
		return Result{}, ErrInvalidInput
	}

	rate, ok := rates[code]
	if !ok {
		return Result{}, ErrInvalidCoupon
	}

	discount := decimal.NewFromFloat(subtotal).Mul(rate).Round(2)
	return Result{
		Valid:          true,
		Code:           code,
		DiscountAmount: discount.InexactFloat64(),
		Message:        fmt.Sprintf("coupon applied: %s%% off", rate.Mul(decimal.NewFromInt(100)).String()),
	}, nil
}

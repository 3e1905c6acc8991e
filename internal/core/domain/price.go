package domain

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

// Price is a non-negative amount held as integer cents so that stored and
// compared values keep exactly two decimal places.
type Price int64

// maxPriceExponent bounds the decimal exponent accepted from clients, keeping
// rescaling cheap for inputs such as "1e999999999".
const maxPriceExponent = 20

var maxPrice = decimal.New(math.MaxInt64/100-1, 0)

// ParsePrice converts decimal text such as "1.5", "2", "0.99" or "3e0" to a
// Price. More than two significant fractional digits is rejected.
func ParsePrice(s string) (Price, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, Invalid("price is required")
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return 0, Invalid("price must be a number")
	}
	if exp := d.Exponent(); exp > maxPriceExponent || exp < -maxPriceExponent {
		return 0, Invalid("price is out of range")
	}
	if d.IsNegative() {
		return 0, Invalid("price must be non-negative")
	}
	if !d.Equal(d.Round(2)) {
		return 0, Invalid("price must have at most two decimal places")
	}
	if d.GreaterThan(maxPrice) {
		return 0, Invalid("price is out of range")
	}
	return Price(d.Shift(2).IntPart()), nil
}

// Cents returns the amount in hundredths.
func (p Price) Cents() int64 { return int64(p) }

// Float64 is for display and metrics only; never use it for arithmetic.
func (p Price) Float64() float64 { return float64(p) / 100 }

func (p Price) String() string {
	return fmt.Sprintf("%d.%02d", int64(p)/100, int64(p)%100)
}

// MarshalJSON renders the price as a JSON number with two decimals.
func (p Price) MarshalJSON() ([]byte, error) {
	return []byte(p.String()), nil
}

// UnmarshalJSON accepts a JSON number or a numeric string.
func (p *Price) UnmarshalJSON(b []byte) error {
	raw := strings.TrimSpace(string(b))
	if raw == "null" {
		return nil
	}
	if unq, err := strconv.Unquote(raw); err == nil {
		raw = unq
	}
	v, err := ParsePrice(raw)
	if err != nil {
		return err
	}
	*p = v
	return nil
}

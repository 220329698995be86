// Package money provides the fixed-point price type used for every monetary
// value in shopkit. Prices are never represented as floats — all arithmetic
// goes through shopspring/decimal so cents stay exact.
package money

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

var (
	ErrNegativePrice = errors.New("money: price must not be negative")
	ErrTooManyDigits = errors.New("money: price exceeds the configured number of digits")
)

// Price is a fixed-point monetary amount.
type Price struct {
	value decimal.Decimal
}

// Zero is the zero price.
var Zero = Price{}

// NewFromString parses a decimal string such as "19.99".
func NewFromString(s string) (Price, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return Price{}, fmt.Errorf("money: parse %q: %w", s, err)
	}
	return Price{value: d}, nil
}

// MustFromString is NewFromString that panics on malformed input.
// Intended for constants and tests.
func MustFromString(s string) Price {
	p, err := NewFromString(s)
	if err != nil {
		panic(err)
	}
	return p
}

// NewFromDecimal wraps an existing decimal value.
func NewFromDecimal(d decimal.Decimal) Price {
	return Price{value: d}
}

// Decimal exposes the underlying decimal for interop (storage, JSON).
func (p Price) Decimal() decimal.Decimal { return p.value }

// String renders the canonical decimal representation.
func (p Price) String() string { return p.value.String() }

// Add returns p + other.
func (p Price) Add(other Price) Price {
	return Price{value: p.value.Add(other.value)}
}

// MulQuantity returns the line total for a quantity of items priced at p.
func (p Price) MulQuantity(quantity int) Price {
	return Price{value: p.value.Mul(decimal.NewFromInt(int64(quantity)))}
}

// Equal reports whether two prices represent the same amount.
func (p Price) Equal(other Price) bool { return p.value.Equal(other.value) }

// IsNegative reports whether the price is below zero.
func (p Price) IsNegative() bool { return p.value.IsNegative() }

// MarshalJSON renders the price as a JSON string, e.g. "19.99".
// Strings, not numbers — JSON numbers are floats in most consumers.
func (p Price) MarshalJSON() ([]byte, error) {
	return []byte(`"` + p.value.String() + `"`), nil
}

// UnmarshalJSON accepts a decimal string.
func (p *Price) UnmarshalJSON(data []byte) error {
	var d decimal.Decimal
	if err := d.UnmarshalJSON(data); err != nil {
		return fmt.Errorf("money: unmarshal price: %w", err)
	}
	p.value = d
	return nil
}

// Field describes the storage shape of a price column: total significant
// digits and digits after the decimal point. It mirrors a SQL
// DECIMAL(MaxDigits, DecimalPlaces) declaration.
type Field struct {
	MaxDigits     int
	DecimalPlaces int
}

// DefaultField matches the most common shop configuration.
var DefaultField = Field{MaxDigits: 12, DecimalPlaces: 2}

// Validate checks that a price fits the field and is not negative.
func (f Field) Validate(p Price) error {
	if p.IsNegative() {
		return ErrNegativePrice
	}
	intDigits := len(p.value.Truncate(0).BigInt().String())
	if p.value.Truncate(0).Sign() == 0 {
		intDigits = 0
	}
	if intDigits > f.MaxDigits-f.DecimalPlaces {
		return fmt.Errorf("%w: %s does not fit DECIMAL(%d,%d)",
			ErrTooManyDigits, p, f.MaxDigits, f.DecimalPlaces)
	}
	return nil
}

// Quantize rounds a price half-up to the field's decimal places.
func (f Field) Quantize(p Price) Price {
	return Price{value: p.value.Round(int32(f.DecimalPlaces))}
}

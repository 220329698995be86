package domain

import "github.com/jcmexdev/shopkit/internal/pkg/money"

// PricingPolicy is the extension point for currency and tax handling.
// Tax calculation and currency conversion are not part of the toolkit;
// composing applications supply their own policy.
type PricingPolicy interface {
	// Currency returns the ISO 4217 code prices are quoted in.
	Currency() string

	// Taxes returns the tax amount for a given net price.
	Taxes(net money.Price) money.Price
}

// DefaultPolicy quotes a fixed currency and zero taxes. Placeholder
// behaviour for shops that handle taxes elsewhere.
type DefaultPolicy struct {
	CurrencyCode string
}

func (p DefaultPolicy) Currency() string {
	if p.CurrencyCode == "" {
		return "EUR"
	}
	return p.CurrencyCode
}

func (p DefaultPolicy) Taxes(money.Price) money.Price { return money.Zero }

package services

import (
	"bioshop/config"
	"bioshop/models"

	"github.com/shopspring/decimal"
)

// Pricing holds the fixed-rate tax and shipping rules applied at checkout.
type Pricing struct {
	TaxRate               decimal.Decimal
	FreeShippingThreshold decimal.Decimal
	ShippingFee           decimal.Decimal
}

func NewPricing(cfg config.PricingConfig) Pricing {
	return Pricing{
		TaxRate:               decimal.NewFromFloat(cfg.TaxRate),
		FreeShippingThreshold: decimal.NewFromFloat(cfg.FreeShippingThreshold),
		ShippingFee:           decimal.NewFromFloat(cfg.ShippingFee),
	}
}

// Quote is the money breakdown of an order.
type Quote struct {
	Subtotal decimal.Decimal
	Tax      decimal.Decimal
	Shipping decimal.Decimal
	Total    decimal.Decimal
}

// Price computes the quote for items. Tax is rounded to whole currency units,
// half away from zero. Shipping is free strictly above the threshold.
func (p Pricing) Price(items []models.OrderItem) Quote {
	subtotal := decimal.Zero
	for _, it := range items {
		subtotal = subtotal.Add(it.TotalPrice)
	}
	tax := subtotal.Mul(p.TaxRate).Round(0)
	shipping := p.ShippingFee
	if subtotal.GreaterThan(p.FreeShippingThreshold) {
		shipping = decimal.Zero
	}
	return Quote{
		Subtotal: subtotal,
		Tax:      tax,
		Shipping: shipping,
		Total:    subtotal.Add(tax).Add(shipping),
	}
}

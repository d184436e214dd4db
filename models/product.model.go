package models

import (
	"strings"

	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// LocalizedText holds the translated copy of a product for one locale.
type LocalizedText struct {
	Name        string `bson:"name,omitempty" json:"name,omitempty"`
	Description string `bson:"description,omitempty" json:"description,omitempty"`
}

// Product is a catalog entry. Cart and order operations only read it.
type Product struct {
	Base           `bson:",inline"`
	Name           string                   `bson:"name" json:"name"`
	Code           string                   `bson:"code" json:"code"`
	Slug           string                   `bson:"slug" json:"slug"`
	Category       string                   `bson:"category" json:"category"`
	Description    string                   `bson:"description" json:"description"`
	Price          decimal.Decimal          `bson:"price" json:"price"`
	Currency       string                   `bson:"currency" json:"currency"`
	Active         bool                     `bson:"active" json:"active"`
	Featured       bool                     `bson:"featured" json:"featured"`
	Images         []string                 `bson:"images" json:"images"`
	Specifications map[string]string        `bson:"specifications,omitempty" json:"specifications,omitempty"`
	Translations   map[string]LocalizedText `bson:"translations,omitempty" json:"translations,omitempty"`
}

// ProductSummary is the live product data joined onto cart items.
type ProductSummary struct {
	ID     primitive.ObjectID `json:"id"`
	Name   string             `json:"name"`
	Slug   string             `json:"slug"`
	Active bool               `json:"active"`
	Price  decimal.Decimal    `json:"price"`
}

// Validate checks the fields an admin must provide.
func (p *Product) Validate() error {
	p.Name = strings.TrimSpace(p.Name)
	p.Code = strings.TrimSpace(p.Code)
	if p.Name == "" {
		return invalid("name is required")
	}
	if p.Code == "" {
		return invalid("code is required")
	}
	if p.Price.IsNegative() {
		return invalid("price cannot be negative")
	}
	if p.Slug == "" {
		p.Slug = Slugify(p.Name)
	}
	if p.Images == nil {
		p.Images = []string{}
	}
	return nil
}

// Summary returns the subset of fields shown next to a cart line.
func (p *Product) Summary() *ProductSummary {
	return &ProductSummary{
		ID:     p.ID,
		Name:   p.Name,
		Slug:   p.Slug,
		Active: p.Active,
		Price:  p.Price,
	}
}

// PrimaryImage returns the first image, if any.
func (p *Product) PrimaryImage() string {
	if len(p.Images) == 0 {
		return ""
	}
	return p.Images[0]
}

// Localize replaces name and description with the translation for locale when one exists.
func (p *Product) Localize(locale string) {
	t, ok := p.Translations[locale]
	if !ok {
		return
	}
	if t.Name != "" {
		p.Name = t.Name
	}
	if t.Description != "" {
		p.Description = t.Description
	}
}

// Slugify lowercases s and joins its alphanumeric runs with dashes.
func Slugify(s string) string {
	var b strings.Builder
	dash := false
	for _, r := range strings.ToLower(strings.TrimSpace(s)) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
			dash = false
		case b.Len() > 0 && !dash:
			b.WriteByte('-')
			dash = true
		}
	}
	return strings.TrimSuffix(b.String(), "-")
}

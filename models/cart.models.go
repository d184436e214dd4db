package models

import (
	"time"

	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// CartStatus is the lifecycle state of a cart.
type CartStatus string

const (
	CartActive    CartStatus = "active"
	CartConverted CartStatus = "converted"
	CartAbandoned CartStatus = "abandoned"
)

// CartItem is one product line in a cart. Name, code, image and unit price are
// copied from the product when the line is created.
type CartItem struct {
	ID           primitive.ObjectID `bson:"_id" json:"id"`
	ProductID    primitive.ObjectID `bson:"product_id" json:"productId"`
	ProductName  string             `bson:"product_name" json:"productName"`
	ProductCode  string             `bson:"product_code" json:"productCode"`
	ProductImage string             `bson:"product_image,omitempty" json:"productImage,omitempty"`
	UnitPrice    decimal.Decimal    `bson:"unit_price" json:"unitPrice"`
	Quantity     int                `bson:"quantity" json:"quantity"`
	TotalPrice   decimal.Decimal    `bson:"total_price" json:"totalPrice"`
	AddedAt      time.Time          `bson:"added_at" json:"addedAt"`

	Product *ProductSummary `bson:"-" json:"product,omitempty"`
}

// Cart is an anonymous shopping cart keyed by the session cookie token.
type Cart struct {
	Base      `bson:",inline"`
	SessionID string          `bson:"session_id" json:"sessionId"`
	Status    CartStatus      `bson:"status" json:"status"`
	Items     []CartItem      `bson:"items" json:"items"`
	Subtotal  decimal.Decimal `bson:"subtotal" json:"subtotal"`
	Total     decimal.Decimal `bson:"total" json:"total"`
	Currency  string          `bson:"currency" json:"currency"`
	Version   int64           `bson:"version" json:"-"`
	ExpiresAt time.Time       `bson:"expires_at" json:"expiresAt"`
}

// NewCart returns an empty active cart for sessionID expiring after ttl.
func NewCart(sessionID, currency string, now time.Time, ttl time.Duration) *Cart {
	return &Cart{
		Base:      Base{ID: primitive.NewObjectID(), CreatedAt: now, UpdatedAt: now},
		SessionID: sessionID,
		Status:    CartActive,
		Items:     []CartItem{},
		Subtotal:  decimal.Zero,
		Total:     decimal.Zero,
		Currency:  currency,
		ExpiresAt: now.Add(ttl),
	}
}

// NewCartItem snapshots product into a new line of quantity units.
func NewCartItem(p *Product, quantity int, now time.Time) CartItem {
	return CartItem{
		ID:           primitive.NewObjectID(),
		ProductID:    p.ID,
		ProductName:  p.Name,
		ProductCode:  p.Code,
		ProductImage: p.PrimaryImage(),
		UnitPrice:    p.Price,
		Quantity:     quantity,
		TotalPrice:   p.Price.Mul(decimal.NewFromInt(int64(quantity))),
		AddedAt:      now,
	}
}

// Recalculate recomputes every line total from quantity and unit price and
// sets the cart subtotal and total to their sum.
func (c *Cart) Recalculate() {
	if c.Items == nil {
		c.Items = []CartItem{}
	}
	subtotal := decimal.Zero
	for i := range c.Items {
		it := &c.Items[i]
		it.TotalPrice = it.UnitPrice.Mul(decimal.NewFromInt(int64(it.Quantity)))
		subtotal = subtotal.Add(it.TotalPrice)
	}
	c.Subtotal = subtotal
	c.Total = subtotal
}

// IndexOfItem returns the index of the line with the given id, or -1.
func (c *Cart) IndexOfItem(id primitive.ObjectID) int {
	for i, it := range c.Items {
		if it.ID == id {
			return i
		}
	}
	return -1
}

// IndexOfProduct returns the index of the line holding productID, or -1.
func (c *Cart) IndexOfProduct(productID primitive.ObjectID) int {
	for i, it := range c.Items {
		if it.ProductID == productID {
			return i
		}
	}
	return -1
}

// RemoveAt deletes the line at index i.
func (c *Cart) RemoveAt(i int) {
	c.Items = append(c.Items[:i], c.Items[i+1:]...)
}

// Clear removes every line.
func (c *Cart) Clear() {
	c.Items = []CartItem{}
	c.Recalculate()
}

// Reactivate turns a converted or abandoned cart back into an empty active one.
func (c *Cart) Reactivate() {
	c.Status = CartActive
	c.Clear()
}

// MarkConverted records that the cart became an order and drops its lines.
func (c *Cart) MarkConverted(now time.Time) {
	c.Status = CartConverted
	c.Clear()
	c.UpdatedAt = now
}

// ProductIDs lists the distinct products referenced by the cart.
func (c *Cart) ProductIDs() []primitive.ObjectID {
	seen := make(map[primitive.ObjectID]struct{}, len(c.Items))
	ids := make([]primitive.ObjectID, 0, len(c.Items))
	for _, it := range c.Items {
		if _, ok := seen[it.ProductID]; ok {
			continue
		}
		seen[it.ProductID] = struct{}{}
		ids = append(ids, it.ProductID)
	}
	return ids
}

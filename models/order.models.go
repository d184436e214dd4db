package models

import (
	"net/mail"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Address is a billing or shipping address.
type Address struct {
	Street  string `bson:"street" json:"street"`
	Street2 string `bson:"street2,omitempty" json:"street2,omitempty"`
	City    string `bson:"city" json:"city"`
	State   string `bson:"state" json:"state"`
	ZipCode string `bson:"zipcode" json:"zipcode"`
	Country string `bson:"country" json:"country"`
}

// IsZero reports whether no field of the address is set.
func (a Address) IsZero() bool {
	return a == Address{}
}

func (a Address) validate(field string) error {
	switch {
	case strings.TrimSpace(a.Street) == "":
		return invalid("%s.street is required", field)
	case strings.TrimSpace(a.City) == "":
		return invalid("%s.city is required", field)
	case strings.TrimSpace(a.ZipCode) == "":
		return invalid("%s.zipcode is required", field)
	case strings.TrimSpace(a.Country) == "":
		return invalid("%s.country is required", field)
	}
	return nil
}

// Customer is the contact data captured at checkout.
type Customer struct {
	Name    string `bson:"name" json:"name"`
	Email   string `bson:"email" json:"email"`
	Phone   string `bson:"phone,omitempty" json:"phone,omitempty"`
	Company string `bson:"company,omitempty" json:"company,omitempty"`
	GSTIN   string `bson:"gstin,omitempty" json:"gstin,omitempty"`
}

// OrderItem is an immutable copy of a cart line taken at checkout.
type OrderItem struct {
	ProductID    primitive.ObjectID `bson:"product_id" json:"productId"`
	ProductName  string             `bson:"product_name" json:"productName"`
	ProductCode  string             `bson:"product_code" json:"productCode"`
	ProductImage string             `bson:"product_image,omitempty" json:"productImage,omitempty"`
	UnitPrice    decimal.Decimal    `bson:"unit_price" json:"unitPrice"`
	Quantity     int                `bson:"quantity" json:"quantity"`
	TotalPrice   decimal.Decimal    `bson:"total_price" json:"totalPrice"`
}

// OrderItemFromCart snapshots a cart line.
func OrderItemFromCart(it CartItem) OrderItem {
	return OrderItem{
		ProductID:    it.ProductID,
		ProductName:  it.ProductName,
		ProductCode:  it.ProductCode,
		ProductImage: it.ProductImage,
		UnitPrice:    it.UnitPrice,
		Quantity:     it.Quantity,
		TotalPrice:   it.TotalPrice,
	}
}

// Order is created once from a cart. Only its status fields change afterwards.
type Order struct {
	Base              `bson:",inline"`
	OrderNumber       string            `bson:"order_number" json:"orderNumber"`
	SessionID         string            `bson:"session_id" json:"-"`
	Customer          Customer          `bson:"customer" json:"customer"`
	BillingAddress    Address           `bson:"billing_address" json:"billingAddress"`
	ShippingAddress   Address           `bson:"shipping_address" json:"shippingAddress"`
	Notes             string            `bson:"notes,omitempty" json:"notes,omitempty"`
	Items             []OrderItem       `bson:"items" json:"items"`
	Subtotal          decimal.Decimal   `bson:"subtotal" json:"subtotal"`
	Tax               decimal.Decimal   `bson:"tax" json:"tax"`
	Shipping          decimal.Decimal   `bson:"shipping" json:"shipping"`
	Total             decimal.Decimal   `bson:"total" json:"total"`
	Currency          string            `bson:"currency" json:"currency"`
	PaymentMethod     string            `bson:"payment_method" json:"paymentMethod"`
	Status            OrderStatus       `bson:"status" json:"status"`
	PaymentStatus     PaymentStatus     `bson:"payment_status" json:"paymentStatus"`
	FulfillmentStatus FulfillmentStatus `bson:"fulfillment_status" json:"fulfillmentStatus"`
}

// CheckoutDetails is the customer input needed to turn a cart into an order.
type CheckoutDetails struct {
	Customer        Customer `json:"customer"`
	BillingAddress  Address  `json:"billingAddress"`
	ShippingAddress *Address `json:"shippingAddress,omitempty"`
	Notes           string   `json:"notes,omitempty"`
	PaymentMethod   string   `json:"paymentMethod,omitempty"`
}

// Validate checks the required customer and billing fields.
func (d *CheckoutDetails) Validate() error {
	d.Customer.Name = strings.TrimSpace(d.Customer.Name)
	d.Customer.Email = strings.TrimSpace(d.Customer.Email)
	if d.Customer.Name == "" {
		return invalid("customer.name is required")
	}
	if d.Customer.Email == "" {
		return invalid("customer.email is required")
	}
	addr, err := mail.ParseAddress(d.Customer.Email)
	if err != nil {
		return invalid("customer.email is not a valid address")
	}
	d.Customer.Email = strings.ToLower(addr.Address)
	if err := d.BillingAddress.validate("billingAddress"); err != nil {
		return err
	}
	if d.ShippingAddress != nil && !d.ShippingAddress.IsZero() {
		if err := d.ShippingAddress.validate("shippingAddress"); err != nil {
			return err
		}
	}
	switch d.PaymentMethod {
	case "":
		d.PaymentMethod = PaymentBankTransfer
	case PaymentBankTransfer, PaymentCard, PaymentCashOnDelivery, PaymentInvoice:
	default:
		return invalid("unsupported payment method %q", d.PaymentMethod)
	}
	return nil
}

// Shipping returns the shipping address, falling back to billing.
func (d *CheckoutDetails) Shipping() Address {
	if d.ShippingAddress == nil || d.ShippingAddress.IsZero() {
		return d.BillingAddress
	}
	return *d.ShippingAddress
}

// OrderFilter selects orders for listing.
type OrderFilter struct {
	CustomerEmail string
	OrderNumber   string
	Status        OrderStatus
	From, To      time.Time
	Limit         int
}

package models

// OrderStatus is the overall state of an order.
type OrderStatus string

const (
	OrderPending    OrderStatus = "pending"
	OrderConfirmed  OrderStatus = "confirmed"
	OrderProcessing OrderStatus = "processing"
	OrderShipped    OrderStatus = "shipped"
	OrderDelivered  OrderStatus = "delivered"
	OrderCancelled  OrderStatus = "cancelled"
)

// PaymentStatus tracks payment collection for an order.
type PaymentStatus string

const (
	PaymentPending  PaymentStatus = "pending"
	PaymentPaid     PaymentStatus = "paid"
	PaymentFailed   PaymentStatus = "failed"
	PaymentRefunded PaymentStatus = "refunded"
)

// FulfillmentStatus tracks shipment of an order's lines.
type FulfillmentStatus string

const (
	FulfillmentUnfulfilled FulfillmentStatus = "unfulfilled"
	FulfillmentPartial     FulfillmentStatus = "partial"
	FulfillmentFulfilled   FulfillmentStatus = "fulfilled"
)

// Accepted payment methods.
const (
	PaymentBankTransfer   = "bank_transfer"
	PaymentCard           = "card"
	PaymentCashOnDelivery = "cod"
	PaymentInvoice        = "invoice"
)

func (s OrderStatus) Valid() bool {
	switch s {
	case OrderPending, OrderConfirmed, OrderProcessing, OrderShipped, OrderDelivered, OrderCancelled:
		return true
	}
	return false
}

func (s PaymentStatus) Valid() bool {
	switch s {
	case PaymentPending, PaymentPaid, PaymentFailed, PaymentRefunded:
		return true
	}
	return false
}

func (s FulfillmentStatus) Valid() bool {
	switch s {
	case FulfillmentUnfulfilled, FulfillmentPartial, FulfillmentFulfilled:
		return true
	}
	return false
}

// OrderStatusUpdate changes one or more status fields of an order. Nil fields are left alone.
type OrderStatusUpdate struct {
	Status            *OrderStatus       `json:"status,omitempty"`
	PaymentStatus     *PaymentStatus     `json:"paymentStatus,omitempty"`
	FulfillmentStatus *FulfillmentStatus `json:"fulfillmentStatus,omitempty"`
}

// Validate rejects empty updates and unknown status values.
func (u OrderStatusUpdate) Validate() error {
	if u.Status == nil && u.PaymentStatus == nil && u.FulfillmentStatus == nil {
		return invalid("no status field given")
	}
	if u.Status != nil && !u.Status.Valid() {
		return invalid("unknown status %q", *u.Status)
	}
	if u.PaymentStatus != nil && !u.PaymentStatus.Valid() {
		return invalid("unknown payment status %q", *u.PaymentStatus)
	}
	if u.FulfillmentStatus != nil && !u.FulfillmentStatus.Valid() {
		return invalid("unknown fulfillment status %q", *u.FulfillmentStatus)
	}
	return nil
}

package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// StatusBucket aggregates orders sharing a status.
type StatusBucket struct {
	Status  string          `bson:"_id" json:"status"`
	Orders  int64           `bson:"orders" json:"orders"`
	Revenue decimal.Decimal `bson:"revenue" json:"revenue"`
}

// DayBucket aggregates orders placed on one calendar day (UTC).
type DayBucket struct {
	Day     string          `bson:"_id" json:"day"`
	Orders  int64           `bson:"orders" json:"orders"`
	Revenue decimal.Decimal `bson:"revenue" json:"revenue"`
}

// CountBucket is a plain count per key.
type CountBucket struct {
	Key   string `bson:"_id" json:"key"`
	Count int64  `bson:"count" json:"count"`
}

// SalesSummary is the back-office dashboard payload.
type SalesSummary struct {
	From      time.Time       `json:"from"`
	To        time.Time       `json:"to"`
	Orders    int64           `json:"orders"`
	Revenue   decimal.Decimal `json:"revenue"`
	ByStatus  []StatusBucket  `json:"byStatus"`
	ByDay     []DayBucket     `json:"byDay"`
	Inquiries []CountBucket   `json:"inquiries"`
}

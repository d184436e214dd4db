package models

import (
	"time"

	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func init() {
	// Prices are rendered as JSON numbers rather than quoted strings.
	decimal.MarshalJSONWithoutQuotes = true
}

// Base carries the identifier and timestamps shared by every stored document.
type Base struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id,omitempty"`
	CreatedAt time.Time          `bson:"created_at" json:"createdAt"`
	UpdatedAt time.Time          `bson:"updated_at" json:"updatedAt"`
}

// BaseDoc exposes the embedded Base so generic stores can assign ids and timestamps.
func (b *Base) BaseDoc() *Base { return b }

// Document is implemented by every model that embeds Base.
type Document interface {
	BaseDoc() *Base
}

// Validator is implemented by models that check their own fields before a write.
type Validator interface {
	Validate() error
}

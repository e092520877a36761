package checkout

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// PlaceOrderInput converts selected cart lines into per-seller orders.
type PlaceOrderInput struct {
	BuyerID         uuid.UUID
	CartLineIDs     []uuid.UUID
	DeliveryAddress *string
	Notes           *string
}

// PlacedOrder summarizes one committed seller group.
type PlacedOrder struct {
	OrderID     uuid.UUID `json:"order_id"`
	SellerID    uuid.UUID `json:"seller_id"`
	SellerName  string    `json:"seller_name"`
	TotalAmount string    `json:"total_amount"`
}

// PlaceOrderResult lists the committed orders and the sellers whose group
// rolled back.
type PlaceOrderResult struct {
	Orders          []PlacedOrder `json:"orders"`
	FailedSellerIDs []uuid.UUID   `json:"failed_seller_ids,omitempty"`
}

// ConfirmItem is one requested line. PriceAtTime is what the client saw and
// is only compared against the catalog.
type ConfirmItem struct {
	ItemID      uuid.UUID
	Quantity    int
	PriceAtTime *decimal.Decimal
}

// ConfirmOrderInput creates a single order directly from item references.
type ConfirmOrderInput struct {
	BuyerID         uuid.UUID
	SellerID        uuid.UUID
	Items           []ConfirmItem
	DeliveryAddress *string
	Notes           *string
	TotalAmount     *decimal.Decimal
}

// ConfirmOrderResult carries the created order and its server-side total.
type ConfirmOrderResult struct {
	OrderID     uuid.UUID `json:"order_id"`
	TotalAmount string    `json:"total_amount"`
}

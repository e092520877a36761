package cart

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/iskomart/iskomart-backend/pkg/db/models"
	"github.com/iskomart/iskomart-backend/pkg/types"
)

// SelectedLine is a cart line resolved for order creation.
type SelectedLine struct {
	CartLineID uuid.UUID
	ItemID     uuid.UUID
	Quantity   int
	UnitPrice  decimal.Decimal
	SellerID   uuid.UUID
	SellerName string
}

// LineTotal is unit price times quantity.
func (l SelectedLine) LineTotal() decimal.Decimal {
	return l.UnitPrice.Mul(decimal.NewFromInt(int64(l.Quantity)))
}

// LineDetail is a cart line joined with its item and seller.
type LineDetail struct {
	CartLineID     uuid.UUID
	ItemID         uuid.UUID
	Quantity       int
	AddedAt        time.Time
	ItemName       string
	ItemCategory   string
	ItemPhoto      *string
	ItemPrice      decimal.Decimal
	ItemAvailable  bool
	SellerID       uuid.UUID
	SellerUsername string
	SellerFirst    string
	SellerLast     string
}

// CartLineDTO is the API shape of one cart entry.
type CartLineDTO struct {
	CartLineID     uuid.UUID `json:"cart_line_id"`
	ItemID         uuid.UUID `json:"item_id"`
	Quantity       int       `json:"quantity"`
	AddedAt        time.Time `json:"added_at"`
	ItemName       string    `json:"item_name"`
	ItemCategory   string    `json:"item_category"`
	ItemPhoto      *string   `json:"item_photo,omitempty"`
	ItemPrice      string    `json:"item_price"`
	Available      bool      `json:"available"`
	LineTotal      string    `json:"line_total"`
	SellerID       uuid.UUID `json:"seller_id"`
	SellerUsername string    `json:"seller_username"`
	SellerName     string    `json:"seller_name"`
}

// CartView is a user's cart with aggregate figures.
type CartView struct {
	Items       []CartLineDTO `json:"cart_items"`
	TotalItems  int           `json:"total_items"`
	TotalAmount string        `json:"total_amount"`
}

// LineRecordDTO is the API shape returned after a cart write.
type LineRecordDTO struct {
	CartLineID uuid.UUID `json:"cart_line_id"`
	UserID     uuid.UUID `json:"user_id"`
	ItemID     uuid.UUID `json:"item_id"`
	Quantity   int       `json:"quantity"`
	AddedAt    time.Time `json:"added_at"`
}

func lineRecordFromModel(line *models.CartLine) *LineRecordDTO {
	return &LineRecordDTO{
		CartLineID: line.ID,
		UserID:     line.UserID,
		ItemID:     line.ItemID,
		Quantity:   line.Quantity,
		AddedAt:    line.AddedAt,
	}
}

func buildCartView(lines []LineDetail) *CartView {
	view := &CartView{Items: make([]CartLineDTO, 0, len(lines))}
	total := decimal.Zero
	for _, line := range lines {
		lineTotal := line.ItemPrice.Mul(decimal.NewFromInt(int64(line.Quantity)))
		total = total.Add(lineTotal)
		view.Items = append(view.Items, CartLineDTO{
			CartLineID:     line.CartLineID,
			ItemID:         line.ItemID,
			Quantity:       line.Quantity,
			AddedAt:        line.AddedAt,
			ItemName:       line.ItemName,
			ItemCategory:   line.ItemCategory,
			ItemPhoto:      line.ItemPhoto,
			ItemPrice:      types.FormatAmount(line.ItemPrice),
			Available:      line.ItemAvailable,
			LineTotal:      types.FormatAmount(lineTotal),
			SellerID:       line.SellerID,
			SellerUsername: line.SellerUsername,
			SellerName:     models.DisplayName(line.SellerUsername, line.SellerFirst, line.SellerLast),
		})
	}
	view.TotalItems = len(lines)
	view.TotalAmount = types.FormatAmount(total)
	return view
}

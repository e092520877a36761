package orders

import (
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/iskomart/iskomart-backend/api/validators"
	"github.com/iskomart/iskomart-backend/internal/checkout"
	pkgerrors "github.com/iskomart/iskomart-backend/pkg/errors"
	"github.com/iskomart/iskomart-backend/pkg/pagination"
)

const (
	maxAddressLen = 500
	maxNotesLen   = 1000
)

type placeOrderRequest struct {
	UserID          uuid.UUID   `json:"user_id"`
	SelectedItems   []uuid.UUID `json:"selected_items" validate:"required,min=1"`
	DeliveryAddress *string     `json:"delivery_address"`
	Notes           *string     `json:"notes"`
}

func (r placeOrderRequest) toInput(buyerID uuid.UUID) checkout.PlaceOrderInput {
	return checkout.PlaceOrderInput{
		BuyerID:         buyerID,
		CartLineIDs:     r.SelectedItems,
		DeliveryAddress: validators.SanitizeOptional(r.DeliveryAddress, maxAddressLen),
		Notes:           validators.SanitizeOptional(r.Notes, maxNotesLen),
	}
}

type confirmItemRequest struct {
	ItemID      uuid.UUID        `json:"item_id" validate:"required"`
	Quantity    int              `json:"quantity" validate:"required,min=1"`
	PriceAtTime *decimal.Decimal `json:"price_at_time"`
}

type confirmOrderRequest struct {
	BuyerID         uuid.UUID            `json:"buyer_id" validate:"required"`
	SellerID        uuid.UUID            `json:"seller_id" validate:"required"`
	Items           []confirmItemRequest `json:"items" validate:"required,min=1,dive"`
	DeliveryAddress *string              `json:"delivery_address"`
	Notes           *string              `json:"notes"`
	TotalAmount     *decimal.Decimal     `json:"total_amount"`
}

func (r confirmOrderRequest) toInput() checkout.ConfirmOrderInput {
	items := make([]checkout.ConfirmItem, 0, len(r.Items))
	for _, item := range r.Items {
		items = append(items, checkout.ConfirmItem{
			ItemID:      item.ItemID,
			Quantity:    item.Quantity,
			PriceAtTime: item.PriceAtTime,
		})
	}
	return checkout.ConfirmOrderInput{
		BuyerID:         r.BuyerID,
		SellerID:        r.SellerID,
		Items:           items,
		DeliveryAddress: validators.SanitizeOptional(r.DeliveryAddress, maxAddressLen),
		Notes:           validators.SanitizeOptional(r.Notes, maxNotesLen),
		TotalAmount:     r.TotalAmount,
	}
}

type statusRequest struct {
	Status string    `json:"status" validate:"required"`
	UserID uuid.UUID `json:"user_id"`
}

type statusForUserRequest struct {
	OrderID uuid.UUID `json:"order_id" validate:"required"`
	Status  string    `json:"status" validate:"required"`
}

func parsePageParams(r *http.Request) (pagination.Params, error) {
	limit, err := validators.ParseQueryInt(r, "limit", 0, 0, pagination.MaxLimit)
	if err != nil {
		return pagination.Params{}, err
	}
	cursor := strings.TrimSpace(r.URL.Query().Get("cursor"))
	if cursor != "" {
		if _, err := pagination.ParseCursor(cursor); err != nil {
			return pagination.Params{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor").
				WithDetails(map[string]string{"cursor": "is invalid"})
		}
	}
	return pagination.Params{Limit: limit, Cursor: cursor}, nil
}

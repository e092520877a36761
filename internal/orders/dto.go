package orders

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/iskomart/iskomart-backend/pkg/db/models"
	"github.com/iskomart/iskomart-backend/pkg/enums"
	"github.com/iskomart/iskomart-backend/pkg/types"
)

const shortIDLength = 8

// ShortID is the order reference shown in notification texts.
func ShortID(id uuid.UUID) string {
	return id.String()[:shortIDLength]
}

// SummaryRow is an order header joined with both parties' names.
type SummaryRow struct {
	ID              uuid.UUID
	BuyerID         uuid.UUID
	SellerID        uuid.UUID
	TotalAmount     decimal.Decimal
	Status          enums.OrderStatus
	DeliveryAddress *string
	Notes           *string
	OrderDate       time.Time
	UpdatedAt       time.Time
	BuyerUsername   string
	BuyerFirst      string
	BuyerLast       string
	SellerUsername  string
	SellerFirst     string
	SellerLast      string
	ItemCount       int
}

func (r SummaryRow) buyerName() string {
	return models.DisplayName(r.BuyerUsername, r.BuyerFirst, r.BuyerLast)
}

func (r SummaryRow) sellerName() string {
	return models.DisplayName(r.SellerUsername, r.SellerFirst, r.SellerLast)
}

// DetailLine is an order line joined with catalog fields.
type DetailLine struct {
	ID           uuid.UUID
	ItemID       uuid.UUID
	Quantity     int
	PriceAtTime  decimal.Decimal
	ItemName     string
	ItemCategory string
	ItemPhoto    *string
}

// DetailRecord is the repository result for a single order view.
type DetailRecord struct {
	Header SummaryRow
	Lines  []DetailLine
}

// SummaryDTO is one entry in an order list.
type SummaryDTO struct {
	OrderID              uuid.UUID         `json:"order_id"`
	BuyerID              uuid.UUID         `json:"buyer_id"`
	SellerID             uuid.UUID         `json:"seller_id"`
	BuyerName            string            `json:"buyer_name"`
	BuyerUsername        string            `json:"buyer_username"`
	SellerName           string            `json:"seller_name"`
	SellerUsername       string            `json:"seller_username"`
	CounterpartyName     string            `json:"counterparty_name,omitempty"`
	CounterpartyUsername string            `json:"counterparty_username,omitempty"`
	TotalAmount          string            `json:"total_amount"`
	Status               enums.OrderStatus `json:"status"`
	DeliveryAddress      *string           `json:"delivery_address,omitempty"`
	Notes                *string           `json:"notes,omitempty"`
	ItemCount            int               `json:"item_count"`
	OrderDate            time.Time         `json:"order_date"`
	UpdatedAt            time.Time         `json:"updated_at"`
}

// OrderList is a page of order summaries.
type OrderList struct {
	Orders     []SummaryDTO `json:"orders"`
	NextCursor string       `json:"next_cursor,omitempty"`
}

// ItemDTO is one line of an order detail.
type ItemDTO struct {
	OrderItemID  uuid.UUID `json:"order_item_id"`
	ItemID       uuid.UUID `json:"item_id"`
	ItemName     string    `json:"item_name"`
	ItemCategory string    `json:"item_category"`
	ItemPhoto    *string   `json:"item_photo,omitempty"`
	Quantity     int       `json:"quantity"`
	PriceAtTime  string    `json:"price_at_time"`
	LineTotal    string    `json:"line_total"`
}

// DetailDTO is the full view of one order.
type DetailDTO struct {
	SummaryDTO
	Items []ItemDTO `json:"items"`
}

// StatusResult is returned after a status update.
type StatusResult struct {
	OrderID uuid.UUID         `json:"order_id"`
	Status  enums.OrderStatus `json:"status"`
}

// SetStatusInput carries a status change request. Status is the raw value
// received from the caller.
type SetStatusInput struct {
	OrderID     uuid.UUID
	ActorUserID uuid.UUID
	Status      string
}

// viewer selects which party is the counterparty in a list.
type viewer int

const (
	viewNeutral viewer = iota
	viewAsBuyer
	viewAsSeller
)

func summaryFromRow(row SummaryRow, as viewer) SummaryDTO {
	dto := SummaryDTO{
		OrderID:         row.ID,
		BuyerID:         row.BuyerID,
		SellerID:        row.SellerID,
		BuyerName:       row.buyerName(),
		BuyerUsername:   row.BuyerUsername,
		SellerName:      row.sellerName(),
		SellerUsername:  row.SellerUsername,
		TotalAmount:     types.FormatAmount(row.TotalAmount),
		Status:          row.Status,
		DeliveryAddress: row.DeliveryAddress,
		Notes:           row.Notes,
		ItemCount:       row.ItemCount,
		OrderDate:       row.OrderDate,
		UpdatedAt:       row.UpdatedAt,
	}
	switch as {
	case viewAsBuyer:
		dto.CounterpartyName = dto.SellerName
		dto.CounterpartyUsername = dto.SellerUsername
	case viewAsSeller:
		dto.CounterpartyName = dto.BuyerName
		dto.CounterpartyUsername = dto.BuyerUsername
	}
	return dto
}

func detailFromRecord(rec *DetailRecord) *DetailDTO {
	out := &DetailDTO{
		SummaryDTO: summaryFromRow(rec.Header, viewNeutral),
		Items:      make([]ItemDTO, 0, len(rec.Lines)),
	}
	for _, line := range rec.Lines {
		total := line.PriceAtTime.Mul(decimal.NewFromInt(int64(line.Quantity)))
		out.Items = append(out.Items, ItemDTO{
			OrderItemID:  line.ID,
			ItemID:       line.ItemID,
			ItemName:     line.ItemName,
			ItemCategory: line.ItemCategory,
			ItemPhoto:    line.ItemPhoto,
			Quantity:     line.Quantity,
			PriceAtTime:  types.FormatAmount(line.PriceAtTime),
			LineTotal:    types.FormatAmount(total),
		})
	}
	return out
}

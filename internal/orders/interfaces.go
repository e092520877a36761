package orders

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/iskomart/iskomart-backend/pkg/db/models"
	"github.com/iskomart/iskomart-backend/pkg/enums"
	"github.com/iskomart/iskomart-backend/pkg/pagination"
)

// Repository defines persistence operations for orders and their lines.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	CreateOrder(ctx context.Context, order *models.Order) (*models.Order, error)
	CreateOrderItems(ctx context.Context, items []models.OrderItem) error
	FindOrder(ctx context.Context, orderID uuid.UUID) (*models.Order, error)
	UpdateStatus(ctx context.Context, orderID uuid.UUID, status enums.OrderStatus) error
	ListForBuyer(ctx context.Context, buyerID uuid.UUID, window pagination.Window) ([]SummaryRow, error)
	ListForSeller(ctx context.Context, sellerID uuid.UUID, window pagination.Window) ([]SummaryRow, error)
	ListBetween(ctx context.Context, userA, userB uuid.UUID, window pagination.Window) ([]SummaryRow, error)
	FindOrderDetail(ctx context.Context, orderID uuid.UUID) (*DetailRecord, error)
	FindPendingBefore(ctx context.Context, cutoff time.Time, limit int) ([]models.Order, error)
}

// Notifier delivers a message to one user, optionally tied to an order.
type Notifier interface {
	Notify(ctx context.Context, senderID, receiverID uuid.UUID, text string, orderID *uuid.UUID) (*models.Message, error)
}

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

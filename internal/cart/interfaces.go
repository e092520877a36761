package cart

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/iskomart/iskomart-backend/pkg/db/models"
)

// CartRepository defines persistence for cart lines.
type CartRepository interface {
	WithTx(tx *gorm.DB) CartRepository
	FindLine(ctx context.Context, userID, itemID uuid.UUID) (*models.CartLine, error)
	CreateLine(ctx context.Context, line *models.CartLine) (*models.CartLine, error)
	IncrementQuantity(ctx context.Context, lineID uuid.UUID, delta int) error
	SetQuantity(ctx context.Context, lineID uuid.UUID, qty int) error
	DeleteLine(ctx context.Context, lineID uuid.UUID) error
	DeleteByUser(ctx context.Context, userID uuid.UUID) (int64, error)
	DeleteLines(ctx context.Context, userID uuid.UUID, lineIDs []uuid.UUID) (int64, error)
	ListDetailed(ctx context.Context, userID uuid.UUID) ([]LineDetail, error)
	FindSelected(ctx context.Context, userID uuid.UUID, lineIDs []uuid.UUID) ([]SelectedLine, error)
}

type itemLoader interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.Item, error)
}

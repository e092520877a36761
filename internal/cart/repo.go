package cart

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/iskomart/iskomart-backend/pkg/db/models"
)

// Repository exposes persistence operations for cart lines.
type Repository struct {
	db *gorm.DB
}

// NewRepository constructs a cart repository bound to the provided DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// WithTx binds the repository to a transaction.
func (r *Repository) WithTx(tx *gorm.DB) CartRepository {
	if tx == nil {
		return r
	}
	return &Repository{db: tx}
}

// FindLine returns the line for the (user, item) pair.
func (r *Repository) FindLine(ctx context.Context, userID, itemID uuid.UUID) (*models.CartLine, error) {
	var line models.CartLine
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND item_id = ?", userID, itemID).
		First(&line).Error
	if err != nil {
		return nil, err
	}
	return &line, nil
}

// CreateLine inserts a new cart line.
func (r *Repository) CreateLine(ctx context.Context, line *models.CartLine) (*models.CartLine, error) {
	if err := r.db.WithContext(ctx).Create(line).Error; err != nil {
		return nil, err
	}
	return line, nil
}

// IncrementQuantity adds delta to the stored quantity in a single statement.
func (r *Repository) IncrementQuantity(ctx context.Context, lineID uuid.UUID, delta int) error {
	return r.db.WithContext(ctx).
		Model(&models.CartLine{}).
		Where("id = ?", lineID).
		UpdateColumn("quantity", gorm.Expr("quantity + ?", delta)).Error
}

// SetQuantity overwrites the stored quantity.
func (r *Repository) SetQuantity(ctx context.Context, lineID uuid.UUID, qty int) error {
	return r.db.WithContext(ctx).
		Model(&models.CartLine{}).
		Where("id = ?", lineID).
		UpdateColumn("quantity", qty).Error
}

// DeleteLine removes one line.
func (r *Repository) DeleteLine(ctx context.Context, lineID uuid.UUID) error {
	return r.db.WithContext(ctx).Delete(&models.CartLine{}, "id = ?", lineID).Error
}

// DeleteByUser empties a user's cart and reports how many lines were removed.
func (r *Repository) DeleteByUser(ctx context.Context, userID uuid.UUID) (int64, error) {
	res := r.db.WithContext(ctx).Delete(&models.CartLine{}, "user_id = ?", userID)
	return res.RowsAffected, res.Error
}

// DeleteLines removes the listed lines owned by userID.
func (r *Repository) DeleteLines(ctx context.Context, userID uuid.UUID, lineIDs []uuid.UUID) (int64, error) {
	if len(lineIDs) == 0 {
		return 0, nil
	}
	res := r.db.WithContext(ctx).
		Where("user_id = ? AND id IN ?", userID, lineIDs).
		Delete(&models.CartLine{})
	return res.RowsAffected, res.Error
}

// ListDetailed returns the user's lines joined with item and seller, newest first.
func (r *Repository) ListDetailed(ctx context.Context, userID uuid.UUID) ([]LineDetail, error) {
	var rows []LineDetail
	err := r.db.WithContext(ctx).
		Table("cart_lines AS cl").
		Select(`cl.id AS cart_line_id,
			cl.item_id,
			cl.quantity,
			cl.added_at,
			i.name AS item_name,
			i.category AS item_category,
			i.photo AS item_photo,
			i.price AS item_price,
			i.available AS item_available,
			i.seller_id,
			COALESCE(u.username, '') AS seller_username,
			COALESCE(u.first_name, '') AS seller_first,
			COALESCE(u.last_name, '') AS seller_last`).
		Joins("JOIN items i ON i.id = cl.item_id").
		Joins("LEFT JOIN users u ON u.id = i.seller_id").
		Where("cl.user_id = ?", userID).
		Order("cl.added_at DESC").
		Order("cl.id").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

type selectedRow struct {
	CartLineID     uuid.UUID
	ItemID         uuid.UUID
	Quantity       int
	UnitPrice      decimal.Decimal
	SellerID       uuid.UUID
	SellerUsername string
	SellerFirst    string
	SellerLast     string
}

// FindSelected resolves the listed lines owned by userID. Foreign or unknown
// ids are left out. The result order is unspecified.
func (r *Repository) FindSelected(ctx context.Context, userID uuid.UUID, lineIDs []uuid.UUID) ([]SelectedLine, error) {
	if len(lineIDs) == 0 {
		return nil, nil
	}
	var rows []selectedRow
	err := r.db.WithContext(ctx).
		Table("cart_lines AS cl").
		Select(`cl.id AS cart_line_id,
			cl.item_id,
			cl.quantity,
			i.price AS unit_price,
			i.seller_id,
			COALESCE(u.username, '') AS seller_username,
			COALESCE(u.first_name, '') AS seller_first,
			COALESCE(u.last_name, '') AS seller_last`).
		Joins("JOIN items i ON i.id = cl.item_id").
		Joins("LEFT JOIN users u ON u.id = i.seller_id").
		Where("cl.user_id = ? AND cl.id IN ?", userID, lineIDs).
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	out := make([]SelectedLine, 0, len(rows))
	for _, row := range rows {
		out = append(out, SelectedLine{
			CartLineID: row.CartLineID,
			ItemID:     row.ItemID,
			Quantity:   row.Quantity,
			UnitPrice:  row.UnitPrice,
			SellerID:   row.SellerID,
			SellerName: models.DisplayName(row.SellerUsername, row.SellerFirst, row.SellerLast),
		})
	}
	return out, nil
}

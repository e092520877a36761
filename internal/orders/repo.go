package orders

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/iskomart/iskomart-backend/pkg/db/models"
	"github.com/iskomart/iskomart-backend/pkg/enums"
	"github.com/iskomart/iskomart-backend/pkg/pagination"
)

const summarySelect = `o.id,
	o.buyer_id,
	o.seller_id,
	o.total_amount,
	o.status,
	o.delivery_address,
	o.notes,
	o.order_date,
	o.updated_at,
	COALESCE(b.username, '') AS buyer_username,
	COALESCE(b.first_name, '') AS buyer_first,
	COALESCE(b.last_name, '') AS buyer_last,
	COALESCE(s.username, '') AS seller_username,
	COALESCE(s.first_name, '') AS seller_first,
	COALESCE(s.last_name, '') AS seller_last,
	(SELECT COUNT(*) FROM order_items oi WHERE oi.order_id = o.id) AS item_count`

type repository struct {
	db *gorm.DB
}

// NewRepository builds an orders repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

// CreateOrder inserts the header only. Lines go through CreateOrderItems.
func (r *repository) CreateOrder(ctx context.Context, order *models.Order) (*models.Order, error) {
	if err := r.db.WithContext(ctx).Omit(clause.Associations).Create(order).Error; err != nil {
		return nil, err
	}
	return order, nil
}

func (r *repository) CreateOrderItems(ctx context.Context, items []models.OrderItem) error {
	if len(items) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Create(&items).Error
}

func (r *repository) FindOrder(ctx context.Context, orderID uuid.UUID) (*models.Order, error) {
	var order models.Order
	if err := r.db.WithContext(ctx).First(&order, "id = ?", orderID).Error; err != nil {
		return nil, err
	}
	return &order, nil
}

func (r *repository) UpdateStatus(ctx context.Context, orderID uuid.UUID, status enums.OrderStatus) error {
	res := r.db.WithContext(ctx).
		Model(&models.Order{}).
		Where("id = ?", orderID).
		Updates(map[string]any{"status": status})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *repository) ListForBuyer(ctx context.Context, buyerID uuid.UUID, window pagination.Window) ([]SummaryRow, error) {
	return r.listSummaries(ctx, window, "o.buyer_id = ?", buyerID)
}

func (r *repository) ListForSeller(ctx context.Context, sellerID uuid.UUID, window pagination.Window) ([]SummaryRow, error) {
	return r.listSummaries(ctx, window, "o.seller_id = ?", sellerID)
}

func (r *repository) ListBetween(ctx context.Context, userA, userB uuid.UUID, window pagination.Window) ([]SummaryRow, error) {
	return r.listSummaries(ctx, window,
		"((o.buyer_id = ? AND o.seller_id = ?) OR (o.buyer_id = ? AND o.seller_id = ?))",
		userA, userB, userB, userA,
	)
}

func (r *repository) FindOrderDetail(ctx context.Context, orderID uuid.UUID) (*DetailRecord, error) {
	var header SummaryRow
	res := r.summaryQuery(ctx).Where("o.id = ?", orderID).Limit(1).Scan(&header)
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		return nil, gorm.ErrRecordNotFound
	}

	var lines []DetailLine
	err := r.db.WithContext(ctx).
		Table("order_items AS oi").
		Select(`oi.id,
			oi.item_id,
			oi.quantity,
			oi.price_at_time,
			COALESCE(i.name, '') AS item_name,
			COALESCE(i.category, '') AS item_category,
			i.photo AS item_photo`).
		Joins("LEFT JOIN items i ON i.id = oi.item_id").
		Where("oi.order_id = ?", orderID).
		Order("oi.id").
		Scan(&lines).Error
	if err != nil {
		return nil, err
	}
	return &DetailRecord{Header: header, Lines: lines}, nil
}

// FindPendingBefore returns the oldest pending orders placed before cutoff.
func (r *repository) FindPendingBefore(ctx context.Context, cutoff time.Time, limit int) ([]models.Order, error) {
	query := r.db.WithContext(ctx).
		Where("status = ? AND order_date < ?", enums.OrderStatusPending, cutoff).
		Order("order_date ASC").
		Order("id ASC")
	if limit > 0 {
		query = query.Limit(limit)
	}
	var out []models.Order
	if err := query.Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *repository) summaryQuery(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx).
		Table("orders AS o").
		Select(summarySelect).
		Joins("LEFT JOIN users b ON b.id = o.buyer_id").
		Joins("LEFT JOIN users s ON s.id = o.seller_id")
}

func (r *repository) listSummaries(ctx context.Context, window pagination.Window, where string, args ...any) ([]SummaryRow, error) {
	query := r.summaryQuery(ctx).Where(where, args...)
	if window.After != nil {
		query = query.Where("(o.order_date < ? OR (o.order_date = ? AND o.id < ?))",
			window.After.At, window.After.At, window.After.ID)
	}
	if window.Bounded() {
		query = query.Limit(pagination.LimitWithBuffer(window.Limit))
	}
	var rows []SummaryRow
	err := query.
		Order("o.order_date DESC").
		Order("o.id DESC").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

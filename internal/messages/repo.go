package messages

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/iskomart/iskomart-backend/pkg/db/models"
)

// Repository persists and reads message records.
type Repository struct {
	db *gorm.DB
}

// NewRepository builds a messages repository bound to the provided DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// Create inserts a message.
func (r *Repository) Create(ctx context.Context, msg *models.Message) (*models.Message, error) {
	if err := r.db.WithContext(ctx).Create(msg).Error; err != nil {
		return nil, err
	}
	return msg, nil
}

// ListForUser returns every message the user sent or received, oldest first.
func (r *Repository) ListForUser(ctx context.Context, userID uuid.UUID) ([]MessageRow, error) {
	var rows []MessageRow
	err := r.baseQuery(ctx).
		Where("m.sender_id = ? OR m.receiver_id = ?", userID, userID).
		Order("m.sent_at ASC").
		Order("m.id").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

// ListBetween returns the conversation between two users, oldest first.
func (r *Repository) ListBetween(ctx context.Context, userA, userB uuid.UUID) ([]MessageRow, error) {
	var rows []MessageRow
	err := r.baseQuery(ctx).
		Where("(m.sender_id = ? AND m.receiver_id = ?) OR (m.sender_id = ? AND m.receiver_id = ?)", userA, userB, userB, userA).
		Order("m.sent_at ASC").
		Order("m.id").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *Repository) baseQuery(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx).
		Table("messages AS m").
		Select(`m.id,
			m.sender_id,
			m.receiver_id,
			m.text,
			m.order_id,
			m.sent_at,
			COALESCE(s.username, '') AS sender_username,
			COALESCE(s.first_name, '') AS sender_first,
			COALESCE(s.last_name, '') AS sender_last,
			COALESCE(rc.username, '') AS receiver_username,
			COALESCE(rc.first_name, '') AS receiver_first,
			COALESCE(rc.last_name, '') AS receiver_last`).
		Joins("LEFT JOIN users s ON s.id = m.sender_id").
		Joins("LEFT JOIN users rc ON rc.id = m.receiver_id")
}

package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// CartLine is one (owner, item) quantity record prior to order conversion.
type CartLine struct {
	ID       uuid.UUID `gorm:"column:id;type:uuid;primaryKey"`
	UserID   uuid.UUID `gorm:"column:user_id;type:uuid;not null;uniqueIndex:uq_cart_lines_user_item"`
	ItemID   uuid.UUID `gorm:"column:item_id;type:uuid;not null;uniqueIndex:uq_cart_lines_user_item"`
	Quantity int       `gorm:"column:quantity;not null"`
	AddedAt  time.Time `gorm:"column:added_at;autoCreateTime"`
}

func (CartLine) TableName() string { return "cart_lines" }

func (c *CartLine) BeforeCreate(*gorm.DB) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	return nil
}

package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/iskomart/iskomart-backend/pkg/enums"
)

// Order is one seller's portion of a checkout. TotalAmount is fixed at creation.
type Order struct {
	ID              uuid.UUID         `gorm:"column:id;type:uuid;primaryKey"`
	BuyerID         uuid.UUID         `gorm:"column:buyer_id;type:uuid;not null;index"`
	SellerID        uuid.UUID         `gorm:"column:seller_id;type:uuid;not null;index"`
	TotalAmount     decimal.Decimal   `gorm:"column:total_amount;type:numeric(12,2);not null"`
	Status          enums.OrderStatus `gorm:"column:status;type:text;not null;default:'pending'"`
	DeliveryAddress *string           `gorm:"column:delivery_address"`
	Notes           *string           `gorm:"column:notes"`
	OrderDate       time.Time         `gorm:"column:order_date;autoCreateTime"`
	UpdatedAt       time.Time         `gorm:"column:updated_at;autoUpdateTime"`
	Items           []OrderItem       `gorm:"foreignKey:OrderID"`
}

func (Order) TableName() string { return "orders" }

func (o *Order) BeforeCreate(*gorm.DB) error {
	if o.ID == uuid.Nil {
		o.ID = uuid.New()
	}
	return nil
}

// HasParty reports whether userID is the buyer or the seller.
func (o Order) HasParty(userID uuid.UUID) bool {
	return userID != uuid.Nil && (o.BuyerID == userID || o.SellerID == userID)
}

// Counterparty returns the other side of the order for a party.
func (o Order) Counterparty(userID uuid.UUID) uuid.UUID {
	if userID == o.SellerID {
		return o.BuyerID
	}
	return o.SellerID
}

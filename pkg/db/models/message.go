package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Message is a chat or notification record between two users.
type Message struct {
	ID         uuid.UUID  `gorm:"column:id;type:uuid;primaryKey"`
	SenderID   uuid.UUID  `gorm:"column:sender_id;type:uuid;not null;index"`
	ReceiverID uuid.UUID  `gorm:"column:receiver_id;type:uuid;not null;index"`
	Text       string     `gorm:"column:text;not null"`
	OrderID    *uuid.UUID `gorm:"column:order_id;type:uuid"`
	SentAt     time.Time  `gorm:"column:sent_at;autoCreateTime"`
}

func (Message) TableName() string { return "messages" }

func (m *Message) BeforeCreate(*gorm.DB) error {
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	return nil
}

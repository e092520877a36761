package messages

import (
	"time"

	"github.com/google/uuid"

	"github.com/iskomart/iskomart-backend/pkg/db/models"
)

// MessageRow is a message joined with both parties' names.
type MessageRow struct {
	ID               uuid.UUID
	SenderID         uuid.UUID
	ReceiverID       uuid.UUID
	Text             string
	OrderID          *uuid.UUID
	SentAt           time.Time
	SenderUsername   string
	SenderFirst      string
	SenderLast       string
	ReceiverUsername string
	ReceiverFirst    string
	ReceiverLast     string
}

// MessageDTO is the API shape of a message.
type MessageDTO struct {
	ID           uuid.UUID  `json:"message_id"`
	SenderID     uuid.UUID  `json:"sender_id"`
	ReceiverID   uuid.UUID  `json:"receiver_id"`
	Text         string     `json:"text"`
	OrderID      *uuid.UUID `json:"order_id,omitempty"`
	SentAt       time.Time  `json:"sent_at"`
	SenderName   string     `json:"sender_name,omitempty"`
	ReceiverName string     `json:"receiver_name,omitempty"`
}

func fromRow(row MessageRow) MessageDTO {
	return MessageDTO{
		ID:           row.ID,
		SenderID:     row.SenderID,
		ReceiverID:   row.ReceiverID,
		Text:         row.Text,
		OrderID:      row.OrderID,
		SentAt:       row.SentAt,
		SenderName:   models.DisplayName(row.SenderUsername, row.SenderFirst, row.SenderLast),
		ReceiverName: models.DisplayName(row.ReceiverUsername, row.ReceiverFirst, row.ReceiverLast),
	}
}

func fromRows(rows []MessageRow) []MessageDTO {
	out := make([]MessageDTO, 0, len(rows))
	for _, row := range rows {
		out = append(out, fromRow(row))
	}
	return out
}

// FromModel converts a stored message without party names.
func FromModel(msg *models.Message) *MessageDTO {
	if msg == nil {
		return nil
	}
	return &MessageDTO{
		ID:         msg.ID,
		SenderID:   msg.SenderID,
		ReceiverID: msg.ReceiverID,
		Text:       msg.Text,
		OrderID:    msg.OrderID,
		SentAt:     msg.SentAt,
	}
}

// CreatedEvent is published to the notifications topic after a message is stored.
type CreatedEvent struct {
	Type       string     `json:"type"`
	MessageID  uuid.UUID  `json:"message_id"`
	SenderID   uuid.UUID  `json:"sender_id"`
	ReceiverID uuid.UUID  `json:"receiver_id"`
	Text       string     `json:"text"`
	OrderID    *uuid.UUID `json:"order_id,omitempty"`
	SentAt     time.Time  `json:"sent_at"`
}

const EventMessageCreated = "message.created"

func newCreatedEvent(msg *models.Message) CreatedEvent {
	return CreatedEvent{
		Type:       EventMessageCreated,
		MessageID:  msg.ID,
		SenderID:   msg.SenderID,
		ReceiverID: msg.ReceiverID,
		Text:       msg.Text,
		OrderID:    msg.OrderID,
		SentAt:     msg.SentAt,
	}
}

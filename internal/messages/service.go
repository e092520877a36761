package messages

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/iskomart/iskomart-backend/internal/users"
	"github.com/iskomart/iskomart-backend/pkg/db/models"
	pkgerrors "github.com/iskomart/iskomart-backend/pkg/errors"
	"github.com/iskomart/iskomart-backend/pkg/logger"
)

type messageRepository interface {
	Create(ctx context.Context, msg *models.Message) (*models.Message, error)
	ListForUser(ctx context.Context, userID uuid.UUID) ([]MessageRow, error)
	ListBetween(ctx context.Context, userA, userB uuid.UUID) ([]MessageRow, error)
}

type userDirectory interface {
	Exists(ctx context.Context, id uuid.UUID) (bool, error)
	Get(ctx context.Context, id uuid.UUID) (*users.UserDTO, error)
}

// Service stores chat and notification messages.
type Service interface {
	Notify(ctx context.Context, senderID, receiverID uuid.UUID, text string, orderID *uuid.UUID) (*models.Message, error)
	SendMessage(ctx context.Context, senderID, receiverID uuid.UUID, text string) (*MessageDTO, error)
	ListForUser(ctx context.Context, userID uuid.UUID) ([]MessageDTO, error)
	ListBetween(ctx context.Context, userA, userB uuid.UUID) ([]MessageDTO, error)
	FindUser(ctx context.Context, userID uuid.UUID) (*users.UserDTO, error)
}

type service struct {
	repo      messageRepository
	users     userDirectory
	publisher Publisher
	logg      *logger.Logger
}

// NewService builds the messaging service. publisher may be nil when no
// broker is configured.
func NewService(repo messageRepository, directory userDirectory, publisher Publisher, logg *logger.Logger) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("messages repository required")
	}
	if directory == nil {
		return nil, fmt.Errorf("user directory required")
	}
	if logg == nil {
		logg = logger.Nop()
	}
	return &service{repo: repo, users: directory, publisher: publisher, logg: logg}, nil
}

// Notify persists a message and fans it out to the broker when one is set.
// Broker failures are logged; the stored record stands.
func (s *service) Notify(ctx context.Context, senderID, receiverID uuid.UUID, text string, orderID *uuid.UUID) (*models.Message, error) {
	msg, err := s.repo.Create(ctx, &models.Message{
		SenderID:   senderID,
		ReceiverID: receiverID,
		Text:       text,
		OrderID:    orderID,
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "store message")
	}
	if s.publisher != nil {
		if err := s.publisher.Publish(ctx, receiverID.String(), newCreatedEvent(msg)); err != nil {
			logCtx := s.logg.WithFields(ctx, map[string]any{
				"message_id":  msg.ID.String(),
				"receiver_id": receiverID.String(),
			})
			s.logg.Error(logCtx, "messages.publish_failed", err)
		}
	}
	return msg, nil
}

func (s *service) SendMessage(ctx context.Context, senderID, receiverID uuid.UUID, text string) (*MessageDTO, error) {
	if senderID == uuid.Nil || receiverID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "sender id and receiver id are required")
	}
	if strings.TrimSpace(text) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "message text is required")
	}
	for _, id := range []uuid.UUID{senderID, receiverID} {
		ok, err := s.users.Exists(ctx, id)
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "sender or receiver not found")
		}
	}
	msg, err := s.Notify(ctx, senderID, receiverID, text, nil)
	if err != nil {
		return nil, err
	}
	return FromModel(msg), nil
}

func (s *service) ListForUser(ctx context.Context, userID uuid.UUID) ([]MessageDTO, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user id is required")
	}
	rows, err := s.repo.ListForUser(ctx, userID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list messages")
	}
	return fromRows(rows), nil
}

func (s *service) ListBetween(ctx context.Context, userA, userB uuid.UUID) ([]MessageDTO, error) {
	if userA == uuid.Nil || userB == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "both user ids are required")
	}
	rows, err := s.repo.ListBetween(ctx, userA, userB)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list conversation")
	}
	return fromRows(rows), nil
}

func (s *service) FindUser(ctx context.Context, userID uuid.UUID) (*users.UserDTO, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user id is required")
	}
	return s.users.Get(ctx, userID)
}

package messages

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/iskomart/iskomart-backend/api/middleware"
	"github.com/iskomart/iskomart-backend/api/responses"
	"github.com/iskomart/iskomart-backend/api/validators"
	internalmessages "github.com/iskomart/iskomart-backend/internal/messages"
	"github.com/iskomart/iskomart-backend/internal/users"
	pkgerrors "github.com/iskomart/iskomart-backend/pkg/errors"
	"github.com/iskomart/iskomart-backend/pkg/logger"
)

const maxTextLen = 2000

type sendRequest struct {
	SenderID   uuid.UUID `json:"sender_id"`
	ReceiverID uuid.UUID `json:"receiver_id" validate:"required"`
	Text       string    `json:"text" validate:"required"`
}

type messageResponse struct {
	Message *internalmessages.MessageDTO `json:"sent_message"`
}

type historyResponse struct {
	Messages []internalmessages.MessageDTO `json:"messages"`
}

type userResponse struct {
	User *users.UserDTO `json:"user"`
}

func unavailable(w http.ResponseWriter, r *http.Request, logg *logger.Logger) {
	responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "messages service unavailable"))
}

// Send stores a direct message between two users.
func Send(svc internalmessages.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			unavailable(w, r, logg)
			return
		}
		var payload sendRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		senderID, err := middleware.ResolveActor(r.Context(), payload.SenderID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		msg, err := svc.SendMessage(r.Context(), senderID, payload.ReceiverID, validators.SanitizeString(payload.Text, maxTextLen))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, "message sent", messageResponse{Message: msg})
	}
}

// ListForUser returns every message the user sent or received.
func ListForUser(svc internalmessages.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			unavailable(w, r, logg)
			return
		}
		userID, err := validators.ParseUUIDParam(r, "user_id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if _, err := middleware.ResolveActor(r.Context(), userID); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		list, err := svc.ListForUser(r.Context(), userID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, "", historyResponse{Messages: list})
	}
}

// ListBetween returns the conversation between two users, oldest first.
func ListBetween(svc internalmessages.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			unavailable(w, r, logg)
			return
		}
		userA, err := validators.ParseUUIDParam(r, "user1_id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		userB, err := validators.ParseUUIDParam(r, "user2_id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if err := middleware.RequireParticipant(r.Context(), userA, userB); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		list, err := svc.ListBetween(r.Context(), userA, userB)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, "", historyResponse{Messages: list})
	}
}

// User returns the public profile the chat screens show.
func User(svc internalmessages.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			unavailable(w, r, logg)
			return
		}
		userID, err := validators.ParseUUIDParam(r, "user_id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		user, err := svc.FindUser(r.Context(), userID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, "", userResponse{User: user})
	}
}

package cart

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/iskomart/iskomart-backend/api/middleware"
	"github.com/iskomart/iskomart-backend/api/responses"
	"github.com/iskomart/iskomart-backend/api/validators"
	cartsvc "github.com/iskomart/iskomart-backend/internal/cart"
	pkgerrors "github.com/iskomart/iskomart-backend/pkg/errors"
	"github.com/iskomart/iskomart-backend/pkg/logger"
)

type addRequest struct {
	UserID   uuid.UUID `json:"user_id"`
	ItemID   uuid.UUID `json:"item_id" validate:"required"`
	Quantity *int      `json:"quantity"`
}

type updateRequest struct {
	UserID   uuid.UUID `json:"user_id"`
	ItemID   uuid.UUID `json:"item_id" validate:"required"`
	Quantity *int      `json:"quantity" validate:"required"`
}

type removeRequest struct {
	UserID uuid.UUID `json:"user_id"`
	ItemID uuid.UUID `json:"item_id" validate:"required"`
}

type lineResponse struct {
	CartLine *cartsvc.LineRecordDTO `json:"cart_line"`
}

type updateResponse struct {
	Removed bool `json:"removed"`
}

type clearResponse struct {
	Removed int64 `json:"removed"`
}

func unavailable(w http.ResponseWriter, r *http.Request, logg *logger.Logger) {
	responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "cart service unavailable"))
}

// Add puts an item in the user's cart or bumps the existing line.
func Add(svc cartsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			unavailable(w, r, logg)
			return
		}
		var payload addRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		userID, err := middleware.ResolveActor(r.Context(), payload.UserID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		qty := 0
		if payload.Quantity != nil {
			qty = *payload.Quantity
		}

		line, err := svc.AddItem(r.Context(), userID, payload.ItemID, qty)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, "item added to cart", lineResponse{CartLine: line})
	}
}

// Fetch lists the user's cart with totals.
func Fetch(svc cartsvc.Service, logg *logger.Logger) http.HandlerFunc {
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

		view, err := svc.List(r.Context(), userID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, "", view)
	}
}

// Update sets a line's quantity; zero or less removes it.
func Update(svc cartsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			unavailable(w, r, logg)
			return
		}
		var payload updateRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		userID, err := middleware.ResolveActor(r.Context(), payload.UserID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		removed, err := svc.UpdateQuantity(r.Context(), userID, payload.ItemID, *payload.Quantity)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		message := "cart updated"
		if removed {
			message = "item removed from cart"
		}
		responses.WriteSuccess(w, message, updateResponse{Removed: removed})
	}
}

// Remove deletes one line from the cart.
func Remove(svc cartsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			unavailable(w, r, logg)
			return
		}
		var payload removeRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		userID, err := middleware.ResolveActor(r.Context(), payload.UserID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if err := svc.RemoveItem(r.Context(), userID, payload.ItemID); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, "item removed from cart", nil)
	}
}

// Clear empties the user's cart.
func Clear(svc cartsvc.Service, logg *logger.Logger) http.HandlerFunc {
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

		removed, err := svc.Clear(r.Context(), userID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, "cart cleared", clearResponse{Removed: removed})
	}
}

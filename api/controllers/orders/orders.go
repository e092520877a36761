package orders

import (
	"context"
	"net/http"

	"github.com/google/uuid"

	"github.com/iskomart/iskomart-backend/api/middleware"
	"github.com/iskomart/iskomart-backend/api/responses"
	"github.com/iskomart/iskomart-backend/api/validators"
	"github.com/iskomart/iskomart-backend/internal/checkout"
	internalorders "github.com/iskomart/iskomart-backend/internal/orders"
	pkgerrors "github.com/iskomart/iskomart-backend/pkg/errors"
	"github.com/iskomart/iskomart-backend/pkg/logger"
	"github.com/iskomart/iskomart-backend/pkg/pagination"
)

// Place converts selected cart lines into one order per seller.
func Place(svc checkout.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "checkout service unavailable"))
			return
		}

		var payload placeOrderRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		buyerID, err := middleware.ResolveActor(r.Context(), payload.UserID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		ctx := r.Context()
		if logg != nil {
			ctx = logg.WithUserID(ctx, buyerID.String())
		}
		result, err := svc.PlaceOrder(ctx, payload.toInput(buyerID))
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		message := "orders placed"
		if len(result.FailedSellerIDs) > 0 {
			message = "some orders could not be placed"
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, message, result)
	}
}

// Confirm creates a single order from explicit item references.
func Confirm(svc checkout.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "checkout service unavailable"))
			return
		}

		var payload confirmOrderRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if err := middleware.RequireParticipant(r.Context(), payload.BuyerID, payload.SellerID); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := svc.ConfirmOrder(r.Context(), payload.toInput())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, "order confirmed", result)
	}
}

// ListForBuyer returns the orders the path user placed.
func ListForBuyer(svc internalorders.Service, logg *logger.Logger) http.HandlerFunc {
	return listForUser(svc, logg, internalorders.Service.ListForBuyer)
}

// ListForSeller returns the orders the path user received.
func ListForSeller(svc internalorders.Service, logg *logger.Logger) http.HandlerFunc {
	return listForUser(svc, logg, internalorders.Service.ListForSeller)
}

type listFunc func(svc internalorders.Service, ctx context.Context, userID uuid.UUID, params pagination.Params) (*internalorders.OrderList, error)

func listForUser(svc internalorders.Service, logg *logger.Logger, list listFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "orders service unavailable"))
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
		params, err := parsePageParams(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := list(svc, r.Context(), userID, params)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, "", result)
	}
}

// ListBetween returns the orders shared by two users in either role.
func ListBetween(svc internalorders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "orders service unavailable"))
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
		params, err := parsePageParams(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := svc.ListBetween(r.Context(), userA, userB, params)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, "", result)
	}
}

type detailResponse struct {
	Order *internalorders.DetailDTO `json:"order"`
}

// Detail returns one order with its lines.
func Detail(svc internalorders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "orders service unavailable"))
			return
		}
		orderID, err := validators.ParseUUIDParam(r, "order_id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		ctx := r.Context()
		if logg != nil {
			ctx = logg.WithOrderID(ctx, orderID.String())
		}
		detail, err := svc.GetDetail(ctx, orderID)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, "", detailResponse{Order: detail})
	}
}

// UpdateStatus handles PUT /orders/{order_id}/status. The acting user comes
// from the token or the body's user_id.
func UpdateStatus(svc internalorders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "orders service unavailable"))
			return
		}
		orderID, err := validators.ParseUUIDParam(r, "order_id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var payload statusRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		actorID, err := middleware.ResolveActor(r.Context(), payload.UserID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		writeStatusChange(w, r, svc, logg, internalorders.SetStatusInput{
			OrderID:     orderID,
			ActorUserID: actorID,
			Status:      payload.Status,
		})
	}
}

// UpdateStatusForUser handles PUT /orders/status/{user_id}, where the path
// names the acting user.
func UpdateStatusForUser(svc internalorders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "orders service unavailable"))
			return
		}
		pathUserID, err := validators.ParseUUIDParam(r, "user_id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var payload statusForUserRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		actorID, err := middleware.ResolveActor(r.Context(), pathUserID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		writeStatusChange(w, r, svc, logg, internalorders.SetStatusInput{
			OrderID:     payload.OrderID,
			ActorUserID: actorID,
			Status:      payload.Status,
		})
	}
}

func writeStatusChange(w http.ResponseWriter, r *http.Request, svc internalorders.Service, logg *logger.Logger, input internalorders.SetStatusInput) {
	ctx := r.Context()
	if logg != nil {
		ctx = logg.WithOrderID(ctx, input.OrderID.String())
	}
	result, err := svc.SetStatus(ctx, input)
	if err != nil {
		responses.WriteError(ctx, logg, w, err)
		return
	}
	responses.WriteSuccess(w, "order status updated", result)
}

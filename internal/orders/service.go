package orders

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/iskomart/iskomart-backend/pkg/enums"
	pkgerrors "github.com/iskomart/iskomart-backend/pkg/errors"
	"github.com/iskomart/iskomart-backend/pkg/logger"
	"github.com/iskomart/iskomart-backend/pkg/metrics"
	"github.com/iskomart/iskomart-backend/pkg/pagination"
)

// Service covers the order lifecycle after creation.
type Service interface {
	// SetStatus overwrites the status and notifies the counterparty. Setting
	// the status the order already has succeeds without a write or a notice.
	SetStatus(ctx context.Context, input SetStatusInput) (*StatusResult, error)
	ListForBuyer(ctx context.Context, buyerID uuid.UUID, params pagination.Params) (*OrderList, error)
	ListForSeller(ctx context.Context, sellerID uuid.UUID, params pagination.Params) (*OrderList, error)
	ListBetween(ctx context.Context, userA, userB uuid.UUID, params pagination.Params) (*OrderList, error)
	GetDetail(ctx context.Context, orderID uuid.UUID) (*DetailDTO, error)
}

type service struct {
	repo     Repository
	tx       txRunner
	notifier Notifier
	policy   enums.TransitionPolicy
	metrics  *metrics.OrderMetrics
	logg     *logger.Logger
}

// NewService builds the order service. A nil policy allows every move
// between recognized statuses.
func NewService(
	repo Repository,
	tx txRunner,
	notifier Notifier,
	policy enums.TransitionPolicy,
	orderMetrics *metrics.OrderMetrics,
	logg *logger.Logger,
) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("orders repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if notifier == nil {
		return nil, fmt.Errorf("notifier required")
	}
	if policy == nil {
		policy = enums.FlatTransitions{}
	}
	if logg == nil {
		logg = logger.Nop()
	}
	return &service{
		repo:     repo,
		tx:       tx,
		notifier: notifier,
		policy:   policy,
		metrics:  orderMetrics,
		logg:     logg,
	}, nil
}

// SetStatus moves an order to a new status on behalf of one of its parties
// and tells the other party. Re-applying the current status is a no-op in
// both the flat and strict modes: nothing is written and nobody is notified.
func (s *service) SetStatus(ctx context.Context, input SetStatusInput) (*StatusResult, error) {
	target, err := enums.ParseOrderStatus(input.Status)
	if err != nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid status").
			WithDetails(map[string]any{"status": input.Status, "allowed": enums.OrderStatuses()})
	}
	if input.OrderID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order id required")
	}
	if input.ActorUserID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user id required")
	}

	var (
		counterparty uuid.UUID
		changed      bool
	)
	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		order, err := repo.FindOrder(ctx, input.OrderID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load order")
		}
		if !order.HasParty(input.ActorUserID) {
			return pkgerrors.New(pkgerrors.CodeForbidden, "user is not a party to this order")
		}
		if order.Status == target {
			return nil
		}
		if !s.policy.Allowed(order.Status, target) {
			return pkgerrors.Newf(pkgerrors.CodeStateConflict, "cannot move order from %s to %s", order.Status, target).
				WithDetails(map[string]any{"from": order.Status, "to": target})
		}
		if err := repo.UpdateStatus(ctx, order.ID, target); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "update order status")
		}
		counterparty = order.Counterparty(input.ActorUserID)
		changed = true
		return nil
	})
	if err != nil {
		return nil, err
	}

	if changed {
		s.metrics.IncStatusChange(target.String())
		s.notifyStatusChange(ctx, input.ActorUserID, counterparty, input.OrderID, target)
	}
	return &StatusResult{OrderID: input.OrderID, Status: target}, nil
}

func (s *service) notifyStatusChange(ctx context.Context, actor, receiver, orderID uuid.UUID, status enums.OrderStatus) {
	text := fmt.Sprintf("Order #%s status updated to %s", ShortID(orderID), status)
	if _, err := s.notifier.Notify(ctx, actor, receiver, text, &orderID); err != nil {
		s.metrics.IncNotificationFailure("status_update")
		logCtx := s.logg.WithOrderID(ctx, orderID.String())
		s.logg.Error(logCtx, "orders.notify_failed", err)
	}
}

func (s *service) ListForBuyer(ctx context.Context, buyerID uuid.UUID, params pagination.Params) (*OrderList, error) {
	return s.list(ctx, params, viewAsBuyer, func(w pagination.Window) ([]SummaryRow, error) {
		if buyerID == uuid.Nil {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "user id required")
		}
		return s.repo.ListForBuyer(ctx, buyerID, w)
	})
}

func (s *service) ListForSeller(ctx context.Context, sellerID uuid.UUID, params pagination.Params) (*OrderList, error) {
	return s.list(ctx, params, viewAsSeller, func(w pagination.Window) ([]SummaryRow, error) {
		if sellerID == uuid.Nil {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "user id required")
		}
		return s.repo.ListForSeller(ctx, sellerID, w)
	})
}

func (s *service) ListBetween(ctx context.Context, userA, userB uuid.UUID, params pagination.Params) (*OrderList, error) {
	return s.list(ctx, params, viewNeutral, func(w pagination.Window) ([]SummaryRow, error) {
		if userA == uuid.Nil || userB == uuid.Nil {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "both user ids required")
		}
		return s.repo.ListBetween(ctx, userA, userB, w)
	})
}

func (s *service) list(ctx context.Context, params pagination.Params, as viewer, fetch func(pagination.Window) ([]SummaryRow, error)) (*OrderList, error) {
	window, err := params.Window()
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid pagination")
	}
	rows, err := fetch(window)
	if err != nil {
		if pkgerrors.As(err) != nil {
			return nil, err
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list orders")
	}
	rows, more := pagination.Trim(rows, window)

	out := &OrderList{Orders: make([]SummaryDTO, 0, len(rows))}
	for _, row := range rows {
		out.Orders = append(out.Orders, summaryFromRow(row, as))
	}
	if more && len(rows) > 0 {
		last := rows[len(rows)-1]
		out.NextCursor = pagination.EncodeCursor(pagination.Cursor{At: last.OrderDate, ID: last.ID})
	}
	return out, nil
}

func (s *service) GetDetail(ctx context.Context, orderID uuid.UUID) (*DetailDTO, error) {
	if orderID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order id required")
	}
	rec, err := s.repo.FindOrderDetail(ctx, orderID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load order detail")
	}
	return detailFromRecord(rec), nil
}

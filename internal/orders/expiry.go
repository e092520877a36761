package orders

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/iskomart/iskomart-backend/pkg/db/models"
	"github.com/iskomart/iskomart-backend/pkg/enums"
	"github.com/iskomart/iskomart-backend/pkg/logger"
	"github.com/iskomart/iskomart-backend/pkg/metrics"
)

const defaultExpiryBatch = 200

// Expirer cancels pending orders that sat unanswered past a cutoff.
type Expirer struct {
	repo     Repository
	tx       txRunner
	notifier Notifier
	metrics  *metrics.OrderMetrics
	logg     *logger.Logger
	batch    int
}

// NewExpirer builds an Expirer. batch caps orders handled per call; zero
// uses the default.
func NewExpirer(repo Repository, tx txRunner, notifier Notifier, orderMetrics *metrics.OrderMetrics, logg *logger.Logger, batch int) (*Expirer, error) {
	if repo == nil {
		return nil, fmt.Errorf("orders repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if notifier == nil {
		return nil, fmt.Errorf("notifier required")
	}
	if logg == nil {
		logg = logger.Nop()
	}
	if batch <= 0 {
		batch = defaultExpiryBatch
	}
	return &Expirer{repo: repo, tx: tx, notifier: notifier, metrics: orderMetrics, logg: logg, batch: batch}, nil
}

// ExpirePendingBefore cancels up to one batch of orders still pending since
// before cutoff and tells each buyer. It returns how many were cancelled.
func (e *Expirer) ExpirePendingBefore(ctx context.Context, cutoff time.Time) (int, error) {
	stale, err := e.repo.FindPendingBefore(ctx, cutoff, e.batch)
	if err != nil {
		return 0, fmt.Errorf("query pending orders: %w", err)
	}

	expired := 0
	for _, candidate := range stale {
		ok, err := e.expire(ctx, candidate.ID)
		if err != nil {
			return expired, fmt.Errorf("expire order %s: %w", candidate.ID, err)
		}
		if !ok {
			continue
		}
		expired++
		e.metrics.IncStatusChange(enums.OrderStatusCancelled.String())
		e.notifyBuyer(ctx, candidate)
	}
	return expired, nil
}

// expire re-reads the order inside the transaction so a status set by a
// party after the scan wins over the sweep.
func (e *Expirer) expire(ctx context.Context, orderID uuid.UUID) (bool, error) {
	changed := false
	err := e.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := e.repo.WithTx(tx)
		current, err := repo.FindOrder(ctx, orderID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil
			}
			return err
		}
		if current.Status != enums.OrderStatusPending {
			return nil
		}
		if err := repo.UpdateStatus(ctx, orderID, enums.OrderStatusCancelled); err != nil {
			return err
		}
		changed = true
		return nil
	})
	return changed, err
}

func (e *Expirer) notifyBuyer(ctx context.Context, order models.Order) {
	text := fmt.Sprintf("Order #%s was cancelled after waiting too long for the seller", ShortID(order.ID))
	if _, err := e.notifier.Notify(ctx, order.SellerID, order.BuyerID, text, &order.ID); err != nil {
		e.metrics.IncNotificationFailure("expiry")
		e.logg.Error(e.logg.WithOrderID(ctx, order.ID.String()), "orders.expiry_notify_failed", err)
	}
}

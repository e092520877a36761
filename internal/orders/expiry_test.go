package orders

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iskomart/iskomart-backend/pkg/db/dbtest"
	"github.com/iskomart/iskomart-backend/pkg/db/models"
	"github.com/iskomart/iskomart-backend/pkg/enums"
	"github.com/iskomart/iskomart-backend/pkg/logger"
	"github.com/iskomart/iskomart-backend/pkg/metrics"
)

func TestExpirerCancelsOnlyStalePendingOrders(t *testing.T) {
	client := dbtest.Client(t)
	conn := client.DB()
	seller := dbtest.SeedUser(t, conn, "seller", "Ana", "Reyes")
	buyer := dbtest.SeedUser(t, conn, "buyer", "Ben", "Lim")
	f := ordersFixture{conn: conn, repo: NewRepository(conn), buyer: buyer, seller: seller,
		item: dbtest.SeedItem(t, conn, seller.ID, "Lab Gown", "350")}

	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	stale := f.createOrder(t, buyer.ID, seller.ID, "350", now.Add(-96*time.Hour), 1)
	answered := f.createOrder(t, buyer.ID, seller.ID, "350", now.Add(-96*time.Hour), 1)
	require.NoError(t, f.repo.UpdateStatus(context.Background(), answered.ID, enums.OrderStatusConfirmed))
	fresh := f.createOrder(t, buyer.ID, seller.ID, "350", now.Add(-time.Hour), 1)

	reg := prometheus.NewRegistry()
	notifier := &recordingNotifier{}
	expirer, err := NewExpirer(f.repo, client, notifier, metrics.NewOrderMetrics(reg),
		logger.New(logger.Options{ServiceName: "test", Output: io.Discard}), 0)
	require.NoError(t, err)

	n, err := expirer.ExpirePendingBefore(context.Background(), now.Add(-72*time.Hour))
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	statuses := map[uuid.UUID]enums.OrderStatus{}
	for _, id := range []uuid.UUID{stale.ID, answered.ID, fresh.ID} {
		order, err := f.repo.FindOrder(context.Background(), id)
		require.NoError(t, err)
		statuses[id] = order.Status
	}
	assert.Equal(t, enums.OrderStatusCancelled, statuses[stale.ID])
	assert.Equal(t, enums.OrderStatusConfirmed, statuses[answered.ID])
	assert.Equal(t, enums.OrderStatusPending, statuses[fresh.ID])

	require.Len(t, notifier.sent, 1)
	assert.Equal(t, seller.ID, notifier.sent[0].sender)
	assert.Equal(t, buyer.ID, notifier.sent[0].receiver)
	assert.Equal(t, stale.ID, *notifier.sent[0].orderID)
	assert.Contains(t, notifier.sent[0].text, ShortID(stale.ID))

	count, err := testutil.GatherAndCount(reg, "order_status_changes_total")
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	n, err = expirer.ExpirePendingBefore(context.Background(), now.Add(-72*time.Hour))
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestExpirerSkipsOrdersAnsweredAfterScan(t *testing.T) {
	order := pendingOrder()
	repo := &stubOrdersRepo{
		order: order,
		findPending: func(context.Context, time.Time, int) ([]models.Order, error) {
			snapshot := *order
			order.Status = enums.OrderStatusConfirmed
			return []models.Order{snapshot}, nil
		},
	}
	notifier := &recordingNotifier{}
	expirer, err := NewExpirer(repo, stubTxRunner{}, notifier, nil, nil, 10)
	require.NoError(t, err)

	n, err := expirer.ExpirePendingBefore(context.Background(), time.Now())
	require.NoError(t, err)
	assert.Zero(t, n)
	assert.Zero(t, repo.updateCalls)
	assert.Empty(t, notifier.sent)
}

func TestExpirerReportsQueryAndWriteFailures(t *testing.T) {
	repo := &stubOrdersRepo{findPending: func(context.Context, time.Time, int) ([]models.Order, error) {
		return nil, errors.New("db down")
	}}
	expirer, err := NewExpirer(repo, stubTxRunner{}, &recordingNotifier{}, nil, nil, 0)
	require.NoError(t, err)
	_, err = expirer.ExpirePendingBefore(context.Background(), time.Now())
	require.Error(t, err)

	order := pendingOrder()
	repo = &stubOrdersRepo{
		order: order,
		findPending: func(context.Context, time.Time, int) ([]models.Order, error) {
			return []models.Order{*order}, nil
		},
		updateStatus: func(context.Context, uuid.UUID, enums.OrderStatus) error { return errors.New("locked") },
	}
	expirer, err = NewExpirer(repo, stubTxRunner{}, &recordingNotifier{}, nil, nil, 0)
	require.NoError(t, err)
	n, err := expirer.ExpirePendingBefore(context.Background(), time.Now())
	require.Error(t, err)
	assert.Zero(t, n)
}

func TestExpirerNotifyFailureDoesNotUndoCancel(t *testing.T) {
	order := pendingOrder()
	repo := &stubOrdersRepo{
		order: order,
		findPending: func(context.Context, time.Time, int) ([]models.Order, error) {
			return []models.Order{*order}, nil
		},
	}
	reg := prometheus.NewRegistry()
	expirer, err := NewExpirer(repo, stubTxRunner{}, &recordingNotifier{err: errors.New("inbox down")}, metrics.NewOrderMetrics(reg), nil, 0)
	require.NoError(t, err)

	n, err := expirer.ExpirePendingBefore(context.Background(), time.Now())
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.Equal(t, enums.OrderStatusCancelled, repo.updatedStatus)

	count, err := testutil.GatherAndCount(reg, "order_notifications_failed_total")
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

package cron

import (
	"context"
	"fmt"
	"time"
)

type pendingExpirer interface {
	ExpirePendingBefore(ctx context.Context, cutoff time.Time) (int, error)
}

type orderExpiryJob struct {
	expirer pendingExpirer
	ttl     time.Duration
	now     func() time.Time
}

// NewOrderExpiryJob cancels orders that stayed pending longer than ttl.
func NewOrderExpiryJob(expirer pendingExpirer, ttl time.Duration) (Job, error) {
	if expirer == nil {
		return nil, fmt.Errorf("order expirer required")
	}
	if ttl <= 0 {
		return nil, fmt.Errorf("pending order ttl must be positive")
	}
	return &orderExpiryJob{expirer: expirer, ttl: ttl, now: time.Now}, nil
}

func (j *orderExpiryJob) Name() string { return "order-expiry" }

func (j *orderExpiryJob) Run(ctx context.Context) (int, error) {
	return j.expirer.ExpirePendingBefore(ctx, j.now().UTC().Add(-j.ttl))
}

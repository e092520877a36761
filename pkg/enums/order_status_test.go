package enums

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseOrderStatus(t *testing.T) {
	t.Parallel()

	for _, status := range OrderStatuses() {
		got, err := ParseOrderStatus(string(status))
		require.NoError(t, err)
		assert.Equal(t, status, got)
	}

	got, err := ParseOrderStatus("  Shipped ")
	require.NoError(t, err)
	assert.Equal(t, OrderStatusShipped, got)

	_, err = ParseOrderStatus("lost")
	assert.Error(t, err)
	_, err = ParseOrderStatus("")
	assert.Error(t, err)
}

func TestFlatTransitionsAllowAnyRecognizedMove(t *testing.T) {
	t.Parallel()

	policy := FlatTransitions{}
	for _, from := range OrderStatuses() {
		for _, to := range OrderStatuses() {
			assert.True(t, policy.Allowed(from, to), "%s -> %s", from, to)
		}
	}
	assert.False(t, policy.Allowed(OrderStatusPending, OrderStatus("lost")))
}

func TestTransitionTableIsForwardOnly(t *testing.T) {
	t.Parallel()

	table := DefaultTransitionTable()
	assert.True(t, table.Allowed(OrderStatusPending, OrderStatusConfirmed))
	assert.True(t, table.Allowed(OrderStatusConfirmed, OrderStatusShipped))
	assert.True(t, table.Allowed(OrderStatusShipped, OrderStatusDelivered))
	assert.True(t, table.Allowed(OrderStatusPending, OrderStatusCancelled))
	assert.True(t, table.Allowed(OrderStatusDelivered, OrderStatusDelivered))

	assert.False(t, table.Allowed(OrderStatusDelivered, OrderStatusPending))
	assert.False(t, table.Allowed(OrderStatusCancelled, OrderStatusConfirmed))
	assert.False(t, table.Allowed(OrderStatusShipped, OrderStatusCancelled))
	assert.False(t, table.Allowed(OrderStatusPending, OrderStatusDelivered))
}

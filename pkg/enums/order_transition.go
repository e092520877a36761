package enums

// TransitionPolicy decides whether an order may move between two statuses.
type TransitionPolicy interface {
	Allowed(from, to OrderStatus) bool
}

// FlatTransitions lets any recognized status move to any other.
type FlatTransitions struct{}

func (FlatTransitions) Allowed(from, to OrderStatus) bool {
	return to.IsValid()
}

// TransitionTable only allows the listed forward moves. Re-applying the
// current status is always allowed.
type TransitionTable map[OrderStatus][]OrderStatus

// DefaultTransitionTable is the forward-only lifecycle used in strict mode.
func DefaultTransitionTable() TransitionTable {
	return TransitionTable{
		OrderStatusPending:   {OrderStatusConfirmed, OrderStatusCancelled},
		OrderStatusConfirmed: {OrderStatusShipped, OrderStatusCancelled},
		OrderStatusShipped:   {OrderStatusDelivered},
		OrderStatusDelivered: {},
		OrderStatusCancelled: {},
	}
}

func (t TransitionTable) Allowed(from, to OrderStatus) bool {
	if !to.IsValid() {
		return false
	}
	if from == to {
		return true
	}
	for _, next := range t[from] {
		if next == to {
			return true
		}
	}
	return false
}

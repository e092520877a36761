package checkout

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.uber.org/multierr"
	"gorm.io/gorm"

	"github.com/iskomart/iskomart-backend/internal/cart"
	"github.com/iskomart/iskomart-backend/internal/checkout/helpers"
	"github.com/iskomart/iskomart-backend/internal/orders"
	"github.com/iskomart/iskomart-backend/pkg/db/models"
	"github.com/iskomart/iskomart-backend/pkg/enums"
	pkgerrors "github.com/iskomart/iskomart-backend/pkg/errors"
	"github.com/iskomart/iskomart-backend/pkg/logger"
	"github.com/iskomart/iskomart-backend/pkg/metrics"
	"github.com/iskomart/iskomart-backend/pkg/types"
)

const (
	pathPlace   = "place"
	pathConfirm = "confirm"
)

var tracer = otel.Tracer("iskomart/checkout")

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type lineSelector interface {
	SelectedLines(ctx context.Context, buyerID uuid.UUID, lineIDs []uuid.UUID) ([]cart.SelectedLine, error)
}

type itemLoader interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.Item, error)
}

// Service creates orders from carts or from explicit item lists.
type Service interface {
	PlaceOrder(ctx context.Context, input PlaceOrderInput) (*PlaceOrderResult, error)
	ConfirmOrder(ctx context.Context, input ConfirmOrderInput) (*ConfirmOrderResult, error)
}

// Options tunes checkout behavior.
type Options struct {
	ClearCartOnCheckout bool
}

type service struct {
	tx         txRunner
	selector   lineSelector
	cartRepo   cart.CartRepository
	ordersRepo orders.Repository
	items      itemLoader
	notifier   orders.Notifier
	opts       Options
	metrics    *metrics.OrderMetrics
	logg       *logger.Logger
}

// NewService builds the checkout service.
func NewService(
	tx txRunner,
	selector lineSelector,
	cartRepo cart.CartRepository,
	ordersRepo orders.Repository,
	items itemLoader,
	notifier orders.Notifier,
	opts Options,
	orderMetrics *metrics.OrderMetrics,
	logg *logger.Logger,
) (Service, error) {
	if tx == nil {
		return nil, fmt.Errorf("tx runner required")
	}
	if selector == nil {
		return nil, fmt.Errorf("cart line selector required")
	}
	if cartRepo == nil {
		return nil, fmt.Errorf("cart repository required")
	}
	if ordersRepo == nil {
		return nil, fmt.Errorf("orders repository required")
	}
	if items == nil {
		return nil, fmt.Errorf("item loader required")
	}
	if notifier == nil {
		return nil, fmt.Errorf("notifier required")
	}
	if logg == nil {
		logg = logger.Nop()
	}
	return &service{
		tx:         tx,
		selector:   selector,
		cartRepo:   cartRepo,
		ordersRepo: ordersRepo,
		items:      items,
		notifier:   notifier,
		opts:       opts,
		metrics:    orderMetrics,
		logg:       logg,
	}, nil
}

// PlaceOrder turns the buyer's selected cart lines into one order per seller.
// Each seller group commits or rolls back on its own.
func (s *service) PlaceOrder(ctx context.Context, input PlaceOrderInput) (*PlaceOrderResult, error) {
	if input.BuyerID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user id required")
	}
	if len(input.CartLineIDs) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "selected items required")
	}

	selected, err := s.selector.SelectedLines(ctx, input.BuyerID, input.CartLineIDs)
	if err != nil {
		return nil, err
	}
	if len(selected) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "no valid items found in cart")
	}

	lines := make([]helpers.Line, 0, len(selected))
	for _, line := range selected {
		lines = append(lines, helpers.Line{
			CartLineID: line.CartLineID,
			ItemID:     line.ItemID,
			Quantity:   line.Quantity,
			UnitPrice:  line.UnitPrice,
			SellerID:   line.SellerID,
			SellerName: line.SellerName,
		})
	}

	meta := orderMeta{
		deliveryAddress: normalizeOptional(input.DeliveryAddress),
		notes:           normalizeOptional(input.Notes),
		clearCart:       s.opts.ClearCartOnCheckout,
	}

	result := &PlaceOrderResult{Orders: []PlacedOrder{}}
	var groupErrs error
	for _, group := range helpers.GroupLinesBySeller(lines) {
		order, err := s.createOrderFromLines(ctx, pathPlace, input.BuyerID, group, meta)
		if err != nil {
			result.FailedSellerIDs = append(result.FailedSellerIDs, group.SellerID)
			groupErrs = multierr.Append(groupErrs, fmt.Errorf("seller %s: %w", group.SellerID, err))
			continue
		}
		result.Orders = append(result.Orders, PlacedOrder{
			OrderID:     order.ID,
			SellerID:    group.SellerID,
			SellerName:  group.SellerName,
			TotalAmount: types.FormatAmount(order.TotalAmount),
		})
	}

	if groupErrs != nil {
		logCtx := s.logg.WithFields(ctx, map[string]any{
			"buyer_id":      input.BuyerID.String(),
			"failed_groups": len(result.FailedSellerIDs),
			"placed_groups": len(result.Orders),
		})
		s.logg.Error(logCtx, "checkout.group_failed", groupErrs)
	}
	if len(result.Orders) == 0 {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, groupErrs, "no orders could be created")
	}
	return result, nil
}

// ConfirmOrder creates a single order for one seller from explicit items.
// Catalog prices are authoritative; client prices and totals only trigger a
// warning when they disagree.
func (s *service) ConfirmOrder(ctx context.Context, input ConfirmOrderInput) (*ConfirmOrderResult, error) {
	if err := validateConfirmInput(input); err != nil {
		return nil, err
	}

	lines := make([]helpers.Line, 0, len(input.Items))
	for _, requested := range input.Items {
		item, err := s.items.FindByID(ctx, requested.ItemID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, pkgerrors.New(pkgerrors.CodeNotFound, "item not found").
					WithDetails(map[string]any{"item_id": requested.ItemID})
			}
			return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load item")
		}
		if item.SellerID != input.SellerID {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "item does not belong to seller").
				WithDetails(map[string]any{"item_id": requested.ItemID})
		}
		if requested.PriceAtTime != nil && !requested.PriceAtTime.Equal(item.Price) {
			logCtx := s.logg.WithFields(ctx, map[string]any{
				"item_id":      item.ID.String(),
				"client_price": requested.PriceAtTime.String(),
				"price":        item.Price.String(),
			})
			s.logg.Warn(logCtx, "checkout.price_mismatch")
		}
		lines = append(lines, helpers.Line{
			ItemID:    item.ID,
			Quantity:  requested.Quantity,
			UnitPrice: item.Price,
			SellerID:  item.SellerID,
		})
	}

	group := helpers.SellerGroup{SellerID: input.SellerID, Lines: lines}
	computed := group.Total()
	if input.TotalAmount != nil && !input.TotalAmount.Equal(computed) {
		logCtx := s.logg.WithFields(ctx, map[string]any{
			"buyer_id":     input.BuyerID.String(),
			"client_total": input.TotalAmount.String(),
			"total":        computed.String(),
		})
		s.logg.Warn(logCtx, "checkout.total_mismatch")
	}

	order, err := s.createOrderFromLines(ctx, pathConfirm, input.BuyerID, group, orderMeta{
		deliveryAddress: normalizeOptional(input.DeliveryAddress),
		notes:           normalizeOptional(input.Notes),
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create order")
	}

	total := types.FormatAmount(order.TotalAmount)
	short := orders.ShortID(order.ID)
	s.notify(ctx, input.BuyerID, input.SellerID, order.ID,
		fmt.Sprintf("New order #%s placed: %d item(s), total %s", short, len(lines), total))
	s.notify(ctx, input.SellerID, input.BuyerID, order.ID,
		fmt.Sprintf("Order #%s confirmed: %d item(s), total %s", short, len(lines), total))

	return &ConfirmOrderResult{OrderID: order.ID, TotalAmount: total}, nil
}

func validateConfirmInput(input ConfirmOrderInput) error {
	if input.BuyerID == uuid.Nil || input.SellerID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "buyer id and seller id required")
	}
	if input.BuyerID == input.SellerID {
		return pkgerrors.New(pkgerrors.CodeValidation, "buyer and seller must differ")
	}
	if len(input.Items) == 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "items required")
	}
	for i, item := range input.Items {
		if item.ItemID == uuid.Nil {
			return pkgerrors.New(pkgerrors.CodeValidation, "item id required").
				WithDetails(map[string]any{"index": i})
		}
		if item.Quantity < 1 {
			return pkgerrors.New(pkgerrors.CodeValidation, "quantity must be at least 1").
				WithDetails(map[string]any{"index": i})
		}
	}
	return nil
}

type orderMeta struct {
	deliveryAddress *string
	notes           *string
	clearCart       bool
}

// createOrderFromLines persists one seller group in its own transaction: the
// header, its lines and, when enabled, removal of the converted cart lines.
func (s *service) createOrderFromLines(ctx context.Context, path string, buyerID uuid.UUID, group helpers.SellerGroup, meta orderMeta) (order *models.Order, err error) {
	ctx, span := tracer.Start(ctx, "checkout.create_order")
	span.SetAttributes(
		attribute.String("checkout.path", path),
		attribute.String("order.seller_id", group.SellerID.String()),
		attribute.Int("order.line_count", len(group.Lines)),
	)
	start := time.Now()
	defer func() {
		s.metrics.ObserveGroup(path, time.Since(start), err)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
	}()

	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		ordersRepo := s.ordersRepo.WithTx(tx)
		created, err := ordersRepo.CreateOrder(ctx, &models.Order{
			BuyerID:         buyerID,
			SellerID:        group.SellerID,
			TotalAmount:     group.Total(),
			Status:          enums.OrderStatusPending,
			DeliveryAddress: meta.deliveryAddress,
			Notes:           meta.notes,
			OrderDate:       time.Now().UTC(),
		})
		if err != nil {
			return fmt.Errorf("create order: %w", err)
		}

		items := make([]models.OrderItem, 0, len(group.Lines))
		for _, line := range group.Lines {
			items = append(items, models.OrderItem{
				OrderID:     created.ID,
				ItemID:      line.ItemID,
				Quantity:    line.Quantity,
				PriceAtTime: line.UnitPrice,
			})
		}
		if err := ordersRepo.CreateOrderItems(ctx, items); err != nil {
			return fmt.Errorf("create order items: %w", err)
		}

		if meta.clearCart {
			if ids := group.CartLineIDs(); len(ids) > 0 {
				removed, err := s.cartRepo.WithTx(tx).DeleteLines(ctx, buyerID, ids)
				if err != nil {
					return fmt.Errorf("clear converted cart lines: %w", err)
				}
				// Fewer rows means another checkout already converted some of these lines.
				if removed != int64(len(ids)) {
					return fmt.Errorf("cart lines already checked out: removed %d of %d", removed, len(ids))
				}
			}
		}
		order = created
		return nil
	})
	if err != nil {
		return nil, err
	}
	span.SetAttributes(attribute.String("order.id", order.ID.String()))
	return order, nil
}

func (s *service) notify(ctx context.Context, sender, receiver, orderID uuid.UUID, text string) {
	if _, err := s.notifier.Notify(ctx, sender, receiver, text, &orderID); err != nil {
		s.metrics.IncNotificationFailure("order_confirmed")
		logCtx := s.logg.WithOrderID(ctx, orderID.String())
		s.logg.Error(logCtx, "orders.notify_failed", err)
	}
}

func normalizeOptional(value *string) *string {
	if value == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*value)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}

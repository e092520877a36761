package cart

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/iskomart/iskomart-backend/pkg/db"
	"github.com/iskomart/iskomart-backend/pkg/db/models"
	pkgerrors "github.com/iskomart/iskomart-backend/pkg/errors"
)

const defaultAddQuantity = 1

// Service exposes cart operations to controllers and checkout.
type Service interface {
	AddItem(ctx context.Context, userID, itemID uuid.UUID, qty int) (*LineRecordDTO, error)
	UpdateQuantity(ctx context.Context, userID, itemID uuid.UUID, qty int) (removed bool, err error)
	RemoveItem(ctx context.Context, userID, itemID uuid.UUID) error
	Clear(ctx context.Context, userID uuid.UUID) (int64, error)
	List(ctx context.Context, userID uuid.UUID) (*CartView, error)
	SelectedLines(ctx context.Context, buyerID uuid.UUID, lineIDs []uuid.UUID) ([]SelectedLine, error)
}

type service struct {
	repo  CartRepository
	items itemLoader
}

// NewService builds the cart service.
func NewService(repo CartRepository, items itemLoader) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("cart repository required")
	}
	if items == nil {
		return nil, fmt.Errorf("item loader required")
	}
	return &service{repo: repo, items: items}, nil
}

// AddItem puts an item in the cart or increments the existing line. A zero
// quantity means one.
func (s *service) AddItem(ctx context.Context, userID, itemID uuid.UUID, qty int) (*LineRecordDTO, error) {
	if userID == uuid.Nil || itemID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user id and item id are required")
	}
	if qty == 0 {
		qty = defaultAddQuantity
	}
	if qty < 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "quantity must be at least 1")
	}
	if _, err := s.items.FindByID(ctx, itemID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "item not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load item")
	}

	existing, err := s.repo.FindLine(ctx, userID, itemID)
	switch {
	case err == nil:
		return s.increment(ctx, existing, qty)
	case !errors.Is(err, gorm.ErrRecordNotFound):
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load cart line")
	}

	created, err := s.repo.CreateLine(ctx, &models.CartLine{UserID: userID, ItemID: itemID, Quantity: qty})
	if err == nil {
		return lineRecordFromModel(created), nil
	}
	if !db.IsUniqueViolation(err, "") {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create cart line")
	}
	// A concurrent add created the line first.
	existing, err = s.repo.FindLine(ctx, userID, itemID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load cart line")
	}
	return s.increment(ctx, existing, qty)
}

func (s *service) increment(ctx context.Context, line *models.CartLine, qty int) (*LineRecordDTO, error) {
	if err := s.repo.IncrementQuantity(ctx, line.ID, qty); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "update cart line")
	}
	line.Quantity += qty
	return lineRecordFromModel(line), nil
}

// UpdateQuantity sets the line quantity. Zero or less deletes the line.
func (s *service) UpdateQuantity(ctx context.Context, userID, itemID uuid.UUID, qty int) (bool, error) {
	line, err := s.findLine(ctx, userID, itemID)
	if err != nil {
		return false, err
	}
	if qty <= 0 {
		if err := s.repo.DeleteLine(ctx, line.ID); err != nil {
			return false, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "delete cart line")
		}
		return true, nil
	}
	if err := s.repo.SetQuantity(ctx, line.ID, qty); err != nil {
		return false, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "update cart line")
	}
	return false, nil
}

func (s *service) RemoveItem(ctx context.Context, userID, itemID uuid.UUID) error {
	line, err := s.findLine(ctx, userID, itemID)
	if err != nil {
		return err
	}
	if err := s.repo.DeleteLine(ctx, line.ID); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "delete cart line")
	}
	return nil
}

func (s *service) Clear(ctx context.Context, userID uuid.UUID) (int64, error) {
	if userID == uuid.Nil {
		return 0, pkgerrors.New(pkgerrors.CodeValidation, "user id is required")
	}
	removed, err := s.repo.DeleteByUser(ctx, userID)
	if err != nil {
		return 0, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "clear cart")
	}
	return removed, nil
}

func (s *service) List(ctx context.Context, userID uuid.UUID) (*CartView, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user id is required")
	}
	lines, err := s.repo.ListDetailed(ctx, userID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list cart")
	}
	return buildCartView(lines), nil
}

// SelectedLines resolves the lines owned by buyerID in the order they were
// requested. Duplicate, foreign and unknown ids are dropped; an empty result
// is not an error.
func (s *service) SelectedLines(ctx context.Context, buyerID uuid.UUID, lineIDs []uuid.UUID) ([]SelectedLine, error) {
	ids := dedupeIDs(lineIDs)
	if buyerID == uuid.Nil || len(ids) == 0 {
		return []SelectedLine{}, nil
	}
	found, err := s.repo.FindSelected(ctx, buyerID, ids)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load selected cart lines")
	}
	byID := make(map[uuid.UUID]SelectedLine, len(found))
	for _, line := range found {
		byID[line.CartLineID] = line
	}
	out := make([]SelectedLine, 0, len(found))
	for _, id := range ids {
		if line, ok := byID[id]; ok {
			out = append(out, line)
		}
	}
	return out, nil
}

func (s *service) findLine(ctx context.Context, userID, itemID uuid.UUID) (*models.CartLine, error) {
	if userID == uuid.Nil || itemID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user id and item id are required")
	}
	line, err := s.repo.FindLine(ctx, userID, itemID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "cart item not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load cart line")
	}
	return line, nil
}

func dedupeIDs(ids []uuid.UUID) []uuid.UUID {
	seen := make(map[uuid.UUID]struct{}, len(ids))
	out := make([]uuid.UUID, 0, len(ids))
	for _, id := range ids {
		if id == uuid.Nil {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}

package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"github.com/SscSPs/workshop_backend/internal/apperrors"
	"github.com/SscSPs/workshop_backend/internal/core/domain"
	portsrepo "github.com/SscSPs/workshop_backend/internal/core/ports/repositories"
	portssvc "github.com/SscSPs/workshop_backend/internal/core/ports/services"
	"github.com/SscSPs/workshop_backend/internal/dto"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
)

// inventoryService owns every quantity change. Nothing else writes item quantities.
type inventoryService struct {
	BaseService
	inventoryRepo portsrepo.InventoryRepositoryWithTx
}

// NewInventoryService creates the inventory ledger service.
func NewInventoryService(inventoryRepo portsrepo.InventoryRepositoryWithTx, options ...ServiceOption) portssvc.InventorySvcFacade {
	return &inventoryService{
		BaseService:   newBaseService(options...),
		inventoryRepo: inventoryRepo,
	}
}

var _ portssvc.InventorySvcFacade = (*inventoryService)(nil)

func normalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

func validatePrices(prices ...decimal.Decimal) error {
	for _, p := range prices {
		if p.IsNegative() {
			return fmt.Errorf("%w: prices cannot be negative", apperrors.ErrValidation)
		}
	}
	return nil
}

func (s *inventoryService) CreateItem(ctx context.Context, accountID string, req dto.CreateItemRequest) (*domain.InventoryItem, error) {
	code := normalizeCode(req.Code)
	if code == "" || strings.TrimSpace(req.Name) == "" {
		return nil, fmt.Errorf("%w: code and name are required", apperrors.ErrValidation)
	}
	if req.Quantity < 0 {
		return nil, fmt.Errorf("%w: initial quantity cannot be negative", apperrors.ErrValidation)
	}
	if err := validatePrices(req.CostPrice, req.SalePrice); err != nil {
		return nil, err
	}
	category := req.Category
	if category == "" {
		category = domain.CategoryOther
	}
	if !category.IsValid() {
		return nil, fmt.Errorf("%w: unknown item category %s", apperrors.ErrValidation, category)
	}
	minimum := domain.DefaultMinimumQuantity
	if req.MinimumQuantity != nil {
		minimum = *req.MinimumQuantity
	}

	exists, err := s.inventoryRepo.ItemCodeExists(ctx, accountID, code, "")
	if err != nil {
		s.LogError(ctx, err, "Failed to check item code", slog.String("code", code))
		return nil, err
	}
	if exists {
		return nil, fmt.Errorf("%w: item code %s already exists", apperrors.ErrDuplicate, code)
	}

	now := s.now()
	item := domain.InventoryItem{
		ItemID:          uuid.NewString(),
		AccountID:       accountID,
		Code:            code,
		Name:            strings.TrimSpace(req.Name),
		Category:        category,
		MinimumQuantity: minimum,
		CostPrice:       req.CostPrice,
		SalePrice:       req.SalePrice,
		Location:        strings.TrimSpace(req.Location),
		IsActive:        true,
		AuditFields: domain.AuditFields{
			CreatedAt:     now,
			CreatedBy:     accountID,
			LastUpdatedAt: now,
			LastUpdatedBy: accountID,
		},
	}

	err = s.inTx(ctx, s.inventoryRepo, func(tx pgx.Tx) error {
		if err := s.inventoryRepo.SaveItem(ctx, tx, item); err != nil {
			return err
		}
		if req.Quantity == 0 {
			return nil
		}
		_, _, err := s.AdjustQuantityTx(ctx, tx, domain.StockAdjustment{
			AccountID:   accountID,
			ItemID:      item.ItemID,
			Direction:   domain.MovementIn,
			Quantity:    req.Quantity,
			Reason:      domain.ReasonAdjustment,
			Description: "initial stock",
			ActorID:     accountID,
		})
		return err
	})
	if err != nil {
		if !errors.Is(err, apperrors.ErrDuplicate) {
			s.LogError(ctx, err, "Failed to create inventory item", slog.String("code", code))
		}
		return nil, err
	}

	item.Quantity = req.Quantity
	s.LogInfo(ctx, "Inventory item created", slog.String("item_id", item.ItemID), slog.Int("quantity", item.Quantity))
	return &item, nil
}

func (s *inventoryService) GetItem(ctx context.Context, accountID, itemID string) (*domain.InventoryItem, error) {
	item, err := s.inventoryRepo.FindItemByID(ctx, itemID)
	if err != nil {
		return nil, err
	}
	if item.AccountID != accountID {
		return nil, fmt.Errorf("%w: item %s belongs to another account", apperrors.ErrForbidden, itemID)
	}
	return item, nil
}

func (s *inventoryService) ListItems(ctx context.Context, accountID string, params dto.ListItemsParams) ([]domain.InventoryItem, error) {
	items, err := s.inventoryRepo.ListItems(ctx, accountID, params.IncludeInactive)
	if err != nil {
		s.LogError(ctx, err, "Failed to list inventory items")
		return nil, err
	}
	return items, nil
}

func (s *inventoryService) ListMovements(ctx context.Context, accountID string, params dto.ListMovementsParams) ([]domain.StockMovement, error) {
	if params.ItemID != nil {
		if _, err := s.GetItem(ctx, accountID, *params.ItemID); err != nil {
			return nil, err
		}
	}
	limit := params.Limit
	if limit <= 0 {
		limit = 50
	}
	return s.inventoryRepo.ListMovements(ctx, accountID, params.ItemID, limit)
}

func (s *inventoryService) ListAlerts(ctx context.Context, accountID string) ([]domain.StockAlert, error) {
	items, err := s.inventoryRepo.ListItems(ctx, accountID, false)
	if err != nil {
		s.LogError(ctx, err, "Failed to list items for alerts")
		return nil, err
	}

	alerts := []domain.StockAlert{}
	for _, item := range items {
		if level, ok := item.AlertLevel(); ok {
			alerts = append(alerts, domain.StockAlert{Level: level, Item: item})
		}
	}
	sort.SliceStable(alerts, func(i, j int) bool {
		return alerts[i].Item.Quantity < alerts[j].Item.Quantity
	})
	return alerts, nil
}

func (s *inventoryService) UpdateItem(ctx context.Context, accountID, itemID string, req dto.UpdateItemRequest) (*domain.InventoryItem, error) {
	if req.Code != nil {
		code := normalizeCode(*req.Code)
		if code == "" {
			return nil, fmt.Errorf("%w: code cannot be empty", apperrors.ErrValidation)
		}
		exists, err := s.inventoryRepo.ItemCodeExists(ctx, accountID, code, itemID)
		if err != nil {
			return nil, err
		}
		if exists {
			return nil, fmt.Errorf("%w: item code %s already exists", apperrors.ErrDuplicate, code)
		}
	}
	if req.Category != nil && !req.Category.IsValid() {
		return nil, fmt.Errorf("%w: unknown item category %s", apperrors.ErrValidation, *req.Category)
	}
	if req.Quantity != nil && *req.Quantity < 0 {
		return nil, fmt.Errorf("%w: quantity cannot be negative", apperrors.ErrValidation)
	}

	var updated *domain.InventoryItem
	err := s.inTx(ctx, s.inventoryRepo, func(tx pgx.Tx) error {
		item, err := s.inventoryRepo.FindItemForUpdate(ctx, tx, itemID)
		if err != nil {
			return err
		}
		if item.AccountID != accountID {
			return fmt.Errorf("%w: item %s belongs to another account", apperrors.ErrForbidden, itemID)
		}

		if req.Code != nil {
			item.Code = normalizeCode(*req.Code)
		}
		if req.Name != nil {
			item.Name = strings.TrimSpace(*req.Name)
		}
		if req.Category != nil {
			item.Category = *req.Category
		}
		if req.MinimumQuantity != nil {
			item.MinimumQuantity = *req.MinimumQuantity
		}
		if req.CostPrice != nil {
			item.CostPrice = *req.CostPrice
		}
		if req.SalePrice != nil {
			item.SalePrice = *req.SalePrice
		}
		if req.Location != nil {
			item.Location = strings.TrimSpace(*req.Location)
		}
		if err := validatePrices(item.CostPrice, item.SalePrice); err != nil {
			return err
		}
		item.LastUpdatedAt = s.now()
		item.LastUpdatedBy = accountID
		if err := s.inventoryRepo.UpdateItemDetails(ctx, tx, *item); err != nil {
			return err
		}

		// A quantity edit is an adjustment movement, never a direct write.
		if req.Quantity != nil && *req.Quantity != item.Quantity {
			delta := *req.Quantity - item.Quantity
			direction := domain.MovementIn
			if delta < 0 {
				direction, delta = domain.MovementOut, -delta
			}
			_, movement, err := s.AdjustQuantityTx(ctx, tx, domain.StockAdjustment{
				AccountID:   accountID,
				ItemID:      itemID,
				Direction:   direction,
				Quantity:    delta,
				Reason:      domain.ReasonAdjustment,
				Description: "manual quantity correction",
				ActorID:     accountID,
			})
			if err != nil {
				return err
			}
			item.Quantity = movement.QuantityAfter
		}
		updated = item
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.LogInfo(ctx, "Inventory item updated", slog.String("item_id", itemID))
	return updated, nil
}

func (s *inventoryService) DeactivateItem(ctx context.Context, accountID, itemID string) error {
	return s.inTx(ctx, s.inventoryRepo, func(tx pgx.Tx) error {
		item, err := s.inventoryRepo.FindItemForUpdate(ctx, tx, itemID)
		if err != nil {
			return err
		}
		if item.AccountID != accountID {
			return fmt.Errorf("%w: item %s belongs to another account", apperrors.ErrForbidden, itemID)
		}
		if !item.IsActive {
			return nil
		}
		item.IsActive = false
		item.LastUpdatedAt = s.now()
		item.LastUpdatedBy = accountID
		return s.inventoryRepo.UpdateItemDetails(ctx, tx, *item)
	})
}

func (s *inventoryService) AdjustQuantity(ctx context.Context, adj domain.StockAdjustment) (*domain.StockMovement, error) {
	var movement *domain.StockMovement
	err := s.inTx(ctx, s.inventoryRepo, func(tx pgx.Tx) error {
		var err error
		_, movement, err = s.AdjustQuantityTx(ctx, tx, adj)
		return err
	})
	if err != nil {
		if !errors.Is(err, apperrors.ErrInsufficientStock) && !errors.Is(err, apperrors.ErrValidation) {
			s.LogError(ctx, err, "Failed to adjust stock", slog.String("item_id", adj.ItemID))
		}
		return nil, err
	}

	s.LogInfo(ctx, "Stock adjusted",
		slog.String("item_id", adj.ItemID),
		slog.String("direction", string(adj.Direction)),
		slog.Int("quantity", adj.Quantity),
		slog.Int("quantity_after", movement.QuantityAfter))
	return movement, nil
}

func (s *inventoryService) AdjustQuantityTx(ctx context.Context, tx pgx.Tx, adj domain.StockAdjustment) (*domain.InventoryItem, *domain.StockMovement, error) {
	if adj.Quantity <= 0 {
		return nil, nil, fmt.Errorf("%w: movement quantity must be greater than zero", apperrors.ErrValidation)
	}
	if !adj.Direction.IsValid() {
		return nil, nil, fmt.Errorf("%w: unknown movement direction %s", apperrors.ErrValidation, adj.Direction)
	}
	if !adj.Reason.IsValid() {
		return nil, nil, fmt.Errorf("%w: unknown movement reason %s", apperrors.ErrValidation, adj.Reason)
	}

	item, err := s.inventoryRepo.FindItemForUpdate(ctx, tx, adj.ItemID)
	if err != nil {
		return nil, nil, err
	}
	if item.AccountID != adj.AccountID {
		return nil, nil, fmt.Errorf("%w: item %s belongs to another account", apperrors.ErrForbidden, adj.ItemID)
	}

	after := item.Quantity + adj.Quantity
	if adj.Direction == domain.MovementOut {
		if item.Quantity < adj.Quantity {
			return nil, nil, fmt.Errorf("%w for %s: available %d, requested %d",
				apperrors.ErrInsufficientStock, item.Name, item.Quantity, adj.Quantity)
		}
		after = item.Quantity - adj.Quantity
	}

	actor := adj.ActorID
	if actor == "" {
		actor = adj.AccountID
	}
	now := s.now()
	if err := s.inventoryRepo.UpdateItemQuantity(ctx, tx, item.ItemID, after, actor, now); err != nil {
		return nil, nil, err
	}

	movement := domain.StockMovement{
		MovementID:     uuid.NewString(),
		AccountID:      adj.AccountID,
		ItemID:         item.ItemID,
		Direction:      adj.Direction,
		Quantity:       adj.Quantity,
		QuantityBefore: item.Quantity,
		QuantityAfter:  after,
		Reason:         adj.Reason,
		Description:    adj.Description,
		OrderID:        adj.OrderID,
		CreatedAt:      now,
		CreatedBy:      actor,
	}
	if err := s.inventoryRepo.SaveMovement(ctx, tx, movement); err != nil {
		return nil, nil, err
	}
	item.Quantity = after
	item.LastUpdatedAt = now
	item.LastUpdatedBy = actor
	return item, &movement, nil
}

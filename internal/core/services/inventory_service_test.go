package services_test

import (
	"testing"

	"github.com/SscSPs/workshop_backend/internal/apperrors"
	"github.com/SscSPs/workshop_backend/internal/core/domain"
	"github.com/SscSPs/workshop_backend/internal/dto"
	"github.com/stretchr/testify/suite"
)

type InventoryServiceTestSuite struct {
	ScenarioSuite
}

func TestInventoryService(t *testing.T) {
	suite.Run(t, new(InventoryServiceTestSuite))
}

func (s *InventoryServiceTestSuite) TestCreateItem_RecordsInitialStockMovement() {
	item := s.createItem(s.accountID, "flt-01", 5, "25.00")

	s.Equal("FLT-01", item.Code)
	s.Equal(domain.CategoryOther, item.Category)
	s.Equal(domain.DefaultMinimumQuantity, item.MinimumQuantity)
	s.Equal(5, s.stockOf(item.ItemID))

	movements, err := s.svc.Inventory.ListMovements(s.ctx, s.accountID, dto.ListMovementsParams{ItemID: &item.ItemID})
	s.Require().NoError(err)
	s.Require().Len(movements, 1)
	s.Equal(domain.MovementIn, movements[0].Direction)
	s.Equal(domain.ReasonAdjustment, movements[0].Reason)
	s.Equal(0, movements[0].QuantityBefore)
	s.Equal(5, movements[0].QuantityAfter)
}

func (s *InventoryServiceTestSuite) TestCreateItem_ZeroQuantityHasNoMovement() {
	item := s.createItem(s.accountID, "OIL-5W30", 0, "40.00")

	movements, err := s.svc.Inventory.ListMovements(s.ctx, s.accountID, dto.ListMovementsParams{ItemID: &item.ItemID})
	s.Require().NoError(err)
	s.Empty(movements)
}

func (s *InventoryServiceTestSuite) TestCreateItem_DuplicateCode() {
	s.createItem(s.accountID, "BRK-1", 1, "10.00")

	_, err := s.svc.Inventory.CreateItem(s.ctx, s.accountID, dto.CreateItemRequest{Code: "brk-1", Name: "Again"})
	s.ErrorIs(err, apperrors.ErrDuplicate)

	// codes are unique per account only
	other := s.registerAccount()
	_, err = s.svc.Inventory.CreateItem(s.ctx, other, dto.CreateItemRequest{Code: "BRK-1", Name: "Theirs"})
	s.NoError(err)
}

func (s *InventoryServiceTestSuite) TestAdjustQuantity_InsufficientStock() {
	item := s.createItem(s.accountID, "PAD-1", 2, "80.00")

	_, err := s.svc.Inventory.AdjustQuantity(s.ctx, domain.StockAdjustment{
		AccountID: s.accountID,
		ItemID:    item.ItemID,
		Direction: domain.MovementOut,
		Quantity:  3,
		Reason:    domain.ReasonLoss,
	})
	s.ErrorIs(err, apperrors.ErrInsufficientStock)
	s.Contains(err.Error(), "available 2, requested 3")
	s.Equal(2, s.stockOf(item.ItemID))
}

func (s *InventoryServiceTestSuite) TestAdjustQuantity_MovementChain() {
	item := s.createItem(s.accountID, "PAD-2", 2, "80.00")

	in, err := s.svc.Inventory.AdjustQuantity(s.ctx, domain.StockAdjustment{
		AccountID: s.accountID, ItemID: item.ItemID, Direction: domain.MovementIn, Quantity: 4, Reason: domain.ReasonPurchase,
	})
	s.Require().NoError(err)
	s.Equal(2, in.QuantityBefore)
	s.Equal(6, in.QuantityAfter)

	out, err := s.svc.Inventory.AdjustQuantity(s.ctx, domain.StockAdjustment{
		AccountID: s.accountID, ItemID: item.ItemID, Direction: domain.MovementOut, Quantity: 6, Reason: domain.ReasonInternalUse,
	})
	s.Require().NoError(err)
	s.Equal(0, out.QuantityAfter)
	s.Equal(0, s.stockOf(item.ItemID))
}

func (s *InventoryServiceTestSuite) TestMovementsSumToQuantity() {
	item := s.createItem(s.accountID, "OIL-5W", 3, "45.00")
	steps := []domain.StockAdjustment{
		{Direction: domain.MovementIn, Quantity: 7, Reason: domain.ReasonPurchase},
		{Direction: domain.MovementOut, Quantity: 4, Reason: domain.ReasonInternalUse},
		{Direction: domain.MovementOut, Quantity: 2, Reason: domain.ReasonLoss},
		{Direction: domain.MovementIn, Quantity: 1, Reason: domain.ReasonAdjustment},
	}
	for _, adj := range steps {
		adj.AccountID = s.accountID
		adj.ItemID = item.ItemID
		_, err := s.svc.Inventory.AdjustQuantity(s.ctx, adj)
		s.Require().NoError(err)
	}
	_, err := s.svc.Inventory.AdjustQuantity(s.ctx, domain.StockAdjustment{
		AccountID: s.accountID, ItemID: item.ItemID, Direction: domain.MovementOut, Quantity: 50, Reason: domain.ReasonLoss,
	})
	s.ErrorIs(err, apperrors.ErrInsufficientStock)

	movements, err := s.svc.Inventory.ListMovements(s.ctx, s.accountID, dto.ListMovementsParams{ItemID: &item.ItemID})
	s.Require().NoError(err)
	s.Len(movements, 5)
	sum := 0
	for _, m := range movements {
		sum += m.SignedQuantity()
	}
	s.Equal(5, s.stockOf(item.ItemID))
	s.Equal(s.stockOf(item.ItemID), sum)
}

func (s *InventoryServiceTestSuite) TestAdjustQuantityTx_ReturnsAdjustedItem() {
	item := s.createItem(s.accountID, "BLT-1", 4, "60.00")

	tx, err := s.repos.InventoryRepo.Begin(s.ctx)
	s.Require().NoError(err)
	adjusted, movement, err := s.svc.Inventory.AdjustQuantityTx(s.ctx, tx, domain.StockAdjustment{
		AccountID: s.accountID, ItemID: item.ItemID, Direction: domain.MovementOut, Quantity: 3, Reason: domain.ReasonInternalUse,
	})
	s.Require().NoError(err)
	s.Require().NoError(s.repos.InventoryRepo.Commit(s.ctx, tx))

	s.Equal(1, adjusted.Quantity)
	s.Equal(movement.QuantityAfter, adjusted.Quantity)
	s.True(adjusted.LastUpdatedAt.Equal(scenarioStart))
	s.Equal(1, s.stockOf(item.ItemID))
}

func (s *InventoryServiceTestSuite) TestAdjustQuantity_Validation() {
	item := s.createItem(s.accountID, "PAD-3", 2, "80.00")

	_, err := s.svc.Inventory.AdjustQuantity(s.ctx, domain.StockAdjustment{
		AccountID: s.accountID, ItemID: item.ItemID, Direction: domain.MovementIn, Quantity: 0, Reason: domain.ReasonPurchase,
	})
	s.ErrorIs(err, apperrors.ErrValidation)

	_, err = s.svc.Inventory.AdjustQuantity(s.ctx, domain.StockAdjustment{
		AccountID: s.accountID, ItemID: item.ItemID, Direction: domain.MovementIn, Quantity: 1, Reason: "GIFT",
	})
	s.ErrorIs(err, apperrors.ErrValidation)
}

func (s *InventoryServiceTestSuite) TestForeignItemIsForbidden() {
	item := s.createItem(s.accountID, "SPK-1", 3, "15.00")
	other := s.registerAccount()

	_, err := s.svc.Inventory.GetItem(s.ctx, other, item.ItemID)
	s.ErrorIs(err, apperrors.ErrForbidden)

	_, err = s.svc.Inventory.AdjustQuantity(s.ctx, domain.StockAdjustment{
		AccountID: other, ItemID: item.ItemID, Direction: domain.MovementOut, Quantity: 1, Reason: domain.ReasonLoss,
	})
	s.ErrorIs(err, apperrors.ErrForbidden)
	s.Equal(3, s.stockOf(item.ItemID))
}

func (s *InventoryServiceTestSuite) TestUpdateItem_QuantityChangeIsAdjustment() {
	item := s.createItem(s.accountID, "BLT-1", 5, "30.00")
	quantity := 2
	name := "Timing belt"

	updated, err := s.svc.Inventory.UpdateItem(s.ctx, s.accountID, item.ItemID, dto.UpdateItemRequest{
		Name:     &name,
		Quantity: &quantity,
	})
	s.Require().NoError(err)
	s.Equal("Timing belt", updated.Name)
	s.Equal(2, updated.Quantity)

	movements, err := s.svc.Inventory.ListMovements(s.ctx, s.accountID, dto.ListMovementsParams{ItemID: &item.ItemID})
	s.Require().NoError(err)
	s.Require().Len(movements, 2)
	s.Equal(domain.MovementOut, movements[0].Direction)
	s.Equal(3, movements[0].Quantity)
	s.Equal("manual quantity correction", movements[0].Description)
}

func (s *InventoryServiceTestSuite) TestListAlerts_LowestQuantityFirst() {
	minimum := 3
	_, err := s.svc.Inventory.CreateItem(s.ctx, s.accountID, dto.CreateItemRequest{
		Code: "LOW", Name: "Low", Quantity: 2, MinimumQuantity: &minimum,
	})
	s.Require().NoError(err)
	s.createItem(s.accountID, "EMPTY", 0, "5.00")
	s.createItem(s.accountID, "PLENTY", 50, "5.00")

	alerts, err := s.svc.Inventory.ListAlerts(s.ctx, s.accountID)
	s.Require().NoError(err)
	s.Require().Len(alerts, 2)
	s.Equal("EMPTY", alerts[0].Item.Code)
	s.Equal(domain.AlertCritical, alerts[0].Level)
	s.Equal("LOW", alerts[1].Item.Code)
	s.Equal(domain.AlertLow, alerts[1].Level)
}

func (s *InventoryServiceTestSuite) TestDeactivateItem_HiddenFromDefaultListing() {
	item := s.createItem(s.accountID, "OLD", 1, "5.00")
	s.Require().NoError(s.svc.Inventory.DeactivateItem(s.ctx, s.accountID, item.ItemID))

	items, err := s.svc.Inventory.ListItems(s.ctx, s.accountID, dto.ListItemsParams{})
	s.Require().NoError(err)
	s.Empty(items)

	items, err = s.svc.Inventory.ListItems(s.ctx, s.accountID, dto.ListItemsParams{IncludeInactive: true})
	s.Require().NoError(err)
	s.Len(items, 1)
}

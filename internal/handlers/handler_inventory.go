package handlers

import (
	"log/slog"
	"net/http"

	"github.com/SscSPs/workshop_backend/internal/core/domain"
	portssvc "github.com/SscSPs/workshop_backend/internal/core/ports/services"
	"github.com/SscSPs/workshop_backend/internal/dto"
	"github.com/SscSPs/workshop_backend/internal/middleware"
	"github.com/gin-gonic/gin"
)

// inventoryHandler handles stock items, movements and alerts.
type inventoryHandler struct {
	inventoryService portssvc.InventorySvcFacade
}

func newInventoryHandler(is portssvc.InventorySvcFacade) *inventoryHandler {
	return &inventoryHandler{inventoryService: is}
}

// registerInventoryRoutes registers routes related to the inventory ledger.
func registerInventoryRoutes(rg *gin.RouterGroup, inventoryService portssvc.InventorySvcFacade) {
	h := newInventoryHandler(inventoryService)

	inventory := rg.Group("/inventory")
	{
		items := inventory.Group("/items")
		items.POST("", h.createItem)
		items.GET("", h.listItems)
		items.GET("/:itemID", h.getItem)
		items.PUT("/:itemID", h.updateItem)
		items.DELETE("/:itemID", h.deactivateItem)

		inventory.POST("/movements", h.createMovement)
		inventory.GET("/movements", h.listMovements)
		inventory.GET("/alerts", h.listAlerts)
	}
}

// createItem godoc
// @Summary Create an inventory item
// @Description Creates a stock item. A positive initial quantity is recorded as a PURCHASE movement.
// @Tags inventory
// @Accept json
// @Produce json
// @Param item body dto.CreateItemRequest true "Item details"
// @Success 201 {object} dto.ItemResponse
// @Failure 400 {object} ErrorResponse
// @Failure 409 {object} ErrorResponse "Code already used"
// @Failure 500 {object} ErrorResponse
// @Security BearerAuth
// @Router /inventory/items [post]
func (h *inventoryHandler) createItem(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	var req dto.CreateItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request format", err)
		return
	}
	accountID, ok := requireAccountID(c)
	if !ok {
		return
	}

	item, err := h.inventoryService.CreateItem(c.Request.Context(), accountID, req)
	if err != nil {
		respondError(c, err, "Failed to create item")
		return
	}

	logger.Info("Inventory item created", slog.String("item_id", item.ItemID), slog.String("code", item.Code))
	c.JSON(http.StatusCreated, dto.ToItemResponse(item))
}

// listItems godoc
// @Summary List inventory items
// @Tags inventory
// @Produce json
// @Param includeInactive query bool false "Include deactivated items"
// @Success 200 {array} dto.ItemResponse
// @Failure 401 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Security BearerAuth
// @Router /inventory/items [get]
func (h *inventoryHandler) listItems(c *gin.Context) {
	var params dto.ListItemsParams
	if err := c.ShouldBindQuery(&params); err != nil {
		badRequest(c, "Invalid query parameters", err)
		return
	}
	accountID, ok := requireAccountID(c)
	if !ok {
		return
	}

	items, err := h.inventoryService.ListItems(c.Request.Context(), accountID, params)
	if err != nil {
		respondError(c, err, "Failed to list items")
		return
	}
	c.JSON(http.StatusOK, dto.ToListItemResponse(items))
}

// getItem godoc
// @Summary Get an inventory item
// @Tags inventory
// @Produce json
// @Param itemID path string true "Item ID"
// @Success 200 {object} dto.ItemResponse
// @Failure 403 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Security BearerAuth
// @Router /inventory/items/{itemID} [get]
func (h *inventoryHandler) getItem(c *gin.Context) {
	accountID, ok := requireAccountID(c)
	if !ok {
		return
	}
	item, err := h.inventoryService.GetItem(c.Request.Context(), accountID, c.Param("itemID"))
	if err != nil {
		respondError(c, err, "Failed to get item")
		return
	}
	c.JSON(http.StatusOK, dto.ToItemResponse(item))
}

// updateItem godoc
// @Summary Update an inventory item
// @Description Partial update. A changed quantity is recorded as an ADJUSTMENT movement.
// @Tags inventory
// @Accept json
// @Produce json
// @Param itemID path string true "Item ID"
// @Param item body dto.UpdateItemRequest true "Fields to change"
// @Success 200 {object} dto.ItemResponse
// @Failure 400 {object} ErrorResponse
// @Failure 403 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Failure 409 {object} ErrorResponse
// @Security BearerAuth
// @Router /inventory/items/{itemID} [put]
func (h *inventoryHandler) updateItem(c *gin.Context) {
	var req dto.UpdateItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request format", err)
		return
	}
	accountID, ok := requireAccountID(c)
	if !ok {
		return
	}

	item, err := h.inventoryService.UpdateItem(c.Request.Context(), accountID, c.Param("itemID"), req)
	if err != nil {
		respondError(c, err, "Failed to update item")
		return
	}
	c.JSON(http.StatusOK, dto.ToItemResponse(item))
}

// deactivateItem godoc
// @Summary Deactivate an inventory item
// @Tags inventory
// @Param itemID path string true "Item ID"
// @Success 204
// @Failure 403 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Security BearerAuth
// @Router /inventory/items/{itemID} [delete]
func (h *inventoryHandler) deactivateItem(c *gin.Context) {
	accountID, ok := requireAccountID(c)
	if !ok {
		return
	}
	if err := h.inventoryService.DeactivateItem(c.Request.Context(), accountID, c.Param("itemID")); err != nil {
		respondError(c, err, "Failed to deactivate item")
		return
	}
	c.Status(http.StatusNoContent)
}

// createMovement godoc
// @Summary Record a stock movement
// @Tags inventory
// @Accept json
// @Produce json
// @Param movement body dto.StockMovementRequest true "Movement"
// @Success 201 {object} dto.MovementResponse
// @Failure 400 {object} ErrorResponse
// @Failure 403 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Failure 422 {object} ErrorResponse "Insufficient stock"
// @Security BearerAuth
// @Router /inventory/movements [post]
func (h *inventoryHandler) createMovement(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	var req dto.StockMovementRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request format", err)
		return
	}
	accountID, ok := requireAccountID(c)
	if !ok {
		return
	}

	movement, err := h.inventoryService.AdjustQuantity(c.Request.Context(), domain.StockAdjustment{
		AccountID:   accountID,
		ItemID:      req.ItemID,
		Direction:   req.Direction,
		Quantity:    req.Quantity,
		Reason:      req.Reason,
		Description: req.Description,
		ActorID:     accountID,
	})
	if err != nil {
		respondError(c, err, "Failed to record movement")
		return
	}

	logger.Info("Stock movement recorded",
		slog.String("item_id", movement.ItemID),
		slog.String("direction", string(movement.Direction)),
		slog.Int("quantity_after", movement.QuantityAfter))
	c.JSON(http.StatusCreated, dto.ToMovementResponse(movement))
}

// listMovements godoc
// @Summary List stock movements, newest first
// @Tags inventory
// @Produce json
// @Param itemID query string false "Restrict to one item"
// @Param limit query int false "Max rows" default(50)
// @Success 200 {array} dto.MovementResponse
// @Failure 400 {object} ErrorResponse
// @Security BearerAuth
// @Router /inventory/movements [get]
func (h *inventoryHandler) listMovements(c *gin.Context) {
	var params dto.ListMovementsParams
	if err := c.ShouldBindQuery(&params); err != nil {
		badRequest(c, "Invalid query parameters", err)
		return
	}
	accountID, ok := requireAccountID(c)
	if !ok {
		return
	}

	movements, err := h.inventoryService.ListMovements(c.Request.Context(), accountID, params)
	if err != nil {
		respondError(c, err, "Failed to list movements")
		return
	}
	c.JSON(http.StatusOK, dto.ToListMovementResponse(movements))
}

// listAlerts godoc
// @Summary List low-stock alerts
// @Tags inventory
// @Produce json
// @Success 200 {array} dto.AlertResponse
// @Security BearerAuth
// @Router /inventory/alerts [get]
func (h *inventoryHandler) listAlerts(c *gin.Context) {
	accountID, ok := requireAccountID(c)
	if !ok {
		return
	}
	alerts, err := h.inventoryService.ListAlerts(c.Request.Context(), accountID)
	if err != nil {
		respondError(c, err, "Failed to list alerts")
		return
	}
	c.JSON(http.StatusOK, dto.ToListAlertResponse(alerts))
}

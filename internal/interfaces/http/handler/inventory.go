package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	inventoryapp "github.com/stockledger/backend/internal/application/inventory"
)

// InventoryHandler exposes item management, stock movements, and FIFO queries
type InventoryHandler struct {
	BaseHandler
	movements *inventoryapp.MovementService
}

// NewInventoryHandler creates a new InventoryHandler
func NewInventoryHandler(movements *inventoryapp.MovementService) *InventoryHandler {
	return &InventoryHandler{movements: movements}
}

// RegisterRoutes registers inventory routes
func (h *InventoryHandler) RegisterRoutes(rg *gin.RouterGroup) {
	group := rg.Group("/inventory")
	{
		group.POST("/items", h.CreateItem)
		group.GET("/items/:id", h.GetItem)
		group.GET("/items/:id/stock", h.GetStockLevel)
		group.GET("/items/:id/lots", h.ListOpenLots)
		group.GET("/items/:id/movements", h.ListMovements)
		group.POST("/items/:id/allocations/preview", h.PreviewAllocation)
		group.POST("/movements", h.RecordMovement)
		group.GET("/reorder-alerts", h.ListReorderAlerts)
	}
}

// CreateItem creates an inventory item
func (h *InventoryHandler) CreateItem(c *gin.Context) {
	var req inventoryapp.CreateItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindError(c, err)
		return
	}

	item, err := h.movements.CreateItem(c.Request.Context(), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, item)
}

// GetItem loads one item
func (h *InventoryHandler) GetItem(c *gin.Context) {
	itemID, ok := parseIDParam(c, "id")
	if !ok {
		h.BadRequest(c, "Invalid item ID")
		return
	}

	item, err := h.movements.GetItem(c.Request.Context(), itemID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, item)
}

// GetStockLevel returns the item's available quantity across open lots
func (h *InventoryHandler) GetStockLevel(c *gin.Context) {
	itemID, ok := parseIDParam(c, "id")
	if !ok {
		h.BadRequest(c, "Invalid item ID")
		return
	}

	level, err := h.movements.GetStockLevel(c.Request.Context(), itemID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, level)
}

// ListOpenLots returns the item's open lots in FIFO order
func (h *InventoryHandler) ListOpenLots(c *gin.Context) {
	itemID, ok := parseIDParam(c, "id")
	if !ok {
		h.BadRequest(c, "Invalid item ID")
		return
	}

	lots, err := h.movements.ListOpenLots(c.Request.Context(), itemID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, lots)
}

// ListMovements pages the item's movement history
func (h *InventoryHandler) ListMovements(c *gin.Context) {
	itemID, ok := parseIDParam(c, "id")
	if !ok {
		h.BadRequest(c, "Invalid item ID")
		return
	}
	filter, err := bindListFilter(c)
	if err != nil {
		h.BindError(c, err)
		return
	}

	movements, err := h.movements.ListMovements(c.Request.Context(), itemID, filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, movements)
}

type previewAllocationRequest struct {
	Quantity decimal.Decimal `json:"quantity" binding:"required"`
}

// PreviewAllocation runs a FIFO allocation without consuming any stock
func (h *InventoryHandler) PreviewAllocation(c *gin.Context) {
	itemID, ok := parseIDParam(c, "id")
	if !ok {
		h.BadRequest(c, "Invalid item ID")
		return
	}
	var req previewAllocationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindError(c, err)
		return
	}

	plan, err := h.movements.AllocateFifo(c.Request.Context(), itemID, req.Quantity)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, plan)
}

// RecordMovement records one stock movement and its costing side effects
func (h *InventoryHandler) RecordMovement(c *gin.Context) {
	var req inventoryapp.RecordMovementRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindError(c, err)
		return
	}

	result, err := h.movements.RecordMovement(c.Request.Context(), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, result)
}

// ListReorderAlerts pages items whose available stock fell below their
// reorder point.
func (h *InventoryHandler) ListReorderAlerts(c *gin.Context) {
	filter, err := bindListFilter(c)
	if err != nil {
		h.BindError(c, err)
		return
	}

	items, err := h.movements.ItemsBelowReorderPoint(c.Request.Context(), filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, items)
}

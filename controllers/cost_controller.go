package controllers

import (
	"context"
	"net/http"

	"cermont/models"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type CostUseCase interface {
	Add(ctx context.Context, orderID int, req models.CostItemRequest, meta models.RequestMeta) (*models.CostItem, error)
	List(ctx context.Context, orderID int) ([]models.CostItem, error)
	Delete(ctx context.Context, orderID, itemID int, meta models.RequestMeta) error
	Summary(ctx context.Context, orderID int) (*models.CostSummary, error)
}

type CostController struct {
	costs CostUseCase
	log   *zap.Logger
}

func NewCostController(costs CostUseCase, log *zap.Logger) *CostController {
	return &CostController{costs: costs, log: log}
}

// Add godoc
// @Summary Add cost item
// @Tags Costs
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Order ID"
// @Param request body models.CostItemRequest true "Cost item"
// @Success 201 {object} models.Response{data=models.CostItem}
// @Router /orders/{id}/costs [post]
func (ctrl *CostController) Add(c *gin.Context) {
	orderID, ok := paramID(c, "id")
	if !ok {
		return
	}

	var req models.CostItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	item, err := ctrl.costs.Add(c.Request.Context(), orderID, req, requestMeta(c))
	if err != nil {
		respondError(c, ctrl.log, "Failed to add cost item", err)
		return
	}
	respondOK(c, http.StatusCreated, "Cost item added", item)
}

// List godoc
// @Summary List cost items
// @Tags Costs
// @Produce json
// @Security BearerAuth
// @Param id path int true "Order ID"
// @Success 200 {object} models.Response{data=[]models.CostItem}
// @Router /orders/{id}/costs [get]
func (ctrl *CostController) List(c *gin.Context) {
	orderID, ok := paramID(c, "id")
	if !ok {
		return
	}

	items, err := ctrl.costs.List(c.Request.Context(), orderID)
	if err != nil {
		respondError(c, ctrl.log, "Failed to retrieve cost items", err)
		return
	}
	respondOK(c, http.StatusOK, "Cost items retrieved successfully", items)
}

// Delete godoc
// @Summary Delete cost item
// @Tags Costs
// @Produce json
// @Security BearerAuth
// @Param id path int true "Order ID"
// @Param itemId path int true "Cost item ID"
// @Success 200 {object} models.Response
// @Router /orders/{id}/costs/{itemId} [delete]
func (ctrl *CostController) Delete(c *gin.Context) {
	orderID, ok := paramID(c, "id")
	if !ok {
		return
	}
	itemID, ok := paramID(c, "itemId")
	if !ok {
		return
	}

	if err := ctrl.costs.Delete(c.Request.Context(), orderID, itemID, requestMeta(c)); err != nil {
		respondError(c, ctrl.log, "Failed to delete cost item", err)
		return
	}
	respondOK(c, http.StatusOK, "Cost item deleted", nil)
}

// Summary godoc
// @Summary Budget versus actual
// @Tags Costs
// @Produce json
// @Security BearerAuth
// @Param id path int true "Order ID"
// @Success 200 {object} models.Response{data=models.CostSummary}
// @Router /orders/{id}/costs/summary [get]
func (ctrl *CostController) Summary(c *gin.Context) {
	orderID, ok := paramID(c, "id")
	if !ok {
		return
	}

	summary, err := ctrl.costs.Summary(c.Request.Context(), orderID)
	if err != nil {
		respondError(c, ctrl.log, "Failed to compute cost summary", err)
		return
	}
	respondOK(c, http.StatusOK, "Cost summary computed", summary)
}

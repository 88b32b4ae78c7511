package controllers

import (
	"context"
	"net/http"

	"cermont/models"
	"cermont/utils"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type PortalUseCase interface {
	ListOrders(ctx context.Context, page, limit int, meta models.RequestMeta) ([]models.OrderProgress, int, error)
	GetOrder(ctx context.Context, orderID int, meta models.RequestMeta) (*models.OrderProgress, error)
}

// PortalController serves the read-only customer portal.
type PortalController struct {
	portal PortalUseCase
	log    *zap.Logger
}

func NewPortalController(portal PortalUseCase, log *zap.Logger) *PortalController {
	return &PortalController{portal: portal, log: log}
}

// ListOrders godoc
// @Summary Customer's orders
// @Tags Portal
// @Produce json
// @Security BearerAuth
// @Param page query int false "Page" default(1)
// @Param limit query int false "Limit" default(10)
// @Success 200 {object} models.HATEOASResponse
// @Router /portal/orders [get]
func (ctrl *PortalController) ListOrders(c *gin.Context) {
	page, limit := utils.GetPaginationParams(c, 10)

	orders, total, err := ctrl.portal.ListOrders(c.Request.Context(), page, limit, requestMeta(c))
	if err != nil {
		respondError(c, ctrl.log, "Failed to retrieve orders", err)
		return
	}

	c.JSON(http.StatusOK, utils.BuildPaginatedResponse(c, "Orders retrieved successfully", orders, page, limit, total))
}

// GetOrder godoc
// @Summary Customer's order detail
// @Tags Portal
// @Produce json
// @Security BearerAuth
// @Param id path int true "Order ID"
// @Success 200 {object} models.Response{data=models.OrderProgress}
// @Failure 404 {object} models.ErrorResponse
// @Router /portal/orders/{id} [get]
func (ctrl *PortalController) GetOrder(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}

	order, err := ctrl.portal.GetOrder(c.Request.Context(), id, requestMeta(c))
	if err != nil {
		respondError(c, ctrl.log, "Failed to retrieve order", err)
		return
	}

	respondOK(c, http.StatusOK, "Order retrieved successfully", order)
}

package controllers

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"cermont/models"
	"cermont/services"
	"cermont/utils"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type OrderUseCase interface {
	Create(ctx context.Context, req models.CreateOrderRequest, meta models.RequestMeta) (*models.Order, error)
	List(ctx context.Context, filter models.OrderFilter) ([]models.Order, int, error)
	ListArchived(ctx context.Context, filter models.OrderFilter) ([]models.Order, int, error)
	Get(ctx context.Context, id int) (*models.Order, error)
	Update(ctx context.Context, id int, req models.UpdateOrderRequest, meta models.RequestMeta) (*models.Order, error)
	Delete(ctx context.Context, id int, meta models.RequestMeta) error
	Transition(ctx context.Context, orderID int, req models.TransitionRequest, meta models.RequestMeta) (*models.Order, error)
	Assign(ctx context.Context, orderID, technicianID int, meta models.RequestMeta) (*models.Order, error)
	Archive(ctx context.Context, orderID int, reason string, meta models.RequestMeta) (*models.Order, error)
	Unarchive(ctx context.Context, orderID int, meta models.RequestMeta) (*models.Order, error)
	AutoArchive(ctx context.Context, days int) (int, error)
	History(ctx context.Context, orderID int) ([]models.AuditLog, error)
}

type OrderController struct {
	orders      OrderUseCase
	archiveDays int
	log         *zap.Logger
}

func NewOrderController(orders OrderUseCase, archiveDays int, log *zap.Logger) *OrderController {
	return &OrderController{orders: orders, archiveDays: archiveDays, log: log}
}

const dateLayout = "2006-01-02"

// parseOrderFilter reads the list filters shared by the order list and the CSV export.
func parseOrderFilter(c *gin.Context) (models.OrderFilter, error) {
	page, limit := utils.GetPaginationParams(c, 10)
	filter := models.OrderFilter{
		State:    models.OrderState(c.Query("state")),
		Priority: c.Query("priority"),
		Search:   c.Query("search"),
		Page:     page,
		Limit:    limit,
	}

	for name, dst := range map[string]*int{"responsible_id": &filter.ResponsibleID, "customer_id": &filter.CustomerID} {
		if raw := c.Query(name); raw != "" {
			v, err := strconv.Atoi(raw)
			if err != nil {
				return filter, fmt.Errorf("%s must be an integer", name)
			}
			*dst = v
		}
	}
	for name, dst := range map[string]**time.Time{"from": &filter.From, "to": &filter.To} {
		if raw := c.Query(name); raw != "" {
			t, err := time.Parse(dateLayout, raw)
			if err != nil {
				return filter, fmt.Errorf("%s must be a date (YYYY-MM-DD)", name)
			}
			*dst = &t
		}
	}
	if filter.To != nil {
		end := filter.To.AddDate(0, 0, 1)
		filter.To = &end
	}
	return filter, nil
}

func respondFilterError(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, models.ErrorResponse{
		Success: false,
		Message: "Invalid filter",
		Error:   err.Error(),
	})
}

// CreateOrder godoc
// @Summary Create order
// @Description New orders start in solicitud and get an OT-YYYY-NNNNN number
// @Tags Orders
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body models.CreateOrderRequest true "Order"
// @Success 201 {object} models.Response{data=models.Order}
// @Failure 400 {object} models.ErrorResponse
// @Router /orders [post]
func (ctrl *OrderController) CreateOrder(c *gin.Context) {
	var req models.CreateOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	order, err := ctrl.orders.Create(c.Request.Context(), req, requestMeta(c))
	if err != nil {
		respondError(c, ctrl.log, "Failed to create order", err)
		return
	}

	respondOK(c, http.StatusCreated, "Order created successfully", order)
}

// GetAllOrders godoc
// @Summary List orders
// @Tags Orders
// @Produce json
// @Security BearerAuth
// @Param state query string false "State"
// @Param priority query string false "Priority"
// @Param responsible_id query int false "Responsible technician"
// @Param customer_id query int false "Customer"
// @Param search query string false "Number, client or description"
// @Param from query string false "Created from (YYYY-MM-DD)"
// @Param to query string false "Created until (YYYY-MM-DD)"
// @Param page query int false "Page" default(1)
// @Param limit query int false "Limit" default(10)
// @Success 200 {object} models.HATEOASResponse
// @Router /orders [get]
func (ctrl *OrderController) GetAllOrders(c *gin.Context) {
	ctrl.list(c, false)
}

// GetArchivedOrders godoc
// @Summary List archived orders
// @Tags Orders
// @Produce json
// @Security BearerAuth
// @Param page query int false "Page" default(1)
// @Param limit query int false "Limit" default(10)
// @Success 200 {object} models.HATEOASResponse
// @Router /orders/archived [get]
func (ctrl *OrderController) GetArchivedOrders(c *gin.Context) {
	ctrl.list(c, true)
}

func (ctrl *OrderController) list(c *gin.Context, archived bool) {
	filter, err := parseOrderFilter(c)
	if err != nil {
		respondFilterError(c, err)
		return
	}

	var orders []models.Order
	var total int
	if archived {
		orders, total, err = ctrl.orders.ListArchived(c.Request.Context(), filter)
	} else {
		orders, total, err = ctrl.orders.List(c.Request.Context(), filter)
	}
	if err != nil {
		respondError(c, ctrl.log, "Failed to retrieve orders", err)
		return
	}

	c.JSON(http.StatusOK, utils.BuildPaginatedResponse(c, "Orders retrieved successfully", orders, filter.Page, filter.Limit, total))
}

// GetOrderByID godoc
// @Summary Get order
// @Tags Orders
// @Produce json
// @Security BearerAuth
// @Param id path int true "Order ID"
// @Success 200 {object} models.Response{data=models.Order}
// @Failure 404 {object} models.ErrorResponse
// @Router /orders/{id} [get]
func (ctrl *OrderController) GetOrderByID(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}

	order, err := ctrl.orders.Get(c.Request.Context(), id)
	if err != nil {
		respondError(c, ctrl.log, "Failed to retrieve order", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Order retrieved successfully",
		"data": gin.H{
			"order":          order,
			"progress":       services.Progress(order.State),
			"allowed_states": services.AllowedStates(order.State),
		},
	})
}

// UpdateOrder godoc
// @Summary Update order details
// @Tags Orders
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Order ID"
// @Param request body models.UpdateOrderRequest true "Fields to change"
// @Success 200 {object} models.Response{data=models.Order}
// @Router /orders/{id} [patch]
func (ctrl *OrderController) UpdateOrder(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}

	var req models.UpdateOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	order, err := ctrl.orders.Update(c.Request.Context(), id, req, requestMeta(c))
	if err != nil {
		respondError(c, ctrl.log, "Failed to update order", err)
		return
	}

	respondOK(c, http.StatusOK, "Order updated successfully", order)
}

// DeleteOrder godoc
// @Summary Delete order
// @Description Admin only. Only orders still in solicitud can be deleted
// @Tags Orders
// @Produce json
// @Security BearerAuth
// @Param id path int true "Order ID"
// @Success 200 {object} models.Response
// @Failure 409 {object} models.ErrorResponse
// @Router /orders/{id} [delete]
func (ctrl *OrderController) DeleteOrder(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}

	if err := ctrl.orders.Delete(c.Request.Context(), id, requestMeta(c)); err != nil {
		respondError(c, ctrl.log, "Failed to delete order", err)
		return
	}

	respondOK(c, http.StatusOK, "Order deleted successfully", nil)
}

// UpdateOrderState godoc
// @Summary Change order state
// @Tags Orders
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Order ID"
// @Param request body models.TransitionRequest true "Target state"
// @Success 200 {object} models.Response{data=models.Order}
// @Failure 400 {object} models.ErrorResponse
// @Failure 409 {object} models.ErrorResponse
// @Router /orders/{id}/state [patch]
func (ctrl *OrderController) UpdateOrderState(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}

	var req models.TransitionRequest
	if err := c.ShouldBind(&req); err != nil {
		respondBindError(c, err)
		return
	}

	order, err := ctrl.orders.Transition(c.Request.Context(), id, req, requestMeta(c))
	if err != nil {
		respondError(c, ctrl.log, "Failed to change order state", err)
		return
	}

	respondOK(c, http.StatusOK, "Order state updated successfully", order)
}

// AssignOrder godoc
// @Summary Assign technician
// @Tags Orders
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Order ID"
// @Param request body models.AssignRequest true "Technician"
// @Success 200 {object} models.Response{data=models.Order}
// @Router /orders/{id}/assign [post]
func (ctrl *OrderController) AssignOrder(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}

	var req models.AssignRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	order, err := ctrl.orders.Assign(c.Request.Context(), id, req.TechnicianID, requestMeta(c))
	if err != nil {
		respondError(c, ctrl.log, "Failed to assign order", err)
		return
	}

	respondOK(c, http.StatusOK, "Order assigned successfully", order)
}

// ArchiveOrder godoc
// @Summary Archive a paid order
// @Tags Orders
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Order ID"
// @Param request body models.ArchiveRequest false "Reason"
// @Success 200 {object} models.Response{data=models.Order}
// @Failure 409 {object} models.ErrorResponse
// @Router /orders/{id}/archive [post]
func (ctrl *OrderController) ArchiveOrder(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}

	var req models.ArchiveRequest
	_ = c.ShouldBindJSON(&req)

	order, err := ctrl.orders.Archive(c.Request.Context(), id, req.Reason, requestMeta(c))
	if err != nil {
		respondError(c, ctrl.log, "Failed to archive order", err)
		return
	}

	respondOK(c, http.StatusOK, "Order archived successfully", order)
}

// UnarchiveOrder godoc
// @Summary Restore an archived order
// @Tags Orders
// @Produce json
// @Security BearerAuth
// @Param id path int true "Order ID"
// @Success 200 {object} models.Response{data=models.Order}
// @Router /orders/{id}/unarchive [post]
func (ctrl *OrderController) UnarchiveOrder(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}

	order, err := ctrl.orders.Unarchive(c.Request.Context(), id, requestMeta(c))
	if err != nil {
		respondError(c, ctrl.log, "Failed to unarchive order", err)
		return
	}

	respondOK(c, http.StatusOK, "Order unarchived successfully", order)
}

// AutoArchive godoc
// @Summary Archive old paid orders
// @Tags Orders
// @Produce json
// @Security BearerAuth
// @Param days query int false "Minimum days since completion"
// @Success 200 {object} models.Response
// @Router /orders/auto-archive [post]
func (ctrl *OrderController) AutoArchive(c *gin.Context) {
	days := ctrl.archiveDays
	if raw := c.Query("days"); raw != "" {
		v, err := strconv.Atoi(raw)
		if err != nil || v < 1 {
			respondFilterError(c, fmt.Errorf("days must be a positive integer"))
			return
		}
		days = v
	}

	count, err := ctrl.orders.AutoArchive(c.Request.Context(), days)
	if err != nil {
		respondError(c, ctrl.log, "Failed to archive orders", err)
		return
	}

	respondOK(c, http.StatusOK, fmt.Sprintf("%d orders archived", count), gin.H{"archived": count, "days": days})
}

// GetOrderHistory godoc
// @Summary Order audit history
// @Tags Orders
// @Produce json
// @Security BearerAuth
// @Param id path int true "Order ID"
// @Success 200 {object} models.Response{data=[]models.AuditLog}
// @Router /orders/{id}/history [get]
func (ctrl *OrderController) GetOrderHistory(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}

	history, err := ctrl.orders.History(c.Request.Context(), id)
	if err != nil {
		respondError(c, ctrl.log, "Failed to retrieve history", err)
		return
	}

	respondOK(c, http.StatusOK, "History retrieved successfully", history)
}

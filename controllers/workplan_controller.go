package controllers

import (
	"context"
	"net/http"

	"cermont/models"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type WorkPlanUseCase interface {
	Create(ctx context.Context, orderID int, req models.WorkPlanRequest, meta models.RequestMeta) (*models.WorkPlan, error)
	GetByOrder(ctx context.Context, orderID int) (*models.WorkPlan, error)
	Update(ctx context.Context, orderID int, req models.WorkPlanRequest, meta models.RequestMeta) (*models.WorkPlan, error)
	Approve(ctx context.Context, orderID int, meta models.RequestMeta) (*models.WorkPlan, error)
	Reject(ctx context.Context, orderID int, reason string, meta models.RequestMeta) (*models.WorkPlan, error)
}

type WorkPlanController struct {
	plans WorkPlanUseCase
	log   *zap.Logger
}

func NewWorkPlanController(plans WorkPlanUseCase, log *zap.Logger) *WorkPlanController {
	return &WorkPlanController{plans: plans, log: log}
}

// Create godoc
// @Summary Create work plan
// @Description The order must be in po or planeacion. Budget is computed from materials and labor.
// @Tags WorkPlans
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Order ID"
// @Param request body models.WorkPlanRequest true "Plan"
// @Success 201 {object} models.Response{data=models.WorkPlan}
// @Router /orders/{id}/workplan [post]
func (ctrl *WorkPlanController) Create(c *gin.Context) {
	orderID, ok := paramID(c, "id")
	if !ok {
		return
	}

	var req models.WorkPlanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	plan, err := ctrl.plans.Create(c.Request.Context(), orderID, req, requestMeta(c))
	if err != nil {
		respondError(c, ctrl.log, "Failed to create work plan", err)
		return
	}

	respondOK(c, http.StatusCreated, "Work plan created successfully", plan)
}

// Get godoc
// @Summary Get the order's work plan
// @Tags WorkPlans
// @Produce json
// @Security BearerAuth
// @Param id path int true "Order ID"
// @Success 200 {object} models.Response{data=models.WorkPlan}
// @Router /orders/{id}/workplan [get]
func (ctrl *WorkPlanController) Get(c *gin.Context) {
	orderID, ok := paramID(c, "id")
	if !ok {
		return
	}

	plan, err := ctrl.plans.GetByOrder(c.Request.Context(), orderID)
	if err != nil {
		respondError(c, ctrl.log, "Failed to retrieve work plan", err)
		return
	}

	respondOK(c, http.StatusOK, "Work plan retrieved successfully", plan)
}

// Update godoc
// @Summary Update work plan
// @Description Approved plans are read-only; editing a rejected plan sends it back to borrador
// @Tags WorkPlans
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Order ID"
// @Param request body models.WorkPlanRequest true "Plan"
// @Success 200 {object} models.Response{data=models.WorkPlan}
// @Router /orders/{id}/workplan [put]
func (ctrl *WorkPlanController) Update(c *gin.Context) {
	orderID, ok := paramID(c, "id")
	if !ok {
		return
	}

	var req models.WorkPlanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	plan, err := ctrl.plans.Update(c.Request.Context(), orderID, req, requestMeta(c))
	if err != nil {
		respondError(c, ctrl.log, "Failed to update work plan", err)
		return
	}

	respondOK(c, http.StatusOK, "Work plan updated successfully", plan)
}

// Approve godoc
// @Summary Approve work plan
// @Tags WorkPlans
// @Produce json
// @Security BearerAuth
// @Param id path int true "Order ID"
// @Success 200 {object} models.Response{data=models.WorkPlan}
// @Router /orders/{id}/workplan/approve [post]
func (ctrl *WorkPlanController) Approve(c *gin.Context) {
	orderID, ok := paramID(c, "id")
	if !ok {
		return
	}

	plan, err := ctrl.plans.Approve(c.Request.Context(), orderID, requestMeta(c))
	if err != nil {
		respondError(c, ctrl.log, "Failed to approve work plan", err)
		return
	}

	respondOK(c, http.StatusOK, "Work plan approved", plan)
}

// Reject godoc
// @Summary Reject work plan
// @Tags WorkPlans
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Order ID"
// @Param request body models.RejectRequest true "Reason"
// @Success 200 {object} models.Response{data=models.WorkPlan}
// @Router /orders/{id}/workplan/reject [post]
func (ctrl *WorkPlanController) Reject(c *gin.Context) {
	orderID, ok := paramID(c, "id")
	if !ok {
		return
	}

	var req models.RejectRequest
	if err := c.ShouldBind(&req); err != nil {
		respondBindError(c, err)
		return
	}

	plan, err := ctrl.plans.Reject(c.Request.Context(), orderID, req.Reason, requestMeta(c))
	if err != nil {
		respondError(c, ctrl.log, "Failed to reject work plan", err)
		return
	}

	respondOK(c, http.StatusOK, "Work plan rejected", plan)
}

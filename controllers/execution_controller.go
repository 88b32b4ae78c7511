package controllers

import (
	"context"
	"net/http"

	"cermont/models"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type ExecutionUseCase interface {
	Start(ctx context.Context, orderID int, req models.StartExecutionRequest, meta models.RequestMeta) (*models.Execution, error)
	GetByOrder(ctx context.Context, orderID int) (*models.Execution, error)
	Pause(ctx context.Context, orderID int, reason string, meta models.RequestMeta) (*models.Execution, error)
	Resume(ctx context.Context, orderID int, req models.ResumeRequest, meta models.RequestMeta) (*models.Execution, error)
	UpdateProgress(ctx context.Context, orderID int, req models.ProgressRequest, meta models.RequestMeta) (*models.Execution, error)
	AddTask(ctx context.Context, orderID int, description string, meta models.RequestMeta) (*models.Execution, error)
	ToggleTask(ctx context.Context, orderID, taskID int, meta models.RequestMeta) (*models.Execution, error)
	Complete(ctx context.Context, orderID int, notes string, meta models.RequestMeta) (*models.Execution, error)
}

type ExecutionController struct {
	executions ExecutionUseCase
	log        *zap.Logger
}

func NewExecutionController(executions ExecutionUseCase, log *zap.Logger) *ExecutionController {
	return &ExecutionController{executions: executions, log: log}
}

func (ctrl *ExecutionController) respond(c *gin.Context, message, failure string, execution *models.Execution, err error, status int) {
	if err != nil {
		respondError(c, ctrl.log, failure, err)
		return
	}
	respondOK(c, status, message, execution)
}

// Start godoc
// @Summary Start execution
// @Description Requires the order in ejecucion with an approved work plan
// @Tags Executions
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Order ID"
// @Param request body models.StartExecutionRequest false "Start data"
// @Success 201 {object} models.Response{data=models.Execution}
// @Failure 409 {object} models.ErrorResponse
// @Router /orders/{id}/execution/start [post]
func (ctrl *ExecutionController) Start(c *gin.Context) {
	orderID, ok := paramID(c, "id")
	if !ok {
		return
	}

	var req models.StartExecutionRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			respondBindError(c, err)
			return
		}
	}

	execution, err := ctrl.executions.Start(c.Request.Context(), orderID, req, requestMeta(c))
	ctrl.respond(c, "Execution started", "Failed to start execution", execution, err, http.StatusCreated)
}

// Get godoc
// @Summary Get the order's execution
// @Tags Executions
// @Produce json
// @Security BearerAuth
// @Param id path int true "Order ID"
// @Success 200 {object} models.Response{data=models.Execution}
// @Router /orders/{id}/execution [get]
func (ctrl *ExecutionController) Get(c *gin.Context) {
	orderID, ok := paramID(c, "id")
	if !ok {
		return
	}

	execution, err := ctrl.executions.GetByOrder(c.Request.Context(), orderID)
	ctrl.respond(c, "Execution retrieved successfully", "Failed to retrieve execution", execution, err, http.StatusOK)
}

// Pause godoc
// @Summary Pause execution
// @Tags Executions
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Order ID"
// @Param request body models.PauseRequest true "Reason"
// @Success 200 {object} models.Response{data=models.Execution}
// @Router /orders/{id}/execution/pause [post]
func (ctrl *ExecutionController) Pause(c *gin.Context) {
	orderID, ok := paramID(c, "id")
	if !ok {
		return
	}

	var req models.PauseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	execution, err := ctrl.executions.Pause(c.Request.Context(), orderID, req.Reason, requestMeta(c))
	ctrl.respond(c, "Execution paused", "Failed to pause execution", execution, err, http.StatusOK)
}

// Resume godoc
// @Summary Resume execution
// @Tags Executions
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Order ID"
// @Param request body models.ResumeRequest false "Location"
// @Success 200 {object} models.Response{data=models.Execution}
// @Router /orders/{id}/execution/resume [post]
func (ctrl *ExecutionController) Resume(c *gin.Context) {
	orderID, ok := paramID(c, "id")
	if !ok {
		return
	}

	var req models.ResumeRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			respondBindError(c, err)
			return
		}
	}

	execution, err := ctrl.executions.Resume(c.Request.Context(), orderID, req, requestMeta(c))
	ctrl.respond(c, "Execution resumed", "Failed to resume execution", execution, err, http.StatusOK)
}

// UpdateProgress godoc
// @Summary Update execution progress
// @Tags Executions
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Order ID"
// @Param request body models.ProgressRequest true "Progress 0-100"
// @Success 200 {object} models.Response{data=models.Execution}
// @Router /orders/{id}/execution/progress [patch]
func (ctrl *ExecutionController) UpdateProgress(c *gin.Context) {
	orderID, ok := paramID(c, "id")
	if !ok {
		return
	}

	var req models.ProgressRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	execution, err := ctrl.executions.UpdateProgress(c.Request.Context(), orderID, req, requestMeta(c))
	ctrl.respond(c, "Progress updated", "Failed to update progress", execution, err, http.StatusOK)
}

// AddTask godoc
// @Summary Add task
// @Tags Executions
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Order ID"
// @Param request body models.TaskRequest true "Task"
// @Success 201 {object} models.Response{data=models.Execution}
// @Router /orders/{id}/execution/tasks [post]
func (ctrl *ExecutionController) AddTask(c *gin.Context) {
	orderID, ok := paramID(c, "id")
	if !ok {
		return
	}

	var req models.TaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	execution, err := ctrl.executions.AddTask(c.Request.Context(), orderID, req.Description, requestMeta(c))
	ctrl.respond(c, "Task added", "Failed to add task", execution, err, http.StatusCreated)
}

// ToggleTask godoc
// @Summary Toggle task completion
// @Tags Executions
// @Produce json
// @Security BearerAuth
// @Param id path int true "Order ID"
// @Param taskId path int true "Task ID"
// @Success 200 {object} models.Response{data=models.Execution}
// @Router /orders/{id}/execution/tasks/{taskId}/toggle [patch]
func (ctrl *ExecutionController) ToggleTask(c *gin.Context) {
	orderID, ok := paramID(c, "id")
	if !ok {
		return
	}
	taskID, ok := paramID(c, "taskId")
	if !ok {
		return
	}

	execution, err := ctrl.executions.ToggleTask(c.Request.Context(), orderID, taskID, requestMeta(c))
	ctrl.respond(c, "Task updated", "Failed to update task", execution, err, http.StatusOK)
}

// Complete godoc
// @Summary Complete execution
// @Description Fails while any task is pending
// @Tags Executions
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Order ID"
// @Param request body models.CompleteExecutionRequest false "Closing notes"
// @Success 200 {object} models.Response{data=models.Execution}
// @Failure 409 {object} models.ErrorResponse
// @Router /orders/{id}/execution/complete [post]
func (ctrl *ExecutionController) Complete(c *gin.Context) {
	orderID, ok := paramID(c, "id")
	if !ok {
		return
	}

	var req models.CompleteExecutionRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			respondBindError(c, err)
			return
		}
	}

	execution, err := ctrl.executions.Complete(c.Request.Context(), orderID, req.Notes, requestMeta(c))
	ctrl.respond(c, "Execution completed", "Failed to complete execution", execution, err, http.StatusOK)
}

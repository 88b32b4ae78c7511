package controllers

import (
	"context"
	"net/http"

	"cermont/models"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type ChecklistUseCase interface {
	ListTemplates(ctx context.Context) ([]models.ChecklistTemplate, error)
	Attach(ctx context.Context, executionID, templateID int, meta models.RequestMeta) (*models.Checklist, error)
	ListByExecution(ctx context.Context, executionID int) ([]models.Checklist, error)
	Get(ctx context.Context, id int) (*models.Checklist, error)
	RecordAnswers(ctx context.Context, id int, answers map[string]interface{}, meta models.RequestMeta) (*models.Checklist, error)
	Complete(ctx context.Context, id int, meta models.RequestMeta) (*models.Checklist, error)
}

type ChecklistController struct {
	checklists ChecklistUseCase
	log        *zap.Logger
}

func NewChecklistController(checklists ChecklistUseCase, log *zap.Logger) *ChecklistController {
	return &ChecklistController{checklists: checklists, log: log}
}

// ListTemplates godoc
// @Summary List checklist templates
// @Tags Checklists
// @Produce json
// @Security BearerAuth
// @Success 200 {object} models.Response{data=[]models.ChecklistTemplate}
// @Router /checklists/templates [get]
func (ctrl *ChecklistController) ListTemplates(c *gin.Context) {
	templates, err := ctrl.checklists.ListTemplates(c.Request.Context())
	if err != nil {
		respondError(c, ctrl.log, "Failed to retrieve templates", err)
		return
	}
	respondOK(c, http.StatusOK, "Templates retrieved successfully", templates)
}

// Attach godoc
// @Summary Attach a checklist to an execution
// @Tags Checklists
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Execution ID"
// @Param request body models.AttachChecklistRequest true "Template"
// @Success 201 {object} models.Response{data=models.Checklist}
// @Router /executions/{id}/checklists [post]
func (ctrl *ChecklistController) Attach(c *gin.Context) {
	executionID, ok := paramID(c, "id")
	if !ok {
		return
	}

	var req models.AttachChecklistRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	checklist, err := ctrl.checklists.Attach(c.Request.Context(), executionID, req.TemplateID, requestMeta(c))
	if err != nil {
		respondError(c, ctrl.log, "Failed to attach checklist", err)
		return
	}
	respondOK(c, http.StatusCreated, "Checklist attached", checklist)
}

// ListByExecution godoc
// @Summary List an execution's checklists
// @Tags Checklists
// @Produce json
// @Security BearerAuth
// @Param id path int true "Execution ID"
// @Success 200 {object} models.Response{data=[]models.Checklist}
// @Router /executions/{id}/checklists [get]
func (ctrl *ChecklistController) ListByExecution(c *gin.Context) {
	executionID, ok := paramID(c, "id")
	if !ok {
		return
	}

	checklists, err := ctrl.checklists.ListByExecution(c.Request.Context(), executionID)
	if err != nil {
		respondError(c, ctrl.log, "Failed to retrieve checklists", err)
		return
	}
	respondOK(c, http.StatusOK, "Checklists retrieved successfully", checklists)
}

// Get godoc
// @Summary Get checklist
// @Tags Checklists
// @Produce json
// @Security BearerAuth
// @Param id path int true "Checklist ID"
// @Success 200 {object} models.Response{data=models.Checklist}
// @Router /checklists/{id} [get]
func (ctrl *ChecklistController) Get(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}

	checklist, err := ctrl.checklists.Get(c.Request.Context(), id)
	if err != nil {
		respondError(c, ctrl.log, "Failed to retrieve checklist", err)
		return
	}
	respondOK(c, http.StatusOK, "Checklist retrieved successfully", checklist)
}

// RecordAnswers godoc
// @Summary Record checklist answers
// @Description Calculated items are evaluated once their inputs are answered; null clears an answer
// @Tags Checklists
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Checklist ID"
// @Param request body models.ChecklistAnswersRequest true "Answers by item key"
// @Success 200 {object} models.Response{data=models.Checklist}
// @Router /checklists/{id}/answers [patch]
func (ctrl *ChecklistController) RecordAnswers(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}

	var req models.ChecklistAnswersRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	checklist, err := ctrl.checklists.RecordAnswers(c.Request.Context(), id, req.Answers, requestMeta(c))
	if err != nil {
		respondError(c, ctrl.log, "Failed to record answers", err)
		return
	}
	respondOK(c, http.StatusOK, "Answers recorded", checklist)
}

// Complete godoc
// @Summary Complete checklist
// @Tags Checklists
// @Produce json
// @Security BearerAuth
// @Param id path int true "Checklist ID"
// @Success 200 {object} models.Response{data=models.Checklist}
// @Failure 400 {object} models.ErrorResponse
// @Router /checklists/{id}/complete [post]
func (ctrl *ChecklistController) Complete(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}

	checklist, err := ctrl.checklists.Complete(c.Request.Context(), id, requestMeta(c))
	if err != nil {
		respondError(c, ctrl.log, "Failed to complete checklist", err)
		return
	}
	respondOK(c, http.StatusOK, "Checklist completed", checklist)
}

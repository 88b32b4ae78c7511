package controllers

import (
	"context"
	"net/http"

	"cermont/models"
	"cermont/utils"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type AuditUseCase interface {
	History(ctx context.Context, entityType string, entityID int) ([]models.AuditLog, error)
	List(ctx context.Context, entityType string, page, limit int) ([]models.AuditLog, int, error)
}

type AuditController struct {
	audit AuditUseCase
	log   *zap.Logger
}

func NewAuditController(audit AuditUseCase, log *zap.Logger) *AuditController {
	return &AuditController{audit: audit, log: log}
}

// List godoc
// @Summary List audit entries
// @Tags Audit
// @Produce json
// @Security BearerAuth
// @Param entity query string false "Entity type"
// @Param page query int false "Page" default(1)
// @Param limit query int false "Limit" default(20)
// @Success 200 {object} models.HATEOASResponse
// @Router /audit [get]
func (ctrl *AuditController) List(c *gin.Context) {
	page, limit := utils.GetPaginationParams(c, 20)

	entries, total, err := ctrl.audit.List(c.Request.Context(), c.Query("entity"), page, limit)
	if err != nil {
		respondError(c, ctrl.log, "Failed to retrieve audit log", err)
		return
	}

	c.JSON(http.StatusOK, utils.BuildPaginatedResponse(c, "Audit log retrieved successfully", entries, page, limit, total))
}

// ByEntity godoc
// @Summary Audit entries of one entity
// @Tags Audit
// @Produce json
// @Security BearerAuth
// @Param entity path string true "Entity type"
// @Param id path int true "Entity ID"
// @Success 200 {object} models.Response{data=[]models.AuditLog}
// @Router /audit/{entity}/{id} [get]
func (ctrl *AuditController) ByEntity(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}

	entries, err := ctrl.audit.History(c.Request.Context(), c.Param("entity"), id)
	if err != nil {
		respondError(c, ctrl.log, "Failed to retrieve audit log", err)
		return
	}

	respondOK(c, http.StatusOK, "Audit log retrieved successfully", entries)
}

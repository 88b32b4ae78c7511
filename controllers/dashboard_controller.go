package controllers

import (
	"context"
	"net/http"

	"cermont/models"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type DashboardUseCase interface {
	Overview(ctx context.Context) (*models.KPIOverview, error)
	Refresh(ctx context.Context) (*models.KPIOverview, error)
	Workload(ctx context.Context) ([]models.Workload, error)
}

type DashboardController struct {
	dashboard DashboardUseCase
	log       *zap.Logger
}

func NewDashboardController(dashboard DashboardUseCase, log *zap.Logger) *DashboardController {
	return &DashboardController{dashboard: dashboard, log: log}
}

// GetDashboard godoc
// @Summary KPI overview
// @Description Served from cache for a few minutes
// @Tags Dashboard
// @Produce json
// @Security BearerAuth
// @Success 200 {object} models.Response{data=models.KPIOverview}
// @Router /dashboard [get]
func (ctrl *DashboardController) GetDashboard(c *gin.Context) {
	overview, err := ctrl.dashboard.Overview(c.Request.Context())
	if err != nil {
		respondError(c, ctrl.log, "Failed to get dashboard data", err)
		return
	}
	respondOK(c, http.StatusOK, "Dashboard data retrieved successfully", overview)
}

// RefreshDashboard godoc
// @Summary Recompute KPIs
// @Tags Dashboard
// @Produce json
// @Security BearerAuth
// @Success 200 {object} models.Response{data=models.KPIOverview}
// @Router /dashboard/refresh [post]
func (ctrl *DashboardController) RefreshDashboard(c *gin.Context) {
	overview, err := ctrl.dashboard.Refresh(c.Request.Context())
	if err != nil {
		respondError(c, ctrl.log, "Failed to refresh dashboard", err)
		return
	}
	respondOK(c, http.StatusOK, "Dashboard refreshed", overview)
}

// GetWorkload godoc
// @Summary Active orders per technician
// @Tags Dashboard
// @Produce json
// @Security BearerAuth
// @Success 200 {object} models.Response{data=[]models.Workload}
// @Router /dashboard/workload [get]
func (ctrl *DashboardController) GetWorkload(c *gin.Context) {
	workload, err := ctrl.dashboard.Workload(c.Request.Context())
	if err != nil {
		respondError(c, ctrl.log, "Failed to get workload", err)
		return
	}
	respondOK(c, http.StatusOK, "Workload retrieved successfully", workload)
}

package controllers

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"cermont/models"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type ReportUseCase interface {
	OrderReport(ctx context.Context, orderID int) (*models.OrderReport, error)
	ExportOrdersCSV(ctx context.Context, filter models.OrderFilter, w io.Writer) (int, error)
}

type ReportController struct {
	reports ReportUseCase
	log     *zap.Logger
	now     func() time.Time
}

func NewReportController(reports ReportUseCase, log *zap.Logger) *ReportController {
	return &ReportController{reports: reports, log: log, now: time.Now}
}

// OrderReport godoc
// @Summary Order report
// @Tags Reports
// @Produce json
// @Security BearerAuth
// @Param id path int true "Order ID"
// @Success 200 {object} models.Response{data=models.OrderReport}
// @Router /reports/orders/{id} [get]
func (ctrl *ReportController) OrderReport(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}

	report, err := ctrl.reports.OrderReport(c.Request.Context(), id)
	if err != nil {
		respondError(c, ctrl.log, "Failed to build report", err)
		return
	}
	respondOK(c, http.StatusOK, "Report generated successfully", report)
}

// ExportOrders godoc
// @Summary Export orders as CSV
// @Description Accepts the same filters as the order list; paging is ignored
// @Tags Reports
// @Produce text/csv
// @Security BearerAuth
// @Param state query string false "State"
// @Param priority query string false "Priority"
// @Param from query string false "Created from (YYYY-MM-DD)"
// @Param to query string false "Created until (YYYY-MM-DD)"
// @Success 200 {file} file
// @Router /reports/orders.csv [get]
func (ctrl *ReportController) ExportOrders(c *gin.Context) {
	filter, err := parseOrderFilter(c)
	if err != nil {
		respondFilterError(c, err)
		return
	}

	var buf bytes.Buffer
	count, err := ctrl.reports.ExportOrdersCSV(c.Request.Context(), filter, &buf)
	if err != nil {
		respondError(c, ctrl.log, "Failed to export orders", err)
		return
	}

	filename := fmt.Sprintf("ordenes-%s.csv", ctrl.now().Format("20060102"))
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	c.Header("X-Total-Count", strconv.Itoa(count))
	c.Data(http.StatusOK, "text/csv; charset=utf-8", buf.Bytes())
}

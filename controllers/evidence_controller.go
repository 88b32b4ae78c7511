package controllers

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"cermont/models"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type EvidenceUseCase interface {
	Upload(ctx context.Context, in models.UploadEvidenceInput, file io.Reader, meta models.RequestMeta) (*models.Evidence, error)
	Get(ctx context.Context, id int) (*models.Evidence, error)
	ListByOrder(ctx context.Context, orderID int, filter models.EvidenceFilter) ([]models.Evidence, error)
	Approve(ctx context.Context, id int, meta models.RequestMeta) (*models.Evidence, error)
	Reject(ctx context.Context, id int, reason string, meta models.RequestMeta) (*models.Evidence, error)
	Delete(ctx context.Context, id int, meta models.RequestMeta) error
}

type EvidenceController struct {
	evidence EvidenceUseCase
	log      *zap.Logger
}

func NewEvidenceController(evidence EvidenceUseCase, log *zap.Logger) *EvidenceController {
	return &EvidenceController{evidence: evidence, log: log}
}

func optionalFloatForm(c *gin.Context, name string) (*float64, error) {
	raw := strings.TrimSpace(c.PostForm(name))
	if raw == "" {
		return nil, nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return nil, fmt.Errorf("%s must be a number", name)
	}
	return &v, nil
}

// Upload godoc
// @Summary Upload evidence
// @Description Allowed extensions, size and sniffed content type depend on the evidence type
// @Tags Evidence
// @Accept multipart/form-data
// @Produce json
// @Security BearerAuth
// @Param id path int true "Order ID"
// @Param file formData file true "Evidence file"
// @Param type formData string true "FOTO, VIDEO, DOCUMENTO or AUDIO"
// @Param execution_id formData int false "Execution ID"
// @Param latitude formData number false "Latitude"
// @Param longitude formData number false "Longitude"
// @Param description formData string false "Description"
// @Success 201 {object} models.Response{data=models.Evidence}
// @Failure 400 {object} models.ErrorResponse
// @Router /orders/{id}/evidence [post]
func (ctrl *EvidenceController) Upload(c *gin.Context) {
	orderID, ok := paramID(c, "id")
	if !ok {
		return
	}

	header, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Success: false, Message: "File is required", Error: err.Error()})
		return
	}

	in := models.UploadEvidenceInput{
		OrderID:     orderID,
		Type:        strings.ToUpper(strings.TrimSpace(c.PostForm("type"))),
		FileName:    header.Filename,
		Size:        header.Size,
		Description: c.PostForm("description"),
	}
	if raw := c.PostForm("execution_id"); raw != "" {
		id, err := strconv.Atoi(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, models.ErrorResponse{Success: false, Message: "Invalid form", Error: "execution_id must be an integer"})
			return
		}
		in.ExecutionID = &id
	}
	if in.Latitude, err = optionalFloatForm(c, "latitude"); err == nil {
		in.Longitude, err = optionalFloatForm(c, "longitude")
	}
	if err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Success: false, Message: "Invalid form", Error: err.Error()})
		return
	}

	file, err := header.Open()
	if err != nil {
		respondError(c, ctrl.log, "Failed to read upload", err)
		return
	}
	defer file.Close()

	evidence, err := ctrl.evidence.Upload(c.Request.Context(), in, file, requestMeta(c))
	if err != nil {
		respondError(c, ctrl.log, "Failed to upload evidence", err)
		return
	}

	respondOK(c, http.StatusCreated, "Evidence uploaded successfully", evidence)
}

// ListByOrder godoc
// @Summary List an order's evidence
// @Tags Evidence
// @Produce json
// @Security BearerAuth
// @Param id path int true "Order ID"
// @Param status query string false "pendiente, aprobada or rechazada"
// @Param type query string false "Evidence type"
// @Success 200 {object} models.Response{data=[]models.Evidence}
// @Router /orders/{id}/evidence [get]
func (ctrl *EvidenceController) ListByOrder(c *gin.Context) {
	orderID, ok := paramID(c, "id")
	if !ok {
		return
	}

	filter := models.EvidenceFilter{
		Status: c.Query("status"),
		Type:   strings.ToUpper(c.Query("type")),
	}
	items, err := ctrl.evidence.ListByOrder(c.Request.Context(), orderID, filter)
	if err != nil {
		respondError(c, ctrl.log, "Failed to retrieve evidence", err)
		return
	}

	respondOK(c, http.StatusOK, "Evidence retrieved successfully", items)
}

// Get godoc
// @Summary Get evidence
// @Tags Evidence
// @Produce json
// @Security BearerAuth
// @Param id path int true "Evidence ID"
// @Success 200 {object} models.Response{data=models.Evidence}
// @Router /evidence/{id} [get]
func (ctrl *EvidenceController) Get(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}

	evidence, err := ctrl.evidence.Get(c.Request.Context(), id)
	if err != nil {
		respondError(c, ctrl.log, "Failed to retrieve evidence", err)
		return
	}

	respondOK(c, http.StatusOK, "Evidence retrieved successfully", evidence)
}

// Approve godoc
// @Summary Approve evidence
// @Tags Evidence
// @Produce json
// @Security BearerAuth
// @Param id path int true "Evidence ID"
// @Success 200 {object} models.Response{data=models.Evidence}
// @Failure 409 {object} models.ErrorResponse
// @Router /evidence/{id}/approve [post]
func (ctrl *EvidenceController) Approve(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}

	evidence, err := ctrl.evidence.Approve(c.Request.Context(), id, requestMeta(c))
	if err != nil {
		respondError(c, ctrl.log, "Failed to approve evidence", err)
		return
	}

	respondOK(c, http.StatusOK, "Evidence approved", evidence)
}

// Reject godoc
// @Summary Reject evidence
// @Tags Evidence
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Evidence ID"
// @Param request body models.RejectRequest true "Reason"
// @Success 200 {object} models.Response{data=models.Evidence}
// @Router /evidence/{id}/reject [post]
func (ctrl *EvidenceController) Reject(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}

	var req models.RejectRequest
	if err := c.ShouldBind(&req); err != nil {
		respondBindError(c, err)
		return
	}

	evidence, err := ctrl.evidence.Reject(c.Request.Context(), id, req.Reason, requestMeta(c))
	if err != nil {
		respondError(c, ctrl.log, "Failed to reject evidence", err)
		return
	}

	respondOK(c, http.StatusOK, "Evidence rejected", evidence)
}

// Delete godoc
// @Summary Delete evidence
// @Description Only the uploader or an admin may delete
// @Tags Evidence
// @Produce json
// @Security BearerAuth
// @Param id path int true "Evidence ID"
// @Success 200 {object} models.Response
// @Failure 403 {object} models.ErrorResponse
// @Router /evidence/{id} [delete]
func (ctrl *EvidenceController) Delete(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}

	if err := ctrl.evidence.Delete(c.Request.Context(), id, requestMeta(c)); err != nil {
		respondError(c, ctrl.log, "Failed to delete evidence", err)
		return
	}

	respondOK(c, http.StatusOK, "Evidence deleted successfully", nil)
}

package controllers

import (
	"context"
	"net/http"

	"cermont/models"
	"cermont/utils"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type CustomerUseCase interface {
	List(ctx context.Context, search string, page, limit int) ([]models.Customer, int, error)
	Get(ctx context.Context, id int) (*models.Customer, error)
	Create(ctx context.Context, req models.CustomerRequest, meta models.RequestMeta) (*models.Customer, error)
	Update(ctx context.Context, id int, req models.CustomerRequest, meta models.RequestMeta) (*models.Customer, error)
	Delete(ctx context.Context, id int, meta models.RequestMeta) error
}

type CustomerController struct {
	customers CustomerUseCase
	log       *zap.Logger
}

func NewCustomerController(customers CustomerUseCase, log *zap.Logger) *CustomerController {
	return &CustomerController{customers: customers, log: log}
}

// List godoc
// @Summary List customers
// @Tags Customers
// @Produce json
// @Security BearerAuth
// @Param search query string false "Name or NIT"
// @Param page query int false "Page" default(1)
// @Param limit query int false "Limit" default(10)
// @Success 200 {object} models.HATEOASResponse
// @Router /customers [get]
func (ctrl *CustomerController) List(c *gin.Context) {
	page, limit := utils.GetPaginationParams(c, 10)

	customers, total, err := ctrl.customers.List(c.Request.Context(), c.Query("search"), page, limit)
	if err != nil {
		respondError(c, ctrl.log, "Failed to retrieve customers", err)
		return
	}

	c.JSON(http.StatusOK, utils.BuildPaginatedResponse(c, "Customers retrieved successfully", customers, page, limit, total))
}

// Get godoc
// @Summary Get customer
// @Tags Customers
// @Produce json
// @Security BearerAuth
// @Param id path int true "Customer ID"
// @Success 200 {object} models.Response{data=models.Customer}
// @Router /customers/{id} [get]
func (ctrl *CustomerController) Get(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}

	customer, err := ctrl.customers.Get(c.Request.Context(), id)
	if err != nil {
		respondError(c, ctrl.log, "Failed to retrieve customer", err)
		return
	}

	respondOK(c, http.StatusOK, "Customer retrieved successfully", customer)
}

// Create godoc
// @Summary Create customer
// @Tags Customers
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body models.CustomerRequest true "Customer"
// @Success 201 {object} models.Response{data=models.Customer}
// @Router /customers [post]
func (ctrl *CustomerController) Create(c *gin.Context) {
	var req models.CustomerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	customer, err := ctrl.customers.Create(c.Request.Context(), req, requestMeta(c))
	if err != nil {
		respondError(c, ctrl.log, "Failed to create customer", err)
		return
	}

	respondOK(c, http.StatusCreated, "Customer created successfully", customer)
}

// Update godoc
// @Summary Update customer
// @Tags Customers
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Customer ID"
// @Param request body models.CustomerRequest true "Customer"
// @Success 200 {object} models.Response{data=models.Customer}
// @Router /customers/{id} [put]
func (ctrl *CustomerController) Update(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}

	var req models.CustomerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	customer, err := ctrl.customers.Update(c.Request.Context(), id, req, requestMeta(c))
	if err != nil {
		respondError(c, ctrl.log, "Failed to update customer", err)
		return
	}

	respondOK(c, http.StatusOK, "Customer updated successfully", customer)
}

// Delete godoc
// @Summary Delete customer
// @Tags Customers
// @Produce json
// @Security BearerAuth
// @Param id path int true "Customer ID"
// @Success 200 {object} models.Response
// @Router /customers/{id} [delete]
func (ctrl *CustomerController) Delete(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}

	if err := ctrl.customers.Delete(c.Request.Context(), id, requestMeta(c)); err != nil {
		respondError(c, ctrl.log, "Failed to delete customer", err)
		return
	}

	respondOK(c, http.StatusOK, "Customer deleted successfully", nil)
}

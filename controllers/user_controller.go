package controllers

import (
	"context"
	"net/http"
	"strconv"

	"cermont/models"
	"cermont/utils"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type UserUseCase interface {
	GetAllUsers(ctx context.Context, filter models.UserFilter) ([]models.User, int, error)
	ListTechnicians(ctx context.Context) ([]models.User, error)
	GetUserByID(ctx context.Context, id int) (*models.User, error)
	CreateUser(ctx context.Context, req models.CreateUserRequest, meta models.RequestMeta) (*models.User, error)
	UpdateUser(ctx context.Context, id int, req models.UpdateUserRequest, meta models.RequestMeta) (*models.User, error)
	SetActive(ctx context.Context, id int, active bool, meta models.RequestMeta) error
	Unlock(ctx context.Context, id int, meta models.RequestMeta) error
	DeleteUser(ctx context.Context, id int, meta models.RequestMeta) error
}

type UserController struct {
	users UserUseCase
	log   *zap.Logger
}

func NewUserController(users UserUseCase, log *zap.Logger) *UserController {
	return &UserController{users: users, log: log}
}

// GetAllUsers godoc
// @Summary List users
// @Tags Users
// @Produce json
// @Security BearerAuth
// @Param role query string false "Role"
// @Param active query bool false "Active"
// @Param search query string false "Name or email"
// @Param page query int false "Page" default(1)
// @Param limit query int false "Limit" default(10)
// @Success 200 {object} models.HATEOASResponse
// @Router /users [get]
func (ctrl *UserController) GetAllUsers(c *gin.Context) {
	page, limit := utils.GetPaginationParams(c, 10)
	filter := models.UserFilter{
		Role:   c.Query("role"),
		Search: c.Query("search"),
		Page:   page,
		Limit:  limit,
	}
	if raw := c.Query("active"); raw != "" {
		active, err := strconv.ParseBool(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, models.ErrorResponse{Success: false, Message: "Invalid active filter", Error: err.Error()})
			return
		}
		filter.Active = &active
	}

	users, total, err := ctrl.users.GetAllUsers(c.Request.Context(), filter)
	if err != nil {
		respondError(c, ctrl.log, "Failed to retrieve users", err)
		return
	}

	c.JSON(http.StatusOK, utils.BuildPaginatedResponse(c, "Users retrieved successfully", users, page, limit, total))
}

// ListTechnicians godoc
// @Summary List active technicians
// @Tags Users
// @Produce json
// @Security BearerAuth
// @Success 200 {object} models.Response{data=[]models.User}
// @Router /users/technicians [get]
func (ctrl *UserController) ListTechnicians(c *gin.Context) {
	users, err := ctrl.users.ListTechnicians(c.Request.Context())
	if err != nil {
		respondError(c, ctrl.log, "Failed to retrieve technicians", err)
		return
	}
	respondOK(c, http.StatusOK, "Technicians retrieved successfully", users)
}

// GetUserByID godoc
// @Summary Get user
// @Tags Users
// @Produce json
// @Security BearerAuth
// @Param id path int true "User ID"
// @Success 200 {object} models.Response{data=models.User}
// @Failure 404 {object} models.ErrorResponse
// @Router /users/{id} [get]
func (ctrl *UserController) GetUserByID(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}

	user, err := ctrl.users.GetUserByID(c.Request.Context(), id)
	if err != nil {
		respondError(c, ctrl.log, "Failed to retrieve user", err)
		return
	}

	respondOK(c, http.StatusOK, "User retrieved successfully", user)
}

// CreateUser godoc
// @Summary Create user
// @Tags Users
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body models.CreateUserRequest true "User"
// @Success 201 {object} models.Response{data=models.User}
// @Failure 409 {object} models.ErrorResponse
// @Router /users [post]
func (ctrl *UserController) CreateUser(c *gin.Context) {
	var req models.CreateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	user, err := ctrl.users.CreateUser(c.Request.Context(), req, requestMeta(c))
	if err != nil {
		respondError(c, ctrl.log, "Failed to create user", err)
		return
	}

	respondOK(c, http.StatusCreated, "User created successfully", user)
}

// UpdateUser godoc
// @Summary Update user
// @Tags Users
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "User ID"
// @Param request body models.UpdateUserRequest true "User"
// @Success 200 {object} models.Response{data=models.User}
// @Router /users/{id} [patch]
func (ctrl *UserController) UpdateUser(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}

	var req models.UpdateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	user, err := ctrl.users.UpdateUser(c.Request.Context(), id, req, requestMeta(c))
	if err != nil {
		respondError(c, ctrl.log, "Failed to update user", err)
		return
	}

	respondOK(c, http.StatusOK, "User updated successfully", user)
}

// SetActive godoc
// @Summary Activate or deactivate user
// @Description Deactivation revokes every refresh token of the user
// @Tags Users
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "User ID"
// @Param request body models.SetActiveRequest true "Active flag"
// @Success 200 {object} models.Response
// @Router /users/{id}/active [patch]
func (ctrl *UserController) SetActive(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}

	var req models.SetActiveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	if err := ctrl.users.SetActive(c.Request.Context(), id, *req.Active, requestMeta(c)); err != nil {
		respondError(c, ctrl.log, "Failed to update user status", err)
		return
	}

	respondOK(c, http.StatusOK, "User status updated successfully", nil)
}

// Unlock godoc
// @Summary Clear an account lockout
// @Tags Users
// @Produce json
// @Security BearerAuth
// @Param id path int true "User ID"
// @Success 200 {object} models.Response
// @Router /users/{id}/unlock [post]
func (ctrl *UserController) Unlock(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}

	if err := ctrl.users.Unlock(c.Request.Context(), id, requestMeta(c)); err != nil {
		respondError(c, ctrl.log, "Failed to unlock user", err)
		return
	}

	respondOK(c, http.StatusOK, "User unlocked successfully", nil)
}

// DeleteUser godoc
// @Summary Delete user
// @Tags Users
// @Produce json
// @Security BearerAuth
// @Param id path int true "User ID"
// @Success 200 {object} models.Response
// @Router /users/{id} [delete]
func (ctrl *UserController) DeleteUser(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}

	if err := ctrl.users.DeleteUser(c.Request.Context(), id, requestMeta(c)); err != nil {
		respondError(c, ctrl.log, "Failed to delete user", err)
		return
	}

	respondOK(c, http.StatusOK, "User deleted successfully", nil)
}

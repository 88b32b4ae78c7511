package controllers

import (
	"context"
	"net/http"

	"cermont/models"
	"cermont/utils"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type AuthUseCase interface {
	Register(ctx context.Context, req models.RegisterRequest, meta models.RequestMeta) (*models.LoginResponse, error)
	Login(ctx context.Context, req models.LoginRequest, meta models.RequestMeta) (*models.LoginResponse, error)
	Refresh(ctx context.Context, token string, meta models.RequestMeta) (*models.LoginResponse, error)
	Logout(ctx context.Context, claims *utils.Claims, refreshToken string, meta models.RequestMeta) error
	ChangePassword(ctx context.Context, userID int, req models.ChangePasswordRequest) error
	ForgotPassword(ctx context.Context, email string) error
	ResetPassword(ctx context.Context, req models.ResetPasswordRequest) error
	GetProfile(ctx context.Context, userID int) (*models.User, error)
	UpdateProfile(ctx context.Context, userID int, req models.UpdateProfileRequest) (*models.User, error)
}

type AuthController struct {
	auth AuthUseCase
	log  *zap.Logger
}

func NewAuthController(auth AuthUseCase, log *zap.Logger) *AuthController {
	return &AuthController{auth: auth, log: log}
}

// Register godoc
// @Summary Register new user
// @Description Self-registration creates an active technician account
// @Tags Authentication
// @Accept json
// @Produce json
// @Param request body models.RegisterRequest true "Register Request"
// @Success 201 {object} models.Response{data=models.LoginResponse}
// @Failure 400 {object} models.ErrorResponse
// @Failure 409 {object} models.ErrorResponse
// @Router /auth/register [post]
func (ctrl *AuthController) Register(c *gin.Context) {
	var req models.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	result, err := ctrl.auth.Register(c.Request.Context(), req, requestMeta(c))
	if err != nil {
		respondError(c, ctrl.log, "Registration failed", err)
		return
	}

	respondOK(c, http.StatusCreated, "Registration successful", result)
}

// Login godoc
// @Summary Login
// @Description Returns an access token and a refresh token. Accounts lock after repeated failures.
// @Tags Authentication
// @Accept json
// @Produce json
// @Param request body models.LoginRequest true "Login Request"
// @Success 200 {object} models.Response{data=models.LoginResponse}
// @Failure 400 {object} models.ErrorResponse
// @Failure 401 {object} models.ErrorResponse
// @Failure 423 {object} models.ErrorResponse
// @Router /auth/login [post]
func (ctrl *AuthController) Login(c *gin.Context) {
	var req models.LoginRequest
	if err := c.ShouldBind(&req); err != nil {
		respondBindError(c, err)
		return
	}

	result, err := ctrl.auth.Login(c.Request.Context(), req, requestMeta(c))
	if err != nil {
		respondError(c, ctrl.log, "Login failed", err)
		return
	}

	respondOK(c, http.StatusOK, "Login successful", result)
}

// Refresh godoc
// @Summary Rotate refresh token
// @Tags Authentication
// @Accept json
// @Produce json
// @Param request body models.RefreshRequest true "Refresh Request"
// @Success 200 {object} models.Response{data=models.LoginResponse}
// @Failure 401 {object} models.ErrorResponse
// @Router /auth/refresh [post]
func (ctrl *AuthController) Refresh(c *gin.Context) {
	var req models.RefreshRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	result, err := ctrl.auth.Refresh(c.Request.Context(), req.RefreshToken, requestMeta(c))
	if err != nil {
		respondError(c, ctrl.log, "Token refresh failed", err)
		return
	}

	respondOK(c, http.StatusOK, "Token refreshed", result)
}

// Logout godoc
// @Summary Logout
// @Description Revokes the current access token and, when given, the refresh token family
// @Tags Authentication
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body models.LogoutRequest false "Logout Request"
// @Success 200 {object} models.Response
// @Router /auth/logout [post]
func (ctrl *AuthController) Logout(c *gin.Context) {
	var req models.LogoutRequest
	_ = c.ShouldBindJSON(&req)

	if err := ctrl.auth.Logout(c.Request.Context(), currentClaims(c), req.RefreshToken, requestMeta(c)); err != nil {
		respondError(c, ctrl.log, "Logout failed", err)
		return
	}

	respondOK(c, http.StatusOK, "Logged out", nil)
}

// GetProfile godoc
// @Summary Get profile
// @Tags Profile
// @Produce json
// @Security BearerAuth
// @Success 200 {object} models.Response{data=models.User}
// @Router /auth/profile [get]
func (ctrl *AuthController) GetProfile(c *gin.Context) {
	user, err := ctrl.auth.GetProfile(c.Request.Context(), currentUserID(c))
	if err != nil {
		respondError(c, ctrl.log, "Failed to get profile", err)
		return
	}

	respondOK(c, http.StatusOK, "Profile retrieved successfully", user)
}

// UpdateProfile godoc
// @Summary Update profile
// @Tags Profile
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body models.UpdateProfileRequest true "Profile"
// @Success 200 {object} models.Response{data=models.User}
// @Router /auth/profile [patch]
func (ctrl *AuthController) UpdateProfile(c *gin.Context) {
	var req models.UpdateProfileRequest
	if err := c.ShouldBind(&req); err != nil {
		respondBindError(c, err)
		return
	}

	user, err := ctrl.auth.UpdateProfile(c.Request.Context(), currentUserID(c), req)
	if err != nil {
		respondError(c, ctrl.log, "Failed to update profile", err)
		return
	}

	respondOK(c, http.StatusOK, "Profile updated successfully", user)
}

// ChangePassword godoc
// @Summary Change password
// @Tags Profile
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body models.ChangePasswordRequest true "Passwords"
// @Success 200 {object} models.Response
// @Failure 401 {object} models.ErrorResponse
// @Router /auth/change-password [post]
func (ctrl *AuthController) ChangePassword(c *gin.Context) {
	var req models.ChangePasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	if err := ctrl.auth.ChangePassword(c.Request.Context(), currentUserID(c), req); err != nil {
		respondError(c, ctrl.log, "Failed to change password", err)
		return
	}

	respondOK(c, http.StatusOK, "Password changed successfully", nil)
}

// ForgotPassword godoc
// @Summary Request a password reset OTP
// @Description Always answers 200 so registered emails cannot be probed
// @Tags Authentication
// @Accept json
// @Produce json
// @Param request body models.ForgotPasswordRequest true "Email"
// @Success 200 {object} models.Response
// @Router /auth/forgot-password [post]
func (ctrl *AuthController) ForgotPassword(c *gin.Context) {
	var req models.ForgotPasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	if err := ctrl.auth.ForgotPassword(c.Request.Context(), req.Email); err != nil {
		respondError(c, ctrl.log, "Failed to process request", err)
		return
	}

	respondOK(c, http.StatusOK, "If the email is registered, an OTP has been sent", nil)
}

// ResetPassword godoc
// @Summary Reset password with OTP
// @Tags Authentication
// @Accept json
// @Produce json
// @Param request body models.ResetPasswordRequest true "Reset"
// @Success 200 {object} models.Response
// @Failure 401 {object} models.ErrorResponse
// @Router /auth/reset-password [post]
func (ctrl *AuthController) ResetPassword(c *gin.Context) {
	var req models.ResetPasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	if err := ctrl.auth.ResetPassword(c.Request.Context(), req); err != nil {
		respondError(c, ctrl.log, "Failed to reset password", err)
		return
	}

	respondOK(c, http.StatusOK, "Password reset successfully", nil)
}

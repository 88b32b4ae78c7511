package controllers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"cermont/models"
	"cermont/services"
	"cermont/utils"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type mockAuthUseCase struct{ mock.Mock }

func (m *mockAuthUseCase) Register(ctx context.Context, req models.RegisterRequest, meta models.RequestMeta) (*models.LoginResponse, error) {
	args := m.Called(ctx, req, meta)
	r, _ := args.Get(0).(*models.LoginResponse)
	return r, args.Error(1)
}

func (m *mockAuthUseCase) Login(ctx context.Context, req models.LoginRequest, meta models.RequestMeta) (*models.LoginResponse, error) {
	args := m.Called(ctx, req, meta)
	r, _ := args.Get(0).(*models.LoginResponse)
	return r, args.Error(1)
}

func (m *mockAuthUseCase) Refresh(ctx context.Context, token string, meta models.RequestMeta) (*models.LoginResponse, error) {
	args := m.Called(ctx, token, meta)
	r, _ := args.Get(0).(*models.LoginResponse)
	return r, args.Error(1)
}

func (m *mockAuthUseCase) Logout(ctx context.Context, claims *utils.Claims, refreshToken string, meta models.RequestMeta) error {
	return m.Called(ctx, claims, refreshToken, meta).Error(0)
}

func (m *mockAuthUseCase) ChangePassword(ctx context.Context, userID int, req models.ChangePasswordRequest) error {
	return m.Called(ctx, userID, req).Error(0)
}

func (m *mockAuthUseCase) ForgotPassword(ctx context.Context, email string) error {
	return m.Called(ctx, email).Error(0)
}

func (m *mockAuthUseCase) ResetPassword(ctx context.Context, req models.ResetPasswordRequest) error {
	return m.Called(ctx, req).Error(0)
}

func (m *mockAuthUseCase) GetProfile(ctx context.Context, userID int) (*models.User, error) {
	args := m.Called(ctx, userID)
	u, _ := args.Get(0).(*models.User)
	return u, args.Error(1)
}

func (m *mockAuthUseCase) UpdateProfile(ctx context.Context, userID int, req models.UpdateProfileRequest) (*models.User, error) {
	args := m.Called(ctx, userID, req)
	u, _ := args.Get(0).(*models.User)
	return u, args.Error(1)
}

func postJSON(router *gin.Engine, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestLoginResponses(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		err     error
		status  int
		message string
	}{
		{"success", nil, http.StatusOK, ""},
		{"wrong password", &services.AttemptsError{Remaining: 3}, http.StatusUnauthorized, "3 attempts remaining"},
		{"locked", &services.LockedError{Until: time.Now().Add(10 * time.Minute), RemainingMinutes: 10}, http.StatusLocked, "10 minutes"},
		{"inactive", services.ErrAccountInactive, http.StatusForbidden, "inactive"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			uc := &mockAuthUseCase{}
			req := models.LoginRequest{Email: "tec@cermont.co", Password: "secret123"}
			if tt.err != nil {
				uc.On("Login", mock.Anything, req, mock.Anything).Return(nil, tt.err)
			} else {
				uc.On("Login", mock.Anything, req, mock.Anything).Return(&models.LoginResponse{Token: "jwt"}, nil)
			}
			r := gin.New()
			r.POST("/auth/login", NewAuthController(uc, zap.NewNop()).Login)

			w := postJSON(r, "/auth/login", `{"email":"tec@cermont.co","password":"secret123"}`)
			assert.Equal(t, tt.status, w.Code)
			if tt.message != "" {
				assert.Contains(t, w.Body.String(), tt.message)
			}
		})
	}
}

func TestRegisterValidatesBody(t *testing.T) {
	t.Parallel()
	uc := &mockAuthUseCase{}
	r := gin.New()
	r.POST("/auth/register", NewAuthController(uc, zap.NewNop()).Register)

	w := postJSON(r, "/auth/register", `{"email":"not-an-email","password":"short","name":"Al"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	uc.AssertNotCalled(t, "Register", mock.Anything, mock.Anything, mock.Anything)
}

func TestProfileUsesAuthenticatedUser(t *testing.T) {
	t.Parallel()
	uc := &mockAuthUseCase{}
	uc.On("GetProfile", mock.Anything, 4).Return(&models.User{ID: 4, Name: "Tecnico"}, nil)
	r := gin.New()
	r.GET("/auth/profile", withUser(4, models.RoleTecnico), NewAuthController(uc, zap.NewNop()).GetProfile)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/auth/profile", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Tecnico")
}

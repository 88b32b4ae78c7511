package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"cermont/libs"
	"cermont/models"
	"cermont/repositories"
	"cermont/utils"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

var fixedNow = time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)

type authFixture struct {
	svc      *AuthService
	users    *mockUserStore
	tokens   *mockTokenStore
	audit    *mockAuditStore
	notifier *mockNotifier
	cache    *libs.MemoryCache
}

func newAuthFixture(t *testing.T) *authFixture {
	t.Helper()
	f := &authFixture{
		users:    &mockUserStore{},
		tokens:   &mockTokenStore{},
		audit:    &mockAuditStore{},
		notifier: &mockNotifier{},
		cache:    libs.NewMemoryCache(),
	}
	f.audit.On("Create", mock.Anything, mock.Anything).Return(nil).Maybe()

	f.svc = NewAuthService(
		f.users,
		f.tokens,
		utils.NewTokenManager("test-secret-key", 15*time.Minute),
		f.cache,
		f.notifier,
		NewAuditService(f.audit, zap.NewNop()),
		zap.NewNop(),
		AuthConfig{MaxLoginAttempts: 5, LockoutDuration: 15 * time.Minute, RefreshTokenTTL: 7 * 24 * time.Hour},
	)
	f.svc.now = func() time.Time { return fixedNow }
	return f
}

func hashed(t *testing.T, password string) string {
	t.Helper()
	h, err := utils.HashPassword(password)
	require.NoError(t, err)
	return h
}

func auditAction(action string) interface{} {
	return mock.MatchedBy(func(a *models.AuditLog) bool { return a.Action == action })
}

func TestLogin_Validation(t *testing.T) {
	f := newAuthFixture(t)

	_, err := f.svc.Login(context.Background(), models.LoginRequest{Email: "", Password: "x"}, models.RequestMeta{})
	var verr *ValidationError
	require.True(t, errors.As(err, &verr))
	assert.ErrorIs(t, err, ErrInvalid)
}

func TestLogin_UnknownEmail(t *testing.T) {
	f := newAuthFixture(t)
	f.users.On("FindByEmail", mock.Anything, "nobody@cermont.co").Return(nil, repositories.ErrNotFound)

	_, err := f.svc.Login(context.Background(), models.LoginRequest{Email: " Nobody@Cermont.co ", Password: "secret123"}, models.RequestMeta{IP: "10.0.0.1"})

	require.ErrorIs(t, err, ErrInvalidCredentials)
	f.audit.AssertCalled(t, "Create", mock.Anything, mock.MatchedBy(func(a *models.AuditLog) bool {
		return a.Action == models.AuditLoginFailed && a.UserID == models.SystemUserID && a.IP == "10.0.0.1"
	}))
}

func TestLogin_LockedAccount(t *testing.T) {
	f := newAuthFixture(t)
	until := fixedNow.Add(10*time.Minute + 30*time.Second)
	f.users.On("FindByEmail", mock.Anything, "ana@cermont.co").Return(&models.User{
		ID: 3, Email: "ana@cermont.co", Active: true, LoginAttempts: 5, LockedUntil: &until,
	}, nil)

	_, err := f.svc.Login(context.Background(), models.LoginRequest{Email: "ana@cermont.co", Password: "whatever"}, models.RequestMeta{})

	var locked *LockedError
	require.True(t, errors.As(err, &locked))
	assert.Equal(t, 11, locked.RemainingMinutes)
	assert.Equal(t, "account locked, try again in 11 minutes", err.Error())
	f.users.AssertNotCalled(t, "RecordFailedLogin", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	f.audit.AssertCalled(t, "Create", mock.Anything, auditAction(models.AuditLoginFailed))
}

func TestLogin_InactiveAccount(t *testing.T) {
	f := newAuthFixture(t)
	f.users.On("FindByEmail", mock.Anything, "ana@cermont.co").Return(&models.User{ID: 3, Active: false}, nil)

	_, err := f.svc.Login(context.Background(), models.LoginRequest{Email: "ana@cermont.co", Password: "whatever"}, models.RequestMeta{})
	require.ErrorIs(t, err, ErrAccountInactive)
	assert.ErrorIs(t, err, ErrForbidden)
}

func TestLogin_WrongPasswordCountsAttempts(t *testing.T) {
	f := newAuthFixture(t)
	f.users.On("FindByEmail", mock.Anything, "ana@cermont.co").Return(&models.User{
		ID: 3, Active: true, LoginAttempts: 3, Password: hashed(t, "correct-horse"),
	}, nil)
	f.users.On("RecordFailedLogin", mock.Anything, 3, 4, (*time.Time)(nil), fixedNow).Return(nil)

	_, err := f.svc.Login(context.Background(), models.LoginRequest{Email: "ana@cermont.co", Password: "wrong"}, models.RequestMeta{})

	var attempts *AttemptsError
	require.True(t, errors.As(err, &attempts))
	assert.Equal(t, 1, attempts.Remaining)
	assert.ErrorIs(t, err, ErrInvalidCredentials)
	assert.ErrorIs(t, err, ErrUnauthorized)
	f.users.AssertExpectations(t)
}

func TestLogin_FifthFailureLocks(t *testing.T) {
	f := newAuthFixture(t)
	f.users.On("FindByEmail", mock.Anything, "ana@cermont.co").Return(&models.User{
		ID: 3, Active: true, LoginAttempts: 4, Password: hashed(t, "correct-horse"),
	}, nil)
	f.users.On("RecordFailedLogin", mock.Anything, 3, 5, mock.MatchedBy(func(until *time.Time) bool {
		return until != nil && until.Equal(fixedNow.Add(15*time.Minute))
	}), fixedNow).Return(nil)

	_, err := f.svc.Login(context.Background(), models.LoginRequest{Email: "ana@cermont.co", Password: "wrong"}, models.RequestMeta{})

	var locked *LockedError
	require.True(t, errors.As(err, &locked))
	assert.Equal(t, 15, locked.RemainingMinutes)
	assert.Contains(t, err.Error(), "multiple failed attempts")
	f.users.AssertExpectations(t)
}

func TestLogin_ExpiredLockStartsFreshWindow(t *testing.T) {
	f := newAuthFixture(t)
	past := fixedNow.Add(-time.Minute)
	f.users.On("FindByEmail", mock.Anything, "ana@cermont.co").Return(&models.User{
		ID: 3, Active: true, LoginAttempts: 5, LockedUntil: &past, Password: hashed(t, "correct-horse"),
	}, nil)
	f.users.On("RecordFailedLogin", mock.Anything, 3, 1, (*time.Time)(nil), fixedNow).Return(nil)

	_, err := f.svc.Login(context.Background(), models.LoginRequest{Email: "ana@cermont.co", Password: "wrong"}, models.RequestMeta{})

	var attempts *AttemptsError
	require.True(t, errors.As(err, &attempts))
	assert.Equal(t, 4, attempts.Remaining)
}

func TestLogin_Success(t *testing.T) {
	f := newAuthFixture(t)
	f.users.On("FindByEmail", mock.Anything, "ana@cermont.co").Return(&models.User{
		ID: 3, Email: "ana@cermont.co", Role: models.RoleTecnico, Active: true, LoginAttempts: 2,
		Password: hashed(t, "correct-horse"),
	}, nil)
	f.users.On("RecordSuccessfulLogin", mock.Anything, 3, fixedNow).Return(nil)
	f.tokens.On("Create", mock.Anything, mock.MatchedBy(func(rt *models.RefreshToken) bool {
		return rt.UserID == 3 && rt.Family != "" && rt.ExpiresAt.Equal(fixedNow.Add(7*24*time.Hour)) && rt.IP == "10.0.0.9"
	})).Return(nil)

	resp, err := f.svc.Login(context.Background(), models.LoginRequest{Email: "ana@cermont.co", Password: "correct-horse"}, models.RequestMeta{IP: "10.0.0.9"})

	require.NoError(t, err)
	assert.NotEmpty(t, resp.Token)
	assert.Len(t, resp.RefreshToken, 32)
	assert.Equal(t, int64(900), resp.ExpiresIn)
	assert.Equal(t, 0, resp.User.LoginAttempts)
	f.users.AssertExpectations(t)
	f.tokens.AssertExpectations(t)
	f.audit.AssertCalled(t, "Create", mock.Anything, auditAction(models.AuditLogin))
}

func TestRegister_DuplicateEmail(t *testing.T) {
	f := newAuthFixture(t)
	f.users.On("FindByEmail", mock.Anything, "ana@cermont.co").Return(&models.User{ID: 1}, nil)

	_, err := f.svc.Register(context.Background(), models.RegisterRequest{Email: "ana@cermont.co", Password: "12345678", Name: "Ana"}, models.RequestMeta{})
	require.ErrorIs(t, err, ErrEmailExists)
	assert.ErrorIs(t, err, ErrConflict)
}

func TestRegister_CreatesTechnician(t *testing.T) {
	f := newAuthFixture(t)
	f.users.On("FindByEmail", mock.Anything, "ana@cermont.co").Return(nil, repositories.ErrNotFound)
	f.users.On("Create", mock.Anything, mock.MatchedBy(func(u *models.User) bool {
		return u.Role == models.RoleTecnico && u.Active && u.Password != "12345678"
	})).Run(func(args mock.Arguments) {
		args.Get(1).(*models.User).ID = 9
	}).Return(nil)
	f.tokens.On("Create", mock.Anything, mock.Anything).Return(nil)

	resp, err := f.svc.Register(context.Background(), models.RegisterRequest{Email: "Ana@Cermont.co", Password: "12345678", Name: " Ana "}, models.RequestMeta{})

	require.NoError(t, err)
	assert.Equal(t, 9, resp.User.ID)
	assert.Equal(t, "Ana", resp.User.Name)
	f.audit.AssertCalled(t, "Create", mock.Anything, auditAction(models.AuditRegister))
}

func TestRefresh(t *testing.T) {
	active := &models.User{ID: 3, Email: "ana@cermont.co", Role: models.RoleTecnico, Active: true}

	t.Run("unknown_token", func(t *testing.T) {
		f := newAuthFixture(t)
		f.tokens.On("FindByToken", mock.Anything, "nope").Return(nil, repositories.ErrNotFound)

		_, err := f.svc.Refresh(context.Background(), "nope", models.RequestMeta{})
		require.ErrorIs(t, err, ErrInvalidRefreshToken)
	})

	t.Run("reuse_revokes_family", func(t *testing.T) {
		f := newAuthFixture(t)
		f.tokens.On("FindByToken", mock.Anything, "old").Return(&models.RefreshToken{
			ID: 1, UserID: 3, Family: "fam-1", Revoked: true, ExpiresAt: fixedNow.Add(time.Hour),
		}, nil)
		f.tokens.On("RevokeFamily", mock.Anything, "fam-1").Return(nil)

		_, err := f.svc.Refresh(context.Background(), "old", models.RequestMeta{})
		require.ErrorIs(t, err, ErrRefreshTokenReused)
		f.tokens.AssertExpectations(t)
	})

	t.Run("expired", func(t *testing.T) {
		f := newAuthFixture(t)
		f.tokens.On("FindByToken", mock.Anything, "stale").Return(&models.RefreshToken{
			ID: 1, UserID: 3, Family: "fam-1", ExpiresAt: fixedNow,
		}, nil)

		_, err := f.svc.Refresh(context.Background(), "stale", models.RequestMeta{})
		require.ErrorIs(t, err, ErrRefreshTokenExpired)
	})

	t.Run("concurrent_rotation_is_reuse", func(t *testing.T) {
		f := newAuthFixture(t)
		f.tokens.On("FindByToken", mock.Anything, "racy").Return(&models.RefreshToken{
			ID: 4, UserID: 3, Family: "fam-2", ExpiresAt: fixedNow.Add(time.Hour),
		}, nil)
		f.users.On("FindByID", mock.Anything, 3).Return(active, nil)
		f.tokens.On("Revoke", mock.Anything, 4).Return(repositories.ErrConflict)
		f.tokens.On("RevokeFamily", mock.Anything, "fam-2").Return(nil)

		_, err := f.svc.Refresh(context.Background(), "racy", models.RequestMeta{})
		require.ErrorIs(t, err, ErrRefreshTokenReused)
	})

	t.Run("rotates_within_family", func(t *testing.T) {
		f := newAuthFixture(t)
		f.tokens.On("FindByToken", mock.Anything, "good").Return(&models.RefreshToken{
			ID: 5, UserID: 3, Family: "fam-3", ExpiresAt: fixedNow.Add(time.Hour),
		}, nil)
		f.users.On("FindByID", mock.Anything, 3).Return(active, nil)
		f.tokens.On("Revoke", mock.Anything, 5).Return(nil)
		f.tokens.On("Create", mock.Anything, mock.MatchedBy(func(rt *models.RefreshToken) bool {
			return rt.Family == "fam-3" && rt.Token != "good"
		})).Return(nil)

		resp, err := f.svc.Refresh(context.Background(), "good", models.RequestMeta{})
		require.NoError(t, err)
		assert.NotEmpty(t, resp.Token)
		f.tokens.AssertExpectations(t)
	})
}

func TestLogout_BlacklistsAccessToken(t *testing.T) {
	f := newAuthFixture(t)
	exp := fixedNow.Add(10 * time.Minute)
	claims := &utils.Claims{UserID: 3}
	claims.ID = "jti-123"
	claims.ExpiresAt = jwt.NewNumericDate(exp)

	f.tokens.On("FindByToken", mock.Anything, "refresh-1").Return(&models.RefreshToken{ID: 8, UserID: 3}, nil)
	f.tokens.On("Revoke", mock.Anything, 8).Return(nil)

	require.NoError(t, f.svc.Logout(context.Background(), claims, "refresh-1", models.RequestMeta{}))

	assert.True(t, f.svc.IsTokenRevoked(context.Background(), "jti-123"))
	assert.False(t, f.svc.IsTokenRevoked(context.Background(), "other"))
	assert.False(t, f.svc.IsTokenRevoked(context.Background(), ""))
	f.tokens.AssertExpectations(t)
	f.audit.AssertCalled(t, "Create", mock.Anything, auditAction(models.AuditLogout))
}

func TestLogout_IgnoresForeignRefreshToken(t *testing.T) {
	f := newAuthFixture(t)
	claims := &utils.Claims{UserID: 3}
	f.tokens.On("FindByToken", mock.Anything, "someone-else").Return(&models.RefreshToken{ID: 8, UserID: 99}, nil)

	require.NoError(t, f.svc.Logout(context.Background(), claims, "someone-else", models.RequestMeta{}))
	f.tokens.AssertNotCalled(t, "Revoke", mock.Anything, mock.Anything)
}

func TestPasswordResetFlow(t *testing.T) {
	f := newAuthFixture(t)
	user := &models.User{ID: 3, Email: "ana@cermont.co", Active: true}
	f.users.On("FindByEmail", mock.Anything, "ana@cermont.co").Return(user, nil)

	var otp string
	f.notifier.On("PasswordReset", mock.Anything, "ana@cermont.co", mock.AnythingOfType("string")).
		Run(func(args mock.Arguments) { otp = args.String(2) }).
		Return(nil)

	require.NoError(t, f.svc.ForgotPassword(context.Background(), "ana@cermont.co"))
	require.Len(t, otp, 6)

	err := f.svc.ResetPassword(context.Background(), models.ResetPasswordRequest{Email: "ana@cermont.co", OTP: "000000x", NewPassword: "new-password"})
	require.ErrorIs(t, err, ErrInvalidOTP)

	f.users.On("UpdatePassword", mock.Anything, 3, mock.AnythingOfType("string")).Return(nil)
	f.users.On("Unlock", mock.Anything, 3).Return(nil)
	f.tokens.On("RevokeAllForUser", mock.Anything, 3).Return(nil)

	require.NoError(t, f.svc.ResetPassword(context.Background(), models.ResetPasswordRequest{Email: "ana@cermont.co", OTP: otp, NewPassword: "new-password"}))

	// codes are single use
	err = f.svc.ResetPassword(context.Background(), models.ResetPasswordRequest{Email: "ana@cermont.co", OTP: otp, NewPassword: "new-password"})
	require.ErrorIs(t, err, ErrInvalidOTP)
}

func TestForgotPassword_UnknownEmailIsSilent(t *testing.T) {
	f := newAuthFixture(t)
	f.users.On("FindByEmail", mock.Anything, "ghost@cermont.co").Return(nil, repositories.ErrNotFound)

	require.NoError(t, f.svc.ForgotPassword(context.Background(), "ghost@cermont.co"))
	f.notifier.AssertNotCalled(t, "PasswordReset", mock.Anything, mock.Anything, mock.Anything)
}

func TestChangePassword(t *testing.T) {
	f := newAuthFixture(t)
	f.users.On("FindByID", mock.Anything, 3).Return(&models.User{ID: 3, Password: hashed(t, "old-password")}, nil)

	err := f.svc.ChangePassword(context.Background(), 3, models.ChangePasswordRequest{OldPassword: "nope", NewPassword: "new-password"})
	require.ErrorIs(t, err, ErrInvalidOldPassword)

	f.users.On("UpdatePassword", mock.Anything, 3, mock.AnythingOfType("string")).Return(nil)
	f.tokens.On("RevokeAllForUser", mock.Anything, 3).Return(nil)
	require.NoError(t, f.svc.ChangePassword(context.Background(), 3, models.ChangePasswordRequest{OldPassword: "old-password", NewPassword: "new-password"}))
}

package services

import (
	"context"
	"crypto/rand"
	"crypto/subtle"
	"errors"
	"fmt"
	"math"
	"math/big"
	"strings"
	"time"

	"cermont/libs"
	"cermont/models"
	"cermont/repositories"
	"cermont/utils"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	otpTTL          = 5 * time.Minute
	otpKeyPrefix    = "otp:"
	blacklistPrefix = "blacklist:"
)

type AuthConfig struct {
	MaxLoginAttempts int
	LockoutDuration  time.Duration
	RefreshTokenTTL  time.Duration
}

type AuthService struct {
	users    UserStore
	tokens   TokenStore
	jwt      *utils.TokenManager
	cache    libs.Cache
	notifier Notifier
	audit    *AuditService
	log      *zap.Logger
	cfg      AuthConfig
	now      func() time.Time
}

func NewAuthService(
	users UserStore,
	tokens TokenStore,
	jwt *utils.TokenManager,
	cache libs.Cache,
	notifier Notifier,
	audit *AuditService,
	log *zap.Logger,
	cfg AuthConfig,
) *AuthService {
	if cfg.MaxLoginAttempts < 1 {
		cfg.MaxLoginAttempts = 5
	}
	if cfg.LockoutDuration <= 0 {
		cfg.LockoutDuration = 15 * time.Minute
	}
	if cfg.RefreshTokenTTL <= 0 {
		cfg.RefreshTokenTTL = 7 * 24 * time.Hour
	}
	return &AuthService{
		users:    users,
		tokens:   tokens,
		jwt:      jwt,
		cache:    cache,
		notifier: notifier,
		audit:    audit,
		log:      log,
		cfg:      cfg,
		now:      time.Now,
	}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func (s *AuthService) Register(ctx context.Context, req models.RegisterRequest, meta models.RequestMeta) (*models.LoginResponse, error) {
	email := normalizeEmail(req.Email)
	if email == "" || req.Password == "" || strings.TrimSpace(req.Name) == "" {
		return nil, invalid("", "name, email and password are required")
	}

	if _, err := s.users.FindByEmail(ctx, email); err == nil {
		return nil, ErrEmailExists
	} else if !errors.Is(err, repositories.ErrNotFound) {
		return nil, err
	}

	hashedPassword, err := utils.HashPassword(req.Password)
	if err != nil {
		return nil, err
	}

	user := &models.User{
		Email:    email,
		Password: hashedPassword,
		Name:     strings.TrimSpace(req.Name),
		Phone:    req.Phone,
		Role:     models.RoleTecnico,
		Active:   true,
	}
	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, repositories.ErrDuplicate) {
			return nil, ErrEmailExists
		}
		return nil, err
	}

	meta.UserID = user.ID
	entry := newAudit(meta, models.EntityUser, user.ID, models.AuditRegister)
	entry.After = snapshot(user)
	s.audit.Record(ctx, entry)

	return s.issueTokens(ctx, user, uuid.NewString(), meta)
}

// Login authenticates with account lockout: MaxLoginAttempts consecutive
// failures lock the account for LockoutDuration.
func (s *AuthService) Login(ctx context.Context, req models.LoginRequest, meta models.RequestMeta) (*models.LoginResponse, error) {
	email := normalizeEmail(req.Email)
	if email == "" || req.Password == "" {
		return nil, invalid("", "email and password are required")
	}

	now := s.now()
	user, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			s.recordLoginFailure(ctx, models.SystemUserID, meta, "unknown email: "+email)
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}

	if user.IsLocked(now) {
		s.recordLoginFailure(ctx, user.ID, meta, "account locked")
		return nil, &LockedError{
			Until:            *user.LockedUntil,
			RemainingMinutes: remainingMinutes(*user.LockedUntil, now),
		}
	}

	if !user.Active {
		s.recordLoginFailure(ctx, user.ID, meta, "account inactive")
		return nil, ErrAccountInactive
	}

	valid, err := utils.VerifyPassword(user.Password, req.Password)
	if err != nil {
		s.log.Warn("password hash verification failed", zap.Int("user_id", user.ID), zap.Error(err))
	}
	if !valid {
		return nil, s.handleWrongPassword(ctx, user, meta, now)
	}

	if err := s.users.RecordSuccessfulLogin(ctx, user.ID, now); err != nil {
		return nil, err
	}
	user.LoginAttempts = 0
	user.LockedUntil = nil
	user.LastLogin = &now

	meta.UserID = user.ID
	s.audit.Record(ctx, newAudit(meta, models.EntityUser, user.ID, models.AuditLogin))

	return s.issueTokens(ctx, user, uuid.NewString(), meta)
}

func (s *AuthService) handleWrongPassword(ctx context.Context, user *models.User, meta models.RequestMeta, now time.Time) error {
	attempts := user.LoginAttempts
	if user.LockedUntil != nil {
		// an expired lock starts a fresh window
		attempts = 0
	}
	attempts++

	if attempts >= s.cfg.MaxLoginAttempts {
		lockedUntil := now.Add(s.cfg.LockoutDuration)
		if err := s.users.RecordFailedLogin(ctx, user.ID, attempts, &lockedUntil, now); err != nil {
			return err
		}
		s.recordLoginFailure(ctx, user.ID, meta, fmt.Sprintf("account locked after %d failed attempts", attempts))
		minutes := remainingMinutes(lockedUntil, now)
		return &LockedError{
			Until:            lockedUntil,
			RemainingMinutes: minutes,
			Message:          fmt.Sprintf("account locked due to multiple failed attempts, try again in %d minutes", minutes),
		}
	}

	if err := s.users.RecordFailedLogin(ctx, user.ID, attempts, nil, now); err != nil {
		return err
	}
	s.recordLoginFailure(ctx, user.ID, meta, fmt.Sprintf("wrong password, attempt %d", attempts))
	return &AttemptsError{Remaining: s.cfg.MaxLoginAttempts - attempts}
}

func remainingMinutes(until, now time.Time) int {
	return int(math.Ceil(until.Sub(now).Minutes()))
}

func (s *AuthService) recordLoginFailure(ctx context.Context, userID int, meta models.RequestMeta, reason string) {
	meta.UserID = userID
	entry := newAudit(meta, models.EntityUser, userID, models.AuditLoginFailed)
	entry.Reason = reason
	s.audit.Record(ctx, entry)
}

func (s *AuthService) issueTokens(ctx context.Context, user *models.User, family string, meta models.RequestMeta) (*models.LoginResponse, error) {
	accessToken, _, err := s.jwt.Generate(user.ID, user.Email, user.Role)
	if err != nil {
		return nil, err
	}

	refresh := &models.RefreshToken{
		Token:     strings.ReplaceAll(uuid.NewString(), "-", ""),
		UserID:    user.ID,
		Family:    family,
		ExpiresAt: s.now().Add(s.cfg.RefreshTokenTTL),
		IP:        meta.IP,
		UserAgent: meta.UserAgent,
	}
	if err := s.tokens.Create(ctx, refresh); err != nil {
		return nil, err
	}

	return &models.LoginResponse{
		Token:        accessToken,
		RefreshToken: refresh.Token,
		ExpiresIn:    int64(s.jwt.Expiry().Seconds()),
		User:         *user,
	}, nil
}

// Refresh rotates a refresh token. Presenting an already rotated token
// revokes every token of its family.
func (s *AuthService) Refresh(ctx context.Context, token string, meta models.RequestMeta) (*models.LoginResponse, error) {
	if token == "" {
		return nil, ErrInvalidRefreshToken
	}

	stored, err := s.tokens.FindByToken(ctx, token)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrInvalidRefreshToken
		}
		return nil, err
	}

	if stored.Revoked {
		return nil, s.revokeFamily(ctx, stored)
	}
	if !s.now().Before(stored.ExpiresAt) {
		return nil, ErrRefreshTokenExpired
	}

	user, err := s.users.FindByID(ctx, stored.UserID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrInvalidRefreshToken
		}
		return nil, err
	}
	if !user.Active {
		return nil, ErrAccountInactive
	}

	if err := s.tokens.Revoke(ctx, stored.ID); err != nil {
		if errors.Is(err, repositories.ErrConflict) {
			return nil, s.revokeFamily(ctx, stored)
		}
		return nil, err
	}

	return s.issueTokens(ctx, user, stored.Family, meta)
}

func (s *AuthService) revokeFamily(ctx context.Context, stored *models.RefreshToken) error {
	s.log.Warn("refresh token reuse detected", zap.Int("user_id", stored.UserID), zap.String("family", stored.Family))
	if err := s.tokens.RevokeFamily(ctx, stored.Family); err != nil {
		return err
	}
	return ErrRefreshTokenReused
}

// Logout blacklists the access token until it expires and revokes the
// presented refresh token.
func (s *AuthService) Logout(ctx context.Context, claims *utils.Claims, refreshToken string, meta models.RequestMeta) error {
	if claims != nil && claims.ID != "" && claims.ExpiresAt != nil {
		ttl := claims.ExpiresAt.Sub(s.now())
		if ttl > 0 {
			if err := s.cache.Set(ctx, blacklistPrefix+claims.ID, "1", ttl); err != nil {
				s.log.Warn("failed to blacklist access token", zap.Error(err))
			}
		}
	}

	if refreshToken != "" {
		stored, err := s.tokens.FindByToken(ctx, refreshToken)
		switch {
		case err == nil:
			if claims == nil || stored.UserID == claims.UserID {
				if err := s.tokens.Revoke(ctx, stored.ID); err != nil && !errors.Is(err, repositories.ErrConflict) {
					return err
				}
			}
		case !errors.Is(err, repositories.ErrNotFound):
			return err
		}
	}

	if claims != nil {
		meta.UserID = claims.UserID
		s.audit.Record(ctx, newAudit(meta, models.EntityUser, claims.UserID, models.AuditLogout))
	}
	return nil
}

// IsTokenRevoked reports whether an access token id was blacklisted on logout.
func (s *AuthService) IsTokenRevoked(ctx context.Context, jti string) bool {
	if jti == "" {
		return false
	}
	_, err := s.cache.Get(ctx, blacklistPrefix+jti)
	if err == nil {
		return true
	}
	if !errors.Is(err, libs.ErrCacheMiss) {
		s.log.Warn("token blacklist unavailable", zap.Error(err))
	}
	return false
}

func (s *AuthService) ChangePassword(ctx context.Context, userID int, req models.ChangePasswordRequest) error {
	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return ErrUserNotFound
		}
		return err
	}

	valid, err := utils.VerifyPassword(user.Password, req.OldPassword)
	if err != nil || !valid {
		return ErrInvalidOldPassword
	}
	if len(req.NewPassword) < 8 {
		return invalid("new_password", "must be at least 8 characters")
	}

	hashedPassword, err := utils.HashPassword(req.NewPassword)
	if err != nil {
		return err
	}
	if err := s.users.UpdatePassword(ctx, userID, hashedPassword); err != nil {
		return err
	}
	return s.tokens.RevokeAllForUser(ctx, userID)
}

// ForgotPassword mails a one-time code. Unknown emails succeed silently.
func (s *AuthService) ForgotPassword(ctx context.Context, email string) error {
	email = normalizeEmail(email)
	user, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil
		}
		return err
	}
	if !user.Active {
		return nil
	}

	otp, err := generateOTP()
	if err != nil {
		return err
	}
	if err := s.cache.Set(ctx, otpKeyPrefix+email, otp, otpTTL); err != nil {
		return fmt.Errorf("failed to store OTP: %w", err)
	}
	if err := s.notifier.PasswordReset(ctx, email, otp); err != nil {
		return fmt.Errorf("failed to queue OTP email: %w", err)
	}
	return nil
}

func (s *AuthService) ResetPassword(ctx context.Context, req models.ResetPasswordRequest) error {
	email := normalizeEmail(req.Email)
	stored, err := s.cache.Get(ctx, otpKeyPrefix+email)
	if err != nil {
		return ErrInvalidOTP
	}
	if subtle.ConstantTimeCompare([]byte(stored), []byte(req.OTP)) != 1 {
		return ErrInvalidOTP
	}

	user, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		return ErrInvalidOTP
	}
	if len(req.NewPassword) < 8 {
		return invalid("new_password", "must be at least 8 characters")
	}

	hashedPassword, err := utils.HashPassword(req.NewPassword)
	if err != nil {
		return err
	}
	if err := s.users.UpdatePassword(ctx, user.ID, hashedPassword); err != nil {
		return err
	}
	if err := s.cache.Del(ctx, otpKeyPrefix+email); err != nil {
		s.log.Warn("failed to delete used OTP", zap.Error(err))
	}
	if err := s.users.Unlock(ctx, user.ID); err != nil {
		return err
	}
	return s.tokens.RevokeAllForUser(ctx, user.ID)
}

func (s *AuthService) GetProfile(ctx context.Context, userID int) (*models.User, error) {
	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return user, nil
}

func (s *AuthService) UpdateProfile(ctx context.Context, userID int, req models.UpdateProfileRequest) (*models.User, error) {
	user, err := s.GetProfile(ctx, userID)
	if err != nil {
		return nil, err
	}
	if name := strings.TrimSpace(req.Name); name != "" {
		user.Name = name
	}
	if req.Phone != "" {
		user.Phone = req.Phone
	}
	if err := s.users.Update(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

func generateOTP() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(1000000))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%06d", n.Int64()), nil
}

package services

import (
	"errors"
	"fmt"
	"time"

	"cermont/models"
)

// Error kinds. Every service error unwraps to one of these; controllers map
// them to HTTP status codes.
var (
	ErrInvalid      = errors.New("invalid input")
	ErrNotFound     = errors.New("not found")
	ErrConflict     = errors.New("conflict")
	ErrUnauthorized = errors.New("unauthorized")
	ErrForbidden    = errors.New("forbidden")
)

type kindError struct {
	msg  string
	kind error
}

func (e *kindError) Error() string { return e.msg }
func (e *kindError) Unwrap() error { return e.kind }

func newError(kind error, msg string) error {
	return &kindError{msg: msg, kind: kind}
}

var (
	ErrUserNotFound      = newError(ErrNotFound, "user not found")
	ErrCustomerNotFound  = newError(ErrNotFound, "customer not found")
	ErrOrderNotFound     = newError(ErrNotFound, "order not found")
	ErrWorkPlanNotFound  = newError(ErrNotFound, "work plan not found")
	ErrExecutionNotFound = newError(ErrNotFound, "execution not found")
	ErrChecklistNotFound = newError(ErrNotFound, "checklist not found")
	ErrTemplateNotFound  = newError(ErrNotFound, "checklist template not found")
	ErrEvidenceNotFound  = newError(ErrNotFound, "evidence not found")
	ErrCostItemNotFound  = newError(ErrNotFound, "cost item not found")

	ErrInvalidCredentials   = newError(ErrUnauthorized, "invalid email or password")
	ErrInvalidRefreshToken  = newError(ErrUnauthorized, "invalid refresh token")
	ErrRefreshTokenExpired  = newError(ErrUnauthorized, "refresh token expired")
	ErrRefreshTokenReused   = newError(ErrUnauthorized, "refresh token reuse detected, session revoked")
	ErrInvalidOTP           = newError(ErrUnauthorized, "invalid or expired OTP")
	ErrInvalidOldPassword   = newError(ErrUnauthorized, "invalid old password")
	ErrAccountInactive      = newError(ErrForbidden, "account is inactive")
	ErrNotOwner             = newError(ErrForbidden, "you do not have access to this resource")
	ErrEmailExists          = newError(ErrConflict, "email already registered")
	ErrUserHasHistory       = newError(ErrConflict, "user has work history, deactivate the account instead")
	ErrOrderArchived        = newError(ErrConflict, "order is archived")
	ErrOrderAlreadyArchived = newError(ErrConflict, "order is already archived")
	ErrOrderNotArchived     = newError(ErrConflict, "order is not archived")
	ErrOrderNotTerminal     = newError(ErrConflict, "cannot archive a non-terminal order")
	ErrOrderNotDeletable    = newError(ErrConflict, "only orders in solicitud can be deleted")
	ErrConcurrentUpdate     = newError(ErrConflict, "the record was modified by another request, retry")
	ErrWorkPlanExists       = newError(ErrConflict, "order already has a work plan")
	ErrWorkPlanNotEditable  = newError(ErrConflict, "approved work plans cannot be edited")
	ErrWorkPlanNotApproved  = newError(ErrConflict, "work plan is not approved")
	ErrWorkPlanNotPending   = newError(ErrConflict, "only draft work plans can be reviewed")
	ErrOrderNotPlannable    = newError(ErrConflict, "work plans can only be created while the order is in po or planeacion")
	ErrOrderNotInExecution  = newError(ErrConflict, "order is not in ejecucion")
	ErrExecutionExists      = newError(ErrConflict, "order already has an execution")
	ErrExecutionNotActive   = newError(ErrConflict, "execution is not in progress")
	ErrExecutionNotPaused   = newError(ErrConflict, "execution is not paused")
	ErrExecutionCompleted   = newError(ErrConflict, "execution is already completed")
	ErrPendingTasks         = newError(ErrConflict, "cannot complete an execution with pending tasks")
	ErrEvidenceReviewed     = newError(ErrConflict, "evidence has already been reviewed")
	ErrChecklistCompleted   = newError(ErrConflict, "checklist is already completed")
	ErrChecklistAttached    = newError(ErrConflict, "template already attached to this execution")
)

// ValidationError reports a rejected input field.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func (e *ValidationError) Unwrap() error { return ErrInvalid }

func invalid(field, format string, args ...any) error {
	return &ValidationError{Field: field, Message: fmt.Sprintf(format, args...)}
}

// TransitionError reports a state change the workflow does not allow.
type TransitionError struct {
	From    models.OrderState
	To      models.OrderState
	Allowed []models.OrderState
	Reason  string
}

func (e *TransitionError) Error() string {
	if e.Reason != "" {
		return e.Reason
	}
	if len(e.Allowed) == 0 {
		return fmt.Sprintf("order is in final state %s and cannot transition", e.From)
	}
	return fmt.Sprintf("invalid transition from %s to %s, allowed: %v", e.From, e.To, e.Allowed)
}

func (e *TransitionError) Unwrap() error { return ErrConflict }

// LockedError is returned while an account lockout is in effect.
type LockedError struct {
	Until            time.Time
	RemainingMinutes int
	Message          string
}

func (e *LockedError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return fmt.Sprintf("account locked, try again in %d minutes", e.RemainingMinutes)
}

func (e *LockedError) Unwrap() error { return ErrUnauthorized }

// AttemptsError is a failed password check that has not yet locked the account.
type AttemptsError struct {
	Remaining int
}

func (e *AttemptsError) Error() string {
	return fmt.Sprintf("invalid email or password, %d attempts remaining", e.Remaining)
}

func (e *AttemptsError) Unwrap() error { return ErrInvalidCredentials }

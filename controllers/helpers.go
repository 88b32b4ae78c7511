package controllers

import (
	"errors"
	"net/http"
	"strconv"

	"cermont/middleware"
	"cermont/models"
	"cermont/services"
	"cermont/utils"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// statusFor maps a service error to its HTTP status.
func statusFor(err error) int {
	var locked *services.LockedError
	switch {
	case errors.As(err, &locked):
		return http.StatusLocked
	case errors.Is(err, services.ErrInvalid):
		return http.StatusBadRequest
	case errors.Is(err, services.ErrUnauthorized):
		return http.StatusUnauthorized
	case errors.Is(err, services.ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, services.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, services.ErrConflict):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// respondError writes the error envelope. Unexpected errors are logged and
// their details hidden from the client.
func respondError(c *gin.Context, log *zap.Logger, message string, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		log.Error(message, zap.Error(err), zap.String("path", c.FullPath()))
		c.JSON(status, models.ErrorResponse{
			Success: false,
			Message: message,
			Error:   "internal server error",
		})
		return
	}

	c.JSON(status, models.ErrorResponse{
		Success: false,
		Message: message,
		Error:   err.Error(),
	})
}

func respondBindError(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, models.ErrorResponse{
		Success: false,
		Message: "Invalid request body",
		Error:   err.Error(),
	})
}

func respondOK(c *gin.Context, status int, message string, data interface{}) {
	c.JSON(status, models.Response{
		Success: true,
		Message: message,
		Data:    data,
	})
}

// paramID parses a positive integer path parameter, answering 400 otherwise.
func paramID(c *gin.Context, name string) (int, bool) {
	id, err := strconv.Atoi(c.Param(name))
	if err != nil || id < 1 {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Success: false,
			Message: "Invalid " + name,
			Error:   "must be a positive integer",
		})
		return 0, false
	}
	return id, true
}

func currentUserID(c *gin.Context) int {
	return c.GetInt(middleware.CtxUserID)
}

func currentClaims(c *gin.Context) *utils.Claims {
	v, ok := c.Get(middleware.CtxClaims)
	if !ok {
		return nil
	}
	claims, _ := v.(*utils.Claims)
	return claims
}

func requestMeta(c *gin.Context) models.RequestMeta {
	return models.RequestMeta{
		UserID:    c.GetInt(middleware.CtxUserID),
		Role:      c.GetString(middleware.CtxUserRole),
		IP:        c.ClientIP(),
		UserAgent: c.Request.UserAgent(),
	}
}

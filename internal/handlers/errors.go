package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/SscSPs/cashledger/internal/apperrors"
	"github.com/SscSPs/cashledger/internal/middleware"
	"github.com/gin-gonic/gin"
)

// errorCodes maps error kinds to the machine-readable code returned to clients.
var errorCodes = map[error]string{
	apperrors.ErrValidation:     "validation_error",
	apperrors.ErrInvalidState:   "invalid_state",
	apperrors.ErrConflict:       "conflict",
	apperrors.ErrNotFound:       "not_found",
	apperrors.ErrNoOpenRegister: "no_open_register",
	apperrors.ErrTransient:      "temporarily_unavailable",
}

// statusFor maps an error to its HTTP status.
func statusFor(err error) int {
	switch apperrors.Kind(err) {
	case apperrors.ErrValidation:
		return http.StatusBadRequest
	case apperrors.ErrInvalidState, apperrors.ErrConflict:
		return http.StatusConflict
	case apperrors.ErrNotFound, apperrors.ErrNoOpenRegister:
		return http.StatusNotFound
	case apperrors.ErrTransient:
		return http.StatusServiceUnavailable
	}
	var appErr *apperrors.AppError
	if errors.As(err, &appErr) && appErr.Code >= 400 && appErr.Code < 600 {
		return appErr.Code
	}
	return http.StatusInternalServerError
}

// respondError writes the JSON error body for err. Server-side failures hide their cause.
func respondError(c *gin.Context, logger *slog.Logger, err error, failure string) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError && status != http.StatusServiceUnavailable {
		logger.Error(failure, slog.String("error", err.Error()))
		c.JSON(status, gin.H{"error": failure, "code": "internal_error"})
		return
	}
	logger.Warn(failure, slog.String("error", err.Error()), slog.Int("status", status))
	c.JSON(status, gin.H{"error": err.Error(), "code": errorCodes[apperrors.Kind(err)]})
}

// bindError answers a request whose body or query could not be bound.
func bindError(c *gin.Context, logger *slog.Logger, err error) {
	logger.Warn("Failed to bind request", slog.String("error", err.Error()))
	c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format: " + err.Error(), "code": errorCodes[apperrors.ErrValidation]})
}

// operatorOrAbort returns the authenticated operator, answering 401 when there is none.
func operatorOrAbort(c *gin.Context, logger *slog.Logger) (string, bool) {
	operatorID, ok := middleware.GetOperatorIDFromContext(c)
	if !ok {
		logger.Error("Operator ID not found in context")
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return "", false
	}
	return operatorID, true
}

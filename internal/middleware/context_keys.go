package middleware

import (
	"context"

	"github.com/gin-gonic/gin"
)

// operatorIDKey is the key used to store the authenticated operator's ID in the request context.
const operatorIDKey = contextKey("operatorID")

// WithOperatorID returns a copy of ctx carrying the operator id.
func WithOperatorID(ctx context.Context, operatorID string) context.Context {
	return context.WithValue(ctx, operatorIDKey, operatorID)
}

// GetOperatorIDFromContext retrieves the authenticated operator ID from the Gin context.
// It returns the operator ID and a boolean indicating if it was found.
func GetOperatorIDFromContext(c *gin.Context) (string, bool) {
	operatorID, ok := c.Request.Context().Value(operatorIDKey).(string)
	if !ok || operatorID == "" {
		return "", false
	}
	return operatorID, true
}

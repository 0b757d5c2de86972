package middleware

import (
	"time"

	"pssuai-admin/backend/internal/infra/session"

	"github.com/gin-gonic/gin"
)

// OfflineAuthMiddleware acts as a fixed operator in local mode, skipping the login gate.
type OfflineAuthMiddleware struct {
	operator session.Operator
}

// NewOfflineAuthMiddleware builds the local-mode authenticator.
func NewOfflineAuthMiddleware(operatorID string) *OfflineAuthMiddleware {
	return &OfflineAuthMiddleware{
		operator: session.Operator{ID: operatorID, LoginAt: time.Now().Truncate(time.Second)},
	}
}

// Handle injects the fixed operator.
func (m *OfflineAuthMiddleware) Handle() gin.HandlerFunc {
	return func(c *gin.Context) {
		SetOperator(c, m.operator)
		c.Next()
	}
}

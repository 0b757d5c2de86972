/*
 * @Author: NEFU AB-IN
 * @Date: 2025-10-15 14:22:03
 * @FilePath: \pssuai-admin\backend\internal\middleware\auth_middleware.go
 * @LastEditTime: 2025-10-15 14:22:09
 */
package middleware

import (
	"context"
	"net/http"
	"net/url"

	"pssuai-admin/backend/internal/infra/session"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const operatorKey = "operator"

// LoginPath is where unauthenticated browsers are sent.
const LoginPath = "/login"

// SessionVerifier is the part of session.Manager the middleware needs.
type SessionVerifier interface {
	Verify(ctx context.Context, raw string) (session.Operator, error)
}

// AuthMiddleware admits requests carrying a live operator session cookie.
type AuthMiddleware struct {
	verifier   SessionVerifier
	cookieName string
	log        *zap.SugaredLogger
}

// NewAuthMiddleware builds the session gate.
func NewAuthMiddleware(verifier SessionVerifier, cookieName string, log *zap.SugaredLogger) *AuthMiddleware {
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	return &AuthMiddleware{verifier: verifier, cookieName: cookieName, log: log}
}

// Handle verifies the cookie and stores the Operator on the context,
// redirecting to the login page otherwise.
func (m *AuthMiddleware) Handle() gin.HandlerFunc {
	return func(c *gin.Context) {
		raw, err := c.Cookie(m.cookieName)
		if err != nil || raw == "" {
			redirectToLogin(c)
			return
		}

		op, err := m.verifier.Verify(c.Request.Context(), raw)
		if err != nil {
			m.log.Debugw("session rejected", "path", c.Request.URL.Path, "error", err)
			redirectToLogin(c)
			return
		}

		SetOperator(c, op)
		c.Next()
	}
}

// LoginRedirect builds /login?next=<target>.
func LoginRedirect(target string) string {
	if target == "" {
		return LoginPath
	}
	return LoginPath + "?next=" + url.QueryEscape(target)
}

func redirectToLogin(c *gin.Context) {
	c.Redirect(http.StatusFound, LoginRedirect(c.Request.URL.RequestURI()))
	c.Abort()
}

// SetOperator stores the authenticated identity for downstream handlers.
func SetOperator(c *gin.Context, op session.Operator) {
	c.Set(operatorKey, op)
}

// OperatorFrom returns the identity set by an Authenticator.
func OperatorFrom(c *gin.Context) (session.Operator, bool) {
	value, ok := c.Get(operatorKey)
	if !ok {
		return session.Operator{}, false
	}
	op, ok := value.(session.Operator)
	return op, ok
}

/*
 * @Author: NEFU AB-IN
 * @Date: 2025-10-15 14:50:37
 * @FilePath: \pssuai-admin\backend\internal\handler\auth_handler.go
 * @LastEditTime: 2025-10-24 10:36:55
 */
package handler

import (
	"crypto/subtle"
	"net/http"
	"net/url"
	"strings"
	"time"

	"pssuai-admin/backend/internal/config"
	response "pssuai-admin/backend/internal/infra/common"
	"pssuai-admin/backend/internal/infra/session"
	"pssuai-admin/backend/internal/middleware"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

const errInvalidLogin = "invalid username or password"

// AuthHandler runs the operator login flow.
type AuthHandler struct {
	sessions *session.Manager
	operator config.OperatorSettings
	cookie   config.SessionSettings
	logger   *zap.SugaredLogger
}

// NewAuthHandler builds the handler.
func NewAuthHandler(sessions *session.Manager, operator config.OperatorSettings, cookie config.SessionSettings, logger *zap.SugaredLogger) *AuthHandler {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	return &AuthHandler{sessions: sessions, operator: operator, cookie: cookie, logger: logger.With("component", "auth")}
}

type loginRequest struct {
	Username string `form:"username" json:"username"`
	Password string `form:"password" json:"password"`
	Next     string `form:"next" json:"next"`
}

// Login handles POST /login from the login form (or JSON).
func (h *AuthHandler) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBind(&req); err != nil {
		response.Fail(c, http.StatusBadRequest, err.Error(), nil)
		return
	}

	next := req.Next
	if next == "" {
		next = c.Query("next")
	}

	username := strings.TrimSpace(req.Username)
	if !h.checkCredentials(username, strings.TrimSpace(req.Password)) {
		h.logger.Warnw("login rejected", "username", username, "client_ip", c.ClientIP())
		if c.ContentType() == gin.MIMEJSON {
			response.Fail(c, http.StatusUnauthorized, errInvalidLogin, nil)
			return
		}
		// The form goes back to the login page, keeping where it was headed.
		c.Redirect(http.StatusSeeOther, middleware.LoginPath+"?error=1&next="+url.QueryEscape(SafeNext(next)))
		return
	}

	token, op, err := h.sessions.Issue(c.Request.Context(), username)
	if err != nil {
		h.logger.Errorw("issue session failed", "error", err)
		response.Fail(c, http.StatusInternalServerError, "could not start session", nil)
		return
	}

	h.setCookie(c, token, int(h.sessions.TTL()/time.Second))
	h.logger.Infow("operator logged in", "operator", op.ID)
	c.Redirect(http.StatusSeeOther, SafeNext(next))
}

// Logout handles POST /logout.
func (h *AuthHandler) Logout(c *gin.Context) {
	if op, ok := middleware.OperatorFrom(c); ok {
		if err := h.sessions.Revoke(c.Request.Context(), op); err != nil {
			h.logger.Warnw("revoke session failed", "operator", op.ID, "error", err)
		}
	}
	h.setCookie(c, "", -1)
	c.Redirect(http.StatusSeeOther, middleware.LoginPath)
}

// Session handles GET /auth/session.
func (h *AuthHandler) Session(c *gin.Context) {
	op, ok := middleware.OperatorFrom(c)
	if !ok {
		response.Fail(c, http.StatusUnauthorized, "not logged in", nil)
		return
	}
	response.Success(c, http.StatusOK, response.Fields{
		"operator": op.ID,
		"login_at": op.LoginAt.UTC().Format(time.RFC3339),
	})
}

func (h *AuthHandler) checkCredentials(username, password string) bool {
	idMatch := subtle.ConstantTimeCompare([]byte(username), []byte(h.operator.ID)) == 1
	if h.operator.PasswordHash != "" {
		pwMatch := bcrypt.CompareHashAndPassword([]byte(h.operator.PasswordHash), []byte(password)) == nil
		return idMatch && pwMatch
	}
	pwMatch := subtle.ConstantTimeCompare([]byte(password), []byte(h.operator.Password)) == 1
	return idMatch && pwMatch
}

func (h *AuthHandler) setCookie(c *gin.Context, value string, maxAge int) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(h.cookie.CookieName, value, maxAge, "/", "", h.cookie.CookieSecure, true)
}

// SafeNext keeps post-login redirects on this site.
func SafeNext(next string) string {
	if next == "" || !strings.HasPrefix(next, "/") || strings.HasPrefix(next, "//") || strings.HasPrefix(next, "/\\") {
		return "/"
	}
	return next
}

/*
 * @Author: NEFU AB-IN
 * @Date: 2025-10-15 16:08:12
 * @FilePath: \pssuai-admin\backend\internal\handler\proxy_handler.go
 * @LastEditTime: 2025-10-16 09:41:27
 */
package handler

import (
	"net/http"
	"strconv"

	response "pssuai-admin/backend/internal/infra/common"
	"pssuai-admin/backend/internal/service/proxy"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// ProxyHandler exposes the upstream proxy endpoints.
type ProxyHandler struct {
	service *proxy.Service
	logger  *zap.SugaredLogger
}

// NewProxyHandler builds the handler.
func NewProxyHandler(service *proxy.Service, logger *zap.SugaredLogger) *ProxyHandler {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	return &ProxyHandler{service: service, logger: logger.With("component", "proxy_handler")}
}

// AccessEvents handles GET /api/access-events.
func (h *ProxyHandler) AccessEvents(c *gin.Context) {
	writeList(c, h.service.ListAccessEvents(c.Request.Context()))
}

// QrEvents handles GET /api/qr-events.
func (h *ProxyHandler) QrEvents(c *gin.Context) {
	writeList(c, h.service.ListQrEvents(c.Request.Context()))
}

func writeList(c *gin.Context, outcome proxy.ListOutcome) {
	if outcome.OK() {
		response.Rows(c, outcome.Rows)
		return
	}
	response.RowsFailed(c, outcome.Status, outcome.Error, outcome.Rows)
}

// DeleteResident handles DELETE /admin/residents/:id.
func (h *ProxyHandler) DeleteResident(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		response.Fail(c, http.StatusBadRequest, "invalid resident id", nil)
		return
	}

	outcome, err := h.service.DeleteResident(c.Request.Context(), id)
	if err != nil {
		response.Fail(c, http.StatusInternalServerError, err.Error(), response.Fields{"remote_ok": outcome.RemoteOK})
		return
	}

	response.Success(c, http.StatusOK, response.Fields{
		"remote_ok":   outcome.RemoteOK,
		"affected":    outcome.Affected,
		"remote_info": outcome.RemoteInfo,
	})
}

// Preflight answers OPTIONS with an empty 204.
func (h *ProxyHandler) Preflight(c *gin.Context) {
	response.NoContent(c)
}

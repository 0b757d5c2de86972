/*
 * @Author: NEFU AB-IN
 * @Date: 2025-10-15 16:40:44
 * @FilePath: \pssuai-admin\backend\internal\handler\health_handler.go
 * @LastEditTime: 2025-10-15 16:40:49
 */
package handler

import (
	"context"
	"net/http"
	"time"

	response "pssuai-admin/backend/internal/infra/common"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

const healthTimeout = 5 * time.Second

// HealthHandler probes the mirror database.
type HealthHandler struct {
	db *gorm.DB
}

// NewHealthHandler builds the handler.
func NewHealthHandler(db *gorm.DB) *HealthHandler {
	return &HealthHandler{db: db}
}

// DB handles GET /health/db with a SELECT 1 round trip.
func (h *HealthHandler) DB(c *gin.Context) {
	if h.db == nil {
		response.Fail(c, http.StatusInternalServerError, "database not configured", nil)
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), healthTimeout)
	defer cancel()

	var ok int
	if err := h.db.WithContext(ctx).Raw("SELECT 1 AS ok").Scan(&ok).Error; err != nil {
		response.Fail(c, http.StatusInternalServerError, err.Error(), nil)
		return
	}
	response.Success(c, http.StatusOK, response.Fields{"db": ok})
}

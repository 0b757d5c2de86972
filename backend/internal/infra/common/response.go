/*
 * @Author: NEFU AB-IN
 * @Date: 2025-10-14 09:45:10
 * @FilePath: \pssuai-admin\backend\internal\infra\common\response.go
 * @LastEditTime: 2025-10-14 09:45:14
 */
package response

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// Fields are the extra top-level keys of an envelope.
type Fields = gin.H

// Success writes {"ok": true, ...fields}.
func Success(c *gin.Context, status int, fields Fields) {
	if status == 0 {
		status = http.StatusOK
	}
	c.JSON(status, envelope(true, fields))
}

// Fail writes {"ok": false, "error": message, ...fields}.
func Fail(c *gin.Context, status int, message string, fields Fields) {
	if status == 0 {
		status = http.StatusInternalServerError
	}
	body := envelope(false, fields)
	body["error"] = message
	c.JSON(status, body)
}

// AbortWithFail is Fail plus c.Abort, for middleware and recovery.
func AbortWithFail(c *gin.Context, status int, message string) {
	Fail(c, status, message, nil)
	c.Abort()
}

// Rows writes the 200 list envelope. A nil slice is rendered as [].
func Rows[T any](c *gin.Context, rows []T) {
	Success(c, http.StatusOK, Fields{"rows": nonNil(rows)})
}

// RowsFailed writes a failed list envelope that still carries rows (possibly fallback ones).
func RowsFailed[T any](c *gin.Context, status int, message string, rows []T) {
	Fail(c, status, message, Fields{"rows": nonNil(rows)})
}

// NoContent writes 204 without a body.
func NoContent(c *gin.Context) {
	c.Status(http.StatusNoContent)
}

func envelope(ok bool, fields Fields) gin.H {
	body := gin.H{"ok": ok}
	for key, value := range fields {
		if key == "ok" {
			continue
		}
		body[key] = value
	}
	return body
}

func nonNil[T any](rows []T) []T {
	if rows == nil {
		return []T{}
	}
	return rows
}

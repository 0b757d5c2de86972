package handler

import (
	"net/http"
	"strconv"
	"strings"

	response "pssuai-admin/backend/internal/infra/common"
	"pssuai-admin/backend/internal/infra/remote"

	"github.com/gin-gonic/gin"
)

const jsonUTF8 = "application/json; charset=utf-8"

// relaySkippedHeaders no longer describe the buffered body we send.
var relaySkippedHeaders = map[string]struct{}{
	"Transfer-Encoding": {},
	"Content-Encoding":  {},
	"Content-Length":    {},
	"Connection":        {},
}

// ExternalResidents handles GET /external/residents by relaying the upstream listing.
func (h *ProxyHandler) ExternalResidents(c *gin.Context) {
	resp, err := h.service.LookupResidents(c.Request.Context())
	if err != nil {
		h.logger.Errorw("resident relay failed", "error", err)
		response.Fail(c, http.StatusBadGateway, err.Error(), response.Fields{"proxy": true})
		return
	}
	Relay(c, resp)
}

// Relay writes a buffered upstream answer back verbatim, re-framing it.
func Relay(c *gin.Context, resp *remote.RawResponse) {
	header := c.Writer.Header()
	for key, values := range resp.Header {
		canonical := http.CanonicalHeaderKey(key)
		if _, skip := relaySkippedHeaders[canonical]; skip {
			continue
		}
		if canonical == "Content-Type" {
			continue
		}
		for _, value := range values {
			header.Add(canonical, value)
		}
	}

	header.Set("Content-Type", NormalizeContentType(resp.Header.Get("Content-Type")))
	header.Set("Content-Length", strconv.Itoa(len(resp.Body)))
	c.Status(resp.StatusCode)
	_, _ = c.Writer.Write(resp.Body)
}

// NormalizeContentType makes JSON declare UTF-8 and defaults a missing type to JSON.
func NormalizeContentType(value string) string {
	value = strings.TrimSpace(value)
	if value == "" {
		return jsonUTF8
	}
	lower := strings.ToLower(value)
	if strings.Contains(lower, "application/json") && !strings.Contains(lower, "charset") {
		return jsonUTF8
	}
	return strings.NewReplacer("UTF8", "utf-8", "UTF-8", "utf-8", "Utf-8", "utf-8").Replace(value)
}

package response

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
)

func decode(t *testing.T, recorder *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	if err := json.Unmarshal(recorder.Body.Bytes(), &body); err != nil {
		t.Fatalf("unmarshal body: %v", err)
	}
	return body
}

func TestResponseSuccess(t *testing.T) {
	gin.SetMode(gin.TestMode)
	recorder := httptest.NewRecorder()
	ctx, _ := gin.CreateTestContext(recorder)

	Success(ctx, http.StatusAccepted, Fields{"db": 1, "ok": false})

	if recorder.Code != http.StatusAccepted {
		t.Fatalf("expected status %d, got %d", http.StatusAccepted, recorder.Code)
	}
	body := decode(t, recorder)
	if body["ok"] != true {
		t.Fatalf("expected ok=true regardless of fields, got %v", body["ok"])
	}
	if body["db"].(float64) != 1 {
		t.Fatalf("unexpected body: %v", body)
	}
}

func TestResponseFail(t *testing.T) {
	gin.SetMode(gin.TestMode)
	recorder := httptest.NewRecorder()
	ctx, _ := gin.CreateTestContext(recorder)

	Fail(ctx, 0, "boom", Fields{"remote_ok": true})

	if recorder.Code != http.StatusInternalServerError {
		t.Fatalf("expected default 500, got %d", recorder.Code)
	}
	body := decode(t, recorder)
	if body["ok"] != false || body["error"] != "boom" || body["remote_ok"] != true {
		t.Fatalf("unexpected body: %v", body)
	}
}

func TestResponseRowsNeverNull(t *testing.T) {
	gin.SetMode(gin.TestMode)

	recorder := httptest.NewRecorder()
	ctx, _ := gin.CreateTestContext(recorder)
	Rows[map[string]any](ctx, nil)
	if recorder.Body.String() != `{"ok":true,"rows":[]}` {
		t.Fatalf("unexpected body: %s", recorder.Body.String())
	}

	recorder = httptest.NewRecorder()
	ctx, _ = gin.CreateTestContext(recorder)
	RowsFailed[map[string]any](ctx, http.StatusBadGateway, "remote failed", nil)
	if recorder.Code != http.StatusBadGateway {
		t.Fatalf("expected 502, got %d", recorder.Code)
	}
	body := decode(t, recorder)
	rows, ok := body["rows"].([]any)
	if !ok || len(rows) != 0 || body["error"] != "remote failed" {
		t.Fatalf("unexpected body: %v", body)
	}
}

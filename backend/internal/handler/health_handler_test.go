package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func setupMockHealth(t *testing.T) (sqlmock.Sqlmock, *gin.Engine) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = sqlDB.Close() })

	db, err := gorm.Open(mysql.New(mysql.Config{Conn: sqlDB, SkipInitializeWithVersion: true}), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	router := gin.New()
	router.GET("/health/db", NewHealthHandler(db).DB)
	return mock, router
}

func TestHealthDB_OK(t *testing.T) {
	mock, router := setupMockHealth(t)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT 1 AS ok")).
		WillReturnRows(sqlmock.NewRows([]string{"ok"}).AddRow(1))

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health/db", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"ok":true,"db":1}`, rec.Body.String())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestHealthDB_Failure(t *testing.T) {
	mock, router := setupMockHealth(t)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT 1 AS ok")).
		WillReturnError(errors.New("connection refused"))

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health/db", nil))

	require.Equal(t, http.StatusInternalServerError, rec.Code)
	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, false, body["ok"])
	assert.Contains(t, body["error"], "connection refused")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestHealthDB_NotConfigured(t *testing.T) {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.GET("/health/db", NewHealthHandler(nil).DB)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health/db", nil))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

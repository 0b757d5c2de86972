package server

import (
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"pssuai-admin/backend/internal/handler"
	response "pssuai-admin/backend/internal/infra/common"
	"pssuai-admin/backend/internal/middleware"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

type RouterOptions struct {
	AuthHandler   *handler.AuthHandler
	ProxyHandler  *handler.ProxyHandler
	HealthHandler *handler.HealthHandler
	AuthMW        middleware.Authenticator
	CORSOrigins   []string
	StaticDir     string
	Logger        *zap.SugaredLogger
}

// NewRouter assembles the gin engine with every route and the shared middleware.
func NewRouter(opts RouterOptions) *gin.Engine {
	if gin.Mode() != gin.TestMode {
		gin.SetMode(gin.ReleaseMode)
	}
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}

	r := gin.New()
	r.Use(middleware.RequestLogger(logger.With("component", "http")))
	r.Use(gin.CustomRecovery(func(c *gin.Context, recovered any) {
		logger.Errorw("panic recovered", "path", c.Request.URL.Path, "panic", recovered)
		response.AbortWithFail(c, http.StatusInternalServerError, "internal server error")
	}))
	if len(opts.CORSOrigins) > 0 {
		r.Use(corsExceptResidentPreflight(corsConfig(opts.CORSOrigins)))
	}

	if opts.StaticDir != "" {
		if info, err := os.Stat(opts.StaticDir); err == nil && info.IsDir() {
			r.Static("/static", opts.StaticDir)
		}
	}

	r.GET("/metrics", gin.WrapH(promhttp.Handler()))
	if opts.HealthHandler != nil {
		r.GET("/health/db", opts.HealthHandler.DB)
	}

	if opts.AuthHandler != nil {
		r.GET(middleware.LoginPath, servePage(opts.StaticDir, "login.html"))
		r.POST(middleware.LoginPath, opts.AuthHandler.Login)
	}

	// Preflight stays outside the session gate.
	if opts.ProxyHandler != nil {
		r.OPTIONS(residentsAdminPath+":id", opts.ProxyHandler.Preflight)
	}

	// Everything below needs an operator session.
	secured := r.Group("")
	if opts.AuthMW != nil {
		secured.Use(opts.AuthMW.Handle())
	}
	secured.GET("/", servePage(opts.StaticDir, "admin.html"))

	if opts.AuthHandler != nil {
		secured.POST("/logout", opts.AuthHandler.Logout)
		secured.GET("/auth/session", opts.AuthHandler.Session)
	}

	if opts.ProxyHandler != nil {
		api := secured.Group("/api")
		{
			api.GET("/access-events", opts.ProxyHandler.AccessEvents)
			api.GET("/qr-events", opts.ProxyHandler.QrEvents)
		}
		secured.GET("/external/residents", opts.ProxyHandler.ExternalResidents)
		secured.DELETE(residentsAdminPath+":id", opts.ProxyHandler.DeleteResident)
	}

	return r
}

// LogRoutes prints the route map once at startup.
func LogRoutes(r *gin.Engine, logger *zap.SugaredLogger) {
	if logger == nil {
		return
	}
	for _, route := range r.Routes() {
		logger.Infow("route", "method", route.Method, "path", route.Path)
	}
}

const residentsAdminPath = "/admin/residents/"

// corsExceptResidentPreflight hands the resident delete preflight from a
// foreign origin to its own handler, which answers 204 unconditionally.
func corsExceptResidentPreflight(cfg cors.Config) gin.HandlerFunc {
	handler := cors.New(cfg)
	return func(c *gin.Context) {
		if c.Request.Method == http.MethodOptions &&
			strings.HasPrefix(c.Request.URL.Path, residentsAdminPath) &&
			!cfg.AllowOriginFunc(c.GetHeader("Origin")) {
			c.Next()
			return
		}
		handler(c)
	}
}

func corsConfig(origins []string) cors.Config {
	allowed := make(map[string]struct{}, len(origins))
	for _, origin := range origins {
		allowed[strings.TrimRight(origin, "/")] = struct{}{}
	}
	return cors.Config{
		AllowMethods:     []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept"},
		ExposeHeaders:    []string{"Content-Length", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
		AllowOriginFunc: func(origin string) bool {
			_, ok := allowed[origin]
			return ok
		},
	}
}

func servePage(dir, name string) gin.HandlerFunc {
	return func(c *gin.Context) {
		path := filepath.Join(dir, name)
		if dir == "" {
			response.Fail(c, http.StatusNotFound, "page not found", nil)
			return
		}
		if _, err := os.Stat(path); err != nil {
			response.Fail(c, http.StatusNotFound, "page not found", nil)
			return
		}
		c.File(path)
	}
}

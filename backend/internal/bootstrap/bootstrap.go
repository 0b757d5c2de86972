/*
 * @Author: NEFU AB-IN
 * @Date: 2025-10-14 10:15:33
 * @FilePath: \pssuai-admin\backend\internal\bootstrap\bootstrap.go
 * @LastEditTime: 2025-10-17 16:20:41
 */
package bootstrap

import (
	"context"
	"net/http"

	"pssuai-admin/backend/internal/app"
	"pssuai-admin/backend/internal/handler"
	"pssuai-admin/backend/internal/infra/remote"
	"pssuai-admin/backend/internal/infra/session"
	"pssuai-admin/backend/internal/middleware"
	"pssuai-admin/backend/internal/repository"
	"pssuai-admin/backend/internal/server"
	"pssuai-admin/backend/internal/service/proxy"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Application is the assembled HTTP backend.
type Application struct {
	Resources *app.Resources
	Proxy     *proxy.Service
	Sessions  *session.Manager
	Engine    *gin.Engine
	Router    http.Handler
}

// BuildApplication wires repositories, services, handlers and the router on top of resources.
func BuildApplication(_ context.Context, logger *zap.SugaredLogger, resources *app.Resources) (*Application, error) {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	settings := resources.Settings

	upstream := remote.NewClient(settings.Remote.BaseURL, remote.WithLogger(logger.With("component", "resty")))
	mirrorRepo := repository.NewMirrorRepository(resources.DB)
	residentRepo := repository.NewResidentRepository(resources.DB)

	proxyService := proxy.NewService(proxy.Config{
		SyncToDB:      settings.SyncToDB,
		FallbackLimit: settings.FallbackLimit,
		ReadTimeout:   settings.Remote.ReadTimeout,
		LookupTimeout: settings.Remote.LookupTimeout,
		DeleteTimeout: settings.Remote.DeleteTimeout,
	}, upstream, mirrorRepo, residentRepo, logger)

	var store session.Store
	if resources.Redis != nil {
		store = session.NewRedisStore(resources.Redis, "")
	} else {
		store = session.NewMemoryStore()
		logger.Infow("using in-memory session store; sessions won't survive restarts")
	}
	sessions := session.NewManager(settings.Session.Secret, settings.Session.TTL, store)

	var authMW middleware.Authenticator
	if settings.IsLocal() {
		authMW = middleware.NewOfflineAuthMiddleware(settings.Operator.ID)
		logger.Infow("local mode: login gate disabled", "operator", settings.Operator.ID)
	} else {
		authMW = middleware.NewAuthMiddleware(sessions, settings.Session.CookieName, logger)
	}

	engine := server.NewRouter(server.RouterOptions{
		AuthHandler:   handler.NewAuthHandler(sessions, settings.Operator, settings.Session, logger),
		ProxyHandler:  handler.NewProxyHandler(proxyService, logger),
		HealthHandler: handler.NewHealthHandler(resources.DB),
		AuthMW:        authMW,
		CORSOrigins:   settings.CORSOrigins,
		StaticDir:     settings.StaticDir,
		Logger:        logger,
	})

	return &Application{
		Resources: resources,
		Proxy:     proxyService,
		Sessions:  sessions,
		Engine:    engine,
		Router:    engine,
	}, nil
}

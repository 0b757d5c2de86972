/*
 * @Author: NEFU AB-IN
 * @Date: 2025-10-14 09:12:40
 * @FilePath: \pssuai-admin\backend\cmd\server\main.go
 * @LastEditTime: 2025-10-14 09:13:02
 */
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"pssuai-admin/backend/internal/app"
	"pssuai-admin/backend/internal/bootstrap"
	"pssuai-admin/backend/internal/config"
	"pssuai-admin/backend/internal/infra/logger"
	"pssuai-admin/backend/internal/infra/metrics"
	"pssuai-admin/backend/internal/server"
)

const shutdownTimeout = 10 * time.Second

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	settings := config.Load()

	if _, err := logger.Init(); err != nil {
		panic(err)
	}
	defer logger.Sync()
	log := logger.S()

	metrics.MustRegister()

	resources, err := app.InitResources(ctx, settings, log)
	if err != nil {
		log.Fatalw("init resources failed", "error", err)
	}
	defer func() {
		if err := resources.Close(); err != nil {
			log.Warnw("resource cleanup error", "error", err)
		}
	}()

	application, err := bootstrap.BuildApplication(ctx, log, resources)
	if err != nil {
		log.Fatalw("build application failed", "error", err)
	}
	server.LogRoutes(application.Engine, log.With("component", "router"))

	srv := &http.Server{
		Addr:              ":" + settings.Port,
		Handler:           application.Router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Infow("server listening", "addr", srv.Addr, "mode", settings.Mode, "remote", settings.Remote.BaseURL, "sync_to_db", settings.SyncToDB)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalw("server error", "error", err)
		}
	}()

	<-ctx.Done()
	log.Infow("shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Errorw("graceful shutdown failed", "error", err)
	}
}

/*
 * @Author: NEFU AB-IN
 * @Date: 2025-10-21 15:02:11
 * @FilePath: \pssuai-admin\backend\cmd\export-offline-data\main.go
 * @LastEditTime: 2025-10-21 15:04:37
 */
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"pssuai-admin/backend/internal/app"
	"pssuai-admin/backend/internal/bootstrapdata"
	"pssuai-admin/backend/internal/config"
	"pssuai-admin/backend/internal/infra/logger"
)

var outputDir = flag.String("output-dir", "", "snapshot directory, defaults to LOCAL_BOOTSTRAP_DATA_DIR or data/bootstrap")

// main dumps the configured mirror database into JSON snapshots for local mode.
func main() {
	flag.Parse()

	dest := strings.TrimSpace(*outputDir)
	if dest == "" {
		dest = bootstrapdata.ResolveDataDir()
	}

	zapLogger, err := logger.Init()
	if err != nil {
		panic(fmt.Sprintf("init logger failed: %v", err))
	}
	defer logger.Sync()
	sugar := zapLogger.Sugar()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	resources, err := app.InitResources(ctx, config.Load(), sugar)
	if err != nil {
		sugar.Fatalw("init resources failed", "error", err)
	}
	defer func() {
		if cerr := resources.Close(); cerr != nil {
			sugar.Warnw("close resources failed", "error", cerr)
		}
	}()

	if err := bootstrapdata.ExportSnapshot(ctx, resources.DB, bootstrapdata.ExportOptions{
		OutputDir: dest,
		Logger:    sugar.With("component", "export-offline-data"),
	}); err != nil {
		sugar.Fatalw("export snapshot failed", "error", err)
	}

	sugar.Infow("export snapshot completed", "output_dir", dest)
}

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

var (
	outputPath = flag.String("output", "", "SQLite file to create, defaults to LOCAL_SQLITE_PATH")
	dataDir    = flag.String("data-dir", "", "snapshot directory, defaults to LOCAL_BOOTSTRAP_DATA_DIR")
)

// main builds a local-mode SQLite mirror seeded from JSON snapshots.
func main() {
	flag.Parse()

	if *dataDir != "" {
		if err := os.Setenv("LOCAL_BOOTSTRAP_DATA_DIR", strings.TrimSpace(*dataDir)); err != nil {
			panic(fmt.Sprintf("set LOCAL_BOOTSTRAP_DATA_DIR failed: %v", err))
		}
	}

	settings := config.Load()
	settings.Mode = config.ModeLocal
	if path := strings.TrimSpace(*outputPath); path != "" {
		settings.LocalSQLitePath = path
	}

	zapLogger, err := logger.Init()
	if err != nil {
		panic(fmt.Sprintf("init logger failed: %v", err))
	}
	defer logger.Sync()
	sugar := zapLogger.Sugar()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	resources, err := app.InitResources(ctx, settings, sugar)
	if err != nil {
		sugar.Fatalw("initialise resources failed", "error", err)
	}
	defer func() {
		if closeErr := resources.Close(); closeErr != nil {
			sugar.Warnw("close resources failed", "error", closeErr)
		}
	}()

	counts, err := bootstrapdata.CountRows(ctx, resources.DB)
	if err != nil {
		sugar.Warnw("report seed summary failed", "error", err)
	} else {
		sugar.Infow("seed summary", "tables", counts)
	}

	sugar.Infow(
		"offline database ready",
		"sqlite_path", settings.LocalSQLitePath,
		"data_dir", bootstrapdata.ResolveDataDir(),
	)
}

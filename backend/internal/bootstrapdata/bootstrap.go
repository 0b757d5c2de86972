package bootstrapdata

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"pssuai-admin/backend/internal/domain/mirror"
	"pssuai-admin/backend/internal/infra/remote"
	"pssuai-admin/backend/internal/repository"

	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const (
	envDataDir              = "LOCAL_BOOTSTRAP_DATA_DIR"
	defaultBootstrapDataDir = "data/bootstrap"
)

// snapshot binds a mirror table to its JSON file and upsert routine.
type snapshot struct {
	table    string
	filename string
	upsert   func(*repository.MirrorRepository, context.Context, []map[string]any) (int, error)
}

var snapshots = []snapshot{
	{table: mirror.TableAccessEvents, filename: "access_events.json", upsert: (*repository.MirrorRepository).UpsertAccessEvents},
	{table: mirror.TableQrEvents, filename: "qr_events.json", upsert: (*repository.MirrorRepository).UpsertQrEvents},
}

// Options controls SeedLocalDatabase.
type Options struct {
	DataDir string
	Logger  *zap.SugaredLogger
}

// ResolveDataDir returns the snapshot directory from LOCAL_BOOTSTRAP_DATA_DIR.
func ResolveDataDir() string {
	raw := strings.TrimSpace(os.Getenv(envDataDir))
	if raw == "" {
		return defaultBootstrapDataDir
	}
	return raw
}

// SeedLocalDatabase loads snapshot files into mirror tables that are still empty.
// Missing files are skipped, so a fresh local database simply starts blank.
func SeedLocalDatabase(ctx context.Context, db *gorm.DB, opts Options) error {
	if db == nil {
		return errors.New("db is nil")
	}
	if opts.DataDir == "" {
		opts.DataDir = ResolveDataDir()
	}
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}

	for _, snap := range snapshots {
		if err := seedTable(ctx, db, opts.DataDir, snap, logger); err != nil {
			return err
		}
	}
	return nil
}

func seedTable(ctx context.Context, db *gorm.DB, dataDir string, snap snapshot, logger *zap.SugaredLogger) error {
	path := filepath.Join(dataDir, snap.filename)
	raw, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		logger.Infow("snapshot not found, skip", "table", snap.table, "path", path)
		return nil
	}
	if err != nil {
		return fmt.Errorf("read %s snapshot: %w", snap.table, err)
	}

	var existing int64
	if err := db.WithContext(ctx).Table(snap.table).Count(&existing).Error; err != nil {
		return fmt.Errorf("count %s: %w", snap.table, err)
	}
	if existing > 0 {
		logger.Infow("mirror table already populated, skip snapshot", "table", snap.table, "rows", existing)
		return nil
	}

	// Snapshots use the same envelopes the upstream API does.
	rows, err := remote.Normalize(raw)
	if err != nil {
		return fmt.Errorf("parse %s snapshot: %w", snap.table, err)
	}
	if len(rows) == 0 {
		logger.Infow("snapshot empty, skip", "table", snap.table)
		return nil
	}

	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		written, err := snap.upsert(repository.NewMirrorRepository(tx), ctx, remote.Records(rows))
		if err != nil {
			return fmt.Errorf("seed %s: %w", snap.table, err)
		}
		logger.Infow("seeded mirror table", "table", snap.table, "rows", written, "total", len(rows))
		return nil
	})
}

// ExportOptions controls ExportSnapshot.
type ExportOptions struct {
	OutputDir string
	Logger    *zap.SugaredLogger
}

// ExportSnapshot writes every mirror row's original payload to one JSON file per table,
// in the format SeedLocalDatabase reads back.
func ExportSnapshot(ctx context.Context, db *gorm.DB, opts ExportOptions) error {
	if db == nil {
		return errors.New("db is nil")
	}
	if opts.OutputDir == "" {
		opts.OutputDir = ResolveDataDir()
	}
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	if err := ensureDir(opts.OutputDir); err != nil {
		return fmt.Errorf("ensure output dir: %w", err)
	}

	for _, snap := range snapshots {
		count, err := exportTable(ctx, db, snap.table, filepath.Join(opts.OutputDir, snap.filename))
		if err != nil {
			return err
		}
		logger.Infow("exported mirror table", "table", snap.table, "rows", count)
	}
	return nil
}

func exportTable(ctx context.Context, db *gorm.DB, table, path string) (int, error) {
	var payloads []datatypes.JSON
	if err := db.WithContext(ctx).Table(table).Where("raw_json IS NOT NULL").Order("id ASC").Pluck("raw_json", &payloads).Error; err != nil {
		return 0, fmt.Errorf("query %s: %w", table, err)
	}

	items := make([]any, 0, len(payloads))
	for _, payload := range payloads {
		if len(bytes.TrimSpace(payload)) == 0 {
			continue
		}
		dec := json.NewDecoder(bytes.NewReader(payload))
		dec.UseNumber()
		var item any
		if err := dec.Decode(&item); err != nil {
			return 0, fmt.Errorf("decode %s raw_json: %w", table, err)
		}
		items = append(items, item)
	}
	if err := writeJSON(path, items); err != nil {
		return 0, fmt.Errorf("write %s snapshot: %w", table, err)
	}
	return len(items), nil
}

// CountRows reports the row count of each mirror table.
func CountRows(ctx context.Context, db *gorm.DB) (map[string]int64, error) {
	if db == nil {
		return nil, errors.New("db is nil")
	}
	counts := make(map[string]int64, 3)
	for _, table := range []string{mirror.TableAccessEvents, mirror.TableQrEvents, mirror.TableResidents} {
		var n int64
		if err := db.WithContext(ctx).Table(table).Count(&n).Error; err != nil {
			return nil, fmt.Errorf("count %s: %w", table, err)
		}
		counts[table] = n
	}
	return counts, nil
}

func writeJSON(path string, payload any) error {
	if err := ensureDir(filepath.Dir(path)); err != nil {
		return err
	}
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(payload); err != nil {
		return err
	}
	return os.WriteFile(path, buf.Bytes(), 0o644)
}

func ensureDir(dir string) error {
	if dir == "" || dir == "." {
		return nil
	}
	return os.MkdirAll(dir, 0o755)
}

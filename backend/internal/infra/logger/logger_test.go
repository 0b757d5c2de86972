package logger

import (
	"os"
	"path/filepath"
	"testing"

	"go.uber.org/zap"
)

func TestOptionsFromEnvDefaults(t *testing.T) {
	for _, key := range []string{"LOG_LEVEL", "LOG_ENCODING", "LOG_FILE", "LOG_MAX_SIZE", "LOG_COMPRESS"} {
		t.Setenv(key, "")
	}

	opts := OptionsFromEnv()
	if opts.Level != "info" || opts.Encoding != "json" {
		t.Fatalf("unexpected defaults: %+v", opts)
	}
	if opts.FilePath != filepath.Join("logs", "admin.log") {
		t.Fatalf("unexpected file path: %s", opts.FilePath)
	}
	if opts.MaxSize != 20 || !opts.Compress {
		t.Fatalf("unexpected rotation defaults: %+v", opts)
	}
}

func TestOptionsFromEnvDisableFile(t *testing.T) {
	t.Setenv("LOG_FILE", "off")
	t.Setenv("LOG_MAX_SIZE", "-3")

	opts := OptionsFromEnv()
	if !opts.DisableFile {
		t.Fatalf("expected file output disabled")
	}
	if opts.MaxSize != 20 {
		t.Fatalf("negative size should keep default, got %d", opts.MaxSize)
	}
}

func TestNewWritesRotatedFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "admin.log")

	l, err := New(Options{Level: "debug", Encoding: "json", FilePath: path, MaxSize: 1})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	l.Info("hello", zap.String("k", "v"))
	_ = l.Sync()

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read log file: %v", err)
	}
	if len(data) == 0 {
		t.Fatalf("expected log output in file")
	}
}

func TestNewRejectsBadLevel(t *testing.T) {
	if _, err := New(Options{Level: "loud", DisableFile: true}); err == nil {
		t.Fatalf("expected invalid level error")
	}
}

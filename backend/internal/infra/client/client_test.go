package infra

import (
	"context"
	"path/filepath"
	"strconv"
	"testing"
	"time"

	"pssuai-admin/backend/internal/config"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/go-sql-driver/mysql"
)

func TestNewDefaultMySQLConfigDefaults(t *testing.T) {
	config.SetEnvFileLoadingForTest(false)
	t.Cleanup(func() { config.SetEnvFileLoadingForTest(true) })

	for _, key := range []string{envDBHost, envDBPort, envDBUser, envDBPassword, envDBName, envDBParams} {
		t.Setenv(key, "")
	}

	cfg, err := NewDefaultMySQLConfig()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Host != "127.0.0.1" || cfg.Port != 3306 || cfg.Username != "root" || cfg.Database != "pssuai_db" {
		t.Fatalf("unexpected defaults: %+v", cfg)
	}
}

func TestNewDefaultMySQLConfigBadPort(t *testing.T) {
	config.SetEnvFileLoadingForTest(false)
	t.Cleanup(func() { config.SetEnvFileLoadingForTest(true) })

	t.Setenv(envDBPort, "abc")
	if _, err := NewDefaultMySQLConfig(); err == nil {
		t.Fatalf("expected port validation error")
	}
}

func TestBuildMySQLDSN(t *testing.T) {
	dsn, err := BuildMySQLDSN(MySQLConfig{
		Host:     "10.0.0.5",
		Port:     3310,
		Username: "admin",
		Password: "s3cret",
		Database: "pssuai_db",
		Params:   "timeout=5s",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	parsed, err := mysql.ParseDSN(dsn)
	if err != nil {
		t.Fatalf("parse dsn %q: %v", dsn, err)
	}
	if parsed.Addr != "10.0.0.5:3310" || parsed.User != "admin" || parsed.Passwd != "s3cret" || parsed.DBName != "pssuai_db" {
		t.Fatalf("unexpected dsn fields: %+v", parsed)
	}
	if !parsed.ParseTime {
		t.Fatalf("expected parseTime=true")
	}
	if parsed.Timeout != 5*time.Second {
		t.Fatalf("expected timeout param applied, got %s", parsed.Timeout)
	}
}

func TestBuildMySQLDSNValidation(t *testing.T) {
	if _, err := BuildMySQLDSN(MySQLConfig{}); err == nil {
		t.Fatalf("expected validation error")
	}
}

func TestNewGORMSQLiteCreatesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data", "mirror.db")
	db, sqlDB, err := NewGORMSQLite(path)
	if err != nil {
		t.Fatalf("NewGORMSQLite: %v", err)
	}
	t.Cleanup(func() { _ = sqlDB.Close() })

	var one int
	if err := db.Raw("SELECT 1").Scan(&one).Error; err != nil || one != 1 {
		t.Fatalf("select 1: %v (%d)", err, one)
	}
}

func TestNewDefaultRedisOptions(t *testing.T) {
	config.SetEnvFileLoadingForTest(false)
	t.Cleanup(func() { config.SetEnvFileLoadingForTest(true) })

	t.Setenv(envRedisEndpoint, "")
	if _, ok, err := NewDefaultRedisOptions(); err != nil || ok {
		t.Fatalf("expected redis disabled without endpoint, ok=%v err=%v", ok, err)
	}

	t.Setenv(envRedisEndpoint, "127.0.0.1:6380")
	t.Setenv(envRedisDB, "2")
	opts, ok, err := NewDefaultRedisOptions()
	if err != nil || !ok {
		t.Fatalf("unexpected result ok=%v err=%v", ok, err)
	}
	if opts.Host != "127.0.0.1" || opts.Port != 6380 || opts.DB != 2 {
		t.Fatalf("unexpected options: %+v", opts)
	}
}

func TestNewRedisClient(t *testing.T) {
	server, err := miniredis.Run()
	if err != nil {
		t.Fatalf("start miniredis: %v", err)
	}
	defer server.Close()

	port, err := strconv.Atoi(server.Port())
	if err != nil {
		t.Fatalf("parse port: %v", err)
	}

	client, err := NewRedisClient(RedisOptions{Host: server.Host(), Port: port, Timeout: time.Second})
	if err != nil {
		t.Fatalf("NewRedisClient: %v", err)
	}
	t.Cleanup(func() { _ = client.Close() })

	if err := client.Set(context.Background(), "foo", "bar", 0).Err(); err != nil {
		t.Fatalf("redis set: %v", err)
	}
}

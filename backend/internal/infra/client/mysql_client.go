/*
 * @Author: NEFU AB-IN
 * @Date: 2025-10-14 09:52:36
 * @FilePath: \pssuai-admin\backend\internal\infra\client\mysql_client.go
 * @LastEditTime: 2025-10-14 09:52:41
 */
package infra

import (
	"database/sql"
	"fmt"
	"net"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"pssuai-admin/backend/internal/config"

	"github.com/go-sql-driver/mysql"
	mysqlDriver "gorm.io/driver/mysql"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

const (
	envDBHost     = "DB_HOST"
	envDBPort     = "DB_PORT"
	envDBUser     = "DB_USER"
	envDBPassword = "DB_PASSWORD"
	envDBName     = "DB_NAME"
	envDBParams   = "DB_PARAMS"
)

const (
	defaultMySQLHost     = "127.0.0.1"
	defaultMySQLPort     = 3306
	defaultMySQLUser     = "root"
	defaultMySQLDatabase = "pssuai_db"
	defaultMySQLCharset  = "utf8mb4"
)

// MySQLConfig holds the mirror database connection parameters.
type MySQLConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	Database string
	// Params carries extra DSN parameters in query-string form, e.g. "timeout=5s".
	Params string
}

// NewDefaultMySQLConfig reads DB_* variables, applying local development defaults.
func NewDefaultMySQLConfig() (MySQLConfig, error) {
	config.LoadEnvFiles()

	cfg := MySQLConfig{
		Host:     envOr(envDBHost, defaultMySQLHost),
		Port:     defaultMySQLPort,
		Username: envOr(envDBUser, defaultMySQLUser),
		Password: os.Getenv(envDBPassword),
		Database: envOr(envDBName, defaultMySQLDatabase),
		Params:   strings.TrimSpace(os.Getenv(envDBParams)),
	}
	if raw := strings.TrimSpace(os.Getenv(envDBPort)); raw != "" {
		port, err := strconv.Atoi(raw)
		if err != nil || port <= 0 {
			return MySQLConfig{}, fmt.Errorf("invalid %s: %q", envDBPort, raw)
		}
		cfg.Port = port
	}
	return cfg, nil
}

func validateMySQLConfig(cfg MySQLConfig) error {
	if cfg.Host == "" {
		return fmt.Errorf("mysql host is required")
	}
	if cfg.Username == "" {
		return fmt.Errorf("mysql username is required")
	}
	if cfg.Database == "" {
		return fmt.Errorf("mysql database is required")
	}
	return nil
}

// BuildMySQLDSN renders a go-sql-driver DSN with utf8mb4 and parseTime enabled.
func BuildMySQLDSN(cfg MySQLConfig) (string, error) {
	if err := validateMySQLConfig(cfg); err != nil {
		return "", err
	}
	port := cfg.Port
	if port == 0 {
		port = defaultMySQLPort
	}

	mc := mysql.NewConfig()
	mc.User = cfg.Username
	mc.Passwd = cfg.Password
	mc.Net = "tcp"
	mc.Addr = net.JoinHostPort(cfg.Host, strconv.Itoa(port))
	mc.DBName = cfg.Database
	mc.ParseTime = true
	mc.Loc = time.Local
	mc.Params = map[string]string{"charset": defaultMySQLCharset}

	if cfg.Params != "" {
		extra, err := url.ParseQuery(cfg.Params)
		if err != nil {
			return "", fmt.Errorf("parse %s: %w", envDBParams, err)
		}
		for key, values := range extra {
			if len(values) > 0 {
				mc.Params[key] = values[len(values)-1]
			}
		}
	}

	return mc.FormatDSN(), nil
}

// NewGORMMySQL opens the MySQL mirror and returns both the ORM handle and the pool underneath.
func NewGORMMySQL(cfg MySQLConfig) (*gorm.DB, *sql.DB, error) {
	dsn, err := BuildMySQLDSN(cfg)
	if err != nil {
		return nil, nil, err
	}

	gormDB, err := gorm.Open(mysqlDriver.Open(dsn), &gorm.Config{Logger: gormlogger.Default.LogMode(gormlogger.Warn)})
	if err != nil {
		return nil, nil, fmt.Errorf("open gorm mysql: %w", err)
	}

	sqlDB, err := configurePool(gormDB)
	if err != nil {
		return nil, nil, err
	}
	return gormDB, sqlDB, nil
}

// NewGORMSQLite opens (and creates if needed) the local-mode mirror file.
func NewGORMSQLite(path string) (*gorm.DB, *sql.DB, error) {
	if path == "" {
		return nil, nil, fmt.Errorf("sqlite path is required")
	}
	if dir := filepath.Dir(path); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, nil, fmt.Errorf("create sqlite dir: %w", err)
		}
	}

	gormDB, err := gorm.Open(sqlite.Open(path), &gorm.Config{Logger: gormlogger.Default.LogMode(gormlogger.Warn)})
	if err != nil {
		return nil, nil, fmt.Errorf("open sqlite: %w", err)
	}
	sqlDB, err := gormDB.DB()
	if err != nil {
		return nil, nil, fmt.Errorf("get sql db: %w", err)
	}
	// single writer keeps SQLite from returning SQLITE_BUSY
	sqlDB.SetMaxOpenConns(1)
	return gormDB, sqlDB, nil
}

func configurePool(gormDB *gorm.DB) (*sql.DB, error) {
	sqlDB, err := gormDB.DB()
	if err != nil {
		return nil, fmt.Errorf("get sql db: %w", err)
	}

	sqlDB.SetConnMaxLifetime(60 * time.Minute)
	sqlDB.SetMaxIdleConns(10)
	sqlDB.SetMaxOpenConns(25)

	if err := sqlDB.Ping(); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("ping mysql: %w", err)
	}
	return sqlDB, nil
}

func envOr(key, fallback string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
	}
	return fallback
}

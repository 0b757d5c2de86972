/*
 * @Author: NEFU AB-IN
 * @Date: 2025-10-14 09:31:48
 * @FilePath: \pssuai-admin\backend\internal\config\settings.go
 * @LastEditTime: 2025-10-16 11:05:22
 */
package config

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

const (
	// ModeLocal runs against a SQLite mirror on disk, for offline demos.
	ModeLocal = "local"
	// ModeOnline is the default: MySQL mirror and the real upstream.
	ModeOnline = "online"

	defaultPort           = "5000"
	defaultRemoteBase     = "http://api.pssuai.com"
	defaultAdminID        = "admin"
	defaultAdminPassword  = "admin1234"
	defaultSessionSecret  = "change-this-in-.env"
	defaultSessionTTL     = 12 * time.Hour
	defaultFallbackLimit  = 500
	defaultReadTimeout    = 20 * time.Second
	defaultLookupTimeout  = 30 * time.Second
	defaultDeleteTimeout  = 15 * time.Second
	defaultLocalDBRelPath = "data/pssuai-local.db"
	defaultStaticDir      = "static"
)

// Settings is the static configuration read once at startup.
type Settings struct {
	Mode string
	Port string

	Remote   RemoteSettings
	Operator OperatorSettings
	Session  SessionSettings

	// SyncToDB mirrors every successful upstream list fetch into the database.
	SyncToDB      bool
	FallbackLimit int

	CORSOrigins     []string
	LocalSQLitePath string
	// StaticDir holds the dashboard assets and pages.
	StaticDir string
}

// RemoteSettings describes the upstream facility-access API.
type RemoteSettings struct {
	BaseURL       string
	ReadTimeout   time.Duration
	LookupTimeout time.Duration
	DeleteTimeout time.Duration
}

// OperatorSettings holds the single operator credential.
type OperatorSettings struct {
	ID       string
	Password string
	// PasswordHash is a bcrypt hash; when set it is checked instead of Password.
	PasswordHash string
}

// SessionSettings controls the session cookie.
type SessionSettings struct {
	Secret       string
	TTL          time.Duration
	CookieName   string
	CookieSecure bool
}

// Load reads Settings from the environment, loading env files first.
func Load() Settings {
	LoadEnvFiles()

	mode := strings.ToLower(env("APP_MODE", ModeOnline))
	if mode != ModeLocal {
		mode = ModeOnline
	}

	secret := env("SESSION_SECRET", "")
	if secret == "" {
		secret = env("FLASK_SECRET_KEY", defaultSessionSecret)
	}

	return Settings{
		Mode: mode,
		Port: env("APP_PORT", defaultPort),
		Remote: RemoteSettings{
			BaseURL:       strings.TrimRight(env("REMOTE_BASE", defaultRemoteBase), "/"),
			ReadTimeout:   envDuration("REMOTE_READ_TIMEOUT", defaultReadTimeout),
			LookupTimeout: envDuration("REMOTE_LOOKUP_TIMEOUT", defaultLookupTimeout),
			DeleteTimeout: envDuration("REMOTE_DELETE_TIMEOUT", defaultDeleteTimeout),
		},
		Operator: OperatorSettings{
			ID:           env("ADMIN_ID", defaultAdminID),
			Password:     env("ADMIN_PW", defaultAdminPassword),
			PasswordHash: env("ADMIN_PW_BCRYPT", ""),
		},
		Session: SessionSettings{
			Secret:       secret,
			TTL:          envDuration("SESSION_TTL", defaultSessionTTL),
			CookieName:   "pssuai_admin",
			CookieSecure: envBool("SESSION_COOKIE_SECURE", false),
		},
		SyncToDB:        envBool("SYNC_TO_DB", false),
		FallbackLimit:   envInt("FALLBACK_LIMIT", defaultFallbackLimit),
		CORSOrigins:     envList("CORS_ALLOWED_ORIGINS"),
		LocalSQLitePath: normalisePath(env("LOCAL_SQLITE_PATH", defaultLocalDBRelPath)),
		StaticDir:       env("STATIC_DIR", defaultStaticDir),
	}
}

// IsLocal reports whether the SQLite mirror should be used.
func (s Settings) IsLocal() bool {
	return s.Mode == ModeLocal
}

func env(key, fallback string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
	}
	return fallback
}

func envBool(key string, fallback bool) bool {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return fallback
	}
	if parsed, err := strconv.ParseBool(raw); err == nil {
		return parsed
	}
	return fallback
}

func envInt(key string, fallback int) int {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return fallback
	}
	if parsed, err := strconv.Atoi(raw); err == nil && parsed > 0 {
		return parsed
	}
	return fallback
}

// envDuration accepts Go durations ("20s") or a bare number of seconds.
func envDuration(key string, fallback time.Duration) time.Duration {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return fallback
	}
	if parsed, err := time.ParseDuration(raw); err == nil && parsed > 0 {
		return parsed
	}
	if seconds, err := strconv.Atoi(raw); err == nil && seconds > 0 {
		return time.Duration(seconds) * time.Second
	}
	return fallback
}

func envList(key string) []string {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

// normalisePath expands ~ and makes relative paths absolute.
func normalisePath(raw string) string {
	if raw == "" {
		return raw
	}
	if strings.HasPrefix(raw, "~") {
		if home, err := os.UserHomeDir(); err == nil {
			raw = filepath.Join(home, strings.TrimPrefix(raw, "~"))
		}
	}
	if filepath.IsAbs(raw) {
		return raw
	}
	if abs, err := filepath.Abs(raw); err == nil {
		return abs
	}
	return raw
}

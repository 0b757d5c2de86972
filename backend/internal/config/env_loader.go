/*
 * @Author: NEFU AB-IN
 * @Date: 2025-10-14 09:20:05
 * @FilePath: \pssuai-admin\backend\internal\config\env_loader.go
 * @LastEditTime: 2025-10-14 09:20:11
 */
package config

import (
	"log"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/joho/godotenv"
)

const envFileOverride = "ENV_FILE"

var (
	envOnce     sync.Once
	envOnceLock sync.Mutex
	skipEnvLoad bool
)

// LoadEnvFiles loads .env.local and .env exactly once, searching upward from the working directory.
// An explicit ENV_FILE path is loaded last so it wins over both.
func LoadEnvFiles() {
	envOnceLock.Lock()
	skip := skipEnvLoad
	envOnceLock.Unlock()
	if skip || os.Getenv("CONFIG_SKIP_ENV_LOAD") == "1" {
		return
	}

	envOnce.Do(func() {
		// .env is the base layer, .env.local overrides it.
		for _, name := range []string{".env", ".env.local"} {
			if path, ok := findEnvFile(name); ok {
				if err := godotenv.Overload(path); err == nil {
					log.Printf("[config] loaded environment file: %s", path)
				}
			}
		}
		if explicit := strings.TrimSpace(os.Getenv(envFileOverride)); explicit != "" {
			if err := godotenv.Overload(explicit); err != nil {
				log.Printf("[config] %s=%s could not be loaded: %v", envFileOverride, explicit, err)
			}
		}
	})
}

// SetEnvFileLoadingForTest toggles automatic env file loading. Intended for tests only.
func SetEnvFileLoadingForTest(enabled bool) {
	envOnceLock.Lock()
	defer envOnceLock.Unlock()

	skipEnvLoad = !enabled
	envOnce = sync.Once{}
}

func findEnvFile(name string) (string, bool) {
	cwd, err := os.Getwd()
	if err != nil {
		return "", false
	}

	dir := cwd
	for {
		candidate := filepath.Join(dir, name)
		if _, err := os.Stat(candidate); err == nil {
			return candidate, true
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}

	return "", false
}

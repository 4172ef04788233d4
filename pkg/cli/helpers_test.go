package cli

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/platinummonkey/taskboard/pkg/config"
)

// useTestConfig points every command at a fresh SQLite file
func useTestConfig(t *testing.T, env map[string]string) *config.Config {
	t.Helper()
	dsn := "file:" + filepath.Join(t.TempDir(), "taskboard.db") + "?_busy_timeout=5000"
	t.Setenv("TASKBOARD_DB_DRIVER", "sqlite3")
	t.Setenv("TASKBOARD_DB_URL", dsn)
	t.Setenv("TASKBOARD_LOG_LEVEL", "error")
	t.Setenv("TASKBOARD_PORT", "0")
	t.Setenv("TASKBOARD_HEALTH_PORT", "1")
	for k, v := range env {
		t.Setenv(k, v)
	}

	cfg, err := config.LoadConfig()
	require.NoError(t, err)

	previous := loadConfig
	loadConfig = func() (*config.Config, error) { return cfg, nil }
	t.Cleanup(func() { loadConfig = previous })
	return cfg
}

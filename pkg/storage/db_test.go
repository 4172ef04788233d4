package storage

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func memoryConfig() Config {
	cfg := DefaultConfig()
	cfg.DSN = ":memory:"
	return cfg
}

func TestOpen_SQLiteMemory(t *testing.T) {
	db, err := Open(context.Background(), memoryConfig())
	require.NoError(t, err)
	defer db.Close()

	assert.Equal(t, 1, db.Stats().MaxOpenConnections)
	assert.NoError(t, db.PingContext(context.Background()))
}

func TestOpen_UnsupportedDriver(t *testing.T) {
	cfg := memoryConfig()
	cfg.Driver = "mysql"

	_, err := Open(context.Background(), cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported database driver")
}

func TestOpen_MissingDSN(t *testing.T) {
	cfg := memoryConfig()
	cfg.DSN = ""

	_, err := Open(context.Background(), cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "DSN is required")
}

func TestIsMemoryDSN(t *testing.T) {
	assert.True(t, isMemoryDSN(":memory:"))
	assert.True(t, isMemoryDSN("file:test?mode=memory&cache=shared"))
	assert.False(t, isMemoryDSN("file:taskboard.db"))
	assert.False(t, isMemoryDSN("postgres://localhost/taskboard"))
}

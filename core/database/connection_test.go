package database

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AzielCF/az-lookups/core/config"
)

func TestNewDatabase_SQLite(t *testing.T) {
	cfg := &config.Config{Database: config.DatabaseConfig{
		Driver: "sqlite",
		Name:   filepath.Join(t.TempDir(), "nested", "lookups.db"),
	}}

	db, err := NewDatabase(cfg)
	require.NoError(t, err)
	defer Close(db)

	var one int
	require.NoError(t, db.Raw("SELECT 1").Scan(&one).Error)
	assert.Equal(t, 1, one)
}

func TestNewDatabase_UnsupportedDriver(t *testing.T) {
	_, err := NewDatabase(&config.Config{Database: config.DatabaseConfig{Driver: "mysql"}})
	assert.ErrorContains(t, err, "unsupported database driver")
}

package repository

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Rrens/community-market/internal/config"
)

func TestOpen_Memory(t *testing.T) {
	store, err := Open(context.Background(), config.DatabaseConfig{Driver: config.DriverMemory})
	require.NoError(t, err)
	defer store.Close()

	assert.NoError(t, store.Ping(context.Background()))
	assert.NotNil(t, store.Spaces)
	assert.NotNil(t, store.Members)
	assert.NotNil(t, store.Users)
	assert.NotNil(t, store.Listings)
}

func TestOpen_SQLiteFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "market.db")

	store, err := Open(context.Background(), config.DatabaseConfig{Driver: config.DriverSQLite, Path: path})
	require.NoError(t, err)
	defer store.Close()

	assert.NoError(t, store.Ping(context.Background()))

	ids, err := store.Users.ListIDs(context.Background())
	require.NoError(t, err)
	assert.Empty(t, ids)
}

func TestOpen_UnknownDriver(t *testing.T) {
	_, err := Open(context.Background(), config.DatabaseConfig{Driver: "oracle"})
	assert.Error(t, err)
}

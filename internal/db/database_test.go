package db

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Skotchmaster/taskboard/internal/models"
)

func TestOpen_EmptyDSN(t *testing.T) {
	t.Parallel()

	_, err := Open(context.Background(), "")
	require.Error(t, err)
}

func TestDialector_PicksDriver(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "sqlite", dialector("sqlite://taskboard.db").Name())
	assert.Equal(t, "sqlite", dialector("file::memory:?cache=shared").Name())
	assert.Equal(t, "postgres", dialector("postgres://u:p@localhost:5432/db").Name())
}

func TestOpenAndMigrate_SQLite(t *testing.T) {
	ctx := context.Background()

	gdb, err := Open(ctx, "file::memory:")
	require.NoError(t, err)
	require.NoError(t, Migrate(ctx, gdb))
	require.NoError(t, Ping(ctx, gdb))

	assert.True(t, gdb.Migrator().HasTable(&models.Column{}))
	assert.True(t, gdb.Migrator().HasIndex(&models.Column{}, "idx_columns_project_order"))
}

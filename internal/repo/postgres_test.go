package repo

import (
	"context"
	"os"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Skotchmaster/taskboard/internal/db"
	"github.com/Skotchmaster/taskboard/internal/models"
)

// Runs only when TASKBOARD_TEST_DATABASE_URL points at a disposable Postgres.
func newPostgresRepo(t *testing.T) *GormRepo {
	t.Helper()
	dsn := os.Getenv("TASKBOARD_TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("TASKBOARD_TEST_DATABASE_URL is not set")
	}
	ctx := context.Background()
	gdb, err := db.Open(ctx, dsn)
	require.NoError(t, err)
	require.NoError(t, db.Migrate(ctx, gdb))
	t.Cleanup(func() {
		if sqlDB, err := gdb.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	return &GormRepo{DB: gdb}
}

func TestPostgres_DuplicateOrderNamesIndex(t *testing.T) {
	r := newPostgresRepo(t)
	ctx := context.Background()
	owner := seedUser(t, r, "pg-dup-"+uuid.NewString()+"@x.io")
	p := seedProject(t, r, owner.ID)
	t.Cleanup(func() { _ = r.DeleteProject(context.Background(), p.ID) })
	seedColumns(t, r, p.ID, 0)

	err := r.CreateColumn(ctx, &models.Column{ProjectID: p.ID, Name: "dup", Order: 0})
	require.ErrorIs(t, err, ErrDuplicateKey)
	assert.True(t, IsColumnOrderViolation(err))
}

func TestPostgres_ConcurrentCreatesKeepOrderUnique(t *testing.T) {
	r := newPostgresRepo(t)
	ctx := context.Background()
	owner := seedUser(t, r, "pg-race-"+uuid.NewString()+"@x.io")
	p := seedProject(t, r, owner.ID)
	t.Cleanup(func() { _ = r.DeleteProject(context.Background(), p.ID) })

	const writers = 8
	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		ok, dup int
	)
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			err := r.CreateColumn(ctx, &models.Column{ProjectID: p.ID, Name: string(rune('a' + i)), Order: 3})
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				ok++
			case IsColumnOrderViolation(err):
				dup++
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}(i)
	}
	wg.Wait()

	assert.Equal(t, 1, ok)
	assert.Equal(t, writers-1, dup)
}

func TestPostgres_ConcurrentReordersStayConsistent(t *testing.T) {
	r := newPostgresRepo(t)
	ctx := context.Background()
	owner := seedUser(t, r, "pg-reorder-"+uuid.NewString()+"@x.io")
	p := seedProject(t, r, owner.ID)
	t.Cleanup(func() { _ = r.DeleteProject(context.Background(), p.ID) })
	cols := seedColumns(t, r, p.ID, 0, 1, 2)

	var wg sync.WaitGroup
	for i := 0; i < 6; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			moves := []ColumnMove{
				{ID: cols[i%3].ID, Order: 0},
				{ID: cols[(i+1)%3].ID, Order: 1},
				{ID: cols[(i+2)%3].ID, Order: 2},
			}
			_, err := r.ReorderColumns(ctx, p.ID, moves)
			assert.NoError(t, err)
		}(i)
	}
	wg.Wait()

	final, err := r.ListColumns(ctx, p.ID)
	require.NoError(t, err)
	require.Len(t, final, 3)
	for i, c := range final {
		assert.Equal(t, i, c.Order)
	}
}

package service

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/Skotchmaster/taskboard/internal/db"
	"github.com/Skotchmaster/taskboard/internal/events"
	"github.com/Skotchmaster/taskboard/internal/models"
	"github.com/Skotchmaster/taskboard/internal/repo"
)

type fixture struct {
	repo     *repo.GormRepo
	rec      *events.Recorder
	columns  *ColumnService
	projects *ProjectService
	tasks    *TaskService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	ctx := context.Background()

	gdb, err := db.Open(ctx, ":memory:")
	require.NoError(t, err)
	require.NoError(t, db.Migrate(ctx, gdb))
	sqlDB, err := gdb.DB()
	require.NoError(t, err)
	t.Cleanup(func() { _ = sqlDB.Close() })

	r := &repo.GormRepo{DB: gdb}
	rec := &events.Recorder{}
	return &fixture{
		repo:     r,
		rec:      rec,
		columns:  &ColumnService{Repo: r, Events: rec},
		projects: &ProjectService{Repo: r, Events: rec},
		tasks:    &TaskService{Repo: r, Events: rec},
	}
}

func (f *fixture) user(t *testing.T, email string) *models.User {
	t.Helper()
	u := &models.User{Email: email, Name: email, PasswordHash: "x"}
	require.NoError(t, f.repo.CreateUser(context.Background(), u))
	return u
}

func (f *fixture) project(t *testing.T, owner uuid.UUID) *models.Project {
	t.Helper()
	p, err := f.projects.Create(context.Background(), owner, "board", "")
	require.NoError(t, err)
	return p
}

func (f *fixture) column(t *testing.T, projectID uuid.UUID, name string, order int) *models.Column {
	t.Helper()
	c, err := f.columns.Create(context.Background(), projectID, name, &order)
	require.NoError(t, err)
	return c
}

func requireUniqueOrders(t *testing.T, cols []models.Column) {
	t.Helper()
	seen := map[int]uuid.UUID{}
	for _, c := range cols {
		prev, dup := seen[c.Order]
		require.Falsef(t, dup, "order %d held by %s and %s", c.Order, prev, c.ID)
		seen[c.Order] = c.ID
	}
}

func intPtr(v int) *int { return &v }

func strPtr(v string) *string { return &v }

package repo

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/Skotchmaster/taskboard/internal/db"
	"github.com/Skotchmaster/taskboard/internal/models"
)

func newTestRepo(t *testing.T) *GormRepo {
	t.Helper()

	gdb, err := gorm.Open(sqlite.Open(":memory:"), db.Config())
	require.NoError(t, err)
	sqlDB, err := gdb.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	require.NoError(t, gdb.AutoMigrate(models.All()...))

	t.Cleanup(func() { _ = sqlDB.Close() })
	return &GormRepo{DB: gdb}
}

func seedUser(t *testing.T, r *GormRepo, email string) *models.User {
	t.Helper()
	u := &models.User{Email: email, Name: email, PasswordHash: "x"}
	require.NoError(t, r.CreateUser(context.Background(), u))
	return u
}

func seedProject(t *testing.T, r *GormRepo, owner uuid.UUID) *models.Project {
	t.Helper()
	p := &models.Project{Name: "board", OwnerID: owner}
	require.NoError(t, r.CreateProject(context.Background(), p))
	return p
}

func seedColumns(t *testing.T, r *GormRepo, projectID uuid.UUID, orders ...int) []models.Column {
	t.Helper()
	out := make([]models.Column, 0, len(orders))
	for i, o := range orders {
		c := models.Column{ProjectID: projectID, Name: string(rune('A' + i)), Order: o}
		require.NoError(t, r.CreateColumn(context.Background(), &c))
		out = append(out, c)
	}
	return out
}

func ordersByID(cols []models.Column) map[uuid.UUID]int {
	m := make(map[uuid.UUID]int, len(cols))
	for _, c := range cols {
		m[c.ID] = c.Order
	}
	return m
}

func TestNextColumnOrder(t *testing.T) {
	r := newTestRepo(t)
	ctx := context.Background()
	owner := seedUser(t, r, "o@x.io")
	p := seedProject(t, r, owner.ID)

	next, err := r.NextColumnOrder(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, next)

	seedColumns(t, r, p.ID, 0, 2, 5)
	next, err = r.NextColumnOrder(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, 6, next)

	other := seedProject(t, r, owner.ID)
	next, err = r.NextColumnOrder(ctx, other.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, next)
}

func TestIsColumnOrderAvailable(t *testing.T) {
	r := newTestRepo(t)
	ctx := context.Background()
	owner := seedUser(t, r, "o@x.io")
	p := seedProject(t, r, owner.ID)
	cols := seedColumns(t, r, p.ID, 0, 2)

	ok, err := r.IsColumnOrderAvailable(ctx, p.ID, 2, nil)
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = r.IsColumnOrderAvailable(ctx, p.ID, 1, nil)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = r.IsColumnOrderAvailable(ctx, p.ID, 2, &cols[1].ID)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestCreateColumn_DuplicateOrderIsTranslated(t *testing.T) {
	r := newTestRepo(t)
	owner := seedUser(t, r, "o@x.io")
	p := seedProject(t, r, owner.ID)
	seedColumns(t, r, p.ID, 0)

	err := r.CreateColumn(context.Background(), &models.Column{ProjectID: p.ID, Name: "dup", Order: 0})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrDuplicateKey)
	assert.True(t, IsColumnOrderViolation(err))
}

func TestTranslateError_PassesThroughOtherErrors(t *testing.T) {
	t.Parallel()

	assert.NoError(t, translateError(nil))
	plain := errors.New("boom")
	assert.Same(t, plain, translateError(plain))
	assert.ErrorIs(t, translateError(gorm.ErrDuplicatedKey), ErrDuplicateKey)
	assert.False(t, IsColumnOrderViolation(plain))
}

func TestReorderColumns_SwapsThroughOccupiedSlots(t *testing.T) {
	r := newTestRepo(t)
	ctx := context.Background()
	owner := seedUser(t, r, "o@x.io")
	p := seedProject(t, r, owner.ID)
	cols := seedColumns(t, r, p.ID, 0, 1, 2)
	a, b, c := cols[0].ID, cols[1].ID, cols[2].ID

	out, err := r.ReorderColumns(ctx, p.ID, []ColumnMove{{ID: a, Order: 2}, {ID: b, Order: 0}, {ID: c, Order: 1}})
	require.NoError(t, err)

	got := ordersByID(out)
	assert.Equal(t, 2, got[a])
	assert.Equal(t, 0, got[b])
	assert.Equal(t, 1, got[c])
	assert.Equal(t, b, out[0].ID)
}

func TestReorderColumns_UnknownIDsRollBack(t *testing.T) {
	r := newTestRepo(t)
	ctx := context.Background()
	owner := seedUser(t, r, "o@x.io")
	p := seedProject(t, r, owner.ID)
	other := seedProject(t, r, owner.ID)
	cols := seedColumns(t, r, p.ID, 0, 1)
	foreign := seedColumns(t, r, other.ID, 0)

	stray := uuid.New()
	_, err := r.ReorderColumns(ctx, p.ID, []ColumnMove{{ID: cols[0].ID, Order: 1}, {ID: stray, Order: 0}, {ID: foreign[0].ID, Order: 2}})

	var unknown *UnknownColumnsError
	require.ErrorAs(t, err, &unknown)
	assert.ElementsMatch(t, []uuid.UUID{stray, foreign[0].ID}, unknown.IDs)

	after, err := r.ListColumns(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, ordersByID(cols), ordersByID(after))
}

func TestReorderColumns_UnlistedColumnsFollow(t *testing.T) {
	r := newTestRepo(t)
	ctx := context.Background()
	owner := seedUser(t, r, "o@x.io")
	p := seedProject(t, r, owner.ID)
	cols := seedColumns(t, r, p.ID, 0, 1, 2, 3)

	out, err := r.ReorderColumns(ctx, p.ID, []ColumnMove{{ID: cols[3].ID, Order: 0}})
	require.NoError(t, err)

	got := ordersByID(out)
	assert.Equal(t, 0, got[cols[3].ID])
	assert.Equal(t, 1, got[cols[0].ID])
	assert.Equal(t, 2, got[cols[1].ID])
	assert.Equal(t, 3, got[cols[2].ID])
	for _, col := range out {
		assert.GreaterOrEqual(t, col.Order, 0)
	}
}

func TestRepairColumnOrder_DensifiesAndIsIdempotent(t *testing.T) {
	r := newTestRepo(t)
	ctx := context.Background()
	owner := seedUser(t, r, "o@x.io")
	p := seedProject(t, r, owner.ID)
	cols := seedColumns(t, r, p.ID, 3, 7, 1)

	first, moved, err := r.RepairColumnOrder(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, 3, moved)

	got := ordersByID(first)
	assert.Equal(t, 0, got[cols[2].ID])
	assert.Equal(t, 1, got[cols[0].ID])
	assert.Equal(t, 2, got[cols[1].ID])

	second, moved, err := r.RepairColumnOrder(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, moved)
	assert.Equal(t, got, ordersByID(second))
}

func TestProjectsNeedingRepair(t *testing.T) {
	r := newTestRepo(t)
	ctx := context.Background()
	owner := seedUser(t, r, "o@x.io")
	dense := seedProject(t, r, owner.ID)
	gappy := seedProject(t, r, owner.ID)
	seedColumns(t, r, dense.ID, 0, 1, 2)
	seedColumns(t, r, gappy.ID, 0, 4)

	ids, err := r.ProjectsNeedingRepair(ctx)
	require.NoError(t, err)
	assert.Equal(t, []uuid.UUID{gappy.ID}, ids)
}

func TestDeleteColumn(t *testing.T) {
	r := newTestRepo(t)
	ctx := context.Background()
	owner := seedUser(t, r, "o@x.io")
	p := seedProject(t, r, owner.ID)
	cols := seedColumns(t, r, p.ID, 0, 1)

	require.NoError(t, r.CreateTask(ctx, &models.Task{ProjectID: p.ID, ColumnID: cols[0].ID, Title: "t", Priority: "medium"}))

	assert.ErrorIs(t, r.DeleteColumn(ctx, p.ID, cols[0].ID), ErrColumnHasTasks)
	require.NoError(t, r.DeleteColumn(ctx, p.ID, cols[1].ID))
	assert.ErrorIs(t, r.DeleteColumn(ctx, p.ID, cols[1].ID), gorm.ErrRecordNotFound)
}

func TestUpdateColumn_OrderCollision(t *testing.T) {
	r := newTestRepo(t)
	ctx := context.Background()
	owner := seedUser(t, r, "o@x.io")
	p := seedProject(t, r, owner.ID)
	cols := seedColumns(t, r, p.ID, 0, 1)

	taken := 1
	_, err := r.UpdateColumn(ctx, p.ID, cols[0].ID, ColumnPatch{Order: &taken})
	assert.True(t, IsColumnOrderViolation(err))

	name := "Renamed"
	free := 5
	col, err := r.UpdateColumn(ctx, p.ID, cols[0].ID, ColumnPatch{Name: &name, Order: &free})
	require.NoError(t, err)
	assert.Equal(t, "Renamed", col.Name)
	assert.Equal(t, 5, col.Order)

	_, err = r.UpdateColumn(ctx, p.ID, uuid.New(), ColumnPatch{Name: &name})
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestFindColumnByName_CaseInsensitive(t *testing.T) {
	r := newTestRepo(t)
	ctx := context.Background()
	owner := seedUser(t, r, "o@x.io")
	p := seedProject(t, r, owner.ID)
	col := models.Column{ProjectID: p.ID, Name: "todo", Order: 0}
	require.NoError(t, r.CreateColumn(ctx, &col))

	found, err := r.FindColumnByName(ctx, p.ID, "ToDo", nil)
	require.NoError(t, err)
	assert.Equal(t, col.ID, found.ID)

	_, err = r.FindColumnByName(ctx, p.ID, "TODO", &col.ID)
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestProjects_MembershipAndRemoval(t *testing.T) {
	r := newTestRepo(t)
	ctx := context.Background()
	owner := seedUser(t, r, "o@x.io")
	member := seedUser(t, r, "m@x.io")
	stranger := seedUser(t, r, "s@x.io")
	p := seedProject(t, r, owner.ID)

	ok, err := r.IsMember(ctx, p.ID, owner.ID)
	require.NoError(t, err)
	assert.True(t, ok)

	require.NoError(t, r.AddMember(ctx, p.ID, member.ID))
	assert.ErrorIs(t, r.AddMember(ctx, p.ID, member.ID), ErrAlreadyMember)

	list, err := r.ListProjectsForUser(ctx, member.ID)
	require.NoError(t, err)
	require.Len(t, list, 1)

	list, err = r.ListProjectsForUser(ctx, stranger.ID)
	require.NoError(t, err)
	assert.Empty(t, list)

	cols := seedColumns(t, r, p.ID, 0)
	task := &models.Task{ProjectID: p.ID, ColumnID: cols[0].ID, Title: "t", Priority: "low", AssigneeID: &member.ID}
	require.NoError(t, r.CreateTask(ctx, task))

	require.NoError(t, r.RemoveMember(ctx, p.ID, member.ID))
	got, err := r.GetTask(ctx, p.ID, task.ID)
	require.NoError(t, err)
	assert.Nil(t, got.AssigneeID)
	assert.ErrorIs(t, r.RemoveMember(ctx, p.ID, member.ID), gorm.ErrRecordNotFound)

	members, err := r.ListMembers(ctx, p.ID)
	require.NoError(t, err)
	require.Len(t, members, 1)
	assert.Equal(t, owner.ID, members[0].ID)
}

func TestDeleteProject_Cascades(t *testing.T) {
	r := newTestRepo(t)
	ctx := context.Background()
	owner := seedUser(t, r, "o@x.io")
	p := seedProject(t, r, owner.ID)
	cols := seedColumns(t, r, p.ID, 0)
	require.NoError(t, r.CreateTask(ctx, &models.Task{ProjectID: p.ID, ColumnID: cols[0].ID, Title: "t", Priority: "low"}))

	require.NoError(t, r.DeleteProject(ctx, p.ID))

	var n int64
	require.NoError(t, r.DB.Model(&models.Column{}).Where("project_id = ?", p.ID).Count(&n).Error)
	assert.Zero(t, n)
	require.NoError(t, r.DB.Model(&models.Task{}).Where("project_id = ?", p.ID).Count(&n).Error)
	assert.Zero(t, n)
	assert.ErrorIs(t, r.DeleteProject(ctx, p.ID), gorm.ErrRecordNotFound)
}

func TestRotateRefreshToken(t *testing.T) {
	r := newTestRepo(t)
	ctx := context.Background()
	u := seedUser(t, r, "o@x.io")

	old := &models.RefreshToken{UserID: u.ID, TokenHash: "h1", JTI: "j1", ExpiresAt: time.Now().Add(time.Hour)}
	require.NoError(t, r.AddRefreshToken(ctx, old))

	next := &models.RefreshToken{UserID: u.ID, TokenHash: "h2", JTI: "j2", ExpiresAt: time.Now().Add(time.Hour)}
	assert.ErrorIs(t, r.RotateRefreshToken(ctx, "j1", "wrong", next), ErrTokenExpiredOrRevoked)
	require.NoError(t, r.RotateRefreshToken(ctx, "j1", "h1", next))

	again := &models.RefreshToken{UserID: u.ID, TokenHash: "h3", JTI: "j3", ExpiresAt: time.Now().Add(time.Hour)}
	assert.ErrorIs(t, r.RotateRefreshToken(ctx, "j1", "h1", again), ErrTokenExpiredOrRevoked)

	n, err := r.RevokeAllForUser(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	stored, err := r.FindRefreshByJTI(ctx, "j2")
	require.NoError(t, err)
	assert.True(t, stored.Revoked)
}

func TestSearchUsersAndTasks(t *testing.T) {
	r := newTestRepo(t)
	ctx := context.Background()
	me := seedUser(t, r, "alice@x.io")
	seedUser(t, r, "alina@x.io")
	seedUser(t, r, "bob@x.io")

	users, err := r.SearchUsers(ctx, "ali", me.ID, 10)
	require.NoError(t, err)
	require.Len(t, users, 1)
	assert.Equal(t, "alina@x.io", users[0].Email)

	p := seedProject(t, r, me.ID)
	cols := seedColumns(t, r, p.ID, 0)
	require.NoError(t, r.CreateTask(ctx, &models.Task{ProjectID: p.ID, ColumnID: cols[0].ID, Title: "Fix 100% bug", Priority: "low"}))
	require.NoError(t, r.CreateTask(ctx, &models.Task{ProjectID: p.ID, ColumnID: cols[0].ID, Title: "Other", Description: "about BUGS", Priority: "low"}))

	tasks, total, err := r.SearchTasks(ctx, p.ID, "bug", 0, 10)
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
	assert.Len(t, tasks, 2)

	tasks, total, err = r.SearchTasks(ctx, p.ID, "100%", 0, 10)
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	assert.Len(t, tasks, 1)
}

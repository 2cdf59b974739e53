package repo

import (
	"context"
	"database/sql"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/Skotchmaster/taskboard/internal/models"
)

type TaskFilter struct {
	ColumnID *uuid.UUID
	Offset   int
	Limit    int
}

func (r *GormRepo) ListTasks(ctx context.Context, projectID uuid.UUID, f TaskFilter) ([]models.Task, int64, error) {
	q := r.DB.WithContext(ctx).Model(&models.Task{}).Where("project_id = ?", projectID)
	if f.ColumnID != nil {
		q = q.Where("column_id = ?", *f.ColumnID)
	}

	var total int64
	if err := q.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	tasks := make([]models.Task, 0)
	q = q.Order("sort_order ASC").Order("created_at ASC")
	if f.Limit > 0 {
		q = q.Offset(f.Offset).Limit(f.Limit)
	}
	if err := q.Find(&tasks).Error; err != nil {
		return nil, 0, err
	}
	return tasks, total, nil
}

func (r *GormRepo) GetTask(ctx context.Context, projectID, taskID uuid.UUID) (*models.Task, error) {
	var t models.Task
	if err := r.DB.WithContext(ctx).
		Where("id = ? AND project_id = ?", taskID, projectID).
		First(&t).Error; err != nil {
		return nil, err
	}
	return &t, nil
}

func (r *GormRepo) GetTasksByIDs(ctx context.Context, projectID uuid.UUID, ids []uuid.UUID) ([]models.Task, error) {
	tasks := make([]models.Task, 0, len(ids))
	if len(ids) == 0 {
		return tasks, nil
	}
	if err := r.DB.WithContext(ctx).
		Where("project_id = ? AND id IN ?", projectID, ids).
		Find(&tasks).Error; err != nil {
		return nil, err
	}
	return tasks, nil
}

func (r *GormRepo) CreateTask(ctx context.Context, t *models.Task) error {
	return translateError(r.DB.WithContext(ctx).Create(t).Error)
}

func (r *GormRepo) UpdateTask(ctx context.Context, projectID, taskID uuid.UUID, updates map[string]any) (*models.Task, error) {
	var t models.Task
	err := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := forUpdate(tx).Where("id = ? AND project_id = ?", taskID, projectID).First(&t).Error; err != nil {
			return err
		}
		if len(updates) == 0 {
			return nil
		}
		if err := tx.Model(&t).Updates(updates).Error; err != nil {
			return err
		}
		return tx.Where("id = ?", taskID).First(&t).Error
	})
	if err != nil {
		return nil, translateError(err)
	}
	return &t, nil
}

func (r *GormRepo) DeleteTask(ctx context.Context, projectID, taskID uuid.UUID) error {
	res := r.DB.WithContext(ctx).Where("id = ? AND project_id = ?", taskID, projectID).Delete(&models.Task{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// SearchTasks is the database fallback used when no search index is configured.
func (r *GormRepo) SearchTasks(ctx context.Context, projectID uuid.UUID, query string, offset, limit int) ([]models.Task, int64, error) {
	pattern := "%" + escapeLike(strings.ToLower(strings.TrimSpace(query))) + "%"
	q := r.DB.WithContext(ctx).Model(&models.Task{}).
		Where("project_id = ?", projectID).
		Where("(LOWER(title) LIKE ? ESCAPE '\\' OR LOWER(description) LIKE ? ESCAPE '\\')", pattern, pattern)

	var total int64
	if err := q.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}
	tasks := make([]models.Task, 0, limit)
	if err := q.Order("updated_at DESC").Offset(offset).Limit(limit).Find(&tasks).Error; err != nil {
		return nil, 0, err
	}
	return tasks, total, nil
}

// NextTaskOrder is one past the highest order in the column, or 0 when empty.
func (r *GormRepo) NextTaskOrder(ctx context.Context, projectID, columnID uuid.UUID) (int, error) {
	var maxOrder sql.NullInt64
	if err := r.DB.WithContext(ctx).Model(&models.Task{}).
		Select("MAX(sort_order)").
		Where("project_id = ? AND column_id = ?", projectID, columnID).
		Row().Scan(&maxOrder); err != nil {
		return 0, err
	}
	if !maxOrder.Valid {
		return 0, nil
	}
	return int(maxOrder.Int64) + 1, nil
}

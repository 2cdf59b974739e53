package repo

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/Skotchmaster/taskboard/internal/models"
)

const (
	columnOrderIndex = "idx_columns_project_order"
	// Phase one of a reorder parks columns at least sentinelOffset below the
	// lowest current order, so parked values never meet live ones even when
	// a leftover sentinel is already negative.
	sentinelOffset = 1000
)

var ErrColumnHasTasks = errors.New("column has tasks")

// UnknownColumnsError lists ids that are not columns of the project.
type UnknownColumnsError struct {
	IDs []uuid.UUID
}

func (e *UnknownColumnsError) Error() string {
	return fmt.Sprintf("%d unknown column ids", len(e.IDs))
}

type ColumnMove struct {
	ID    uuid.UUID
	Order int
}

// ColumnPatch holds the fields of an in-place column update; nil means unchanged.
type ColumnPatch struct {
	Name  *string
	Order *int
}

// IsColumnOrderViolation reports whether err is a duplicate key on the
// per-project column order index.
func IsColumnOrderViolation(err error) bool {
	var dup *DuplicateKeyError
	if !errors.As(err, &dup) {
		return false
	}
	return dup.Touches(columnOrderIndex) || dup.Touches("sort_order")
}

func (r *GormRepo) ListColumns(ctx context.Context, projectID uuid.UUID) ([]models.Column, error) {
	var cols []models.Column
	if err := r.DB.WithContext(ctx).
		Where("project_id = ?", projectID).
		Order("sort_order ASC").
		Find(&cols).Error; err != nil {
		return nil, err
	}
	return cols, nil
}

func (r *GormRepo) GetColumn(ctx context.Context, projectID, columnID uuid.UUID) (*models.Column, error) {
	var col models.Column
	if err := r.DB.WithContext(ctx).
		Where("id = ? AND project_id = ?", columnID, projectID).
		First(&col).Error; err != nil {
		return nil, err
	}
	return &col, nil
}

// FindColumnByName matches case-insensitively, skipping exclude when set.
func (r *GormRepo) FindColumnByName(ctx context.Context, projectID uuid.UUID, name string, exclude *uuid.UUID) (*models.Column, error) {
	q := r.DB.WithContext(ctx).
		Where("project_id = ? AND LOWER(name) = LOWER(?)", projectID, name)
	if exclude != nil {
		q = q.Where("id <> ?", *exclude)
	}
	var col models.Column
	if err := q.First(&col).Error; err != nil {
		return nil, err
	}
	return &col, nil
}

// NextColumnOrder returns max(order)+1, or 0 for a project without columns.
func (r *GormRepo) NextColumnOrder(ctx context.Context, projectID uuid.UUID) (int, error) {
	var maxOrder sql.NullInt64
	row := r.DB.WithContext(ctx).
		Model(&models.Column{}).
		Where("project_id = ?", projectID).
		Select("MAX(sort_order)").
		Row()
	if err := row.Scan(&maxOrder); err != nil {
		return 0, err
	}
	if !maxOrder.Valid {
		return 0, nil
	}
	return int(maxOrder.Int64) + 1, nil
}

func (r *GormRepo) IsColumnOrderAvailable(ctx context.Context, projectID uuid.UUID, order int, exclude *uuid.UUID) (bool, error) {
	q := r.DB.WithContext(ctx).
		Model(&models.Column{}).
		Where("project_id = ? AND sort_order = ?", projectID, order)
	if exclude != nil {
		q = q.Where("id <> ?", *exclude)
	}
	var count int64
	if err := q.Count(&count).Error; err != nil {
		return false, err
	}
	return count == 0, nil
}

func (r *GormRepo) CreateColumn(ctx context.Context, col *models.Column) error {
	return translateError(r.DB.WithContext(ctx).Create(col).Error)
}

func (r *GormRepo) UpdateColumn(ctx context.Context, projectID, columnID uuid.UUID, patch ColumnPatch) (*models.Column, error) {
	updates := map[string]any{}
	if patch.Name != nil {
		updates["name"] = *patch.Name
	}
	if patch.Order != nil {
		updates["sort_order"] = *patch.Order
	}

	var col models.Column
	err := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := forUpdate(tx).Where("id = ? AND project_id = ?", columnID, projectID).First(&col).Error; err != nil {
			return err
		}
		if len(updates) == 0 {
			return nil
		}
		if err := tx.Model(&col).Updates(updates).Error; err != nil {
			return err
		}
		return tx.Where("id = ?", columnID).First(&col).Error
	})
	if err != nil {
		return nil, translateError(err)
	}
	return &col, nil
}

// DeleteColumn refuses to drop a column that tasks still point at.
func (r *GormRepo) DeleteColumn(ctx context.Context, projectID, columnID uuid.UUID) error {
	return r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var col models.Column
		if err := forUpdate(tx).Where("id = ? AND project_id = ?", columnID, projectID).First(&col).Error; err != nil {
			return err
		}
		var tasks int64
		if err := tx.Model(&models.Task{}).Where("column_id = ?", columnID).Count(&tasks).Error; err != nil {
			return err
		}
		if tasks > 0 {
			return ErrColumnHasTasks
		}
		res := tx.Delete(&models.Column{}, "id = ?", columnID)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return nil
	})
}

// ReorderColumns assigns the requested orders in one transaction. Columns
// missing from moves keep their relative order after the highest requested
// slot.
func (r *GormRepo) ReorderColumns(ctx context.Context, projectID uuid.UUID, moves []ColumnMove) ([]models.Column, error) {
	var out []models.Column
	err := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var cols []models.Column
		if err := forUpdate(tx).
			Where("project_id = ?", projectID).
			Order("sort_order ASC").
			Find(&cols).Error; err != nil {
			return err
		}

		known := make(map[uuid.UUID]struct{}, len(cols))
		for _, c := range cols {
			known[c.ID] = struct{}{}
		}
		var unknown []uuid.UUID
		target := make(map[uuid.UUID]int, len(moves))
		next := 0
		for _, m := range moves {
			if _, ok := known[m.ID]; !ok {
				unknown = append(unknown, m.ID)
				continue
			}
			target[m.ID] = m.Order
			if m.Order >= next {
				next = m.Order + 1
			}
		}
		if len(unknown) > 0 {
			return &UnknownColumnsError{IDs: unknown}
		}

		if err := park(tx.Where("project_id = ?", projectID), cols); err != nil {
			return err
		}

		for _, m := range moves {
			if err := setOrder(tx, m.ID, m.Order); err != nil {
				return err
			}
		}
		for _, c := range cols {
			if _, ok := target[c.ID]; ok {
				continue
			}
			if err := setOrder(tx, c.ID, next); err != nil {
				return err
			}
			next++
		}

		return tx.Where("project_id = ?", projectID).Order("sort_order ASC").Find(&out).Error
	})
	if err != nil {
		return nil, translateError(err)
	}
	return out, nil
}

// RepairColumnOrder densifies orders to 0..N-1, keeping the current
// relative order (ties broken by creation time). It returns the columns and
// how many of them moved.
func (r *GormRepo) RepairColumnOrder(ctx context.Context, projectID uuid.UUID) ([]models.Column, int, error) {
	var out []models.Column
	moved := 0
	err := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var cols []models.Column
		if err := forUpdate(tx).
			Where("project_id = ?", projectID).
			Order("sort_order ASC").
			Order("created_at ASC").
			Find(&cols).Error; err != nil {
			return err
		}

		var stale []uuid.UUID
		for i, c := range cols {
			if c.Order != i {
				stale = append(stale, c.ID)
			}
		}
		if len(stale) > 0 {
			if err := park(tx.Where("id IN ?", stale), cols); err != nil {
				return err
			}
			for i, c := range cols {
				if c.Order == i {
					continue
				}
				if err := setOrder(tx, c.ID, i); err != nil {
					return err
				}
			}
		}
		moved = len(stale)

		return tx.Where("project_id = ?", projectID).Order("sort_order ASC").Find(&out).Error
	})
	if err != nil {
		return nil, 0, translateError(err)
	}
	return out, moved, nil
}

// ProjectsNeedingRepair returns projects whose column orders are not
// exactly 0..N-1.
func (r *GormRepo) ProjectsNeedingRepair(ctx context.Context) ([]uuid.UUID, error) {
	type stat struct {
		ProjectID uuid.UUID
		Cnt       int64
		MinOrder  int64
		MaxOrder  int64
	}
	var stats []stat
	if err := r.DB.WithContext(ctx).
		Model(&models.Column{}).
		Select("project_id, COUNT(*) AS cnt, MIN(sort_order) AS min_order, MAX(sort_order) AS max_order").
		Group("project_id").
		Scan(&stats).Error; err != nil {
		return nil, err
	}
	var ids []uuid.UUID
	for _, s := range stats {
		if s.MinOrder != 0 || s.MaxOrder != s.Cnt-1 {
			ids = append(ids, s.ProjectID)
		}
	}
	return ids, nil
}

// park shifts the scoped rows below every order in cols. Each new value is
// smaller than every old one, so a single UPDATE never collides mid-statement.
func park(scope *gorm.DB, cols []models.Column) error {
	if len(cols) == 0 {
		return nil
	}
	lo, hi := 0, 0
	for _, c := range cols {
		lo = min(lo, c.Order)
		hi = max(hi, c.Order)
	}
	shift := hi - lo + 1 + sentinelOffset
	return scope.Model(&models.Column{}).
		Update("sort_order", gorm.Expr("sort_order - ?", shift)).Error
}

func setOrder(tx *gorm.DB, id uuid.UUID, order int) error {
	res := tx.Model(&models.Column{}).Where("id = ?", id).Update("sort_order", order)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/Skotchmaster/taskboard/internal/events"
	"github.com/Skotchmaster/taskboard/internal/logging"
	"github.com/Skotchmaster/taskboard/internal/models"
	"github.com/Skotchmaster/taskboard/internal/repo"
)

const maxColumnName = 100

type ColumnService struct {
	Repo   *repo.GormRepo
	Events events.Publisher
}

// NextOrder is advisory: a concurrent create may take the value first.
func (s *ColumnService) NextOrder(ctx context.Context, projectID uuid.UUID) (int, error) {
	return s.Repo.NextColumnOrder(ctx, projectID)
}

func (s *ColumnService) IsOrderAvailable(ctx context.Context, projectID uuid.UUID, order int, exclude *uuid.UUID) (bool, error) {
	return s.Repo.IsColumnOrderAvailable(ctx, projectID, order, exclude)
}

func (s *ColumnService) List(ctx context.Context, projectID uuid.UUID) ([]models.Column, error) {
	return s.Repo.ListColumns(ctx, projectID)
}

func normalizeColumnName(name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", invalid("column name is required")
	}
	if len([]rune(name)) > maxColumnName {
		return "", invalid("column name must be at most %d characters", maxColumnName)
	}
	return name, nil
}

func (s *ColumnService) checkName(ctx context.Context, projectID uuid.UUID, name string, exclude *uuid.UUID) error {
	existing, err := s.Repo.FindColumnByName(ctx, projectID, name, exclude)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil
	}
	if err != nil {
		return err
	}
	return &ConflictError{
		Code:            CodeDuplicateName,
		Message:         fmt.Sprintf("A column with the name %q already exists in this project. Please choose a different name.", name),
		ConflictingName: &existing.Name,
	}
}

func (s *ColumnService) checkOrder(ctx context.Context, projectID uuid.UUID, order int, exclude *uuid.UUID) error {
	if order < 0 {
		return invalid("column order must be non-negative")
	}
	ok, err := s.Repo.IsColumnOrderAvailable(ctx, projectID, order, exclude)
	if err != nil {
		return err
	}
	if ok {
		return nil
	}
	next, err := s.Repo.NextColumnOrder(ctx, projectID)
	if err != nil {
		return err
	}
	msg := fmt.Sprintf("Column with order %d already exists in this project. Please choose a different order.", order)
	if exclude == nil {
		msg = fmt.Sprintf("Column with order %d already exists in this project. Please choose a different order or let the system assign one automatically.", order)
	}
	conflicting := order
	return &ConflictError{
		Code:             CodeOrderConflict,
		Message:          msg,
		ConflictingOrder: &conflicting,
		SuggestedOrder:   &next,
	}
}

// classifyWriteError turns a unique violation that slipped past the
// pre-checks into a domain conflict.
func (s *ColumnService) classifyWriteError(ctx context.Context, projectID uuid.UUID, order int, orderWritten bool, err error) error {
	if !errors.Is(err, repo.ErrDuplicateKey) {
		return err
	}
	if orderWritten && repo.IsColumnOrderViolation(err) {
		conflicting := order
		ce := &ConflictError{
			Code:             CodeDuplicateOrder,
			Message:          fmt.Sprintf("A column with order %d already exists in this project. Please choose a different order.", order),
			ConflictingOrder: &conflicting,
		}
		if next, nerr := s.Repo.NextColumnOrder(ctx, projectID); nerr == nil {
			ce.SuggestedOrder = &next
		}
		return ce
	}
	return &ConflictError{
		Code:    CodeDuplicateKey,
		Message: "Duplicate key constraint violation",
	}
}

func (s *ColumnService) Create(ctx context.Context, projectID uuid.UUID, name string, order *int) (*models.Column, error) {
	l := logging.FromContext(ctx).With("svc", "column.create", "project_id", projectID)

	name, err := normalizeColumnName(name)
	if err != nil {
		return nil, err
	}
	if err := s.checkName(ctx, projectID, name, nil); err != nil {
		return nil, err
	}

	var target int
	if order != nil {
		if err := s.checkOrder(ctx, projectID, *order, nil); err != nil {
			return nil, err
		}
		target = *order
	} else {
		target, err = s.Repo.NextColumnOrder(ctx, projectID)
		if err != nil {
			return nil, err
		}
	}

	col := &models.Column{ProjectID: projectID, Name: name, Order: target}
	if err := s.Repo.CreateColumn(ctx, col); err != nil {
		err = s.classifyWriteError(ctx, projectID, target, true, err)
		var ce *ConflictError
		if errors.As(err, &ce) {
			l.Warn("column_create_race", "code", ce.Code, "order", target)
		}
		return nil, err
	}

	events.Emit(ctx, s.Events, events.Event{Type: events.ColumnCreated, ProjectID: projectID, EntityID: col.ID, Payload: col})
	return col, nil
}

func (s *ColumnService) Update(ctx context.Context, projectID, columnID uuid.UUID, name *string, order *int) (*models.Column, error) {
	current, err := s.Repo.GetColumn(ctx, projectID, columnID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, newError(ErrNotFound, "Column not found")
	}
	if err != nil {
		return nil, err
	}

	var patch repo.ColumnPatch
	if name != nil {
		n, err := normalizeColumnName(*name)
		if err != nil {
			return nil, err
		}
		if err := s.checkName(ctx, projectID, n, &columnID); err != nil {
			return nil, err
		}
		patch.Name = &n
	}
	if order != nil {
		if err := s.checkOrder(ctx, projectID, *order, &columnID); err != nil {
			return nil, err
		}
		o := *order
		patch.Order = &o
	}

	updated, err := s.Repo.UpdateColumn(ctx, projectID, columnID, patch)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, newError(ErrNotFound, "Column not found")
	}
	if err != nil {
		target := current.Order
		if order != nil {
			target = *order
		}
		return nil, s.classifyWriteError(ctx, projectID, target, order != nil && *order != current.Order, err)
	}

	events.Emit(ctx, s.Events, events.Event{Type: events.ColumnUpdated, ProjectID: projectID, EntityID: columnID, Payload: updated})
	return updated, nil
}

func (s *ColumnService) Delete(ctx context.Context, projectID, columnID uuid.UUID) error {
	err := s.Repo.DeleteColumn(ctx, projectID, columnID)
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		return newError(ErrNotFound, "Column not found")
	case errors.Is(err, repo.ErrColumnHasTasks):
		return &ConflictError{Code: CodeColumnNotEmpty, Message: "Column still contains tasks; move or delete them first"}
	case err != nil:
		return err
	}

	events.Emit(ctx, s.Events, events.Event{Type: events.ColumnDeleted, ProjectID: projectID, EntityID: columnID})
	return nil
}

type ColumnOrder struct {
	ID    uuid.UUID
	Order int
}

// Reorder applies explicit orders to many columns at once.
func (s *ColumnService) Reorder(ctx context.Context, projectID uuid.UUID, items []ColumnOrder) ([]models.Column, error) {
	if len(items) == 0 {
		return nil, invalid("at least one column is required")
	}
	seenIDs := make(map[uuid.UUID]struct{}, len(items))
	seenOrders := make(map[int]struct{}, len(items))
	moves := make([]repo.ColumnMove, 0, len(items))
	for _, it := range items {
		if it.Order < 0 {
			return nil, invalid("column order must be non-negative")
		}
		if _, dup := seenIDs[it.ID]; dup {
			return nil, invalid("column %s is listed more than once", it.ID)
		}
		if _, dup := seenOrders[it.Order]; dup {
			return nil, invalid("order %d is requested for more than one column", it.Order)
		}
		seenIDs[it.ID] = struct{}{}
		seenOrders[it.Order] = struct{}{}
		moves = append(moves, repo.ColumnMove{ID: it.ID, Order: it.Order})
	}

	cols, err := s.Repo.ReorderColumns(ctx, projectID, moves)
	var unknown *repo.UnknownColumnsError
	if errors.As(err, &unknown) {
		return nil, &ValidationError{Message: "Invalid column IDs provided", InvalidIDs: unknown.IDs}
	}
	if err != nil {
		return nil, s.classifyWriteError(ctx, projectID, 0, false, err)
	}

	events.Emit(ctx, s.Events, events.Event{Type: events.ColumnsReordered, ProjectID: projectID, EntityID: projectID, Payload: cols})
	return cols, nil
}

func (s *ColumnService) Repair(ctx context.Context, projectID uuid.UUID) ([]models.Column, int, error) {
	cols, moved, err := s.Repo.RepairColumnOrder(ctx, projectID)
	if err != nil {
		return nil, 0, s.classifyWriteError(ctx, projectID, 0, false, err)
	}
	if moved > 0 {
		logging.FromContext(ctx).Info("column_order_repaired", "project_id", projectID, "moved", moved)
		events.Emit(ctx, s.Events, events.Event{Type: events.ColumnsRepaired, ProjectID: projectID, EntityID: projectID, Payload: cols})
	}
	return cols, moved, nil
}

type RepairReport struct {
	Scanned  int
	Repaired int
	Moved    int
	Failed   []uuid.UUID
}

// RepairAll repairs every project, or only those whose orders are not
// exactly 0..N-1 when onlyBroken is set. With dryRun nothing is written and
// Repaired counts the scanned projects that would change.
func (s *ColumnService) RepairAll(ctx context.Context, onlyBroken, dryRun bool) (RepairReport, error) {
	l := logging.FromContext(ctx).With("svc", "column.repair_all")

	var (
		ids []uuid.UUID
		err error
	)
	if onlyBroken {
		ids, err = s.Repo.ProjectsNeedingRepair(ctx)
	} else {
		ids, err = s.Repo.ListProjectIDs(ctx)
	}
	if err != nil {
		return RepairReport{}, err
	}

	report := RepairReport{Scanned: len(ids)}
	if dryRun {
		broken := ids
		if !onlyBroken {
			if broken, err = s.Repo.ProjectsNeedingRepair(ctx); err != nil {
				return report, err
			}
		}
		scanned := make(map[uuid.UUID]struct{}, len(ids))
		for _, id := range ids {
			scanned[id] = struct{}{}
		}
		for _, id := range broken {
			if _, ok := scanned[id]; ok {
				report.Repaired++
			}
		}
		return report, nil
	}
	for _, id := range ids {
		if err := ctx.Err(); err != nil {
			return report, err
		}
		_, moved, err := s.Repair(ctx, id)
		if err != nil {
			l.Error("repair_failed", "project_id", id, "error", err)
			report.Failed = append(report.Failed, id)
			continue
		}
		if moved > 0 {
			report.Repaired++
			report.Moved += moved
		}
	}
	return report, nil
}

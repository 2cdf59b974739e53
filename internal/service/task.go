package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/Skotchmaster/taskboard/internal/events"
	"github.com/Skotchmaster/taskboard/internal/logging"
	"github.com/Skotchmaster/taskboard/internal/models"
	"github.com/Skotchmaster/taskboard/internal/repo"
)

const (
	maxTaskTitle       = 200
	maxTaskDescription = 1000
	defaultPriority    = "medium"
)

var priorities = map[string]struct{}{"low": {}, "medium": {}, "high": {}}

// TaskSearcher is a full-text index over tasks. Writes to it are best effort.
type TaskSearcher interface {
	Index(ctx context.Context, t models.Task) error
	Delete(ctx context.Context, id uuid.UUID) error
	Search(ctx context.Context, projectID uuid.UUID, q string, from, size int) ([]uuid.UUID, int64, error)
}

type TaskService struct {
	Repo   *repo.GormRepo
	Events events.Publisher
	// Index is optional; search falls back to the database without it.
	Index TaskSearcher
}

type NewTask struct {
	Title       string
	Description string
	ColumnID    uuid.UUID
	Priority    string
	AssigneeID  *uuid.UUID
	Order       *int
	Deadline    *time.Time
}

type TaskPatch struct {
	Title       *string
	Description *string
	ColumnID    *uuid.UUID
	Priority    *string
	AssigneeID  *uuid.UUID
	Order       *int
	Deadline    *time.Time
}

type TaskPage struct {
	Items []models.Task
	Total int64
}

func (s *TaskService) List(ctx context.Context, projectID uuid.UUID, columnID *uuid.UUID, offset, limit int) (TaskPage, error) {
	tasks, total, err := s.Repo.ListTasks(ctx, projectID, repo.TaskFilter{ColumnID: columnID, Offset: offset, Limit: limit})
	if err != nil {
		return TaskPage{}, err
	}
	return TaskPage{Items: tasks, Total: total}, nil
}

func (s *TaskService) Get(ctx context.Context, projectID, taskID uuid.UUID) (*models.Task, error) {
	t, err := s.Repo.GetTask(ctx, projectID, taskID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, newError(ErrNotFound, "Task not found")
	}
	return t, err
}

func normalizeTitle(title string) (string, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return "", invalid("task title is required")
	}
	if len([]rune(title)) > maxTaskTitle {
		return "", invalid("task title must be at most %d characters", maxTaskTitle)
	}
	return title, nil
}

func checkDescription(d string) error {
	if len([]rune(d)) > maxTaskDescription {
		return invalid("task description must be at most %d characters", maxTaskDescription)
	}
	return nil
}

func checkPriority(p string) error {
	if _, ok := priorities[p]; !ok {
		return invalid("priority must be one of low, medium, high")
	}
	return nil
}

func (s *TaskService) checkColumn(ctx context.Context, projectID, columnID uuid.UUID) error {
	_, err := s.Repo.GetColumn(ctx, projectID, columnID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return invalid("column does not belong to this project")
	}
	return err
}

func (s *TaskService) checkAssignee(ctx context.Context, projectID, userID uuid.UUID) error {
	p, err := s.Repo.GetProject(ctx, projectID)
	if err != nil {
		return err
	}
	if p.OwnerID == userID {
		return nil
	}
	ok, err := s.Repo.IsMember(ctx, projectID, userID)
	if err != nil {
		return err
	}
	if !ok {
		return invalid("assignee must be a member of the project")
	}
	return nil
}

func (s *TaskService) Create(ctx context.Context, projectID uuid.UUID, in NewTask) (*models.Task, error) {
	title, err := normalizeTitle(in.Title)
	if err != nil {
		return nil, err
	}
	if err := checkDescription(in.Description); err != nil {
		return nil, err
	}
	priority := in.Priority
	if priority == "" {
		priority = defaultPriority
	}
	if err := checkPriority(priority); err != nil {
		return nil, err
	}
	if in.Order != nil && *in.Order < 0 {
		return nil, invalid("task order must be non-negative")
	}
	if in.ColumnID == uuid.Nil {
		return nil, invalid("columnId is required")
	}

	if err := s.checkColumn(ctx, projectID, in.ColumnID); err != nil {
		return nil, err
	}
	if in.AssigneeID != nil {
		if err := s.checkAssignee(ctx, projectID, *in.AssigneeID); err != nil {
			return nil, err
		}
	}

	order := 0
	if in.Order != nil {
		order = *in.Order
	} else if order, err = s.Repo.NextTaskOrder(ctx, projectID, in.ColumnID); err != nil {
		return nil, err
	}

	t := &models.Task{
		ProjectID:   projectID,
		ColumnID:    in.ColumnID,
		Title:       title,
		Description: strings.TrimSpace(in.Description),
		Priority:    priority,
		AssigneeID:  in.AssigneeID,
		Order:       order,
		Deadline:    in.Deadline,
	}
	if err := s.Repo.CreateTask(ctx, t); err != nil {
		return nil, err
	}

	s.indexTask(ctx, t)
	events.Emit(ctx, s.Events, events.Event{Type: events.TaskCreated, ProjectID: projectID, EntityID: t.ID, Payload: t})
	return t, nil
}

func (s *TaskService) Update(ctx context.Context, projectID, taskID uuid.UUID, in TaskPatch) (*models.Task, error) {
	updates := map[string]any{}
	if in.Title != nil {
		title, err := normalizeTitle(*in.Title)
		if err != nil {
			return nil, err
		}
		updates["title"] = title
	}
	if in.Description != nil {
		if err := checkDescription(*in.Description); err != nil {
			return nil, err
		}
		updates["description"] = strings.TrimSpace(*in.Description)
	}
	if in.Priority != nil {
		if err := checkPriority(*in.Priority); err != nil {
			return nil, err
		}
		updates["priority"] = *in.Priority
	}
	if in.Order != nil {
		if *in.Order < 0 {
			return nil, invalid("task order must be non-negative")
		}
		updates["sort_order"] = *in.Order
	}
	if in.Deadline != nil {
		updates["deadline"] = *in.Deadline
	}
	if in.ColumnID != nil {
		if err := s.checkColumn(ctx, projectID, *in.ColumnID); err != nil {
			return nil, err
		}
		updates["column_id"] = *in.ColumnID
	}
	if in.AssigneeID != nil {
		if err := s.checkAssignee(ctx, projectID, *in.AssigneeID); err != nil {
			return nil, err
		}
		updates["assignee_id"] = *in.AssigneeID
	}

	t, err := s.Repo.UpdateTask(ctx, projectID, taskID, updates)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, newError(ErrNotFound, "Task not found")
	}
	if err != nil {
		return nil, err
	}

	s.indexTask(ctx, t)
	events.Emit(ctx, s.Events, events.Event{Type: events.TaskUpdated, ProjectID: projectID, EntityID: t.ID, Payload: t})
	return t, nil
}

func (s *TaskService) Assign(ctx context.Context, projectID, taskID, assigneeID uuid.UUID) (*models.Task, error) {
	return s.Update(ctx, projectID, taskID, TaskPatch{AssigneeID: &assigneeID})
}

func (s *TaskService) Unassign(ctx context.Context, projectID, taskID uuid.UUID) (*models.Task, error) {
	t, err := s.Repo.UpdateTask(ctx, projectID, taskID, map[string]any{"assignee_id": nil})
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, newError(ErrNotFound, "Task not found")
	}
	if err != nil {
		return nil, err
	}
	s.indexTask(ctx, t)
	events.Emit(ctx, s.Events, events.Event{Type: events.TaskUpdated, ProjectID: projectID, EntityID: t.ID, Payload: t})
	return t, nil
}

func (s *TaskService) Delete(ctx context.Context, projectID, taskID uuid.UUID) error {
	err := s.Repo.DeleteTask(ctx, projectID, taskID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return newError(ErrNotFound, "Task not found")
	}
	if err != nil {
		return err
	}
	if s.Index != nil {
		if err := s.Index.Delete(ctx, taskID); err != nil {
			logging.FromContext(ctx).Warn("task_unindex_failed", "task_id", taskID, "error", err)
		}
	}
	events.Emit(ctx, s.Events, events.Event{Type: events.TaskDeleted, ProjectID: projectID, EntityID: taskID})
	return nil
}

// Search asks the index for matching ids and loads them in rank order.
// Without an index, or when the index fails, it searches the database.
func (s *TaskService) Search(ctx context.Context, projectID uuid.UUID, q string, offset, limit int) (TaskPage, error) {
	q = strings.TrimSpace(q)
	if q == "" {
		return TaskPage{Items: []models.Task{}}, nil
	}

	if s.Index != nil {
		ids, total, err := s.Index.Search(ctx, projectID, q, offset, limit)
		if err == nil {
			tasks, err := s.Repo.GetTasksByIDs(ctx, projectID, ids)
			if err != nil {
				return TaskPage{}, err
			}
			return TaskPage{Items: rankOrder(ids, tasks), Total: total}, nil
		}
		logging.FromContext(ctx).Warn("task_search_index_failed", "project_id", projectID, "error", err)
	}

	tasks, total, err := s.Repo.SearchTasks(ctx, projectID, q, offset, limit)
	if err != nil {
		return TaskPage{}, err
	}
	return TaskPage{Items: tasks, Total: total}, nil
}

func rankOrder(ids []uuid.UUID, tasks []models.Task) []models.Task {
	byID := make(map[uuid.UUID]models.Task, len(tasks))
	for _, t := range tasks {
		byID[t.ID] = t
	}
	out := make([]models.Task, 0, len(tasks))
	for _, id := range ids {
		if t, ok := byID[id]; ok {
			out = append(out, t)
		}
	}
	return out
}

func (s *TaskService) indexTask(ctx context.Context, t *models.Task) {
	if s.Index == nil {
		return
	}
	if err := s.Index.Index(ctx, *t); err != nil {
		logging.FromContext(ctx).Warn("task_index_failed", "task_id", t.ID, "error", err)
	}
}

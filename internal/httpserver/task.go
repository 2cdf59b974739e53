package httpserver

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/taskboard/internal/logging"
	"github.com/Skotchmaster/taskboard/internal/service"
	"github.com/Skotchmaster/taskboard/internal/transport"
	"github.com/Skotchmaster/taskboard/internal/util"
)

type TaskHTTP struct {
	Svc *service.TaskService
}

func pageParams(c echo.Context) (page, offset, limit int) {
	page = util.ParseIntDefault(c.QueryParam("page"), 1)
	size := util.ParseIntDefault(c.QueryParam("size"), util.DefaultPageSize)
	offset, limit = util.Calculate(page, size)
	if page < 1 {
		page = 1
	}
	return page, offset, limit
}

func (h *TaskHTTP) List(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "task.list", "project_id", projectID(c))

	var columnID *uuid.UUID
	if raw := c.QueryParam("columnId"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			return invalidInput(l, "list_tasks_error", err)
		}
		columnID = &id
	}
	page, offset, limit := pageParams(c)

	res, err := h.Svc.List(ctx, projectID(c), columnID, offset, limit)
	if err != nil {
		return fail(l, "list_tasks_error", err)
	}
	return c.JSON(http.StatusOK, transport.TaskPage{
		Items: res.Items,
		Meta:  transport.PageMeta{Total: res.Total, Page: page, Size: limit},
	})
}

func (h *TaskHTTP) Search(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "task.search", "project_id", projectID(c))

	page, offset, limit := pageParams(c)
	res, err := h.Svc.Search(ctx, projectID(c), c.QueryParam("q"), offset, limit)
	if err != nil {
		return fail(l, "search_tasks_error", err)
	}
	return c.JSON(http.StatusOK, transport.TaskPage{
		Items: res.Items,
		Meta:  transport.PageMeta{Total: res.Total, Page: page, Size: limit},
	})
}

func (h *TaskHTTP) Get(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "task.get", "project_id", projectID(c))

	taskID, err := pathID(c, l, "get_task_error", "taskId")
	if err != nil {
		return err
	}
	t, err := h.Svc.Get(ctx, projectID(c), taskID)
	if err != nil {
		return fail(l, "get_task_error", err)
	}
	return c.JSON(http.StatusOK, t)
}

func (h *TaskHTTP) Create(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "task.create", "project_id", projectID(c))

	var req transport.CreateTaskRequest
	if err := bind(c, l, "create_task_error", &req); err != nil {
		return err
	}
	t, err := h.Svc.Create(ctx, projectID(c), service.NewTask{
		Title:       req.Title,
		Description: req.Description,
		ColumnID:    req.ColumnID,
		Priority:    req.Priority,
		AssigneeID:  req.AssigneeID,
		Order:       req.Order,
		Deadline:    req.Deadline,
	})
	if err != nil {
		return fail(l, "create_task_error", err)
	}

	l.Info("create_task_success", "task_id", t.ID)
	return c.JSON(http.StatusCreated, t)
}

func (h *TaskHTTP) Update(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "task.update", "project_id", projectID(c))

	taskID, err := pathID(c, l, "update_task_error", "taskId")
	if err != nil {
		return err
	}
	var req transport.UpdateTaskRequest
	if err := bind(c, l, "update_task_error", &req); err != nil {
		return err
	}
	t, err := h.Svc.Update(ctx, projectID(c), taskID, service.TaskPatch{
		Title:       req.Title,
		Description: req.Description,
		ColumnID:    req.ColumnID,
		Priority:    req.Priority,
		AssigneeID:  req.AssigneeID,
		Order:       req.Order,
		Deadline:    req.Deadline,
	})
	if err != nil {
		return fail(l, "update_task_error", err)
	}
	return c.JSON(http.StatusOK, t)
}

func (h *TaskHTTP) Delete(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "task.delete", "project_id", projectID(c))

	taskID, err := pathID(c, l, "delete_task_error", "taskId")
	if err != nil {
		return err
	}
	if err := h.Svc.Delete(ctx, projectID(c), taskID); err != nil {
		return fail(l, "delete_task_error", err)
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *TaskHTTP) Assign(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "task.assign", "project_id", projectID(c))

	taskID, err := pathID(c, l, "assign_task_error", "taskId")
	if err != nil {
		return err
	}
	var req transport.AssignRequest
	if err := bind(c, l, "assign_task_error", &req); err != nil {
		return err
	}
	t, err := h.Svc.Assign(ctx, projectID(c), taskID, req.AssigneeID)
	if err != nil {
		return fail(l, "assign_task_error", err)
	}
	return c.JSON(http.StatusOK, t)
}

func (h *TaskHTTP) Unassign(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "task.unassign", "project_id", projectID(c))

	taskID, err := pathID(c, l, "unassign_task_error", "taskId")
	if err != nil {
		return err
	}
	t, err := h.Svc.Unassign(ctx, projectID(c), taskID)
	if err != nil {
		return fail(l, "unassign_task_error", err)
	}
	return c.JSON(http.StatusOK, t)
}

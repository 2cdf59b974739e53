package httpserver

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/taskboard/internal/logging"
	authmw "github.com/Skotchmaster/taskboard/internal/middleware/auth"
	"github.com/Skotchmaster/taskboard/internal/models"
	"github.com/Skotchmaster/taskboard/internal/service"
	"github.com/Skotchmaster/taskboard/internal/transport"
)

const ctxProject = "project"

type ProjectHTTP struct {
	Svc *service.ProjectService
}

// RequireAccess resolves :projectId and lets only its owner and members
// through. It runs before any body is read.
func (h *ProjectHTTP) RequireAccess(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx := c.Request().Context()
		l := logging.FromContext(ctx).With("middleware", "project_access")

		projectID, err := pathID(c, l, "project_access_denied", "projectId")
		if err != nil {
			return err
		}
		p, err := h.Svc.Authorize(ctx, projectID, authmw.UserID(c))
		if err != nil {
			return fail(l.With("project_id", projectID), "project_access_denied", err)
		}
		c.Set(ctxProject, p)
		return next(c)
	}
}

func currentProject(c echo.Context) *models.Project {
	p, _ := c.Get(ctxProject).(*models.Project)
	return p
}

func projectID(c echo.Context) uuid.UUID {
	if p := currentProject(c); p != nil {
		return p.ID
	}
	return uuid.Nil
}

func (h *ProjectHTTP) List(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "project.list")

	projects, err := h.Svc.List(ctx, authmw.UserID(c))
	if err != nil {
		return fail(l, "list_projects_error", err)
	}
	return c.JSON(http.StatusOK, projects)
}

func (h *ProjectHTTP) Create(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "project.create")

	var req transport.CreateProjectRequest
	if err := bind(c, l, "create_project_error", &req); err != nil {
		return err
	}
	p, err := h.Svc.Create(ctx, authmw.UserID(c), req.Name, req.Description)
	if err != nil {
		return fail(l, "create_project_error", err)
	}

	l.Info("create_project_success", "project_id", p.ID)
	return c.JSON(http.StatusCreated, p)
}

func (h *ProjectHTTP) Get(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "project.get")

	d, err := h.Svc.Get(ctx, projectID(c), authmw.UserID(c))
	if err != nil {
		return fail(l, "get_project_error", err)
	}
	return c.JSON(http.StatusOK, transport.ProjectResponse{Project: d.Project, Members: transport.Users(d.Members)})
}

func (h *ProjectHTTP) Update(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "project.update")

	var req transport.UpdateProjectRequest
	if err := bind(c, l, "update_project_error", &req); err != nil {
		return err
	}
	p, err := h.Svc.Update(ctx, projectID(c), authmw.UserID(c), req.Name, req.Description)
	if err != nil {
		return fail(l, "update_project_error", err)
	}
	return c.JSON(http.StatusOK, p)
}

func (h *ProjectHTTP) Delete(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "project.delete")

	if err := h.Svc.Delete(ctx, projectID(c), authmw.UserID(c)); err != nil {
		return fail(l, "delete_project_error", err)
	}

	l.Info("delete_project_success", "project_id", projectID(c))
	return c.NoContent(http.StatusNoContent)
}

func (h *ProjectHTTP) AddMember(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "project.add_member")

	var req transport.AddMemberRequest
	if err := bind(c, l, "add_member_error", &req); err != nil {
		return err
	}
	u, err := h.Svc.AddMember(ctx, projectID(c), authmw.UserID(c), req.Email)
	if err != nil {
		return fail(l, "add_member_error", err)
	}
	return c.JSON(http.StatusCreated, transport.User(u))
}

func (h *ProjectHTTP) RemoveMember(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "project.remove_member")

	memberID, err := pathID(c, l, "remove_member_error", "memberId")
	if err != nil {
		return err
	}
	if err := h.Svc.RemoveMember(ctx, projectID(c), authmw.UserID(c), memberID); err != nil {
		return fail(l, "remove_member_error", err)
	}
	return c.NoContent(http.StatusNoContent)
}

package httpserver

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/taskboard/internal/logging"
	authmw "github.com/Skotchmaster/taskboard/internal/middleware/auth"
	"github.com/Skotchmaster/taskboard/internal/service"
	"github.com/Skotchmaster/taskboard/internal/transport"
)

type UserHTTP struct {
	Svc *service.UserService
}

func (h *UserHTTP) Me(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "user.me")

	u, err := h.Svc.Profile(ctx, authmw.UserID(c))
	if err != nil {
		return fail(l, "get_me_error", err)
	}
	return c.JSON(http.StatusOK, transport.User(u))
}

func (h *UserHTTP) UpdateMe(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "user.update_me")

	var req transport.UpdateMeRequest
	if err := bind(c, l, "update_me_error", &req); err != nil {
		return err
	}
	u, err := h.Svc.UpdateName(ctx, authmw.UserID(c), req.Name)
	if err != nil {
		return fail(l, "update_me_error", err)
	}
	return c.JSON(http.StatusOK, transport.User(u))
}

func (h *UserHTTP) Search(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "user.search")

	users, err := h.Svc.Search(ctx, authmw.UserID(c), c.QueryParam("q"))
	if err != nil {
		return fail(l, "search_users_error", err)
	}
	return c.JSON(http.StatusOK, transport.Users(users))
}

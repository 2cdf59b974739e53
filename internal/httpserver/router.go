package httpserver

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"gorm.io/gorm"

	"github.com/Skotchmaster/taskboard/internal/db"
	authmw "github.com/Skotchmaster/taskboard/internal/middleware/auth"
	"github.com/Skotchmaster/taskboard/internal/transport"
)

type Deps struct {
	ServiceName string
	DB          *gorm.DB
	Auth        *authmw.BearerAuth

	AuthHandler    *AuthHTTP
	UserHandler    *UserHTTP
	ProjectHandler *ProjectHTTP
	ColumnHandler  *ColumnHTTP
	TaskHandler    *TaskHTTP
}

func Register(e *echo.Echo, d *Deps) {
	if e.Validator == nil {
		e.Validator = transport.NewValidator()
	}

	e.GET("/health/live", func(c echo.Context) error { return c.NoContent(http.StatusOK) })
	e.GET("/health/ready", func(c echo.Context) error {
		if err := db.Ping(c.Request().Context(), d.DB); err != nil {
			return c.NoContent(http.StatusServiceUnavailable)
		}
		return c.NoContent(http.StatusOK)
	})

	api := e.Group("/api")
	api.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]any{
			"ok":      true,
			"service": d.ServiceName,
			"time":    time.Now().UTC(),
		})
	})

	auth := api.Group("/auth")
	auth.POST("/signup", d.AuthHandler.Signup)
	auth.POST("/login", d.AuthHandler.Login)
	auth.POST("/refresh", d.AuthHandler.Refresh)
	auth.POST("/logout", d.AuthHandler.Logout, d.Auth.RequireAuth)

	users := api.Group("/users", d.Auth.RequireAuth)
	users.GET("/me", d.UserHandler.Me)
	users.PATCH("/me", d.UserHandler.UpdateMe)
	users.GET("/search", d.UserHandler.Search)

	projects := api.Group("/projects", d.Auth.RequireAuth)
	projects.GET("", d.ProjectHandler.List)
	projects.POST("", d.ProjectHandler.Create)

	project := projects.Group("/:projectId", d.ProjectHandler.RequireAccess)
	project.GET("", d.ProjectHandler.Get)
	project.PATCH("", d.ProjectHandler.Update)
	project.DELETE("", d.ProjectHandler.Delete)
	project.POST("/members", d.ProjectHandler.AddMember)
	project.DELETE("/members/:memberId", d.ProjectHandler.RemoveMember)

	project.GET("/columns", d.ColumnHandler.List)
	project.POST("/columns", d.ColumnHandler.Create)
	project.PATCH("/columns/reorder", d.ColumnHandler.Reorder)
	project.POST("/columns/fix-order", d.ColumnHandler.FixOrder)
	project.PATCH("/columns/:columnId", d.ColumnHandler.Update)
	project.DELETE("/columns/:columnId", d.ColumnHandler.Delete)

	project.GET("/tasks", d.TaskHandler.List)
	project.POST("/tasks", d.TaskHandler.Create)
	project.GET("/tasks/search", d.TaskHandler.Search)
	project.GET("/tasks/:taskId", d.TaskHandler.Get)
	project.PATCH("/tasks/:taskId", d.TaskHandler.Update)
	project.DELETE("/tasks/:taskId", d.TaskHandler.Delete)
	project.POST("/tasks/:taskId/assign", d.TaskHandler.Assign)
	project.DELETE("/tasks/:taskId/assign", d.TaskHandler.Unassign)
}

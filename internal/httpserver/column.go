package httpserver

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/taskboard/internal/logging"
	"github.com/Skotchmaster/taskboard/internal/service"
	"github.com/Skotchmaster/taskboard/internal/transport"
)

type ColumnHTTP struct {
	Svc *service.ColumnService
}

func (h *ColumnHTTP) List(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "column.list")

	cols, err := h.Svc.List(ctx, projectID(c))
	if err != nil {
		return fail(l, "list_columns_error", err)
	}
	return c.JSON(http.StatusOK, transport.Columns(cols))
}

func (h *ColumnHTTP) Create(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "column.create", "project_id", projectID(c))

	var req transport.CreateColumnRequest
	if err := bind(c, l, "create_column_error", &req); err != nil {
		return err
	}
	col, err := h.Svc.Create(ctx, projectID(c), req.Name, req.Order)
	if err != nil {
		return fail(l, "create_column_error", err)
	}

	l.Info("create_column_success", "column_id", col.ID, "order", col.Order)
	return c.JSON(http.StatusCreated, transport.Column(col))
}

func (h *ColumnHTTP) Update(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "column.update", "project_id", projectID(c))

	columnID, err := pathID(c, l, "update_column_error", "columnId")
	if err != nil {
		return err
	}
	var req transport.UpdateColumnRequest
	if err := bind(c, l, "update_column_error", &req); err != nil {
		return err
	}
	col, err := h.Svc.Update(ctx, projectID(c), columnID, req.Name, req.Order)
	if err != nil {
		return fail(l, "update_column_error", err)
	}
	return c.JSON(http.StatusOK, transport.Column(col))
}

func (h *ColumnHTTP) Delete(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "column.delete", "project_id", projectID(c))

	columnID, err := pathID(c, l, "delete_column_error", "columnId")
	if err != nil {
		return err
	}
	if err := h.Svc.Delete(ctx, projectID(c), columnID); err != nil {
		return fail(l, "delete_column_error", err)
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *ColumnHTTP) Reorder(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "column.reorder", "project_id", projectID(c))

	var req transport.ReorderColumnsRequest
	if err := bind(c, l, "reorder_columns_error", &req); err != nil {
		return err
	}
	items := make([]service.ColumnOrder, 0, len(req.Columns))
	for _, it := range req.Columns {
		items = append(items, service.ColumnOrder{ID: it.ID, Order: *it.Order})
	}

	cols, err := h.Svc.Reorder(ctx, projectID(c), items)
	if err != nil {
		return fail(l, "reorder_columns_error", err)
	}

	l.Info("reorder_columns_success", "columns", len(cols))
	return c.JSON(http.StatusOK, transport.ColumnsMessage{
		Message: "Columns reordered successfully",
		Columns: transport.Columns(cols),
	})
}

func (h *ColumnHTTP) FixOrder(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "column.fix_order", "project_id", projectID(c))

	cols, moved, err := h.Svc.Repair(ctx, projectID(c))
	if err != nil {
		return fail(l, "fix_column_order_error", err)
	}

	l.Info("fix_column_order_success", "moved", moved)
	return c.JSON(http.StatusOK, transport.ColumnsMessage{
		Message: "Column ordering has been fixed",
		Columns: transport.Columns(cols),
	})
}

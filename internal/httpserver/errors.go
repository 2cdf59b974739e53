package httpserver

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"gorm.io/gorm"

	"github.com/Skotchmaster/taskboard/internal/service"
	"github.com/Skotchmaster/taskboard/internal/transport"
)

const (
	codeValidation = "VALIDATION_ERROR"
	codeInternal   = "INTERNAL_ERROR"
)

type errorBody struct {
	Message          string            `json:"message"`
	Error            string            `json:"error,omitempty"`
	ConflictingName  *string           `json:"conflictingName,omitempty"`
	ConflictingOrder *int              `json:"conflictingOrder,omitempty"`
	SuggestedOrder   *int              `json:"suggestedOrder,omitempty"`
	InvalidIDs       []uuid.UUID       `json:"invalidIds,omitempty"`
	Issues           []transport.Issue `json:"issues,omitempty"`
}

func httpError(code int, body errorBody) *echo.HTTPError {
	return echo.NewHTTPError(code, body)
}

// fail maps a service error to its HTTP response and logs it: 4xx at warn,
// everything else at error with a generic body.
func fail(l *slog.Logger, event string, err error) error {
	var (
		ce  *service.ConflictError
		ve  *service.ValidationError
		se  *service.Error
		he  *echo.HTTPError
		out *echo.HTTPError
	)
	switch {
	case errors.As(err, &he):
		out = he
	case errors.As(err, &ce):
		out = httpError(http.StatusConflict, errorBody{
			Message:          ce.Message,
			Error:            ce.Code,
			ConflictingName:  ce.ConflictingName,
			ConflictingOrder: ce.ConflictingOrder,
			SuggestedOrder:   ce.SuggestedOrder,
		})
	case errors.As(err, &ve):
		out = httpError(http.StatusBadRequest, errorBody{Message: ve.Message, Error: codeValidation, InvalidIDs: ve.InvalidIDs})
	case errors.As(err, &se):
		out = httpError(statusOf(se.Kind), errorBody{Message: se.Message})
	case errors.Is(err, gorm.ErrRecordNotFound):
		out = httpError(http.StatusNotFound, errorBody{Message: "Not found"})
	default:
		l.Error(event, "status", http.StatusInternalServerError, "error", err)
		return httpError(http.StatusInternalServerError, errorBody{Message: "Internal server error", Error: codeInternal})
	}

	if out.Code >= http.StatusInternalServerError {
		l.Error(event, "status", out.Code, "error", err)
	} else {
		l.Warn(event, "status", out.Code, "reason", err.Error())
	}
	return out
}

func statusOf(kind error) int {
	switch {
	case errors.Is(kind, service.ErrValidation):
		return http.StatusBadRequest
	case errors.Is(kind, service.ErrUnauthorized):
		return http.StatusUnauthorized
	case errors.Is(kind, service.ErrForbidden):
		return http.StatusForbidden
	case errors.Is(kind, service.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(kind, service.ErrConflict):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

func invalidInput(l *slog.Logger, event string, err error) error {
	l.Warn(event, "status", http.StatusBadRequest, "reason", "invalid input", "error", err)
	return httpError(http.StatusBadRequest, errorBody{
		Message: "Invalid input",
		Error:   codeValidation,
		Issues:  transport.Issues(err),
	})
}

// bind decodes and validates the body into req.
func bind(c echo.Context, l *slog.Logger, event string, req any) error {
	if err := c.Bind(req); err != nil {
		return invalidInput(l, event, err)
	}
	if err := c.Validate(req); err != nil {
		return invalidInput(l, event, err)
	}
	return nil
}

func pathID(c echo.Context, l *slog.Logger, event, param string) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Param(param))
	if err != nil {
		l.Warn(event, "status", http.StatusBadRequest, "reason", param+" is not a uuid", "error", err)
		return uuid.Nil, httpError(http.StatusBadRequest, errorBody{
			Message: "Invalid input",
			Error:   codeValidation,
			Issues:  []transport.Issue{{Field: param, Rule: "uuid"}},
		})
	}
	return id, nil
}

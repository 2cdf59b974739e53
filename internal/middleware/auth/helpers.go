package auth

import (
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

const (
	CtxUserID = "user_id"
	CtxEmail  = "email"
)

// UserID returns the authenticated caller, or uuid.Nil outside RequireAuth.
func UserID(c echo.Context) uuid.UUID {
	id, _ := c.Get(CtxUserID).(uuid.UUID)
	return id
}

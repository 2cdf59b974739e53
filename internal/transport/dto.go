package transport

import (
	"time"

	"github.com/google/uuid"

	"github.com/Skotchmaster/taskboard/internal/models"
)

type SignupRequest struct {
	Name     string `json:"name"     validate:"required,max=100"`
	Email    string `json:"email"    validate:"required,email,max=255"`
	Password string `json:"password" validate:"required,min=6,max=72"`
}

type LoginRequest struct {
	Email    string `json:"email"    validate:"required"`
	Password string `json:"password" validate:"required"`
}

type RefreshRequest struct {
	RefreshToken string `json:"refreshToken" validate:"required"`
}

type UserResponse struct {
	ID    uuid.UUID `json:"id"`
	Name  string    `json:"name"`
	Email string    `json:"email"`
}

type AuthResponse struct {
	AccessToken  string        `json:"accessToken"`
	RefreshToken string        `json:"refreshToken"`
	User         *UserResponse `json:"user,omitempty"`
}

type UpdateMeRequest struct {
	Name string `json:"name" validate:"required,max=100"`
}

type CreateProjectRequest struct {
	Name        string `json:"name"        validate:"required,max=200"`
	Description string `json:"description" validate:"max=2000"`
}

type UpdateProjectRequest struct {
	Name        *string `json:"name"        validate:"omitempty,max=200"`
	Description *string `json:"description" validate:"omitempty,max=2000"`
}

type AddMemberRequest struct {
	Email string `json:"email" validate:"required,email"`
}

type ProjectResponse struct {
	models.Project
	Members []UserResponse `json:"members,omitempty"`
}

type CreateColumnRequest struct {
	Name  string `json:"name"  validate:"required,max=100"`
	Order *int   `json:"order" validate:"omitempty,min=0"`
}

type UpdateColumnRequest struct {
	Name  *string `json:"name"  validate:"omitempty,max=100"`
	Order *int    `json:"order" validate:"omitempty,min=0"`
}

type ColumnOrderItem struct {
	ID    uuid.UUID `json:"id"    validate:"required"`
	Order *int      `json:"order" validate:"required,min=0"`
}

type ReorderColumnsRequest struct {
	Columns []ColumnOrderItem `json:"columns" validate:"required,min=1,dive"`
}

type ColumnResponse struct {
	ID    uuid.UUID `json:"id"`
	Name  string    `json:"name"`
	Order int       `json:"order"`
}

type ColumnsMessage struct {
	Message string           `json:"message"`
	Columns []ColumnResponse `json:"columns"`
}

type CreateTaskRequest struct {
	Title       string     `json:"title"       validate:"required,max=200"`
	Description string     `json:"description" validate:"max=1000"`
	ColumnID    uuid.UUID  `json:"columnId"    validate:"required"`
	Priority    string     `json:"priority"    validate:"omitempty,oneof=low medium high"`
	AssigneeID  *uuid.UUID `json:"assigneeId"`
	Order       *int       `json:"order"       validate:"omitempty,min=0"`
	Deadline    *time.Time `json:"deadline"`
}

type UpdateTaskRequest struct {
	Title       *string    `json:"title"       validate:"omitempty,max=200"`
	Description *string    `json:"description" validate:"omitempty,max=1000"`
	ColumnID    *uuid.UUID `json:"columnId"`
	Priority    *string    `json:"priority"    validate:"omitempty,oneof=low medium high"`
	AssigneeID  *uuid.UUID `json:"assigneeId"`
	Order       *int       `json:"order"       validate:"omitempty,min=0"`
	Deadline    *time.Time `json:"deadline"`
}

type AssignRequest struct {
	AssigneeID uuid.UUID `json:"assigneeId" validate:"required"`
}

type PageMeta struct {
	Total int64 `json:"total"`
	Page  int   `json:"page"`
	Size  int   `json:"size"`
}

type TaskPage struct {
	Items []models.Task `json:"items"`
	Meta  PageMeta      `json:"meta"`
}

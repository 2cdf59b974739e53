package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type User struct {
	ID           uuid.UUID `gorm:"type:uuid;primaryKey"     json:"id"`
	Email        string    `gorm:"uniqueIndex;not null"     json:"email"`
	Name         string    `gorm:"not null"                 json:"name"`
	PasswordHash string    `gorm:"not null"                 json:"-"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

type RefreshToken struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey"          json:"id"`
	UserID    uuid.UUID `gorm:"type:uuid;index;not null"      json:"userId"`
	TokenHash string    `gorm:"uniqueIndex;not null"          json:"-"`
	JTI       string    `gorm:"uniqueIndex;not null"          json:"jti"`
	ExpiresAt time.Time `gorm:"not null"                      json:"expiresAt"`
	Revoked   bool      `gorm:"not null;default:false"        json:"revoked"`
	CreatedAt time.Time `json:"createdAt"`
}

type Project struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey"     json:"id"`
	Name        string    `gorm:"not null"                 json:"name"`
	Description string    `json:"description"`
	OwnerID     uuid.UUID `gorm:"type:uuid;index;not null" json:"ownerId"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

type ProjectMember struct {
	ProjectID uuid.UUID `gorm:"type:uuid;primaryKey"       json:"projectId"`
	UserID    uuid.UUID `gorm:"type:uuid;primaryKey;index" json:"userId"`
	CreatedAt time.Time `json:"createdAt"`
}

// Column order is unique per project; idx_columns_project_order enforces it.
type Column struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey"                                                         json:"id"`
	ProjectID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_columns_project_order,priority:1"          json:"projectId"`
	Name      string    `gorm:"not null"                                                                     json:"name"`
	Order     int       `gorm:"column:sort_order;not null;uniqueIndex:idx_columns_project_order,priority:2" json:"order"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

type Task struct {
	ID          uuid.UUID  `gorm:"type:uuid;primaryKey"           json:"id"`
	ProjectID   uuid.UUID  `gorm:"type:uuid;index;not null"       json:"projectId"`
	ColumnID    uuid.UUID  `gorm:"type:uuid;index;not null"       json:"columnId"`
	Title       string     `gorm:"size:200;not null"              json:"title"`
	Description string     `gorm:"size:1000"                      json:"description"`
	Priority    string     `gorm:"size:16;not null;default:medium" json:"priority"`
	AssigneeID  *uuid.UUID `gorm:"type:uuid;index"                json:"assigneeId,omitempty"`
	Order       int        `gorm:"column:sort_order;not null;default:0" json:"order"`
	Deadline    *time.Time `json:"deadline,omitempty"`
	CreatedAt   time.Time  `json:"createdAt"`
	UpdatedAt   time.Time  `json:"updatedAt"`
}

func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	return nil
}

func (t *RefreshToken) BeforeCreate(tx *gorm.DB) error {
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	return nil
}

func (p *Project) BeforeCreate(tx *gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}

func (c *Column) BeforeCreate(tx *gorm.DB) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	return nil
}

func (t *Task) BeforeCreate(tx *gorm.DB) error {
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	return nil
}

func (Column) TableName() string {
	return "board_columns"
}

// All lists every model in migration order.
func All() []any {
	return []any{
		&User{},
		&RefreshToken{},
		&Project{},
		&ProjectMember{},
		&Column{},
		&Task{},
	}
}

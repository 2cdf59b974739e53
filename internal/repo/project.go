package repo

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/Skotchmaster/taskboard/internal/models"
)

var ErrAlreadyMember = errors.New("already a member")

// ListProjectsForUser returns projects the user owns or belongs to, newest first.
func (r *GormRepo) ListProjectsForUser(ctx context.Context, userID uuid.UUID) ([]models.Project, error) {
	var projects []models.Project
	member := r.DB.Model(&models.ProjectMember{}).Select("project_id").Where("user_id = ?", userID)
	if err := r.DB.WithContext(ctx).
		Where("owner_id = ? OR id IN (?)", userID, member).
		Order("created_at DESC").
		Find(&projects).Error; err != nil {
		return nil, err
	}
	return projects, nil
}

// CreateProject stores the project with its owner as the sole member.
func (r *GormRepo) CreateProject(ctx context.Context, p *models.Project) error {
	return r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(p).Error; err != nil {
			return translateError(err)
		}
		return translateError(tx.Create(&models.ProjectMember{ProjectID: p.ID, UserID: p.OwnerID}).Error)
	})
}

func (r *GormRepo) GetProject(ctx context.Context, id uuid.UUID) (*models.Project, error) {
	var p models.Project
	if err := r.DB.WithContext(ctx).Where("id = ?", id).First(&p).Error; err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *GormRepo) UpdateProject(ctx context.Context, id uuid.UUID, updates map[string]any) (*models.Project, error) {
	if len(updates) > 0 {
		res := r.DB.WithContext(ctx).Model(&models.Project{}).Where("id = ?", id).Updates(updates)
		if res.Error != nil {
			return nil, res.Error
		}
		if res.RowsAffected == 0 {
			return nil, gorm.ErrRecordNotFound
		}
	}
	return r.GetProject(ctx, id)
}

// DeleteProject removes the project together with its tasks, columns and memberships.
func (r *GormRepo) DeleteProject(ctx context.Context, id uuid.UUID) error {
	return r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("project_id = ?", id).Delete(&models.Task{}).Error; err != nil {
			return err
		}
		if err := tx.Where("project_id = ?", id).Delete(&models.Column{}).Error; err != nil {
			return err
		}
		if err := tx.Where("project_id = ?", id).Delete(&models.ProjectMember{}).Error; err != nil {
			return err
		}
		res := tx.Delete(&models.Project{}, "id = ?", id)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return nil
	})
}

func (r *GormRepo) IsMember(ctx context.Context, projectID, userID uuid.UUID) (bool, error) {
	var count int64
	if err := r.DB.WithContext(ctx).
		Model(&models.ProjectMember{}).
		Where("project_id = ? AND user_id = ?", projectID, userID).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *GormRepo) ListMembers(ctx context.Context, projectID uuid.UUID) ([]models.User, error) {
	var users []models.User
	if err := r.DB.WithContext(ctx).
		Joins("JOIN project_members ON project_members.user_id = users.id").
		Where("project_members.project_id = ?", projectID).
		Order("project_members.created_at ASC").
		Find(&users).Error; err != nil {
		return nil, err
	}
	return users, nil
}

func (r *GormRepo) AddMember(ctx context.Context, projectID, userID uuid.UUID) error {
	err := r.DB.WithContext(ctx).Create(&models.ProjectMember{ProjectID: projectID, UserID: userID}).Error
	if errors.Is(translateError(err), ErrDuplicateKey) {
		return ErrAlreadyMember
	}
	return err
}

// RemoveMember drops the membership and clears the user's assignments in the project.
func (r *GormRepo) RemoveMember(ctx context.Context, projectID, userID uuid.UUID) error {
	return r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Where("project_id = ? AND user_id = ?", projectID, userID).Delete(&models.ProjectMember{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return tx.Model(&models.Task{}).
			Where("project_id = ? AND assignee_id = ?", projectID, userID).
			Update("assignee_id", nil).Error
	})
}

func (r *GormRepo) ListProjectIDs(ctx context.Context) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	if err := r.DB.WithContext(ctx).Model(&models.Project{}).Pluck("id", &ids).Error; err != nil {
		return nil, err
	}
	return ids, nil
}

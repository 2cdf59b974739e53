package service

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/Skotchmaster/taskboard/internal/events"
	"github.com/Skotchmaster/taskboard/internal/models"
	"github.com/Skotchmaster/taskboard/internal/repo"
)

const maxProjectName = 200

type ProjectService struct {
	Repo   *repo.GormRepo
	Events events.Publisher
}

type ProjectDetails struct {
	models.Project
	Members []models.User `json:"members"`
}

// Authorize loads the project and checks that userID is its owner or a member.
func (s *ProjectService) Authorize(ctx context.Context, projectID, userID uuid.UUID) (*models.Project, error) {
	p, err := s.Repo.GetProject(ctx, projectID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, newError(ErrNotFound, "Project not found")
	}
	if err != nil {
		return nil, err
	}
	if p.OwnerID == userID {
		return p, nil
	}
	ok, err := s.Repo.IsMember(ctx, projectID, userID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, newError(ErrForbidden, "Access denied")
	}
	return p, nil
}

func (s *ProjectService) authorizeOwner(ctx context.Context, projectID, userID uuid.UUID) (*models.Project, error) {
	p, err := s.Authorize(ctx, projectID, userID)
	if err != nil {
		return nil, err
	}
	if p.OwnerID != userID {
		return nil, newError(ErrForbidden, "Only the project owner can do this")
	}
	return p, nil
}

func (s *ProjectService) List(ctx context.Context, userID uuid.UUID) ([]models.Project, error) {
	return s.Repo.ListProjectsForUser(ctx, userID)
}

func normalizeProjectName(name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", invalid("project name is required")
	}
	if len([]rune(name)) > maxProjectName {
		return "", invalid("project name must be at most %d characters", maxProjectName)
	}
	return name, nil
}

func (s *ProjectService) Create(ctx context.Context, ownerID uuid.UUID, name, description string) (*models.Project, error) {
	name, err := normalizeProjectName(name)
	if err != nil {
		return nil, err
	}
	p := &models.Project{Name: name, Description: strings.TrimSpace(description), OwnerID: ownerID}
	if err := s.Repo.CreateProject(ctx, p); err != nil {
		return nil, err
	}
	events.Emit(ctx, s.Events, events.Event{Type: events.ProjectCreated, ProjectID: p.ID, EntityID: p.ID, Payload: p})
	return p, nil
}

func (s *ProjectService) Get(ctx context.Context, projectID, userID uuid.UUID) (*ProjectDetails, error) {
	p, err := s.Authorize(ctx, projectID, userID)
	if err != nil {
		return nil, err
	}
	members, err := s.Repo.ListMembers(ctx, projectID)
	if err != nil {
		return nil, err
	}
	return &ProjectDetails{Project: *p, Members: members}, nil
}

func (s *ProjectService) Update(ctx context.Context, projectID, userID uuid.UUID, name, description *string) (*models.Project, error) {
	if _, err := s.authorizeOwner(ctx, projectID, userID); err != nil {
		return nil, err
	}
	updates := map[string]any{}
	if name != nil {
		n, err := normalizeProjectName(*name)
		if err != nil {
			return nil, err
		}
		updates["name"] = n
	}
	if description != nil {
		updates["description"] = strings.TrimSpace(*description)
	}
	p, err := s.Repo.UpdateProject(ctx, projectID, updates)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, newError(ErrNotFound, "Project not found")
	}
	if err != nil {
		return nil, err
	}
	events.Emit(ctx, s.Events, events.Event{Type: events.ProjectUpdated, ProjectID: projectID, EntityID: projectID, Payload: p})
	return p, nil
}

func (s *ProjectService) Delete(ctx context.Context, projectID, userID uuid.UUID) error {
	if _, err := s.authorizeOwner(ctx, projectID, userID); err != nil {
		return err
	}
	err := s.Repo.DeleteProject(ctx, projectID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return newError(ErrNotFound, "Project not found")
	}
	if err != nil {
		return err
	}
	events.Emit(ctx, s.Events, events.Event{Type: events.ProjectDeleted, ProjectID: projectID, EntityID: projectID})
	return nil
}

func (s *ProjectService) AddMember(ctx context.Context, projectID, userID uuid.UUID, email string) (*models.User, error) {
	if _, err := s.authorizeOwner(ctx, projectID, userID); err != nil {
		return nil, err
	}
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return nil, invalid("email is required")
	}
	u, err := s.Repo.GetUserByEmail(ctx, email)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, newError(ErrNotFound, "User not found")
	}
	if err != nil {
		return nil, err
	}
	err = s.Repo.AddMember(ctx, projectID, u.ID)
	if errors.Is(err, repo.ErrAlreadyMember) {
		return nil, &ConflictError{Code: CodeAlreadyMember, Message: "User is already a member of this project"}
	}
	if err != nil {
		return nil, err
	}
	events.Emit(ctx, s.Events, events.Event{Type: events.ProjectMemberAdded, ProjectID: projectID, EntityID: u.ID})
	return u, nil
}

func (s *ProjectService) RemoveMember(ctx context.Context, projectID, userID, memberID uuid.UUID) error {
	p, err := s.authorizeOwner(ctx, projectID, userID)
	if err != nil {
		return err
	}
	if memberID == p.OwnerID {
		return invalid("the project owner cannot be removed")
	}
	err = s.Repo.RemoveMember(ctx, projectID, memberID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return newError(ErrNotFound, "Member not found")
	}
	if err != nil {
		return err
	}
	events.Emit(ctx, s.Events, events.Event{Type: events.ProjectMemberRemoved, ProjectID: projectID, EntityID: memberID})
	return nil
}

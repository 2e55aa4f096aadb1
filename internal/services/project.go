package services

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/google/uuid"

	"projecthub/internal/domain"
)

const (
	inviteCodeLength      = 8
	inviteCodeMaxAttempts = 10
)

var inviteCodeAlphabet = []rune("ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789")

// generateInviteCode returns an 8-character uppercase alphanumeric code
// drawn with uniform sampling from crypto/rand.
func generateInviteCode() (string, error) {
	b := make([]rune, inviteCodeLength)
	max := big.NewInt(int64(len(inviteCodeAlphabet)))
	for i := 0; i < inviteCodeLength; i++ {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", err
		}
		b[i] = inviteCodeAlphabet[n.Int64()]
	}
	return string(b), nil
}

type projectService struct {
	projectRepo    domain.ProjectRepository
	userRepo       domain.UserRepository
	contextTimeout time.Duration
}

// NewProjectService creates a ProjectService with the given repositories.
func NewProjectService(projectRepo domain.ProjectRepository, userRepo domain.UserRepository, timeout time.Duration) domain.ProjectService {
	return &projectService{
		projectRepo:    projectRepo,
		userRepo:       userRepo,
		contextTimeout: timeout,
	}
}

func (s *projectService) CreateProject(ctx context.Context, name, description, ownerID string) (*domain.Project, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	name = strings.TrimSpace(name)
	if name == "" {
		return nil, domain.ErrInvalidInput
	}
	exists, err := s.projectRepo.ExistsByOwnerAndName(ctx, ownerID, name)
	if err != nil {
		return nil, fmt.Errorf("failed to check project name: %w", err)
	}
	if exists {
		return nil, domain.ErrDuplicateProjectName
	}

	// The unique index on invite_code is the real guarantee; the retry
	// loop only avoids obvious collisions before the insert.
	var code string
	for attempt := 0; ; attempt++ {
		if attempt == inviteCodeMaxAttempts {
			return nil, domain.ErrCodeGenerationExhausted
		}
		candidate, err := generateInviteCode()
		if err != nil {
			return nil, fmt.Errorf("failed to generate invite code: %w", err)
		}
		existing, err := s.projectRepo.GetByInviteCode(ctx, candidate)
		if err != nil && !errors.Is(err, domain.ErrNotFound) {
			return nil, fmt.Errorf("failed to check invite code: %w", err)
		}
		if existing == nil {
			code = candidate
			break
		}
	}

	now := time.Now()
	project := domain.NewProject(name, strings.TrimSpace(description), ownerID, now, now)
	project.InviteCode = code
	if err := s.projectRepo.Create(ctx, project); err != nil {
		return nil, fmt.Errorf("failed to create project: %w", err)
	}
	return project, nil
}

func (s *projectService) GetProject(ctx context.Context, projectID, callerID string) (*domain.Project, []*domain.Member, []*domain.Resource, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	project, err := s.projectRepo.GetByID(ctx, projectID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, nil, nil, domain.ErrNotFound
		}
		return nil, nil, nil, fmt.Errorf("failed to get project: %w", err)
	}
	member, err := s.projectRepo.GetMember(ctx, projectID, callerID)
	if err != nil && !errors.Is(err, domain.ErrNotFound) {
		return nil, nil, nil, fmt.Errorf("failed to get member: %w", err)
	}
	if member == nil {
		return nil, nil, nil, domain.ErrForbidden
	}
	members, err := s.projectRepo.ListMembers(ctx, projectID)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("failed to list members: %w", err)
	}
	resources, err := s.projectRepo.ListResources(ctx, projectID)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("failed to list resources: %w", err)
	}
	if members == nil {
		members = []*domain.Member{}
	}
	if resources == nil {
		resources = []*domain.Resource{}
	}
	return project, members, resources, nil
}

func (s *projectService) ListProjects(ctx context.Context, userID string) ([]*domain.Project, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	projects, err := s.projectRepo.ListByUserID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list projects: %w", err)
	}
	if projects == nil {
		projects = []*domain.Project{}
	}
	return projects, nil
}

func (s *projectService) UpdateProject(ctx context.Context, projectID, callerID string, name, description *string) (*domain.Project, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	admin, err := s.IsUserAdmin(ctx, projectID, callerID)
	if err != nil {
		return nil, err
	}
	if !admin {
		return nil, domain.ErrForbidden
	}
	if name != nil {
		trimmed := strings.TrimSpace(*name)
		if trimmed == "" {
			return nil, domain.ErrInvalidInput
		}
		name = &trimmed
	}
	updated, err := s.projectRepo.Update(ctx, projectID, name, description)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("failed to update project: %w", err)
	}
	return updated, nil
}

func (s *projectService) DeleteProject(ctx context.Context, projectID, callerID string) error {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	project, err := s.projectRepo.GetByID(ctx, projectID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return domain.ErrNotFound
		}
		return fmt.Errorf("failed to get project: %w", err)
	}
	if project.OwnerID != callerID {
		return domain.ErrForbidden
	}
	if err := s.projectRepo.Delete(ctx, projectID); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return domain.ErrNotFound
		}
		return fmt.Errorf("failed to delete project: %w", err)
	}
	return nil
}

func (s *projectService) JoinProject(ctx context.Context, inviteCode, userID string) (*domain.Project, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	code := strings.ToUpper(strings.TrimSpace(inviteCode))
	if code == "" {
		return nil, domain.ErrInvalidInput
	}
	project, err := s.projectRepo.GetByInviteCode(ctx, code)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get project by invite code: %w", err)
	}
	if err := s.projectRepo.AddMember(ctx, project.ID, userID, domain.RoleMember); err != nil {
		if errors.Is(err, domain.ErrAlreadyMember) {
			return nil, domain.ErrAlreadyMember
		}
		return nil, fmt.Errorf("failed to add member: %w", err)
	}
	return project, nil
}

func (s *projectService) AddResource(ctx context.Context, projectID, callerID, name, url string) (*domain.Resource, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	name = strings.TrimSpace(name)
	if name == "" {
		return nil, domain.ErrInvalidInput
	}
	member, err := s.projectRepo.GetMember(ctx, projectID, callerID)
	if err != nil && !errors.Is(err, domain.ErrNotFound) {
		return nil, fmt.Errorf("failed to get member: %w", err)
	}
	if member == nil {
		return nil, domain.ErrForbidden
	}
	res := &domain.Resource{
		ID:        uuid.NewString(),
		ProjectID: projectID,
		Name:      name,
		URL:       strings.TrimSpace(url),
		AddedBy:   callerID,
		CreatedAt: time.Now(),
	}
	if err := s.projectRepo.AddResource(ctx, res); err != nil {
		return nil, fmt.Errorf("failed to add resource: %w", err)
	}
	return res, nil
}

func (s *projectService) RemoveResource(ctx context.Context, projectID, callerID, resourceID string) error {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	member, err := s.projectRepo.GetMember(ctx, projectID, callerID)
	if err != nil && !errors.Is(err, domain.ErrNotFound) {
		return fmt.Errorf("failed to get member: %w", err)
	}
	if member == nil {
		return domain.ErrForbidden
	}
	if err := s.projectRepo.RemoveResource(ctx, projectID, resourceID); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return domain.ErrNotFound
		}
		return fmt.Errorf("failed to remove resource: %w", err)
	}
	return nil
}

func (s *projectService) RemoveMember(ctx context.Context, projectID, memberID, callerID string) error {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	project, err := s.projectRepo.GetByID(ctx, projectID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return domain.ErrNotFound
		}
		return fmt.Errorf("failed to get project: %w", err)
	}
	admin, err := s.IsUserAdmin(ctx, projectID, callerID)
	if err != nil {
		return err
	}
	if !admin {
		return domain.ErrForbidden
	}
	if memberID == project.OwnerID {
		return domain.ErrCannotRemoveOwner
	}
	if err := s.projectRepo.RemoveMember(ctx, projectID, memberID); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return domain.ErrNotFound
		}
		return fmt.Errorf("failed to remove member: %w", err)
	}
	return nil
}

func (s *projectService) IsUserAdmin(ctx context.Context, projectID, userID string) (bool, error) {
	member, err := s.projectRepo.GetMember(ctx, projectID, userID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return false, nil
		}
		return false, fmt.Errorf("failed to get member: %w", err)
	}
	if member == nil {
		return false, nil
	}
	return member.Role.IsAdmin(), nil
}

package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"projecthub/internal/domain"
)

const defaultInvitationDays = 7

type invitationService struct {
	invitationRepo domain.InvitationRepository
	projectRepo    domain.ProjectRepository
	userRepo       domain.UserRepository
	emailService   domain.EmailService
	logger         *slog.Logger
	contextTimeout time.Duration
}

// NewInvitationService creates an InvitationService with the given
// repositories. emailService may be nil; invitation emails are then skipped.
func NewInvitationService(
	invitationRepo domain.InvitationRepository,
	projectRepo domain.ProjectRepository,
	userRepo domain.UserRepository,
	emailService domain.EmailService,
	logger *slog.Logger,
	timeout time.Duration,
) domain.InvitationService {
	return &invitationService{
		invitationRepo: invitationRepo,
		projectRepo:    projectRepo,
		userRepo:       userRepo,
		emailService:   emailService,
		logger:         logger,
		contextTimeout: timeout,
	}
}

func (s *invitationService) Create(ctx context.Context, projectID, email, invitedBy string, expiresInDays int) (*domain.Invitation, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	email = strings.TrimSpace(strings.ToLower(email))
	if email == "" {
		return nil, domain.ErrInvalidInput
	}
	if expiresInDays <= 0 {
		expiresInDays = defaultInvitationDays
	}

	project, err := s.projectRepo.GetByID(ctx, projectID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get project: %w", err)
	}
	inviter, err := s.projectRepo.GetMember(ctx, projectID, invitedBy)
	if err != nil && !errors.Is(err, domain.ErrNotFound) {
		return nil, fmt.Errorf("failed to get member: %w", err)
	}
	if inviter == nil {
		return nil, domain.ErrForbidden
	}

	// Collisions are not pre-checked here; the unique index on code is the
	// guarantee and the caller may simply retry on the rare violation.
	code, err := generateInviteCode()
	if err != nil {
		return nil, fmt.Errorf("failed to generate invitation code: %w", err)
	}

	now := time.Now()
	inv := &domain.Invitation{
		ProjectID: projectID,
		Code:      code,
		Email:     email,
		InvitedBy: invitedBy,
		Role:      domain.RoleMember,
		Status:    domain.InvitationPending,
		CreatedAt: now,
		ExpiresAt: now.Add(time.Duration(expiresInDays) * 24 * time.Hour),
	}
	if err := s.invitationRepo.Create(ctx, inv); err != nil {
		return nil, fmt.Errorf("failed to create invitation: %w", err)
	}

	if s.emailService != nil {
		inviterName := ""
		if u, err := s.userRepo.GetByID(ctx, invitedBy); err == nil && u != nil {
			inviterName = strings.TrimSpace(u.Name + " " + u.LastName)
		}
		data := &domain.ProjectInvitationEmailData{
			Email:       email,
			InviterName: inviterName,
			ProjectName: project.Name,
			Code:        code,
			ExpiresDays: expiresInDays,
		}
		if err := s.emailService.SendProjectInvitation(ctx, data); err != nil {
			// Email delivery is advisory; the invitation itself stands.
			s.logger.Warn("invitation email failed", "email", email, "err", err)
		}
	}
	return inv, nil
}

func (s *invitationService) IsValid(ctx context.Context, code string) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	inv, err := s.invitationRepo.GetByCode(ctx, strings.ToUpper(strings.TrimSpace(code)))
	if err != nil {
		return false, fmt.Errorf("failed to get invitation: %w", err)
	}
	if inv == nil {
		return false, nil
	}
	return inv.Usable(time.Now()), nil
}

func (s *invitationService) GetByCode(ctx context.Context, code string) (*domain.Invitation, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	inv, err := s.invitationRepo.GetByCode(ctx, strings.ToUpper(strings.TrimSpace(code)))
	if err != nil {
		return nil, fmt.Errorf("failed to get invitation: %w", err)
	}
	return inv, nil
}

func (s *invitationService) ListByProject(ctx context.Context, projectID, callerID string) ([]*domain.Invitation, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	member, err := s.projectRepo.GetMember(ctx, projectID, callerID)
	if err != nil && !errors.Is(err, domain.ErrNotFound) {
		return nil, fmt.Errorf("failed to get member: %w", err)
	}
	if member == nil {
		return nil, domain.ErrForbidden
	}
	invs, err := s.invitationRepo.ListByProjectID(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("failed to list invitations: %w", err)
	}
	if invs == nil {
		invs = []*domain.Invitation{}
	}
	return invs, nil
}

// UpdateStatus sets the stored status without checking transition legality.
// Returns (nil, nil) when the invitation does not exist.
func (s *invitationService) UpdateStatus(ctx context.Context, id string, status domain.InvitationStatus) (*domain.Invitation, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	if !status.IsValid() {
		return nil, domain.ErrInvalidInput
	}
	inv, err := s.invitationRepo.UpdateStatus(ctx, id, status)
	if err != nil {
		return nil, fmt.Errorf("failed to update invitation status: %w", err)
	}
	return inv, nil
}

// UpdateStatusByCode is UpdateStatus addressed by invitation code.
func (s *invitationService) UpdateStatusByCode(ctx context.Context, code string, status domain.InvitationStatus) (*domain.Invitation, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	if !status.IsValid() {
		return nil, domain.ErrInvalidInput
	}
	inv, err := s.invitationRepo.GetByCode(ctx, strings.ToUpper(strings.TrimSpace(code)))
	if err != nil {
		return nil, fmt.Errorf("failed to get invitation: %w", err)
	}
	if inv == nil {
		return nil, nil
	}
	inv, err = s.invitationRepo.UpdateStatus(ctx, inv.ID, status)
	if err != nil {
		return nil, fmt.Errorf("failed to update invitation status: %w", err)
	}
	return inv, nil
}

func (s *invitationService) Accept(ctx context.Context, code, userID string) (*domain.Project, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	inv, err := s.invitationRepo.GetByCode(ctx, strings.ToUpper(strings.TrimSpace(code)))
	if err != nil {
		return nil, fmt.Errorf("failed to get invitation: %w", err)
	}
	if inv == nil {
		return nil, domain.ErrNotFound
	}
	if !inv.Usable(time.Now()) {
		return nil, domain.ErrInvalidInput
	}
	project, err := s.projectRepo.GetByID(ctx, inv.ProjectID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get project: %w", err)
	}
	if err := s.projectRepo.AddMember(ctx, inv.ProjectID, userID, domain.RoleMember); err != nil {
		if errors.Is(err, domain.ErrAlreadyMember) {
			return nil, domain.ErrAlreadyMember
		}
		return nil, fmt.Errorf("failed to add member: %w", err)
	}
	if _, err := s.invitationRepo.UpdateStatus(ctx, inv.ID, domain.InvitationAccepted); err != nil {
		return nil, fmt.Errorf("failed to update invitation status: %w", err)
	}
	return project, nil
}

func (s *invitationService) Decline(ctx context.Context, code string) error {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	inv, err := s.invitationRepo.GetByCode(ctx, strings.ToUpper(strings.TrimSpace(code)))
	if err != nil {
		return fmt.Errorf("failed to get invitation: %w", err)
	}
	if inv == nil {
		return domain.ErrNotFound
	}
	if _, err := s.invitationRepo.UpdateStatus(ctx, inv.ID, domain.InvitationDeclined); err != nil {
		return fmt.Errorf("failed to update invitation status: %w", err)
	}
	return nil
}

func (s *invitationService) CleanupExpired(ctx context.Context) (int64, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	n, err := s.invitationRepo.ExpirePending(ctx, time.Now())
	if err != nil {
		return 0, fmt.Errorf("failed to expire invitations: %w", err)
	}
	return n, nil
}

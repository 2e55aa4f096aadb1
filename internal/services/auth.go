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

type authService struct {
	userRepo       domain.UserRepository
	identity       domain.IdentityVerifier
	tokenIssuer    domain.TokenIssuer
	tokenExpiry    time.Duration
	calendar       domain.CalendarProvider
	logger         *slog.Logger
	contextTimeout time.Duration
}

// NewAuthService creates an AuthService backed by Google identity
// verification and the calendar provider for account-level calendar
// connect/disconnect.
func NewAuthService(
	userRepo domain.UserRepository,
	identity domain.IdentityVerifier,
	tokenIssuer domain.TokenIssuer,
	tokenExpiry time.Duration,
	calendar domain.CalendarProvider,
	logger *slog.Logger,
	timeout time.Duration,
) domain.AuthService {
	return &authService{
		userRepo:       userRepo,
		identity:       identity,
		tokenIssuer:    tokenIssuer,
		tokenExpiry:    tokenExpiry,
		calendar:       calendar,
		logger:         logger,
		contextTimeout: timeout,
	}
}

func (s *authService) SignInWithGoogle(ctx context.Context, idToken string) (string, *domain.User, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	ident, err := s.identity.Verify(ctx, idToken)
	if err != nil {
		return "", nil, domain.ErrInvalidToken
	}

	user, err := s.userRepo.GetByGoogleID(ctx, ident.SubjectID)
	if err != nil && !errors.Is(err, domain.ErrUserNotFound) {
		return "", nil, fmt.Errorf("failed to get user: %w", err)
	}
	if user == nil {
		// An account registered before Google linked the id.
		user, err = s.userRepo.GetByEmail(ctx, strings.ToLower(ident.Email))
		if err != nil && !errors.Is(err, domain.ErrUserNotFound) {
			return "", nil, fmt.Errorf("failed to get user: %w", err)
		}
	}
	now := time.Now()
	if user == nil {
		user = domain.NewUser(ident.SubjectID, strings.ToLower(ident.Email), ident.Name, ident.LastName, ident.Picture, now, now)
		if err := s.userRepo.Create(ctx, user); err != nil {
			return "", nil, fmt.Errorf("failed to create user: %w", err)
		}
	} else if user.GoogleID == "" || user.Picture != ident.Picture {
		user.GoogleID = ident.SubjectID
		user.Picture = ident.Picture
		user.UpdatedAt = now
		if err := s.userRepo.Update(ctx, user); err != nil {
			return "", nil, fmt.Errorf("failed to update user: %w", err)
		}
	}

	token, err := s.tokenIssuer.Issue(user.ID, user.Email, s.tokenExpiry)
	if err != nil {
		return "", nil, fmt.Errorf("failed to sign token: %w", err)
	}
	return token, user, nil
}

func (s *authService) CalendarAuthURL(state string) string {
	return s.calendar.AuthURL(state)
}

func (s *authService) ConnectCalendar(ctx context.Context, userID, authCode string) error {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	if strings.TrimSpace(authCode) == "" {
		return domain.ErrInvalidInput
	}
	_, refreshToken, _, err := s.calendar.ExchangeCode(ctx, authCode)
	if err != nil {
		return fmt.Errorf("failed to exchange authorization code: %w", err)
	}
	if refreshToken == "" {
		return domain.ErrInvalidInput
	}
	if err := s.userRepo.SetCalendarCredentials(ctx, userID, refreshToken, true); err != nil {
		return fmt.Errorf("failed to store calendar credentials: %w", err)
	}
	return nil
}

func (s *authService) DisconnectCalendar(ctx context.Context, userID string) error {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return domain.ErrUserNotFound
		}
		return fmt.Errorf("failed to get user: %w", err)
	}
	if user.CalendarRefreshToken != "" {
		if err := s.calendar.RevokeAccess(ctx, user.CalendarRefreshToken); err != nil {
			// Revocation is best-effort; the stored token is cleared
			// either way.
			s.logger.Warn("failed to revoke calendar access", "user_id", userID, "err", err)
		}
	}
	if err := s.userRepo.SetCalendarCredentials(ctx, userID, "", false); err != nil {
		return fmt.Errorf("failed to clear calendar credentials: %w", err)
	}
	return nil
}

func (s *authService) CalendarStatus(ctx context.Context, userID string) (*domain.CalendarStatus, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return nil, domain.ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	status := &domain.CalendarStatus{Connected: user.CalendarSyncEnabled()}
	if status.Connected {
		status.Verified = s.calendar.VerifyAccess(ctx, user.CalendarRefreshToken)
	}
	return status, nil
}

package domain

import (
	"context"
	"errors"
	"time"
)

// Sentinel errors for user operations.
var (
	ErrUserNotFound   = errors.New("user not found")
	ErrDuplicateEmail = errors.New("email already in use")
	ErrInvalidToken   = errors.New("invalid identity token")
)

// User represents a registered user. Accounts are created on first Google
// sign-in; CalendarEnabled and CalendarRefreshToken govern whether task
// deadlines are mirrored into the user's Google Calendar.
// swagger:model User
type User struct {
	ID                   string    `json:"id"`
	GoogleID             string    `json:"-"`
	Email                string    `json:"email"`
	Name                 string    `json:"name"`
	LastName             string    `json:"last_name"`
	Picture              string    `json:"picture,omitempty"`
	CalendarEnabled      bool      `json:"calendar_enabled"`
	CalendarRefreshToken string    `json:"-"`
	CreatedAt            time.Time `json:"created_at"`
	UpdatedAt            time.Time `json:"updated_at"`
}

// NewUser returns a new User with the given fields. ID is typically set by the repository on create.
func NewUser(googleID, email, name, lastName, picture string, createdAt, updatedAt time.Time) *User {
	return &User{
		GoogleID:  googleID,
		Email:     email,
		Name:      name,
		LastName:  lastName,
		Picture:   picture,
		CreatedAt: createdAt,
		UpdatedAt: updatedAt,
	}
}

// CalendarSyncEnabled reports whether calendar sync may be attempted for the
// user: both the enabled flag and a refresh token are required.
func (u *User) CalendarSyncEnabled() bool {
	return u.CalendarEnabled && u.CalendarRefreshToken != ""
}

// Identity is the subset of claims obtained from a verified external
// identity token.
type Identity struct {
	SubjectID string
	Email     string
	Name      string
	LastName  string
	Picture   string
}

// IdentityVerifier verifies an opaque external identity token (a Google ID
// token) and returns the identity it asserts. A verification that succeeds
// but yields no email or name must be reported as ErrInvalidToken.
type IdentityVerifier interface {
	Verify(ctx context.Context, rawToken string) (*Identity, error)
}

// TokenIssuer issues session tokens (e.g. JWT) for an authenticated user.
type TokenIssuer interface {
	Issue(userID, email string, expiry time.Duration) (string, error)
}

// TokenVerifier verifies a session token and returns the authenticated user ID.
type TokenVerifier interface {
	Verify(token string) (userID string, err error)
}

// UserRepository defines the interface for user storage.
type UserRepository interface {
	Create(ctx context.Context, user *User) error
	GetByID(ctx context.Context, id string) (*User, error)
	GetByEmail(ctx context.Context, email string) (*User, error)
	GetByGoogleID(ctx context.Context, googleID string) (*User, error)
	// FindByDisplayName matches users whose display name equals name,
	// case-insensitively. Multiple matches are all returned.
	FindByDisplayName(ctx context.Context, name string) ([]*User, error)
	Update(ctx context.Context, user *User) error
	SetCalendarCredentials(ctx context.Context, userID, refreshToken string, enabled bool) error
}

// CalendarStatus describes a user's calendar connection.
// swagger:model CalendarStatus
type CalendarStatus struct {
	Connected bool `json:"connected"`
	Verified  bool `json:"verified"`
}

// AuthService defines Google sign-in and calendar account operations.
type AuthService interface {
	SignInWithGoogle(ctx context.Context, idToken string) (token string, user *User, err error)
	CalendarAuthURL(state string) string
	ConnectCalendar(ctx context.Context, userID, authCode string) error
	DisconnectCalendar(ctx context.Context, userID string) error
	CalendarStatus(ctx context.Context, userID string) (*CalendarStatus, error)
}

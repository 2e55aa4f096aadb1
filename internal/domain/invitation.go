package domain

import (
	"context"
	"time"
)

// InvitationStatus is the lifecycle state of a per-email invitation.
type InvitationStatus string

const (
	InvitationPending  InvitationStatus = "pending"
	InvitationAccepted InvitationStatus = "accepted"
	InvitationDeclined InvitationStatus = "declined"
	InvitationExpired  InvitationStatus = "expired"
)

// IsValid reports whether the status is one of the known values.
func (s InvitationStatus) IsValid() bool {
	switch s {
	case InvitationPending, InvitationAccepted, InvitationDeclined, InvitationExpired:
		return true
	default:
		return false
	}
}

// Invitation represents a per-email project invitation. The code is unique
// across all invitations; the invited role is always member. This mechanism
// is independent of the project-level invite code.
// swagger:model Invitation
type Invitation struct {
	ID        string           `json:"id"`
	ProjectID string           `json:"project_id"`
	Code      string           `json:"code"`
	Email     string           `json:"email"`
	InvitedBy string           `json:"invited_by"`
	Role      MemberRole       `json:"role"`
	Status    InvitationStatus `json:"status"`
	CreatedAt time.Time        `json:"created_at"`
	ExpiresAt time.Time        `json:"expires_at"`
}

// Usable reports whether the invitation can still be accepted at the given
// instant: pending and not past its expiry. An invitation past ExpiresAt is
// never usable regardless of stored status.
func (i *Invitation) Usable(now time.Time) bool {
	return i.Status == InvitationPending && i.ExpiresAt.After(now)
}

// InvitationRepository defines storage operations for invitations. Lookups
// return (nil, nil) or an empty slice on miss; a unique index on code
// enforces global code uniqueness.
type InvitationRepository interface {
	Create(ctx context.Context, inv *Invitation) error
	GetByID(ctx context.Context, id string) (*Invitation, error)
	GetByCode(ctx context.Context, code string) (*Invitation, error)
	ListByEmail(ctx context.Context, email string) ([]*Invitation, error)
	ListByProjectID(ctx context.Context, projectID string) ([]*Invitation, error)
	ListByStatus(ctx context.Context, status InvitationStatus) ([]*Invitation, error)
	UpdateStatus(ctx context.Context, id string, status InvitationStatus) (*Invitation, error)
	// ExpirePending transitions every pending invitation whose expiry is
	// before now to expired and returns the number of rows mutated.
	ExpirePending(ctx context.Context, now time.Time) (int64, error)
}

// InvitationService defines the invitation ledger: issuing codes, validity
// checks, status updates, and periodic expiry sweeps.
type InvitationService interface {
	Create(ctx context.Context, projectID, email, invitedBy string, expiresInDays int) (*Invitation, error)
	IsValid(ctx context.Context, code string) (bool, error)
	GetByCode(ctx context.Context, code string) (*Invitation, error)
	ListByProject(ctx context.Context, projectID, callerID string) ([]*Invitation, error)
	UpdateStatus(ctx context.Context, id string, status InvitationStatus) (*Invitation, error)
	UpdateStatusByCode(ctx context.Context, code string, status InvitationStatus) (*Invitation, error)
	// Accept marks the invitation accepted and joins the user to the
	// project; Decline only records the decision.
	Accept(ctx context.Context, code, userID string) (*Project, error)
	Decline(ctx context.Context, code string) error
	CleanupExpired(ctx context.Context) (int64, error)
}

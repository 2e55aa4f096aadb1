package domain

import (
	"context"
	"errors"
	"time"
)

// Sentinel errors shared across project operations.
var (
	ErrNotFound             = errors.New("not found")
	ErrForbidden            = errors.New("forbidden")
	ErrInvalidInput         = errors.New("invalid input")
	ErrAlreadyMember        = errors.New("already a member")
	ErrCannotRemoveOwner    = errors.New("cannot remove the project owner")
	ErrDuplicateProjectName = errors.New("project name already in use")
	// ErrCodeGenerationExhausted is returned when invite code generation
	// keeps colliding with existing codes after the bounded retries.
	ErrCodeGenerationExhausted = errors.New("failed to generate unique invite code")
)

// MemberRole is the membership role within a project. Owner and admin status
// are a single tagged value so the two can never drift apart.
type MemberRole string

const (
	RoleOwner  MemberRole = "owner"
	RoleAdmin  MemberRole = "admin"
	RoleMember MemberRole = "member"
)

// IsValid reports whether the role is one of the known values.
func (r MemberRole) IsValid() bool {
	switch r {
	case RoleOwner, RoleAdmin, RoleMember:
		return true
	default:
		return false
	}
}

// IsAdmin reports whether the role carries admin privileges. The owner
// always qualifies.
func (r MemberRole) IsAdmin() bool {
	return r == RoleOwner || r == RoleAdmin
}

// Project represents a collaboration project. InviteCode is unique across
// all projects and is the join handle shared with prospective members.
// swagger:model Project
type Project struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	InviteCode  string    `json:"invite_code"`
	OwnerID     string    `json:"owner_id"`
	Active      bool      `json:"active"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// NewProject returns a new Project owned by ownerID. ID and InviteCode are
// set by the service/repository on create.
func NewProject(name, description, ownerID string, createdAt, updatedAt time.Time) *Project {
	return &Project{
		Name:        name,
		Description: description,
		OwnerID:     ownerID,
		Active:      true,
		CreatedAt:   createdAt,
		UpdatedAt:   updatedAt,
	}
}

// Member represents a user's membership in a project.
// swagger:model Member
type Member struct {
	ProjectID string     `json:"project_id"`
	UserID    string     `json:"user_id"`
	Role      MemberRole `json:"role"`
	Name      string     `json:"name,omitempty"`
	LastName  string     `json:"last_name,omitempty"`
	Email     string     `json:"email,omitempty"`
	JoinedAt  time.Time  `json:"joined_at"`
}

// Resource is a link or document attached to a project. Resources carry a
// stable ID so removal is never positional.
// swagger:model Resource
type Resource struct {
	ID        string    `json:"id"`
	ProjectID string    `json:"project_id"`
	Name      string    `json:"name"`
	URL       string    `json:"url,omitempty"`
	AddedBy   string    `json:"added_by"`
	CreatedAt time.Time `json:"created_at"`
}

// ProjectRepository defines the interface for project, membership, and
// resource storage. Create persists the project and its owner member row
// atomically.
type ProjectRepository interface {
	Create(ctx context.Context, project *Project) error
	GetByID(ctx context.Context, id string) (*Project, error)
	GetByInviteCode(ctx context.Context, code string) (*Project, error)
	ExistsByOwnerAndName(ctx context.Context, ownerID, name string) (bool, error)
	ListByUserID(ctx context.Context, userID string) ([]*Project, error)
	Update(ctx context.Context, projectID string, name, description *string) (*Project, error)
	Delete(ctx context.Context, id string) error

	AddMember(ctx context.Context, projectID, userID string, role MemberRole) error
	GetMember(ctx context.Context, projectID, userID string) (*Member, error)
	ListMembers(ctx context.Context, projectID string) ([]*Member, error)
	RemoveMember(ctx context.Context, projectID, userID string) error

	AddResource(ctx context.Context, res *Resource) error
	ListResources(ctx context.Context, projectID string) ([]*Resource, error)
	RemoveResource(ctx context.Context, projectID, resourceID string) error
}

// ProjectService defines the business logic for project membership:
// creation with a unique invite code, joining by code, roles, resources,
// and member removal.
type ProjectService interface {
	CreateProject(ctx context.Context, name, description, ownerID string) (*Project, error)
	GetProject(ctx context.Context, projectID, callerID string) (*Project, []*Member, []*Resource, error)
	ListProjects(ctx context.Context, userID string) ([]*Project, error)
	UpdateProject(ctx context.Context, projectID, callerID string, name, description *string) (*Project, error)
	DeleteProject(ctx context.Context, projectID, callerID string) error
	JoinProject(ctx context.Context, inviteCode, userID string) (*Project, error)
	AddResource(ctx context.Context, projectID, callerID, name, url string) (*Resource, error)
	RemoveResource(ctx context.Context, projectID, callerID, resourceID string) error
	RemoveMember(ctx context.Context, projectID, memberID, callerID string) error
	IsUserAdmin(ctx context.Context, projectID, userID string) (bool, error)
}

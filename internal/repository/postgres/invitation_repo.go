package postgres

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"projecthub/internal/domain"
)

type invitationRepository struct {
	DB *sql.DB
}

func NewInvitationRepository(db *sql.DB) domain.InvitationRepository {
	return &invitationRepository{DB: db}
}

const invitationColumns = `id, project_id, code, email, invited_by, role, status, created_at, expires_at`

func scanInvitation(row interface{ Scan(...any) error }) (*domain.Invitation, error) {
	inv := &domain.Invitation{}
	err := row.Scan(&inv.ID, &inv.ProjectID, &inv.Code, &inv.Email, &inv.InvitedBy,
		&inv.Role, &inv.Status, &inv.CreatedAt, &inv.ExpiresAt)
	if err != nil {
		return nil, err
	}
	return inv, nil
}

func (r *invitationRepository) Create(ctx context.Context, inv *domain.Invitation) error {
	query := `
		INSERT INTO invitations (project_id, code, email, invited_by, role, status, created_at, expires_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id
	`
	return r.DB.QueryRowContext(ctx, query, inv.ProjectID, inv.Code, inv.Email, inv.InvitedBy,
		inv.Role, inv.Status, inv.CreatedAt, inv.ExpiresAt).Scan(&inv.ID)
}

// Lookups return (nil, nil) on miss: a missing invitation is an expected
// outcome, not a storage failure.

func (r *invitationRepository) GetByID(ctx context.Context, id string) (*domain.Invitation, error) {
	query := `SELECT ` + invitationColumns + ` FROM invitations WHERE id = $1`
	inv, err := scanInvitation(r.DB.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return inv, nil
}

func (r *invitationRepository) GetByCode(ctx context.Context, code string) (*domain.Invitation, error) {
	query := `SELECT ` + invitationColumns + ` FROM invitations WHERE code = $1`
	inv, err := scanInvitation(r.DB.QueryRowContext(ctx, query, code))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return inv, nil
}

func (r *invitationRepository) list(ctx context.Context, query string, args ...any) ([]*domain.Invitation, error) {
	rows, err := r.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	invs := make([]*domain.Invitation, 0)
	for rows.Next() {
		inv, err := scanInvitation(rows)
		if err != nil {
			return nil, err
		}
		invs = append(invs, inv)
	}
	return invs, rows.Err()
}

func (r *invitationRepository) ListByEmail(ctx context.Context, email string) ([]*domain.Invitation, error) {
	query := `SELECT ` + invitationColumns + ` FROM invitations WHERE email = $1 ORDER BY created_at DESC`
	return r.list(ctx, query, email)
}

func (r *invitationRepository) ListByProjectID(ctx context.Context, projectID string) ([]*domain.Invitation, error) {
	query := `SELECT ` + invitationColumns + ` FROM invitations WHERE project_id = $1 ORDER BY created_at DESC`
	return r.list(ctx, query, projectID)
}

func (r *invitationRepository) ListByStatus(ctx context.Context, status domain.InvitationStatus) ([]*domain.Invitation, error) {
	query := `SELECT ` + invitationColumns + ` FROM invitations WHERE status = $1 ORDER BY created_at DESC`
	return r.list(ctx, query, status)
}

func (r *invitationRepository) UpdateStatus(ctx context.Context, id string, status domain.InvitationStatus) (*domain.Invitation, error) {
	query := `
		UPDATE invitations SET status = $1
		WHERE id = $2
		RETURNING ` + invitationColumns
	inv, err := scanInvitation(r.DB.QueryRowContext(ctx, query, status, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return inv, nil
}

func (r *invitationRepository) ExpirePending(ctx context.Context, now time.Time) (int64, error) {
	query := `
		UPDATE invitations SET status = $1
		WHERE status = $2 AND expires_at < $3
	`
	result, err := r.DB.ExecContext(ctx, query, domain.InvitationExpired, domain.InvitationPending, now)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/lib/pq"

	"projecthub/internal/domain"
)

type projectRepository struct {
	DB *sql.DB
}

func NewProjectRepository(db *sql.DB) domain.ProjectRepository {
	return &projectRepository{DB: db}
}

// Create inserts the project and its owner member row in one transaction so
// a project can never exist without its owner membership.
func (r *projectRepository) Create(ctx context.Context, p *domain.Project) error {
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	query := `
		INSERT INTO projects (name, description, invite_code, owner_id, active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id
	`
	err = tx.QueryRowContext(ctx, query, p.Name, p.Description, p.InviteCode, p.OwnerID,
		p.Active, p.CreatedAt, p.UpdatedAt).Scan(&p.ID)
	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok && pqErr.Code == "23505" {
			return domain.ErrCodeGenerationExhausted
		}
		return err
	}

	memberQuery := `
		INSERT INTO project_members (project_id, user_id, role, joined_at)
		VALUES ($1, $2, $3, $4)
	`
	if _, err := tx.ExecContext(ctx, memberQuery, p.ID, p.OwnerID, domain.RoleOwner, p.CreatedAt); err != nil {
		return err
	}
	return tx.Commit()
}

const projectColumns = `id, name, description, invite_code, owner_id, active, created_at, updated_at`

func (r *projectRepository) scanProject(row *sql.Row) (*domain.Project, error) {
	p := &domain.Project{}
	var desc sql.NullString
	err := row.Scan(&p.ID, &p.Name, &desc, &p.InviteCode, &p.OwnerID, &p.Active, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	p.Description = desc.String
	return p, nil
}

func (r *projectRepository) GetByID(ctx context.Context, id string) (*domain.Project, error) {
	query := `SELECT ` + projectColumns + ` FROM projects WHERE id = $1`
	return r.scanProject(r.DB.QueryRowContext(ctx, query, id))
}

func (r *projectRepository) GetByInviteCode(ctx context.Context, code string) (*domain.Project, error) {
	query := `SELECT ` + projectColumns + ` FROM projects WHERE invite_code = $1`
	return r.scanProject(r.DB.QueryRowContext(ctx, query, code))
}

func (r *projectRepository) ExistsByOwnerAndName(ctx context.Context, ownerID, name string) (bool, error) {
	query := `SELECT EXISTS(SELECT 1 FROM projects WHERE owner_id = $1 AND LOWER(name) = LOWER($2))`
	var exists bool
	if err := r.DB.QueryRowContext(ctx, query, ownerID, name).Scan(&exists); err != nil {
		return false, err
	}
	return exists, nil
}

func (r *projectRepository) ListByUserID(ctx context.Context, userID string) ([]*domain.Project, error) {
	query := `
		SELECT p.id, p.name, p.description, p.invite_code, p.owner_id, p.active, p.created_at, p.updated_at
		FROM projects p
		JOIN project_members m ON m.project_id = p.id
		WHERE m.user_id = $1
		ORDER BY p.created_at DESC
	`
	rows, err := r.DB.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	projects := make([]*domain.Project, 0)
	for rows.Next() {
		p := &domain.Project{}
		var desc sql.NullString
		if err := rows.Scan(&p.ID, &p.Name, &desc, &p.InviteCode, &p.OwnerID, &p.Active, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, err
		}
		p.Description = desc.String
		projects = append(projects, p)
	}
	return projects, rows.Err()
}

func (r *projectRepository) Update(ctx context.Context, projectID string, name, description *string) (*domain.Project, error) {
	setClauses := []string{"updated_at = NOW()"}
	args := []interface{}{}
	n := 1
	if name != nil {
		setClauses = append(setClauses, fmt.Sprintf("name = $%d", n))
		args = append(args, *name)
		n++
	}
	if description != nil {
		setClauses = append(setClauses, fmt.Sprintf("description = $%d", n))
		args = append(args, *description)
		n++
	}
	if n == 1 {
		return r.GetByID(ctx, projectID)
	}
	args = append(args, projectID)
	query := fmt.Sprintf(`
		UPDATE projects SET %s
		WHERE id = $%d
		RETURNING `+projectColumns, strings.Join(setClauses, ", "), n)
	return r.scanProject(r.DB.QueryRowContext(ctx, query, args...))
}

func (r *projectRepository) Delete(ctx context.Context, id string) error {
	query := `DELETE FROM projects WHERE id = $1`
	result, err := r.DB.ExecContext(ctx, query, id)
	if err != nil {
		return err
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *projectRepository) AddMember(ctx context.Context, projectID, userID string, role domain.MemberRole) error {
	query := `
		INSERT INTO project_members (project_id, user_id, role, joined_at)
		VALUES ($1, $2, $3, NOW())
	`
	_, err := r.DB.ExecContext(ctx, query, projectID, userID, role)
	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok && pqErr.Code == "23505" {
			return domain.ErrAlreadyMember
		}
		return err
	}
	return nil
}

func (r *projectRepository) GetMember(ctx context.Context, projectID, userID string) (*domain.Member, error) {
	query := `
		SELECT m.project_id, m.user_id, m.role, m.joined_at, u.name, u.last_name, u.email
		FROM project_members m
		JOIN users u ON u.id = m.user_id
		WHERE m.project_id = $1 AND m.user_id = $2
	`
	m := &domain.Member{}
	var name, lastName sql.NullString
	err := r.DB.QueryRowContext(ctx, query, projectID, userID).
		Scan(&m.ProjectID, &m.UserID, &m.Role, &m.JoinedAt, &name, &lastName, &m.Email)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	m.Name = name.String
	m.LastName = lastName.String
	return m, nil
}

func (r *projectRepository) ListMembers(ctx context.Context, projectID string) ([]*domain.Member, error) {
	query := `
		SELECT m.project_id, m.user_id, m.role, m.joined_at, u.name, u.last_name, u.email
		FROM project_members m
		JOIN users u ON u.id = m.user_id
		WHERE m.project_id = $1
		ORDER BY m.joined_at
	`
	rows, err := r.DB.QueryContext(ctx, query, projectID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	members := make([]*domain.Member, 0)
	for rows.Next() {
		m := &domain.Member{}
		var name, lastName sql.NullString
		if err := rows.Scan(&m.ProjectID, &m.UserID, &m.Role, &m.JoinedAt, &name, &lastName, &m.Email); err != nil {
			return nil, err
		}
		m.Name = name.String
		m.LastName = lastName.String
		members = append(members, m)
	}
	return members, rows.Err()
}

func (r *projectRepository) RemoveMember(ctx context.Context, projectID, userID string) error {
	query := `DELETE FROM project_members WHERE project_id = $1 AND user_id = $2`
	result, err := r.DB.ExecContext(ctx, query, projectID, userID)
	if err != nil {
		return err
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *projectRepository) AddResource(ctx context.Context, res *domain.Resource) error {
	query := `
		INSERT INTO project_resources (id, project_id, name, url, added_by, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	_, err := r.DB.ExecContext(ctx, query, res.ID, res.ProjectID, res.Name, res.URL, res.AddedBy, res.CreatedAt)
	return err
}

func (r *projectRepository) ListResources(ctx context.Context, projectID string) ([]*domain.Resource, error) {
	query := `
		SELECT id, project_id, name, url, added_by, created_at
		FROM project_resources
		WHERE project_id = $1
		ORDER BY created_at
	`
	rows, err := r.DB.QueryContext(ctx, query, projectID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	resources := make([]*domain.Resource, 0)
	for rows.Next() {
		res := &domain.Resource{}
		var url sql.NullString
		if err := rows.Scan(&res.ID, &res.ProjectID, &res.Name, &url, &res.AddedBy, &res.CreatedAt); err != nil {
			return nil, err
		}
		res.URL = url.String
		resources = append(resources, res)
	}
	return resources, rows.Err()
}

func (r *projectRepository) RemoveResource(ctx context.Context, projectID, resourceID string) error {
	query := `DELETE FROM project_resources WHERE project_id = $1 AND id = $2`
	result, err := r.DB.ExecContext(ctx, query, projectID, resourceID)
	if err != nil {
		return err
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return domain.ErrNotFound
	}
	return nil
}

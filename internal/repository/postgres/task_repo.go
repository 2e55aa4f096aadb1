package postgres

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/lib/pq"

	"projecthub/internal/domain"
)

type taskRepository struct {
	DB *sql.DB
}

func NewTaskRepository(db *sql.DB) domain.TaskRepository {
	return &taskRepository{DB: db}
}

// Create inserts the task and its assignee rows in one transaction.
func (r *taskRepository) Create(ctx context.Context, t *domain.Task) error {
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	query := `
		INSERT INTO tasks (project_id, title, description, status, creator_id, deadline, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id
	`
	err = tx.QueryRowContext(ctx, query, t.ProjectID, t.Title, t.Description, t.Status,
		t.CreatorID, t.Deadline, t.CreatedAt, t.UpdatedAt).Scan(&t.ID)
	if err != nil {
		return err
	}
	for _, userID := range t.AssigneeIDs {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO task_assignees (task_id, user_id) VALUES ($1, $2) ON CONFLICT DO NOTHING`,
			t.ID, userID); err != nil {
			return err
		}
	}
	return tx.Commit()
}

const taskColumns = `t.id, t.project_id, t.title, t.description, t.status, t.creator_id, t.deadline, t.created_at, t.updated_at,
		COALESCE(array_agg(a.user_id) FILTER (WHERE a.user_id IS NOT NULL), '{}') AS assignees`

const taskFromClause = `
		FROM tasks t
		LEFT JOIN task_assignees a ON a.task_id = t.id`

func scanTask(row interface{ Scan(...any) error }) (*domain.Task, error) {
	t := &domain.Task{}
	var desc sql.NullString
	var deadline sql.NullTime
	var assignees pq.StringArray
	err := row.Scan(&t.ID, &t.ProjectID, &t.Title, &desc, &t.Status, &t.CreatorID,
		&deadline, &t.CreatedAt, &t.UpdatedAt, &assignees)
	if err != nil {
		return nil, err
	}
	t.Description = desc.String
	if deadline.Valid {
		d := deadline.Time
		t.Deadline = &d
	}
	t.AssigneeIDs = []string(assignees)
	return t, nil
}

func (r *taskRepository) GetByID(ctx context.Context, id string) (*domain.Task, error) {
	query := `SELECT ` + taskColumns + taskFromClause + `
		WHERE t.id = $1
		GROUP BY t.id`
	t, err := scanTask(r.DB.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return t, nil
}

func (r *taskRepository) Update(ctx context.Context, t *domain.Task) error {
	// project_id is immutable by design: it is never part of the SET list.
	query := `
		UPDATE tasks
		SET title = $1, description = $2, status = $3, deadline = $4, updated_at = $5
		WHERE id = $6
	`
	result, err := r.DB.ExecContext(ctx, query, t.Title, t.Description, t.Status, t.Deadline, t.UpdatedAt, t.ID)
	if err != nil {
		return err
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *taskRepository) Delete(ctx context.Context, id string) error {
	query := `DELETE FROM tasks WHERE id = $1`
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

func (r *taskRepository) SetAssignees(ctx context.Context, taskID string, userIDs []string) error {
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM task_assignees WHERE task_id = $1`, taskID); err != nil {
		return err
	}
	for _, userID := range userIDs {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO task_assignees (task_id, user_id) VALUES ($1, $2) ON CONFLICT DO NOTHING`,
			taskID, userID); err != nil {
			return err
		}
	}
	return tx.Commit()
}

func (r *taskRepository) listTasks(ctx context.Context, query string, args ...any) ([]*domain.Task, error) {
	rows, err := r.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	tasks := make([]*domain.Task, 0)
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, err
		}
		tasks = append(tasks, t)
	}
	return tasks, rows.Err()
}

func (r *taskRepository) ListByProjectID(ctx context.Context, projectID string) ([]*domain.Task, error) {
	query := `SELECT ` + taskColumns + taskFromClause + `
		WHERE t.project_id = $1
		GROUP BY t.id
		ORDER BY t.created_at DESC`
	return r.listTasks(ctx, query, projectID)
}

func (r *taskRepository) ListByAssignee(ctx context.Context, userID string) ([]*domain.Task, error) {
	query := `SELECT ` + taskColumns + taskFromClause + `
		WHERE t.id IN (SELECT task_id FROM task_assignees WHERE user_id = $1)
		GROUP BY t.id
		ORDER BY t.created_at DESC`
	return r.listTasks(ctx, query, userID)
}

func (r *taskRepository) ListByStatus(ctx context.Context, status domain.TaskStatus, projectID string) ([]*domain.Task, error) {
	if projectID != "" {
		query := `SELECT ` + taskColumns + taskFromClause + `
			WHERE t.status = $1 AND t.project_id = $2
			GROUP BY t.id
			ORDER BY t.created_at DESC`
		return r.listTasks(ctx, query, status, projectID)
	}
	query := `SELECT ` + taskColumns + taskFromClause + `
		WHERE t.status = $1
		GROUP BY t.id
		ORDER BY t.created_at DESC`
	return r.listTasks(ctx, query, status)
}

func (r *taskRepository) ListUpcoming(ctx context.Context, now time.Time, days int) ([]*domain.Task, error) {
	until := now.Add(time.Duration(days) * 24 * time.Hour)
	query := `SELECT ` + taskColumns + taskFromClause + `
		WHERE t.deadline IS NOT NULL
		  AND t.deadline >= $1 AND t.deadline < $2
		  AND t.status <> $3
		GROUP BY t.id
		ORDER BY t.deadline ASC`
	return r.listTasks(ctx, query, now, until, domain.TaskCompleted)
}

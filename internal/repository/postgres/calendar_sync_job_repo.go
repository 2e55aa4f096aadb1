package postgres

import (
	"context"
	"database/sql"

	"projecthub/internal/domain"
)

type calendarSyncJobRepository struct {
	DB *sql.DB
}

func NewCalendarSyncJobRepository(db *sql.DB) domain.CalendarSyncJobRepository {
	return &calendarSyncJobRepository{DB: db}
}

func (r *calendarSyncJobRepository) Enqueue(ctx context.Context, job *domain.CalendarSyncJob) error {
	query := `
		INSERT INTO calendar_sync_jobs (task_id, action, user_id, event_id, attempts, created_at)
		VALUES ($1, $2, NULLIF($3, ''), NULLIF($4, ''), 0, $5)
		RETURNING id
	`
	return r.DB.QueryRowContext(ctx, query, job.TaskID, job.Action, job.UserID, job.EventID, job.CreatedAt).
		Scan(&job.ID)
}

func (r *calendarSyncJobRepository) ListPending(ctx context.Context, limit int) ([]*domain.CalendarSyncJob, error) {
	query := `
		SELECT id, task_id, action, COALESCE(user_id, ''), COALESCE(event_id, ''), attempts, created_at
		FROM calendar_sync_jobs
		ORDER BY created_at
		LIMIT $1
	`
	rows, err := r.DB.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	jobs := make([]*domain.CalendarSyncJob, 0)
	for rows.Next() {
		job := &domain.CalendarSyncJob{}
		if err := rows.Scan(&job.ID, &job.TaskID, &job.Action, &job.UserID, &job.EventID, &job.Attempts, &job.CreatedAt); err != nil {
			return nil, err
		}
		jobs = append(jobs, job)
	}
	return jobs, rows.Err()
}

func (r *calendarSyncJobRepository) Delete(ctx context.Context, id string) error {
	_, err := r.DB.ExecContext(ctx, `DELETE FROM calendar_sync_jobs WHERE id = $1`, id)
	return err
}

func (r *calendarSyncJobRepository) IncrementAttempts(ctx context.Context, id string) error {
	_, err := r.DB.ExecContext(ctx, `UPDATE calendar_sync_jobs SET attempts = attempts + 1 WHERE id = $1`, id)
	return err
}

package postgres

import (
	"context"
	"database/sql"
	"errors"

	"projecthub/internal/domain"
)

type taskCalendarEventRepository struct {
	DB *sql.DB
}

func NewTaskCalendarEventRepository(db *sql.DB) domain.TaskCalendarEventRepository {
	return &taskCalendarEventRepository{DB: db}
}

func (r *taskCalendarEventRepository) Upsert(ctx context.Context, m *domain.TaskCalendarEvent) error {
	query := `
		INSERT INTO task_calendar_events (task_id, user_id, event_id, created_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (task_id, user_id) DO UPDATE SET event_id = EXCLUDED.event_id
	`
	_, err := r.DB.ExecContext(ctx, query, m.TaskID, m.UserID, m.EventID, m.CreatedAt)
	return err
}

func (r *taskCalendarEventRepository) Get(ctx context.Context, taskID, userID string) (*domain.TaskCalendarEvent, error) {
	query := `
		SELECT task_id, user_id, event_id, created_at
		FROM task_calendar_events
		WHERE task_id = $1 AND user_id = $2
	`
	m := &domain.TaskCalendarEvent{}
	err := r.DB.QueryRowContext(ctx, query, taskID, userID).
		Scan(&m.TaskID, &m.UserID, &m.EventID, &m.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return m, nil
}

func (r *taskCalendarEventRepository) ListByTaskID(ctx context.Context, taskID string) ([]*domain.TaskCalendarEvent, error) {
	query := `
		SELECT task_id, user_id, event_id, created_at
		FROM task_calendar_events
		WHERE task_id = $1
		ORDER BY created_at
	`
	rows, err := r.DB.QueryContext(ctx, query, taskID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	mappings := make([]*domain.TaskCalendarEvent, 0)
	for rows.Next() {
		m := &domain.TaskCalendarEvent{}
		if err := rows.Scan(&m.TaskID, &m.UserID, &m.EventID, &m.CreatedAt); err != nil {
			return nil, err
		}
		mappings = append(mappings, m)
	}
	return mappings, rows.Err()
}

func (r *taskCalendarEventRepository) Delete(ctx context.Context, taskID, userID string) error {
	query := `DELETE FROM task_calendar_events WHERE task_id = $1 AND user_id = $2`
	_, err := r.DB.ExecContext(ctx, query, taskID, userID)
	return err
}

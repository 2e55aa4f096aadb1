package domain

import (
	"context"
	"errors"
	"time"
)

// ErrEventNotFound is returned by a calendar provider when the referenced
// event no longer exists. Deletion treats it as already-deleted.
var ErrEventNotFound = errors.New("calendar event not found")

// Reminder is a notification attached to a calendar event.
type Reminder struct {
	Method  string `json:"method"` // "email" or "popup"
	Minutes int    `json:"minutes"`
}

// DefaultReminders are applied when the caller does not override them:
// email 24h before, popup 1h before.
func DefaultReminders() []Reminder {
	return []Reminder{
		{Method: "email", Minutes: 24 * 60},
		{Method: "popup", Minutes: 60},
	}
}

// CalendarEvent is the provider-facing event payload. StartDate and EndDate
// are all-day dates formatted YYYY-MM-DD; EndDate is exclusive.
type CalendarEvent struct {
	Summary     string
	Description string
	StartDate   string
	EndDate     string
	Reminders   []Reminder
}

// CalendarProvider is the external calendar collaborator. A refresh token
// carrying the recognized test prefix short-circuits all network calls and
// returns synthesized identifiers.
type CalendarProvider interface {
	AuthURL(state string) string
	ExchangeCode(ctx context.Context, code string) (accessToken, refreshToken string, expiry time.Time, err error)
	CreateEvent(ctx context.Context, refreshToken string, ev *CalendarEvent) (eventID string, err error)
	UpdateEvent(ctx context.Context, refreshToken, eventID string, ev *CalendarEvent) error
	DeleteEvent(ctx context.Context, refreshToken, eventID string) error
	VerifyAccess(ctx context.Context, refreshToken string) bool
	RevokeAccess(ctx context.Context, refreshToken string) error
}

// TaskCalendarEvent maps a (task, assignee) pair to the external event
// mirroring the task's deadline in that assignee's calendar.
type TaskCalendarEvent struct {
	TaskID    string    `json:"task_id"`
	UserID    string    `json:"user_id"`
	EventID   string    `json:"event_id"`
	CreatedAt time.Time `json:"created_at"`
}

// TaskCalendarEventRepository stores per-assignee event mappings. Get
// returns (nil, nil) when no mapping exists.
type TaskCalendarEventRepository interface {
	Upsert(ctx context.Context, m *TaskCalendarEvent) error
	Get(ctx context.Context, taskID, userID string) (*TaskCalendarEvent, error)
	ListByTaskID(ctx context.Context, taskID string) ([]*TaskCalendarEvent, error)
	Delete(ctx context.Context, taskID, userID string) error
}

// SyncAction is the kind of work a calendar sync job carries.
type SyncAction string

const (
	// SyncActionSync re-syncs every assignee's event for a task.
	SyncActionSync SyncAction = "sync"
	// SyncActionDelete removes a single assignee's event; the job carries
	// the event id since the task row may already be gone.
	SyncActionDelete SyncAction = "delete"
)

// CalendarSyncJob is an outbox row. Task mutations enqueue jobs; a worker
// drains them so calendar calls never block or fail the mutation path.
type CalendarSyncJob struct {
	ID        string     `json:"id"`
	TaskID    string     `json:"task_id"`
	Action    SyncAction `json:"action"`
	UserID    string     `json:"user_id,omitempty"`
	EventID   string     `json:"event_id,omitempty"`
	Attempts  int        `json:"attempts"`
	CreatedAt time.Time  `json:"created_at"`
}

// CalendarSyncJobRepository stores outbox jobs.
type CalendarSyncJobRepository interface {
	Enqueue(ctx context.Context, job *CalendarSyncJob) error
	// ListPending returns up to limit jobs ordered by creation time.
	ListPending(ctx context.Context, limit int) ([]*CalendarSyncJob, error)
	Delete(ctx context.Context, id string) error
	IncrementAttempts(ctx context.Context, id string) error
}

// CalendarSyncService is the calendar sync bridge. All operations are
// best-effort: provider failures are logged and never propagated to task
// mutations.
type CalendarSyncService interface {
	// SyncTask mirrors the task's deadline into each sync-enabled
	// assignee's calendar, creating or updating per-assignee events.
	SyncTask(ctx context.Context, taskID string) error
	// DeleteEvent removes one assignee's event, treating provider
	// not-found as success.
	DeleteEvent(ctx context.Context, userID, eventID string) error
	// ProcessPending drains up to limit outbox jobs.
	ProcessPending(ctx context.Context, limit int) error
}

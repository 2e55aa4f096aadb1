package domain

import (
	"context"
	"time"
)

// TaskStatus is the closed status enum for tasks.
type TaskStatus string

const (
	TaskNotStarted TaskStatus = "not_started"
	TaskInProgress TaskStatus = "in_progress"
	TaskCompleted  TaskStatus = "completed"
	TaskBlocked    TaskStatus = "blocked"
	TaskBacklog    TaskStatus = "backlog"
)

// IsValid reports whether the status is one of the known values.
func (s TaskStatus) IsValid() bool {
	switch s {
	case TaskNotStarted, TaskInProgress, TaskCompleted, TaskBlocked, TaskBacklog:
		return true
	default:
		return false
	}
}

// TaskStatusFromLabel maps a caller-facing status label to the enum.
// Unrecognized labels default to not_started.
func TaskStatusFromLabel(label string) TaskStatus {
	switch label {
	case "Not Started":
		return TaskNotStarted
	case "In Progress":
		return TaskInProgress
	case "Done":
		return TaskCompleted
	case "Blocked":
		return TaskBlocked
	case "Backlog":
		return TaskBacklog
	default:
		return TaskNotStarted
	}
}

// Label returns the human-readable form of the status, used in calendar
// event summaries.
func (s TaskStatus) Label() string {
	switch s {
	case TaskInProgress:
		return "In Progress"
	case TaskCompleted:
		return "Done"
	case TaskBlocked:
		return "Blocked"
	case TaskBacklog:
		return "Backlog"
	default:
		return "Not Started"
	}
}

// Task represents a unit of work within a project. ProjectID is immutable
// once set at creation.
// swagger:model Task
type Task struct {
	ID          string     `json:"id"`
	ProjectID   string     `json:"project_id"`
	Title       string     `json:"title"`
	Description string     `json:"description,omitempty"`
	Status      TaskStatus `json:"status"`
	AssigneeIDs []string   `json:"assignee_ids"`
	CreatorID   string     `json:"creator_id"`
	Deadline    *time.Time `json:"deadline,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// TaskRepository defines storage operations for tasks and their assignee
// sets. Create and SetAssignees keep the assignee join rows in step with
// the task row.
type TaskRepository interface {
	Create(ctx context.Context, task *Task) error
	GetByID(ctx context.Context, id string) (*Task, error)
	Update(ctx context.Context, task *Task) error
	Delete(ctx context.Context, id string) error
	SetAssignees(ctx context.Context, taskID string, userIDs []string) error
	ListByProjectID(ctx context.Context, projectID string) ([]*Task, error)
	ListByAssignee(ctx context.Context, userID string) ([]*Task, error)
	ListByStatus(ctx context.Context, status TaskStatus, projectID string) ([]*Task, error)
	// ListUpcoming returns non-completed tasks with a deadline in
	// [now, now+days), ordered by deadline ascending.
	ListUpcoming(ctx context.Context, now time.Time, days int) ([]*Task, error)
}

// TaskUpdate carries the mutable fields of a task. Nil pointers leave the
// field unchanged; a non-nil Deadline pointing at a zero time clears the
// deadline.
type TaskUpdate struct {
	Title       *string
	Description *string
	StatusLabel *string
	Deadline    *time.Time
	Assignees   []string
}

// TaskService defines project-scoped task CRUD and queries. Mutations that
// leave the task with a deadline enqueue calendar sync work; deletion
// enqueues calendar cleanup first.
type TaskService interface {
	CreateTask(ctx context.Context, projectID, creatorID, title, description, statusLabel string, assignees []string, deadline *time.Time) (*Task, error)
	GetTask(ctx context.Context, taskID string) (*Task, error)
	UpdateTask(ctx context.Context, taskID, callerID string, upd TaskUpdate) (*Task, error)
	DeleteTask(ctx context.Context, taskID, callerID string) error
	ListByProject(ctx context.Context, projectID, callerID string) ([]*Task, error)
	ListByAssignee(ctx context.Context, userID string) ([]*Task, error)
	ListByStatus(ctx context.Context, statusLabel, projectID string) ([]*Task, error)
	ListUpcoming(ctx context.Context, days int) ([]*Task, error)
}

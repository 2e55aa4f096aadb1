package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"projecthub/internal/domain"
)

type taskService struct {
	taskRepo       domain.TaskRepository
	projectRepo    domain.ProjectRepository
	userRepo       domain.UserRepository
	eventRepo      domain.TaskCalendarEventRepository
	syncJobRepo    domain.CalendarSyncJobRepository
	kick           func()
	logger         *slog.Logger
	contextTimeout time.Duration
}

// NewTaskService creates a TaskService. kick, when non-nil, nudges the
// calendar outbox worker after a job is enqueued.
func NewTaskService(
	taskRepo domain.TaskRepository,
	projectRepo domain.ProjectRepository,
	userRepo domain.UserRepository,
	eventRepo domain.TaskCalendarEventRepository,
	syncJobRepo domain.CalendarSyncJobRepository,
	kick func(),
	logger *slog.Logger,
	timeout time.Duration,
) domain.TaskService {
	return &taskService{
		taskRepo:       taskRepo,
		projectRepo:    projectRepo,
		userRepo:       userRepo,
		eventRepo:      eventRepo,
		syncJobRepo:    syncJobRepo,
		kick:           kick,
		logger:         logger,
		contextTimeout: timeout,
	}
}

// resolveAssignees maps each entry, either a user id or a display name, to a
// user id. Name matching is case-insensitive exact; a name that matches no
// user or more than one fails with ErrInvalidInput.
func (s *taskService) resolveAssignees(ctx context.Context, entries []string) ([]string, error) {
	seen := make(map[string]struct{}, len(entries))
	var ids []string
	for _, entry := range entries {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}
		user, err := s.userRepo.GetByID(ctx, entry)
		if err != nil && !errors.Is(err, domain.ErrUserNotFound) {
			return nil, fmt.Errorf("failed to get user: %w", err)
		}
		if user == nil {
			matches, err := s.userRepo.FindByDisplayName(ctx, entry)
			if err != nil {
				return nil, fmt.Errorf("failed to look up assignee name: %w", err)
			}
			if len(matches) != 1 {
				return nil, domain.ErrInvalidInput
			}
			user = matches[0]
		}
		if _, ok := seen[user.ID]; ok {
			continue
		}
		seen[user.ID] = struct{}{}
		ids = append(ids, user.ID)
	}
	return ids, nil
}

func (s *taskService) enqueueSync(ctx context.Context, taskID string) {
	job := &domain.CalendarSyncJob{
		TaskID:    taskID,
		Action:    domain.SyncActionSync,
		CreatedAt: time.Now(),
	}
	if err := s.syncJobRepo.Enqueue(ctx, job); err != nil {
		// Calendar sync is advisory; the task mutation stands either way.
		s.logger.Warn("failed to enqueue calendar sync", "task_id", taskID, "err", err)
		return
	}
	if s.kick != nil {
		s.kick()
	}
}

// enqueueCleanup schedules provider-side deletion for every event mapped to
// the task. Delete jobs carry the user and event ids since the task row may
// be gone by the time the worker runs. When dropMappings is set the mapping
// rows are removed as well, so a later deadline re-add creates fresh events.
func (s *taskService) enqueueCleanup(ctx context.Context, taskID string, dropMappings bool) {
	mappings, err := s.eventRepo.ListByTaskID(ctx, taskID)
	if err != nil {
		s.logger.Warn("failed to list calendar events for cleanup", "task_id", taskID, "err", err)
		return
	}
	enqueued := false
	for _, m := range mappings {
		job := &domain.CalendarSyncJob{
			TaskID:    taskID,
			Action:    domain.SyncActionDelete,
			UserID:    m.UserID,
			EventID:   m.EventID,
			CreatedAt: time.Now(),
		}
		if err := s.syncJobRepo.Enqueue(ctx, job); err != nil {
			s.logger.Warn("failed to enqueue calendar cleanup", "task_id", taskID, "user_id", m.UserID, "err", err)
			continue
		}
		enqueued = true
		if dropMappings {
			if err := s.eventRepo.Delete(ctx, taskID, m.UserID); err != nil {
				s.logger.Warn("failed to drop event mapping", "task_id", taskID, "user_id", m.UserID, "err", err)
			}
		}
	}
	if enqueued && s.kick != nil {
		s.kick()
	}
}

func (s *taskService) CreateTask(ctx context.Context, projectID, creatorID, title, description, statusLabel string, assignees []string, deadline *time.Time) (*domain.Task, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	title = strings.TrimSpace(title)
	if title == "" {
		return nil, domain.ErrInvalidInput
	}
	member, err := s.projectRepo.GetMember(ctx, projectID, creatorID)
	if err != nil && !errors.Is(err, domain.ErrNotFound) {
		return nil, fmt.Errorf("failed to get member: %w", err)
	}
	if member == nil {
		return nil, domain.ErrForbidden
	}
	assigneeIDs, err := s.resolveAssignees(ctx, assignees)
	if err != nil {
		return nil, err
	}
	if len(assigneeIDs) == 0 {
		return nil, domain.ErrInvalidInput
	}

	now := time.Now()
	task := &domain.Task{
		ProjectID:   projectID,
		Title:       title,
		Description: strings.TrimSpace(description),
		Status:      domain.TaskStatusFromLabel(statusLabel),
		AssigneeIDs: assigneeIDs,
		CreatorID:   creatorID,
		Deadline:    deadline,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.taskRepo.Create(ctx, task); err != nil {
		return nil, fmt.Errorf("failed to create task: %w", err)
	}
	if task.Deadline != nil {
		s.enqueueSync(ctx, task.ID)
	}
	return task, nil
}

func (s *taskService) GetTask(ctx context.Context, taskID string) (*domain.Task, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	task, err := s.taskRepo.GetByID(ctx, taskID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get task: %w", err)
	}
	return task, nil
}

func (s *taskService) UpdateTask(ctx context.Context, taskID, callerID string, upd domain.TaskUpdate) (*domain.Task, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	task, err := s.taskRepo.GetByID(ctx, taskID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get task: %w", err)
	}

	deadlineChanged := false
	assigneesChanged := false
	contentChanged := false

	if upd.Title != nil {
		trimmed := strings.TrimSpace(*upd.Title)
		if trimmed == "" {
			return nil, domain.ErrInvalidInput
		}
		task.Title = trimmed
		contentChanged = true
	}
	if upd.Description != nil {
		task.Description = strings.TrimSpace(*upd.Description)
		contentChanged = true
	}
	if upd.StatusLabel != nil {
		task.Status = domain.TaskStatusFromLabel(*upd.StatusLabel)
		contentChanged = true
	}
	if upd.Deadline != nil {
		if upd.Deadline.IsZero() {
			task.Deadline = nil
		} else {
			d := *upd.Deadline
			task.Deadline = &d
		}
		deadlineChanged = true
	}
	if upd.Assignees != nil {
		assigneeIDs, err := s.resolveAssignees(ctx, upd.Assignees)
		if err != nil {
			return nil, err
		}
		if len(assigneeIDs) == 0 {
			return nil, domain.ErrInvalidInput
		}
		task.AssigneeIDs = assigneeIDs
		assigneesChanged = true
	}

	task.UpdatedAt = time.Now()
	if err := s.taskRepo.Update(ctx, task); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("failed to update task: %w", err)
	}
	if assigneesChanged {
		if err := s.taskRepo.SetAssignees(ctx, task.ID, task.AssigneeIDs); err != nil {
			return nil, fmt.Errorf("failed to set assignees: %w", err)
		}
	}
	// The mirrored event embeds title, status, and date, so any of those
	// changes reschedules; clearing the deadline tears the events down.
	switch {
	case deadlineChanged && task.Deadline == nil:
		s.enqueueCleanup(ctx, task.ID, true)
	case (deadlineChanged || assigneesChanged || contentChanged) && task.Deadline != nil:
		s.enqueueSync(ctx, task.ID)
	}
	return task, nil
}

func (s *taskService) DeleteTask(ctx context.Context, taskID, callerID string) error {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	if _, err := s.taskRepo.GetByID(ctx, taskID); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return domain.ErrNotFound
		}
		return fmt.Errorf("failed to get task: %w", err)
	}

	// Calendar cleanup comes first; the mapping rows cascade away with the
	// task, so the delete jobs are the only record of the remote events.
	s.enqueueCleanup(ctx, taskID, false)

	if err := s.taskRepo.Delete(ctx, taskID); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return domain.ErrNotFound
		}
		return fmt.Errorf("failed to delete task: %w", err)
	}
	return nil
}

func (s *taskService) ListByProject(ctx context.Context, projectID, callerID string) ([]*domain.Task, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	member, err := s.projectRepo.GetMember(ctx, projectID, callerID)
	if err != nil && !errors.Is(err, domain.ErrNotFound) {
		return nil, fmt.Errorf("failed to get member: %w", err)
	}
	if member == nil {
		return nil, domain.ErrForbidden
	}
	tasks, err := s.taskRepo.ListByProjectID(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("failed to list tasks: %w", err)
	}
	if tasks == nil {
		tasks = []*domain.Task{}
	}
	return tasks, nil
}

func (s *taskService) ListByAssignee(ctx context.Context, userID string) ([]*domain.Task, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	tasks, err := s.taskRepo.ListByAssignee(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list tasks by assignee: %w", err)
	}
	if tasks == nil {
		tasks = []*domain.Task{}
	}
	return tasks, nil
}

func (s *taskService) ListByStatus(ctx context.Context, statusLabel, projectID string) ([]*domain.Task, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	tasks, err := s.taskRepo.ListByStatus(ctx, domain.TaskStatusFromLabel(statusLabel), projectID)
	if err != nil {
		return nil, fmt.Errorf("failed to list tasks by status: %w", err)
	}
	if tasks == nil {
		tasks = []*domain.Task{}
	}
	return tasks, nil
}

func (s *taskService) ListUpcoming(ctx context.Context, days int) ([]*domain.Task, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	if days <= 0 {
		days = 7
	}
	tasks, err := s.taskRepo.ListUpcoming(ctx, time.Now(), days)
	if err != nil {
		return nil, fmt.Errorf("failed to list upcoming tasks: %w", err)
	}
	if tasks == nil {
		tasks = []*domain.Task{}
	}
	return tasks, nil
}

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

// maxSyncAttempts bounds outbox retries before a job is dropped.
const maxSyncAttempts = 5

type calendarSyncService struct {
	taskRepo       domain.TaskRepository
	userRepo       domain.UserRepository
	eventRepo      domain.TaskCalendarEventRepository
	jobRepo        domain.CalendarSyncJobRepository
	provider       domain.CalendarProvider
	logger         *slog.Logger
	contextTimeout time.Duration
}

// NewCalendarSyncService creates the calendar sync bridge.
func NewCalendarSyncService(
	taskRepo domain.TaskRepository,
	userRepo domain.UserRepository,
	eventRepo domain.TaskCalendarEventRepository,
	jobRepo domain.CalendarSyncJobRepository,
	provider domain.CalendarProvider,
	logger *slog.Logger,
	timeout time.Duration,
) domain.CalendarSyncService {
	return &calendarSyncService{
		taskRepo:       taskRepo,
		userRepo:       userRepo,
		eventRepo:      eventRepo,
		jobRepo:        jobRepo,
		provider:       provider,
		logger:         logger,
		contextTimeout: timeout,
	}
}

// buildEvent renders a task into the provider event payload. All-day dates
// use the deadline's UTC calendar date; the end date is exclusive.
func buildEvent(task *domain.Task) *domain.CalendarEvent {
	start := task.Deadline.UTC()
	end := start.Add(24 * time.Hour)

	var desc strings.Builder
	desc.WriteString("Status: " + task.Status.Label())
	if task.Description != "" {
		desc.WriteString("\n\n" + task.Description)
	}
	if n := len(task.AssigneeIDs); n > 1 {
		desc.WriteString(fmt.Sprintf("\n\nShared with %d assignees.", n))
	}

	return &domain.CalendarEvent{
		Summary:     fmt.Sprintf("%s [%s]", task.Title, task.Status.Label()),
		Description: desc.String(),
		StartDate:   start.Format("2006-01-02"),
		EndDate:     end.Format("2006-01-02"),
		Reminders:   domain.DefaultReminders(),
	}
}

func (s *calendarSyncService) SyncTask(ctx context.Context, taskID string) error {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	task, err := s.taskRepo.GetByID(ctx, taskID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			// Task deleted before the job ran; nothing to mirror.
			return nil
		}
		return fmt.Errorf("failed to get task: %w", err)
	}
	if task.Deadline == nil {
		return nil
	}

	ev := buildEvent(task)

	// Each assignee is handled independently; one failure never blocks the
	// rest.
	current := make(map[string]struct{}, len(task.AssigneeIDs))
	for _, userID := range task.AssigneeIDs {
		current[userID] = struct{}{}
		if err := s.syncAssignee(ctx, task, userID, ev); err != nil {
			s.logger.Warn("calendar sync failed for assignee",
				"task_id", task.ID, "user_id", userID, "err", err)
		}
	}

	// Mappings for users no longer assigned are stale; their events come
	// down.
	mappings, err := s.eventRepo.ListByTaskID(ctx, task.ID)
	if err != nil {
		return fmt.Errorf("failed to list event mappings: %w", err)
	}
	for _, m := range mappings {
		if _, ok := current[m.UserID]; ok {
			continue
		}
		if err := s.DeleteEvent(ctx, m.UserID, m.EventID); err != nil {
			s.logger.Warn("failed to remove stale calendar event",
				"task_id", task.ID, "user_id", m.UserID, "err", err)
			continue
		}
		if err := s.eventRepo.Delete(ctx, task.ID, m.UserID); err != nil {
			s.logger.Warn("failed to drop stale event mapping",
				"task_id", task.ID, "user_id", m.UserID, "err", err)
		}
	}
	return nil
}

func (s *calendarSyncService) syncAssignee(ctx context.Context, task *domain.Task, userID string, ev *domain.CalendarEvent) error {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return nil
		}
		return fmt.Errorf("failed to get user: %w", err)
	}
	if user == nil || !user.CalendarSyncEnabled() {
		return nil
	}

	mapping, err := s.eventRepo.Get(ctx, task.ID, userID)
	if err != nil {
		return fmt.Errorf("failed to get event mapping: %w", err)
	}
	if mapping == nil {
		eventID, err := s.provider.CreateEvent(ctx, user.CalendarRefreshToken, ev)
		if err != nil {
			return fmt.Errorf("failed to create calendar event: %w", err)
		}
		m := &domain.TaskCalendarEvent{
			TaskID:    task.ID,
			UserID:    userID,
			EventID:   eventID,
			CreatedAt: time.Now(),
		}
		if err := s.eventRepo.Upsert(ctx, m); err != nil {
			return fmt.Errorf("failed to store event mapping: %w", err)
		}
		return nil
	}
	if err := s.provider.UpdateEvent(ctx, user.CalendarRefreshToken, mapping.EventID, ev); err != nil {
		return fmt.Errorf("failed to update calendar event: %w", err)
	}
	return nil
}

func (s *calendarSyncService) DeleteEvent(ctx context.Context, userID, eventID string) error {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return nil
		}
		return fmt.Errorf("failed to get user: %w", err)
	}
	if user == nil || !user.CalendarSyncEnabled() {
		return nil
	}
	if err := s.provider.DeleteEvent(ctx, user.CalendarRefreshToken, eventID); err != nil {
		if errors.Is(err, domain.ErrEventNotFound) {
			// Already gone on the provider side.
			return nil
		}
		return fmt.Errorf("failed to delete calendar event: %w", err)
	}
	return nil
}

func (s *calendarSyncService) ProcessPending(ctx context.Context, limit int) error {
	jobs, err := s.jobRepo.ListPending(ctx, limit)
	if err != nil {
		return fmt.Errorf("failed to list sync jobs: %w", err)
	}
	for _, job := range jobs {
		if err := s.processJob(ctx, job); err != nil {
			s.logger.Warn("calendar sync job failed",
				"job_id", job.ID, "task_id", job.TaskID, "action", job.Action,
				"attempts", job.Attempts+1, "err", err)
			if job.Attempts+1 >= maxSyncAttempts {
				s.logger.Warn("dropping calendar sync job after max attempts",
					"job_id", job.ID, "task_id", job.TaskID)
				if derr := s.jobRepo.Delete(ctx, job.ID); derr != nil {
					s.logger.Error("failed to drop sync job", "job_id", job.ID, "err", derr)
				}
				continue
			}
			if ierr := s.jobRepo.IncrementAttempts(ctx, job.ID); ierr != nil {
				s.logger.Error("failed to record sync attempt", "job_id", job.ID, "err", ierr)
			}
			continue
		}
		if err := s.jobRepo.Delete(ctx, job.ID); err != nil {
			s.logger.Error("failed to remove completed sync job", "job_id", job.ID, "err", err)
		}
	}
	return nil
}

func (s *calendarSyncService) processJob(ctx context.Context, job *domain.CalendarSyncJob) error {
	switch job.Action {
	case domain.SyncActionSync:
		return s.SyncTask(ctx, job.TaskID)
	case domain.SyncActionDelete:
		return s.DeleteEvent(ctx, job.UserID, job.EventID)
	default:
		return fmt.Errorf("unknown sync action %q", job.Action)
	}
}

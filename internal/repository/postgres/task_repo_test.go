package postgres

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"projecthub/internal/domain"
)

var taskCols = []string{"id", "project_id", "title", "description", "status", "creator_id", "deadline", "created_at", "updated_at", "assignees"}

func TestTaskRepository_Create(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	repo := NewTaskRepository(db)

	now := time.Now()
	deadline := now.Add(72 * time.Hour)
	task := &domain.Task{
		ProjectID:   "proj-1",
		Title:       "Write docs",
		Description: "everything",
		Status:      domain.TaskInProgress,
		AssigneeIDs: []string{"user-1", "user-2"},
		CreatorID:   "user-1",
		Deadline:    &deadline,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	mock.ExpectBegin()
	mock.ExpectQuery(`INSERT INTO tasks`).
		WithArgs("proj-1", "Write docs", "everything", domain.TaskInProgress, "user-1", deadline, now, now).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow("task-uuid-1"))
	mock.ExpectExec(`INSERT INTO task_assignees`).
		WithArgs("task-uuid-1", "user-1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`INSERT INTO task_assignees`).
		WithArgs("task-uuid-1", "user-2").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	require.NoError(t, repo.Create(context.Background(), task))
	assert.Equal(t, "task-uuid-1", task.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTaskRepository_GetByID(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	repo := NewTaskRepository(db)
	ctx := context.Background()

	now := time.Now()
	mock.ExpectQuery(`SELECT .+ FROM tasks t`).
		WithArgs("task-1").
		WillReturnRows(sqlmock.NewRows(taskCols).
			AddRow("task-1", "proj-1", "Write docs", "everything", "in_progress", "user-1",
				now.Add(72*time.Hour), now, now, "{user-1,user-2}"))

	task, err := repo.GetByID(ctx, "task-1")
	require.NoError(t, err)
	assert.Equal(t, domain.TaskInProgress, task.Status)
	assert.Equal(t, []string{"user-1", "user-2"}, task.AssigneeIDs)
	require.NotNil(t, task.Deadline)

	mock.ExpectQuery(`SELECT .+ FROM tasks t`).
		WithArgs("task-missing").
		WillReturnRows(sqlmock.NewRows(taskCols))
	_, err = repo.GetByID(ctx, "task-missing")
	assert.ErrorIs(t, err, domain.ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTaskRepository_GetByID_NoAssigneesNoDeadline(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	repo := NewTaskRepository(db)

	now := time.Now()
	mock.ExpectQuery(`SELECT .+ FROM tasks t`).
		WithArgs("task-2").
		WillReturnRows(sqlmock.NewRows(taskCols).
			AddRow("task-2", "proj-1", "Chore", nil, "backlog", "user-1", nil, now, now, "{}"))

	task, err := repo.GetByID(context.Background(), "task-2")
	require.NoError(t, err)
	assert.Empty(t, task.Description)
	assert.Nil(t, task.Deadline)
	assert.Empty(t, task.AssigneeIDs)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTaskRepository_Update(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	repo := NewTaskRepository(db)
	ctx := context.Background()

	now := time.Now()
	task := &domain.Task{
		ID: "task-1", ProjectID: "proj-1", Title: "Write docs", Status: domain.TaskCompleted, UpdatedAt: now,
	}
	mock.ExpectExec(`UPDATE tasks`).
		WithArgs("Write docs", "", domain.TaskCompleted, nil, now, "task-1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	require.NoError(t, repo.Update(ctx, task))

	mock.ExpectExec(`UPDATE tasks`).
		WithArgs("Write docs", "", domain.TaskCompleted, nil, now, "task-1").
		WillReturnResult(sqlmock.NewResult(0, 0))
	assert.ErrorIs(t, repo.Update(ctx, task), domain.ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTaskRepository_SetAssignees(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	repo := NewTaskRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec(`DELETE FROM task_assignees`).
		WithArgs("task-1").
		WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectExec(`INSERT INTO task_assignees`).
		WithArgs("task-1", "user-3").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	require.NoError(t, repo.SetAssignees(context.Background(), "task-1", []string{"user-3"}))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTaskRepository_ListUpcoming(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	repo := NewTaskRepository(db)

	now := time.Now()
	until := now.Add(7 * 24 * time.Hour)
	mock.ExpectQuery(`SELECT .+ FROM tasks t`).
		WithArgs(now, until, domain.TaskCompleted).
		WillReturnRows(sqlmock.NewRows(taskCols).
			AddRow("task-1", "proj-1", "Soon", nil, "in_progress", "user-1",
				now.Add(24*time.Hour), now, now, "{user-1}"))

	tasks, err := repo.ListUpcoming(context.Background(), now, 7)
	require.NoError(t, err)
	require.Len(t, tasks, 1)
	assert.Equal(t, "Soon", tasks[0].Title)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTaskRepository_ListByStatus(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	repo := NewTaskRepository(db)
	ctx := context.Background()

	now := time.Now()
	mock.ExpectQuery(`SELECT .+ FROM tasks t`).
		WithArgs(domain.TaskBlocked, "proj-1").
		WillReturnRows(sqlmock.NewRows(taskCols).
			AddRow("task-1", "proj-1", "Stuck", nil, "blocked", "user-1", nil, now, now, "{user-1}"))

	tasks, err := repo.ListByStatus(ctx, domain.TaskBlocked, "proj-1")
	require.NoError(t, err)
	require.Len(t, tasks, 1)

	// Without a project filter the query carries the status only.
	mock.ExpectQuery(`SELECT .+ FROM tasks t`).
		WithArgs(domain.TaskBlocked).
		WillReturnRows(sqlmock.NewRows(taskCols))
	tasks, err = repo.ListByStatus(ctx, domain.TaskBlocked, "")
	require.NoError(t, err)
	assert.Empty(t, tasks)
	assert.NoError(t, mock.ExpectationsWereMet())
}

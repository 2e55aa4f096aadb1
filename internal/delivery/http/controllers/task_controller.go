package controllers

import (
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"projecthub/internal/delivery/http/helpers"
	"projecthub/internal/domain"
)

// CreateTaskRequest is the request body for POST /projects/{projectID}/tasks.
// Assignees may hold user IDs or display names; names must resolve to
// exactly one member.
type CreateTaskRequest struct {
	Title       string     `json:"title"`
	Description string     `json:"description"`
	Status      string     `json:"status"`
	Assignees   []string   `json:"assignees"`
	Deadline    *time.Time `json:"deadline"`
}

// Validate implements Validator.
func (r CreateTaskRequest) Validate() []string {
	var errs []string
	if r.Title == "" {
		errs = append(errs, "title is required")
	}
	if len(r.Assignees) == 0 {
		errs = append(errs, "at least one assignee is required")
	}
	return errs
}

// UpdateTaskRequest is the request body for PATCH /tasks/{taskID}. Omitted
// fields are left unchanged; ClearDeadline removes the deadline and takes
// precedence over Deadline.
type UpdateTaskRequest struct {
	Title         *string    `json:"title"`
	Description   *string    `json:"description"`
	Status        *string    `json:"status"`
	Assignees     []string   `json:"assignees"`
	Deadline      *time.Time `json:"deadline"`
	ClearDeadline bool       `json:"clear_deadline"`
}

type TaskController struct {
	Logger  *slog.Logger
	Service domain.TaskService
}

func NewTaskController(logger *slog.Logger, svc domain.TaskService) *TaskController {
	return &TaskController{Logger: logger, Service: svc}
}

// CreateTask godoc
// @Summary Create a task in a project
// @Description Creates a task with at least one assignee. A deadline schedules
// @Description a calendar event on each sync-enabled assignee's calendar.
// @Tags tasks
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param projectID path string true "Project ID"
// @Param task body CreateTaskRequest true "Task data"
// @Success 201 {object} helpers.APIResponse "data contains the created task"
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request (ambiguous assignee)"
// @Router /projects/{projectID}/tasks [post]
func (c *TaskController) CreateTask(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	var req CreateTaskRequest
	if !helpers.DecodeAndValidate(w, r, &req) {
		return
	}
	task, err := c.Service.CreateTask(r.Context(), r.PathValue("projectID"), userID,
		req.Title, req.Description, req.Status, req.Assignees, req.Deadline)
	if err != nil {
		writeDomainError(r.Context(), w, c.Logger, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusCreated, task)
}

// ListProjectTasks godoc
// @Summary List a project's tasks
// @Tags tasks
// @Produce json
// @Security BearerAuth
// @Param projectID path string true "Project ID"
// @Success 200 {object} helpers.APIResponse "data contains tasks"
// @Router /projects/{projectID}/tasks [get]
func (c *TaskController) ListProjectTasks(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	tasks, err := c.Service.ListByProject(r.Context(), r.PathValue("projectID"), userID)
	if err != nil {
		writeDomainError(r.Context(), w, c.Logger, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, tasks)
}

// GetTask godoc
// @Summary Get a task
// @Tags tasks
// @Produce json
// @Security BearerAuth
// @Param taskID path string true "Task ID"
// @Success 200 {object} helpers.APIResponse "data contains the task"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Router /tasks/{taskID} [get]
func (c *TaskController) GetTask(w http.ResponseWriter, r *http.Request) {
	if _, ok := requireUser(w, r); !ok {
		return
	}
	task, err := c.Service.GetTask(r.Context(), r.PathValue("taskID"))
	if err != nil {
		writeDomainError(r.Context(), w, c.Logger, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, task)
}

// UpdateTask godoc
// @Summary Update a task
// @Description Updates task fields. Changing the deadline or the assignee set
// @Description while a deadline is present reschedules calendar events.
// @Tags tasks
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param taskID path string true "Task ID"
// @Param task body UpdateTaskRequest true "Fields to update"
// @Success 200 {object} helpers.APIResponse "data contains the updated task"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Router /tasks/{taskID} [patch]
func (c *TaskController) UpdateTask(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	var req UpdateTaskRequest
	if !helpers.DecodeAndValidate(w, r, &req) {
		return
	}
	upd := domain.TaskUpdate{
		Title:       req.Title,
		Description: req.Description,
		StatusLabel: req.Status,
		Deadline:    req.Deadline,
		Assignees:   req.Assignees,
	}
	if req.ClearDeadline {
		upd.Deadline = &time.Time{}
	}
	task, err := c.Service.UpdateTask(r.Context(), r.PathValue("taskID"), userID, upd)
	if err != nil {
		writeDomainError(r.Context(), w, c.Logger, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, task)
}

// DeleteTask godoc
// @Summary Delete a task
// @Description Deletes the task. Calendar events created for it are removed
// @Description from assignee calendars asynchronously.
// @Tags tasks
// @Produce json
// @Security BearerAuth
// @Param taskID path string true "Task ID"
// @Success 204 "task deleted"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Router /tasks/{taskID} [delete]
func (c *TaskController) DeleteTask(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	if err := c.Service.DeleteTask(r.Context(), r.PathValue("taskID"), userID); err != nil {
		writeDomainError(r.Context(), w, c.Logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// QueryTasks godoc
// @Summary Query tasks across projects
// @Description Supports assignee=me, status=<label> (optionally scoped by
// @Description project_id), and days=N for upcoming deadlines.
// @Tags tasks
// @Produce json
// @Security BearerAuth
// @Param assignee query string false "me"
// @Param status query string false "Status label, e.g. In Progress"
// @Param project_id query string false "Scope status query to one project"
// @Param days query int false "Upcoming window in days (default 7)"
// @Success 200 {object} helpers.APIResponse "data contains tasks"
// @Router /tasks [get]
func (c *TaskController) QueryTasks(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	q := r.URL.Query()
	switch {
	case q.Get("assignee") == "me":
		tasks, err := c.Service.ListByAssignee(r.Context(), userID)
		if err != nil {
			writeDomainError(r.Context(), w, c.Logger, err)
			return
		}
		helpers.WriteJSONSuccess(w, http.StatusOK, tasks)
	case q.Get("status") != "":
		tasks, err := c.Service.ListByStatus(r.Context(), q.Get("status"), q.Get("project_id"))
		if err != nil {
			writeDomainError(r.Context(), w, c.Logger, err)
			return
		}
		helpers.WriteJSONSuccess(w, http.StatusOK, tasks)
	case q.Get("days") != "":
		days, err := strconv.Atoi(q.Get("days"))
		if err != nil {
			helpers.WriteJSONError(w, http.StatusBadRequest, helpers.ErrCodeBadRequest, "days must be an integer")
			return
		}
		tasks, err := c.Service.ListUpcoming(r.Context(), days)
		if err != nil {
			writeDomainError(r.Context(), w, c.Logger, err)
			return
		}
		helpers.WriteJSONSuccess(w, http.StatusOK, tasks)
	default:
		helpers.WriteJSONError(w, http.StatusBadRequest, helpers.ErrCodeBadRequest,
			"one of assignee=me, status, or days is required")
	}
}

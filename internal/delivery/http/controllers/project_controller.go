package controllers

import (
	"log/slog"
	"net/http"

	"projecthub/internal/delivery/http/helpers"
	"projecthub/internal/delivery/http/middleware"
	"projecthub/internal/domain"
)

// CreateProjectRequest is the request body for POST /projects.
type CreateProjectRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

// Validate implements Validator.
func (r CreateProjectRequest) Validate() []string {
	var errs []string
	if r.Name == "" {
		errs = append(errs, "name is required")
	}
	return errs
}

// UpdateProjectRequest is the request body for PATCH /projects/{projectID}.
// Omitted fields are left unchanged.
type UpdateProjectRequest struct {
	Name        *string `json:"name"`
	Description *string `json:"description"`
}

// JoinProjectRequest is the request body for POST /projects/join.
type JoinProjectRequest struct {
	InviteCode string `json:"invite_code"`
}

// Validate implements Validator.
func (r JoinProjectRequest) Validate() []string {
	var errs []string
	if r.InviteCode == "" {
		errs = append(errs, "invite_code is required")
	}
	return errs
}

// AddResourceRequest is the request body for POST /projects/{projectID}/resources.
type AddResourceRequest struct {
	Name string `json:"name"`
	URL  string `json:"url"`
}

// Validate implements Validator.
func (r AddResourceRequest) Validate() []string {
	var errs []string
	if r.Name == "" {
		errs = append(errs, "name is required")
	}
	return errs
}

// CreateInvitationRequest is the request body for POST /projects/{projectID}/invitations.
type CreateInvitationRequest struct {
	Email         string `json:"email"`
	ExpiresInDays int    `json:"expires_in_days"`
}

// Validate implements Validator.
func (r CreateInvitationRequest) Validate() []string {
	var errs []string
	if r.Email == "" {
		errs = append(errs, "email is required")
	}
	if r.ExpiresInDays < 0 {
		errs = append(errs, "expires_in_days must not be negative")
	}
	return errs
}

// ProjectDetailResponse bundles a project with its members and resources.
type ProjectDetailResponse struct {
	Project   *domain.Project    `json:"project"`
	Members   []*domain.Member   `json:"members"`
	Resources []*domain.Resource `json:"resources"`
}

type ProjectController struct {
	Logger      *slog.Logger
	Service     domain.ProjectService
	Invitations domain.InvitationService
}

func NewProjectController(logger *slog.Logger, svc domain.ProjectService, invitations domain.InvitationService) *ProjectController {
	return &ProjectController{Logger: logger, Service: svc, Invitations: invitations}
}

// requireUser extracts the authenticated user or writes a 401.
func requireUser(w http.ResponseWriter, r *http.Request) (string, bool) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		helpers.WriteJSONError(w, http.StatusUnauthorized, helpers.ErrCodeUnauthorized, "unauthorized")
		return "", false
	}
	return userID, true
}

// CreateProject godoc
// @Summary Create a project
// @Description Creates a project owned by the authenticated user, with a unique 8-character invite code.
// @Tags projects
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param project body CreateProjectRequest true "Project data"
// @Success 201 {object} helpers.APIResponse "data contains the created project"
// @Failure 409 {object} helpers.APIResponse "error.code: conflict"
// @Router /projects [post]
func (c *ProjectController) CreateProject(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	var req CreateProjectRequest
	if !helpers.DecodeAndValidate(w, r, &req) {
		return
	}
	project, err := c.Service.CreateProject(r.Context(), req.Name, req.Description, userID)
	if err != nil {
		writeDomainError(r.Context(), w, c.Logger, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusCreated, project)
}

// ListProjects godoc
// @Summary List the authenticated user's projects
// @Tags projects
// @Produce json
// @Security BearerAuth
// @Success 200 {object} helpers.APIResponse "data contains projects"
// @Router /projects [get]
func (c *ProjectController) ListProjects(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	projects, err := c.Service.ListProjects(r.Context(), userID)
	if err != nil {
		writeDomainError(r.Context(), w, c.Logger, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, projects)
}

// GetProject godoc
// @Summary Get a project with members and resources
// @Tags projects
// @Produce json
// @Security BearerAuth
// @Param projectID path string true "Project ID"
// @Success 200 {object} helpers.APIResponse "data contains project, members, resources"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Router /projects/{projectID} [get]
func (c *ProjectController) GetProject(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	project, members, resources, err := c.Service.GetProject(r.Context(), r.PathValue("projectID"), userID)
	if err != nil {
		writeDomainError(r.Context(), w, c.Logger, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, ProjectDetailResponse{
		Project:   project,
		Members:   members,
		Resources: resources,
	})
}

// UpdateProject godoc
// @Summary Update a project's name or description
// @Tags projects
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param projectID path string true "Project ID"
// @Param project body UpdateProjectRequest true "Fields to update"
// @Success 200 {object} helpers.APIResponse "data contains the updated project"
// @Failure 403 {object} helpers.APIResponse "error.code: forbidden"
// @Router /projects/{projectID} [patch]
func (c *ProjectController) UpdateProject(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	var req UpdateProjectRequest
	if !helpers.DecodeAndValidate(w, r, &req) {
		return
	}
	project, err := c.Service.UpdateProject(r.Context(), r.PathValue("projectID"), userID, req.Name, req.Description)
	if err != nil {
		writeDomainError(r.Context(), w, c.Logger, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, project)
}

// DeleteProject godoc
// @Summary Delete a project
// @Description Owner only. Members, resources, invitations, and tasks are removed with the project.
// @Tags projects
// @Produce json
// @Security BearerAuth
// @Param projectID path string true "Project ID"
// @Success 204 "project deleted"
// @Failure 403 {object} helpers.APIResponse "error.code: forbidden"
// @Router /projects/{projectID} [delete]
func (c *ProjectController) DeleteProject(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	if err := c.Service.DeleteProject(r.Context(), r.PathValue("projectID"), userID); err != nil {
		writeDomainError(r.Context(), w, c.Logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// JoinProject godoc
// @Summary Join a project by invite code
// @Tags projects
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param join body JoinProjectRequest true "Invite code"
// @Success 200 {object} helpers.APIResponse "data contains the joined project"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Failure 409 {object} helpers.APIResponse "error.code: conflict (already a member)"
// @Router /projects/join [post]
func (c *ProjectController) JoinProject(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	var req JoinProjectRequest
	if !helpers.DecodeAndValidate(w, r, &req) {
		return
	}
	project, err := c.Service.JoinProject(r.Context(), req.InviteCode, userID)
	if err != nil {
		writeDomainError(r.Context(), w, c.Logger, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, project)
}

// AddResource godoc
// @Summary Add a resource to a project
// @Tags projects
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param projectID path string true "Project ID"
// @Param resource body AddResourceRequest true "Resource data"
// @Success 201 {object} helpers.APIResponse "data contains the created resource"
// @Router /projects/{projectID}/resources [post]
func (c *ProjectController) AddResource(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	var req AddResourceRequest
	if !helpers.DecodeAndValidate(w, r, &req) {
		return
	}
	res, err := c.Service.AddResource(r.Context(), r.PathValue("projectID"), userID, req.Name, req.URL)
	if err != nil {
		writeDomainError(r.Context(), w, c.Logger, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusCreated, res)
}

// RemoveResource godoc
// @Summary Remove a resource from a project
// @Tags projects
// @Produce json
// @Security BearerAuth
// @Param projectID path string true "Project ID"
// @Param resourceID path string true "Resource ID"
// @Success 204 "resource removed"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Router /projects/{projectID}/resources/{resourceID} [delete]
func (c *ProjectController) RemoveResource(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	err := c.Service.RemoveResource(r.Context(), r.PathValue("projectID"), userID, r.PathValue("resourceID"))
	if err != nil {
		writeDomainError(r.Context(), w, c.Logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// RemoveMember godoc
// @Summary Remove a member from a project
// @Description Requires owner or admin. The project owner can never be removed.
// @Tags projects
// @Produce json
// @Security BearerAuth
// @Param projectID path string true "Project ID"
// @Param memberID path string true "Member user ID"
// @Success 204 "member removed"
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request (owner)"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Router /projects/{projectID}/members/{memberID} [delete]
func (c *ProjectController) RemoveMember(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	err := c.Service.RemoveMember(r.Context(), r.PathValue("projectID"), r.PathValue("memberID"), userID)
	if err != nil {
		writeDomainError(r.Context(), w, c.Logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// CreateInvitation godoc
// @Summary Invite an email address to a project
// @Tags invitations
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param projectID path string true "Project ID"
// @Param invitation body CreateInvitationRequest true "Invitation data"
// @Success 201 {object} helpers.APIResponse "data contains the created invitation"
// @Router /projects/{projectID}/invitations [post]
func (c *ProjectController) CreateInvitation(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	var req CreateInvitationRequest
	if !helpers.DecodeAndValidate(w, r, &req) {
		return
	}
	inv, err := c.Invitations.Create(r.Context(), r.PathValue("projectID"), req.Email, userID, req.ExpiresInDays)
	if err != nil {
		writeDomainError(r.Context(), w, c.Logger, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusCreated, inv)
}

// ListInvitations godoc
// @Summary List a project's invitations
// @Tags invitations
// @Produce json
// @Security BearerAuth
// @Param projectID path string true "Project ID"
// @Success 200 {object} helpers.APIResponse "data contains invitations"
// @Router /projects/{projectID}/invitations [get]
func (c *ProjectController) ListInvitations(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	invs, err := c.Invitations.ListByProject(r.Context(), r.PathValue("projectID"), userID)
	if err != nil {
		writeDomainError(r.Context(), w, c.Logger, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, invs)
}

// AcceptInvitation godoc
// @Summary Accept a per-email invitation
// @Description Accepts a pending, unexpired invitation and joins the authenticated user to the project.
// @Tags invitations
// @Produce json
// @Security BearerAuth
// @Param code path string true "Invitation code"
// @Success 200 {object} helpers.APIResponse "data contains the joined project"
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request (expired or not pending)"
// @Router /invitations/{code}/accept [post]
func (c *ProjectController) AcceptInvitation(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	project, err := c.Invitations.Accept(r.Context(), r.PathValue("code"), userID)
	if err != nil {
		writeDomainError(r.Context(), w, c.Logger, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, project)
}

// DeclineInvitation godoc
// @Summary Decline a per-email invitation
// @Tags invitations
// @Produce json
// @Security BearerAuth
// @Param code path string true "Invitation code"
// @Success 204 "invitation declined"
// @Router /invitations/{code}/decline [post]
func (c *ProjectController) DeclineInvitation(w http.ResponseWriter, r *http.Request) {
	if _, ok := requireUser(w, r); !ok {
		return
	}
	if err := c.Invitations.Decline(r.Context(), r.PathValue("code")); err != nil {
		writeDomainError(r.Context(), w, c.Logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

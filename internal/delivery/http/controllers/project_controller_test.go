package controllers

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"projecthub/internal/delivery/http/helpers"
	"projecthub/internal/delivery/http/middleware"
	"projecthub/internal/domain"
)

// testLogger is a no-op logger for controller tests so we don't assert on log output.
var testLogger = slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: slog.LevelError}))

// fakeProjectService implements domain.ProjectService for handler tests.
type fakeProjectService struct {
	createProjectErr    error
	createProjectResult *domain.Project
	lastCreateName      string
	lastCreateOwnerID   string

	joinProjectErr    error
	joinProjectResult *domain.Project
	lastJoinCode      string
	lastJoinUserID    string

	getProjectErr     error
	getProjectResult  *domain.Project
	getProjectMembers []*domain.Member

	removeMemberErr      error
	lastRemoveMemberID   string
	lastRemoveCallerID   string
	lastRemoveProjectID_ string
}

func (f *fakeProjectService) CreateProject(ctx context.Context, name, description, ownerID string) (*domain.Project, error) {
	f.lastCreateName = name
	f.lastCreateOwnerID = ownerID
	return f.createProjectResult, f.createProjectErr
}

func (f *fakeProjectService) GetProject(ctx context.Context, projectID, callerID string) (*domain.Project, []*domain.Member, []*domain.Resource, error) {
	if f.getProjectErr != nil {
		return nil, nil, nil, f.getProjectErr
	}
	return f.getProjectResult, f.getProjectMembers, []*domain.Resource{}, nil
}

func (f *fakeProjectService) ListProjects(ctx context.Context, userID string) ([]*domain.Project, error) {
	return []*domain.Project{}, nil
}

func (f *fakeProjectService) UpdateProject(ctx context.Context, projectID, callerID string, name, description *string) (*domain.Project, error) {
	return f.getProjectResult, f.getProjectErr
}

func (f *fakeProjectService) DeleteProject(ctx context.Context, projectID, callerID string) error {
	return nil
}

func (f *fakeProjectService) JoinProject(ctx context.Context, inviteCode, userID string) (*domain.Project, error) {
	f.lastJoinCode = inviteCode
	f.lastJoinUserID = userID
	return f.joinProjectResult, f.joinProjectErr
}

func (f *fakeProjectService) AddResource(ctx context.Context, projectID, callerID, name, url string) (*domain.Resource, error) {
	return &domain.Resource{ID: "res-1", ProjectID: projectID, Name: name, URL: url}, nil
}

func (f *fakeProjectService) RemoveResource(ctx context.Context, projectID, callerID, resourceID string) error {
	return nil
}

func (f *fakeProjectService) RemoveMember(ctx context.Context, projectID, memberID, callerID string) error {
	f.lastRemoveProjectID_ = projectID
	f.lastRemoveMemberID = memberID
	f.lastRemoveCallerID = callerID
	return f.removeMemberErr
}

func (f *fakeProjectService) IsUserAdmin(ctx context.Context, projectID, userID string) (bool, error) {
	return false, nil
}

// fakeInvitationService implements domain.InvitationService for handler tests.
type fakeInvitationService struct {
	createErr    error
	createResult *domain.Invitation
	acceptErr    error
	acceptResult *domain.Project
	lastEmail    string
}

func (f *fakeInvitationService) Create(ctx context.Context, projectID, email, invitedBy string, expiresInDays int) (*domain.Invitation, error) {
	f.lastEmail = email
	return f.createResult, f.createErr
}

func (f *fakeInvitationService) IsValid(ctx context.Context, code string) (bool, error) {
	return false, nil
}

func (f *fakeInvitationService) GetByCode(ctx context.Context, code string) (*domain.Invitation, error) {
	return nil, nil
}

func (f *fakeInvitationService) ListByProject(ctx context.Context, projectID, callerID string) ([]*domain.Invitation, error) {
	return []*domain.Invitation{}, nil
}

func (f *fakeInvitationService) UpdateStatus(ctx context.Context, id string, status domain.InvitationStatus) (*domain.Invitation, error) {
	return nil, nil
}

func (f *fakeInvitationService) UpdateStatusByCode(ctx context.Context, code string, status domain.InvitationStatus) (*domain.Invitation, error) {
	return nil, nil
}

func (f *fakeInvitationService) Accept(ctx context.Context, code, userID string) (*domain.Project, error) {
	return f.acceptResult, f.acceptErr
}

func (f *fakeInvitationService) Decline(ctx context.Context, code string) error {
	return nil
}

func (f *fakeInvitationService) CleanupExpired(ctx context.Context) (int64, error) {
	return 0, nil
}

func authedRequest(method, target string, body []byte, userID string) *http.Request {
	req := httptest.NewRequest(method, target, bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	return req.WithContext(middleware.SetUserID(req.Context(), userID))
}

func decodeEnvelope(t *testing.T, rec *httptest.ResponseRecorder) helpers.APIResponse {
	t.Helper()
	var resp helpers.APIResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	return resp
}

func TestProjectController_CreateProject(t *testing.T) {
	svc := &fakeProjectService{createProjectResult: &domain.Project{ID: "proj-1", Name: "Alpha", InviteCode: "ABCD1234"}}
	ctrl := NewProjectController(testLogger, svc, &fakeInvitationService{})

	body, _ := json.Marshal(CreateProjectRequest{Name: "Alpha", Description: "first"})
	rec := httptest.NewRecorder()
	ctrl.CreateProject(rec, authedRequest(http.MethodPost, "/projects", body, "user-1"))

	require.Equal(t, http.StatusCreated, rec.Code)
	resp := decodeEnvelope(t, rec)
	assert.Nil(t, resp.Error)
	assert.Equal(t, "Alpha", svc.lastCreateName)
	assert.Equal(t, "user-1", svc.lastCreateOwnerID)
}

func TestProjectController_CreateProject_Validation(t *testing.T) {
	ctrl := NewProjectController(testLogger, &fakeProjectService{}, &fakeInvitationService{})

	body, _ := json.Marshal(CreateProjectRequest{Name: ""})
	rec := httptest.NewRecorder()
	ctrl.CreateProject(rec, authedRequest(http.MethodPost, "/projects", body, "user-1"))

	require.Equal(t, http.StatusBadRequest, rec.Code)
	resp := decodeEnvelope(t, rec)
	require.NotNil(t, resp.Error)
	assert.Equal(t, helpers.ErrCodeBadRequest, resp.Error.Code)
}

func TestProjectController_CreateProject_Unauthenticated(t *testing.T) {
	ctrl := NewProjectController(testLogger, &fakeProjectService{}, &fakeInvitationService{})

	body, _ := json.Marshal(CreateProjectRequest{Name: "Alpha"})
	req := httptest.NewRequest(http.MethodPost, "/projects", bytes.NewReader(body))
	rec := httptest.NewRecorder()
	ctrl.CreateProject(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestProjectController_CreateProject_DuplicateName(t *testing.T) {
	svc := &fakeProjectService{createProjectErr: domain.ErrDuplicateProjectName}
	ctrl := NewProjectController(testLogger, svc, &fakeInvitationService{})

	body, _ := json.Marshal(CreateProjectRequest{Name: "Alpha"})
	rec := httptest.NewRecorder()
	ctrl.CreateProject(rec, authedRequest(http.MethodPost, "/projects", body, "user-1"))

	require.Equal(t, http.StatusConflict, rec.Code)
	resp := decodeEnvelope(t, rec)
	require.NotNil(t, resp.Error)
	assert.Equal(t, helpers.ErrCodeConflict, resp.Error.Code)
}

func TestProjectController_JoinProject(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
	}{
		{"success", nil, http.StatusOK},
		{"unknown code", domain.ErrNotFound, http.StatusNotFound},
		{"already a member", domain.ErrAlreadyMember, http.StatusConflict},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := &fakeProjectService{joinProjectErr: tt.err}
			if tt.err == nil {
				svc.joinProjectResult = &domain.Project{ID: "proj-1"}
			}
			ctrl := NewProjectController(testLogger, svc, &fakeInvitationService{})

			body, _ := json.Marshal(JoinProjectRequest{InviteCode: "ABCD1234"})
			rec := httptest.NewRecorder()
			ctrl.JoinProject(rec, authedRequest(http.MethodPost, "/projects/join", body, "user-2"))

			assert.Equal(t, tt.wantStatus, rec.Code)
			assert.Equal(t, "ABCD1234", svc.lastJoinCode)
			assert.Equal(t, "user-2", svc.lastJoinUserID)
		})
	}
}

func TestProjectController_RemoveMember(t *testing.T) {
	svc := &fakeProjectService{removeMemberErr: domain.ErrCannotRemoveOwner}
	ctrl := NewProjectController(testLogger, svc, &fakeInvitationService{})

	req := authedRequest(http.MethodDelete, "/projects/proj-1/members/user-1", nil, "user-1")
	req.SetPathValue("projectID", "proj-1")
	req.SetPathValue("memberID", "user-1")
	rec := httptest.NewRecorder()
	ctrl.RemoveMember(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "proj-1", svc.lastRemoveProjectID_)
	assert.Equal(t, "user-1", svc.lastRemoveMemberID)
}

func TestProjectController_GetProject_Forbidden(t *testing.T) {
	svc := &fakeProjectService{getProjectErr: domain.ErrForbidden}
	ctrl := NewProjectController(testLogger, svc, &fakeInvitationService{})

	req := authedRequest(http.MethodGet, "/projects/proj-1", nil, "user-9")
	req.SetPathValue("projectID", "proj-1")
	rec := httptest.NewRecorder()
	ctrl.GetProject(rec, req)

	require.Equal(t, http.StatusForbidden, rec.Code)
	resp := decodeEnvelope(t, rec)
	require.NotNil(t, resp.Error)
	assert.Equal(t, helpers.ErrCodeForbidden, resp.Error.Code)
}

func TestProjectController_CreateInvitation(t *testing.T) {
	inv := &fakeInvitationService{createResult: &domain.Invitation{ID: "inv-1", Code: "CODE1234"}}
	ctrl := NewProjectController(testLogger, &fakeProjectService{}, inv)

	body, _ := json.Marshal(CreateInvitationRequest{Email: "bob@example.com", ExpiresInDays: 3})
	req := authedRequest(http.MethodPost, "/projects/proj-1/invitations", body, "user-1")
	req.SetPathValue("projectID", "proj-1")
	rec := httptest.NewRecorder()
	ctrl.CreateInvitation(rec, req)

	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, "bob@example.com", inv.lastEmail)
}

func TestProjectController_AcceptInvitation_Expired(t *testing.T) {
	inv := &fakeInvitationService{acceptErr: domain.ErrInvalidInput}
	ctrl := NewProjectController(testLogger, &fakeProjectService{}, inv)

	req := authedRequest(http.MethodPost, "/invitations/CODE1234/accept", nil, "user-2")
	req.SetPathValue("code", "CODE1234")
	rec := httptest.NewRecorder()
	ctrl.AcceptInvitation(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

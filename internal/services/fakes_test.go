package services

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sort"
	"strings"
	"time"

	"projecthub/internal/domain"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// fakeUserRepo is an in-memory UserRepository for tests.
type fakeUserRepo struct {
	byID   map[string]*domain.User
	nextID int
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{byID: make(map[string]*domain.User), nextID: 1}
}

func (f *fakeUserRepo) add(name, lastName string) *domain.User {
	u := &domain.User{
		ID:       fmt.Sprintf("user-%d", f.nextID),
		Email:    strings.ToLower(name) + "@example.com",
		Name:     name,
		LastName: lastName,
	}
	f.nextID++
	f.byID[u.ID] = u
	return u
}

func (f *fakeUserRepo) Create(ctx context.Context, u *domain.User) error {
	u.ID = fmt.Sprintf("user-%d", f.nextID)
	f.nextID++
	f.byID[u.ID] = u
	return nil
}

func (f *fakeUserRepo) GetByID(ctx context.Context, id string) (*domain.User, error) {
	if u, ok := f.byID[id]; ok {
		return u, nil
	}
	return nil, domain.ErrUserNotFound
}

func (f *fakeUserRepo) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	for _, u := range f.byID {
		if strings.EqualFold(u.Email, email) {
			return u, nil
		}
	}
	return nil, domain.ErrUserNotFound
}

func (f *fakeUserRepo) GetByGoogleID(ctx context.Context, googleID string) (*domain.User, error) {
	for _, u := range f.byID {
		if u.GoogleID == googleID {
			return u, nil
		}
	}
	return nil, domain.ErrUserNotFound
}

func (f *fakeUserRepo) FindByDisplayName(ctx context.Context, name string) ([]*domain.User, error) {
	var out []*domain.User
	for _, u := range f.byID {
		full := strings.TrimSpace(u.Name + " " + u.LastName)
		if strings.EqualFold(full, name) || strings.EqualFold(u.Name, name) {
			out = append(out, u)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (f *fakeUserRepo) Update(ctx context.Context, u *domain.User) error {
	if _, ok := f.byID[u.ID]; !ok {
		return domain.ErrUserNotFound
	}
	f.byID[u.ID] = u
	return nil
}

func (f *fakeUserRepo) SetCalendarCredentials(ctx context.Context, userID, refreshToken string, enabled bool) error {
	u, ok := f.byID[userID]
	if !ok {
		return domain.ErrUserNotFound
	}
	u.CalendarRefreshToken = refreshToken
	u.CalendarEnabled = enabled
	return nil
}

// fakeProjectRepo is an in-memory ProjectRepository for tests.
type fakeProjectRepo struct {
	byID      map[string]*domain.Project
	members   map[string]map[string]*domain.Member // projectID -> userID
	resources map[string][]*domain.Resource
	nextID    int
}

func newFakeProjectRepo() *fakeProjectRepo {
	return &fakeProjectRepo{
		byID:      make(map[string]*domain.Project),
		members:   make(map[string]map[string]*domain.Member),
		resources: make(map[string][]*domain.Resource),
		nextID:    1,
	}
}

func (f *fakeProjectRepo) Create(ctx context.Context, p *domain.Project) error {
	p.ID = fmt.Sprintf("proj-%d", f.nextID)
	f.nextID++
	f.byID[p.ID] = p
	f.members[p.ID] = map[string]*domain.Member{
		p.OwnerID: {ProjectID: p.ID, UserID: p.OwnerID, Role: domain.RoleOwner, JoinedAt: p.CreatedAt},
	}
	return nil
}

func (f *fakeProjectRepo) GetByID(ctx context.Context, id string) (*domain.Project, error) {
	if p, ok := f.byID[id]; ok {
		return p, nil
	}
	return nil, domain.ErrNotFound
}

func (f *fakeProjectRepo) GetByInviteCode(ctx context.Context, code string) (*domain.Project, error) {
	for _, p := range f.byID {
		if p.InviteCode == code {
			return p, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (f *fakeProjectRepo) ExistsByOwnerAndName(ctx context.Context, ownerID, name string) (bool, error) {
	for _, p := range f.byID {
		if p.OwnerID == ownerID && strings.EqualFold(p.Name, name) {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeProjectRepo) ListByUserID(ctx context.Context, userID string) ([]*domain.Project, error) {
	var out []*domain.Project
	for id, members := range f.members {
		if _, ok := members[userID]; ok {
			out = append(out, f.byID[id])
		}
	}
	return out, nil
}

func (f *fakeProjectRepo) Update(ctx context.Context, projectID string, name, description *string) (*domain.Project, error) {
	p, ok := f.byID[projectID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	if name != nil {
		p.Name = *name
	}
	if description != nil {
		p.Description = *description
	}
	return p, nil
}

func (f *fakeProjectRepo) Delete(ctx context.Context, id string) error {
	if _, ok := f.byID[id]; !ok {
		return domain.ErrNotFound
	}
	delete(f.byID, id)
	delete(f.members, id)
	delete(f.resources, id)
	return nil
}

func (f *fakeProjectRepo) AddMember(ctx context.Context, projectID, userID string, role domain.MemberRole) error {
	members, ok := f.members[projectID]
	if !ok {
		return domain.ErrNotFound
	}
	if _, ok := members[userID]; ok {
		return domain.ErrAlreadyMember
	}
	members[userID] = &domain.Member{ProjectID: projectID, UserID: userID, Role: role, JoinedAt: time.Now()}
	return nil
}

func (f *fakeProjectRepo) GetMember(ctx context.Context, projectID, userID string) (*domain.Member, error) {
	if m, ok := f.members[projectID][userID]; ok {
		return m, nil
	}
	return nil, domain.ErrNotFound
}

func (f *fakeProjectRepo) ListMembers(ctx context.Context, projectID string) ([]*domain.Member, error) {
	var out []*domain.Member
	for _, m := range f.members[projectID] {
		out = append(out, m)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].UserID < out[j].UserID })
	return out, nil
}

func (f *fakeProjectRepo) RemoveMember(ctx context.Context, projectID, userID string) error {
	if _, ok := f.members[projectID][userID]; !ok {
		return domain.ErrNotFound
	}
	delete(f.members[projectID], userID)
	return nil
}

func (f *fakeProjectRepo) AddResource(ctx context.Context, res *domain.Resource) error {
	f.resources[res.ProjectID] = append(f.resources[res.ProjectID], res)
	return nil
}

func (f *fakeProjectRepo) ListResources(ctx context.Context, projectID string) ([]*domain.Resource, error) {
	return f.resources[projectID], nil
}

func (f *fakeProjectRepo) RemoveResource(ctx context.Context, projectID, resourceID string) error {
	list := f.resources[projectID]
	for i, r := range list {
		if r.ID == resourceID {
			f.resources[projectID] = append(list[:i], list[i+1:]...)
			return nil
		}
	}
	return domain.ErrNotFound
}

// fakeInvitationRepo is an in-memory InvitationRepository for tests.
type fakeInvitationRepo struct {
	byID   map[string]*domain.Invitation
	nextID int
}

func newFakeInvitationRepo() *fakeInvitationRepo {
	return &fakeInvitationRepo{byID: make(map[string]*domain.Invitation), nextID: 1}
}

func (f *fakeInvitationRepo) Create(ctx context.Context, inv *domain.Invitation) error {
	inv.ID = fmt.Sprintf("inv-%d", f.nextID)
	f.nextID++
	f.byID[inv.ID] = inv
	return nil
}

func (f *fakeInvitationRepo) GetByID(ctx context.Context, id string) (*domain.Invitation, error) {
	return f.byID[id], nil
}

func (f *fakeInvitationRepo) GetByCode(ctx context.Context, code string) (*domain.Invitation, error) {
	for _, inv := range f.byID {
		if inv.Code == code {
			return inv, nil
		}
	}
	return nil, nil
}

func (f *fakeInvitationRepo) ListByEmail(ctx context.Context, email string) ([]*domain.Invitation, error) {
	var out []*domain.Invitation
	for _, inv := range f.byID {
		if inv.Email == email {
			out = append(out, inv)
		}
	}
	return out, nil
}

func (f *fakeInvitationRepo) ListByProjectID(ctx context.Context, projectID string) ([]*domain.Invitation, error) {
	var out []*domain.Invitation
	for _, inv := range f.byID {
		if inv.ProjectID == projectID {
			out = append(out, inv)
		}
	}
	return out, nil
}

func (f *fakeInvitationRepo) ListByStatus(ctx context.Context, status domain.InvitationStatus) ([]*domain.Invitation, error) {
	var out []*domain.Invitation
	for _, inv := range f.byID {
		if inv.Status == status {
			out = append(out, inv)
		}
	}
	return out, nil
}

func (f *fakeInvitationRepo) UpdateStatus(ctx context.Context, id string, status domain.InvitationStatus) (*domain.Invitation, error) {
	inv, ok := f.byID[id]
	if !ok {
		return nil, nil
	}
	inv.Status = status
	return inv, nil
}

func (f *fakeInvitationRepo) ExpirePending(ctx context.Context, now time.Time) (int64, error) {
	var n int64
	for _, inv := range f.byID {
		if inv.Status == domain.InvitationPending && inv.ExpiresAt.Before(now) {
			inv.Status = domain.InvitationExpired
			n++
		}
	}
	return n, nil
}

// fakeTaskRepo is an in-memory TaskRepository for tests.
type fakeTaskRepo struct {
	byID   map[string]*domain.Task
	nextID int
}

func newFakeTaskRepo() *fakeTaskRepo {
	return &fakeTaskRepo{byID: make(map[string]*domain.Task), nextID: 1}
}

func (f *fakeTaskRepo) Create(ctx context.Context, t *domain.Task) error {
	t.ID = fmt.Sprintf("task-%d", f.nextID)
	f.nextID++
	f.byID[t.ID] = t
	return nil
}

func (f *fakeTaskRepo) GetByID(ctx context.Context, id string) (*domain.Task, error) {
	if t, ok := f.byID[id]; ok {
		return t, nil
	}
	return nil, domain.ErrNotFound
}

func (f *fakeTaskRepo) Update(ctx context.Context, t *domain.Task) error {
	if _, ok := f.byID[t.ID]; !ok {
		return domain.ErrNotFound
	}
	f.byID[t.ID] = t
	return nil
}

func (f *fakeTaskRepo) Delete(ctx context.Context, id string) error {
	if _, ok := f.byID[id]; !ok {
		return domain.ErrNotFound
	}
	delete(f.byID, id)
	return nil
}

func (f *fakeTaskRepo) SetAssignees(ctx context.Context, taskID string, userIDs []string) error {
	t, ok := f.byID[taskID]
	if !ok {
		return domain.ErrNotFound
	}
	t.AssigneeIDs = userIDs
	return nil
}

func (f *fakeTaskRepo) ListByProjectID(ctx context.Context, projectID string) ([]*domain.Task, error) {
	var out []*domain.Task
	for _, t := range f.byID {
		if t.ProjectID == projectID {
			out = append(out, t)
		}
	}
	return out, nil
}

func (f *fakeTaskRepo) ListByAssignee(ctx context.Context, userID string) ([]*domain.Task, error) {
	var out []*domain.Task
	for _, t := range f.byID {
		for _, id := range t.AssigneeIDs {
			if id == userID {
				out = append(out, t)
				break
			}
		}
	}
	return out, nil
}

func (f *fakeTaskRepo) ListByStatus(ctx context.Context, status domain.TaskStatus, projectID string) ([]*domain.Task, error) {
	var out []*domain.Task
	for _, t := range f.byID {
		if t.Status != status {
			continue
		}
		if projectID != "" && t.ProjectID != projectID {
			continue
		}
		out = append(out, t)
	}
	return out, nil
}

func (f *fakeTaskRepo) ListUpcoming(ctx context.Context, now time.Time, days int) ([]*domain.Task, error) {
	end := now.Add(time.Duration(days) * 24 * time.Hour)
	var out []*domain.Task
	for _, t := range f.byID {
		if t.Status == domain.TaskCompleted || t.Deadline == nil {
			continue
		}
		if t.Deadline.Before(now) || !t.Deadline.Before(end) {
			continue
		}
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Deadline.Before(*out[j].Deadline) })
	return out, nil
}

// fakeEventRepo is an in-memory TaskCalendarEventRepository for tests.
type fakeEventRepo struct {
	byKey map[string]*domain.TaskCalendarEvent // taskID + "/" + userID
}

func newFakeEventRepo() *fakeEventRepo {
	return &fakeEventRepo{byKey: make(map[string]*domain.TaskCalendarEvent)}
}

func (f *fakeEventRepo) Upsert(ctx context.Context, m *domain.TaskCalendarEvent) error {
	f.byKey[m.TaskID+"/"+m.UserID] = m
	return nil
}

func (f *fakeEventRepo) Get(ctx context.Context, taskID, userID string) (*domain.TaskCalendarEvent, error) {
	return f.byKey[taskID+"/"+userID], nil
}

func (f *fakeEventRepo) ListByTaskID(ctx context.Context, taskID string) ([]*domain.TaskCalendarEvent, error) {
	var out []*domain.TaskCalendarEvent
	for _, m := range f.byKey {
		if m.TaskID == taskID {
			out = append(out, m)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].UserID < out[j].UserID })
	return out, nil
}

func (f *fakeEventRepo) Delete(ctx context.Context, taskID, userID string) error {
	delete(f.byKey, taskID+"/"+userID)
	return nil
}

// fakeJobRepo is an in-memory CalendarSyncJobRepository for tests.
type fakeJobRepo struct {
	jobs       []*domain.CalendarSyncJob
	nextID     int
	enqueueErr error
}

func newFakeJobRepo() *fakeJobRepo {
	return &fakeJobRepo{nextID: 1}
}

func (f *fakeJobRepo) Enqueue(ctx context.Context, job *domain.CalendarSyncJob) error {
	if f.enqueueErr != nil {
		return f.enqueueErr
	}
	job.ID = fmt.Sprintf("job-%d", f.nextID)
	f.nextID++
	f.jobs = append(f.jobs, job)
	return nil
}

func (f *fakeJobRepo) ListPending(ctx context.Context, limit int) ([]*domain.CalendarSyncJob, error) {
	if len(f.jobs) <= limit {
		return append([]*domain.CalendarSyncJob(nil), f.jobs...), nil
	}
	return append([]*domain.CalendarSyncJob(nil), f.jobs[:limit]...), nil
}

func (f *fakeJobRepo) Delete(ctx context.Context, id string) error {
	for i, j := range f.jobs {
		if j.ID == id {
			f.jobs = append(f.jobs[:i], f.jobs[i+1:]...)
			return nil
		}
	}
	return nil
}

func (f *fakeJobRepo) IncrementAttempts(ctx context.Context, id string) error {
	for _, j := range f.jobs {
		if j.ID == id {
			j.Attempts++
			return nil
		}
	}
	return nil
}

// fakeCalendarProvider records event operations without any network access.
type fakeCalendarProvider struct {
	created   map[string]*domain.CalendarEvent // eventID -> last payload
	updated   map[string]*domain.CalendarEvent
	deleted   []string
	nextID    int
	createErr error
	updateErr error
	deleteErr error
}

func newFakeCalendarProvider() *fakeCalendarProvider {
	return &fakeCalendarProvider{
		created: make(map[string]*domain.CalendarEvent),
		updated: make(map[string]*domain.CalendarEvent),
		nextID:  1,
	}
}

func (f *fakeCalendarProvider) AuthURL(state string) string { return "https://example.com/auth?state=" + state }

func (f *fakeCalendarProvider) ExchangeCode(ctx context.Context, code string) (string, string, time.Time, error) {
	return "access-" + code, "refresh-" + code, time.Now().Add(time.Hour), nil
}

func (f *fakeCalendarProvider) CreateEvent(ctx context.Context, refreshToken string, ev *domain.CalendarEvent) (string, error) {
	if f.createErr != nil {
		return "", f.createErr
	}
	id := fmt.Sprintf("ev-%d", f.nextID)
	f.nextID++
	f.created[id] = ev
	return id, nil
}

func (f *fakeCalendarProvider) UpdateEvent(ctx context.Context, refreshToken, eventID string, ev *domain.CalendarEvent) error {
	if f.updateErr != nil {
		return f.updateErr
	}
	f.updated[eventID] = ev
	return nil
}

func (f *fakeCalendarProvider) DeleteEvent(ctx context.Context, refreshToken, eventID string) error {
	if f.deleteErr != nil {
		return f.deleteErr
	}
	f.deleted = append(f.deleted, eventID)
	return nil
}

func (f *fakeCalendarProvider) VerifyAccess(ctx context.Context, refreshToken string) bool {
	return refreshToken != ""
}

func (f *fakeCalendarProvider) RevokeAccess(ctx context.Context, refreshToken string) error {
	return nil
}

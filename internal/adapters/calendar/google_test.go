package calendar

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"projecthub/internal/domain"
)

var testConfig = Config{
	ClientID:     "client-id",
	ClientSecret: "client-secret",
	RedirectURL:  "http://localhost/callback",
}

type roundTripperFunc func(*http.Request) (*http.Response, error)

func (f roundTripperFunc) RoundTrip(r *http.Request) (*http.Response, error) {
	return f(r)
}

func jsonResponse(status int, body string) *http.Response {
	return &http.Response{
		StatusCode: status,
		Header:     http.Header{"Content-Type": []string{"application/json"}},
		Body:       io.NopCloser(strings.NewReader(body)),
	}
}

// stubClient answers the oauth token endpoint and routes everything else
// to handle.
func stubClient(handle func(r *http.Request) (*http.Response, error)) *http.Client {
	return &http.Client{Transport: roundTripperFunc(func(r *http.Request) (*http.Response, error) {
		if strings.Contains(r.URL.Host, "oauth2.googleapis.com") && strings.HasSuffix(r.URL.Path, "/token") {
			return jsonResponse(http.StatusOK,
				`{"access_token":"access-1","token_type":"Bearer","expires_in":3600}`), nil
		}
		return handle(r)
	})}
}

func TestTestTokenShortCircuits(t *testing.T) {
	// No HTTP handler: any network call would panic the test.
	provider := NewGoogleProvider(testConfig, &http.Client{Transport: roundTripperFunc(
		func(r *http.Request) (*http.Response, error) {
			t.Fatalf("unexpected network call to %s", r.URL)
			return nil, nil
		})})
	ctx := context.Background()

	access, refresh, _, err := provider.ExchangeCode(ctx, "test_token_abc")
	require.NoError(t, err)
	assert.Equal(t, "test_access_test_token_abc", access)
	assert.Equal(t, "test_token_abc", refresh)

	eventID, err := provider.CreateEvent(ctx, "test_token_abc", &domain.CalendarEvent{Summary: "x"})
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(eventID, "test_event_"))

	assert.NoError(t, provider.UpdateEvent(ctx, "test_token_abc", eventID, &domain.CalendarEvent{}))
	assert.NoError(t, provider.DeleteEvent(ctx, "test_token_abc", eventID))
	assert.True(t, provider.VerifyAccess(ctx, "test_token_abc"))
	assert.NoError(t, provider.RevokeAccess(ctx, "test_token_abc"))
}

func TestCreateEvent(t *testing.T) {
	var captured eventBody
	client := stubClient(func(r *http.Request) (*http.Response, error) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, eventsBaseURL, r.URL.String())
		require.NoError(t, json.NewDecoder(r.Body).Decode(&captured))
		return jsonResponse(http.StatusOK, `{"id":"ev-123"}`), nil
	})
	provider := NewGoogleProvider(testConfig, client)

	eventID, err := provider.CreateEvent(context.Background(), "refresh-1", &domain.CalendarEvent{
		Summary:     "Ship release [In Progress]",
		Description: "final cut",
		StartDate:   "2026-12-01",
		EndDate:     "2026-12-02",
	})

	require.NoError(t, err)
	assert.Equal(t, "ev-123", eventID)
	assert.Equal(t, "Ship release [In Progress]", captured.Summary)
	assert.Equal(t, "2026-12-01", captured.Start.Date)
	assert.Equal(t, "2026-12-02", captured.End.Date)
	// Default reminder set applies when the event carries none.
	assert.False(t, captured.Reminders.UseDefault)
	require.Len(t, captured.Reminders.Overrides, len(domain.DefaultReminders()))
	assert.Equal(t, "email", captured.Reminders.Overrides[0].Method)
}

func TestCreateEvent_APIError(t *testing.T) {
	client := stubClient(func(r *http.Request) (*http.Response, error) {
		return jsonResponse(http.StatusForbidden, `{"error":{"message":"quota"}}`), nil
	})
	provider := NewGoogleProvider(testConfig, client)

	_, err := provider.CreateEvent(context.Background(), "refresh-1", &domain.CalendarEvent{Summary: "x"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "403")
}

func TestUpdateEvent_GoneMapsToNotFound(t *testing.T) {
	client := stubClient(func(r *http.Request) (*http.Response, error) {
		require.Equal(t, http.MethodPut, r.Method)
		require.Equal(t, eventsBaseURL+"/ev-123", r.URL.String())
		return jsonResponse(http.StatusGone, `{}`), nil
	})
	provider := NewGoogleProvider(testConfig, client)

	err := provider.UpdateEvent(context.Background(), "refresh-1", "ev-123", &domain.CalendarEvent{Summary: "x"})
	assert.ErrorIs(t, err, domain.ErrEventNotFound)
}

func TestDeleteEvent(t *testing.T) {
	client := stubClient(func(r *http.Request) (*http.Response, error) {
		require.Equal(t, http.MethodDelete, r.Method)
		return &http.Response{StatusCode: http.StatusNoContent, Body: io.NopCloser(strings.NewReader(""))}, nil
	})
	provider := NewGoogleProvider(testConfig, client)

	assert.NoError(t, provider.DeleteEvent(context.Background(), "refresh-1", "ev-123"))
}

func TestDeleteEvent_NotFound(t *testing.T) {
	client := stubClient(func(r *http.Request) (*http.Response, error) {
		return jsonResponse(http.StatusNotFound, `{}`), nil
	})
	provider := NewGoogleProvider(testConfig, client)

	err := provider.DeleteEvent(context.Background(), "refresh-1", "ev-123")
	assert.ErrorIs(t, err, domain.ErrEventNotFound)
}

func TestAuthURL(t *testing.T) {
	provider := NewGoogleProvider(testConfig, nil)
	u := provider.AuthURL("state-1")
	assert.Contains(t, u, "accounts.google.com")
	assert.Contains(t, u, "state=state-1")
	assert.Contains(t, u, "access_type=offline")
	assert.Contains(t, u, "prompt=consent")
}

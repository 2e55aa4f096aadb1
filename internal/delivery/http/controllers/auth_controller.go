package controllers

import (
	"log/slog"
	"net/http"

	"projecthub/internal/delivery/http/helpers"
	"projecthub/internal/delivery/http/middleware"
	"projecthub/internal/domain"
)

// GoogleSignInRequest is the request body for POST /auth/google.
type GoogleSignInRequest struct {
	IDToken string `json:"id_token"`
}

// Validate implements Validator.
func (r GoogleSignInRequest) Validate() []string {
	var errs []string
	if r.IDToken == "" {
		errs = append(errs, "id_token is required")
	}
	return errs
}

// SignInResponse is the response body for POST /auth/google.
type SignInResponse struct {
	Token string       `json:"token"`
	User  *domain.User `json:"user"`
}

// ConnectCalendarRequest is the request body for POST /auth/calendar/connect.
type ConnectCalendarRequest struct {
	Code string `json:"code"`
}

// Validate implements Validator.
func (r ConnectCalendarRequest) Validate() []string {
	var errs []string
	if r.Code == "" {
		errs = append(errs, "code is required")
	}
	return errs
}

type AuthController struct {
	Logger  *slog.Logger
	Service domain.AuthService
}

func NewAuthController(logger *slog.Logger, svc domain.AuthService) *AuthController {
	return &AuthController{Logger: logger, Service: svc}
}

// GoogleSignIn godoc
// @Summary Sign in with Google
// @Description Verifies a Google ID token and returns a session token plus the user profile. New users are registered on first sign-in.
// @Tags auth
// @Accept json
// @Produce json
// @Param credentials body GoogleSignInRequest true "Google ID token"
// @Success 200 {object} helpers.APIResponse "data contains token and user"
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Router /auth/google [post]
func (c *AuthController) GoogleSignIn(w http.ResponseWriter, r *http.Request) {
	var req GoogleSignInRequest
	if !helpers.DecodeAndValidate(w, r, &req) {
		return
	}
	token, user, err := c.Service.SignInWithGoogle(r.Context(), req.IDToken)
	if err != nil {
		writeDomainError(r.Context(), w, c.Logger, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, SignInResponse{Token: token, User: user})
}

// CalendarAuthURL godoc
// @Summary Get the Google Calendar consent URL
// @Tags auth
// @Produce json
// @Security BearerAuth
// @Success 200 {object} helpers.APIResponse "data contains url"
// @Router /auth/calendar/url [get]
func (c *AuthController) CalendarAuthURL(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		helpers.WriteJSONError(w, http.StatusUnauthorized, helpers.ErrCodeUnauthorized, "unauthorized")
		return
	}
	url := c.Service.CalendarAuthURL(userID)
	helpers.WriteJSONSuccess(w, http.StatusOK, map[string]string{"url": url})
}

// ConnectCalendar godoc
// @Summary Connect Google Calendar
// @Description Exchanges the OAuth authorization code and enables calendar sync for the authenticated user.
// @Tags auth
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param credentials body ConnectCalendarRequest true "Authorization code"
// @Success 204 "calendar connected"
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request"
// @Router /auth/calendar/connect [post]
func (c *AuthController) ConnectCalendar(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		helpers.WriteJSONError(w, http.StatusUnauthorized, helpers.ErrCodeUnauthorized, "unauthorized")
		return
	}
	var req ConnectCalendarRequest
	if !helpers.DecodeAndValidate(w, r, &req) {
		return
	}
	if err := c.Service.ConnectCalendar(r.Context(), userID, req.Code); err != nil {
		writeDomainError(r.Context(), w, c.Logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// DisconnectCalendar godoc
// @Summary Disconnect Google Calendar
// @Tags auth
// @Produce json
// @Security BearerAuth
// @Success 204 "calendar disconnected"
// @Router /auth/calendar [delete]
func (c *AuthController) DisconnectCalendar(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		helpers.WriteJSONError(w, http.StatusUnauthorized, helpers.ErrCodeUnauthorized, "unauthorized")
		return
	}
	if err := c.Service.DisconnectCalendar(r.Context(), userID); err != nil {
		writeDomainError(r.Context(), w, c.Logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// CalendarStatus godoc
// @Summary Get calendar connection status
// @Tags auth
// @Produce json
// @Security BearerAuth
// @Success 200 {object} helpers.APIResponse "data contains connected and verified flags"
// @Router /auth/calendar/status [get]
func (c *AuthController) CalendarStatus(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		helpers.WriteJSONError(w, http.StatusUnauthorized, helpers.ErrCodeUnauthorized, "unauthorized")
		return
	}
	status, err := c.Service.CalendarStatus(r.Context(), userID)
	if err != nil {
		writeDomainError(r.Context(), w, c.Logger, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, status)
}

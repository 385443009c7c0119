package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/url"
	"strings"

	"plandera/internal/api/v1/dto"
	"plandera/internal/middleware"
	"plandera/internal/service"

	"github.com/rs/zerolog"
)

// SessionConfig controls cross-app redirects.
type SessionConfig struct {
	CookieName     string
	AppBaseURL     string
	AllowedOrigins []string
}

type SessionHandler struct {
	sessions service.SessionService
	cfg      SessionConfig
	logger   zerolog.Logger
}

func NewSessionHandler(sessions service.SessionService, cfg SessionConfig, logger zerolog.Logger) *SessionHandler {
	return &SessionHandler{sessions: sessions, cfg: cfg, logger: logger}
}

// RegisterRoutes mounts session routes. optionalAuthMw attaches a session
// without rejecting anonymous requests.
func (h *SessionHandler) RegisterRoutes(mux *http.ServeMux, authMw, optionalAuthMw func(http.Handler) http.Handler) {
	mux.Handle("/validate-session", allow(http.MethodPost, h.ValidateSession))
	mux.Handle("/auth/sign-out", authMw(allow(http.MethodPost, h.SignOut)))
	mux.Handle("/auth/sso-redirect", optionalAuthMw(allow(http.MethodGet, h.SSORedirect)))
}

// ValidateSession godoc
// @Summary Validate a session token
// @Description Lets sibling applications check a session token and read its user.
// @Tags auth
// @Accept json
// @Produce json
// @Param body body dto.ValidateSessionRequest true "Session token"
// @Success 200 {object} dto.ValidateSessionResponse
// @Failure 400 {object} dto.ValidateSessionResponse "token is required"
// @Failure 401 {object} dto.ValidateSessionResponse "invalid or expired session"
// @Failure 500 {object} dto.ValidateSessionResponse "internal server error"
// @Router /validate-session [post]
func (h *SessionHandler) ValidateSession(w http.ResponseWriter, r *http.Request) {
	var req dto.ValidateSessionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || strings.TrimSpace(req.Token) == "" {
		writeJSON(w, http.StatusBadRequest, dto.ValidateSessionResponse{Error: "Token is required"})
		return
	}
	sess, err := h.sessions.Resolve(r.Context(), strings.TrimSpace(req.Token))
	if err != nil {
		if errors.Is(err, service.ErrUnauthorized) {
			writeJSON(w, http.StatusUnauthorized, dto.ValidateSessionResponse{Error: "Invalid or expired session"})
			return
		}
		h.logger.Error().Err(err).Msg("Session validation error")
		writeJSON(w, http.StatusInternalServerError, dto.ValidateSessionResponse{Error: "Internal server error"})
		return
	}
	writeJSON(w, http.StatusOK, dto.ValidateSessionResponse{
		Valid: true,
		User: &dto.SessionUserDTO{
			ID:    sess.User.ID,
			Name:  sess.User.Name,
			Email: sess.User.Email,
		},
	})
}

// SignOut godoc
// @Summary Invalidate the current session
// @Tags auth
// @Success 204
// @Failure 401 {object} dto.ErrorResponse "unauthorized"
// @Failure 500 {object} dto.ErrorResponse "failed to sign out"
// @Router /auth/sign-out [post]
func (h *SessionHandler) SignOut(w http.ResponseWriter, r *http.Request) {
	sess, ok := middleware.SessionFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}
	if err := h.sessions.SignOut(r.Context(), sess.Token); err != nil {
		h.logger.Error().Err(err).Str("user_id", sess.UserID).Msg("Sign-out error")
		writeError(w, http.StatusInternalServerError, "Failed to sign out")
		return
	}
	http.SetCookie(w, &http.Cookie{Name: h.cfg.CookieName, Value: "", Path: "/", MaxAge: -1, HttpOnly: true})
	w.WriteHeader(http.StatusNoContent)
}

// SSORedirect godoc
// @Summary Hand the current session to another application
// @Description Redirects to callback with the session token, or to the login page when signed out.
// @Tags auth
// @Param callback query string true "Absolute URL to return to"
// @Param app query string false "Calling application"
// @Success 302
// @Failure 400 {object} dto.ErrorResponse "missing or disallowed callback"
// @Router /auth/sso-redirect [get]
func (h *SessionHandler) SSORedirect(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	callback := q.Get("callback")
	app := q.Get("app")
	if callback == "" {
		writeError(w, http.StatusBadRequest, "Missing callback URL")
		return
	}
	target, err := h.callbackURL(callback)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid callback URL")
		return
	}

	sess, ok := middleware.SessionFromContext(r.Context())
	if !ok {
		login := url.Values{}
		login.Set("callback", callback)
		if app != "" {
			login.Set("app", app)
		}
		http.Redirect(w, r, strings.TrimRight(h.cfg.AppBaseURL, "/")+"/login?"+login.Encode(), http.StatusFound)
		return
	}

	params := target.Query()
	params.Set("token", sess.Token)
	if app != "" {
		params.Set("app", app)
	}
	target.RawQuery = params.Encode()
	http.Redirect(w, r, target.String(), http.StatusFound)
}

var errCallbackNotAllowed = errors.New("callback origin not allowed")

// callbackURL parses an absolute http(s) callback whose origin is allowed.
// Every origin is allowed when no allowlist is configured.
func (h *SessionHandler) callbackURL(raw string) (*url.URL, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return nil, err
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return nil, errCallbackNotAllowed
	}
	if len(h.cfg.AllowedOrigins) == 0 {
		return u, nil
	}
	origin := u.Scheme + "://" + u.Host
	for _, allowed := range h.cfg.AllowedOrigins {
		if strings.EqualFold(strings.TrimRight(allowed, "/"), origin) {
			return u, nil
		}
	}
	return nil, errCallbackNotAllowed
}

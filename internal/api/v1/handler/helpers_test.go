package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"plandera/internal/middleware"
	"plandera/internal/model"
	"plandera/internal/service"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

const testCookie = "better-auth.session_token"

type fakeSessions struct {
	byToken  map[string]*model.Session
	signOuts []string
	err      error
}

func newFakeSessions(sessions ...*model.Session) *fakeSessions {
	f := &fakeSessions{byToken: map[string]*model.Session{}}
	for _, s := range sessions {
		f.byToken[s.Token] = s
	}
	return f
}

func (f *fakeSessions) Resolve(_ context.Context, token string) (*model.Session, error) {
	if f.err != nil {
		return nil, f.err
	}
	s, ok := f.byToken[token]
	if !ok {
		return nil, service.ErrUnauthorized
	}
	return s, nil
}

func (f *fakeSessions) SignOut(_ context.Context, token string) error {
	f.signOuts = append(f.signOuts, token)
	return nil
}

func testSession(token, userID string) *model.Session {
	return &model.Session{
		Token:     token,
		UserID:    userID,
		ExpiresAt: time.Now().Add(time.Hour),
		User:      model.User{ID: userID, Name: "Ada Lovelace", Email: userID + "@example.com"},
	}
}

func authMiddlewares(sessions *fakeSessions) (func(http.Handler) http.Handler, func(http.Handler) http.Handler) {
	return middleware.AuthMiddleware(sessions, testCookie, zerolog.Nop()),
		middleware.OptionalAuthMiddleware(sessions, testCookie, zerolog.Nop())
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

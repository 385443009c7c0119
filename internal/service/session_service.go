package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"plandera/internal/cache"
	"plandera/internal/model"
	"plandera/internal/repository"
	"plandera/internal/util"

	"github.com/rs/zerolog"
)

var ErrUnauthorized = errors.New("invalid or expired session")

// SessionService resolves tokens issued by the auth service into users.
type SessionService interface {
	// Resolve returns the live session for token or ErrUnauthorized.
	Resolve(ctx context.Context, token string) (*model.Session, error)
	// SignOut invalidates the session. Unknown tokens are not an error.
	SignOut(ctx context.Context, token string) error
}

type sessionService struct {
	sessions repository.SessionRepository
	users    repository.UserRepository
	cache    cache.SessionCache
	jwtKey   string
	logger   zerolog.Logger
	now      func() time.Time
}

// NewSessionService builds a SessionService. sessionCache may be nil, and JWT
// bearer tokens are only accepted when jwtKey is set.
func NewSessionService(sessions repository.SessionRepository, users repository.UserRepository, sessionCache cache.SessionCache, jwtKey string, logger zerolog.Logger) SessionService {
	return &sessionService{
		sessions: sessions,
		users:    users,
		cache:    sessionCache,
		jwtKey:   jwtKey,
		logger:   logger.With().Str("service", "SessionService").Logger(),
		now:      time.Now,
	}
}

func (s *sessionService) Resolve(ctx context.Context, token string) (*model.Session, error) {
	if token == "" {
		return nil, ErrUnauthorized
	}
	if s.jwtKey != "" && util.LooksLikeJWT(token) {
		return s.resolveJWT(ctx, token)
	}
	token = opaqueToken(token)

	if s.cache != nil {
		sess, err := s.cache.Get(ctx, token)
		if err != nil {
			s.logger.Warn().Err(err).Msg("Session cache read failed")
		} else if sess != nil && !sess.Expired(s.now()) {
			return sess, nil
		}
	}

	sess, err := s.sessions.GetByToken(ctx, token)
	if err != nil {
		return nil, err
	}
	if sess == nil || sess.Expired(s.now()) {
		return nil, ErrUnauthorized
	}
	if s.cache != nil {
		if err := s.cache.Set(ctx, sess); err != nil {
			s.logger.Warn().Err(err).Str("user_id", sess.UserID).Msg("Session cache write failed")
		}
	}
	return sess, nil
}

func (s *sessionService) resolveJWT(ctx context.Context, token string) (*model.Session, error) {
	claims, err := util.ValidateJWT(token, s.jwtKey)
	if err != nil {
		s.logger.Debug().Err(err).Msg("Rejected bearer JWT")
		return nil, ErrUnauthorized
	}
	user, err := s.users.GetUserByID(ctx, claims.Subject)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrUnauthorized
	}
	sess := &model.Session{Token: token, UserID: user.ID, User: *user}
	if claims.ExpiresAt != nil {
		sess.ExpiresAt = claims.ExpiresAt.Time
	}
	return sess, nil
}

func (s *sessionService) SignOut(ctx context.Context, token string) error {
	if token == "" {
		return ErrUnauthorized
	}
	token = opaqueToken(token)
	if s.cache != nil {
		if err := s.cache.Delete(ctx, token); err != nil {
			s.logger.Warn().Err(err).Msg("Session cache eviction failed")
		}
	}
	// Bearer JWTs have no row and simply expire.
	if err := s.sessions.DeleteByToken(ctx, token); err != nil {
		return err
	}
	return nil
}

// opaqueToken drops the signature the auth service appends to session cookies
// after the first '.'.
func opaqueToken(token string) string {
	t, _, _ := strings.Cut(token, ".")
	return t
}

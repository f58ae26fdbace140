// Package session holds the signed-in identity and the role checks made against it.
package session

import (
	"context"
	"errors"
	"strings"
	"sync"

	"github.com/rs/zerolog"
	"github.com/zatekoja/doctorconnect/internal/domain/entities"
	"github.com/zatekoja/doctorconnect/internal/domain/providers"
	"github.com/zatekoja/doctorconnect/internal/infrastructure/observability"
	apperrors "github.com/zatekoja/doctorconnect/pkg/errors"
)

// Reader is the read side of the store, shared by guards and workflows
type Reader interface {
	Current() *entities.SessionUser
	Loading() bool
}

// Store is the single source of truth for who is logged in. The held user
// is only ever replaced as a whole, never edited in place.
type Store struct {
	identity providers.IdentityProvider
	logger   zerolog.Logger

	mu      sync.RWMutex
	user    *entities.SessionUser
	loading bool

	restoreOnce sync.Once
}

var _ Reader = (*Store)(nil)

// NewStore creates an empty, logged-out store
func NewStore(identity providers.IdentityProvider, logger zerolog.Logger) *Store {
	return &Store{
		identity: identity,
		logger:   logger.With().Str("component", "session").Logger(),
	}
}

// Restore reads the current session from the identity provider. It runs at
// most once per store and never retries. Any failure leaves the store logged
// out; if ctx is cancelled first the result is dropped.
func (s *Store) Restore(ctx context.Context) {
	s.restoreOnce.Do(func() {
		s.setLoading(true)
		defer s.setLoading(false)

		ctx, span := observability.StartSpan(ctx, "session.restore")
		defer span.End()

		user, err := s.identity.CurrentUser(ctx)
		if ctx.Err() != nil {
			s.logger.Debug().Msg("session restore cancelled, result discarded")
			return
		}
		if err == nil && !validUser(user) {
			err = errors.New("identity provider returned an incomplete user")
		}
		if err != nil {
			observability.LoggerFromContext(ctx, s.logger).Debug().
				Err(apperrors.NewSessionUnavailableError(err)).
				Msg("no session restored, treating as logged out")
			s.replace(nil)
			return
		}

		s.replace(user)
		s.logger.Debug().Str("user_id", user.ID).Str("role", string(user.Role)).Msg("session restored")
	})
}

// Current returns a copy of the signed-in user, or nil when logged out
func (s *Store) Current() *entities.SessionUser {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.user == nil {
		return nil
	}
	u := *s.user
	return &u
}

// Loading reports whether Restore is in progress
func (s *Store) Loading() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.loading
}

// Login replaces the held user. A nil user logs out locally.
func (s *Store) Login(user *entities.SessionUser) {
	s.replace(user)
}

// Logout asks the identity provider to end the session, then clears local
// state whatever the outcome of that call.
func (s *Store) Logout(ctx context.Context) {
	if err := s.identity.Logout(ctx); err != nil {
		s.logger.Warn().Err(err).Msg("server-side logout failed, clearing local session anyway")
	}
	s.replace(nil)
}

// SignIn exchanges credentials for a session and adopts the returned user
func (s *Store) SignIn(ctx context.Context, email, password string) (*entities.SessionUser, error) {
	email = strings.TrimSpace(email)
	if email == "" || password == "" {
		return nil, apperrors.NewValidationError("email and password are required")
	}

	user, err := s.identity.Login(ctx, entities.Credentials{Email: email, Password: password})
	if err != nil {
		return nil, &apperrors.AppError{Type: apperrors.ErrorTypeUnauthorized, Message: "login failed", Err: err}
	}
	if !validUser(user) {
		return nil, apperrors.NewExternalError("login returned an incomplete user", nil)
	}

	s.replace(user)
	return s.Current(), nil
}

// Register creates an account and adopts the returned user
func (s *Store) Register(ctx context.Context, reg entities.Registration) (*entities.SessionUser, error) {
	if strings.TrimSpace(reg.Email) == "" || reg.Password == "" || strings.TrimSpace(reg.FullName) == "" {
		return nil, apperrors.NewValidationError("full name, email and password are required")
	}
	if !reg.Role.Valid() {
		return nil, apperrors.NewValidationError("unknown role " + string(reg.Role))
	}

	user, err := s.identity.Register(ctx, reg)
	if err != nil {
		return nil, apperrors.NewExternalError("registration failed", err)
	}
	if !validUser(user) {
		return nil, apperrors.NewExternalError("registration returned an incomplete user", nil)
	}

	s.replace(user)
	return s.Current(), nil
}

func (s *Store) replace(user *entities.SessionUser) {
	var next *entities.SessionUser
	if user != nil {
		u := *user
		next = &u
	}
	s.mu.Lock()
	s.user = next
	s.mu.Unlock()
}

func (s *Store) setLoading(v bool) {
	s.mu.Lock()
	s.loading = v
	s.mu.Unlock()
}

func validUser(u *entities.SessionUser) bool {
	return u != nil && u.ID != "" && u.Role.Valid()
}

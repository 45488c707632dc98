package session

import (
	"context"
	"encoding/json"
	"log/slog"
	"strconv"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/campushr/hrms-portal/internal/api"
	"github.com/campushr/hrms-portal/internal/core/events"
	"github.com/campushr/hrms-portal/internal/storage"
)

// Backend is the slice of the HRMS API the session store consumes. The store
// also owns the client's default Authorization header through the token
// methods.
type Backend interface {
	Login(ctx context.Context, req api.LoginRequest) (*api.AuthPayload, error)
	Me(ctx context.Context) (*api.AuthPayload, error)
	SetAuthToken(token string)
	ClearAuthToken()
}

// Store is the single source of truth for who the user is and what they can
// do. It restores a provisional session from persisted storage on
// construction and treats the backend as the eventual source of truth via
// RefreshPermissions.
type Store struct {
	storage storage.Store
	backend Backend
	bus     *events.EventBus
	logger  *slog.Logger

	mu      sync.RWMutex
	state   State
	session Session
}

func NewStore(st storage.Store, backend Backend, bus *events.EventBus, logger *slog.Logger) *Store {
	s := &Store{
		storage: st,
		backend: backend,
		bus:     bus,
		logger:  logger,
		state:   StateLoading,
	}
	s.restore()
	return s
}

// restore seeds a provisional session from persisted fields so a reload does
// not flash the login page. The backend confirms or corrects it when the
// caller runs RefreshPermissions.
func (s *Store) restore() {
	token, ok, err := s.storage.Get(keyToken)
	if err != nil {
		s.logger.Warn("session restore: storage read failed", "error", err)
	}
	if !ok || token == "" {
		s.mu.Lock()
		s.state = StateUnauthenticated
		s.mu.Unlock()
		return
	}

	if tokenExpired(token) {
		s.logger.Info("session restore: persisted token expired, discarding")
		s.ClearAuthData(context.Background(), "token expired")
		return
	}

	cached := s.loadPersisted(token)

	s.mu.Lock()
	s.session = cached
	s.state = StateAuthenticated
	s.mu.Unlock()

	s.backend.SetAuthToken(token)
}

// tokenExpired inspects the token's exp claim without verifying the
// signature; verification is the backend's job, this only avoids a doomed
// refresh round trip.
func tokenExpired(token string) bool {
	claims := jwt.MapClaims{}
	parser := jwt.NewParser()
	if _, _, err := parser.ParseUnverified(token, claims); err != nil {
		// Opaque (non-JWT) tokens are passed through to the backend.
		return false
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return false
	}
	return exp.Before(time.Now())
}

func (s *Store) loadPersisted(token string) Session {
	cached := Session{Token: token}

	if v, ok, _ := s.storage.Get(keyRoles); ok {
		_ = json.Unmarshal([]byte(v), &cached.Roles)
	}
	if v, ok, _ := s.storage.Get(keyPermissions); ok {
		_ = json.Unmarshal([]byte(v), &cached.Permissions)
	}
	if v, ok, _ := s.storage.Get(keyDepartment); ok {
		cached.Department = v
	}
	if v, ok, _ := s.storage.Get(keyUserID); ok {
		cached.UserID, _ = strconv.ParseInt(v, 10, 64)
	}
	if v, ok, _ := s.storage.Get(keyEmail); ok {
		cached.Email = v
	}
	if v, ok, _ := s.storage.Get(keyFirstName); ok {
		cached.FirstName = v
	}
	if v, ok, _ := s.storage.Get(keyLastName); ok {
		cached.LastName = v
	}
	if v, ok, _ := s.storage.Get(keyRequiresPasswordChange); ok {
		cached.RequiresPasswordChange = v == "true"
	}

	return cached
}

// SetAuthData replaces the entire session with fields decoded from a login
// or refresh payload and persists each field.
func (s *Store) SetAuthData(ctx context.Context, payload *api.AuthPayload) {
	next := Session{
		Token:                  payload.Token,
		Roles:                  payload.Roles,
		Permissions:            payload.Permissions,
		Department:             payload.Department,
		UserID:                 payload.User.ID,
		Email:                  payload.User.Email,
		FirstName:              payload.User.FirstName,
		LastName:               payload.User.LastName,
		RequiresPasswordChange: payload.RequiresPasswordChange,
	}

	// A refresh payload may omit the token; the held one stays valid.
	if next.Token == "" {
		s.mu.RLock()
		next.Token = s.session.Token
		s.mu.RUnlock()
	}

	s.mu.Lock()
	s.session = next
	s.state = StateAuthenticated
	s.mu.Unlock()

	s.backend.SetAuthToken(next.Token)
	s.persist(next)

	if s.bus != nil {
		_ = s.bus.PublishSync(ctx, events.NewSessionAuthenticatedEvent(next.UserID, next.Email))
	}
}

func (s *Store) persist(sess Session) {
	set := func(key, value string) {
		if err := s.storage.Set(key, value); err != nil {
			s.logger.Warn("session persist failed", "key", key, "error", err)
		}
	}

	roles, _ := json.Marshal(sess.Roles)
	perms, _ := json.Marshal(sess.Permissions)

	set(keyToken, sess.Token)
	set(keyRoles, string(roles))
	set(keyPermissions, string(perms))
	set(keyDepartment, sess.Department)
	set(keyUserID, strconv.FormatInt(sess.UserID, 10))
	set(keyEmail, sess.Email)
	set(keyFirstName, sess.FirstName)
	set(keyLastName, sess.LastName)
	set(keyRequiresPasswordChange, strconv.FormatBool(sess.RequiresPasswordChange))
}

// ClearAuthData resets the session to unauthenticated, deletes every
// persisted key and removes the client's default Authorization header.
// Calling it twice is harmless.
func (s *Store) ClearAuthData(ctx context.Context, reason string) {
	s.mu.Lock()
	s.session = Session{}
	s.state = StateUnauthenticated
	s.mu.Unlock()

	if err := s.storage.DeleteAll(persistedKeys()...); err != nil {
		s.logger.Warn("session clear: storage delete failed", "error", err)
	}
	s.backend.ClearAuthToken()

	if s.bus != nil {
		_ = s.bus.PublishSync(ctx, events.NewSessionClearedEvent(reason))
	}
}

// Login exchanges credentials for a session and installs it.
func (s *Store) Login(ctx context.Context, email, password string) (*Session, error) {
	payload, err := s.backend.Login(ctx, api.LoginRequest{Email: email, Password: password})
	if err != nil {
		return nil, err
	}

	s.SetAuthData(ctx, payload)
	current := s.Current()
	return &current, nil
}

// Logout clears the session explicitly.
func (s *Store) Logout(ctx context.Context) {
	s.ClearAuthData(ctx, "logout")
}

// RefreshPermissions re-fetches the current user from the backend. With no
// token held it completes immediately. A 401 clears the session; any other
// failure keeps the prior state so the UI is never blocked on a flaky
// backend.
func (s *Store) RefreshPermissions(ctx context.Context) error {
	s.mu.RLock()
	token := s.session.Token
	s.mu.RUnlock()

	if token == "" {
		s.mu.Lock()
		if s.state == StateLoading {
			s.state = StateUnauthenticated
		}
		s.mu.Unlock()
		return nil
	}

	payload, err := s.backend.Me(ctx)
	if err != nil {
		if api.IsUnauthorized(err) {
			s.logger.Info("session refresh rejected, clearing session")
			s.ClearAuthData(ctx, "token rejected")
			return err
		}
		s.logger.Warn("session refresh failed, keeping cached session", "error", err)
		return nil
	}

	s.SetAuthData(ctx, payload)
	return nil
}

// Current returns a copy of the session.
func (s *Store) Current() Session {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.session
}

func (s *Store) State() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

func (s *Store) IsAuthenticated() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state == StateAuthenticated && s.session.Token != ""
}

func (s *Store) HasRole(role string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if role == "" {
		return true
	}
	if s.state != StateAuthenticated {
		return false
	}
	return s.session.HasRole(role)
}

func (s *Store) HasPermission(permission string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if permission == "" {
		return true
	}
	if s.state != StateAuthenticated {
		return false
	}
	return s.session.HasPermission(permission)
}

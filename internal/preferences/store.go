package preferences

import (
	"context"
	"encoding/json"
	"log/slog"
	"strconv"
	"sync"
	"time"

	internal "github.com/campushr/hrms-portal/internal"
	"github.com/campushr/hrms-portal/internal/api"
	"github.com/campushr/hrms-portal/internal/storage"
)

// Backend is the slice of the HRMS API the preferences store consumes.
type Backend interface {
	GetPreferences(ctx context.Context) (*api.PreferencesResponse, error)
	UpdatePreferences(ctx context.Context, req api.PreferencesPayload) (*api.PreferencesResponse, error)
}

// Store holds the user's preferences with low-latency reads (TTL cache,
// defaults fallback) and debounced, server-authoritative writes.
type Store struct {
	storage  storage.Store
	backend  Backend
	applier  ThemeApplier
	scheme   SchemeSource
	logger   *slog.Logger
	cacheTTL time.Duration
	now      func() time.Time

	debounce *Debouncer

	mu           sync.Mutex
	prefs        Preferences
	loading      bool
	pending      Partial
	cancelScheme func()
	closed       bool
}

type Config struct {
	CacheTTL     time.Duration
	SaveDebounce time.Duration
	// Now is an injectable clock for cache freshness tests.
	Now func() time.Time
}

func NewStore(st storage.Store, backend Backend, applier ThemeApplier, scheme SchemeSource, cfg Config, logger *slog.Logger) *Store {
	if cfg.CacheTTL <= 0 {
		cfg.CacheTTL = internal.DefaultPreferencesCacheTTL
	}
	if cfg.SaveDebounce <= 0 {
		cfg.SaveDebounce = internal.DefaultSaveDebounce
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}

	s := &Store{
		storage:  st,
		backend:  backend,
		applier:  applier,
		scheme:   scheme,
		logger:   logger,
		cacheTTL: cfg.CacheTTL,
		now:      cfg.Now,
		debounce: NewDebouncer(cfg.SaveDebounce),
		loading:  true,
	}

	// Seed synchronously so the first read never waits on the network.
	if cached, ok := s.loadCache(); ok {
		s.prefs = cached
		s.loading = false
	} else {
		s.prefs = Defaults()
	}
	s.applyThemeLocked()

	return s
}

// Fetch reconciles preferences against the backend. With a fresh cache the
// cached value stays in effect and the refresh happens in the background
// (stale-while-revalidate); otherwise the fetch completes before the
// loading flag drops. Fetch errors are swallowed: preferences keep their
// last-known or default value.
func (s *Store) Fetch(ctx context.Context) {
	s.mu.Lock()
	_, fresh := s.loadCache()
	closed := s.closed
	s.mu.Unlock()

	if closed {
		return
	}

	if fresh {
		go func() {
			if err := s.refresh(context.WithoutCancel(ctx)); err != nil {
				s.logger.Warn("background preferences refresh failed", "error", err)
			}
		}()
		return
	}

	if err := s.refresh(ctx); err != nil {
		s.logger.Warn("preferences fetch failed, keeping last-known values", "error", err)
	}

	s.mu.Lock()
	s.loading = false
	s.mu.Unlock()
}

func (s *Store) refresh(ctx context.Context) error {
	resp, err := s.backend.GetPreferences(ctx)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		// Result arrived after Close; discard rather than mutate a
		// torn-down store.
		return nil
	}
	s.prefs = fromResponse(resp)
	s.loading = false
	s.saveCacheLocked()
	s.applyThemeLocked()
	return nil
}

// Update issues a partial update and on success replaces the full value
// with the server's authoritative response. On failure the local state is
// left untouched and a domain error is returned for UI display.
func (s *Store) Update(ctx context.Context, partial Partial) (Preferences, error) {
	if partial.IsEmpty() {
		return s.Current(), nil
	}
	if partial.Theme != nil && !partial.Theme.Valid() {
		return Preferences{}, internal.NewValidationError("unknown theme value", internal.ErrCodeValidationFailed)
	}

	resp, err := s.backend.UpdatePreferences(ctx, toPayload(partial))
	if err != nil {
		msg := "could not save preferences"
		if apiErr, ok := api.AsError(err); ok && apiErr.Message != "" {
			msg = apiErr.Message
		}
		return Preferences{}, internal.NewDomainError(msg, internal.ErrCodePreferenceUpdate).WithCause(err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return fromResponse(resp), nil
	}
	s.prefs = fromResponse(resp)
	s.saveCacheLocked()
	s.applyThemeLocked()
	return s.prefs, nil
}

// QueueUpdate merges the partial into the pending set and schedules a
// debounced persist: a burst of edits issues a single backend write after
// the quiet period.
func (s *Store) QueueUpdate(partial Partial) {
	s.mu.Lock()
	s.pending = mergePartial(s.pending, partial)
	s.mu.Unlock()

	s.debounce.Do(func() {
		s.mu.Lock()
		pending := s.pending
		s.pending = Partial{}
		s.mu.Unlock()

		if pending.IsEmpty() {
			return
		}
		if _, err := s.Update(context.Background(), pending); err != nil {
			s.logger.Warn("debounced preferences save failed", "error", err)
		}
	})
}

// Current returns the preferences currently in effect.
func (s *Store) Current() Preferences {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.prefs
}

func (s *Store) Loading() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loading
}

// ClearCache drops the cached copy, typically when the session is cleared.
func (s *Store) ClearCache() {
	if err := s.storage.DeleteAll(cacheKeys()...); err != nil {
		s.logger.Warn("preferences cache clear failed", "error", err)
	}
}

// Close tears down the scheme subscription and any pending debounced save.
func (s *Store) Close() {
	s.debounce.Stop()

	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	if s.cancelScheme != nil {
		s.cancelScheme()
		s.cancelScheme = nil
	}
}

// applyThemeLocked applies the effective theme and keeps the scheme
// subscription alive exactly while the theme is system. Callers hold s.mu.
func (s *Store) applyThemeLocked() {
	if s.applier == nil {
		return
	}

	var current Scheme = SchemeLight
	if s.scheme != nil {
		current = s.scheme.Current()
	}
	effective := EffectiveTheme(s.prefs.Theme, current)
	s.applier.SetDark(effective == ThemeDark)

	switch {
	case s.prefs.Theme == ThemeSystem && s.cancelScheme == nil && s.scheme != nil:
		s.cancelScheme = s.scheme.Subscribe(s.onSchemeChange)
	case s.prefs.Theme != ThemeSystem && s.cancelScheme != nil:
		s.cancelScheme()
		s.cancelScheme = nil
	}
}

func (s *Store) onSchemeChange(scheme Scheme) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.prefs.Theme != ThemeSystem {
		return
	}
	s.applier.SetDark(EffectiveTheme(ThemeSystem, scheme) == ThemeDark)
}

// ----------------- CACHE -----------------

func (s *Store) loadCache() (Preferences, bool) {
	expiryRaw, ok, err := s.storage.Get(keyCacheExpiry)
	if err != nil || !ok {
		return Preferences{}, false
	}
	expiry, err := strconv.ParseInt(expiryRaw, 10, 64)
	if err != nil {
		return Preferences{}, false
	}
	if !s.now().Before(time.UnixMilli(expiry)) {
		return Preferences{}, false
	}

	raw, ok, err := s.storage.Get(keyCache)
	if err != nil || !ok {
		return Preferences{}, false
	}

	var prefs Preferences
	if err := json.Unmarshal([]byte(raw), &prefs); err != nil {
		return Preferences{}, false
	}
	return prefs, true
}

func (s *Store) saveCacheLocked() {
	raw, err := json.Marshal(s.prefs)
	if err != nil {
		return
	}
	expiry := s.now().Add(s.cacheTTL).UnixMilli()

	if err := s.storage.Set(keyCache, string(raw)); err != nil {
		s.logger.Warn("preferences cache write failed", "error", err)
		return
	}
	if err := s.storage.Set(keyCacheExpiry, strconv.FormatInt(expiry, 10)); err != nil {
		s.logger.Warn("preferences cache expiry write failed", "error", err)
	}
}

// ----------------- TRANSLATION -----------------

func fromResponse(resp *api.PreferencesResponse) Preferences {
	return Preferences{
		EmailNotifications: resp.EmailNotifications,
		SMSNotifications:   resp.SMSNotifications,
		PushNotifications:  resp.PushNotifications,
		Theme:              Theme(resp.Theme),
		Language:           resp.Language,
		Timezone:           resp.Timezone,
	}
}

func toPayload(partial Partial) api.PreferencesPayload {
	payload := api.PreferencesPayload{
		EmailNotifications: partial.EmailNotifications,
		SMSNotifications:   partial.SMSNotifications,
		PushNotifications:  partial.PushNotifications,
		Language:           partial.Language,
		Timezone:           partial.Timezone,
	}
	if partial.Theme != nil {
		theme := string(*partial.Theme)
		payload.Theme = &theme
	}
	return payload
}

func mergePartial(base, next Partial) Partial {
	if next.EmailNotifications != nil {
		base.EmailNotifications = next.EmailNotifications
	}
	if next.SMSNotifications != nil {
		base.SMSNotifications = next.SMSNotifications
	}
	if next.PushNotifications != nil {
		base.PushNotifications = next.PushNotifications
	}
	if next.Theme != nil {
		base.Theme = next.Theme
	}
	if next.Language != nil {
		base.Language = next.Language
	}
	if next.Timezone != nil {
		base.Timezone = next.Timezone
	}
	return base
}

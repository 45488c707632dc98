package preferences

import "sync"

// Scheme is the OS-level color scheme signal consulted when the theme is
// set to system.
type Scheme string

const (
	SchemeLight Scheme = "light"
	SchemeDark  Scheme = "dark"
)

// ThemeApplier receives the single global dark marker. The gateway's UI
// layer reads it when rendering; tests assert against it directly.
type ThemeApplier interface {
	SetDark(dark bool)
}

// SchemeSource exposes the OS color-scheme signal. Subscribe returns a
// cancel function; the store must call it when the theme moves away from
// system or the store closes, so no listener leaks.
type SchemeSource interface {
	Current() Scheme
	Subscribe(fn func(Scheme)) (cancel func())
}

// EffectiveTheme resolves the selected theme against the scheme signal.
func EffectiveTheme(selected Theme, scheme Scheme) Theme {
	if selected != ThemeSystem {
		return selected
	}
	if scheme == SchemeDark {
		return ThemeDark
	}
	return ThemeLight
}

// MarkerApplier is the default ThemeApplier: it holds the dark marker in
// memory for the rendering layer to read.
type MarkerApplier struct {
	mu   sync.RWMutex
	dark bool
}

func NewMarkerApplier() *MarkerApplier {
	return &MarkerApplier{}
}

func (m *MarkerApplier) SetDark(dark bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.dark = dark
}

func (m *MarkerApplier) IsDark() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.dark
}

// StaticScheme is a SchemeSource with a settable value that notifies
// subscribers on change. The gateway uses it as the ambient signal; tests
// drive it directly.
type StaticScheme struct {
	mu          sync.Mutex
	current     Scheme
	subscribers map[int]func(Scheme)
	nextID      int
}

func NewStaticScheme(initial Scheme) *StaticScheme {
	return &StaticScheme{
		current:     initial,
		subscribers: make(map[int]func(Scheme)),
	}
}

func (s *StaticScheme) Current() Scheme {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current
}

func (s *StaticScheme) Set(scheme Scheme) {
	s.mu.Lock()
	s.current = scheme
	fns := make([]func(Scheme), 0, len(s.subscribers))
	for _, fn := range s.subscribers {
		fns = append(fns, fn)
	}
	s.mu.Unlock()

	for _, fn := range fns {
		fn(scheme)
	}
}

func (s *StaticScheme) Subscribe(fn func(Scheme)) func() {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := s.nextID
	s.nextID++
	s.subscribers[id] = fn

	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		delete(s.subscribers, id)
	}
}

// SubscriberCount reports active subscriptions. Test helper for the
// no-listener-leak property.
func (s *StaticScheme) SubscriberCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.subscribers)
}

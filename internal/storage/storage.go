package storage

// Store is the narrow key-value interface the portal persists client state
// through. Each subsystem owns its own key namespace (session.*,
// preferences.*, onboarding.*) and clears its keys as a unit; the store
// itself enforces no transactional guarantees between keys.
type Store interface {
	Get(key string) (value string, ok bool, err error)
	Set(key, value string) error
	Delete(key string) error
	DeleteAll(keys ...string) error
}

// Key namespaces. Subsystems build keys with these prefixes so a clear
// operation in one subsystem can never touch another's state.
const (
	NamespaceSession     = "session."
	NamespacePreferences = "preferences."
	NamespaceOnboarding  = "onboarding."
)

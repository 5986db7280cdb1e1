package sessionmgr

import (
	"time"

	"github.com/google/uuid"

	"github.com/ryemyster/shaleyeah-toolkernel/auth"
	"github.com/ryemyster/shaleyeah-toolkernel/registry"
	"github.com/ryemyster/shaleyeah-toolkernel/toolapi"
)

// DefaultIdentity is used by Create when no identity is supplied, and by the
// kernel's callTool when no session is given.
var DefaultIdentity = auth.Identity{
	UserID:      "demo-analyst",
	Role:        auth.RoleAnalyst,
	Permissions: []registry.Permission{},
	DisplayName: "Demo Analyst",
}

// Manager creates, retrieves, destroys, and lists Sessions. It is the
// exclusive owner of session lifecycle; Sessions exclusively own their own
// result caches.
type Manager struct {
	store Store
}

// New returns a Manager backed by store.
func New(store Store) *Manager {
	return &Manager{store: store}
}

// Create starts a new session. A zero-value identity is replaced by
// DefaultIdentity.
func (m *Manager) Create(identity auth.Identity, prefs Preferences) *Session {
	if identity.UserID == "" {
		identity = DefaultIdentity
	}
	now := time.Now()
	s := &Session{
		id:           uuid.NewString(),
		identity:     identity,
		preferences:  prefs,
		createdAt:    now,
		lastActivity: now,
		results:      make(map[string]toolapi.ToolResponse),
	}
	m.store.Put(s)
	return s
}

// Get retrieves the session for id.
func (m *Manager) Get(id string) (*Session, bool) {
	return m.store.Get(id)
}

// Destroy removes the session for id, reporting whether it existed.
func (m *Manager) Destroy(id string) bool {
	return m.store.Delete(id)
}

// List returns every live session.
func (m *Manager) List() []*Session {
	return m.store.List()
}

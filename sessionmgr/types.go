// Package sessionmgr owns Session lifecycle, preferences, and per-session
// result caches. Sessions are mutually isolated: nothing written to one
// session is ever visible from another.
package sessionmgr

import (
	"sort"
	"sync"
	"time"

	"github.com/ryemyster/shaleyeah-toolkernel/auth"
	"github.com/ryemyster/shaleyeah-toolkernel/toolapi"
)

// RiskTolerance is a caller-expressed risk appetite, surfaced in the
// session's injected context.
type RiskTolerance string

const (
	RiskConservative RiskTolerance = "conservative"
	RiskModerate     RiskTolerance = "moderate"
	RiskAggressive   RiskTolerance = "aggressive"
)

// Preferences are caller-chosen defaults a session carries across calls.
type Preferences struct {
	DefaultBasin       string        `json:"defaultBasin,omitempty"`
	RiskTolerance      RiskTolerance `json:"riskTolerance,omitempty"`
	DetailLevel        string        `json:"detailLevel,omitempty"`
	InvestmentCriteria string        `json:"investmentCriteria,omitempty"`
}

// Context is the per-access injected context a session computes on demand.
// It is never merged into invoker args automatically; the caller decides.
type Context struct {
	UserID           string        `json:"userId"`
	Role             auth.Role     `json:"role"`
	SessionID        string        `json:"sessionId"`
	Timestamp        string        `json:"timestamp"`
	Timezone         string        `json:"timezone"`
	DefaultBasin     string        `json:"defaultBasin,omitempty"`
	RiskTolerance    RiskTolerance `json:"riskTolerance,omitempty"`
	AvailableResults []string      `json:"availableResults"`
}

// Session is a single caller's isolated state: identity, preferences, and a
// cache of prior tool results keyed by caller-chosen string.
type Session struct {
	mu           sync.RWMutex
	id           string
	identity     auth.Identity
	preferences  Preferences
	createdAt    time.Time
	lastActivity time.Time
	results      map[string]toolapi.ToolResponse
}

// ID is the session's immutable UUID.
func (s *Session) ID() string { return s.id }

// Identity is the session's caller identity, fixed at creation.
func (s *Session) Identity() auth.Identity { return s.identity }

// CreatedAt is the session's creation timestamp.
func (s *Session) CreatedAt() time.Time { return s.createdAt }

// LastActivity is the timestamp of the most recent read or write.
func (s *Session) LastActivity() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lastActivity
}

// StoreResult records result under key, refreshing last-activity.
func (s *Session) StoreResult(key string, result toolapi.ToolResponse) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.results[key] = result
	s.lastActivity = time.Now()
}

// GetResult retrieves the result stored under key, refreshing last-activity
// regardless of whether key is present.
func (s *Session) GetResult(key string) (toolapi.ToolResponse, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastActivity = time.Now()
	r, ok := s.results[key]
	return r, ok
}

// InjectedContext computes this session's context as of now.
func (s *Session) InjectedContext(now time.Time) Context {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastActivity = now

	keys := make([]string, 0, len(s.results))
	for k := range s.results {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	zone, _ := now.Zone()
	return Context{
		UserID:           s.identity.UserID,
		Role:             s.identity.Role,
		SessionID:        s.id,
		Timestamp:        now.Format(time.RFC3339),
		Timezone:         zone,
		DefaultBasin:     s.preferences.DefaultBasin,
		RiskTolerance:    s.preferences.RiskTolerance,
		AvailableResults: keys,
	}
}

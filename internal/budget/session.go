package budget

import "sync"

// Session holds per-session approval state for billable providers. It is
// caller-owned and passed explicitly wherever approval is consulted, so
// concurrent generation requests share approval state only when the host
// application deliberately hands them the same Session. Decisions are
// never persisted across process restarts.
type Session struct {
	mu      sync.Mutex
	decided map[string]bool // provider → approval decision
}

// NewSession creates an empty approval session.
func NewSession() *Session {
	return &Session{decided: make(map[string]bool)}
}

// Approve records an explicit "yes" for the provider.
func (s *Session) Approve(provider string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.decided[provider] = true
}

// Deny records an explicit "no" for the provider.
func (s *Session) Deny(provider string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.decided[provider] = false
}

// Approved reports whether the provider has a recorded approval.
func (s *Session) Approved(provider string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.decided[provider]
}

// EnsureApproved returns the recorded decision for the provider, asking
// the supplied prompt exactly once per session for providers with no
// decision yet. The answer, yes or no, is remembered for the rest of
// the session.
func (s *Session) EnsureApproved(provider string, prompt func(provider string) bool) bool {
	s.mu.Lock()
	if d, ok := s.decided[provider]; ok {
		s.mu.Unlock()
		return d
	}
	s.mu.Unlock()

	// Prompt outside the lock; a slow reader must not block other
	// providers' checks.
	d := prompt(provider)

	s.mu.Lock()
	if prev, ok := s.decided[provider]; ok {
		d = prev // another goroutine answered first; keep its decision
	} else {
		s.decided[provider] = d
	}
	s.mu.Unlock()
	return d
}

package session

import (
	"sync"
	"time"

	"github.com/deanwaring-hub/voicecraft/internal/model"
)

// Identity is the cached snapshot of the signed-in user's claims.
type Identity struct {
	UserID string
	Email  string
	Name   string
}

// Store holds the per-instance session: the signed-in user, the bearer token
// and the current job reference. It mirrors tab-scoped storage — everything
// lives in memory for one process and is wiped on sign-out. The poller runs on
// its own goroutine, so access is mutex-guarded.
type Store struct {
	mu          sync.RWMutex
	identity    *Identity
	bearerToken string
	tokenExpiry time.Time
	currentJob  *model.CurrentJob
}

func NewStore() *Store {
	return &Store{}
}

// SetIdentity caches the authenticated user's claims.
func (s *Store) SetIdentity(id Identity) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.identity = &id
}

// Identity returns the cached claims, or nil when signed out.
func (s *Store) Identity() *Identity {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.identity == nil {
		return nil
	}
	id := *s.identity
	return &id
}

// SetBearerToken caches the bearer credential and its expiry.
func (s *Store) SetBearerToken(token string, expiry time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.bearerToken = token
	s.tokenExpiry = expiry
}

// BearerToken returns the cached token. The second result is false when no
// token is cached or the cached token has expired.
func (s *Store) BearerToken() (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.bearerToken == "" {
		return "", false
	}
	if !s.tokenExpiry.IsZero() && time.Now().After(s.tokenExpiry) {
		return "", false
	}
	return s.bearerToken, true
}

// SetCurrentJob records the most recently submitted job. Single writer: only
// the submitter sets it and only terminal poll outcomes clear it.
func (s *Store) SetCurrentJob(job model.CurrentJob) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.currentJob = &job
}

// CurrentJob returns the tracked job reference, or nil when none is in flight.
func (s *Store) CurrentJob() *model.CurrentJob {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.currentJob == nil {
		return nil
	}
	job := *s.currentJob
	return &job
}

// ClearCurrentJob drops the tracked job reference. Clearing twice is harmless;
// the reference is an at-most-once signal.
func (s *Store) ClearCurrentJob() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.currentJob = nil
}

// Reset wipes the whole session on sign-out.
func (s *Store) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.identity = nil
	s.bearerToken = ""
	s.tokenExpiry = time.Time{}
	s.currentJob = nil
}

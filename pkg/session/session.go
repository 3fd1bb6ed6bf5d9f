// Package session keeps per-client session data in a signed cookie. The cookie
// holds an HS256 JWT whose claims carry the session values and their expiry.
package session

import (
	"errors"
	"maps"
	"slices"
	"sync"
)

// ErrNoSession is returned when the session middleware did not run for a request
var ErrNoSession = errors.New("no session for request")

// Session is the data of one client. Values round-trip through JSON, so
// numbers read back from a cookie are float64.
type Session struct {
	mu       sync.Mutex
	values   map[string]any
	isNew    bool
	modified bool
}

func newSession(values map[string]any, isNew bool) *Session {
	if values == nil {
		values = make(map[string]any)
	}
	return &Session{values: values, isNew: isNew}
}

// Get returns the value stored under key
func (s *Session) Get(key string) (any, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.values[key]
	return v, ok
}

// GetString returns the string stored under key, or "" if absent or not a string
func (s *Session) GetString(key string) string {
	v, _ := s.Get(key)
	str, _ := v.(string)
	return str
}

// Set stores a value
func (s *Session) Set(key string, value any) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.values[key] = value
	s.modified = true
}

// Delete removes a value
func (s *Session) Delete(key string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.values[key]; ok {
		delete(s.values, key)
		s.modified = true
	}
}

// Clear removes every value. An empty session expires its cookie.
func (s *Session) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.values) > 0 {
		clear(s.values)
		s.modified = true
	}
}

// Keys returns the stored keys in sorted order
func (s *Session) Keys() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Sorted(maps.Keys(s.values))
}

// IsNew reports whether the request carried no valid session cookie
func (s *Session) IsNew() bool {
	return s.isNew
}

// Modified reports whether the session changed during the request
func (s *Session) Modified() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.modified
}

func (s *Session) snapshot() (map[string]any, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return maps.Clone(s.values), s.modified
}

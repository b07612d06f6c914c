// Package client provides a Go API client for the Attune check-in service,
// including the persisted token store that browser builds keep in local
// storage.
package client

import (
	"encoding/json"
	"net/url"
	"os"
	"strconv"
	"sync"
	"time"
)

// StoredSession is the persisted credential: the access token and when it
// stops being usable.
type StoredSession struct {
	AccessToken string    `json:"accessToken"`
	ExpiresAt   time.Time `json:"expiresAt"`
}

// TokenStore persists a session across process restarts and hands it to
// outgoing requests. Expiry is checked lazily on each read; there is no
// refresh flow, an expired session is simply treated as absent.
type TokenStore struct {
	path     string
	mu       sync.Mutex
	watchers []func()
}

// NewTokenStore creates a token store backed by the given file path
func NewTokenStore(path string) *TokenStore {
	return &TokenStore{path: path}
}

// Token returns the stored access token, or "" when none is stored or the
// stored one has expired.
func (s *TokenStore) Token() string {
	s.mu.Lock()
	defer s.mu.Unlock()

	session, err := s.load()
	if err != nil || session == nil {
		return ""
	}
	if !time.Now().Before(session.ExpiresAt) {
		return ""
	}
	return session.AccessToken
}

// SetSession persists a new session with expiry now + expiresIn seconds
func (s *TokenStore) SetSession(accessToken string, expiresIn int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.save(&StoredSession{
		AccessToken: accessToken,
		ExpiresAt:   time.Now().Add(time.Duration(expiresIn) * time.Second),
	})
}

// ParseFragment extracts a session from a magic-link URL fragment
// (access_token, token_type, expires_in) and persists it. Returns true when
// a token was found. Callers should strip the fragment from the visible URL
// afterwards so the token does not leak into history or referrers.
func (s *TokenStore) ParseFragment(fragment string) (bool, error) {
	if len(fragment) > 0 && fragment[0] == '#' {
		fragment = fragment[1:]
	}

	values, err := url.ParseQuery(fragment)
	if err != nil {
		return false, err
	}

	accessToken := values.Get("access_token")
	if accessToken == "" {
		return false, nil
	}

	expiresIn := 3600
	if v := values.Get("expires_in"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil && parsed > 0 {
			expiresIn = parsed
		}
	}

	return true, s.SetSession(accessToken, expiresIn)
}

// Clear removes the persisted session and notifies sign-out watchers, so
// every view sharing the store observes the sign-out immediately.
func (s *TokenStore) Clear() error {
	s.mu.Lock()
	err := os.Remove(s.path)
	if os.IsNotExist(err) {
		err = nil
	}
	watchers := make([]func(), len(s.watchers))
	copy(watchers, s.watchers)
	s.mu.Unlock()

	for _, notify := range watchers {
		notify()
	}
	return err
}

// OnSignOut registers a callback invoked whenever the session is cleared
func (s *TokenStore) OnSignOut(fn func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.watchers = append(s.watchers, fn)
}

func (s *TokenStore) load() (*StoredSession, error) {
	content, err := os.ReadFile(s.path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var session StoredSession
	if err := json.Unmarshal(content, &session); err != nil {
		return nil, err
	}
	return &session, nil
}

func (s *TokenStore) save(session *StoredSession) error {
	content, err := json.Marshal(session)
	if err != nil {
		return err
	}
	return os.WriteFile(s.path, content, 0600)
}

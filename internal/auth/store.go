// Package auth provides credential storage for the Folio API client.
//
// The in-memory value is the single source of truth for the lifetime of the
// process; a durable mirror (system keyring, or a locked JSON file when no
// keyring is available) lets a session survive process restarts. Persistence
// failures are swallowed: the mirror is best-effort by contract.
package auth

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// errNotFound is returned by mirrors when no credential is stored.
var errNotFound = errors.New("credential not found")

// mirror is the durable backing store for the credential.
type mirror interface {
	load() (string, error)
	save(token string) error
	remove() error
	// filePath returns the backing file path, or "" when the mirror is not
	// file-backed (keyring). Used by Watch.
	filePath() string
}

// Store holds the current access credential.
//
// There is exactly one writer path for the credential (login, logout, or the
// refresh coordinator's success branch) and many readers; replacement is
// atomic under the lock, so no reader ever observes a half-updated value.
type Store struct {
	mu     sync.Mutex
	token  string
	mirror mirror
}

// NewStore creates a credential store, preferring the system keyring and
// falling back to a JSON file under stateDir.
func NewStore(stateDir string) *Store {
	return &Store{mirror: newMirror(stateDir)}
}

// newStoreWithMirror is used by tests to inject a specific mirror.
func newStoreWithMirror(m mirror) *Store {
	return &Store{mirror: m}
}

// Get returns the current in-memory credential. It never performs I/O.
func (s *Store) Get() (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.token, s.token != ""
}

// Set replaces the in-memory credential and best-effort persists it to the
// durable mirror. An empty token removes the mirrored value. Persistence
// failures (quota, denied storage) leave the in-memory value authoritative
// and are not surfaced.
func (s *Store) Set(token string) {
	s.mu.Lock()
	s.token = token
	s.mu.Unlock()

	if token == "" {
		if err := s.mirror.remove(); err != nil && !errors.Is(err, errNotFound) {
			fmt.Fprintf(os.Stderr, "warning: could not remove stored credential: %v\n", err)
		}
		return
	}
	if err := s.mirror.save(token); err != nil {
		fmt.Fprintf(os.Stderr, "warning: could not persist credential: %v\n", err)
	}
}

// Clear removes the credential from memory and from the durable mirror.
func (s *Store) Clear() {
	s.Set("")
}

// Hydrate reads the durable mirror and, if a value is present, installs it
// as the in-memory credential. Safe to call multiple times. Returns the
// resulting in-memory credential.
func (s *Store) Hydrate() (string, bool) {
	token, err := s.mirror.load()
	if err != nil || token == "" {
		return s.Get()
	}

	s.mu.Lock()
	s.token = token
	s.mu.Unlock()
	return token, true
}

// newMirror picks the durable backend: keyring when available, file otherwise.
// FOLIO_NO_KEYRING forces the file backend (used by tests and headless hosts).
func newMirror(stateDir string) mirror {
	if os.Getenv("FOLIO_NO_KEYRING") != "" {
		return newFileMirror(stateDir)
	}
	if keyringAvailable() {
		return keyringMirror{}
	}
	fmt.Fprintf(os.Stderr, "warning: system keyring unavailable, credential stored in plaintext at %s\n",
		filepath.Join(stateDir, "credentials.json"))
	return newFileMirror(stateDir)
}

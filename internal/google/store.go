package google

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"golang.org/x/oauth2"
)

// ErrNoToken reports that no credential is persisted for a family.
var ErrNoToken = errors.New("no persisted token")

// TokenStore persists one opaque credential per capability family.
type TokenStore interface {
	Load(family Family) (*oauth2.Token, error)
	Save(family Family, token *oauth2.Token) error
}

// staleLockAge is the age after which an on-disk lock left behind by a
// crashed process is taken over.
const staleLockAge = 30 * time.Second

// FileTokenStore keeps one JSON token file per family under a directory.
// Lock guards the read-refresh-write cycle both in-process (mutex per
// family) and across processes (an exclusive lock file next to the token).
type FileTokenStore struct {
	dir string

	mu    sync.Mutex
	locks map[Family]*sync.Mutex
}

// NewFileTokenStore creates a token store rooted at dir.
func NewFileTokenStore(dir string) *FileTokenStore {
	return &FileTokenStore{
		dir:   dir,
		locks: make(map[Family]*sync.Mutex),
	}
}

func (s *FileTokenStore) tokenFile(family Family) string {
	return filepath.Join(s.dir, string(family)+".token")
}

func (s *FileTokenStore) lockFile(family Family) string {
	return filepath.Join(s.dir, string(family)+".lock")
}

func (s *FileTokenStore) familyMutex(family Family) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()
	m, ok := s.locks[family]
	if !ok {
		m = &sync.Mutex{}
		s.locks[family] = m
	}
	return m
}

// Lock acquires the per-family lock and returns the corresponding unlock
// function. Callers hold it across the whole load-refresh-save cycle.
func (s *FileTokenStore) Lock(family Family) (func(), error) {
	m := s.familyMutex(family)
	m.Lock()

	if err := os.MkdirAll(s.dir, 0700); err != nil {
		m.Unlock()
		return nil, fmt.Errorf("failed to create token directory: %w", err)
	}

	lockPath := s.lockFile(family)
	deadline := time.Now().Add(10 * time.Second)
	for {
		f, err := os.OpenFile(lockPath, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0600)
		if err == nil {
			f.Close()
			break
		}
		if !os.IsExist(err) {
			m.Unlock()
			return nil, fmt.Errorf("failed to create lock file: %w", err)
		}

		// Take over locks left behind by a crashed process.
		if info, statErr := os.Stat(lockPath); statErr == nil && time.Since(info.ModTime()) > staleLockAge {
			os.Remove(lockPath)
			continue
		}
		if time.Now().After(deadline) {
			m.Unlock()
			return nil, fmt.Errorf("timed out waiting for credential lock %s", lockPath)
		}
		time.Sleep(50 * time.Millisecond)
	}

	return func() {
		os.Remove(lockPath)
		m.Unlock()
	}, nil
}

// Load reads the persisted token for a family. Returns ErrNoToken when none
// has been saved yet.
func (s *FileTokenStore) Load(family Family) (*oauth2.Token, error) {
	data, err := os.ReadFile(s.tokenFile(family))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%s: %w", family, ErrNoToken)
		}
		return nil, fmt.Errorf("failed to read token file: %w", err)
	}

	var token oauth2.Token
	if err := json.Unmarshal(data, &token); err != nil {
		return nil, fmt.Errorf("invalid token file for %s: %w", family, err)
	}
	return &token, nil
}

// Save persists the token for a family, overwriting any previous entry.
func (s *FileTokenStore) Save(family Family, token *oauth2.Token) error {
	if err := os.MkdirAll(s.dir, 0700); err != nil {
		return fmt.Errorf("failed to create token directory: %w", err)
	}

	data, err := json.Marshal(token)
	if err != nil {
		return fmt.Errorf("failed to marshal token: %w", err)
	}
	if err := os.WriteFile(s.tokenFile(family), data, 0600); err != nil {
		return fmt.Errorf("failed to write token file: %w", err)
	}
	return nil
}

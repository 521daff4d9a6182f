package auth

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"sync"

	"github.com/gofrs/flock"
	"github.com/zalando/go-keyring"
)

const serviceName = "mindtalk"

// Persisted key names. All three are written together and removed together.
const (
	keyAccessToken  = "accessToken"
	keyRefreshToken = "refreshToken"
	keyUser         = "user"
)

var persistedKeys = []string{keyAccessToken, keyRefreshToken, keyUser}

// ErrIncomplete is returned by Save for credentials with a missing field.
var ErrIncomplete = errors.New("incomplete credentials")

// Store persists the session for one API origin, preferring the system
// keyring and falling back to a 0600 JSON file. Reads are served from an
// in-memory mirror that every Save and Clear updates before returning.
type Store struct {
	origin      string
	useKeyring  bool
	fallbackDir string

	// writeMu serializes durable writes; mu guards the mirror only so
	// readers never wait on keyring or disk I/O.
	writeMu    sync.Mutex
	mu         sync.RWMutex
	mirror     *Credentials
	generation uint64
}

// NewStore creates a credential store for origin.
func NewStore(origin, fallbackDir string) *Store {
	if os.Getenv("MINDTALK_NO_KEYRING") != "" {
		return newFileStore(origin, fallbackDir)
	}

	testKey := serviceName + "::probe"
	if err := keyring.Set(serviceName, testKey, "probe"); err != nil {
		fmt.Fprintf(os.Stderr, "warning: system keyring unavailable, credentials stored in plaintext at %s\n",
			filepath.Join(fallbackDir, "credentials.json"))
		return newFileStore(origin, fallbackDir)
	}
	_ = keyring.Delete(serviceName, testKey) // Best-effort cleanup
	return &Store{origin: origin, useKeyring: true, fallbackDir: fallbackDir}
}

func newFileStore(origin, fallbackDir string) *Store {
	return &Store{origin: origin, fallbackDir: fallbackDir}
}

// Origin returns the API origin this store holds a session for.
func (s *Store) Origin() string {
	return s.origin
}

// UsingKeyring returns true if the store is using the system keyring.
func (s *Store) UsingKeyring() bool {
	return s.useKeyring
}

// Load reads the persisted session and refreshes the mirror.
// It returns nil, nil when there is no session or the stored record is
// incomplete.
func (s *Store) Load() (*Credentials, error) {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	var (
		creds *Credentials
		err   error
	)
	if s.useKeyring {
		creds, err = loadFromKeyring(s.origin)
	} else {
		creds, err = s.loadFromFile()
	}
	if err != nil {
		return nil, err
	}
	if !creds.Complete() {
		creds = nil
	}

	s.mu.Lock()
	s.mirror = creds.clone()
	s.mu.Unlock()
	return creds, nil
}

// Save persists creds, replacing any previous session.
func (s *Store) Save(creds *Credentials) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	return s.saveLocked(creds)
}

// SaveIf persists creds only if no Save or Clear happened since gen was
// read from Generation. It reports whether the write happened.
func (s *Store) SaveIf(gen uint64, creds *Credentials) (bool, error) {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	if s.Generation() != gen {
		return false, nil
	}
	if err := s.saveLocked(creds); err != nil {
		return false, err
	}
	return true, nil
}

func (s *Store) saveLocked(creds *Credentials) error {
	if !creds.Complete() {
		return ErrIncomplete
	}

	var err error
	if s.useKeyring {
		err = saveToKeyring(s.origin, creds)
	} else {
		err = s.updateFile(func(all map[string]*Credentials) {
			all[s.origin] = creds.clone()
		})
	}
	if err != nil {
		if s.useKeyring {
			// The keyring rollback removed the previous session as well.
			s.mu.Lock()
			s.mirror = nil
			s.generation++
			s.mu.Unlock()
		}
		return err
	}

	s.mu.Lock()
	s.mirror = creds.clone()
	s.generation++
	s.mu.Unlock()
	return nil
}

// Clear removes the persisted session. Clearing an empty store is not an error.
func (s *Store) Clear() error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	return s.clearLocked()
}

func (s *Store) clearLocked() error {
	// The mirror is emptied even if durable removal fails: nothing may keep
	// using a session that is being torn down.
	s.mu.Lock()
	s.mirror = nil
	s.generation++
	s.mu.Unlock()

	if s.useKeyring {
		return deleteFromKeyring(s.origin)
	}
	return s.updateFile(func(all map[string]*Credentials) {
		delete(all, s.origin)
	})
}

// ClearIf clears the session only if no Save or Clear happened since gen
// was read from Generation. It reports whether the clear happened.
func (s *Store) ClearIf(gen uint64) (bool, error) {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	if s.Generation() != gen {
		return false, nil
	}
	return true, s.clearLocked()
}

// Current returns a copy of the mirrored session, or nil. It does no I/O.
func (s *Store) Current() *Credentials {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.mirror.clone()
}

// AccessToken returns the mirrored access token, or "".
func (s *Store) AccessToken() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.mirror == nil {
		return ""
	}
	return s.mirror.AccessToken
}

// RefreshToken returns the mirrored refresh token, or "".
func (s *Store) RefreshToken() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.mirror == nil {
		return ""
	}
	return s.mirror.RefreshToken
}

// snapshot returns the mirrored session together with the generation it
// belongs to.
func (s *Store) snapshot() (*Credentials, uint64) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.mirror.clone(), s.generation
}

// Generation increases on every Save and Clear.
func (s *Store) Generation() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.generation
}

// Keyring backend

func keyringKey(origin, name string) string {
	return origin + "::" + name
}

func loadFromKeyring(origin string) (*Credentials, error) {
	values := make(map[string]string, len(persistedKeys))
	for _, name := range persistedKeys {
		v, err := keyring.Get(serviceName, keyringKey(origin, name))
		if errors.Is(err, keyring.ErrNotFound) {
			return nil, nil
		}
		if err != nil {
			return nil, fmt.Errorf("reading %s from keyring: %w", name, err)
		}
		values[name] = v
	}

	var user User
	if err := json.Unmarshal([]byte(values[keyUser]), &user); err != nil {
		return nil, nil //nolint:nilerr // A corrupt identity is an absent session
	}
	return &Credentials{
		AccessToken:  values[keyAccessToken],
		RefreshToken: values[keyRefreshToken],
		User:         user,
	}, nil
}

func saveToKeyring(origin string, creds *Credentials) error {
	user, err := json.Marshal(creds.User)
	if err != nil {
		return err
	}
	values := map[string]string{
		keyAccessToken:  creds.AccessToken,
		keyRefreshToken: creds.RefreshToken,
		keyUser:         string(user),
	}

	for _, name := range persistedKeys {
		if err := keyring.Set(serviceName, keyringKey(origin, name), values[name]); err != nil {
			_ = deleteFromKeyring(origin) // no partial record may survive
			return fmt.Errorf("writing %s to keyring: %w", name, err)
		}
	}
	return nil
}

func deleteFromKeyring(origin string) error {
	var errs []error
	for _, name := range persistedKeys {
		err := keyring.Delete(serviceName, keyringKey(origin, name))
		if err != nil && !errors.Is(err, keyring.ErrNotFound) {
			errs = append(errs, fmt.Errorf("removing %s from keyring: %w", name, err))
		}
	}
	return errors.Join(errs...)
}

// File fallback

func (s *Store) credentialsPath() string {
	return filepath.Join(s.fallbackDir, "credentials.json")
}

func (s *Store) lockPath() string {
	return filepath.Join(s.fallbackDir, ".credentials.lock")
}

func (s *Store) loadFromFile() (*Credentials, error) {
	if err := os.MkdirAll(s.fallbackDir, 0700); err != nil {
		return nil, err
	}
	lock := flock.New(s.lockPath())
	if err := lock.RLock(); err != nil {
		return nil, fmt.Errorf("failed to acquire read lock: %w", err)
	}
	defer func() { _ = lock.Unlock() }()

	all, err := s.readAll()
	if err != nil {
		return nil, err
	}
	return all[s.origin], nil
}

// updateFile applies fn to the origin map under an exclusive cross-process
// lock and writes the result atomically.
func (s *Store) updateFile(fn func(map[string]*Credentials)) error {
	if err := os.MkdirAll(s.fallbackDir, 0700); err != nil {
		return err
	}
	lock := flock.New(s.lockPath())
	if err := lock.Lock(); err != nil {
		return fmt.Errorf("failed to acquire lock: %w", err)
	}
	defer func() { _ = lock.Unlock() }()

	all, err := s.readAll()
	if err != nil {
		return err
	}
	fn(all)
	return s.writeAll(all)
}

func (s *Store) readAll() (map[string]*Credentials, error) {
	data, err := os.ReadFile(s.credentialsPath())
	if err != nil {
		if os.IsNotExist(err) {
			return make(map[string]*Credentials), nil
		}
		return nil, err
	}

	var all map[string]*Credentials
	if err := json.Unmarshal(data, &all); err != nil {
		// A corrupt file holds no trustworthy session; the next write replaces it.
		return make(map[string]*Credentials), nil
	}
	if all == nil {
		all = make(map[string]*Credentials)
	}
	return all, nil
}

func (s *Store) writeAll(all map[string]*Credentials) error {
	data, err := json.MarshalIndent(all, "", "  ")
	if err != nil {
		return err
	}

	tmpFile, err := os.CreateTemp(s.fallbackDir, "credentials-*.json.tmp")
	if err != nil {
		return err
	}
	tmpPath := tmpFile.Name()

	if _, err := tmpFile.Write(data); err != nil {
		tmpFile.Close()
		os.Remove(tmpPath)
		return err
	}
	if err := tmpFile.Chmod(0600); err != nil {
		tmpFile.Close()
		os.Remove(tmpPath)
		return err
	}
	if err := tmpFile.Close(); err != nil {
		os.Remove(tmpPath)
		return err
	}

	destPath := s.credentialsPath()
	if err := os.Rename(tmpPath, destPath); err != nil {
		// Windows refuses to rename over an existing file.
		if runtime.GOOS == "windows" {
			_ = os.Remove(destPath)
			return os.Rename(tmpPath, destPath)
		}
		os.Remove(tmpPath)
		return err
	}
	return nil
}

// MigrateToKeyring moves every session found in the plaintext file into the
// keyring and removes the file.
func (s *Store) MigrateToKeyring() error {
	if !s.useKeyring {
		return nil
	}

	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	if _, err := os.Stat(s.credentialsPath()); err != nil {
		return nil //nolint:nilerr // No plaintext file, nothing to migrate
	}
	lock := flock.New(s.lockPath())
	if err := lock.Lock(); err != nil {
		return fmt.Errorf("failed to acquire lock: %w", err)
	}
	defer func() { _ = lock.Unlock() }()

	all, err := s.readAll()
	if err != nil || len(all) == 0 {
		return nil //nolint:nilerr // Nothing readable to migrate
	}

	for origin, creds := range all {
		if !creds.Complete() {
			continue
		}
		if err := saveToKeyring(origin, creds); err != nil {
			return fmt.Errorf("failed to migrate %s: %w", origin, err)
		}
	}

	_ = os.Remove(s.credentialsPath()) // Best-effort cleanup
	return nil
}

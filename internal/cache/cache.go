// Package cache provides small TTL key/value stores used for OAuth tokens and
// slow-changing API responses.
//
// FileStore keeps one JSON file per key under the user cache directory.
// RedisStore shares entries between machines. Disable the file cache with
// SPOTIFY_NO_CACHE=1.
package cache

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

const DefaultTTL = 5 * time.Minute

// Store is a byte-oriented cache. A miss is reported as ok == false with a
// nil error; errors are reserved for backend failures.
type Store interface {
	Get(ctx context.Context, key string) (data []byte, ok bool, err error)
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
}

// GetJSON loads a cached value into dst. Backend and decode failures count
// as a miss.
func GetJSON(ctx context.Context, s Store, key string, dst any) bool {
	data, ok, err := s.Get(ctx, key)
	if err != nil || !ok {
		return false
	}
	return json.Unmarshal(data, dst) == nil
}

// PutJSON stores v under key. Failures are ignored.
func PutJSON(ctx context.Context, s Store, key string, v any, ttl time.Duration) {
	data, err := json.Marshal(v)
	if err != nil {
		return
	}
	_ = s.Set(ctx, key, data, ttl)
}

type entry struct {
	CachedAt  time.Time `json:"cached_at"`
	ExpiresAt time.Time `json:"expires_at,omitzero"`
	Data      []byte    `json:"data"`
}

// FileStore keeps entries as files in dir. Entries written through one
// scope (typically a profile name) are invisible to other scopes.
type FileStore struct {
	dir    string
	suffix string
	now    func() time.Time
}

var _ Store = (*FileStore)(nil)

// NewFileStore creates a FileStore. dir is the cache directory (typically
// from DefaultDir).
func NewFileStore(dir, scope string) *FileStore {
	hash := sha1.Sum([]byte(scope))
	return &FileStore{
		dir:    dir,
		suffix: hex.EncodeToString(hash[:6]),
		now:    time.Now,
	}
}

func (s *FileStore) path(key string) string {
	return filepath.Join(s.dir, fmt.Sprintf("%s_%s.json", sanitizeKey(key), s.suffix))
}

// Get returns the entry for key. Missing, expired and unreadable files are
// misses, as is everything while the cache is disabled.
func (s *FileStore) Get(_ context.Context, key string) ([]byte, bool, error) {
	if disabled() {
		return nil, false, nil
	}
	data, err := os.ReadFile(s.path(key))
	if err != nil {
		return nil, false, nil
	}
	var e entry
	if err := json.Unmarshal(data, &e); err != nil {
		return nil, false, nil
	}
	if !e.ExpiresAt.IsZero() && !s.now().Before(e.ExpiresAt) {
		return nil, false, nil
	}
	return e.Data, true, nil
}

// Set writes data under key. A ttl <= 0 keeps the entry until it is
// deleted.
func (s *FileStore) Set(_ context.Context, key string, data []byte, ttl time.Duration) error {
	if disabled() {
		return nil
	}
	now := s.now()
	e := entry{CachedAt: now, Data: data}
	if ttl > 0 {
		e.ExpiresAt = now.Add(ttl)
	}
	raw, err := json.Marshal(e)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(s.dir, 0o700); err != nil {
		return fmt.Errorf("create cache dir: %w", err)
	}

	// Atomic-ish write: write temp then rename.
	path := s.path(key)
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, raw, 0o600); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("write cache file: %w", err)
	}
	return os.Rename(tmp, path)
}

// Delete removes the entry for key.
func (s *FileStore) Delete(_ context.Context, key string) error {
	err := os.Remove(s.path(key))
	if err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

// ClearAll removes all cache files from the directory.
// For safety, it only removes files matching this project's cache filename scheme.
func ClearAll(dir string) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return
	}
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		name := e.Name()
		if !isCacheFilename(name) {
			continue
		}
		_ = os.Remove(filepath.Join(dir, name))
	}
}

// DefaultDir returns the platform-appropriate cache directory.
// Returns "$XDG_CACHE_HOME/spotify-cli" or equivalent.
func DefaultDir() (string, error) {
	base, err := os.UserCacheDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(base, "spotify-cli"), nil
}

func disabled() bool {
	return os.Getenv("SPOTIFY_NO_CACHE") != ""
}

func sanitizeKey(key string) string {
	key = strings.TrimSpace(key)
	if key == "" {
		return "cache"
	}
	return strings.NewReplacer("/", "-", "\\", "-", ":", "-").Replace(key)
}

func isCacheFilename(name string) bool {
	// Expected: "<key>_<12hex>.json"
	if filepath.Ext(name) != ".json" {
		return false
	}
	base := strings.TrimSuffix(name, ".json")
	i := strings.LastIndex(base, "_")
	if i <= 0 {
		return false
	}
	suffix := base[i+1:]
	if len(suffix) != 12 {
		return false
	}
	_, err := hex.DecodeString(suffix)
	return err == nil
}

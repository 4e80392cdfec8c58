// Package config stores Spotify app credentials and user tokens per profile
// in the OS keychain, with environment variable overrides.
package config

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"slices"
	"strings"
	"time"

	"github.com/99designs/keyring"

	"github.com/spotifyweb/spotify-cli/internal/api"
)

const (
	serviceName       = "spotify-cli"
	defaultProfile    = "default"
	profilePrefix     = "profile:"
	tokenPrefix       = "token:"
	profileIndexKey   = "profiles_index"
	currentProfileKey = "current_profile"

	envKeyringBackend  = "SPOTIFY_KEYRING_BACKEND"
	envKeyringPassword = "SPOTIFY_KEYRING_PASSWORD"
	envCredentialsDir  = "SPOTIFY_CREDENTIALS_DIR"

	keyringBackendAuto   = "auto"
	keyringBackendFile   = "file"
	keyringBackendSystem = "system"

	DefaultRedirectURI = "http://127.0.0.1:8888/callback"
)

// Authorization flows a profile can use.
const (
	FlowPKCE              = "pkce"
	FlowClientCredentials = "client_credentials"
)

// openKeyring is a package-level function for opening keyrings.
// It can be replaced in tests to use a mock keyring.
var openKeyring = func(cfg keyring.Config) (keyring.Keyring, error) {
	return keyring.Open(cfg)
}

var userConfigDir = os.UserConfigDir

var stdinHasTTY = func() bool {
	info, err := os.Stdin.Stat()
	if err != nil {
		return false
	}
	return (info.Mode() & os.ModeCharDevice) != 0
}

// SetOpenKeyring allows replacing the keyring opener for testing.
// Returns a cleanup function that restores the original.
func SetOpenKeyring(fn func(keyring.Config) (keyring.Keyring, error)) func() {
	original := openKeyring
	openKeyring = fn
	return func() { openKeyring = original }
}

// Profile holds the Spotify app registration used to obtain tokens.
type Profile struct {
	ClientID     string   `json:"client_id"`
	ClientSecret string   `json:"client_secret,omitempty"`
	RedirectURI  string   `json:"redirect_uri,omitempty"`
	Flow         string   `json:"flow"`
	Scopes       []string `json:"scopes,omitempty"`
	Market       string   `json:"market,omitempty"`
}

// Redirect returns the redirect URI, falling back to DefaultRedirectURI.
func (p Profile) Redirect() string {
	if p.RedirectURI == "" {
		return DefaultRedirectURI
	}
	return p.RedirectURI
}

// ErrNotConfigured is returned when no profile is configured
var ErrNotConfigured = errors.New("spotify not configured - run 'spotify auth login' first")

// keyringConfig returns the keyring configuration
func keyringConfig() keyring.Config {
	cfg := keyring.Config{
		ServiceName: serviceName,
	}

	backend := keyringBackendMode()
	if backend == keyringBackendSystem {
		return cfg
	}

	// Always configure file backend details in auto mode so keyring.Open can
	// fall through to encrypted file storage when native backends are missing.
	configureFileBackend(&cfg)

	// Headless Linux should bypass other backends and use encrypted file storage.
	if shouldForceFileBackend(runtime.GOOS, backend, os.Getenv("DBUS_SESSION_BUS_ADDRESS")) {
		cfg.AllowedBackends = []keyring.BackendType{keyring.FileBackend}
	}

	return cfg
}

func keyringBackendMode() string {
	switch strings.ToLower(envValue(envKeyringBackend)) {
	case keyringBackendFile:
		return keyringBackendFile
	case keyringBackendSystem, "os", "native":
		return keyringBackendSystem
	default:
		return keyringBackendAuto
	}
}

func shouldForceFileBackend(goos, backend, dbusAddr string) bool {
	if backend == keyringBackendFile {
		return true
	}
	if backend != keyringBackendAuto {
		return false
	}
	return goos == "linux" && strings.TrimSpace(dbusAddr) == ""
}

func configureFileBackend(cfg *keyring.Config) {
	cfg.FileDir = keyringFileDir()
	cfg.FilePasswordFunc = keyringFilePassword
}

// ConfigDir returns the directory for the .env file and the file keyring.
func ConfigDir() string {
	if dir, err := userConfigDir(); err == nil && strings.TrimSpace(dir) != "" {
		return filepath.Join(dir, serviceName)
	}
	if home, err := os.UserHomeDir(); err == nil && strings.TrimSpace(home) != "" {
		return filepath.Join(home, ".config", serviceName)
	}
	return filepath.Join(os.TempDir(), serviceName)
}

func keyringFileDir() string {
	base := envValue(envCredentialsDir)
	if base == "" {
		base = ConfigDir()
	}
	return filepath.Join(base, "keyring")
}

func keyringFilePassword(prompt string) (string, error) {
	if password, ok := os.LookupEnv(envKeyringPassword); ok && strings.TrimSpace(password) != "" {
		return password, nil
	}
	if !stdinHasTTY() {
		return "", fmt.Errorf("set %s when using file keyring in non-interactive environments", envKeyringPassword)
	}
	return keyring.TerminalPrompt(prompt)
}

func envValue(key string) string {
	return strings.TrimSpace(os.Getenv(key))
}

func normalizeName(name string) string {
	if name = strings.TrimSpace(name); name == "" {
		return defaultProfile
	}
	return name
}

func profileKey(name string) string {
	return profilePrefix + normalizeName(name)
}

func tokenKey(name string) string {
	return tokenPrefix + normalizeName(name)
}

func open() (keyring.Keyring, error) {
	ring, err := openKeyring(keyringConfig())
	if err != nil {
		return nil, fmt.Errorf("failed to open keyring: %w", err)
	}
	return ring, nil
}

func loadProfileIndex(ring keyring.Keyring) ([]string, error) {
	item, err := ring.Get(profileIndexKey)
	if err != nil {
		if errors.Is(err, keyring.ErrKeyNotFound) {
			return []string{}, nil
		}
		return nil, fmt.Errorf("failed to get profile index: %w", err)
	}
	var profiles []string
	if err := json.Unmarshal(item.Data, &profiles); err != nil {
		return nil, fmt.Errorf("failed to unmarshal profile index: %w", &api.JSONError{Err: err})
	}
	return profiles, nil
}

func saveProfileIndex(ring keyring.Keyring, profiles []string) error {
	data, err := json.Marshal(profiles)
	if err != nil {
		return fmt.Errorf("failed to marshal profile index: %w", err)
	}
	return ring.Set(keyring.Item{
		Key:  profileIndexKey,
		Data: data,
	})
}

func normalizeProfiles(profiles []string) []string {
	var out []string
	for _, p := range profiles {
		p = strings.TrimSpace(p)
		if p == "" || slices.Contains(out, p) {
			continue
		}
		out = append(out, p)
	}
	return out
}

// LoadActive returns the profile to use: SPOTIFY_CLIENT_ID from the
// environment wins, then SPOTIFY_PROFILE, then the current profile.
func LoadActive() (string, Profile, error) {
	if clientID := envValue("SPOTIFY_CLIENT_ID"); clientID != "" {
		p := Profile{
			ClientID:     clientID,
			ClientSecret: envValue("SPOTIFY_CLIENT_SECRET"),
			RedirectURI:  envValue("SPOTIFY_REDIRECT_URI"),
			Flow:         FlowPKCE,
			Market:       envValue("SPOTIFY_MARKET"),
		}
		if p.ClientSecret != "" {
			p.Flow = FlowClientCredentials
		}
		if scopes := envValue("SPOTIFY_SCOPES"); scopes != "" {
			p.Scopes = strings.Fields(strings.ReplaceAll(scopes, ",", " "))
		}
		return normalizeName(envValue("SPOTIFY_PROFILE")), p, nil
	}

	name := envValue("SPOTIFY_PROFILE")
	if name == "" {
		current, err := CurrentProfile()
		if err != nil {
			return "", Profile{}, err
		}
		name = current
	}
	p, err := LoadProfile(name)
	return name, p, err
}

// SaveProfile stores a profile, adds it to the index and makes it current.
func SaveProfile(name string, p Profile) error {
	name = normalizeName(name)
	ring, err := open()
	if err != nil {
		return err
	}

	data, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("failed to marshal profile: %w", err)
	}
	if err := ring.Set(keyring.Item{
		Key:   profileKey(name),
		Data:  data,
		Label: serviceName + " profile " + name,
	}); err != nil {
		return fmt.Errorf("failed to save profile: %w", err)
	}

	profiles, err := loadProfileIndex(ring)
	if err != nil {
		return err
	}
	if err := saveProfileIndex(ring, normalizeProfiles(append(profiles, name))); err != nil {
		return err
	}
	return SetCurrentProfile(name)
}

// LoadProfile retrieves a named profile
func LoadProfile(name string) (Profile, error) {
	ring, err := open()
	if err != nil {
		return Profile{}, err
	}

	item, err := ring.Get(profileKey(name))
	if err != nil {
		if errors.Is(err, keyring.ErrKeyNotFound) {
			return Profile{}, ErrNotConfigured
		}
		return Profile{}, fmt.Errorf("failed to get profile: %w", err)
	}

	var p Profile
	if err := json.Unmarshal(item.Data, &p); err != nil {
		return Profile{}, fmt.Errorf("failed to unmarshal profile: %w", &api.JSONError{Err: err})
	}
	return p, nil
}

// DeleteProfile removes a stored profile and its token.
func DeleteProfile(name string) error {
	name = normalizeName(name)
	ring, err := open()
	if err != nil {
		return err
	}

	for _, key := range []string{profileKey(name), tokenKey(name)} {
		if err := ring.Remove(key); err != nil && !errors.Is(err, keyring.ErrKeyNotFound) {
			return fmt.Errorf("failed to remove %s: %w", key, err)
		}
	}

	profiles, err := loadProfileIndex(ring)
	if err != nil {
		return err
	}
	remaining := slices.DeleteFunc(profiles, func(p string) bool { return p == name })
	if err := saveProfileIndex(ring, remaining); err != nil {
		return err
	}

	current, err := CurrentProfile()
	if err == nil && current == name {
		next := defaultProfile
		if len(remaining) > 0 {
			next = remaining[0]
		}
		_ = SetCurrentProfile(next)
	}
	return nil
}

// ListProfiles returns the known profile names
func ListProfiles() ([]string, error) {
	ring, err := open()
	if err != nil {
		return nil, err
	}
	return loadProfileIndex(ring)
}

// CurrentProfile returns the active profile name
func CurrentProfile() (string, error) {
	ring, err := open()
	if err != nil {
		return "", err
	}

	item, err := ring.Get(currentProfileKey)
	if err != nil {
		if errors.Is(err, keyring.ErrKeyNotFound) {
			return defaultProfile, nil
		}
		return "", fmt.Errorf("failed to get current profile: %w", err)
	}
	return string(item.Data), nil
}

// SetCurrentProfile sets the active profile name
func SetCurrentProfile(name string) error {
	ring, err := open()
	if err != nil {
		return err
	}
	return ring.Set(keyring.Item{
		Key:  currentProfileKey,
		Data: []byte(normalizeName(name)),
	})
}

// TokenStore keeps a profile's OAuth token in the keychain. It satisfies
// auth.TokenCache; the key argument is ignored since each profile holds a
// single token. Keychain entries do not expire, so ttl is ignored too.
type TokenStore struct {
	Profile string
}

func (s TokenStore) Get(_ context.Context, _ string) ([]byte, bool, error) {
	ring, err := open()
	if err != nil {
		return nil, false, err
	}
	item, err := ring.Get(tokenKey(s.Profile))
	if err != nil {
		if errors.Is(err, keyring.ErrKeyNotFound) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("failed to get token: %w", err)
	}
	return item.Data, true, nil
}

func (s TokenStore) Set(_ context.Context, _ string, data []byte, _ time.Duration) error {
	ring, err := open()
	if err != nil {
		return err
	}
	return ring.Set(keyring.Item{
		Key:   tokenKey(s.Profile),
		Data:  data,
		Label: serviceName + " token " + normalizeName(s.Profile),
	})
}

func (s TokenStore) Delete(_ context.Context, _ string) error {
	ring, err := open()
	if err != nil {
		return err
	}
	if err := ring.Remove(tokenKey(s.Profile)); err != nil && !errors.Is(err, keyring.ErrKeyNotFound) {
		return fmt.Errorf("failed to remove token: %w", err)
	}
	return nil
}

package cmd

import (
	"os"
	"sync"
	"testing"

	"github.com/99designs/keyring"

	"github.com/spotifyweb/spotify-cli/internal/config"
)

var (
	testRingMu sync.Mutex
	testRing   keyring.Keyring = keyring.NewArrayKeyring(nil)
)

// resetKeyring gives the test an empty keychain.
func resetKeyring(t *testing.T) {
	t.Helper()
	testRingMu.Lock()
	testRing = keyring.NewArrayKeyring(nil)
	testRingMu.Unlock()
}

func TestMain(m *testing.M) {
	// Shell settings must not leak into tests.
	_ = os.Setenv("SPOTIFY_OUTPUT", "text")
	_ = os.Setenv("SPOTIFY_NO_BROWSER", "1")
	for _, key := range []string{"SPOTIFY_ACCESS_TOKEN", "SPOTIFY_CLIENT_ID", "SPOTIFY_PROFILE", "SPOTIFY_MARKET", "SPOTIFY_REDIS_URL", "SPOTIFY_API_URL", "SPOTIFY_ACCOUNTS_URL"} {
		_ = os.Unsetenv(key)
	}

	dir, err := os.MkdirTemp("", "spotify-cli-test")
	if err != nil {
		panic(err)
	}
	_ = os.Setenv("XDG_CONFIG_HOME", dir+"/config")
	_ = os.Setenv("XDG_CACHE_HOME", dir+"/cache")

	cleanup := config.SetOpenKeyring(func(keyring.Config) (keyring.Keyring, error) {
		testRingMu.Lock()
		defer testRingMu.Unlock()
		return testRing, nil
	})
	code := m.Run()
	cleanup()
	_ = os.RemoveAll(dir)
	os.Exit(code)
}

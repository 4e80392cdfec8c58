package config

import (
	"fmt"
	"strings"
)

// ClientConfig contains resolved API client settings.
type ClientConfig struct {
	ProfileName string
	Profile     Profile
	BaseURL     string
}

// ResolveClientConfig resolves the active profile with overrides. An empty
// BaseURL selects the public Web API.
func ResolveClientConfig(profileOverride, baseURLOverride string) (ClientConfig, error) {
	var (
		cfg ClientConfig
		err error
	)
	if profileOverride != "" {
		cfg.ProfileName = normalizeName(profileOverride)
		cfg.Profile, err = LoadProfile(profileOverride)
	} else {
		cfg.ProfileName, cfg.Profile, err = LoadActive()
	}
	if err != nil {
		return ClientConfig{}, err
	}

	if cfg.Profile.ClientID == "" {
		return ClientConfig{}, fmt.Errorf("profile %q has no client ID: %w", cfg.ProfileName, ErrNotConfigured)
	}
	switch cfg.Profile.Flow {
	case "":
		cfg.Profile.Flow = FlowPKCE
	case FlowPKCE:
	case FlowClientCredentials:
		if cfg.Profile.ClientSecret == "" {
			return ClientConfig{}, fmt.Errorf("profile %q uses client credentials but has no client secret", cfg.ProfileName)
		}
	default:
		return ClientConfig{}, fmt.Errorf("profile %q has unknown flow %q", cfg.ProfileName, cfg.Profile.Flow)
	}

	cfg.BaseURL = envValue("SPOTIFY_API_URL")
	if baseURLOverride != "" {
		cfg.BaseURL = baseURLOverride
	}
	cfg.BaseURL = strings.TrimSpace(cfg.BaseURL)
	return cfg, nil
}

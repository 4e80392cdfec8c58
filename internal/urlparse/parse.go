// Package urlparse extracts resource references from Spotify URIs, share
// links and bare IDs.
package urlparse

import (
	"fmt"
	"net/url"
	"regexp"
	"slices"
	"strings"
)

// ParsedURL is a reference to a single Spotify resource.
type ParsedURL struct {
	ResourceType string // singular form: track, album, artist, playlist, ...
	ID           string
}

// URI returns the spotify: URI of the resource.
func (p *ParsedURL) URI() string {
	return "spotify:" + p.ResourceType + ":" + p.ID
}

// URL returns the open.spotify.com link of the resource.
func (p *ParsedURL) URL() string {
	return "https://open.spotify.com/" + p.ResourceType + "/" + p.ID
}

var resourceTypes = []string{
	"album",
	"artist",
	"audiobook",
	"chapter",
	"episode",
	"playlist",
	"show",
	"track",
	"user",
}

// idPattern matches base62 Spotify IDs. User IDs are free-form and are not
// matched by it.
var idPattern = regexp.MustCompile(`^[0-9A-Za-z]{22}$`)

// IsID reports whether s looks like a base62 Spotify ID.
func IsID(s string) bool {
	return idPattern.MatchString(s)
}

// Parse extracts the resource from a spotify: URI such as
// spotify:track:6rqhFgbbKwnb9MLmUQDhG6 or a link such as
// https://open.spotify.com/intl-de/track/6rqhFgbbKwnb9MLmUQDhG6?si=abc.
func Parse(raw string) (*ParsedURL, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, fmt.Errorf("URL cannot be empty")
	}
	if rest, ok := strings.CutPrefix(raw, "spotify:"); ok {
		return parseURI(rest)
	}

	parsed, err := url.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("invalid URL: %w", err)
	}
	if parsed.Scheme == "" {
		return nil, fmt.Errorf("invalid URL: missing scheme (expected https://open.spotify.com/...)")
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return nil, fmt.Errorf("invalid URL scheme %q: expected http or https", parsed.Scheme)
	}
	if host := strings.ToLower(parsed.Hostname()); host != "open.spotify.com" && host != "play.spotify.com" {
		return nil, fmt.Errorf("invalid Spotify URL host %q: expected open.spotify.com", parsed.Host)
	}

	segments := strings.FieldsFunc(parsed.Path, func(r rune) bool { return r == '/' })
	if len(segments) > 0 && (strings.HasPrefix(segments[0], "intl-") || segments[0] == "embed") {
		segments = segments[1:]
	}
	return fromSegments(segments, "expected /{type}/{id}")
}

// parseURI handles the part of a spotify: URI after the scheme, including the
// legacy spotify:user:{user}:playlist:{id} form.
func parseURI(rest string) (*ParsedURL, error) {
	segments := strings.Split(rest, ":")
	if len(segments) == 4 && segments[0] == "user" && segments[2] == "playlist" {
		segments = segments[2:]
	}
	if len(segments) != 2 {
		return nil, fmt.Errorf("invalid Spotify URI %q: expected spotify:{type}:{id}", "spotify:"+rest)
	}
	return fromSegments(segments, "expected spotify:{type}:{id}")
}

func fromSegments(segments []string, format string) (*ParsedURL, error) {
	if len(segments) < 2 {
		return nil, fmt.Errorf("invalid Spotify reference: %s", format)
	}
	kind, id := strings.ToLower(segments[0]), segments[1]
	if !slices.Contains(resourceTypes, kind) {
		return nil, fmt.Errorf("unsupported resource type %q: expected one of %s", kind, strings.Join(resourceTypes, ", "))
	}
	if id == "" {
		return nil, fmt.Errorf("invalid Spotify reference: missing ID")
	}
	if kind != "user" && !IsID(id) {
		return nil, fmt.Errorf("invalid %s ID %q: expected 22 base62 characters", kind, id)
	}
	return &ParsedURL{ResourceType: kind, ID: id}, nil
}

// ParseID accepts a bare ID, a URI or a link and returns the ID of a resource
// of the wanted type.
func ParseID(raw, want string) (string, error) {
	raw = strings.TrimSpace(raw)
	if want != "user" && IsID(raw) {
		return raw, nil
	}
	if !strings.HasPrefix(raw, "spotify:") && !strings.Contains(raw, "://") {
		if want == "user" && raw != "" {
			return raw, nil
		}
		return "", fmt.Errorf("invalid %s ID %q: expected 22 base62 characters, a spotify: URI or an open.spotify.com link", want, raw)
	}
	p, err := Parse(raw)
	if err != nil {
		return "", err
	}
	if p.ResourceType != want {
		return "", fmt.Errorf("expected a %s, got a %s link", want, p.ResourceType)
	}
	return p.ID, nil
}

// ParseIDs applies ParseID to each element.
func ParseIDs(raws []string, want string) ([]string, error) {
	ids := make([]string, 0, len(raws))
	for _, raw := range raws {
		id, err := ParseID(raw, want)
		if err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, nil
}

// ParseItemURI converts a track or episode reference to a spotify: URI. Bare
// IDs are taken as tracks.
func ParseItemURI(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if IsID(raw) {
		return "spotify:track:" + raw, nil
	}
	p, err := Parse(raw)
	if err != nil {
		return "", err
	}
	if p.ResourceType != "track" && p.ResourceType != "episode" {
		return "", fmt.Errorf("expected a track or episode, got a %s", p.ResourceType)
	}
	return p.URI(), nil
}

package urlparse

import (
	"strings"
	"testing"
)

const trackID = "6rqhFgbbKwnb9MLmUQDhG6"

func TestParse_Valid(t *testing.T) {
	tests := []struct {
		name     string
		url      string
		wantType string
		wantID   string
	}{
		{
			name:     "track URI",
			url:      "spotify:track:" + trackID,
			wantType: "track",
			wantID:   trackID,
		},
		{
			name:     "legacy user playlist URI",
			url:      "spotify:user:spotify:playlist:37i9dQZF1DXcBWIGoYBM5M",
			wantType: "playlist",
			wantID:   "37i9dQZF1DXcBWIGoYBM5M",
		},
		{
			name:     "user URI",
			url:      "spotify:user:wizzler",
			wantType: "user",
			wantID:   "wizzler",
		},
		{
			name:     "album link",
			url:      "https://open.spotify.com/album/4aawyAB9vmqN3uQ7FjRGTy",
			wantType: "album",
			wantID:   "4aawyAB9vmqN3uQ7FjRGTy",
		},
		{
			name:     "link with share query",
			url:      "https://open.spotify.com/track/" + trackID + "?si=a1b2c3",
			wantType: "track",
			wantID:   trackID,
		},
		{
			name:     "localized link",
			url:      "https://open.spotify.com/intl-de/artist/0TnOYISbd1XYRBk9myaseg",
			wantType: "artist",
			wantID:   "0TnOYISbd1XYRBk9myaseg",
		},
		{
			name:     "embed link",
			url:      "https://open.spotify.com/embed/playlist/37i9dQZF1DXcBWIGoYBM5M",
			wantType: "playlist",
			wantID:   "37i9dQZF1DXcBWIGoYBM5M",
		},
		{
			name:     "link with trailing path",
			url:      "https://open.spotify.com/episode/512ojhOuo1ktJprKbVcKyQ/",
			wantType: "episode",
			wantID:   "512ojhOuo1ktJprKbVcKyQ",
		},
		{
			name:     "surrounding whitespace",
			url:      "  spotify:show:38bS44xjbVVZ3No3ByF1dJ \n",
			wantType: "show",
			wantID:   "38bS44xjbVVZ3No3ByF1dJ",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Parse(tt.url)
			if err != nil {
				t.Fatalf("Parse() error = %v", err)
			}
			if got.ResourceType != tt.wantType {
				t.Errorf("ResourceType = %q, want %q", got.ResourceType, tt.wantType)
			}
			if got.ID != tt.wantID {
				t.Errorf("ID = %q, want %q", got.ID, tt.wantID)
			}
		})
	}
}

func TestParse_InvalidURLs(t *testing.T) {
	tests := []struct {
		name    string
		url     string
		wantErr string
	}{
		{
			name:    "empty URL",
			url:     "",
			wantErr: "URL cannot be empty",
		},
		{
			name:    "missing scheme",
			url:     "open.spotify.com/track/" + trackID,
			wantErr: "missing scheme",
		},
		{
			name:    "invalid scheme",
			url:     "ftp://open.spotify.com/track/" + trackID,
			wantErr: "invalid URL scheme",
		},
		{
			name:    "foreign host",
			url:     "https://example.com/track/" + trackID,
			wantErr: "invalid Spotify URL host",
		},
		{
			name:    "root path only",
			url:     "https://open.spotify.com/",
			wantErr: "expected /{type}/{id}",
		},
		{
			name:    "unsupported resource type",
			url:     "https://open.spotify.com/concert/" + trackID,
			wantErr: "unsupported resource type",
		},
		{
			name:    "short ID",
			url:     "spotify:track:abc",
			wantErr: "expected 22 base62 characters",
		},
		{
			name:    "URI with extra segments",
			url:     "spotify:track:" + trackID + ":extra",
			wantErr: "expected spotify:{type}:{id}",
		},
		{
			name:    "URI without ID",
			url:     "spotify:user:",
			wantErr: "missing ID",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse(tt.url)
			if err == nil {
				t.Fatalf("Parse() expected error containing %q, got nil", tt.wantErr)
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Parse() error = %q, want error containing %q", err.Error(), tt.wantErr)
			}
		})
	}
}

func TestParsedURL_Formats(t *testing.T) {
	p := &ParsedURL{ResourceType: "track", ID: trackID}
	if got := p.URI(); got != "spotify:track:"+trackID {
		t.Errorf("URI() = %q", got)
	}
	if got := p.URL(); got != "https://open.spotify.com/track/"+trackID {
		t.Errorf("URL() = %q", got)
	}
}

func TestParseID(t *testing.T) {
	tests := []struct {
		raw     string
		want    string
		wantID  string
		wantErr string
	}{
		{raw: trackID, want: "track", wantID: trackID},
		{raw: "spotify:track:" + trackID, want: "track", wantID: trackID},
		{raw: "https://open.spotify.com/track/" + trackID, want: "track", wantID: trackID},
		{raw: "spotify:album:" + trackID, want: "track", wantErr: "expected a track, got a album"},
		{raw: "not-an-id", want: "album", wantErr: "invalid album ID"},
		{raw: "wizzler", want: "user", wantID: "wizzler"},
		{raw: "", want: "user", wantErr: "invalid user ID"},
	}

	for _, tt := range tests {
		t.Run(tt.raw+"/"+tt.want, func(t *testing.T) {
			got, err := ParseID(tt.raw, tt.want)
			if tt.wantErr != "" {
				if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
					t.Fatalf("ParseID() error = %v, want error containing %q", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseID() error = %v", err)
			}
			if got != tt.wantID {
				t.Errorf("ParseID() = %q, want %q", got, tt.wantID)
			}
		})
	}
}

func TestParseIDs(t *testing.T) {
	ids, err := ParseIDs([]string{trackID, "spotify:track:" + trackID}, "track")
	if err != nil {
		t.Fatalf("ParseIDs() error = %v", err)
	}
	if len(ids) != 2 || ids[0] != trackID || ids[1] != trackID {
		t.Errorf("ParseIDs() = %v", ids)
	}

	if _, err := ParseIDs([]string{trackID, "bogus"}, "track"); err == nil {
		t.Error("ParseIDs() expected error for invalid element")
	}
}

func TestParseItemURI(t *testing.T) {
	tests := []struct {
		raw     string
		want    string
		wantErr bool
	}{
		{raw: trackID, want: "spotify:track:" + trackID},
		{raw: "https://open.spotify.com/episode/512ojhOuo1ktJprKbVcKyQ", want: "spotify:episode:512ojhOuo1ktJprKbVcKyQ"},
		{raw: "spotify:album:4aawyAB9vmqN3uQ7FjRGTy", wantErr: true},
		{raw: "garbage", wantErr: true},
	}

	for _, tt := range tests {
		got, err := ParseItemURI(tt.raw)
		if tt.wantErr {
			if err == nil {
				t.Errorf("ParseItemURI(%q) expected error", tt.raw)
			}
			continue
		}
		if err != nil {
			t.Errorf("ParseItemURI(%q) error = %v", tt.raw, err)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseItemURI(%q) = %q, want %q", tt.raw, got, tt.want)
		}
	}
}

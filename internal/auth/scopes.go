package auth

import (
	"fmt"
	"slices"
	"strings"

	"github.com/sahilm/fuzzy"
)

// Scope is a Spotify authorization scope.
type Scope string

const (
	UgcImageUpload            Scope = "ugc-image-upload"
	UserReadPlaybackState     Scope = "user-read-playback-state"
	UserModifyPlaybackState   Scope = "user-modify-playback-state"
	UserReadCurrentlyPlaying  Scope = "user-read-currently-playing"
	Streaming                 Scope = "streaming"
	PlaylistReadPrivate       Scope = "playlist-read-private"
	PlaylistReadCollaborative Scope = "playlist-read-collaborative"
	PlaylistModifyPrivate     Scope = "playlist-modify-private"
	PlaylistModifyPublic      Scope = "playlist-modify-public"
	UserFollowModify          Scope = "user-follow-modify"
	UserFollowRead            Scope = "user-follow-read"
	UserReadPlaybackPosition  Scope = "user-read-playback-position"
	UserTopRead               Scope = "user-top-read"
	UserReadRecentlyPlayed    Scope = "user-read-recently-played"
	UserLibraryModify         Scope = "user-library-modify"
	UserLibraryRead           Scope = "user-library-read"
	UserReadEmail             Scope = "user-read-email"
	UserReadPrivate           Scope = "user-read-private"
)

// AllScopes lists every known scope.
var AllScopes = []Scope{
	UgcImageUpload,
	UserReadPlaybackState,
	UserModifyPlaybackState,
	UserReadCurrentlyPlaying,
	Streaming,
	PlaylistReadPrivate,
	PlaylistReadCollaborative,
	PlaylistModifyPrivate,
	PlaylistModifyPublic,
	UserFollowModify,
	UserFollowRead,
	UserReadPlaybackPosition,
	UserTopRead,
	UserReadRecentlyPlayed,
	UserLibraryModify,
	UserLibraryRead,
	UserReadEmail,
	UserReadPrivate,
}

// Scope groups.
var (
	PlaylistScopes       = []Scope{PlaylistReadPrivate, PlaylistReadCollaborative, PlaylistModifyPublic, PlaylistModifyPrivate}
	PlaylistReadScopes   = []Scope{PlaylistReadPrivate, PlaylistReadCollaborative}
	PlaylistModifyScopes = []Scope{PlaylistModifyPublic, PlaylistModifyPrivate}
	UserDetailsScopes    = []Scope{UserReadPrivate, UserReadEmail}
	UserLibraryScopes    = []Scope{UserLibraryRead, UserLibraryModify}
	UserRecentsScopes    = []Scope{UserTopRead, UserReadRecentlyPlayed}
	UserFollowScopes     = []Scope{UserFollowRead, UserFollowModify}
	UserPlaybackScopes   = []Scope{UserReadPlaybackPosition, UserReadPlaybackState, UserReadCurrentlyPlaying, UserModifyPlaybackState, Streaming}
)

var scopeGroups = map[string][]Scope{
	"playlist":        PlaylistScopes,
	"playlist-read":   PlaylistReadScopes,
	"playlist-modify": PlaylistModifyScopes,
	"user-details":    UserDetailsScopes,
	"user-library":    UserLibraryScopes,
	"user-recents":    UserRecentsScopes,
	"user-follow":     UserFollowScopes,
	"user-playback":   UserPlaybackScopes,
	"all":             AllScopes,
}

// UnknownScopeError is returned by ParseScopes for a name that is neither a
// scope nor a group.
type UnknownScopeError struct {
	Name        string
	Suggestions []string
}

func (e *UnknownScopeError) Error() string {
	if len(e.Suggestions) == 0 {
		return fmt.Sprintf("unknown scope %q", e.Name)
	}
	return fmt.Sprintf("unknown scope %q (did you mean %s?)", e.Name, strings.Join(e.Suggestions, ", "))
}

// ParseScopes parses scope and group names separated by commas or spaces.
// The result is deduplicated and keeps first-seen order.
func ParseScopes(names ...string) ([]Scope, error) {
	var out []Scope
	add := func(s Scope) {
		if !slices.Contains(out, s) {
			out = append(out, s)
		}
	}
	for _, raw := range names {
		for _, name := range strings.FieldsFunc(raw, func(r rune) bool { return r == ',' || r == ' ' }) {
			name = strings.ToLower(strings.TrimSpace(name))
			if group, ok := scopeGroups[name]; ok {
				for _, s := range group {
					add(s)
				}
				continue
			}
			if slices.Contains(AllScopes, Scope(name)) {
				add(Scope(name))
				continue
			}
			return nil, &UnknownScopeError{Name: name, Suggestions: suggestScopes(name)}
		}
	}
	return out, nil
}

// JoinScopes renders scopes as the space separated list OAuth expects.
func JoinScopes(scopes []Scope) string {
	parts := make([]string, len(scopes))
	for i, s := range scopes {
		parts[i] = string(s)
	}
	return strings.Join(parts, " ")
}

func suggestScopes(name string) []string {
	candidates := make([]string, 0, len(AllScopes)+len(scopeGroups))
	for _, s := range AllScopes {
		candidates = append(candidates, string(s))
	}
	for g := range scopeGroups {
		candidates = append(candidates, g)
	}
	slices.Sort(candidates)

	matches := fuzzy.Find(name, candidates)
	var out []string
	for i, m := range matches {
		if i == 3 {
			break
		}
		out = append(out, m.Str)
	}
	return out
}

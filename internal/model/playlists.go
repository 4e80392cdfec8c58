package model

type User struct {
	Country      string       `json:"country,omitempty"`
	DisplayName  *string      `json:"display_name"`
	Email        string       `json:"email,omitempty"`
	ExternalURLs ExternalURLs `json:"external_urls"`
	Followers    *Followers   `json:"followers,omitempty"`
	Href         string       `json:"href"`
	ID           string       `json:"id"`
	Images       []Image      `json:"images,omitempty"`
	Product      string       `json:"product,omitempty"`
	Type         string       `json:"type"`
	URI          string       `json:"uri"`
}

// Name returns the display name, falling back to the ID.
func (u User) Name() string {
	if u.DisplayName != nil && *u.DisplayName != "" {
		return *u.DisplayName
	}
	return u.ID
}

type PlaylistTracksRef struct {
	Href  string `json:"href"`
	Total int    `json:"total"`
}

type SimplifiedPlaylist struct {
	Collaborative bool              `json:"collaborative"`
	Description   *string           `json:"description"`
	ExternalURLs  ExternalURLs      `json:"external_urls"`
	Href          string            `json:"href"`
	ID            string            `json:"id"`
	Images        []Image           `json:"images"`
	Name          string            `json:"name"`
	Owner         User              `json:"owner"`
	Public        *bool             `json:"public"`
	SnapshotID    string            `json:"snapshot_id"`
	Tracks        PlaylistTracksRef `json:"tracks"`
	Type          string            `json:"type"`
	URI           string            `json:"uri"`
}

type Playlist struct {
	Collaborative bool                `json:"collaborative"`
	Description   *string             `json:"description"`
	ExternalURLs  ExternalURLs        `json:"external_urls"`
	Followers     Followers           `json:"followers"`
	Href          string              `json:"href"`
	ID            string              `json:"id"`
	Images        []Image             `json:"images"`
	Name          string              `json:"name"`
	Owner         User                `json:"owner"`
	Public        *bool               `json:"public"`
	SnapshotID    string              `json:"snapshot_id"`
	Tracks        Page[PlaylistTrack] `json:"tracks"`
	Type          string              `json:"type"`
	URI           string              `json:"uri"`
}

// PlaylistTrack is an entry of a playlist. Track is nil for items that are no
// longer available.
type PlaylistTrack struct {
	AddedAt string `json:"added_at"`
	AddedBy *User  `json:"added_by"`
	IsLocal bool   `json:"is_local"`
	Track   *Track `json:"track"`
}

// Snapshot identifies a playlist version after a modification.
type Snapshot struct {
	SnapshotID string `json:"snapshot_id"`
}

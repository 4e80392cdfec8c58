package model

type Image struct {
	URL    string `json:"url"`
	Height *int   `json:"height"`
	Width  *int   `json:"width"`
}

type ExternalURLs struct {
	Spotify string `json:"spotify"`
}

type ExternalIDs struct {
	ISRC string `json:"isrc,omitempty"`
	EAN  string `json:"ean,omitempty"`
	UPC  string `json:"upc,omitempty"`
}

type Followers struct {
	Href  *string `json:"href"`
	Total int     `json:"total"`
}

type SimplifiedArtist struct {
	ExternalURLs ExternalURLs `json:"external_urls"`
	Href         string       `json:"href"`
	ID           string       `json:"id"`
	Name         string       `json:"name"`
	Type         string       `json:"type"`
	URI          string       `json:"uri"`
}

type Artist struct {
	ExternalURLs ExternalURLs `json:"external_urls"`
	Followers    Followers    `json:"followers"`
	Genres       []string     `json:"genres"`
	Href         string       `json:"href"`
	ID           string       `json:"id"`
	Images       []Image      `json:"images"`
	Name         string       `json:"name"`
	// Popularity ranges from 0 to 100.
	Popularity int    `json:"popularity"`
	Type       string `json:"type"`
	URI        string `json:"uri"`
}

type Artists struct {
	Artists []Artist `json:"artists"`
}

type SimplifiedAlbum struct {
	AlbumType            string             `json:"album_type"`
	TotalTracks          int                `json:"total_tracks"`
	AvailableMarkets     []Market           `json:"available_markets,omitempty"`
	ExternalURLs         ExternalURLs       `json:"external_urls"`
	Href                 string             `json:"href"`
	ID                   string             `json:"id"`
	Images               []Image            `json:"images"`
	Name                 string             `json:"name"`
	ReleaseDate          string             `json:"release_date"`
	ReleaseDatePrecision string             `json:"release_date_precision"`
	Type                 string             `json:"type"`
	URI                  string             `json:"uri"`
	Artists              []SimplifiedArtist `json:"artists"`
	// AlbumGroup is only set on artist album listings.
	AlbumGroup string `json:"album_group,omitempty"`
}

type Album struct {
	SimplifiedAlbum
	Tracks      Page[SimplifiedTrack] `json:"tracks"`
	Genres      []string              `json:"genres"`
	Label       string                `json:"label"`
	Popularity  int                   `json:"popularity"`
	ExternalIDs ExternalIDs           `json:"external_ids"`
}

type Albums struct {
	Albums []Album `json:"albums"`
}

type SimplifiedTrack struct {
	Artists          []SimplifiedArtist `json:"artists"`
	AvailableMarkets []Market           `json:"available_markets,omitempty"`
	DiscNumber       int                `json:"disc_number"`
	DurationMS       int                `json:"duration_ms"`
	Explicit         bool               `json:"explicit"`
	ExternalURLs     ExternalURLs       `json:"external_urls"`
	Href             string             `json:"href"`
	ID               string             `json:"id"`
	IsPlayable       *bool              `json:"is_playable,omitempty"`
	Name             string             `json:"name"`
	PreviewURL       *string            `json:"preview_url"`
	TrackNumber      int                `json:"track_number"`
	Type             string             `json:"type"`
	URI              string             `json:"uri"`
	IsLocal          bool               `json:"is_local"`
}

type Track struct {
	SimplifiedTrack
	Album       SimplifiedAlbum `json:"album"`
	ExternalIDs ExternalIDs     `json:"external_ids"`
	Popularity  int             `json:"popularity"`
}

type Tracks struct {
	Tracks []Track `json:"tracks"`
}

// SavedTrack is a track in the user's library.
type SavedTrack struct {
	AddedAt string `json:"added_at"`
	Track   Track  `json:"track"`
}

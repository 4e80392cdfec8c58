// Package model contains the Spotify Web API data types.
package model

// Page is one page of a paged collection.
type Page[T any] struct {
	// Href is the Web API link to the full result of the request.
	Href string `json:"href"`
	// Limit is the maximum number of items in the response.
	Limit int `json:"limit"`
	// Next is the URL of the next page, nil on the last page.
	Next   *string `json:"next"`
	Offset int     `json:"offset"`
	// Previous is the URL of the previous page, nil on the first page.
	Previous *string `json:"previous"`
	// Total is the number of items available on the server.
	Total int `json:"total"`
	Items []T `json:"items"`
}

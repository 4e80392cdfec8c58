package model

import (
	"fmt"
	"strings"
)

// Market is an ISO 3166-1 alpha-2 country code, or "from_token" to use the
// country of the current user.
type Market string

// MarketFromToken selects the market of the user the token belongs to.
const MarketFromToken Market = "from_token"

// ParseMarket validates and normalizes a market code.
func ParseMarket(s string) (Market, error) {
	s = strings.TrimSpace(s)
	if strings.EqualFold(s, string(MarketFromToken)) {
		return MarketFromToken, nil
	}
	if len(s) != 2 || !isASCIILetter(s[0]) || !isASCIILetter(s[1]) {
		return "", fmt.Errorf("invalid market %q: expected a two-letter country code", s)
	}
	return Market(strings.ToUpper(s)), nil
}

// ParamValue returns the query string form of the market.
func (m Market) ParamValue() string { return string(m) }

func isASCIILetter(c byte) bool {
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

// Markets lists the markets where Spotify is available.
type Markets struct {
	Markets []Market `json:"markets"`
}

// IncludeGroup filters the album types returned for an artist.
type IncludeGroup string

const (
	IncludeGroupAlbum       IncludeGroup = "album"
	IncludeGroupSingle      IncludeGroup = "single"
	IncludeGroupAppearsOn   IncludeGroup = "appears_on"
	IncludeGroupCompilation IncludeGroup = "compilation"
)

func (g IncludeGroup) ParamValue() string { return string(g) }

// ParseIncludeGroups parses a comma separated list of include groups.
func ParseIncludeGroups(s string) ([]IncludeGroup, error) {
	var out []IncludeGroup
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		switch g := IncludeGroup(strings.ToLower(part)); g {
		case IncludeGroupAlbum, IncludeGroupSingle, IncludeGroupAppearsOn, IncludeGroupCompilation:
			out = append(out, g)
		default:
			return nil, fmt.Errorf("invalid include group %q: expected album, single, appears_on or compilation", part)
		}
	}
	return out, nil
}

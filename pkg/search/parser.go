package search

import (
	"slices"
	"strings"
)

// SearchFilters holds the extracted filters and the remaining clean query
type SearchFilters struct {
	Tags          []string
	FavoritesOnly bool
	SearchQuery   string // The remaining text to match in title/content
}

// ParseQuery extracts inline filters from the raw query string
// Supported:
// #<tag> OR /tag:<tag> -> Filter by tag (repeatable, all must match)
// /fav                 -> Favorites only
// <text>               -> Remaining text is the SearchQuery
func ParseQuery(raw string) SearchFilters {
	filters := SearchFilters{}
	var cleanParts []string

	for _, part := range strings.Fields(raw) {
		lowerPart := strings.ToLower(part)

		switch {
		case strings.HasPrefix(part, "#") && len(part) > 1:
			filters.Tags = appendTag(filters.Tags, part[1:])
		case strings.HasPrefix(lowerPart, "/tag:") && len(part) > len("/tag:"):
			filters.Tags = appendTag(filters.Tags, part[len("/tag:"):])
		case lowerPart == "/fav":
			filters.FavoritesOnly = true
		default:
			cleanParts = append(cleanParts, part)
		}
	}

	filters.SearchQuery = strings.Join(cleanParts, " ")
	return filters
}

// MergeTags combines explicitly selected tags with inline ones, keeping the
// first occurrence of each.
func MergeTags(explicit, inline []string) []string {
	merged := make([]string, 0, len(explicit)+len(inline))
	for _, t := range append(slices.Clone(explicit), inline...) {
		merged = appendTag(merged, t)
	}
	return merged
}

func appendTag(tags []string, tag string) []string {
	tag = strings.TrimSpace(tag)
	if tag == "" || slices.Contains(tags, tag) {
		return tags
	}
	return append(tags, tag)
}

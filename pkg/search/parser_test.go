package search

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseQuery(t *testing.T) {
	tests := []struct {
		name      string
		raw       string
		wantQuery string
		wantTags  []string
		wantFav   bool
	}{
		{
			name:      "plain text",
			raw:       "linear algebra",
			wantQuery: "linear algebra",
		},
		{
			name:      "hash tags",
			raw:       "#math eigen #exam",
			wantQuery: "eigen",
			wantTags:  []string{"math", "exam"},
		},
		{
			name:      "slash tag and favorites",
			raw:       "/tag:physics /FAV waves",
			wantQuery: "waves",
			wantTags:  []string{"physics"},
			wantFav:   true,
		},
		{
			name:      "duplicate tags collapsed",
			raw:       "#a #a /tag:a",
			wantQuery: "",
			wantTags:  []string{"a"},
		},
		{
			name:      "bare hash kept as text",
			raw:       "# heading",
			wantQuery: "# heading",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ParseQuery(tt.raw)
			assert.Equal(t, tt.wantQuery, got.SearchQuery)
			assert.Equal(t, tt.wantTags, got.Tags)
			assert.Equal(t, tt.wantFav, got.FavoritesOnly)
		})
	}
}

func TestMergeTags(t *testing.T) {
	assert.Equal(t, []string{"a", "b", "c"}, MergeTags([]string{"a", "b"}, []string{"b", "c"}))
	assert.Empty(t, MergeTags(nil, nil))
}

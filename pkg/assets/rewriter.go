// Package assets rewrites editor preview URLs back to the stable relative
// paths that are stored in document content.
package assets

import (
	"net/url"
	"path"
	"regexp"
	"sort"
	"strings"

	"notehub-engine/internal/entity"
)

// ephemeralURL matches URLs that only exist for the lifetime of an editor
// session: object URLs and the desktop shell's asset protocol.
var ephemeralURL = regexp.MustCompile(`(?:blob:[^\s)"'<>]+|asset://localhost/[^\s)"'<>]+|https?://asset\.localhost/[^\s)"'<>]+)`)

// Rewrite replaces every known preview URL in content with its relative path.
// Ephemeral URLs that are not listed verbatim are matched by file name against
// the document's assets. It returns the rewritten content and the number of
// replacements made.
func Rewrite(content string, known []entity.Asset) (string, int) {
	if content == "" || len(known) == 0 {
		return content, 0
	}

	exact := make(map[string]string, len(known))
	byName := make(map[string]string, len(known))
	for _, a := range known {
		if a.RelativePath == "" {
			continue
		}
		if a.PreviewURL != "" {
			exact[a.PreviewURL] = a.RelativePath
		}
		byName[path.Base(a.RelativePath)] = a.RelativePath
	}

	count := 0

	// Longest preview URLs first so one URL that prefixes another cannot win.
	previews := make([]string, 0, len(exact))
	for u := range exact {
		previews = append(previews, u)
	}
	sort.Slice(previews, func(i, j int) bool { return len(previews[i]) > len(previews[j]) })
	for _, u := range previews {
		if n := strings.Count(content, u); n > 0 {
			content = strings.ReplaceAll(content, u, exact[u])
			count += n
		}
	}

	if !isEphemeral(content) {
		return content, count
	}
	content = ephemeralURL.ReplaceAllStringFunc(content, func(raw string) string {
		if rel, ok := byName[fileName(raw)]; ok {
			count++
			return rel
		}
		return raw
	})

	return content, count
}

// isEphemeral reports whether s contains a session-only preview URL.
func isEphemeral(s string) bool {
	return ephemeralURL.MatchString(s)
}

func fileName(raw string) string {
	trimmed := raw
	if i := strings.IndexAny(trimmed, "?#"); i >= 0 {
		trimmed = trimmed[:i]
	}
	if decoded, err := url.PathUnescape(trimmed); err == nil {
		trimmed = decoded
	}
	return path.Base(trimmed)
}

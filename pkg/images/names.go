package images

import (
	"net/url"
	"path"
	"regexp"
	"strconv"
	"strings"

	"github.com/google/uuid"
)

// NamePolicy selects how downloaded image files are named.
type NamePolicy string

const (
	// NameSequential produces deterministic <prefix>_<index><ext> names.
	NameSequential NamePolicy = "seq"
	// NameRandom produces collision-resistant <uuid><ext> names.
	NameRandom NamePolicy = "random"
)

var nonPrefixChars = regexp.MustCompile(`[^a-z0-9_]`)

// TitlePrefix derives a safe filename prefix from the post title:
// lowercased, whitespace to underscores, non-alphanumerics stripped,
// capped at 10 characters. Empty results fall back to "image".
func TitlePrefix(title string) string {
	prefix := strings.ToLower(strings.TrimSpace(title))
	prefix = strings.ReplaceAll(prefix, " ", "_")
	prefix = nonPrefixChars.ReplaceAllString(prefix, "")
	if len(prefix) > 10 {
		prefix = prefix[:10]
	}
	if prefix == "" {
		return "image"
	}
	return prefix
}

// extension returns the file extension of the URL path, ignoring any
// query string, defaulting to ".jpg".
func extension(rawURL string) string {
	trimmed := rawURL
	if i := strings.IndexByte(trimmed, '?'); i >= 0 {
		trimmed = trimmed[:i]
	}
	if u, err := url.Parse(trimmed); err == nil {
		trimmed = u.Path
	}
	if ext := path.Ext(trimmed); ext != "" {
		return ext
	}
	return ".jpg"
}

// fileName builds the local filename for the image at rawURL. index is
// the 1-based position of the image in traversal order and only used by
// the sequential policy.
func fileName(policy NamePolicy, prefix string, index int, rawURL string) string {
	ext := extension(rawURL)
	if policy == NameRandom {
		return uuid.NewString() + ext
	}
	return prefix + "_" + strconv.Itoa(index) + ext
}

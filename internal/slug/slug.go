package slug

import (
	"strings"
)

// Slugify converts s to a file-name safe slug: runs of characters outside
// [A-Za-z0-9] collapse to a single '_', the result is trimmed of leading and
// trailing '_' and capped at 40 runes. Case is kept so exported file names
// still read like the party name.
func Slugify(s string) string {
	if s == "" {
		return s
	}
	out := make([]rune, 0, len(s))
	prevUnderscore := false
	for _, r := range s {
		if (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') {
			prevUnderscore = false
			out = append(out, r)
		} else if !prevUnderscore {
			out = append(out, '_')
			prevUnderscore = true
		}
		if len(out) >= 40 {
			break
		}
	}
	return strings.Trim(string(out), "_")
}

// FileName joins a prefix, the slugged name and optional suffix parts with '_'
// and appends ext. An empty slug falls back to "party".
func FileName(prefix, name string, ext string, parts ...string) string {
	s := Slugify(name)
	if s == "" {
		s = "party"
	}
	segs := append([]string{prefix, s}, parts...)
	return strings.Join(segs, "_") + ext
}

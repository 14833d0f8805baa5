// Package handles generates collision-free asset handles and remembers the
// handle issued for each logical asset.
package handles

import (
	"path"
	"strconv"
	"strings"
)

// fallback replaces a handle part that slugs to nothing, as non-ASCII names do.
const fallback = "asset"

// Prefix derives the default handle prefix from a namespace:
// `Acme\Widget` -> "acme-widget".
func Prefix(namespace string) string {
	return orFallback(slug(namespace))
}

// Sanitize turns an asset file name into the name part of a handle:
// "css/Admin Panel.min.css" -> "admin-panel-min".
func Sanitize(file string) string {
	base := path.Base(strings.ReplaceAll(file, `\`, "/"))
	if ext := path.Ext(base); ext != "" && ext != base {
		base = strings.TrimSuffix(base, ext)
	}
	return orFallback(slug(base))
}

// Generate returns prefix-name, or prefix-name-N with the smallest N >= 1
// for which taken reports false.
func Generate(prefix, name string, taken func(string) bool) string {
	base := orFallback(join(prefix, name))
	if taken == nil || !taken(base) {
		return base
	}
	for i := 1; ; i++ {
		candidate := base + "-" + strconv.Itoa(i)
		if !taken(candidate) {
			return candidate
		}
	}
}

func join(prefix, name string) string {
	switch {
	case prefix == "":
		return name
	case name == "":
		return prefix
	default:
		return prefix + "-" + name
	}
}

func orFallback(s string) string {
	if s == "" {
		return fallback
	}
	return s
}

// slug lower-cases s and collapses every run of non [a-z0-9] into one dash.
func slug(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	dash := false
	for _, r := range strings.ToLower(s) {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
			dash = false
			continue
		}
		if !dash && b.Len() > 0 {
			b.WriteByte('-')
			dash = true
		}
	}
	return strings.TrimSuffix(b.String(), "-")
}

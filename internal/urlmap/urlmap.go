// Package urlmap translates filesystem paths under known roots into public URLs.
package urlmap

import (
	"path/filepath"
	"strings"
)

// Well-known root names.
const (
	RootContent = "content"
	RootInstall = "install"
	RootPlugins = "plugins"
)

// Root pairs a directory with the base URL it is served from.
type Root struct {
	Name string
	Dir  string
	URL  string
}

// Translator maps paths to URLs using an ordered set of roots.
type Translator struct {
	roots []Root
}

// New creates a translator. Roots with an empty Dir or URL are ignored.
func New(roots ...Root) *Translator {
	t := &Translator{roots: make([]Root, 0, len(roots))}
	for _, r := range roots {
		if r.Dir == "" || r.URL == "" {
			continue
		}
		t.roots = append(t.roots, Root{
			Name: r.Name,
			Dir:  filepath.Clean(r.Dir),
			URL:  strings.TrimRight(r.URL, "/"),
		})
	}
	return t
}

// Roots returns the configured roots in declaration order.
func (t *Translator) Roots() []Root {
	if t == nil {
		return nil
	}
	return append([]Root(nil), t.roots...)
}

// URLFor returns the public URL for path. When roots nest, the longest
// matching directory wins; ties keep declaration order.
func (t *Translator) URLFor(path string) (string, bool) {
	if t == nil || path == "" {
		return "", false
	}
	path = filepath.Clean(path)

	best := -1
	for i, r := range t.roots {
		if !within(path, r.Dir) {
			continue
		}
		if best < 0 || len(r.Dir) > len(t.roots[best].Dir) {
			best = i
		}
	}
	if best < 0 {
		return "", false
	}

	root := t.roots[best]
	rel, err := filepath.Rel(root.Dir, path)
	if err != nil {
		return "", false
	}
	if rel == "." {
		return root.URL, true
	}
	return root.URL + "/" + filepath.ToSlash(rel), true
}

// PathFor is the inverse of URLFor.
func (t *Translator) PathFor(url string) (string, bool) {
	if t == nil || url == "" {
		return "", false
	}
	url = strings.TrimRight(url, "/")

	best := -1
	for i, r := range t.roots {
		if url != r.URL && !strings.HasPrefix(url, r.URL+"/") {
			continue
		}
		if best < 0 || len(r.URL) > len(t.roots[best].URL) {
			best = i
		}
	}
	if best < 0 {
		return "", false
	}

	root := t.roots[best]
	rel := strings.TrimPrefix(strings.TrimPrefix(url, root.URL), "/")
	if rel == "" {
		return root.Dir, true
	}
	return filepath.Join(root.Dir, filepath.FromSlash(rel)), true
}

// within reports whether path equals dir or lies below it.
func within(path, dir string) bool {
	if path == dir {
		return true
	}
	if !strings.HasSuffix(dir, string(filepath.Separator)) {
		dir += string(filepath.Separator)
	}
	return strings.HasPrefix(path, dir)
}

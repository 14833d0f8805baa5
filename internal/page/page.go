// Package page is an in-memory asset list for a single page render. It plays
// the host platform's part for the enqueue service: it records enqueued
// scripts and styles, holds localization data, and renders the HTML tags.
package page

import (
	"errors"
	"fmt"
	"html/template"
	"io"
	"regexp"
	"strings"
	"sync"

	"github.com/zjrosen/assetq/internal/domain/assets"
)

var (
	ErrEmptyHandle       = errors.New("handle is required")
	ErrInvalidObjectName = errors.New("object name must be a JavaScript identifier")
)

var identRe = regexp.MustCompile(`^[A-Za-z_$][A-Za-z0-9_$]*$`)

type key struct {
	kind   assets.Kind
	handle string
}

type localized struct {
	Name template.JS
	Data any
}

// Assets is the asset list of one page.
type Assets struct {
	mu         sync.Mutex
	registered map[key]assets.Asset
	enqueued   map[key]bool
	order      []key
	data       map[string][]localized
}

// New creates an empty page.
func New() *Assets {
	return &Assets{
		registered: make(map[key]assets.Asset),
		enqueued:   make(map[key]bool),
		data:       make(map[string][]localized),
	}
}

// Enqueue registers a and marks it for output.
func (p *Assets) Enqueue(a assets.Asset) error {
	if a.Handle == "" {
		return ErrEmptyHandle
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	k := key{kind: a.Kind, handle: a.Handle}
	if _, ok := p.registered[k]; !ok {
		p.order = append(p.order, k)
	}
	a.Deps = append([]string(nil), a.Deps...)
	p.registered[k] = a
	p.enqueued[k] = true
	return nil
}

// Dequeue stops a handle from being output. It stays registered.
func (p *Assets) Dequeue(kind assets.Kind, handle string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	delete(p.enqueued, key{kind: kind, handle: handle})
}

// IsEnqueued reports whether handle will be output.
func (p *Assets) IsEnqueued(kind assets.Kind, handle string) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.enqueued[key{kind: kind, handle: handle}]
}

// IsRegistered reports whether handle is known to the page, enqueued or not.
func (p *Assets) IsRegistered(kind assets.Kind, handle string) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	_, ok := p.registered[key{kind: kind, handle: handle}]
	return ok
}

// HasData reports whether localization data is attached to a script handle.
func (p *Assets) HasData(handle string) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.data[handle]) > 0
}

// AddData attaches data to a script handle under the JavaScript variable objectName.
func (p *Assets) AddData(handle, objectName string, data any) error {
	if !identRe.MatchString(objectName) {
		return fmt.Errorf("%w: %q", ErrInvalidObjectName, objectName)
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if _, ok := p.registered[key{kind: assets.KindScript, handle: handle}]; !ok {
		return fmt.Errorf("script %q: %w", handle, assets.ErrHandleNotRegistered)
	}
	p.data[handle] = append(p.data[handle], localized{Name: template.JS(objectName), Data: data}) //nolint:gosec // objectName matched identRe
	return nil
}

// Asset returns the registered asset for handle.
func (p *Assets) Asset(kind assets.Kind, handle string) (assets.Asset, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	a, ok := p.registered[key{kind: kind, handle: handle}]
	return a, ok
}

// Enqueued returns the enqueued assets of kind in enqueue order.
func (p *Assets) Enqueued(kind assets.Kind) []assets.Asset {
	p.mu.Lock()
	defer p.mu.Unlock()

	var out []assets.Asset
	for _, k := range p.order {
		if k.kind == kind && p.enqueued[k] {
			out = append(out, p.registered[k])
		}
	}
	return out
}

// Reset forgets everything, as at the start of a new render.
func (p *Assets) Reset() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.registered = make(map[key]assets.Asset)
	p.enqueued = make(map[key]bool)
	p.order = nil
	p.data = make(map[string][]localized)
}

type scriptView struct {
	Handle string
	Src    string
	Data   []localized
}

type styleView struct {
	Handle string
	Href   string
	Media  string
}

type pageView struct {
	Styles []styleView
	Head   []scriptView
	Footer []scriptView
}

var tagsTmpl = template.Must(template.New("tags").Parse(
	`{{define "script"}}{{range .Data}}<script id="{{$.Handle}}-js-extra">var {{.Name}} = {{.Data}};</script>
{{end}}<script id="{{.Handle}}-js" src="{{.Src}}"></script>
{{end}}` +
		`{{range .Styles}}<link rel="stylesheet" id="{{.Handle}}-css" href="{{.Href}}" media="{{.Media}}">
{{end}}{{range .Head}}{{template "script" .}}{{end}}{{range .Footer}}{{template "script" .}}{{end}}`))

// Render writes the page's style and script tags: styles, then header
// scripts, then footer scripts, each group in enqueue order.
func (p *Assets) Render(w io.Writer) error {
	p.mu.Lock()
	var view pageView
	for _, k := range p.order {
		if !p.enqueued[k] {
			continue
		}
		a := p.registered[k]
		switch a.Kind {
		case assets.KindStyle:
			media := a.Media
			if media == "" {
				media = "all"
			}
			view.Styles = append(view.Styles, styleView{Handle: a.Handle, Href: withVersion(a.Src, a.Version), Media: media})
		case assets.KindScript:
			sv := scriptView{Handle: a.Handle, Src: withVersion(a.Src, a.Version), Data: p.data[a.Handle]}
			if a.InFooter {
				view.Footer = append(view.Footer, sv)
			} else {
				view.Head = append(view.Head, sv)
			}
		}
	}
	p.mu.Unlock()

	return tagsTmpl.Execute(w, view)
}

func withVersion(src, version string) string {
	if version == "" {
		return src
	}
	sep := "?"
	if strings.Contains(src, "?") {
		sep = "&"
	}
	return src + sep + "ver=" + version
}

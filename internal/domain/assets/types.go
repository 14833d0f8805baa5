package assets

import (
	"fmt"
	"strings"
)

// DefaultVersion is used when cache busting is off or no better version exists.
const DefaultVersion = "1.0.0"

// Kind distinguishes scripts from stylesheets.
type Kind int

const (
	// KindScript is a JavaScript file.
	KindScript Kind = iota
	// KindStyle is a CSS stylesheet.
	KindStyle
)

// String returns a human-readable representation of the Kind.
func (k Kind) String() string {
	switch k {
	case KindScript:
		return "script"
	case KindStyle:
		return "style"
	default:
		return "unknown"
	}
}

// ParseKind parses "script"/"js" or "style"/"css".
func ParseKind(s string) (Kind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "script", "js":
		return KindScript, nil
	case "style", "css":
		return KindStyle, nil
	default:
		return 0, fmt.Errorf("invalid asset kind %q (must be \"script\" or \"style\")", s)
	}
}

// VersionStrategy selects how cache-busting versions are derived.
type VersionStrategy int

const (
	// StrategyUnset defers to the configured default.
	StrategyUnset VersionStrategy = iota
	// StrategyFilemtime uses the file's modification time.
	StrategyFilemtime
	// StrategyStatic uses the configured static version.
	StrategyStatic
)

// String returns the configuration spelling of the strategy.
func (s VersionStrategy) String() string {
	switch s {
	case StrategyUnset:
		return ""
	case StrategyFilemtime:
		return "filemtime"
	case StrategyStatic:
		return "static"
	default:
		return "unknown"
	}
}

// ParseVersionStrategy parses "filemtime" or "static". Empty yields StrategyUnset.
func ParseVersionStrategy(s string) (VersionStrategy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "":
		return StrategyUnset, nil
	case "filemtime":
		return StrategyFilemtime, nil
	case "static":
		return StrategyStatic, nil
	default:
		return 0, fmt.Errorf("invalid version strategy %q (must be \"filemtime\" or \"static\")", s)
	}
}

// Options is the per-namespace configuration supplied at registration.
type Options struct {
	VersionStrategy VersionStrategy
	CacheBusting    *bool    // nil = true
	HandlePrefix    string   // empty = derived from the namespace
	Version         string   // static version, empty = DefaultVersion
	Packages        []string // Go import-path prefixes bound to the namespace
}

// DefaultOptions returns filemtime versioning with cache busting on.
func DefaultOptions() Options {
	return Options{
		VersionStrategy: StrategyFilemtime,
		CacheBusting:    Bool(true),
		Version:         DefaultVersion,
	}
}

// IsCacheBusting reports whether cache busting is enabled (defaults to true if nil).
func (o Options) IsCacheBusting() bool {
	return o.CacheBusting == nil || *o.CacheBusting
}

// WithDefaults fills keys the caller left unset from defaults.
func (o Options) WithDefaults(defaults Options) Options {
	if o.VersionStrategy == StrategyUnset {
		o.VersionStrategy = defaults.VersionStrategy
	}
	if o.VersionStrategy == StrategyUnset {
		o.VersionStrategy = StrategyFilemtime
	}
	if o.CacheBusting == nil {
		o.CacheBusting = defaults.CacheBusting
	}
	if o.HandlePrefix == "" {
		o.HandlePrefix = defaults.HandlePrefix
	}
	if o.Version == "" {
		o.Version = defaults.Version
	}
	if o.Version == "" {
		o.Version = DefaultVersion
	}
	return o.clone()
}

// clone returns o with its pointer and slice fields copied.
func (o Options) clone() Options {
	if o.CacheBusting != nil {
		o.CacheBusting = Bool(*o.CacheBusting)
	}
	if o.Packages != nil {
		o.Packages = append([]string(nil), o.Packages...)
	}
	return o
}

// Bool returns a pointer to b.
func Bool(b bool) *bool {
	return &b
}

// Asset is what gets handed to the host page for output.
type Asset struct {
	Kind     Kind
	Handle   string
	Src      string
	Deps     []string
	Version  string
	InFooter bool   // scripts only
	Media    string // styles only, empty = "all"
}

// AssetKey identifies one logical asset of a namespace.
type AssetKey struct {
	Namespace string
	Kind      Kind
	File      string
}

func (k AssetKey) String() string {
	return k.Namespace + "::" + k.Kind.String() + "::" + k.File
}

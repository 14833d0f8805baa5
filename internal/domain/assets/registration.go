package assets

// Registration maps a namespace to its assets directory and base URL.
type Registration struct {
	namespace string  // e.g., "Acme\Widget"
	path      string  // absolute assets directory
	url       string  // absolute base URL, empty if none could be derived
	options   Options // resolved, never partially unset
}

// NewRegistration creates a registration. opts should already carry defaults.
func NewRegistration(namespace, path, url string, opts Options) *Registration {
	return &Registration{
		namespace: namespace,
		path:      path,
		url:       url,
		options:   opts.clone(),
	}
}

// Namespace returns the registration key.
func (r *Registration) Namespace() string {
	return r.namespace
}

// Path returns the absolute assets directory.
func (r *Registration) Path() string {
	return r.path
}

// URL returns the assets base URL without a trailing slash.
func (r *Registration) URL() string {
	return r.url
}

// Options returns a copy of the resolved registration options.
func (r *Registration) Options() Options {
	return r.options.clone()
}

// HasURL reports whether a base URL is known.
func (r *Registration) HasURL() bool {
	return r.url != ""
}

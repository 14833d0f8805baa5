package assets

import (
	"errors"
	"sort"
)

// Registry errors
var (
	ErrEmptyNamespace         = errors.New("namespace is required")
	ErrNamespaceNotRegistered = errors.New("namespace not registered")
	ErrNoAssetsPath           = errors.New("no assets path could be determined")
	ErrNoURLRoot              = errors.New("no URL root matches the assets path")
	ErrAssetNotFound          = errors.New("asset file not found")
	ErrNoCallerNamespace      = errors.New("no registered namespace matches the caller")
	ErrHandleNotRegistered    = errors.New("handle not registered with the host")
	ErrAlreadyLocalized       = errors.New("data already attached to handle")
	ErrNilRegistration        = errors.New("registration cannot be nil")
)

// Registry holds registrations keyed by namespace.
type Registry struct {
	registrations map[string]*Registration
}

// NewRegistry creates a new empty registry
func NewRegistry() *Registry {
	return &Registry{
		registrations: make(map[string]*Registration),
	}
}

// Put stores reg, replacing any registration with the same namespace.
// Reports whether an earlier registration was replaced.
func (r *Registry) Put(reg *Registration) (bool, error) {
	if reg == nil {
		return false, ErrNilRegistration
	}
	if reg.Namespace() == "" {
		return false, ErrEmptyNamespace
	}

	_, replaced := r.registrations[reg.Namespace()]
	r.registrations[reg.Namespace()] = reg
	return replaced, nil
}

// Get returns the registration for namespace.
func (r *Registry) Get(namespace string) (*Registration, error) {
	reg, ok := r.registrations[namespace]
	if !ok {
		return nil, ErrNamespaceNotRegistered
	}
	return reg, nil
}

// Has reports whether namespace is registered.
func (r *Registry) Has(namespace string) bool {
	_, ok := r.registrations[namespace]
	return ok
}

// Delete removes namespace. Reports whether it was present.
func (r *Registry) Delete(namespace string) bool {
	_, ok := r.registrations[namespace]
	delete(r.registrations, namespace)
	return ok
}

// Clear removes every registration.
func (r *Registry) Clear() {
	r.registrations = make(map[string]*Registration)
}

// Len returns the number of registrations.
func (r *Registry) Len() int {
	return len(r.registrations)
}

// List returns all registrations sorted by namespace
func (r *Registry) List() []*Registration {
	result := make([]*Registration, 0, len(r.registrations))
	for _, reg := range r.registrations {
		result = append(result, reg)
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].Namespace() < result[j].Namespace()
	})
	return result
}

// Namespaces returns all registered namespaces, sorted.
func (r *Registry) Namespaces() []string {
	names := make([]string, 0, len(r.registrations))
	for ns := range r.registrations {
		names = append(names, ns)
	}
	sort.Strings(names)
	return names
}

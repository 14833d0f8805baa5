// Package enqueue registers asset namespaces and enqueues their scripts and
// stylesheets onto a host page.
//
// A Service is an explicit registry object: create one per process (or per
// test) and pass it to the code that needs it. Every operation fails by
// returning a sentinel error from the assets domain package; nothing panics,
// and callers that do not care whether an asset loaded may ignore the error.
package enqueue

import (
	"context"
	"fmt"
	"path"
	"path/filepath"
	"strings"
	"sync"

	"github.com/spf13/afero"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"

	"github.com/zjrosen/assetq/internal/callerns"
	"github.com/zjrosen/assetq/internal/domain/assets"
	"github.com/zjrosen/assetq/internal/handles"
	"github.com/zjrosen/assetq/internal/log"
	"github.com/zjrosen/assetq/internal/tracing"
	"github.com/zjrosen/assetq/internal/urlmap"
	"github.com/zjrosen/assetq/internal/version"
)

// assetsDirName is the directory looked for when no assets path is given.
const assetsDirName = "assets"

// maxAssetsDirLevels bounds the upward search for an assets directory.
const maxAssetsDirLevels = 3

// Host is the page-side asset registry that enqueued assets are handed to.
type Host interface {
	Enqueue(a assets.Asset) error
	IsEnqueued(kind assets.Kind, handle string) bool
	IsRegistered(kind assets.Kind, handle string) bool
	Asset(kind assets.Kind, handle string) (assets.Asset, bool)
	HasData(handle string) bool
	AddData(handle, objectName string, data any) error
}

// EnqueueOptions are the per-call settings of an enqueue.
type EnqueueOptions struct {
	Deps         []string
	Version      string // explicit version, used verbatim
	InFooter     bool   // scripts only
	Media        string // styles only
	HandlePrefix string // overrides the registration's prefix
}

// Option configures a Service.
type Option func(*Service)

// WithFs sets the filesystem used for existence and mtime checks.
func WithFs(fs afero.Fs) Option {
	return func(s *Service) { s.fs = fs }
}

// WithRoots sets the translator used to derive URLs from assets paths.
func WithRoots(t *urlmap.Translator) Option {
	return func(s *Service) { s.roots = t }
}

// WithDefaults sets the options applied to registrations that leave keys unset.
func WithDefaults(opts assets.Options) Option {
	return func(s *Service) { s.defaults = opts }
}

// WithTracer sets the tracer for register/enqueue/localize spans.
func WithTracer(t trace.Tracer) Option {
	return func(s *Service) { s.tracer = t }
}

// WithResolver sets the caller-namespace resolver.
func WithResolver(r *callerns.Resolver) Option {
	return func(s *Service) { s.resolver = r }
}

// Service holds namespace registrations and the handles issued for them.
type Service struct {
	mu       sync.RWMutex
	host     Host
	fs       afero.Fs
	roots    *urlmap.Translator
	defaults assets.Options
	registry *assets.Registry
	tracker  *handles.Tracker
	resolver *callerns.Resolver
	tracer   trace.Tracer
}

// New creates a service that enqueues onto host.
func New(host Host, opts ...Option) *Service {
	s := &Service{
		host:     host,
		fs:       afero.NewOsFs(),
		roots:    urlmap.New(),
		defaults: assets.DefaultOptions(),
		registry: assets.NewRegistry(),
		tracker:  handles.NewTracker(),
		resolver: callerns.New(),
		tracer:   noop.NewTracerProvider().Tracer("noop"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Register maps namespace to an assets directory and base URL, replacing any
// earlier registration of the namespace.
//
// An empty path is derived from the caller's source file: the nearest
// "assets" directory at or above it. An empty url is derived from the
// configured roots; when none matches the registration still succeeds but
// URL lookups fail with assets.ErrNoURLRoot. opts may be nil.
func (s *Service) Register(ctx context.Context, namespace, assetsPath, url string, opts *assets.Options) error {
	var callerFile string
	if assetsPath == "" {
		callerFile, _ = callerns.CallerFile(0)
	}

	_, span := s.tracer.Start(ctx, tracing.SpanRegister,
		trace.WithAttributes(attribute.String(tracing.AttrNamespace, namespace)))
	defer span.End()

	err := s.register(ctx, namespace, assetsPath, url, opts, callerFile)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		log.Warn(log.CatRegistry, "register failed", "namespace", namespace, "error", err)
		return err
	}
	span.SetStatus(codes.Ok, "")
	return nil
}

func (s *Service) register(ctx context.Context, namespace, assetsPath, url string, opts *assets.Options, callerFile string) error {
	if namespace == "" {
		return assets.ErrEmptyNamespace
	}

	if assetsPath == "" {
		found, ok := s.findAssetsDir(callerFile)
		if !ok {
			return fmt.Errorf("register %q: %w", namespace, assets.ErrNoAssetsPath)
		}
		assetsPath = found
	}
	if !filepath.IsAbs(assetsPath) {
		abs, err := filepath.Abs(assetsPath)
		if err != nil {
			return fmt.Errorf("register %q: %w", namespace, assets.ErrNoAssetsPath)
		}
		assetsPath = abs
	}
	assetsPath = filepath.Clean(assetsPath)

	if ok, _ := afero.DirExists(s.fs, assetsPath); !ok {
		return fmt.Errorf("register %q: %s: %w", namespace, assetsPath, assets.ErrNoAssetsPath)
	}

	if url == "" {
		if derived, ok := s.roots.URLFor(assetsPath); ok {
			url = derived
		} else {
			log.Warn(log.CatRegistry, "no URL root matches assets path", "namespace", namespace, "path", assetsPath)
		}
	}
	url = strings.TrimRight(url, "/")

	var o assets.Options
	if opts != nil {
		o = *opts
	}
	o = o.WithDefaults(s.defaults)

	s.mu.Lock()
	defer s.mu.Unlock()

	replaced, err := s.registry.Put(assets.NewRegistration(namespace, assetsPath, url, o))
	if err != nil {
		return err
	}
	// A new or rebound namespace can change what any call stack resolves to.
	s.resolver.Flush(ctx)
	log.Info(log.CatRegistry, "registered namespace",
		"namespace", namespace, "path", assetsPath, "url", url, "replaced", replaced)
	return nil
}

// findAssetsDir looks for an assets directory next to file or up to
// maxAssetsDirLevels parents above it.
func (s *Service) findAssetsDir(file string) (string, bool) {
	if file == "" {
		return "", false
	}
	dir := filepath.Dir(file)
	for i := 0; i <= maxAssetsDirLevels; i++ {
		candidate := filepath.Join(dir, assetsDirName)
		if ok, _ := afero.DirExists(s.fs, candidate); ok {
			return candidate, true
		}
		next := filepath.Dir(dir)
		if next == dir {
			break
		}
		dir = next
	}
	return "", false
}

// Clear removes namespace and the handles issued for it, and forgets memoized
// caller namespaces. Other registrations are untouched.
func (s *Service) Clear(namespace string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	removed := s.registry.Delete(namespace)
	n := s.tracker.ClearNamespace(namespace)
	s.resolver.Flush(context.Background())
	log.Debug(log.CatRegistry, "cleared namespace", "namespace", namespace, "removed", removed, "handles", n)
}

// ClearAll empties the registrations, the issued handles and the
// caller-namespace memo.
func (s *Service) ClearAll(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.registry.Clear()
	s.tracker.Clear()
	s.resolver.Flush(ctx)
	log.Debug(log.CatRegistry, "cleared all namespaces")
}

// Registration returns the registration for namespace.
func (s *Service) Registration(namespace string) (*assets.Registration, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.registry.Get(namespace)
}

// Registrations returns all registrations sorted by namespace.
func (s *Service) Registrations() []*assets.Registration {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.registry.List()
}

// Handle returns the handle issued for an asset, if any.
func (s *Service) Handle(kind assets.Kind, namespace, file string) (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.tracker.Get(assets.AssetKey{Namespace: namespace, Kind: kind, File: cleanFile(file)})
}

// EnqueueScript enqueues a script file relative to the namespace's assets path
// and returns its handle.
func (s *Service) EnqueueScript(ctx context.Context, namespace, file string, opts EnqueueOptions) (string, error) {
	return s.enqueue(ctx, assets.KindScript, namespace, file, opts)
}

// EnqueueStyle enqueues a stylesheet file relative to the namespace's assets
// path and returns its handle.
func (s *Service) EnqueueStyle(ctx context.Context, namespace, file string, opts EnqueueOptions) (string, error) {
	return s.enqueue(ctx, assets.KindStyle, namespace, file, opts)
}

func (s *Service) enqueue(ctx context.Context, kind assets.Kind, namespace, file string, opts EnqueueOptions) (string, error) {
	file = cleanFile(file)

	_, span := s.tracer.Start(ctx, tracing.SpanEnqueue, trace.WithAttributes(
		attribute.String(tracing.AttrNamespace, namespace),
		attribute.String(tracing.AttrKind, kind.String()),
		attribute.String(tracing.AttrFile, file),
	))
	defer span.End()

	handle, deduped, err := s.doEnqueue(kind, namespace, file, opts)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		log.Warn(log.CatEnqueue, "enqueue failed",
			"kind", kind, "namespace", namespace, "file", file, "error", err)
		return "", err
	}

	span.SetAttributes(
		attribute.String(tracing.AttrHandle, handle),
		attribute.Bool(tracing.AttrDeduped, deduped),
	)
	span.SetStatus(codes.Ok, "")
	return handle, nil
}

func (s *Service) doEnqueue(kind assets.Kind, namespace, file string, opts EnqueueOptions) (string, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	reg, err := s.registry.Get(namespace)
	if err != nil {
		return "", false, fmt.Errorf("enqueue %s %q: %w", kind, namespace, err)
	}

	key := assets.AssetKey{Namespace: namespace, Kind: kind, File: file}
	handle, tracked := s.tracker.Get(key)
	if tracked && !s.owns(key, handle) {
		log.Debug(log.CatEnqueue, "handle taken at host, reissuing", "handle", handle)
		tracked = false
	}
	if tracked && s.host.IsEnqueued(kind, handle) {
		log.Debug(log.CatEnqueue, "already enqueued", "handle", handle)
		return handle, true, nil
	}

	abs, err := s.locate(reg, file)
	if err != nil {
		return "", false, err
	}
	if !reg.HasURL() {
		return "", false, fmt.Errorf("enqueue %s %q: %w", kind, namespace, assets.ErrNoURLRoot)
	}

	if !tracked {
		prefix := opts.HandlePrefix
		if prefix == "" {
			prefix = reg.Options().HandlePrefix
		}
		if prefix == "" {
			prefix = handles.Prefix(namespace)
		}
		handle = handles.Generate(prefix, handles.Sanitize(file), func(h string) bool {
			return s.host.IsRegistered(kind, h) || s.tracker.Issued(kind, h)
		})
	}

	asset := assets.Asset{
		Kind:     kind,
		Handle:   handle,
		Src:      reg.URL() + "/" + file,
		Deps:     opts.Deps,
		Version:  version.Resolve(s.fs, abs, opts.Version, reg.Options()),
		InFooter: opts.InFooter,
		Media:    opts.Media,
	}
	if err := s.host.Enqueue(asset); err != nil {
		return "", false, fmt.Errorf("enqueue %s %q: %w", kind, handle, err)
	}
	s.tracker.Record(key, handle, asset.Src)

	log.Debug(log.CatEnqueue, "enqueued", "kind", kind, "handle", handle, "src", asset.Src, "version", asset.Version)
	return handle, false, nil
}

// owns reports whether the host's entry under handle, if any, is the one the
// service last handed over for key.
func (s *Service) owns(key assets.AssetKey, handle string) bool {
	held, ok := s.host.Asset(key.Kind, handle)
	if !ok {
		return true
	}
	src, _ := s.tracker.Src(key)
	return held.Src == src
}

// GetAssetURL returns the public URL of file when it exists under the
// namespace's assets path.
func (s *Service) GetAssetURL(namespace, file string) (string, error) {
	file = cleanFile(file)

	s.mu.RLock()
	defer s.mu.RUnlock()

	reg, err := s.registry.Get(namespace)
	if err != nil {
		return "", fmt.Errorf("asset url %q: %w", namespace, err)
	}
	if _, err := s.locate(reg, file); err != nil {
		return "", err
	}
	if !reg.HasURL() {
		return "", fmt.Errorf("asset url %q: %w", namespace, assets.ErrNoURLRoot)
	}
	return reg.URL() + "/" + file, nil
}

// GetAssetPath returns the absolute path of file when it exists under the
// namespace's assets path.
func (s *Service) GetAssetPath(namespace, file string) (string, error) {
	file = cleanFile(file)

	s.mu.RLock()
	defer s.mu.RUnlock()

	reg, err := s.registry.Get(namespace)
	if err != nil {
		return "", fmt.Errorf("asset path %q: %w", namespace, err)
	}
	return s.locate(reg, file)
}

// AssetVersion returns the version an enqueue of file would carry now.
func (s *Service) AssetVersion(namespace, file string) (string, error) {
	file = cleanFile(file)

	s.mu.RLock()
	defer s.mu.RUnlock()

	reg, err := s.registry.Get(namespace)
	if err != nil {
		return "", fmt.Errorf("asset version %q: %w", namespace, err)
	}
	abs, err := s.locate(reg, file)
	if err != nil {
		return "", err
	}
	return version.Resolve(s.fs, abs, "", reg.Options()), nil
}

// Localize attaches data to an enqueued script handle as the JavaScript
// variable objectName. Data can be attached to a handle once.
func (s *Service) Localize(ctx context.Context, handle, objectName string, data any) error {
	_, span := s.tracer.Start(ctx, tracing.SpanLocalize,
		trace.WithAttributes(attribute.String(tracing.AttrHandle, handle)))
	defer span.End()

	err := s.localize(handle, objectName, data)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		log.Warn(log.CatEnqueue, "localize failed", "handle", handle, "object", objectName, "error", err)
		return err
	}
	span.SetStatus(codes.Ok, "")
	return nil
}

func (s *Service) localize(handle, objectName string, data any) error {
	if !s.host.IsRegistered(assets.KindScript, handle) {
		return fmt.Errorf("localize %q: %w", handle, assets.ErrHandleNotRegistered)
	}
	if s.host.HasData(handle) {
		return fmt.Errorf("localize %q: %w", handle, assets.ErrAlreadyLocalized)
	}
	if err := s.host.AddData(handle, objectName, data); err != nil {
		return fmt.Errorf("localize %q: %w", handle, err)
	}
	return nil
}

// Match implements callerns.Index. pkgPath matches a namespace when it equals
// the normalized namespace or one of its bound package prefixes.
func (s *Service) Match(pkgPath string) (string, bool) {
	want := callerns.Normalize(pkgPath)

	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, reg := range s.registry.List() {
		if callerns.Normalize(reg.Namespace()) == want {
			return reg.Namespace(), true
		}
		for _, pkg := range reg.Options().Packages {
			if callerns.Normalize(pkg) == want {
				return reg.Namespace(), true
			}
		}
	}
	return "", false
}

// Registered implements callerns.Index.
func (s *Service) Registered(namespace string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.registry.Has(namespace)
}

// ForCaller returns the scope of the namespace the calling package belongs to.
func (s *Service) ForCaller(ctx context.Context) (*Scope, error) {
	ns, err := s.resolver.Resolve(ctx, 1, s)
	if err != nil {
		log.Debug(log.CatResolver, "caller namespace not found", "error", err)
		return nil, fmt.Errorf("%w: %w", assets.ErrNoCallerNamespace, err)
	}
	return s.Scope(ns), nil
}

// locate returns the absolute path of file under reg, failing when the file
// is missing or escapes the assets directory.
func (s *Service) locate(reg *assets.Registration, file string) (string, error) {
	if file == "" || file == "." || file == ".." || strings.HasPrefix(file, "../") {
		return "", fmt.Errorf("%q: %w", file, assets.ErrAssetNotFound)
	}
	abs := filepath.Join(reg.Path(), filepath.FromSlash(file))
	if ok, _ := afero.Exists(s.fs, abs); !ok {
		return "", fmt.Errorf("%s: %w", abs, assets.ErrAssetNotFound)
	}
	if isDir, _ := afero.IsDir(s.fs, abs); isDir {
		return "", fmt.Errorf("%s is a directory: %w", abs, assets.ErrAssetNotFound)
	}
	return abs, nil
}

// cleanFile normalizes a relative asset path to forward slashes without a
// leading slash.
func cleanFile(file string) string {
	file = strings.ReplaceAll(file, `\`, "/")
	file = strings.TrimLeft(file, "/")
	if file == "" {
		return ""
	}
	return path.Clean(file)
}

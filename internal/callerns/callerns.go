// Package callerns infers which registered namespace a caller belongs to by
// walking its call stack.
//
// A Go caller's namespace is its import path. The immediate caller's package
// path is tried first, followed by successively shorter parent paths; when
// nothing matches, the remaining frames are scanned outward the same way.
// The first match wins, so two libraries sharing a registered parent path can
// be misattributed. Prefer explicit package bindings to avoid that.
package callerns

import (
	"context"
	"errors"
	"runtime"
	"strconv"
	"strings"

	"github.com/zjrosen/assetq/internal/cachemanager"
	"github.com/zjrosen/assetq/internal/log"
)

// maxDepth bounds the number of frames inspected.
const maxDepth = 32

// ErrNoMatch is returned when no frame belongs to a registered namespace.
var ErrNoMatch = errors.New("no namespace matches the call stack")

// Index answers namespace questions for the resolver.
type Index interface {
	// Match returns the namespace registered or bound under the package path.
	Match(pkgPath string) (string, bool)
	// Registered reports whether namespace is still registered.
	Registered(namespace string) bool
}

type fingerprint string

type resolveInput struct {
	pcs   []uintptr
	index Index
}

// Resolver memoizes resolutions per call-stack shape. The memo has no
// eviction; it only shrinks on Flush.
type Resolver struct {
	memo *cachemanager.ReadThroughCache[fingerprint, string, resolveInput]
}

// New creates a resolver with an empty memo.
func New() *Resolver {
	cache := cachemanager.NewInMemoryCacheManager[fingerprint, string]("caller-namespace", cachemanager.NoExpiration, 0)
	return &Resolver{
		memo: cachemanager.NewReadThroughCache[fingerprint, string, resolveInput](cache, resolve, false),
	}
}

// Resolve returns the namespace of the function that called Resolve, skipping
// skip additional frames.
func (r *Resolver) Resolve(ctx context.Context, skip int, index Index) (string, error) {
	pcs := make([]uintptr, maxDepth)
	// +2 skips runtime.Callers and Resolve itself.
	n := runtime.Callers(skip+2, pcs)
	if n == 0 {
		return "", ErrNoMatch
	}
	pcs = pcs[:n]

	key := fingerprintOf(pcs)
	input := resolveInput{pcs: pcs, index: index}

	ns, err := r.memo.Get(ctx, key, input, cachemanager.NoExpiration)
	if err != nil {
		return "", err
	}
	if index.Registered(ns) {
		return ns, nil
	}

	// Cached namespace was cleared since; resolve again.
	log.Debug(log.CatResolver, "stale caller namespace", "namespace", ns)
	_ = r.memo.Invalidate(ctx, key)
	return r.memo.Get(ctx, key, input, cachemanager.NoExpiration)
}

// Flush empties the memo.
func (r *Resolver) Flush(ctx context.Context) {
	_ = r.memo.Flush(ctx)
}

// Len returns the number of memoized call-stack shapes.
func (r *Resolver) Len() int {
	return r.memo.Len()
}

func resolve(ctx context.Context, in resolveInput) (string, error) {
	frames := runtime.CallersFrames(in.pcs)
	first := true
	for {
		frame, more := frames.Next()
		if pkg := PackagePath(frame.Function); pkg != "" {
			if ns, ok := MatchPrefixes(pkg, in.index); ok {
				log.Debug(log.CatResolver, "resolved caller namespace",
					"namespace", ns, "package", pkg, "fallback", !first)
				return ns, nil
			}
		}
		first = false
		if !more {
			break
		}
	}
	return "", ErrNoMatch
}

// MatchPrefixes tries pkgPath and then each shorter parent path against index.
func MatchPrefixes(pkgPath string, index Index) (string, bool) {
	for candidate := pkgPath; candidate != ""; candidate = parent(candidate) {
		if ns, ok := index.Match(candidate); ok {
			return ns, true
		}
	}
	return "", false
}

func parent(pkgPath string) string {
	i := strings.LastIndexByte(pkgPath, '/')
	if i < 0 {
		return ""
	}
	return pkgPath[:i]
}

// PackagePath extracts the import path from a runtime function name such as
// "github.com/acme/widget.(*Asset).Load.func1".
func PackagePath(funcName string) string {
	if funcName == "" {
		return ""
	}
	slash := strings.LastIndexByte(funcName, '/')
	rest := funcName[slash+1:]
	dot := strings.IndexByte(rest, '.')
	if dot < 0 {
		return ""
	}
	// The runtime escapes dots in the last path element.
	return strings.ReplaceAll(funcName[:slash+1+dot], "%2e", ".")
}

// CallerFile returns the source file of the caller's caller, skipping skip
// additional frames.
func CallerFile(skip int) (string, bool) {
	_, file, _, ok := runtime.Caller(skip + 2)
	return file, ok && file != ""
}

func fingerprintOf(pcs []uintptr) fingerprint {
	var b strings.Builder
	for i, pc := range pcs {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteString(strconv.FormatUint(uint64(pc), 16))
	}
	return fingerprint(b.String())
}

// Normalize folds a namespace or package path for comparison:
// `Acme\Widget` and "acme/widget" both become "acme/widget".
func Normalize(s string) string {
	s = strings.ReplaceAll(s, `\`, "/")
	return strings.ToLower(strings.Trim(s, "/"))
}

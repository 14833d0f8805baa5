package enqueue

import (
	"context"
	"fmt"

	"github.com/zjrosen/assetq/internal/domain/assets"
)

// Scope is a Service bound to one namespace, so call sites never repeat it.
type Scope struct {
	svc       *Service
	namespace string
}

// Scope binds the service to namespace. The namespace does not have to be
// registered yet; operations fail until it is.
func (s *Service) Scope(namespace string) *Scope {
	return &Scope{svc: s, namespace: namespace}
}

// Namespace returns the bound namespace.
func (sc *Scope) Namespace() string {
	return sc.namespace
}

func (sc *Scope) EnqueueScript(ctx context.Context, file string, opts EnqueueOptions) (string, error) {
	return sc.svc.EnqueueScript(ctx, sc.namespace, file, opts)
}

func (sc *Scope) EnqueueStyle(ctx context.Context, file string, opts EnqueueOptions) (string, error) {
	return sc.svc.EnqueueStyle(ctx, sc.namespace, file, opts)
}

func (sc *Scope) URL(file string) (string, error) {
	return sc.svc.GetAssetURL(sc.namespace, file)
}

func (sc *Scope) Path(file string) (string, error) {
	return sc.svc.GetAssetPath(sc.namespace, file)
}

// Localize attaches data to the handle issued for the script file.
func (sc *Scope) Localize(ctx context.Context, file, objectName string, data any) error {
	handle, ok := sc.svc.Handle(assets.KindScript, sc.namespace, file)
	if !ok {
		return fmt.Errorf("localize %q: %w", file, assets.ErrHandleNotRegistered)
	}
	return sc.svc.Localize(ctx, handle, objectName, data)
}

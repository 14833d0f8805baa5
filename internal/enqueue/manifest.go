package enqueue

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"

	"github.com/spf13/afero"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"gopkg.in/yaml.v3"

	"github.com/zjrosen/assetq/internal/domain/assets"
	"github.com/zjrosen/assetq/internal/log"
	"github.com/zjrosen/assetq/internal/tracing"
)

// ManifestFile is the root structure of an assets manifest.
type ManifestFile struct {
	Namespaces []ManifestEntry `yaml:"namespaces"`
}

// ManifestEntry declares one namespace registration.
type ManifestEntry struct {
	Namespace       string   `yaml:"namespace"`        // e.g., "Acme\Widget"
	Path            string   `yaml:"path"`             // assets directory, relative to the manifest
	URL             string   `yaml:"url"`              // optional, derived from roots when empty
	VersionStrategy string   `yaml:"version_strategy"` // "filemtime" or "static"
	CacheBusting    *bool    `yaml:"cache_busting"`    // nil = default
	HandlePrefix    string   `yaml:"handle_prefix"`
	Version         string   `yaml:"version"`
	Packages        []string `yaml:"packages"` // Go import paths bound to the namespace
}

// Options converts the entry's configuration keys.
func (e ManifestEntry) Options() (assets.Options, error) {
	strategy, err := assets.ParseVersionStrategy(e.VersionStrategy)
	if err != nil {
		return assets.Options{}, err
	}
	return assets.Options{
		VersionStrategy: strategy,
		CacheBusting:    e.CacheBusting,
		HandlePrefix:    e.HandlePrefix,
		Version:         e.Version,
		Packages:        e.Packages,
	}, nil
}

// LoadManifest reads and parses the manifest at path. Relative entry paths
// are resolved against the manifest's directory.
func LoadManifest(fs afero.Fs, path string) ([]ManifestEntry, error) {
	content, err := afero.ReadFile(fs, path)
	if err != nil {
		return nil, fmt.Errorf("read manifest %s: %w", path, err)
	}
	entries, err := ParseManifest(content, filepath.Dir(path))
	if err != nil {
		return nil, fmt.Errorf("manifest %s: %w", path, err)
	}
	return entries, nil
}

// ParseManifest parses manifest YAML and validates each entry.
func ParseManifest(content []byte, baseDir string) ([]ManifestEntry, error) {
	var file ManifestFile
	if err := yaml.Unmarshal(content, &file); err != nil {
		return nil, fmt.Errorf("parse: %w", err)
	}

	seen := make(map[string]bool, len(file.Namespaces))
	for i := range file.Namespaces {
		e := &file.Namespaces[i]
		if e.Namespace == "" {
			return nil, fmt.Errorf("entry %d: namespace is required", i)
		}
		if seen[e.Namespace] {
			return nil, fmt.Errorf("entry %d (%s): duplicate namespace", i, e.Namespace)
		}
		seen[e.Namespace] = true
		if e.Path == "" {
			return nil, fmt.Errorf("entry %d (%s): path is required", i, e.Namespace)
		}
		if _, err := e.Options(); err != nil {
			return nil, fmt.Errorf("entry %d (%s): %w", i, e.Namespace, err)
		}
		if !filepath.IsAbs(e.Path) && baseDir != "" {
			e.Path = filepath.Join(baseDir, e.Path)
		}
	}
	return file.Namespaces, nil
}

// RegisterManifest registers every entry. Failing entries do not stop the
// rest; their errors are joined.
func (s *Service) RegisterManifest(ctx context.Context, entries []ManifestEntry) error {
	ctx, span := s.tracer.Start(ctx, tracing.SpanManifest,
		trace.WithAttributes(attribute.Int("assetq.entries", len(entries))))
	defer span.End()

	var errs []error
	for _, e := range entries {
		opts, err := e.Options()
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", e.Namespace, err))
			continue
		}
		if err := s.Register(ctx, e.Namespace, e.Path, e.URL, &opts); err != nil {
			errs = append(errs, err)
		}
	}

	log.Info(log.CatConfig, "manifest registered", "entries", len(entries), "failed", len(errs))
	return errors.Join(errs...)
}

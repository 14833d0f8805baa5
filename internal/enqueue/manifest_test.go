package enqueue

import (
	"context"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/require"

	"github.com/zjrosen/assetq/internal/domain/assets"
)

const testManifest = `namespaces:
  - namespace: 'Acme\Widget'
    path: assets
    handle_prefix: acme
  - namespace: Static
    path: /pkg/assets
    url: https://cdn.example.com/static/
    version_strategy: static
    version: 2.0.0
    cache_busting: false
    packages:
      - github.com/acme/static
`

func TestParseManifest(t *testing.T) {
	entries, err := ParseManifest([]byte(testManifest), "/pkg")
	require.NoError(t, err)
	require.Len(t, entries, 2)

	require.Equal(t, `Acme\Widget`, entries[0].Namespace)
	require.Equal(t, "/pkg/assets", entries[0].Path, "relative paths resolve against the manifest dir")
	require.Equal(t, "acme", entries[0].HandlePrefix)
	require.Nil(t, entries[0].CacheBusting)

	opts, err := entries[1].Options()
	require.NoError(t, err)
	require.Equal(t, assets.StrategyStatic, opts.VersionStrategy)
	require.False(t, opts.IsCacheBusting())
	require.Equal(t, "2.0.0", opts.Version)
	require.Equal(t, []string{"github.com/acme/static"}, opts.Packages)
}

func TestParseManifest_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		content string
		wantErr string
	}{
		{
			name:    "missing namespace",
			content: "namespaces:\n  - path: assets\n",
			wantErr: "namespace is required",
		},
		{
			name:    "missing path",
			content: "namespaces:\n  - namespace: Acme\n",
			wantErr: "path is required",
		},
		{
			name:    "duplicate namespace",
			content: "namespaces:\n  - namespace: Acme\n    path: a\n  - namespace: Acme\n    path: b\n",
			wantErr: "duplicate namespace",
		},
		{
			name:    "unknown strategy",
			content: "namespaces:\n  - namespace: Acme\n    path: a\n    version_strategy: hourly\n",
			wantErr: "hourly",
		},
		{
			name:    "not yaml",
			content: "namespaces: [",
			wantErr: "parse",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseManifest([]byte(tt.content), "/pkg")
			require.Error(t, err)
			require.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestLoadManifest(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "/pkg/assetq.yaml", []byte(testManifest), 0o644))

	entries, err := LoadManifest(fs, "/pkg/assetq.yaml")
	require.NoError(t, err)
	require.Len(t, entries, 2)
	require.Equal(t, "/pkg/assets", entries[0].Path)

	_, err = LoadManifest(fs, "/pkg/missing.yaml")
	require.Error(t, err)
	require.Contains(t, err.Error(), "read manifest")
}

func TestRegisterManifest(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	entries, err := ParseManifest([]byte(testManifest), "/pkg")
	require.NoError(t, err)
	require.NoError(t, f.svc.RegisterManifest(ctx, entries))

	reg, err := f.svc.Registration(`Acme\Widget`)
	require.NoError(t, err)
	require.Equal(t, "https://example.com/pkg/assets", reg.URL())

	reg, err = f.svc.Registration("Static")
	require.NoError(t, err)
	require.Equal(t, "https://cdn.example.com/static", reg.URL())

	h, err := f.svc.EnqueueStyle(ctx, "Static", "admin.css", EnqueueOptions{})
	require.NoError(t, err)
	require.Equal(t, "static-admin", h)
	a, ok := f.host.Asset(assets.KindStyle, h)
	require.True(t, ok)
	require.Equal(t, assets.DefaultVersion, a.Version, "cache busting disabled")
}

func TestRegisterManifest_JoinsFailures(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	entries := []ManifestEntry{
		{Namespace: "Missing", Path: "/nowhere"},
		{Namespace: "Good", Path: "/pkg/assets"},
		{Namespace: "Bad", Path: "/pkg/assets", VersionStrategy: "weekly"},
	}
	err := f.svc.RegisterManifest(ctx, entries)
	require.Error(t, err)
	require.ErrorIs(t, err, assets.ErrNoAssetsPath)
	require.Contains(t, err.Error(), "weekly")

	_, err = f.svc.Registration("Good")
	require.NoError(t, err, "valid entries register despite failures")
	require.Len(t, f.svc.Registrations(), 1)
}

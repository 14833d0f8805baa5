package page

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/zjrosen/assetq/internal/domain/assets"
)

func TestAssets_EnqueueAndQuery(t *testing.T) {
	p := New()
	require.NoError(t, p.Enqueue(assets.Asset{Kind: assets.KindStyle, Handle: "acme-admin", Src: "https://x/admin.css"}))

	require.True(t, p.IsRegistered(assets.KindStyle, "acme-admin"))
	require.True(t, p.IsEnqueued(assets.KindStyle, "acme-admin"))
	require.False(t, p.IsRegistered(assets.KindScript, "acme-admin"), "kinds have separate handle spaces")

	p.Dequeue(assets.KindStyle, "acme-admin")
	require.False(t, p.IsEnqueued(assets.KindStyle, "acme-admin"))
	require.True(t, p.IsRegistered(assets.KindStyle, "acme-admin"))
}

func TestAssets_EnqueueRequiresHandle(t *testing.T) {
	err := New().Enqueue(assets.Asset{Kind: assets.KindScript})
	require.ErrorIs(t, err, ErrEmptyHandle)
}

func TestAssets_AddData(t *testing.T) {
	p := New()

	err := p.AddData("missing", "acmeData", nil)
	require.ErrorIs(t, err, assets.ErrHandleNotRegistered)

	require.NoError(t, p.Enqueue(assets.Asset{Kind: assets.KindScript, Handle: "acme-app", Src: "/app.js"}))
	require.False(t, p.HasData("acme-app"))

	err = p.AddData("acme-app", "not valid", nil)
	require.ErrorIs(t, err, ErrInvalidObjectName)

	require.NoError(t, p.AddData("acme-app", "acmeData", map[string]string{"nonce": "abc"}))
	require.True(t, p.HasData("acme-app"))
}

func TestAssets_EnqueuedKeepsOrder(t *testing.T) {
	p := New()
	for _, h := range []string{"c", "a", "b"} {
		require.NoError(t, p.Enqueue(assets.Asset{Kind: assets.KindScript, Handle: h, Src: "/" + h + ".js"}))
	}
	require.NoError(t, p.Enqueue(assets.Asset{Kind: assets.KindStyle, Handle: "s", Src: "/s.css"}))

	var handles []string
	for _, a := range p.Enqueued(assets.KindScript) {
		handles = append(handles, a.Handle)
	}
	require.Equal(t, []string{"c", "a", "b"}, handles)
}

func TestAssets_Render(t *testing.T) {
	p := New()
	require.NoError(t, p.Enqueue(assets.Asset{Kind: assets.KindScript, Handle: "acme-footer", Src: "https://x/footer.js", Version: "2", InFooter: true}))
	require.NoError(t, p.Enqueue(assets.Asset{Kind: assets.KindScript, Handle: "acme-head", Src: "https://x/head.js?lang=en", Version: "1"}))
	require.NoError(t, p.Enqueue(assets.Asset{Kind: assets.KindStyle, Handle: "acme-admin", Src: "https://x/admin.css", Version: "1700000000", Media: "screen"}))
	require.NoError(t, p.Enqueue(assets.Asset{Kind: assets.KindStyle, Handle: "acme-print", Src: "https://x/print.css"}))
	require.NoError(t, p.AddData("acme-head", "acmeData", map[string]string{"nonce": "abc"}))

	var buf bytes.Buffer
	require.NoError(t, p.Render(&buf))
	out := buf.String()

	require.Contains(t, out, `<link rel="stylesheet" id="acme-admin-css" href="https://x/admin.css?ver=1700000000" media="screen">`)
	require.Contains(t, out, `<link rel="stylesheet" id="acme-print-css" href="https://x/print.css" media="all">`)
	require.Contains(t, out, `<script id="acme-head-js" src="https://x/head.js?lang=en&amp;ver=1"></script>`)
	require.Contains(t, out, `<script id="acme-head-js-extra">var acmeData = {"nonce":"abc"};</script>`)
	require.Contains(t, out, `<script id="acme-footer-js" src="https://x/footer.js?ver=2"></script>`)

	// styles, then header scripts (data first), then footer scripts
	styles := strings.Index(out, "acme-print-css")
	extra := strings.Index(out, "acme-head-js-extra")
	head := strings.Index(out, `id="acme-head-js"`)
	footer := strings.Index(out, "acme-footer-js")
	require.Less(t, styles, extra)
	require.Less(t, extra, head)
	require.Less(t, head, footer)
}

func TestAssets_RenderSkipsDequeued(t *testing.T) {
	p := New()
	require.NoError(t, p.Enqueue(assets.Asset{Kind: assets.KindScript, Handle: "gone", Src: "/gone.js"}))
	p.Dequeue(assets.KindScript, "gone")

	var buf bytes.Buffer
	require.NoError(t, p.Render(&buf))
	require.NotContains(t, buf.String(), "gone")
}

func TestAssets_Reset(t *testing.T) {
	p := New()
	require.NoError(t, p.Enqueue(assets.Asset{Kind: assets.KindScript, Handle: "a", Src: "/a.js"}))
	require.NoError(t, p.AddData("a", "x", 1))

	p.Reset()

	require.False(t, p.IsRegistered(assets.KindScript, "a"))
	require.False(t, p.HasData("a"))
	require.Empty(t, p.Enqueued(assets.KindScript))
}

package urlmap

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func newTestTranslator() *Translator {
	return New(
		Root{Name: RootContent, Dir: "/var/www/wp-content", URL: "https://example.com/wp-content/"},
		Root{Name: RootInstall, Dir: "/var/www", URL: "https://example.com"},
		Root{Name: RootPlugins, Dir: "/var/www/wp-content/plugins", URL: "https://cdn.example.com/plugins"},
	)
}

func TestURLFor(t *testing.T) {
	tr := newTestTranslator()

	tests := []struct {
		name string
		path string
		want string
		ok   bool
	}{
		{"install root", "/var/www/index.php", "https://example.com/index.php", true},
		{"content root trims slash", "/var/www/wp-content/themes/x/a.css", "https://example.com/wp-content/themes/x/a.css", true},
		{"most specific root wins", "/var/www/wp-content/plugins/acme/assets", "https://cdn.example.com/plugins/acme/assets", true},
		{"root itself", "/var/www/wp-content", "https://example.com/wp-content", true},
		{"unclean path", "/var/www/wp-content/../wp-content/x.js", "https://example.com/wp-content/x.js", true},
		{"no root", "/opt/other/x.js", "", false},
		{"prefix without boundary", "/var/wwwroot/x.js", "", false},
		{"empty", "", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := tr.URLFor(tt.path)
			require.Equal(t, tt.ok, ok)
			require.Equal(t, tt.want, got)
		})
	}
}

func TestURLFor_NilTranslator(t *testing.T) {
	var tr *Translator
	_, ok := tr.URLFor("/var/www/x")
	require.False(t, ok)
	require.Nil(t, tr.Roots())
}

func TestNew_SkipsIncompleteRoots(t *testing.T) {
	tr := New(
		Root{Name: RootContent, Dir: "", URL: "https://example.com"},
		Root{Name: RootInstall, Dir: "/var/www", URL: ""},
	)
	require.Empty(t, tr.Roots())
}

func TestPathFor(t *testing.T) {
	tr := newTestTranslator()

	got, ok := tr.PathFor("https://cdn.example.com/plugins/acme/app.js")
	require.True(t, ok)
	require.Equal(t, "/var/www/wp-content/plugins/acme/app.js", got)

	got, ok = tr.PathFor("https://example.com/wp-content/")
	require.True(t, ok)
	require.Equal(t, "/var/www/wp-content", got)

	_, ok = tr.PathFor("https://other.example.com/x.js")
	require.False(t, ok)
}

func TestURLFor_PathForRoundTrip(t *testing.T) {
	tr := newTestTranslator()
	path := "/var/www/wp-content/uploads/2024/file.css"

	url, ok := tr.URLFor(path)
	require.True(t, ok)
	back, ok := tr.PathFor(url)
	require.True(t, ok)
	require.Equal(t, path, back)
}

// Package version derives cache-busting version strings for assets.
package version

import (
	"strconv"

	"github.com/spf13/afero"

	"github.com/zjrosen/assetq/internal/domain/assets"
	"github.com/zjrosen/assetq/internal/log"
)

// Resolve returns the version to attach to the asset at path.
//
//   - explicit, when non-empty, is used verbatim
//   - cache busting off yields assets.DefaultVersion
//   - filemtime yields the file's modification time in Unix seconds
//   - static yields opts.Version (or assets.DefaultVersion)
//
// A file that cannot be stat'ed under filemtime falls back to the static version.
func Resolve(fs afero.Fs, path, explicit string, opts assets.Options) string {
	if explicit != "" {
		return explicit
	}
	if !opts.IsCacheBusting() {
		return assets.DefaultVersion
	}

	switch opts.VersionStrategy {
	case assets.StrategyStatic:
		return static(opts)
	default:
		info, err := fs.Stat(path)
		if err != nil {
			log.Debug(log.CatEnqueue, "filemtime unavailable, using static version", "path", path, "error", err)
			return static(opts)
		}
		return strconv.FormatInt(info.ModTime().Unix(), 10)
	}
}

func static(opts assets.Options) string {
	if opts.Version != "" {
		return opts.Version
	}
	return assets.DefaultVersion
}

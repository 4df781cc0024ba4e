package landing

import (
	"embed"
	"io/fs"
)

//go:embed assets
var assetsDir embed.FS

// Assets serves the stylesheet, script and background image under /assets.
var Assets fs.FS

func init() {
	Assets, _ = fs.Sub(assetsDir, "assets")
}

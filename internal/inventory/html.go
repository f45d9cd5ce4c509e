package inventory

import (
	"embed"
	"io/fs"
)

//go:embed static/index.html
var indexHTML []byte

//go:embed static/*.css static/*.js
var assetsFS embed.FS

// staticFS returns the embedded assets rooted at the static directory
func staticFS() fs.FS {
	fsys, err := fs.Sub(assetsFS, "static")
	if err != nil {
		panic(err)
	}
	return fsys
}

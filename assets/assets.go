// Package assets embeds the default block definitions shipped with the
// driver. A directory given on the command line replaces them.
package assets

import (
	"embed"
	"io/fs"
)

//go:embed blocks
var files embed.FS

// Blocks returns the embedded block definition tree rooted at blocks/.
func Blocks() fs.FS {
	sub, err := fs.Sub(files, "blocks")
	if err != nil {
		panic(err)
	}
	return sub
}

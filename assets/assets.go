// Package assets provides the compiled-in resource bundle.
package assets

import (
	"embed"
	"fmt"
	"io/fs"

	"github.com/desertwitch/bundlefs/bundle"
)

//go:embed data
var dataFS embed.FS

// Tree builds the resource tree of the compiled-in bundle, with
// eligible files pre-compressed the way a bundling step would have
// stored them.
func Tree() (*bundle.Entry, error) {
	sub, err := fs.Sub(dataFS, "data")
	if err != nil {
		return nil, fmt.Errorf("failed to root the bundle: %w", err)
	}

	tree, err := bundle.FromFS(sub, bundle.DefaultOptions())
	if err != nil {
		return nil, fmt.Errorf("failed to build the bundle: %w", err)
	}

	return tree, nil
}

package assets

import (
	"io"
	"testing"

	"github.com/desertwitch/bundlefs"
	"github.com/stretchr/testify/require"
)

// Expectation: The compiled-in bundle should build and serve its known
// top-level structure through the virtual filesystem.
func Test_Tree_Success(t *testing.T) {
	tree, err := Tree()
	require.NoError(t, err)
	require.NotNil(t, tree.Find("conf"))
	require.NotNil(t, tree.Find("webroot"))

	fsys := bundlefs.NewFS(tree)

	f, err := fsys.Open("webroot/index.html", true, false)
	require.NoError(t, err)
	defer f.Close()

	data, err := io.ReadAll(f)
	require.NoError(t, err)
	require.Contains(t, string(data), "resource bundle")
}

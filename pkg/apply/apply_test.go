package apply

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tetherhq/tether/pkg/config"
	"github.com/tetherhq/tether/pkg/filesystem"
	"github.com/tetherhq/tether/pkg/merge"
	"github.com/tetherhq/tether/pkg/testutil"
	"github.com/tetherhq/tether/pkg/types"
)

func newTestApplier(t *testing.T) *Applier {
	t.Helper()
	cfg, err := config.Load("")
	require.NoError(t, err)
	return NewApplier(filesystem.NewOS(), merge.NewRegistry(cfg))
}

func TestApply_AddCreatesParents(t *testing.T) {
	a := newTestApplier(t)
	root := t.TempDir()

	entry := types.ChangeEntry{
		Kind:    types.ChangeAdd,
		Path:    "packages/ui/src/index.js",
		Content: []byte("export {}\n"),
	}
	require.NoError(t, a.Apply(entry, root))
	assert.Equal(t, "export {}\n", testutil.ReadFile(t, root, "packages/ui/src/index.js"))
}

func TestApply_ModifyReplacesPlainFile(t *testing.T) {
	a := newTestApplier(t)
	root := t.TempDir()
	testutil.WriteFile(t, root, "README.md", "old")

	entry := types.ChangeEntry{
		Kind:    types.ChangeModify,
		Path:    "README.md",
		Content: []byte("new"),
	}
	require.NoError(t, a.Apply(entry, root))
	assert.Equal(t, "new", testutil.ReadFile(t, root, "README.md"))
}

func TestApply_ManifestGoesThroughMerge(t *testing.T) {
	a := newTestApplier(t)
	root := t.TempDir()
	testutil.WriteFile(t, root, "package.json", `{
  "name": "my-project",
  "dependencies": {
    "lodash": "^4.0.0"
  }
}`)

	entry := types.ChangeEntry{
		Kind: types.ChangeModify,
		Path: "package.json",
		Content: []byte(`{
  "name": "template",
  "dependencies": {
    "react": "^18.0.0"
  }
}`),
	}
	require.NoError(t, a.Apply(entry, root))

	got := testutil.ReadFile(t, root, "package.json")
	// name is protected, dependencies are merged.
	assert.Contains(t, got, `"name": "my-project"`)
	assert.Contains(t, got, `"lodash"`)
	assert.Contains(t, got, `"react"`)
}

func TestApply_ManifestAddWithoutCurrent(t *testing.T) {
	a := newTestApplier(t)
	root := t.TempDir()

	entry := types.ChangeEntry{
		Kind:    types.ChangeAdd,
		Path:    "packages/ui/package.json",
		Content: []byte(`{"name": "ui"}`),
	}
	require.NoError(t, a.Apply(entry, root))
	assert.Equal(t, `{"name": "ui"}`, testutil.ReadFile(t, root, "packages/ui/package.json"))
}

func TestApply_Delete(t *testing.T) {
	a := newTestApplier(t)
	root := t.TempDir()
	testutil.WriteFile(t, root, "stale.txt", "x")

	entry := types.ChangeEntry{Kind: types.ChangeDelete, Path: "stale.txt"}
	require.NoError(t, a.Apply(entry, root))

	_, err := os.Stat(filepath.Join(root, "stale.txt"))
	assert.True(t, os.IsNotExist(err))
}

func TestApply_DeleteAbsentIsNoop(t *testing.T) {
	a := newTestApplier(t)
	entry := types.ChangeEntry{Kind: types.ChangeDelete, Path: "never/existed.txt"}
	assert.NoError(t, a.Apply(entry, t.TempDir()))
}

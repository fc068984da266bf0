package scaffold

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tetherhq/tether/pkg/config"
	"github.com/tetherhq/tether/pkg/filesystem"
	"github.com/tetherhq/tether/pkg/manifest"
	"github.com/tetherhq/tether/pkg/testutil"
)

const templateURL = "https://example.com/template.git"

func newTestScaffolder(t *testing.T, source *testutil.FakeVersionSource) *Scaffolder {
	t.Helper()
	cfg, err := config.Load("")
	require.NoError(t, err)
	return NewScaffolder(filesystem.NewOS(), cfg, source)
}

func TestInit(t *testing.T) {
	source := &testutil.FakeVersionSource{
		Head: "cccccccccccccccccccccccccccccccccccccccc",
		CloneTree: map[string]string{
			"package.json":                  `{"name": "template"}`,
			"README.md":                     "# template",
			"packages/library/package.json": `{"name": "library"}`,
			"packages/library/index.js":     "export {}\n",
			"yarn.lock":                     "locked",
			".git/HEAD":                     "ref: refs/heads/main",
		},
	}
	target := t.TempDir()

	rev, err := newTestScaffolder(t, source).Init(templateURL, target)
	require.NoError(t, err)
	assert.Equal(t, source.Head, rev)

	assert.Equal(t, "# template", testutil.ReadFile(t, target, "README.md"))
	assert.Equal(t, "export {}\n", testutil.ReadFile(t, target, "packages/library/index.js"))

	// Version-control internals and lockfiles stay behind.
	assert.NoFileExists(t, target+"/.git/HEAD")
	assert.NoFileExists(t, target+"/yarn.lock")

	// The manifest is stamped with the template origin.
	doc, err := manifest.Load(filesystem.NewOS(), target+"/package.json")
	require.NoError(t, err)
	assert.Equal(t, templateURL, doc.TemplateURL())
	assert.Equal(t, source.Head, doc.Version())
}

func TestInit_RevisionLookupFailure(t *testing.T) {
	source := &testutil.FakeVersionSource{HeadErr: errors.New("remote unreachable")}
	target := t.TempDir()

	_, err := newTestScaffolder(t, source).Init(templateURL, target)
	assert.Error(t, err)
	// Nothing was cloned.
	assert.Equal(t, []string{"head"}, source.Calls)
}

func TestInit_TemplateWithoutManifest(t *testing.T) {
	source := &testutil.FakeVersionSource{
		Head:      "dddddddddddddddddddddddddddddddddddddddd",
		CloneTree: map[string]string{"README.md": "# bare"},
	}
	_, err := newTestScaffolder(t, source).Init(templateURL, t.TempDir())
	assert.Error(t, err)
}

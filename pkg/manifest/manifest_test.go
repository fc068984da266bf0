package manifest

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tetherhq/tether/pkg/filesystem"
)

func TestParseAndBytes_PreservesKeyOrder(t *testing.T) {
	src := []byte(`{
  "zebra": "z",
  "alpha": "a",
  "nested": {
    "second": 2,
    "first": 1
  }
}
`)
	doc, err := Parse(src)
	require.NoError(t, err)
	assert.Equal(t, []string{"zebra", "alpha", "nested"}, doc.Keys())

	out, err := doc.Bytes()
	require.NoError(t, err)
	assert.Equal(t, string(src), string(out))
}

func TestParse_Invalid(t *testing.T) {
	_, err := Parse([]byte("{ not json"))
	require.Error(t, err)
}

func TestMetaAccessors(t *testing.T) {
	doc, err := Parse([]byte(`{
  "name": "my-app",
  "meta": {
    "version": "abc123",
    "template": "https://example.com/tpl.git"
  }
}`))
	require.NoError(t, err)

	assert.Equal(t, "my-app", doc.Name())
	assert.Equal(t, "abc123", doc.Version())
	assert.Equal(t, "https://example.com/tpl.git", doc.TemplateURL())
}

func TestMetaAccessors_Absent(t *testing.T) {
	doc, err := Parse([]byte(`{"name": "bare"}`))
	require.NoError(t, err)

	assert.Empty(t, doc.Version())
	assert.Empty(t, doc.TemplateURL())
}

func TestSetVersion_CreatesMeta(t *testing.T) {
	doc := New()
	doc.Set("name", "app")
	doc.SetVersion("rev42")
	doc.SetTemplateURL("https://example.com/t.git")

	// Round-trip through serialization to prove the representation
	// matches what Parse produces.
	data, err := doc.Bytes()
	require.NoError(t, err)
	reparsed, err := Parse(data)
	require.NoError(t, err)

	assert.Equal(t, "rev42", reparsed.Version())
	assert.Equal(t, "https://example.com/t.git", reparsed.TemplateURL())
}

func TestSetVersion_UpdatesExistingMeta(t *testing.T) {
	doc, err := Parse([]byte(`{"meta": {"version": "old", "template": "url"}}`))
	require.NoError(t, err)

	doc.SetVersion("new")
	assert.Equal(t, "new", doc.Version())
	assert.Equal(t, "url", doc.TemplateURL())
}

func TestIgnoredWorkspaces(t *testing.T) {
	doc, err := Parse([]byte(`{
  "meta": {
    "version": "r",
    "ignore": ["./packages/legacy", "apps/sandbox"]
  }
}`))
	require.NoError(t, err)

	ignored := doc.IgnoredWorkspaces("/project")
	assert.True(t, ignored[filepath.Join("/project", "packages/legacy")])
	assert.True(t, ignored[filepath.Join("/project", "apps/sandbox")])
	assert.Len(t, ignored, 2)
}

func TestIgnoredWorkspaces_AbsentOrMalformed(t *testing.T) {
	doc, err := Parse([]byte(`{"meta": {"version": "r"}}`))
	require.NoError(t, err)
	assert.Empty(t, doc.IgnoredWorkspaces("/project"))

	doc, err = Parse([]byte(`{"meta": {"ignore": "not-a-list"}}`))
	require.NoError(t, err)
	assert.Empty(t, doc.IgnoredWorkspaces("/project"))
}

func TestLoadAndSave(t *testing.T) {
	fs := filesystem.NewOS()
	dir := t.TempDir()
	path := filepath.Join(dir, "package.json")

	doc := New()
	doc.Set("name", "roundtrip")
	doc.SetVersion("r1")
	require.NoError(t, doc.Save(fs, path))

	loaded, err := Load(fs, path)
	require.NoError(t, err)
	assert.Equal(t, "roundtrip", loaded.Name())
	assert.Equal(t, "r1", loaded.Version())
}

func TestLoad_Missing(t *testing.T) {
	fs := filesystem.NewOS()
	_, err := Load(fs, filepath.Join(t.TempDir(), "package.json"))
	require.Error(t, err)
}

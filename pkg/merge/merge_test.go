package merge

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tetherhq/tether/pkg/config"
	"github.com/tetherhq/tether/pkg/manifest"
)

func newTestMerger(t *testing.T) *Merger {
	t.Helper()
	cfg, err := config.Load("")
	require.NoError(t, err)
	return NewMerger(cfg)
}

func TestMerge_ProtectedFieldsKeepCurrent(t *testing.T) {
	m := newTestMerger(t)

	current := []byte(`{"name": "my-app", "version": "1.2.3", "license": "MIT"}`)
	incoming := []byte(`{"name": "template", "version": "0.0.1", "license": "Apache-2.0", "author": "template-team"}`)

	merged, err := manifest.Parse(m.Merge(current, incoming))
	require.NoError(t, err)

	name, _ := merged.Get("name")
	assert.Equal(t, "my-app", name)
	version, _ := merged.Get("version")
	assert.Equal(t, "1.2.3", version)
	license, _ := merged.Get("license")
	assert.Equal(t, "MIT", license)

	// A protected key absent from the current document stays absent.
	_, ok := merged.Get("author")
	assert.False(t, ok)
}

func TestMerge_NewMergeCandidateSubKeys(t *testing.T) {
	m := newTestMerger(t)

	current := []byte(`{"name": "app"}`)
	incoming := []byte(`{"dependencies": {"react": "^17"}}`)

	out := m.Merge(current, incoming)
	assert.NotContains(t, string(out), "<<<<<<<")

	merged, err := manifest.Parse(out)
	require.NoError(t, err)
	deps, ok := merged.Get("dependencies")
	require.True(t, ok)
	assert.False(t, HasChanged(deps, map[string]interface{}{"react": "^17"}))
}

func TestMerge_DivergentSubKeyEmitsConflict(t *testing.T) {
	m := newTestMerger(t)

	current := []byte(`{"scripts": {"dev": "a", "build": "x"}}`)
	incoming := []byte(`{"scripts": {"dev": "b", "build": "x"}}`)

	out := string(m.Merge(current, incoming))

	// build is untouched, dev is conflicted with the local value on
	// the local side and the template value annotated.
	assert.Contains(t, out, `"build": "x"`)
	assert.Contains(t, out, "<<<<<<< Local Package")
	assert.Contains(t, out, `"dev": "a"`)
	assert.Contains(t, out, "=======")
	assert.Contains(t, out, `"dev": "b"`)
	assert.Contains(t, out, "// from template")
	assert.Contains(t, out, ">>>>>>> Template")
	assert.Equal(t, 1, strings.Count(out, "<<<<<<< Local Package"))
}

func TestMerge_EqualSubKeysRaiseNoConflict(t *testing.T) {
	m := newTestMerger(t)

	current := []byte(`{"dependencies": {"react": "^17", "lodash": "^4"}}`)
	incoming := []byte(`{"dependencies": {"lodash": "^4", "react": "^17", "zod": "^3"}}`)

	out := m.Merge(current, incoming)
	assert.NotContains(t, string(out), "<<<<<<<")

	merged, err := manifest.Parse(out)
	require.NoError(t, err)
	deps, _ := merged.Get("dependencies")
	assert.False(t, HasChanged(deps, map[string]interface{}{
		"react":  "^17",
		"lodash": "^4",
		"zod":    "^3",
	}))
}

func TestMerge_OtherKeysReplacedByIncoming(t *testing.T) {
	m := newTestMerger(t)

	current := []byte(`{"main": "index.js", "keep": "me"}`)
	incoming := []byte(`{"main": "dist/index.js", "engines": {"node": ">=18"}}`)

	merged, err := manifest.Parse(m.Merge(current, incoming))
	require.NoError(t, err)

	main, _ := merged.Get("main")
	assert.Equal(t, "dist/index.js", main)

	// New keys flow straight through.
	_, ok := merged.Get("engines")
	assert.True(t, ok)

	// Keys only in the current document survive.
	keep, _ := merged.Get("keep")
	assert.Equal(t, "me", keep)
}

func TestMerge_MetaIsNeverTemplateOwned(t *testing.T) {
	m := newTestMerger(t)

	current := []byte(`{"meta": {"version": "rev1", "template": "https://example.com/t.git"}}`)
	incoming := []byte(`{"meta": {"version": "rev9"}}`)

	merged, err := manifest.Parse(m.Merge(current, incoming))
	require.NoError(t, err)
	assert.Equal(t, "rev1", merged.Version())
	assert.Equal(t, "https://example.com/t.git", merged.TemplateURL())
}

func TestMerge_UnparseableFallsBackToCurrent(t *testing.T) {
	m := newTestMerger(t)

	current := []byte("<<<<<<< not json")
	incoming := []byte(`{"name": "tpl"}`)
	assert.Equal(t, current, m.Merge(current, incoming))

	current = []byte(`{"name": "app"}`)
	incoming = []byte("{ broken")
	assert.Equal(t, current, m.Merge(current, incoming))
}

func TestMerge_ConflictCounterIncrements(t *testing.T) {
	m := newTestMerger(t)

	current := []byte(`{"scripts": {"dev": "a"}, "dependencies": {"react": "^16"}}`)
	incoming := []byte(`{"scripts": {"dev": "b"}, "dependencies": {"react": "^17"}}`)

	out := string(m.Merge(current, incoming))
	assert.Equal(t, 2, strings.Count(out, "<<<<<<< Local Package"))
	assert.Equal(t, 2, strings.Count(out, ">>>>>>> Template"))
}

func TestMerge_EndToEndScenario(t *testing.T) {
	m := newTestMerger(t)

	current := []byte(`{"name": "app", "scripts": {"dev": "a", "build": "x"}}`)
	incoming := []byte(`{"name": "tpl", "scripts": {"dev": "b", "build": "x"}}`)

	out := string(m.Merge(current, incoming))
	expected := strings.Join([]string{
		`{`,
		`  "name": "app",`,
		`  "scripts": {`,
		`<<<<<<< Local Package`,
		`    "dev": "a",`,
		`=======`,
		`    "dev": "b", // from template`,
		`>>>>>>> Template`,
		`    "build": "x"`,
		`  }`,
		`}`,
		``,
	}, "\n")
	assert.Equal(t, expected, out)
}

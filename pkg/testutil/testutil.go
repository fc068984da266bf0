// Package testutil provides helpers shared by tests: a scriptable
// version source and filesystem fixtures.
package testutil

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/tetherhq/tether/pkg/types"
)

// FakeVersionSource is a scriptable types.VersionSource. CloneTree is
// written into the destination directory on Clone, standing in for the
// template's working tree.
type FakeVersionSource struct {
	Head    string
	HeadErr error

	CloneTree map[string]string
	CloneErr  error

	Diff    []types.NameStatus
	DiffErr error

	// FilesAt maps "rev:path" to content for ShowFileAt.
	FilesAt map[string]string

	// Calls records method invocations in order.
	Calls []string
}

var _ types.VersionSource = (*FakeVersionSource)(nil)

func (f *FakeVersionSource) HeadRevision(repoURL string) (string, error) {
	f.Calls = append(f.Calls, "head")
	return f.Head, f.HeadErr
}

func (f *FakeVersionSource) Clone(repoURL, destDir string) error {
	f.Calls = append(f.Calls, "clone")
	if f.CloneErr != nil {
		return f.CloneErr
	}
	for rel, content := range f.CloneTree {
		path := filepath.Join(destDir, rel)
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			return err
		}
		if err := os.WriteFile(path, []byte(content), 0644); err != nil {
			return err
		}
	}
	return nil
}

func (f *FakeVersionSource) DiffNameStatus(repoDir, fromRev, toRev string) ([]types.NameStatus, error) {
	f.Calls = append(f.Calls, "diff")
	return f.Diff, f.DiffErr
}

func (f *FakeVersionSource) ShowFileAt(repoDir, rev, path string) ([]byte, error) {
	f.Calls = append(f.Calls, "show")
	content, ok := f.FilesAt[rev+":"+path]
	if !ok {
		return nil, os.ErrNotExist
	}
	return []byte(content), nil
}

// WriteFile writes content at path under root, creating parents.
func WriteFile(t *testing.T, root, rel, content string) string {
	t.Helper()
	path := filepath.Join(root, rel)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

// ReadFile reads the file at rel under root.
func ReadFile(t *testing.T, root, rel string) string {
	t.Helper()
	data, err := os.ReadFile(filepath.Join(root, rel))
	require.NoError(t, err)
	return string(data)
}

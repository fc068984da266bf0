package types

import (
	"io/fs"
)

// FS provides a filesystem abstraction for testability
type FS interface {
	Stat(name string) (fs.FileInfo, error)
	ReadFile(name string) ([]byte, error)
	WriteFile(name string, data []byte, perm fs.FileMode) error
	MkdirAll(path string, perm fs.FileMode) error
	Remove(name string) error
	RemoveAll(path string) error
	ReadDir(name string) ([]fs.DirEntry, error)
}

// ChangeKind identifies the kind of file-level change between two
// template revisions.
type ChangeKind string

const (
	// ChangeAdd is a file that exists only in the newer revision.
	ChangeAdd ChangeKind = "add"
	// ChangeModify is a file whose content differs between revisions.
	// Renames, copies and mode changes are folded into this kind.
	ChangeModify ChangeKind = "modify"
	// ChangeDelete is a file removed in the newer revision.
	ChangeDelete ChangeKind = "delete"
)

// ChangeEntry is one file-level difference between two template
// revisions. Path is always relative to the template tree root; the
// orchestrator alone translates it into project coordinates. Content
// is empty for deletes.
type ChangeEntry struct {
	Kind    ChangeKind
	Path    string
	Content []byte
}

// Workspace is a sub-project directory identified by its own manifest.
// It is a computed view over the filesystem and is never persisted.
type Workspace struct {
	// Root is the absolute path of the workspace directory.
	Root string
	// Name is the manifest's name field, the matching key used to
	// align project workspaces with their template counterparts.
	Name string
	// Category is the category directory the workspace lives under
	// (e.g. "packages" or "apps").
	Category string
}

// VersionSource is the version-control collaborator contract. All
// methods shell out to an external tool; any non-zero exit surfaces
// as an error.
type VersionSource interface {
	// HeadRevision returns the current head revision id of the remote
	// template repository.
	HeadRevision(repoURL string) (string, error)
	// Clone checks the template repository out into destDir.
	Clone(repoURL, destDir string) error
	// DiffNameStatus lists (status, path) pairs changed between two
	// revisions of a local clone.
	DiffNameStatus(repoDir, fromRev, toRev string) ([]NameStatus, error)
	// ShowFileAt returns a file's content at a given revision.
	ShowFileAt(repoDir, rev, path string) ([]byte, error)
}

// NameStatus is one line of a name-status diff listing.
type NameStatus struct {
	Status string
	Path   string
}

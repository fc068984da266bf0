// Package types defines the core data model shared by the update
// engine: filesystem change entries produced by diffing two template
// revisions, discovered workspaces, and the filesystem abstraction
// used by everything that touches disk.
package types

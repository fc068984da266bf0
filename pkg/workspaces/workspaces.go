// Package workspaces discovers sub-project directories in a project
// tree and aligns them with their structural counterparts in the
// template tree. Alignment is by manifest name, not directory name, so
// a renamed workspace still resolves to its template counterpart.
package workspaces

import (
	"path/filepath"
	"sort"

	"github.com/rs/zerolog"

	"github.com/tetherhq/tether/pkg/config"
	"github.com/tetherhq/tether/pkg/logging"
	"github.com/tetherhq/tether/pkg/manifest"
	"github.com/tetherhq/tether/pkg/types"
)

// Resolver discovers workspaces and matches them across trees.
type Resolver struct {
	fs     types.FS
	cfg    *config.Config
	logger zerolog.Logger
}

// NewResolver creates a workspace resolver.
func NewResolver(fs types.FS, cfg *config.Config) *Resolver {
	return &Resolver{
		fs:     fs,
		cfg:    cfg,
		logger: logging.GetLogger("workspaces"),
	}
}

// Discover returns the workspaces found immediately under each
// configured category directory of root. A category directory that
// does not exist yields no entries. Directories without a readable
// manifest are skipped.
func (r *Resolver) Discover(root string) []types.Workspace {
	var found []types.Workspace
	for _, category := range r.cfg.Workspaces.Categories {
		categoryDir := filepath.Join(root, category)
		entries, err := r.fs.ReadDir(categoryDir)
		if err != nil {
			r.logger.Trace().Str("dir", categoryDir).Msg("Category directory absent, skipping")
			continue
		}

		names := make([]string, 0, len(entries))
		for _, entry := range entries {
			if entry.IsDir() {
				names = append(names, entry.Name())
			}
		}
		sort.Strings(names)

		for _, name := range names {
			dir := filepath.Join(categoryDir, name)
			ws, ok := r.ReadInfo(dir, category)
			if !ok {
				r.logger.Debug().Str("dir", dir).Msg("No readable manifest, skipping directory")
				continue
			}
			found = append(found, ws)
		}
	}

	r.logger.Debug().Int("count", len(found)).Str("root", root).Msg("Discovered workspaces")
	return found
}

// ReadInfo reads a directory's manifest and returns the workspace it
// describes. The second return is false when the manifest is missing
// or unparseable.
func (r *Resolver) ReadInfo(dir, category string) (types.Workspace, bool) {
	doc, err := manifest.Load(r.fs, filepath.Join(dir, r.cfg.Manifest.Filename))
	if err != nil {
		return types.Workspace{}, false
	}
	return types.Workspace{
		Root:     dir,
		Name:     doc.Name(),
		Category: category,
	}, true
}

// MatchInTemplate finds the template workspace corresponding to a
// project workspace and returns its path relative to the template
// root. Candidates are built from the workspace's directory basename
// under each category directory; the first candidate whose manifest
// name equals the project workspace's name wins. With no name match,
// the category's generic fallback workspace is used if the template
// defines one.
func (r *Resolver) MatchInTemplate(ws types.Workspace, templateRoot string) (string, bool) {
	base := filepath.Base(ws.Root)
	for _, category := range r.cfg.Workspaces.Categories {
		candidate := filepath.Join(category, base)
		if tws, ok := r.ReadInfo(filepath.Join(templateRoot, candidate), category); ok && tws.Name == ws.Name {
			r.logger.Debug().Str("workspace", ws.Name).Str("template", candidate).Msg("Matched template workspace by name")
			return candidate, true
		}
	}

	fallbackName, ok := r.cfg.Workspaces.Fallbacks[ws.Category]
	if !ok {
		return "", false
	}
	fallback := filepath.Join(ws.Category, fallbackName)
	if _, ok := r.ReadInfo(filepath.Join(templateRoot, fallback), ws.Category); ok {
		r.logger.Debug().Str("workspace", ws.Name).Str("template", fallback).Msg("Using generic fallback template workspace")
		return fallback, true
	}
	return "", false
}

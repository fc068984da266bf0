// Package update drives a full template-sync run: obtain the remote
// head revision, compute the change set against the tracked revision,
// route root-level and per-workspace entries, apply them, and rewrite
// the tracked revision.
package update

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/tetherhq/tether/pkg/apply"
	"github.com/tetherhq/tether/pkg/config"
	"github.com/tetherhq/tether/pkg/diff"
	"github.com/tetherhq/tether/pkg/errors"
	"github.com/tetherhq/tether/pkg/logging"
	"github.com/tetherhq/tether/pkg/manifest"
	"github.com/tetherhq/tether/pkg/merge"
	"github.com/tetherhq/tether/pkg/types"
	"github.com/tetherhq/tether/pkg/workspaces"
)

// Options configures a single update run.
type Options struct {
	// ProjectRoot is the project directory holding the root manifest.
	ProjectRoot string
	// DryRun reports what would change without touching the
	// filesystem.
	DryRun bool
}

// Result summarizes a completed run.
type Result struct {
	// Previous and Revision are the tracked revisions before and
	// after the run.
	Previous string
	Revision string
	// NoChanges is set when the template produced no applicable
	// changes; nothing was written.
	NoChanges bool
	// DryRun is set when the run only reported counts.
	DryRun bool
	// RootApplied and WorkspaceApplied count applied (or, in dry
	// mode, applicable) change entries per routing class.
	RootApplied      int
	WorkspaceApplied int
	// SkippedWorkspaces lists project workspaces with no template
	// counterpart this run.
	SkippedWorkspaces []string
}

// plannedChange is one change entry with its destination resolved into
// project coordinates.
type plannedChange struct {
	entry    types.ChangeEntry
	destRoot string
	root     bool
}

// Orchestrator owns the collaborators of an update run.
type Orchestrator struct {
	fs       types.FS
	cfg      *config.Config
	source   types.VersionSource
	resolver *workspaces.Resolver
	applier  *apply.Applier
	computer *diff.Computer
	logger   zerolog.Logger
}

// NewOrchestrator wires an orchestrator from its collaborators.
func NewOrchestrator(fs types.FS, cfg *config.Config, source types.VersionSource) *Orchestrator {
	return &Orchestrator{
		fs:       fs,
		cfg:      cfg,
		source:   source,
		resolver: workspaces.NewResolver(fs, cfg),
		applier:  apply.NewApplier(fs, merge.NewRegistry(cfg)),
		computer: diff.NewComputer(source),
		logger:   logging.GetLogger("update"),
	}
}

// Run executes one update. Collaborator failures (revision lookup,
// clone, diff) are fatal and leave the project untouched; an empty
// change set short-circuits to completion. The tracked revision is
// rewritten exactly once, only after every entry applied.
func (o *Orchestrator) Run(opts Options) (*Result, error) {
	logger := o.logger.With().Str("run", uuid.New().String()[:8]).Logger()

	manifestPath := filepath.Join(opts.ProjectRoot, o.cfg.Manifest.Filename)
	doc, err := manifest.Load(o.fs, manifestPath)
	if err != nil {
		return nil, err
	}

	templateURL := doc.TemplateURL()
	if templateURL == "" {
		return nil, errors.New(errors.ErrInvalidInput, "manifest has no template repository URL under meta")
	}
	tracked := doc.Version()
	if tracked == "" {
		return nil, errors.New(errors.ErrInvalidInput, "manifest has no tracked template revision under meta")
	}

	head, err := o.source.HeadRevision(templateURL)
	if err != nil {
		return nil, err
	}
	logger.Info().Str("tracked", tracked).Str("head", head).Msg("Fetched remote revision")

	result := &Result{Previous: tracked, Revision: head, DryRun: opts.DryRun}
	if head == tracked {
		logger.Info().Msg("Template unchanged, nothing to do")
		result.NoChanges = true
		return result, nil
	}

	templateDir, err := os.MkdirTemp("", "tether-template-")
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrDirCreate, "failed to create temporary clone directory")
	}
	defer func() { _ = os.RemoveAll(templateDir) }()

	if err := o.source.Clone(templateURL, templateDir); err != nil {
		return nil, err
	}

	entries, err := o.computer.Compute(templateDir, tracked, head)
	if err != nil {
		return nil, err
	}
	entries = o.filterIgnored(entries)
	if len(entries) == 0 {
		logger.Info().Msg("No applicable changes between revisions")
		result.NoChanges = true
		return result, nil
	}

	plan := o.buildPlan(logger, opts.ProjectRoot, templateDir, doc, entries, result)

	if opts.DryRun {
		logger.Info().
			Int("root", result.RootApplied).
			Int("workspace", result.WorkspaceApplied).
			Msg("Dry run, nothing written")
		return result, nil
	}

	for _, change := range plan {
		if err := o.applier.Apply(change.entry, change.destRoot); err != nil {
			return nil, err
		}
	}

	if err := o.rewriteRevision(manifestPath, tracked, head); err != nil {
		return nil, err
	}
	logger.Info().
		Int("root", result.RootApplied).
		Int("workspace", result.WorkspaceApplied).
		Str("revision", head).
		Msg("Update complete")
	return result, nil
}

// filterIgnored drops entries whose basenames are never synchronized.
func (o *Orchestrator) filterIgnored(entries []types.ChangeEntry) []types.ChangeEntry {
	var kept []types.ChangeEntry
	for _, entry := range entries {
		if o.cfg.IsIgnoredBasename(filepath.Base(entry.Path)) {
			o.logger.Debug().Str("path", entry.Path).Msg("Ignoring change entry")
			continue
		}
		kept = append(kept, entry)
	}
	return kept
}

// buildPlan routes change entries: root-level entries first, then each
// discovered, non-ignored project workspace with its entries
// translated from template-workspace coordinates. Diff order is kept
// within each group so same-path operations preserve chronology.
func (o *Orchestrator) buildPlan(logger zerolog.Logger, projectRoot, templateDir string, doc *manifest.Document, entries []types.ChangeEntry, result *Result) []plannedChange {
	var rootEntries, wsEntries []types.ChangeEntry
	for _, entry := range entries {
		if o.isWorkspaceScoped(entry.Path) {
			wsEntries = append(wsEntries, entry)
		} else {
			rootEntries = append(rootEntries, entry)
		}
	}

	var plan []plannedChange
	for _, entry := range rootEntries {
		plan = append(plan, plannedChange{entry: entry, destRoot: projectRoot, root: true})
		result.RootApplied++
	}

	ignored := doc.IgnoredWorkspaces(projectRoot)
	for _, ws := range o.resolver.Discover(projectRoot) {
		if ignored[ws.Root] {
			logger.Info().Str("workspace", ws.Name).Msg("Workspace excluded by manifest configuration")
			continue
		}
		templatePrefix, ok := o.resolver.MatchInTemplate(ws, templateDir)
		if !ok {
			logger.Info().Str("workspace", ws.Name).Msg("No matching template workspace, skipping")
			result.SkippedWorkspaces = append(result.SkippedWorkspaces, ws.Name)
			continue
		}

		wsRel, err := filepath.Rel(projectRoot, ws.Root)
		if err != nil {
			continue
		}
		for _, entry := range wsEntries {
			if !strings.HasPrefix(entry.Path, templatePrefix+"/") {
				continue
			}
			translated := entry
			translated.Path = strings.Replace(entry.Path, templatePrefix, wsRel, 1)
			plan = append(plan, plannedChange{entry: translated, destRoot: projectRoot})
			result.WorkspaceApplied++
		}
	}

	return plan
}

// isWorkspaceScoped reports whether a template-relative path lives
// inside a workspace under one of the category directories.
func (o *Orchestrator) isWorkspaceScoped(path string) bool {
	segments := strings.Split(path, "/")
	if len(segments) < 3 {
		return false
	}
	for _, category := range o.cfg.Workspaces.Categories {
		if segments[0] == category {
			return true
		}
	}
	return false
}

// rewriteRevision stamps the new revision into the root manifest. The
// merge step may have left conflict markup in the manifest, making it
// unparseable as JSON; revision ids are unique strings, so in that
// case the tracked id is replaced textually instead.
func (o *Orchestrator) rewriteRevision(manifestPath, tracked, head string) error {
	doc, err := manifest.Load(o.fs, manifestPath)
	if err == nil {
		doc.SetVersion(head)
		return doc.Save(o.fs, manifestPath)
	}

	raw, readErr := o.fs.ReadFile(manifestPath)
	if readErr != nil {
		return errors.Wrap(readErr, errors.ErrManifestWrite, "failed to rewrite tracked revision").
			WithDetail("path", manifestPath)
	}
	if !bytes.Contains(raw, []byte(tracked)) {
		return errors.New(errors.ErrManifestWrite, "tracked revision not found in manifest").
			WithDetail("path", manifestPath)
	}
	updated := bytes.Replace(raw, []byte(tracked), []byte(head), 1)
	if writeErr := o.fs.WriteFile(manifestPath, updated, 0644); writeErr != nil {
		return errors.Wrap(writeErr, errors.ErrManifestWrite, "failed to rewrite tracked revision").
			WithDetail("path", manifestPath)
	}
	return nil
}

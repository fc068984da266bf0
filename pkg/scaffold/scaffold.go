// Package scaffold bootstraps a new project from a template
// repository: it copies the template's working tree at head and stamps
// the manifest with the template URL and the cloned revision, so later
// update runs know where to diff from.
package scaffold

import (
	"io/fs"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"

	"github.com/tetherhq/tether/pkg/config"
	"github.com/tetherhq/tether/pkg/errors"
	"github.com/tetherhq/tether/pkg/logging"
	"github.com/tetherhq/tether/pkg/manifest"
	"github.com/tetherhq/tether/pkg/types"
)

// Scaffolder creates new projects from a template repository.
type Scaffolder struct {
	fs     types.FS
	cfg    *config.Config
	source types.VersionSource
	logger zerolog.Logger
}

// NewScaffolder creates a scaffolder.
func NewScaffolder(filesystem types.FS, cfg *config.Config, source types.VersionSource) *Scaffolder {
	return &Scaffolder{
		fs:     filesystem,
		cfg:    cfg,
		source: source,
		logger: logging.GetLogger("scaffold"),
	}
}

// Init clones the template at head into targetDir (working tree only)
// and records the revision and template URL in the new project's
// manifest. It returns the revision the project was initialized at.
func (s *Scaffolder) Init(templateURL, targetDir string) (string, error) {
	head, err := s.source.HeadRevision(templateURL)
	if err != nil {
		return "", err
	}

	cloneDir, err := os.MkdirTemp("", "tether-init-")
	if err != nil {
		return "", errors.Wrap(err, errors.ErrDirCreate, "failed to create temporary clone directory")
	}
	defer func() { _ = os.RemoveAll(cloneDir) }()

	if err := s.source.Clone(templateURL, cloneDir); err != nil {
		return "", err
	}

	if err := s.copyTree(cloneDir, targetDir); err != nil {
		return "", err
	}

	manifestPath := filepath.Join(targetDir, s.cfg.Manifest.Filename)
	doc, err := manifest.Load(s.fs, manifestPath)
	if err != nil {
		return "", err
	}
	doc.SetTemplateURL(templateURL)
	doc.SetVersion(head)
	if err := doc.Save(s.fs, manifestPath); err != nil {
		return "", err
	}

	s.logger.Info().Str("template", templateURL).Str("revision", head).Str("target", targetDir).Msg("Project initialized")
	return head, nil
}

// copyTree copies the clone's working tree into targetDir, skipping
// version-control internals and ignored basenames.
func (s *Scaffolder) copyTree(srcRoot, targetDir string) error {
	return filepath.WalkDir(srcRoot, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(srcRoot, path)
		if err != nil {
			return err
		}
		if rel == "." {
			return nil
		}
		if d.IsDir() {
			if d.Name() == ".git" {
				return filepath.SkipDir
			}
			return s.fs.MkdirAll(filepath.Join(targetDir, rel), 0755)
		}
		if s.cfg.IsIgnoredBasename(d.Name()) {
			return nil
		}
		data, err := os.ReadFile(path)
		if err != nil {
			return errors.Wrap(err, errors.ErrFileAccess, "failed to read template file").
				WithDetail("path", path)
		}
		if err := s.fs.WriteFile(filepath.Join(targetDir, rel), data, 0644); err != nil {
			return errors.Wrap(err, errors.ErrFileWrite, "failed to write project file").
				WithDetail("path", rel)
		}
		return nil
	})
}

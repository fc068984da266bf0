// Package apply performs the filesystem mutation for a single change
// entry whose path has already been translated into project
// coordinates.
package apply

import (
	"os"
	"path/filepath"

	"github.com/rs/zerolog"

	"github.com/tetherhq/tether/pkg/errors"
	"github.com/tetherhq/tether/pkg/logging"
	"github.com/tetherhq/tether/pkg/merge"
	"github.com/tetherhq/tether/pkg/types"
)

// Applier writes change entries to the filesystem, routing content
// through the merge strategy registry.
type Applier struct {
	fs       types.FS
	registry *merge.Registry
	logger   zerolog.Logger
}

// NewApplier creates an applier over fs using the given strategy
// registry.
func NewApplier(fs types.FS, registry *merge.Registry) *Applier {
	return &Applier{
		fs:       fs,
		registry: registry,
		logger:   logging.GetLogger("apply"),
	}
}

// Apply performs one change entry against destRoot. Adds and modifies
// create parent directories, merge with any existing content via the
// registry, and write the result. Deletes remove the destination;
// an already-absent target is a no-op.
func (a *Applier) Apply(entry types.ChangeEntry, destRoot string) error {
	dest := filepath.Join(destRoot, entry.Path)

	if entry.Kind == types.ChangeDelete {
		if err := a.fs.Remove(dest); err != nil && !os.IsNotExist(err) {
			return errors.Wrap(err, errors.ErrFileAccess, "failed to delete file").
				WithDetail("path", dest)
		}
		a.logger.Debug().Str("path", dest).Msg("Deleted file")
		return nil
	}

	if err := a.fs.MkdirAll(filepath.Dir(dest), 0755); err != nil {
		return errors.Wrap(err, errors.ErrDirCreate, "failed to create parent directories").
			WithDetail("path", dest)
	}

	current, err := a.fs.ReadFile(dest)
	hasCurrent := err == nil

	final := a.registry.Apply(dest, current, hasCurrent, entry.Content)
	if err := a.fs.WriteFile(dest, final, 0644); err != nil {
		return errors.Wrap(err, errors.ErrFileWrite, "failed to write file").
			WithDetail("path", dest)
	}

	a.logger.Debug().Str("path", dest).Str("kind", string(entry.Kind)).Bool("merged", hasCurrent).Msg("Applied change")
	return nil
}

// Package diff turns a version source's name-status listing between
// two template revisions into typed change entries with content
// attached, ready for the applier.
package diff

import (
	"strings"

	"github.com/rs/zerolog"

	"github.com/tetherhq/tether/pkg/logging"
	"github.com/tetherhq/tether/pkg/types"
)

// Computer resolves diff listings into change entries.
type Computer struct {
	source types.VersionSource
	logger zerolog.Logger
}

// NewComputer creates a diff computer over a version source.
func NewComputer(source types.VersionSource) *Computer {
	return &Computer{
		source: source,
		logger: logging.GetLogger("diff"),
	}
}

// Compute lists the changes between fromRev and toRev in repoDir and
// attaches file content at toRev to every non-delete entry. Entries
// come back in the order the diff presents them, which encodes
// version-control chronology for same-path operations.
func (c *Computer) Compute(repoDir, fromRev, toRev string) ([]types.ChangeEntry, error) {
	listing, err := c.source.DiffNameStatus(repoDir, fromRev, toRev)
	if err != nil {
		return nil, err
	}

	var entries []types.ChangeEntry
	for _, item := range listing {
		kind := kindForStatus(item.Status)
		entry := types.ChangeEntry{Kind: kind, Path: item.Path}
		if kind != types.ChangeDelete {
			content, err := c.source.ShowFileAt(repoDir, toRev, item.Path)
			if err != nil {
				return nil, err
			}
			entry.Content = content
		}
		entries = append(entries, entry)
	}

	c.logger.Debug().Int("count", len(entries)).Str("from", fromRev).Str("to", toRev).Msg("Computed change entries")
	return entries, nil
}

// kindForStatus folds git's status letters into the three change
// kinds. Anything that is not an addition or deletion — modifications,
// renames, copies, type changes — lands a file at its path, so it is
// treated as a modify.
func kindForStatus(status string) types.ChangeKind {
	switch {
	case strings.HasPrefix(status, "A"):
		return types.ChangeAdd
	case strings.HasPrefix(status, "D"):
		return types.ChangeDelete
	default:
		return types.ChangeModify
	}
}

// Package gitcli implements the version-source collaborator by
// shelling out to git. Every call is blocking; a non-zero exit
// surfaces as an error carrying git's combined output.
package gitcli

import (
	"os/exec"
	"strings"

	"github.com/rs/zerolog"

	"github.com/tetherhq/tether/pkg/errors"
	"github.com/tetherhq/tether/pkg/logging"
	"github.com/tetherhq/tether/pkg/types"
)

// Git is the git-backed types.VersionSource.
type Git struct {
	logger zerolog.Logger
}

// New returns a git-backed version source.
func New() *Git {
	return &Git{logger: logging.GetLogger("gitcli")}
}

var _ types.VersionSource = (*Git)(nil)

// HeadRevision resolves the remote repository's HEAD commit id.
func (g *Git) HeadRevision(repoURL string) (string, error) {
	cmd := exec.Command("git", "ls-remote", repoURL, "HEAD")
	output, err := cmd.Output()
	if err != nil {
		return "", errors.Wrap(err, errors.ErrRevisionLookup, "failed to resolve remote HEAD").
			WithDetail("repo", repoURL)
	}
	fields := strings.Fields(string(output))
	if len(fields) == 0 {
		return "", errors.New(errors.ErrRevisionLookup, "remote returned no HEAD ref").
			WithDetail("repo", repoURL)
	}
	g.logger.Debug().Str("repo", repoURL).Str("rev", fields[0]).Msg("Resolved remote HEAD")
	return fields[0], nil
}

// Clone checks the repository out into destDir. The full history is
// needed so revisions recorded by earlier runs can still be diffed.
func (g *Git) Clone(repoURL, destDir string) error {
	cmd := exec.Command("git", "clone", "--quiet", repoURL, destDir)
	if output, err := cmd.CombinedOutput(); err != nil {
		return errors.Wrapf(err, errors.ErrClone, "failed to clone template: %s", strings.TrimSpace(string(output))).
			WithDetail("repo", repoURL)
	}
	g.logger.Debug().Str("repo", repoURL).Str("dest", destDir).Msg("Cloned template")
	return nil
}

// DiffNameStatus lists files changed between two revisions. Rename and
// copy statuses report the destination path.
func (g *Git) DiffNameStatus(repoDir, fromRev, toRev string) ([]types.NameStatus, error) {
	cmd := exec.Command("git", "-C", repoDir, "diff", "--name-status", fromRev, toRev)
	output, err := cmd.Output()
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrDiff, "failed to diff template revisions").
			WithDetail("from", fromRev).
			WithDetail("to", toRev)
	}

	var entries []types.NameStatus
	for _, line := range strings.Split(string(output), "\n") {
		if strings.TrimSpace(line) == "" {
			continue
		}
		fields := strings.Split(line, "\t")
		if len(fields) < 2 {
			continue
		}
		entries = append(entries, types.NameStatus{
			Status: fields[0],
			// Renames and copies carry two paths; the last one is the
			// file's current location.
			Path: fields[len(fields)-1],
		})
	}
	return entries, nil
}

// ShowFileAt returns a file's content at a revision.
func (g *Git) ShowFileAt(repoDir, rev, path string) ([]byte, error) {
	cmd := exec.Command("git", "-C", repoDir, "show", rev+":"+path)
	output, err := cmd.Output()
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrShowFile, "failed to read file at revision").
			WithDetail("rev", rev).
			WithDetail("path", path)
	}
	return output, nil
}

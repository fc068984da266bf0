package tether

import (
	"fmt"
	"strings"

	"github.com/pterm/pterm"

	"github.com/tetherhq/tether/pkg/update"
)

// renderSummary formats the human-facing result of an update run.
func renderSummary(res *update.Result) string {
	if res.NoChanges {
		return fmt.Sprintf("Already up to date at %s.", shortRev(res.Revision))
	}

	var b strings.Builder
	if res.DryRun {
		fmt.Fprintf(&b, "Dry run: %d root change(s) and %d workspace change(s) would be applied (%s -> %s).\n",
			res.RootApplied, res.WorkspaceApplied, shortRev(res.Previous), shortRev(res.Revision))
	} else {
		fmt.Fprintf(&b, "Applied %d root change(s) and %d workspace change(s).\n",
			res.RootApplied, res.WorkspaceApplied)
		fmt.Fprintf(&b, "Tracked template revision is now %s.\n", formatBold(shortRev(res.Revision)))
	}

	for _, name := range res.SkippedWorkspaces {
		fmt.Fprintf(&b, "%s workspace %q has no template counterpart, skipped\n",
			warnPrefix(), name)
	}
	return strings.TrimRight(b.String(), "\n")
}

func warnPrefix() string {
	if !stdoutIsTerminal() {
		return "!"
	}
	return pterm.Warning.Prefix.Text
}

// shortRev abbreviates a revision id for display.
func shortRev(rev string) string {
	if len(rev) > 12 {
		return rev[:12]
	}
	return rev
}

package tether

// Message constants
const (
	MsgRootShort = "Keep a generated project in sync with its template"
	MsgRootLong  = `tether keeps a project that was generated from a template synchronized
with that template as it evolves, without destroying local customizations.

Changes between the tracked template revision and the template's head are
applied file by file. Manifest files (package.json) are merged field by
field: identity fields always keep your value, dependency and script
entries are merged, and genuine divergences are surfaced as familiar
merge-conflict markers for you to resolve.`

	MsgFlagVerbose = "Increase verbosity (-v INFO to console, -vv DEBUG, -vvv TRACE)"
	MsgFlagDryRun  = "Preview changes without writing anything"

	MsgUpdateShort   = "Apply template changes to the project"
	MsgUpdateLong    = `Fetch the template's head revision, compute the changes since the revision
recorded in the project manifest, apply them to the project root and to every
workspace that has a template counterpart, and record the new revision.`
	MsgUpdateExample = `  # Update the project in the current directory
  tether update

  # Update a project elsewhere
  tether update ~/src/my-app

  # See what would change without writing
  tether update --dry-run`

	MsgInitShort   = "Create a new project from a template"
	MsgInitLong    = `Clone the template repository at its head revision into the target directory
and record the template URL and revision in the project manifest, so later
update runs know where to diff from.`
	MsgInitExample = `  # Scaffold into the current directory
  tether init https://example.com/templates/webapp.git

  # Scaffold into a new directory
  tether init https://example.com/templates/webapp.git my-app`

	MsgGenConfigShort = "Print the effective configuration"
	MsgGenConfigLong  = `Print the effective tether configuration as TOML: the built-in defaults
overlaid with the project's .tether.toml, if present. The output is a valid
.tether.toml starting point.`

	MsgVersionShort = "Print version information"

	MsgErrNoCommand = "no command specified"
)

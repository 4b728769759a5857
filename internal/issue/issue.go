// SPDX-License-Identifier: MPL-2.0

package issue

import (
	"github.com/charmbracelet/glamour"
	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"
)

type Id int

const (
	ConfigLoadFailedId Id = iota + 1
	NoSearchRootsId
	ModuleNotFoundId
	AliasesInactiveId
	LedgerNotFoundId
	ProbeTimeoutId
	LintFindingsId
	DatabaseMissingId
)

type MarkdownMsg string

type HttpLink string

type Renderer interface {
	Render(in string, stylePath string) (string, error)
}

type Issue struct {
	id       Id          // ID used to lookup the issue
	mdMsg    MarkdownMsg // Markdown text that will be rendered
	docLinks []HttpLink  // documentation links for the issue type
	extLinks []HttpLink  // external links that might be useful for the user
}

func (i *Issue) Id() Id {
	return i.id
}

func (i *Issue) MarkdownMsg() MarkdownMsg {
	return i.mdMsg
}

func (i *Issue) DocLinks() []HttpLink {
	return slices.Clone(i.docLinks)
}

func (i *Issue) ExtLinks() []HttpLink {
	return slices.Clone(i.extLinks)
}

func (i *Issue) Render(stylePath string) (string, error) {
	extraMd := ""
	if len(i.docLinks) > 0 || len(i.extLinks) > 0 {
		extraMd += "\n\n"
		extraMd += "## See also: "
		for _, link := range i.docLinks {
			extraMd += "- [" + string(link) + "]"
		}
		for _, link := range i.extLinks {
			extraMd += "- [" + string(link) + "]"
		}
	}
	return render(string(i.mdMsg)+extraMd, stylePath)
}

var (
	render = glamour.Render

	configLoadFailedIssue = &Issue{
		id: ConfigLoadFailedId,
		mdMsg: `
# Failed to load configuration!

Could not load the modshim configuration file.

## Configuration file locations:
- Linux: ~/.config/modshim/config.cue
- macOS: ~/Library/Application Support/modshim/config.cue
- Windows: %APPDATA%\modshim\config.cue
- Fallback: ./config.cue in the current directory

## Things you can try:
- Create a default configuration:
~~~
$ modshim config init
~~~

- Check the configuration syntax
- Remove the config file to use defaults

## Example configuration:
~~~cue
search_roots: ["src", "voice_recorder"]

aliases: [
  {legacy: "models", canonical: "voice_recorder.models"},
]
~~~`,
	}

	noSearchRootsIssue = &Issue{
		id: NoSearchRootsId,
		mdMsg: `
# No search roots configured!

Module resolution needs at least one search root, and none were found in
your configuration or on the command line.

## Things you can try:
- Pass roots explicitly:
~~~
$ modshim resolve --root src --root voice_recorder some.module
~~~

- Or configure them once:
~~~cue
search_roots: ["src", "voice_recorder"]
~~~

Roots are listed lowest precedence first; the last root wins when two
roots contain the same module.`,
	}

	moduleNotFoundIssue = &Issue{
		id: ModuleNotFoundId,
		mdMsg: `
# Module not found!

The dotted module name did not resolve to a file under any search root.

## How resolution works:
For the name ` + "`a.b.c`" + ` each root is tried in precedence order, looking for:
1. ` + "`<root>/a/b/c.py`" + `
2. ` + "`<root>/a/b/c/__init__.py`" + `

## Things you can try:
- List what the current roots actually expose:
~~~
$ modshim roots --list-modules
~~~

- Check for typos in the dotted name
- Make sure every package directory on the path carries an ` + "`__init__.py`" + `
- Add the missing root with ` + "`--root`" + ` or in your config file`,
	}

	aliasesInactiveIssue = &Issue{
		id: AliasesInactiveId,
		mdMsg: `
# Compat aliases are inactive!

Alias pairs are configured, but the gate environment variable is not set
to a truthy value, so no legacy names were bound.

## Enabling the gate:
~~~
$ export MODSHIM_COMPAT_ALIASES=1
~~~

Accepted truthy values are ` + "`1`" + `, ` + "`true`" + ` and ` + "`yes`" + ` (case-insensitive).
Anything else leaves the registry untouched, which is the safe default
once callers have migrated to canonical names.`,
	}

	ledgerNotFoundIssue = &Issue{
		id: LedgerNotFoundId,
		mdMsg: `
# Migration ledger not found!

The revalidation run needs the CSV ledger that tracks rewritten imports,
and the file does not exist at the given path.

## Expected ledger columns:
- ` + "`new_import`" + `: the rewritten import statement
- ` + "`validated`" + `: the verification marker (rows starting with OK are skipped)
- ` + "`file_path`" + `: the source file the import belongs to

## Things you can try:
- Check the path passed to ` + "`modshim revalidate`" + `
- Export the ledger again from your migration spreadsheet`,
	}

	probeTimeoutIssue = &Issue{
		id: ProbeTimeoutId,
		mdMsg: `
# Import probe timed out!

The probe subprocess did not finish within the configured timeout.

## Common causes:
- The probed module runs slow code at import time
- The interpreter is blocked waiting on the network or a device

## Things you can try:
- Raise the timeout:
~~~cue
probe: {timeout_seconds: 120}
~~~

- Import the module manually to see where it hangs
- Move slow work out of module import time`,
	}

	lintFindingsIssue = &Issue{
		id: LintFindingsId,
		mdMsg: `
# Forbidden legacy imports found!

The lint scan found source lines importing from the legacy flat layout.
These imports only keep working while the compat aliases are active and
must be rewritten before the aliases are removed.

## Things you can try:
- Rewrite each reported line to the canonical dotted name
- Accept known findings into a baseline to unblock CI:
~~~
$ modshim lint --baseline lint_baseline.toml --update-baseline
~~~

- Exclude generated trees from the scan with ` + "`--exclude`" + ``,
	}

	databaseMissingIssue = &Issue{
		id: DatabaseMissingId,
		mdMsg: `
# Application database not found!

The database check could not find the SQLite file at the given path.
Opening it anyway would silently create an empty database, so the check
refuses instead.

## Things you can try:
- Check the path passed to ` + "`modshim dbcheck`" + ` or configured under ` + "`database.path`" + `
- Run the application's schema migrations to create the database
- Verify a fully migrated database carries the expected tables:
~~~
recordings, jobs, alembic_version
~~~`,
	}

	issues = map[Id]*Issue{
		configLoadFailedIssue.Id(): configLoadFailedIssue,
		noSearchRootsIssue.Id():    noSearchRootsIssue,
		moduleNotFoundIssue.Id():   moduleNotFoundIssue,
		aliasesInactiveIssue.Id():  aliasesInactiveIssue,
		ledgerNotFoundIssue.Id():   ledgerNotFoundIssue,
		probeTimeoutIssue.Id():     probeTimeoutIssue,
		lintFindingsIssue.Id():     lintFindingsIssue,
		databaseMissingIssue.Id():  databaseMissingIssue,
	}
)

func Values() []*Issue {
	return maps.Values(issues)
}

func Get(id Id) *Issue {
	return issues[id]
}

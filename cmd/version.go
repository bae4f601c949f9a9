package cmd

import (
	"fmt"
	"runtime"
	"strings"

	"github.com/spf13/cobra"

	"github.com/oakwood-commons/dvx/internal/config"
	"github.com/oakwood-commons/dvx/pkg/settings"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print dvx version",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		_, err := fmt.Fprintln(cmd.OutOrStdout(), cliVersionString())
		return err
	},
}

// appConfig loads the configuration for help and version text. Errors fall
// back to the embedded defaults; the run itself reports them.
func appConfig() config.AppConfig {
	cfg, err := config.Load(config.ResolvePath(""))
	if err != nil {
		cfg, _ = config.Load("")
	}
	return cfg.App
}

// cliVersionString builds a human-readable version string for CLI output and
// Cobra's --version flag.
func cliVersionString() string {
	name := appConfig().Name
	if name == "" {
		name = settings.CliBinaryName
	}
	v := settings.VersionInformation
	return fmt.Sprintf("%s %s (commit %s, built %s, go %s)", name, v.BuildVersion, v.Commit, v.BuildTime, runtime.Version())
}

func getCLIShortHelp() string {
	app := appConfig()
	if app.Description != "" {
		return firstLine(app.Description)
	}
	return "View collections of records as a table, cards or a compact list"
}

func getCLILongHelp() string {
	app := appConfig()
	var b strings.Builder
	b.WriteString(getCLIShortHelp())
	b.WriteString(`

dvx loads records from JSON, NDJSON, YAML, TOML, CSV or SQLite, applies a
search or column filters and one sort, and renders the result in the view
that fits the terminal width: a table on wide terminals, cards on medium
ones and a compact list on narrow ones. Use -i for the interactive view.`)
	if help := strings.TrimSpace(app.Help); help != "" {
		b.WriteString("\n\n")
		b.WriteString(help)
	}
	return b.String()
}

func firstLine(s string) string {
	s = strings.TrimSpace(s)
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return strings.TrimSpace(s[:i])
	}
	return s
}

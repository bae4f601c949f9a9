// Package settings holds build metadata and per-run options shared by the
// dvx CLI and its internal packages.
package settings

// CliBinaryName is the canonical binary name for this tool.
const CliBinaryName = "dvx"

// VersionInformation is set at build time via ldflags.
var VersionInformation = VersionInfo{
	Commit:       "unknown",
	BuildVersion: "v0.0.0-nightly",
	BuildTime:    "unknown",
}

// VersionInfo identifies the running build.
type VersionInfo struct {
	Commit       string
	BuildVersion string
	BuildTime    string
}

// InputSettings records where the collection came from.
type InputSettings struct {
	FromStdin bool
	Path      string
	// Format is the decoder name, empty for auto-detection.
	Format string
}

// Run holds the options of one invocation.
type Run struct {
	MinLogLevel int8
	Input       InputSettings
	Interactive bool
	NoColor     bool
	ExitOnError bool
	// Locale is a BCP 47 tag used for string collation.
	Locale string
}

// NewCliParams returns the defaults used by the CLI.
func NewCliParams() *Run {
	return &Run{
		MinLogLevel: 0,
		Input:       InputSettings{FromStdin: true},
		ExitOnError: true,
	}
}

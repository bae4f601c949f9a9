package config

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"text/template"

	"golang.org/x/text/language"
	"gopkg.in/yaml.v3"

	"github.com/oakwood-commons/dvx/pkg/column"
	"github.com/oakwood-commons/dvx/pkg/settings"
	"github.com/oakwood-commons/dvx/pkg/viewport"
)

//go:embed default_config.yaml
var embeddedDefaultConfig []byte

// DefaultYAML returns a copy of the embedded default configuration.
func DefaultYAML() []byte {
	return append([]byte(nil), embeddedDefaultConfig...)
}

// Loader merges a user file over a base document.
type Loader struct {
	defaultConfig func() ([]byte, error)
}

// NewLoader returns a loader over the embedded defaults.
func NewLoader() Loader {
	return Loader{defaultConfig: func() ([]byte, error) {
		if len(embeddedDefaultConfig) == 0 {
			return nil, errors.New("embedded default config is empty")
		}
		return DefaultYAML(), nil
	}}
}

// Load returns the merged configuration for path; an empty path uses the
// defaults alone.
func Load(path string) (Config, error) {
	return NewLoader().Load(path)
}

// Load reads the defaults, merges the file at path on top and validates
// the result.
func (l Loader) Load(path string) (Config, error) {
	var cfg Config
	raw, err := l.defaultConfig()
	if err != nil {
		return cfg, fmt.Errorf("load default config: %w", err)
	}
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return cfg, fmt.Errorf("decode default config: %w", err)
	}
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return cfg, fmt.Errorf("read config %s: %w", path, err)
		}
		var user Config
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		if err := dec.Decode(&user); err != nil && !errors.Is(err, io.EOF) {
			return cfg, fmt.Errorf("decode config %s: %w", path, err)
		}
		cfg = Merge(cfg, user)
	}
	cfg.App.Description = processTemplateString(cfg.App.Description, templateData(cfg))
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// Merge overlays the non-zero fields of override onto base. Lists replace
// rather than append.
func Merge(base, override Config) Config {
	cfg := base
	mergeString(&cfg.App.Name, override.App.Name)
	mergeString(&cfg.App.Description, override.App.Description)
	mergeString(&cfg.App.Help, override.App.Help)
	mergeString(&cfg.Locale, override.Locale)

	mergeInt(&cfg.Breakpoints.Mobile, override.Breakpoints.Mobile)
	mergeInt(&cfg.Breakpoints.Tablet, override.Breakpoints.Tablet)
	mergeInt(&cfg.Breakpoints.Desktop, override.Breakpoints.Desktop)

	if len(override.Views) > 0 {
		cfg.Views = append([]viewport.View(nil), override.Views...)
	}
	if len(override.Columns) > 0 {
		cfg.Columns = append([]column.Spec(nil), override.Columns...)
	}

	mergeString(&cfg.Defaults.Output, override.Defaults.Output)
	mergeString(&cfg.Defaults.Sort, override.Defaults.Sort)
	mergeString(&cfg.Defaults.CardSort, override.Defaults.CardSort)
	mergeString(&cfg.Defaults.View, override.Defaults.View)
	mergeInt(&cfg.Defaults.Width, override.Defaults.Width)
	mergeInt(&cfg.Defaults.Height, override.Defaults.Height)
	mergeInt(&cfg.Defaults.CardFields, override.Defaults.CardFields)

	mergeString(&cfg.Theme.Accent, override.Theme.Accent)
	mergeString(&cfg.Theme.Header, override.Theme.Header)
	mergeString(&cfg.Theme.Border, override.Theme.Border)
	mergeString(&cfg.Theme.Muted, override.Theme.Muted)
	mergeString(&cfg.Theme.Selected, override.Theme.Selected)
	return cfg
}

func mergeString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}

func mergeInt(dst *int, v int) {
	if v != 0 {
		*dst = v
	}
}

// Validate converts the engine-facing sections and reports every problem.
func (c Config) Validate() error {
	var errs []error
	if err := c.Breakpoints.Validate(); err != nil {
		errs = append(errs, err)
	}
	if err := viewport.ValidateViews(c.Views); err != nil {
		errs = append(errs, err)
	}
	if len(c.Columns) > 0 {
		if _, err := column.NewSet(c.Columns...); err != nil {
			errs = append(errs, err)
		}
	}
	if _, err := c.Language(); err != nil {
		errs = append(errs, err)
	}
	if c.Defaults.View != "" {
		found := false
		for _, v := range c.Views {
			if string(v.Key) == c.Defaults.View {
				found = true
			}
		}
		if !found {
			errs = append(errs, fmt.Errorf("defaults.view: %w: %q", viewport.ErrUnknownView, c.Defaults.View))
		}
	}
	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	return nil
}

// Language parses Locale; empty means undetermined.
func (c Config) Language() (language.Tag, error) {
	if c.Locale == "" {
		return language.Und, nil
	}
	tag, err := language.Parse(c.Locale)
	if err != nil {
		return language.Und, fmt.Errorf("locale %q: %w", c.Locale, err)
	}
	return tag, nil
}

// ResolvePath returns explicit when set, otherwise the first existing file of
// $XDG_CONFIG_HOME/dvx/config.yaml and ~/.config/dvx/config.yaml, or "".
func ResolvePath(explicit string) string {
	if explicit != "" {
		return explicit
	}
	candidate := ""
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		candidate = filepath.Join(xdg, settings.CliBinaryName, "config.yaml")
	} else if home, err := os.UserHomeDir(); err == nil {
		candidate = filepath.Join(home, ".config", settings.CliBinaryName, "config.yaml")
	}
	if candidate != "" {
		if st, err := os.Stat(candidate); err == nil && !st.IsDir() {
			return candidate
		}
	}
	return ""
}

// Marshal renders cfg as YAML.
func Marshal(cfg Config) ([]byte, error) {
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(cfg); err != nil {
		return nil, err
	}
	if err := enc.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func templateData(cfg Config) map[string]any {
	return map[string]any{
		"name":       cfg.App.Name,
		"version":    settings.VersionInformation.BuildVersion,
		"commit":     settings.VersionInformation.Commit,
		"go_version": runtime.Version(),
	}
}

// processTemplateString returns text unchanged when it has no template or
// the template fails.
func processTemplateString(text string, data map[string]any) string {
	if !strings.Contains(text, "{{") {
		return text
	}
	tmpl, err := template.New("config").Parse(text)
	if err != nil {
		return text
	}
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return text
	}
	return buf.String()
}

package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/language"
	"gopkg.in/yaml.v3"

	"github.com/oakwood-commons/dvx/pkg/column"
	"github.com/oakwood-commons/dvx/pkg/viewport"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "dvx", cfg.App.Name)
	assert.True(t, strings.HasPrefix(cfg.App.Description, "dvx renders"), "description template expanded: %q", cfg.App.Description)
	assert.Equal(t, viewport.DefaultBreakpoints(), cfg.Breakpoints)
	assert.Equal(t, []viewport.ViewKey{viewport.Desktop, viewport.Tablet, viewport.Mobile}, viewport.Keys(cfg.Views))
	assert.Equal(t, "auto", cfg.Defaults.Output)
	assert.NotEmpty(t, cfg.App.Help)
	assert.NotEmpty(t, cfg.Theme.Accent)

	tag, err := cfg.Language()
	require.NoError(t, err)
	assert.Equal(t, language.Und, tag)
}

func TestLoadMergesUserFile(t *testing.T) {
	path := writeConfig(t, `
app:
  name: people
locale: fr
breakpoints:
  mobile: 40
views:
  - key: table
  - key: cards
columns:
  - key: status
    filterable: true
    filterKind: exact
    filterOptions: ["Sí", "No"]
defaults:
  output: cards
  view: cards
theme:
  accent: "#00ff00"
`)
	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "people", cfg.App.Name)
	assert.Equal(t, viewport.Breakpoints{Mobile: 40, Tablet: 100, Desktop: 140}, cfg.Breakpoints)
	assert.Equal(t, []viewport.ViewKey{"table", "cards"}, viewport.Keys(cfg.Views), "views replace the defaults")
	require.Len(t, cfg.Columns, 1)
	assert.Equal(t, column.FilterExact, cfg.Columns[0].FilterKind)
	assert.Equal(t, "cards", cfg.Defaults.Output)
	assert.Equal(t, 24, cfg.Defaults.Height, "unset fields keep defaults")
	assert.Equal(t, "#00ff00", cfg.Theme.Accent)
	assert.Equal(t, "#FAFAFA", cfg.Theme.Header)

	tag, err := cfg.Language()
	require.NoError(t, err)
	assert.Equal(t, language.French, tag)
}

func TestLoadEmptyUserFile(t *testing.T) {
	cfg, err := Load(writeConfig(t, ""))
	require.NoError(t, err)
	assert.Equal(t, "dvx", cfg.App.Name)
}

func TestLoadErrors(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		wantErr error
		msg     string
	}{
		{name: "unknown field", body: "colour: red\n", msg: "field colour not found"},
		{name: "breakpoints out of order", body: "breakpoints:\n  mobile: 120\n", wantErr: viewport.ErrInvalidConfig},
		{name: "duplicate views", body: "views:\n  - key: a\n  - key: a\n", wantErr: viewport.ErrInvalidConfig},
		{name: "invalid column", body: "columns:\n  - key: s\n    filterable: true\n    filterKind: exact\n", wantErr: column.ErrInvalidColumn},
		{name: "unknown default view", body: "defaults:\n  view: grid\n", wantErr: viewport.ErrUnknownView},
		{name: "bad locale", body: "locale: \"!!\"\n", msg: "locale"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tt.body))
			require.Error(t, err)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			}
			if tt.msg != "" {
				assert.Contains(t, err.Error(), tt.msg)
			}
		})
	}
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestLoaderDefaultErrors(t *testing.T) {
	l := Loader{defaultConfig: func() ([]byte, error) { return []byte("views: [:"), nil }}
	_, err := l.Load("")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "decode default config")
}

func TestResolvePath(t *testing.T) {
	assert.Equal(t, "/explicit.yaml", ResolvePath("/explicit.yaml"))

	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", dir)
	assert.Empty(t, ResolvePath(""))

	require.NoError(t, os.MkdirAll(filepath.Join(dir, "dvx"), 0o755))
	path := filepath.Join(dir, "dvx", "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("app:\n  name: x\n"), 0o600))
	assert.Equal(t, path, ResolvePath(""))
}

func TestMarshalRoundTrip(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	out, err := Marshal(cfg)
	require.NoError(t, err)

	var back Config
	require.NoError(t, yaml.Unmarshal(out, &back))
	assert.Equal(t, cfg.Breakpoints, back.Breakpoints)
	assert.Equal(t, viewport.Keys(cfg.Views), viewport.Keys(back.Views))
}

func TestProcessTemplateString(t *testing.T) {
	data := map[string]any{"name": "dvx"}
	assert.Equal(t, "plain", processTemplateString("plain", data))
	assert.Equal(t, "hi dvx", processTemplateString("hi {{ .name }}", data))
	assert.Equal(t, "{{ .broken", processTemplateString("{{ .broken", data))
}

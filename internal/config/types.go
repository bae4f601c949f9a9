// Package config loads the dvx configuration: an embedded default merged
// with an optional user file.
package config

import (
	"github.com/oakwood-commons/dvx/pkg/column"
	"github.com/oakwood-commons/dvx/pkg/viewport"
)

// Config is the merged configuration.
type Config struct {
	App         AppConfig            `yaml:"app"`
	Locale      string               `yaml:"locale,omitempty"`
	Breakpoints viewport.Breakpoints `yaml:"breakpoints"`
	Views       []viewport.View      `yaml:"views"`
	Columns     []column.Spec        `yaml:"columns,omitempty"`
	Defaults    Defaults             `yaml:"defaults"`
	Theme       Theme                `yaml:"theme"`
}

// AppConfig is shown in help and version output. Description may use
// text/template with the fields name, version, commit and go_version.
type AppConfig struct {
	Name        string `yaml:"name"`
	Description string `yaml:"description,omitempty"`
	Help        string `yaml:"help,omitempty"`
}

// Defaults seed flags the user did not set.
type Defaults struct {
	Output     string `yaml:"output,omitempty"`
	Sort       string `yaml:"sort,omitempty"`
	CardSort   string `yaml:"card_sort,omitempty"`
	View       string `yaml:"view,omitempty"`
	Width      int    `yaml:"width,omitempty"`
	Height     int    `yaml:"height,omitempty"`
	CardFields int    `yaml:"card_fields,omitempty"`
}

// Theme holds lipgloss color strings.
type Theme struct {
	Accent   string `yaml:"accent,omitempty"`
	Header   string `yaml:"header,omitempty"`
	Border   string `yaml:"border,omitempty"`
	Muted    string `yaml:"muted,omitempty"`
	Selected string `yaml:"selected,omitempty"`
}

package tui

import (
	"github.com/Veraticus/binwise/internal/model"
	"github.com/Veraticus/binwise/internal/tui/themes"
)

// Config controls how the history browser looks and where it starts.
type Config struct {
	Theme themes.Theme
	Keys  KeyMap
	// Category preselects a category filter; nil shows every category.
	Category *model.WasteCategory
	Width    int
	Height   int
}

// Option adjusts a Config.
type Option func(*Config)

func defaultConfig() Config {
	return Config{
		Theme:  themes.Default,
		Keys:   DefaultKeyMap(),
		Width:  100,
		Height: 30,
	}
}

// WithTheme sets the visual theme.
func WithTheme(theme themes.Theme) Option {
	return func(c *Config) {
		c.Theme = theme
	}
}

// WithKeyMap replaces the default key bindings.
func WithKeyMap(keys KeyMap) Option {
	return func(c *Config) {
		c.Keys = keys
	}
}

// WithCategory opens the browser filtered to one category.
func WithCategory(category model.WasteCategory) Option {
	return func(c *Config) {
		c.Category = &category
	}
}

// WithSize sets the initial terminal size.
func WithSize(width, height int) Option {
	return func(c *Config) {
		c.Width = width
		c.Height = height
	}
}

// Package config loads and saves the reader settings.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"regexp"

	"github.com/metcalfc/prr/internal/nav"
	"github.com/metcalfc/prr/internal/theme"
)

const settingsFileName = "settings.json"

// Settings are the persisted reader preferences.
type Settings struct {
	Theme        string `json:"theme"`
	MaxPageItems int    `json:"max_page_items"`
	ShowTOC      bool   `json:"show_toc"`
	History      string `json:"history"`
	TitlePattern string `json:"title_pattern,omitempty"`
	LinesPerPage int    `json:"lines_per_page,omitempty"` // 0 = fit the window
}

// Default returns the settings used when nothing has been saved.
func Default() Settings {
	return Settings{
		Theme:        theme.Auto,
		MaxPageItems: 9,
		ShowTOC:      true,
		History:      "json",
	}
}

// Path returns XDG_CONFIG_HOME/prr/settings.json or ~/.config/prr/settings.json
func Path() string {
	dir := os.Getenv("XDG_CONFIG_HOME")
	if dir == "" {
		home, _ := os.UserHomeDir()
		dir = filepath.Join(home, ".config")
	}
	return filepath.Join(dir, "prr", settingsFileName)
}

// Load reads the settings at path. A missing file yields the defaults;
// fields absent from the file keep their default values.
func Load(path string) (Settings, error) {
	s := Default()
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return s, nil
	}
	if err != nil {
		return s, err
	}
	if err := json.Unmarshal(data, &s); err != nil {
		return Default(), fmt.Errorf("parse %s: %w", path, err)
	}
	if err := s.Validate(); err != nil {
		return Default(), fmt.Errorf("%s: %w", path, err)
	}
	return s, nil
}

// Save writes s to path, creating the directory if needed.
func Save(path string, s Settings) error {
	if err := s.Validate(); err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// Validate rejects settings the reader cannot run with.
func (s Settings) Validate() error {
	if err := theme.Validate(s.Theme); err != nil {
		return err
	}
	if s.MaxPageItems < nav.MinPageListLength {
		return fmt.Errorf("max page items must be at least %d, got %d", nav.MinPageListLength, s.MaxPageItems)
	}
	switch s.History {
	case "json", "sqlite":
	default:
		return fmt.Errorf("invalid history backend %q (use json|sqlite)", s.History)
	}
	if s.LinesPerPage < 0 {
		return fmt.Errorf("lines per page cannot be negative")
	}
	if _, err := s.TitleRegexp(); err != nil {
		return err
	}
	return nil
}

// TitleRegexp compiles the custom title pattern, nil when unset.
func (s Settings) TitleRegexp() (*regexp.Regexp, error) {
	if s.TitlePattern == "" {
		return nil, nil
	}
	re, err := regexp.Compile(s.TitlePattern)
	if err != nil {
		return nil, fmt.Errorf("invalid title pattern: %w", err)
	}
	return re, nil
}

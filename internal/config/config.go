// Package config loads and saves user settings from config.json in the user
// config directory. Missing files and fields fall back to defaults; runtime
// settings the UI toggles also live in the store's settings table.
package config

import (
	"encoding/json"
	"os"
	"path/filepath"
)

// Config holds all user-configurable settings loaded from config.json.
type Config struct {
	Behavior  BehaviorConfig  `json:"behavior"`
	FileList  FileListConfig  `json:"fileList"`
	Trash     TrashConfig     `json:"trash"`
	Thumbnail ThumbnailConfig `json:"thumbnail"`
}

// BehaviorConfig holds behavior settings.
type BehaviorConfig struct {
	ConfirmDelete   bool `json:"confirmDelete"`
	RestoreLastPath bool `json:"restoreLastPath"`
}

// FileListConfig holds file list display settings.
type FileListConfig struct {
	ShowDotfiles  bool   `json:"showDotfiles"`
	DefaultSort   string `json:"defaultSort"` // "name" | "date" | "type" | "size"
	SortAscending bool   `json:"sortAscending"`
}

// TrashConfig holds trash behavior settings.
type TrashConfig struct {
	// PermanentDelete skips the trash entirely.
	PermanentDelete bool `json:"permanentDelete"`
}

// ThumbnailConfig holds preview thumbnail settings.
type ThumbnailConfig struct {
	MaxEntries int `json:"maxEntries"`
	MaxPixels  int `json:"maxPixels"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Behavior: BehaviorConfig{
			ConfirmDelete:   true,
			RestoreLastPath: true,
		},
		FileList: FileListConfig{
			ShowDotfiles:  false,
			DefaultSort:   "name",
			SortAscending: true,
		},
		Thumbnail: ThumbnailConfig{
			MaxEntries: 256,
			MaxPixels:  512,
		},
	}
}

// Path returns the config file location inside the user config directory.
func Path() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "lumen", "config.json"), nil
}

// Load reads the config file, filling missing fields with defaults. A missing
// file is not an error; defaults are returned.
func Load() (Config, error) {
	cfg := Default()
	path, err := Path()
	if err != nil {
		return cfg, err
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, err
	}
	if err := json.Unmarshal(raw, &cfg); err != nil {
		return Default(), err
	}
	if cfg.Thumbnail.MaxEntries <= 0 {
		cfg.Thumbnail.MaxEntries = Default().Thumbnail.MaxEntries
	}
	if cfg.Thumbnail.MaxPixels <= 0 {
		cfg.Thumbnail.MaxPixels = Default().Thumbnail.MaxPixels
	}
	return cfg, nil
}

// Save writes the config file, creating the directory if needed.
func Save(cfg Config) error {
	path, err := Path()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	raw, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, raw, 0o644)
}

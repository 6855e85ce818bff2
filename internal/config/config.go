// Package config loads the client behaviour settings from a TOML file.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
)

// FileName is the config file looked up in the data directory when no
// explicit path is given.
const FileName = "layers.toml"

// Config holds the settings that change how the layer store behaves.
type Config struct {
	// ReverseLayerOrder lists the URL token bottom-up instead of top-down.
	ReverseLayerOrder bool `toml:"reverseLayerOrder"`
	// PreventSplittingGroups keeps reorders from moving a leaf out of its group.
	PreventSplittingGroups bool `toml:"preventSplittingGroups"`
	// RestoreOrdered restores a permalink in token order, separators included.
	RestoreOrdered bool `toml:"restoreOrdered"`
	// DefaultTheme is loaded into the store on startup when set.
	DefaultTheme string `toml:"defaultTheme"`
	// ThemesFile is the YAML theme catalogue, relative to the data directory.
	ThemesFile string `toml:"themesFile"`
}

// Default returns the settings used when no file exists.
func Default() Config {
	return Config{ThemesFile: "themes.yaml"}
}

// Load reads path. A missing file yields Default(); a malformed one is an error.
func Load(path string) (Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return cfg, nil
	}
	if err != nil {
		return cfg, fmt.Errorf("read config %q: %w", path, err)
	}
	if _, err := toml.Decode(string(data), &cfg); err != nil {
		return Default(), fmt.Errorf("parse config %q: %w", path, err)
	}
	return cfg, nil
}

// Resolve returns path, or the default file inside dataDir when path is empty.
func Resolve(path, dataDir string) string {
	if path != "" {
		return path
	}
	return filepath.Join(dataDir, FileName)
}

// ThemesPath resolves ThemesFile against dataDir.
func (c Config) ThemesPath(dataDir string) string {
	if c.ThemesFile == "" || filepath.IsAbs(c.ThemesFile) {
		return c.ThemesFile
	}
	return filepath.Join(dataDir, c.ThemesFile)
}

package config

import (
	"os"
	"path/filepath"
)

// Paths holds the file system paths used by the application
type Paths struct {
	Home       string // ~/.termview
	ConfigPath string // ~/.termview/config.json
	LogDir     string // ~/.termview/logs
}

// DefaultPaths returns the default paths configuration
func DefaultPaths() (*Paths, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return nil, err
	}
	return PathsAt(filepath.Join(home, ".termview")), nil
}

// PathsAt roots every path at dir.
func PathsAt(dir string) *Paths {
	return &Paths{
		Home:       dir,
		ConfigPath: filepath.Join(dir, "config.json"),
		LogDir:     filepath.Join(dir, "logs"),
	}
}

// EnsureDirectories creates all required directories if they don't exist
func (p *Paths) EnsureDirectories() error {
	for _, dir := range []string{p.Home, p.LogDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	return nil
}

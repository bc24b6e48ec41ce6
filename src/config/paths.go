package config

import (
	"path/filepath"

	"github.com/adrg/xdg"
)

// StoragePaths contains paths for application storage
type StoragePaths struct {
	DatabasePath string
	KnowledgeDir string
}

// GetDefaultStoragePaths returns default storage paths using XDG base
// directories.
func GetDefaultStoragePaths() StoragePaths {
	return StoragePaths{
		DatabasePath: filepath.Join(xdg.StateHome, "deskpilot", "deskpilot.db"),
		KnowledgeDir: filepath.Join(xdg.DataHome, "deskpilot", "knowledge"),
	}
}

// GetDefaultConfigPath returns the default config file location.
func GetDefaultConfigPath() string {
	return filepath.Join(xdg.ConfigHome, "deskpilot", "config.json")
}

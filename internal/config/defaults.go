package config

import (
	"os"
	"path/filepath"
	"runtime"
)

// PlatformConfigDir returns the platform-specific config directory.
//
// Platform paths:
//   - macOS:   ~/Library/Application Support/menukit/
//   - Linux:   ~/.config/menukit/
//   - Windows: %APPDATA%\menukit\
//
// Falls back to ~/.menukit if platform detection fails.
func PlatformConfigDir() string {
	switch runtime.GOOS {
	case "darwin":
		return macOSConfigDir()
	case "linux":
		return linuxConfigDir()
	case "windows":
		return windowsConfigDir()
	default:
		return fallbackConfigDir()
	}
}

func macOSConfigDir() string {
	home := os.Getenv("HOME")
	if home == "" {
		home, _ = os.UserHomeDir()
	}
	return filepath.Join(home, "Library", "Application Support", "menukit")
}

func linuxConfigDir() string {
	if xdgConfig := os.Getenv("XDG_CONFIG_HOME"); xdgConfig != "" {
		return filepath.Join(xdgConfig, "menukit")
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".config", "menukit")
}

func windowsConfigDir() string {
	if appData := os.Getenv("APPDATA"); appData != "" {
		return filepath.Join(appData, "menukit")
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, "AppData", "Roaming", "menukit")
}

func fallbackConfigDir() string {
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".menukit")
}

// SupportedConfigFormats returns the list of supported config file formats.
func SupportedConfigFormats() []string {
	return []string{"toml", "json", "yaml", "yml"}
}

// FindConfigFile searches for a config file in standard locations.
// Returns the path to the first found config file, or empty string if
// none found.
func FindConfigFile() string {
	searchDirs := []string{".", PlatformConfigDir()}

	for _, dir := range searchDirs {
		for _, ext := range SupportedConfigFormats() {
			path := filepath.Join(dir, "config."+ext)
			if _, err := os.Stat(path); err == nil {
				return path
			}
		}
	}
	return ""
}

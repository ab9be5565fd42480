package app

import (
	"fmt"
	"os"
	"path/filepath"
)

// Defaults are the paths used when neither flags nor the config file set them.
type Defaults struct {
	ConfigPath string
	BaseDir    string
	LogDir     string
	HistoryDir string
}

// GetDefaults returns application default paths, checking environment variables first.
// Environment variables:
//   - HR_CONFIG_PATH: config file location (default: ~/.config/hrestore.toml)
//   - HR_HOME: base directory for hrestore data (default: ~/.local/share/hrestore)
//   - HR_HISTORY_DIR: editor history root (default: <user config dir>/Cursor/User/History)
func GetDefaults() (*Defaults, error) {
	configPath, err := getConfigPath()
	if err != nil {
		return nil, err
	}

	baseDir, err := getBaseDir()
	if err != nil {
		return nil, err
	}

	return &Defaults{
		ConfigPath: configPath,
		BaseDir:    baseDir,
		LogDir:     filepath.Join(baseDir, "log"),
		HistoryDir: getHistoryDir(),
	}, nil
}

func getConfigPath() (string, error) {
	if path := os.Getenv("HR_CONFIG_PATH"); path != "" {
		return path, nil
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("cannot determine home directory: %w", err)
	}
	return filepath.Join(homeDir, ".config", "hrestore.toml"), nil
}

func getBaseDir() (string, error) {
	if path := os.Getenv("HR_HOME"); path != "" {
		return path, nil
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("cannot determine home directory: %w", err)
	}
	return filepath.Join(homeDir, ".local", "share", "hrestore"), nil
}

// getHistoryDir returns the editor's local history root. os.UserConfigDir is
// %AppData% on Windows, ~/Library/Application Support on macOS and
// $XDG_CONFIG_HOME or ~/.config elsewhere, which is where the editor keeps
// its User directory. Empty when no config dir can be determined.
func getHistoryDir() string {
	if path := os.Getenv("HR_HISTORY_DIR"); path != "" {
		return path
	}

	configDir, err := os.UserConfigDir()
	if err != nil {
		return ""
	}
	return filepath.Join(configDir, "Cursor", "User", "History")
}

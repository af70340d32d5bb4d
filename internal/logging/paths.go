package logging

import (
	"fmt"
	"os"
	"path/filepath"
)

// DefaultLogDir returns the log directory: INDEX_MCP_LOG_DIR if set, else
// ~/.codeindex/logs, falling back to a temp directory if the home
// directory is unavailable.
func DefaultLogDir() string {
	if dir := os.Getenv("INDEX_MCP_LOG_DIR"); dir != "" {
		return dir
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(os.TempDir(), ".codeindex", "logs")
	}
	return filepath.Join(home, ".codeindex", "logs")
}

// DefaultLogPath returns the default server log path.
func DefaultLogPath() string {
	return filepath.Join(DefaultLogDir(), "server.log")
}

// EnsureLogDir creates the log directory if it doesn't exist.
func EnsureLogDir() error {
	return os.MkdirAll(DefaultLogDir(), 0o755)
}

// FindLogFile resolves the log file to read: explicit path if given, else
// the default server log. Returns an error if neither exists.
func FindLogFile(explicit string) (string, error) {
	if explicit != "" {
		if _, err := os.Stat(explicit); err == nil {
			return explicit, nil
		}
		return "", fmt.Errorf("log file not found: %s", explicit)
	}

	path := DefaultLogPath()
	if _, err := os.Stat(path); err == nil {
		return path, nil
	}
	return "", fmt.Errorf("no log file found; expected at: %s", path)
}

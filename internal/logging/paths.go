package logging

import (
	"os"
	"path/filepath"
)

// DefaultLogDir returns the log directory: $XDG_STATE_HOME/chatsift when
// set, ~/.local/state/chatsift otherwise. Falls back to the temp directory
// when no home directory is available.
func DefaultLogDir() string {
	if state := os.Getenv("XDG_STATE_HOME"); state != "" {
		return filepath.Join(state, "chatsift")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(os.TempDir(), "chatsift", "logs")
	}
	return filepath.Join(home, ".local", "state", "chatsift")
}

// DefaultLogPath returns the default log file path.
func DefaultLogPath() string {
	return filepath.Join(DefaultLogDir(), "chatsift.log")
}

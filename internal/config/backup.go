package config

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"
)

const (
	// MaxConfigBackups is how many timestamped config backups to keep.
	MaxConfigBackups = 3

	// BackupSuffix is the file extension marking backup files.
	BackupSuffix = ".bak"
)

// BackupUserConfig writes a timestamped copy of the user config next to it
// and returns the backup path. No user config means nothing to do: empty
// path, nil error.
func BackupUserConfig() (string, error) {
	configPath := GetUserConfigPath()
	if !UserConfigExists() {
		return "", nil
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return "", fmt.Errorf("cannot read config for backup: %w", err)
	}

	backupPath, err := writeBackupFile(configPath, data)
	if err != nil {
		return "", err
	}

	// Pruning old backups is best-effort; the backup itself succeeded.
	_ = pruneOldBackups()

	return backupPath, nil
}

// writeBackupFile writes data to a fresh timestamped backup path next to
// configPath. Timestamps carry nanoseconds, and O_EXCL guards the remaining
// window: a colliding name gets a numeric suffix instead of truncating an
// existing backup.
func writeBackupFile(configPath string, data []byte) (string, error) {
	timestamp := time.Now().Format("20060102-150405.000000000")
	for attempt := 0; ; attempt++ {
		backupPath := fmt.Sprintf("%s%s.%s", configPath, BackupSuffix, timestamp)
		if attempt > 0 {
			backupPath = fmt.Sprintf("%s-%d", backupPath, attempt)
		}
		f, err := os.OpenFile(backupPath, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
		if os.IsExist(err) {
			continue
		}
		if err != nil {
			return "", fmt.Errorf("cannot write backup: %w", err)
		}
		if _, err := f.Write(data); err != nil {
			f.Close()
			return "", fmt.Errorf("cannot write backup: %w", err)
		}
		if err := f.Close(); err != nil {
			return "", fmt.Errorf("cannot write backup: %w", err)
		}
		return backupPath, nil
	}
}

// ListUserConfigBackups returns the user config's backup files, newest
// first.
func ListUserConfigBackups() ([]string, error) {
	configPath := GetUserConfigPath()
	configDir := filepath.Dir(configPath)

	entries, err := os.ReadDir(configDir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("cannot list config directory: %w", err)
	}

	prefix := filepath.Base(configPath) + BackupSuffix + "."
	var backups []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if strings.HasPrefix(entry.Name(), prefix) {
			backups = append(backups, filepath.Join(configDir, entry.Name()))
		}
	}

	sort.Slice(backups, func(i, j int) bool {
		infoI, _ := os.Stat(backups[i])
		infoJ, _ := os.Stat(backups[j])
		if infoI == nil || infoJ == nil {
			return false
		}
		return infoI.ModTime().After(infoJ.ModTime())
	})

	return backups, nil
}

// pruneOldBackups removes backups beyond MaxConfigBackups, keeping the
// newest.
func pruneOldBackups() error {
	backups, err := ListUserConfigBackups()
	if err != nil {
		return err
	}
	if len(backups) <= MaxConfigBackups {
		return nil
	}
	for _, backup := range backups[MaxConfigBackups:] {
		_ = os.Remove(backup)
	}
	return nil
}

// RestoreUserConfig replaces the user config with a backup file's contents,
// backing up the current config first.
func RestoreUserConfig(backupPath string) error {
	// Read the requested backup before touching anything else: the
	// pre-restore backup below must never be able to clobber or prune the
	// file being restored.
	data, err := os.ReadFile(backupPath)
	if err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("backup file not found: %w", err)
		}
		return fmt.Errorf("cannot read backup: %w", err)
	}

	if UserConfigExists() {
		if _, err := BackupUserConfig(); err != nil {
			return fmt.Errorf("cannot back up current config before restore: %w", err)
		}
	}
	if err := os.MkdirAll(GetUserConfigDir(), 0o755); err != nil {
		return fmt.Errorf("cannot create config directory: %w", err)
	}
	if err := os.WriteFile(GetUserConfigPath(), data, 0o644); err != nil {
		return fmt.Errorf("cannot write restored config: %w", err)
	}
	return nil
}

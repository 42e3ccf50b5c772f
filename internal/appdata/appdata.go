// Package appdata resolves the per-user application data directory where
// downloaded sources and the legacy combined file live.
package appdata

import (
	"fmt"
	"os"
	"path/filepath"
)

const appDirName = "claimscan"

// Dir returns the application data directory, creating it if needed.
func Dir() (string, error) {
	base, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("resolve user config dir: %w", err)
	}
	dir := filepath.Join(base, appDirName)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create appdata dir: %w", err)
	}
	return dir, nil
}

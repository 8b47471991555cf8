package main

import (
	"os"
	"path/filepath"
)

// defaultConfigPath mirrors the teacher's getConfigPath: prefer a
// project-local config, fall back to one under the user's home directory.
func defaultConfigPath() string {
	local := filepath.Join(".swiftagent", "config.json")
	if _, err := os.Stat(local); err == nil {
		return local
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return local
	}
	return filepath.Join(home, ".swiftagent", "config.json")
}

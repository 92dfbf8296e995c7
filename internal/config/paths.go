package config

import (
	"os"
	"path/filepath"
)

// resolvePath anchors relative paths at the directory holding the config file.
// Configs built with Parse fall back to the working directory.
func (c *AppConfig) resolvePath(p string) string {
	if filepath.IsAbs(p) {
		return filepath.Clean(p)
	}
	base := c.baseDir
	if base == "" {
		wd, err := os.Getwd()
		if err != nil {
			return filepath.Clean(p)
		}
		base = wd
	}
	return filepath.Join(base, p)
}

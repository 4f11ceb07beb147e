package utils

import (
	"os"
	"path/filepath"

	"github.com/toyz/abitest/internal/errors"
)

// WriteGoFile writes already formatted code, creating parent directories
func WriteGoFile(filename string, code []byte) error {
	if dir := filepath.Dir(filename); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return errors.WrapFileSystemError("create directory for", filename, err)
		}
	}
	if err := os.WriteFile(filename, code, 0o644); err != nil {
		return errors.WrapFileSystemError("write", filename, err)
	}
	return nil
}

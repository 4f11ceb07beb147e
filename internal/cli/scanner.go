package cli

import (
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/toyz/abitest/internal/errors"
)

// DirectoryScanner expands directory arguments into the directories holding Go files
type DirectoryScanner struct{}

// NewDirectoryScanner creates a new directory scanner
func NewDirectoryScanner() *DirectoryScanner {
	return &DirectoryScanner{}
}

// ScanDirectories resolves each argument to absolute directories containing Go files.
// Go-style patterns like "./..." walk recursively, skipping hidden, vendor and testdata
// directories. The result is sorted and free of duplicates.
func (s *DirectoryScanner) ScanDirectories(rootDirs []string) ([]string, error) {
	seen := make(map[string]bool)
	var dirs []string
	add := func(dir string) {
		if !seen[dir] {
			seen[dir] = true
			dirs = append(dirs, dir)
		}
	}

	for _, rootDir := range rootDirs {
		recursive := false
		base := rootDir
		if rootDir == "..." || strings.HasSuffix(rootDir, "/...") {
			recursive = true
			base = strings.TrimSuffix(strings.TrimSuffix(rootDir, "..."), "/")
			if base == "" {
				base = "."
			}
		}

		abs, err := filepath.Abs(base)
		if err != nil {
			return nil, errors.WrapFileSystemError("resolve", base, err)
		}
		info, err := os.Stat(abs)
		if err != nil {
			return nil, errors.WrapFileSystemError("stat", base, err)
		}
		if !info.IsDir() {
			return nil, errors.Newf(errors.FileSystemErrorCode, "%s is not a directory", base).
				WithContext("path", base)
		}

		if !recursive {
			if hasGoFiles(abs) {
				add(abs)
			}
			continue
		}

		err = filepath.WalkDir(abs, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if !d.IsDir() {
				return nil
			}
			if path != abs && skipDir(d.Name()) {
				return filepath.SkipDir
			}
			if hasGoFiles(path) {
				add(path)
			}
			return nil
		})
		if err != nil {
			return nil, errors.WrapFileSystemError("walk", base, err)
		}
	}

	sort.Strings(dirs)
	return dirs, nil
}

func skipDir(name string) bool {
	return strings.HasPrefix(name, ".") || strings.HasPrefix(name, "_") ||
		name == "vendor" || name == "testdata"
}

func hasGoFiles(dir string) bool {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return false
	}
	for _, e := range entries {
		if !e.IsDir() && strings.HasSuffix(e.Name(), ".go") {
			return true
		}
	}
	return false
}

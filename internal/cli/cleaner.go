package cli

import (
	"bufio"
	"os"
	"path/filepath"
	"strings"

	"github.com/toyz/abitest/internal/errors"
)

// GeneratedHeader is the first line of every file abitest writes
const GeneratedHeader = "// Code generated by abitest. DO NOT EDIT."

// Cleaner removes previously generated test files
type Cleaner struct {
	scanner *DirectoryScanner
}

// NewCleaner creates a new cleaner
func NewCleaner() *Cleaner {
	return &Cleaner{
		scanner: NewDirectoryScanner(),
	}
}

// CleanGeneratedFiles removes every _test.go file carrying the abitest header from the given
// directories and returns the removed paths. Other files are never touched.
func (c *Cleaner) CleanGeneratedFiles(directories []string) ([]string, error) {
	dirs, err := c.scanner.ScanDirectories(directories)
	if err != nil {
		return nil, err
	}

	var removed []string
	for _, dir := range dirs {
		files, err := c.generatedFiles(dir)
		if err != nil {
			return removed, err
		}
		for _, f := range files {
			if err := os.Remove(f); err != nil {
				return removed, errors.WrapFileSystemError("remove", f, err)
			}
			removed = append(removed, f)
		}
	}
	return removed, nil
}

func (c *Cleaner) generatedFiles(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, errors.WrapFileSystemError("read", dir, err)
	}
	var out []string
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), "_test.go") {
			continue
		}
		path := filepath.Join(dir, e.Name())
		ok, err := isGenerated(path)
		if err != nil {
			return nil, err
		}
		if ok {
			out = append(out, path)
		}
	}
	return out, nil
}

// isGenerated reports whether the first line of path is the abitest header
func isGenerated(path string) (bool, error) {
	f, err := os.Open(path)
	if err != nil {
		return false, errors.WrapFileSystemError("open", path, err)
	}
	defer f.Close()

	sc := bufio.NewScanner(f)
	if !sc.Scan() {
		return false, nil
	}
	return strings.TrimSpace(sc.Text()) == GeneratedHeader, nil
}

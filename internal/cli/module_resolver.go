package cli

import (
	"fmt"
	"path/filepath"

	"github.com/toyz/abitest/internal/errors"
	"github.com/toyz/abitest/internal/utils"
)

// ModuleResolver finds the import path of a binding package
type ModuleResolver struct {
	gomod *utils.GoModParser
}

// NewModuleResolver creates a new module resolver
func NewModuleResolver() *ModuleResolver {
	return &ModuleResolver{gomod: utils.NewGoModParser()}
}

// ResolveModuleName returns customModule when set, otherwise the module declared by the
// go.mod enclosing dir
func (r *ModuleResolver) ResolveModuleName(dir, customModule string) (string, error) {
	if customModule != "" {
		return customModule, nil
	}
	goMod, err := r.gomod.FindGoModFile(dir)
	if err != nil {
		return "", moduleError(dir, err)
	}
	name, err := r.gomod.ParseModuleName(goMod)
	if err != nil {
		return "", moduleError(dir, err)
	}
	return name, nil
}

// BuildPackagePath returns the import path of the package in dir.
// With customModule set, dir is taken relative to the go.mod directory when one exists and
// customModule itself is the package path otherwise.
func (r *ModuleResolver) BuildPackagePath(dir, customModule string) (string, error) {
	if customModule == "" {
		path, err := r.gomod.PackageImportPath(dir)
		if err != nil {
			return "", moduleError(dir, err)
		}
		return path, nil
	}

	goMod, err := r.gomod.FindGoModFile(dir)
	if err != nil {
		return customModule, nil
	}
	path, err := utils.JoinImportPath(customModule, filepath.Dir(goMod), dir)
	if err != nil {
		return "", moduleError(dir, err)
	}
	return path, nil
}

func moduleError(dir string, cause error) error {
	return errors.Wrap(errors.ConfigurationErrorCode,
		fmt.Sprintf("failed to determine the import path of %s", dir), cause).
		WithContext("dir", dir).
		WithSuggestions("Pass --module with the binding's module path")
}

package parser

import (
	"fmt"
	"go/ast"
	"go/parser"
	"go/token"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/toyz/abitest/internal/errors"
	"github.com/toyz/abitest/internal/models"
)

// Parser reads Go binding source and builds the signature model of one wrapper type
type Parser struct {
	fileSet *token.FileSet
}

// NewParser creates a new binding parser
func NewParser() *Parser {
	return &Parser{
		fileSet: token.NewFileSet(),
	}
}

// ParseSource parses source code from a string for testing purposes
func (p *Parser) ParseSource(filename, source, wrapper string) (*models.WrapperMetadata, error) {
	file, err := parser.ParseFile(p.fileSet, filename, source, parser.SkipObjectResolution)
	if err != nil {
		return nil, errors.WrapParseError(filename, err)
	}
	metadata, err := p.build([]*ast.File{file}, wrapper)
	if err != nil {
		return nil, err
	}
	metadata.PackagePath = "./"
	return metadata, nil
}

// ParseDirectory parses every non-test Go file of a package directory, in file name order
func (p *Parser) ParseDirectory(dir, wrapper string) (*models.WrapperMetadata, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, errors.WrapFileSystemError("read", dir, err)
	}

	var names []string
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.HasSuffix(name, ".go") || strings.HasSuffix(name, "_test.go") {
			continue
		}
		names = append(names, name)
	}
	sort.Strings(names)
	if len(names) == 0 {
		return nil, errors.Newf(errors.SyntaxErrorCode, "no Go files found in directory %s", dir)
	}

	var files []*ast.File
	var packageName string
	for _, name := range names {
		fullPath := filepath.Join(dir, name)
		file, err := parser.ParseFile(p.fileSet, fullPath, nil, parser.SkipObjectResolution)
		if err != nil {
			return nil, errors.WrapParseError(fullPath, err)
		}
		if packageName == "" {
			packageName = file.Name.Name
		} else if file.Name.Name != packageName {
			return nil, errors.Newf(errors.SyntaxErrorCode, "multiple packages found in directory %s", dir).
				WithContext("packages", []string{packageName, file.Name.Name})
		}
		files = append(files, file)
	}

	metadata, err := p.build(files, wrapper)
	if err != nil {
		return nil, err
	}
	metadata.PackagePath = dir
	return metadata, nil
}

// declaredFunc is a function or method declaration with its position for ordering
type declaredFunc struct {
	decl     *ast.FuncDecl
	receiver string
	order    int
}

type packageIndex struct {
	types   map[string]*ast.TypeSpec
	methods map[string][]declaredFunc // receiver base type -> methods in source order
	funcs   []declaredFunc
}

func (p *Parser) build(files []*ast.File, wrapper string) (*models.WrapperMetadata, error) {
	if wrapper == "" {
		return nil, errors.New(errors.ConfigurationErrorCode, "wrapper type name is required")
	}

	idx := &packageIndex{
		types:   make(map[string]*ast.TypeSpec),
		methods: make(map[string][]declaredFunc),
	}
	metadata := &models.WrapperMetadata{
		PackageName: files[0].Name.Name,
		Wrapper:     wrapper,
		Imports:     make(map[string]string),
	}

	order := 0
	for _, file := range files {
		for _, imp := range file.Imports {
			importPath, err := strconv.Unquote(imp.Path.Value)
			if err != nil {
				continue
			}
			qualifier := path.Base(importPath)
			if imp.Name != nil {
				qualifier = imp.Name.Name
			}
			if qualifier == "_" || qualifier == "." {
				continue
			}
			if _, exists := metadata.Imports[qualifier]; !exists {
				metadata.Imports[qualifier] = importPath
			}
		}

		for _, decl := range file.Decls {
			switch d := decl.(type) {
			case *ast.GenDecl:
				if d.Tok != token.TYPE {
					continue
				}
				for _, spec := range d.Specs {
					if ts, ok := spec.(*ast.TypeSpec); ok {
						idx.types[ts.Name.Name] = ts
					}
				}
			case *ast.FuncDecl:
				order++
				if d.Recv != nil && len(d.Recv.List) > 0 {
					recv := receiverBase(d.Recv.List[0].Type)
					idx.methods[recv] = append(idx.methods[recv], declaredFunc{decl: d, receiver: recv, order: order})
				} else {
					idx.funcs = append(idx.funcs, declaredFunc{decl: d, order: order})
				}
			}
		}
	}

	if _, ok := idx.types[wrapper]; !ok {
		return nil, errors.Newf(errors.SyntaxErrorCode, "wrapper type '%s' not found in package %s", wrapper, metadata.PackageName).
			WithSuggestions("Pass the exact Go type name of the binding, e.g. --type Greeter")
	}

	conv := &typeConverter{types: idx.types}

	var selected []declaredFunc
	selected = append(selected, p.staticFunctions(idx, wrapper)...)
	selected = append(selected, p.methodSet(idx, wrapper)...)
	sort.SliceStable(selected, func(i, j int) bool { return selected[i].order < selected[j].order })

	for _, fn := range selected {
		metadata.Signatures = append(metadata.Signatures, p.signature(conv, fn))
	}

	return metadata, nil
}

// staticFunctions returns exported package-level functions that produce the wrapper
func (p *Parser) staticFunctions(idx *packageIndex, wrapper string) []declaredFunc {
	var out []declaredFunc
	for _, fn := range idx.funcs {
		if !fn.decl.Name.IsExported() || fn.decl.Type.Results == nil {
			continue
		}
		for _, field := range fn.decl.Type.Results.List {
			if receiverBase(field.Type) == wrapper {
				out = append(out, fn)
				break
			}
		}
	}
	return out
}

// methodSet returns the exported methods of typeName including those promoted from embedded
// package-local types. Shallower declarations shadow deeper ones.
func (p *Parser) methodSet(idx *packageIndex, typeName string) []declaredFunc {
	seen := make(map[string]bool)
	visited := make(map[string]bool)
	var out []declaredFunc

	level := []string{typeName}
	for len(level) > 0 {
		var next []string
		var found []declaredFunc
		for _, name := range level {
			if visited[name] {
				continue
			}
			visited[name] = true
			for _, m := range idx.methods[name] {
				mname := m.decl.Name.Name
				if !m.decl.Name.IsExported() || seen[mname] || models.IsUniversalMethod(mname) {
					continue
				}
				found = append(found, m)
			}
			next = append(next, embeddedTypes(idx.types[name])...)
		}
		for _, m := range found {
			if !seen[m.decl.Name.Name] {
				seen[m.decl.Name.Name] = true
				out = append(out, m)
			}
		}
		level = next
	}
	return out
}

func embeddedTypes(ts *ast.TypeSpec) []string {
	if ts == nil {
		return nil
	}
	st, ok := ts.Type.(*ast.StructType)
	if !ok || st.Fields == nil {
		return nil
	}
	var out []string
	for _, field := range st.Fields.List {
		if len(field.Names) > 0 {
			continue
		}
		if name := receiverBase(field.Type); name != "" {
			out = append(out, name)
		}
	}
	return out
}

func (p *Parser) signature(conv *typeConverter, fn declaredFunc) models.Signature {
	d := fn.decl
	pos := p.fileSet.Position(d.Pos())
	sig := models.Signature{
		Name:     d.Name.Name,
		IsStatic: d.Recv == nil,
		Source:   fmt.Sprintf("%s:%d", pos.Filename, pos.Line),
	}

	index := 0
	if d.Type.Params != nil {
		for _, field := range d.Type.Params.List {
			t := conv.convert(field.Type)
			names := field.Names
			if len(names) == 0 {
				names = []*ast.Ident{{Name: "_"}}
			}
			for _, n := range names {
				sig.Parameters = append(sig.Parameters, models.Parameter{Name: n.Name, Type: t, Index: index})
				index++
			}
		}
	}
	if d.Type.Results != nil {
		for _, field := range d.Type.Results.List {
			t := conv.convert(field.Type)
			count := len(field.Names)
			if count == 0 {
				count = 1
			}
			for i := 0; i < count; i++ {
				sig.Results = append(sig.Results, t)
			}
		}
	}
	return sig
}

// receiverBase returns the base type name of T, *T, T[P] or *T[P]; empty for anything else
func receiverBase(expr ast.Expr) string {
	switch t := expr.(type) {
	case *ast.Ident:
		return t.Name
	case *ast.StarExpr:
		return receiverBase(t.X)
	case *ast.IndexExpr:
		return receiverBase(t.X)
	case *ast.IndexListExpr:
		return receiverBase(t.X)
	case *ast.ParenExpr:
		return receiverBase(t.X)
	}
	return ""
}

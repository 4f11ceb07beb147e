package generator

import (
	"strings"

	"golang.org/x/tools/imports"

	"github.com/toyz/abitest/internal/errors"
	"github.com/toyz/abitest/internal/templates"
)

// FileOptions configures the rendered _test.go file around an assembled suite
type FileOptions struct {
	Package     string            // package clause of the test file
	FileName    string            // derived from the wrapper when empty
	Imports     map[string]string // qualifier -> import path
	Binding     string            // import path of the binding package when the test is external
	Placeholder string            // named in the header note, defaults to the literal placeholder
	RPCEnv      string
	KeyEnv      string
}

// DefaultImports maps every qualifier emitted text may reference to its import path
func DefaultImports() map[string]string {
	return map[string]string{
		"context":   "context",
		"os":        "os",
		"strings":   "strings",
		"testing":   "testing",
		"big":       "math/big",
		"bind":      "github.com/ethereum/go-ethereum/accounts/abi/bind",
		"common":    "github.com/ethereum/go-ethereum/common",
		"types":     "github.com/ethereum/go-ethereum/core/types",
		"crypto":    "github.com/ethereum/go-ethereum/crypto",
		"ethclient": "github.com/ethereum/go-ethereum/ethclient",
		"require":   "github.com/stretchr/testify/require",
		"suite":     "github.com/stretchr/testify/suite",
	}
}

// RenderFile renders a complete, gofmt-formatted test file for a generation result
func (g *Generator) RenderFile(result *Result, opts FileOptions) ([]byte, error) {
	if result == nil || result.Suite == nil {
		return nil, errors.New(errors.UnknownErrorCode, "result cannot be nil")
	}
	suite := result.Suite

	table := DefaultImports()
	if result.Metadata != nil {
		for q, p := range result.Metadata.Imports {
			table[q] = p
		}
	}
	for q, p := range opts.Imports {
		table[q] = p
	}

	wrapperRef := suite.Wrapper
	if opts.Binding != "" && g.opts.Qualifier != "" {
		table[g.opts.Qualifier] = opts.Binding
		wrapperRef = g.opts.Qualifier + "." + suite.Wrapper
	}

	placeholder := opts.Placeholder
	if placeholder == "" {
		placeholder = g.opts.Literals.Placeholder
	}
	if placeholder == "" {
		placeholder = templates.DefaultPlaceholder
	}
	rpcEnv, keyEnv := opts.RPCEnv, opts.KeyEnv
	if rpcEnv == "" {
		rpcEnv = "ABITEST_RPC_URL"
	}
	if keyEnv == "" {
		keyEnv = "ABITEST_PRIVATE_KEY"
	}

	data := map[string]interface{}{
		"Package":       opts.Package,
		"Placeholder":   placeholder,
		"SuiteName":     suite.SuiteName,
		"Wrapper":       suite.Wrapper,
		"WrapperRef":    wrapperRef,
		"InstanceField": suite.InstanceName,
		"Methods":       suite.Methods,
		"RPCEnv":        rpcEnv,
		"KeyEnv":        keyEnv,
		"SkipMessage":   rpcEnv + " and " + keyEnv + " must be set to run against a node",
		"Imports":       "",
	}

	// Render once without imports to learn which qualifiers the body references
	body, err := g.registry.Execute("suite-file", data)
	if err != nil {
		return nil, err
	}
	im := templates.NewImportManager()
	im.AddReferenced(stripComments(body), table)
	data["Imports"] = im.GenerateImports()

	source, err := g.registry.Execute("suite-file", data)
	if err != nil {
		return nil, err
	}

	fileName := opts.FileName
	if fileName == "" {
		fileName = strings.ToLower(suite.Wrapper) + "_abitest_test.go"
	}
	formatted, err := imports.Process(fileName, []byte(source), &imports.Options{
		Comments:   true,
		TabIndent:  true,
		TabWidth:   8,
		FormatOnly: true,
	})
	if err != nil {
		return []byte(source), errors.Wrap(errors.TemplateErrorCode, "generated suite is not valid Go", err).
			WithContext("file", fileName)
	}
	return formatted, nil
}

// stripComments drops line comments so prose in the header does not pull in imports
func stripComments(src string) string {
	var b strings.Builder
	for _, line := range strings.Split(src, "\n") {
		if strings.HasPrefix(strings.TrimSpace(line), "//") {
			continue
		}
		b.WriteString(line)
		b.WriteByte('\n')
	}
	return b.String()
}

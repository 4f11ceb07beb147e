package generator

import (
	"go/parser"
	"go/token"
	"strconv"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/toyz/abitest/internal/models"
	wrapperparser "github.com/toyz/abitest/internal/parser"
)

func importPaths(t *testing.T, src []byte) []string {
	t.Helper()
	file, err := parser.ParseFile(token.NewFileSet(), "suite_test.go", src, parser.ImportsOnly)
	require.NoError(t, err, "generated file must parse:\n%s", src)
	var paths []string
	for _, imp := range file.Imports {
		p, err := strconv.Unquote(imp.Path.Value)
		require.NoError(t, err)
		paths = append(paths, p)
	}
	return paths
}

func TestRenderFile_InPackage(t *testing.T) {
	g := NewGenerator(DefaultOptions())
	result, err := g.Generate(greeterMetadata(deployGreeter(), newGreeter(), greet("Greet"), newGreeting()))
	require.NoError(t, err)

	out, err := g.RenderFile(result, FileOptions{Package: "greeter"})
	require.NoError(t, err)
	src := string(out)

	assert.Contains(t, src, "// Code generated by abitest. DO NOT EDIT.")
	assert.Contains(t, src, "package greeter\n")
	assert.Contains(t, src, "type GreeterTestSuite struct {")
	assert.Contains(t, src, "\tgreeter *Greeter\n")
	assert.Contains(t, src, "func (s *GreeterTestSuite) SetupSuite() {")
	assert.Contains(t, src, "func (s *GreeterTestSuite) TestGreet() {")
	assert.Contains(t, src, "func (s *GreeterTestSuite) TestNewGreeting() {")
	assert.Contains(t, src, "func TestGreeterTestSuite(t *testing.T) {")
	assert.Contains(t, src, `os.Getenv("ABITEST_RPC_URL")`)
	assert.Contains(t, src, `os.Getenv("ABITEST_PRIVATE_KEY")`)

	assert.ElementsMatch(t, []string{
		"context",
		"os",
		"strings",
		"testing",
		"github.com/ethereum/go-ethereum/accounts/abi/bind",
		"github.com/ethereum/go-ethereum/core/types",
		"github.com/ethereum/go-ethereum/crypto",
		"github.com/ethereum/go-ethereum/ethclient",
		"github.com/stretchr/testify/require",
		"github.com/stretchr/testify/suite",
	}, importPaths(t, out))

	setup := strings.Index(src, "SetupSuite()")
	greetTest := strings.Index(src, "TestGreet()")
	txTest := strings.Index(src, "TestNewGreeting()")
	assert.True(t, setup < greetTest && greetTest < txTest, "methods must keep suite order")
}

func TestRenderFile_ExternalPackage(t *testing.T) {
	opts := DefaultOptions()
	opts.Qualifier = "greeter"
	opts.Literals.Placeholder = "hello"
	g := NewGenerator(opts)

	total := greet("Total", models.PointerTo(models.Named("big.Int")))
	result, err := g.Generate(greeterMetadata(deployGreeter(), total))
	require.NoError(t, err)

	out, err := g.RenderFile(result, FileOptions{
		Package: "greeter_test",
		Binding: "example.com/contracts/greeter",
		RPCEnv:  "NODE_URL",
		KeyEnv:  "NODE_KEY",
	})
	require.NoError(t, err)
	src := string(out)

	assert.Contains(t, src, `Replace every "hello" argument`)
	assert.Contains(t, src, "package greeter_test\n")
	assert.Contains(t, src, "\tgreeter *greeter.Greeter\n")
	assert.Contains(t, src, `greeter.DeployGreeter(s.Auth, s.Backend, "hello")`)
	assert.Contains(t, src, "big.NewInt(0)")
	assert.Contains(t, src, `os.Getenv("NODE_URL")`)
	assert.Contains(t, importPaths(t, out), "example.com/contracts/greeter")
	assert.Contains(t, importPaths(t, out), "math/big")
}

func TestRenderFile_ExternalPackageTupleArguments(t *testing.T) {
	const geoABI = `[
		{"type":"constructor","inputs":[],"stateMutability":"nonpayable"},
		{"type":"function","name":"setPoint","stateMutability":"nonpayable","outputs":[],"inputs":[
			{"name":"p","type":"tuple","internalType":"struct Geo.Point","components":[
				{"name":"x","type":"int64"},{"name":"y","type":"int64"}]}]},
		{"type":"function","name":"setPath","stateMutability":"nonpayable","outputs":[],"inputs":[
			{"name":"path","type":"tuple[]","internalType":"struct Geo.Point[]","components":[
				{"name":"x","type":"int64"},{"name":"y","type":"int64"}]}]}
	]`
	metadata, err := wrapperparser.NewABIParser(false).ParseBytes("Geo.abi", []byte(geoABI), "Geo")
	require.NoError(t, err)

	opts := DefaultOptions()
	opts.Qualifier = "geo"
	g := NewGenerator(opts)
	result, err := g.Generate(metadata)
	require.NoError(t, err)
	require.True(t, result.Failures.IsEmpty())

	out, err := g.RenderFile(result, FileOptions{Package: "geo_test", Binding: "example.com/contracts/geo"})
	require.NoError(t, err)
	src := string(out)

	assert.Contains(t, src, "s.geo.SetPoint(s.Auth, geo.GeoPoint{})")
	assert.Contains(t, src, "s.geo.SetPath(s.Auth, []geo.GeoPoint{})")
	assert.NotContains(t, src, " GeoPoint{}")
	assert.Contains(t, importPaths(t, out), "example.com/contracts/geo")
}

func TestRenderFile_NilResult(t *testing.T) {
	_, err := NewGenerator(DefaultOptions()).RenderFile(nil, FileOptions{Package: "x"})
	require.Error(t, err)
}

func TestStripComments(t *testing.T) {
	src := "// uses big.Int in prose\npackage x\n\t// bind.CallOpts\nvar _ = context.Background()\n"
	assert.Equal(t, "package x\nvar _ = context.Background()\n", stripComments(src))
}

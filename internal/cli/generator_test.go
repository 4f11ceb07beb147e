package cli

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/suite"

	"github.com/toyz/abitest/internal/errors"
	"github.com/toyz/abitest/internal/models"
	"github.com/toyz/abitest/internal/utils"
)

const greeterBinding = `package greeter

import (
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
)

type Greeter struct {
	GreeterCaller
	GreeterTransactor
}

type GreeterCaller struct{}

type GreeterTransactor struct{}

func DeployGreeter(auth *bind.TransactOpts, backend bind.ContractBackend, greeting string) (common.Address, *types.Transaction, *Greeter, error) {
	return common.Address{}, nil, nil, nil
}

func NewGreeter(address common.Address, backend bind.ContractBackend) (*Greeter, error) {
	return nil, nil
}

func (_Greeter *GreeterCaller) Greet(opts *bind.CallOpts) (string, error) {
	return "", nil
}

func (_Greeter *GreeterTransactor) NewGreeting(opts *bind.TransactOpts, greeting string) (*types.Transaction, error) {
	return nil, nil
}
`

const subscribeMethod = `
func (_Greeter *GreeterCaller) Subscribe(opts *bind.CallOpts, sink chan<- string) (string, error) {
	return "", nil
}
`

const greeterABIFile = `{
	"abi": [
		{"type":"constructor","inputs":[{"name":"_greeting","type":"string"}],"stateMutability":"nonpayable"},
		{"type":"function","name":"greet","inputs":[],"outputs":[{"name":"","type":"string"}],"stateMutability":"view"},
		{"type":"function","name":"newGreeting","inputs":[{"name":"_greeting","type":"string"}],"outputs":[],"stateMutability":"nonpayable"}
	],
	"bytecode": "0x6080"
}`

type GeneratorSuite struct {
	suite.Suite

	root   string // module root
	dir    string // binding package
	out    *bytes.Buffer
	errOut *bytes.Buffer
	stdout *bytes.Buffer
	gen    *Generator
}

func (s *GeneratorSuite) SetupTest() {
	s.root = s.T().TempDir()
	s.dir = filepath.Join(s.root, "bindings", "greeter")
	s.Require().NoError(os.MkdirAll(s.dir, 0o755))
	s.write("go.mod", "module example.com/contracts\n\ngo 1.22\n")
	s.write("bindings/greeter/greeter.go", greeterBinding)

	diagnostics := utils.NewDiagnosticSystem(utils.DiagnosticDebug)
	s.out, s.errOut, s.stdout = &bytes.Buffer{}, &bytes.Buffer{}, &bytes.Buffer{}
	diagnostics.SetOutput(s.out, s.errOut)
	s.gen = NewGenerator(diagnostics)
	s.gen.SetStdout(s.stdout)
}

func (s *GeneratorSuite) write(rel, content string) {
	path := filepath.Join(s.root, filepath.FromSlash(rel))
	s.Require().NoError(os.MkdirAll(filepath.Dir(path), 0o755))
	s.Require().NoError(os.WriteFile(path, []byte(content), 0o644))
}

func (s *GeneratorSuite) read(path string) string {
	data, err := os.ReadFile(path)
	s.Require().NoError(err)
	return string(data)
}

func (s *GeneratorSuite) outputFile() string {
	return filepath.Join(s.dir, "greeter_abitest_test.go")
}

func (s *GeneratorSuite) TestGenerateInPackage() {
	s.Require().NoError(s.gen.Generate(GenerateOptions{Dir: s.dir, Type: "Greeter"}))

	src := s.read(s.outputFile())
	s.True(strings.HasPrefix(src, GeneratedHeader+"\n"))
	s.Contains(src, "\npackage greeter\n")
	s.Contains(src, "func (s *GreeterTestSuite) SetupSuite() {")
	s.Contains(src, "func (s *GreeterTestSuite) TestGreet() {")
	s.Contains(src, "func (s *GreeterTestSuite) TestNewGreeting() {")
	s.NotContains(src, "NewGreeter(")

	summary := s.gen.GetSummary()
	s.Equal("Greeter", summary.Wrapper)
	s.Equal(s.outputFile(), summary.Output)
	s.Equal(2, summary.Tests)
	s.Equal(1, summary.Excluded)
	s.Zero(summary.Failures)
	s.True(summary.Written)

	s.Contains(s.out.String(), "✓ SetupSuite\n")
	s.Contains(s.out.String(), "✏ Writing "+s.outputFile()+"\n")
	s.Contains(s.out.String(), "[DEBUG] excluded NewGreeter")
	s.Empty(s.stdout.String())

	// a second run overwrites with identical content
	s.Require().NoError(s.gen.Generate(GenerateOptions{Dir: s.dir, Type: "Greeter"}))
	s.Equal(src, s.read(s.outputFile()))
}

func (s *GeneratorSuite) TestGenerateUnrenderableWarns() {
	s.write("bindings/greeter/subscribe.go", "package greeter\n\nimport \"github.com/ethereum/go-ethereum/accounts/abi/bind\"\n"+subscribeMethod)

	s.Require().NoError(s.gen.Generate(GenerateOptions{Dir: s.dir, Type: "Greeter"}))

	s.Contains(s.errOut.String(), "method 'Subscribe': no default literal for type 'chan<- string'")
	s.Equal(1, s.gen.GetSummary().Failures)
	src := s.read(s.outputFile())
	s.Contains(src, "TestGreet()")
	s.NotContains(src, "TestSubscribe")
}

func (s *GeneratorSuite) TestGenerateStrictFailsWithoutWriting() {
	s.write("bindings/greeter/subscribe.go", "package greeter\n\nimport \"github.com/ethereum/go-ethereum/accounts/abi/bind\"\n"+subscribeMethod)

	err := s.gen.Generate(GenerateOptions{Dir: s.dir, Type: "Greeter", Strict: true})
	s.Require().Error(err)
	s.True(errors.HasCode(err, errors.UnrenderableTypeCode))
	s.NoFileExists(s.outputFile())
}

func (s *GeneratorSuite) TestGenerateDryRun() {
	s.Require().NoError(s.gen.Generate(GenerateOptions{Dir: s.dir, Type: "Greeter", DryRun: true}))

	s.NoFileExists(s.outputFile())
	s.Contains(s.stdout.String(), "func (s *GreeterTestSuite) TestGreet() {")
	s.False(s.gen.GetSummary().Written)
}

func (s *GeneratorSuite) TestGenerateExternal() {
	output := filepath.Join(s.dir, "greeter_external_test.go")
	s.Require().NoError(s.gen.Generate(GenerateOptions{
		Dir:      s.dir,
		Type:     "Greeter",
		External: true,
		Output:   output,
	}))

	src := s.read(output)
	s.Contains(src, "\npackage greeter_test\n")
	s.Contains(src, `"example.com/contracts/bindings/greeter"`)
	s.Contains(src, "greeter *greeter.Greeter")
	s.Contains(src, "greeter.DeployGreeter(s.Auth, s.Backend,")
}

func (s *GeneratorSuite) TestGenerateExternalCustomModule() {
	s.Require().NoError(s.gen.Generate(GenerateOptions{
		Dir:      s.dir,
		Type:     "Greeter",
		External: true,
		Module:   "example.com/fork",
		DryRun:   true,
	}))
	s.Contains(s.stdout.String(), `"example.com/fork/bindings/greeter"`)
}

func (s *GeneratorSuite) TestGenerateFromABIWithConfig() {
	s.write("bindings/greeter/Greeter.json", greeterABIFile)
	s.write("bindings/greeter/abitest.toml", "placeholder = \"hello\"\n\n[suite]\nrpc_env = \"NODE_URL\"\noutput = \"greeter_abi_test.go\"\n")

	s.Require().NoError(s.gen.Generate(GenerateOptions{
		Dir:     s.dir,
		Type:    "Greeter",
		ABIFile: filepath.Join(s.dir, "Greeter.json"),
	}))

	output := filepath.Join(s.dir, "greeter_abi_test.go")
	src := s.read(output)
	s.Contains(src, "\npackage greeter\n")
	s.Contains(src, `DeployGreeter(s.Auth, s.Backend, "hello")`)
	s.Contains(src, `os.Getenv("NODE_URL")`)
	s.Contains(src, `os.Getenv("ABITEST_PRIVATE_KEY")`)
	s.Contains(s.out.String(), "[VERBOSE] Using configuration "+filepath.Join(s.dir, DefaultConfigFile))
}

func (s *GeneratorSuite) TestGenerateExplicitConfig() {
	cfg := DefaultConfig()
	cfg.Suite.Package = "contracts"

	s.Require().NoError(s.gen.Generate(GenerateOptions{Dir: s.dir, Type: "Greeter", Config: cfg, DryRun: true}))
	s.Contains(s.stdout.String(), "\npackage contracts\n")
}

func (s *GeneratorSuite) TestGenerateErrors() {
	err := s.gen.Generate(GenerateOptions{Dir: s.dir})
	s.True(errors.HasCode(err, errors.ConfigurationErrorCode))

	err = s.gen.Generate(GenerateOptions{Dir: s.dir, Type: "Missing"})
	s.Require().Error(err)

	cfg := DefaultConfig()
	cfg.Rules.Deploy = `name("DeployNothing")`
	err = s.gen.Generate(GenerateOptions{Dir: s.dir, Type: "Greeter", Config: cfg})
	s.True(errors.HasCode(err, errors.NoDeployMethodFoundCode))
	s.NoFileExists(s.outputFile())
}

func (s *GeneratorSuite) TestInspect() {
	s.write("bindings/greeter/subscribe.go", "package greeter\n\nimport \"github.com/ethereum/go-ethereum/accounts/abi/bind\"\n"+subscribeMethod)

	rows, err := s.gen.Inspect(GenerateOptions{Dir: s.dir, Type: "Greeter"})
	s.Require().NoError(err)

	type brief struct {
		Name     string
		Category models.Category
		TestName string
	}
	var got []brief
	for _, r := range rows {
		got = append(got, brief{r.Name, r.Category, r.TestName})
	}
	s.Equal([]brief{
		{"DeployGreeter", models.CategoryDeploy, "SetupSuite"},
		{"NewGreeter", models.CategoryExcluded, ""},
		{"Greet", models.CategoryView, "TestGreet"},
		{"NewGreeting", models.CategoryTransaction, "TestNewGreeting"},
		{"Subscribe", models.CategoryView, "TestSubscribe"},
	}, got)

	s.Require().NoError(s.gen.PrintInspect(rows))
	table := s.stdout.String()
	s.True(strings.HasPrefix(table, "METHOD"))
	s.Contains(table, "NewGreeter")
	s.Contains(table, "Excluded")
	s.Contains(table, "greeter.go:")
}

func (s *GeneratorSuite) TestInspectOverloadsFromABI() {
	s.write("bindings/greeter/Greeter.abi", `[
		{"type":"function","name":"greet","inputs":[],"outputs":[{"name":"","type":"string"}],"stateMutability":"view"},
		{"type":"function","name":"greet","inputs":[{"name":"who","type":"string"}],"outputs":[{"name":"","type":"string"}],"stateMutability":"view"}
	]`)

	rows, err := s.gen.Inspect(GenerateOptions{Dir: s.dir, Type: "Greeter", ABIFile: filepath.Join(s.dir, "Greeter.abi")})
	s.Require().NoError(err)

	var resolved, callees []string
	for _, r := range rows {
		if r.ResolvedName != "" {
			resolved = append(resolved, r.ResolvedName)
			callees = append(callees, r.CallName)
		}
	}
	s.Equal([]string{"greet", "greet1"}, resolved)
	s.Equal([]string{"Greet", "Greet0"}, callees)
}

func TestGeneratorSuite(t *testing.T) {
	suite.Run(t, new(GeneratorSuite))
}

package internal

import (
	"go/parser"
	"go/token"
	"strings"
	"testing"

	"github.com/toyz/abitest/internal/generator"
	"github.com/toyz/abitest/internal/models"
	wrapperparser "github.com/toyz/abitest/internal/parser"
)

const greeterSource = `package greeter

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

const greeterABI = `[
	{"type":"constructor","inputs":[{"name":"_greeting","type":"string"}],"stateMutability":"nonpayable"},
	{"type":"function","name":"greet","inputs":[],"outputs":[{"name":"","type":"string"}],"stateMutability":"view"},
	{"type":"function","name":"newGreeting","inputs":[{"name":"_greeting","type":"string"}],"outputs":[],"stateMutability":"nonpayable"},
	{"type":"event","name":"Greeted","inputs":[{"name":"greeting","type":"string","indexed":false}],"anonymous":false}
]`

const expectedSetup = `func (s *GreeterTestSuite) SetupSuite() {
	_, tx, instance, err := DeployGreeter(s.Auth, s.Backend, "REPLACE_ME")
	s.Require().NoError(err)
	_, err = bind.WaitDeployed(context.Background(), s.Backend, tx)
	s.Require().NoError(err)
	s.greeter = instance
}`

const expectedTransaction = `func (s *GreeterTestSuite) TestNewGreeting() {
	tx, err := s.greeter.NewGreeting(s.Auth, "REPLACE_ME")
	s.Require().NoError(err)
	receipt, err := bind.WaitMined(context.Background(), s.Backend, tx)
	s.Require().NoError(err)
	s.Require().Equal(types.ReceiptStatusSuccessful, receipt.Status)
}`

const expectedView = `func (s *GreeterTestSuite) TestGreet() {
	_, err := s.greeter.Greet(&bind.CallOpts{})
	s.Require().NoError(err)
}`

// TestGreeterPipeline runs both front ends through generation and rendering and expects the same suite
func TestGreeterPipeline(t *testing.T) {
	gen := generator.NewGenerator(generator.DefaultOptions())

	fromSource, err := wrapperparser.NewParser().ParseSource("greeter.go", greeterSource, "Greeter")
	if err != nil {
		t.Fatalf("failed to parse binding source: %v", err)
	}
	fromABI, err := wrapperparser.NewABIParser(false).ParseBytes("Greeter.abi", []byte(greeterABI), "Greeter")
	if err != nil {
		t.Fatalf("failed to parse ABI: %v", err)
	}

	var rendered []string
	for _, step := range []struct {
		name string
		run  func() (string, error)
	}{
		{"source", func() (string, error) { return render(gen, fromSource) }},
		{"abi", func() (string, error) { return render(gen, fromABI) }},
	} {
		t.Run(step.name, func(t *testing.T) {
			src, err := step.run()
			if err != nil {
				t.Fatalf("generation failed: %v", err)
			}

			for _, want := range []string{expectedSetup, expectedView, expectedTransaction} {
				if !strings.Contains(src, want) {
					t.Errorf("generated file is missing:\n%s\n\ngot:\n%s", want, src)
				}
			}
			if strings.Contains(src, "NewGreeter(") || strings.Contains(src, "Greeted") {
				t.Errorf("excluded members leaked into the suite:\n%s", src)
			}
			if _, err := parser.ParseFile(token.NewFileSet(), "greeter_abitest_test.go", src, parser.AllErrors); err != nil {
				t.Errorf("generated file does not parse: %v", err)
			}
			rendered = append(rendered, src)
		})
	}

	if len(rendered) == 2 && rendered[0] != rendered[1] {
		t.Errorf("source and ABI inputs should render the same suite")
	}
}

func render(gen *generator.Generator, metadata *models.WrapperMetadata) (string, error) {
	result, err := gen.Generate(metadata)
	if err != nil {
		return "", err
	}
	if !result.Failures.IsEmpty() {
		return "", result.Failures
	}
	out, err := gen.RenderFile(result, generator.FileOptions{Package: "greeter"})
	return string(out), err
}

const helperSource = `package greeter

import (
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/event"
)

type Greeter struct {
	GreeterCaller
	GreeterTransactor
	GreeterFilterer
}

type GreeterCaller struct{}

type GreeterTransactor struct{}

type GreeterFilterer struct{}

type GreeterGreeted struct {
	Greeting string
	Raw      types.Log
}

type GreeterGreetedIterator struct{}

func DeployGreeter(auth *bind.TransactOpts, backend bind.ContractBackend) (common.Address, *types.Transaction, *Greeter, error) {
	return common.Address{}, nil, nil, nil
}

func (_Greeter *GreeterCaller) FilterOwners(opts *bind.CallOpts) ([]common.Address, error) {
	return nil, nil
}

func (_Greeter *GreeterTransactor) ParseInput(opts *bind.TransactOpts, input string) (*types.Transaction, error) {
	return nil, nil
}

func (_Greeter *GreeterFilterer) FilterGreeted(opts *bind.FilterOpts) (*GreeterGreetedIterator, error) {
	return nil, nil
}

func (_Greeter *GreeterFilterer) WatchGreeted(opts *bind.WatchOpts, sink chan<- *GreeterGreeted) (event.Subscription, error) {
	return nil, nil
}

func (_Greeter *GreeterFilterer) ParseGreeted(log types.Log) (*GreeterGreeted, error) {
	return nil, nil
}
`

const helperABI = `[
	{"type":"constructor","inputs":[],"stateMutability":"nonpayable"},
	{"type":"function","name":"filterOwners","inputs":[],"outputs":[{"name":"","type":"address[]"}],"stateMutability":"view"},
	{"type":"function","name":"parseInput","inputs":[{"name":"input","type":"string"}],"outputs":[],"stateMutability":"nonpayable"},
	{"type":"event","name":"Greeted","inputs":[{"name":"greeting","type":"string","indexed":false}],"anonymous":false}
]`

// TestEventHelpersExcludedByShape keeps contract functions whose names look like event helpers
func TestEventHelpersExcludedByShape(t *testing.T) {
	gen := generator.NewGenerator(generator.DefaultOptions())

	fromSource, err := wrapperparser.NewParser().ParseSource("greeter.go", helperSource, "Greeter")
	if err != nil {
		t.Fatalf("failed to parse binding source: %v", err)
	}
	fromABI, err := wrapperparser.NewABIParser(false).ParseBytes("Greeter.abi", []byte(helperABI), "Greeter")
	if err != nil {
		t.Fatalf("failed to parse ABI: %v", err)
	}

	for name, metadata := range map[string]*models.WrapperMetadata{"source": fromSource, "abi": fromABI} {
		t.Run(name, func(t *testing.T) {
			src, err := render(gen, metadata)
			if err != nil {
				t.Fatalf("generation failed: %v", err)
			}
			for _, want := range []string{
				`tx, err := s.greeter.ParseInput(s.Auth, "REPLACE_ME")`,
				`_, err := s.greeter.FilterOwners(&bind.CallOpts{})`,
			} {
				if !strings.Contains(src, want) {
					t.Errorf("generated file is missing %q:\n%s", want, src)
				}
			}
			if strings.Contains(src, "Greeted") {
				t.Errorf("event helpers leaked into the suite:\n%s", src)
			}
		})
	}
}

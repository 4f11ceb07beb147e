package parser

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"

	"github.com/toyz/abitest/internal/errors"
	"github.com/toyz/abitest/internal/models"
)

// ABIEntry is one element of a contract ABI in declaration order
type ABIEntry struct {
	Type            string                   `json:"type"`
	Name            string                   `json:"name"`
	Inputs          []abi.ArgumentMarshaling `json:"inputs"`
	Outputs         []abi.ArgumentMarshaling `json:"outputs"`
	StateMutability string                   `json:"stateMutability"`
	Constant        bool                     `json:"constant"`
	Anonymous       bool                     `json:"anonymous"`
}

// isView reports whether a function entry is called rather than transacted
func (e ABIEntry) isView() bool {
	return e.Constant || e.StateMutability == "view" || e.StateMutability == "pure"
}

// ABIParser builds the signature model that abigen would generate for a contract ABI
type ABIParser struct {
	// HasBytecode forces a deployment function even when the ABI declares no constructor
	HasBytecode bool
}

// NewABIParser creates a new ABI parser
func NewABIParser(hasBytecode bool) *ABIParser {
	return &ABIParser{HasBytecode: hasBytecode}
}

// ParseFile reads a raw ABI array or a Hardhat/Foundry artifact from disk
func (p *ABIParser) ParseFile(path, wrapper string) (*models.WrapperMetadata, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.WrapFileSystemError("read", path, err)
	}
	return p.ParseBytes(path, data, wrapper)
}

// ParseBytes parses ABI JSON. An artifact object contributes its "abi" array; a non-empty
// "bytecode" field counts as deployable.
func (p *ABIParser) ParseBytes(filename string, data []byte, wrapper string) (*models.WrapperMetadata, error) {
	if wrapper == "" {
		return nil, errors.New(errors.ConfigurationErrorCode, "wrapper type name is required")
	}
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return nil, errors.Newf(errors.SyntaxErrorCode, "ABI file is empty: %s", filename)
	}

	hasBytecode := p.HasBytecode
	if data[0] == '{' {
		var artifact struct {
			ABI      json.RawMessage `json:"abi"`
			Bytecode json.RawMessage `json:"bytecode"`
		}
		if err := json.Unmarshal(data, &artifact); err != nil {
			return nil, errors.WrapParseError(filename, err)
		}
		if len(artifact.ABI) < 2 || artifact.ABI[0] != '[' {
			return nil, errors.Newf(errors.SyntaxErrorCode, "artifact has no \"abi\" array: %s", filename)
		}
		data = artifact.ABI
		if hasArtifactBytecode(artifact.Bytecode) {
			hasBytecode = true
		}
	}

	var entries []ABIEntry
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, errors.WrapParseError(filename, err)
	}
	// abi.JSON checks every type string the entries carry
	if _, err := abi.JSON(bytes.NewReader(data)); err != nil {
		return nil, errors.WrapParseError(filename, err)
	}

	b := &abiBuilder{filename: filename, wrapper: wrapper}
	return b.build(entries, hasBytecode)
}

func hasArtifactBytecode(raw json.RawMessage) bool {
	if len(raw) == 0 {
		return false
	}
	var str string
	if err := json.Unmarshal(raw, &str); err == nil {
		str = strings.TrimSpace(str)
		return str != "" && str != "0x"
	}
	var obj struct {
		Object string `json:"object"`
	}
	if err := json.Unmarshal(raw, &obj); err == nil {
		return obj.Object != "" && obj.Object != "0x"
	}
	return false
}

// abiImports are the packages abigen bindings reference in their signatures
var abiImports = map[string]string{
	"big":    "math/big",
	"bind":   "github.com/ethereum/go-ethereum/accounts/abi/bind",
	"common": "github.com/ethereum/go-ethereum/common",
	"types":  "github.com/ethereum/go-ethereum/core/types",
	"event":  "github.com/ethereum/go-ethereum/event",
}

type abiBuilder struct {
	filename string
	wrapper  string
	structs  int
}

var (
	transactOpts = models.PointerTo(models.Named("bind.TransactOpts"))
	callOpts     = models.PointerTo(models.Named("bind.CallOpts"))
	filterOpts   = models.PointerTo(models.Named("bind.FilterOpts"))
	watchOpts    = models.PointerTo(models.Named("bind.WatchOpts"))
	backendType  = models.Named("bind.ContractBackend")
	addressType  = models.Named("common.Address")
	txType       = models.PointerTo(models.Named("types.Transaction"))
)

func (b *abiBuilder) build(entries []ABIEntry, hasBytecode bool) (*models.WrapperMetadata, error) {
	metadata := &models.WrapperMetadata{
		PackageName: strings.ToLower(b.wrapper),
		PackagePath: b.filename,
		Wrapper:     b.wrapper,
		Imports:     make(map[string]string, len(abiImports)),
	}
	for q, p := range abiImports {
		metadata.Imports[q] = p
	}

	instance := models.PointerTo(models.Named(b.wrapper))

	var constructor *ABIEntry
	for i := range entries {
		if entries[i].Type == "constructor" {
			constructor = &entries[i]
			break
		}
	}
	if constructor != nil || hasBytecode {
		deploy := models.Signature{
			Name:     "Deploy" + b.wrapper,
			IsStatic: true,
			Source:   b.filename,
			Parameters: []models.Parameter{
				{Name: "auth", Type: transactOpts, Index: 0},
				{Name: "backend", Type: backendType, Index: 1},
			},
			Results: []models.TypeRef{addressType, txType, instance, models.ErrorType},
		}
		if constructor != nil {
			params, err := b.params(constructor.Inputs, len(deploy.Parameters))
			if err != nil {
				return nil, b.entryError(*constructor, err)
			}
			deploy.Parameters = append(deploy.Parameters, params...)
		}
		metadata.Signatures = append(metadata.Signatures, deploy)
	}

	metadata.Signatures = append(metadata.Signatures, models.Signature{
		Name:     "New" + b.wrapper,
		IsStatic: true,
		Source:   b.filename,
		Parameters: []models.Parameter{
			{Name: "address", Type: addressType, Index: 0},
			{Name: "backend", Type: backendType, Index: 1},
		},
		Results: []models.TypeRef{instance, models.ErrorType},
	})

	usedCalls := make(map[string]bool)
	usedEvents := make(map[string]bool)
	for i, entry := range entries {
		source := b.filename + ":" + strconv.Itoa(i+1)
		switch entry.Type {
		case "function", "":
			sig, err := b.function(entry, usedCalls)
			if err != nil {
				return nil, b.entryError(entry, err)
			}
			sig.Source = source
			metadata.Signatures = append(metadata.Signatures, sig)
		case "fallback":
			metadata.Signatures = append(metadata.Signatures, models.Signature{
				Name:     "fallback",
				CallName: "Fallback",
				Source:   source,
				Parameters: []models.Parameter{
					{Name: "opts", Type: transactOpts, Index: 0},
					{Name: "calldata", Type: models.SliceOf(models.Basic("byte")), Index: 1},
				},
				Results: []models.TypeRef{txType, models.ErrorType},
			})
		case "receive":
			metadata.Signatures = append(metadata.Signatures, models.Signature{
				Name:       "receive",
				CallName:   "Receive",
				Source:     source,
				Parameters: []models.Parameter{{Name: "opts", Type: transactOpts, Index: 0}},
				Results:    []models.TypeRef{txType, models.ErrorType},
			})
		case "event":
			sigs, err := b.event(entry, usedEvents)
			if err != nil {
				return nil, b.entryError(entry, err)
			}
			for j := range sigs {
				sigs[j].Source = source
			}
			metadata.Signatures = append(metadata.Signatures, sigs...)
		}
	}

	return metadata, nil
}

func (b *abiBuilder) entryError(entry ABIEntry, err error) error {
	return errors.Wrap(errors.SyntaxErrorCode, fmt.Sprintf("invalid ABI %s '%s'", entry.Type, entry.Name), err).
		WithContext("file", b.filename)
}

// function maps a function entry to its binding method. Overloads share Name and get
// abigen's numbered Go identifiers: greet, greet0, greet1 -> Greet, Greet0, Greet1.
func (b *abiBuilder) function(entry ABIEntry, used map[string]bool) (models.Signature, error) {
	raw := abi.ResolveNameConflict(entry.Name, func(s string) bool { return used[s] })
	used[raw] = true

	sig := models.Signature{
		Name:     entry.Name,
		CallName: capitalise(abi.ToCamelCase(raw)),
	}

	opts := transactOpts
	if entry.isView() {
		opts = callOpts
	}
	sig.Parameters = append(sig.Parameters, models.Parameter{Name: "opts", Type: opts, Index: 0})
	params, err := b.params(entry.Inputs, 1)
	if err != nil {
		return sig, err
	}
	sig.Parameters = append(sig.Parameters, params...)

	if !entry.isView() {
		sig.Results = []models.TypeRef{txType, models.ErrorType}
		return sig, nil
	}

	outputs, err := b.outputs(entry.Outputs)
	if err != nil {
		return sig, err
	}
	sig.Results = append(outputs, models.ErrorType)
	return sig, nil
}

// event maps an event entry to the Filter, Watch and Parse helpers abigen emits
func (b *abiBuilder) event(entry ABIEntry, used map[string]bool) ([]models.Signature, error) {
	raw := abi.ResolveNameConflict(entry.Name, func(s string) bool { return used[s] })
	used[raw] = true
	goName := capitalise(abi.ToCamelCase(raw))
	eventType := models.PointerTo(models.Named(b.wrapper + goName))
	iterator := models.PointerTo(models.Named(b.wrapper + goName + "Iterator"))

	var indexed []models.Parameter
	for _, in := range entry.Inputs {
		if !in.Indexed {
			continue
		}
		t, err := b.goType(in)
		if err != nil {
			return nil, err
		}
		indexed = append(indexed, models.Parameter{Name: in.Name, Type: models.SliceOf(t)})
	}

	withIndexed := func(first ...models.Parameter) []models.Parameter {
		out := append([]models.Parameter{}, first...)
		for _, p := range indexed {
			p.Index = len(out)
			out = append(out, p)
		}
		return out
	}

	sink := models.TypeRef{Name: "chan<- " + eventType.Name, Kind: models.TypeKindChan, Elem: &eventType}
	return []models.Signature{
		{
			Name:       "Filter" + goName,
			Parameters: withIndexed(models.Parameter{Name: "opts", Type: filterOpts}),
			Results:    []models.TypeRef{iterator, models.ErrorType},
		},
		{
			Name: "Watch" + goName,
			Parameters: withIndexed(
				models.Parameter{Name: "opts", Type: watchOpts},
				models.Parameter{Name: "sink", Type: sink, Index: 1},
			),
			Results: []models.TypeRef{models.Named("event.Subscription"), models.ErrorType},
		},
		{
			Name:       "Parse" + goName,
			Parameters: []models.Parameter{{Name: "log", Type: models.Named("types.Log")}},
			Results:    []models.TypeRef{eventType, models.ErrorType},
		},
	}, nil
}

func (b *abiBuilder) params(args []abi.ArgumentMarshaling, offset int) ([]models.Parameter, error) {
	out := make([]models.Parameter, 0, len(args))
	for i, arg := range args {
		t, err := b.goType(arg)
		if err != nil {
			return nil, err
		}
		name := arg.Name
		if name == "" {
			name = "arg" + strconv.Itoa(i)
		}
		out = append(out, models.Parameter{Name: abi.ToCamelCase(name), Type: t, Index: offset + i})
	}
	return out, nil
}

// outputs follows abigen: several named outputs come back as one anonymous struct
func (b *abiBuilder) outputs(args []abi.ArgumentMarshaling) ([]models.TypeRef, error) {
	named := len(args) > 1
	for _, a := range args {
		if a.Name == "" {
			named = false
		}
	}

	types := make([]models.TypeRef, 0, len(args))
	for _, a := range args {
		t, err := b.goType(a)
		if err != nil {
			return nil, err
		}
		types = append(types, t)
	}
	if !named {
		return types, nil
	}

	parts := make([]string, len(args))
	fields := make([]string, len(args))
	for i, a := range args {
		fields[i] = capitalise(abi.ToCamelCase(a.Name))
		parts[i] = fields[i] + " " + types[i].Name
	}
	return []models.TypeRef{{
		Name:   "struct{ " + strings.Join(parts, "; ") + " }",
		Kind:   models.TypeKindStruct,
		Fields: fields,
	}}, nil
}

func (b *abiBuilder) goType(arg abi.ArgumentMarshaling) (models.TypeRef, error) {
	t, err := abi.NewType(arg.Type, arg.InternalType, arg.Components)
	if err != nil {
		return models.TypeRef{}, err
	}
	return b.bindType(t), nil
}

// bindType mirrors abigen's Solidity to Go type mapping
func (b *abiBuilder) bindType(t abi.Type) models.TypeRef {
	switch t.T {
	case abi.AddressTy:
		return addressType
	case abi.IntTy, abi.UintTy:
		switch t.Size {
		case 8, 16, 32, 64:
			prefix := "int"
			if t.T == abi.UintTy {
				prefix = "uint"
			}
			return models.Basic(prefix + strconv.Itoa(t.Size))
		}
		return models.PointerTo(models.Named("big.Int"))
	case abi.BoolTy:
		return models.Basic("bool")
	case abi.StringTy:
		return models.Basic("string")
	case abi.BytesTy:
		return models.SliceOf(models.Basic("byte"))
	case abi.FixedBytesTy:
		return models.ArrayOf(t.Size, models.Basic("byte"))
	case abi.FunctionTy:
		return models.ArrayOf(24, models.Basic("byte"))
	case abi.HashTy:
		return models.Named("common.Hash")
	case abi.SliceTy:
		return models.SliceOf(b.bindType(*t.Elem))
	case abi.ArrayTy:
		return models.ArrayOf(t.Size, b.bindType(*t.Elem))
	case abi.TupleTy:
		name := capitalise(abi.ToCamelCase(t.TupleRawName))
		if name == "" {
			name = "Struct" + strconv.Itoa(b.structs)
			b.structs++
		}
		fields := make([]string, len(t.TupleRawNames))
		for i, f := range t.TupleRawNames {
			fields[i] = capitalise(abi.ToCamelCase(f))
		}
		return models.TypeRef{Name: name, Kind: models.TypeKindStruct, Fields: fields}
	default:
		return models.SliceOf(models.Basic("byte"))
	}
}

func capitalise(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

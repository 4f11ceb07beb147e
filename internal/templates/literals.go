package templates

import (
	"strconv"
	"strings"

	"github.com/toyz/abitest/internal/errors"
	"github.com/toyz/abitest/internal/models"
)

// DefaultPlaceholder is substituted for every string-typed argument
const DefaultPlaceholder = "REPLACE_ME"

// LiteralOptions configures argument rendering
type LiteralOptions struct {
	// Placeholder is the literal used for string arguments
	Placeholder string

	// Inject maps a type name to an expression supplied by the suite, such as s.Auth
	Inject map[string]string

	// Defaults maps a type name to a default-construction expression, such as big.NewInt(0)
	Defaults map[string]string

	// Qualifier prefixes types declared in the binding package when tests live outside it
	Qualifier string
}

// DefaultLiteralOptions returns the rendering rules for abigen bindings
func DefaultLiteralOptions() LiteralOptions {
	return LiteralOptions{
		Placeholder: DefaultPlaceholder,
		Inject: map[string]string{
			"*bind.TransactOpts":      "s.Auth",
			"*bind.CallOpts":          "&bind.CallOpts{}",
			"*bind.FilterOpts":        "&bind.FilterOpts{}",
			"*bind.WatchOpts":         "&bind.WatchOpts{}",
			"bind.ContractBackend":    "s.Backend",
			"bind.DeployBackend":      "s.Backend",
			"bind.ContractCaller":     "s.Backend",
			"bind.ContractTransactor": "s.Backend",
			"bind.ContractFilterer":   "s.Backend",
		},
		Defaults: map[string]string{
			"*big.Int":       "big.NewInt(0)",
			"common.Address": "common.Address{}",
			"common.Hash":    "common.Hash{}",
		},
	}
}

var numericBasics = map[string]bool{
	"int": true, "int8": true, "int16": true, "int32": true, "int64": true,
	"uint": true, "uint8": true, "uint16": true, "uint32": true, "uint64": true,
	"uintptr": true, "byte": true, "rune": true,
	"float32": true, "float64": true, "complex64": true, "complex128": true,
}

// LiteralRenderer produces the minimal valid expression for a parameter type
type LiteralRenderer struct {
	opts LiteralOptions
}

// NewLiteralRenderer creates a literal renderer
func NewLiteralRenderer(opts LiteralOptions) *LiteralRenderer {
	if opts.Placeholder == "" {
		opts.Placeholder = DefaultPlaceholder
	}
	return &LiteralRenderer{opts: opts}
}

// Render returns the expression for t, or false when no rule covers it
func (r *LiteralRenderer) Render(t models.TypeRef) (string, bool) {
	if expr, ok := r.opts.Inject[t.Name]; ok {
		return expr, true
	}
	if expr, ok := r.opts.Defaults[t.Name]; ok {
		return expr, true
	}

	switch t.Kind {
	case models.TypeKindBasic:
		return r.basic(t.Name)
	case models.TypeKindNamed:
		return r.named(t)
	case models.TypeKindStruct:
		if t.Name == "" {
			return "", false
		}
		return r.typeExpr(t) + "{}", true
	case models.TypeKindSlice, models.TypeKindArray, models.TypeKindMap:
		return r.typeExpr(t) + "{}", true
	case models.TypeKindPointer:
		if t.Elem == nil || !isComposite(*t.Elem) {
			return "", false
		}
		return "&" + r.typeExpr(*t.Elem) + "{}", true
	case models.TypeKindInterface:
		switch t.Name {
		case "any", "interface{}", "error":
			return "nil", true
		}
		return "", false
	default:
		return "", false
	}
}

func (r *LiteralRenderer) basic(name string) (string, bool) {
	switch {
	case name == "string":
		return strconv.Quote(r.opts.Placeholder), true
	case name == "bool":
		return "false", true
	case numericBasics[name]:
		return "0", true
	}
	return "", false
}

// named handles package-local named types whose underlying shape is known
func (r *LiteralRenderer) named(t models.TypeRef) (string, bool) {
	u := t.Underlying
	if u == nil {
		return "", false
	}
	switch u.Kind {
	case models.TypeKindBasic, models.TypeKindNamed:
		inner, ok := r.Render(*u)
		if !ok {
			return "", false
		}
		return r.typeExpr(t) + "(" + inner + ")", true
	case models.TypeKindStruct, models.TypeKindArray, models.TypeKindSlice, models.TypeKindMap:
		return r.typeExpr(t) + "{}", true
	}
	return "", false
}

// typeExpr spells t as seen from the test package, qualifying binding-local names
func (r *LiteralRenderer) typeExpr(t models.TypeRef) string {
	if r.opts.Qualifier == "" {
		return t.Name
	}
	switch t.Kind {
	case models.TypeKindNamed, models.TypeKindStruct:
		if isLocalName(t.Name) {
			return r.opts.Qualifier + "." + t.Name
		}
	case models.TypeKindPointer:
		if t.Elem != nil {
			return "*" + r.typeExpr(*t.Elem)
		}
	case models.TypeKindSlice:
		if t.Elem != nil {
			return "[]" + r.typeExpr(*t.Elem)
		}
	case models.TypeKindArray:
		if t.Elem != nil {
			return "[" + strconv.Itoa(t.Len) + "]" + r.typeExpr(*t.Elem)
		}
	case models.TypeKindMap:
		if t.Key != nil && t.Elem != nil {
			return "map[" + r.typeExpr(*t.Key) + "]" + r.typeExpr(*t.Elem)
		}
	}
	return t.Name
}

// isLocalName reports whether name is a plain identifier declared in the binding package
func isLocalName(name string) bool {
	if name == "" || strings.ContainsAny(name, ".{}[]* ") {
		return false
	}
	return true
}

func isComposite(t models.TypeRef) bool {
	switch t.Kind {
	case models.TypeKindStruct:
		return t.Name != ""
	case models.TypeKindArray, models.TypeKindSlice, models.TypeKindMap:
		return true
	case models.TypeKindNamed:
		if t.Underlying == nil {
			return false
		}
		switch t.Underlying.Kind {
		case models.TypeKindStruct, models.TypeKindArray, models.TypeKindSlice, models.TypeKindMap:
			return true
		}
	}
	return false
}

// Arguments renders the comma-separated argument list for sig.
// Variadic parameters contribute no argument. The error names the method and the type.
func (r *LiteralRenderer) Arguments(methodName string, sig models.Signature) (string, error) {
	args := make([]string, 0, len(sig.Parameters))
	for _, p := range sig.Parameters {
		if p.Type.Variadic {
			continue
		}
		expr, ok := r.Render(p.Type)
		if !ok {
			return "", errors.UnrenderableType(methodName, p.Type.Name, sig.Source)
		}
		args = append(args, expr)
	}
	return strings.Join(args, ", "), nil
}

package templates

import (
	"strings"
	"unicode"

	"github.com/toyz/abitest/internal/models"
)

// SetupMethodName is testify's run-once-before-all hook
const SetupMethodName = "SetupSuite"

// SuiteContext describes the generated suite the methods belong to
type SuiteContext struct {
	Wrapper       string          // wrapper type, e.g. Greeter
	SuiteName     string          // e.g. GreeterTestSuite
	Receiver      string          // method receiver, e.g. s
	InstanceField string          // suite field holding the deployed instance
	Qualifier     string          // package qualifier for static calls, empty in-package
	Backend       string          // expression of the deploy/wait backend
	PendingTypes  map[string]bool // result types that must be mined before a receipt exists
}

// NewSuiteContext builds the default context for a wrapper type
func NewSuiteContext(wrapper string) SuiteContext {
	return SuiteContext{
		Wrapper:       wrapper,
		SuiteName:     wrapper + "TestSuite",
		Receiver:      "s",
		InstanceField: Unexport(wrapper),
		Backend:       "s.Backend",
		PendingTypes:  map[string]bool{"*types.Transaction": true},
	}
}

// Synthesizer renders one emitted method per resolved signature
type Synthesizer struct {
	ctx      SuiteContext
	literals *LiteralRenderer
	registry *TemplateRegistry
}

// NewSynthesizer creates a synthesizer for one suite
func NewSynthesizer(ctx SuiteContext, literals *LiteralRenderer, registry *TemplateRegistry) *Synthesizer {
	if registry == nil {
		registry = NewTemplateRegistry()
	}
	return &Synthesizer{ctx: ctx, literals: literals, registry: registry}
}

// Synthesize renders the method for a resolved signature according to its category
func (s *Synthesizer) Synthesize(r models.ResolvedSignature) (models.EmittedMethod, error) {
	switch r.Category {
	case models.CategoryDeploy:
		return s.deploy(r)
	case models.CategoryTransaction:
		return s.transaction(r)
	default:
		return s.view(r)
	}
}

// bodyBuilder collects statements and tracks whether err has been declared
type bodyBuilder struct {
	s           *Synthesizer
	lines       []string
	errDeclared bool
	err         error
}

func (b *bodyBuilder) add(name string, data map[string]interface{}) {
	if b.err != nil {
		return
	}
	if _, ok := data["Receiver"]; !ok {
		data["Receiver"] = b.s.ctx.Receiver
	}
	line, err := b.s.registry.Execute(name, data)
	if err != nil {
		b.err = err
		return
	}
	b.lines = append(b.lines, line)
}

func (b *bodyBuilder) requireNoError() {
	b.add("require-no-error", map[string]interface{}{"Var": "err"})
}

// call renders the invocation, binding each result with names(i); it returns the names used
func (b *bodyBuilder) call(callee, args string, results []models.TypeRef, name func(i int, t models.TypeRef) string) {
	lhs := make([]string, len(results))
	declares := false
	for i, t := range results {
		lhs[i] = name(i, t)
		if lhs[i] != "_" && !(lhs[i] == "err" && b.errDeclared) {
			declares = true
		}
		if lhs[i] == "err" {
			b.errDeclared = true
		}
	}

	op := "="
	if declares {
		op = ":="
	}
	b.add("call", map[string]interface{}{
		"LHS":    strings.Join(lhs, ", "),
		"Op":     op,
		"Callee": callee,
		"Args":   args,
	})
}

func (s *Synthesizer) callee(sig models.Signature) string {
	if sig.IsStatic {
		if s.ctx.Qualifier != "" {
			return s.ctx.Qualifier + "." + sig.Callee()
		}
		return sig.Callee()
	}
	return s.ctx.Receiver + "." + s.ctx.InstanceField + "." + sig.Callee()
}

func (s *Synthesizer) finish(r models.ResolvedSignature, sourceName string, lifecycle models.Lifecycle, b *bodyBuilder) (models.EmittedMethod, error) {
	if b.err != nil {
		return models.EmittedMethod{}, b.err
	}
	source, err := s.registry.Execute("method", map[string]interface{}{
		"Receiver":   s.ctx.Receiver,
		"SuiteName":  s.ctx.SuiteName,
		"SourceName": sourceName,
		"Body":       b.lines,
	})
	if err != nil {
		return models.EmittedMethod{}, err
	}
	return models.EmittedMethod{
		Name:       r.ResolvedName,
		SourceName: sourceName,
		Category:   r.Category,
		Lifecycle:  lifecycle,
		Body:       b.lines,
		Source:     source,
	}, nil
}

// deploy renders the setup method: deploy, wait for the deployment, keep the instance
func (s *Synthesizer) deploy(r models.ResolvedSignature) (models.EmittedMethod, error) {
	sig := r.Signature
	args, err := s.literals.Arguments(sig.Name, sig)
	if err != nil {
		return models.EmittedMethod{}, err
	}

	b := &bodyBuilder{s: s}
	hasTx, hasErr, hasInstance := false, false, false
	b.call(s.callee(sig), args, sig.Results, func(_ int, t models.TypeRef) string {
		switch {
		case !hasInstance && (t.Name == "*"+s.ctx.Wrapper || t.Name == s.ctx.Wrapper):
			hasInstance = true
			return "instance"
		case !hasTx && s.ctx.PendingTypes[t.Name]:
			hasTx = true
			return "tx"
		case !hasErr && t.IsError():
			hasErr = true
			return "err"
		}
		return "_"
	})
	if hasErr {
		b.requireNoError()
	}
	if hasTx {
		op := "="
		if !b.errDeclared {
			op = ":="
			b.errDeclared = true
		}
		b.add("wait-deployed", map[string]interface{}{"Op": op, "Backend": s.ctx.Backend, "Tx": "tx"})
		b.requireNoError()
	}
	if hasInstance {
		b.add("store-instance", map[string]interface{}{"Field": s.ctx.InstanceField, "Instance": "instance"})
	}

	return s.finish(r, SetupMethodName, models.LifecycleBeforeAll, b)
}

// transaction renders a test that sends the transaction, blocks for the receipt and checks its status
func (s *Synthesizer) transaction(r models.ResolvedSignature) (models.EmittedMethod, error) {
	sig := r.Signature
	args, err := s.literals.Arguments(sig.Name, sig)
	if err != nil {
		return models.EmittedMethod{}, err
	}

	primary := sig.ReturnType()
	if primary == nil {
		return s.view(r)
	}
	pending := s.ctx.PendingTypes[primary.Name]

	b := &bodyBuilder{s: s}
	primaryTaken, hasErr := false, false
	b.call(s.callee(sig), args, sig.Results, func(_ int, t models.TypeRef) string {
		switch {
		case !primaryTaken && !t.IsError():
			primaryTaken = true
			if pending {
				return "tx"
			}
			return "receipt"
		case !hasErr && t.IsError():
			hasErr = true
			return "err"
		}
		return "_"
	})
	if hasErr {
		b.requireNoError()
	}
	if pending {
		b.add("wait-mined", map[string]interface{}{"Receipt": "receipt", "Backend": s.ctx.Backend, "Tx": "tx"})
		b.errDeclared = true
		b.requireNoError()
	}
	b.add("status-assertion", map[string]interface{}{"Receipt": "receipt"})

	return s.finish(r, TestName(r.ResolvedName), models.LifecycleTest, b)
}

// view renders a test that only requires the call to complete
func (s *Synthesizer) view(r models.ResolvedSignature) (models.EmittedMethod, error) {
	sig := r.Signature
	args, err := s.literals.Arguments(sig.Name, sig)
	if err != nil {
		return models.EmittedMethod{}, err
	}

	b := &bodyBuilder{s: s}
	hasErr := false
	b.call(s.callee(sig), args, sig.Results, func(_ int, t models.TypeRef) string {
		if !hasErr && t.IsError() {
			hasErr = true
			return "err"
		}
		return "_"
	})
	if hasErr {
		b.requireNoError()
	}

	return s.finish(r, TestName(r.ResolvedName), models.LifecycleTest, b)
}

// TestName converts a resolved base name into a test method identifier
func TestName(resolved string) string {
	if resolved == "" {
		return "Test"
	}
	runes := []rune(resolved)
	runes[0] = unicode.ToUpper(runes[0])
	return "Test" + string(runes)
}

// Unexport lowercases the leading identifier segment: Greeter -> greeter, ERC20 -> erc20, HTTPServer -> httpServer
func Unexport(name string) string {
	runes := []rune(name)
	n := 0
	for n < len(runes) && unicode.IsUpper(runes[n]) {
		n++
	}
	switch {
	case n == 0:
		return name
	case n == 1 || n == len(runes):
		// single leading capital, or an all-caps name
	case unicode.IsLower(runes[n]):
		n-- // keep the capital that starts the next word
	}
	for i := 0; i < n; i++ {
		runes[i] = unicode.ToLower(runes[i])
	}
	return string(runes)
}

package generator

import (
	"github.com/toyz/abitest/internal/classifier"
	"github.com/toyz/abitest/internal/errors"
	"github.com/toyz/abitest/internal/models"
	"github.com/toyz/abitest/internal/resolver"
	"github.com/toyz/abitest/internal/rules"
	"github.com/toyz/abitest/internal/templates"
)

// Options configures one generator
type Options struct {
	Classifier   classifier.Config
	Literals     templates.LiteralOptions
	PendingTypes []string // result types that must be mined before a receipt exists; nil keeps the default
	Qualifier    string   // package qualifier for the binding when tests live in another package
}

// DefaultOptions returns the built-in generator configuration for abigen bindings
func DefaultOptions() Options {
	return Options{
		Classifier:   classifier.DefaultConfig(),
		Literals:     templates.DefaultLiteralOptions(),
		PendingTypes: []string{"*types.Transaction"},
	}
}

// Result is the outcome of one generation pass
type Result struct {
	Suite    *models.TestSuite
	Methods  []models.ResolvedSignature // every non-excluded signature, deploy first
	Excluded []models.Signature
	Failures *errors.MultipleErrors // per-method UnrenderableType errors
	Metadata *models.WrapperMetadata
}

// Generator runs the classify, resolve, synthesize and assemble pipeline
type Generator struct {
	opts       Options
	classifier *classifier.Classifier
	literals   *templates.LiteralRenderer
	registry   *templates.TemplateRegistry
}

// NewGenerator creates a generator. It holds no per-run state, so one instance may serve
// concurrent runs.
func NewGenerator(opts Options) *Generator {
	literals := opts.Literals
	literals.Qualifier = opts.Qualifier
	return &Generator{
		opts:       opts,
		classifier: classifier.NewClassifier(opts.Classifier),
		literals:   templates.NewLiteralRenderer(literals),
		registry:   templates.NewTemplateRegistry(),
	}
}

// Classifier returns the classifier used by the generator
func (g *Generator) Classifier() *classifier.Classifier {
	return g.classifier
}

// Generate builds the test suite for the wrapper described by metadata.
// Fatal errors (no or ambiguous deploy method) return no result. Unrenderable methods are
// skipped and reported in Result.Failures beside the otherwise complete suite.
func (g *Generator) Generate(metadata *models.WrapperMetadata) (*Result, error) {
	if metadata == nil {
		return nil, errors.New(errors.UnknownErrorCode, "metadata cannot be nil")
	}
	wrapper := metadata.Wrapper
	env := rules.Env{Wrapper: wrapper}

	var deploys, rest []models.ClassifiedSignature
	var excluded []models.Signature
	for _, c := range g.classifier.ClassifyAll(env, metadata.Signatures) {
		switch c.Category {
		case models.CategoryDeploy:
			deploys = append(deploys, c)
		case models.CategoryExcluded:
			excluded = append(excluded, c.Signature)
		default:
			rest = append(rest, c)
		}
	}

	switch len(deploys) {
	case 0:
		return nil, errors.NoDeployMethodFound(wrapper)
	case 1:
	default:
		names := make([]string, len(deploys))
		for i, d := range deploys {
			names[i] = d.Signature.Name
		}
		return nil, errors.AmbiguousDeployMethod(wrapper, names)
	}

	synth := templates.NewSynthesizer(g.suiteContext(wrapper), g.literals, g.registry)

	deploy := models.ResolvedSignature{ClassifiedSignature: deploys[0], ResolvedName: deploys[0].Signature.Name}
	setup, err := synth.Synthesize(deploy)
	if err != nil {
		// without its setup method the suite has no shared instance
		return nil, err
	}

	failures := errors.NewMultipleErrors()
	resolved := resolver.Resolve(rest)
	if err := checkTestNames(wrapper, resolved); err != nil {
		return nil, err
	}
	methods := []models.EmittedMethod{setup}
	for _, r := range resolved {
		m, err := synth.Synthesize(r)
		if err != nil {
			if ge, ok := err.(errors.GeneratorError); ok && !ge.ErrorCode().IsFatal() {
				failures.Add(ge)
				continue
			}
			return nil, err
		}
		methods = append(methods, m)
	}

	suite, err := Assemble(g.suiteContext(wrapper), methods)
	if err != nil {
		return nil, err
	}

	return &Result{
		Suite:    suite,
		Methods:  append([]models.ResolvedSignature{deploy}, resolved...),
		Excluded: excluded,
		Failures: failures,
		Metadata: metadata,
	}, nil
}

// checkTestNames rejects resolved names that differ only in a way TestName erases, e.g. greet and Greet
func checkTestNames(wrapper string, resolved []models.ResolvedSignature) error {
	seen := make(map[string]string, len(resolved))
	for _, r := range resolved {
		name := templates.TestName(r.ResolvedName)
		if prev, ok := seen[name]; ok {
			return errors.Newf(errors.SyntaxErrorCode, "methods %s and %s both emit %s", prev, r.ResolvedName, name).
				WithContext("wrapper", wrapper).
				WithSuggestions("Exclude one of the methods with an [rules] exclude expression")
		}
		seen[name] = r.ResolvedName
	}
	return nil
}

func (g *Generator) suiteContext(wrapper string) templates.SuiteContext {
	ctx := templates.NewSuiteContext(wrapper)
	ctx.Qualifier = g.opts.Qualifier
	if g.opts.PendingTypes != nil {
		ctx.PendingTypes = make(map[string]bool, len(g.opts.PendingTypes))
		for _, t := range g.opts.PendingTypes {
			ctx.PendingTypes[t] = true
		}
	}
	if backend, ok := g.opts.Literals.Inject["bind.DeployBackend"]; ok {
		ctx.Backend = backend
	}
	return ctx
}

// Assemble orders the emitted methods: the single run-once-before-all method first, then the
// rest exactly as given. It neither sorts nor deduplicates.
func Assemble(ctx templates.SuiteContext, methods []models.EmittedMethod) (*models.TestSuite, error) {
	var setup []models.EmittedMethod
	var tests []models.EmittedMethod
	for _, m := range methods {
		if m.Lifecycle == models.LifecycleBeforeAll {
			setup = append(setup, m)
		} else {
			tests = append(tests, m)
		}
	}

	switch len(setup) {
	case 0:
		return nil, errors.NoDeployMethodFound(ctx.Wrapper)
	case 1:
	default:
		names := make([]string, len(setup))
		for i, m := range setup {
			names[i] = m.Name
		}
		return nil, errors.AmbiguousDeployMethod(ctx.Wrapper, names)
	}

	return &models.TestSuite{
		Wrapper:      ctx.Wrapper,
		SuiteName:    ctx.SuiteName,
		InstanceName: ctx.InstanceField,
		Methods:      append(setup, tests...),
	}, nil
}

package models

// Category is the role assigned to a signature by the classifier
type Category int

const (
	CategoryView Category = iota
	CategoryTransaction
	CategoryDeploy
	CategoryExcluded
)

// String returns the string representation of the category
func (c Category) String() string {
	switch c {
	case CategoryDeploy:
		return "Deploy"
	case CategoryTransaction:
		return "Transaction"
	case CategoryView:
		return "View"
	case CategoryExcluded:
		return "Excluded"
	default:
		return "Unknown"
	}
}

// Lifecycle tells the test runner when an emitted method executes
type Lifecycle int

const (
	LifecycleTest Lifecycle = iota
	LifecycleBeforeAll
)

// String returns the string representation of the lifecycle
func (l Lifecycle) String() string {
	if l == LifecycleBeforeAll {
		return "BeforeAll"
	}
	return "Test"
}

// ClassifiedSignature pairs a signature with its category
type ClassifiedSignature struct {
	Signature Signature
	Category  Category
}

// ResolvedSignature is a classified signature carrying its unique emitted base name
type ResolvedSignature struct {
	ClassifiedSignature
	ResolvedName string
}

// EmittedMethod is one rendered test (or setup) method. It is immutable once created.
type EmittedMethod struct {
	Name       string    // resolved base name, e.g. greet1
	SourceName string    // final identifier, e.g. TestGreet1 or SetupSuite
	Category   Category  // category of the originating signature
	Lifecycle  Lifecycle // BeforeAll for the deploy-derived method
	Body       []string  // source statements, one per line, without indentation
	Source     string    // complete rendered method block
}

// TestSuite is the ordered output of one generation pass: the deploy method first
type TestSuite struct {
	Wrapper      string          // wrapper type name, e.g. Greeter
	SuiteName    string          // generated suite type name, e.g. GreeterTestSuite
	InstanceName string          // suite field holding the deployed instance
	Methods      []EmittedMethod // setup first, then tests in resolved order
}

// Setup returns the run-once-before-all method
func (s *TestSuite) Setup() *EmittedMethod {
	for i := range s.Methods {
		if s.Methods[i].Lifecycle == LifecycleBeforeAll {
			return &s.Methods[i]
		}
	}
	return nil
}

// Tests returns the test methods in emitted order
func (s *TestSuite) Tests() []EmittedMethod {
	var out []EmittedMethod
	for _, m := range s.Methods {
		if m.Lifecycle == LifecycleTest {
			out = append(out, m)
		}
	}
	return out
}

// WrapperMetadata is everything the signature model extracted from one wrapper type
type WrapperMetadata struct {
	PackageName string            // Go package of the binding
	PackagePath string            // directory of the binding, when read from disk
	Wrapper     string            // wrapper type name
	Imports     map[string]string // qualifier -> import path, as declared by the binding
	Signatures  []Signature       // in declaration order
}

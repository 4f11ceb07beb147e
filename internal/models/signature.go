package models

// Parameter represents one positional parameter of a method signature
type Parameter struct {
	Name  string  `json:"name"`
	Type  TypeRef `json:"type"`
	Index int     `json:"index"`
}

// Signature is the explicit, serializable description of one callable member of a wrapper type.
// Downstream stages operate only on this model.
type Signature struct {
	// Name is the identifier as declared; it drives classification and overload naming
	Name string `json:"name"`

	// CallName is the identifier used at the call site, defaulting to Name
	CallName string `json:"call_name,omitempty"`

	Parameters []Parameter `json:"parameters"`
	Results    []TypeRef   `json:"results"`

	// IsStatic marks package-level functions such as the deployment factory
	IsStatic bool `json:"is_static"`

	// Source is the file:line of the declaration, when known
	Source string `json:"source,omitempty"`
}

// Callee returns the identifier used when invoking the method
func (s Signature) Callee() string {
	if s.CallName != "" {
		return s.CallName
	}
	return s.Name
}

// ReturnType returns the first non-error result, or nil when the method returns nothing else
func (s Signature) ReturnType() *TypeRef {
	for i := range s.Results {
		if !s.Results[i].IsError() {
			return &s.Results[i]
		}
	}
	return nil
}

// ReturnsError reports whether any result is the builtin error type
func (s Signature) ReturnsError() bool {
	for _, r := range s.Results {
		if r.IsError() {
			return true
		}
	}
	return false
}

// ReturnsType reports whether any result renders as the given type name
func (s Signature) ReturnsType(name string) bool {
	for _, r := range s.Results {
		if r.Name == name {
			return true
		}
	}
	return false
}

// universalMethods are inherited conveniences with no contract semantics
var universalMethods = map[string]bool{
	"String":        true,
	"GoString":      true,
	"Error":         true,
	"Format":        true,
	"Equal":         true,
	"Hash":          true,
	"MarshalJSON":   true,
	"UnmarshalJSON": true,
	"MarshalText":   true,
	"UnmarshalText": true,
}

// IsUniversalMethod reports whether name belongs to the base behavior every type may carry.
// Such methods are dropped before classification rather than marked Excluded.
func IsUniversalMethod(name string) bool {
	return universalMethods[name]
}

// Package rules compiles the small predicate language used to classify signatures.
//
//	static && match("(?i)^deploy") && handle
//	name("getDeploymentBinary") || (static && prefix("New"))
//	returns("*types.Transaction") || field("Status")
//	prefix("Parse") && param("types.Log")
package rules

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/toyz/abitest/internal/errors"
	"github.com/toyz/abitest/internal/models"
)

// Env carries the per-run facts a predicate may consult
type Env struct {
	Wrapper string
}

// Matcher is a compiled rule expression
type Matcher interface {
	Match(env Env, sig models.Signature) bool
	String() string
}

// MatcherFunc adapts a function to the Matcher interface
type MatcherFunc func(env Env, sig models.Signature) bool

// Match calls f
func (f MatcherFunc) Match(env Env, sig models.Signature) bool { return f(env, sig) }

// String describes the matcher
func (f MatcherFunc) String() string { return "<func>" }

// Compile parses and checks a rule expression
func Compile(expr string) (Matcher, error) {
	src := strings.TrimSpace(expr)
	if src == "" {
		return nil, errors.New(errors.SyntaxErrorCode, "empty rule expression")
	}
	ast, err := ruleParser.ParseString("", src)
	if err != nil {
		return nil, errors.WrapParseError(fmt.Sprintf("rule %q", src), err)
	}
	m, err := buildOr(ast)
	if err != nil {
		return nil, err
	}
	return &compiled{source: src, root: m}, nil
}

// MustCompile is like Compile but panics on error.
// Use only with built-in rule constants.
func MustCompile(expr string) Matcher {
	m, err := Compile(expr)
	if err != nil {
		panic(err)
	}
	return m
}

type compiled struct {
	source string
	root   MatcherFunc
}

func (c *compiled) Match(env Env, sig models.Signature) bool { return c.root(env, sig) }

func (c *compiled) String() string { return c.source }

func buildOr(e *orExpr) (MatcherFunc, error) {
	first, err := buildAnd(e.Left)
	if err != nil {
		return nil, err
	}
	if len(e.Right) == 0 {
		return first, nil
	}
	terms := []MatcherFunc{first}
	for _, r := range e.Right {
		m, err := buildAnd(r)
		if err != nil {
			return nil, err
		}
		terms = append(terms, m)
	}
	return func(env Env, sig models.Signature) bool {
		for _, t := range terms {
			if t(env, sig) {
				return true
			}
		}
		return false
	}, nil
}

func buildAnd(e *andExpr) (MatcherFunc, error) {
	first, err := buildUnary(e.Left)
	if err != nil {
		return nil, err
	}
	if len(e.Right) == 0 {
		return first, nil
	}
	terms := []MatcherFunc{first}
	for _, r := range e.Right {
		m, err := buildUnary(r)
		if err != nil {
			return nil, err
		}
		terms = append(terms, m)
	}
	return func(env Env, sig models.Signature) bool {
		for _, t := range terms {
			if !t(env, sig) {
				return false
			}
		}
		return true
	}, nil
}

func buildUnary(e *unaryExpr) (MatcherFunc, error) {
	if e.Not != nil {
		inner, err := buildUnary(e.Not)
		if err != nil {
			return nil, err
		}
		return func(env Env, sig models.Signature) bool { return !inner(env, sig) }, nil
	}
	if e.Term.Group != nil {
		return buildOr(e.Term.Group)
	}
	return buildPredicate(e.Term.Call)
}

// predicateArity lists every predicate and whether it takes a string argument
var predicateArity = map[string]bool{
	"static":       false,
	"handle":       false,
	"true":         false,
	"false":        false,
	"name":         true,
	"prefix":       true,
	"match":        true,
	"returns":      true,
	"returnsMatch": true,
	"param":        true,
	"field":        true,
}

func buildPredicate(p *predicate) (MatcherFunc, error) {
	wantsArg, known := predicateArity[p.Name]
	if !known {
		return nil, predicateError(p, "unknown predicate '%s'", p.Name)
	}
	if wantsArg && p.Arg == nil {
		return nil, predicateError(p, "predicate '%s' requires a string argument", p.Name)
	}
	if !wantsArg && p.Arg != nil {
		return nil, predicateError(p, "predicate '%s' takes no argument", p.Name)
	}

	switch p.Name {
	case "static":
		return func(_ Env, sig models.Signature) bool { return sig.IsStatic }, nil
	case "handle":
		return func(env Env, sig models.Signature) bool {
			return env.Wrapper != "" && (sig.ReturnsType("*"+env.Wrapper) || sig.ReturnsType(env.Wrapper))
		}, nil
	case "true":
		return func(Env, models.Signature) bool { return true }, nil
	case "false":
		return func(Env, models.Signature) bool { return false }, nil
	}

	arg := *p.Arg
	switch p.Name {
	case "name":
		return func(_ Env, sig models.Signature) bool { return sig.Name == arg }, nil
	case "prefix":
		return func(_ Env, sig models.Signature) bool { return strings.HasPrefix(sig.Name, arg) }, nil
	case "match":
		re, err := regexp.Compile(arg)
		if err != nil {
			return nil, predicateError(p, "invalid regular expression %q: %v", arg, err)
		}
		return func(_ Env, sig models.Signature) bool { return re.MatchString(sig.Name) }, nil
	case "returns":
		return func(_ Env, sig models.Signature) bool {
			rt := sig.ReturnType()
			return rt != nil && rt.Name == arg
		}, nil
	case "returnsMatch":
		re, err := regexp.Compile(arg)
		if err != nil {
			return nil, predicateError(p, "invalid regular expression %q: %v", arg, err)
		}
		return func(_ Env, sig models.Signature) bool {
			rt := sig.ReturnType()
			return rt != nil && re.MatchString(rt.Name)
		}, nil
	case "param":
		return func(_ Env, sig models.Signature) bool {
			for _, param := range sig.Parameters {
				if param.Type.Name == arg {
					return true
				}
			}
			return false
		}, nil
	default: // field
		return func(_ Env, sig models.Signature) bool {
			rt := sig.ReturnType()
			return rt != nil && rt.HasField(arg)
		}, nil
	}
}

func predicateError(p *predicate, format string, args ...interface{}) error {
	return errors.Newf(errors.SyntaxErrorCode, format, args...).
		WithContext("column", p.Pos.Column)
}

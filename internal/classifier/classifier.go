// Package classifier assigns each signature its test category through an ordered rule list.
package classifier

import (
	"github.com/toyz/abitest/internal/models"
	"github.com/toyz/abitest/internal/rules"
)

// Built-in rule expressions
const (
	DefaultDeployRule  = `static && match("(?i)^deploy") && handle`
	DefaultExcludeRule = `name("getDeploymentBinary") || name("GetDeploymentBinary") || ` +
		`(static && match("^(New|Bind|Load|load|bind)")) || ` +
		`(prefix("Filter") && returnsMatch("Iterator$")) || ` +
		`(prefix("Watch") && returns("event.Subscription")) || ` +
		`(prefix("Parse") && param("types.Log"))`
	DefaultReceiptRule = `returns("*types.Transaction") || returns("*types.Receipt") || field("Status")`
)

// Rule is one entry of the ordered classification list
type Rule struct {
	Name     string
	Category models.Category
	Matcher  rules.Matcher
}

// Config holds the compiled predicates for the classifier
type Config struct {
	Deploy  rules.Matcher
	Exclude rules.Matcher
	Receipt rules.Matcher
}

// DefaultConfig returns the built-in predicates
func DefaultConfig() Config {
	return Config{
		Deploy:  rules.MustCompile(DefaultDeployRule),
		Exclude: rules.MustCompile(DefaultExcludeRule),
		Receipt: rules.MustCompile(DefaultReceiptRule),
	}
}

// Classifier evaluates rules in order; the first match wins and View is the fallback
type Classifier struct {
	rules []Rule
}

// NewClassifier creates a classifier from the given predicates
func NewClassifier(cfg Config) *Classifier {
	receipt := cfg.Receipt
	return &Classifier{
		rules: []Rule{
			{Name: "deploy", Category: models.CategoryDeploy, Matcher: cfg.Deploy},
			{Name: "exclude", Category: models.CategoryExcluded, Matcher: cfg.Exclude},
			{Name: "receipt", Category: models.CategoryTransaction, Matcher: rules.MatcherFunc(
				func(env rules.Env, sig models.Signature) bool {
					return sig.ReturnType() != nil && receipt.Match(env, sig)
				}),
			},
		},
	}
}

// Rules returns the ordered rule list
func (c *Classifier) Rules() []Rule {
	return c.rules
}

// Classify returns the category of a single signature
func (c *Classifier) Classify(env rules.Env, sig models.Signature) models.Category {
	for _, rule := range c.rules {
		if rule.Matcher != nil && rule.Matcher.Match(env, sig) {
			return rule.Category
		}
	}
	return models.CategoryView
}

// ClassifyAll classifies every signature, preserving input order
func (c *Classifier) ClassifyAll(env rules.Env, sigs []models.Signature) []models.ClassifiedSignature {
	out := make([]models.ClassifiedSignature, 0, len(sigs))
	for _, sig := range sigs {
		out = append(out, models.ClassifiedSignature{Signature: sig, Category: c.Classify(env, sig)})
	}
	return out
}

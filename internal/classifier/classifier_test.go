package classifier

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/toyz/abitest/internal/models"
	"github.com/toyz/abitest/internal/rules"
)

var txType = models.PointerTo(models.Named("types.Transaction"))

func sig(name string, static bool, results ...models.TypeRef) models.Signature {
	return models.Signature{Name: name, IsStatic: static, Results: results}
}

func withParams(s models.Signature, params ...models.TypeRef) models.Signature {
	for i, p := range params {
		s.Parameters = append(s.Parameters, models.Parameter{Name: "arg", Type: p, Index: i})
	}
	return s
}

func TestClassify_DefaultRules(t *testing.T) {
	c := NewClassifier(DefaultConfig())
	env := rules.Env{Wrapper: "Greeter"}
	handle := models.PointerTo(models.Named("Greeter"))

	tests := []struct {
		name string
		sig  models.Signature
		want models.Category
	}{
		{"deploy factory", sig("DeployGreeter", true, models.Named("common.Address"), txType, handle, models.ErrorType), models.CategoryDeploy},
		{"lowercase deploy factory", sig("deploy", true, handle), models.CategoryDeploy},
		{"deploy without handle is not a factory", sig("DeployOther", true, txType, models.ErrorType), models.CategoryTransaction},
		{"instance deploy-named method", sig("DeployChild", false, txType, models.ErrorType), models.CategoryTransaction},
		{"loader", sig("NewGreeter", true, handle, models.ErrorType), models.CategoryExcluded},
		{"binder", sig("BindGreeter", true, handle), models.CategoryExcluded},
		{"binary accessor with receipt shape", sig("getDeploymentBinary", false, txType), models.CategoryExcluded},
		{"binary accessor with string", sig("getDeploymentBinary", true, models.Basic("string")), models.CategoryExcluded},
		{"event filter", sig("FilterGreetingChanged", false, models.PointerTo(models.Named("GreeterGreetingChangedIterator")), models.ErrorType), models.CategoryExcluded},
		{"event watcher", withParams(sig("WatchGreetingChanged", false, models.Named("event.Subscription"), models.ErrorType), models.PointerTo(models.Named("bind.WatchOpts"))), models.CategoryExcluded},
		{"event parser", withParams(sig("ParseGreetingChanged", false, models.PointerTo(models.Named("GreeterGreetingChanged")), models.ErrorType), models.Named("types.Log")), models.CategoryExcluded},
		{"parse-named transaction", withParams(sig("ParseInput", false, txType, models.ErrorType), models.PointerTo(models.Named("bind.TransactOpts")), models.Basic("string")), models.CategoryTransaction},
		{"filter-named view", sig("FilterOwners", false, models.SliceOf(models.Named("common.Address")), models.ErrorType), models.CategoryView},
		{"watch-named view", sig("WatchList", false, models.Basic("string"), models.ErrorType), models.CategoryView},
		{"transaction", sig("NewGreeting", false, txType, models.ErrorType), models.CategoryTransaction},
		{"receipt", sig("Send", false, models.PointerTo(models.Named("types.Receipt")), models.ErrorType), models.CategoryTransaction},
		{"view", sig("Greet", false, models.Basic("string"), models.ErrorType), models.CategoryView},
		{"no results", sig("Ping", false), models.CategoryView},
		{"error only", sig("Check", false, models.ErrorType), models.CategoryView},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, c.Classify(env, tt.sig))
		})
	}
}

func TestClassify_FirstMatchWins(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Exclude = rules.MustCompile(`true`)
	c := NewClassifier(cfg)

	env := rules.Env{Wrapper: "Greeter"}
	deploy := sig("DeployGreeter", true, models.PointerTo(models.Named("Greeter")))

	assert.Equal(t, models.CategoryDeploy, c.Classify(env, deploy))
	assert.Equal(t, models.CategoryExcluded, c.Classify(env, sig("NewGreeting", false, txType)))
}

func TestClassify_ReceiptRuleNeedsReturnType(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Receipt = rules.MustCompile(`prefix("Set")`)
	c := NewClassifier(cfg)

	assert.Equal(t, models.CategoryView, c.Classify(rules.Env{}, sig("SetValue", false)))
	assert.Equal(t, models.CategoryTransaction, c.Classify(rules.Env{}, sig("SetValue", false, models.Named("Outcome"))))
}

func TestClassifyAll_PreservesOrder(t *testing.T) {
	c := NewClassifier(DefaultConfig())
	sigs := []models.Signature{
		sig("Greet", false, models.Basic("string")),
		sig("NewGreeting", false, txType),
		sig("getDeploymentBinary", true, models.Basic("string")),
	}

	got := c.ClassifyAll(rules.Env{Wrapper: "Greeter"}, sigs)
	require.Len(t, got, 3)
	assert.Equal(t, "Greet", got[0].Signature.Name)
	assert.Equal(t, models.CategoryView, got[0].Category)
	assert.Equal(t, models.CategoryTransaction, got[1].Category)
	assert.Equal(t, models.CategoryExcluded, got[2].Category)
	assert.Len(t, c.Rules(), 3)
}

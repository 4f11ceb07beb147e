package cli

import (
	stderrors "errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/BurntSushi/toml"

	"github.com/toyz/abitest/internal/classifier"
	"github.com/toyz/abitest/internal/errors"
	"github.com/toyz/abitest/internal/generator"
	"github.com/toyz/abitest/internal/rules"
	"github.com/toyz/abitest/internal/templates"
)

// DefaultConfigFile is looked up in the binding directory when --config is not given
const DefaultConfigFile = "abitest.toml"

// Config holds the generator configuration read from abitest.toml
type Config struct {
	// Placeholder is the literal passed for every string argument
	Placeholder string `toml:"placeholder"`

	// PendingTypes are result types that must be mined before a receipt can be asserted
	PendingTypes []string `toml:"pending_types"`

	Rules    RulesConfig       `toml:"rules"`
	Inject   map[string]string `toml:"inject"`
	Defaults map[string]string `toml:"defaults"`
	Imports  map[string]string `toml:"imports"`
	Suite    SuiteConfig       `toml:"suite"`

	// Path is the file the configuration was read from, empty for built-in defaults
	Path string `toml:"-"`
}

// RulesConfig holds the classification rule expressions
type RulesConfig struct {
	Deploy  string `toml:"deploy"`
	Exclude string `toml:"exclude"`
	Receipt string `toml:"receipt"`
}

// SuiteConfig controls the rendered test file
type SuiteConfig struct {
	RPCEnv  string `toml:"rpc_env"`
	KeyEnv  string `toml:"key_env"`
	Package string `toml:"package"`
	Output  string `toml:"output"`
}

// DefaultConfig returns the built-in configuration for abigen bindings
func DefaultConfig() *Config {
	lit := templates.DefaultLiteralOptions()
	return &Config{
		Placeholder:  lit.Placeholder,
		PendingTypes: generator.DefaultOptions().PendingTypes,
		Rules: RulesConfig{
			Deploy:  classifier.DefaultDeployRule,
			Exclude: classifier.DefaultExcludeRule,
			Receipt: classifier.DefaultReceiptRule,
		},
		Inject:   lit.Inject,
		Defaults: lit.Defaults,
		Imports:  map[string]string{},
		Suite: SuiteConfig{
			RPCEnv: "ABITEST_RPC_URL",
			KeyEnv: "ABITEST_PRIVATE_KEY",
		},
	}
}

// FindConfig returns the default config file in dir, or "" when there is none
func FindConfig(dir string) string {
	candidate := filepath.Join(dir, DefaultConfigFile)
	if info, err := os.Stat(candidate); err == nil && !info.IsDir() {
		return candidate
	}
	return ""
}

// LoadConfig decodes path over the defaults. An empty path yields the defaults.
// Keys not known to Config are rejected.
func LoadConfig(path string) (*Config, error) {
	cfg := DefaultConfig()
	if path == "" {
		return cfg, nil
	}

	var file Config
	meta, err := toml.DecodeFile(path, &file)
	if err != nil {
		if stderrors.Is(err, os.ErrNotExist) {
			return nil, errors.WrapFileSystemError("read", path, err)
		}
		return nil, errors.WrapConfigurationError(path, "decode", err).
			WithLocation(errors.SourceLocation{File: path})
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		sort.Strings(keys)
		return nil, errors.Newf(errors.ConfigurationErrorCode, "unknown keys: %s", strings.Join(keys, ", ")).
			WithLocation(errors.SourceLocation{File: path}).
			WithContext("keys", keys).
			WithSuggestions("Valid tables are [rules], [inject], [defaults], [imports] and [suite]")
	}

	cfg.merge(&file, meta)
	cfg.Path = path
	return cfg, nil
}

// merge copies every key defined in the file over the defaults; map tables add to them
func (c *Config) merge(file *Config, meta toml.MetaData) {
	if meta.IsDefined("placeholder") {
		c.Placeholder = file.Placeholder
	}
	if meta.IsDefined("pending_types") {
		c.PendingTypes = append([]string{}, file.PendingTypes...)
	}
	if meta.IsDefined("rules", "deploy") {
		c.Rules.Deploy = file.Rules.Deploy
	}
	if meta.IsDefined("rules", "exclude") {
		c.Rules.Exclude = file.Rules.Exclude
	}
	if meta.IsDefined("rules", "receipt") {
		c.Rules.Receipt = file.Rules.Receipt
	}
	if meta.IsDefined("suite", "rpc_env") {
		c.Suite.RPCEnv = file.Suite.RPCEnv
	}
	if meta.IsDefined("suite", "key_env") {
		c.Suite.KeyEnv = file.Suite.KeyEnv
	}
	if meta.IsDefined("suite", "package") {
		c.Suite.Package = file.Suite.Package
	}
	if meta.IsDefined("suite", "output") {
		c.Suite.Output = file.Suite.Output
	}
	c.Inject = mergeTable(c.Inject, file.Inject)
	c.Defaults = mergeTable(c.Defaults, file.Defaults)
	c.Imports = mergeTable(c.Imports, file.Imports)
}

func mergeTable(base, over map[string]string) map[string]string {
	out := make(map[string]string, len(base)+len(over))
	for k, v := range base {
		out[k] = v
	}
	for k, v := range over {
		out[k] = v
	}
	return out
}

// Options compiles the rule expressions and builds the generator options
func (c *Config) Options() (generator.Options, error) {
	deploy, err := c.compile("deploy", c.Rules.Deploy)
	if err != nil {
		return generator.Options{}, err
	}
	exclude, err := c.compile("exclude", c.Rules.Exclude)
	if err != nil {
		return generator.Options{}, err
	}
	receipt, err := c.compile("receipt", c.Rules.Receipt)
	if err != nil {
		return generator.Options{}, err
	}

	return generator.Options{
		Classifier: classifier.Config{Deploy: deploy, Exclude: exclude, Receipt: receipt},
		Literals: templates.LiteralOptions{
			Placeholder: c.Placeholder,
			Inject:      c.Inject,
			Defaults:    c.Defaults,
		},
		PendingTypes: c.PendingTypes,
	}, nil
}

func (c *Config) compile(name, expr string) (rules.Matcher, error) {
	m, err := rules.Compile(expr)
	if err == nil {
		return m, nil
	}
	var be *errors.BaseError
	if stderrors.As(err, &be) {
		if c.Path != "" && be.Loc.IsEmpty() {
			be.WithLocation(errors.SourceLocation{File: c.Path})
		}
		return nil, be.WithContext("rule", name)
	}
	return nil, fmt.Errorf("rule %s: %w", name, err)
}

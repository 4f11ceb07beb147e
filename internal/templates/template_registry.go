package templates

import (
	"bytes"
	"text/template"

	"github.com/toyz/abitest/internal/errors"
)

// TemplateRegistry provides a centralized way to access all templates
type TemplateRegistry struct {
	templates map[string]*template.Template
}

// NewTemplateRegistry creates a new template registry with all templates
func NewTemplateRegistry() *TemplateRegistry {
	registry := &TemplateRegistry{
		templates: make(map[string]*template.Template),
	}

	registry.registerMethodTemplates()
	registry.registerStatementTemplates()
	registry.registerFileTemplates()

	return registry
}

// Get retrieves a template by name
func (tr *TemplateRegistry) Get(name string) (*template.Template, bool) {
	tmpl, exists := tr.templates[name]
	return tmpl, exists
}

// Execute renders the named template with data
func (tr *TemplateRegistry) Execute(name string, data interface{}) (string, error) {
	tmpl, exists := tr.Get(name)
	if !exists {
		return "", errors.WrapTemplateError(name, "find", errors.New(errors.TemplateErrorCode, "template not registered"))
	}
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", errors.WrapTemplateError(name, "execute", err)
	}
	return buf.String(), nil
}

func (tr *TemplateRegistry) register(name, text string) {
	tr.templates[name] = template.Must(template.New(name).Parse(text))
}

// registerMethodTemplates registers the method block template
func (tr *TemplateRegistry) registerMethodTemplates() {
	tr.register("method", `func ({{.Receiver}} *{{.SuiteName}}) {{.SourceName}}() {
{{range .Body}}	{{.}}
{{end}}}
`)
}

// registerStatementTemplates registers one template per generated statement kind
func (tr *TemplateRegistry) registerStatementTemplates() {
	tr.register("call", `{{if .LHS}}{{.LHS}} {{.Op}} {{end}}{{.Callee}}({{.Args}})`)

	tr.register("require-no-error", `{{.Receiver}}.Require().NoError({{.Var}})`)

	tr.register("wait-deployed", `_, err {{.Op}} bind.WaitDeployed(context.Background(), {{.Backend}}, {{.Tx}})`)

	tr.register("wait-mined", `{{.Receipt}}, err := bind.WaitMined(context.Background(), {{.Backend}}, {{.Tx}})`)

	tr.register("status-assertion", `{{.Receiver}}.Require().Equal(types.ReceiptStatusSuccessful, {{.Receipt}}.Status)`)

	tr.register("store-instance", `{{.Receiver}}.{{.Field}} = {{.Instance}}`)
}

// registerFileTemplates registers the suite file template
func (tr *TemplateRegistry) registerFileTemplates() {
	tr.register("suite-file", `// Code generated by abitest. DO NOT EDIT.
// Replace every {{printf "%q" .Placeholder}} argument with a meaningful value before relying on these tests.

package {{.Package}}

{{.Imports}}
// {{.SuiteName}} deploys {{.Wrapper}} once and exercises each of its methods.
type {{.SuiteName}} struct {
	suite.Suite

	Auth    *bind.TransactOpts
	Backend *ethclient.Client

	{{.InstanceField}} *{{.WrapperRef}}
}
{{range .Methods}}
{{.Source}}{{end}}
func Test{{.SuiteName}}(t *testing.T) {
	rpcURL := os.Getenv({{printf "%q" .RPCEnv}})
	keyHex := os.Getenv({{printf "%q" .KeyEnv}})
	if rpcURL == "" || keyHex == "" {
		t.Skip({{printf "%q" .SkipMessage}})
	}

	client, err := ethclient.Dial(rpcURL)
	require.NoError(t, err)
	defer client.Close()

	key, err := crypto.HexToECDSA(strings.TrimPrefix(keyHex, "0x"))
	require.NoError(t, err)

	chainID, err := client.ChainID(context.Background())
	require.NoError(t, err)

	auth, err := bind.NewKeyedTransactorWithChainID(key, chainID)
	require.NoError(t, err)

	suite.Run(t, &{{.SuiteName}}{Auth: auth, Backend: client})
}
`)
}

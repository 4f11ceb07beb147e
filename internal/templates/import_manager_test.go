package templates

import (
	"strings"
	"testing"
)

func TestImportManager_AddImport(t *testing.T) {
	im := NewImportManager()
	im.AddImport("bind", "github.com/ethereum/go-ethereum/accounts/abi/bind")
	im.AddImport("bind", "example.com/other/bind")
	im.AddImport("", "ignored")

	if !im.Has("bind") {
		t.Fatal("expected bind to be imported")
	}
	got := im.GenerateImports()
	if !strings.Contains(got, `"github.com/ethereum/go-ethereum/accounts/abi/bind"`) {
		t.Errorf("first registration should win, got:\n%s", got)
	}
	if strings.Contains(got, "example.com/other/bind") {
		t.Errorf("second registration should be ignored, got:\n%s", got)
	}
}

func TestImportManager_AddReferenced(t *testing.T) {
	table := map[string]string{
		"bind":    "github.com/ethereum/go-ethereum/accounts/abi/bind",
		"types":   "github.com/ethereum/go-ethereum/core/types",
		"big":     "math/big",
		"context": "context",
	}

	testCases := []struct {
		name     string
		source   string
		expected []string
	}{
		{
			name:     "call options",
			source:   "_, err := s.greeter.Greet(&bind.CallOpts{})",
			expected: []string{"bind"},
		},
		{
			name:     "receipt assertion",
			source:   "receipt, err := bind.WaitMined(context.Background(), s.Backend, tx)\ns.Require().Equal(types.ReceiptStatusSuccessful, receipt.Status)",
			expected: []string{"bind", "context", "types"},
		},
		{
			name:     "selector on a field is not a qualifier",
			source:   "x := s.types.Value",
			expected: nil,
		},
		{
			name:     "no references",
			source:   "func simple() {}",
			expected: nil,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			im := NewImportManager()
			im.AddReferenced(tc.source, table)
			for q := range table {
				want := false
				for _, e := range tc.expected {
					if e == q {
						want = true
					}
				}
				if im.Has(q) != want {
					t.Errorf("Has(%q) = %v, want %v", q, im.Has(q), want)
				}
			}
		})
	}
}

func TestImportManager_GenerateImports(t *testing.T) {
	im := NewImportManager()
	if got := im.GenerateImports(); got != "" {
		t.Errorf("expected empty import block, got %q", got)
	}

	im.AddImport("context", "context")
	if got := im.GenerateImports(); got != "import \"context\"\n" {
		t.Errorf("single import rendered as %q", got)
	}

	im.AddImport("big", "math/big")
	im.AddImport("bindv2", "github.com/ethereum/go-ethereum/accounts/abi/bind/v2")
	im.AddImport("bind", "github.com/ethereum/go-ethereum/accounts/abi/bind")
	im.AddImport("echo", "github.com/labstack/echo/v4")

	want := "import (\n" +
		"\t\"context\"\n" +
		"\t\"github.com/ethereum/go-ethereum/accounts/abi/bind\"\n" +
		"\tbindv2 \"github.com/ethereum/go-ethereum/accounts/abi/bind/v2\"\n" +
		"\t\"github.com/labstack/echo/v4\"\n" +
		"\t\"math/big\"\n" +
		")\n"
	if got := im.GenerateImports(); got != want {
		t.Errorf("GenerateImports() =\n%s\nwant:\n%s", got, want)
	}
}

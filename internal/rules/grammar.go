package rules

import (
	"github.com/alecthomas/participle/v2"
	"github.com/alecthomas/participle/v2/lexer"
)

// orExpr is the root of a rule expression: terms joined by ||
type orExpr struct {
	Left  *andExpr   `parser:"@@"`
	Right []*andExpr `parser:"( '||' @@ )*"`
}

type andExpr struct {
	Left  *unaryExpr   `parser:"@@"`
	Right []*unaryExpr `parser:"( '&&' @@ )*"`
}

type unaryExpr struct {
	Not  *unaryExpr `parser:"  '!' @@"`
	Term *termExpr  `parser:"| @@"`
}

type termExpr struct {
	Group *orExpr    `parser:"  '(' @@ ')'"`
	Call  *predicate `parser:"| @@"`
}

// predicate is a bare identifier such as static, or a call with one string argument
type predicate struct {
	Pos  lexer.Position
	Name string  `parser:"@Ident"`
	Arg  *string `parser:"( '(' @String ')' )?"`
}

var ruleLexer = lexer.MustSimple([]lexer.SimpleRule{
	{Name: "String", Pattern: `"(\\"|[^"])*"`},
	{Name: "Ident", Pattern: `[a-zA-Z_][a-zA-Z0-9_]*`},
	{Name: "Operator", Pattern: `&&|\|\||!|\(|\)`},
	{Name: "Whitespace", Pattern: `\s+`},
})

var ruleParser = participle.MustBuild[orExpr](
	participle.Lexer(ruleLexer),
	participle.Elide("Whitespace"),
	participle.Unquote("String"),
	participle.UseLookahead(2),
)

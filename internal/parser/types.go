package parser

import (
	"go/ast"
	"go/token"
	"go/types"
	"strconv"

	"github.com/toyz/abitest/internal/models"
)

var predeclared = map[string]bool{
	"bool": true, "string": true,
	"int": true, "int8": true, "int16": true, "int32": true, "int64": true,
	"uint": true, "uint8": true, "uint16": true, "uint32": true, "uint64": true,
	"uintptr": true, "byte": true, "rune": true,
	"float32": true, "float64": true, "complex64": true, "complex128": true,
}

// typeConverter turns AST type expressions into TypeRefs, resolving package-local named types
type typeConverter struct {
	types    map[string]*ast.TypeSpec
	visiting map[string]bool
}

func (c *typeConverter) convert(expr ast.Expr) models.TypeRef {
	switch t := expr.(type) {
	case *ast.Ident:
		return c.ident(t.Name)
	case *ast.SelectorExpr:
		return models.Named(types.ExprString(t))
	case *ast.StarExpr:
		return models.PointerTo(c.convert(t.X))
	case *ast.ParenExpr:
		return c.convert(t.X)
	case *ast.Ellipsis:
		ref := models.SliceOf(c.convert(t.Elt))
		ref.Variadic = true
		return ref
	case *ast.ArrayType:
		elem := c.convert(t.Elt)
		if t.Len == nil {
			return models.SliceOf(elem)
		}
		if lit, ok := t.Len.(*ast.BasicLit); ok && lit.Kind == token.INT {
			if n, err := strconv.Atoi(lit.Value); err == nil {
				return models.ArrayOf(n, elem)
			}
		}
		return models.TypeRef{Name: types.ExprString(t), Kind: models.TypeKindArray, Elem: &elem}
	case *ast.MapType:
		return models.MapOf(c.convert(t.Key), c.convert(t.Value))
	case *ast.ChanType:
		elem := c.convert(t.Value)
		return models.TypeRef{Name: types.ExprString(t), Kind: models.TypeKindChan, Elem: &elem}
	case *ast.FuncType:
		return models.TypeRef{Name: types.ExprString(t), Kind: models.TypeKindFunc}
	case *ast.InterfaceType:
		return models.TypeRef{Name: types.ExprString(t), Kind: models.TypeKindInterface}
	case *ast.StructType:
		return models.TypeRef{Name: types.ExprString(t), Kind: models.TypeKindStruct, Fields: fieldNames(t)}
	default:
		return models.Named(types.ExprString(expr))
	}
}

func (c *typeConverter) ident(name string) models.TypeRef {
	switch {
	case name == "error":
		return models.ErrorType
	case name == "any":
		return models.TypeRef{Name: "any", Kind: models.TypeKindInterface}
	case predeclared[name]:
		return models.Basic(name)
	}

	ref := models.Named(name)
	ts, local := c.types[name]
	if !local || c.visiting[name] {
		return ref
	}
	if c.visiting == nil {
		c.visiting = make(map[string]bool)
	}
	c.visiting[name] = true
	defer delete(c.visiting, name)

	underlying := c.convert(ts.Type)
	if ts.Assign.IsValid() {
		return underlying
	}
	switch underlying.Kind {
	case models.TypeKindStruct:
		ref.Kind = models.TypeKindStruct
		ref.Fields = underlying.Fields
	case models.TypeKindInterface:
		ref.Kind = models.TypeKindInterface
	default:
		ref.Underlying = &underlying
	}
	return ref
}

func fieldNames(st *ast.StructType) []string {
	if st.Fields == nil {
		return nil
	}
	var out []string
	for _, field := range st.Fields.List {
		if len(field.Names) == 0 {
			if name := receiverBase(field.Type); name != "" {
				out = append(out, name)
			} else if sel, ok := field.Type.(*ast.SelectorExpr); ok {
				out = append(out, sel.Sel.Name)
			}
			continue
		}
		for _, n := range field.Names {
			out = append(out, n.Name)
		}
	}
	return out
}

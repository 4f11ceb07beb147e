package models

import (
	"strconv"
	"strings"
)

// TypeKind represents the structural shape of a TypeRef
type TypeKind int

const (
	TypeKindBasic TypeKind = iota
	TypeKindNamed
	TypeKindPointer
	TypeKindSlice
	TypeKindArray
	TypeKindMap
	TypeKindChan
	TypeKindFunc
	TypeKindInterface
	TypeKindStruct
)

// String returns the string representation of the type kind
func (k TypeKind) String() string {
	switch k {
	case TypeKindBasic:
		return "basic"
	case TypeKindNamed:
		return "named"
	case TypeKindPointer:
		return "pointer"
	case TypeKindSlice:
		return "slice"
	case TypeKindArray:
		return "array"
	case TypeKindMap:
		return "map"
	case TypeKindChan:
		return "chan"
	case TypeKindFunc:
		return "func"
	case TypeKindInterface:
		return "interface"
	case TypeKindStruct:
		return "struct"
	default:
		return "unknown"
	}
}

// TypeRef is an opaque, rendering-only description of a Go type.
// Len is the declared capacity of a fixed-size array and is carried, never computed.
type TypeRef struct {
	Name       string   `json:"name"`
	Kind       TypeKind `json:"kind"`
	Elem       *TypeRef `json:"elem,omitempty"`
	Key        *TypeRef `json:"key,omitempty"`
	Len        int      `json:"len,omitempty"`
	Fields     []string `json:"fields,omitempty"`
	Underlying *TypeRef `json:"underlying,omitempty"`
	Variadic   bool     `json:"variadic,omitempty"`
}

// String returns the Go rendering of the type
func (t TypeRef) String() string {
	return t.Name
}

// IsError reports whether the type is the builtin error interface
func (t TypeRef) IsError() bool {
	return t.Kind != TypeKindPointer && t.Name == "error"
}

// HasField reports whether the type (or the type it points to) carries the named field
func (t TypeRef) HasField(field string) bool {
	for _, f := range t.Fields {
		if f == field {
			return true
		}
	}
	if t.Underlying != nil && t.Underlying.HasField(field) {
		return true
	}
	if t.Kind == TypeKindPointer && t.Elem != nil {
		return t.Elem.HasField(field)
	}
	return false
}

// Qualifiers returns the package qualifiers referenced by the type in order of appearance
func (t TypeRef) Qualifiers() []string {
	var out []string
	seen := make(map[string]bool)
	var walk func(ref *TypeRef)
	walk = func(ref *TypeRef) {
		if ref == nil {
			return
		}
		if ref.Kind == TypeKindNamed || ref.Kind == TypeKindStruct || ref.Kind == TypeKindInterface {
			if dot := strings.IndexByte(ref.Name, '.'); dot > 0 && !strings.ContainsAny(ref.Name[:dot], "{}[]* ") {
				q := ref.Name[:dot]
				if !seen[q] {
					seen[q] = true
					out = append(out, q)
				}
			}
		}
		walk(ref.Key)
		walk(ref.Elem)
	}
	walk(&t)
	return out
}

// Basic creates a TypeRef for a predeclared type such as string or uint8
func Basic(name string) TypeRef {
	return TypeRef{Name: name, Kind: TypeKindBasic}
}

// Named creates a TypeRef for a named (possibly package-qualified) type
func Named(name string) TypeRef {
	return TypeRef{Name: name, Kind: TypeKindNamed}
}

// PointerTo creates a pointer TypeRef
func PointerTo(elem TypeRef) TypeRef {
	return TypeRef{Name: "*" + elem.Name, Kind: TypeKindPointer, Elem: &elem}
}

// SliceOf creates a slice TypeRef
func SliceOf(elem TypeRef) TypeRef {
	return TypeRef{Name: "[]" + elem.Name, Kind: TypeKindSlice, Elem: &elem}
}

// ArrayOf creates a fixed-size array TypeRef with the declared capacity
func ArrayOf(length int, elem TypeRef) TypeRef {
	return TypeRef{Name: "[" + strconv.Itoa(length) + "]" + elem.Name, Kind: TypeKindArray, Elem: &elem, Len: length}
}

// MapOf creates a map TypeRef
func MapOf(key, elem TypeRef) TypeRef {
	return TypeRef{Name: "map[" + key.Name + "]" + elem.Name, Kind: TypeKindMap, Key: &key, Elem: &elem}
}

// ErrorType is the builtin error result
var ErrorType = TypeRef{Name: "error", Kind: TypeKindInterface}

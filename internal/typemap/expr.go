// Package typemap parses Python type expressions and maps them to
// TypeScript equivalents with migration-complexity advice.
//
// The pipeline is parse -> map -> classify -> annotate. Every stage is a
// pure function of its input and the static lookup tables; nothing is
// cached or mutated between calls.
package typemap

import (
	"encoding/json"
	"strings"
)

// Kind discriminates the shape of a parsed type expression node.
type Kind int

const (
	// KindLeaf is a bare or module-qualified identifier.
	KindLeaf Kind = iota
	// KindGeneric is a bracketed parametrization, e.g. dict[str, int].
	KindGeneric
	// KindUnion is an alternation of two or more types.
	KindUnion
	// KindOptional is the legacy Optional[T] wrapper.
	KindOptional
)

// String returns the kind name.
func (k Kind) String() string {
	switch k {
	case KindLeaf:
		return "leaf"
	case KindGeneric:
		return "generic"
	case KindUnion:
		return "union"
	case KindOptional:
		return "optional"
	default:
		return "unknown"
	}
}

// Expr is a parsed type expression node. Immutable once constructed:
// the parser is the only producer and nothing mutates an Expr after it
// is returned.
type Expr struct {
	// Name is the head symbol, e.g. "list", "int", "Union".
	Name string

	// Module is the optional qualifying namespace, e.g. "datetime" in
	// datetime.datetime. Empty for unqualified names.
	Module string

	// Kind is the shape discriminant. Args is non-empty exactly when
	// Kind is not KindLeaf.
	Kind Kind

	// Args holds type arguments in source order. For KindUnion these are
	// the alternatives; for KindOptional the single wrapped type.
	Args []*Expr

	// Modern is true when the node was parsed from pipe-union or
	// lowercase built-in generic syntax. Informational only.
	Modern bool
}

// IsGeneric reports whether the node is a bracketed generic.
func (e *Expr) IsGeneric() bool { return e.Kind == KindGeneric }

// IsUnion reports whether the node is a union of alternatives.
func (e *Expr) IsUnion() bool { return e.Kind == KindUnion }

// IsOptional reports whether the node is a legacy Optional wrapper.
func (e *Expr) IsOptional() bool { return e.Kind == KindOptional }

// Qualified returns the module-qualified name, or the bare name when no
// module is set.
func (e *Expr) Qualified() string {
	if e.Module == "" {
		return e.Name
	}
	return e.Module + "." + e.Name
}

// String re-serializes the expression. Unions render in pipe syntax,
// Optional in its legacy wrapper form. Re-parsing the result yields a
// tree equal to the original under Equal.
func (e *Expr) String() string {
	switch e.Kind {
	case KindUnion:
		parts := make([]string, len(e.Args))
		for i, a := range e.Args {
			parts[i] = a.String()
		}
		return strings.Join(parts, " | ")
	case KindOptional:
		return "Optional[" + e.Args[0].String() + "]"
	case KindGeneric:
		parts := make([]string, len(e.Args))
		for i, a := range e.Args {
			parts[i] = a.String()
		}
		return e.Qualified() + "[" + strings.Join(parts, ", ") + "]"
	default:
		return e.Qualified()
	}
}

// Equal reports structural equality: same shape, names, modules, and
// arguments. The Modern flag is advisory and deliberately ignored.
func (e *Expr) Equal(other *Expr) bool {
	if e == nil || other == nil {
		return e == other
	}
	if e.Kind != other.Kind || e.Name != other.Name || e.Module != other.Module {
		return false
	}
	if len(e.Args) != len(other.Args) {
		return false
	}
	for i := range e.Args {
		if !e.Args[i].Equal(other.Args[i]) {
			return false
		}
	}
	return true
}

// Walk visits the node and every descendant in depth-first order.
func (e *Expr) Walk(fn func(*Expr)) {
	if e == nil {
		return
	}
	fn(e)
	for _, a := range e.Args {
		a.Walk(fn)
	}
}

// exprJSON is the wire shape for an Expr.
type exprJSON struct {
	Name             string  `json:"name"`
	Module           string  `json:"module,omitempty"`
	IsGeneric        bool    `json:"isGeneric"`
	IsUnion          bool    `json:"isUnion"`
	IsOptional       bool    `json:"isOptional"`
	UsesModernSyntax bool    `json:"usesModernSyntax"`
	TypeArguments    []*Expr `json:"typeArguments,omitempty"`
}

// MarshalJSON emits the boolean shape discriminants alongside the tree.
func (e *Expr) MarshalJSON() ([]byte, error) {
	return json.Marshal(exprJSON{
		Name:             e.Name,
		Module:           e.Module,
		IsGeneric:        e.IsGeneric(),
		IsUnion:          e.IsUnion(),
		IsOptional:       e.IsOptional(),
		UsesModernSyntax: e.Modern,
		TypeArguments:    e.Args,
	})
}

package typemap

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Confidence rates how trustworthy a mapping is.
type Confidence string

const (
	ConfidenceHigh   Confidence = "high"
	ConfidenceMedium Confidence = "medium"
	ConfidenceLow    Confidence = "low"
)

// rank orders confidences for weakest-wins propagation.
func (c Confidence) rank() int {
	switch c {
	case ConfidenceHigh:
		return 2
	case ConfidenceMedium:
		return 1
	default:
		return 0
	}
}

// Weaker returns the lower of two confidences. Composition never
// upgrades confidence.
func Weaker(a, b Confidence) Confidence {
	if b.rank() < a.rank() {
		return b
	}
	return a
}

// Entry is one row of a lookup table: the TypeScript rendering of a
// Python type plus advisory metadata.
type Entry struct {
	// TSName is the TypeScript type name or expression.
	TSName string `json:"ts_name"`

	// Confidence rates the mapping.
	Confidence Confidence `json:"confidence"`

	// Notes are advisory strings attached to every use of the entry.
	Notes []string `json:"notes,omitempty"`

	// Shape selects the composition rule for generic uses: "array",
	// "record", "tuple", "set", "readonly_set", "map", "iterable",
	// "iterator", "promise", or empty for plain leaves.
	Shape string `json:"shape,omitempty"`
}

// Table is the read-only lookup surface the mapper depends on. The
// concrete representation (embedded JSON, data directory, anything
// else) is invisible here.
type Table interface {
	// Builtin looks up a bare type name in the built-in table.
	Builtin(name string) (Entry, bool)

	// Qualified looks up a (module, name) pair in the library table.
	Qualified(module, name string) (Entry, bool)

	// HasModule reports whether any library entry covers the module.
	HasModule(module string) bool
}

// Mapping is the TypeScript-side result for one Expr node.
type Mapping struct {
	// Name is the target type name; for unions a composed pipe string.
	Name string

	// Confidence is never upgraded by composition: a node is at most as
	// confident as its weakest argument.
	Confidence Confidence

	// Notes are advisory, in the order they were derived.
	Notes []string

	// Args mirrors the source node's type arguments after mapping.
	Args []*Mapping
}

// mappingJSON is the wire shape for a Mapping.
type mappingJSON struct {
	Name            string     `json:"name"`
	Confidence      Confidence `json:"confidence"`
	Notes           []string   `json:"notes"`
	NestedArguments []*Mapping `json:"nestedArguments,omitempty"`
}

// MarshalJSON emits the snake_case wire field names tool clients expect.
func (m *Mapping) MarshalJSON() ([]byte, error) {
	notes := m.Notes
	if notes == nil {
		notes = []string{}
	}
	return json.Marshal(mappingJSON{
		Name:            m.Name,
		Confidence:      m.Confidence,
		Notes:           notes,
		NestedArguments: m.Args,
	})
}

// Mapper resolves parsed type expressions against the lookup tables.
type Mapper struct {
	table Table
}

// NewMapper creates a mapper over the given table.
func NewMapper(table Table) *Mapper {
	return &Mapper{table: table}
}

// Map produces the TargetMapping for one expression, post-order: type
// arguments are mapped first, then the head is resolved.
func (m *Mapper) Map(e *Expr) *Mapping {
	args := make([]*Mapping, len(e.Args))
	for i, a := range e.Args {
		args[i] = m.Map(a)
	}

	// 1. Built-in table: primitives and built-in generics.
	if e.Module == "" {
		if entry, ok := m.table.Builtin(e.Name); ok {
			return m.composeBuiltin(e, entry, args)
		}
	}

	// 2. Library table: qualified leaves.
	if e.Module != "" {
		if entry, ok := m.table.Qualified(e.Module, e.Name); ok {
			return &Mapping{
				Name:       entry.TSName,
				Confidence: entry.Confidence,
				Notes:      append([]string(nil), entry.Notes...),
			}
		}
	}

	// 3. Union: compose alternatives with a pipe.
	if e.IsUnion() {
		return composeUnion(args)
	}

	// 4. Optional: wrapped type or undefined.
	if e.IsOptional() {
		return composeOptional(args[0])
	}

	// 5. No match: best-effort unknown, never a refusal.
	return unknownMapping(e)
}

// composeBuiltin renders a built-in entry, attaching recursively mapped
// arguments when the source node is generic.
func (m *Mapper) composeBuiltin(e *Expr, entry Entry, args []*Mapping) *Mapping {
	out := &Mapping{
		Name:       entry.TSName,
		Confidence: entry.Confidence,
		Notes:      append([]string(nil), entry.Notes...),
	}
	if !e.IsGeneric() {
		return out
	}

	out.Args = args
	out.Name = composeGenericName(entry, args)
	for i, a := range args {
		out.Confidence = Weaker(out.Confidence, a.Confidence)
		if a.Confidence == ConfidenceLow {
			out.Notes = append(out.Notes,
				fmt.Sprintf("type argument %d (%s) has no reliable mapping; resolve it before relying on this type", i+1, e.Args[i].Qualified()))
		}
	}
	return out
}

// composeGenericName renders the TypeScript spelling of a parametrized
// built-in according to the entry's shape rule.
func composeGenericName(entry Entry, args []*Mapping) string {
	names := make([]string, len(args))
	for i, a := range args {
		names[i] = a.Name
	}

	switch entry.Shape {
	case "array":
		if len(names) == 1 {
			return arrayOf(names[0])
		}
	case "record":
		if len(names) == 2 {
			return fmt.Sprintf("Record<%s, %s>", names[0], names[1])
		}
	case "tuple":
		return "[" + strings.Join(names, ", ") + "]"
	case "set":
		if len(names) == 1 {
			return fmt.Sprintf("Set<%s>", names[0])
		}
	case "readonly_set":
		if len(names) == 1 {
			return fmt.Sprintf("ReadonlySet<%s>", names[0])
		}
	case "map":
		if len(names) == 2 {
			return fmt.Sprintf("Map<%s, %s>", names[0], names[1])
		}
	case "iterable":
		if len(names) == 1 {
			return fmt.Sprintf("Iterable<%s>", names[0])
		}
	case "iterator":
		if len(names) == 1 {
			return fmt.Sprintf("IterableIterator<%s>", names[0])
		}
	case "promise":
		if len(names) == 1 {
			return fmt.Sprintf("Promise<%s>", names[0])
		}
	}

	// Arity mismatch or no shape rule: generic angle-bracket fallback.
	return entry.TSName + "<" + strings.Join(names, ", ") + ">"
}

// arrayOf renders T[]; union element types get parenthesized so the
// suffix binds to the whole union.
func arrayOf(elem string) string {
	if strings.Contains(elem, "|") {
		return "(" + elem + ")[]"
	}
	return elem + "[]"
}

// composeUnion joins mapped alternatives with a pipe. Confidence starts
// high and weakens to the weakest branch.
func composeUnion(args []*Mapping) *Mapping {
	names := make([]string, len(args))
	conf := ConfidenceHigh
	var notes []string
	for i, a := range args {
		names[i] = a.Name
		conf = Weaker(conf, a.Confidence)
		if a.Confidence == ConfidenceLow {
			notes = append(notes,
				fmt.Sprintf("union branch %d (%s) has no reliable mapping", i+1, a.Name))
		}
	}
	notes = append(notes,
		"every union branch must be handled explicitly; use type narrowing (typeof, instanceof, or discriminant fields) to cover all cases")
	return &Mapping{
		Name:       strings.Join(names, " | "),
		Confidence: conf,
		Notes:      notes,
		Args:       args,
	}
}

// composeOptional renders the wrapped type or undefined.
func composeOptional(wrapped *Mapping) *Mapping {
	return &Mapping{
		Name:       wrapped.Name + " | undefined",
		Confidence: wrapped.Confidence,
		Notes: append(append([]string(nil), wrapped.Notes...),
			"the absent case must be handled explicitly; prefer checks like value !== undefined over truthiness"),
		Args: []*Mapping{wrapped},
	}
}

// unknownMapping is the designed soft failure: low confidence plus
// guidance, rather than an error.
func unknownMapping(e *Expr) *Mapping {
	return &Mapping{
		Name:       "unknown",
		Confidence: ConfidenceLow,
		Notes: []string{
			fmt.Sprintf("no mapping found for %s", e.Qualified()),
			"define a TypeScript interface matching its structure, or search for an equivalent npm library",
		},
	}
}

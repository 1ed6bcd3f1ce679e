package typemap

// Complexity is the five-level advisory classification of how much
// manual rework a conversion is expected to need.
type Complexity string

const (
	ComplexityTrivial          Complexity = "trivial"
	ComplexitySimple           Complexity = "simple"
	ComplexityModerate         Complexity = "moderate"
	ComplexityComplex          Complexity = "complex"
	ComplexityRequiresRedesign Complexity = "requires-redesign"
)

// rank orders complexities for worst-argument-wins folding.
func (c Complexity) rank() int {
	switch c {
	case ComplexityTrivial:
		return 0
	case ComplexitySimple:
		return 1
	case ComplexityModerate:
		return 2
	case ComplexityComplex:
		return 3
	default:
		return 4
	}
}

// worse returns the higher-rework of two complexities.
func worse(a, b Complexity) Complexity {
	if b.rank() > a.rank() {
		return b
	}
	return a
}

// ClassifierOptions are the tuning knobs for the classifier. They are
// heuristics carried over from migration practice, not invariants.
type ClassifierOptions struct {
	// UnionModerateThreshold: unions with more alternatives than this
	// classify as moderate. Default 3.
	UnionModerateThreshold int

	// EscapeHatchTypes are dynamic source types that always classify as
	// complex. Default Any and object.
	EscapeHatchTypes []string
}

// withDefaults fills zero values.
func (o ClassifierOptions) withDefaults() ClassifierOptions {
	if o.UnionModerateThreshold <= 0 {
		o.UnionModerateThreshold = 3
	}
	if len(o.EscapeHatchTypes) == 0 {
		o.EscapeHatchTypes = []string{"Any", "object"}
	}
	return o
}

// Classifier derives migration complexity from an expression and its
// computed mapping. A pure structural fold: same input, same answer.
type Classifier struct {
	table          Table
	mapper         *Mapper
	unionThreshold int
	escapeHatch    map[string]bool
}

// NewClassifier creates a classifier over the same table the mapper
// resolves against.
func NewClassifier(table Table, opts ClassifierOptions) *Classifier {
	opts = opts.withDefaults()
	hatch := make(map[string]bool, len(opts.EscapeHatchTypes))
	for _, n := range opts.EscapeHatchTypes {
		hatch[n] = true
	}
	return &Classifier{
		table:          table,
		mapper:         NewMapper(table),
		unionThreshold: opts.UnionModerateThreshold,
		escapeHatch:    hatch,
	}
}

// Classify applies the ordered rule set; the first matching rule wins.
func (c *Classifier) Classify(e *Expr, m *Mapping) Complexity {
	// 1. Unmapped anywhere at the head means redesign.
	if m.Confidence == ConfidenceLow {
		return ComplexityRequiresRedesign
	}

	// 2. Dynamic escape hatches, and modules the library table does not
	// cover, need structural rework.
	if c.escapeHatch[e.Name] {
		return ComplexityComplex
	}
	if e.Module != "" && !c.table.HasModule(e.Module) {
		return ComplexityComplex
	}

	// 3. Wide unions multiply the narrowing burden.
	if e.IsUnion() && len(e.Args) > c.unionThreshold {
		return ComplexityModerate
	}

	// 4. Generic nodes inherit the worst argument classification.
	if e.IsGeneric() {
		out := ComplexityTrivial
		for i, arg := range e.Args {
			out = worse(out, c.Classify(arg, c.argMapping(m, i, arg)))
		}
		if out.rank() >= ComplexityModerate.rank() {
			return out
		}
	}

	// 5./6. Table confidence decides the remainder.
	if m.Confidence == ConfidenceMedium {
		return ComplexitySimple
	}
	return ComplexityTrivial
}

// argMapping returns the mapping that corresponds to the i-th type
// argument, recomputing it when the head resolution did not carry
// nested arguments (library leaves, unknowns).
func (c *Classifier) argMapping(m *Mapping, i int, arg *Expr) *Mapping {
	if m != nil && i < len(m.Args) && m.Args[i] != nil {
		return m.Args[i]
	}
	return c.mapper.Map(arg)
}

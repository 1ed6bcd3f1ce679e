package typemap

import "fmt"

// ConversionNotes derives advisory notes from structural features of the
// parsed expression and its mapping. Deterministic: fixed strings keyed
// by predicates over already-computed structure.
func ConversionNotes(e *Expr, m *Mapping) []string {
	notes := collectMappingNotes(m, nil)

	var sawDict, sawTuple, sawModern, sawLegacy bool
	e.Walk(func(n *Expr) {
		switch n.Name {
		case "dict", "Dict", "Mapping", "OrderedDict", "defaultdict":
			sawDict = true
		case "tuple", "Tuple":
			sawTuple = true
		}
		if n.Modern {
			sawModern = true
		}
		if n.IsOptional() || (n.IsUnion() && !n.Modern) || (n.IsGeneric() && !n.Modern && n.Module == "") {
			sawLegacy = true
		}
	})

	if sawDict {
		notes = append(notes,
			"Record iteration differs from dict: use Object.keys/entries, and remember keys are coerced to strings")
	}
	if sawTuple {
		notes = append(notes,
			"TypeScript tuples are fixed-length arrays; destructure positionally and avoid push/pop on them")
	}
	if sawModern {
		notes = append(notes,
			"modern syntax (PEP 585/604) translates cleanly; the structure maps one-to-one")
	}
	if sawLegacy {
		notes = append(notes,
			"legacy typing-module syntax detected; consider modernizing the Python side (list[int], X | None) before migrating")
	}

	return notes
}

// collectMappingNotes flattens mapping notes in tree order, top first.
func collectMappingNotes(m *Mapping, acc []string) []string {
	if m == nil {
		return acc
	}
	acc = append(acc, m.Notes...)
	for _, a := range m.Args {
		acc = collectMappingNotes(a, acc)
	}
	return acc
}

// RuntimeConsiderations derives notes about runtime semantic gaps
// between the two languages, keyed by the types present in the tree.
func RuntimeConsiderations(e *Expr) []string {
	var out []string
	seen := map[string]bool{}
	add := func(key, note string) {
		if !seen[key] {
			seen[key] = true
			out = append(out, note)
		}
	}

	e.Walk(func(n *Expr) {
		switch n.Name {
		case "int":
			add("int", "Python ints are arbitrary precision; JavaScript numbers are IEEE-754 doubles, exact only up to 2^53-1 (use bigint beyond that)")
		case "float":
			add("float", "float maps to number with identical IEEE-754 semantics; NaN and infinity behave the same")
		case "None":
			add("none", "None splits into null and undefined in TypeScript; pick one convention and apply it consistently")
		case "bytes", "bytearray":
			add("bytes", "bytes maps to Uint8Array; string conversions need an explicit TextEncoder/TextDecoder step")
		case "dict", "Dict":
			add("dict", "both dict and plain objects preserve insertion order, but non-string Python keys need a Map instead of Record")
		case "set", "frozenset", "Set", "FrozenSet":
			add("set", "Set equality is by reference for objects, unlike Python's value-based hashing")
		case "Any":
			add("any", "values typed Any carry no compile-time guarantees; add runtime validation at the boundary")
		}
		if n.IsOptional() || n.IsUnion() {
			add("absence", "truthiness differs: 0, '' and NaN are falsy in both languages, but undefined-vs-null checks need explicit comparison")
		}
	})

	return out
}

// TestingApproach suggests testing depth for the classified conversion.
func TestingApproach(e *Expr, complexity Complexity) []string {
	var out []string

	switch complexity {
	case ComplexityTrivial:
		out = append(out, "basic unit tests on representative values are sufficient")
	case ComplexitySimple:
		out = append(out, "unit tests including boundary values and the absent case")
	case ComplexityModerate:
		out = append(out, "unit tests per variant plus differential tests comparing Python and TypeScript outputs on shared inputs")
	case ComplexityComplex:
		out = append(out, "comprehensive differential testing with generated inputs",
			"runtime type validation (e.g. zod) at module boundaries")
	case ComplexityRequiresRedesign:
		out = append(out, "design the TypeScript type first, then write characterization tests against the Python behavior before porting")
	}

	var unionBranches int
	var sawGeneric bool
	e.Walk(func(n *Expr) {
		if n.IsUnion() && len(n.Args) > unionBranches {
			unionBranches = len(n.Args)
		}
		if n.IsGeneric() {
			sawGeneric = true
		}
	})

	if unionBranches > 0 {
		out = append(out, fmt.Sprintf("cover each of the %d union branches with at least one test case", unionBranches))
	}
	if sawGeneric {
		out = append(out, "test empty, single-element, and nested container values")
	}

	return out
}

package astmetrics

import (
	"bytes"
	"fmt"
	"sort"

	sitter "github.com/smacker/go-tree-sitter"
)

// Calls to these builtins mark code that computes names or code at
// runtime, which static TypeScript cannot express directly.
var dynamicBuiltins = map[string]string{
	"eval":       "eval",
	"exec":       "exec",
	"compile":    "compile",
	"getattr":    "getattr",
	"setattr":    "setattr",
	"delattr":    "delattr",
	"globals":    "globals",
	"locals":     "locals",
	"vars":       "vars",
	"__import__": "__import__",
}

// Decision points for the cyclomatic approximation. Comprehension if
// clauses count; the bare else does not.
var branchNodes = map[string]bool{
	"if_statement":           true,
	"elif_clause":            true,
	"for_statement":          true,
	"while_statement":        true,
	"except_clause":          true,
	"case_clause":            true,
	"conditional_expression": true,
	"boolean_operator":       true,
	"if_clause":              true,
	"assert_statement":       true,
}

// Statements that open a new indentation level.
var nestingNodes = map[string]bool{
	"if_statement":        true,
	"for_statement":       true,
	"while_statement":     true,
	"try_statement":       true,
	"with_statement":      true,
	"match_statement":     true,
	"function_definition": true,
	"class_definition":    true,
}

// collect walks the tree once and accumulates every metric.
func collect(root *sitter.Node, source []byte) *Metrics {
	m := &Metrics{
		Lines:                countLines(source),
		CyclomaticComplexity: 1,
		HasSyntaxErrors:      root.HasError(),
	}
	features := map[string]bool{}

	var walk func(n *sitter.Node, depth int)
	walk = func(n *sitter.Node, depth int) {
		nodeType := n.Type()

		if branchNodes[nodeType] {
			m.CyclomaticComplexity++
		}
		if nestingNodes[nodeType] {
			depth++
			if depth > m.MaxNestingDepth {
				m.MaxNestingDepth = depth
			}
		}

		switch nodeType {
		case "function_definition":
			m.Functions++
			if isAsync(n) {
				m.AsyncFunctions++
			}
		case "class_definition":
			m.Classes++
			inspectClass(n, source, features)
		case "decorator":
			m.Decorators++
		case "call":
			if name, ok := dynamicCall(n, source); ok {
				features[name] = true
			}
		}

		for i := 0; i < int(n.ChildCount()); i++ {
			if child := n.Child(i); child != nil {
				walk(child, depth)
			}
		}
	}
	walk(root, 0)

	if m.Decorators > 0 {
		features["decorators"] = true
	}

	m.DynamicFeatures = sortedKeys(features)
	m.RiskNotes = riskNotes(m, features)
	return m
}

// isAsync reports whether a function_definition starts with the async
// keyword token.
func isAsync(n *sitter.Node) bool {
	first := n.Child(0)
	return first != nil && first.Type() == "async"
}

// dynamicCall extracts the callee name when a call targets one of the
// dynamic builtins directly by identifier.
func dynamicCall(n *sitter.Node, source []byte) (string, bool) {
	fn := n.ChildByFieldName("function")
	if fn == nil || fn.Type() != "identifier" {
		return "", false
	}
	name := fn.Content(source)
	tag, ok := dynamicBuiltins[name]
	return tag, ok
}

// inspectClass flags metaclass keyword arguments and multiple
// inheritance in a class_definition's superclass list.
func inspectClass(n *sitter.Node, source []byte, features map[string]bool) {
	supers := n.ChildByFieldName("superclasses")
	if supers == nil {
		return
	}
	bases := 0
	for i := 0; i < int(supers.NamedChildCount()); i++ {
		arg := supers.NamedChild(i)
		if arg == nil {
			continue
		}
		if arg.Type() == "keyword_argument" {
			if key := arg.ChildByFieldName("name"); key != nil && key.Content(source) == "metaclass" {
				features["metaclass"] = true
			}
			continue
		}
		bases++
	}
	if bases > 1 {
		features["multiple_inheritance"] = true
	}
}

// riskNotes translates raw findings into porting guidance, ordered from
// hardest blocker to routine observation.
func riskNotes(m *Metrics, features map[string]bool) []string {
	var notes []string
	if features["eval"] || features["exec"] || features["compile"] {
		notes = append(notes, "eval/exec executes code built at runtime; there is no TypeScript equivalent, redesign these paths before porting")
	}
	if features["metaclass"] {
		notes = append(notes, "metaclasses have no TypeScript counterpart; replace with factory functions or class decorators")
	}
	if features["multiple_inheritance"] {
		notes = append(notes, "TypeScript classes extend exactly one base; plan mixins or composition for multiply-inherited classes")
	}
	if features["getattr"] || features["setattr"] || features["delattr"] {
		notes = append(notes, "dynamic attribute access defeats static typing; replace with Record lookups or discriminated unions")
	}
	if features["globals"] || features["locals"] || features["vars"] || features["__import__"] {
		notes = append(notes, "runtime namespace introspection does not survive bundling; make these dependencies explicit")
	}
	if features["decorators"] {
		notes = append(notes, fmt.Sprintf("%d decorator use(s) become explicit higher-order function wrapping", m.Decorators))
	}
	if m.MaxNestingDepth >= 5 {
		notes = append(notes, fmt.Sprintf("nesting reaches depth %d; flatten before porting to keep the translation reviewable", m.MaxNestingDepth))
	}
	if m.CyclomaticComplexity >= 20 {
		notes = append(notes, fmt.Sprintf("cyclomatic complexity ~%d; prioritize differential tests for this unit", m.CyclomaticComplexity))
	}
	if m.HasSyntaxErrors {
		notes = append(notes, "source has syntax errors; metrics are approximate")
	}
	return notes
}

func countLines(source []byte) int {
	n := bytes.Count(source, []byte("\n"))
	if len(source) > 0 && source[len(source)-1] != '\n' {
		n++
	}
	return n
}

func sortedKeys(set map[string]bool) []string {
	keys := make([]string, 0, len(set))
	for k := range set {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

package typemap

import (
	"fmt"
	"regexp"
	"strings"
)

// ParseError describes a malformed type expression. It is recovered at
// the tool boundary and surfaced as a structured failure, never a crash.
type ParseError struct {
	Input  string
	Reason string
}

// Error implements the error interface.
func (e *ParseError) Error() string {
	return fmt.Sprintf("cannot parse type expression %q: %s", e.Input, e.Reason)
}

// modernBuiltins are the lowercase built-in generics whose bracketed use
// signals modern (PEP 585) syntax.
var modernBuiltins = map[string]bool{
	"list":      true,
	"dict":      true,
	"tuple":     true,
	"set":       true,
	"frozenset": true,
}

var (
	identRe       = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)
	dottedIdentRe = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*(\.[A-Za-z_][A-Za-z0-9_]*)+$`)
	genericHeadRe = regexp.MustCompile(`^([A-Za-z_][A-Za-z0-9_]*(?:\.[A-Za-z_][A-Za-z0-9_]*)*)\[(.*)\]$`)
)

// Parse turns a textual type expression into an Expr tree.
//
// Forms are tried in precedence order: top-level pipe union, legacy
// Optional wrapper, legacy Union wrapper, bracketed generic, dotted
// leaf, bare leaf. Splitting on | and , is bracket-depth aware so that
// separators nested inside generic arguments never split the top level.
func Parse(input string) (*Expr, error) {
	s := strings.TrimSpace(input)
	if s == "" {
		return nil, &ParseError{Input: input, Reason: "empty type expression"}
	}
	if err := checkBrackets(s); err != nil {
		return nil, err
	}
	return parse(s)
}

func parse(s string) (*Expr, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, &ParseError{Input: s, Reason: "empty type expression"}
	}

	// 1. Pipe union: most distinctive, checked first.
	if parts, found := splitTopLevel(s, '|'); found {
		args := make([]*Expr, 0, len(parts))
		for _, p := range parts {
			if strings.TrimSpace(p) == "" {
				return nil, &ParseError{Input: s, Reason: "empty union alternative"}
			}
			arg, err := parse(p)
			if err != nil {
				return nil, err
			}
			args = append(args, arg)
		}
		return &Expr{Name: "Union", Kind: KindUnion, Args: args, Modern: true}, nil
	}

	// 2./3./4. Bracketed forms share the head[args] shape.
	if m := genericHeadRe.FindStringSubmatch(s); m != nil && bracketsMatchToEnd(s) {
		head, body := m[1], m[2]

		switch head {
		case "Optional":
			// Optional takes exactly one argument; a top-level comma in the
			// body means the source wrote Optional[a, b], which is malformed.
			if parts, found := splitTopLevel(body, ','); found && len(parts) > 1 {
				return nil, &ParseError{Input: s, Reason: "Optional takes exactly one type argument"}
			}
			inner, err := parse(body)
			if err != nil {
				return nil, err
			}
			return &Expr{Name: "Optional", Kind: KindOptional, Args: []*Expr{inner}}, nil

		case "Union":
			args, err := parseArgList(s, body)
			if err != nil {
				return nil, err
			}
			return &Expr{Name: "Union", Kind: KindUnion, Args: args}, nil

		default:
			args, err := parseArgList(s, body)
			if err != nil {
				return nil, err
			}
			name, module := head, ""
			if i := strings.LastIndex(head, "."); i >= 0 {
				module, name = head[:i], head[i+1:]
			}
			return &Expr{
				Name:   name,
				Module: module,
				Kind:   KindGeneric,
				Args:   args,
				Modern: modernBuiltins[head],
			}, nil
		}
	}

	// 5. Dotted bare identifier.
	if dottedIdentRe.MatchString(s) {
		i := strings.LastIndex(s, ".")
		return &Expr{Name: s[i+1:], Module: s[:i]}, nil
	}

	// 6. Bare identifier.
	if identRe.MatchString(s) {
		return &Expr{Name: s}, nil
	}

	return nil, &ParseError{Input: s, Reason: "malformed type expression"}
}

// parseArgList splits a bracket body on top-level commas and parses each
// argument. An empty body or empty argument is malformed.
func parseArgList(whole, body string) ([]*Expr, error) {
	if strings.TrimSpace(body) == "" {
		return nil, &ParseError{Input: whole, Reason: "empty type argument list"}
	}
	parts, _ := splitTopLevel(body, ',')
	args := make([]*Expr, 0, len(parts))
	for _, p := range parts {
		if strings.TrimSpace(p) == "" {
			return nil, &ParseError{Input: whole, Reason: "empty type argument"}
		}
		arg, err := parse(p)
		if err != nil {
			return nil, err
		}
		args = append(args, arg)
	}
	return args, nil
}

// splitTopLevel splits s on sep occurrences at bracket depth zero.
// found is true only when at least one top-level separator was seen.
func splitTopLevel(s string, sep byte) (parts []string, found bool) {
	depth := 0
	last := 0
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '[':
			depth++
		case ']':
			depth--
		case sep:
			if depth == 0 {
				parts = append(parts, s[last:i])
				last = i + 1
				found = true
			}
		}
	}
	parts = append(parts, s[last:])
	return parts, found
}

// checkBrackets verifies balanced square brackets.
func checkBrackets(s string) error {
	depth := 0
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '[':
			depth++
		case ']':
			depth--
			if depth < 0 {
				return &ParseError{Input: s, Reason: "unbalanced brackets: unexpected ]"}
			}
		}
	}
	if depth != 0 {
		return &ParseError{Input: s, Reason: "unbalanced brackets: missing ]"}
	}
	return nil
}

// bracketsMatchToEnd reports whether the first [ in s is closed by the
// final character. Rules out shapes like a[b][c] being read as one
// generic with body "b][c".
func bracketsMatchToEnd(s string) bool {
	open := strings.IndexByte(s, '[')
	if open < 0 || s[len(s)-1] != ']' {
		return false
	}
	depth := 0
	for i := open; i < len(s); i++ {
		switch s[i] {
		case '[':
			depth++
		case ']':
			depth--
			if depth == 0 {
				return i == len(s)-1
			}
		}
	}
	return false
}

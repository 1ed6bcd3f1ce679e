package typemap

import (
	"strconv"
	"strings"

	tsberrors "github.com/tsbridge/tsbridge/internal/errors"
)

// Result is the complete analysis response for one type expression.
// Created fresh per call and never retained.
type Result struct {
	PythonType            *Expr      `json:"pythonType"`
	TypeScriptMapping     *Mapping   `json:"typeScriptMapping"`
	ConversionNotes       []string   `json:"conversionNotes"`
	RuntimeConsiderations []string   `json:"runtimeConsiderations"`
	TestingApproach       []string   `json:"testingApproach"`
	MigrationComplexity   Complexity `json:"migrationComplexity"`
}

// Options tunes the analyzer heuristics.
type Options struct {
	// MaxExpressionLength caps accepted input length; 0 means 2048.
	MaxExpressionLength int

	// Classifier holds the complexity tuning knobs.
	Classifier ClassifierOptions
}

// Analyzer is the parse -> map -> classify -> annotate pipeline over a
// fixed lookup table. Stateless between calls; safe for concurrent use.
type Analyzer struct {
	mapper     *Mapper
	classifier *Classifier
	maxLen     int
}

// New creates an analyzer over the given lookup table.
func New(table Table, opts Options) *Analyzer {
	maxLen := opts.MaxExpressionLength
	if maxLen <= 0 {
		maxLen = 2048
	}
	return &Analyzer{
		mapper:     NewMapper(table),
		classifier: NewClassifier(table, opts.Classifier),
		maxLen:     maxLen,
	}
}

// Analyze runs the full pipeline on one type expression. Malformed
// input returns a TSBError with code ERR_402_TYPE_PARSE_FAILED; the
// caller converts it to the structured failure shape.
func (a *Analyzer) Analyze(typeExpression string) (*Result, error) {
	trimmed := strings.TrimSpace(typeExpression)
	if trimmed == "" {
		return nil, tsberrors.New(tsberrors.ErrCodeEmptyInput,
			"type expression is required", nil)
	}
	if len(trimmed) > a.maxLen {
		return nil, tsberrors.New(tsberrors.ErrCodeInputTooLong,
			"type expression exceeds maximum length", nil).
			WithDetail("max_length", strconv.Itoa(a.maxLen))
	}

	expr, err := Parse(trimmed)
	if err != nil {
		return nil, tsberrors.Wrap(tsberrors.ErrCodeTypeParseFailed, err).
			WithDetail("input", trimmed).
			WithSuggestion("check that brackets are balanced and every generic has at least one argument")
	}

	mapping := a.mapper.Map(expr)
	complexity := a.classifier.Classify(expr, mapping)

	return &Result{
		PythonType:            expr,
		TypeScriptMapping:     mapping,
		ConversionNotes:       ConversionNotes(expr, mapping),
		RuntimeConsiderations: RuntimeConsiderations(expr),
		TestingApproach:       TestingApproach(expr, complexity),
		MigrationComplexity:   complexity,
	}, nil
}

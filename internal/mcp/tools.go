package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/tsbridge/tsbridge/internal/astmetrics"
	"github.com/tsbridge/tsbridge/internal/difftest"
	tsberrors "github.com/tsbridge/tsbridge/internal/errors"
	"github.com/tsbridge/tsbridge/internal/knowledge"
	"github.com/tsbridge/tsbridge/internal/typemap"
)

// AnalyzeTypeInput defines the input schema for the analyze_type tool.
type AnalyzeTypeInput struct {
	TypeExpression string `json:"typeExpression" jsonschema:"the Python type expression to analyze, e.g. dict[str, list[int]] or Optional[str]"`
	Context        string `json:"context,omitempty" jsonschema:"optional free-form context about where the type is used; accepted but not consumed"`
}

// AnalyzeTypeOutput defines the output schema for the analyze_type
// tool. On success the analysis fields are set; on a recoverable
// failure (malformed expression) Error and Status carry the structured
// failure shape instead.
type AnalyzeTypeOutput struct {
	PythonType            *typemap.Expr      `json:"pythonType,omitempty" jsonschema:"the parsed type expression tree"`
	TypeScriptMapping     *typemap.Mapping   `json:"typeScriptMapping,omitempty" jsonschema:"the composed TypeScript mapping with confidence"`
	ConversionNotes       []string           `json:"conversionNotes,omitempty" jsonschema:"actionable notes about the conversion"`
	RuntimeConsiderations []string           `json:"runtimeConsiderations,omitempty" jsonschema:"runtime behavior differences to account for"`
	TestingApproach       []string           `json:"testingApproach,omitempty" jsonschema:"suggested testing steps for this type"`
	MigrationComplexity   typemap.Complexity `json:"migrationComplexity,omitempty" jsonschema:"trivial, simple, moderate, complex, or requires-redesign"`

	Error  string `json:"error,omitempty" jsonschema:"error message when the expression could not be analyzed"`
	Status string `json:"status,omitempty" jsonschema:"set to failed when analysis did not succeed"`
}

const statusFailed = "failed"

// handleAnalyzeType runs the core type analysis pipeline. Malformed
// input is a normal outcome for this tool, so parse failures become a
// structured failure payload, not a protocol error.
func (s *Server) handleAnalyzeType(ctx context.Context, _ *mcp.CallToolRequest, input AnalyzeTypeInput) (
	*mcp.CallToolResult,
	AnalyzeTypeOutput,
	error,
) {
	start := time.Now()
	result, err := s.analyzer.Analyze(input.TypeExpression)
	if err != nil {
		if tsberrors.IsRecoverable(err) || tsberrors.GetCode(err) == tsberrors.ErrCodeInputTooLong {
			s.logger.Info("type analysis failed",
				slog.String("input", truncateForLog(input.TypeExpression)),
				slog.String("code", tsberrors.GetCode(err)))
			return nil, AnalyzeTypeOutput{Error: userMessage(err), Status: statusFailed}, nil
		}
		return nil, AnalyzeTypeOutput{}, MapError(err)
	}

	s.logger.Info("type analyzed",
		slog.String("input", truncateForLog(input.TypeExpression)),
		slog.String("complexity", string(result.MigrationComplexity)),
		slog.Duration("duration", time.Since(start)))

	return nil, AnalyzeTypeOutput{
		PythonType:            result.PythonType,
		TypeScriptMapping:     result.TypeScriptMapping,
		ConversionNotes:       result.ConversionNotes,
		RuntimeConsiderations: result.RuntimeConsiderations,
		TestingApproach:       result.TestingApproach,
		MigrationComplexity:   result.MigrationComplexity,
	}, nil
}

// LookupLibraryInput defines the input schema for the lookup_library
// tool.
type LookupLibraryInput struct {
	Package string `json:"package" jsonschema:"the Python package name to look up, e.g. requests or sqlalchemy"`
}

// LookupLibraryOutput defines the output schema for the lookup_library
// tool.
type LookupLibraryOutput struct {
	Found       bool               `json:"found" jsonschema:"whether the package is in the catalog"`
	Package     *knowledge.Package `json:"package,omitempty" jsonschema:"the catalog entry when found"`
	Suggestions []string           `json:"suggestions,omitempty" jsonschema:"next steps when the package is not cataloged"`
}

func (s *Server) handleLookupLibrary(ctx context.Context, _ *mcp.CallToolRequest, input LookupLibraryInput) (
	*mcp.CallToolResult,
	LookupLibraryOutput,
	error,
) {
	name := strings.TrimSpace(input.Package)
	if name == "" {
		return nil, LookupLibraryOutput{}, NewInvalidParamsError("package parameter is required")
	}

	pkg, ok := s.store.LookupPackage(name)
	if !ok {
		return nil, LookupLibraryOutput{
			Found: false,
			Suggestions: []string{
				"try search_knowledge with the package name or its problem domain",
				"check the package's own docs for a recommended JS port",
			},
		}, nil
	}
	return nil, LookupLibraryOutput{Found: true, Package: &pkg}, nil
}

// SearchKnowledgeInput defines the input schema for the
// search_knowledge tool.
type SearchKnowledgeInput struct {
	Query string `json:"query" jsonschema:"the search query, e.g. list comprehension or floor division"`
	Limit int    `json:"limit,omitempty" jsonschema:"maximum number of results, default 10"`
}

// SearchKnowledgeOutput defines the output schema for the
// search_knowledge tool.
type SearchKnowledgeOutput struct {
	Results []knowledge.SearchResult `json:"results" jsonschema:"matching idioms, packages, and testing strategies ranked by relevance"`
}

func (s *Server) handleSearchKnowledge(ctx context.Context, _ *mcp.CallToolRequest, input SearchKnowledgeInput) (
	*mcp.CallToolResult,
	SearchKnowledgeOutput,
	error,
) {
	if strings.TrimSpace(input.Query) == "" {
		return nil, SearchKnowledgeOutput{}, NewInvalidParamsError("query parameter is required")
	}

	limit := input.Limit
	if limit <= 0 {
		limit = s.config.Knowledge.SearchLimit
	}
	results, err := s.store.Search(ctx, input.Query, limit)
	if err != nil {
		return nil, SearchKnowledgeOutput{}, MapError(err)
	}
	return nil, SearchKnowledgeOutput{Results: results}, nil
}

// AnalyzeCodeStructureInput defines the input schema for the
// analyze_code_structure tool.
type AnalyzeCodeStructureInput struct {
	Source string `json:"source" jsonschema:"the Python source code to analyze"`
}

// AnalyzeCodeStructureOutput defines the output schema for the
// analyze_code_structure tool.
type AnalyzeCodeStructureOutput struct {
	Metrics *astmetrics.Metrics `json:"metrics,omitempty" jsonschema:"structural metrics and migration risk notes"`

	Error  string `json:"error,omitempty" jsonschema:"error message when the source could not be analyzed"`
	Status string `json:"status,omitempty" jsonschema:"set to failed when analysis did not succeed"`
}

func (s *Server) handleAnalyzeCodeStructure(ctx context.Context, _ *mcp.CallToolRequest, input AnalyzeCodeStructureInput) (
	*mcp.CallToolResult,
	AnalyzeCodeStructureOutput,
	error,
) {
	if s.metrics == nil {
		return nil, AnalyzeCodeStructureOutput{}, &MCPError{
			Code:    ErrCodeInternalError,
			Message: "code structure analysis is not available in this build",
		}
	}

	m, err := s.metrics.Analyze(ctx, []byte(input.Source))
	if err != nil {
		if tsberrors.IsRecoverable(err) || tsberrors.GetCode(err) == tsberrors.ErrCodeInputTooLong {
			return nil, AnalyzeCodeStructureOutput{Error: userMessage(err), Status: statusFailed}, nil
		}
		return nil, AnalyzeCodeStructureOutput{}, MapError(err)
	}
	return nil, AnalyzeCodeStructureOutput{Metrics: m}, nil
}

// RunDifferentialTestInput defines the input schema for the
// run_differential_test tool.
type RunDifferentialTestInput struct {
	PythonCode     string            `json:"pythonCode" jsonschema:"a Python module defining the function under test at top level"`
	TypeScriptCode string            `json:"typescriptCode" jsonschema:"an ES module exporting the ported function; must be runnable JavaScript"`
	FunctionName   string            `json:"functionName" jsonschema:"the function name present in both modules"`
	TestCases      []json.RawMessage `json:"testCases" jsonschema:"one JSON array of positional arguments per case, e.g. [[1,2],[3,4]]"`
}

// RunDifferentialTestOutput defines the output schema for the
// run_differential_test tool.
type RunDifferentialTestOutput struct {
	Report *difftest.Report `json:"report,omitempty" jsonschema:"per-case comparison results"`

	Error  string `json:"error,omitempty" jsonschema:"error message when the run could not complete"`
	Status string `json:"status,omitempty" jsonschema:"set to failed when the run did not complete"`
}

func (s *Server) handleRunDifferentialTest(ctx context.Context, _ *mcp.CallToolRequest, input RunDifferentialTestInput) (
	*mcp.CallToolResult,
	RunDifferentialTestOutput,
	error,
) {
	if s.diff == nil {
		return nil, RunDifferentialTestOutput{}, &MCPError{
			Code:    ErrCodeInternalError,
			Message: "differential testing is not available in this build",
		}
	}

	report, err := s.diff.Run(ctx, difftest.Request{
		PythonCode: input.PythonCode,
		TSCode:     input.TypeScriptCode,
		Function:   input.FunctionName,
		Cases:      input.TestCases,
	})
	if err != nil {
		// Interpreter and timeout failures are environmental; report
		// them in the failure shape so the client can adjust and retry.
		switch tsberrors.GetCode(err) {
		case tsberrors.ErrCodeInterpreterMissing, tsberrors.ErrCodeSubprocessTimeout, tsberrors.ErrCodeSubprocessFailed:
			return nil, RunDifferentialTestOutput{Error: userMessage(err), Status: statusFailed}, nil
		}
		return nil, RunDifferentialTestOutput{}, MapError(err)
	}
	return nil, RunDifferentialTestOutput{Report: report}, nil
}

// SuggestTestingStrategyInput defines the input schema for the
// suggest_testing_strategy tool.
type SuggestTestingStrategyInput struct {
	TypeExpression string `json:"typeExpression" jsonschema:"the Python type expression the migrated value has"`
}

// SuggestTestingStrategyOutput defines the output schema for the
// suggest_testing_strategy tool.
type SuggestTestingStrategyOutput struct {
	MigrationComplexity typemap.Complexity   `json:"migrationComplexity,omitempty" jsonschema:"the complexity classification driving the recommendations"`
	TestingApproach     []string             `json:"testingApproach,omitempty" jsonschema:"type-specific testing steps"`
	Strategies          []knowledge.Strategy `json:"strategies,omitempty" jsonschema:"full strategy descriptions from the knowledge base"`

	Error  string `json:"error,omitempty" jsonschema:"error message when the type could not be analyzed"`
	Status string `json:"status,omitempty" jsonschema:"set to failed when analysis did not succeed"`
}

func (s *Server) handleSuggestTestingStrategy(ctx context.Context, _ *mcp.CallToolRequest, input SuggestTestingStrategyInput) (
	*mcp.CallToolResult,
	SuggestTestingStrategyOutput,
	error,
) {
	result, err := s.analyzer.Analyze(input.TypeExpression)
	if err != nil {
		if tsberrors.IsRecoverable(err) || tsberrors.GetCode(err) == tsberrors.ErrCodeInputTooLong {
			return nil, SuggestTestingStrategyOutput{Error: userMessage(err), Status: statusFailed}, nil
		}
		return nil, SuggestTestingStrategyOutput{}, MapError(err)
	}

	return nil, SuggestTestingStrategyOutput{
		MigrationComplexity: result.MigrationComplexity,
		TestingApproach:     result.TestingApproach,
		Strategies:          s.selectStrategies(result),
	}, nil
}

// selectStrategies picks knowledge-base strategies matching the
// analyzed type: differential testing and test porting always apply,
// the rest switch on the type's structure and confidence.
func (s *Server) selectStrategies(result *typemap.Result) []knowledge.Strategy {
	wanted := map[string]bool{
		"differential":    true,
		"port-unit-tests": true,
	}
	if result.PythonType.IsUnion() {
		wanted["property-based"] = true
	}
	if result.PythonType.IsOptional() {
		wanted["nullability-matrix"] = true
	}
	result.PythonType.Walk(func(e *typemap.Expr) {
		if e.Module == "" && e.Name == "int" {
			wanted["boundary-values"] = true
		}
	})
	if result.TypeScriptMapping.Confidence == typemap.ConfidenceLow {
		wanted["runtime-validation"] = true
	}
	switch result.MigrationComplexity {
	case typemap.ComplexityComplex, typemap.ComplexityRequiresRedesign:
		wanted["runtime-validation"] = true
		wanted["type-level"] = true
	}

	var out []knowledge.Strategy
	for _, st := range s.store.Strategies() {
		if wanted[st.ID] {
			out = append(out, st)
		}
	}
	return out
}

// registerTools wires every tool into the MCP server.
func (s *Server) registerTools() {
	tools := s.ListTools()
	byName := make(map[string]string, len(tools))
	for _, t := range tools {
		byName[t.Name] = t.Description
	}

	mcp.AddTool(s.mcp, &mcp.Tool{
		Name:        "analyze_type",
		Description: byName["analyze_type"],
	}, s.handleAnalyzeType)

	mcp.AddTool(s.mcp, &mcp.Tool{
		Name:        "lookup_library",
		Description: byName["lookup_library"],
	}, s.handleLookupLibrary)

	mcp.AddTool(s.mcp, &mcp.Tool{
		Name:        "search_knowledge",
		Description: byName["search_knowledge"],
	}, s.handleSearchKnowledge)

	mcp.AddTool(s.mcp, &mcp.Tool{
		Name:        "analyze_code_structure",
		Description: byName["analyze_code_structure"],
	}, s.handleAnalyzeCodeStructure)

	mcp.AddTool(s.mcp, &mcp.Tool{
		Name:        "run_differential_test",
		Description: byName["run_differential_test"],
	}, s.handleRunDifferentialTest)

	mcp.AddTool(s.mcp, &mcp.Tool{
		Name:        "suggest_testing_strategy",
		Description: byName["suggest_testing_strategy"],
	}, s.handleSuggestTestingStrategy)

	s.logger.Info("MCP tools registered", slog.Int("count", len(tools)))
}

// userMessage renders an error for the structured failure payload,
// including the suggestion when the error carries one.
func userMessage(err error) string {
	var tsbErr *tsberrors.TSBError
	if errors.As(err, &tsbErr) {
		msg := tsbErr.Message
		if tsbErr.Suggestion != "" {
			msg += ". " + tsbErr.Suggestion
		}
		return msg
	}
	return err.Error()
}

func truncateForLog(s string) string {
	if len(s) <= 120 {
		return s
	}
	return s[:120] + "..."
}

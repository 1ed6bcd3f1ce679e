package mcp

import (
	"context"
	"encoding/json"
	"os/exec"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tsbridge/tsbridge/internal/difftest"
	"github.com/tsbridge/tsbridge/internal/typemap"
)

func difftestWithMissingPython() *difftest.Runner {
	return difftest.New(difftest.Options{PythonBin: "tsbridge-no-such-python"})
}

func TestHandleAnalyzeType_Success(t *testing.T) {
	s := newTestServer(t)

	_, out, err := s.handleAnalyzeType(context.Background(), nil, AnalyzeTypeInput{
		TypeExpression: "dict[str, list[int]]",
	})
	require.NoError(t, err)
	assert.Empty(t, out.Status)
	require.NotNil(t, out.TypeScriptMapping)
	assert.Equal(t, "Record<string, number[]>", out.TypeScriptMapping.Name)
	assert.Equal(t, typemap.ComplexityTrivial, out.MigrationComplexity)
	assert.NotEmpty(t, out.TestingApproach)
}

func TestHandleAnalyzeType_MalformedInputIsStructuredFailure(t *testing.T) {
	s := newTestServer(t)

	tests := []struct {
		name  string
		input string
	}{
		{"unbalanced brackets", "Foo[Bar"},
		{"empty generic args", "list[]"},
		{"empty expression", "   "},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, out, err := s.handleAnalyzeType(context.Background(), nil, AnalyzeTypeInput{
				TypeExpression: tt.input,
			})
			require.NoError(t, err, "malformed input must not become a protocol error")
			assert.Equal(t, "failed", out.Status)
			assert.NotEmpty(t, out.Error)
			assert.Nil(t, out.PythonType)
		})
	}
}

func TestHandleAnalyzeType_ContextIsAdvisoryOnly(t *testing.T) {
	s := newTestServer(t)

	_, withCtx, err := s.handleAnalyzeType(context.Background(), nil, AnalyzeTypeInput{
		TypeExpression: "int",
		Context:        "loop counter in a parser hot path",
	})
	require.NoError(t, err)
	_, without, err := s.handleAnalyzeType(context.Background(), nil, AnalyzeTypeInput{
		TypeExpression: "int",
	})
	require.NoError(t, err)
	assert.Equal(t, without.TypeScriptMapping, withCtx.TypeScriptMapping)
}

func TestHandleLookupLibrary(t *testing.T) {
	s := newTestServer(t)

	_, out, err := s.handleLookupLibrary(context.Background(), nil, LookupLibraryInput{Package: "requests"})
	require.NoError(t, err)
	assert.True(t, out.Found)
	require.NotNil(t, out.Package)
	assert.Contains(t, out.Package.TSEquivalents, "axios")
}

func TestHandleLookupLibrary_UnknownPackage(t *testing.T) {
	s := newTestServer(t)

	_, out, err := s.handleLookupLibrary(context.Background(), nil, LookupLibraryInput{Package: "left-padder"})
	require.NoError(t, err)
	assert.False(t, out.Found)
	assert.Nil(t, out.Package)
	assert.NotEmpty(t, out.Suggestions)
}

func TestHandleLookupLibrary_EmptyName(t *testing.T) {
	s := newTestServer(t)

	_, _, err := s.handleLookupLibrary(context.Background(), nil, LookupLibraryInput{})
	require.Error(t, err)

	var mcpErr *MCPError
	require.ErrorAs(t, err, &mcpErr)
	assert.Equal(t, ErrCodeInvalidParams, mcpErr.Code)
}

func TestHandleSearchKnowledge(t *testing.T) {
	s := newTestServer(t)

	_, out, err := s.handleSearchKnowledge(context.Background(), nil, SearchKnowledgeInput{
		Query: "floor division",
	})
	require.NoError(t, err)
	require.NotEmpty(t, out.Results)
	assert.Equal(t, "idiom:integer-division", out.Results[0].ID)
}

func TestHandleSearchKnowledge_EmptyQuery(t *testing.T) {
	s := newTestServer(t)

	_, _, err := s.handleSearchKnowledge(context.Background(), nil, SearchKnowledgeInput{Query: " "})
	require.Error(t, err)
}

func TestHandleAnalyzeCodeStructure(t *testing.T) {
	s := newTestServer(t)

	_, out, err := s.handleAnalyzeCodeStructure(context.Background(), nil, AnalyzeCodeStructureInput{
		Source: "class C(A, B):\n    def run(self):\n        return eval(self.expr)\n",
	})
	require.NoError(t, err)
	assert.Empty(t, out.Status)
	require.NotNil(t, out.Metrics)
	assert.Equal(t, 1, out.Metrics.Classes)
	assert.Contains(t, out.Metrics.DynamicFeatures, "eval")
	assert.Contains(t, out.Metrics.DynamicFeatures, "multiple_inheritance")
}

func TestHandleAnalyzeCodeStructure_EmptySource(t *testing.T) {
	s := newTestServer(t)

	_, out, err := s.handleAnalyzeCodeStructure(context.Background(), nil, AnalyzeCodeStructureInput{})
	require.NoError(t, err)
	assert.Equal(t, "failed", out.Status)
	assert.NotEmpty(t, out.Error)
}

func TestHandleRunDifferentialTest(t *testing.T) {
	for _, bin := range []string{"python3", "node"} {
		if _, err := exec.LookPath(bin); err != nil {
			t.Skipf("%s not available", bin)
		}
	}
	s := newTestServer(t)

	_, out, err := s.handleRunDifferentialTest(context.Background(), nil, RunDifferentialTestInput{
		PythonCode:     "def double(x):\n    return x * 2\n",
		TypeScriptCode: "export function double(x) { return x * 2; }\n",
		FunctionName:   "double",
		TestCases:      []json.RawMessage{json.RawMessage(`[3]`), json.RawMessage(`[0]`)},
	})
	require.NoError(t, err)
	assert.Empty(t, out.Status)
	require.NotNil(t, out.Report)
	assert.True(t, out.Report.AllMatch)
}

func TestHandleRunDifferentialTest_NoRunnerConfigured(t *testing.T) {
	s := newTestServer(t)
	s.diff = nil

	_, _, err := s.handleRunDifferentialTest(context.Background(), nil, RunDifferentialTestInput{})
	require.Error(t, err)

	var mcpErr *MCPError
	require.ErrorAs(t, err, &mcpErr)
	assert.Equal(t, ErrCodeInternalError, mcpErr.Code)
}

func TestHandleRunDifferentialTest_MissingInterpreterIsStructuredFailure(t *testing.T) {
	s := newTestServer(t)
	s.diff = difftestWithMissingPython()

	_, out, err := s.handleRunDifferentialTest(context.Background(), nil, RunDifferentialTestInput{
		PythonCode:     "def f():\n    return 1\n",
		TypeScriptCode: "export function f() { return 1; }\n",
		FunctionName:   "f",
		TestCases:      []json.RawMessage{json.RawMessage(`[]`)},
	})
	require.NoError(t, err, "missing interpreter is environmental, not a protocol error")
	assert.Equal(t, "failed", out.Status)
	assert.NotEmpty(t, out.Error)
}

func TestHandleSuggestTestingStrategy(t *testing.T) {
	s := newTestServer(t)

	_, out, err := s.handleSuggestTestingStrategy(context.Background(), nil, SuggestTestingStrategyInput{
		TypeExpression: "Optional[int]",
	})
	require.NoError(t, err)
	assert.Empty(t, out.Status)

	ids := make(map[string]bool)
	for _, st := range out.Strategies {
		ids[st.ID] = true
	}
	assert.True(t, ids["differential"], "differential testing always applies")
	assert.True(t, ids["nullability-matrix"], "optional types need the nullability matrix")
	assert.True(t, ids["boundary-values"], "int types need boundary coverage")
}

func TestHandleSuggestTestingStrategy_EscapeHatch(t *testing.T) {
	s := newTestServer(t)

	_, out, err := s.handleSuggestTestingStrategy(context.Background(), nil, SuggestTestingStrategyInput{
		TypeExpression: "Any",
	})
	require.NoError(t, err)

	ids := make(map[string]bool)
	for _, st := range out.Strategies {
		ids[st.ID] = true
	}
	assert.True(t, ids["runtime-validation"], "Any needs runtime validation at the boundary")
}

func TestMapError_Codes(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"nil error", nil, 0},
		{"plain error", assert.AnError, ErrCodeInternalError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := MapError(tt.err)
			if tt.err == nil {
				assert.Nil(t, got)
				return
			}
			assert.Equal(t, tt.want, got.Code)
		})
	}
}

package typemap

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	tsberrors "github.com/tsbridge/tsbridge/internal/errors"
)

func newTestAnalyzer() *Analyzer {
	return New(newStaticTable(), Options{})
}

func TestAnalyze_IntIsTrivial(t *testing.T) {
	a := newTestAnalyzer()

	res, err := a.Analyze("int")
	require.NoError(t, err)

	assert.Equal(t, "number", res.TypeScriptMapping.Name)
	assert.Equal(t, ConfidenceHigh, res.TypeScriptMapping.Confidence)
	assert.Equal(t, ComplexityTrivial, res.MigrationComplexity)
}

func TestAnalyze_OptionalStr(t *testing.T) {
	a := newTestAnalyzer()

	res, err := a.Analyze("Optional[str]")
	require.NoError(t, err)

	assert.True(t, strings.HasSuffix(res.TypeScriptMapping.Name, "| undefined"),
		"expected a nullable form, got %s", res.TypeScriptMapping.Name)
	require.Len(t, res.TypeScriptMapping.Args, 1)
	assert.Equal(t, "string", res.TypeScriptMapping.Args[0].Name)
	assert.LessOrEqual(t, res.MigrationComplexity.rank(), ComplexitySimple.rank())
}

func TestAnalyze_ThreeWayUnion(t *testing.T) {
	a := newTestAnalyzer()

	res, err := a.Analyze("str | int | None")
	require.NoError(t, err)

	require.Len(t, res.PythonType.Args, 3)
	assert.Equal(t, "string | number | null", res.TypeScriptMapping.Name)
	// 3 alternatives does not exceed the threshold of 3.
	assert.NotEqual(t, ComplexityModerate, res.MigrationComplexity)
	assert.LessOrEqual(t, res.MigrationComplexity.rank(), ComplexitySimple.rank())
}

func TestAnalyze_NestedDict(t *testing.T) {
	a := newTestAnalyzer()

	res, err := a.Analyze("dict[str, list[int]]")
	require.NoError(t, err)

	assert.Equal(t, "dict", res.PythonType.Name)
	require.Len(t, res.PythonType.Args, 2)
	assert.True(t, res.PythonType.Args[1].IsGeneric())
	assert.Equal(t, "Record<string, number[]>", res.TypeScriptMapping.Name)
}

func TestAnalyze_AnyRequiresRedesign(t *testing.T) {
	a := newTestAnalyzer()

	res, err := a.Analyze("Any")
	require.NoError(t, err)

	assert.Equal(t, ConfidenceLow, res.TypeScriptMapping.Confidence)
	assert.Equal(t, ComplexityRequiresRedesign, res.MigrationComplexity)
}

func TestAnalyze_UnbalancedBracketIsStructuredError(t *testing.T) {
	a := newTestAnalyzer()

	_, err := a.Analyze("Foo[Bar")
	require.Error(t, err)

	var te *tsberrors.TSBError
	require.ErrorAs(t, err, &te)
	assert.Equal(t, tsberrors.ErrCodeTypeParseFailed, te.Code)
	assert.True(t, te.Recoverable)
	assert.NotEmpty(t, te.Message)
}

func TestAnalyze_EmptyInput(t *testing.T) {
	a := newTestAnalyzer()

	_, err := a.Analyze("   ")
	require.Error(t, err)
	assert.Equal(t, tsberrors.ErrCodeEmptyInput, tsberrors.GetCode(err))
}

func TestAnalyze_InputTooLong(t *testing.T) {
	a := New(newStaticTable(), Options{MaxExpressionLength: 16})

	_, err := a.Analyze("dict[str, dict[str, dict[str, int]]]")
	require.Error(t, err)
	assert.Equal(t, tsberrors.ErrCodeInputTooLong, tsberrors.GetCode(err))
}

func TestAnalyze_Idempotent(t *testing.T) {
	a := newTestAnalyzer()

	first, err := a.Analyze("dict[str, list[int | None]]")
	require.NoError(t, err)
	second, err := a.Analyze("dict[str, list[int | None]]")
	require.NoError(t, err)

	fj, err := json.Marshal(first)
	require.NoError(t, err)
	sj, err := json.Marshal(second)
	require.NoError(t, err)
	assert.JSONEq(t, string(fj), string(sj))
}

func TestAnalyze_ResultJSONShape(t *testing.T) {
	a := newTestAnalyzer()

	res, err := a.Analyze("Optional[int]")
	require.NoError(t, err)

	data, err := json.Marshal(res)
	require.NoError(t, err)

	var parsed map[string]any
	require.NoError(t, json.Unmarshal(data, &parsed))

	for _, field := range []string{
		"pythonType", "typeScriptMapping", "conversionNotes",
		"runtimeConsiderations", "testingApproach", "migrationComplexity",
	} {
		assert.Contains(t, parsed, field)
	}

	pt := parsed["pythonType"].(map[string]any)
	assert.Equal(t, true, pt["isOptional"])
	assert.Equal(t, false, pt["isGeneric"])
}

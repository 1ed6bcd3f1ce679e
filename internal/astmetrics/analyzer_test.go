package astmetrics

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	tsberrors "github.com/tsbridge/tsbridge/internal/errors"
)

func newTestAnalyzer(t *testing.T, opts Options) *Analyzer {
	t.Helper()
	a, err := New(opts)
	require.NoError(t, err)
	t.Cleanup(a.Close)
	return a
}

func analyze(t *testing.T, a *Analyzer, source string) *Metrics {
	t.Helper()
	m, err := a.Analyze(context.Background(), []byte(source))
	require.NoError(t, err)
	return m
}

func TestAnalyze_CountsDefinitions(t *testing.T) {
	a := newTestAnalyzer(t, Options{})
	m := analyze(t, a, `
def add(a, b):
    return a + b

async def fetch(url):
    return await get(url)

class Point:
    def __init__(self, x, y):
        self.x = x
        self.y = y
`)

	assert.Equal(t, 3, m.Functions, "includes methods")
	assert.Equal(t, 1, m.AsyncFunctions)
	assert.Equal(t, 1, m.Classes)
	assert.False(t, m.HasSyntaxErrors)
	assert.Empty(t, m.DynamicFeatures)
}

func TestAnalyze_CyclomaticComplexity(t *testing.T) {
	a := newTestAnalyzer(t, Options{})

	tests := []struct {
		name   string
		source string
		want   int
	}{
		{
			"straight line",
			"def f():\n    return 1\n",
			1,
		},
		{
			"single branch",
			"def f(x):\n    if x:\n        return 1\n    return 2\n",
			2,
		},
		{
			"boolean operator adds a path",
			"def f(x, y):\n    if x and y:\n        return 1\n    return 2\n",
			3,
		},
		{
			"elif and loop",
			"def f(xs):\n    for x in xs:\n        if x > 0:\n            pass\n        elif x < 0:\n            pass\n",
			4,
		},
		{
			"except clause",
			"def f():\n    try:\n        g()\n    except ValueError:\n        pass\n",
			2,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := analyze(t, a, tt.source)
			assert.Equal(t, tt.want, m.CyclomaticComplexity)
		})
	}
}

func TestAnalyze_NestingDepth(t *testing.T) {
	a := newTestAnalyzer(t, Options{})
	m := analyze(t, a, `
def f(xs):
    for x in xs:
        if x:
            while x:
                x -= 1
`)
	// function -> for -> if -> while
	assert.Equal(t, 4, m.MaxNestingDepth)
}

func TestAnalyze_DynamicFeatures(t *testing.T) {
	a := newTestAnalyzer(t, Options{})

	tests := []struct {
		name    string
		source  string
		feature string
	}{
		{"eval call", "x = eval(expr)\n", "eval"},
		{"getattr call", "v = getattr(obj, name)\n", "getattr"},
		{"dunder import", "m = __import__(name)\n", "__import__"},
		{
			"metaclass keyword",
			"class Meta(type):\n    pass\n\nclass Thing(metaclass=Meta):\n    pass\n",
			"metaclass",
		},
		{
			"multiple inheritance",
			"class C(A, B):\n    pass\n",
			"multiple_inheritance",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := analyze(t, a, tt.source)
			assert.Contains(t, m.DynamicFeatures, tt.feature)
			assert.NotEmpty(t, m.RiskNotes)
		})
	}
}

func TestAnalyze_MethodCallIsNotDynamic(t *testing.T) {
	a := newTestAnalyzer(t, Options{})
	// obj.eval() is a method call, not the builtin
	m := analyze(t, a, "result = calculator.eval(expr)\n")
	assert.NotContains(t, m.DynamicFeatures, "eval")
}

func TestAnalyze_Decorators(t *testing.T) {
	a := newTestAnalyzer(t, Options{})
	m := analyze(t, a, `
@lru_cache
@trace
def f():
    pass
`)
	assert.Equal(t, 2, m.Decorators)
	assert.Contains(t, m.DynamicFeatures, "decorators")

	found := false
	for _, n := range m.RiskNotes {
		if strings.Contains(n, "higher-order") {
			found = true
		}
	}
	assert.True(t, found, "decorator note expected in %v", m.RiskNotes)
}

func TestAnalyze_SyntaxErrorsFlagged(t *testing.T) {
	a := newTestAnalyzer(t, Options{})
	m := analyze(t, a, "def broken(:\n    pass\n")
	assert.True(t, m.HasSyntaxErrors)
	assert.Contains(t, strings.Join(m.RiskNotes, " "), "syntax errors")
}

func TestAnalyze_EmptySource(t *testing.T) {
	a := newTestAnalyzer(t, Options{})
	_, err := a.Analyze(context.Background(), []byte("  \n\t"))
	require.Error(t, err)
	assert.Equal(t, tsberrors.ErrCodeEmptyInput, tsberrors.GetCode(err))
}

func TestAnalyze_SourceTooLarge(t *testing.T) {
	a := newTestAnalyzer(t, Options{MaxSourceBytes: 10})
	_, err := a.Analyze(context.Background(), []byte("x = 1  # a comment past the limit\n"))
	require.Error(t, err)
	assert.Equal(t, tsberrors.ErrCodeInputTooLong, tsberrors.GetCode(err))
}

func TestAnalyze_CachesByContent(t *testing.T) {
	a := newTestAnalyzer(t, Options{})
	source := []byte("def f():\n    return 1\n")

	first, err := a.Analyze(context.Background(), source)
	require.NoError(t, err)
	second, err := a.Analyze(context.Background(), source)
	require.NoError(t, err)

	assert.Same(t, first, second, "identical source should hit the cache")

	other, err := a.Analyze(context.Background(), []byte("def g():\n    return 2\n"))
	require.NoError(t, err)
	assert.NotSame(t, first, other)
}

func TestAnalyze_LineCount(t *testing.T) {
	a := newTestAnalyzer(t, Options{})
	m := analyze(t, a, "x = 1\ny = 2\nz = 3")
	assert.Equal(t, 3, m.Lines)
}

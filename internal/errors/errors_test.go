package errors

import (
	stderrors "errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_DerivesCategoryFromCode(t *testing.T) {
	tests := []struct {
		name     string
		code     string
		category Category
	}{
		{"config code", ErrCodeConfigInvalid, CategoryConfig},
		{"data code", ErrCodeDataCorrupt, CategoryData},
		{"subprocess code", ErrCodeSubprocessTimeout, CategorySubprocess},
		{"validation code", ErrCodeTypeParseFailed, CategoryValidation},
		{"internal code", ErrCodeInternal, CategoryInternal},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := New(tt.code, "boom", nil)
			assert.Equal(t, tt.category, err.Category)
		})
	}
}

func TestNew_ParseFailureIsRecoverableWarning(t *testing.T) {
	// Parse failures are the soft-failure path: they must never abort the server.
	err := New(ErrCodeTypeParseFailed, "unbalanced brackets", nil)

	assert.True(t, err.Recoverable)
	assert.Equal(t, SeverityWarning, err.Severity)
	assert.True(t, IsRecoverable(err))
	assert.False(t, IsFatal(err))
}

func TestNew_DataCorruptIsFatal(t *testing.T) {
	err := New(ErrCodeDataCorrupt, "builtins.json truncated", nil)

	assert.Equal(t, SeverityFatal, err.Severity)
	assert.True(t, IsFatal(err))
}

func TestError_FormatsCodeAndMessage(t *testing.T) {
	err := New(ErrCodeInvalidInput, "type expression is required", nil)
	assert.Equal(t, "[ERR_401_INVALID_INPUT] type expression is required", err.Error())
}

func TestWrap_NilReturnsNil(t *testing.T) {
	assert.Nil(t, Wrap(ErrCodeInternal, nil))
}

func TestWrap_PreservesCause(t *testing.T) {
	cause := stderrors.New("underlying")
	err := Wrap(ErrCodeDataReload, cause)

	require.NotNil(t, err)
	assert.Equal(t, cause, err.Unwrap())
	assert.ErrorIs(t, err, cause)
}

func TestIs_MatchesByCode(t *testing.T) {
	a := New(ErrCodeTypeParseFailed, "first", nil)
	b := New(ErrCodeTypeParseFailed, "second", nil)
	c := New(ErrCodeInvalidInput, "other", nil)

	assert.True(t, stderrors.Is(a, b))
	assert.False(t, stderrors.Is(a, c))
}

func TestErrorChain_UnwrapsThroughWrapping(t *testing.T) {
	inner := New(ErrCodeTypeParseFailed, "unbalanced brackets", nil)
	outer := fmt.Errorf("analyze failed: %w", inner)

	var te *TSBError
	require.True(t, stderrors.As(outer, &te))
	assert.Equal(t, ErrCodeTypeParseFailed, te.Code)
}

func TestWithDetail_AccumulatesDetails(t *testing.T) {
	err := New(ErrCodeTypeParseFailed, "boom", nil).
		WithDetail("input", "Foo[Bar").
		WithDetail("position", "7")

	assert.Equal(t, "Foo[Bar", err.Details["input"])
	assert.Equal(t, "7", err.Details["position"])
}

func TestWithSuggestion_SetsSuggestion(t *testing.T) {
	err := New(ErrCodeInterpreterMissing, "python3 not found", nil).
		WithSuggestion("install python3 or set difftest.python_bin")

	assert.Contains(t, err.Suggestion, "python3")
}

func TestGetCode_NonTSBError(t *testing.T) {
	assert.Empty(t, GetCode(stderrors.New("plain")))
	assert.Equal(t, ErrCodeInternal, GetCode(New(ErrCodeInternal, "x", nil)))
}

func TestGetCategory_NonTSBError(t *testing.T) {
	assert.Empty(t, string(GetCategory(stderrors.New("plain"))))
}

package errors

import (
	stderrors "errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_DerivesCategoryAndSeverity(t *testing.T) {
	tests := []struct {
		code     string
		category Category
		severity Severity
	}{
		{ErrCodeConfigInvalid, CategoryConfig, SeverityError},
		{ErrCodeFileNotFound, CategoryIO, SeverityError},
		{ErrCodeCorruptIndex, CategoryIO, SeverityFatal},
		{ErrCodeRetrievalFailed, CategoryRetrieval, SeverityError},
		{ErrCodeTierUnavailable, CategoryRetrieval, SeverityWarning},
		{ErrCodeInvalidInput, CategoryValidation, SeverityError},
		{ErrCodeInternal, CategoryInternal, SeverityError},
	}
	for _, tt := range tests {
		t.Run(tt.code, func(t *testing.T) {
			err := New(tt.code, "boom", nil)
			assert.Equal(t, tt.category, err.Category)
			assert.Equal(t, tt.severity, err.Severity)
		})
	}
}

func TestError_Format(t *testing.T) {
	err := ConfigError("bad knob", nil)
	assert.Equal(t, "[ERR_102_CONFIG_INVALID] bad knob", err.Error())
}

func TestUnwrap(t *testing.T) {
	cause := stderrors.New("disk full")
	err := IOError("write index", cause)
	assert.ErrorIs(t, err, cause)
}

func TestIs_MatchesByCode(t *testing.T) {
	err := fmt.Errorf("wrapped: %w", RetrievalError("tier down", nil))
	assert.ErrorIs(t, err, New(ErrCodeRetrievalFailed, "anything", nil))
	assert.NotErrorIs(t, err, New(ErrCodeConfigInvalid, "anything", nil))
}

func TestWrap(t *testing.T) {
	cause := stderrors.New("underlying")
	err := Wrap(ErrCodeIndexFailed, cause)
	require.NotNil(t, err)
	assert.Equal(t, "underlying", err.Message)
	assert.ErrorIs(t, err, cause)

	assert.Nil(t, Wrap(ErrCodeIndexFailed, nil))
}

func TestWithDetail(t *testing.T) {
	err := ValidationError("bad input", nil).
		WithDetail("field", "query").
		WithDetail("value", "")
	assert.Equal(t, "query", err.Details["field"])
	assert.Contains(t, err.Details, "value")
}

func TestIsConfig(t *testing.T) {
	assert.True(t, IsConfig(ConfigError("bad", nil)))
	assert.False(t, IsConfig(InternalError("oops", nil)))
	assert.False(t, IsConfig(stderrors.New("plain")))
	assert.False(t, IsConfig(nil))
}

func TestGetCode(t *testing.T) {
	assert.Equal(t, ErrCodeInternal, GetCode(InternalError("oops", nil)))
	assert.Equal(t, "", GetCode(stderrors.New("plain")))
	assert.Equal(t, "", GetCode(nil))
}

func TestCategoryFromCode_ShortCode(t *testing.T) {
	assert.Equal(t, CategoryInternal, categoryFromCode("ERR"))
}

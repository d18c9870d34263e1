package lsperrors

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestWrappers_PreserveSentinelAndCause(t *testing.T) {
	cause := errors.New("boom")

	tests := []struct {
		name string
		err  error
		want error
	}{
		{"ParseError", ParseError("A.java", cause), ErrParse},
		{"IndexError", IndexError("find by fqn", cause), ErrIndex},
		{"DecompilationFailed", DecompilationFailed("com.acme.A", cause), ErrDecompilationFailed},
		{"ConfigurationError", ConfigurationError("db_path", cause), ErrConfiguration},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.ErrorIs(t, tt.err, tt.want)
			assert.ErrorIs(t, tt.err, cause)
		})
	}
}

func TestNotFound_WrapsSentinelWithoutCause(t *testing.T) {
	err := NotFound("com.acme.Missing")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.Contains(t, err.Error(), "com.acme.Missing")
}

func TestCancelled_WrapsSentinel(t *testing.T) {
	err := Cancelled("resolve")
	assert.ErrorIs(t, err, ErrCancelled)
	assert.Contains(t, err.Error(), "resolve")
}

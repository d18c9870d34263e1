// Package lsperrors defines the sentinel error kinds shared across the
// pipeline : components wrap one of these with fmt.Errorf("%s: %w",
// ...) at each layer boundary, and callers inspect the kind with errors.Is
// or errors.As rather than matching error strings.
package lsperrors

import (
	"errors"
	"fmt"
)

// Sentinel kinds. Wrap with fmt.Errorf("%s: %w", context, ErrX) at the
// point of failure; test for them with errors.Is.
var (
	// ErrParse indicates the grammar facade could not produce a usable CST,
	// or produced one containing ERROR nodes that block extraction.
	ErrParse = errors.New("parse error")

	// ErrIndex indicates a failure writing to or reading from the symbol
	// index (store).
	ErrIndex = errors.New("index error")

	// ErrNotFound indicates a query found no matching symbol, file, or
	// external symbol.
	ErrNotFound = errors.New("not found")

	// ErrDecompilationFailed indicates the configured decompiler could not
	// produce source for a class; callers should degrade to a bytecode-only
	// hover/definition response.
	ErrDecompilationFailed = errors.New("decompilation failed")

	// ErrCancelled indicates the operation's context was cancelled before
	// completion.
	ErrCancelled = errors.New("cancelled")

	// ErrConfiguration indicates a malformed or unusable configuration
	// value; callers should log and fall back to defaults rather than fail.
	ErrConfiguration = errors.New("configuration error")
)

// ParseError wraps ErrParse with the file and underlying detail.
func ParseError(file string, cause error) error {
	return fmt.Errorf("parse %s: %w: %w", file, cause, ErrParse)
}

// IndexError wraps ErrIndex with an operation label.
func IndexError(op string, cause error) error {
	return fmt.Errorf("index %s: %w: %w", op, cause, ErrIndex)
}

// NotFound reports that the named thing was not found in scope.
func NotFound(what string) error {
	return fmt.Errorf("%s: %w", what, ErrNotFound)
}

// DecompilationFailed wraps ErrDecompilationFailed for a given class FQN.
func DecompilationFailed(fqn string, cause error) error {
	return fmt.Errorf("decompile %s: %w: %w", fqn, cause, ErrDecompilationFailed)
}

// Cancelled wraps ErrCancelled for a given operation label.
func Cancelled(op string) error {
	return fmt.Errorf("%s: %w", op, ErrCancelled)
}

// ConfigurationError wraps ErrConfiguration for a given key.
func ConfigurationError(key string, cause error) error {
	return fmt.Errorf("configuration %q: %w: %w", key, cause, ErrConfiguration)
}

// Package errors provides standardized error types and helpers for the Rhymer codebase.
package errors

import (
	"errors"
	"fmt"
)

// Sentinel errors for common cases
var (
	// ErrExternalLookup indicates the rhyme provider was unreachable or returned an error
	ErrExternalLookup = errors.New("external lookup failure")
	// ErrInvalidConfiguration indicates neither scheme nor group labeling was requested
	ErrInvalidConfiguration = errors.New("invalid configuration")
	// ErrMalformedInput indicates an empty poem or a line without a trailing token
	ErrMalformedInput = errors.New("malformed input")
	// ErrNotFound indicates a resource was not found
	ErrNotFound = errors.New("not found")
	// ErrInvalidInput indicates invalid input or validation failure
	ErrInvalidInput = errors.New("invalid input")
)

// LookupError represents a failed external rhyme lookup for one word.
// It matches ErrExternalLookup with errors.Is and unwraps to the transport cause.
type LookupError struct {
	Word string // Normalized word that was being looked up
	Err  error  // Underlying transport or provider error
}

func (e *LookupError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("rhyme lookup failed for %q: %v", e.Word, e.Err)
	}
	return fmt.Sprintf("rhyme lookup failed for %q", e.Word)
}

func (e *LookupError) Unwrap() error {
	return e.Err
}

// Is reports whether target is ErrExternalLookup.
func (e *LookupError) Is(target error) bool {
	return target == ErrExternalLookup
}

// ConfigurationError represents an invalid labeling configuration
type ConfigurationError struct {
	Setting string // Setting name (e.g., "mode")
	Message string // Human-readable error message
}

func (e *ConfigurationError) Error() string {
	if e.Setting != "" {
		return fmt.Sprintf("invalid configuration for %s: %s", e.Setting, e.Message)
	}
	return fmt.Sprintf("invalid configuration: %s", e.Message)
}

func (e *ConfigurationError) Unwrap() error {
	return ErrInvalidConfiguration
}

// MalformedInputError represents a poem that cannot be labeled
type MalformedInputError struct {
	Line    int    // Line index, or -1 when the poem as a whole is malformed
	Message string // Human-readable error message
}

func (e *MalformedInputError) Error() string {
	if e.Line >= 0 {
		return fmt.Sprintf("malformed input at line %d: %s", e.Line, e.Message)
	}
	return fmt.Sprintf("malformed input: %s", e.Message)
}

func (e *MalformedInputError) Unwrap() error {
	return ErrMalformedInput
}

// NotFoundError represents a resource not found error with context
type NotFoundError struct {
	Resource string // Type of resource (e.g., "poem", "run")
	ID       string // Identifier of the resource
	Err      error  // Underlying error, if any
}

func (e *NotFoundError) Error() string {
	if e.ID != "" {
		return fmt.Sprintf("%s not found: %s", e.Resource, e.ID)
	}
	return fmt.Sprintf("%s not found", e.Resource)
}

func (e *NotFoundError) Unwrap() error {
	if e.Err != nil {
		return e.Err
	}
	return ErrNotFound
}

// IOError represents an I/O operation error with context
type IOError struct {
	Operation string // Operation being performed (e.g., "read", "write", "open")
	Path      string // File/resource path involved
	Err       error  // Underlying error
}

func (e *IOError) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("failed to %s %s: %v", e.Operation, e.Path, e.Err)
	}
	return fmt.Sprintf("failed to %s: %v", e.Operation, e.Err)
}

func (e *IOError) Unwrap() error {
	return e.Err
}

// ParseError represents a parsing or deserialization error
type ParseError struct {
	Format  string // Format being parsed (e.g., "TEI", "notation", "cache")
	Path    string // File path, if applicable
	Message string // Error details
	Err     error  // Underlying error, if any
}

func (e *ParseError) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("failed to parse %s at %s: %s", e.Format, e.Path, e.Message)
	}
	return fmt.Sprintf("failed to parse %s: %s", e.Format, e.Message)
}

func (e *ParseError) Unwrap() error {
	if e.Err != nil {
		return e.Err
	}
	return ErrInvalidInput
}

// Helper functions for creating common errors

// NewLookup creates a LookupError
func NewLookup(word string, err error) *LookupError {
	return &LookupError{
		Word: word,
		Err:  err,
	}
}

// NewConfiguration creates a ConfigurationError
func NewConfiguration(setting, message string) *ConfigurationError {
	return &ConfigurationError{
		Setting: setting,
		Message: message,
	}
}

// NewMalformed creates a MalformedInputError. Use line -1 for poem-level problems.
func NewMalformed(line int, message string) *MalformedInputError {
	return &MalformedInputError{
		Line:    line,
		Message: message,
	}
}

// NewNotFound creates a NotFoundError
func NewNotFound(resource, id string) *NotFoundError {
	return &NotFoundError{
		Resource: resource,
		ID:       id,
	}
}

// NewIO creates an IOError
func NewIO(operation, path string, err error) *IOError {
	return &IOError{
		Operation: operation,
		Path:      path,
		Err:       err,
	}
}

// NewParse creates a ParseError
func NewParse(format, path, message string) *ParseError {
	return &ParseError{
		Format:  format,
		Path:    path,
		Message: message,
	}
}

// Wrap adds context to an error. If err is nil, returns nil.
func Wrap(err error, message string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", message, err)
}

// Wrapf adds formatted context to an error. If err is nil, returns nil.
func Wrapf(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	message := fmt.Sprintf(format, args...)
	return fmt.Errorf("%s: %w", message, err)
}

// Is wraps errors.Is for convenience
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As wraps errors.As for convenience
func As(err error, target interface{}) bool {
	return errors.As(err, target)
}

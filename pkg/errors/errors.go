// Package errors provides custom error types for the strix merge engine.
// These errors let callers tell apart invalid usage, capability gates and
// unfinished dispatch seams, while provider failures pass through untouched.
package errors

import (
	"errors"
	"fmt"
)

// New returns an error that formats as the given text.
// It's an alias for the standard library errors.New for convenience.
var New = errors.New

// Join, Is and As are the standard library helpers, re-exported so callers
// need a single errors import.
var (
	Join = errors.Join
	Is   = errors.Is
	As   = errors.As
)

// Common sentinel errors for the strix system
var (
	// ErrNotFound indicates that a requested resource was not found
	ErrNotFound = errors.New("not found")

	// ErrAlreadyExists indicates that a resource already exists
	ErrAlreadyExists = errors.New("already exists")

	// ErrInvalidInput indicates invalid usage: a nil or empty required
	// argument, merging a non-equal item, or an index out of range.
	ErrInvalidInput = errors.New("invalid input")

	// ErrNotSupported indicates an operation that is never available on the
	// receiver. Callers should treat it as a capability gate, not a fault.
	ErrNotSupported = errors.New("not supported")

	// ErrNotImplemented indicates a dispatch seam that has not been extended
	// for the given kind yet.
	ErrNotImplemented = errors.New("not implemented")

	// ErrDisposed indicates use of an entity after it was disposed
	ErrDisposed = errors.New("disposed")
)

// NotFoundError represents an error when a resource is not found
type NotFoundError struct {
	Resource string
	ID       string
}

// Error implements the error interface
func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s with ID %s not found", e.Resource, e.ID)
}

// Is implements errors.Is support
func (e *NotFoundError) Is(target error) bool {
	return target == ErrNotFound
}

// NewNotFoundError creates a new NotFoundError
func NewNotFoundError(resource, id string) *NotFoundError {
	return &NotFoundError{Resource: resource, ID: id}
}

// AlreadyExistsError represents an attempt to add a resource twice
type AlreadyExistsError struct {
	Resource string
	ID       string
}

// Error implements the error interface
func (e *AlreadyExistsError) Error() string {
	return fmt.Sprintf("%s with ID %s already exists", e.Resource, e.ID)
}

// Is implements errors.Is support
func (e *AlreadyExistsError) Is(target error) bool {
	return target == ErrAlreadyExists
}

// NewAlreadyExistsError creates a new AlreadyExistsError
func NewAlreadyExistsError(resource, id string) *AlreadyExistsError {
	return &AlreadyExistsError{Resource: resource, ID: id}
}

// ValidationError represents a precondition violation
type ValidationError struct {
	Field   string
	Value   interface{}
	Message string
}

// Error implements the error interface
func (e *ValidationError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("validation failed for field %s: %s", e.Field, e.Message)
	}
	return fmt.Sprintf("validation failed: %s", e.Message)
}

// Is implements errors.Is support
func (e *ValidationError) Is(target error) bool {
	return target == ErrInvalidInput
}

// NewValidationError creates a new ValidationError
func NewValidationError(field string, value interface{}, message string) *ValidationError {
	return &ValidationError{Field: field, Value: value, Message: message}
}

// NotSupportedError reports an operation the receiver never allows
type NotSupportedError struct {
	Operation string
	Kind      string
}

// Error implements the error interface
func (e *NotSupportedError) Error() string {
	if e.Kind != "" {
		return fmt.Sprintf("%s is not supported on %s", e.Operation, e.Kind)
	}
	return fmt.Sprintf("%s is not supported", e.Operation)
}

// Is implements errors.Is support
func (e *NotSupportedError) Is(target error) bool {
	return target == ErrNotSupported
}

// NewNotSupportedError creates a new NotSupportedError
func NewNotSupportedError(operation, kind string) *NotSupportedError {
	return &NotSupportedError{Operation: operation, Kind: kind}
}

// NotImplementedError reports a kind the dispatch tables do not handle yet
type NotImplementedError struct {
	Feature string
	Kind    string
}

// Error implements the error interface
func (e *NotImplementedError) Error() string {
	if e.Kind != "" {
		return fmt.Sprintf("%s not implemented for kind %s", e.Feature, e.Kind)
	}
	return fmt.Sprintf("%s not implemented", e.Feature)
}

// Is implements errors.Is support
func (e *NotImplementedError) Is(target error) bool {
	return target == ErrNotImplemented
}

// NewNotImplementedError creates a new NotImplementedError
func NewNotImplementedError(feature, kind string) *NotImplementedError {
	return &NotImplementedError{Feature: feature, Kind: kind}
}

// MergeError represents an attempt to fold an item into a merged entity it
// is not equal to. It counts as invalid usage.
type MergeError struct {
	Kind      string
	Target    string
	Candidate string
	Err       error
}

// Error implements the error interface
func (e *MergeError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("cannot merge %s %q into %q: %v", e.Kind, e.Candidate, e.Target, e.Err)
	}
	return fmt.Sprintf("cannot merge %s %q into %q: items are not equal", e.Kind, e.Candidate, e.Target)
}

// Unwrap implements errors.Unwrap
func (e *MergeError) Unwrap() error {
	return e.Err
}

// Is implements errors.Is support
func (e *MergeError) Is(target error) bool {
	return target == ErrInvalidInput
}

// NewMergeError creates a new MergeError
func NewMergeError(kind, target, candidate string, err error) *MergeError {
	return &MergeError{
		Kind:      kind,
		Target:    target,
		Candidate: candidate,
		Err:       err,
	}
}

// ConfigError represents a configuration error
type ConfigError struct {
	Component string
	Message   string
	Err       error
}

// Error implements the error interface
func (e *ConfigError) Error() string {
	if e.Component != "" {
		return fmt.Sprintf("configuration error in %s: %s", e.Component, e.Message)
	}
	return fmt.Sprintf("configuration error: %s", e.Message)
}

// Unwrap implements errors.Unwrap
func (e *ConfigError) Unwrap() error {
	return e.Err
}

// NewConfigError creates a new ConfigError
func NewConfigError(component, message string, err error) *ConfigError {
	return &ConfigError{
		Component: component,
		Message:   message,
		Err:       err,
	}
}

// ParseError represents an error when parsing fixture data
type ParseError struct {
	Format  string // "json", "yaml"
	File    string
	Message string
	Err     error
}

// Error implements the error interface
func (e *ParseError) Error() string {
	if e.File != "" {
		return fmt.Sprintf("parse error in %s file %s: %s", e.Format, e.File, e.Message)
	}
	return fmt.Sprintf("%s parse error: %s", e.Format, e.Message)
}

// Unwrap implements errors.Unwrap
func (e *ParseError) Unwrap() error {
	return e.Err
}

// NewParseError creates a new ParseError
func NewParseError(format, file string, message string, err error) *ParseError {
	return &ParseError{
		Format:  format,
		File:    file,
		Message: message,
		Err:     err,
	}
}

// ResourceError represents an error during resource operations
type ResourceError struct {
	Operation string // "init", "dispose", "add", "remove", "load"
	Resource  string // "core", "collection", "fixture"
	ID        string
	Message   string
	Err       error
}

// Error implements the error interface
func (e *ResourceError) Error() string {
	if e.ID != "" {
		return fmt.Sprintf("failed to %s %s %s: %s", e.Operation, e.Resource, e.ID, e.Message)
	}
	return fmt.Sprintf("failed to %s %s: %s", e.Operation, e.Resource, e.Message)
}

// Unwrap implements errors.Unwrap
func (e *ResourceError) Unwrap() error {
	return e.Err
}

// NewResourceError creates a new ResourceError
func NewResourceError(operation, resource, id string, err error) *ResourceError {
	message := ""
	if err != nil {
		message = err.Error()
	}
	return &ResourceError{
		Operation: operation,
		Resource:  resource,
		ID:        id,
		Message:   message,
		Err:       err,
	}
}

// Helper functions for error checking

// IsNotFound checks if an error is a not found error
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsAlreadyExists checks if an error is an already exists error
func IsAlreadyExists(err error) bool {
	return errors.Is(err, ErrAlreadyExists)
}

// IsValidationError checks if an error is an invalid usage error
func IsValidationError(err error) bool {
	return errors.Is(err, ErrInvalidInput)
}

// IsNotSupported checks if an error is a capability gate
func IsNotSupported(err error) bool {
	return errors.Is(err, ErrNotSupported)
}

// IsNotImplemented checks if an error comes from an unextended dispatch seam
func IsNotImplemented(err error) bool {
	return errors.Is(err, ErrNotImplemented)
}

// IsDisposed checks if an error reports use after disposal
func IsDisposed(err error) bool {
	return errors.Is(err, ErrDisposed)
}

// Helper wrapping functions for common patterns

// WrapResource wraps an error as a ResourceError
func WrapResource(operation, resource, id string, err error) error {
	if err == nil {
		return nil
	}
	return NewResourceError(operation, resource, id, err)
}

// WrapParse wraps an error as a ParseError
func WrapParse(format, file string, err error) error {
	if err == nil {
		return nil
	}
	return NewParseError(format, file, err.Error(), err)
}

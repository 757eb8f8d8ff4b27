package domain

import (
	"errors"
	"fmt"
)

// Base error types (sentinel errors).
var (
	ErrNotFound     = errors.New("not found")
	ErrInvalidInput = errors.New("invalid input")
	ErrUnsupported  = errors.New("unsupported operation")
	ErrInternal     = errors.New("internal error")
	ErrUnavailable  = errors.New("service unavailable")
)

// Specific errors.
var (
	ErrNoGeometries       = fmt.Errorf("geometry collection is empty: %w", ErrInvalidInput)
	ErrLayerNotFound      = fmt.Errorf("layer: %w", ErrNotFound)
	ErrLabelFieldNotFound = fmt.Errorf("label field: %w", ErrNotFound)
	ErrRunAborted         = fmt.Errorf("extraction run aborted: %w", ErrInternal)
	ErrStorageUnavailable = fmt.Errorf("storage: %w", ErrUnavailable)
	ErrReadOnlyStorage    = fmt.Errorf("storage is read-only: %w", ErrUnsupported)
)

// ValidationError represents a detailed validation error.
type ValidationError struct {
	Field      string      // Field that failed validation
	Value      interface{} // The invalid value
	Constraint string      // The constraint that was violated
	Message    string      // Human-readable message
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation error for %s: %s (value: %v, constraint: %s)",
		e.Field, e.Message, e.Value, e.Constraint)
}

// Unwrap returns the underlying error type.
func (e *ValidationError) Unwrap() error {
	return ErrInvalidInput
}

// ConfigError represents invalid caller input detected before any
// extraction work starts.
type ConfigError struct {
	Field   string // Configuration field
	Message string // Error message
}

// Error implements the error interface.
func (e *ConfigError) Error() string {
	return fmt.Sprintf("configuration error for %s: %s", e.Field, e.Message)
}

// Unwrap returns the underlying error type.
func (e *ConfigError) Unwrap() error {
	return ErrInvalidInput
}

// ReadError represents a recoverable per-geometry read failure: a raster
// fetch error or an extracted grid exceeding the invalid-value threshold.
// Read errors are retried and, after retries are exhausted, counted and
// dropped; they never propagate to the caller.
type ReadError struct {
	GeometryIndex int     // Index of the geometry in the input collection
	Attempt       int     // 1-based attempt number
	NullFraction  float64 // Invalid-value fraction, when that triggered the failure
	Err           error   // Underlying error, when an I/O failure triggered it
}

// Error implements the error interface.
func (e *ReadError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("read failure for geometry %d (attempt %d): %v",
			e.GeometryIndex, e.Attempt, e.Err)
	}
	return fmt.Sprintf("read failure for geometry %d (attempt %d): invalid-value fraction %.3f over threshold",
		e.GeometryIndex, e.Attempt, e.NullFraction)
}

// Unwrap returns the underlying error.
func (e *ReadError) Unwrap() error {
	return e.Err
}

// ContractError represents a structural violation of the feature-source
// output contract: a retained time dimension, mismatched band sizes, or a
// band set inconsistent with the run manifest. It is fatal to the whole
// run since it would desynchronize the shared column manifest.
type ContractError struct {
	GeometryIndex int    // Geometry whose extraction exposed the violation
	Band          string // Offending band, when applicable
	Message       string
}

// Error implements the error interface.
func (e *ContractError) Error() string {
	if e.Band != "" {
		return fmt.Sprintf("feature source contract violation for geometry %d, band %s: %s",
			e.GeometryIndex, e.Band, e.Message)
	}
	return fmt.Sprintf("feature source contract violation for geometry %d: %s",
		e.GeometryIndex, e.Message)
}

// Unwrap returns the underlying error type.
func (e *ContractError) Unwrap() error {
	return ErrInternal
}

// StorageError represents an error during storage operations.
type StorageError struct {
	Operation string // Operation that failed (download, list, upload, etc.)
	Key       string // Object key
	Err       error  // Underlying error
}

// Error implements the error interface.
func (e *StorageError) Error() string {
	if e.Key != "" {
		return fmt.Sprintf("storage error during %s for %s: %v",
			e.Operation, e.Key, e.Err)
	}
	return fmt.Sprintf("storage error during %s: %v", e.Operation, e.Err)
}

// Unwrap returns the underlying error.
func (e *StorageError) Unwrap() error {
	return e.Err
}

// VectorError represents an error while loading a vector collection.
type VectorError struct {
	Path  string // Vector file path
	Layer string // Layer name, when applicable
	Err   error  // Underlying error
}

// Error implements the error interface.
func (e *VectorError) Error() string {
	if e.Layer != "" {
		return fmt.Sprintf("vector error in %s, layer %s: %v", e.Path, e.Layer, e.Err)
	}
	return fmt.Sprintf("vector error in %s: %v", e.Path, e.Err)
}

// Unwrap returns the underlying error.
func (e *VectorError) Unwrap() error {
	return e.Err
}

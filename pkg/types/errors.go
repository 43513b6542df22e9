package types

import (
	"errors"
	"fmt"
)

var (
	// ErrUnsupportedInput is returned when the source is not a GIF, PNG or JPEG.
	ErrUnsupportedInput = errors.New("unsupported input")
	// ErrMetadata is returned when the source cannot be read or decoded.
	ErrMetadata = errors.New("metadata read failed")
	// ErrGeometry is returned when a crop box does not fit the source.
	ErrGeometry = errors.New("invalid crop geometry")
	// ErrWrite is returned when an artifact cannot be written.
	ErrWrite = errors.New("write failed")
)

// TransformError is the failure of a single preset's transform
type TransformError struct {
	Preset Preset
	Kind   error
	Err    error
}

func (e *TransformError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s: %v", e.Preset, e.Kind)
	}
	return fmt.Sprintf("%s: %v: %v", e.Preset, e.Kind, e.Err)
}

// Unwrap exposes both the category sentinel and the underlying cause
func (e *TransformError) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

// NewTransformError builds a TransformError of the given kind
func NewTransformError(p Preset, kind, err error) *TransformError {
	return &TransformError{Preset: p, Kind: kind, Err: err}
}

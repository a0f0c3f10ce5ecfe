package formats

import (
	"errors"
	"fmt"
)

// GFMDL errors.
var (
	ErrModelNotFound    = errors.New("model file not found")
	ErrModelUnreadable  = errors.New("unable to read model file, it may be protected or in use")
	ErrModelTooLarge    = errors.New("model file is too large")
	ErrModelMalformed   = errors.New("model file is corrupted or formatted improperly")
	ErrCorruptedModel   = errors.New("corrupted model data")
	ErrMissingUVChannel = errors.New("index stream references a missing UV channel")
)

// DocumentError reports a failure to load the model document.
type DocumentError struct {
	Path string
	Err  error
}

func (e *DocumentError) Error() string {
	return fmt.Sprintf("loading %s: %v", e.Path, e.Err)
}

func (e *DocumentError) Unwrap() error { return e.Err }

// CorruptionError reports a payload that does not match its declaration.
type CorruptionError struct {
	Submesh  string
	Stream   string
	Declared int
	Decoded  int
	Reason   string // set when the failure is not a count mismatch
}

func (e *CorruptionError) Error() string {
	if e.Reason != "" {
		return fmt.Sprintf("%v: submesh %q, %s: %s", ErrCorruptedModel, e.Submesh, e.Stream, e.Reason)
	}
	return fmt.Sprintf("%v: submesh %q, %s: declared %d values, decoded %d",
		ErrCorruptedModel, e.Submesh, e.Stream, e.Declared, e.Decoded)
}

func (e *CorruptionError) Unwrap() error { return ErrCorruptedModel }

// ReferenceError reports a UvIndex stream whose UV channel was never decoded.
type ReferenceError struct {
	Submesh   string
	Stream    string
	UVChannel int // zero-based; the source names it UV<UVChannel+1>
	Available int
}

func (e *ReferenceError) Error() string {
	return fmt.Sprintf("%v: submesh %q, stream %q wants UV channel %d, %d decoded",
		ErrMissingUVChannel, e.Submesh, e.Stream, e.UVChannel, e.Available)
}

func (e *ReferenceError) Unwrap() error { return ErrMissingUVChannel }

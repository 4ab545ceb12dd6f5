package model

import (
	"errors"
	"fmt"
)

// SourceError marks a required input (CSV, shapefile, attribute table) as
// unavailable: missing, unreadable, or structurally mismatched. It is fatal for
// the build that needed the source.
type SourceError struct {
	Source string
	Path   string
	Err    error
}

func (e *SourceError) Error() string {
	return fmt.Sprintf("%s source %s unavailable: %v", e.Source, e.Path, e.Err)
}

func (e *SourceError) Unwrap() error {
	return e.Err
}

// NewSourceError wraps err as a SourceError for the named source and path.
func NewSourceError(source, path string, err error) *SourceError {
	return &SourceError{Source: source, Path: path, Err: err}
}

// IsSourceUnavailable returns true if any error in the chain is a SourceError.
func IsSourceUnavailable(err error) bool {
	if err == nil {
		return false
	}
	var se *SourceError
	return errors.As(err, &se)
}

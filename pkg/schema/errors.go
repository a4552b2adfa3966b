package schema

import (
	"errors"
	"fmt"

	"github.com/ekaya-inc/nlsql/pkg/apperrors"
)

// ExtractionError is returned when schema metadata cannot be read at all
// (connection failure, table listing failure). Per-table failures never
// produce one; they are counted in Diagnostics instead.
type ExtractionError struct {
	Stage string // "connect", "list_tables", "sample"
	Err   error
}

func (e *ExtractionError) Error() string {
	return fmt.Sprintf("schema extraction failed at %s: %v", e.Stage, e.Err)
}

func (e *ExtractionError) Unwrap() error {
	return e.Err
}

// Is lets errors.Is(err, apperrors.ErrSchemaExtraction) match.
func (e *ExtractionError) Is(target error) bool {
	return target == apperrors.ErrSchemaExtraction
}

// NewExtractionError wraps err for stage.
func NewExtractionError(stage string, err error) *ExtractionError {
	return &ExtractionError{Stage: stage, Err: err}
}

// IsExtractionError reports whether err carries an ExtractionError.
func IsExtractionError(err error) bool {
	var e *ExtractionError
	return errors.As(err, &e)
}

package certificate

import (
	"fmt"
	"strings"
)

// UnsupportedTemplateError reports a grid that no handler can map onto the canonical
// schema. It aborts extraction of the whole document.
type UnsupportedTemplateError struct {
	Template Template // handler that rejected the grid; Unsupported when the classifier did
	Rows     int
	Cols     int
	FirstRow []string
	Cause    error
}

func (e *UnsupportedTemplateError) Error() string {
	msg := fmt.Sprintf("unsupported certificate table (%s, %dx%d, first row [%s])",
		e.Template, e.Rows, e.Cols, strings.Join(e.FirstRow, " | "))
	if e.Cause != nil {
		msg += ": " + e.Cause.Error()
	}
	return msg
}

func (e *UnsupportedTemplateError) Unwrap() error {
	return e.Cause
}

func unsupported(t Template, g RawGrid, cause error) *UnsupportedTemplateError {
	return &UnsupportedTemplateError{
		Template: t,
		Rows:     g.Rows(),
		Cols:     g.Cols(),
		FirstRow: g.FirstRow(),
		Cause:    cause,
	}
}

// NumericError is a cell that failed strict numeric coercion.
type NumericError struct {
	Column string
	Row    int // data row index after header removal
	Value  string
	Err    error
}

func (e *NumericError) Error() string {
	return fmt.Sprintf("column %s row %d: cannot parse %q: %v", e.Column, e.Row, e.Value, e.Err)
}

func (e *NumericError) Unwrap() error {
	return e.Err
}

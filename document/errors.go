package document

import "fmt"

// ParseError reports malformed input. Offset is the byte offset in the input
// where the problem was detected, or -1 when unknown; Line is set for YAML
// input and is 0 otherwise.
type ParseError struct {
	Offset int64
	Line   int
	Msg    string
	Cause  error
}

func (e *ParseError) Error() string {
	if e == nil {
		return "<nil>"
	}
	loc := ""
	switch {
	case e.Line > 0:
		loc = fmt.Sprintf(" at line %d", e.Line)
	case e.Offset >= 0:
		loc = fmt.Sprintf(" at offset %d", e.Offset)
	}
	if e.Cause != nil {
		return fmt.Sprintf("document: %s%s: %v", e.Msg, loc, e.Cause)
	}
	return fmt.Sprintf("document: %s%s", e.Msg, loc)
}

func (e *ParseError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Cause
}

package commit

import (
	"errors"
	"fmt"
	"strings"

	"xdao.co/jcommit/docpath"
)

// Kind is a stable category for programmatic error handling.
//
// Callers should branch on Kind/RuleID rather than matching error strings.
type Kind string

const (
	KindEncoding Kind = "Encoding"
	KindCommit   Kind = "Commit"
	KindTimeout  Kind = "Timeout"
	KindSuite    Kind = "Suite"
	KindBlinding Kind = "Blinding"
	KindOpening  Kind = "Opening"
	KindInternal Kind = "Internal"
)

// Error is the package's structured error type.
//
// RuleID is a stable identifier (e.g. JC-ENC-001) naming the violated rule.
// Message is intended for humans; do not match on it.
type Error struct {
	Kind    Kind
	RuleID  string
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e == nil {
		return "<nil>"
	}
	if e.Cause != nil {
		return fmt.Sprintf("%s (%s): %v", e.Message, e.RuleID, e.Cause)
	}
	return fmt.Sprintf("%s (%s)", e.Message, e.RuleID)
}

func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Cause
}

// Is matches errors with the same Kind and RuleID, so errors.Is(err, ErrTimeout)
// holds for every deadline failure.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok || e == nil || t == nil {
		return false
	}
	return e.Kind == t.Kind && e.RuleID == t.RuleID
}

// ErrTimeout is the deadline failure of an aggregation.
var ErrTimeout = &Error{Kind: KindTimeout, RuleID: "JC-TIME-001", Message: "commitment deadline exceeded"}

func newError(kind Kind, ruleID, msg string) error {
	return &Error{Kind: kind, RuleID: ruleID, Message: msg}
}

func wrapError(kind Kind, ruleID, msg string, cause error) error {
	if cause == nil {
		return newError(kind, ruleID, msg)
	}
	return &Error{Kind: kind, RuleID: ruleID, Message: msg, Cause: cause}
}

// LeafFailure records why the commitment for one path could not be computed.
type LeafFailure struct {
	Path docpath.Path
	Err  error
}

// CommitError fails an aggregation because one or more leaves failed.
// Failures are sorted by path. Skipped counts entries that were never
// committed because the aggregation stopped early.
type CommitError struct {
	Failures []LeafFailure
	Skipped  int
}

func (e *CommitError) Error() string {
	if e == nil {
		return "<nil>"
	}
	parts := make([]string, 0, len(e.Failures))
	for _, f := range e.Failures {
		parts = append(parts, fmt.Sprintf("%s: %v", f.Path, f.Err))
	}
	msg := fmt.Sprintf("commit: %d leaf failure(s): %s", len(e.Failures), strings.Join(parts, "; "))
	if e.Skipped > 0 {
		msg += fmt.Sprintf(" (%d leaves skipped)", e.Skipped)
	}
	return msg
}

func (e *CommitError) Unwrap() []error {
	if e == nil {
		return nil
	}
	out := make([]error, 0, len(e.Failures))
	for _, f := range e.Failures {
		out = append(out, f.Err)
	}
	return out
}

// Paths returns the failed paths.
func (e *CommitError) Paths() []docpath.Path {
	out := make([]docpath.Path, 0, len(e.Failures))
	for _, f := range e.Failures {
		out = append(out, f.Path)
	}
	return out
}

// IsKind reports whether err is (or wraps) an error of the given Kind.
// A *CommitError has KindCommit.
func IsKind(err error, kind Kind) bool {
	if kind == KindCommit {
		var ce *CommitError
		if errors.As(err, &ce) {
			return true
		}
	}
	var e *Error
	if !errors.As(err, &e) {
		return false
	}
	return e.Kind == kind
}

// RuleID returns the stable RuleID for a structured error, or "" if unknown.
func RuleID(err error) string {
	var e *Error
	if !errors.As(err, &e) {
		return ""
	}
	return e.RuleID
}

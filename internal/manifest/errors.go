package manifest

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrPathNotFound reports a declared entry path, or a Kitfile to load,
	// that does not exist.
	ErrPathNotFound = errors.New("path not found")

	// ErrInvalidPath reports an absolute path that lies outside the working
	// directory.
	ErrInvalidPath = errors.New("path must be relative to the working directory")

	// ErrSchemaViolation reports an unrecognized key, a missing or wrong-typed
	// field, or a failed cross-field rule.
	ErrSchemaViolation = errors.New("schema violation")

	// ErrParse is matched by every *ParseError.
	ErrParse = errors.New("parse error")
)

// FieldError ties a validation failure to the field that caused it, using a
// dotted path such as "docs[0].path" or "package.authors[1]".
type FieldError struct {
	Field string
	Err   error
}

func (e *FieldError) Error() string {
	if e.Field == "" {
		return e.Err.Error()
	}
	return e.Field + ": " + e.Err.Error()
}

func (e *FieldError) Unwrap() error { return e.Err }

// ParseError reports malformed YAML. Line and Column are 1-indexed.
type ParseError struct {
	File   string
	Line   int
	Column int
	Msg    string
	Err    error
}

func (e *ParseError) Error() string {
	var b strings.Builder
	b.WriteString("error parsing Kitfile")
	if e.File != "" {
		fmt.Fprintf(&b, " %s", e.File)
	}
	if e.Line > 0 {
		fmt.Fprintf(&b, " at line %d, column %d", e.Line, e.Column)
	}
	if e.Msg != "" {
		b.WriteString(": " + e.Msg)
	}
	return b.String()
}

func (e *ParseError) Unwrap() error { return e.Err }

// Is makes errors.Is(err, ErrParse) hold for every ParseError.
func (e *ParseError) Is(target error) bool { return target == ErrParse }

// violation returns a schema violation for field.
func violation(field, format string, args ...any) error {
	return &FieldError{
		Field: field,
		Err:   fmt.Errorf("%w: %s", ErrSchemaViolation, fmt.Sprintf(format, args...)),
	}
}

// inField attributes err to field, nesting any field path err already carries.
func inField(field string, err error) error {
	if fe, ok := err.(*FieldError); ok {
		return &FieldError{Field: joinField(field, fe.Field), Err: fe.Err}
	}
	return &FieldError{Field: field, Err: err}
}

func joinField(parent, child string) string {
	switch {
	case parent == "":
		return child
	case child == "":
		return parent
	case strings.HasPrefix(child, "["):
		return parent + child
	default:
		return parent + "." + child
	}
}

func indexField(parent string, i int) string {
	return fmt.Sprintf("%s[%d]", parent, i)
}

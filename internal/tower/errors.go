package tower

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/rflorenc/tower-client/internal/transport"
)

// Error codes for the resource model. Transport failures are not wrapped and
// therefore carry no code from this package.
const (
	ErrCodeNotFound     = "TOWER.NOT_FOUND"
	ErrCodeParse        = "TOWER.PARSE_FAILED"
	ErrCodeTypeMismatch = "TOWER.TYPE_MISMATCH"
)

// NotFoundError is returned when a collection lookup misses.
type NotFoundError struct {
	Kind string
	ID   int
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("[%s] %s %d not found", ErrCodeNotFound, e.Kind, e.ID)
}

// ErrorCode returns the machine-readable code.
func (e *NotFoundError) ErrorCode() string { return ErrCodeNotFound }

// ParseError is returned for malformed JSON (or YAML) in a payload field or
// response body.
type ParseError struct {
	What  string
	Cause error
}

func (e *ParseError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s: %v", ErrCodeParse, e.What, e.Cause)
	}
	return fmt.Sprintf("[%s] %s", ErrCodeParse, e.What)
}

func (e *ParseError) Unwrap() error { return e.Cause }

// ErrorCode returns the machine-readable code.
func (e *ParseError) ErrorCode() string { return ErrCodeParse }

// TypeMismatchError is returned when a payload field is missing when required
// or holds a value of the wrong JSON type.
type TypeMismatchError struct {
	Kind  string
	Field string
	Want  string
	Got   string // "missing" when absent
}

func (e *TypeMismatchError) Error() string {
	return fmt.Sprintf("[%s] %s.%s: want %s, got %s", ErrCodeTypeMismatch, e.Kind, e.Field, e.Want, e.Got)
}

// ErrorCode returns the machine-readable code.
func (e *TypeMismatchError) ErrorCode() string { return ErrCodeTypeMismatch }

// IsNotFound reports whether err is or wraps a *NotFoundError.
func IsNotFound(err error) bool {
	var nf *NotFoundError
	return errors.As(err, &nf)
}

// IsParseError reports whether err is or wraps a *ParseError.
func IsParseError(err error) bool {
	var pe *ParseError
	return errors.As(err, &pe)
}

// IsTypeMismatch reports whether err is or wraps a *TypeMismatchError.
func IsTypeMismatch(err error) bool {
	var tm *TypeMismatchError
	return errors.As(err, &tm)
}

func isHTTPNotFound(err error) bool {
	var herr *transport.HTTPError
	return errors.As(err, &herr) && herr.StatusCode == http.StatusNotFound
}

package validate

import (
	"errors"
	"strings"
)

// ErrInvalid is the cause wrapped by every validation failure.
var ErrInvalid = errors.New("invalid input")

// FieldError is used to indicate an error with a specific struct field.
type FieldError struct {
	Field string `json:"field"`
	Error string `json:"error"`
}

// Error is returned when form input fails validation.
type Error struct {
	Err    error
	Fields []FieldError
}

// Fail builds a validation error from explicit field errors.
func Fail(flds ...FieldError) error {
	return &Error{Err: ErrInvalid, Fields: flds}
}

func (e *Error) Error() string {
	if len(e.Fields) == 0 {
		if e.Err == nil {
			return ""
		}
		return e.Err.Error()
	}
	msgs := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		msgs = append(msgs, f.Field+": "+f.Error)
	}
	return strings.Join(msgs, "; ")
}

func (e *Error) Unwrap() error { return e.Err }

// Field returns the message reported for field, or "".
func (e *Error) Field(name string) string {
	for _, f := range e.Fields {
		if f.Field == name {
			return f.Error
		}
	}
	return ""
}

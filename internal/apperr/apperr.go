package apperr

import "errors"

var (
	ErrValidation        = errors.New("validation failed")
	ErrNotFound          = errors.New("not found")
	ErrConflict          = errors.New("conflict")
	ErrIO                = errors.New("io failure")
	ErrEngineUnavailable = errors.New("engine not available")
	ErrUnauthorized      = errors.New("unauthorized")
	ErrForbidden         = errors.New("forbidden")
)

// FieldError reports a single invalid input field. It matches ErrValidation.
type FieldError struct {
	Field  string
	Reason string
}

func (e *FieldError) Error() string {
	if e.Field == "" {
		return "validation failed: " + e.Reason
	}
	return "validation failed: " + e.Field + " " + e.Reason
}

func (e *FieldError) Is(target error) bool {
	return target == ErrValidation
}

func Invalid(field, reason string) error {
	return &FieldError{Field: field, Reason: reason}
}

// Fields collects several field errors and reports them together.
type Fields []FieldError

func (f *Fields) Add(field, reason string) {
	*f = append(*f, FieldError{Field: field, Reason: reason})
}

func (f Fields) Err() error {
	if len(f) == 0 {
		return nil
	}
	return &FieldsError{Issues: f}
}

type FieldsError struct {
	Issues Fields
}

func (e *FieldsError) Error() string {
	msg := "validation failed:"
	for i, issue := range e.Issues {
		if i > 0 {
			msg += ";"
		}
		msg += " " + issue.Field + " " + issue.Reason
	}
	return msg
}

func (e *FieldsError) Is(target error) bool {
	return target == ErrValidation
}

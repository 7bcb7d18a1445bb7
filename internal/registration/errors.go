package registration

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind classifies a caller-visible registration failure. Anything escaping the
// package that is not a *Failure is an unexpected storage error.
type Kind string

const (
	KindValidationFailed    Kind = "validation_failed"
	KindDuplicateResource   Kind = "duplicate_resource"
	KindUnsupportedRole     Kind = "unsupported_role"
	KindReferenceNotFound   Kind = "reference_not_found"
	KindHouseholdFull       Kind = "household_full"
	KindInvalidLocation     Kind = "invalid_location"
	KindCompensationFailure Kind = "compensation_failure"
	KindInvalidCode         Kind = "invalid_code"
	KindAlreadyVerified     Kind = "already_verified"
)

type Failure struct {
	Kind    Kind
	Message string
	// Fields holds field-level problems for validation failures, keyed by the
	// JSON field name.
	Fields map[string]string
}

func (f *Failure) Error() string {
	if f.Message != "" {
		return fmt.Sprintf("%s: %s", f.Kind, f.Message)
	}
	return string(f.Kind)
}

// StatusCode maps the failure kind to the HTTP status the API surface uses.
func (f *Failure) StatusCode() int {
	switch f.Kind {
	case KindReferenceNotFound:
		return http.StatusNotFound
	case KindCompensationFailure:
		return http.StatusInternalServerError
	default:
		return http.StatusBadRequest
	}
}

// AsFailure unwraps err into a *Failure if one is in its chain.
func AsFailure(err error) (*Failure, bool) {
	var f *Failure
	if errors.As(err, &f) {
		return f, true
	}
	return nil, false
}

func failf(kind Kind, format string, args ...any) *Failure {
	return &Failure{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

func validationFailed(fields map[string]string) *Failure {
	return &Failure{Kind: KindValidationFailed, Message: "invalid registration payload", Fields: fields}
}

// Duplicate builds a DuplicateResource failure. Exported so store
// implementations can map storage-level uniqueness violations onto the
// registration taxonomy.
func Duplicate(format string, args ...any) *Failure {
	return failf(KindDuplicateResource, format, args...)
}

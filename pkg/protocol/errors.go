package protocol

import (
	"errors"
	"fmt"
)

// LoadReason classifies why a document was rejected.
type LoadReason string

const (
	// ReasonMalformed marks input that could not be parsed or that fails
	// structural schema validation.
	ReasonMalformed LoadReason = "malformed"
	// ReasonMissingField marks an absent required field.
	ReasonMissingField LoadReason = "missing_field"
	// ReasonInvalidDiscriminator marks wrong protocol-type or operation
	// discriminators.
	ReasonInvalidDiscriminator LoadReason = "invalid_discriminator"
	// ReasonEmptyIdentity marks an empty protocol name, version, or owner.
	ReasonEmptyIdentity LoadReason = "empty_identity"
	// ReasonBadStateDecl marks a state declaration without a usable type.
	ReasonBadStateDecl LoadReason = "bad_state_decl"
	// ReasonBadMethodDecl marks a method with neither body nor return
	// expression.
	ReasonBadMethodDecl LoadReason = "bad_method_decl"
)

// LoadError reports a rejected document. No partial Protocol accompanies it.
type LoadError struct {
	Reason LoadReason
	Field  string
	Err    error
}

func (e *LoadError) Error() string {
	msg := fmt.Sprintf("load %s", e.Reason)
	if e.Field != "" {
		msg += ": " + e.Field
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *LoadError) Unwrap() error { return e.Err }

func loadErrorf(reason LoadReason, field string, format string, args ...any) *LoadError {
	var err error
	if format != "" {
		err = fmt.Errorf(format, args...)
	}
	return &LoadError{Reason: reason, Field: field, Err: err}
}

// ReasonOf extracts the LoadReason from err, or "" when err is not a
// LoadError.
func ReasonOf(err error) LoadReason {
	var le *LoadError
	if errors.As(err, &le) {
		return le.Reason
	}
	return ""
}

package compiler

import (
	"errors"
	"fmt"

	"cuelang.org/go/cue/token"
)

// ConfigError reports a strategy that cannot be compiled. Configuration
// errors abort model construction and are never retried.
type ConfigError struct {
	// Code identifies the error category.
	Code ConfigErrorCode

	// Message is a human-readable description.
	Message string

	// Group names the group involved, if any.
	Group string
}

// ConfigErrorCode categorizes configuration errors.
type ConfigErrorCode string

const (
	// ErrCodeEmptyGroup indicates a group predicate matched no arcs.
	ErrCodeEmptyGroup ConfigErrorCode = "EMPTY_GROUP"

	// ErrCodeUnknownGroup indicates a structure names an undeclared group.
	ErrCodeUnknownGroup ConfigErrorCode = "UNKNOWN_GROUP"

	// ErrCodeMissingKeys indicates a sorted collection with keyed and
	// unkeyed units, or a heap with an unkeyed unit.
	ErrCodeMissingKeys ConfigErrorCode = "MISSING_KEYS"

	// ErrCodeInvalidSwitch indicates each over a static attribute.
	ErrCodeInvalidSwitch ConfigErrorCode = "INVALID_SWITCH"

	// ErrCodeEmptyGenerator indicates a collection over zero units.
	ErrCodeEmptyGenerator ConfigErrorCode = "EMPTY_GENERATOR"

	// ErrCodeDuplicateReference indicates a group placed twice.
	ErrCodeDuplicateReference ConfigErrorCode = "DUPLICATE_REFERENCE"

	// ErrCodeDuplicateGroup indicates a group name declared twice.
	ErrCodeDuplicateGroup ConfigErrorCode = "DUPLICATE_GROUP"

	// ErrCodeWrongKey indicates a combined attribute with neither
	// operators nor attribute.
	ErrCodeWrongKey ConfigErrorCode = "WRONG_KEY"

	// ErrCodeInvalidDescription indicates a malformed description.
	ErrCodeInvalidDescription ConfigErrorCode = "INVALID_DESCRIPTION"
)

// Error implements the error interface.
func (e *ConfigError) Error() string {
	if e.Group != "" {
		return fmt.Sprintf("%s: %s (group=%s)", e.Code, e.Message, e.Group)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func configErr(code ConfigErrorCode, group, format string, args ...any) *ConfigError {
	return &ConfigError{Code: code, Group: group, Message: fmt.Sprintf(format, args...)}
}

// IsConfigError returns true if err is a ConfigError with the given code.
// Uses errors.As to handle wrapped errors.
func IsConfigError(err error, code ConfigErrorCode) bool {
	var ce *ConfigError
	if errors.As(err, &ce) {
		return ce.Code == code
	}
	return false
}

// DecodeError reports a problem decoding a CUE strategy, with the source
// position when CUE provides one.
type DecodeError struct {
	Field   string
	Message string
	Pos     token.Pos
}

func (e *DecodeError) Error() string {
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s:%d:%d: %s: %s",
			e.Pos.Filename(), e.Pos.Line(), e.Pos.Column(),
			e.Field, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

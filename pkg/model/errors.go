package model

import (
	"fmt"
	"strings"
)

// ErrorCode represents a structured API error code.
type ErrorCode string

const (
	ErrValidation   ErrorCode = "VALIDATION_ERROR"
	ErrNotFound     ErrorCode = "NOT_FOUND"
	ErrConflict     ErrorCode = "CONFLICT"
	ErrUnauthorized ErrorCode = "UNAUTHORIZED"
	ErrInternal     ErrorCode = "INTERNAL_ERROR"
)

// APIError is a structured error returned by the dashboard API.
type APIError struct {
	Code    ErrorCode    `json:"code"`
	Message string       `json:"message"`
	Details []FieldError `json:"details,omitempty"`
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// FieldError describes a validation error on a specific field.
type FieldError struct {
	Field   string `json:"field,omitempty"`
	Message string `json:"message"`
}

// NewValidationError creates an APIError with validation details.
func NewValidationError(msg string, details ...FieldError) *APIError {
	return &APIError{Code: ErrValidation, Message: msg, Details: details}
}

// NewNotFoundError creates a NOT_FOUND APIError.
func NewNotFoundError(resource, id string) *APIError {
	return &APIError{
		Code:    ErrNotFound,
		Message: fmt.Sprintf("%s '%s' not found", resource, id),
	}
}

// RequirementConflictError is returned when children of a parallel or race
// composite require the same subsystem.
type RequirementConflictError struct {
	Kind      CompositeKind
	Subsystem string
	First     string
	Second    string
}

func (e *RequirementConflictError) Error() string {
	return fmt.Sprintf("%s composite: commands %q and %q both require subsystem %q",
		e.Kind, e.First, e.Second, e.Subsystem)
}

// DuplicateCommandError is returned when the same command instance appears
// twice in one composite.
type DuplicateCommandError struct {
	Kind    CompositeKind
	Command string
}

func (e *DuplicateCommandError) Error() string {
	return fmt.Sprintf("%s composite: command %q added more than once", e.Kind, e.Command)
}

// ComposedCommandError is returned when a command that already belongs to a
// composite is composed again or scheduled on its own.
type ComposedCommandError struct {
	Kind    CompositeKind
	Command string
}

func (e *ComposedCommandError) Error() string {
	if e.Kind == "" {
		return fmt.Sprintf("command %q already belongs to a composite", e.Command)
	}
	return fmt.Sprintf("%s composite: command %q already belongs to another composite", e.Kind, e.Command)
}

// IllegalTransitionError reports a lifecycle move the state table forbids.
type IllegalTransitionError struct {
	Command string
	From    CommandState
	To      CommandState
}

func (e *IllegalTransitionError) Error() string {
	return fmt.Sprintf("command %q: cannot transition from %s to %s", e.Command, e.From, e.To)
}

// DuplicateSubsystemError is returned when a subsystem identity is registered twice.
type DuplicateSubsystemError struct {
	Name string
}

func (e *DuplicateSubsystemError) Error() string {
	return fmt.Sprintf("subsystem %q already registered", e.Name)
}

// InvalidDefaultCommandError is returned when a default command does not
// require the subsystem it is installed on.
type InvalidDefaultCommandError struct {
	Subsystem string
	Command   string
	Reason    string
}

func (e *InvalidDefaultCommandError) Error() string {
	return fmt.Sprintf("default command %q for subsystem %q: %s", e.Command, e.Subsystem, e.Reason)
}

// CommandError reports a failure raised inside a command lifecycle method.
// The scheduler ends the command as interrupted and keeps ticking.
type CommandError struct {
	Command string
	Phase   string
	Err     error
}

func (e *CommandError) Error() string {
	return fmt.Sprintf("command %q failed in %s: %v", e.Command, e.Phase, e.Err)
}

func (e *CommandError) Unwrap() error {
	return e.Err
}

// ValidationErrors collects configuration problems.
type ValidationErrors []FieldError

func (v ValidationErrors) Error() string {
	parts := make([]string, len(v))
	for i, fe := range v {
		if fe.Field != "" {
			parts[i] = fe.Field + ": " + fe.Message
		} else {
			parts[i] = fe.Message
		}
	}
	return "invalid configuration: " + strings.Join(parts, "; ")
}

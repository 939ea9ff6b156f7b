package model

import (
	"errors"
	"strings"
	"testing"
)

func TestAPIError_Error(t *testing.T) {
	err := &APIError{Code: ErrNotFound, Message: "Auto 'z' not found"}
	want := "NOT_FOUND: Auto 'z' not found"
	if got := err.Error(); got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}
}

func TestNewNotFoundError(t *testing.T) {
	err := NewNotFoundError("Telemetry key", "Hardware/Drive")
	if err.Code != ErrNotFound {
		t.Errorf("Code = %q, want %q", err.Code, ErrNotFound)
	}
	if err.Message != "Telemetry key 'Hardware/Drive' not found" {
		t.Errorf("Message = %q", err.Message)
	}
}

func TestRequirementConflictError(t *testing.T) {
	err := &RequirementConflictError{Kind: CompositeParallel, Subsystem: "drive", First: "a", Second: "b"}
	msg := err.Error()
	for _, want := range []string{"parallel", `"a"`, `"b"`, `"drive"`} {
		if !strings.Contains(msg, want) {
			t.Errorf("Error() = %q, want it to contain %s", msg, want)
		}
	}
}

func TestCommandError_Unwrap(t *testing.T) {
	inner := errors.New("motor stalled")
	err := &CommandError{Command: "intake", Phase: "execute", Err: inner}
	if !errors.Is(err, inner) {
		t.Error("errors.Is should find the wrapped error")
	}
	if !strings.Contains(err.Error(), "execute") {
		t.Errorf("Error() = %q, want phase in message", err.Error())
	}
}

func TestValidationErrors(t *testing.T) {
	errs := ValidationErrors{
		{Field: "period", Message: "must be positive"},
		{Message: "no bindings"},
	}
	want := "invalid configuration: period: must be positive; no bindings"
	if got := errs.Error(); got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}
}

func TestIllegalTransitionError(t *testing.T) {
	err := &IllegalTransitionError{Command: "Intake", From: CommandStateEnding, To: CommandStateEnding}
	want := `command "Intake": cannot transition from ENDING to ENDING`
	if got := err.Error(); got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}
}

func TestComposedCommandError(t *testing.T) {
	err := &ComposedCommandError{Kind: CompositeParallel, Command: "a"}
	if !strings.Contains(err.Error(), "parallel composite") {
		t.Errorf("Error() = %q", err.Error())
	}
	if got := (&ComposedCommandError{Command: "a"}).Error(); got != `command "a" already belongs to a composite` {
		t.Errorf("Error() = %q", got)
	}
}

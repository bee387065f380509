package domain

import dErrors "punchgate/pkg/domain-errors"

// Action is a domain value that identifies an attendance transition request.
// Invariant: the value must be one of the supported actions.
//
// Usage: construct via ParseAction at trust boundaries to enforce the
// allowlist; direct casting bypasses validation.
type Action string

// Supported attendance actions.
const (
	ActionClockIn    Action = "clock_in"
	ActionBreakStart Action = "break_start"
	ActionBreakEnd   Action = "break_end"
	ActionClockOut   Action = "clock_out"
)

// validActions is the single source of truth for valid actions.
var validActions = map[Action]bool{
	ActionClockIn:    true,
	ActionBreakStart: true,
	ActionBreakEnd:   true,
	ActionClockOut:   true,
}

// ParseAction constructs an Action from external input.
//
// Errors: returns CodeInvalidInput when the value is empty or unsupported.
func ParseAction(s string) (Action, error) {
	if s == "" {
		return "", dErrors.New(dErrors.CodeInvalidInput, "action cannot be empty")
	}
	a := Action(s)
	if !a.IsValid() {
		return "", dErrors.New(dErrors.CodeInvalidInput, "invalid action")
	}
	return a, nil
}

// IsValid checks if the action is one of the supported enum values.
func (a Action) IsValid() bool {
	return validActions[a]
}

// String returns the string representation of the action.
func (a Action) String() string {
	return string(a)
}

package domain

// AttendanceStatus is the worker's current position in the attendance
// workflow. It is owned by the clock state machine and only ever changes on a
// fully verified confirm.
type AttendanceStatus string

const (
	StatusNotClockedIn AttendanceStatus = "not_clocked_in"
	StatusClockedIn    AttendanceStatus = "clocked_in"
	StatusOnBreak      AttendanceStatus = "on_break"
)

// String returns the string representation of the status.
func (s AttendanceStatus) String() string {
	return string(s)
}

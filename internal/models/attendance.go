package models

import "time"

// Layouts for the persisted/displayed date and time-in formats.
const (
	DateLayout   = "2006-01-02"
	TimeInLayout = "03:04 PM"
)

// DateOnly strips the time-of-day component, keeping the wall-clock location.
func DateOnly(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

// AttendanceEvent is a single attendance row. At most one exists per
// (student, date); TimeIn is fixed at creation and never updated.
type AttendanceEvent struct {
	ID         int64     `db:"id" json:"id"`
	StudentRef int64     `db:"student_ref" json:"student_ref"`
	Date       time.Time `db:"date" json:"date"`
	TimeIn     string    `db:"time_in" json:"time_in"`
	RecordedAt time.Time `db:"recorded_at" json:"recorded_at"`
}

// AttendanceRecord extends the event with joined student display data.
type AttendanceRecord struct {
	AttendanceEvent
	StudentID string  `db:"student_id" json:"student_id"`
	LastName  string  `db:"last_name" json:"last_name"`
	FirstName string  `db:"first_name" json:"first_name"`
	Course    string  `db:"course" json:"course"`
	Level     string  `db:"level" json:"level"`
	PhotoPath *string `db:"photo_path" json:"photo_path,omitempty"`
}

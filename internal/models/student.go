package models

import "time"

// Student represents a learner registered in the institution. StudentID is
// the public identifier encoded in the QR code; ID is the surrogate key.
type Student struct {
	ID        int64     `db:"id" json:"id"`
	StudentID string    `db:"student_id" json:"student_id"`
	LastName  string    `db:"last_name" json:"last_name"`
	FirstName string    `db:"first_name" json:"first_name"`
	Course    string    `db:"course" json:"course"`
	Level     string    `db:"level" json:"level"`
	PhotoPath *string   `db:"photo_path" json:"photo_path,omitempty"`
	QRValue   string    `db:"qr_value" json:"qr_value"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// DisplayName renders the roster display form "Last, First".
func (s Student) DisplayName() string {
	return s.LastName + ", " + s.FirstName
}

// CourseLabel combines course and level for display.
func (s Student) CourseLabel() string {
	return s.Course + " - " + s.Level
}

// StudentFilter encapsulates allowed search parameters for listing students.
type StudentFilter struct {
	Search   string
	Page     int
	PageSize int
}

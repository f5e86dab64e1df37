package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/schoolscan/attendance-api/internal/models"
	appErrors "github.com/schoolscan/attendance-api/pkg/errors"
)

// AttendanceRepository is the append-only ledger of attendance events. The
// (student_ref, date) pair carries a unique constraint so concurrent writers
// cannot create two events for the same student on the same day.
type AttendanceRepository struct {
	db *sqlx.DB
}

// NewAttendanceRepository constructs the repository.
func NewAttendanceRepository(db *sqlx.DB) *AttendanceRepository {
	return &AttendanceRepository{db: db}
}

// FindEvent returns the event for (studentRef, date), or nil when absent.
func (r *AttendanceRepository) FindEvent(ctx context.Context, studentRef int64, date time.Time) (*models.AttendanceEvent, error) {
	const query = `SELECT id, student_ref, date, time_in, recorded_at
        FROM attendance WHERE student_ref = $1 AND date = $2`
	var event models.AttendanceEvent
	if err := r.db.GetContext(ctx, &event, query, studentRef, date.Format(models.DateLayout)); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("find attendance event: %w", err)
	}
	return &event, nil
}

// InsertEvent appends a new event and fills in the generated key. A unique
// constraint violation on (student_ref, date) is reported as
// ErrDuplicateEvent so the scan service can fall back to the winning row.
func (r *AttendanceRepository) InsertEvent(ctx context.Context, event *models.AttendanceEvent) error {
	const query = `INSERT INTO attendance (student_ref, date, time_in, recorded_at)
        VALUES ($1, $2, $3, $4) RETURNING id`
	err := r.db.GetContext(ctx, &event.ID, query,
		event.StudentRef, event.Date.Format(models.DateLayout), event.TimeIn, event.RecordedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return appErrors.ErrDuplicateEvent
		}
		return fmt.Errorf("insert attendance event: %w", err)
	}
	return nil
}

// ListByDate returns every event for the date joined with student display
// data, ordered by recording instant then surrogate key so rosters stay
// deterministic when two rows share a displayed time.
func (r *AttendanceRepository) ListByDate(ctx context.Context, date time.Time) ([]models.AttendanceRecord, error) {
	const query = `SELECT a.id, a.student_ref, a.date, a.time_in, a.recorded_at,
        s.student_id, s.last_name, s.first_name, s.course, s.level, s.photo_path
        FROM attendance a
        JOIN students s ON s.id = a.student_ref
        WHERE a.date = $1
        ORDER BY a.recorded_at ASC, a.id ASC`
	var records []models.AttendanceRecord
	if err := r.db.SelectContext(ctx, &records, query, date.Format(models.DateLayout)); err != nil {
		return nil, fmt.Errorf("list attendance by date: %w", err)
	}
	return records, nil
}

// CountByStudent reports how many events reference the given student.
func (r *AttendanceRepository) CountByStudent(ctx context.Context, studentRef int64) (int, error) {
	var count int
	if err := r.db.GetContext(ctx, &count, "SELECT COUNT(*) FROM attendance WHERE student_ref = $1", studentRef); err != nil {
		return 0, fmt.Errorf("count attendance events: %w", err)
	}
	return count, nil
}

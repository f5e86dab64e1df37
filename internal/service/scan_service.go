package service

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/schoolscan/attendance-api/internal/models"
	appErrors "github.com/schoolscan/attendance-api/pkg/errors"
)

type studentDirectory interface {
	FindByStudentID(ctx context.Context, studentID string) (*models.Student, error)
}

type attendanceLedger interface {
	FindEvent(ctx context.Context, studentRef int64, date time.Time) (*models.AttendanceEvent, error)
	InsertEvent(ctx context.Context, event *models.AttendanceEvent) error
}

type avatarResolver interface {
	URL(name *string) *string
}

type rosterInvalidator interface {
	InvalidateDate(ctx context.Context, date time.Time)
}

// ScanOutcome tags the business result of a scan.
type ScanOutcome string

const (
	ScanOutcomeCreated         ScanOutcome = "created"
	ScanOutcomeAlreadyRecorded ScanOutcome = "already_recorded"
	ScanOutcomeNotFound        ScanOutcome = "not_found"
)

// ScanStudent is the student display payload returned to the scanner client.
type ScanStudent struct {
	ID        int64   `json:"id"`
	StudentID string  `json:"student_id"`
	LastName  string  `json:"last_name"`
	FirstName string  `json:"first_name"`
	Course    string  `json:"course"`
	Level     string  `json:"level"`
	PhotoURL  *string `json:"photo_url"`
}

// ScanResult is the normalized outcome of a scan. NotFound and
// AlreadyRecorded are statuses, not errors; callers branch on Outcome.
type ScanResult struct {
	Outcome ScanOutcome
	Created bool
	TimeIn  string
	Student *ScanStudent
}

// ScanService records attendance from scanned QR identifiers. It enforces
// "at most one event per student per calendar day": the first recorded
// time_in wins, including under concurrent scans of the same QR.
type ScanService struct {
	students studentDirectory
	ledger   attendanceLedger
	avatars  avatarResolver
	rosters  rosterInvalidator
	metrics  *MetricsService
	logger   *zap.Logger
}

// NewScanService constructs the scan service. Avatars, rosters and metrics
// are optional collaborators.
func NewScanService(students studentDirectory, ledger attendanceLedger, avatars avatarResolver, rosters rosterInvalidator, metrics *MetricsService, logger *zap.Logger) *ScanService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ScanService{students: students, ledger: ledger, avatars: avatars, rosters: rosters, metrics: metrics, logger: logger}
}

// RecordScan resolves the scanned identifier and records attendance for the
// calendar day derived from now. Calling it again for the same (student, day)
// returns the original time_in with Created=false.
func (s *ScanService) RecordScan(ctx context.Context, qrData string, now time.Time) (*ScanResult, error) {
	qr := strings.TrimSpace(qrData)
	if qr == "" {
		s.observe("invalid")
		return nil, appErrors.Clone(appErrors.ErrValidation, "Empty QR data.")
	}

	student, err := s.students.FindByStudentID(ctx, qr)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			s.observe("not_found")
			return &ScanResult{Outcome: ScanOutcomeNotFound}, nil
		}
		s.observe("error")
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to resolve student")
	}

	day := models.DateOnly(now)
	existing, err := s.ledger.FindEvent(ctx, student.ID, day)
	if err != nil {
		s.observe("error")
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check attendance")
	}
	if existing != nil {
		s.observe("already_recorded")
		return s.result(ScanOutcomeAlreadyRecorded, student, existing.TimeIn), nil
	}

	event := &models.AttendanceEvent{
		StudentRef: student.ID,
		Date:       day,
		TimeIn:     now.Format(models.TimeInLayout),
		RecordedAt: now,
	}
	if err := s.ledger.InsertEvent(ctx, event); err != nil {
		if errors.Is(err, appErrors.ErrDuplicateEvent) {
			// Another scan won the race; the first recorded time wins.
			winner, ferr := s.ledger.FindEvent(ctx, student.ID, day)
			if ferr != nil || winner == nil {
				s.observe("error")
				return nil, appErrors.Wrap(ferr, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to re-read attendance")
			}
			s.observe("already_recorded")
			return s.result(ScanOutcomeAlreadyRecorded, student, winner.TimeIn), nil
		}
		s.observe("error")
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to record attendance")
	}

	if s.rosters != nil {
		s.rosters.InvalidateDate(ctx, day)
	}
	s.logger.Info("attendance recorded",
		zap.String("student_id", student.StudentID),
		zap.String("date", day.Format(models.DateLayout)),
		zap.String("time_in", event.TimeIn),
	)
	s.observe("created")
	return s.result(ScanOutcomeCreated, student, event.TimeIn), nil
}

func (s *ScanService) result(outcome ScanOutcome, student *models.Student, timeIn string) *ScanResult {
	var photoURL *string
	if s.avatars != nil {
		photoURL = s.avatars.URL(student.PhotoPath)
	}
	return &ScanResult{
		Outcome: outcome,
		Created: outcome == ScanOutcomeCreated,
		TimeIn:  timeIn,
		Student: &ScanStudent{
			ID:        student.ID,
			StudentID: student.StudentID,
			LastName:  student.LastName,
			FirstName: student.FirstName,
			Course:    student.Course,
			Level:     student.Level,
			PhotoURL:  photoURL,
		},
	}
}

func (s *ScanService) observe(result string) {
	if s.metrics != nil {
		s.metrics.ObserveScan(result)
	}
}

package service

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/schoolscan/attendance-api/internal/models"
	appErrors "github.com/schoolscan/attendance-api/pkg/errors"
	"github.com/schoolscan/attendance-api/pkg/export"
)

type rosterLedger interface {
	ListByDate(ctx context.Context, date time.Time) ([]models.AttendanceRecord, error)
}

type rosterCache interface {
	Get(ctx context.Context, key string, dest interface{}) error
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
}

// RosterRow is a display-ready attendance row for a given date.
type RosterRow struct {
	ID        int64  `json:"id"`
	StudentID string `json:"student_id"`
	Name      string `json:"name"`
	Course    string `json:"course"`
	TimeIn    string `json:"time_in"`
}

// RosterService answers "who attended on this date" queries, caching the
// assembled roster per date.
type RosterService struct {
	ledger   rosterLedger
	cache    rosterCache
	cacheTTL time.Duration
	csv      *export.CSVExporter
	pdf      *export.PDFExporter
	logger   *zap.Logger
}

// NewRosterService constructs the roster service. Cache is optional.
func NewRosterService(ledger rosterLedger, cache rosterCache, cacheTTL time.Duration, logger *zap.Logger) *RosterService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RosterService{
		ledger:   ledger,
		cache:    cache,
		cacheTTL: cacheTTL,
		csv:      export.NewCSVExporter(),
		pdf:      export.NewPDFExporter(),
		logger:   logger,
	}
}

func rosterCacheKey(date time.Time) string {
	return "roster:" + date.Format(models.DateLayout)
}

// ListByDate returns the attendance roster for the date, ordered by recording
// instant then surrogate key. A date with no events yields an empty slice.
func (s *RosterService) ListByDate(ctx context.Context, date time.Time) ([]RosterRow, error) {
	date = models.DateOnly(date)
	key := rosterCacheKey(date)

	if s.cache != nil {
		var cached []RosterRow
		err := s.cache.Get(ctx, key, &cached)
		if err == nil {
			return cached, nil
		}
		if !errors.Is(err, appErrors.ErrCacheMiss) {
			s.logger.Warn("roster cache read failed", zap.Error(err))
		}
	}

	records, err := s.ledger.ListByDate(ctx, date)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load roster")
	}

	rows := make([]RosterRow, 0, len(records))
	for _, rec := range records {
		student := models.Student{
			LastName:  rec.LastName,
			FirstName: rec.FirstName,
			Course:    rec.Course,
			Level:     rec.Level,
		}
		rows = append(rows, RosterRow{
			ID:        rec.ID,
			StudentID: rec.StudentID,
			Name:      student.DisplayName(),
			Course:    student.CourseLabel(),
			TimeIn:    rec.TimeIn,
		})
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, key, rows, s.cacheTTL); err != nil {
			s.logger.Warn("roster cache write failed", zap.Error(err))
		}
	}
	return rows, nil
}

// InvalidateDate drops the cached roster for a date after a new event lands.
func (s *RosterService) InvalidateDate(ctx context.Context, date time.Time) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Delete(ctx, rosterCacheKey(models.DateOnly(date))); err != nil {
		s.logger.Warn("roster cache invalidation failed", zap.Error(err))
	}
}

// ExportFormat selects a roster export encoding.
type ExportFormat string

const (
	ExportFormatCSV ExportFormat = "csv"
	ExportFormatPDF ExportFormat = "pdf"
)

// Export renders the roster for a date as a downloadable sheet.
func (s *RosterService) Export(ctx context.Context, date time.Time, format ExportFormat) ([]byte, string, error) {
	date = models.DateOnly(date)
	rows, err := s.ListByDate(ctx, date)
	if err != nil {
		return nil, "", err
	}

	table := export.Table{
		Title:   "Attendance " + date.Format(models.DateLayout),
		Columns: []string{"Student ID", "Name", "Course", "Time In"},
	}
	for _, row := range rows {
		table.Rows = append(table.Rows, []string{row.StudentID, row.Name, row.Course, row.TimeIn})
	}

	switch format {
	case ExportFormatCSV:
		data, err := s.csv.Render(table)
		if err != nil {
			return nil, "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render csv")
		}
		return data, "text/csv", nil
	case ExportFormatPDF:
		data, err := s.pdf.Render(table)
		if err != nil {
			return nil, "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render pdf")
		}
		return data, "application/pdf", nil
	default:
		return nil, "", appErrors.Clone(appErrors.ErrValidation, "unsupported export format")
	}
}

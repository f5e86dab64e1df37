package service

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/schoolscan/attendance-api/internal/models"
	appErrors "github.com/schoolscan/attendance-api/pkg/errors"
)

type mockDirectory struct {
	students map[string]models.Student
	lookups  atomic.Int64
}

func (m *mockDirectory) FindByStudentID(ctx context.Context, studentID string) (*models.Student, error) {
	m.lookups.Add(1)
	if s, ok := m.students[studentID]; ok {
		return &s, nil
	}
	return nil, sql.ErrNoRows
}

type mockLedger struct {
	mu      sync.Mutex
	events  map[string]models.AttendanceEvent
	nextID  int64
	inserts int
}

func newMockLedger() *mockLedger {
	return &mockLedger{events: make(map[string]models.AttendanceEvent)}
}

func ledgerKey(studentRef int64, date time.Time) string {
	return fmt.Sprintf("%d|%s", studentRef, date.Format(models.DateLayout))
}

func (m *mockLedger) FindEvent(ctx context.Context, studentRef int64, date time.Time) (*models.AttendanceEvent, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if evt, ok := m.events[ledgerKey(studentRef, date)]; ok {
		return &evt, nil
	}
	return nil, nil
}

func (m *mockLedger) InsertEvent(ctx context.Context, event *models.AttendanceEvent) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	key := ledgerKey(event.StudentRef, event.Date)
	if _, ok := m.events[key]; ok {
		return appErrors.ErrDuplicateEvent
	}
	m.nextID++
	m.inserts++
	event.ID = m.nextID
	m.events[key] = *event
	return nil
}

func newTestScanService(dir *mockDirectory, ledger attendanceLedger) *ScanService {
	return NewScanService(dir, ledger, nil, nil, nil, nil)
}

func janeDirectory() *mockDirectory {
	return &mockDirectory{students: map[string]models.Student{
		"20240001": {ID: 1, StudentID: "20240001", LastName: "Doe", FirstName: "Jane", Course: "BSIT", Level: "1"},
	}}
}

func at(year int, month time.Month, day, hour, min int) time.Time {
	return time.Date(year, month, day, hour, min, 0, 0, time.Local)
}

func TestRecordScanEmptyInput(t *testing.T) {
	dir := janeDirectory()
	ledger := newMockLedger()
	svc := newTestScanService(dir, ledger)

	for _, qr := range []string{"", "   "} {
		_, err := svc.RecordScan(context.Background(), qr, time.Now())
		require.Error(t, err)
		appErr := appErrors.FromError(err)
		assert.Equal(t, appErrors.ErrValidation.Code, appErr.Code)
		assert.Equal(t, "Empty QR data.", appErr.Message)
	}
	assert.Zero(t, dir.lookups.Load(), "empty input must not touch storage")
	assert.Zero(t, ledger.inserts)
}

func TestRecordScanUnknownIdentifier(t *testing.T) {
	ledger := newMockLedger()
	svc := newTestScanService(janeDirectory(), ledger)

	result, err := svc.RecordScan(context.Background(), "UNKNOWN", time.Now())
	require.NoError(t, err)
	assert.Equal(t, ScanOutcomeNotFound, result.Outcome)
	assert.False(t, result.Created)
	assert.Zero(t, ledger.inserts)
}

func TestRecordScanTrimsIdentifier(t *testing.T) {
	svc := newTestScanService(janeDirectory(), newMockLedger())

	result, err := svc.RecordScan(context.Background(), "  20240001  ", at(2024, time.January, 10, 8, 5))
	require.NoError(t, err)
	assert.Equal(t, ScanOutcomeCreated, result.Outcome)
}

func TestRecordScanTwiceSameDay(t *testing.T) {
	ledger := newMockLedger()
	svc := newTestScanService(janeDirectory(), ledger)

	first, err := svc.RecordScan(context.Background(), "20240001", at(2024, time.January, 10, 8, 5))
	require.NoError(t, err)
	assert.True(t, first.Created)
	assert.Equal(t, "08:05 AM", first.TimeIn)

	second, err := svc.RecordScan(context.Background(), "20240001", at(2024, time.January, 10, 9, 0))
	require.NoError(t, err)
	assert.False(t, second.Created)
	assert.Equal(t, "08:05 AM", second.TimeIn, "first recorded time wins")
	assert.Equal(t, 1, ledger.inserts)

	require.NotNil(t, second.Student)
	assert.Equal(t, "20240001", second.Student.StudentID)
	assert.Equal(t, "Doe", second.Student.LastName)
}

func TestRecordScanNextDayCreatesNewEvent(t *testing.T) {
	ledger := newMockLedger()
	svc := newTestScanService(janeDirectory(), ledger)

	_, err := svc.RecordScan(context.Background(), "20240001", at(2024, time.January, 10, 8, 5))
	require.NoError(t, err)

	next, err := svc.RecordScan(context.Background(), "20240001", at(2024, time.January, 11, 7, 42))
	require.NoError(t, err)
	assert.True(t, next.Created)
	assert.Equal(t, "07:42 AM", next.TimeIn)
	assert.Equal(t, 2, ledger.inserts)
}

func TestRecordScanAfternoonTimeFormat(t *testing.T) {
	svc := newTestScanService(janeDirectory(), newMockLedger())

	result, err := svc.RecordScan(context.Background(), "20240001", at(2024, time.January, 10, 13, 7))
	require.NoError(t, err)
	assert.Equal(t, "01:07 PM", result.TimeIn)
}

// racingLedger simulates losing the check-then-insert race: the existence
// check sees nothing, the insert hits the unique constraint, and the re-read
// returns the row the other writer created.
type racingLedger struct {
	winner models.AttendanceEvent
	raced  bool
}

func (l *racingLedger) FindEvent(ctx context.Context, studentRef int64, date time.Time) (*models.AttendanceEvent, error) {
	if l.raced {
		evt := l.winner
		return &evt, nil
	}
	return nil, nil
}

func (l *racingLedger) InsertEvent(ctx context.Context, event *models.AttendanceEvent) error {
	l.raced = true
	return appErrors.ErrDuplicateEvent
}

func TestRecordScanRecoversFromInsertRace(t *testing.T) {
	ledger := &racingLedger{winner: models.AttendanceEvent{
		ID: 7, StudentRef: 1, TimeIn: "07:59 AM",
	}}
	svc := newTestScanService(janeDirectory(), ledger)

	result, err := svc.RecordScan(context.Background(), "20240001", at(2024, time.January, 10, 8, 0))
	require.NoError(t, err, "duplicate insert must be recovered, not surfaced")
	assert.False(t, result.Created)
	assert.Equal(t, "07:59 AM", result.TimeIn)
}

func TestRecordScanConcurrentSingleEvent(t *testing.T) {
	ledger := newMockLedger()
	svc := newTestScanService(janeDirectory(), ledger)

	const workers = 16
	results := make([]*ScanResult, workers)
	errs := make([]error, workers)
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], errs[i] = svc.RecordScan(context.Background(), "20240001", at(2024, time.January, 10, 8, i))
		}(i)
	}
	wg.Wait()
	for i := 0; i < workers; i++ {
		require.NoError(t, errs[i])
		require.NotNil(t, results[i])
	}

	assert.Equal(t, 1, ledger.inserts, "exactly one event per (student, date)")

	created := 0
	timeIn := results[0].TimeIn
	for _, res := range results {
		if res.Created {
			created++
		}
		assert.Equal(t, timeIn, res.TimeIn, "every caller observes the winning time_in")
	}
	assert.Equal(t, 1, created)
}

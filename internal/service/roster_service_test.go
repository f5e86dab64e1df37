package service

import (
	"context"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/schoolscan/attendance-api/internal/models"
	appErrors "github.com/schoolscan/attendance-api/pkg/errors"
)

type mockRosterLedger struct {
	records []models.AttendanceRecord
	calls   int
}

func (m *mockRosterLedger) ListByDate(ctx context.Context, date time.Time) ([]models.AttendanceRecord, error) {
	m.calls++
	return m.records, nil
}

type mapCache struct {
	entries map[string][]byte
}

func newMapCache() *mapCache {
	return &mapCache{entries: make(map[string][]byte)}
}

func (c *mapCache) Get(ctx context.Context, key string, dest interface{}) error {
	raw, ok := c.entries[key]
	if !ok {
		return appErrors.ErrCacheMiss
	}
	return json.Unmarshal(raw, dest)
}

func (c *mapCache) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	c.entries[key] = raw
	return nil
}

func (c *mapCache) Delete(ctx context.Context, key string) error {
	delete(c.entries, key)
	return nil
}

func sampleRecords() []models.AttendanceRecord {
	return []models.AttendanceRecord{
		{
			AttendanceEvent: models.AttendanceEvent{ID: 1, StudentRef: 1, TimeIn: "08:05 AM"},
			StudentID:       "20240001", LastName: "Doe", FirstName: "Jane", Course: "BSIT", Level: "1",
		},
		{
			AttendanceEvent: models.AttendanceEvent{ID: 2, StudentRef: 2, TimeIn: "08:17 AM"},
			StudentID:       "20240002", LastName: "Cruz", FirstName: "Ana", Course: "BSCS", Level: "2",
		},
	}
}

func TestRosterListByDateMapsDisplayFields(t *testing.T) {
	ledger := &mockRosterLedger{records: sampleRecords()}
	svc := NewRosterService(ledger, nil, 0, nil)

	rows, err := svc.ListByDate(context.Background(), at(2024, time.January, 10, 12, 0))
	require.NoError(t, err)
	require.Len(t, rows, 2)

	assert.Equal(t, "Doe, Jane", rows[0].Name)
	assert.Equal(t, "BSIT - 1", rows[0].Course)
	assert.Equal(t, "08:05 AM", rows[0].TimeIn)
	assert.Equal(t, "20240002", rows[1].StudentID)
}

func TestRosterListByDateEmpty(t *testing.T) {
	svc := NewRosterService(&mockRosterLedger{}, nil, 0, nil)

	rows, err := svc.ListByDate(context.Background(), time.Now())
	require.NoError(t, err)
	assert.Empty(t, rows)
}

func TestRosterListByDateUsesCache(t *testing.T) {
	ledger := &mockRosterLedger{records: sampleRecords()}
	cache := newMapCache()
	svc := NewRosterService(ledger, cache, time.Minute, nil)
	date := at(2024, time.January, 10, 0, 0)

	_, err := svc.ListByDate(context.Background(), date)
	require.NoError(t, err)
	rows, err := svc.ListByDate(context.Background(), date)
	require.NoError(t, err)
	assert.Equal(t, 1, ledger.calls, "second read served from cache")
	assert.Len(t, rows, 2)

	svc.InvalidateDate(context.Background(), date)
	_, err = svc.ListByDate(context.Background(), date)
	require.NoError(t, err)
	assert.Equal(t, 2, ledger.calls, "invalidation forces a reload")
}

func TestRosterExportCSV(t *testing.T) {
	svc := NewRosterService(&mockRosterLedger{records: sampleRecords()}, nil, 0, nil)

	data, contentType, err := svc.Export(context.Background(), at(2024, time.January, 10, 0, 0), ExportFormatCSV)
	require.NoError(t, err)
	assert.Equal(t, "text/csv", contentType)

	body := string(data)
	assert.True(t, strings.HasPrefix(body, "Student ID,Name,Course,Time In\n"))
	assert.Contains(t, body, `20240001,"Doe, Jane",BSIT - 1,08:05 AM`)
}

func TestRosterExportPDF(t *testing.T) {
	svc := NewRosterService(&mockRosterLedger{records: sampleRecords()}, nil, 0, nil)

	data, contentType, err := svc.Export(context.Background(), at(2024, time.January, 10, 0, 0), ExportFormatPDF)
	require.NoError(t, err)
	assert.Equal(t, "application/pdf", contentType)
	assert.True(t, strings.HasPrefix(string(data), "%PDF"))
}

func TestRosterExportUnknownFormat(t *testing.T) {
	svc := NewRosterService(&mockRosterLedger{}, nil, 0, nil)

	_, _, err := svc.Export(context.Background(), time.Now(), ExportFormat("xlsx"))
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

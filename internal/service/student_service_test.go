package service

import (
	"context"
	"database/sql"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/schoolscan/attendance-api/internal/models"
	appErrors "github.com/schoolscan/attendance-api/pkg/errors"
)

type mockStudentRepo struct {
	students map[int64]models.Student
	nextID   int64
	deleted  []int64
}

func newMockStudentRepo() *mockStudentRepo {
	return &mockStudentRepo{students: make(map[int64]models.Student)}
}

func (m *mockStudentRepo) List(ctx context.Context, filter models.StudentFilter) ([]models.Student, int, error) {
	out := make([]models.Student, 0, len(m.students))
	for _, s := range m.students {
		out = append(out, s)
	}
	return out, len(out), nil
}

func (m *mockStudentRepo) FindByID(ctx context.Context, id int64) (*models.Student, error) {
	if s, ok := m.students[id]; ok {
		return &s, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockStudentRepo) Create(ctx context.Context, student *models.Student) error {
	for _, s := range m.students {
		if s.StudentID == student.StudentID {
			return appErrors.Clone(appErrors.ErrConflict, "student identifier already registered")
		}
	}
	m.nextID++
	student.ID = m.nextID
	m.students[student.ID] = *student
	return nil
}

func (m *mockStudentRepo) Update(ctx context.Context, student *models.Student) error {
	m.students[student.ID] = *student
	return nil
}

func (m *mockStudentRepo) Delete(ctx context.Context, id int64) error {
	m.deleted = append(m.deleted, id)
	delete(m.students, id)
	return nil
}

type mockLedgerCounter struct {
	counts map[int64]int
}

func (m *mockLedgerCounter) CountByStudent(ctx context.Context, studentRef int64) (int, error) {
	return m.counts[studentRef], nil
}

func TestStudentServiceCreateDefaultsQRValue(t *testing.T) {
	repo := newMockStudentRepo()
	svc := NewStudentService(repo, nil, nil, validator.New(), nil)

	student, err := svc.Create(context.Background(), CreateStudentRequest{
		StudentID: "20240001",
		LastName:  "Doe",
		FirstName: "Jane",
		Course:    "BSIT",
		Level:     "1",
	}, "", nil)
	require.NoError(t, err)
	assert.NotZero(t, student.ID)
	assert.Equal(t, "20240001", student.QRValue, "qr_value defaults to the public identifier")
}

func TestStudentServiceCreateValidation(t *testing.T) {
	svc := NewStudentService(newMockStudentRepo(), nil, nil, validator.New(), nil)

	_, err := svc.Create(context.Background(), CreateStudentRequest{LastName: "Doe"}, "", nil)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestStudentServiceCreateDuplicateIdentifier(t *testing.T) {
	repo := newMockStudentRepo()
	svc := NewStudentService(repo, nil, nil, validator.New(), nil)

	_, err := svc.Create(context.Background(), CreateStudentRequest{StudentID: "20240001", LastName: "Doe", FirstName: "Jane"}, "", nil)
	require.NoError(t, err)
	_, err = svc.Create(context.Background(), CreateStudentRequest{StudentID: "20240001", LastName: "Cruz", FirstName: "Ana"}, "", nil)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrConflict.Code, appErrors.FromError(err).Code)
}

func TestStudentServiceDeleteBlockedByAttendance(t *testing.T) {
	repo := newMockStudentRepo()
	repo.students[1] = models.Student{ID: 1, StudentID: "20240001"}
	ledger := &mockLedgerCounter{counts: map[int64]int{1: 3}}
	svc := NewStudentService(repo, ledger, nil, validator.New(), nil)

	err := svc.Delete(context.Background(), 1)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrConflict.Code, appErrors.FromError(err).Code)
	assert.Empty(t, repo.deleted)
}

func TestStudentServiceDeleteWithoutAttendance(t *testing.T) {
	repo := newMockStudentRepo()
	repo.students[1] = models.Student{ID: 1, StudentID: "20240001"}
	ledger := &mockLedgerCounter{counts: map[int64]int{}}
	svc := NewStudentService(repo, ledger, nil, validator.New(), nil)

	require.NoError(t, svc.Delete(context.Background(), 1))
	assert.Equal(t, []int64{1}, repo.deleted)
}

func TestStudentServiceGetNotFound(t *testing.T) {
	svc := NewStudentService(newMockStudentRepo(), nil, nil, validator.New(), nil)

	_, err := svc.Get(context.Background(), 42)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

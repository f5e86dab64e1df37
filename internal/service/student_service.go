package service

import (
	"context"
	"database/sql"
	"errors"
	"io"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/schoolscan/attendance-api/internal/models"
	appErrors "github.com/schoolscan/attendance-api/pkg/errors"
)

type studentRepository interface {
	List(ctx context.Context, filter models.StudentFilter) ([]models.Student, int, error)
	FindByID(ctx context.Context, id int64) (*models.Student, error)
	Create(ctx context.Context, student *models.Student) error
	Update(ctx context.Context, student *models.Student) error
	Delete(ctx context.Context, id int64) error
}

type ledgerCounter interface {
	CountByStudent(ctx context.Context, studentRef int64) (int, error)
}

type avatarStorage interface {
	Save(originalName string, r io.Reader) (string, error)
	Delete(name string) error
	URL(name *string) *string
}

// StudentView is a student with the photo reference resolved to a URL.
type StudentView struct {
	models.Student
	PhotoURL *string `json:"photo_url"`
}

// CreateStudentRequest is the payload for registering a student.
type CreateStudentRequest struct {
	StudentID string `json:"student_id" validate:"required"`
	LastName  string `json:"last_name" validate:"required"`
	FirstName string `json:"first_name" validate:"required"`
	Course    string `json:"course"`
	Level     string `json:"level"`
	QRValue   string `json:"qr_value"`
}

// UpdateStudentRequest is the payload for editing a student.
type UpdateStudentRequest struct {
	StudentID string `json:"student_id" validate:"required"`
	LastName  string `json:"last_name" validate:"required"`
	FirstName string `json:"first_name" validate:"required"`
	Course    string `json:"course"`
	Level     string `json:"level"`
	QRValue   string `json:"qr_value"`
}

// StudentService manages the student directory. Attendance code only reads
// it; all writes go through here.
type StudentService struct {
	repo      studentRepository
	ledger    ledgerCounter
	avatars   avatarStorage
	validator *validator.Validate
	logger    *zap.Logger
}

// NewStudentService constructs a StudentService.
func NewStudentService(repo studentRepository, ledger ledgerCounter, avatars avatarStorage, validate *validator.Validate, logger *zap.Logger) *StudentService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &StudentService{repo: repo, ledger: ledger, avatars: avatars, validator: validate, logger: logger}
}

// List returns students with pagination metadata.
func (s *StudentService) List(ctx context.Context, filter models.StudentFilter) ([]StudentView, *models.Pagination, error) {
	students, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list students")
	}
	views := make([]StudentView, 0, len(students))
	for _, student := range students {
		views = append(views, s.view(student))
	}
	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 || size > 200 {
		size = 50
	}
	return views, &models.Pagination{Page: page, PageSize: size, TotalCount: total}, nil
}

// Get returns a single student by surrogate key.
func (s *StudentService) Get(ctx context.Context, id int64) (*StudentView, error) {
	student, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "student not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to fetch student")
	}
	view := s.view(*student)
	return &view, nil
}

// Create registers a new student. QRValue defaults to the public identifier.
func (s *StudentService) Create(ctx context.Context, req CreateStudentRequest, photoName string, photo io.Reader) (*StudentView, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid student payload")
	}

	student := models.Student{
		StudentID: strings.TrimSpace(req.StudentID),
		LastName:  strings.TrimSpace(req.LastName),
		FirstName: strings.TrimSpace(req.FirstName),
		Course:    strings.TrimSpace(req.Course),
		Level:     strings.TrimSpace(req.Level),
		QRValue:   strings.TrimSpace(req.QRValue),
	}
	if student.QRValue == "" {
		student.QRValue = student.StudentID
	}

	if photo != nil && s.avatars != nil {
		name, err := s.avatars.Save(photoName, photo)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to store photo")
		}
		student.PhotoPath = &name
	}

	if err := s.repo.Create(ctx, &student); err != nil {
		if student.PhotoPath != nil && s.avatars != nil {
			_ = s.avatars.Delete(*student.PhotoPath)
		}
		return nil, err
	}

	s.logger.Info("student created", zap.Int64("id", student.ID), zap.String("student_id", student.StudentID))
	view := s.view(student)
	return &view, nil
}

// Update edits an existing student, optionally replacing the photo.
func (s *StudentService) Update(ctx context.Context, id int64, req UpdateStudentRequest, photoName string, photo io.Reader) (*StudentView, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid student payload")
	}

	student, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "student not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to fetch student")
	}

	student.StudentID = strings.TrimSpace(req.StudentID)
	student.LastName = strings.TrimSpace(req.LastName)
	student.FirstName = strings.TrimSpace(req.FirstName)
	student.Course = strings.TrimSpace(req.Course)
	student.Level = strings.TrimSpace(req.Level)
	if qr := strings.TrimSpace(req.QRValue); qr != "" {
		student.QRValue = qr
	} else {
		student.QRValue = student.StudentID
	}

	var previousPhoto *string
	if photo != nil && s.avatars != nil {
		name, err := s.avatars.Save(photoName, photo)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to store photo")
		}
		previousPhoto = student.PhotoPath
		student.PhotoPath = &name
	}

	if err := s.repo.Update(ctx, student); err != nil {
		return nil, err
	}
	if previousPhoto != nil && s.avatars != nil {
		_ = s.avatars.Delete(*previousPhoto)
	}

	view := s.view(*student)
	return &view, nil
}

// Delete removes a student. Students with recorded attendance cannot be
// deleted; the ledger must not end up referencing a missing student.
func (s *StudentService) Delete(ctx context.Context, id int64) error {
	student, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "student not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to fetch student")
	}

	if s.ledger != nil {
		count, err := s.ledger.CountByStudent(ctx, id)
		if err != nil {
			return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check attendance")
		}
		if count > 0 {
			return appErrors.Clone(appErrors.ErrConflict, "student has attendance records")
		}
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete student")
	}
	if student.PhotoPath != nil && s.avatars != nil {
		_ = s.avatars.Delete(*student.PhotoPath)
	}
	return nil
}

func (s *StudentService) view(student models.Student) StudentView {
	view := StudentView{Student: student}
	if s.avatars != nil {
		view.PhotoURL = s.avatars.URL(student.PhotoPath)
	}
	return view
}

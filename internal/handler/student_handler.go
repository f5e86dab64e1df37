package handler

import (
	"io"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/schoolscan/attendance-api/internal/models"
	"github.com/schoolscan/attendance-api/internal/service"
	appErrors "github.com/schoolscan/attendance-api/pkg/errors"
	"github.com/schoolscan/attendance-api/pkg/response"
)

// StudentHandler exposes student directory endpoints. Create and Update
// accept multipart forms so the admin UI can attach a photo.
type StudentHandler struct {
	students *service.StudentService
}

// NewStudentHandler constructs StudentHandler.
func NewStudentHandler(students *service.StudentService) *StudentHandler {
	return &StudentHandler{students: students}
}

// List godoc
// @Summary List students
// @Tags Students
// @Produce json
// @Param search query string false "Search by name or student ID"
// @Param page query int false "Page"
// @Param limit query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /students [get]
func (h *StudentHandler) List(c *gin.Context) {
	var filter models.StudentFilter
	filter.Search = strings.TrimSpace(c.Query("search"))
	if page, err := strconv.Atoi(c.DefaultQuery("page", "1")); err == nil {
		filter.Page = page
	}
	if size, err := strconv.Atoi(c.DefaultQuery("limit", "50")); err == nil {
		filter.PageSize = size
	}

	students, pagination, err := h.students.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, students, pagination)
}

// Get godoc
// @Summary Get student detail
// @Tags Students
// @Produce json
// @Param id path int true "Student ID"
// @Success 200 {object} response.Envelope
// @Router /students/{id} [get]
func (h *StudentHandler) Get(c *gin.Context) {
	id, err := parseID(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	student, err := h.students.Get(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, student, nil)
}

// Create godoc
// @Summary Register a student
// @Tags Students
// @Accept multipart/form-data
// @Produce json
// @Success 201 {object} response.Envelope
// @Router /students [post]
func (h *StudentHandler) Create(c *gin.Context) {
	req := service.CreateStudentRequest{
		StudentID: c.PostForm("student_id"),
		LastName:  c.PostForm("last_name"),
		FirstName: c.PostForm("first_name"),
		Course:    c.PostForm("course"),
		Level:     c.PostForm("level"),
		QRValue:   c.PostForm("qr_value"),
	}
	name, photo := formPhoto(c)
	if photo != nil {
		defer photo.Close() //nolint:errcheck
	}

	student, err := h.students.Create(c.Request.Context(), req, name, readerOrNil(photo))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, student)
}

// Update godoc
// @Summary Edit a student
// @Tags Students
// @Accept multipart/form-data
// @Produce json
// @Param id path int true "Student ID"
// @Success 200 {object} response.Envelope
// @Router /students/{id} [put]
func (h *StudentHandler) Update(c *gin.Context) {
	id, err := parseID(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	req := service.UpdateStudentRequest{
		StudentID: c.PostForm("student_id"),
		LastName:  c.PostForm("last_name"),
		FirstName: c.PostForm("first_name"),
		Course:    c.PostForm("course"),
		Level:     c.PostForm("level"),
		QRValue:   c.PostForm("qr_value"),
	}
	name, photo := formPhoto(c)
	if photo != nil {
		defer photo.Close() //nolint:errcheck
	}

	student, err := h.students.Update(c.Request.Context(), id, req, name, readerOrNil(photo))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, student, nil)
}

// Delete godoc
// @Summary Delete a student
// @Tags Students
// @Param id path int true "Student ID"
// @Success 204
// @Router /students/{id} [delete]
func (h *StudentHandler) Delete(c *gin.Context) {
	id, err := parseID(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	if err := h.students.Delete(c.Request.Context(), id); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

func parseID(c *gin.Context) (int64, error) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return 0, appErrors.Clone(appErrors.ErrValidation, "invalid id")
	}
	return id, nil
}

func formPhoto(c *gin.Context) (string, multipart.File) {
	fileHeader, err := c.FormFile("photo")
	if err != nil {
		return "", nil
	}
	file, err := fileHeader.Open()
	if err != nil {
		return "", nil
	}
	return fileHeader.Filename, file
}

func readerOrNil(f multipart.File) io.Reader {
	if f == nil {
		return nil
	}
	return f
}

package handler

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/schoolscan/attendance-api/internal/models"
	"github.com/schoolscan/attendance-api/internal/service"
	appErrors "github.com/schoolscan/attendance-api/pkg/errors"
	"github.com/schoolscan/attendance-api/pkg/response"
)

type rosterQuery interface {
	ListByDate(ctx context.Context, date time.Time) ([]service.RosterRow, error)
	Export(ctx context.Context, date time.Time, format service.ExportFormat) ([]byte, string, error)
}

// RosterHandler exposes the daily attendance roster.
type RosterHandler struct {
	rosters rosterQuery
	clock   func() time.Time
}

// NewRosterHandler constructs a RosterHandler. clock defaults to time.Now.
func NewRosterHandler(rosters rosterQuery, clock func() time.Time) *RosterHandler {
	if clock == nil {
		clock = time.Now
	}
	return &RosterHandler{rosters: rosters, clock: clock}
}

func (h *RosterHandler) resolveDate(c *gin.Context) (time.Time, error) {
	raw := c.Query("date")
	if raw == "" {
		return models.DateOnly(h.clock()), nil
	}
	date, err := time.ParseInLocation(models.DateLayout, raw, h.clock().Location())
	if err != nil {
		return time.Time{}, appErrors.Clone(appErrors.ErrValidation, "date must be YYYY-MM-DD")
	}
	return date, nil
}

// List godoc
// @Summary List attendance for a date
// @Tags Attendance
// @Produce json
// @Param date query string false "Date (YYYY-MM-DD), defaults to today"
// @Success 200 {object} response.Envelope
// @Router /attendance [get]
func (h *RosterHandler) List(c *gin.Context) {
	date, err := h.resolveDate(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	rows, err := h.rosters.ListByDate(c.Request.Context(), date)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, rows, nil)
}

// Export godoc
// @Summary Download the roster for a date as CSV or PDF
// @Tags Attendance
// @Produce octet-stream
// @Param date query string false "Date (YYYY-MM-DD), defaults to today"
// @Param format query string false "csv or pdf" default(csv)
// @Success 200 {file} binary
// @Router /attendance/export [get]
func (h *RosterHandler) Export(c *gin.Context) {
	date, err := h.resolveDate(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	format := service.ExportFormat(c.DefaultQuery("format", "csv"))
	data, contentType, err := h.rosters.Export(c.Request.Context(), date, format)
	if err != nil {
		response.Error(c, err)
		return
	}
	filename := fmt.Sprintf("attendance-%s.%s", date.Format(models.DateLayout), format)
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	c.Data(http.StatusOK, contentType, data)
}

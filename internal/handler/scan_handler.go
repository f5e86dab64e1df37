package handler

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/schoolscan/attendance-api/internal/service"
	appErrors "github.com/schoolscan/attendance-api/pkg/errors"
)

type scanRecorder interface {
	RecordScan(ctx context.Context, qrData string, now time.Time) (*service.ScanResult, error)
}

// ScanHandler exposes the QR scan endpoint consumed by the scanner kiosk.
// Its wire contract is fixed by the existing frontend: a flat status field,
// not the envelope the admin endpoints use.
type ScanHandler struct {
	scans scanRecorder
	clock func() time.Time
}

// NewScanHandler constructs a ScanHandler. clock defaults to time.Now.
func NewScanHandler(scans scanRecorder, clock func() time.Time) *ScanHandler {
	if clock == nil {
		clock = time.Now
	}
	return &ScanHandler{scans: scans, clock: clock}
}

type scanRequest struct {
	QRText string `json:"qr_text"`
}

type scanOKResponse struct {
	Status  string               `json:"status"`
	Created bool                 `json:"created"`
	TimeIn  string               `json:"time_in"`
	Student *service.ScanStudent `json:"student"`
}

// Scan godoc
// @Summary Record attendance from a scanned QR code
// @Tags Attendance
// @Accept json
// @Produce json
// @Param payload body scanRequest true "Scanned QR payload"
// @Success 200 {object} scanOKResponse
// @Router /scan [post]
func (h *ScanHandler) Scan(c *gin.Context) {
	var req scanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"status": "error", "message": "Invalid scan payload."})
		return
	}

	result, err := h.scans.RecordScan(c.Request.Context(), req.QRText, h.clock())
	if err != nil {
		var appErr *appErrors.Error
		if errors.As(err, &appErr) && appErr.Code == appErrors.ErrValidation.Code {
			c.JSON(http.StatusBadRequest, gin.H{"status": "error", "message": appErr.Message})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"status": "error", "message": "Server error while processing QR."})
		return
	}

	if result.Outcome == service.ScanOutcomeNotFound {
		c.JSON(http.StatusOK, gin.H{"status": "not_found", "message": "Student not found for this QR."})
		return
	}

	c.JSON(http.StatusOK, scanOKResponse{
		Status:  "ok",
		Created: result.Created,
		TimeIn:  result.TimeIn,
		Student: result.Student,
	})
}

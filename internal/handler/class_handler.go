package handler

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/AureRaso/padel-club-api/internal/models"
	"github.com/AureRaso/padel-club-api/internal/service"
	appErrors "github.com/AureRaso/padel-club-api/pkg/errors"
	"github.com/AureRaso/padel-club-api/pkg/export"
	"github.com/AureRaso/padel-club-api/pkg/response"
)

type occurrenceReader interface {
	Occurrence(ctx context.Context, classID string, date time.Time) (*models.ClassOccurrence, error)
}

type eligibilityService interface {
	Evaluate(ctx context.Context, classID string, classDate time.Time, claims *models.JWTClaims) (*service.EligibilityResult, error)
}

type classWaitlistLister interface {
	ListForClass(ctx context.Context, classID, classDate string) ([]models.WaitlistEntryDetail, error)
}

// ClassHandler exposes the class occurrence read path.
type ClassHandler struct {
	classes     occurrenceReader
	eligibility eligibilityService
	waitlist    classWaitlistLister
}

// NewClassHandler constructs ClassHandler.
func NewClassHandler(classes occurrenceReader, eligibility eligibilityService, waitlist classWaitlistLister) *ClassHandler {
	return &ClassHandler{classes: classes, eligibility: eligibility, waitlist: waitlist}
}

// Occurrence godoc
// @Summary Get a class occurrence with live availability
// @Tags Classes
// @Produce json
// @Param id path string true "Class ID"
// @Param date path string true "Occurrence date (YYYY-MM-DD)"
// @Success 200 {object} response.Envelope
// @Router /classes/{id}/occurrences/{date} [get]
func (h *ClassHandler) Occurrence(c *gin.Context) {
	date, err := parseDateParam(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	occurrence, err := h.classes.Occurrence(c.Request.Context(), c.Param("id"), date)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			response.Error(c, appErrors.Clone(appErrors.ErrNotFound, "class not found"))
			return
		}
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, occurrence, nil)
}

// Eligibility godoc
// @Summary Check whether the caller can join the waitlist
// @Tags Classes
// @Produce json
// @Param id path string true "Class ID"
// @Param date path string true "Occurrence date (YYYY-MM-DD)"
// @Success 200 {object} response.Envelope
// @Router /classes/{id}/occurrences/{date}/eligibility [get]
func (h *ClassHandler) Eligibility(c *gin.Context) {
	date, err := parseDateParam(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	result, err := h.eligibility.Evaluate(c.Request.Context(), c.Param("id"), date, claimsFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, nil)
}

// Waitlist godoc
// @Summary List the pending waitlist for an occurrence in arrival order
// @Tags Classes
// @Produce json
// @Param id path string true "Class ID"
// @Param date path string true "Occurrence date (YYYY-MM-DD)"
// @Param format query string false "Set to csv for a CSV download"
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /classes/{id}/waitlist/{date} [get]
func (h *ClassHandler) Waitlist(c *gin.Context) {
	entries, err := h.waitlist.ListForClass(c.Request.Context(), c.Param("id"), c.Param("date"))
	if err != nil {
		response.Error(c, err)
		return
	}
	if c.Query("format") == "csv" {
		h.writeWaitlistCSV(c, entries)
		return
	}
	response.JSON(c, http.StatusOK, entries, nil)
}

func (h *ClassHandler) writeWaitlistCSV(c *gin.Context, entries []models.WaitlistEntryDetail) {
	rows := make([][]string, 0, len(entries))
	for _, e := range entries {
		className := ""
		if e.ClassName != nil {
			className = *e.ClassName
		}
		rows = append(rows, []string{
			e.ID,
			e.StudentName,
			e.StudentEmail,
			className,
			e.ClassDate.Format(service.ClassDateLayout),
			string(e.Status),
			e.RequestedAt.Format(time.RFC3339),
		})
	}
	data, err := export.CSV([]string{"id", "student_name", "student_email", "class", "class_date", "status", "requested_at"}, rows)
	if err != nil {
		response.Error(c, err)
		return
	}
	c.Header("Content-Disposition", `attachment; filename="waitlist.csv"`)
	c.Data(http.StatusOK, "text/csv", data)
}

func parseDateParam(c *gin.Context) (time.Time, error) {
	date, err := time.Parse(service.ClassDateLayout, c.Param("date"))
	if err != nil {
		return time.Time{}, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid date, expected YYYY-MM-DD")
	}
	return date, nil
}

package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/AureRaso/padel-club-api/internal/models"
	appErrors "github.com/AureRaso/padel-club-api/pkg/errors"
	"github.com/AureRaso/padel-club-api/pkg/response"
)

type attendanceService interface {
	ConfirmAttendance(ctx context.Context, participantID, classDate string, claims *models.JWTClaims) (*models.ClassParticipant, error)
	ConfirmAbsence(ctx context.Context, participantID, classDate string, claims *models.JWTClaims) (*models.ClassParticipant, error)
}

type attendancePayload struct {
	ClassDate string `json:"class_date" binding:"required"`
}

// ParticipantHandler exposes attendance confirmation endpoints.
type ParticipantHandler struct {
	attendance attendanceService
}

// NewParticipantHandler constructs ParticipantHandler.
func NewParticipantHandler(attendance attendanceService) *ParticipantHandler {
	return &ParticipantHandler{attendance: attendance}
}

// ConfirmAttendance godoc
// @Summary Confirm attendance for an occurrence
// @Tags Participants
// @Accept json
// @Produce json
// @Param id path string true "Participant ID"
// @Param payload body attendancePayload true "Occurrence date"
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /participants/{id}/attendance/confirm [post]
func (h *ParticipantHandler) ConfirmAttendance(c *gin.Context) {
	var req attendancePayload
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	participant, err := h.attendance.ConfirmAttendance(c.Request.Context(), c.Param("id"), req.ClassDate, claimsFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, participant, nil)
}

// ConfirmAbsence godoc
// @Summary Confirm absence for an occurrence, freeing the spot for that date
// @Tags Participants
// @Accept json
// @Produce json
// @Param id path string true "Participant ID"
// @Param payload body attendancePayload true "Occurrence date"
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /participants/{id}/attendance/absence [post]
func (h *ParticipantHandler) ConfirmAbsence(c *gin.Context) {
	var req attendancePayload
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	participant, err := h.attendance.ConfirmAbsence(c.Request.Context(), c.Param("id"), req.ClassDate, claimsFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, participant, nil)
}

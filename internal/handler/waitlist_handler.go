package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/AureRaso/padel-club-api/internal/models"
	"github.com/AureRaso/padel-club-api/internal/service"
	appErrors "github.com/AureRaso/padel-club-api/pkg/errors"
	"github.com/AureRaso/padel-club-api/pkg/response"
)

type waitlistService interface {
	Join(ctx context.Context, req service.JoinWaitlistRequest, claims *models.JWTClaims) (*models.WaitlistEntry, error)
	MyRequests(ctx context.Context, claims *models.JWTClaims) ([]models.WaitlistEntryDetail, error)
}

type acceptanceService interface {
	Accept(ctx context.Context, waitlistID string, req service.AcceptWaitlistRequest, claims *models.JWTClaims) (*service.AcceptWaitlistResponse, error)
	Reject(ctx context.Context, waitlistID string, req service.RejectWaitlistRequest, claims *models.JWTClaims) (*models.WaitlistEntryDetail, error)
}

// WaitlistHandler exposes the waitlist endpoints.
type WaitlistHandler struct {
	waitlist   waitlistService
	acceptance acceptanceService
	metrics    *service.MetricsService
}

// NewWaitlistHandler constructs WaitlistHandler.
func NewWaitlistHandler(waitlist waitlistService, acceptance acceptanceService, metrics *service.MetricsService) *WaitlistHandler {
	return &WaitlistHandler{waitlist: waitlist, acceptance: acceptance, metrics: metrics}
}

// Join godoc
// @Summary Join the waitlist for a class occurrence
// @Tags Waitlist
// @Accept json
// @Produce json
// @Param payload body service.JoinWaitlistRequest true "Class occurrence"
// @Success 201 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Security BearerAuth
// @Router /waitlist [post]
func (h *WaitlistHandler) Join(c *gin.Context) {
	var req service.JoinWaitlistRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	entry, err := h.waitlist.Join(c.Request.Context(), req, claimsFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	h.metrics.RecordWaitlistJoin()
	response.Created(c, entry)
}

// Mine godoc
// @Summary List the caller's waitlist requests
// @Tags Waitlist
// @Produce json
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /waitlist/mine [get]
func (h *WaitlistHandler) Mine(c *gin.Context) {
	entries, err := h.waitlist.MyRequests(c.Request.Context(), claimsFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, entries, nil)
}

// Accept godoc
// @Summary Accept a pending waitlist entry
// @Tags Waitlist
// @Accept json
// @Produce json
// @Param id path string true "Waitlist entry ID"
// @Param payload body service.AcceptWaitlistRequest true "Class occurrence"
// @Success 200 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Security BearerAuth
// @Router /waitlist/{id}/accept [post]
func (h *WaitlistHandler) Accept(c *gin.Context) {
	var req service.AcceptWaitlistRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	result, err := h.acceptance.Accept(c.Request.Context(), c.Param("id"), req, claimsFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	h.metrics.RecordResolution("accepted")
	response.JSON(c, http.StatusOK, result, nil)
}

// Reject godoc
// @Summary Reject a pending waitlist entry
// @Tags Waitlist
// @Accept json
// @Produce json
// @Param id path string true "Waitlist entry ID"
// @Param payload body service.RejectWaitlistRequest false "Optional note"
// @Success 200 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Security BearerAuth
// @Router /waitlist/{id}/reject [post]
func (h *WaitlistHandler) Reject(c *gin.Context) {
	var req service.RejectWaitlistRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
			return
		}
	}
	detail, err := h.acceptance.Reject(c.Request.Context(), c.Param("id"), req, claimsFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	h.metrics.RecordResolution("rejected")
	response.JSON(c, http.StatusOK, detail, nil)
}

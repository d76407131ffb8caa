package service

import (
	"context"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/AureRaso/padel-club-api/internal/models"
	"github.com/AureRaso/padel-club-api/internal/realtime"
	"github.com/AureRaso/padel-club-api/internal/repository"
	appErrors "github.com/AureRaso/padel-club-api/pkg/errors"
)

type acceptanceRepository interface {
	AcceptEntry(ctx context.Context, params repository.AcceptParams) (*repository.AcceptResult, error)
	RejectEntry(ctx context.Context, params repository.RejectParams) (*models.WaitlistEntryDetail, error)
}

type dispatcherWaker interface {
	Wake()
}

// AcceptWaitlistRequest identifies the entry an admin accepts.
type AcceptWaitlistRequest struct {
	ClassID   string `json:"class_id" validate:"required"`
	ClassDate string `json:"class_date" validate:"required,datetime=2006-01-02"`
}

// RejectWaitlistRequest carries the optional rejection note.
type RejectWaitlistRequest struct {
	Notes *string `json:"notes,omitempty"`
}

// AcceptWaitlistResponse reports the accepted entry, the participant it
// produced and the sibling entries expired by the acceptance.
type AcceptWaitlistResponse struct {
	Entry       models.WaitlistEntry         `json:"entry"`
	Participant models.ClassParticipant      `json:"participant"`
	Expired     []models.WaitlistEntryDetail `json:"expired"`
}

// AcceptanceService orchestrates the terminal waitlist transitions. The
// transactional workflow itself lives in the repository; this layer guards
// authorisation, wakes the dispatcher and emits invalidation.
type AcceptanceService struct {
	repo       acceptanceRepository
	publisher  changePublisher
	dispatcher dispatcherWaker
	validator  *validator.Validate
	logger     *zap.Logger
}

// NewAcceptanceService constructs an AcceptanceService.
func NewAcceptanceService(repo acceptanceRepository, publisher changePublisher, dispatcher dispatcherWaker, validate *validator.Validate, logger *zap.Logger) *AcceptanceService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AcceptanceService{repo: repo, publisher: publisher, dispatcher: dispatcher, validator: validate, logger: logger}
}

// Accept admits one pending entry. The repository recounts capacity under a
// class-row lock, creates the substitute participant, marks the entry
// accepted and expires every other pending entry for the occurrence, all in
// one transaction. Notification delivery happens asynchronously and never
// affects the outcome.
func (s *AcceptanceService) Accept(ctx context.Context, waitlistID string, req AcceptWaitlistRequest, claims *models.JWTClaims) (*AcceptWaitlistResponse, error) {
	if !claims.IsStaff() {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "only admins and trainers can accept waitlist entries")
	}
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid accept payload")
	}
	classDate, err := time.Parse(ClassDateLayout, req.ClassDate)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid class date")
	}

	result, err := s.repo.AcceptEntry(ctx, repository.AcceptParams{
		WaitlistID: waitlistID,
		ClassID:    req.ClassID,
		ClassDate:  classDate,
		AcceptedBy: claims.UserID,
	})
	if err != nil {
		return nil, err
	}

	s.afterMutation(ctx, req.ClassID, classDate, true)
	s.logger.Info("waitlist entry accepted",
		zap.String("waitlist_id", waitlistID),
		zap.String("class_id", req.ClassID),
		zap.String("class_date", req.ClassDate),
		zap.String("accepted_by", claims.UserID),
		zap.Int("expired_siblings", len(result.Expired)))

	return &AcceptWaitlistResponse{
		Entry:       result.Entry,
		Participant: result.Participant,
		Expired:     result.Expired,
	}, nil
}

// Reject transitions a single pending entry to rejected. Siblings keep their
// place in the queue.
func (s *AcceptanceService) Reject(ctx context.Context, waitlistID string, req RejectWaitlistRequest, claims *models.JWTClaims) (*models.WaitlistEntryDetail, error) {
	if !claims.IsStaff() {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "only admins and trainers can reject waitlist entries")
	}

	detail, err := s.repo.RejectEntry(ctx, repository.RejectParams{
		WaitlistID: waitlistID,
		RejectedBy: claims.UserID,
		Notes:      req.Notes,
	})
	if err != nil {
		return nil, err
	}

	s.afterMutation(ctx, detail.ClassID, detail.ClassDate, false)
	s.logger.Info("waitlist entry rejected",
		zap.String("waitlist_id", waitlistID),
		zap.String("class_id", detail.ClassID),
		zap.String("rejected_by", claims.UserID))
	return detail, nil
}

func (s *AcceptanceService) afterMutation(ctx context.Context, classID string, classDate time.Time, participantsChanged bool) {
	s.publisher.Publish(ctx, realtime.TableClassWaitlist, classID, classDate)
	if participantsChanged {
		s.publisher.Publish(ctx, realtime.TableClassParticipants, classID, classDate)
	}
	if s.dispatcher != nil {
		s.dispatcher.Wake()
	}
}

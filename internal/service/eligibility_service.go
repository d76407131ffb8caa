package service

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/AureRaso/padel-club-api/internal/models"
	appErrors "github.com/AureRaso/padel-club-api/pkg/errors"
)

// JoinCutoff is how long before class start the waitlist closes. Fixed
// business rule, not configurable per class.
const JoinCutoff = 3 * time.Hour

// EligibilityReason explains why a caller can or cannot join a waitlist.
type EligibilityReason string

// Eligibility reason codes, ordered by evaluation priority.
const (
	ReasonEligible         EligibilityReason = "eligible"
	ReasonClassNotFound    EligibilityReason = "class_not_found"
	ReasonClassInactive    EligibilityReason = "class_inactive"
	ReasonClassEnded       EligibilityReason = "class_ended"
	ReasonTooLate          EligibilityReason = "too_late"
	ReasonNotAuthenticated EligibilityReason = "not_authenticated"
	ReasonWrongClub        EligibilityReason = "wrong_club"
	ReasonNoEnrollment     EligibilityReason = "no_enrollment"
	ReasonAlreadyEnrolled  EligibilityReason = "already_enrolled"
	ReasonAlreadyInList    EligibilityReason = "already_in_waitlist"
	ReasonAlreadyAccepted  EligibilityReason = "already_accepted"
	// ReasonSpotsAvailable keeps the wire value the web client has always
	// received when the class still has open spots.
	ReasonSpotsAvailable EligibilityReason = "class_full"
)

// EligibilityResult is the structured outcome of an eligibility check.
// Failing reasons are expected, user-facing results rather than errors.
type EligibilityResult struct {
	CanJoin      bool              `json:"canJoin"`
	Reason       EligibilityReason `json:"reason"`
	Message      string            `json:"message"`
	EnrollmentID string            `json:"enrollmentId,omitempty"`
}

type eligibilityClassReader interface {
	FindByID(ctx context.Context, id string) (*models.ProgrammedClass, error)
	CountActiveParticipants(ctx context.Context, classID string, date time.Time) (int, error)
}

type eligibilityEnrollmentReader interface {
	FindActiveByEmailAndClub(ctx context.Context, email, clubID string) (*models.StudentEnrollment, error)
}

type eligibilityParticipantReader interface {
	ExistsActive(ctx context.Context, classID, enrollmentID string) (bool, error)
}

type eligibilityWaitlistReader interface {
	HasOpenEntry(ctx context.Context, classID string, classDate time.Time, enrollmentID string) (*models.WaitlistEntry, error)
}

// EligibilityService decides whether a caller may join the waitlist for a
// class occurrence. It is read-only and safe to call repeatedly.
type EligibilityService struct {
	classes      eligibilityClassReader
	enrollments  eligibilityEnrollmentReader
	participants eligibilityParticipantReader
	waitlist     eligibilityWaitlistReader
	logger       *zap.Logger

	now func() time.Time
}

// NewEligibilityService constructs an EligibilityService.
func NewEligibilityService(classes eligibilityClassReader, enrollments eligibilityEnrollmentReader, participants eligibilityParticipantReader, waitlist eligibilityWaitlistReader, logger *zap.Logger) *EligibilityService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &EligibilityService{
		classes:      classes,
		enrollments:  enrollments,
		participants: participants,
		waitlist:     waitlist,
		logger:       logger,
		now:          time.Now,
	}
}

// Evaluate runs the decision chain for (class, date, caller). Conditions
// short-circuit on the first failure: the order determines which message an
// ineligible caller sees, and the time-window checks deliberately precede the
// authentication check so anonymous users still get accurate scheduling info.
func (s *EligibilityService) Evaluate(ctx context.Context, classID string, classDate time.Time, claims *models.JWTClaims) (*EligibilityResult, error) {
	cls, err := s.classes.FindByID(ctx, classID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return fail(ReasonClassNotFound, "class not found"), nil
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load class")
	}
	if !cls.IsActive {
		return fail(ReasonClassInactive, "class is no longer active"), nil
	}

	start, err := cls.OccurrenceStart(classDate)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to resolve class schedule")
	}
	end := start.Add(time.Duration(cls.DurationMinutes) * time.Minute)
	now := s.now()
	if !now.Before(end) {
		return fail(ReasonClassEnded, "class already ended"), nil
	}
	if !now.Before(start.Add(-JoinCutoff)) {
		return fail(ReasonTooLate, "the waitlist closes 3 hours before class start"), nil
	}

	if claims == nil {
		return fail(ReasonNotAuthenticated, "sign in to join the waitlist"), nil
	}
	if claims.ClubID != "" && claims.ClubID != cls.ClubID {
		return fail(ReasonWrongClub, "class belongs to a different club"), nil
	}

	enrollment, err := s.enrollments.FindActiveByEmailAndClub(ctx, claims.Email, cls.ClubID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load enrollment")
	}
	if enrollment == nil {
		return fail(ReasonNoEnrollment, "no active enrollment in this club"), nil
	}

	isParticipant, err := s.participants.ExistsActive(ctx, classID, enrollment.ID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check class membership")
	}
	if isParticipant {
		return fail(ReasonAlreadyEnrolled, "already a participant of this class"), nil
	}

	open, err := s.waitlist.HasOpenEntry(ctx, classID, classDate, enrollment.ID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check waitlist")
	}
	if open != nil {
		if open.Status == models.WaitlistStatusAccepted {
			return fail(ReasonAlreadyAccepted, "already accepted for this class"), nil
		}
		return fail(ReasonAlreadyInList, "already on the waitlist for this class"), nil
	}

	// Joining is permitted only when the occurrence is full; with spots
	// still open the student books directly instead.
	count, err := s.classes.CountActiveParticipants(ctx, classID, classDate)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to count participants")
	}
	if count < cls.MaxParticipants {
		return fail(ReasonSpotsAvailable, "class still has open spots, book directly"), nil
	}

	return &EligibilityResult{
		CanJoin:      true,
		Reason:       ReasonEligible,
		Message:      "you can join the waitlist",
		EnrollmentID: enrollment.ID,
	}, nil
}

func fail(reason EligibilityReason, message string) *EligibilityResult {
	return &EligibilityResult{CanJoin: false, Reason: reason, Message: message}
}

package service

import (
	"context"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/AureRaso/padel-club-api/internal/models"
	"github.com/AureRaso/padel-club-api/internal/realtime"
	appErrors "github.com/AureRaso/padel-club-api/pkg/errors"
)

// VisibilityGrace is how long processed entries stay visible in the caller's
// own waitlist view after the relevant occurrence boundary.
const VisibilityGrace = time.Hour

// ClassDateLayout is the wire format for occurrence dates.
const ClassDateLayout = "2006-01-02"

type waitlistWriter interface {
	Insert(ctx context.Context, classID string, classDate time.Time, enrollmentID string) (*models.WaitlistEntry, error)
	ListByClassAndDate(ctx context.Context, classID string, classDate time.Time, status models.WaitlistStatus) ([]models.WaitlistEntryDetail, error)
	ListByEnrollments(ctx context.Context, enrollmentIDs []string) ([]models.WaitlistEntryDetail, error)
}

type enrollmentLister interface {
	ListByEmail(ctx context.Context, email string) ([]models.StudentEnrollment, error)
}

type eligibilityEvaluator interface {
	Evaluate(ctx context.Context, classID string, classDate time.Time, claims *models.JWTClaims) (*EligibilityResult, error)
}

type changePublisher interface {
	Publish(ctx context.Context, table, classID string, classDate time.Time)
}

// JoinWaitlistRequest describes a request to join a class occurrence.
type JoinWaitlistRequest struct {
	ClassID   string `json:"class_id" validate:"required"`
	ClassDate string `json:"class_date" validate:"required,datetime=2006-01-02"`
}

// WaitlistService handles joining the waitlist and the read views over it.
type WaitlistService struct {
	waitlist    waitlistWriter
	enrollments enrollmentLister
	eligibility eligibilityEvaluator
	publisher   changePublisher
	validator   *validator.Validate
	logger      *zap.Logger

	now func() time.Time
}

// NewWaitlistService constructs a WaitlistService.
func NewWaitlistService(waitlist waitlistWriter, enrollments enrollmentLister, eligibility eligibilityEvaluator, publisher changePublisher, validate *validator.Validate, logger *zap.Logger) *WaitlistService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &WaitlistService{
		waitlist:    waitlist,
		enrollments: enrollments,
		eligibility: eligibility,
		publisher:   publisher,
		validator:   validate,
		logger:      logger,
		now:         time.Now,
	}
}

// Join re-runs the eligibility check and creates the pending entry. The
// store-level uniqueness guard makes a concurrent duplicate surface as a
// conflict even when both callers passed the check.
func (s *WaitlistService) Join(ctx context.Context, req JoinWaitlistRequest, claims *models.JWTClaims) (*models.WaitlistEntry, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid waitlist payload")
	}
	classDate, err := time.Parse(ClassDateLayout, req.ClassDate)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid class date")
	}

	result, err := s.eligibility.Evaluate(ctx, req.ClassID, classDate, claims)
	if err != nil {
		return nil, err
	}
	if !result.CanJoin {
		return nil, eligibilityError(result)
	}

	entry, err := s.waitlist.Insert(ctx, req.ClassID, classDate, result.EnrollmentID)
	if err != nil {
		return nil, err
	}

	s.publisher.Publish(ctx, realtime.TableClassWaitlist, req.ClassID, classDate)
	s.logger.Info("waitlist entry created",
		zap.String("waitlist_id", entry.ID),
		zap.String("class_id", req.ClassID),
		zap.String("class_date", req.ClassDate),
		zap.String("enrollment_id", result.EnrollmentID))
	return entry, nil
}

// MyRequests returns the caller's waitlist entries across pending, accepted
// and rejected, joined with class display info and trimmed by the visibility
// cutoff. The filter is display-only; persisted state is never mutated here.
func (s *WaitlistService) MyRequests(ctx context.Context, claims *models.JWTClaims) ([]models.WaitlistEntryDetail, error) {
	if claims == nil {
		return nil, appErrors.Clone(appErrors.ErrUnauthorized, "")
	}
	enrollments, err := s.enrollments.ListByEmail(ctx, claims.Email)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load enrollments")
	}
	if len(enrollments) == 0 {
		return []models.WaitlistEntryDetail{}, nil
	}
	ids := make([]string, len(enrollments))
	for i, e := range enrollments {
		ids[i] = e.ID
	}
	entries, err := s.waitlist.ListByEnrollments(ctx, ids)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load waitlist entries")
	}

	now := s.now()
	visible := make([]models.WaitlistEntryDetail, 0, len(entries))
	for _, entry := range entries {
		if entry.Status == models.WaitlistStatusExpired {
			continue
		}
		if isVisible(&entry, now) {
			visible = append(visible, entry)
		}
	}
	return visible, nil
}

// ListForClass returns the pending queue for an occurrence in arrival order.
func (s *WaitlistService) ListForClass(ctx context.Context, classID, classDate string) ([]models.WaitlistEntryDetail, error) {
	date, err := time.Parse(ClassDateLayout, classDate)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid class date")
	}
	entries, err := s.waitlist.ListByClassAndDate(ctx, classID, date, models.WaitlistStatusPending)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load waitlist")
	}
	return entries, nil
}

// isVisible applies the per-status cutoff. Entries whose class join data is
// missing are retained so a partial query failure never hides a live request.
func isVisible(entry *models.WaitlistEntryDetail, now time.Time) bool {
	switch entry.Status {
	case models.WaitlistStatusPending:
		start, ok := entry.OccurrenceStart()
		if !ok {
			return true
		}
		return !now.After(start.Add(VisibilityGrace))
	default:
		end, ok := entry.OccurrenceEnd()
		if !ok {
			return true
		}
		return !now.After(end.Add(VisibilityGrace))
	}
}

// eligibilityError maps a failed eligibility result onto the error taxonomy
// used at the join boundary.
func eligibilityError(result *EligibilityResult) error {
	switch result.Reason {
	case ReasonClassNotFound:
		return appErrors.Clone(appErrors.ErrNotFound, result.Message)
	case ReasonNotAuthenticated:
		return appErrors.Clone(appErrors.ErrUnauthorized, result.Message)
	case ReasonWrongClub:
		return appErrors.Clone(appErrors.ErrForbidden, result.Message)
	default:
		return appErrors.Clone(appErrors.ErrConflict, result.Message)
	}
}

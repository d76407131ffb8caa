package service

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/AureRaso/padel-club-api/internal/models"
	"github.com/AureRaso/padel-club-api/internal/realtime"
	appErrors "github.com/AureRaso/padel-club-api/pkg/errors"
)

type attendanceParticipantStore interface {
	FindByID(ctx context.Context, id string) (*models.ClassParticipant, error)
	ConfirmAttendance(ctx context.Context, id string, date time.Time) error
	ConfirmAbsence(ctx context.Context, id string, date time.Time) error
}

type attendanceClassReader interface {
	FindByID(ctx context.Context, id string) (*models.ProgrammedClass, error)
}

type attendanceEnrollmentReader interface {
	FindByID(ctx context.Context, id string) (*models.StudentEnrollment, error)
}

// AttendanceService handles per-occurrence attendance and absence
// confirmations. A confirmed absence frees the participant's spot for that
// date, which is what makes room for waitlist acceptances.
type AttendanceService struct {
	participants attendanceParticipantStore
	classes      attendanceClassReader
	enrollments  attendanceEnrollmentReader
	publisher    changePublisher
	logger       *zap.Logger

	now func() time.Time
}

// NewAttendanceService constructs an AttendanceService.
func NewAttendanceService(participants attendanceParticipantStore, classes attendanceClassReader, enrollments attendanceEnrollmentReader, publisher changePublisher, logger *zap.Logger) *AttendanceService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AttendanceService{
		participants: participants,
		classes:      classes,
		enrollments:  enrollments,
		publisher:    publisher,
		logger:       logger,
		now:          time.Now,
	}
}

// ConfirmAttendance marks the participant as attending the occurrence on the
// given date, clearing any previous absence for it.
func (s *AttendanceService) ConfirmAttendance(ctx context.Context, participantID, classDate string, claims *models.JWTClaims) (*models.ClassParticipant, error) {
	return s.confirm(ctx, participantID, classDate, claims, s.participants.ConfirmAttendance, "attendance confirmed")
}

// ConfirmAbsence marks the participant as missing the occurrence on the given
// date. The freed spot is visible to capacity counts immediately.
func (s *AttendanceService) ConfirmAbsence(ctx context.Context, participantID, classDate string, claims *models.JWTClaims) (*models.ClassParticipant, error) {
	return s.confirm(ctx, participantID, classDate, claims, s.participants.ConfirmAbsence, "absence confirmed")
}

func (s *AttendanceService) confirm(ctx context.Context, participantID, classDate string, claims *models.JWTClaims, apply func(context.Context, string, time.Time) error, logMsg string) (*models.ClassParticipant, error) {
	if claims == nil {
		return nil, appErrors.Clone(appErrors.ErrUnauthorized, "")
	}
	date, err := time.Parse(ClassDateLayout, classDate)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid class date")
	}

	participant, err := s.participants.FindByID(ctx, participantID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "participant not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load participant")
	}
	if participant.Status != models.ParticipantStatusActive {
		return nil, appErrors.Clone(appErrors.ErrConflict, "participant is no longer active")
	}

	if err := s.authorize(ctx, participant, claims); err != nil {
		return nil, err
	}

	cls, err := s.classes.FindByID(ctx, participant.ClassID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "class not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load class")
	}
	if end, err := cls.OccurrenceEnd(date); err == nil && s.now().After(end) {
		return nil, appErrors.Clone(appErrors.ErrConflict, "the class has already finished")
	}

	if err := apply(ctx, participantID, date); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrConflict, "participant is no longer active")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update attendance")
	}

	s.publisher.Publish(ctx, realtime.TableClassParticipants, participant.ClassID, date)
	s.logger.Info(logMsg,
		zap.String("participant_id", participantID),
		zap.String("class_id", participant.ClassID),
		zap.String("class_date", classDate))

	updated, err := s.participants.FindByID(ctx, participantID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to reload participant")
	}
	return updated, nil
}

// authorize allows staff unconditionally and players only for their own
// participant record, matched through the enrollment email.
func (s *AttendanceService) authorize(ctx context.Context, participant *models.ClassParticipant, claims *models.JWTClaims) error {
	if claims.IsStaff() {
		return nil
	}
	enrollment, err := s.enrollments.FindByID(ctx, participant.EnrollmentID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrForbidden, "")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load enrollment")
	}
	if !strings.EqualFold(enrollment.Email, claims.Email) {
		return appErrors.Clone(appErrors.ErrForbidden, "")
	}
	return nil
}

package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/AureRaso/padel-club-api/internal/models"
	appErrors "github.com/AureRaso/padel-club-api/pkg/errors"
)

type waitlistWriterStub struct {
	inserted     *models.WaitlistEntry
	insertErr    error
	insertedWith []string
	byClass      []models.WaitlistEntryDetail
	byEnrollment []models.WaitlistEntryDetail
	listErr      error
}

func (s *waitlistWriterStub) Insert(ctx context.Context, classID string, classDate time.Time, enrollmentID string) (*models.WaitlistEntry, error) {
	s.insertedWith = append(s.insertedWith, enrollmentID)
	return s.inserted, s.insertErr
}

func (s *waitlistWriterStub) ListByClassAndDate(ctx context.Context, classID string, classDate time.Time, status models.WaitlistStatus) ([]models.WaitlistEntryDetail, error) {
	return s.byClass, s.listErr
}

func (s *waitlistWriterStub) ListByEnrollments(ctx context.Context, enrollmentIDs []string) ([]models.WaitlistEntryDetail, error) {
	return s.byEnrollment, s.listErr
}

type enrollmentListerStub struct {
	enrollments []models.StudentEnrollment
	err         error
}

func (s enrollmentListerStub) ListByEmail(ctx context.Context, email string) ([]models.StudentEnrollment, error) {
	return s.enrollments, s.err
}

type evaluatorStub struct {
	result *EligibilityResult
	err    error
}

func (s evaluatorStub) Evaluate(ctx context.Context, classID string, classDate time.Time, claims *models.JWTClaims) (*EligibilityResult, error) {
	return s.result, s.err
}

type publisherStub struct {
	tables []string
}

func (s *publisherStub) Publish(ctx context.Context, table, classID string, classDate time.Time) {
	s.tables = append(s.tables, table)
}

func detailEntry(status models.WaitlistStatus, startTime string, duration int) models.WaitlistEntryDetail {
	name := "Padel Intermedio"
	club := "Club Norte"
	return models.WaitlistEntryDetail{
		WaitlistEntry: models.WaitlistEntry{
			ID:        "wl-1",
			ClassID:   "class-1",
			ClassDate: classDate(),
			Status:    status,
		},
		StudentName:     "Ana Lopez",
		StudentEmail:    "ana@example.com",
		ClassName:       &name,
		ClubName:        &club,
		StartTime:       &startTime,
		DurationMinutes: &duration,
	}
}

func TestJoinCreatesPendingEntry(t *testing.T) {
	writer := &waitlistWriterStub{inserted: &models.WaitlistEntry{ID: "wl-1", ClassID: "class-1", Status: models.WaitlistStatusPending}}
	publisher := &publisherStub{}
	evaluator := evaluatorStub{result: &EligibilityResult{CanJoin: true, Reason: ReasonEligible, EnrollmentID: "enr-1"}}
	svc := NewWaitlistService(writer, enrollmentListerStub{}, evaluator, publisher, nil, zap.NewNop())

	entry, err := svc.Join(context.Background(), JoinWaitlistRequest{ClassID: "class-1", ClassDate: "2026-09-14"}, playerClaims("club-1"))
	require.NoError(t, err)
	assert.Equal(t, "wl-1", entry.ID)
	assert.Equal(t, []string{"enr-1"}, writer.insertedWith)
	assert.Len(t, publisher.tables, 1)
}

func TestJoinRejectsInvalidDate(t *testing.T) {
	svc := NewWaitlistService(&waitlistWriterStub{}, enrollmentListerStub{}, evaluatorStub{}, &publisherStub{}, nil, zap.NewNop())

	_, err := svc.Join(context.Background(), JoinWaitlistRequest{ClassID: "class-1", ClassDate: "14/09/2026"}, playerClaims("club-1"))
	require.Error(t, err)
	assert.True(t, appErrors.Is(err, appErrors.ErrValidation))
}

func TestJoinMapsIneligibilityToErrors(t *testing.T) {
	cases := []struct {
		reason EligibilityReason
		target *appErrors.Error
	}{
		{ReasonClassNotFound, appErrors.ErrNotFound},
		{ReasonNotAuthenticated, appErrors.ErrUnauthorized},
		{ReasonWrongClub, appErrors.ErrForbidden},
		{ReasonTooLate, appErrors.ErrConflict},
		{ReasonSpotsAvailable, appErrors.ErrConflict},
	}
	for _, tc := range cases {
		writer := &waitlistWriterStub{}
		evaluator := evaluatorStub{result: &EligibilityResult{CanJoin: false, Reason: tc.reason}}
		svc := NewWaitlistService(writer, enrollmentListerStub{}, evaluator, &publisherStub{}, nil, zap.NewNop())

		_, err := svc.Join(context.Background(), JoinWaitlistRequest{ClassID: "class-1", ClassDate: "2026-09-14"}, playerClaims("club-1"))
		require.Error(t, err, string(tc.reason))
		assert.True(t, appErrors.Is(err, tc.target), string(tc.reason))
		assert.Empty(t, writer.insertedWith)
	}
}

func TestMyRequestsRequiresAuthentication(t *testing.T) {
	svc := NewWaitlistService(&waitlistWriterStub{}, enrollmentListerStub{}, evaluatorStub{}, &publisherStub{}, nil, zap.NewNop())

	_, err := svc.MyRequests(context.Background(), nil)
	require.Error(t, err)
	assert.True(t, appErrors.Is(err, appErrors.ErrUnauthorized))
}

func TestMyRequestsEmptyWithoutEnrollments(t *testing.T) {
	svc := NewWaitlistService(&waitlistWriterStub{}, enrollmentListerStub{}, evaluatorStub{}, &publisherStub{}, nil, zap.NewNop())

	entries, err := svc.MyRequests(context.Background(), playerClaims("club-1"))
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestMyRequestsHidesStalePending(t *testing.T) {
	fresh := detailEntry(models.WaitlistStatusPending, "18:00", 90)
	stale := detailEntry(models.WaitlistStatusPending, "08:00", 60)
	stale.ID = "wl-2"
	writer := &waitlistWriterStub{byEnrollment: []models.WaitlistEntryDetail{fresh, stale}}
	svc := NewWaitlistService(writer, enrollmentListerStub{enrollments: []models.StudentEnrollment{{ID: "enr-1"}}}, evaluatorStub{}, &publisherStub{}, nil, zap.NewNop())
	// pending entries disappear one hour after start: 08:00 is stale, 18:00 is not
	svc.now = func() time.Time {
		return time.Date(2026, 9, 14, 12, 0, 0, 0, time.UTC)
	}

	entries, err := svc.MyRequests(context.Background(), playerClaims("club-1"))
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "wl-1", entries[0].ID)
}

func TestMyRequestsKeepsProcessedUntilAfterEnd(t *testing.T) {
	accepted := detailEntry(models.WaitlistStatusAccepted, "10:00", 60)
	writer := &waitlistWriterStub{byEnrollment: []models.WaitlistEntryDetail{accepted}}
	svc := NewWaitlistService(writer, enrollmentListerStub{enrollments: []models.StudentEnrollment{{ID: "enr-1"}}}, evaluatorStub{}, &publisherStub{}, nil, zap.NewNop())

	// processed entries survive until one hour past the occurrence end
	svc.now = func() time.Time {
		return time.Date(2026, 9, 14, 11, 30, 0, 0, time.UTC)
	}
	entries, err := svc.MyRequests(context.Background(), playerClaims("club-1"))
	require.NoError(t, err)
	assert.Len(t, entries, 1)

	svc.now = func() time.Time {
		return time.Date(2026, 9, 14, 12, 30, 0, 0, time.UTC)
	}
	entries, err = svc.MyRequests(context.Background(), playerClaims("club-1"))
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestMyRequestsSkipsExpired(t *testing.T) {
	expired := detailEntry(models.WaitlistStatusExpired, "18:00", 90)
	writer := &waitlistWriterStub{byEnrollment: []models.WaitlistEntryDetail{expired}}
	svc := NewWaitlistService(writer, enrollmentListerStub{enrollments: []models.StudentEnrollment{{ID: "enr-1"}}}, evaluatorStub{}, &publisherStub{}, nil, zap.NewNop())
	svc.now = func() time.Time {
		return time.Date(2026, 9, 14, 10, 0, 0, 0, time.UTC)
	}

	entries, err := svc.MyRequests(context.Background(), playerClaims("club-1"))
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestMyRequestsRetainsEntriesWithMissingClass(t *testing.T) {
	orphan := detailEntry(models.WaitlistStatusPending, "18:00", 90)
	orphan.ClassName = nil
	orphan.StartTime = nil
	orphan.DurationMinutes = nil
	writer := &waitlistWriterStub{byEnrollment: []models.WaitlistEntryDetail{orphan}}
	svc := NewWaitlistService(writer, enrollmentListerStub{enrollments: []models.StudentEnrollment{{ID: "enr-1"}}}, evaluatorStub{}, &publisherStub{}, nil, zap.NewNop())
	// far in the future: without class info the cutoff cannot be computed
	// and the entry stays visible
	svc.now = func() time.Time {
		return time.Date(2027, 1, 1, 0, 0, 0, 0, time.UTC)
	}

	entries, err := svc.MyRequests(context.Background(), playerClaims("club-1"))
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

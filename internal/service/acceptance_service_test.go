package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/AureRaso/padel-club-api/internal/models"
	"github.com/AureRaso/padel-club-api/internal/realtime"
	"github.com/AureRaso/padel-club-api/internal/repository"
	appErrors "github.com/AureRaso/padel-club-api/pkg/errors"
)

type acceptanceRepoStub struct {
	acceptResult *repository.AcceptResult
	acceptErr    error
	acceptParams []repository.AcceptParams
	rejectDetail *models.WaitlistEntryDetail
	rejectErr    error
	rejectParams []repository.RejectParams
}

func (s *acceptanceRepoStub) AcceptEntry(ctx context.Context, params repository.AcceptParams) (*repository.AcceptResult, error) {
	s.acceptParams = append(s.acceptParams, params)
	return s.acceptResult, s.acceptErr
}

func (s *acceptanceRepoStub) RejectEntry(ctx context.Context, params repository.RejectParams) (*models.WaitlistEntryDetail, error) {
	s.rejectParams = append(s.rejectParams, params)
	return s.rejectDetail, s.rejectErr
}

type wakerStub struct {
	wakes int
}

func (s *wakerStub) Wake() {
	s.wakes++
}

func adminClaims() *models.JWTClaims {
	return &models.JWTClaims{UserID: "admin-1", Email: "admin@example.com", Role: models.RoleAdmin}
}

func TestAcceptRequiresStaff(t *testing.T) {
	repo := &acceptanceRepoStub{}
	svc := NewAcceptanceService(repo, &publisherStub{}, &wakerStub{}, nil, zap.NewNop())

	_, err := svc.Accept(context.Background(), "wl-1", AcceptWaitlistRequest{ClassID: "class-1", ClassDate: "2026-09-14"}, playerClaims("club-1"))
	require.Error(t, err)
	assert.True(t, appErrors.Is(err, appErrors.ErrForbidden))
	assert.Empty(t, repo.acceptParams)

	_, err = svc.Accept(context.Background(), "wl-1", AcceptWaitlistRequest{ClassID: "class-1", ClassDate: "2026-09-14"}, nil)
	require.Error(t, err)
	assert.True(t, appErrors.Is(err, appErrors.ErrForbidden))
}

func TestAcceptAdmitsEntry(t *testing.T) {
	expired := detailEntry(models.WaitlistStatusExpired, "18:00", 90)
	repo := &acceptanceRepoStub{acceptResult: &repository.AcceptResult{
		Entry:       models.WaitlistEntry{ID: "wl-1", ClassID: "class-1", Status: models.WaitlistStatusAccepted},
		Participant: models.ClassParticipant{ID: "part-1", IsSubstitute: true},
		Expired:     []models.WaitlistEntryDetail{expired},
	}}
	publisher := &publisherStub{}
	waker := &wakerStub{}
	svc := NewAcceptanceService(repo, publisher, waker, nil, zap.NewNop())

	resp, err := svc.Accept(context.Background(), "wl-1", AcceptWaitlistRequest{ClassID: "class-1", ClassDate: "2026-09-14"}, adminClaims())
	require.NoError(t, err)
	assert.Equal(t, models.WaitlistStatusAccepted, resp.Entry.Status)
	assert.True(t, resp.Participant.IsSubstitute)
	assert.Len(t, resp.Expired, 1)

	require.Len(t, repo.acceptParams, 1)
	assert.Equal(t, "wl-1", repo.acceptParams[0].WaitlistID)
	assert.Equal(t, "admin-1", repo.acceptParams[0].AcceptedBy)

	assert.ElementsMatch(t, []string{realtime.TableClassWaitlist, realtime.TableClassParticipants}, publisher.tables)
	assert.Equal(t, 1, waker.wakes)
}

func TestAcceptRejectsInvalidPayload(t *testing.T) {
	repo := &acceptanceRepoStub{}
	svc := NewAcceptanceService(repo, &publisherStub{}, &wakerStub{}, nil, zap.NewNop())

	_, err := svc.Accept(context.Background(), "wl-1", AcceptWaitlistRequest{ClassID: "class-1", ClassDate: "not-a-date"}, adminClaims())
	require.Error(t, err)
	assert.True(t, appErrors.Is(err, appErrors.ErrValidation))
	assert.Empty(t, repo.acceptParams)
}

func TestAcceptPropagatesClassFull(t *testing.T) {
	repo := &acceptanceRepoStub{acceptErr: appErrors.Clone(appErrors.ErrClassFull, "")}
	publisher := &publisherStub{}
	waker := &wakerStub{}
	svc := NewAcceptanceService(repo, publisher, waker, nil, zap.NewNop())

	_, err := svc.Accept(context.Background(), "wl-1", AcceptWaitlistRequest{ClassID: "class-1", ClassDate: "2026-09-14"}, adminClaims())
	require.Error(t, err)
	assert.True(t, appErrors.Is(err, appErrors.ErrClassFull))
	assert.Empty(t, publisher.tables)
	assert.Zero(t, waker.wakes)
}

func TestRejectMarksEntry(t *testing.T) {
	detail := detailEntry(models.WaitlistStatusRejected, "18:00", 90)
	repo := &acceptanceRepoStub{rejectDetail: &detail}
	publisher := &publisherStub{}
	waker := &wakerStub{}
	svc := NewAcceptanceService(repo, publisher, waker, nil, zap.NewNop())

	notes := "queue cleared for maintenance"
	result, err := svc.Reject(context.Background(), "wl-1", RejectWaitlistRequest{Notes: &notes}, adminClaims())
	require.NoError(t, err)
	assert.Equal(t, models.WaitlistStatusRejected, result.Status)

	require.Len(t, repo.rejectParams, 1)
	assert.Equal(t, "admin-1", repo.rejectParams[0].RejectedBy)
	require.NotNil(t, repo.rejectParams[0].Notes)
	assert.Equal(t, notes, *repo.rejectParams[0].Notes)

	// rejecting frees no spot, so only the waitlist view is invalidated
	assert.Equal(t, []string{realtime.TableClassWaitlist}, publisher.tables)
	assert.Equal(t, 1, waker.wakes)
}

func TestRejectRequiresStaff(t *testing.T) {
	repo := &acceptanceRepoStub{}
	svc := NewAcceptanceService(repo, &publisherStub{}, &wakerStub{}, nil, zap.NewNop())

	_, err := svc.Reject(context.Background(), "wl-1", RejectWaitlistRequest{}, playerClaims("club-1"))
	require.Error(t, err)
	assert.True(t, appErrors.Is(err, appErrors.ErrForbidden))
	assert.Empty(t, repo.rejectParams)
}

package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AureRaso/padel-club-api/internal/middleware"
	"github.com/AureRaso/padel-club-api/internal/models"
	"github.com/AureRaso/padel-club-api/internal/service"
	appErrors "github.com/AureRaso/padel-club-api/pkg/errors"
)

type waitlistServiceMock struct {
	joinResp   *models.WaitlistEntry
	joinErr    error
	mineResp   []models.WaitlistEntryDetail
	mineErr    error
	lastJoin   service.JoinWaitlistRequest
	joinCalled bool
	mineCalled bool
}

func (m *waitlistServiceMock) Join(ctx context.Context, req service.JoinWaitlistRequest, claims *models.JWTClaims) (*models.WaitlistEntry, error) {
	m.joinCalled = true
	m.lastJoin = req
	return m.joinResp, m.joinErr
}

func (m *waitlistServiceMock) MyRequests(ctx context.Context, claims *models.JWTClaims) ([]models.WaitlistEntryDetail, error) {
	m.mineCalled = true
	return m.mineResp, m.mineErr
}

type acceptanceServiceMock struct {
	acceptResp *service.AcceptWaitlistResponse
	acceptErr  error
	rejectResp *models.WaitlistEntryDetail
	rejectErr  error
	lastID     string
	lastReject service.RejectWaitlistRequest
}

func (m *acceptanceServiceMock) Accept(ctx context.Context, waitlistID string, req service.AcceptWaitlistRequest, claims *models.JWTClaims) (*service.AcceptWaitlistResponse, error) {
	m.lastID = waitlistID
	return m.acceptResp, m.acceptErr
}

func (m *acceptanceServiceMock) Reject(ctx context.Context, waitlistID string, req service.RejectWaitlistRequest, claims *models.JWTClaims) (*models.WaitlistEntryDetail, error) {
	m.lastID = waitlistID
	m.lastReject = req
	return m.rejectResp, m.rejectErr
}

func testContext(t *testing.T, method, target string, body []byte) (*gin.Context, *httptest.ResponseRecorder) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	var req *http.Request
	if body != nil {
		req, _ = http.NewRequest(method, target, bytes.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req, _ = http.NewRequest(method, target, nil)
	}
	c.Request = req
	return c, w
}

func TestWaitlistHandlerJoin(t *testing.T) {
	mockSvc := &waitlistServiceMock{joinResp: &models.WaitlistEntry{ID: "wl-1", Status: models.WaitlistStatusPending}}
	handler := NewWaitlistHandler(mockSvc, &acceptanceServiceMock{}, nil)

	payload, _ := json.Marshal(service.JoinWaitlistRequest{ClassID: "class-1", ClassDate: "2026-09-14"})
	c, w := testContext(t, http.MethodPost, "/waitlist", payload)
	c.Set(middleware.ContextUserKey, &models.JWTClaims{UserID: "user-1", Email: "ana@example.com", Role: models.RolePlayer})

	handler.Join(c)
	require.Equal(t, http.StatusCreated, w.Code)
	assert.True(t, mockSvc.joinCalled)
	assert.Equal(t, "class-1", mockSvc.lastJoin.ClassID)
}

func TestWaitlistHandlerJoinInvalidBody(t *testing.T) {
	handler := NewWaitlistHandler(&waitlistServiceMock{}, &acceptanceServiceMock{}, nil)

	c, w := testContext(t, http.MethodPost, "/waitlist", []byte(`{"class_id":`))
	handler.Join(c)
	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestWaitlistHandlerJoinConflict(t *testing.T) {
	mockSvc := &waitlistServiceMock{joinErr: appErrors.ErrDuplicateEntry}
	handler := NewWaitlistHandler(mockSvc, &acceptanceServiceMock{}, nil)

	payload, _ := json.Marshal(service.JoinWaitlistRequest{ClassID: "class-1", ClassDate: "2026-09-14"})
	c, w := testContext(t, http.MethodPost, "/waitlist", payload)

	handler.Join(c)
	require.Equal(t, http.StatusConflict, w.Code)
}

func TestWaitlistHandlerMine(t *testing.T) {
	mockSvc := &waitlistServiceMock{mineResp: []models.WaitlistEntryDetail{{}}}
	handler := NewWaitlistHandler(mockSvc, &acceptanceServiceMock{}, nil)

	c, w := testContext(t, http.MethodGet, "/waitlist/mine", nil)
	c.Set(middleware.ContextUserKey, &models.JWTClaims{UserID: "user-1", Email: "ana@example.com"})

	handler.Mine(c)
	require.Equal(t, http.StatusOK, w.Code)
	assert.True(t, mockSvc.mineCalled)
}

func TestWaitlistHandlerAccept(t *testing.T) {
	mockSvc := &acceptanceServiceMock{acceptResp: &service.AcceptWaitlistResponse{
		Entry: models.WaitlistEntry{ID: "wl-1", Status: models.WaitlistStatusAccepted},
	}}
	handler := NewWaitlistHandler(&waitlistServiceMock{}, mockSvc, nil)

	payload, _ := json.Marshal(service.AcceptWaitlistRequest{ClassID: "class-1", ClassDate: "2026-09-14"})
	c, w := testContext(t, http.MethodPost, "/waitlist/wl-1/accept", payload)
	c.Params = gin.Params{{Key: "id", Value: "wl-1"}}
	c.Set(middleware.ContextUserKey, &models.JWTClaims{UserID: "admin-1", Role: models.RoleAdmin})

	handler.Accept(c)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "wl-1", mockSvc.lastID)
}

func TestWaitlistHandlerAcceptClassFull(t *testing.T) {
	mockSvc := &acceptanceServiceMock{acceptErr: appErrors.ErrClassFull}
	handler := NewWaitlistHandler(&waitlistServiceMock{}, mockSvc, nil)

	payload, _ := json.Marshal(service.AcceptWaitlistRequest{ClassID: "class-1", ClassDate: "2026-09-14"})
	c, w := testContext(t, http.MethodPost, "/waitlist/wl-1/accept", payload)
	c.Params = gin.Params{{Key: "id", Value: "wl-1"}}

	handler.Accept(c)
	require.Equal(t, http.StatusConflict, w.Code)
}

func TestWaitlistHandlerRejectWithNote(t *testing.T) {
	detail := &models.WaitlistEntryDetail{WaitlistEntry: models.WaitlistEntry{ID: "wl-1", Status: models.WaitlistStatusRejected}}
	mockSvc := &acceptanceServiceMock{rejectResp: detail}
	handler := NewWaitlistHandler(&waitlistServiceMock{}, mockSvc, nil)

	c, w := testContext(t, http.MethodPost, "/waitlist/wl-1/reject", []byte(`{"notes":"court closed"}`))
	c.Params = gin.Params{{Key: "id", Value: "wl-1"}}
	c.Set(middleware.ContextUserKey, &models.JWTClaims{UserID: "admin-1", Role: models.RoleAdmin})

	handler.Reject(c)
	require.Equal(t, http.StatusOK, w.Code)
	require.NotNil(t, mockSvc.lastReject.Notes)
	assert.Equal(t, "court closed", *mockSvc.lastReject.Notes)
}

func TestWaitlistHandlerRejectWithoutBody(t *testing.T) {
	detail := &models.WaitlistEntryDetail{WaitlistEntry: models.WaitlistEntry{ID: "wl-1", Status: models.WaitlistStatusRejected}}
	mockSvc := &acceptanceServiceMock{rejectResp: detail}
	handler := NewWaitlistHandler(&waitlistServiceMock{}, mockSvc, nil)

	c, w := testContext(t, http.MethodPost, "/waitlist/wl-1/reject", nil)
	c.Params = gin.Params{{Key: "id", Value: "wl-1"}}

	handler.Reject(c)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Nil(t, mockSvc.lastReject.Notes)
}

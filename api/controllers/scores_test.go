package controllers

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/mirandavel/tradepost-backend/api/middleware"
	"github.com/mirandavel/tradepost-backend/internal/scoreledger"
	"github.com/mirandavel/tradepost-backend/pkg/enums"
	pkgerrors "github.com/mirandavel/tradepost-backend/pkg/errors"
	"github.com/mirandavel/tradepost-backend/pkg/logger"
	"github.com/mirandavel/tradepost-backend/pkg/pagination"
)

type testScoreService struct {
	getScoreFn    func(ctx context.Context, accountID uuid.UUID) (*scoreledger.ScoreResponse, error)
	getOwnScoreFn func(ctx context.Context, accountID uuid.UUID) (*scoreledger.OwnScoreResponse, error)
	listHistoryFn func(ctx context.Context, accountID uuid.UUID, params pagination.Params) (*scoreledger.HistoryPage, error)
}

func (s *testScoreService) Recompute(ctx context.Context, accountID uuid.UUID, reason enums.ScoreReason, actor enums.ScoreActor) (*scoreledger.RecomputeResult, error) {
	return nil, nil
}

func (s *testScoreService) GetScore(ctx context.Context, accountID uuid.UUID) (*scoreledger.ScoreResponse, error) {
	if s.getScoreFn != nil {
		return s.getScoreFn(ctx, accountID)
	}
	return nil, nil
}

func (s *testScoreService) GetOwnScore(ctx context.Context, accountID uuid.UUID) (*scoreledger.OwnScoreResponse, error) {
	if s.getOwnScoreFn != nil {
		return s.getOwnScoreFn(ctx, accountID)
	}
	return nil, nil
}

func (s *testScoreService) ListHistory(ctx context.Context, accountID uuid.UUID, params pagination.Params) (*scoreledger.HistoryPage, error) {
	if s.listHistoryFn != nil {
		return s.listHistoryFn(ctx, accountID, params)
	}
	return nil, nil
}

func testLogger() *logger.Logger {
	return logger.New(logger.Options{ServiceName: "test", Output: io.Discard})
}

func addRouteParam(req *http.Request, key, value string) *http.Request {
	routeCtx := chi.NewRouteContext()
	routeCtx.URLParams.Add(key, value)
	return req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, routeCtx))
}

func TestGetAccountScoreSuccess(t *testing.T) {
	accountID := uuid.New()
	svc := &testScoreService{
		getScoreFn: func(ctx context.Context, id uuid.UUID) (*scoreledger.ScoreResponse, error) {
			if id != accountID {
				t.Fatalf("unexpected account %s", id)
			}
			return &scoreledger.ScoreResponse{AccountID: id, Score: 42}, nil
		},
	}

	req := httptest.NewRequest(http.MethodGet, "/api/v1/accounts/"+accountID.String()+"/score", nil)
	req = addRouteParam(req, "accountId", accountID.String())
	resp := httptest.NewRecorder()
	GetAccountScore(svc, testLogger())(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("unexpected status %d", resp.Code)
	}
	var envelope struct {
		Data scoreledger.ScoreResponse `json:"data"`
	}
	if err := json.Unmarshal(resp.Body.Bytes(), &envelope); err != nil {
		t.Fatalf("unmarshal response: %v", err)
	}
	if envelope.Data.Score != 42 {
		t.Fatalf("score = %d, want 42", envelope.Data.Score)
	}
}

func TestGetAccountScoreInvalidID(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/api/v1/accounts/invalid/score", nil)
	req = addRouteParam(req, "accountId", "invalid")
	resp := httptest.NewRecorder()
	GetAccountScore(&testScoreService{}, testLogger())(resp, req)
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", resp.Code)
	}
}

func TestGetAccountScoreNotFound(t *testing.T) {
	svc := &testScoreService{
		getScoreFn: func(ctx context.Context, id uuid.UUID) (*scoreledger.ScoreResponse, error) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "account not found")
		},
	}
	req := httptest.NewRequest(http.MethodGet, "/api/v1/accounts/"+uuid.NewString()+"/score", nil)
	req = addRouteParam(req, "accountId", uuid.NewString())
	resp := httptest.NewRecorder()
	GetAccountScore(svc, testLogger())(resp, req)
	if resp.Code != http.StatusNotFound {
		t.Fatalf("expected 404 got %d", resp.Code)
	}
}

func TestGetOwnScoreSuccess(t *testing.T) {
	accountID := uuid.New()
	svc := &testScoreService{
		getOwnScoreFn: func(ctx context.Context, id uuid.UUID) (*scoreledger.OwnScoreResponse, error) {
			if id != accountID {
				t.Fatalf("unexpected account %s", id)
			}
			return &scoreledger.OwnScoreResponse{AccountID: id, Score: 50}, nil
		},
	}

	req := httptest.NewRequest(http.MethodGet, "/api/v1/me/score", nil)
	req = req.WithContext(middleware.WithAccountID(req.Context(), accountID.String()))
	resp := httptest.NewRecorder()
	GetOwnScore(svc, testLogger())(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("unexpected status %d", resp.Code)
	}
}

func TestGetOwnScoreMissingContext(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/api/v1/me/score", nil)
	resp := httptest.NewRecorder()
	GetOwnScore(&testScoreService{}, testLogger())(resp, req)
	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 got %d", resp.Code)
	}
}

func TestGetOwnScoreHistoryForwardsPagination(t *testing.T) {
	accountID := uuid.New()
	var captured pagination.Params
	svc := &testScoreService{
		listHistoryFn: func(ctx context.Context, id uuid.UUID, params pagination.Params) (*scoreledger.HistoryPage, error) {
			captured = params
			return &scoreledger.HistoryPage{Entries: []scoreledger.HistoryEntryResponse{}}, nil
		},
	}

	req := httptest.NewRequest(http.MethodGet, "/api/v1/me/score/history?limit=10&cursor=abc", nil)
	req = req.WithContext(middleware.WithAccountID(req.Context(), accountID.String()))
	resp := httptest.NewRecorder()
	GetOwnScoreHistory(svc, testLogger())(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("unexpected status %d", resp.Code)
	}
	if captured.Limit != 10 || captured.Cursor != "abc" {
		t.Fatalf("params = %+v", captured)
	}
}

func TestGetOwnScoreHistoryRejectsBadLimit(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/api/v1/me/score/history?limit=zero", nil)
	req = req.WithContext(middleware.WithAccountID(req.Context(), uuid.NewString()))
	resp := httptest.NewRecorder()
	GetOwnScoreHistory(&testScoreService{}, testLogger())(resp, req)
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", resp.Code)
	}
}

package handler

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rocjay1/fiscal-sentinel/internal/models"
	"github.com/stretchr/testify/assert"
)

func reviewDeps() (*Dependencies, *MockDatabaseClient, *MockEmailClient) {
	mockDb := &MockDatabaseClient{}
	mockEmail := &MockEmailClient{}
	cfg := DefaultConfig()
	cfg.Reviewers = []string{"auditor@example.gov.in"}
	return &Dependencies{Database: mockDb, Email: mockEmail, Config: cfg}, mockDb, mockEmail
}

func TestHandleNightlyTrigger_SendsDigest(t *testing.T) {
	deps, mockDb, mockEmail := reviewDeps()

	mockDb.ListAnalysesFunc = func(ctx context.Context, since time.Time) ([]models.AnalysisRecord, error) {
		assert.WithinDuration(t, time.Now().Add(-24*time.Hour), since, time.Minute)
		return []models.AnalysisRecord{
			{DatasetID: "flagged", Result: models.AnalysisResult{RequiresReview: true}},
			{DatasetID: "clean", Result: models.AnalysisResult{RequiresReview: false}},
		}, nil
	}

	var sent []models.AnalysisRecord
	mockEmail.SendDigestFunc = func(ctx context.Context, to []string, records []models.AnalysisRecord) error {
		assert.Equal(t, []string{"auditor@example.gov.in"}, to)
		sent = records
		return nil
	}

	req := httptest.NewRequest(http.MethodPost, "/NightlyTrigger", nil)
	w := httptest.NewRecorder()
	deps.HandleNightlyTrigger(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	if assert.Len(t, sent, 1) {
		assert.Equal(t, "flagged", sent[0].DatasetID)
	}
}

func TestHandleNightlyTrigger_NothingFlagged(t *testing.T) {
	deps, mockDb, mockEmail := reviewDeps()

	mockDb.ListAnalysesFunc = func(ctx context.Context, since time.Time) ([]models.AnalysisRecord, error) {
		return []models.AnalysisRecord{{DatasetID: "clean"}}, nil
	}
	mockEmail.SendDigestFunc = func(ctx context.Context, to []string, records []models.AnalysisRecord) error {
		t.Error("no digest expected")
		return nil
	}

	w := httptest.NewRecorder()
	deps.HandleNightlyTrigger(w, httptest.NewRequest(http.MethodPost, "/NightlyTrigger", nil))

	assert.Equal(t, http.StatusOK, w.Code)
}

func TestHandleNightlyTrigger_NoReviewer(t *testing.T) {
	mockDb := &MockDatabaseClient{}
	deps := &Dependencies{Database: mockDb, Email: &MockEmailClient{}, Config: DefaultConfig()}

	mockDb.ListAnalysesFunc = func(ctx context.Context, since time.Time) ([]models.AnalysisRecord, error) {
		t.Error("analyses should not be listed without a reviewer")
		return nil, nil
	}

	w := httptest.NewRecorder()
	deps.HandleNightlyTrigger(w, httptest.NewRequest(http.MethodPost, "/NightlyTrigger", nil))

	assert.Equal(t, http.StatusOK, w.Code)
}

func TestHandleNightlyTrigger_Errors(t *testing.T) {
	deps, mockDb, mockEmail := reviewDeps()

	mockDb.ListAnalysesFunc = func(ctx context.Context, since time.Time) ([]models.AnalysisRecord, error) {
		return nil, errors.New("table unavailable")
	}

	w := httptest.NewRecorder()
	deps.HandleNightlyTrigger(w, httptest.NewRequest(http.MethodPost, "/NightlyTrigger", nil))
	assert.Equal(t, http.StatusInternalServerError, w.Code)

	mockDb.ListAnalysesFunc = func(ctx context.Context, since time.Time) ([]models.AnalysisRecord, error) {
		return []models.AnalysisRecord{{Result: models.AnalysisResult{RequiresReview: true}}}, nil
	}
	mockEmail.SendDigestFunc = func(ctx context.Context, to []string, records []models.AnalysisRecord) error {
		return errors.New("smtp down")
	}

	w = httptest.NewRecorder()
	deps.HandleNightlyTrigger(w, httptest.NewRequest(http.MethodPost, "/NightlyTrigger", nil))
	assert.Equal(t, http.StatusInternalServerError, w.Code)
}

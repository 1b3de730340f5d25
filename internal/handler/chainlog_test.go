package handler

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rocjay1/fiscal-sentinel/internal/chainlog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHandleChainlog(t *testing.T) {
	audit := &MockAuditLog{Appended: []chainlog.Entry{
		{ID: "1", Action: chainlog.ActionIngest, Target: "ds-1"},
		{ID: "2", Action: chainlog.ActionAnalyze, Target: "ds-1"},
		{ID: "3", Action: chainlog.ActionIngest, Target: "ds-2"},
	}}
	deps := &Dependencies{AuditLog: audit}

	w := httptest.NewRecorder()
	deps.HandleChainlog(w, httptest.NewRequest(http.MethodGet, "/api/admin/chainlog", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, float64(3), decodeBody(t, w)["count"])

	w = httptest.NewRecorder()
	deps.HandleChainlog(w, httptest.NewRequest(http.MethodGet, "/api/admin/chainlog?action=ingest", nil))
	require.Equal(t, http.StatusOK, w.Code)
	resp := decodeBody(t, w)
	assert.Equal(t, float64(2), resp["count"])
	for _, e := range resp["entries"].([]any) {
		assert.Equal(t, "ingest", e.(map[string]any)["action"])
	}
}

func TestHandleChainlog_Errors(t *testing.T) {
	w := httptest.NewRecorder()
	(&Dependencies{}).HandleChainlog(w, httptest.NewRequest(http.MethodGet, "/api/admin/chainlog", nil))
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)

	audit := &MockAuditLog{EntriesFunc: func(ctx context.Context) ([]chainlog.Entry, error) {
		return nil, errors.New("disk full")
	}}
	w = httptest.NewRecorder()
	(&Dependencies{AuditLog: audit}).HandleChainlog(w, httptest.NewRequest(http.MethodGet, "/api/admin/chainlog", nil))
	assert.Equal(t, http.StatusInternalServerError, w.Code)
}

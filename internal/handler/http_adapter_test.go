package handler

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func triggerEnvelope(t *testing.T, method, url, body string, isBase64 bool) *bytes.Buffer {
	t.Helper()
	var env HTTPTriggerRequest
	env.Data.Req.Method = method
	env.Data.Req.URL = url
	env.Data.Req.Body = body
	env.Data.Req.IsBase64Encoded = isBase64
	env.Data.Req.Headers = map[string][]string{"Content-Type": {"application/json"}}
	raw, err := json.Marshal(env)
	require.NoError(t, err)
	return bytes.NewBuffer(raw)
}

func echoMux() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/echo/{id}", func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		w.Header().Set("X-Id", r.PathValue("id"))
		w.Header().Set("X-Content-Type", r.Header.Get("Content-Type"))
		w.WriteHeader(http.StatusCreated)
		w.Write(body)
	})
	return mux
}

func TestHandleHttpTrigger(t *testing.T) {
	deps := &Dependencies{}
	adapter := deps.HandleHttpTrigger(echoMux())

	tests := []struct {
		name     string
		body     string
		isBase64 bool
		want     string
	}{
		{"plain body", `{"a":1}`, false, `{"a":1}`},
		{"base64 body", base64.StdEncoding.EncodeToString([]byte(`{"b":2}`)), true, `{"b":2}`},
		{"unflagged base64-looking body is kept", "YWJj", false, "YWJj"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/HttpTrigger",
				triggerEnvelope(t, http.MethodPost, "http://localhost:7071/api/echo/42", tt.body, tt.isBase64))
			w := httptest.NewRecorder()

			adapter(w, req)

			require.Equal(t, http.StatusOK, w.Code)
			var resp HTTPTriggerResponse
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
			assert.Equal(t, http.StatusCreated, resp.Outputs.Res.StatusCode)
			assert.Equal(t, tt.want, resp.Outputs.Res.Body)
			assert.Equal(t, "42", resp.Outputs.Res.Headers["X-Id"])
			assert.Equal(t, "application/json", resp.Outputs.Res.Headers["X-Content-Type"])
		})
	}
}

func TestHandleHttpTrigger_BadEnvelope(t *testing.T) {
	deps := &Dependencies{}
	adapter := deps.HandleHttpTrigger(echoMux())

	w := httptest.NewRecorder()
	adapter(w, httptest.NewRequest(http.MethodPost, "/HttpTrigger", bytes.NewBufferString("not json")))
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = httptest.NewRecorder()
	adapter(w, httptest.NewRequest(http.MethodPost, "/HttpTrigger",
		triggerEnvelope(t, http.MethodPost, "http://localhost:7071/api/echo/1", "%%%", true)))
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestLoadConfig(t *testing.T) {
	t.Setenv("UPLOAD_CONTAINER", "")
	t.Setenv("ANALYSIS_QUEUE", "custom-analysis")
	t.Setenv("RETRAIN_QUEUE", "")
	t.Setenv("REVIEWER_EMAIL", " a@example.gov.in, ,b@example.gov.in")

	cfg := LoadConfig()

	assert.Equal(t, "fiscal-uploads", cfg.UploadContainer)
	assert.Equal(t, "custom-analysis", cfg.AnalysisQueue)
	assert.Equal(t, "model-retrain", cfg.RetrainQueue)
	assert.Equal(t, []string{"a@example.gov.in", "b@example.gov.in"}, cfg.Reviewers)
}

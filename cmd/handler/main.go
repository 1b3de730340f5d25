package main

import (
	"bytes"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/rocjay1/fiscal-sentinel/internal/chainlog"
	"github.com/rocjay1/fiscal-sentinel/internal/handler"
	"github.com/rocjay1/fiscal-sentinel/internal/services"
	"github.com/shopspring/decimal"
)

const bodyPreviewLimit = 512

func init() {
	decimal.MarshalJSONWithoutQuotes = true
}

func main() {
	dbService, err := services.NewDatabaseService()
	if err != nil {
		slog.Error("failed to init database service", "error", err)
		os.Exit(1)
	}

	blobService, err := services.NewBlobService()
	if err != nil {
		slog.Error("failed to init blob service", "error", err)
		os.Exit(1)
	}

	queueService, err := services.NewQueueService()
	if err != nil {
		slog.Error("failed to init queue service", "error", err)
		os.Exit(1)
	}

	auditLog, err := chainlog.NewLog()
	if err != nil {
		slog.Error("failed to open chainlog", "error", err)
		os.Exit(1)
	}

	deps := &handler.Dependencies{
		Database: dbService,
		Blob:     blobService,
		Queue:    queueService,
		AuditLog: auditLog,
		Config:   handler.LoadConfig(),
	}

	// Review alerts are optional; a nil *EmailService must not reach the interface.
	if emailService, err := services.NewEmailService(nil); err != nil {
		slog.Warn("email service unavailable, review alerts disabled", "error", err)
	} else {
		deps.Email = emailService
	}

	mux := http.NewServeMux()

	mux.HandleFunc("POST /api/admin/ingest", deps.HandleIngest)
	mux.HandleFunc("GET /api/admin/chainlog", deps.HandleChainlog)

	mux.HandleFunc("POST /api/benford/analyze", deps.HandleAnalyze)
	mux.HandleFunc("GET /api/benford/results/{datasetId}", deps.HandleGetResult)

	mux.HandleFunc("POST /api/fraud/signals", deps.HandleFraudSignals)
	mux.HandleFunc("POST /api/fraud/signals/batch", deps.HandleFraudSignalsBatch)

	// Adapter for HTTP Trigger (since enableForwardingHttpRequest is false)
	mux.HandleFunc("/HttpTrigger", deps.HandleHttpTrigger(mux))

	// Use simpler path matching for ProcessQueue to avoid method mismatch issues
	mux.HandleFunc("/ProcessQueue", deps.ProcessQueue)

	mux.HandleFunc("/NightlyTrigger", deps.HandleNightlyTrigger)

	mux.HandleFunc("GET /api/health", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("OK"))
	})

	// Catch-all handler for unmatched requests to debug what the Host is sending
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		headers := make(map[string]string)
		for k, v := range r.Header {
			headers[k] = strings.Join(v, ", ")
		}
		slog.Warn("unmatched request",
			"method", r.Method,
			"path", r.URL.Path,
			"headers", headers,
			"content_length", r.ContentLength,
		)
		http.NotFound(w, r)
	})

	port := os.Getenv("FUNCTIONS_CUSTOMHANDLER_PORT")
	if port == "" {
		port = "8080"
	}

	slog.Info("starting server", "port", port)
	if err := http.ListenAndServe(":"+port, loggingMiddleware(mux)); err != nil && !errors.Is(err, http.ErrServerClosed) {
		slog.Error("server failed", "error", err)
		os.Exit(1)
	}
}

type responseWriter struct {
	http.ResponseWriter
	status int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.status = code
	rw.ResponseWriter.WriteHeader(code)
}

// bodyPreview returns the start of a text body for logging. Multipart uploads are not previewed.
func bodyPreview(r *http.Request, body []byte) string {
	if strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/") {
		return ""
	}
	if len(body) > bodyPreviewLimit {
		return string(body[:bodyPreviewLimit]) + "..."
	}
	return string(body)
}

func loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		// Read body for logging (and restore it)
		var bodyBytes []byte
		if r.Body != nil {
			bodyBytes, _ = io.ReadAll(r.Body)
			r.Body = io.NopCloser(bytes.NewBuffer(bodyBytes))
		}

		slog.Info("incoming request",
			"method", r.Method,
			"path", r.URL.Path,
			"remote_addr", r.RemoteAddr,
			"user_agent", r.UserAgent(),
			"content_type", r.Header.Get("Content-Type"),
			"content_length", r.ContentLength,
			"body_preview", bodyPreview(r, bodyBytes),
		)

		rw := &responseWriter{ResponseWriter: w, status: http.StatusOK}

		next.ServeHTTP(rw, r)

		slog.Info("request completed", "method", r.Method, "path", r.URL.Path, "status", rw.status, "duration", time.Since(start))
	})
}

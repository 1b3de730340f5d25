package handler

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"os"
	"strings"

	"github.com/rocjay1/fiscal-sentinel/internal/chainlog"
)

// Config holds the storage names and recipients the handlers use.
type Config struct {
	UploadContainer string
	AnalysisQueue   string
	RetrainQueue    string
	Reviewers       []string
}

// DefaultConfig returns the configuration used when no overrides are set.
func DefaultConfig() Config {
	return Config{
		UploadContainer: "fiscal-uploads",
		AnalysisQueue:   "benford-analysis",
		RetrainQueue:    "model-retrain",
	}
}

// LoadConfig reads handler configuration from the environment.
// REVIEWER_EMAIL may hold a comma-separated list of addresses.
func LoadConfig() Config {
	cfg := DefaultConfig()
	if v := os.Getenv("UPLOAD_CONTAINER"); v != "" {
		cfg.UploadContainer = v
	}
	if v := os.Getenv("ANALYSIS_QUEUE"); v != "" {
		cfg.AnalysisQueue = v
	}
	if v := os.Getenv("RETRAIN_QUEUE"); v != "" {
		cfg.RetrainQueue = v
	}
	for _, addr := range strings.Split(os.Getenv("REVIEWER_EMAIL"), ",") {
		if addr = strings.TrimSpace(addr); addr != "" {
			cfg.Reviewers = append(cfg.Reviewers, addr)
		}
	}
	return cfg
}

// Dependencies holds the services required by the handlers.
type Dependencies struct {
	Database DatabaseClient
	Blob     BlobClient
	Queue    QueueClient
	Email    EmailClient
	AuditLog AuditLog
	Config   Config
}

// audit records an entry in the audit trail. Failures are logged, not returned.
func (d *Dependencies) audit(ctx context.Context, e chainlog.Entry) {
	if d.AuditLog == nil {
		return
	}
	if err := d.AuditLog.Append(ctx, e); err != nil {
		slog.Error("failed to append audit entry", "action", e.Action, "target", e.Target, "error", err)
	}
}

// WriteJSON writes a JSON response with the given status code.
func WriteJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		if err := json.NewEncoder(w).Encode(data); err != nil {
			slog.Error("failed to encode JSON response", "error", err)
		}
	}
}

// WriteError writes an error response.
func WriteError(w http.ResponseWriter, status int, message string) {
	WriteJSON(w, status, map[string]string{"error": message})
}

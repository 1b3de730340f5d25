package handler

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/rocjay1/fiscal-sentinel/internal/models"
)

const digestWindow = 24 * time.Hour

// HandleNightlyTrigger emails reviewers a digest of datasets flagged in the last 24 hours.
func (d *Dependencies) HandleNightlyTrigger(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	slog.Info("starting nightly trigger processing")

	if d.Email == nil || len(d.Config.Reviewers) == 0 {
		slog.Warn("no reviewer configured; skipping review digest")
		w.WriteHeader(http.StatusOK)
		return
	}

	since := time.Now().UTC().Add(-digestWindow)
	records, err := d.Database.ListAnalyses(ctx, since)
	if err != nil {
		slog.Error("failed to list analyses", "since", since.Format(time.RFC3339), "error", err)
		http.Error(w, "Failed to list analyses", http.StatusInternalServerError)
		return
	}

	flagged := make([]models.AnalysisRecord, 0, len(records))
	for _, rec := range records {
		if rec.Result.RequiresReview {
			flagged = append(flagged, rec)
		}
	}
	slog.Info("checked recent analyses", "analyzed", len(records), "flagged", len(flagged))

	if len(flagged) == 0 {
		slog.Info("nothing flagged for review; no digest sent")
		w.WriteHeader(http.StatusOK)
		return
	}

	if err := d.Email.SendDigest(ctx, d.Config.Reviewers, flagged); err != nil {
		slog.Error("failed to send review digest", "recipients", d.Config.Reviewers, "error", err)
		http.Error(w, "Failed to send review digest", http.StatusInternalServerError)
		return
	}

	slog.Info("nightly trigger processing complete", "flagged", len(flagged))
	w.WriteHeader(http.StatusOK)
}

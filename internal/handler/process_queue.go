package handler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/rocjay1/fiscal-sentinel/internal/chainlog"
	"github.com/rocjay1/fiscal-sentinel/internal/ingest"
	"github.com/rocjay1/fiscal-sentinel/internal/models"
	"github.com/rocjay1/fiscal-sentinel/internal/services"
	"golang.org/x/sync/errgroup"
)

// invokeRequest represents the payload from Azure Functions Custom Handler.
type invokeRequest struct {
	Data     map[string]any `json:"Data"`
	Metadata map[string]any `json:"Metadata"`
}

// decodeQueueItem reads the job from the trigger payload. The host delivers
// the message either as a JSON string or as an already decoded object.
func decodeQueueItem(data map[string]any, job *analysisJob) error {
	item, ok := data["queueItem"]
	if !ok {
		item, ok = data["queueitem"]
		if !ok {
			return errors.New("missing queueItem in Data")
		}
	}

	var raw []byte
	switch v := item.(type) {
	case string:
		raw = []byte(v)
	case map[string]any:
		var err error
		if raw, err = json.Marshal(v); err != nil {
			return fmt.Errorf("failed to re-encode queueItem: %w", err)
		}
	default:
		return fmt.Errorf("unexpected queueItem type %T", item)
	}

	if err := json.Unmarshal(raw, job); err != nil {
		return fmt.Errorf("invalid queueItem JSON: %w", err)
	}
	return nil
}

// ProcessQueue handles the queue trigger that analyzes an uploaded fiscal log.
// Messages that can never succeed are acknowledged with 200 so the host does not retry them.
func (d *Dependencies) ProcessQueue(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	bodyBytes, err := io.ReadAll(r.Body)
	if err != nil {
		slog.Error("failed to read queue request body", "error", err)
		WriteError(w, http.StatusBadRequest, "Failed to read request body")
		return
	}

	var invokeReq invokeRequest
	if err := json.Unmarshal(bodyBytes, &invokeReq); err != nil {
		slog.Error("failed to unmarshal queue request", "error", err)
		WriteError(w, http.StatusBadRequest, "Failed to unmarshal request")
		return
	}

	var job analysisJob
	if err := decodeQueueItem(invokeReq.Data, &job); err != nil {
		slog.Error("failed to decode queue item", "error", err)
		WriteError(w, http.StatusBadRequest, err.Error())
		return
	}
	if job.BlobName == "" || job.DatasetID == "" {
		slog.Warn("queue message missing blob_name or dataset_id", "job", job)
		WriteError(w, http.StatusBadRequest, "Missing blob_name or dataset_id")
		return
	}

	log := slog.With("dataset_id", job.DatasetID, "blob_name", job.BlobName)
	log.Info("processing queue item", "container", d.Config.UploadContainer)

	content, err := d.Blob.Download(ctx, d.Config.UploadContainer, job.BlobName)
	if err != nil {
		if errors.Is(err, services.ErrNotFound) {
			log.Warn("uploaded blob no longer exists, dropping message")
			w.WriteHeader(http.StatusOK)
			return
		}
		log.Error("failed to download upload from blob", "error", err)
		WriteError(w, http.StatusInternalServerError, fmt.Sprintf("Failed to download upload: %v", err))
		return
	}

	filename := job.Filename
	if filename == "" {
		filename = job.BlobName
	}
	table, err := ingest.ParseFile(content, filename)
	if err == nil {
		err = ingest.ValidateColumns(table, ingest.DataTypeFiscal)
	}
	if err != nil {
		log.Warn("upload cannot be analyzed, dropping message", "error", err)
		w.WriteHeader(http.StatusOK)
		return
	}

	transactions, rowErrors := ingest.FiscalTransactions(table)
	log.Info("parsed fiscal log", "transactions_count", len(transactions), "errors_count", len(rowErrors))

	if len(transactions) == 0 {
		log.Warn("fiscal log has no valid transactions", "errors_count", len(rowErrors))
		w.WriteHeader(http.StatusOK)
		return
	}

	summary := ingest.SummarizeFiscal(table, transactions)
	record := models.AnalysisRecord{
		DatasetID:       job.DatasetID,
		BlobName:        job.BlobName,
		Filename:        job.Filename,
		Uploader:        job.Uploader,
		AnalyzedAt:      time.Now().UTC().Format(time.RFC3339),
		TotalSpend:      summary.TotalSpend,
		TopDepartments:  summary.TopDepartments,
		ConformityScore: summary.BenfordConformityScore,
		RowErrors:       len(rowErrors),
		Result:          summary.Analysis,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		_, err := d.Database.SaveTransactions(gctx, job.DatasetID, transactions)
		return err
	})
	g.Go(func() error {
		return d.Database.SaveAnalysis(gctx, record)
	})
	if err := g.Wait(); err != nil {
		log.Error("failed to persist analysis", "error", err)
		WriteError(w, http.StatusInternalServerError, fmt.Sprintf("Failed to persist analysis: %v", err))
		return
	}

	d.audit(ctx, chainlog.Entry{
		Action: chainlog.ActionAnalyze,
		Actor:  "system",
		Target: job.DatasetID,
		SHA256: chainlog.Digest(ingest.Checksum(content)),
		Meta: map[string]any{
			"sample_size":      record.Result.SampleSize,
			"anomalies":        record.Result.AnomalyCount(),
			"requires_review":  record.Result.RequiresReview,
			"conformity_score": record.ConformityScore,
		},
	})

	if record.Result.RequiresReview {
		d.sendReviewAlert(ctx, record)
	}

	log.Info("queue processing complete", "requires_review", record.Result.RequiresReview)
	w.WriteHeader(http.StatusOK)
}

func (d *Dependencies) sendReviewAlert(ctx context.Context, record models.AnalysisRecord) {
	if d.Email == nil || len(d.Config.Reviewers) == 0 {
		slog.Warn("dataset requires review but no reviewer is configured", "dataset_id", record.DatasetID)
		return
	}

	if err := d.Email.SendReviewAlert(ctx, d.Config.Reviewers, record); err != nil {
		// The analysis is already stored; the nightly digest will include it.
		slog.Error("failed to send review alert", "dataset_id", record.DatasetID, "error", err)
		return
	}

	d.audit(ctx, chainlog.Entry{
		Action: chainlog.ActionReviewAlert,
		Actor:  "system",
		Target: record.DatasetID,
		Meta:   map[string]any{"recipients": d.Config.Reviewers},
	})
}

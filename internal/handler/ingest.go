package handler

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/rocjay1/fiscal-sentinel/internal/chainlog"
	"github.com/rocjay1/fiscal-sentinel/internal/ingest"
	"github.com/rocjay1/fiscal-sentinel/internal/models"
)

const maxUploadSize = 10 << 20

// analysisJob is the message enqueued for background Benford analysis.
type analysisJob struct {
	DatasetID string          `json:"dataset_id"`
	BlobName  string          `json:"blob_name"`
	Filename  string          `json:"filename"`
	Uploader  models.Uploader `json:"uploader"`
}

// retrainJob is the message enqueued for the external retraining worker.
type retrainJob struct {
	DatasetID string `json:"dataset_id"`
	BlobName  string `json:"blob_name"`
	Filename  string `json:"filename"`
	Rows      int    `json:"rows"`
}

type ingestResponse struct {
	Status    string   `json:"status"`
	Message   string   `json:"message"`
	DatasetID string   `json:"dataset_id"`
	DataType  string   `json:"data_type"`
	BlobName  string   `json:"blob_name,omitempty"`
	Summary   any      `json:"summary"`
	RowErrors []string `json:"row_errors,omitempty"`
	models.Uploader
}

// upload is a parsed and validated admin upload.
type upload struct {
	datasetID string
	dataType  ingest.DataType
	filename  string
	content   []byte
	table     *ingest.Table
	uploader  models.Uploader
	now       time.Time
}

func (u *upload) blobName() string {
	return fmt.Sprintf("uploads/%s/%s-%s", u.datasetID, u.now.Format("20060102-150405"), u.filename)
}

// HandleIngest accepts a training, fiscal or welfare dataset from an administrator.
func (d *Dependencies) HandleIngest(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxUploadSize); err != nil {
		slog.Warn("failed to parse multipart form", "error", err, "max_size_mb", 10)
		WriteError(w, http.StatusBadRequest, "File too large or invalid form")
		return
	}

	dataType, err := ingest.ParseDataType(r.FormValue("data_type"))
	if err != nil {
		slog.Warn("rejected upload with invalid data type", "data_type", r.FormValue("data_type"))
		WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	uploaderName := r.FormValue("uploader_name")
	uploaderDept := r.FormValue("uploader_department")
	if uploaderName == "" || uploaderDept == "" {
		WriteError(w, http.StatusBadRequest, "uploader_name and uploader_department are required")
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		slog.Warn("failed to get file from form", "error", err)
		WriteError(w, http.StatusBadRequest, "Failed to get file")
		return
	}
	defer file.Close()

	content, err := io.ReadAll(file)
	if err != nil {
		slog.Error("failed to read uploaded file", "filename", header.Filename, "error", err)
		WriteError(w, http.StatusInternalServerError, "Failed to read file")
		return
	}

	now := time.Now().UTC()
	u := &upload{
		datasetID: uuid.New().String(),
		dataType:  dataType,
		filename:  filepath.Base(header.Filename),
		content:   content,
		uploader: models.Uploader{
			UploadedBy: uploaderName,
			Department: uploaderDept,
			UploadedAt: now.Format(time.RFC3339),
		},
		now: now,
	}
	slog.Info("received dataset upload",
		"dataset_id", u.datasetID,
		"data_type", dataType,
		"filename", u.filename,
		"size_bytes", len(content),
		"uploaded_by", uploaderName,
		"department", uploaderDept,
	)

	u.table, err = ingest.ParseFile(content, u.filename)
	if err != nil {
		slog.Warn("failed to parse upload", "filename", u.filename, "error", err)
		switch {
		case errors.Is(err, ingest.ErrEmptyFile):
			WriteError(w, http.StatusBadRequest, "Uploaded file is empty.")
		case errors.Is(err, ingest.ErrUnsupportedFileType):
			WriteError(w, http.StatusBadRequest, err.Error())
		default:
			WriteError(w, http.StatusBadRequest, "Failed to parse file: "+err.Error())
		}
		return
	}

	if err := ingest.ValidateColumns(u.table, dataType); err != nil {
		slog.Warn("upload is missing required columns", "filename", u.filename, "error", err)
		WriteError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	switch dataType {
	case ingest.DataTypeFiscal:
		d.ingestFiscal(r.Context(), w, u)
	case ingest.DataTypeWelfare:
		d.ingestWelfare(r.Context(), w, u)
	case ingest.DataTypeTraining:
		d.ingestTraining(r.Context(), w, u)
	}
}

func (d *Dependencies) ingestFiscal(ctx context.Context, w http.ResponseWriter, u *upload) {
	transactions, rowErrors := ingest.FiscalTransactions(u.table)
	summary := ingest.SummarizeFiscal(u.table, transactions)
	slog.Info("summarized fiscal upload",
		"dataset_id", u.datasetID,
		"transactions_count", len(transactions),
		"errors_count", len(rowErrors),
		"requires_review", summary.Analysis.RequiresReview,
	)

	blobName := u.blobName()
	if err := d.Blob.Upload(ctx, d.Config.UploadContainer, blobName, u.content); err != nil {
		slog.Error("failed to upload blob", "blob_name", blobName, "container", d.Config.UploadContainer, "error", err)
		WriteError(w, http.StatusInternalServerError, "Failed to upload blob: "+err.Error())
		return
	}

	job := analysisJob{
		DatasetID: u.datasetID,
		BlobName:  blobName,
		Filename:  u.filename,
		Uploader:  u.uploader,
	}
	if err := d.Queue.EnqueueMessage(ctx, d.Config.AnalysisQueue, job); err != nil {
		slog.Error("failed to enqueue message", "queue", d.Config.AnalysisQueue, "dataset_id", u.datasetID, "error", err)
		WriteError(w, http.StatusInternalServerError, "Failed to enqueue message: "+err.Error())
		return
	}

	d.recordIngestion(ctx, u, blobName)

	WriteJSON(w, http.StatusOK, ingestResponse{
		Status:    "success",
		Message:   "Fiscal logs ingested. Benford analysis queued.",
		DatasetID: u.datasetID,
		DataType:  string(u.dataType),
		BlobName:  blobName,
		Summary:   summary,
		RowErrors: rowErrors,
		Uploader:  u.uploader,
	})
}

func (d *Dependencies) ingestWelfare(ctx context.Context, w http.ResponseWriter, u *upload) {
	summary, rowErrors := ingest.SummarizeWelfare(u.table)
	slog.Info("summarized welfare upload",
		"dataset_id", u.datasetID,
		"districts", summary.TotalDistrictsAnalyzed,
		"critical_districts", len(summary.CriticalDistricts),
	)

	d.recordIngestion(ctx, u, "")

	WriteJSON(w, http.StatusOK, ingestResponse{
		Status:    "success",
		Message:   "Ghost beneficiary detection complete.",
		DatasetID: u.datasetID,
		DataType:  string(u.dataType),
		Summary:   summary,
		RowErrors: rowErrors,
		Uploader:  u.uploader,
	})
}

func (d *Dependencies) ingestTraining(ctx context.Context, w http.ResponseWriter, u *upload) {
	summary := ingest.SummarizeTraining(u.table)
	if summary.InvalidOutcomes > 0 {
		slog.Warn("training rows have non-numeric audit_outcome", "dataset_id", u.datasetID, "invalid", summary.InvalidOutcomes)
	}

	blobName := u.blobName()
	if err := d.Blob.Upload(ctx, d.Config.UploadContainer, blobName, u.content); err != nil {
		slog.Error("failed to upload blob", "blob_name", blobName, "container", d.Config.UploadContainer, "error", err)
		WriteError(w, http.StatusInternalServerError, "Failed to upload blob: "+err.Error())
		return
	}

	job := retrainJob{
		DatasetID: u.datasetID,
		BlobName:  blobName,
		Filename:  u.filename,
		Rows:      summary.RowsReceived,
	}
	if err := d.Queue.EnqueueMessage(ctx, d.Config.RetrainQueue, job); err != nil {
		slog.Error("failed to enqueue message", "queue", d.Config.RetrainQueue, "dataset_id", u.datasetID, "error", err)
		WriteError(w, http.StatusInternalServerError, "Failed to enqueue message: "+err.Error())
		return
	}

	d.recordIngestion(ctx, u, blobName)

	WriteJSON(w, http.StatusOK, ingestResponse{
		Status:    "training_started",
		Message:   "Model retraining queued.",
		DatasetID: u.datasetID,
		DataType:  string(u.dataType),
		BlobName:  blobName,
		Summary:   summary,
		Uploader:  u.uploader,
	})
}

// recordIngestion saves the ingestion history entry and the audit entry.
// Neither failure rejects an upload that has already been stored.
func (d *Dependencies) recordIngestion(ctx context.Context, u *upload, blobName string) {
	checksum := ingest.Checksum(u.content)

	record := models.IngestionRecord{
		DatasetID: u.datasetID,
		DataType:  string(u.dataType),
		Filename:  u.filename,
		BlobName:  blobName,
		SHA256:    checksum,
		Rows:      len(u.table.Rows),
		Uploader:  u.uploader,
	}
	if err := d.Database.SaveIngestion(ctx, record); err != nil {
		slog.Error("failed to save ingestion record", "dataset_id", u.datasetID, "error", err)
	}

	d.audit(ctx, chainlog.Entry{
		Action: chainlog.ActionIngest,
		Actor:  u.uploader.UploadedBy,
		Target: u.datasetID,
		SHA256: chainlog.Digest(checksum),
		Meta: map[string]any{
			"data_type":  string(u.dataType),
			"filename":   u.filename,
			"department": u.uploader.Department,
			"rows":       len(u.table.Rows),
		},
	})
}

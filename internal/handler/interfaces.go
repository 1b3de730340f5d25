package handler

import (
	"context"
	"time"

	"github.com/rocjay1/fiscal-sentinel/internal/chainlog"
	"github.com/rocjay1/fiscal-sentinel/internal/models"
)

// DatabaseClient defines the interface for database operations used by handlers.
type DatabaseClient interface {
	SaveTransactions(ctx context.Context, datasetID string, transactions []models.Transaction) (int, error)
	SaveAnalysis(ctx context.Context, record models.AnalysisRecord) error
	GetAnalysis(ctx context.Context, datasetID string) (*models.AnalysisRecord, error)
	ListAnalyses(ctx context.Context, since time.Time) ([]models.AnalysisRecord, error)
	SaveIngestion(ctx context.Context, record models.IngestionRecord) error
}

// BlobClient defines the interface for blob storage operations used by handlers.
type BlobClient interface {
	Upload(ctx context.Context, containerName, blobName string, data []byte) error
	Download(ctx context.Context, containerName, blobName string) ([]byte, error)
}

// QueueClient defines the interface for queue operations used by handlers.
type QueueClient interface {
	EnqueueMessage(ctx context.Context, queueName string, message any) error
}

// EmailClient defines the interface for email operations used by handlers.
type EmailClient interface {
	SendReviewAlert(ctx context.Context, to []string, record models.AnalysisRecord) error
	SendDigest(ctx context.Context, to []string, records []models.AnalysisRecord) error
}

// AuditLog defines the interface for the audit trail used by handlers.
type AuditLog interface {
	Append(ctx context.Context, e chainlog.Entry) error
	Entries(ctx context.Context) ([]chainlog.Entry, error)
}

package handler

import (
	"context"
	"time"

	"github.com/rocjay1/fiscal-sentinel/internal/chainlog"
	"github.com/rocjay1/fiscal-sentinel/internal/models"
)

// MockDatabaseClient is a mock implementation of DatabaseClient
type MockDatabaseClient struct {
	SaveTransactionsFunc func(ctx context.Context, datasetID string, transactions []models.Transaction) (int, error)
	SaveAnalysisFunc     func(ctx context.Context, record models.AnalysisRecord) error
	GetAnalysisFunc      func(ctx context.Context, datasetID string) (*models.AnalysisRecord, error)
	ListAnalysesFunc     func(ctx context.Context, since time.Time) ([]models.AnalysisRecord, error)
	SaveIngestionFunc    func(ctx context.Context, record models.IngestionRecord) error
}

func (m *MockDatabaseClient) SaveTransactions(ctx context.Context, datasetID string, transactions []models.Transaction) (int, error) {
	if m.SaveTransactionsFunc != nil {
		return m.SaveTransactionsFunc(ctx, datasetID, transactions)
	}
	return len(transactions), nil
}

func (m *MockDatabaseClient) SaveAnalysis(ctx context.Context, record models.AnalysisRecord) error {
	if m.SaveAnalysisFunc != nil {
		return m.SaveAnalysisFunc(ctx, record)
	}
	return nil
}

func (m *MockDatabaseClient) GetAnalysis(ctx context.Context, datasetID string) (*models.AnalysisRecord, error) {
	if m.GetAnalysisFunc != nil {
		return m.GetAnalysisFunc(ctx, datasetID)
	}
	return nil, nil
}

func (m *MockDatabaseClient) ListAnalyses(ctx context.Context, since time.Time) ([]models.AnalysisRecord, error) {
	if m.ListAnalysesFunc != nil {
		return m.ListAnalysesFunc(ctx, since)
	}
	return nil, nil
}

func (m *MockDatabaseClient) SaveIngestion(ctx context.Context, record models.IngestionRecord) error {
	if m.SaveIngestionFunc != nil {
		return m.SaveIngestionFunc(ctx, record)
	}
	return nil
}

// MockBlobClient is a mock implementation of BlobClient
type MockBlobClient struct {
	UploadFunc   func(ctx context.Context, containerName, blobName string, data []byte) error
	DownloadFunc func(ctx context.Context, containerName, blobName string) ([]byte, error)
}

func (m *MockBlobClient) Upload(ctx context.Context, containerName, blobName string, data []byte) error {
	if m.UploadFunc != nil {
		return m.UploadFunc(ctx, containerName, blobName, data)
	}
	return nil
}

func (m *MockBlobClient) Download(ctx context.Context, containerName, blobName string) ([]byte, error) {
	if m.DownloadFunc != nil {
		return m.DownloadFunc(ctx, containerName, blobName)
	}
	return nil, nil
}

// MockQueueClient is a mock implementation of QueueClient
type MockQueueClient struct {
	EnqueueMessageFunc func(ctx context.Context, queueName string, message any) error
}

func (m *MockQueueClient) EnqueueMessage(ctx context.Context, queueName string, message any) error {
	if m.EnqueueMessageFunc != nil {
		return m.EnqueueMessageFunc(ctx, queueName, message)
	}
	return nil
}

// MockEmailClient is a mock implementation of EmailClient
type MockEmailClient struct {
	SendReviewAlertFunc func(ctx context.Context, to []string, record models.AnalysisRecord) error
	SendDigestFunc      func(ctx context.Context, to []string, records []models.AnalysisRecord) error
}

func (m *MockEmailClient) SendReviewAlert(ctx context.Context, to []string, record models.AnalysisRecord) error {
	if m.SendReviewAlertFunc != nil {
		return m.SendReviewAlertFunc(ctx, to, record)
	}
	return nil
}

func (m *MockEmailClient) SendDigest(ctx context.Context, to []string, records []models.AnalysisRecord) error {
	if m.SendDigestFunc != nil {
		return m.SendDigestFunc(ctx, to, records)
	}
	return nil
}

// MockAuditLog records appended entries in memory.
type MockAuditLog struct {
	AppendFunc  func(ctx context.Context, e chainlog.Entry) error
	EntriesFunc func(ctx context.Context) ([]chainlog.Entry, error)
	Appended    []chainlog.Entry
}

func (m *MockAuditLog) Append(ctx context.Context, e chainlog.Entry) error {
	m.Appended = append(m.Appended, e)
	if m.AppendFunc != nil {
		return m.AppendFunc(ctx, e)
	}
	return nil
}

func (m *MockAuditLog) Entries(ctx context.Context) ([]chainlog.Entry, error) {
	if m.EntriesFunc != nil {
		return m.EntriesFunc(ctx)
	}
	return m.Appended, nil
}

package services

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
	"github.com/Azure/azure-sdk-for-go/sdk/data/aztables"
	"github.com/rocjay1/fiscal-sentinel/internal/models"
	"github.com/shopspring/decimal"
)

// ErrNotFound is returned when a requested record does not exist.
var ErrNotFound = errors.New("not found")

const (
	analysisPartition = "ANALYSIS"
	batchSize         = 100
)

// DatabaseService handles interactions with Azure Table Storage.
type DatabaseService struct {
	serviceClient     *aztables.ServiceClient
	transactionsTable string
	analysesTable     string
	ingestionsTable   string
}

// NewDatabaseService creates a new DatabaseService instance and ensures its tables exist.
func NewDatabaseService() (*DatabaseService, error) {
	tableURL, err := requireEnv("TABLE_SERVICE_URL")
	if err != nil {
		return nil, err
	}

	var client *aztables.ServiceClient

	if isLocal(tableURL) {
		slog.Info("using Azurite credentials for database service")
		name, key := getAzuriteCredentials()
		cred, err := aztables.NewSharedKeyCredential(name, key)
		if err != nil {
			return nil, fmt.Errorf("failed to create shared key credential: %w", err)
		}
		client, err = aztables.NewServiceClientWithSharedKey(tableURL, cred, nil)
		if err != nil {
			return nil, fmt.Errorf("failed to create table service client with shared key: %w", err)
		}
	} else {
		cred, err := newDefaultAzureCredential()
		if err != nil {
			return nil, fmt.Errorf("failed to create default azure credential: %w", err)
		}
		client, err = aztables.NewServiceClient(tableURL, cred, nil)
		if err != nil {
			return nil, fmt.Errorf("failed to create table service client: %w", err)
		}
	}

	svc := &DatabaseService{
		serviceClient:     client,
		transactionsTable: envOrDefault("TRANSACTIONS_TABLE", "transactions"),
		analysesTable:     envOrDefault("ANALYSES_TABLE", "benfordanalyses"),
		ingestionsTable:   envOrDefault("INGESTIONS_TABLE", "ingestions"),
	}

	if err := svc.CreateTables(context.Background()); err != nil {
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}

	slog.Info("database service initialized successfully",
		"table_url", tableURL,
		"transactions_table", svc.transactionsTable,
		"analyses_table", svc.analysesTable,
		"ingestions_table", svc.ingestionsTable,
	)
	return svc, nil
}

// CreateTables ensures all required tables exist.
func (s *DatabaseService) CreateTables(ctx context.Context) error {
	for _, tableName := range []string{s.transactionsTable, s.analysesTable, s.ingestionsTable} {
		_, err := s.serviceClient.CreateTable(ctx, tableName, nil)
		if err != nil {
			var azErr *azcore.ResponseError
			if errors.As(err, &azErr) && azErr.ErrorCode == "TableAlreadyExists" {
				continue
			}
			return fmt.Errorf("failed to create table %s: %w", tableName, err)
		}
	}
	return nil
}

func (s *DatabaseService) getClient(tableName string) *aztables.Client {
	return s.serviceClient.NewClient(tableName)
}

// GenerateRowKey generates a deterministic key for a transaction.
// index disambiguates otherwise identical rows within one dataset.
func GenerateRowKey(t models.Transaction, index int) string {
	unique := fmt.Sprintf("%s|%s|%s|%s|%d", t.ID, t.Date, t.Department, t.Amount.String(), index)
	hash := sha256.Sum256([]byte(unique))
	return hex.EncodeToString(hash[:])
}

// transactionActions builds upsert actions for a dataset's transactions.
func transactionActions(datasetID string, transactions []models.Transaction) []aztables.TransactionAction {
	occurrences := make(map[string]int)
	actions := make([]aztables.TransactionAction, 0, len(transactions))

	for _, t := range transactions {
		sig := fmt.Sprintf("%s|%s|%s|%s", t.ID, t.Date, t.Department, t.Amount.String())
		idx := occurrences[sig]
		occurrences[sig]++

		entity := map[string]any{
			"PartitionKey":  datasetID,
			"RowKey":        GenerateRowKey(t, idx),
			"TransactionID": t.ID,
			"Date":          t.Date,
			"Department":    t.Department,
			"Amount":        t.Amount.String(),
			"Vendor":        t.Vendor,
			"Purpose":       t.Purpose,
		}
		entityJSON, _ := json.Marshal(entity)
		actions = append(actions, aztables.TransactionAction{
			ActionType: aztables.TransactionTypeInsertReplace,
			Entity:     entityJSON,
		})
	}
	return actions
}

// SaveTransactions upserts a dataset's transactions in batches of 100,
// partitioned by dataset ID. It returns the number of rows written.
func (s *DatabaseService) SaveTransactions(ctx context.Context, datasetID string, transactions []models.Transaction) (int, error) {
	if len(transactions) == 0 {
		return 0, nil
	}

	client := s.getClient(s.transactionsTable)
	actions := transactionActions(datasetID, transactions)

	for i := 0; i < len(actions); i += batchSize {
		end := min(i+batchSize, len(actions))
		if _, err := client.SubmitTransaction(ctx, actions[i:end], nil); err != nil {
			return i, fmt.Errorf("failed to submit transaction batch %d-%d: %w", i, end, err)
		}
	}

	slog.Info("saved transactions", "dataset_id", datasetID, "count", len(actions))
	return len(actions), nil
}

// analysisEntity flattens an analysis record into a table entity.
// The full result is kept as a JSON string so it can be returned verbatim.
func analysisEntity(record models.AnalysisRecord) (map[string]any, error) {
	resultJSON, err := json.Marshal(record.Result)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal analysis result: %w", err)
	}
	deptJSON, err := json.Marshal(record.TopDepartments)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal top departments: %w", err)
	}

	return map[string]any{
		"PartitionKey":    analysisPartition,
		"RowKey":          record.DatasetID,
		"BlobName":        record.BlobName,
		"Filename":        record.Filename,
		"UploadedBy":      record.Uploader.UploadedBy,
		"Department":      record.Uploader.Department,
		"UploadedAt":      record.Uploader.UploadedAt,
		"AnalyzedAt":      record.AnalyzedAt,
		"TotalSpend":      record.TotalSpend.String(),
		"TopDepartments":  string(deptJSON),
		"ConformityScore": record.ConformityScore,
		"RowErrors":       record.RowErrors,
		"SampleSize":      record.Result.SampleSize,
		"RequiresReview":  record.Result.RequiresReview,
		"AnomalyCount":    record.Result.AnomalyCount(),
		"Result":          string(resultJSON),
	}, nil
}

// recordFromEntity rebuilds an analysis record from a stored entity.
func recordFromEntity(raw []byte) (*models.AnalysisRecord, error) {
	var parsed map[string]any
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return nil, fmt.Errorf("failed to unmarshal analysis entity: %w", err)
	}

	getString := func(key string) string {
		if v, ok := parsed[key].(string); ok {
			return v
		}
		return ""
	}
	getFloat := func(key string) float64 {
		if v, ok := parsed[key].(float64); ok {
			return v
		}
		return 0
	}

	record := &models.AnalysisRecord{
		DatasetID: getString("RowKey"),
		BlobName:  getString("BlobName"),
		Filename:  getString("Filename"),
		Uploader: models.Uploader{
			UploadedBy: getString("UploadedBy"),
			Department: getString("Department"),
			UploadedAt: getString("UploadedAt"),
		},
		AnalyzedAt:      getString("AnalyzedAt"),
		ConformityScore: getFloat("ConformityScore"),
		RowErrors:       int(getFloat("RowErrors")),
		TopDepartments:  []models.DepartmentSpend{},
	}

	if v := getString("TotalSpend"); v != "" {
		total, err := decimal.NewFromString(v)
		if err != nil {
			return nil, fmt.Errorf("invalid TotalSpend %q: %w", v, err)
		}
		record.TotalSpend = total
	}
	if v := getString("TopDepartments"); v != "" {
		if err := json.Unmarshal([]byte(v), &record.TopDepartments); err != nil {
			return nil, fmt.Errorf("failed to unmarshal top departments: %w", err)
		}
	}
	if err := json.Unmarshal([]byte(getString("Result")), &record.Result); err != nil {
		return nil, fmt.Errorf("failed to unmarshal analysis result: %w", err)
	}
	return record, nil
}

// SaveAnalysis upserts the analysis of a dataset.
func (s *DatabaseService) SaveAnalysis(ctx context.Context, record models.AnalysisRecord) error {
	entity, err := analysisEntity(record)
	if err != nil {
		return err
	}
	entityJSON, err := json.Marshal(entity)
	if err != nil {
		return fmt.Errorf("failed to marshal analysis entity: %w", err)
	}

	if _, err := s.getClient(s.analysesTable).UpsertEntity(ctx, entityJSON, nil); err != nil {
		return fmt.Errorf("failed to upsert analysis %s: %w", record.DatasetID, err)
	}
	slog.Info("saved analysis", "dataset_id", record.DatasetID, "requires_review", record.Result.RequiresReview)
	return nil
}

// GetAnalysis returns the stored analysis of a dataset, or ErrNotFound.
func (s *DatabaseService) GetAnalysis(ctx context.Context, datasetID string) (*models.AnalysisRecord, error) {
	resp, err := s.getClient(s.analysesTable).GetEntity(ctx, analysisPartition, datasetID, nil)
	if err != nil {
		var azErr *azcore.ResponseError
		if errors.As(err, &azErr) && azErr.StatusCode == http.StatusNotFound {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get analysis %s: %w", datasetID, err)
	}
	return recordFromEntity(resp.Value)
}

// ListAnalyses returns analyses completed at or after since.
func (s *DatabaseService) ListAnalyses(ctx context.Context, since time.Time) ([]models.AnalysisRecord, error) {
	// AnalyzedAt is stored as RFC 3339 UTC, so string order is time order.
	filter := fmt.Sprintf("PartitionKey eq '%s' and AnalyzedAt ge '%s'", analysisPartition, since.UTC().Format(time.RFC3339))
	pager := s.getClient(s.analysesTable).NewListEntitiesPager(&aztables.ListEntitiesOptions{
		Filter: &filter,
	})

	records := []models.AnalysisRecord{}
	for pager.More() {
		resp, err := pager.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to list analyses: %w", err)
		}
		for _, entity := range resp.Entities {
			record, err := recordFromEntity(entity)
			if err != nil {
				slog.Warn("skipping unreadable analysis entity", "error", err)
				continue
			}
			records = append(records, *record)
		}
	}
	return records, nil
}

// SaveIngestion records an accepted upload, partitioned by data type.
func (s *DatabaseService) SaveIngestion(ctx context.Context, record models.IngestionRecord) error {
	entity := map[string]any{
		"PartitionKey": record.DataType,
		"RowKey":       record.DatasetID,
		"Filename":     record.Filename,
		"BlobName":     record.BlobName,
		"SHA256":       record.SHA256,
		"Rows":         record.Rows,
		"UploadedBy":   record.Uploader.UploadedBy,
		"Department":   record.Uploader.Department,
		"UploadedAt":   record.Uploader.UploadedAt,
	}
	entityJSON, err := json.Marshal(entity)
	if err != nil {
		return fmt.Errorf("failed to marshal ingestion entity: %w", err)
	}

	if _, err := s.getClient(s.ingestionsTable).UpsertEntity(ctx, entityJSON, nil); err != nil {
		return fmt.Errorf("failed to upsert ingestion %s: %w", record.DatasetID, err)
	}
	return nil
}

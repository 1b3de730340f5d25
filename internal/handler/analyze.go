package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/rocjay1/fiscal-sentinel/internal/benford"
	"github.com/rocjay1/fiscal-sentinel/internal/currency"
	"github.com/rocjay1/fiscal-sentinel/internal/models"
	"github.com/rocjay1/fiscal-sentinel/internal/services"
)

const maxAnalyzeBody = 10 << 20

type analyzeRequest struct {
	Transactions []json.RawMessage `json:"transactions"`
}

// decodeTransactions decodes each row on its own. A row that cannot be decoded, or whose
// amount is outside currency.InRange, becomes a zero-amount transaction: it counts toward
// the sample size but has no leading digit.
func decodeTransactions(rows []json.RawMessage) ([]models.Transaction, int) {
	transactions := make([]models.Transaction, 0, len(rows))
	malformed := 0
	for _, raw := range rows {
		var t models.Transaction
		if err := json.Unmarshal(raw, &t); err != nil || !currency.InRange(t.Amount) {
			malformed++
			t = models.Transaction{}
		}
		transactions = append(transactions, t)
	}
	return transactions, malformed
}

// HandleAnalyze runs a Benford analysis on transactions supplied in the request body.
func (d *Dependencies) HandleAnalyze(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxAnalyzeBody)

	var req analyzeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		slog.Warn("invalid analyze request body", "error", err)
		WriteError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.Transactions == nil {
		WriteError(w, http.StatusBadRequest, "transactions is required")
		return
	}

	transactions, malformed := decodeTransactions(req.Transactions)
	if malformed > 0 {
		slog.Warn("analyze request has malformed transactions", "malformed", malformed, "total", len(transactions))
	}

	result := benford.Analyze(transactions)
	slog.Info("analyzed transactions", "sample_size", result.SampleSize, "requires_review", result.RequiresReview)
	WriteJSON(w, http.StatusOK, result)
}

// HandleGetResult returns the stored analysis of an ingested dataset.
func (d *Dependencies) HandleGetResult(w http.ResponseWriter, r *http.Request) {
	datasetID := r.PathValue("datasetId")
	if datasetID == "" {
		WriteError(w, http.StatusBadRequest, "Missing dataset ID")
		return
	}

	record, err := d.Database.GetAnalysis(r.Context(), datasetID)
	if err != nil {
		if errors.Is(err, services.ErrNotFound) {
			WriteError(w, http.StatusNotFound, "Analysis not found")
			return
		}
		slog.Error("failed to get analysis", "dataset_id", datasetID, "error", err)
		WriteError(w, http.StatusInternalServerError, "Failed to get analysis: "+err.Error())
		return
	}
	WriteJSON(w, http.StatusOK, record)
}

package handler

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/rocjay1/fiscal-sentinel/internal/fraud"
	"github.com/rocjay1/fiscal-sentinel/internal/models"
)

const (
	maxBatchSize = 1000
	maxFraudBody = 1 << 20
)

type batchRequest struct {
	Contracts []models.Contract `json:"contracts"`
}

type batchResponse struct {
	fraud.BatchSummary
	Assessments []fraud.Assessment `json:"assessments"`
}

// HandleFraudSignals screens a single contract for procurement red flags.
func (d *Dependencies) HandleFraudSignals(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxFraudBody)

	var contract models.Contract
	if err := json.NewDecoder(r.Body).Decode(&contract); err != nil {
		slog.Warn("invalid contract request body", "error", err)
		WriteError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if err := fraud.Validate(&contract); err != nil {
		WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	assessment := fraud.Assess(contract)
	slog.Info("screened contract", "contract", contract.Name, "signals", len(assessment.Signals))
	WriteJSON(w, http.StatusOK, assessment)
}

// HandleFraudSignalsBatch screens several contracts and summarizes the results.
func (d *Dependencies) HandleFraudSignalsBatch(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxFraudBody)

	var req batchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		slog.Warn("invalid batch request body", "error", err)
		WriteError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if len(req.Contracts) == 0 {
		WriteError(w, http.StatusBadRequest, "contracts must not be empty")
		return
	}
	if len(req.Contracts) > maxBatchSize {
		WriteError(w, http.StatusBadRequest, fmt.Sprintf("at most %d contracts per batch", maxBatchSize))
		return
	}

	assessments := make([]fraud.Assessment, 0, len(req.Contracts))
	for i := range req.Contracts {
		if err := fraud.Validate(&req.Contracts[i]); err != nil {
			WriteError(w, http.StatusBadRequest, fmt.Sprintf("contract %d: %v", i, err))
			return
		}
		assessments = append(assessments, fraud.Assess(req.Contracts[i]))
	}

	summary := fraud.SummarizeBatch(assessments)
	slog.Info("screened contract batch", "total", summary.TotalContracts, "scored", summary.ScoredContracts)
	WriteJSON(w, http.StatusOK, batchResponse{BatchSummary: summary, Assessments: assessments})
}

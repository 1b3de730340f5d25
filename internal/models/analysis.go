package models

import (
	"github.com/shopspring/decimal"
)

// DigitDeviation is the signed gap between observed and expected frequency for one leading digit.
type DigitDeviation struct {
	Digit     int     `json:"digit"`
	Deviation float64 `json:"deviation"` // percentage points
	IsAnomaly bool    `json:"isAnomaly"`
}

// AnalysisResult is the outcome of a Benford first-digit analysis.
type AnalysisResult struct {
	Observed       map[int]float64  `json:"observed"`
	Expected       map[int]float64  `json:"expected"`
	Deviations     []DigitDeviation `json:"deviations"`
	SampleSize     int              `json:"sampleSize"`
	Interpretation string           `json:"interpretation"`
	RequiresReview bool             `json:"requiresReview"`
}

// AnomalyCount returns the number of digits flagged as anomalous.
func (r AnalysisResult) AnomalyCount() int {
	n := 0
	for _, d := range r.Deviations {
		if d.IsAnomaly {
			n++
		}
	}
	return n
}

// AnalysisRecord is a persisted analysis of an uploaded fiscal dataset.
type AnalysisRecord struct {
	DatasetID       string            `json:"dataset_id"`
	BlobName        string            `json:"blob_name"`
	Filename        string            `json:"filename"`
	Uploader        Uploader          `json:"uploader"`
	AnalyzedAt      string            `json:"analyzed_at"` // RFC 3339, UTC
	TotalSpend      decimal.Decimal   `json:"total_spend"`
	TopDepartments  []DepartmentSpend `json:"top_departments"`
	ConformityScore float64           `json:"conformity_score"`
	RowErrors       int               `json:"row_errors"`
	Result          AnalysisResult    `json:"result"`
}

// IngestionRecord captures an accepted upload for the ingestion history.
type IngestionRecord struct {
	DatasetID string   `json:"dataset_id"`
	DataType  string   `json:"data_type"`
	Filename  string   `json:"filename"`
	BlobName  string   `json:"blob_name,omitempty"`
	SHA256    string   `json:"sha256"`
	Rows      int      `json:"rows"`
	Uploader  Uploader `json:"uploader"`
}

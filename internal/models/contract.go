package models

import (
	"github.com/shopspring/decimal"
)

// Severity grades how strongly a fraud signal points at irregularity.
type Severity string

const (
	SeverityHigh   Severity = "high"
	SeverityMedium Severity = "medium"
	SeverityLow    Severity = "low"
)

// RiskLevel is the band a corruption risk index falls into.
type RiskLevel string

const (
	RiskCritical RiskLevel = "CRITICAL"
	RiskHigh     RiskLevel = "HIGH"
	RiskModerate RiskLevel = "MODERATE"
	RiskLow      RiskLevel = "LOW"
)

// Contract is a public procurement contract submitted for screening.
type Contract struct {
	Name           string          `json:"name"`
	Department     string          `json:"department,omitempty"`
	EstimatedPrice decimal.Decimal `json:"estimated_price"`
	FinalPrice     decimal.Decimal `json:"final_price"`
	Bidders        int             `json:"bidders"`
	AwardMonth     *int            `json:"award_month,omitempty"` // 1-12, defaults to 6 when absent or null
	IsSunday       bool            `json:"is_sunday"`
	IsDecember     bool            `json:"is_december"`
	PredictedCRI   *float64        `json:"predicted_cri,omitempty"` // from the external scoring service
}

// FraudSignal is a rule-based indicator raised against a contract.
type FraudSignal struct {
	Signal      string   `json:"signal"`
	Description string   `json:"description"`
	Severity    Severity `json:"severity"`
}

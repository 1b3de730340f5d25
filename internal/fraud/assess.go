package fraud

import (
	"math"
	"unicode/utf8"

	"github.com/rocjay1/fiscal-sentinel/internal/models"
	"github.com/shopspring/decimal"
)

// FeatureBreakdown exposes the contract features behind the signals.
type FeatureBreakdown struct {
	PriceEfficiency    float64 `json:"price_efficiency"`
	IsRoundNumber      bool    `json:"is_round_number"`
	SingleBidder       bool    `json:"single_bidder"`
	TitleLength        int     `json:"title_length"`
	AwardMonth         int     `json:"award_month"`
	CostOverrunPercent float64 `json:"cost_overrun_percent"`
}

// RiskAssessment is the band a corruption risk index falls into.
type RiskAssessment struct {
	CRI            float64          `json:"predicted_cri"`
	Level          models.RiskLevel `json:"risk_level"`
	Color          string           `json:"risk_color"`
	Recommendation string           `json:"recommendation"`
}

// Assessment is the screening result for one contract.
type Assessment struct {
	ContractName string               `json:"contract_name"`
	Signals      []models.FraudSignal `json:"fraud_signals"`
	Breakdown    FeatureBreakdown     `json:"feature_breakdown"`
	Risk         *RiskAssessment      `json:"risk,omitempty"`
}

// Breakdown derives the model features for the contract.
func Breakdown(c models.Contract) FeatureBreakdown {
	efficiency := decimal.NewFromInt(1)
	if c.EstimatedPrice.IsPositive() {
		efficiency = c.FinalPrice.Div(c.EstimatedPrice)
	}

	overrun := 0.0
	if efficiency.GreaterThan(decimal.NewFromInt(1)) {
		overrun = efficiency.Sub(decimal.NewFromInt(1)).Mul(hundred).Round(2).InexactFloat64()
	}

	month := defaultAwardMonth
	if c.AwardMonth != nil {
		month = *c.AwardMonth
	}

	return FeatureBreakdown{
		PriceEfficiency:    efficiency.Round(3).InexactFloat64(),
		IsRoundNumber:      isRoundNumber(c.FinalPrice),
		SingleBidder:       c.Bidders == 1,
		TitleLength:        utf8.RuneCountInString(c.Name),
		AwardMonth:         month,
		CostOverrunPercent: overrun,
	}
}

// ClassifyRisk maps a corruption risk index in [0, 1] to a risk band.
func ClassifyRisk(cri float64) RiskAssessment {
	r := RiskAssessment{CRI: round4(cri)}
	switch {
	case cri >= 0.7:
		r.Level, r.Color, r.Recommendation = models.RiskCritical, "red", "IMMEDIATE INVESTIGATION REQUIRED"
	case cri >= 0.5:
		r.Level, r.Color, r.Recommendation = models.RiskHigh, "orange", "Detailed audit recommended"
	case cri >= 0.3:
		r.Level, r.Color, r.Recommendation = models.RiskModerate, "yellow", "Enhanced monitoring advised"
	default:
		r.Level, r.Color, r.Recommendation = models.RiskLow, "green", "Standard oversight sufficient"
	}
	return r
}

// Assess screens a contract. The risk band is only set when the contract
// carries a score from the external scoring service.
func Assess(c models.Contract) Assessment {
	a := Assessment{
		ContractName: c.Name,
		Signals:      DetectSignals(c),
		Breakdown:    Breakdown(c),
	}
	if c.PredictedCRI != nil {
		risk := ClassifyRisk(*c.PredictedCRI)
		a.Risk = &risk
	}
	return a
}

// BatchSummary aggregates the assessments of a batch of contracts.
type BatchSummary struct {
	TotalContracts   int                     `json:"total_contracts"`
	ScoredContracts  int                     `json:"scored_contracts"`
	AverageCRI       *float64                `json:"average_cri,omitempty"`
	MaxCRI           *float64                `json:"max_cri,omitempty"`
	MinCRI           *float64                `json:"min_cri,omitempty"`
	RiskDistribution map[string]int          `json:"risk_distribution"`
	SignalCounts     map[string]int          `json:"signal_counts"`
	SeverityCounts   map[models.Severity]int `json:"severity_counts"`
}

// SummarizeBatch computes risk and signal statistics across assessments.
// CRI statistics only cover scored contracts and are omitted when none are scored.
func SummarizeBatch(assessments []Assessment) BatchSummary {
	s := BatchSummary{
		TotalContracts: len(assessments),
		RiskDistribution: map[string]int{
			"critical": 0,
			"high":     0,
			"moderate": 0,
			"low":      0,
		},
		SignalCounts:   make(map[string]int),
		SeverityCounts: make(map[models.Severity]int),
	}

	sum, maxCRI, minCRI := 0.0, math.Inf(-1), math.Inf(1)
	for _, a := range assessments {
		for _, sig := range a.Signals {
			s.SignalCounts[sig.Signal]++
			s.SeverityCounts[sig.Severity]++
		}
		if a.Risk == nil {
			continue
		}
		s.ScoredContracts++
		s.RiskDistribution[riskKey(a.Risk.Level)]++
		sum += a.Risk.CRI
		maxCRI = math.Max(maxCRI, a.Risk.CRI)
		minCRI = math.Min(minCRI, a.Risk.CRI)
	}

	if s.ScoredContracts > 0 {
		avg := round4(sum / float64(s.ScoredContracts))
		maxCRI, minCRI = round4(maxCRI), round4(minCRI)
		s.AverageCRI, s.MaxCRI, s.MinCRI = &avg, &maxCRI, &minCRI
	}
	return s
}

func riskKey(level models.RiskLevel) string {
	switch level {
	case models.RiskCritical:
		return "critical"
	case models.RiskHigh:
		return "high"
	case models.RiskModerate:
		return "moderate"
	}
	return "low"
}

func round4(v float64) float64 {
	return math.Round(v*10000) / 10000
}

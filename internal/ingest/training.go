package ingest

// TrainingSummary describes a training dataset queued for model retraining.
type TrainingSummary struct {
	RowsReceived        int            `json:"rows_received"`
	Columns             []string       `json:"columns"`
	InvalidOutcomes     int            `json:"invalid_outcomes"`
	OutcomeDistribution map[string]int `json:"outcome_distribution"`
}

// SummarizeTraining counts audit outcomes. Non-numeric outcomes are counted
// as invalid; the retraining job drops them.
func SummarizeTraining(table *Table) TrainingSummary {
	summary := TrainingSummary{
		RowsReceived:        len(table.Rows),
		Columns:             append([]string(nil), table.Columns...),
		OutcomeDistribution: make(map[string]int),
	}

	for _, row := range table.Rows {
		outcome, err := parseAmount(row["audit_outcome"])
		if err != nil {
			summary.InvalidOutcomes++
			continue
		}
		summary.OutcomeDistribution[outcome.String()]++
	}
	return summary
}

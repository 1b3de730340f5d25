package ingest

import (
	"fmt"

	"github.com/rocjay1/fiscal-sentinel/internal/models"
)

// WelfareSummary reports districts with more active beneficiaries than people below the poverty line.
type WelfareSummary struct {
	TotalDistrictsAnalyzed   int                      `json:"total_districts_analyzed"`
	CriticalDistricts        []string                 `json:"critical_districts"`
	TotalExcessBeneficiaries int64                    `json:"total_excess_beneficiaries"`
	Details                  []models.WelfareDistrict `json:"details"`
}

// SummarizeWelfare computes the beneficiary gap for every district row.
// A positive gap marks a potential ghost-beneficiary district.
func SummarizeWelfare(table *Table) (WelfareSummary, []string) {
	summary := WelfareSummary{
		TotalDistrictsAnalyzed: len(table.Rows),
		CriticalDistricts:      []string{},
		Details:                []models.WelfareDistrict{},
	}
	var errors []string

	for i, row := range table.Rows {
		rowNum := i + 2
		bpl, err := parseCount(row["population_bpl"])
		if err != nil {
			errors = append(errors, fmt.Sprintf("Row %d: invalid population_bpl: %s", rowNum, row["population_bpl"]))
			continue
		}
		active, err := parseCount(row["active_beneficiaries"])
		if err != nil {
			errors = append(errors, fmt.Sprintf("Row %d: invalid active_beneficiaries: %s", rowNum, row["active_beneficiaries"]))
			continue
		}

		gap := active - bpl
		if gap <= 0 {
			continue
		}
		summary.CriticalDistricts = append(summary.CriticalDistricts, row["district_name"])
		summary.TotalExcessBeneficiaries += gap
		summary.Details = append(summary.Details, models.WelfareDistrict{
			DistrictName:        row["district_name"],
			PopulationBPL:       bpl,
			ActiveBeneficiaries: active,
			Gap:                 gap,
		})
	}

	return summary, errors
}

func parseCount(s string) (int64, error) {
	d, err := parseAmount(amountCleaner.Replace(s))
	if err != nil {
		return 0, err
	}
	return d.IntPart(), nil
}

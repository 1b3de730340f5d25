package models

import (
	"github.com/shopspring/decimal"
)

// Transaction represents one monetary ledger entry from a fiscal log.
type Transaction struct {
	ID         string          `json:"id"`
	Date       string          `json:"date"` // ISO 8601, not validated
	Department string          `json:"department"`
	Amount     decimal.Decimal `json:"amount"`
	Vendor     string          `json:"vendor,omitempty"`
	Purpose    string          `json:"purpose,omitempty"`
}

// Uploader identifies who submitted a dataset.
type Uploader struct {
	UploadedBy string `json:"uploaded_by"`
	Department string `json:"department"`
	UploadedAt string `json:"uploaded_at"` // RFC 3339, UTC
}

// DepartmentSpend is the total spend of a single department.
type DepartmentSpend struct {
	Department string          `json:"department"`
	Total      decimal.Decimal `json:"total"`
}

// WelfareDistrict is a district row from a welfare beneficiary dataset.
type WelfareDistrict struct {
	DistrictName        string `json:"district_name"`
	PopulationBPL       int64  `json:"population_bpl"`
	ActiveBeneficiaries int64  `json:"active_beneficiaries"`
	Gap                 int64  `json:"gap"`
}

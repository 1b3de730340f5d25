package ingest

import (
	"fmt"
	"sort"
	"strings"

	"github.com/rocjay1/fiscal-sentinel/internal/benford"
	"github.com/rocjay1/fiscal-sentinel/internal/currency"
	"github.com/rocjay1/fiscal-sentinel/internal/models"
	"github.com/shopspring/decimal"
)

const (
	topDepartmentLimit = 10
	maxAmountLength    = 64
)

var amountCleaner = strings.NewReplacer(",", "", "₹", "", " ", "")

// parseAmount parses a cleaned amount cell, rejecting values outside currency.InRange.
func parseAmount(s string) (decimal.Decimal, error) {
	if len(s) > maxAmountLength {
		return decimal.Zero, fmt.Errorf("amount too long")
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, err
	}
	if !currency.InRange(d) {
		return decimal.Zero, fmt.Errorf("amount out of range")
	}
	return d, nil
}

// FiscalSummary is returned after a fiscal log upload.
type FiscalSummary struct {
	TotalTransactions      int                      `json:"total_transactions"`
	TotalSpend             decimal.Decimal          `json:"total_spend"`
	BenfordConformityScore float64                  `json:"benford_conformity_score"`
	TopDepartments         []models.DepartmentSpend `json:"top_departments"`
	Analysis               models.AnalysisResult    `json:"benford_analysis"`
}

// FiscalTransactions maps fiscal log rows to transactions.
// Rows whose amount cannot be parsed are skipped and reported as "Row N: reason",
// numbered from 2 to match the line of a CSV with a header.
func FiscalTransactions(table *Table) ([]models.Transaction, []string) {
	transactions := make([]models.Transaction, 0, len(table.Rows))
	var errors []string

	for i, row := range table.Rows {
		rowNum := i + 2
		t, err := mapToTransaction(row)
		if err != nil {
			errors = append(errors, fmt.Sprintf("Row %d: %v", rowNum, err))
			continue
		}
		transactions = append(transactions, *t)
	}

	return transactions, errors
}

func mapToTransaction(row map[string]string) (*models.Transaction, error) {
	amountStr := amountCleaner.Replace(row["amount"])
	if amountStr == "" {
		return nil, fmt.Errorf("missing amount")
	}
	amount, err := parseAmount(amountStr)
	if err != nil {
		return nil, fmt.Errorf("invalid amount: %s", row["amount"])
	}

	return &models.Transaction{
		ID:         row["transaction_id"],
		Date:       row["date"],
		Department: row["department"],
		Amount:     amount,
		Vendor:     row["vendor"],
		Purpose:    row["purpose"],
	}, nil
}

// SummarizeFiscal computes spend totals and digit statistics for a fiscal upload.
func SummarizeFiscal(table *Table, transactions []models.Transaction) FiscalSummary {
	total := decimal.Zero
	for _, t := range transactions {
		total = total.Add(t.Amount)
	}

	summary := FiscalSummary{
		TotalTransactions:      len(table.Rows),
		TotalSpend:             total.Round(2),
		BenfordConformityScore: benford.ConformityScore(transactions),
		TopDepartments:         []models.DepartmentSpend{},
		Analysis:               benford.Analyze(transactions),
	}
	if table.HasColumn("department") {
		summary.TopDepartments = TopDepartments(transactions, topDepartmentLimit)
	}
	return summary
}

// TopDepartments returns the departments with the highest total spend, largest first.
// Transactions without a department are ignored.
func TopDepartments(transactions []models.Transaction, limit int) []models.DepartmentSpend {
	totals := make(map[string]decimal.Decimal)
	for _, t := range transactions {
		if t.Department == "" {
			continue
		}
		totals[t.Department] = totals[t.Department].Add(t.Amount)
	}

	spend := make([]models.DepartmentSpend, 0, len(totals))
	for dept, total := range totals {
		spend = append(spend, models.DepartmentSpend{Department: dept, Total: total})
	}
	sort.Slice(spend, func(i, j int) bool {
		if c := spend[i].Total.Cmp(spend[j].Total); c != 0 {
			return c > 0
		}
		return spend[i].Department < spend[j].Department
	})

	if len(spend) > limit {
		spend = spend[:limit]
	}
	return spend
}

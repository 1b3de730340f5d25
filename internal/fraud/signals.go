// Package fraud screens procurement contracts with rule-based red flags.
package fraud

import (
	"errors"
	"fmt"
	"unicode/utf8"

	"github.com/rocjay1/fiscal-sentinel/internal/currency"
	"github.com/rocjay1/fiscal-sentinel/internal/models"
	"github.com/shopspring/decimal"
)

const (
	defaultAwardMonth = 6
	vagueTitleLength  = 30
)

var (
	roundUnit       = decimal.NewFromInt(1000)
	hundred         = decimal.NewFromInt(100)
	overrunFlag     = decimal.NewFromInt(5)
	overrunSevere   = decimal.NewFromInt(20)
	errInvalidPrice = errors.New("estimated_price and final_price must be greater than zero")
	errPriceRange   = errors.New("estimated_price and final_price are out of range")
)

// Validate checks the contract fields and fills in the default award month.
func Validate(c *models.Contract) error {
	if c.Name == "" {
		return errors.New("name is required")
	}
	if !c.EstimatedPrice.IsPositive() || !c.FinalPrice.IsPositive() {
		return errInvalidPrice
	}
	if !currency.InRange(c.EstimatedPrice) || !currency.InRange(c.FinalPrice) {
		return errPriceRange
	}
	if c.Bidders < 1 {
		return fmt.Errorf("bidders must be at least 1, got %d", c.Bidders)
	}
	if c.AwardMonth == nil {
		month := defaultAwardMonth
		c.AwardMonth = &month
	}
	if *c.AwardMonth < 1 || *c.AwardMonth > 12 {
		return fmt.Errorf("award_month must be between 1 and 12, got %d", *c.AwardMonth)
	}
	if c.PredictedCRI != nil && (*c.PredictedCRI < 0 || *c.PredictedCRI > 1) {
		return fmt.Errorf("predicted_cri must be between 0 and 1, got %v", *c.PredictedCRI)
	}
	return nil
}

// overrunPercent returns how far the final price exceeds the estimate, in percent.
func overrunPercent(c models.Contract) decimal.Decimal {
	if !c.EstimatedPrice.IsPositive() {
		return decimal.Zero
	}
	return c.FinalPrice.Sub(c.EstimatedPrice).Div(c.EstimatedPrice).Mul(hundred)
}

func isRoundNumber(price decimal.Decimal) bool {
	return price.Mod(roundUnit).IsZero()
}

// DetectSignals returns the red flags raised by the contract, in a fixed order.
func DetectSignals(c models.Contract) []models.FraudSignal {
	signals := []models.FraudSignal{}

	if isRoundNumber(c.FinalPrice) {
		signals = append(signals, models.FraudSignal{
			Signal:      "Round Number",
			Description: fmt.Sprintf("Final price (%s) is a round number (divisible by 1000)", c.FinalPrice.StringFixed(0)),
			Severity:    models.SeverityMedium,
		})
	}

	if c.Bidders == 1 {
		signals = append(signals, models.FraudSignal{
			Signal:      "Single Bidder",
			Description: "Only one bidder participated - indicates potential bid rigging",
			Severity:    models.SeverityHigh,
		})
	}

	if n := utf8.RuneCountInString(c.Name); n < vagueTitleLength {
		signals = append(signals, models.FraudSignal{
			Signal:      "Vague Title",
			Description: fmt.Sprintf("Contract title is too short (%d chars) - may hide true purpose", n),
			Severity:    models.SeverityMedium,
		})
	}

	if overrun := overrunPercent(c); overrun.GreaterThan(overrunFlag) {
		severity := models.SeverityMedium
		if overrun.GreaterThan(overrunSevere) {
			severity = models.SeverityHigh
		}
		signals = append(signals, models.FraudSignal{
			Signal:      "Cost Overrun",
			Description: fmt.Sprintf("Final price exceeds estimate by %s%%", overrun.StringFixed(1)),
			Severity:    severity,
		})
	}

	if c.IsSunday {
		signals = append(signals, models.FraudSignal{
			Signal:      "Sunday Award",
			Description: "Contract awarded on Sunday - unusual timing",
			Severity:    models.SeverityLow,
		})
	}

	if c.IsDecember {
		signals = append(signals, models.FraudSignal{
			Signal:      "December Rush",
			Description: "Contract awarded in December - year-end budget spending rush",
			Severity:    models.SeverityLow,
		})
	}

	return signals
}

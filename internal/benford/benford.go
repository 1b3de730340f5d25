// Package benford implements first-digit analysis of monetary amounts against Benford's Law.
package benford

import (
	"fmt"
	"math"
	"math/big"
	"strconv"

	"github.com/rocjay1/fiscal-sentinel/internal/models"
	"github.com/shopspring/decimal"
)

const (
	// MinSampleSize is the smallest transaction count analyzed digit by digit.
	MinSampleSize = 50

	// AnomalyThreshold is the deviation, in percentage points, a digit must exceed to be flagged.
	AnomalyThreshold = 5.0
)

const (
	smallSampleInterpretation = "Sample size too small for reliable Benford analysis (minimum 50 transactions recommended)."
	conformingInterpretation  = "Digit distribution conforms to Benford's Law expectations. No significant anomalies detected."
)

// expected holds the Benford percentage for each leading digit; index 0 is unused.
var expected = [10]float64{0, 30.1, 17.6, 12.5, 9.7, 7.9, 6.7, 5.8, 5.1, 4.6}

// Expected returns the Benford expected percentage for each leading digit 1-9.
func Expected() map[int]float64 {
	m := make(map[int]float64, 9)
	for d := 1; d <= 9; d++ {
		m[d] = expected[d]
	}
	return m
}

// ExpectedPercent returns the expected percentage for a single digit, or 0 outside 1-9.
func ExpectedPercent(digit int) float64 {
	if digit < 1 || digit > 9 {
		return 0
	}
	return expected[digit]
}

// FirstDigit returns the first significant digit of the amount's magnitude.
// Zero has no leading digit and reports false.
func FirstDigit(amount decimal.Decimal) (int, bool) {
	if amount.IsZero() {
		return 0, false
	}
	// The coefficient carries no leading zeros, so 0.05 yields "5" and 9900 yields "9900".
	coef := amount.Abs().Coefficient().String()
	for _, c := range coef {
		if c >= '1' && c <= '9' {
			return int(c - '0'), true
		}
	}
	return 0, false
}

// digitCounts tallies leading digits and returns the counts with the number of valid amounts.
func digitCounts(transactions []models.Transaction) ([10]int, int) {
	var counts [10]int
	valid := 0
	for _, t := range transactions {
		d, ok := FirstDigit(t.Amount)
		if !ok {
			continue
		}
		counts[d]++
		valid++
	}
	return counts, valid
}

// ObservedFrequency returns the percentage of valid amounts starting with each digit 1-9.
// Amounts without a leading digit are excluded from the denominator.
func ObservedFrequency(transactions []models.Transaction) map[int]float64 {
	counts, valid := digitCounts(transactions)
	observed := make(map[int]float64, 9)
	for d := 1; d <= 9; d++ {
		if valid > 0 {
			observed[d] = float64(counts[d]) / float64(valid) * 100
		} else {
			observed[d] = 0
		}
	}
	return observed
}

func isAnomaly(deviation float64) bool {
	return math.Abs(deviation) > AnomalyThreshold
}

// Analyze compares the leading-digit distribution of the transactions with Benford's Law.
// Fewer than MinSampleSize transactions yield a result with no per-digit data.
func Analyze(transactions []models.Transaction) models.AnalysisResult {
	sampleSize := len(transactions)

	if sampleSize < MinSampleSize {
		return models.AnalysisResult{
			Observed:       map[int]float64{},
			Expected:       Expected(),
			Deviations:     []models.DigitDeviation{},
			SampleSize:     sampleSize,
			Interpretation: smallSampleInterpretation,
			RequiresReview: false,
		}
	}

	observed := ObservedFrequency(transactions)
	deviations := make([]models.DigitDeviation, 0, 9)

	maxDeviation := 0.0
	maxDigit := 0
	anomalies := 0

	for d := 1; d <= 9; d++ {
		deviation := observed[d] - expected[d]
		flagged := isAnomaly(deviation)
		if flagged {
			anomalies++
		}
		// Strict comparison keeps the lowest digit on ties.
		if math.Abs(deviation) > math.Abs(maxDeviation) {
			maxDeviation = deviation
			maxDigit = d
		}
		deviations = append(deviations, models.DigitDeviation{
			Digit:     d,
			Deviation: deviation,
			IsAnomaly: flagged,
		})
	}

	result := models.AnalysisResult{
		Observed:   observed,
		Expected:   Expected(),
		Deviations: deviations,
		SampleSize: sampleSize,
	}

	if anomalies == 0 {
		result.Interpretation = conformingInterpretation
		return result
	}

	result.Interpretation = anomalyInterpretation(maxDigit, observed[maxDigit])
	result.RequiresReview = true
	return result
}

func anomalyInterpretation(digit int, observedPct float64) string {
	expectedPct := expected[digit]
	ratio := observedPct / expectedPct
	return fmt.Sprintf("Transactions starting with digit '%d' appear %s× more frequently than expected (%s%% observed vs %s%% expected). ",
		digit, oneDecimal(ratio), oneDecimal(observedPct), strconv.FormatFloat(expectedPct, 'f', -1, 64)) +
		"This pattern is consistent with spending clustered just below approval thresholds (e.g., ₹10,000 / ₹1,00,000). " +
		"This does not prove wrongdoing but indicates a high-priority audit signal."
}

// oneDecimal formats x with one fractional digit, rounding exact halves away from zero.
// fmt rounds halves to even, which would print 12.25 as "12.2".
func oneDecimal(x float64) string {
	if math.IsNaN(x) || math.IsInf(x, 0) {
		return strconv.FormatFloat(x, 'f', 1, 64)
	}
	v := new(big.Float).SetPrec(128).SetFloat64(math.Abs(x))
	v.Mul(v, big.NewFloat(10))
	v.Add(v, big.NewFloat(0.5))
	tenths, _ := v.Int(nil)

	s := tenths.String()
	if len(s) < 2 {
		s = "0" + s
	}
	out := s[:len(s)-1] + "." + s[len(s)-1:]
	if x < 0 && tenths.Sign() != 0 {
		out = "-" + out
	}
	return out
}

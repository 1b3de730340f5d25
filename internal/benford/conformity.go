package benford

import (
	"math"

	"github.com/rocjay1/fiscal-sentinel/internal/models"
)

// ConformityScore returns a 0-1 score of how closely the leading digits follow
// the logarithmic Benford distribution, where 1 is perfect conformity.
// It is a chi-squared style sum over digit proportions, clamped at zero and
// rounded to four decimal places.
func ConformityScore(transactions []models.Transaction) float64 {
	counts, valid := digitCounts(transactions)
	if valid == 0 {
		return 0
	}

	deviation := 0.0
	for d := 1; d <= 9; d++ {
		obs := float64(counts[d]) / float64(valid)
		exp := math.Log10(1 + 1/float64(d))
		deviation += (obs - exp) * (obs - exp) / exp
	}

	score := math.Max(0, 1-deviation)
	return math.Round(score*10000) / 10000
}

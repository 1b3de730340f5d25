// Package currency formats rupee amounts for reports and notifications.
package currency

import (
	"strings"

	"github.com/shopspring/decimal"
)

const rupee = "₹"

// Bounds on amounts accepted from uploads and requests.
const (
	MaxIntegerDigits = 18
	MaxScale         = 18

	maxCoefficientBits = 128
)

var (
	crore    = decimal.NewFromInt(10_000_000)
	lakh     = decimal.NewFromInt(100_000)
	thousand = decimal.NewFromInt(1_000)
)

// InRange reports whether an amount has at most MaxIntegerDigits digits before
// the decimal point and at most MaxScale after it. Arithmetic on amounts outside
// these bounds can expand the exponent into arbitrarily large integers.
func InRange(amount decimal.Decimal) bool {
	exp := amount.Exponent()
	if exp < -MaxScale || exp > MaxIntegerDigits {
		return false
	}
	if amount.Coefficient().BitLen() > maxCoefficientBits {
		return false
	}
	return amount.NumDigits()+int(exp) <= MaxIntegerDigits
}

// FormatINR renders a whole-rupee amount with Indian digit grouping, e.g. ₹12,34,567.
func FormatINR(amount decimal.Decimal) string {
	rounded := amount.Round(0)
	sign := ""
	if rounded.IsNegative() {
		sign = "-"
	}
	return sign + rupee + groupIndian(rounded.Abs().StringFixed(0))
}

// FormatIndian abbreviates large amounts using crore, lakh and thousand suffixes.
func FormatIndian(amount decimal.Decimal) string {
	switch {
	case amount.GreaterThanOrEqual(crore):
		return rupee + amount.Div(crore).StringFixed(2) + " Cr"
	case amount.GreaterThanOrEqual(lakh):
		return rupee + amount.Div(lakh).StringFixed(2) + " L"
	case amount.GreaterThanOrEqual(thousand):
		return rupee + amount.Div(thousand).StringFixed(2) + " K"
	}
	return rupee + amount.StringFixed(0)
}

// groupIndian groups the last three digits, then every two digits before them.
func groupIndian(digits string) string {
	if len(digits) <= 3 {
		return digits
	}

	head, tail := digits[:len(digits)-3], digits[len(digits)-3:]
	var groups []string
	for len(head) > 2 {
		groups = append([]string{head[len(head)-2:]}, groups...)
		head = head[:len(head)-2]
	}
	if head != "" {
		groups = append([]string{head}, groups...)
	}
	return strings.Join(append(groups, tail), ",")
}

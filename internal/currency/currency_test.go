package currency

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestFormatINR(t *testing.T) {
	tests := []struct {
		amount string
		want   string
	}{
		{"0", "₹0"},
		{"999", "₹999"},
		{"1000", "₹1,000"},
		{"100000", "₹1,00,000"},
		{"1234567", "₹12,34,567"},
		{"123456789", "₹12,34,56,789"},
		{"9999.5", "₹10,000"},
		{"-1234.4", "-₹1,234"},
		{"-0.4", "₹0"},
	}

	for _, tt := range tests {
		t.Run(tt.amount, func(t *testing.T) {
			assert.Equal(t, tt.want, FormatINR(decimal.RequireFromString(tt.amount)))
		})
	}
}

func TestFormatIndian(t *testing.T) {
	tests := []struct {
		amount string
		want   string
	}{
		{"25000000", "₹2.50 Cr"},
		{"10000000", "₹1.00 Cr"},
		{"9999999", "₹100.00 L"},
		{"150000", "₹1.50 L"},
		{"9900", "₹9.90 K"},
		{"1000", "₹1.00 K"},
		{"999", "₹999"},
		{"12.6", "₹13"},
	}

	for _, tt := range tests {
		t.Run(tt.amount, func(t *testing.T) {
			assert.Equal(t, tt.want, FormatIndian(decimal.RequireFromString(tt.amount)))
		})
	}
}

func TestInRange(t *testing.T) {
	tests := []struct {
		amount string
		want   bool
	}{
		{"0", true},
		{"1250.75", true},
		{"-9900", true},
		{"999999999999999999", true},
		{"1000000000000000000", false},
		{"0.000000000000000001", true},
		{"0.0000000000000000001", false},
		{"1.5e3", true},
		{"1e18", false},
		{"1e20000000", false},
		{"1e-20000000", false},
		{"0e20000000", false},
	}

	for _, tt := range tests {
		t.Run(tt.amount, func(t *testing.T) {
			assert.Equal(t, tt.want, InRange(decimal.RequireFromString(tt.amount)))
		})
	}
}

package sizer

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func d(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func TestPrecision(t *testing.T) {
	tests := []struct {
		name     string
		asset    string
		held     string
		percent  string
		expected int32
	}{
		{"large holding", "ADA", "250", "50", 0},
		{"exactly ten", "ADA", "10", "50", 0},
		{"single digit holding", "DOT", "5", "50", 1},
		{"exactly one", "DOT", "1", "50", 1},
		{"fractional holding", "SOL", "0.7", "50", 2},
		{"small percent on large holding", "ADA", "250", "5", 1},
		{"small percent on fractional holding", "SOL", "0.7", "9.99", 3},
		{"major asset ignores magnitude", "BTC", "5", "50", 3},
		{"major asset large holding", "XXBT", "120", "10", 3},
		{"major asset small percent", "ETH", "0.2", "5", 4},
		{"kraken ether", "XETH", "0.2", "100", 3},
		{"percent ten is not small", "XBT", "3", "10", 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, Precision(tt.asset, d(tt.held), d(tt.percent)))
		})
	}
}

func TestSize(t *testing.T) {
	tests := []struct {
		name     string
		asset    string
		held     string
		percent  string
		expected string
	}{
		{"major asset half", "BTC", "5", "50", "2.5"},
		{"fractional holding two places", "SOL", "0.8765", "50", "0.44"},
		{"fractional holding small percent three places", "SOL", "0.8765", "5", "0.044"},
		{"large holding rounds to units", "ADA", "1234", "33", "407"},
		{"single digit holding", "DOT", "7.77", "50", "3.9"},
		{"half to even rounds down on even", "ADA", "25", "50", "12"},
		{"half to even rounds up on odd", "ADA", "27", "50", "14"},
		{"half to even at two places", "SOL", "0.25", "50", "0.12"},
		{"full sell keeps magnitude precision", "ADA", "10.6", "100", "11"},
		{"zero percent", "BTC", "1", "0", "0"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Size(tt.asset, d(tt.held), d(tt.percent))
			assert.True(t, d(tt.expected).Equal(got), "expected %s, got %s", tt.expected, got)
		})
	}
}

func TestSize_MajorAssetKeepsThreePlaces(t *testing.T) {
	got := Size("BTC", d("5"), d("50"))
	assert.Equal(t, "2.500", got.StringFixed(Precision("BTC", d("5"), d("50"))))
}

func TestSize_FractionalHoldingDecimalPlaces(t *testing.T) {
	held := d("0.123456")
	for _, pct := range []string{"10", "25", "50", "100"} {
		got := Size("SOL", held, d(pct))
		assert.LessOrEqual(t, -got.Exponent(), int32(2), "percent %s gave %s", pct, got)
	}
	for _, pct := range []string{"1", "5", "9.5"} {
		got := Size("SOL", held, d(pct))
		assert.LessOrEqual(t, -got.Exponent(), int32(3), "percent %s gave %s", pct, got)
	}
}

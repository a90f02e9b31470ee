package pricing_test

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"shoten/internal/pricing"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func TestRound_HalfUp(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"10.124", "10.12"},
		{"10.125", "10.13"}, // half rounds up, not to even
		{"10.135", "10.14"},
		{"100.005", "100.01"},
		{"3000", "3000"},
	}
	for _, tc := range cases {
		got := pricing.Round(dec(tc.in))
		assert.True(t, got.Equal(dec(tc.want)), "Round(%s) = %s, want %s", tc.in, got, tc.want)
	}
}

func TestLineTotal(t *testing.T) {
	assert.True(t, pricing.LineTotal(dec("1000"), 3).Equal(dec("3000")))
	assert.True(t, pricing.LineTotal(dec("999.99"), 3).Equal(dec("2999.97")))
	assert.True(t, pricing.LineTotal(dec("0.05"), 3).Equal(dec("0.15")))
}

func TestTax(t *testing.T) {
	assert.True(t, pricing.Tax(dec("3000")).Equal(dec("300")))
	assert.True(t, pricing.Tax(dec("1005")).Equal(dec("100.50")))
	// 101.25 * 0.10 = 10.125 -> rounds half up once at the point of computation
	assert.True(t, pricing.Tax(dec("101.25")).Equal(dec("10.13")))
}

func TestShippingFee_Threshold(t *testing.T) {
	assert.True(t, pricing.ShippingFee(dec("4999.99")).Equal(dec("500")))
	assert.True(t, pricing.ShippingFee(dec("5000")).Equal(dec("0")))
	assert.True(t, pricing.ShippingFee(dec("12000")).Equal(dec("0")))
}

func TestOrderTotal(t *testing.T) {
	total := pricing.OrderTotal(dec("3000"), dec("300"), dec("500"))
	assert.True(t, total.Equal(dec("3800")), "got %s", total)
}

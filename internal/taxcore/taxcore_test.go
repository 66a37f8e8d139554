package taxcore

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func d(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func TestRound(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"0", "0.00"},
		{"1.004", "1.00"},
		{"1.005", "1.01"},
		{"2.675", "2.68"},
		{"-1.005", "-1.01"},
		{"-0.004", "0.00"},
		{"123456.789", "123456.79"},
	}
	for _, tc := range cases {
		t.Run(tc.in, func(t *testing.T) {
			assert.Equal(t, tc.want, Round(d(tc.in)).StringFixed(2))
		})
	}
}

func TestRoundIsIdempotent(t *testing.T) {
	for _, s := range []string{"0.125", "99.995", "-7.445", "1000000.0049", "3.333333"} {
		once := Round(d(s))
		assert.True(t, once.Equal(Round(once)), s)
	}
}

func TestComputeWithholding(t *testing.T) {
	assert.Equal(t, "300.00", ComputeWithholding(d("10000"), d("3")).StringFixed(2))
	assert.Equal(t, "37.04", ComputeWithholding(d("1234.5"), d("3")).StringFixed(2))
	assert.Equal(t, "0.00", ComputeWithholding(d("10000"), d("0")).StringFixed(2))
	assert.Equal(t, "150.00", ComputeWithholding(d("10000"), d("1.5")).StringFixed(2))
}

func TestComputeNetIsNotClamped(t *testing.T) {
	assert.Equal(t, "9700.00", ComputeNet(d("10000"), d("300")).StringFixed(2))
	assert.Equal(t, "-50.00", ComputeNet(d("100"), d("150")).StringFixed(2))
}

func TestComputeWithholdingAndNetReconciles(t *testing.T) {
	grosses := []string{"0", "0.01", "1", "99.99", "1234.56", "33333.33", "1000000"}
	rates := []string{"0", "1", "1.5", "3", "5", "10", "15", "100"}
	for _, g := range grosses {
		for _, r := range rates {
			res := ComputeWithholdingAndNet(d(g), d(r))
			sum := res.WithholdingAmount.Add(res.NetAmount)
			assert.True(t, sum.Equal(Round(d(g))), "gross=%s rate=%s sum=%s", g, r, sum)
		}
	}
}

func TestComputeProgressiveTaxKnownValues(t *testing.T) {
	cases := []struct {
		income string
		want   string
	}{
		{"-5", "0.00"},
		{"0", "0.00"},
		{"150000", "0.00"},
		{"150000.01", "0.00"},
		{"150000.10", "0.01"},
		{"300000", "7500.00"},
		{"440000", "21500.00"},
		{"500000", "27500.00"},
		{"940000", "103000.00"},
		{"1000000", "115000.00"},
		{"2000000", "365000.00"},
		{"5000000", "1265000.00"},
		{"6000000", "1615000.00"},
	}
	for _, tc := range cases {
		t.Run(tc.income, func(t *testing.T) {
			assert.Equal(t, tc.want, ComputeProgressiveTax(d(tc.income)).StringFixed(2))
		})
	}
}

func TestComputeProgressiveTaxIsMonotonic(t *testing.T) {
	prev := decimal.Zero
	for income := decimal.Zero; income.LessThan(d("6000000")); income = income.Add(d("12345.67")) {
		got := ComputeProgressiveTax(income)
		assert.True(t, got.GreaterThanOrEqual(prev), "income=%s tax=%s prev=%s", income, got, prev)
		prev = got
	}
}

func TestComputeTaxPayableRefund(t *testing.T) {
	res := ComputeTaxPayable(d("500000"), d("40000"), DefaultPersonalAllowance)

	assert.Equal(t, "440000.00", res.TaxableIncome.StringFixed(2))
	assert.Equal(t, "21500.00", res.TaxLiability.StringFixed(2))
	assert.Equal(t, "40000.00", res.WithholdingPaid.StringFixed(2))
	assert.True(t, res.Refund)
	assert.Equal(t, "18500.00", res.RefundAmount.StringFixed(2))
	assert.True(t, res.TaxPayable.IsZero())
}

func TestComputeTaxPayablePayable(t *testing.T) {
	res := ComputeTaxPayable(d("1000000"), d("20000"), DefaultPersonalAllowance)

	assert.Equal(t, "940000.00", res.TaxableIncome.StringFixed(2))
	assert.Equal(t, "103000.00", res.TaxLiability.StringFixed(2))
	assert.False(t, res.Refund)
	assert.Equal(t, "83000.00", res.TaxPayable.StringFixed(2))
	assert.True(t, res.RefundAmount.IsZero())
}

func TestComputeTaxPayableBelowAllowance(t *testing.T) {
	res := ComputeTaxPayable(d("45000"), d("0"), DefaultPersonalAllowance)
	assert.True(t, res.TaxableIncome.IsZero())
	assert.True(t, res.TaxLiability.IsZero())
	assert.True(t, res.TaxPayable.IsZero())
	assert.False(t, res.Refund)

	res = ComputeTaxPayable(d("-1000"), d("300"), DefaultPersonalAllowance)
	assert.True(t, res.TaxableIncome.IsZero())
	assert.True(t, res.Refund)
	assert.Equal(t, "300.00", res.RefundAmount.StringFixed(2))
}

func TestComputeTaxPayableNeverNegative(t *testing.T) {
	for _, net := range []string{"-100", "0", "59999.99", "210000", "800000", "3000000"} {
		for _, wht := range []string{"0", "100", "9000", "150000", "900000"} {
			res := ComputeTaxPayable(d(net), d(wht), DefaultPersonalAllowance)
			assert.False(t, res.TaxPayable.IsNegative(), "net=%s wht=%s", net, wht)
			assert.False(t, res.RefundAmount.IsNegative())
			assert.Equal(t, res.Refund, res.RefundAmount.IsPositive())
			assert.False(t, res.TaxPayable.IsPositive() && res.RefundAmount.IsPositive())
		}
	}
}

func TestValidateBrackets(t *testing.T) {
	assert.NoError(t, ValidateBrackets(DefaultBrackets()))
	assert.Error(t, ValidateBrackets(nil))
	assert.Error(t, ValidateBrackets([]Bracket{bracket(100, 5)}))
	assert.Error(t, ValidateBrackets([]Bracket{topBracket(5), topBracket(10)}))
	assert.Error(t, ValidateBrackets([]Bracket{bracket(200, 0), bracket(100, 5), topBracket(10)}))
	assert.Error(t, ValidateBrackets([]Bracket{bracket(100, 0), topBracket(120)}))
}

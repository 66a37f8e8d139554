package taxcore

import "github.com/shopspring/decimal"

// DefaultPersonalAllowance is the personal deduction in THB applied when a
// schedule does not set its own.
var DefaultPersonalAllowance = decimal.NewFromInt(60_000)

// TaxPayableResult is the outcome of netting tax liability against tax already
// withheld. Exactly one of TaxPayable and RefundAmount is non-zero unless both are zero.
type TaxPayableResult struct {
	TaxableIncome   decimal.Decimal `json:"taxable_income"`
	TaxLiability    decimal.Decimal `json:"tax_liability"`
	WithholdingPaid decimal.Decimal `json:"withholding_paid"`
	TaxPayable      decimal.Decimal `json:"tax_payable"`
	Refund          bool            `json:"refund"`
	RefundAmount    decimal.Decimal `json:"refund_amount"`
}

// ComputeTaxPayable reconciles a year's net income and withholding against the
// default bracket table.
func ComputeTaxPayable(yearlyNet, yearlyWithholding, personalAllowance decimal.Decimal) TaxPayableResult {
	return taxPayable(DefaultBrackets(), yearlyNet, yearlyWithholding, personalAllowance)
}

func taxPayable(brackets []Bracket, yearlyNet, yearlyWithholding, personalAllowance decimal.Decimal) TaxPayableResult {
	net := Round(yearlyNet)
	withholding := Round(yearlyWithholding)

	taxable := decimal.Max(decimal.Zero, Round(net.Sub(personalAllowance)))
	liability := progressiveTax(brackets, taxable)
	raw := Round(liability.Sub(withholding))

	res := TaxPayableResult{
		TaxableIncome:   taxable,
		TaxLiability:    liability,
		WithholdingPaid: withholding,
		TaxPayable:      decimal.Zero,
		RefundAmount:    decimal.Zero,
	}
	if raw.IsNegative() {
		res.Refund = true
		res.RefundAmount = raw.Abs()
		return res
	}
	res.TaxPayable = raw
	return res
}

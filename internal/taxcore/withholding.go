package taxcore

import "github.com/shopspring/decimal"

// WithholdingAndNet is the split of a gross payment into the amount withheld
// at source and the amount actually received.
type WithholdingAndNet struct {
	WithholdingAmount decimal.Decimal `json:"withholding_amount"`
	NetAmount         decimal.Decimal `json:"net_amount"`
}

// ComputeWithholding returns round(gross * ratePercent / 100). A rate of 3 means 3%.
// Rate bounds are validated by callers.
func ComputeWithholding(gross, ratePercent decimal.Decimal) decimal.Decimal {
	return Round(percentOf(gross, ratePercent))
}

// ComputeNet returns round(gross - withholding). The result is not clamped and
// is negative when withholding exceeds gross.
func ComputeNet(gross, withholding decimal.Decimal) decimal.Decimal {
	return Round(gross.Sub(withholding))
}

// ComputeWithholdingAndNet derives net from the rounded withholding so that
// WithholdingAmount + NetAmount == Round(gross).
func ComputeWithholdingAndNet(gross, ratePercent decimal.Decimal) WithholdingAndNet {
	withholding := ComputeWithholding(gross, ratePercent)
	return WithholdingAndNet{
		WithholdingAmount: withholding,
		NetAmount:         ComputeNet(gross, withholding),
	}
}

// Package taxcore holds the Thai personal income tax arithmetic: cent rounding,
// withholding, the progressive bracket walk and payable/refund reconciliation.
// Every function is pure and safe to call from concurrent requests.
package taxcore

import "github.com/shopspring/decimal"

// CentPlaces is the number of fractional digits kept on every stored or returned amount.
const CentPlaces = 2

var hundred = decimal.NewFromInt(100)

// Round rounds amount to the nearest 0.01, halves away from zero.
func Round(amount decimal.Decimal) decimal.Decimal {
	return amount.Round(CentPlaces)
}

// percentOf returns amount * ratePercent / 100 without rounding.
func percentOf(amount, ratePercent decimal.Decimal) decimal.Decimal {
	return amount.Mul(ratePercent).Div(hundred)
}

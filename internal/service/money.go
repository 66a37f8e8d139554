package service

import (
	"reviewledger/internal/taxcore"

	"github.com/shopspring/decimal"
)

// Money is an amount rendered to the client with exactly two decimal places.
// Decoding accepts any decimal string, so cached responses round-trip.
type Money struct {
	decimal.Decimal
}

func money(d decimal.Decimal) Money {
	return Money{Decimal: d}
}

func (m Money) MarshalJSON() ([]byte, error) {
	return []byte(`"` + m.StringFixed(taxcore.CentPlaces) + `"`), nil
}

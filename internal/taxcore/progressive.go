package taxcore

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

// Bracket is one marginal band. The lower bound is the previous bracket's
// UpperBound (zero for the first one). The last bracket of a table is Unbounded.
type Bracket struct {
	UpperBound  decimal.Decimal `json:"upper_bound"`
	Unbounded   bool            `json:"unbounded"`
	RatePercent decimal.Decimal `json:"rate_percent"`
}

func bracket(upper, rate int64) Bracket {
	return Bracket{UpperBound: decimal.NewFromInt(upper), RatePercent: decimal.NewFromInt(rate)}
}

func topBracket(rate int64) Bracket {
	return Bracket{Unbounded: true, RatePercent: decimal.NewFromInt(rate)}
}

// DefaultBrackets returns the 2567 BE personal income tax table.
func DefaultBrackets() []Bracket {
	return []Bracket{
		bracket(150_000, 0),
		bracket(300_000, 5),
		bracket(500_000, 10),
		bracket(750_000, 15),
		bracket(1_000_000, 20),
		bracket(2_000_000, 25),
		bracket(5_000_000, 30),
		topBracket(35),
	}
}

// ValidateBrackets checks that the table is non-empty, strictly ascending,
// rated within 0..100 and closed by exactly one unbounded bracket.
func ValidateBrackets(brackets []Bracket) error {
	if len(brackets) == 0 {
		return errors.New("bracket table is empty")
	}
	prev := decimal.Zero
	for i, b := range brackets {
		if b.RatePercent.IsNegative() || b.RatePercent.GreaterThan(hundred) {
			return fmt.Errorf("bracket %d: rate %s is outside 0..100", i, b.RatePercent)
		}
		last := i == len(brackets)-1
		if b.Unbounded {
			if !last {
				return fmt.Errorf("bracket %d: only the last bracket may be unbounded", i)
			}
			continue
		}
		if last {
			return fmt.Errorf("bracket %d: last bracket must be unbounded", i)
		}
		if !b.UpperBound.GreaterThan(prev) {
			return fmt.Errorf("bracket %d: upper bound %s must exceed %s", i, b.UpperBound, prev)
		}
		prev = b.UpperBound
	}
	return nil
}

// ComputeProgressiveTax applies the default table to taxableIncome.
func ComputeProgressiveTax(taxableIncome decimal.Decimal) decimal.Decimal {
	return progressiveTax(DefaultBrackets(), taxableIncome)
}

// progressiveTax rounds each bracket's contribution before summing. Rounding only
// the final sum gives different cents on some inputs.
func progressiveTax(brackets []Bracket, taxableIncome decimal.Decimal) decimal.Decimal {
	if !taxableIncome.IsPositive() {
		return decimal.Zero
	}
	income := Round(taxableIncome)

	total := decimal.Zero
	prevUpper := decimal.Zero
	for _, b := range brackets {
		top := income
		if !b.Unbounded {
			top = decimal.Min(income, b.UpperBound)
		}
		portion := top.Sub(prevUpper)
		if !portion.IsPositive() {
			break
		}
		total = total.Add(Round(percentOf(portion, b.RatePercent)))
		if b.Unbounded || income.LessThanOrEqual(b.UpperBound) {
			break
		}
		prevUpper = b.UpperBound
	}
	return Round(total)
}

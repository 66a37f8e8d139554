// Package report renders ledger data for people: THB amounts, Thai dates,
// calendar files, CSV exports and the yearly tax summary PDF.
package report

import (
	"fmt"
	"time"

	"reviewledger/internal/taxcore"

	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

var thaiPrinter = message.NewPrinter(language.Thai)

var thaiShortMonths = [12]string{
	"ม.ค.", "ก.พ.", "มี.ค.", "เม.ย.", "พ.ค.", "มิ.ย.",
	"ก.ค.", "ส.ค.", "ก.ย.", "ต.ค.", "พ.ย.", "ธ.ค.",
}

// FormatTHB renders amount as ฿1,234.56 after cent rounding.
func FormatTHB(amount decimal.Decimal) string {
	r := taxcore.Round(amount)
	sign := ""
	if r.IsNegative() {
		sign = "-"
		r = r.Abs()
	}
	whole := r.Truncate(0)
	cents := r.Sub(whole).Shift(taxcore.CentPlaces).IntPart()
	return fmt.Sprintf("%s฿%s.%02d", sign, thaiPrinter.Sprintf("%d", whole.IntPart()), cents)
}

// FormatThaiDate renders t as "14 ต.ค. 69": day, short Thai month and the
// last two digits of the Buddhist Era year.
func FormatThaiDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	be := t.Year() + 543
	return fmt.Sprintf("%d %s %02d", t.Day(), thaiShortMonths[t.Month()-1], be%100)
}

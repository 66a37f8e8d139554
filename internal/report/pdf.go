package report

import (
	"fmt"
	"io"
	"time"

	"reviewledger/internal/taxcore"

	"github.com/go-pdf/fpdf"
	"github.com/shopspring/decimal"
)

const (
	pageMargin   = 15.0
	contentWidth = 210.0 - 2*pageMargin
	labelWidth   = 110.0
)

// TaxSummaryDoc holds the figures printed on the yearly summary.
type TaxSummaryDoc struct {
	Year              int
	ScheduleLabel     string
	YearlyGross       decimal.Decimal
	YearlyWithholding decimal.Decimal
	YearlyNet         decimal.Decimal
	PersonalAllowance decimal.Decimal
	TaxableIncome     decimal.Decimal
	TaxLiability      decimal.Decimal
	TaxPayable        decimal.Decimal
	Refund            bool
	RefundAmount      decimal.Decimal
	Brackets          []taxcore.Bracket
	GeneratedAt       time.Time
}

// WriteTaxSummaryPDF renders doc as a one-page A4 PDF. The core fonts carry
// no Thai glyphs, so text is English and amounts are written as "THB 1,234.56".
func WriteTaxSummaryPDF(w io.Writer, doc TaxSummaryDoc) error {
	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(pageMargin, pageMargin, pageMargin)
	pdf.SetAutoPageBreak(true, 20)
	pdf.SetTitle(fmt.Sprintf("Tax summary %d", doc.Year), false)
	pdf.AddPage()

	pdf.SetFont("Helvetica", "B", 18)
	pdf.SetTextColor(0, 51, 102)
	pdf.CellFormat(contentWidth, 10, fmt.Sprintf("Personal income tax estimate %d (BE %s)", doc.Year, doc.ScheduleLabel), "", 1, "L", false, 0, "")

	pdf.SetFont("Helvetica", "I", 10)
	pdf.SetTextColor(90, 90, 90)
	generated := doc.GeneratedAt
	if generated.IsZero() {
		generated = time.Now()
	}
	pdf.CellFormat(contentWidth, 6, "Generated "+generated.Format("2 January 2006 15:04"), "", 1, "L", false, 0, "")
	pdf.Ln(6)

	section(pdf, "Income")
	row(pdf, "Gross income", doc.YearlyGross)
	row(pdf, "Withholding tax paid", doc.YearlyWithholding)
	row(pdf, "Net received", doc.YearlyNet)
	pdf.Ln(4)

	section(pdf, "Tax")
	row(pdf, "Personal allowance", doc.PersonalAllowance)
	row(pdf, "Taxable income", doc.TaxableIncome)
	row(pdf, "Tax liability", doc.TaxLiability)
	if doc.Refund {
		row(pdf, "Refund due", doc.RefundAmount)
	} else {
		row(pdf, "Tax payable", doc.TaxPayable)
	}
	pdf.Ln(4)

	if len(doc.Brackets) > 0 {
		section(pdf, "Brackets")
		pdf.SetFont("Helvetica", "", 10)
		lower := decimal.Zero
		for _, b := range doc.Brackets {
			label := fmt.Sprintf("%s and above", amountText(lower))
			if !b.Unbounded {
				label = fmt.Sprintf("%s - %s", amountText(lower), amountText(b.UpperBound))
				lower = b.UpperBound
			}
			pdf.CellFormat(labelWidth, 6, label, "", 0, "L", false, 0, "")
			pdf.CellFormat(contentWidth-labelWidth, 6, b.RatePercent.String()+"%", "", 1, "R", false, 0, "")
		}
		pdf.Ln(4)
	}

	pdf.SetFont("Helvetica", "I", 9)
	pdf.SetTextColor(120, 120, 120)
	pdf.MultiCell(contentWidth, 5, "Estimate only. Figures are not a filing with the Revenue Department.", "", "L", false)

	if err := pdf.Output(w); err != nil {
		return fmt.Errorf("failed to render pdf: %w", err)
	}
	return nil
}

func section(pdf *fpdf.Fpdf, title string) {
	pdf.SetFont("Helvetica", "B", 12)
	pdf.SetTextColor(0, 51, 102)
	pdf.SetFillColor(245, 247, 250)
	pdf.CellFormat(contentWidth, 8, title, "B", 1, "L", true, 0, "")
	pdf.SetTextColor(40, 40, 40)
}

func row(pdf *fpdf.Fpdf, label string, amount decimal.Decimal) {
	pdf.SetFont("Helvetica", "", 11)
	pdf.CellFormat(labelWidth, 7, label, "", 0, "L", false, 0, "")
	pdf.CellFormat(contentWidth-labelWidth, 7, amountText(amount), "", 1, "R", false, 0, "")
}

// amountText is FormatTHB with an ASCII currency prefix.
func amountText(amount decimal.Decimal) string {
	s := FormatTHB(amount)
	if len(s) > 0 && s[0] == '-' {
		return "-THB " + s[len("-฿"):]
	}
	return "THB " + s[len("฿"):]
}

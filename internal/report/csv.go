package report

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"
	"time"

	"reviewledger/internal/taxcore"

	"github.com/shopspring/decimal"
	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/transform"
)

// Export encodings. Windows-874 is the Thai code page older Excel builds expect.
const (
	EncodingUTF8       = "utf-8"
	EncodingWindows874 = "windows-874"
)

const utf8BOM = "\ufeff"

// ParseEncoding normalizes an encoding name; empty means UTF-8.
func ParseEncoding(name string) (string, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "utf-8", "utf8":
		return EncodingUTF8, nil
	case "windows-874", "cp874", "tis-620":
		return EncodingWindows874, nil
	default:
		return "", fmt.Errorf("unsupported encoding %q", name)
	}
}

// IncomeRow is one line of the income export.
type IncomeRow struct {
	PaymentDate       time.Time
	JobTitle          string
	GrossAmount       decimal.Decimal
	WithholdingRate   decimal.Decimal
	WithholdingAmount decimal.Decimal
	NetAmount         decimal.Decimal
	Currency          string
}

var incomeHeader = []string{
	"payment_date", "job_title", "gross_amount", "withholding_rate",
	"withholding_amount", "net_amount", "currency",
}

// WriteIncomeCSV writes rows with a header. UTF-8 output starts with a BOM so
// spreadsheet apps detect the Thai text; characters Windows-874 cannot hold
// are replaced.
func WriteIncomeCSV(w io.Writer, rows []IncomeRow, enc string) error {
	out := w
	var tw *transform.Writer
	switch enc {
	case EncodingWindows874:
		tw = transform.NewWriter(w, encoding.ReplaceUnsupported(charmap.Windows874.NewEncoder()))
		out = tw
	case EncodingUTF8, "":
		if _, err := io.WriteString(w, utf8BOM); err != nil {
			return fmt.Errorf("failed to write csv: %w", err)
		}
	default:
		return fmt.Errorf("unsupported encoding %q", enc)
	}

	cw := csv.NewWriter(out)
	if err := cw.Write(incomeHeader); err != nil {
		return fmt.Errorf("failed to write csv header: %w", err)
	}
	for _, r := range rows {
		record := []string{
			r.PaymentDate.Format("2006-01-02"),
			r.JobTitle,
			r.GrossAmount.StringFixed(taxcore.CentPlaces),
			r.WithholdingRate.String(),
			r.WithholdingAmount.StringFixed(taxcore.CentPlaces),
			r.NetAmount.StringFixed(taxcore.CentPlaces),
			r.Currency,
		}
		if err := cw.Write(record); err != nil {
			return fmt.Errorf("failed to write csv row: %w", err)
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("failed to write csv: %w", err)
	}
	if tw != nil {
		return tw.Close()
	}
	return nil
}

package invoice

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
)

// csvHeader is fixed for compatibility with downstream accounting import.
// Do not reorder or rename columns.
var csvHeader = []string{
	"Invoice no.",
	"Customer",
	"Invoice date",
	"Due date",
	"Item(Product/Service)",
	"Description",
	"Item quantity",
	"Item rate",
	"Item amount",
	"Tax amount",
	"Item Category",
	"Currency",
}

// WriteCSV writes one row per line item. Invoice-level fields (number,
// customer, dates, tax, currency) appear only on the first row; the item
// description fills both the product and description columns.
func WriteCSV(w io.Writer, rec *Record) error {
	if rec == nil {
		return ErrNoInvoice
	}

	cw := csv.NewWriter(w)
	if err := cw.Write(csvHeader); err != nil {
		return fmt.Errorf("writing csv header: %w", err)
	}

	for i, item := range rec.LineItems {
		row := []string{
			"", "", "", "",
			item.Description,
			item.Description,
			formatNumber(item.Quantity),
			formatNumber(item.UnitPrice),
			formatNumber(item.Total),
			"",
			item.Category,
			"",
		}
		if i == 0 {
			row[0] = rec.InvoiceNumber
			row[1] = rec.BilledTo
			row[2] = rec.InvoiceDate
			row[3] = rec.DueDate
			row[9] = formatNumber(rec.Tax)
			row[11] = rec.Currency
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("writing csv row %d: %w", i, err)
		}
	}

	cw.Flush()
	return cw.Error()
}

// formatNumber renders a numeric cell with the fewest digits that round-trip.
func formatNumber(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

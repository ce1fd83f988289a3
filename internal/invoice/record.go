package invoice

import "fmt"

// Record is the structured representation of one extracted invoice. JSON
// tags match the extraction output schema, so the same shape flows from
// the model through the store to the API.
type Record struct {
	InvoiceNumber string     `json:"invoiceNumber"`
	InvoiceDate   string     `json:"invoiceDate"`
	DueDate       string     `json:"dueDate"`
	BilledTo      string     `json:"billedTo"`
	From          string     `json:"from"`
	Currency      string     `json:"currency"`
	LineItems     []LineItem `json:"lineItems"`
	Subtotal      float64    `json:"subtotal"`
	Tax           float64    `json:"tax"`
	Total         float64    `json:"total"`
}

// LineItem is one billable entry within an invoice. Category is the only
// field mutated after extraction; it is always present, defaulting to "".
type LineItem struct {
	Description string  `json:"description"`
	Quantity    float64 `json:"quantity"`
	UnitPrice   float64 `json:"unitPrice"`
	Total       float64 `json:"total"`
	Category    string  `json:"category"`
}

// Clone returns a deep copy. The store hands out copies so callers cannot
// bypass version checks by mutating shared state.
func (r *Record) Clone() *Record {
	if r == nil {
		return nil
	}
	out := *r
	out.LineItems = append([]LineItem(nil), r.LineItems...)
	return &out
}

// FormatCurrency renders an amount for display: the invoice's currency
// symbol or code followed by the amount to two decimal places.
func FormatCurrency(currency string, amount float64) string {
	return fmt.Sprintf("%s%.2f", currency, amount)
}

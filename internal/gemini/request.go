package gemini

import (
	"fmt"
	"strings"

	"github.com/google/generative-ai-go/genai"
)

// FilePart is one inline binary part of a request.
type FilePart struct {
	MIMEType string
	Data     []byte
}

// Request describes one exchange with the model: a text instruction,
// optional inline file parts, and optional structured-output settings.
type Request struct {
	Instruction string
	Files       []FilePart
	JSONOutput  bool
	Schema      *genai.Schema
}

// extractionPrompt is the instruction sent alongside the encoded invoice.
// The output shape itself is enforced by the response schema; the prompt
// covers what a schema cannot say.
const extractionPrompt = `You are analyzing an invoice or bill document. Carefully read all text and extract the invoice metadata and every line item.

Important:
- Identify the currency symbol or code used on the invoice (for example "$", "€" or "USD") and include it in the "currency" field.
- All monetary fields (unitPrice, total, subtotal, tax) must be numbers, not strings. Strip currency symbols and thousands separators.
- "quantity" must be a number.
- Copy dates as they are printed on the invoice.
- Include every line item, in order. Do not invent items that are not on the document.
- If the invoice shows no tax, use 0 for "tax".`

// categoryPromptFmt asks for a single label and nothing else; the caller
// still trims the reply before storing it.
const categoryPromptFmt = `Suggest one expense category for this invoice line item: "%s".

Choose the single best fit from common business expense categories such as: Office Supplies, Software, Hardware, Travel, Meals & Entertainment, Utilities, Rent, Marketing, Professional Services, Shipping, Insurance, Other.

Respond with only the category label. No explanation, no punctuation, no markdown.`

const bulkCategoryPromptFmt = `Suggest one expense category for each of the following invoice line item descriptions. Choose from common business expense categories such as: Office Supplies, Software, Hardware, Travel, Meals & Entertainment, Utilities, Rent, Marketing, Professional Services, Shipping, Insurance, Other.

Line item descriptions:
%s

Return ONLY a JSON object mapping each description, exactly as written above, to its suggested category. Do not include any other text.`

const paymentApprovalPromptFmt = `Write a short, professional email to an internal approver requesting approval to pay an invoice.

Invoice details:
- Vendor: %s
- Invoice number: %s
- Amount: %s
- Due date: %s

Keep it concise and courteous. Sign off with "Best regards,". Return only the email body text.`

const vendorQueryPromptFmt = `Write a short, professional email to the vendor %s asking a question about invoice %s for %s.

Insert the literal placeholder [YOUR QUESTION HERE] on its own line where the specific question should go, so the sender can fill it in. Sign off with "Thank you,". Return only the email body text.`

// ExtractionRequest builds the schema-constrained request that turns an
// encoded invoice into structured JSON.
func ExtractionRequest(files []FilePart) Request {
	return Request{
		Instruction: extractionPrompt,
		Files:       files,
		JSONOutput:  true,
		Schema:      recordSchema(),
	}
}

// CategoryRequest builds the free-text request for a single line item's
// category suggestion.
func CategoryRequest(description string) Request {
	return Request{
		Instruction: fmt.Sprintf(categoryPromptFmt, description),
	}
}

// BulkCategoryRequest builds the request for one category per line item in
// a single round trip. The reply is constrained to JSON but not to a
// schema: the mapping keys are the caller's own description strings.
func BulkCategoryRequest(descriptions []string) Request {
	var list strings.Builder
	for _, d := range descriptions {
		list.WriteString("- ")
		list.WriteString(d)
		list.WriteString("\n")
	}
	return Request{
		Instruction: fmt.Sprintf(bulkCategoryPromptFmt, strings.TrimRight(list.String(), "\n")),
		JSONOutput:  true,
	}
}

// EmailIntent selects one of the two fixed email templates.
type EmailIntent string

const (
	EmailPaymentApproval EmailIntent = "payment_approval"
	EmailVendorQuery     EmailIntent = "vendor_query"
)

// EmailParams carries the record fields interpolated into an email prompt.
// TotalFormatted is the display amount, currency symbol included.
type EmailParams struct {
	Vendor         string
	InvoiceNumber  string
	TotalFormatted string
	DueDate        string
}

// EmailRequest builds the free-text request for an email draft.
func EmailRequest(intent EmailIntent, p EmailParams) (Request, error) {
	switch intent {
	case EmailPaymentApproval:
		due := p.DueDate
		if due == "" {
			due = "not specified"
		}
		return Request{
			Instruction: fmt.Sprintf(paymentApprovalPromptFmt, p.Vendor, p.InvoiceNumber, p.TotalFormatted, due),
		}, nil
	case EmailVendorQuery:
		return Request{
			Instruction: fmt.Sprintf(vendorQueryPromptFmt, p.Vendor, p.InvoiceNumber, p.TotalFormatted),
		}, nil
	default:
		return Request{}, fmt.Errorf("unknown email intent: %q", intent)
	}
}

package invoice

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/darehype/ai-invoice-app/internal/gemini"
)

// CredentialSource provides the API key orchestrators hand to the gateway.
// The key always arrives as an argument; nothing reads it ambiently.
type CredentialSource interface {
	APIKey() (string, error)
}

// User-visible prefixes for failed operations. The underlying error text
// is appended unmodified so status codes and API details stay diagnosable.
const (
	transcribePrefix = "Failed to transcribe invoice. "
	suggestPrefix    = "Failed to suggest category. "
	suggestAllPrefix = "Failed to suggest categories. "
	emailPrefix      = "Failed to draft email. "
)

// EmailDraft is a generated email surfaced as a titled read-only block.
// Nothing parses the body.
type EmailDraft struct {
	Title string `json:"title"`
	Body  string `json:"body"`
}

// Service drives the invoice workflows: extraction, category enrichment
// (single and batch) and email drafting. All state flows through the
// injected Store; all model traffic flows through the injected Gateway.
type Service struct {
	creds   CredentialSource
	gateway gemini.Gateway
	store   *Store
}

// NewService creates a new Service.
func NewService(creds CredentialSource, gateway gemini.Gateway, store *Store) *Service {
	return &Service{
		creds:   creds,
		gateway: gateway,
		store:   store,
	}
}

// Session returns the current session view.
func (s *Service) Session() Session {
	return s.store.Snapshot()
}

// Transcribe converts an uploaded file into the session's invoice record.
// The credential precondition runs before any encoding or network work;
// once it passes, the previous record is destroyed even if this extraction
// later fails.
func (s *Service) Transcribe(ctx context.Context, filename string, data []byte, contentType string) (*Record, string, error) {
	s.store.BeginOp()
	defer s.store.EndOp()

	apiKey, err := s.apiKey()
	if err != nil {
		return nil, "", s.fail(transcribePrefix, err)
	}

	// The old record is destroyed before the network call resolves, so
	// suggestions still in flight against it become stale and are dropped
	// at merge time.
	s.store.Clear()

	parts, err := gemini.EncodeFile(data, contentType)
	if err != nil {
		slog.Error("Failed to encode invoice file",
			"filename", filename,
			"content_type", contentType,
			"file_size", len(data),
			"error", err,
		)
		return nil, "", s.fail(transcribePrefix, err)
	}

	text, err := s.gateway.Generate(ctx, apiKey, gemini.ExtractionRequest(parts))
	if err != nil {
		return nil, "", s.fail(transcribePrefix, err)
	}

	rec, err := DecodeRecord(text)
	if err != nil {
		return nil, "", s.fail(transcribePrefix, err)
	}

	version := s.store.Install(rec)
	slog.Info("Invoice transcribed",
		"filename", filename,
		"invoice_number", rec.InvoiceNumber,
		"line_items", len(rec.LineItems),
		"version", version,
	)
	return rec, version, nil
}

// SuggestCategory requests one category for the line item at index and
// applies it only to that index. The returned label is trimmed of
// surrounding whitespace before it is stored. A suggestion that resolves
// after the record was replaced is discarded, never applied.
func (s *Service) SuggestCategory(ctx context.Context, version string, index int) (string, error) {
	s.store.BeginOp()
	defer s.store.EndOp()

	apiKey, err := s.apiKey()
	if err != nil {
		return "", s.fail(suggestPrefix, err)
	}

	item, err := s.store.LineItem(version, index)
	if err != nil {
		return "", s.fail(suggestPrefix, err)
	}

	text, err := s.gateway.Generate(ctx, apiKey, gemini.CategoryRequest(item.Description))
	if err != nil {
		return "", s.fail(suggestPrefix, err)
	}

	category := strings.TrimSpace(text)
	if err := s.store.SetCategory(version, index, category); err != nil {
		return "", s.fail(suggestPrefix, err)
	}
	return category, nil
}

// SuggestAllCategories requests one category per line item in a single
// round trip and merges the result. The merge is keyed by description and
// best-effort: items missing from the reply keep their prior category.
func (s *Service) SuggestAllCategories(ctx context.Context, version string) error {
	s.store.BeginOp()
	defer s.store.EndOp()

	apiKey, err := s.apiKey()
	if err != nil {
		return s.fail(suggestAllPrefix, err)
	}

	descriptions, err := s.store.Descriptions(version)
	if err != nil {
		return s.fail(suggestAllPrefix, err)
	}

	text, err := s.gateway.Generate(ctx, apiKey, gemini.BulkCategoryRequest(descriptions))
	if err != nil {
		return s.fail(suggestAllPrefix, err)
	}

	categories, err := DecodeCategories(text)
	if err != nil {
		return s.fail(suggestAllPrefix, err)
	}

	if err := s.store.MergeCategories(version, categories); err != nil {
		return s.fail(suggestAllPrefix, err)
	}
	return nil
}

// DraftEmail generates an email body from the current record for one of
// the two fixed intents.
func (s *Service) DraftEmail(ctx context.Context, intent gemini.EmailIntent) (*EmailDraft, error) {
	s.store.BeginOp()
	defer s.store.EndOp()

	apiKey, err := s.apiKey()
	if err != nil {
		return nil, s.fail(emailPrefix, err)
	}

	rec, _, ok := s.store.Current()
	if !ok {
		return nil, s.fail(emailPrefix, ErrNoInvoice)
	}

	req, err := gemini.EmailRequest(intent, gemini.EmailParams{
		Vendor:         rec.From,
		InvoiceNumber:  rec.InvoiceNumber,
		TotalFormatted: FormatCurrency(rec.Currency, rec.Total),
		DueDate:        rec.DueDate,
	})
	if err != nil {
		return nil, s.fail(emailPrefix, err)
	}

	text, err := s.gateway.Generate(ctx, apiKey, req)
	if err != nil {
		return nil, s.fail(emailPrefix, err)
	}

	return &EmailDraft{
		Title: emailTitle(intent),
		Body:  strings.TrimSpace(text),
	}, nil
}

// SetCategory applies a direct user edit to one line item's category.
func (s *Service) SetCategory(version string, index int, category string) error {
	if err := s.store.SetCategory(version, index, category); err != nil {
		return s.fail(suggestPrefix, err)
	}
	return nil
}

// Reset destroys the current record so the user can upload a new invoice.
func (s *Service) Reset() {
	s.store.Clear()
}

// apiKey reads the configured credential, mapping absence to
// ErrMissingCredential so no encoding or network work happens without one.
func (s *Service) apiKey() (string, error) {
	key, err := s.creds.APIKey()
	if err != nil {
		return "", fmt.Errorf("reading API key: %w", err)
	}
	if key == "" {
		return "", gemini.ErrMissingCredential
	}
	return key, nil
}

// fail converts any failure into the session's user-visible error. Stale
// mutations are the exception: the record they belonged to is gone, so
// they are logged and discarded without alarming the user.
func (s *Service) fail(prefix string, err error) error {
	if errors.Is(err, ErrStaleRecord) {
		slog.Warn("Discarding result for replaced invoice", "error", err)
		return err
	}
	if errors.Is(err, ErrNoInvoice) {
		return err
	}
	wrapped := fmt.Errorf("%s%w", prefix, err)
	s.store.SetError(wrapped.Error())
	slog.Error("Invoice operation failed", "error", wrapped)
	return wrapped
}

func emailTitle(intent gemini.EmailIntent) string {
	switch intent {
	case gemini.EmailPaymentApproval:
		return "Payment Approval Email"
	case gemini.EmailVendorQuery:
		return "Vendor Query Email"
	default:
		return "Email Draft"
	}
}

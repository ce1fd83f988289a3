package gemini

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"github.com/google/uuid"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
)

// DefaultModel is used when no model name is configured.
const DefaultModel = "gemini-2.5-pro"

// Gateway performs one request/response exchange with the model and
// returns the first candidate's text. It is the only component that knows
// the wire shape.
type Gateway interface {
	Generate(ctx context.Context, apiKey string, req Request) (string, error)
}

// Client implements Gateway against the Gemini API. The API key arrives
// per call so a key changed in settings takes effect immediately, without
// rebuilding anything.
type Client struct {
	modelName string
}

// NewClient creates a Client for the named model.
func NewClient(modelName string) *Client {
	if modelName == "" {
		modelName = DefaultModel
	}
	return &Client{modelName: modelName}
}

// Generate issues a single exchange: no retries, no timeout beyond ctx.
func (c *Client) Generate(ctx context.Context, apiKey string, req Request) (string, error) {
	if apiKey == "" {
		return "", ErrMissingCredential
	}

	id := uuid.NewString()
	slog.Info("gemini.request",
		"id", id,
		"model", c.modelName,
		"files", len(req.Files),
		"json", req.JSONOutput || req.Schema != nil,
	)

	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return "", &TransportError{Cause: err}
	}
	defer client.Close()

	model := client.GenerativeModel(c.modelName)
	model.SetTemperature(0.1)
	if req.JSONOutput || req.Schema != nil {
		model.ResponseMIMEType = "application/json"
	}
	if req.Schema != nil {
		model.ResponseSchema = req.Schema
	}

	parts := make([]genai.Part, 0, len(req.Files)+1)
	for _, f := range req.Files {
		parts = append(parts, genai.Blob{MIMEType: f.MIMEType, Data: f.Data})
	}
	parts = append(parts, genai.Text(req.Instruction))

	resp, err := model.GenerateContent(ctx, parts...)
	if err != nil {
		mapped := mapGenerateError(err)
		slog.Error("gemini.request.failed", "id", id, "error", mapped)
		return "", mapped
	}

	text, err := responseText(resp)
	if err != nil {
		slog.Error("gemini.response.unusable", "id", id, "error", err)
		return "", err
	}

	slog.Info("gemini.response", "id", id, "chars", len(text))
	return text, nil
}

// mapGenerateError converts SDK failures into the gateway's error types.
func mapGenerateError(err error) error {
	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) {
		body := apiErr.Body
		if body == "" {
			body = apiErr.Message
		}
		return &HTTPError{Status: apiErr.Code, Body: body}
	}

	var blocked *genai.BlockedError
	if errors.As(err, &blocked) {
		return &BlockedError{Reason: blockReason(blocked), Message: blocked.Error()}
	}

	return &TransportError{Cause: err}
}

func blockReason(err *genai.BlockedError) string {
	if err.PromptFeedback != nil && err.PromptFeedback.BlockReason != genai.BlockReasonUnspecified {
		return err.PromptFeedback.BlockReason.String()
	}
	if err.Candidate != nil {
		return err.Candidate.FinishReason.String()
	}
	return "unknown"
}

// responseText extracts the first candidate's joined text parts. A success
// envelope with a block reason instead of text surfaces as BlockedError.
func responseText(resp *genai.GenerateContentResponse) (string, error) {
	if len(resp.Candidates) == 0 {
		if resp.PromptFeedback != nil && resp.PromptFeedback.BlockReason != genai.BlockReasonUnspecified {
			return "", &BlockedError{Reason: resp.PromptFeedback.BlockReason.String()}
		}
		return "", &MalformedResponseError{Message: "no candidates in response"}
	}

	candidate := resp.Candidates[0]
	if candidate.Content == nil || len(candidate.Content.Parts) == 0 {
		return "", &MalformedResponseError{Message: "no content in response"}
	}

	var b strings.Builder
	for _, part := range candidate.Content.Parts {
		if text, ok := part.(genai.Text); ok {
			b.WriteString(string(text))
		}
	}
	if b.Len() == 0 {
		return "", &MalformedResponseError{Message: "no text parts in response"}
	}
	return b.String(), nil
}

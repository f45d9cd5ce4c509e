package assistant

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"
)

const geminiTimeout = 60 * time.Second

// Gemini implements ReportGenerator and Scanner using Google Gemini
type Gemini struct {
	client *genai.Client
	model  *genai.GenerativeModel
}

// NewGemini creates a new Gemini client for the named model
func NewGemini(apiKey string, modelName string) (*Gemini, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("gemini api key is required")
	}
	if modelName == "" {
		modelName = "gemini-2.5-pro"
	}

	client, err := genai.NewClient(context.Background(), option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("creating gemini client: %w", err)
	}

	return &Gemini{
		client: client,
		model:  client.GenerativeModel(modelName),
	}, nil
}

// GenerateReport asks Gemini for an expiring items report
func (g *Gemini) GenerateReport(ctx context.Context, req ReportRequest) (string, error) {
	return g.generate(ctx, genai.Text(BuildReportPrompt(req)))
}

// ScanItems reads the purchased items from a receipt image
func (g *Gemini) ScanItems(ctx context.Context, imageData []byte, contentType string) ([]ItemDraft, error) {
	pngData, err := receiptToPNG(imageData, contentType)
	if err != nil {
		return nil, err
	}

	// genai.ImageData takes the format suffix, not the MIME type
	text, err := g.generate(ctx, genai.ImageData("png", pngData), genai.Text(itemScanPrompt))
	if err != nil {
		return nil, err
	}

	drafts, err := parseItemsJSON(text)
	if err != nil {
		return nil, fmt.Errorf("parsing item data: %w", err)
	}
	return drafts, nil
}

// generate sends parts to the model and concatenates the text of the first
// candidate.
func (g *Gemini) generate(ctx context.Context, parts ...genai.Part) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, geminiTimeout)
	defer cancel()

	resp, err := g.model.GenerateContent(ctx, parts...)
	if err != nil {
		return "", fmt.Errorf("generating content: %w", err)
	}
	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil || len(resp.Candidates[0].Content.Parts) == 0 {
		return "", fmt.Errorf("no response from gemini")
	}

	var text strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if t, ok := part.(genai.Text); ok {
			text.WriteString(string(t))
		}
	}
	return strings.TrimSpace(text.String()), nil
}

// Close closes the Gemini client
func (g *Gemini) Close() error {
	return g.client.Close()
}

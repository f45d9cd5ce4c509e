package assistant

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// Ollama implements ReportGenerator and Scanner using a local Ollama server
type Ollama struct {
	baseURL string
	model   string
	client  *http.Client
}

// NewOllama creates a new Ollama client.
// Scanning needs a vision model such as llava, llava:1.6 or qwen2-vl:7b; report
// generation works with any chat model.
func NewOllama(baseURL string, modelName string) (*Ollama, error) {
	if baseURL == "" {
		baseURL = "http://localhost:11434"
	}
	if modelName == "" {
		modelName = "llava"
	}

	return &Ollama{
		baseURL: strings.TrimRight(baseURL, "/"),
		model:   modelName,
		client: &http.Client{
			Timeout: 120 * time.Second, // local models can be slow
		},
	}, nil
}

type ollamaChatRequest struct {
	Model    string          `json:"model"`
	Messages []ollamaMessage `json:"messages"`
	Stream   bool            `json:"stream"`
}

type ollamaMessage struct {
	Role    string   `json:"role"`
	Content string   `json:"content"`
	Images  []string `json:"images,omitempty"`
}

type ollamaChatResponse struct {
	Message ollamaMessage `json:"message"`
	Done    bool          `json:"done"`
}

// GenerateReport asks the model for an expiring items report
func (o *Ollama) GenerateReport(ctx context.Context, req ReportRequest) (string, error) {
	return o.chat(ctx, []ollamaMessage{
		{
			Role:    "system",
			Content: "You are a chef assistant for a restaurant kitchen. You write short, practical reports.",
		},
		{
			Role:    "user",
			Content: BuildReportPrompt(req),
		},
	})
}

// ScanItems reads the purchased items from a receipt image
func (o *Ollama) ScanItems(ctx context.Context, imageData []byte, contentType string) ([]ItemDraft, error) {
	pngData, err := receiptToPNG(imageData, contentType)
	if err != nil {
		return nil, err
	}

	text, err := o.chat(ctx, []ollamaMessage{
		{
			Role:    "system",
			Content: "You are an expert at reading grocery receipts and invoices. You must carefully read all text in images and extract accurate information.",
		},
		{
			Role:    "user",
			Content: itemScanPrompt,
			Images:  []string{base64.StdEncoding.EncodeToString(pngData)},
		},
	})
	if err != nil {
		return nil, err
	}

	drafts, err := parseItemsJSON(text)
	if err != nil {
		return nil, fmt.Errorf("parsing item data: %w", err)
	}
	return drafts, nil
}

// chat posts a non-streaming chat request and returns the reply text
func (o *Ollama) chat(ctx context.Context, messages []ollamaMessage) (string, error) {
	jsonData, err := json.Marshal(ollamaChatRequest{
		Model:    o.model,
		Messages: messages,
	})
	if err != nil {
		return "", fmt.Errorf("marshaling request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, o.baseURL+"/api/chat", bytes.NewReader(jsonData))
	if err != nil {
		return "", fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := o.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("calling ollama API: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return "", fmt.Errorf("ollama API error (status %d): %s", resp.StatusCode, string(body))
	}

	var chatResp ollamaChatResponse
	if err := json.NewDecoder(resp.Body).Decode(&chatResp); err != nil {
		return "", fmt.Errorf("decoding response: %w", err)
	}
	return strings.TrimSpace(chatResp.Message.Content), nil
}

// Close is a no-op for the HTTP client
func (o *Ollama) Close() error {
	return nil
}

package assistant

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime"
	"net/http"
	"strings"
	"time"

	htmltomarkdown "github.com/JohannesKaufmann/html-to-markdown/v2"
)

const (
	defaultWebhookTimeout = 60 * time.Second
	maxWebhookBody        = 1 << 20
)

// textFields are the JSON fields that automation tools commonly put the
// generated text in
var textFields = []string{"output", "text", "report", "response", "message"}

// Webhook implements ReportGenerator by posting the request to an automation
// workflow (such as n8n) and reading the generated report from the reply.
type Webhook struct {
	url    string
	client *http.Client
}

// NewWebhook creates a Webhook reporter for url
func NewWebhook(url string) (*Webhook, error) {
	if url == "" {
		return nil, fmt.Errorf("webhook url is required")
	}
	return &Webhook{
		url:    url,
		client: &http.Client{Timeout: defaultWebhookTimeout},
	}, nil
}

type webhookPayload struct {
	RestaurantTheme string         `json:"restaurantTheme"`
	ExpirationDate  int            `json:"expirationDate"`
	Items           []ExpiringItem `json:"items"`
	Prompt          string         `json:"prompt"`
}

// GenerateReport posts the theme and window to the webhook and returns the
// report text from its response
func (w *Webhook) GenerateReport(ctx context.Context, req ReportRequest) (string, error) {
	items := req.Items
	if items == nil {
		items = []ExpiringItem{}
	}
	jsonData, err := json.Marshal(webhookPayload{
		RestaurantTheme: req.Theme,
		ExpirationDate:  req.WindowDays,
		Items:           items,
		Prompt:          BuildReportPrompt(req),
	})
	if err != nil {
		return "", fmt.Errorf("marshaling request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, w.url, bytes.NewReader(jsonData))
	if err != nil {
		return "", fmt.Errorf("creating request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "text/plain, text/markdown, application/json, text/html")

	resp, err := w.client.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("calling webhook: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxWebhookBody))
	if err != nil {
		return "", fmt.Errorf("reading response body: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", fmt.Errorf("webhook error (status %d): %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	return decodeReportBody(body, resp.Header.Get("Content-Type"))
}

// decodeReportBody extracts report text from a webhook reply: HTML is turned
// into markdown, JSON is unwrapped from its text field, anything else is
// returned as is.
func decodeReportBody(body []byte, contentType string) (string, error) {
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		mediaType = ""
	}

	switch {
	case mediaType == "text/html":
		markdown, err := htmltomarkdown.ConvertString(string(body))
		if err != nil {
			return "", fmt.Errorf("converting HTML to markdown: %w", err)
		}
		return strings.TrimSpace(markdown), nil
	case mediaType == "application/json" || strings.HasSuffix(mediaType, "+json"):
		if text, ok := textFromJSON(body); ok {
			return strings.TrimSpace(text), nil
		}
	}
	return strings.TrimSpace(string(body)), nil
}

// textFromJSON finds the report in a JSON string, an object with one of
// textFields, or the first element of an array of either.
func textFromJSON(body []byte) (string, bool) {
	var v any
	if err := json.Unmarshal(body, &v); err != nil {
		return "", false
	}
	return textFromValue(v)
}

func textFromValue(v any) (string, bool) {
	switch t := v.(type) {
	case string:
		return t, true
	case map[string]any:
		for _, f := range textFields {
			if s, ok := t[f].(string); ok {
				return s, true
			}
		}
	case []any:
		if len(t) > 0 {
			return textFromValue(t[0])
		}
	}
	return "", false
}

// Close is a no-op for the HTTP client
func (w *Webhook) Close() error {
	return nil
}

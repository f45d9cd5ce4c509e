package assistant

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// dateFormats are the expiry date layouts accepted from the models
var dateFormats = []string{
	"2006-01-02",
	"2006/01/02",
	"01/02/2006",
	"02-01-2006",
	"Jan 2, 2006",
}

// stripCodeFence removes a surrounding markdown code block from model output
func stripCodeFence(text string) string {
	text = strings.TrimSpace(text)
	text = strings.TrimPrefix(text, "```json")
	text = strings.TrimPrefix(text, "```")
	text = strings.TrimSuffix(text, "```")
	return strings.TrimSpace(text)
}

// rawDraft accepts numbers or strings for quantity
type rawDraft struct {
	ProductName string          `json:"product_name"`
	Category    string          `json:"category"`
	Quantity    json.RawMessage `json:"quantity"`
	Unit        string          `json:"unit"`
	ExpiryDate  *string         `json:"expiry_date"`
}

// parseItemsJSON parses the JSON array returned by a scanning model. A single
// object, or an object holding an "items" array, is accepted too.
func parseItemsJSON(text string) ([]ItemDraft, error) {
	text = stripCodeFence(text)

	start := strings.IndexAny(text, "[{")
	if start == -1 {
		return nil, fmt.Errorf("no JSON found in response")
	}
	closer := "]"
	if text[start] == '{' {
		closer = "}"
	}
	end := strings.LastIndex(text, closer)
	if end < start {
		return nil, fmt.Errorf("invalid JSON in response")
	}
	text = text[start : end+1]

	var raws []rawDraft
	if text[0] == '[' {
		if err := json.Unmarshal([]byte(text), &raws); err != nil {
			return nil, fmt.Errorf("unmarshaling json: %w", err)
		}
	} else {
		var wrapped struct {
			Items []rawDraft `json:"items"`
		}
		if err := json.Unmarshal([]byte(text), &wrapped); err != nil {
			return nil, fmt.Errorf("unmarshaling json: %w", err)
		}
		raws = wrapped.Items
		if raws == nil {
			var single rawDraft
			if err := json.Unmarshal([]byte(text), &single); err != nil {
				return nil, fmt.Errorf("unmarshaling json: %w", err)
			}
			raws = []rawDraft{single}
		}
	}

	drafts := make([]ItemDraft, 0, len(raws))
	for _, r := range raws {
		d := ItemDraft{
			ProductName: strings.TrimSpace(r.ProductName),
			Category:    strings.TrimSpace(r.Category),
			Quantity:    parseQuantity(r.Quantity),
			Unit:        strings.TrimSpace(r.Unit),
		}
		if d.ProductName == "" {
			d.ProductName = "Unknown Item"
		}
		if d.Category == "" {
			d.Category = "Other"
		}
		if d.Quantity <= 0 {
			d.Quantity = 1
		}
		if r.ExpiryDate != nil {
			d.ExpiryDate = normalizeDate(*r.ExpiryDate)
		}
		drafts = append(drafts, d)
	}
	return drafts, nil
}

func parseQuantity(raw json.RawMessage) float64 {
	if len(raw) == 0 {
		return 0
	}
	var n float64
	if err := json.Unmarshal(raw, &n); err == nil {
		return n
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return 0
	}
	var f float64
	if _, err := fmt.Sscanf(strings.TrimSpace(s), "%g", &f); err != nil {
		return 0
	}
	return f
}

// normalizeDate rewrites a date in one of dateFormats to YYYY-MM-DD, or
// returns "" when it cannot be read.
func normalizeDate(s string) string {
	s = strings.TrimSpace(s)
	for _, layout := range dateFormats {
		if d, err := time.Parse(layout, s); err == nil {
			return d.Format("2006-01-02")
		}
	}
	return ""
}

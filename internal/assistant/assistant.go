package assistant

import "context"

// ExpiringItem is an inventory item handed to the report generator
type ExpiringItem struct {
	ProductName string  `json:"product_name"`
	Category    string  `json:"category"`
	Quantity    float64 `json:"quantity"`
	Unit        string  `json:"unit,omitempty"`
	ExpiryDate  string  `json:"expiry_date"` // YYYY-MM-DD
	DaysLeft    int     `json:"days_left"`
}

// ReportRequest describes the report to generate
type ReportRequest struct {
	Theme      string         `json:"theme"`
	WindowDays int            `json:"window_days"`
	Items      []ExpiringItem `json:"items"`
}

// ItemDraft is an inventory item read from a grocery receipt
type ItemDraft struct {
	ProductName string  `json:"product_name"`
	Category    string  `json:"category"`
	Quantity    float64 `json:"quantity"`
	Unit        string  `json:"unit"`
	ExpiryDate  string  `json:"expiry_date"` // YYYY-MM-DD, empty when unknown
}

// ReportGenerator produces the raw text of an expiring items report
type ReportGenerator interface {
	// GenerateReport returns the report text exactly as the service wrote it
	GenerateReport(ctx context.Context, req ReportRequest) (string, error)
	// Close releases resources held by the reporter
	Close() error
}

// Scanner reads purchased items from a grocery receipt image or PDF
type Scanner interface {
	// ScanItems extracts item drafts from the receipt
	ScanItems(ctx context.Context, imageData []byte, contentType string) ([]ItemDraft, error)
	// Close releases resources held by the scanner
	Close() error
}

package inventory

import (
	"errors"
	"math"
	"time"

	"github.com/Jukitsye777/Preservify/internal/report"
)

var (
	// ErrNotFound is returned when an item, sale or report does not exist
	ErrNotFound = errors.New("not found")
	// ErrInvalidItem is returned when item fields fail validation
	ErrInvalidItem = errors.New("invalid item")
	// ErrInvalidQuantity is returned for a zero or negative sale quantity
	ErrInvalidQuantity = errors.New("quantity must be greater than zero")
	// ErrInsufficientStock is returned when a sale exceeds the stock on hand
	ErrInsufficientStock = errors.New("not enough stock available")
	// ErrInvalidWindow is returned for a report window below one day
	ErrInvalidWindow = errors.New("expiry window must be at least one day")
	// ErrNoReporter is returned when no report generator is configured
	ErrNoReporter = errors.New("report generation is not configured")
	// ErrNoScanner is returned when no receipt scanner is configured
	ErrNoScanner = errors.New("receipt scanning is not configured")
)

// Item is a stock line in the food inventory
type Item struct {
	ID               string    `json:"id"`
	ProductName      string    `json:"product_name"`
	Category         string    `json:"category"`
	Quantity         float64   `json:"quantity"`
	Unit             string    `json:"unit,omitempty"`
	StorageLocation  string    `json:"storage_location,omitempty"`
	PricePerUnit     int       `json:"price_per_unit"` // Price in cents
	PurchaseDate     time.Time `json:"purchase_date"`
	ExpiryDate       time.Time `json:"expiry_date"`
	ImageFilename    string    `json:"image_filename,omitempty"`
	ImageContentType string    `json:"image_content_type,omitempty"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}

// DaysUntilExpiry returns the whole days left before the item expires,
// rounded up. Expired items give zero or less.
func (i *Item) DaysUntilExpiry(now time.Time) int {
	return int(math.Ceil(i.ExpiryDate.Sub(now).Hours() / 24))
}

// Sale records stock taken out of an item
type Sale struct {
	ID          string    `json:"id"`
	ItemID      string    `json:"item_id"`
	ProductName string    `json:"product_name"`
	Quantity    float64   `json:"quantity"`
	SoldAt      time.Time `json:"sold_at"`
}

// SavedReport is a generated expiring items report with its parsed sections
type SavedReport struct {
	ID         string           `json:"id"`
	Theme      string           `json:"theme"`
	WindowDays int              `json:"window_days"`
	ItemIDs    []string         `json:"item_ids"` // Items that were expiring when the report was made
	Raw        string           `json:"raw"`
	Sections   []report.Section `json:"sections"`
	CreatedAt  time.Time        `json:"created_at"`
}

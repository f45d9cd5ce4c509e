package inventory

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/Jukitsye777/Preservify/internal/assistant"
	"github.com/Jukitsye777/Preservify/internal/report"
)

// DateLayout is the calendar date format used for item dates
const DateLayout = "2006-01-02"

// IDGenerator generates unique IDs for items, sales and reports
type IDGenerator interface {
	Generate() string
}

// TimeSource provides the current time
type TimeSource interface {
	Now() time.Time
}

type defaultIDGenerator struct{}

func (g *defaultIDGenerator) Generate() string {
	return uuid.NewString()
}

type defaultTimeSource struct{}

func (t *defaultTimeSource) Now() time.Time {
	return time.Now()
}

// ItemInput carries user supplied item fields. Dates are YYYY-MM-DD and
// the price is in dollars.
type ItemInput struct {
	ProductName     string  `json:"product_name"`
	Category        string  `json:"category"`
	Quantity        float64 `json:"quantity"`
	Unit            string  `json:"unit"`
	StorageLocation string  `json:"storage_location"`
	PricePerUnit    float64 `json:"price_per_unit"`
	PurchaseDate    string  `json:"purchase_date"`
	ExpiryDate      string  `json:"expiry_date"`
}

// Service handles inventory, sales and report operations
type Service struct {
	db          DB
	storage     Storage
	reporter    assistant.ReportGenerator
	scanner     assistant.Scanner
	idGenerator IDGenerator
	timeSource  TimeSource
}

// NewService creates a new Service. reporter and scanner may be nil when
// those features are not configured.
func NewService(db DB, storage Storage, reporter assistant.ReportGenerator, scanner assistant.Scanner) *Service {
	return NewServiceWithDeps(db, storage, reporter, scanner, &defaultIDGenerator{}, &defaultTimeSource{})
}

// NewServiceWithDeps creates a new Service with custom dependencies for testing
func NewServiceWithDeps(db DB, storage Storage, reporter assistant.ReportGenerator, scanner assistant.Scanner, idGen IDGenerator, timeSrc TimeSource) *Service {
	return &Service{
		db:          db,
		storage:     storage,
		reporter:    reporter,
		scanner:     scanner,
		idGenerator: idGen,
		timeSource:  timeSrc,
	}
}

var (
	unsafeNameRe = regexp.MustCompile(`[^a-zA-Z0-9\s\-_]`)
	spaceRe      = regexp.MustCompile(`\s+`)
)

// sanitizeFilename drops special characters from a file name and keeps
// the base at most 50 characters
func sanitizeFilename(filename string) string {
	ext := strings.ToLower(unsafeNameRe.ReplaceAllString(filepath.Ext(filename), ""))
	if ext != "" {
		ext = "." + ext
	}
	base := strings.TrimSuffix(filepath.Base(filename), filepath.Ext(filename))
	base = unsafeNameRe.ReplaceAllString(base, "")
	base = strings.TrimSpace(spaceRe.ReplaceAllString(base, " "))
	base = strings.ReplaceAll(base, " ", "_")

	if len(base) > 50 {
		base = base[:50]
	}
	if base == "" {
		base = "image"
	}
	return base + ext
}

func parseDate(field, value string) (time.Time, error) {
	t, err := time.Parse(DateLayout, strings.TrimSpace(value))
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %s must be YYYY-MM-DD", ErrInvalidItem, field)
	}
	return t, nil
}

// applyInput validates in and copies it onto item
func (s *Service) applyInput(item *Item, in ItemInput) error {
	name := strings.TrimSpace(in.ProductName)
	if name == "" {
		return fmt.Errorf("%w: product name is required", ErrInvalidItem)
	}
	if in.Quantity < 0 {
		return fmt.Errorf("%w: quantity cannot be negative", ErrInvalidItem)
	}
	if in.PricePerUnit < 0 {
		return fmt.Errorf("%w: price cannot be negative", ErrInvalidItem)
	}

	expiry, err := parseDate("expiry date", in.ExpiryDate)
	if err != nil {
		return err
	}

	purchase := s.timeSource.Now().UTC().Truncate(24 * time.Hour)
	if in.PurchaseDate != "" {
		if purchase, err = parseDate("purchase date", in.PurchaseDate); err != nil {
			return err
		}
	}

	category := strings.TrimSpace(in.Category)
	if category == "" {
		category = "Other"
	}

	item.ProductName = name
	item.Category = category
	item.Quantity = in.Quantity
	item.Unit = strings.TrimSpace(in.Unit)
	item.StorageLocation = strings.TrimSpace(in.StorageLocation)
	item.PricePerUnit = int(math.Round(in.PricePerUnit * 100))
	item.PurchaseDate = purchase
	item.ExpiryDate = expiry
	return nil
}

// CreateItem validates and stores a new item
func (s *Service) CreateItem(in ItemInput) (*Item, error) {
	now := s.timeSource.Now()
	item := &Item{
		ID:        s.idGenerator.Generate(),
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.applyInput(item, in); err != nil {
		return nil, err
	}

	if err := s.db.SaveItem(item); err != nil {
		return nil, fmt.Errorf("saving item: %w", err)
	}
	slog.Info("Item created", "id", item.ID, "product", item.ProductName)
	return item, nil
}

// GetItem retrieves an item by ID
func (s *Service) GetItem(id string) (*Item, error) {
	item, err := s.db.GetItem(id)
	if err != nil {
		return nil, fmt.Errorf("getting item: %w", err)
	}
	return item, nil
}

// ListItems returns all items, soonest expiry first
func (s *Service) ListItems() ([]*Item, error) {
	items, err := s.db.ListItems()
	if err != nil {
		return nil, fmt.Errorf("listing items: %w", err)
	}
	sortByExpiry(items)
	return items, nil
}

func sortByExpiry(items []*Item) {
	sort.SliceStable(items, func(i, j int) bool {
		if items[i].ExpiryDate.Equal(items[j].ExpiryDate) {
			return items[i].ProductName < items[j].ProductName
		}
		return items[i].ExpiryDate.Before(items[j].ExpiryDate)
	})
}

// UpdateItem replaces the editable fields of an item
func (s *Service) UpdateItem(id string, in ItemInput) (*Item, error) {
	item, err := s.db.UpdateItem(id, func(item *Item) error {
		if err := s.applyInput(item, in); err != nil {
			return err
		}
		item.UpdatedAt = s.timeSource.Now()
		return nil
	})
	if err != nil {
		if IsClientError(err) {
			return nil, err
		}
		return nil, fmt.Errorf("updating item: %w", err)
	}
	return item, nil
}

// DeleteItem removes an item and its image
func (s *Service) DeleteItem(id string) error {
	item, err := s.db.GetItem(id)
	if err != nil {
		return fmt.Errorf("getting item for deletion: %w", err)
	}

	if item.ImageFilename != "" {
		if err := s.storage.Delete(item.ImageFilename); err != nil {
			slog.Warn("Failed to delete item image", "filename", item.ImageFilename, "error", err)
		}
	}

	if err := s.db.DeleteItem(id); err != nil {
		return fmt.Errorf("deleting item from database: %w", err)
	}
	return nil
}

// SaveItemImage stores a photo for an item, replacing any previous one
func (s *Service) SaveItemImage(id, filename string, data []byte, contentType string) (*Item, error) {
	if _, err := s.db.GetItem(id); err != nil {
		return nil, fmt.Errorf("getting item: %w", err)
	}

	saved, err := s.storage.Save(fmt.Sprintf("%s_%s", s.idGenerator.Generate(), sanitizeFilename(filename)), data)
	if err != nil {
		return nil, fmt.Errorf("saving image: %w", err)
	}

	var previous string
	item, err := s.db.UpdateItem(id, func(item *Item) error {
		previous = item.ImageFilename
		item.ImageFilename = saved
		item.ImageContentType = contentType
		item.UpdatedAt = s.timeSource.Now()
		return nil
	})
	if err != nil {
		s.storage.Delete(saved)
		return nil, fmt.Errorf("saving item: %w", err)
	}

	if previous != "" {
		if err := s.storage.Delete(previous); err != nil {
			slog.Warn("Failed to delete replaced image", "filename", previous, "error", err)
		}
	}
	return item, nil
}

// GetItemImage returns the image data and content type of an item
func (s *Service) GetItemImage(id string) ([]byte, string, error) {
	item, err := s.db.GetItem(id)
	if err != nil {
		return nil, "", fmt.Errorf("getting item: %w", err)
	}
	if item.ImageFilename == "" {
		return nil, "", fmt.Errorf("image for item %s: %w", id, ErrNotFound)
	}

	data, err := s.storage.Get(item.ImageFilename)
	if err != nil {
		return nil, "", fmt.Errorf("getting item image: %w", err)
	}
	return data, item.ImageContentType, nil
}

// RecordSale takes quantity out of an item's stock and logs the sale
func (s *Service) RecordSale(itemID string, quantity float64) (*Sale, error) {
	if quantity <= 0 || math.IsNaN(quantity) {
		return nil, ErrInvalidQuantity
	}

	sale, err := s.db.RecordSale(itemID, func(item *Item) (*Sale, error) {
		if quantity > item.Quantity {
			return nil, fmt.Errorf("%w: %g requested, %g on hand", ErrInsufficientStock, quantity, item.Quantity)
		}
		now := s.timeSource.Now()
		item.Quantity -= quantity
		item.UpdatedAt = now
		return &Sale{
			ID:          s.idGenerator.Generate(),
			ItemID:      item.ID,
			ProductName: item.ProductName,
			Quantity:    quantity,
			SoldAt:      now,
		}, nil
	})
	if err != nil {
		if IsClientError(err) {
			return nil, err
		}
		return nil, fmt.Errorf("saving sale: %w", err)
	}
	return sale, nil
}

// ListSales returns all sales, newest first
func (s *Service) ListSales() ([]*Sale, error) {
	sales, err := s.db.ListSales()
	if err != nil {
		return nil, fmt.Errorf("listing sales: %w", err)
	}
	sort.SliceStable(sales, func(i, j int) bool {
		return sales[i].SoldAt.After(sales[j].SoldAt)
	})
	return sales, nil
}

// ExpiringItems returns in-stock items expiring within days, including
// items already past their date, soonest first
func (s *Service) ExpiringItems(days int) ([]*Item, error) {
	if days < 1 {
		return nil, ErrInvalidWindow
	}

	items, err := s.db.ListItems()
	if err != nil {
		return nil, fmt.Errorf("listing items: %w", err)
	}

	now := s.timeSource.Now()
	expiring := make([]*Item, 0)
	for _, item := range items {
		if item.Quantity > 0 && item.DaysUntilExpiry(now) <= days {
			expiring = append(expiring, item)
		}
	}
	sortByExpiry(expiring)
	return expiring, nil
}

// GenerateReport asks the reporter for a report on items expiring within
// days, splits it into sections and stores it
func (s *Service) GenerateReport(ctx context.Context, theme string, days int) (*SavedReport, error) {
	if s.reporter == nil {
		return nil, ErrNoReporter
	}

	items, err := s.ExpiringItems(days)
	if err != nil {
		return nil, err
	}

	now := s.timeSource.Now()
	req := assistant.ReportRequest{
		Theme:      strings.TrimSpace(theme),
		WindowDays: days,
		Items:      make([]assistant.ExpiringItem, 0, len(items)),
	}
	ids := make([]string, 0, len(items))
	for _, item := range items {
		req.Items = append(req.Items, assistant.ExpiringItem{
			ProductName: item.ProductName,
			Category:    item.Category,
			Quantity:    item.Quantity,
			Unit:        item.Unit,
			ExpiryDate:  item.ExpiryDate.Format(DateLayout),
			DaysLeft:    item.DaysUntilExpiry(now),
		})
		ids = append(ids, item.ID)
	}

	raw, err := s.reporter.GenerateReport(ctx, req)
	if err != nil {
		slog.Error("Failed to generate report",
			"theme", req.Theme,
			"window_days", days,
			"items", len(items),
			"error", err,
		)
		return nil, fmt.Errorf("generating report: %w", err)
	}

	rep := &SavedReport{
		ID:         s.idGenerator.Generate(),
		Theme:      req.Theme,
		WindowDays: days,
		ItemIDs:    ids,
		Raw:        raw,
		Sections:   report.Parse(raw),
		CreatedAt:  now,
	}
	if err := s.db.SaveReport(rep); err != nil {
		return nil, fmt.Errorf("saving report: %w", err)
	}
	slog.Info("Report generated", "id", rep.ID, "sections", len(rep.Sections))
	return rep, nil
}

// ParseReport splits raw report text into sections without storing it
func (s *Service) ParseReport(raw string) []report.Section {
	return report.Parse(raw)
}

// GetReport retrieves a report by ID
func (s *Service) GetReport(id string) (*SavedReport, error) {
	rep, err := s.db.GetReport(id)
	if err != nil {
		return nil, fmt.Errorf("getting report: %w", err)
	}
	return rep, nil
}

// ListReports returns all reports, newest first
func (s *Service) ListReports() ([]*SavedReport, error) {
	reports, err := s.db.ListReports()
	if err != nil {
		return nil, fmt.Errorf("listing reports: %w", err)
	}
	sort.SliceStable(reports, func(i, j int) bool {
		return reports[i].CreatedAt.After(reports[j].CreatedAt)
	})
	return reports, nil
}

// ReportPDF renders a stored report as a PDF document
func (s *Service) ReportPDF(id string) ([]byte, error) {
	rep, err := s.GetReport(id)
	if err != nil {
		return nil, err
	}

	title := "Expiring Items Report"
	if rep.Theme != "" {
		title += " - " + rep.Theme
	}
	data, err := report.RenderPDF(title, rep.Sections)
	if err != nil {
		return nil, fmt.Errorf("rendering report %s: %w", id, err)
	}
	return data, nil
}

// ScanItems reads item drafts from a grocery receipt. Drafts are not saved.
func (s *Service) ScanItems(ctx context.Context, filename string, data []byte, contentType string) ([]assistant.ItemDraft, error) {
	if s.scanner == nil {
		return nil, ErrNoScanner
	}

	drafts, err := s.scanner.ScanItems(ctx, data, contentType)
	if err != nil {
		slog.Error("Failed to scan receipt",
			"filename", filename,
			"content_type", contentType,
			"file_size", len(data),
			"error", err,
		)
		return nil, fmt.Errorf("scanning receipt: %w", err)
	}
	return drafts, nil
}

// IsClientError reports whether err was caused by bad input rather than
// a failure in the service
func IsClientError(err error) bool {
	return errors.Is(err, ErrInvalidItem) ||
		errors.Is(err, ErrInvalidQuantity) ||
		errors.Is(err, ErrInsufficientStock) ||
		errors.Is(err, ErrInvalidWindow)
}

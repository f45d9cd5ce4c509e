package inventory

import (
	"encoding/json"
	"fmt"
	"time"

	"go.etcd.io/bbolt"
)

const (
	itemsBucket   = "items"
	salesBucket   = "sales"
	reportsBucket = "reports"
)

// DB defines the interface for database operations
type DB interface {
	// SaveItem creates or replaces an item
	SaveItem(item *Item) error

	// GetItem retrieves an item by ID
	GetItem(id string) (*Item, error)

	// ListItems returns all items
	ListItems() ([]*Item, error)

	// DeleteItem removes an item
	DeleteItem(id string) error

	// UpdateItem loads an item, applies mutate and stores the result in one
	// transaction; nothing is written when mutate fails
	UpdateItem(id string, mutate func(item *Item) error) (*Item, error)

	// RecordSale loads an item, lets sell adjust its stock and build the sale,
	// then stores both in one transaction
	RecordSale(itemID string, sell func(item *Item) (*Sale, error)) (*Sale, error)

	// ListSales returns all sales
	ListSales() ([]*Sale, error)

	// SaveReport stores a generated report
	SaveReport(report *SavedReport) error

	// GetReport retrieves a report by ID
	GetReport(id string) (*SavedReport, error)

	// ListReports returns all reports
	ListReports() ([]*SavedReport, error)

	// Close closes the database connection
	Close() error
}

// BoltDB implements the DB interface using BoltDB
type BoltDB struct {
	db *bbolt.DB
}

// NewBoltDB opens the database at path and creates missing buckets
func NewBoltDB(path string) (*BoltDB, error) {
	db, err := bbolt.Open(path, 0600, &bbolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("opening boltdb: %w", err)
	}

	err = db.Update(func(tx *bbolt.Tx) error {
		for _, name := range []string{itemsBucket, salesBucket, reportsBucket} {
			if _, err := tx.CreateBucketIfNotExists([]byte(name)); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("creating buckets: %w", err)
	}

	return &BoltDB{db: db}, nil
}

func putJSON(tx *bbolt.Tx, bucket, key string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("marshaling %s: %w", bucket, err)
	}
	return tx.Bucket([]byte(bucket)).Put([]byte(key), data)
}

func getJSON(tx *bbolt.Tx, bucket, kind, id string, v any) error {
	data := tx.Bucket([]byte(bucket)).Get([]byte(id))
	if data == nil {
		return fmt.Errorf("%s %s: %w", kind, id, ErrNotFound)
	}
	return json.Unmarshal(data, v)
}

func (b *BoltDB) get(bucket, kind, id string, v any) error {
	return b.db.View(func(tx *bbolt.Tx) error {
		return getJSON(tx, bucket, kind, id, v)
	})
}

// each decodes every value of bucket with decode
func (b *BoltDB) each(bucket string, decode func(data []byte) error) error {
	return b.db.View(func(tx *bbolt.Tx) error {
		return tx.Bucket([]byte(bucket)).ForEach(func(k, v []byte) error {
			return decode(v)
		})
	})
}

// SaveItem creates or replaces an item
func (b *BoltDB) SaveItem(item *Item) error {
	return b.db.Update(func(tx *bbolt.Tx) error {
		return putJSON(tx, itemsBucket, item.ID, item)
	})
}

// GetItem retrieves an item by ID
func (b *BoltDB) GetItem(id string) (*Item, error) {
	var item Item
	if err := b.get(itemsBucket, "item", id, &item); err != nil {
		return nil, err
	}
	return &item, nil
}

// ListItems returns all items in key order
func (b *BoltDB) ListItems() ([]*Item, error) {
	items := make([]*Item, 0)
	err := b.each(itemsBucket, func(data []byte) error {
		var item Item
		if err := json.Unmarshal(data, &item); err != nil {
			return fmt.Errorf("unmarshaling item: %w", err)
		}
		items = append(items, &item)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return items, nil
}

// DeleteItem removes an item; sales that reference it are kept
func (b *BoltDB) DeleteItem(id string) error {
	return b.db.Update(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket([]byte(itemsBucket))
		if bucket.Get([]byte(id)) == nil {
			return fmt.Errorf("item %s: %w", id, ErrNotFound)
		}
		return bucket.Delete([]byte(id))
	})
}

// UpdateItem applies mutate to the stored item under the write lock
func (b *BoltDB) UpdateItem(id string, mutate func(item *Item) error) (*Item, error) {
	var item Item
	err := b.db.Update(func(tx *bbolt.Tx) error {
		if err := getJSON(tx, itemsBucket, "item", id, &item); err != nil {
			return err
		}
		if err := mutate(&item); err != nil {
			return err
		}
		return putJSON(tx, itemsBucket, item.ID, &item)
	})
	if err != nil {
		return nil, err
	}
	return &item, nil
}

// RecordSale writes the sale and the item it drew from in one transaction,
// so concurrent sales always see each other's stock changes
func (b *BoltDB) RecordSale(itemID string, sell func(item *Item) (*Sale, error)) (*Sale, error) {
	var sale *Sale
	err := b.db.Update(func(tx *bbolt.Tx) error {
		var item Item
		if err := getJSON(tx, itemsBucket, "item", itemID, &item); err != nil {
			return err
		}
		var err error
		if sale, err = sell(&item); err != nil {
			return err
		}
		if err := putJSON(tx, salesBucket, sale.ID, sale); err != nil {
			return err
		}
		return putJSON(tx, itemsBucket, item.ID, &item)
	})
	if err != nil {
		return nil, err
	}
	return sale, nil
}

// ListSales returns all sales in key order
func (b *BoltDB) ListSales() ([]*Sale, error) {
	sales := make([]*Sale, 0)
	err := b.each(salesBucket, func(data []byte) error {
		var sale Sale
		if err := json.Unmarshal(data, &sale); err != nil {
			return fmt.Errorf("unmarshaling sale: %w", err)
		}
		sales = append(sales, &sale)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return sales, nil
}

// SaveReport stores a generated report
func (b *BoltDB) SaveReport(report *SavedReport) error {
	return b.db.Update(func(tx *bbolt.Tx) error {
		return putJSON(tx, reportsBucket, report.ID, report)
	})
}

// GetReport retrieves a report by ID
func (b *BoltDB) GetReport(id string) (*SavedReport, error) {
	var report SavedReport
	if err := b.get(reportsBucket, "report", id, &report); err != nil {
		return nil, err
	}
	return &report, nil
}

// ListReports returns all reports in key order
func (b *BoltDB) ListReports() ([]*SavedReport, error) {
	reports := make([]*SavedReport, 0)
	err := b.each(reportsBucket, func(data []byte) error {
		var report SavedReport
		if err := json.Unmarshal(data, &report); err != nil {
			return fmt.Errorf("unmarshaling report: %w", err)
		}
		reports = append(reports, &report)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return reports, nil
}

// Close closes the database connection
func (b *BoltDB) Close() error {
	return b.db.Close()
}

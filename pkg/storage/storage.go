// Package storage persists the shopping list and every price/stock
// observation in a local sqlite database. Observations are append-only;
// a fresh scrape is a fresh row, never an update.
package storage

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shelfscout/shelfscout/pkg/retail"
	"github.com/shelfscout/shelfscout/pkg/route"

	_ "modernc.org/sqlite"
)

type DB struct {
	sql *sql.DB
}

func Open(path string) (*DB, error) {
	dsn := "file:" + path + "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, err
	}
	if err := db.Ping(); err != nil {
		return nil, err
	}
	// Ensure schema exists for convenience.
	if _, err := db.Exec(`
CREATE TABLE IF NOT EXISTS shopping_items (
  id       TEXT PRIMARY KEY,
  barcode  TEXT NOT NULL UNIQUE,
  name     TEXT NOT NULL,
  quantity INTEGER NOT NULL DEFAULT 1,
  image    TEXT,
  aisle    TEXT,
  added_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);
CREATE TABLE IF NOT EXISTS price_observations (
  id          INTEGER PRIMARY KEY,
  barcode     TEXT NOT NULL,
  store       TEXT NOT NULL,
  chain       TEXT NOT NULL,
  price       REAL,
  in_stock    INTEGER NOT NULL CHECK (in_stock IN (0,1)),
  aisle       TEXT,
  observed_at DATETIME NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_obs_barcode ON price_observations(barcode, observed_at);
	`); err != nil {
		return nil, err
	}
	return &DB{sql: db}, nil
}

func (d *DB) Close() error {
	if d == nil || d.sql == nil {
		return nil
	}
	return d.sql.Close()
}

// UpsertItem adds an item to the shopping list, or refreshes its name,
// quantity and aisle if the barcode is already listed.
func (d *DB) UpsertItem(ctx context.Context, item route.ShoppingItem) error {
	id := item.ID
	if id == "" {
		id = uuid.NewString()
	}
	_, err := d.sql.ExecContext(ctx, `
INSERT INTO shopping_items(id, barcode, name, quantity, image, aisle) VALUES(?,?,?,?,?,?)
ON CONFLICT(barcode) DO UPDATE SET name = excluded.name, quantity = excluded.quantity, image = excluded.image, aisle = excluded.aisle`,
		id, item.Barcode, item.Name, item.Quantity, nullIfEmpty(item.Image), nullIfEmpty(item.Aisle))
	return err
}

// RemoveItem drops an item and its observation history.
func (d *DB) RemoveItem(ctx context.Context, barcode string) error {
	if _, err := d.sql.ExecContext(ctx, `DELETE FROM price_observations WHERE barcode = ?`, barcode); err != nil {
		return err
	}
	_, err := d.sql.ExecContext(ctx, `DELETE FROM shopping_items WHERE barcode = ?`, barcode)
	return err
}

// RecordObservations appends the primary inventory observation (when it
// names a real store) and every alternative from a resolution result.
func (d *DB) RecordObservations(ctx context.Context, info *retail.ProductInfo) error {
	if info == nil {
		return nil
	}
	observations := make([]retail.StoreInventory, 0, 1+len(info.AlternativeStores))
	if info.Inventory.StoreID != "" && info.Inventory.StoreID != "unknown" {
		observations = append(observations, info.Inventory)
	}
	observations = append(observations, info.AlternativeStores...)

	for _, inv := range observations {
		var price interface{}
		if inv.Price != nil {
			price = *inv.Price
		}
		_, err := d.sql.ExecContext(ctx, `
INSERT INTO price_observations(barcode, store, chain, price, in_stock, aisle, observed_at) VALUES(?,?,?,?,?,?,?)`,
			info.Barcode, StoreLabel(inv.Chain, inv.StoreID), string(inv.Chain), price,
			boolToInt(inv.InStock), nullIfEmpty(inv.Aisle), inv.LastUpdated.UTC().Format(time.RFC3339))
		if err != nil {
			return err
		}
	}
	return nil
}

// ListItems returns the shopping list with each item's observation
// history attached, oldest observation first.
func (d *DB) ListItems(ctx context.Context) ([]route.ShoppingItem, error) {
	rows, err := d.sql.QueryContext(ctx, `SELECT id, barcode, name, quantity, image, aisle FROM shopping_items ORDER BY added_at, barcode`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []route.ShoppingItem
	for rows.Next() {
		var it route.ShoppingItem
		var image, aisle sql.NullString
		if err := rows.Scan(&it.ID, &it.Barcode, &it.Name, &it.Quantity, &image, &aisle); err != nil {
			return nil, err
		}
		it.Image = image.String
		it.Aisle = aisle.String
		items = append(items, it)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i := range items {
		prices, err := d.observationsFor(ctx, items[i].Barcode)
		if err != nil {
			return nil, err
		}
		items[i].Prices = prices
	}
	return items, nil
}

func (d *DB) observationsFor(ctx context.Context, barcode string) ([]route.PriceObservation, error) {
	rows, err := d.sql.QueryContext(ctx, `SELECT store, chain, price, in_stock, observed_at FROM price_observations WHERE barcode = ? ORDER BY observed_at, id`, barcode)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []route.PriceObservation
	for rows.Next() {
		var obs route.PriceObservation
		var chain string
		var price sql.NullFloat64
		var inStock int
		var observedAt string
		if err := rows.Scan(&obs.Store, &chain, &price, &inStock, &observedAt); err != nil {
			return nil, err
		}
		obs.Chain = retail.Chain(chain)
		obs.Price = price.Float64
		obs.InStock = inStock == 1
		if t, perr := time.Parse(time.RFC3339, observedAt); perr == nil {
			obs.ObservedAt = t
		}
		out = append(out, obs)
	}
	return out, rows.Err()
}

// StoreLabel is the display label observations are filed under, e.g.
// "walmart #5260". The route optimizer partitions by this.
func StoreLabel(chain retail.Chain, storeID string) string {
	return fmt.Sprintf("%s #%s", chain, storeID)
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

func nullIfEmpty(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}

package retail

import (
	"fmt"
	"time"
)

// Chain identifies a retailer whose store network and web surface are
// handled by one adapter.
type Chain string

const (
	ChainWalmart Chain = "walmart"
	ChainTarget  Chain = "target"
	ChainHEB     Chain = "heb"
)

// AislePlaceholder is what a StoreInventory carries when the page did not
// say where the product lives.
const AislePlaceholder = "Ask a store associate"

// StoreLocation is one store returned by a chain's store locator. It is
// ephemeral: built per search call, never persisted. Distance is in miles
// and nil when the locator page didn't give us a parseable value.
type StoreLocation struct {
	StoreID  string   `json:"storeId"`
	Name     string   `json:"name"`
	Address  string   `json:"address"`
	Distance *float64 `json:"distance,omitempty"`
	Chain    Chain    `json:"chain"`
}

// StoreInventory is one point-in-time stock observation for one product at
// one store. Observations are never updated in place; a new scrape is a
// new value.
type StoreInventory struct {
	StoreID     string    `json:"storeId"`
	Chain       Chain     `json:"chain"`
	InStock     bool      `json:"inStock"`
	Quantity    *int      `json:"quantity,omitempty"`
	Aisle       string    `json:"aisle"`
	Price       *float64  `json:"price,omitempty"`
	LastUpdated time.Time `json:"lastUpdated"`
}

// ProductMeta is chain-agnostic product identity.
type ProductMeta struct {
	Name  string `json:"name"`
	Image string `json:"image"`
	Brand string `json:"brand,omitempty"`
}

// ProductInfo is the merged resolution result: identity, the primary
// inventory observation, and in-stock alternatives surfaced only when the
// primary is out of stock.
type ProductInfo struct {
	Name              string           `json:"name"`
	Image             string           `json:"image"`
	Barcode           string           `json:"barcode"`
	Brand             string           `json:"brand,omitempty"`
	Inventory         StoreInventory   `json:"inventory"`
	AlternativeStores []StoreInventory `json:"alternativeStores,omitempty"`
}

// FormatInventory renders one observation as a single human-readable line.
func FormatInventory(inv StoreInventory) string {
	stock := "OUT OF STOCK"
	if inv.InStock {
		stock = "in stock"
	}
	line := fmt.Sprintf("[%s] store %s: %s", inv.Chain, inv.StoreID, stock)
	if inv.Price != nil {
		line += fmt.Sprintf(" at $%.2f", *inv.Price)
	}
	if inv.Aisle != "" {
		line += ", " + inv.Aisle
	}
	return line
}

// FormatStore renders a locator hit as a single line.
func FormatStore(s StoreLocation) string {
	line := fmt.Sprintf("[%s] %s (%s)", s.Chain, s.Name, s.Address)
	if s.Distance != nil {
		line += fmt.Sprintf(" - %.1f mi", *s.Distance)
	}
	return line
}

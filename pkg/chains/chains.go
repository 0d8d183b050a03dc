// Package chains defines the common interface every retailer adapter
// implements. Adding a chain means writing one package with its own URL
// templates and selector spec; nothing in the orchestrator changes.
package chains

import (
	"context"
	"strings"

	"github.com/shelfscout/shelfscout/pkg/retail"
)

// Retailer abstracts one chain's web surface. All three operations absorb
// failures: a broken page, a blocked request or a missing field comes back
// as an empty slice or nil, never as an error. One chain's breakage must
// never abort a cross-chain resolution.
type Retailer interface {
	Name() retail.Chain

	// FindStores searches stores near a free-form location query (usually
	// a ZIP code). Empty slice on any failure.
	FindStores(ctx context.Context, locationQuery string) []retail.StoreLocation

	// GetInventory fetches stock, price and aisle for a barcode at one
	// store. Nil on any failure.
	GetInventory(ctx context.Context, storeID, barcode string) *retail.StoreInventory

	// GetProductMeta fetches chain-agnostic product identity for a
	// barcode. Nil when the chain doesn't know the product.
	GetProductMeta(ctx context.Context, barcode string) *retail.ProductMeta
}

// MatchesStockPhrase reports whether extracted availability text contains
// the chain's fixed "in stock" phrase, case-insensitively.
func MatchesStockPhrase(text, phrase string) bool {
	return strings.Contains(strings.ToLower(text), strings.ToLower(phrase))
}

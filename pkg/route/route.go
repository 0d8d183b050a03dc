// Package route turns a flat shopping list into per-store aisle-ordered
// traversal paths. It only consumes previously resolved data; it never
// talks to a retailer.
package route

import (
	"sort"
	"strings"
	"time"

	"github.com/shelfscout/shelfscout/pkg/extract"
	"github.com/shelfscout/shelfscout/pkg/retail"
)

// Aisle sort sentinels. An aisle label with no digits sorts after every
// numbered aisle; a missing label sorts after those too.
const (
	aisleUnparsed = 1 << 30
	aisleMissing  = aisleUnparsed + 1
)

// PriceObservation is one historical price/stock sighting of an item at a
// named store.
type PriceObservation struct {
	Store      string       `json:"store"`
	Chain      retail.Chain `json:"chain,omitempty"`
	Price      float64      `json:"price"`
	InStock    bool         `json:"inStock"`
	ObservedAt time.Time    `json:"observedAt"`
}

// ShoppingItem is read-only input owned by the caller. The optimizer
// never mutates quantities or identity.
type ShoppingItem struct {
	ID       string             `json:"id"`
	Barcode  string             `json:"barcode"`
	Name     string             `json:"name"`
	Quantity int                `json:"quantity"`
	Image    string             `json:"image,omitempty"`
	Prices   []PriceObservation `json:"prices"`
	Aisle    string             `json:"aisle,omitempty"`
}

// StoreRoute is derived output, recomputed on every call. OptimizedPath is
// a permutation of Items ordered by ascending aisle number.
type StoreRoute struct {
	Store         string         `json:"store"`
	Items         []ShoppingItem `json:"items"`
	OptimizedPath []ShoppingItem `json:"optimizedPath"`
	TotalItems    int            `json:"totalItems"`
}

// Optimize partitions items by the store of their first price observation,
// orders each partition by aisle, and ranks stores by total item count.
// Items with no price observation belong to no store and are dropped;
// so are items with a non-positive quantity.
func Optimize(items []ShoppingItem) []StoreRoute {
	var storeOrder []string
	byStore := make(map[string][]ShoppingItem)
	for _, it := range items {
		if len(it.Prices) == 0 {
			continue
		}
		store := it.Prices[0].Store
		if _, seen := byStore[store]; !seen {
			storeOrder = append(storeOrder, store)
		}
		byStore[store] = append(byStore[store], it)
	}

	routes := make([]StoreRoute, 0, len(storeOrder))
	for _, store := range storeOrder {
		var kept []ShoppingItem
		for _, it := range byStore[store] {
			if it.Quantity > 0 {
				kept = append(kept, it)
			}
		}
		if len(kept) == 0 {
			continue
		}

		r := StoreRoute{
			Store:         store,
			Items:         kept,
			OptimizedPath: orderByAisle(kept),
		}
		for _, it := range kept {
			r.TotalItems += it.Quantity
		}
		routes = append(routes, r)
	}

	sort.SliceStable(routes, func(i, j int) bool {
		return routes[i].TotalItems > routes[j].TotalItems
	})
	return routes
}

// orderByAisle groups items by their raw aisle label so identically
// labeled items stay adjacent, sorts the groups by the label's first
// number, and flattens. Item order inside a group is input order.
func orderByAisle(items []ShoppingItem) []ShoppingItem {
	type aisleGroup struct {
		key   int
		items []ShoppingItem
	}

	var groups []*aisleGroup
	index := make(map[string]*aisleGroup)
	for _, it := range items {
		g, ok := index[it.Aisle]
		if !ok {
			g = &aisleGroup{key: aisleKey(it.Aisle)}
			index[it.Aisle] = g
			groups = append(groups, g)
		}
		g.items = append(g.items, it)
	}

	sort.SliceStable(groups, func(i, j int) bool {
		return groups[i].key < groups[j].key
	})

	path := make([]ShoppingItem, 0, len(items))
	for _, g := range groups {
		path = append(path, g.items...)
	}
	return path
}

func aisleKey(aisle string) int {
	if strings.TrimSpace(aisle) == "" {
		return aisleMissing
	}
	if n, ok := extract.FirstNumber(aisle); ok {
		return n
	}
	return aisleUnparsed
}

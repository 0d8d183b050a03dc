// Package resolve drives the per-chain adapters to turn a barcode, and
// optionally a location, into one merged ProductInfo.
package resolve

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/shelfscout/shelfscout/internal/utils"
	"github.com/shelfscout/shelfscout/pkg/chains"
	"github.com/shelfscout/shelfscout/pkg/retail"
)

// maxAlternatives bounds how many further stores get queried when the
// nearest one is out of stock.
const maxAlternatives = 3

type Resolver struct {
	// Retailers in fixed priority order. The first chain that knows the
	// barcode supplies product identity.
	Retailers []chains.Retailer
}

func New(retailers ...chains.Retailer) *Resolver {
	return &Resolver{Retailers: retailers}
}

// Resolve returns the merged product result, or nil when no configured
// chain recognizes the barcode. Every adapter call is fault-isolated; a
// broken chain only shrinks the result, it never aborts it.
func (r *Resolver) Resolve(ctx context.Context, barcode, locationQuery string) *retail.ProductInfo {
	meta, chain := r.lookupIdentity(ctx, barcode)
	if meta == nil {
		utils.Log.Debug("no chain recognized barcode ", barcode)
		return nil
	}

	info := &retail.ProductInfo{
		Name:    meta.Name,
		Image:   meta.Image,
		Brand:   meta.Brand,
		Barcode: barcode,
		Inventory: retail.StoreInventory{
			StoreID:     "unknown",
			Chain:       chain,
			InStock:     false,
			Aisle:       retail.AislePlaceholder,
			LastUpdated: time.Now(),
		},
	}

	if locationQuery == "" {
		return info
	}

	candidates := r.findCandidates(ctx, locationQuery)
	utils.Log.Debug(len(candidates), " candidate stores near ", locationQuery)
	if len(candidates) == 0 {
		return info
	}

	nearest := candidates[0]
	if rt := r.retailerFor(nearest.Chain); rt != nil {
		if inv := rt.GetInventory(ctx, nearest.StoreID, barcode); inv != nil {
			info.Inventory = *inv
		}
	}

	if !info.Inventory.InStock {
		// Strictly sequential on purpose: one outstanding request per
		// retailer endpoint at a time, and a deterministic ordering of
		// the alternatives.
		end := 1 + maxAlternatives
		if end > len(candidates) {
			end = len(candidates)
		}
		for _, cand := range candidates[1:end] {
			if cand.StoreID == info.Inventory.StoreID && cand.Chain == info.Inventory.Chain {
				continue
			}
			rt := r.retailerFor(cand.Chain)
			if rt == nil {
				continue
			}
			inv := rt.GetInventory(ctx, cand.StoreID, barcode)
			if inv != nil && inv.InStock {
				info.AlternativeStores = append(info.AlternativeStores, *inv)
			}
		}
	}

	return info
}

// lookupIdentity asks every chain for product metadata concurrently, then
// picks the winner in configured priority order so the outcome doesn't
// depend on which chain answered first.
func (r *Resolver) lookupIdentity(ctx context.Context, barcode string) (*retail.ProductMeta, retail.Chain) {
	results := make([]*retail.ProductMeta, len(r.Retailers))
	wg := new(sync.WaitGroup)
	for i, rt := range r.Retailers {
		wg.Add(1)
		go func(i int, rt chains.Retailer) {
			defer wg.Done()
			results[i] = rt.GetProductMeta(ctx, barcode)
		}(i, rt)
	}
	wg.Wait()

	for i, meta := range results {
		if meta != nil {
			return meta, r.Retailers[i].Name()
		}
	}
	return nil, ""
}

// findCandidates fans out the store search across all chains, waits for
// every finder, and returns one nearest-first merged list. Stores with an
// unknown distance sort last; ties keep their merge order.
func (r *Resolver) findCandidates(ctx context.Context, locationQuery string) []retail.StoreLocation {
	perChain := make([][]retail.StoreLocation, len(r.Retailers))
	wg := new(sync.WaitGroup)
	for i, rt := range r.Retailers {
		wg.Add(1)
		go func(i int, rt chains.Retailer) {
			defer wg.Done()
			perChain[i] = rt.FindStores(ctx, locationQuery)
		}(i, rt)
	}
	wg.Wait()

	var all []retail.StoreLocation
	for _, stores := range perChain {
		all = append(all, stores...)
	}

	sort.SliceStable(all, func(i, j int) bool {
		di, dj := all[i].Distance, all[j].Distance
		if di == nil {
			return false
		}
		if dj == nil {
			return true
		}
		return *di < *dj
	})
	return all
}

func (r *Resolver) retailerFor(chain retail.Chain) chains.Retailer {
	for _, rt := range r.Retailers {
		if rt.Name() == chain {
			return rt
		}
	}
	return nil
}

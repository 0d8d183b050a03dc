package resolve

import (
	"context"
	"fmt"
	"testing"

	"github.com/shelfscout/shelfscout/pkg/retail"
)

func fptr(f float64) *float64 { return &f }

type fakeRetailer struct {
	chain     retail.Chain
	meta      *retail.ProductMeta
	stores    []retail.StoreLocation
	inventory map[string]*retail.StoreInventory

	invCalls []string
}

func (f *fakeRetailer) Name() retail.Chain { return f.chain }

func (f *fakeRetailer) FindStores(ctx context.Context, locationQuery string) []retail.StoreLocation {
	return f.stores
}

func (f *fakeRetailer) GetInventory(ctx context.Context, storeID, barcode string) *retail.StoreInventory {
	f.invCalls = append(f.invCalls, storeID)
	return f.inventory[storeID]
}

func (f *fakeRetailer) GetProductMeta(ctx context.Context, barcode string) *retail.ProductMeta {
	return f.meta
}

func store(chain retail.Chain, id string, distance *float64) retail.StoreLocation {
	return retail.StoreLocation{StoreID: id, Name: "store " + id, Address: "somewhere", Distance: distance, Chain: chain}
}

func TestResolveUnknownBarcode(t *testing.T) {
	r := New(&fakeRetailer{chain: retail.ChainWalmart}, &fakeRetailer{chain: retail.ChainTarget})
	if got := r.Resolve(context.Background(), "000000000000", "90210"); got != nil {
		t.Fatalf("expected nil for unknown barcode, got %#v", got)
	}
}

func TestResolveIdentityPriorityOrder(t *testing.T) {
	first := &fakeRetailer{chain: retail.ChainWalmart, meta: &retail.ProductMeta{Name: "From Walmart"}}
	second := &fakeRetailer{chain: retail.ChainTarget, meta: &retail.ProductMeta{Name: "From Target"}}

	info := New(first, second).Resolve(context.Background(), "012345", "")
	if info == nil {
		t.Fatal("expected a result")
	}
	if info.Name != "From Walmart" {
		t.Fatalf("expected first-priority chain to win, got %q", info.Name)
	}
}

func TestResolveIdentityOnly(t *testing.T) {
	rt := &fakeRetailer{chain: retail.ChainTarget, meta: &retail.ProductMeta{Name: "Widget", Brand: "Acme"}}

	info := New(rt).Resolve(context.Background(), "012345", "")
	if info == nil {
		t.Fatal("expected a result")
	}
	if info.Inventory.StoreID != "unknown" || info.Inventory.InStock {
		t.Fatalf("expected placeholder inventory, got %#v", info.Inventory)
	}
	if info.Inventory.Chain != retail.ChainTarget {
		t.Fatalf("placeholder should carry the identity chain, got %s", info.Inventory.Chain)
	}
	if len(rt.invCalls) != 0 {
		t.Fatalf("no inventory lookups expected without a location, got %v", rt.invCalls)
	}
}

func TestResolveQueriesNearestStoreFirst(t *testing.T) {
	near := &fakeRetailer{
		chain:  retail.ChainWalmart,
		meta:   &retail.ProductMeta{Name: "Widget"},
		stores: []retail.StoreLocation{store(retail.ChainWalmart, "w2", fptr(2.0)), store(retail.ChainWalmart, "w1", fptr(0.4))},
		inventory: map[string]*retail.StoreInventory{
			"w1": {StoreID: "w1", Chain: retail.ChainWalmart, InStock: true},
		},
	}
	far := &fakeRetailer{
		chain:  retail.ChainTarget,
		stores: []retail.StoreLocation{store(retail.ChainTarget, "t1", nil)},
	}

	info := New(near, far).Resolve(context.Background(), "012345", "78701")
	if info == nil {
		t.Fatal("expected a result")
	}
	if len(near.invCalls) == 0 || near.invCalls[0] != "w1" {
		t.Fatalf("expected nearest store w1 queried first, got %v", near.invCalls)
	}
	if !info.Inventory.InStock || info.Inventory.StoreID != "w1" {
		t.Fatalf("expected w1 primary inventory, got %#v", info.Inventory)
	}
	if len(info.AlternativeStores) != 0 {
		t.Fatalf("no alternatives expected when primary is in stock, got %d", len(info.AlternativeStores))
	}
}

func TestResolveScenarioAlternatives(t *testing.T) {
	// Barcode known only by the second-priority chain; nearest store is
	// out of stock, the next two have it at 4.99 and 5.49.
	chainA := &fakeRetailer{chain: retail.ChainWalmart}
	chainB := &fakeRetailer{
		chain: retail.ChainTarget,
		meta:  &retail.ProductMeta{Name: "Widget"},
		stores: []retail.StoreLocation{
			store(retail.ChainTarget, "s1", fptr(0.5)),
			store(retail.ChainTarget, "s2", fptr(1.2)),
			store(retail.ChainTarget, "s3", fptr(3.0)),
		},
		inventory: map[string]*retail.StoreInventory{
			"s1": {StoreID: "s1", Chain: retail.ChainTarget, InStock: false},
			"s2": {StoreID: "s2", Chain: retail.ChainTarget, InStock: true, Price: fptr(4.99)},
			"s3": {StoreID: "s3", Chain: retail.ChainTarget, InStock: true, Price: fptr(5.49)},
		},
	}

	info := New(chainA, chainB).Resolve(context.Background(), "012345", "90210")
	if info == nil {
		t.Fatal("expected a result")
	}
	if info.Name != "Widget" {
		t.Fatalf("expected Widget, got %q", info.Name)
	}
	if info.Inventory.InStock {
		t.Fatal("primary inventory should be out of stock")
	}
	if len(info.AlternativeStores) != 2 {
		t.Fatalf("expected 2 alternatives, got %d", len(info.AlternativeStores))
	}
	if *info.AlternativeStores[0].Price != 4.99 || *info.AlternativeStores[1].Price != 5.49 {
		t.Fatalf("alternatives out of order: %#v", info.AlternativeStores)
	}
}

func TestResolveAlternativesCappedAtThree(t *testing.T) {
	inventory := map[string]*retail.StoreInventory{
		"s1": {StoreID: "s1", Chain: retail.ChainHEB, InStock: false},
	}
	stores := []retail.StoreLocation{store(retail.ChainHEB, "s1", fptr(0.1))}
	for i := 2; i <= 6; i++ {
		id := fmt.Sprintf("s%d", i)
		d := float64(i)
		stores = append(stores, store(retail.ChainHEB, id, &d))
		inventory[id] = &retail.StoreInventory{StoreID: id, Chain: retail.ChainHEB, InStock: true}
	}
	rt := &fakeRetailer{chain: retail.ChainHEB, meta: &retail.ProductMeta{Name: "Widget"}, stores: stores, inventory: inventory}

	info := New(rt).Resolve(context.Background(), "012345", "77001")
	if info == nil {
		t.Fatal("expected a result")
	}
	if len(info.AlternativeStores) != 3 {
		t.Fatalf("expected alternatives capped at 3, got %d", len(info.AlternativeStores))
	}
	// Primary + 3 alternative lookups, nothing more.
	if len(rt.invCalls) != 4 {
		t.Fatalf("expected 4 inventory lookups, got %d: %v", len(rt.invCalls), rt.invCalls)
	}
	for _, alt := range info.AlternativeStores {
		if !alt.InStock {
			t.Fatalf("alternative not in stock: %#v", alt)
		}
		if alt.StoreID == info.Inventory.StoreID {
			t.Fatalf("alternative shares primary store id %s", alt.StoreID)
		}
	}
}

func TestResolveUnknownDistanceSortsLast(t *testing.T) {
	rt := &fakeRetailer{
		chain: retail.ChainWalmart,
		meta:  &retail.ProductMeta{Name: "Widget"},
		stores: []retail.StoreLocation{
			store(retail.ChainWalmart, "mystery", nil),
			store(retail.ChainWalmart, "close", fptr(1.0)),
		},
		inventory: map[string]*retail.StoreInventory{
			"close": {StoreID: "close", Chain: retail.ChainWalmart, InStock: true},
		},
	}

	info := New(rt).Resolve(context.Background(), "012345", "10001")
	if info == nil {
		t.Fatal("expected a result")
	}
	if rt.invCalls[0] != "close" {
		t.Fatalf("store with known distance should be queried first, got %v", rt.invCalls)
	}
}

func TestResolveSurvivesBrokenChain(t *testing.T) {
	// A chain that knows nothing and finds nothing must not affect the
	// result from a healthy chain.
	broken := &fakeRetailer{chain: retail.ChainWalmart}
	healthy := &fakeRetailer{
		chain:  retail.ChainHEB,
		meta:   &retail.ProductMeta{Name: "Widget"},
		stores: []retail.StoreLocation{store(retail.ChainHEB, "h1", fptr(0.9))},
		inventory: map[string]*retail.StoreInventory{
			"h1": {StoreID: "h1", Chain: retail.ChainHEB, InStock: true},
		},
	}

	info := New(broken, healthy).Resolve(context.Background(), "012345", "78704")
	if info == nil {
		t.Fatal("expected a result despite the broken chain")
	}
	if info.Inventory.StoreID != "h1" {
		t.Fatalf("expected healthy chain's inventory, got %#v", info.Inventory)
	}
}

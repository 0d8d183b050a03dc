// Package walmart scrapes walmart.com. Walmart renders everything from a
// JSON blob embedded in a script tag, so this adapter is mostly gjson
// paths rather than CSS selectors.
package walmart

import (
	"context"
	"fmt"
	"net/url"
	"time"

	"github.com/shelfscout/shelfscout/internal/utils"
	"github.com/shelfscout/shelfscout/pkg/chains"
	"github.com/shelfscout/shelfscout/pkg/extract"
	"github.com/shelfscout/shelfscout/pkg/retail"
	"github.com/shelfscout/shelfscout/pkg/whttp"
	"github.com/tidwall/gjson"
)

const (
	defaultBaseURL = "https://www.walmart.com"
	inStockPhrase  = "in stock"

	// gjson paths into the embedded __NEXT_DATA__ blob
	storesPath = "props.pageProps.initialData.searchResult.stores"
	itemPath   = "props.pageProps.initialData.searchResult.itemStacks.0.items.0"
)

type Client struct {
	HTTP *whttp.Client

	// BaseURL is overridable so tests can point at a local server.
	BaseURL string
}

func New(h *whttp.Client) *Client {
	return &Client{HTTP: h, BaseURL: defaultBaseURL}
}

func (c *Client) Name() retail.Chain { return retail.ChainWalmart }

func (c *Client) FindStores(ctx context.Context, locationQuery string) []retail.StoreLocation {
	pageURL := c.BaseURL + "/store-finder?location=" + url.QueryEscape(locationQuery)
	data, ok := c.fetchNextData(ctx, pageURL)
	if !ok {
		return nil
	}

	var stores []retail.StoreLocation
	gjson.Get(data, storesPath).ForEach(func(_, value gjson.Result) bool {
		id := value.Get("id").String()
		if id == "" {
			return true
		}
		loc := retail.StoreLocation{
			StoreID: id,
			Name:    value.Get("displayName").String(),
			Address: value.Get("address.address").String(),
			Chain:   retail.ChainWalmart,
		}
		if d, ok := extract.Distance(value.Get("distance").String()); ok {
			loc.Distance = &d
		}
		stores = append(stores, loc)
		return true
	})
	return stores
}

func (c *Client) GetInventory(ctx context.Context, storeID, barcode string) *retail.StoreInventory {
	pageURL := fmt.Sprintf("%s/search?q=%s&stores=%s", c.BaseURL, url.QueryEscape(barcode), url.QueryEscape(storeID))
	data, ok := c.fetchNextData(ctx, pageURL)
	if !ok {
		return nil
	}

	item := gjson.Get(data, itemPath)
	if !item.Exists() {
		utils.Log.Debug("walmart: no item node for barcode ", barcode, " at store ", storeID)
		return nil
	}

	inv := &retail.StoreInventory{
		StoreID:     storeID,
		Chain:       retail.ChainWalmart,
		InStock:     chains.MatchesStockPhrase(item.Get("availabilityStatusDisplayValue").String(), inStockPhrase),
		Aisle:       retail.AislePlaceholder,
		LastUpdated: time.Now(),
	}
	if aisle := item.Get("productLocation.0.displayValue").String(); aisle != "" {
		inv.Aisle = aisle
	}
	if p, ok := extract.Price(item.Get("priceInfo.linePrice").String()); ok {
		inv.Price = &p
	}
	return inv
}

func (c *Client) GetProductMeta(ctx context.Context, barcode string) *retail.ProductMeta {
	pageURL := c.BaseURL + "/search?q=" + url.QueryEscape(barcode)
	data, ok := c.fetchNextData(ctx, pageURL)
	if !ok {
		return nil
	}

	item := gjson.Get(data, itemPath)
	name := extract.CleanName(item.Get("name").String())
	if name == "" {
		return nil
	}
	return &retail.ProductMeta{
		Name:  name,
		Image: item.Get("image").String(),
		Brand: item.Get("brand").String(),
	}
}

// fetchNextData GETs a page and pulls out the __NEXT_DATA__ JSON. False on
// any retrieval or parse failure; the caller absorbs it.
func (c *Client) fetchNextData(ctx context.Context, pageURL string) (string, bool) {
	res, err := c.HTTP.Fetch(ctx, pageURL, []whttp.Header{
		{Name: "Accept", Value: "text/html"},
	})
	if err != nil {
		title := ""
		if res != nil {
			title = whttp.Title(res.BodyString)
		}
		utils.Log.Debug("walmart: fetch failed: ", err, " page title: ", title)
		return "", false
	}

	doc := extract.Doc(res.BodyString)
	if doc == nil {
		return "", false
	}
	data := doc.Find("script#__NEXT_DATA__").First().Text()
	if data == "" {
		utils.Log.Debug("walmart: __NEXT_DATA__ blob missing at ", pageURL)
		return "", false
	}
	return data, true
}

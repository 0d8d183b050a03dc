// Package target scrapes target.com product and store-locator pages with
// a declarative selector table.
package target

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/shelfscout/shelfscout/internal/utils"
	"github.com/shelfscout/shelfscout/pkg/chains"
	"github.com/shelfscout/shelfscout/pkg/extract"
	"github.com/shelfscout/shelfscout/pkg/retail"
	"github.com/shelfscout/shelfscout/pkg/whttp"
)

const (
	defaultBaseURL = "https://www.target.com"
	inStockPhrase  = "in stock"
)

// productSpec maps semantic fields to where target.com keeps them.
var productSpec = extract.Spec{
	"name":  {Selector: "h1[data-test='product-title']"},
	"image": {Selector: "img[data-test='product-image']", Attr: "src"},
	"brand": {Selector: "a[data-test='product-brand']"},
	"price": {Selector: "span[data-test='product-price']"},
	"stock": {Selector: "div[data-test='fulfillment-cell']"},
	"aisle": {Selector: "span[data-test='store-location']"},
}

type Client struct {
	HTTP    *whttp.Client
	BaseURL string
}

func New(h *whttp.Client) *Client {
	return &Client{HTTP: h, BaseURL: defaultBaseURL}
}

func (c *Client) Name() retail.Chain { return retail.ChainTarget }

func (c *Client) FindStores(ctx context.Context, locationQuery string) []retail.StoreLocation {
	pageURL := c.BaseURL + "/store-locator/find-stores/" + url.PathEscape(locationQuery)
	doc, ok := c.fetchDoc(ctx, pageURL)
	if !ok {
		return nil
	}

	var stores []retail.StoreLocation
	doc.Find("li[data-test='store-card']").Each(func(_ int, card *goquery.Selection) {
		id, _ := card.Attr("data-store-id")
		if id == "" {
			return
		}
		loc := retail.StoreLocation{
			StoreID: id,
			Name:    utils.CollapseWhitespace(card.Find("span[data-test='store-name']").Text()),
			Address: utils.CollapseWhitespace(card.Find("span[data-test='store-address']").Text()),
			Chain:   retail.ChainTarget,
		}
		if d, ok := extract.Distance(card.Find("span[data-test='store-distance']").Text()); ok {
			loc.Distance = &d
		}
		stores = append(stores, loc)
	})
	return stores
}

func (c *Client) GetInventory(ctx context.Context, storeID, barcode string) *retail.StoreInventory {
	pageURL := fmt.Sprintf("%s/s?searchTerm=%s&storeId=%s", c.BaseURL, url.QueryEscape(barcode), url.QueryEscape(storeID))
	doc, ok := c.fetchDoc(ctx, pageURL)
	if !ok {
		return nil
	}

	fields := extract.Fields(doc, productSpec)
	if fields["stock"] == "" && fields["name"] == "" {
		utils.Log.Debug("target: no product markup for barcode ", barcode, " at store ", storeID)
		return nil
	}

	inv := &retail.StoreInventory{
		StoreID:     storeID,
		Chain:       retail.ChainTarget,
		InStock:     chains.MatchesStockPhrase(fields["stock"], inStockPhrase),
		Aisle:       retail.AislePlaceholder,
		LastUpdated: time.Now(),
	}
	if fields["aisle"] != "" {
		inv.Aisle = fields["aisle"]
	}
	if p, ok := extract.Price(fields["price"]); ok {
		inv.Price = &p
	}
	return inv
}

func (c *Client) GetProductMeta(ctx context.Context, barcode string) *retail.ProductMeta {
	pageURL := c.BaseURL + "/s?searchTerm=" + url.QueryEscape(barcode)
	doc, ok := c.fetchDoc(ctx, pageURL)
	if !ok {
		return nil
	}

	fields := extract.Fields(doc, productSpec)
	name := extract.CleanName(fields["name"])
	if name == "" {
		return nil
	}

	image := fields["image"]
	if strings.HasPrefix(image, "//") {
		image = "https:" + image
	}
	return &retail.ProductMeta{
		Name:  name,
		Image: image,
		Brand: fields["brand"],
	}
}

func (c *Client) fetchDoc(ctx context.Context, pageURL string) (*goquery.Document, bool) {
	res, err := c.HTTP.Fetch(ctx, pageURL, []whttp.Header{
		{Name: "Accept", Value: "text/html"},
	})
	if err != nil {
		title := ""
		if res != nil {
			title = whttp.Title(res.BodyString)
		}
		utils.Log.Debug("target: fetch failed: ", err, " page title: ", title)
		return nil, false
	}
	doc := extract.Doc(res.BodyString)
	if doc == nil {
		return nil, false
	}
	return doc, true
}

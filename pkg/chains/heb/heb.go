// Package heb scrapes heb.com. Structurally the same adapter as target,
// with H-E-B's own URL templates and selector spec. H-E-B is also the only
// chain that surfaces a shelf quantity ("Only N left").
package heb

import (
	"context"
	"fmt"
	"net/url"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/shelfscout/shelfscout/internal/utils"
	"github.com/shelfscout/shelfscout/pkg/chains"
	"github.com/shelfscout/shelfscout/pkg/extract"
	"github.com/shelfscout/shelfscout/pkg/retail"
	"github.com/shelfscout/shelfscout/pkg/whttp"
)

const (
	defaultBaseURL = "https://www.heb.com"
	inStockPhrase  = "in stock"
)

var productSpec = extract.Spec{
	"name":     {Selector: "h1.product-page-title"},
	"image":    {Selector: "img.product-page-image", Attr: "src"},
	"brand":    {Selector: "span[itemprop='brand']"},
	"price":    {Selector: "meta[itemprop='price']", Attr: "content"},
	"stock":    {Selector: "div.product-availability"},
	"aisle":    {Selector: "span.store-aisle-location"},
	"quantity": {Selector: "span.product-quantity-remaining"},
}

type Client struct {
	HTTP    *whttp.Client
	BaseURL string
}

func New(h *whttp.Client) *Client {
	return &Client{HTTP: h, BaseURL: defaultBaseURL}
}

func (c *Client) Name() retail.Chain { return retail.ChainHEB }

func (c *Client) FindStores(ctx context.Context, locationQuery string) []retail.StoreLocation {
	pageURL := c.BaseURL + "/store-locations?address=" + url.QueryEscape(locationQuery)
	doc, ok := c.fetchDoc(ctx, pageURL)
	if !ok {
		return nil
	}

	var stores []retail.StoreLocation
	doc.Find("div.store-result").Each(func(_ int, card *goquery.Selection) {
		id, _ := card.Attr("data-store-id")
		if id == "" {
			return
		}
		loc := retail.StoreLocation{
			StoreID: id,
			Name:    utils.CollapseWhitespace(card.Find(".store-name").Text()),
			Address: utils.CollapseWhitespace(card.Find(".store-address").Text()),
			Chain:   retail.ChainHEB,
		}
		if d, ok := extract.Distance(card.Find(".store-distance").Text()); ok {
			loc.Distance = &d
		}
		stores = append(stores, loc)
	})
	return stores
}

func (c *Client) GetInventory(ctx context.Context, storeID, barcode string) *retail.StoreInventory {
	pageURL := fmt.Sprintf("%s/search/?q=%s&store=%s", c.BaseURL, url.QueryEscape(barcode), url.QueryEscape(storeID))
	doc, ok := c.fetchDoc(ctx, pageURL)
	if !ok {
		return nil
	}

	fields := extract.Fields(doc, productSpec)
	if fields["stock"] == "" && fields["name"] == "" {
		utils.Log.Debug("heb: no product markup for barcode ", barcode, " at store ", storeID)
		return nil
	}

	inv := &retail.StoreInventory{
		StoreID:     storeID,
		Chain:       retail.ChainHEB,
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
	if q, ok := extract.FirstNumber(fields["quantity"]); ok {
		inv.Quantity = &q
	}
	return inv
}

func (c *Client) GetProductMeta(ctx context.Context, barcode string) *retail.ProductMeta {
	pageURL := c.BaseURL + "/search/?q=" + url.QueryEscape(barcode)
	doc, ok := c.fetchDoc(ctx, pageURL)
	if !ok {
		return nil
	}

	fields := extract.Fields(doc, productSpec)
	name := extract.CleanName(fields["name"])
	if name == "" {
		return nil
	}
	return &retail.ProductMeta{
		Name:  name,
		Image: fields["image"],
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
		utils.Log.Debug("heb: fetch failed: ", err, " page title: ", title)
		return nil, false
	}
	doc := extract.Doc(res.BodyString)
	if doc == nil {
		return nil, false
	}
	return doc, true
}

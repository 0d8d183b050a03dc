package extract

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
	strip "github.com/grokify/html-strip-tags-go"
	"github.com/shelfscout/shelfscout/internal/utils"
)

// Rule tells the shared extraction routine where a semantic field lives
// inside a retailer document. Attr empty means "take the node text".
type Rule struct {
	Selector string
	Attr     string
}

// Spec maps semantic field names to extraction rules. Each chain carries
// its own table; none of them share selectors.
type Spec map[string]Rule

// Doc parses an HTML body. A nil document is returned only when the body
// is so broken goquery refuses it, which callers treat like any other
// extraction miss.
func Doc(body string) *goquery.Document {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(body))
	if err != nil {
		utils.Log.Debug("failed to parse document: ", err)
		return nil
	}
	return doc
}

// Field applies one rule to a document. A missing node or attribute is an
// empty string, never a failure.
func Field(doc *goquery.Document, rule Rule) string {
	if doc == nil || rule.Selector == "" {
		return ""
	}
	sel := doc.Find(rule.Selector).First()
	if sel.Length() == 0 {
		return ""
	}
	if rule.Attr != "" {
		val, _ := sel.Attr(rule.Attr)
		return strings.TrimSpace(val)
	}
	return utils.CollapseWhitespace(sel.Text())
}

// Fields runs every rule in a spec and returns the populated fields.
func Fields(doc *goquery.Document, spec Spec) map[string]string {
	out := make(map[string]string, len(spec))
	for name, rule := range spec {
		out[name] = Field(doc, rule)
	}
	return out
}

// CleanName strips markup fragments that leak into product titles.
func CleanName(s string) string {
	return utils.CollapseWhitespace(strip.StripTags(s))
}

var (
	digitsRe = regexp.MustCompile(`[0-9]+`)
	floatRe  = regexp.MustCompile(`[0-9]+(\.[0-9]+)?`)
)

// Price parses a price string permissively: currency symbols, thousands
// separators and surrounding text are stripped. Returns false when no
// number survives.
func Price(s string) (float64, bool) {
	return leadingFloat(s)
}

// Distance parses a distance string like "2.7 mi" or "0.5 miles".
func Distance(s string) (float64, bool) {
	return leadingFloat(s)
}

// FirstNumber returns the first run of digits in s as an int. Used as the
// aisle sort key: "Aisle 12B" -> 12.
func FirstNumber(s string) (int, bool) {
	m := digitsRe.FindString(s)
	if m == "" {
		return 0, false
	}
	n, err := strconv.Atoi(m)
	if err != nil {
		return 0, false
	}
	return n, true
}

func leadingFloat(s string) (float64, bool) {
	m := floatRe.FindString(strings.ReplaceAll(s, ",", ""))
	if m == "" {
		return 0, false
	}
	f, err := strconv.ParseFloat(m, 64)
	if err != nil {
		return 0, false
	}
	return f, true
}

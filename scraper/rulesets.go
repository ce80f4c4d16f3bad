package scraper

import (
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/SaimonDevStore/SJOFERTAS/models"
	"github.com/SaimonDevStore/SJOFERTAS/parser"
)

// textSource reads one candidate value from a page.
type textSource func(doc *goquery.Document) string

// ruleset holds the extraction rules for one storefront.
type ruleset struct {
	platform models.Platform
	names    []textSource
	image    textSource
	price    parser.PriceRule
}

func newRulesets(usdToBRL float64) map[models.Platform]ruleset {
	names := []textSource{metaProperty("og:title"), titleText}
	return map[models.Platform]ruleset{
		models.PlatformAliExpress: {
			platform: models.PlatformAliExpress,
			names:    names,
			image:    metaProperty("og:image"),
			price: parser.PriceRule{
				Patterns: parser.AliExpressPricePatterns(),
				Locale:   parser.LocaleUS,
				Rate:     usdToBRL,
			},
		},
		models.PlatformShopee: {
			platform: models.PlatformShopee,
			names:    names,
			image:    metaProperty("og:image"),
			price: parser.PriceRule{
				Patterns: parser.ShopeePricePatterns(),
				Locale:   parser.LocaleBR,
			},
		},
	}
}

// apply builds a record from doc. The second result names the price pattern
// that matched, empty when the placeholder is used.
func (rs ruleset) apply(doc *goquery.Document, pageURL string) (models.ProductRecord, string) {
	record := models.ProductRecord{
		Name:        firstNonEmpty(doc, rs.names, parser.CleanTitle),
		Price:       models.PricePlaceholder,
		OriginalURL: pageURL,
		Delivery:    rs.platform.Delivery(),
		Available:   true,
		Platform:    rs.platform,
	}
	if record.Name == "" {
		record.Name = rs.platform.GenericName()
	}
	if rs.image != nil {
		record.ImageURL = absoluteURL(pageURL, rs.image(doc))
	}

	price, pattern, ok := rs.price.FindPrice(visibleText(doc))
	if ok {
		record.Price = price
	}
	return record, pattern
}

// firstNonEmpty tries each source in order and returns the first value that is
// still non-empty after clean.
func firstNonEmpty(doc *goquery.Document, sources []textSource, clean func(string) string) string {
	for _, source := range sources {
		value := strings.TrimSpace(source(doc))
		if value == "" {
			continue
		}
		if clean != nil {
			value = clean(value)
		}
		if value != "" {
			return value
		}
	}
	return ""
}

// hiddenSelectors lists elements whose text never reaches the reader.
const hiddenSelectors = "script, style, noscript, template"

// visibleText returns the page text without script and style contents. The
// document is cloned so later lookups still see the full tree.
func visibleText(doc *goquery.Document) string {
	page := doc.Selection.Clone()
	page.Find(hiddenSelectors).Remove()
	return page.Text()
}

func metaProperty(property string) textSource {
	selector := `meta[property="` + property + `"]`
	return func(doc *goquery.Document) string {
		return doc.Find(selector).First().AttrOr("content", "")
	}
}

func titleText(doc *goquery.Document) string {
	return doc.Find("title").First().Text()
}

func absoluteURL(base, ref string) string {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return ""
	}
	refURL, err := url.Parse(ref)
	if err != nil {
		return ""
	}
	if refURL.IsAbs() {
		return refURL.String()
	}
	baseURL, err := url.Parse(base)
	if err != nil || !baseURL.IsAbs() {
		return ""
	}
	return baseURL.ResolveReference(refURL).String()
}

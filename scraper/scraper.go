package scraper

import (
	"bytes"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/SaimonDevStore/SJOFERTAS/config"
	"github.com/SaimonDevStore/SJOFERTAS/models"
	"github.com/SaimonDevStore/SJOFERTAS/parser"
	"github.com/gocolly/colly/v2"
)

// Extractor turns a product link into a ProductRecord. It is safe for
// concurrent use: every call works on its own clone of the base collector.
type Extractor struct {
	cfg       *config.Config
	collector *colly.Collector
	rulesets  map[models.Platform]ruleset
	Metrics   *Metrics
}

// NewExtractor builds an extractor configured from cfg.
func NewExtractor(cfg *config.Config) (*Extractor, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is nil")
	}
	if cfg.FetchTimeout <= 0 {
		return nil, fmt.Errorf("fetch timeout must be positive")
	}

	collector := colly.NewCollector(
		colly.UserAgent(cfg.UserAgent),
		colly.AllowURLRevisit(),
	)
	collector.SetRequestTimeout(cfg.FetchTimeout)
	collector.WithTransport(&http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   cfg.FetchTimeout,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		MaxIdleConns:        100,
		IdleConnTimeout:     90 * time.Second,
		TLSHandshakeTimeout: 10 * time.Second,
	})

	return &Extractor{
		cfg:       cfg,
		collector: collector,
		rulesets:  newRulesets(cfg.USDToBRLRate),
		Metrics:   NewMetrics(),
	}, nil
}

type page struct {
	finalURL string
	body     []byte
}

// Extract fetches rawURL and builds a record from the page. It never fails:
// fetch errors, unknown storefronts and broken pages all yield the fallback
// record.
func (e *Extractor) Extract(rawURL string) (record models.ProductRecord) {
	finalURL := rawURL
	defer func() {
		if r := recover(); r != nil {
			slog.Error("extract panic",
				slog.String("url", rawURL),
				slog.Any("panic", r),
			)
			e.Metrics.IncError("panic")
			record = fallbackRecord(rawURL, finalURL)
			e.Metrics.IncExtraction(record.Platform.String(), "fallback")
		}
	}()

	slog.Debug("extracting product", slog.String("url", rawURL))

	p, err := e.fetch(rawURL)
	if err != nil {
		category := errorTypeLabel(err)
		slog.Error("fetch failed",
			slog.String("url", rawURL),
			slog.String("category", category),
			slog.Any("error", err),
		)
		e.Metrics.IncError(category)
		record = fallbackRecord(rawURL, rawURL)
		e.Metrics.IncExtraction(record.Platform.String(), "fallback")
		return record
	}
	finalURL = p.finalURL

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(p.body))
	if err != nil {
		slog.Error("parse page", slog.String("url", finalURL), slog.Any("error", err))
		e.Metrics.IncError("parse")
		record = fallbackRecord(rawURL, finalURL)
		e.Metrics.IncExtraction(record.Platform.String(), "fallback")
		return record
	}

	platform := parser.Classify(finalURL)
	rs, ok := e.rulesets[platform]
	if !ok {
		slog.Info("unsupported storefront", slog.String("url", finalURL))
		record = fallbackRecord(rawURL, finalURL)
		e.Metrics.IncExtraction(record.Platform.String(), "unsupported")
		return record
	}

	record, pattern := e.runRuleset(rs, doc, rawURL, finalURL)
	if err := parser.ValidateRecord(&record); err != nil {
		slog.Error("invalid record", slog.String("url", finalURL), slog.Any("error", err))
		e.Metrics.IncError("invalid_record")
		record = fallbackRecord(rawURL, finalURL)
		e.Metrics.IncExtraction(record.Platform.String(), "fallback")
		return record
	}
	if pattern != "" {
		e.Metrics.IncPricePattern(platform.String(), pattern)
	}
	e.Metrics.IncExtraction(platform.String(), "extracted")

	slog.Debug("product extracted",
		slog.String("url", finalURL),
		slog.String("platform", platform.String()),
		slog.String("name", record.Name),
		slog.String("price", record.Price),
	)
	return record
}

func (e *Extractor) runRuleset(rs ruleset, doc *goquery.Document, rawURL, finalURL string) (record models.ProductRecord, pattern string) {
	defer func() {
		if r := recover(); r != nil {
			slog.Error("ruleset failed",
				slog.String("url", finalURL),
				slog.String("platform", rs.platform.String()),
				slog.Any("panic", r),
			)
			e.Metrics.IncError("extraction")
			record = fallbackRecord(rawURL, finalURL)
			pattern = ""
		}
	}()
	return rs.apply(doc, finalURL)
}

func (e *Extractor) fetch(rawURL string) (*page, error) {
	c := e.collector.Clone()

	var (
		result     page
		statusCode int
	)
	c.OnResponse(func(r *colly.Response) {
		statusCode = r.StatusCode
		result.finalURL = r.Request.URL.String()
		result.body = r.Body
	})
	c.OnError(func(r *colly.Response, err error) {
		if r != nil {
			statusCode = r.StatusCode
		}
	})

	start := time.Now()
	err := c.Request(http.MethodGet, rawURL, nil, nil, e.requestHeaders())
	e.Metrics.ObserveDuration(time.Since(start))

	if err != nil {
		return nil, classifyError(rawURL, err, statusCode)
	}
	if statusCode != http.StatusOK {
		return nil, classifyError(rawURL, nil, statusCode)
	}
	if result.finalURL == "" {
		result.finalURL = rawURL
	}
	return &result, nil
}

func (e *Extractor) requestHeaders() http.Header {
	h := http.Header{}
	h.Set("User-Agent", e.cfg.UserAgent)
	h.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,image/webp,*/*;q=0.8")
	h.Set("Accept-Language", e.cfg.AcceptLanguage)
	h.Set("Upgrade-Insecure-Requests", "1")
	return h
}

// fallbackRecord is the minimal record for a link nothing could be read
// from. The label follows the link the user sent, the URL follows the page
// that was actually reached.
func fallbackRecord(requestedURL, resolvedURL string) models.ProductRecord {
	platform := models.PlatformShopee
	if parser.Classify(requestedURL) == models.PlatformAliExpress {
		platform = models.PlatformAliExpress
	}
	if resolvedURL == "" {
		resolvedURL = requestedURL
	}
	return models.ProductRecord{
		Name:        platform.GenericName(),
		Price:       models.PricePlaceholder,
		OriginalURL: resolvedURL,
		Delivery:    platform.Delivery(),
		Available:   true,
		Platform:    platform,
	}
}

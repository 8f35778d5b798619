package scraper

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/PuerkitoBio/goquery"

	"mzohaib/bankdealworker/helpers"
	"mzohaib/bankdealworker/internal/deal"
	"mzohaib/bankdealworker/internal/extract"
	"mzohaib/bankdealworker/internal/normalize"
	"mzohaib/bankdealworker/logger"
	apperrors "mzohaib/bankdealworker/pkg/errors"
)

// widgetQueryPath is the widget backend's entity query endpoint. The path and
// the request field names are obfuscated on the wire; nothing outside this
// file sees them.
const widgetQueryPath = "/uljin2s3nitoi89njkhklgkj5"

var (
	widgetBootstrapRe = regexp.MustCompile(`window\.__pkbg__\s*=\s*(\{[\s\S]*\})`)

	// widgetHostRe spots embedded widget hosts inside generic bank pages so
	// the structured path can take over mid-scrape.
	widgetHostRe = regexp.MustCompile(`(?i)(?:https?:)?//([a-z0-9.-]*peekaboo\.guru)`)
)

// widgetConfig is the bootstrap configuration embedded in the widget's
// JavaScript bundle.
type widgetConfig struct {
	Domain      string
	OwnerKey    string
	Version     string
	BaseCountry string
	PageSize    int
}

// widgetQuery mirrors the widget backend's obfuscated request schema.
type widgetQuery struct {
	City       string `json:"fksyd"`
	Country    string `json:"n4ja3s"`
	Latitude   string `json:"js6nwf"`
	Longitude  string `json:"pan3ba"`
	Locale     string `json:"mstoaw"`
	Audience   string `json:"angaks"`
	Segment    string `json:"j87asn"`
	Mode       string `json:"makthya"`
	PageSize   string `json:"mnakls"`
	Offset     string `json:"opmsta"`
	SearchTerm string `json:"lkasx7"`
	Nearby     bool   `json:"ju8an3g"`
	Favorites  bool   `json:"sindfks"`
	Collection string `json:"kaiwnua"`
	Trending   bool   `json:"klaosw"`
}

type widgetEntity struct {
	Name         string          `json:"name"`
	MaxDiscount  json.RawMessage `json:"maxDiscount"`
	Logo         string          `json:"logo"`
	Cover        string          `json:"cover"`
	Description  string          `json:"description"`
	Keywords     string          `json:"keywords"`
	DiscountFlag string          `json:"discountFlag"`
}

type widgetResponse struct {
	Entities []widgetEntity `json:"entities"`
}

// maxDiscountValue tolerates both numeric and quoted-number payloads.
func (e widgetEntity) maxDiscountValue() float64 {
	raw := strings.Trim(strings.TrimSpace(string(e.MaxDiscount)), `"`)
	if raw == "" || raw == "null" {
		return 0
	}
	value, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0
	}
	return value
}

// WidgetClient scrapes banks that embed the third-party discount widget. It
// bootstraps the widget configuration from the bank's widget host, then pages
// through the entity query endpoint per city.
type WidgetClient struct {
	httpClient *http.Client
	pageSize   int
	maxPages   int
}

// NewWidgetClient creates a widget scrape client. pageSize is the per-page
// entity floor; maxPages caps pagination per city.
func NewWidgetClient(pageSize, maxPages int) *WidgetClient {
	return &WidgetClient{
		httpClient: &http.Client{Timeout: 30 * time.Second},
		pageSize:   pageSize,
		maxPages:   maxPages,
	}
}

// FetchDeals scrapes every known city through the widget API for one source.
// Returns nil with no error when the source has no widget host.
func (c *WidgetClient) FetchDeals(ctx context.Context, src deal.BankSource) ([]deal.ScrapedDeal, error) {
	if src.WidgetBase == "" {
		return nil, nil
	}
	log := logger.ForSource(src.Name)

	cfg, err := c.bootstrap(ctx, src.WidgetBase)
	if err != nil {
		return nil, err
	}
	log.Debug().
		Str("domain", cfg.Domain).
		Int("page_size", cfg.PageSize).
		Msg("Widget configuration resolved")

	var (
		wg    sync.WaitGroup
		mu    sync.Mutex
		deals []deal.ScrapedDeal
	)
	for _, city := range normalize.KnownCities {
		wg.Add(1)
		go func(city string) {
			defer wg.Done()
			cityDeals := c.scrapeCity(ctx, src, cfg, city)
			mu.Lock()
			deals = append(deals, cityDeals...)
			mu.Unlock()
		}(city)
	}
	wg.Wait()

	return deals, nil
}

// bootstrap fetches the widget landing page, then scans its script bundles
// for the embedded configuration object. widgetBase is a bare host in the
// source registry; a scheme-qualified value is accepted as-is.
func (c *WidgetClient) bootstrap(ctx context.Context, widgetBase string) (widgetConfig, error) {
	landingURL := widgetBase
	if !strings.HasPrefix(landingURL, "http") {
		landingURL = "https://" + landingURL
	}
	base, err := url.Parse(landingURL)
	if err != nil {
		return widgetConfig{}, apperrors.NewPayloadError(widgetBase, "invalid widget host", err)
	}

	page, err := helpers.FetchPage(ctx, landingURL)
	if err != nil {
		return widgetConfig{}, apperrors.NewNetworkError(widgetBase, "failed to fetch widget landing page", err)
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(page))
	if err != nil {
		return widgetConfig{}, apperrors.NewPayloadError(widgetBase, "failed to parse widget landing page", err)
	}

	var scriptURLs []string
	doc.Find("script[src]").Each(func(_ int, s *goquery.Selection) {
		src, ok := s.Attr("src")
		if !ok || src == "" {
			return
		}
		ref, err := url.Parse(src)
		if err != nil {
			return
		}
		scriptURLs = append(scriptURLs, base.ResolveReference(ref).String())
	})

	for _, scriptURL := range scriptURLs {
		body, _, err := helpers.FetchBytes(ctx, scriptURL)
		if err != nil {
			continue
		}
		m := widgetBootstrapRe.FindSubmatch(body)
		if m == nil {
			continue
		}
		cfg, err := parseWidgetConfig(m[1])
		if err != nil {
			continue
		}
		// The widget ships a small LIMIT tuned for its own UI; raise it to
		// the configured page floor so a city drains in far fewer requests.
		if cfg.PageSize < c.pageSize {
			cfg.PageSize = c.pageSize
		}
		return cfg, nil
	}

	return widgetConfig{}, apperrors.NewPayloadError(widgetBase, "widget bootstrap config not found in any script", nil)
}

func parseWidgetConfig(raw []byte) (widgetConfig, error) {
	var fields map[string]any
	if err := json.Unmarshal(raw, &fields); err != nil {
		return widgetConfig{}, err
	}

	cfg := widgetConfig{
		Domain:      stringField(fields, "DOMAIN"),
		OwnerKey:    stringField(fields, "OWNER_KEY"),
		Version:     stringField(fields, "VERSION"),
		BaseCountry: stringField(fields, "BASE_COUNTRY"),
	}
	switch limit := fields["LIMIT"].(type) {
	case float64:
		cfg.PageSize = int(limit)
	case string:
		cfg.PageSize, _ = strconv.Atoi(limit)
	}
	if cfg.PageSize <= 0 {
		cfg.PageSize = 12
	}

	if cfg.Domain == "" || cfg.OwnerKey == "" {
		return widgetConfig{}, fmt.Errorf("widget config missing DOMAIN or OWNER_KEY")
	}
	if !strings.HasPrefix(cfg.Domain, "http") {
		cfg.Domain = "https://" + cfg.Domain
	}
	cfg.Domain = strings.TrimSuffix(cfg.Domain, "/")
	if cfg.BaseCountry == "" {
		cfg.BaseCountry = "Pakistan"
	}
	return cfg, nil
}

func stringField(fields map[string]any, key string) string {
	value, _ := fields[key].(string)
	return value
}

// scrapeCity pages through one city's entities. Pagination stops on a short
// page or at the page cap; request failures end the city without failing the
// source.
func (c *WidgetClient) scrapeCity(ctx context.Context, src deal.BankSource, cfg widgetConfig, city string) []deal.ScrapedDeal {
	log := logger.ForSource(src.Name)
	var deals []deal.ScrapedDeal

	offset := 0
	for page := 0; page < c.maxPages; page++ {
		entities, err := c.queryPage(ctx, cfg, city, offset)
		if err != nil {
			log.Warn().Err(err).Str("city", city).Int("offset", offset).Msg("Widget page query failed")
			break
		}
		if len(entities) == 0 {
			break
		}

		for _, entity := range entities {
			if d, ok := entityToDeal(entity, src, city); ok {
				deals = append(deals, d)
			}
		}

		if len(entities) < cfg.PageSize {
			break
		}
		offset += cfg.PageSize
	}

	return deals
}

func (c *WidgetClient) queryPage(ctx context.Context, cfg widgetConfig, city string, offset int) ([]widgetEntity, error) {
	// The backend expects the city name exactly as the widget sends it.
	query := widgetQuery{
		City:       city,
		Country:    cfg.BaseCountry,
		Latitude:   "0",
		Longitude:  "0",
		Locale:     "en",
		Audience:   "All",
		Segment:    "_all",
		Mode:       "discount",
		PageSize:   strconv.Itoa(cfg.PageSize),
		Offset:     strconv.Itoa(offset),
		Collection: "_all",
	}
	body, err := json.Marshal(query)
	if err != nil {
		return nil, err
	}

	var parsed widgetResponse
	err = helpers.Retry(ctx, func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, cfg.Domain+widgetQueryPath, bytes.NewReader(body))
		if err != nil {
			return err
		}
		req.Header.Set("ownerkey", cfg.OwnerKey)
		req.Header.Set("medium", "IFRAME")
		req.Header.Set("version", cfg.Version)
		req.Header.Set("Content-Type", "application/json")

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return err
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			return fmt.Errorf("widget query returned status %d", resp.StatusCode)
		}
		return json.NewDecoder(resp.Body).Decode(&parsed)
	})
	if err != nil {
		return nil, err
	}

	return parsed.Entities, nil
}

// entityToDeal converts one widget entity into a scraped deal. Entities with
// no discount or an invalid merchant name are dropped.
func entityToDeal(entity widgetEntity, src deal.BankSource, city string) (deal.ScrapedDeal, bool) {
	percent := entity.maxDiscountValue()
	if percent <= 0 {
		return deal.ScrapedDeal{}, false
	}

	merchantName := extract.SanitizeMerchantName(entity.Name, src.Name)
	if !extract.IsValidMerchant(merchantName, src.Name) {
		return deal.ScrapedDeal{}, false
	}

	image := entity.Logo
	if image == "" {
		image = entity.Cover
	}

	metaText := strings.TrimSpace(entity.Keywords + " " + entity.Description + " " + entity.Name)
	cardType, tier := extract.ParseCardType(metaText)

	flag := strings.TrimSpace(entity.DiscountFlag)
	if flag == "" {
		flag = "Up to"
	}
	conditions := extract.Truncate(helpers.CleanText(
		fmt.Sprintf("%s %s%% off", flag, strconv.FormatFloat(percent, 'f', -1, 64)),
	), 300)

	return deal.ScrapedDeal{
		MerchantName:     merchantName,
		City:             normalize.City(city),
		Category:         extract.GuessCategory(metaText),
		MerchantImageURL: image,
		DiscountPercent:  percent,
		CardName:         extract.CardLabel(src.Name, tier, cardType),
		CardTier:         tier,
		CardType:         cardType,
		Conditions:       conditions,
	}, true
}

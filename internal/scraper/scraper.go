// Package scraper turns a bank source into scraped deals. Sources with a
// registered widget host go through the structured widget API; the rest are
// discovered via web search and mined from page and PDF text.
package scraper

import (
	"context"
	"strings"
	"sync"
	"time"

	"mzohaib/bankdealworker/helpers"
	"mzohaib/bankdealworker/internal/deal"
	"mzohaib/bankdealworker/internal/extract"
	"mzohaib/bankdealworker/internal/normalize"
	"mzohaib/bankdealworker/logger"
	"mzohaib/bankdealworker/services/cache"
	"mzohaib/bankdealworker/services/repair"
	"mzohaib/bankdealworker/services/search"
)

const (
	searchResultCount = 100
	blockKeyPrefix    = "scrape_block:"
	blockDuration     = 10 * time.Minute
)

// Scraper coordinates the per-source scrape paths
type Scraper struct {
	search         search.Client
	repairer       repair.TextRepairer
	blockCache     cache.Cache
	widget         *WidgetClient
	maxRepairCalls int
}

// New creates a scraper. The search client is required; repairer and block
// cache may be nil, which disables repair and fetch blocking respectively.
func New(searchClient search.Client, repairer repair.TextRepairer, blockCache cache.Cache, widget *WidgetClient, maxRepairCalls int) *Scraper {
	return &Scraper{
		search:         searchClient,
		repairer:       repairer,
		blockCache:     blockCache,
		widget:         widget,
		maxRepairCalls: maxRepairCalls,
	}
}

type fetchResult struct {
	url    string
	text   string
	isHTML bool
	err    error
}

// ScrapeSource scrapes one bank source and returns its deals. Failures are
// logged and degrade to an empty result; one broken source must not sink the
// whole run.
func (s *Scraper) ScrapeSource(ctx context.Context, src deal.BankSource) []deal.ScrapedDeal {
	log := logger.ForSource(src.Name)

	// The widget path is authoritative when it produces deals; a broken or
	// empty widget still leaves the bank's own pages worth mining.
	if src.WidgetBase != "" {
		widgetDeals, err := s.widget.FetchDeals(ctx, src)
		if err != nil {
			log.Warn().Err(err).Msg("Widget scrape failed, falling back to page text")
		}
		if len(widgetDeals) > 0 {
			log.Info().Int("count", len(widgetDeals)).Msg("Widget scrape finished")
			return widgetDeals
		}
	}

	if s.isBlocked(src) {
		log.Warn().Msg("Source is in the fetch block list, skipping this round")
		return nil
	}

	urls := s.discoverURLs(ctx, src)
	results := s.fetchAll(ctx, urls)

	var deals []deal.ScrapedDeal
	for _, result := range results {
		if result.err != nil {
			log.Warn().Err(result.err).Str("url", result.url).Msg("Fetch failed")
			if strings.Contains(result.err.Error(), "rate limited") {
				s.block(src)
			}
			continue
		}

		// A widget host embedded in a generic page means the bank runs the
		// structured widget after all; its output is authoritative.
		if result.isHTML {
			if host := widgetHostRe.FindStringSubmatch(result.text); host != nil {
				discovered := src
				discovered.WidgetBase = host[1]
				log.Info().Str("widget_host", discovered.WidgetBase).Msg("Discovered embedded widget host")
				widgetDeals, err := s.widget.FetchDeals(ctx, discovered)
				if err == nil && len(widgetDeals) > 0 {
					return widgetDeals
				}
				if err != nil {
					log.Warn().Err(err).Msg("Discovered widget scrape failed, continuing with page text")
				}
			}
			result.text = htmlToLines(result.text)
		}

		deals = append(deals, extract.FromText(result.text, src.Name)...)
	}

	deals = s.repairGarbled(ctx, src, deals)
	log.Info().Int("count", len(deals)).Int("urls", len(urls)).Msg("Text scrape finished")
	return deals
}

// discoverURLs builds the fetch set: the registered website plus search hits
// restricted to the bank's domain.
func (s *Scraper) discoverURLs(ctx context.Context, src deal.BankSource) []string {
	log := logger.ForSource(src.Name)

	seen := map[string]struct{}{src.Website: {}}
	urls := []string{src.Website}

	query := "site:" + src.BaseDomain + " discounts offers card"
	results, err := s.search.Search(ctx, query, searchResultCount)
	if err != nil {
		log.Warn().Err(err).Msg("Search discovery failed, using registered website only")
		return urls
	}

	for _, result := range results {
		if result.Link == "" || !strings.Contains(result.Link, src.BaseDomain) {
			continue
		}
		if _, dup := seen[result.Link]; dup {
			continue
		}
		seen[result.Link] = struct{}{}
		urls = append(urls, result.Link)
	}
	return urls
}

// fetchAll fetches every URL concurrently and classifies each body as HTML
// or PDF text.
func (s *Scraper) fetchAll(ctx context.Context, urls []string) []fetchResult {
	results := make([]fetchResult, len(urls))
	var wg sync.WaitGroup
	for i, url := range urls {
		wg.Add(1)
		go func(i int, url string) {
			defer wg.Done()
			results[i] = s.fetchOne(ctx, url)
		}(i, url)
	}
	wg.Wait()
	return results
}

func (s *Scraper) fetchOne(ctx context.Context, url string) fetchResult {
	body, contentType, err := helpers.FetchBytes(ctx, url)
	if err != nil {
		return fetchResult{url: url, err: err}
	}

	looksLikePDF := strings.Contains(strings.ToLower(contentType), "application/pdf") ||
		strings.HasSuffix(strings.ToLower(url), ".pdf")
	if looksLikePDF && strings.HasPrefix(string(body[:min(4, len(body))]), "%PDF") {
		return fetchResult{url: url, text: pdfToText(body)}
	}

	return fetchResult{url: url, text: string(body), isHTML: true}
}

// repairGarbled sends garbled merchant records through the repairer, capped
// per source batch. A repair is only applied when the returned name survives
// the garbled check itself.
func (s *Scraper) repairGarbled(ctx context.Context, src deal.BankSource, deals []deal.ScrapedDeal) []deal.ScrapedDeal {
	if s.repairer == nil {
		return deals
	}
	log := logger.ForSource(src.Name)

	fixes := 0
	for i := range deals {
		if fixes >= s.maxRepairCalls {
			break
		}
		if !extract.LooksGarbled(deals[i].MerchantName) {
			continue
		}
		fixes++

		repaired, err := s.repairer.Repair(ctx, src.Name, deals[i].Conditions)
		if err != nil {
			log.Warn().Err(err).Str("merchant", deals[i].MerchantName).Msg("Repair call failed")
			continue
		}
		if repaired.MerchantName != "" && !extract.LooksGarbled(repaired.MerchantName) {
			deals[i].MerchantName = helpers.CleanText(repaired.MerchantName)
		}
		if repaired.Category != "" {
			deals[i].Category = normalize.Category(repaired.Category)
		}
		if repaired.City != "" {
			deals[i].City = normalize.City(repaired.City)
		}
		if repaired.Conditions != "" {
			deals[i].Conditions = extract.Truncate(helpers.CleanText(repaired.Conditions), 300)
		}
	}
	if fixes > 0 {
		log.Info().Int("repairs", fixes).Msg("Garbled record repair pass finished")
	}
	return deals
}

func (s *Scraper) isBlocked(src deal.BankSource) bool {
	if s.blockCache == nil {
		return false
	}
	value, err := s.blockCache.Get(blockKeyPrefix + src.Name)
	return err == nil && len(value) > 0
}

func (s *Scraper) block(src deal.BankSource) {
	if s.blockCache == nil {
		return
	}
	if err := s.blockCache.Set(blockKeyPrefix+src.Name, []byte("1"), blockDuration); err != nil {
		logger.ForSource(src.Name).Warn().Err(err).Msg("Failed to record fetch block")
	}
}

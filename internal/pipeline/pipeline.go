// Package pipeline wires the full scrape round together: scrape each source,
// upsert, publish, expire, rebuild the semantic index. It is also the query
// facade the HTTP handlers call.
package pipeline

import (
	"context"
	"errors"
	"math"
	"time"

	"mzohaib/bankdealworker/internal/deal"
	"mzohaib/bankdealworker/logger"
	"mzohaib/bankdealworker/services/publisher"
	"mzohaib/bankdealworker/services/rank"
	"mzohaib/bankdealworker/services/semantic"
	"mzohaib/bankdealworker/services/state"
	"mzohaib/bankdealworker/services/store"
)

// ErrRunInProgress is returned when a scrape round is already active
var ErrRunInProgress = errors.New("scrape run already in progress")

// SourceScraper scrapes one bank source
type SourceScraper interface {
	ScrapeSource(ctx context.Context, src deal.BankSource) []deal.ScrapedDeal
}

// Pipeline owns one scrape round and the read-side queries
type Pipeline struct {
	scraper SourceScraper
	store   *store.Store
	gate    *state.Gate
	index   *semantic.Index
	pub     publisher.Publisher
	sources []deal.BankSource
	log     *logger.Logger
}

// New creates a pipeline. The publisher may be nil, which disables the
// new-offer stream.
func New(scraper SourceScraper, st *store.Store, gate *state.Gate, index *semantic.Index, pub publisher.Publisher, sources []deal.BankSource) *Pipeline {
	return &Pipeline{
		scraper: scraper,
		store:   st,
		gate:    gate,
		index:   index,
		pub:     pub,
		sources: sources,
		log:     logger.ForComponent("pipeline"),
	}
}

// RunFullScrape runs one end-to-end round over every registered source and
// returns how many new discounts were inserted. Only one round runs at a
// time; concurrent calls get ErrRunInProgress. Per-source failures are logged
// and skipped so one bank cannot sink the round.
func (p *Pipeline) RunFullScrape(ctx context.Context) (int, error) {
	if !p.gate.Begin() {
		return 0, ErrRunInProgress
	}

	started := time.Now()
	totalInserted := 0
	for _, src := range p.sources {
		deals := p.scraper.ScrapeSource(ctx, src)
		if len(deals) == 0 {
			continue
		}

		inserted, err := p.store.UpsertDeals(ctx, src, deals)
		if err != nil {
			p.log.Error().Err(err).Str("source", src.Name).Msg("Upsert failed")
			continue
		}
		totalInserted += len(inserted)

		// Only the rows that were actually new go to the stream; duplicates
		// skipped by dedup and records dropped at upsert stay off it.
		if p.pub != nil && len(inserted) > 0 {
			if err := p.pub.PublishOffers(src.Name, scrapedToOffers(src, inserted)); err != nil {
				p.log.Warn().Err(err).Str("source", src.Name).Msg("Publish failed")
			}
		}
	}

	expired, err := p.store.ExpireOldDiscounts(ctx, time.Now())
	if err != nil {
		p.log.Error().Err(err).Msg("Expiry sweep failed")
	}

	if _, err := p.RebuildSemanticIndex(ctx); err != nil {
		p.log.Error().Err(err).Msg("Semantic index rebuild failed")
	}

	if p.pub != nil {
		if err := p.pub.TrimStreams(); err != nil {
			p.log.Warn().Err(err).Msg("Stream trim failed")
		}
	}

	p.gate.End(totalInserted, expired)
	p.log.Info().
		Int("inserted", totalInserted).
		Int("expired", expired).
		Dur("took", time.Since(started)).
		Msg("Scrape round finished")
	return totalInserted, nil
}

// RebuildSemanticIndex re-embeds the whole stored corpus and returns the
// number of indexed offers
func (p *Pipeline) RebuildSemanticIndex(ctx context.Context) (int, error) {
	offers, err := p.store.AllOffers(ctx)
	if err != nil {
		return 0, err
	}
	if err := p.index.Rebuild(offers); err != nil {
		return 0, err
	}
	return len(offers), nil
}

// Offers lists and ranks offers for one request. When the filtered candidate
// set is empty and an intent was given, the semantic index answers instead.
func (p *Pipeline) Offers(ctx context.Context, filter store.Filter, intent string) ([]rank.RankedOffer, error) {
	candidates, err := p.store.ListOffers(ctx, filter)
	if err != nil {
		return nil, err
	}

	if len(candidates) == 0 && intent != "" {
		topK := int(filter.Limit)
		results, err := p.index.Search(intent, topK)
		if err != nil {
			return nil, err
		}
		ranked := make([]rank.RankedOffer, 0, len(results))
		for _, r := range results {
			ranked = append(ranked, rank.RankedOffer{
				Offer: r.Offer,
				Score: math.Round(r.Score*10000) / 100,
			})
		}
		return ranked, nil
	}

	return rank.RankOffers(candidates, filter.City, intent, time.Now()), nil
}

// RankCards returns every card scored by its discount portfolio
func (p *Pipeline) RankCards(ctx context.Context) ([]rank.RankedCard, error) {
	stats, err := p.store.CardAggregates(ctx)
	if err != nil {
		return nil, err
	}
	return rank.RankCards(stats), nil
}

// SemanticSearch queries the fallback index directly
func (p *Pipeline) SemanticSearch(query string, topK int) ([]semantic.Result, error) {
	return p.index.Search(query, topK)
}

// IsMaintenance reports whether a scrape round is currently running
func (p *Pipeline) IsMaintenance() (bool, string) {
	return p.gate.IsMaintenance()
}

// LastRun returns the last completed round's summary
func (p *Pipeline) LastRun() state.RunResult {
	return p.gate.LastRun()
}

// ExpireOldDiscounts runs the expiry sweep on its own, outside a full round
func (p *Pipeline) ExpireOldDiscounts(ctx context.Context) (int, error) {
	return p.store.ExpireOldDiscounts(ctx, time.Now())
}

// Analytics returns corpus-level counts
func (p *Pipeline) Analytics(ctx context.Context) (store.Analytics, error) {
	return p.store.Analytics(ctx, time.Now())
}

// Trends returns the weekly discount series with a naive forecast
func (p *Pipeline) Trends(ctx context.Context) (store.Trends, error) {
	return p.store.Trends(ctx)
}

// BankInsights returns each bank's discount portfolio rollup
func (p *Pipeline) BankInsights(ctx context.Context) ([]store.BankInsight, error) {
	return p.store.BankInsights(ctx)
}

// ListBanks returns the registered banks
func (p *Pipeline) ListBanks(ctx context.Context) ([]store.BankSummary, error) {
	return p.store.ListBanks(ctx)
}

// GetBank returns one bank with its cards
func (p *Pipeline) GetBank(ctx context.Context, id int64) (store.BankDetail, error) {
	return p.store.GetBank(ctx, id)
}

func scrapedToOffers(src deal.BankSource, deals []deal.ScrapedDeal) []deal.Offer {
	offers := make([]deal.Offer, 0, len(deals))
	for _, d := range deals {
		offers = append(offers, deal.Offer{
			Merchant:         d.MerchantName,
			City:             d.City,
			Category:         d.Category,
			MerchantImageURL: d.MerchantImageURL,
			DiscountPercent:  d.DiscountPercent,
			Conditions:       d.Conditions,
			CardName:         d.CardName,
			CardType:         d.CardType,
			CardTier:         d.CardTier,
			Bank:             src.Name,
			ValidFrom:        d.ValidFrom,
			ValidTo:          d.ValidTo,
		})
	}
	return offers
}
